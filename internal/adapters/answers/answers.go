// Package answers loads pre-filled wizard answers from YAML, TOML or INI
// files for non-interactive runs.
package answers

import (
	"fmt"
	"path/filepath"
	"sort"
	"strings"

	"github.com/felixgeelhaar/summitforms/internal/domain/config"
	"github.com/felixgeelhaar/summitforms/internal/ports"
	"github.com/pelletier/go-toml/v2"
	"gopkg.in/ini.v1"
	"gopkg.in/yaml.v3"
)

// Format is the syntax of an answers file.
type Format string

// Supported answers formats.
const (
	FormatYAML Format = "yaml"
	FormatTOML Format = "toml"
	FormatINI  Format = "ini"
)

// Section is the INI section read in addition to the default section.
const Section = "answers"

// Answers maps field names to their raw values. Checkbox fields use
// "true" and "false".
type Answers map[string]string

// Fields returns the field names, sorted.
func (a Answers) Fields() []string {
	out := make([]string, 0, len(a))
	for k := range a {
		out = append(out, k)
	}
	sort.Strings(out)
	return out
}

// FormatFor picks the format from a file extension.
func FormatFor(path string) (Format, error) {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		return FormatYAML, nil
	case ".toml":
		return FormatTOML, nil
	case ".ini", ".cfg":
		return FormatINI, nil
	default:
		return "", config.NewUserError(config.ErrCodeAnswersInvalid,
			fmt.Sprintf("unsupported answers file %q", path)).
			WithSuggestion("use a .yaml, .toml or .ini file")
	}
}

// Load reads and parses the answers file at path.
func Load(fs ports.FileSystem, path string) (Answers, error) {
	format, err := FormatFor(path)
	if err != nil {
		return nil, err
	}
	if !fs.Exists(path) {
		return nil, config.NewUserError(config.ErrCodeFileNotFound,
			"answers file not found").WithContext(path)
	}
	data, err := fs.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read answers: %w", err)
	}
	a, err := Parse(format, data)
	if err != nil {
		if ue := config.GetUserError(err); ue != nil {
			return nil, ue.WithContext(path)
		}
		return nil, err
	}
	return a, nil
}

// Parse decodes answers in the given format. Values must be scalars.
func Parse(format Format, data []byte) (Answers, error) {
	switch format {
	case FormatYAML:
		return parseYAML(data)
	case FormatTOML:
		return parseTOML(data)
	case FormatINI:
		return parseINI(data)
	default:
		return nil, invalid(fmt.Sprintf("unknown answers format %q", format), nil)
	}
}

// parseYAML walks the node tree so scalars keep their literal text. Decoding
// into interface values would turn "0241234567" into an octal integer.
func parseYAML(data []byte) (Answers, error) {
	var doc yaml.Node
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return nil, invalid("answers file is not valid YAML", err)
	}
	out := Answers{}
	if len(doc.Content) == 0 {
		return out, nil
	}
	root := doc.Content[0]
	if root.Kind != yaml.MappingNode {
		return nil, invalid("answers file must be a mapping of field names to values", nil)
	}
	for i := 0; i+1 < len(root.Content); i += 2 {
		key, val := root.Content[i], root.Content[i+1]
		if val.Kind != yaml.ScalarNode {
			return nil, invalid(fmt.Sprintf("answer %q must be a single value", key.Value), nil)
		}
		if val.Tag == "!!null" {
			continue
		}
		out[key.Value] = val.Value
	}
	return out, nil
}

func parseTOML(data []byte) (Answers, error) {
	var raw map[string]any
	if err := toml.Unmarshal(data, &raw); err != nil {
		return nil, invalid("answers file is not valid TOML", err)
	}
	out := make(Answers, len(raw))
	for k, v := range raw {
		switch v := v.(type) {
		case string:
			out[k] = v
		case bool, int64, float64:
			out[k] = fmt.Sprint(v)
		default:
			return nil, invalid(fmt.Sprintf("answer %q must be a single value", k), nil)
		}
	}
	return out, nil
}

func parseINI(data []byte) (Answers, error) {
	cfg, err := ini.Load(data)
	if err != nil {
		return nil, invalid("answers file is not valid INI", err)
	}
	out := Answers{}
	for _, key := range cfg.Section(ini.DefaultSection).Keys() {
		out[key.Name()] = key.String()
	}
	if sec, err := cfg.GetSection(Section); err == nil {
		for _, key := range sec.Keys() {
			out[key.Name()] = key.String()
		}
	}
	return out, nil
}

func invalid(msg string, err error) *config.UserError {
	ue := config.NewUserError(config.ErrCodeAnswersInvalid, msg).
		WithSuggestion("write one `field: value` entry per line")
	if err != nil {
		ue = ue.WithUnderlying(err)
	}
	return ue
}
