package config

import (
	"errors"
	"fmt"
	"net/url"
	"os"
	"strings"
	"time"

	"github.com/caarlos0/env/v11"
	"github.com/dustin/go-humanize"
	"github.com/felixgeelhaar/summitforms/internal/ports"
	"gopkg.in/yaml.v3"
)

// DefaultSettingsFile is looked up in the working directory when no
// --config flag is given.
const DefaultSettingsFile = "summitforms.yaml"

// EnvPrefix prefixes every environment override.
const EnvPrefix = "SUMMITFORMS_"

// ByteSize is a size in bytes that also accepts strings such as "2 MiB".
type ByteSize int64

// UnmarshalText parses a humanized size.
func (b *ByteSize) UnmarshalText(text []byte) error {
	n, err := humanize.ParseBytes(strings.TrimSpace(string(text)))
	if err != nil {
		return fmt.Errorf("invalid size %q: %w", text, err)
	}
	*b = ByteSize(n)
	return nil
}

// UnmarshalYAML accepts plain integers and humanized strings.
func (b *ByteSize) UnmarshalYAML(node *yaml.Node) error {
	return b.UnmarshalText([]byte(node.Value))
}

func (b ByteSize) String() string {
	return humanize.IBytes(uint64(b))
}

// Settings is the complete runtime configuration.
type Settings struct {
	API      APISettings      `yaml:"api" envPrefix:"API_"`
	Image    ImageSettings    `yaml:"image" envPrefix:"IMAGE_"`
	Receipts ReceiptsSettings `yaml:"receipts" envPrefix:"RECEIPTS_"`
	Log      LogSettings      `yaml:"log" envPrefix:"LOG_"`
}

// APISettings configures access to the remote API.
type APISettings struct {
	BaseURL        string        `yaml:"base_url" env:"BASE_URL"`
	AttemptTimeout time.Duration `yaml:"attempt_timeout" env:"ATTEMPT_TIMEOUT"`
	LookupTimeout  time.Duration `yaml:"lookup_timeout" env:"LOOKUP_TIMEOUT"`
	BypassHeader   string        `yaml:"bypass_header" env:"BYPASS_HEADER"`
	BypassValue    string        `yaml:"bypass_value" env:"BYPASS_VALUE"`
	UserAgent      string        `yaml:"user_agent" env:"USER_AGENT"`
}

// ImageSettings bounds uploaded images.
type ImageSettings struct {
	MaxSize      ByteSize `yaml:"max_size" env:"MAX_SIZE"`
	MaxDimension int      `yaml:"max_dimension" env:"MAX_DIMENSION"`
	MaxPixels    int64    `yaml:"max_pixels" env:"MAX_PIXELS"`
	Quality      int      `yaml:"quality" env:"QUALITY"`
}

// ReceiptsSettings configures the submission journal.
type ReceiptsSettings struct {
	Enabled bool   `yaml:"enabled" env:"ENABLED"`
	Path    string `yaml:"path" env:"PATH"`
}

// LogSettings configures diagnostics output.
type LogSettings struct {
	Level  string `yaml:"level" env:"LEVEL"`
	Format string `yaml:"format" env:"FORMAT"`
}

// Default returns the built-in settings.
func Default() Settings {
	return Settings{
		API: APISettings{
			BaseURL:        "http://localhost:8000/api",
			AttemptTimeout: 15 * time.Second,
			LookupTimeout:  5 * time.Second,
			BypassHeader:   "ngrok-skip-browser-warning",
			BypassValue:    "true",
			UserAgent:      "summitforms",
		},
		Image: ImageSettings{
			MaxSize:      2 << 20,
			MaxDimension: 1024,
			MaxPixels:    40_000_000,
			Quality:      80,
		},
		Receipts: ReceiptsSettings{
			Enabled: true,
			Path:    "~/.summitforms/receipts.yaml",
		},
		Log: LogSettings{
			Level:  "warn",
			Format: "text",
		},
	}
}

// Loader reads settings from a YAML file and the environment.
type Loader struct {
	fs      ports.FileSystem
	environ map[string]string
}

// NewLoader creates a Loader reading files through fs and the process
// environment.
func NewLoader(fs ports.FileSystem) *Loader {
	return &Loader{fs: fs}
}

// WithEnvironment replaces the process environment, for tests.
func (l *Loader) WithEnvironment(environ map[string]string) *Loader {
	return &Loader{fs: l.fs, environ: environ}
}

// Load starts from Default, applies the YAML file at path and then
// SUMMITFORMS_* environment variables. A missing file is only an error
// when explicit is set.
func (l *Loader) Load(path string, explicit bool) (*Settings, error) {
	s := Default()

	if path == "" {
		path = DefaultSettingsFile
	}
	data, err := l.fs.ReadFile(path)
	switch {
	case err == nil:
		if err := yaml.Unmarshal(data, &s); err != nil {
			return nil, NewYAMLParseError(path, err)
		}
	case errors.Is(err, os.ErrNotExist):
		if explicit {
			return nil, NewConfigNotFoundError(path)
		}
	default:
		return nil, NewUserError(ErrCodeConfigNotFound, "cannot read settings file").
			WithContext(path).
			WithUnderlying(err)
	}

	opts := env.Options{Prefix: EnvPrefix}
	if l.environ != nil {
		opts.Environment = l.environ
	}
	if err := env.ParseWithOptions(&s, opts); err != nil {
		return nil, &UserError{
			Code:       ErrCodeEnvInvalid,
			Message:    "invalid environment override",
			Suggestion: "Check the SUMMITFORMS_ variables in your environment.",
			Underlying: err,
		}
	}

	if err := s.Validate(); err != nil {
		return nil, err
	}
	return &s, nil
}

// Validate checks every setting and reports all problems at once.
func (s *Settings) Validate() error {
	errs := NewErrorList()

	if u, err := url.Parse(s.API.BaseURL); err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		errs.Add(NewInvalidSettingError("api.base_url", fmt.Sprintf("%q is not an http(s) URL", s.API.BaseURL)))
	}
	if s.API.AttemptTimeout <= 0 {
		errs.Add(NewInvalidSettingError("api.attempt_timeout", "must be positive"))
	}
	if s.API.LookupTimeout <= 0 {
		errs.Add(NewInvalidSettingError("api.lookup_timeout", "must be positive"))
	}
	if s.Image.MaxSize <= 0 {
		errs.Add(NewInvalidSettingError("image.max_size", "must be positive"))
	}
	if s.Image.MaxDimension <= 0 {
		errs.Add(NewInvalidSettingError("image.max_dimension", "must be positive"))
	}
	if s.Image.MaxPixels <= 0 {
		errs.Add(NewInvalidSettingError("image.max_pixels", "must be positive"))
	}
	if s.Image.Quality < 1 || s.Image.Quality > 100 {
		errs.Add(NewInvalidSettingError("image.quality", "must be between 1 and 100"))
	}
	if s.Receipts.Enabled && s.Receipts.Path == "" {
		errs.Add(NewInvalidSettingError("receipts.path", "required when receipts are enabled"))
	}
	if _, err := ports.ParseLevel(s.Log.Level); err != nil {
		errs.Add(NewInvalidSettingError("log.level", "use debug, info, warn or error"))
	}
	switch s.Log.Format {
	case "text", "json":
	default:
		errs.Add(NewInvalidSettingError("log.format", "use text or json"))
	}

	return errs.AsError()
}
