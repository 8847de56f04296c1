// Package profiles provides the embedded form profiles: the steps, fields
// and submission contract of the nomination and registration wizards.
package profiles

import (
	_ "embed"
	"errors"
	"fmt"
	"slices"
	"sort"

	"github.com/felixgeelhaar/summitforms/internal/domain/fields"
	"github.com/felixgeelhaar/summitforms/internal/domain/form"
	"github.com/felixgeelhaar/summitforms/internal/domain/lookups"
	"github.com/felixgeelhaar/summitforms/internal/domain/submission"
	"github.com/felixgeelhaar/summitforms/internal/domain/wizard"
	"gopkg.in/yaml.v3"
)

//go:embed profiles.yaml
var profilesYAML []byte

// ErrUnknownForm is returned when asking for a form that has no profile.
var ErrUnknownForm = errors.New("unknown form")

// Field describes one input of a form.
type Field struct {
	Name        string
	Label       string
	Kind        fields.Kind
	API         string
	Lookup      lookups.Kind
	Placeholder string
	Help        string
	// Secret fields are masked when typed.
	Secret bool
}

// Profile is everything known about one form.
type Profile struct {
	Form       form.Kind
	Title      string
	Fields     []Field
	Definition wizard.Definition
	Submission submission.Profile
	byName     map[string]Field
}

// Field returns the field called name.
func (p *Profile) Field(name string) (Field, bool) {
	f, ok := p.byName[name]
	return f, ok
}

// StepFields returns the fields shown on step id, in display order.
func (p *Profile) StepFields(id int) []Field {
	step, ok := p.Definition.Step(id)
	if !ok {
		return nil
	}
	out := make([]Field, 0, len(step.Fields))
	for _, name := range step.Fields {
		out = append(out, p.byName[name])
	}
	return out
}

// IsRequired reports whether field is required on the step that shows it.
func (p *Profile) IsRequired(field string) bool {
	for _, s := range p.Definition.Steps {
		if slices.Contains(s.RequiredFields, field) {
			return true
		}
	}
	return false
}

// Schema returns the field kinds of the form.
func (p *Profile) Schema() form.Schema {
	schema := make(form.Schema, len(p.Fields))
	for _, f := range p.Fields {
		schema[f.Name] = f.Kind
	}
	return schema
}

// NewState creates an empty form state for this profile.
func (p *Profile) NewState(registry fields.Registry) *form.State {
	return form.NewState(p.Form, p.Schema(), registry)
}

// Catalog holds the profiles of every form.
type Catalog struct {
	profiles map[form.Kind]*Profile
}

// Get returns the profile of kind.
func (c *Catalog) Get(kind form.Kind) (*Profile, error) {
	p, ok := c.profiles[kind]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrUnknownForm, kind)
	}
	return p, nil
}

// Forms returns the form kinds in the catalog, sorted.
func (c *Catalog) Forms() []form.Kind {
	out := make([]form.Kind, 0, len(c.profiles))
	for k := range c.profiles {
		out = append(out, k)
	}
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	return out
}

type catalogDTO struct {
	Forms map[string]profileDTO `yaml:"forms"`
}

type profileDTO struct {
	Title          string            `yaml:"title"`
	Endpoint       string            `yaml:"endpoint"`
	StageEndpoints map[string]string `yaml:"stage_endpoints"`
	ContentTypes   []contentTypeDTO  `yaml:"content_types"`
	Optional       []string          `yaml:"optional"`
	Minimal        []string          `yaml:"minimal"`
	Fields         []fieldDTO        `yaml:"fields"`
	Steps          []stepDTO         `yaml:"steps"`
}

type contentTypeDTO struct {
	Name  string `yaml:"name"`
	Value string `yaml:"value"`
}

type fieldDTO struct {
	Name        string `yaml:"name"`
	Label       string `yaml:"label"`
	Kind        string `yaml:"kind"`
	API         string `yaml:"api"`
	Lookup      string `yaml:"lookup"`
	Placeholder string `yaml:"placeholder"`
	Help        string `yaml:"help"`
	Secret      bool   `yaml:"secret"`
}

type stepDTO struct {
	Name            string   `yaml:"name"`
	Title           string   `yaml:"title"`
	Description     string   `yaml:"description"`
	Fields          []string `yaml:"fields"`
	Required        []string `yaml:"required"`
	Validator       string   `yaml:"validator"`
	ValidatorFields []string `yaml:"validator_fields"`
}

// Load parses the embedded profiles.
func Load() (*Catalog, error) {
	return Parse(profilesYAML)
}

// Parse builds a catalog from profile YAML.
func Parse(data []byte) (*Catalog, error) {
	var dto catalogDTO
	if err := yaml.Unmarshal(data, &dto); err != nil {
		return nil, fmt.Errorf("failed to parse profiles YAML: %w", err)
	}
	if len(dto.Forms) == 0 {
		return nil, errors.New("profiles YAML defines no forms")
	}

	cat := &Catalog{profiles: make(map[form.Kind]*Profile, len(dto.Forms))}
	for name, p := range dto.Forms {
		kind, err := form.ParseKind(name)
		if err != nil {
			return nil, err
		}
		profile, err := parseProfile(kind, p)
		if err != nil {
			return nil, fmt.Errorf("failed to parse %s profile: %w", kind, err)
		}
		cat.profiles[kind] = profile
	}
	return cat, nil
}

func parseProfile(kind form.Kind, dto profileDTO) (*Profile, error) {
	p := &Profile{
		Form:   kind,
		Title:  dto.Title,
		byName: make(map[string]Field, len(dto.Fields)),
	}
	fieldMap := make(map[string]string)

	for _, fd := range dto.Fields {
		f, err := parseField(fd)
		if err != nil {
			return nil, err
		}
		if _, dup := p.byName[f.Name]; dup {
			return nil, fmt.Errorf("field %q defined twice", f.Name)
		}
		p.Fields = append(p.Fields, f)
		p.byName[f.Name] = f
		if f.API != "" {
			fieldMap[f.Name] = f.API
		}
	}

	steps := make([]wizard.StepDefinition, 0, len(dto.Steps))
	for i, sd := range dto.Steps {
		step, err := p.parseStep(i, sd)
		if err != nil {
			return nil, err
		}
		steps = append(steps, step)
	}
	def, err := wizard.NewDefinition(kind, steps)
	if err != nil {
		return nil, err
	}
	p.Definition = def

	for _, name := range append(slices.Clone(dto.Optional), dto.Minimal...) {
		if _, ok := fieldMap[name]; !ok {
			return nil, fmt.Errorf("field %q is not sent to the API", name)
		}
	}
	if len(dto.Minimal) != 2 {
		return nil, fmt.Errorf("minimal submission must name exactly two fields, got %d", len(dto.Minimal))
	}

	stageEndpoints := make(map[submission.Stage]string, len(dto.StageEndpoints))
	for stage, ep := range dto.StageEndpoints {
		switch s := submission.Stage(stage); s {
		case submission.StagePrimary, submission.StageReduced, submission.StageMultipart, submission.StageMinimal:
			stageEndpoints[s] = ep
		default:
			return nil, fmt.Errorf("unknown stage %q in stage_endpoints", stage)
		}
	}
	var contentTypes []submission.ContentTypeVariant
	for _, ct := range dto.ContentTypes {
		if ct.Name == "" || ct.Value == "" {
			return nil, errors.New("content type variants need a name and a value")
		}
		contentTypes = append(contentTypes, submission.ContentTypeVariant{Name: ct.Name, Value: ct.Value})
	}
	if dto.Endpoint == "" {
		return nil, errors.New("endpoint is required")
	}

	p.Submission = submission.Profile{
		Form:           kind,
		Endpoint:       dto.Endpoint,
		StageEndpoints: stageEndpoints,
		FieldMap:       fieldMap,
		Optional:       dto.Optional,
		Minimal:        dto.Minimal,
		ContentTypes:   contentTypes,
	}
	return p, nil
}

func parseField(dto fieldDTO) (Field, error) {
	if dto.Name == "" {
		return Field{}, errors.New("field without a name")
	}
	kind, err := fields.ParseKind(dto.Kind)
	if err != nil {
		return Field{}, fmt.Errorf("field %q: %w", dto.Name, err)
	}
	f := Field{
		Name:        dto.Name,
		Label:       dto.Label,
		Kind:        kind,
		API:         dto.API,
		Placeholder: dto.Placeholder,
		Help:        dto.Help,
		Secret:      dto.Secret || kind == fields.KindPassword,
	}
	if f.Label == "" {
		f.Label = f.Name
	}
	if dto.Lookup != "" {
		lk, err := lookups.ParseKind(dto.Lookup)
		if err != nil {
			return Field{}, fmt.Errorf("field %q: %w", dto.Name, err)
		}
		f.Lookup = lk
	}
	if kind == fields.KindSelect && f.Lookup == "" {
		return Field{}, fmt.Errorf("select field %q has no lookup", dto.Name)
	}
	return f, nil
}

func (p *Profile) parseStep(id int, dto stepDTO) (wizard.StepDefinition, error) {
	step := wizard.StepDefinition{
		ID:             id,
		Name:           dto.Name,
		Title:          dto.Title,
		Description:    dto.Description,
		Fields:         dto.Fields,
		RequiredFields: dto.Required,
	}
	stepFields := make([]Field, 0, len(dto.Fields))
	for _, name := range dto.Fields {
		f, ok := p.byName[name]
		if !ok {
			return step, fmt.Errorf("step %q shows undefined field %q", dto.Name, name)
		}
		stepFields = append(stepFields, f)
	}
	if dto.Validator != "" {
		factory, ok := Validators[dto.Validator]
		if !ok {
			return step, fmt.Errorf("step %q: unknown validator %q", dto.Name, dto.Validator)
		}
		v, err := factory(stepFields, dto.ValidatorFields)
		if err != nil {
			return step, fmt.Errorf("step %q: %w", dto.Name, err)
		}
		step.Validator = v
	}
	return step, nil
}
