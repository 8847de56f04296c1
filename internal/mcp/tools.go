// Package mcp exposes the form validators, lookups and submission engine as
// Model Context Protocol tools.
package mcp

import (
	"context"
	"encoding/base64"
	"errors"
	"strings"

	"github.com/felixgeelhaar/mcp-go"
	"github.com/felixgeelhaar/summitforms/internal/adapters/answers"
	"github.com/felixgeelhaar/summitforms/internal/app"
	"github.com/felixgeelhaar/summitforms/internal/domain/fields"
	"github.com/felixgeelhaar/summitforms/internal/domain/lookups"
	"github.com/felixgeelhaar/summitforms/internal/domain/submission"
	"github.com/felixgeelhaar/summitforms/internal/domain/wizard"
)

// EmailInput is the input for the summitforms_validate_email tool.
type EmailInput struct {
	Email string `json:"email" jsonschema:"required,description=Email address to check"`
}

// EmailOutput is the output for the summitforms_validate_email tool.
type EmailOutput struct {
	Valid          bool     `json:"valid"`
	Message        string   `json:"message,omitempty"`
	AllowedDomains []string `json:"allowed_domains"`
}

// PhoneInput is the input for the summitforms_normalize_phone tool.
type PhoneInput struct {
	Phone string `json:"phone" jsonschema:"required,description=Phone number in any format"`
}

// PhoneOutput is the output for the summitforms_normalize_phone tool.
type PhoneOutput struct {
	Normalized string `json:"normalized"`
	Valid      bool   `json:"valid"`
}

// PasswordInput is the input for the summitforms_score_password tool.
type PasswordInput struct {
	Password string `json:"password" jsonschema:"required,description=Password to score"`
}

// PasswordOutput reports the strength of a password.
type PasswordOutput struct {
	Password string `json:"password,omitempty"`
	IsValid  bool   `json:"is_valid"`
	Strength string `json:"strength"`
	Score    int    `json:"score"`
	Message  string `json:"message,omitempty"`
}

// GenerateInput is the input for the summitforms_generate_password tool.
type GenerateInput struct{}

// StepsInput is the input for the summitforms_steps tool.
type StepsInput struct {
	Form string `json:"form" jsonschema:"required,description=Form name: nomination or registration"`
}

// StepsOutput describes the steps of a form.
type StepsOutput struct {
	Form  string     `json:"form"`
	Title string     `json:"title"`
	Steps []StepInfo `json:"steps"`
}

// StepInfo is one wizard step.
type StepInfo struct {
	ID          int         `json:"id"`
	Name        string      `json:"name"`
	Title       string      `json:"title"`
	Description string      `json:"description,omitempty"`
	Fields      []FieldInfo `json:"fields,omitempty"`
}

// FieldInfo is one field of a step.
type FieldInfo struct {
	Name     string `json:"name"`
	Label    string `json:"label"`
	Kind     string `json:"kind"`
	Required bool   `json:"required"`
	Lookup   string `json:"lookup,omitempty"`
}

// LookupInput is the input for the summitforms_lookup tool.
type LookupInput struct {
	Kind string `json:"kind" jsonschema:"required,description=Lookup list: job-title, user-title, regions, districts or categories"`
}

// LookupOutput is a loaded lookup list.
type LookupOutput struct {
	Kind    string           `json:"kind"`
	Source  string           `json:"source"`
	Options []lookups.Option `json:"options"`
	Error   string           `json:"error,omitempty"`
}

// SubmitInput is the input for the summitforms_submit tool.
type SubmitInput struct {
	Form        string            `json:"form" jsonschema:"required,description=Form name: nomination or registration"`
	Answers     map[string]string `json:"answers" jsonschema:"required,description=Field values keyed by field name"`
	ImageField  string            `json:"image_field,omitempty" jsonschema:"description=Image field to fill from image_base64"`
	ImageName   string            `json:"image_name,omitempty" jsonschema:"description=File name of the image"`
	ImageBase64 string            `json:"image_base64,omitempty" jsonschema:"description=Base64 encoded image bytes"`
	DryRun      bool              `json:"dry_run,omitempty" jsonschema:"description=Validate and list the attempts without sending"`
	Confirm     bool              `json:"confirm" jsonschema:"required,description=Must be true to submit (safety confirmation)"`
}

// SubmitOutput is the output for the summitforms_submit tool.
type SubmitOutput struct {
	Submitted   bool              `json:"submitted"`
	DryRun      bool              `json:"dry_run"`
	RequestID   string            `json:"request_id,omitempty"`
	Stage       string            `json:"stage,omitempty"`
	Minimal     bool              `json:"minimal,omitempty"`
	DuplicateOf string            `json:"duplicate_of,omitempty"`
	Message     string            `json:"message,omitempty"`
	FieldErrors map[string]string `json:"field_errors,omitempty"`
	Attempts    []AttemptInfo     `json:"attempts,omitempty"`
}

// AttemptInfo is one attempt of the submission cascade.
type AttemptInfo struct {
	Name     string `json:"name"`
	Stage    string `json:"stage"`
	Endpoint string `json:"endpoint"`
	Outcome  string `json:"outcome,omitempty"`
	Status   int    `json:"status,omitempty"`
	Summary  string `json:"summary,omitempty"`
}

// RegisterAll registers every summitforms tool on srv.
func RegisterAll(srv *mcp.Server, application *app.App) {
	registerValidateEmailTool(srv)
	registerNormalizePhoneTool(srv)
	registerScorePasswordTool(srv)
	registerGeneratePasswordTool(srv)
	registerStepsTool(srv, application)
	registerLookupTool(srv, application)
	registerSubmitTool(srv, application)
}

func registerValidateEmailTool(srv *mcp.Server) {
	srv.Tool("summitforms_validate_email").
		Description("Check that an email address is well formed and uses an accepted personal email provider.").
		ReadOnly().
		Handler(func(_ context.Context, in EmailInput) (*EmailOutput, error) {
			out := &EmailOutput{
				Valid:          fields.ValidateEmail(in.Email),
				AllowedDomains: fields.AllowedEmailDomains,
			}
			if err := fields.DefaultRegistry().Validate("email", fields.KindEmail, in.Email); err != nil {
				var fieldErr *fields.FieldValidationError
				if errors.As(err, &fieldErr) {
					out.Message = fieldErr.Message
				}
			}
			return out, nil
		})
}

func registerNormalizePhoneTool(srv *mcp.Server) {
	srv.Tool("summitforms_normalize_phone").
		Description("Strip a phone number to its digits, keep the first ten and report whether exactly ten remain.").
		ReadOnly().
		Handler(func(_ context.Context, in PhoneInput) (*PhoneOutput, error) {
			return &PhoneOutput{
				Normalized: fields.NormalizePhone(in.Phone),
				Valid:      fields.ValidatePhone(in.Phone),
			}, nil
		})
}

func registerScorePasswordTool(srv *mcp.Server) {
	srv.Tool("summitforms_score_password").
		Description("Score a password: the first unmet rule, or a 0-7 score and weak/medium/strong rating.").
		ReadOnly().
		Handler(func(_ context.Context, in PasswordInput) (*PasswordOutput, error) {
			return passwordOutput(fields.ScorePasswordStrength(in.Password), ""), nil
		})
}

func registerGeneratePasswordTool(srv *mcp.Server) {
	srv.Tool("summitforms_generate_password").
		Description("Generate a random strong password of 12 to 16 characters.").
		ReadOnly().
		Handler(func(_ context.Context, _ GenerateInput) (*PasswordOutput, error) {
			pw := fields.GenerateStrongPassword()
			return passwordOutput(fields.ScorePasswordStrength(pw), pw), nil
		})
}

func passwordOutput(s fields.PasswordStrength, password string) *PasswordOutput {
	return &PasswordOutput{
		Password: password,
		IsValid:  s.IsValid,
		Strength: string(s.Strength),
		Score:    s.Score,
		Message:  s.Message,
	}
}

func registerStepsTool(srv *mcp.Server, application *app.App) {
	srv.Tool("summitforms_steps").
		Description("List the steps and fields of a form, marking required fields.").
		ReadOnly().
		Handler(func(_ context.Context, in StepsInput) (*StepsOutput, error) {
			profile, err := application.Profile(in.Form)
			if err != nil {
				return nil, err
			}
			out := &StepsOutput{Form: string(profile.Form), Title: profile.Title}
			for _, step := range profile.Definition.Steps {
				info := StepInfo{ID: step.ID, Name: step.Name, Title: step.Title, Description: step.Description}
				for _, f := range profile.StepFields(step.ID) {
					info.Fields = append(info.Fields, FieldInfo{
						Name:     f.Name,
						Label:    f.Label,
						Kind:     string(f.Kind),
						Required: profile.IsRequired(f.Name),
						Lookup:   string(f.Lookup),
					})
				}
				out.Steps = append(out.Steps, info)
			}
			return out, nil
		})
}

func registerLookupTool(srv *mcp.Server, application *app.App) {
	srv.Tool("summitforms_lookup").
		Description("Load a lookup list from the API, falling back to the built-in list when it is unavailable.").
		ReadOnly().
		Handler(func(ctx context.Context, in LookupInput) (*LookupOutput, error) {
			if err := ValidateLookupInput(&in); err != nil {
				return nil, err
			}
			kind, _ := lookups.ParseKind(in.Kind)
			list := application.Lookups().Fetch(ctx, kind)
			out := &LookupOutput{Kind: string(list.Kind), Source: string(list.Source), Options: list.Options}
			if list.Err != nil {
				out.Error = list.Err.Error()
			}
			return out, nil
		})
}

func registerSubmitTool(srv *mcp.Server, application *app.App) {
	srv.Tool("summitforms_submit").
		Description("Fill a form and submit it through the fallback cascade. REQUIRES confirm=true unless dry_run is set.").
		Destructive().
		Handler(func(ctx context.Context, in SubmitInput) (*SubmitOutput, error) {
			if err := ValidateSubmitInput(&in); err != nil {
				return nil, err
			}
			if !in.Confirm && !in.DryRun {
				return &SubmitOutput{Message: "Nothing was sent: set confirm=true to submit."}, nil
			}
			return submit(ctx, application, in)
		})
}

func submit(ctx context.Context, application *app.App, in SubmitInput) (*SubmitOutput, error) {
	session, err := application.NewSession(in.Form)
	if err != nil {
		return nil, err
	}
	defer session.Close()

	if err := session.Apply(answers.Answers(in.Answers)); err != nil {
		return nil, err
	}
	if in.ImageField != "" {
		data, err := base64.StdEncoding.DecodeString(strings.TrimSpace(in.ImageBase64))
		if err != nil {
			return nil, errors.New("image_base64 is not valid base64")
		}
		name := in.ImageName
		if name == "" {
			name = in.ImageField
		}
		if err := session.SelectImageData(ctx, in.ImageField, name, data); err != nil {
			return &SubmitOutput{DryRun: in.DryRun, Message: err.Error(), FieldErrors: session.State().Errors()}, nil
		}
	}

	out := &SubmitOutput{DryRun: in.DryRun}
	if prior, found, err := session.Duplicate(); err == nil && found {
		out.DuplicateOf = prior.RequestID
	}

	if in.DryRun {
		return dryRun(session, out)
	}

	report, err := session.Complete(ctx)
	if report != nil {
		out.RequestID = report.RequestID
		out.Stage = string(report.SucceededStage)
		out.Minimal = report.Minimal()
		for _, r := range report.Attempts {
			out.Attempts = append(out.Attempts, AttemptInfo{
				Name:     r.Attempt,
				Stage:    string(r.Stage),
				Endpoint: r.Endpoint,
				Outcome:  r.Outcome.String(),
				Status:   r.StatusCode,
				Summary:  r.Summary(),
			})
		}
	}

	var gate *wizard.StepGateError
	var subErr *submission.SubmissionError
	switch {
	case err == nil:
		out.Submitted = true
		if out.Minimal {
			out.Message = "Only the minimal payload was accepted; the server may hold a partial record."
		}
	case errors.As(err, &gate):
		out.Message = gate.Error()
		out.FieldErrors = session.State().Errors()
	case errors.As(err, &subErr):
		out.Message = subErr.UserMessage()
		out.FieldErrors = session.State().Errors()
	default:
		return nil, err
	}
	return out, nil
}

// dryRun checks every step gate and lists the attempts a submission would
// make, without sending anything.
func dryRun(session *app.Session, out *SubmitOutput) (*SubmitOutput, error) {
	def := session.Profile().Definition
	for id := 0; id < def.Terminal(); id++ {
		if !session.Controller().IsStepValid(id) {
			step, _ := def.Step(id)
			out.Message = "step " + step.Name + " is not complete"
			out.FieldErrors = session.State().Errors()
			return out, nil
		}
	}
	attempts, err := session.Plan()
	if err != nil {
		return nil, err
	}
	for _, a := range attempts {
		out.Attempts = append(out.Attempts, AttemptInfo{Name: a.Name, Stage: string(a.Stage), Endpoint: a.Endpoint})
	}
	out.Message = "All steps are complete."
	return out, nil
}
