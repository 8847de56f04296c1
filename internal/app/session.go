package app

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"path/filepath"
	"strconv"
	"sync"

	"github.com/dustin/go-humanize"
	"github.com/felixgeelhaar/summitforms/internal/adapters/answers"
	"github.com/felixgeelhaar/summitforms/internal/adapters/receipts"
	"github.com/felixgeelhaar/summitforms/internal/domain/config"
	"github.com/felixgeelhaar/summitforms/internal/domain/fields"
	"github.com/felixgeelhaar/summitforms/internal/domain/form"
	"github.com/felixgeelhaar/summitforms/internal/domain/imageproc"
	"github.com/felixgeelhaar/summitforms/internal/domain/lookups"
	"github.com/felixgeelhaar/summitforms/internal/domain/profiles"
	"github.com/felixgeelhaar/summitforms/internal/domain/submission"
	"github.com/felixgeelhaar/summitforms/internal/domain/wizard"
	"github.com/felixgeelhaar/summitforms/internal/ports"
)

// ErrNotImage is returned when a non-image field is given a file or an
// image field is given text.
var ErrNotImage = errors.New("field kind does not match value")

// Session is one wizard instance: its form state, step controller, image
// selector and submission engine.
type Session struct {
	app        *App
	profile    *profiles.Profile
	state      *form.State
	controller *wizard.Controller
	selector   *imageproc.Selector
	engine     *submission.Engine
	logger     ports.Logger

	mu      sync.Mutex
	report  *submission.Report
	receipt *receipts.Receipt
	lists   map[lookups.Kind]lookups.List
}

// NewSession starts a wizard for the named form.
func (a *App) NewSession(name string) (*Session, error) {
	profile, err := a.Profile(name)
	if err != nil {
		return nil, err
	}

	s := &Session{
		app:     a,
		profile: profile,
		state:   profile.NewState(a.registry),
		logger:  a.logger.With(ports.F("form", string(profile.Form))),
		lists:   make(map[lookups.Kind]lookups.List),
	}
	previews := imageproc.NewPreviewRegistry(func(handle string) {
		s.logger.Debug(context.Background(), "preview released", ports.F("preview", handle))
	})
	s.selector = imageproc.NewSelector(a.processor, a.imageOptions(), previews)
	s.engine = submission.NewEngine(a.engineConfig(), profile.Submission, a.transport, s.logger)

	s.controller, err = wizard.New(profile.Definition, s.state,
		wizard.WithSubmitter(wizard.SubmitterFunc(s.submit)),
		wizard.WithOnReset(s.reset),
		wizard.WithLogger(s.logger),
	)
	if err != nil {
		return nil, err
	}
	return s, nil
}

// Profile returns the form profile.
func (s *Session) Profile() *profiles.Profile { return s.profile }

// Controller returns the step controller.
func (s *Session) Controller() *wizard.Controller { return s.controller }

// State returns the live form state.
func (s *Session) State() *form.State { return s.state }

// Previews returns the image preview registry.
func (s *Session) Previews() *imageproc.PreviewRegistry { return s.selector.Previews() }

// Report returns the report of the last submission, if any.
func (s *Session) Report() *submission.Report {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.report
}

// Receipt returns the journal entry of the last submission, if one was
// recorded.
func (s *Session) Receipt() *receipts.Receipt {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.receipt
}

// SetText sets a field from its textual form. Checkbox fields accept the
// usual boolean spellings.
func (s *Session) SetText(name, raw string) error {
	f, ok := s.profile.Field(name)
	if !ok {
		return config.NewUnknownFieldError(name, string(s.profile.Form))
	}
	switch f.Kind {
	case fields.KindImage:
		return fmt.Errorf("%w: %s takes an image file", ErrNotImage, name)
	case fields.KindCheckbox:
		if raw == "" {
			return s.controller.SetField(name, form.Bool(false))
		}
		b, err := strconv.ParseBool(raw)
		if err != nil {
			return config.NewUserError(config.ErrCodeValidationFailed,
				fmt.Sprintf("%s must be true or false", name)).WithContext(name)
		}
		return s.controller.SetField(name, form.Bool(b))
	default:
		return s.controller.SetField(name, form.Text(raw))
	}
}

// Apply sets every answer. Unknown fields and unusable values are reported
// together as a *config.ErrorList; values that fail validation stay in the
// form with their inline error.
func (s *Session) Apply(a answers.Answers) error {
	errs := config.NewErrorList()
	for _, name := range a.Fields() {
		err := s.SetText(name, a[name])
		var userErr *config.UserError
		switch {
		case err == nil:
		case errors.As(err, &userErr):
			errs.Add(userErr)
		case errors.Is(err, ErrNotImage):
			errs.AddValidation(name, "image fields cannot be set from answers",
				"Select the image separately, for example with --image "+name+"=path.")
		default:
			errs.AddValidation(name, err.Error(), "")
		}
	}
	return errs.AsError()
}

// MaxImageFileSize bounds the files SelectImage will read at all. Smaller
// files over the configured image size are still resized.
const MaxImageFileSize = 64 << 20

// SelectImage reads the image at path and selects it for field.
func (s *Session) SelectImage(ctx context.Context, field, path string) error {
	info, err := s.app.fs.GetFileInfo(path)
	switch {
	case err != nil:
		return config.NewUserError(config.ErrCodeFileNotFound, "image file not found").WithContext(path)
	case info.IsDir:
		return config.NewUserError(config.ErrCodeImageRejected, "image path is a directory").WithContext(path)
	case info.Size > MaxImageFileSize:
		return config.NewUserError(config.ErrCodeImageRejected,
			fmt.Sprintf("image file is %s, the limit is %s", humanize.IBytes(uint64(info.Size)), humanize.IBytes(MaxImageFileSize))).
			WithContext(path)
	}
	data, err := s.app.fs.ReadFile(path)
	if err != nil {
		return fmt.Errorf("read image: %w", err)
	}
	return s.SelectImageData(ctx, field, filepath.Base(path), data)
}

// SelectImageData processes data as the new image of field. A selection
// superseded by a newer one is dropped silently. A rejected image leaves
// the previous value in place and puts the reason on the field.
func (s *Session) SelectImageData(ctx context.Context, field, name string, data []byte) error {
	f, ok := s.profile.Field(field)
	if !ok {
		return config.NewUnknownFieldError(field, string(s.profile.Form))
	}
	if f.Kind != fields.KindImage {
		return fmt.Errorf("%w: %s is not an image field", ErrNotImage, field)
	}

	file := form.UploadedFile{
		Name:      name,
		Original:  data,
		MIMEType:  http.DetectContentType(data),
		SizeBytes: int64(len(data)),
	}
	processed, err := s.selector.Select(ctx, field, file, func(f form.UploadedFile, err error) error {
		if err != nil {
			s.controller.SetFieldError(field, err.Error())
			return err
		}
		return s.controller.SetField(field, form.File(&f))
	})
	if errors.Is(err, imageproc.ErrStaleSelection) {
		return nil
	}
	if err != nil {
		return err
	}
	if processed.Resized != nil {
		s.logger.Info(ctx, "image resized",
			ports.F("field", field), ports.F("from", file.SizeBytes), ports.F("to", len(processed.Resized)))
	}
	return nil
}

// LoadLookups fetches the lookup lists used by this form's select fields.
func (s *Session) LoadLookups(ctx context.Context) map[lookups.Kind]lookups.List {
	out := make(map[lookups.Kind]lookups.List)
	for _, f := range s.profile.Fields {
		if f.Lookup == "" {
			continue
		}
		if _, done := out[f.Lookup]; done {
			continue
		}
		out[f.Lookup] = s.app.lookups.Fetch(ctx, f.Lookup)
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	for k, l := range out {
		s.lists[k] = l
	}
	return out
}

// Options returns the choices of a select field: the loaded list, or the
// built-in one when nothing was loaded.
func (s *Session) Options(field string) []lookups.Option {
	f, ok := s.profile.Field(field)
	if !ok || f.Lookup == "" {
		return nil
	}
	s.mu.Lock()
	l, loaded := s.lists[f.Lookup]
	s.mu.Unlock()
	if loaded {
		return l.Options
	}
	return s.app.lookups.Fallback(f.Lookup)
}

// Advance moves the wizard forward, submitting from the last data step.
func (s *Session) Advance(ctx context.Context) (wizard.Transition, error) {
	return s.controller.Advance(ctx)
}

// Retreat moves the wizard back one step.
func (s *Session) Retreat() (wizard.Transition, error) {
	return s.controller.Retreat()
}

// Restart clears the form after a successful submission.
func (s *Session) Restart() (wizard.Transition, error) {
	return s.controller.Restart()
}

// Complete advances through every remaining step and submits. It stops at
// the first step whose gate is closed.
func (s *Session) Complete(ctx context.Context) (*submission.Report, error) {
	terminal := s.profile.Definition.Terminal()
	for s.controller.Step() < terminal {
		if _, err := s.controller.Advance(ctx); err != nil {
			return s.Report(), err
		}
	}
	return s.Report(), nil
}

// Plan returns the attempts a submission of the current answers would make.
func (s *Session) Plan() ([]submission.Attempt, error) {
	return submission.Plan(s.profile.Submission, s.state.Snapshot())
}

// Duplicate reports an earlier accepted submission of the same answers.
func (s *Session) Duplicate() (receipts.Receipt, bool, error) {
	if s.app.journal == nil {
		return receipts.Receipt{}, false, nil
	}
	fp, err := submission.Fingerprint(s.profile.Submission, s.state.Snapshot())
	if err != nil {
		return receipts.Receipt{}, false, err
	}
	return s.app.journal.FindSuccess(fp)
}

// Close releases every image preview.
func (s *Session) Close() {
	s.selector.Reset()
}

// submit runs the engine for the wizard and records the outcome. Per-field
// rejections from the server are put back on the fields they name.
func (s *Session) submit(ctx context.Context, snapshot form.Snapshot) error {
	report, err := s.engine.Submit(ctx, snapshot)

	var receipt *receipts.Receipt
	if report != nil && s.app.journal != nil {
		r, jerr := s.app.journal.Record(report)
		if jerr != nil {
			s.logger.Warn(ctx, "could not record receipt", ports.F("path", s.app.journal.Path()), ports.Err(jerr))
		} else {
			receipt = &r
		}
	}

	s.mu.Lock()
	s.report = report
	s.receipt = receipt
	s.mu.Unlock()

	var subErr *submission.SubmissionError
	if errors.As(err, &subErr) {
		for api, msg := range subErr.FieldErrors() {
			if field, ok := s.fieldForAPI(api); ok {
				s.controller.SetFieldError(field, msg)
			}
		}
	}
	return err
}

func (s *Session) fieldForAPI(api string) (string, bool) {
	for field, name := range s.profile.Submission.FieldMap {
		if name == api {
			return field, true
		}
	}
	return "", false
}

func (s *Session) reset() {
	s.selector.Reset()
	s.mu.Lock()
	s.report = nil
	s.receipt = nil
	s.mu.Unlock()
}
