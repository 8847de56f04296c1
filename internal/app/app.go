// Package app wires the form domain to its adapters. An App holds what all
// wizards share; a Session is one wizard instance driven by the CLI, the
// TUI or the MCP server.
package app

import (
	"fmt"
	"io"
	"os"

	"github.com/felixgeelhaar/summitforms/internal/adapters/filesystem"
	"github.com/felixgeelhaar/summitforms/internal/adapters/httpapi"
	"github.com/felixgeelhaar/summitforms/internal/adapters/logging"
	"github.com/felixgeelhaar/summitforms/internal/adapters/receipts"
	"github.com/felixgeelhaar/summitforms/internal/domain/config"
	"github.com/felixgeelhaar/summitforms/internal/domain/fields"
	"github.com/felixgeelhaar/summitforms/internal/domain/form"
	"github.com/felixgeelhaar/summitforms/internal/domain/imageproc"
	"github.com/felixgeelhaar/summitforms/internal/domain/lookups"
	"github.com/felixgeelhaar/summitforms/internal/domain/profiles"
	"github.com/felixgeelhaar/summitforms/internal/domain/submission"
	"github.com/felixgeelhaar/summitforms/internal/ports"
)

// App holds the dependencies shared by every session.
type App struct {
	settings  config.Settings
	catalog   *profiles.Catalog
	registry  fields.Registry
	fs        ports.FileSystem
	transport ports.APITransport
	logger    ports.Logger
	processor imageproc.ImageProcessor
	lookups   *lookups.Client
	journal   *receipts.Journal
}

// Option configures an App.
type Option func(*App)

// WithFileSystem replaces the real filesystem.
func WithFileSystem(fs ports.FileSystem) Option {
	return func(a *App) { a.fs = fs }
}

// WithTransport replaces the HTTP transport to the remote API.
func WithTransport(t ports.APITransport) Option {
	return func(a *App) { a.transport = t }
}

// WithLogger sets the logger. The default discards everything.
func WithLogger(l ports.Logger) Option {
	return func(a *App) { a.logger = l }
}

// WithProcessor replaces the image processor.
func WithProcessor(p imageproc.ImageProcessor) Option {
	return func(a *App) { a.processor = p }
}

// New creates an App from settings.
func New(settings config.Settings, opts ...Option) (*App, error) {
	catalog, err := profiles.Load()
	if err != nil {
		return nil, fmt.Errorf("load form profiles: %w", err)
	}

	a := &App{
		settings: settings,
		catalog:  catalog,
		registry: fields.DefaultRegistry(),
		logger:   ports.Discard,
	}
	for _, opt := range opts {
		opt(a)
	}
	if a.fs == nil {
		a.fs = filesystem.NewRealFileSystem()
	}
	if a.transport == nil {
		a.transport = httpapi.NewClient(httpapi.ClientConfig{
			Timeout:   settings.API.AttemptTimeout,
			UserAgent: settings.API.UserAgent,
		}, nil)
	}
	if a.processor == nil {
		a.processor = imageproc.NewProcessor()
	}

	a.lookups, err = lookups.NewClient(lookups.Config{
		BaseURL:      settings.API.BaseURL,
		Timeout:      settings.API.LookupTimeout,
		BypassHeader: settings.API.BypassHeader,
		BypassValue:  settings.API.BypassValue,
	}, a.transport, a.logger)
	if err != nil {
		return nil, fmt.Errorf("load built-in lookups: %w", err)
	}

	if settings.Receipts.Enabled && settings.Receipts.Path != "" {
		a.journal = receipts.NewJournal(a.fs, settings.Receipts.Path)
	}
	return a, nil
}

// Settings returns the settings the App was built with.
func (a *App) Settings() config.Settings { return a.settings }

// Catalog returns the form profiles.
func (a *App) Catalog() *profiles.Catalog { return a.catalog }

// Lookups returns the lookup client.
func (a *App) Lookups() *lookups.Client { return a.lookups }

// Journal returns the receipts journal, or nil when receipts are disabled.
func (a *App) Journal() *receipts.Journal { return a.journal }

// Logger returns the application logger.
func (a *App) Logger() ports.Logger { return a.logger }

// Profile returns the profile of the named form.
func (a *App) Profile(name string) (*profiles.Profile, error) {
	kind, err := form.ParseKind(name)
	if err != nil {
		return nil, a.unknownForm(name)
	}
	p, err := a.catalog.Get(kind)
	if err != nil {
		return nil, a.unknownForm(name)
	}
	return p, nil
}

func (a *App) unknownForm(name string) error {
	forms := a.catalog.Forms()
	names := make([]string, 0, len(forms))
	for _, f := range forms {
		names = append(names, string(f))
	}
	return config.NewUnknownFormError(name, names)
}

func (a *App) imageOptions() imageproc.Options {
	return imageproc.Options{
		MaxBytes:     int64(a.settings.Image.MaxSize),
		MaxDimension: a.settings.Image.MaxDimension,
		MaxPixels:    a.settings.Image.MaxPixels,
		Quality:      a.settings.Image.Quality,
	}
}

func (a *App) engineConfig() submission.Config {
	return submission.Config{
		BaseURL:        a.settings.API.BaseURL,
		AttemptTimeout: a.settings.API.AttemptTimeout,
		BypassHeader:   a.settings.API.BypassHeader,
		BypassValue:    a.settings.API.BypassValue,
		UserAgent:      a.settings.API.UserAgent,
	}
}

// NewLogger builds the console logger described by settings, writing to
// out (stderr when nil).
func NewLogger(settings config.LogSettings, out io.Writer) (ports.Logger, error) {
	level, err := ports.ParseLevel(settings.Level)
	if err != nil {
		return nil, config.NewInvalidSettingError("log.level", err.Error())
	}
	if out == nil {
		out = os.Stderr
	}
	return logging.NewConsoleLogger(
		logging.WithOutput(out),
		logging.WithLevel(level),
		logging.WithJSONFormat(settings.Format == "json"),
	), nil
}
