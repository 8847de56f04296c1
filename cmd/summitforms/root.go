package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"strings"

	"github.com/felixgeelhaar/summitforms/internal/adapters/filesystem"
	"github.com/felixgeelhaar/summitforms/internal/app"
	"github.com/felixgeelhaar/summitforms/internal/domain/config"
	"github.com/felixgeelhaar/summitforms/internal/domain/submission"
	"github.com/spf13/cobra"
)

var (
	// Global flags
	cfgFile    string
	verbose    bool
	baseURL    string
	logLevel   string
	logFormat  string
	noReceipts bool
)

var rootCmd = &cobra.Command{
	Use:   "summitforms",
	Short: "Conference nomination and registration from the terminal",
	Long: `summitforms fills in and submits the conference Nomination and
Registration forms.

Forms are filled step by step, either interactively or from an answers
file, and submitted through a cascade of request shapes until the API
accepts one:
  primary JSON → reduced JSON → multipart → minimal`,
	SilenceErrors: true,
	SilenceUsage:  true,
}

// Execute runs the root command.
func Execute() error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()
	return rootCmd.ExecuteContext(ctx)
}

func init() {
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "settings file (default: summitforms.yaml)")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "verbose output")
	rootCmd.PersistentFlags().StringVar(&baseURL, "base-url", "", "API base URL, overrides the settings file")
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "", "log level (debug, info, warn, error)")
	rootCmd.PersistentFlags().StringVar(&logFormat, "log-format", "", "log format (text, json)")
	rootCmd.PersistentFlags().BoolVar(&noReceipts, "no-receipts", false, "do not read or write the receipts journal")

	registerFlagCompletions()

	rootCmd.AddCommand(versionCmd)
}

// loadSettings reads the settings file and environment, then applies the
// global flags on top.
func loadSettings() (config.Settings, error) {
	loader := config.NewLoader(filesystem.NewRealFileSystem())
	settings, err := loader.Load(cfgFile, cfgFile != "")
	if err != nil {
		return config.Settings{}, err
	}

	if baseURL != "" {
		settings.API.BaseURL = strings.TrimRight(baseURL, "/")
	}
	if logLevel != "" {
		settings.Log.Level = logLevel
	}
	if verbose && logLevel == "" {
		settings.Log.Level = "debug"
	}
	if logFormat != "" {
		settings.Log.Format = logFormat
	}
	if noReceipts {
		settings.Receipts.Enabled = false
	}
	if err := settings.Validate(); err != nil {
		return config.Settings{}, err
	}
	return *settings, nil
}

// loadApp builds the application for cmd, logging to its error stream.
func loadApp(cmd *cobra.Command) (*app.App, error) {
	settings, err := loadSettings()
	if err != nil {
		return nil, err
	}
	logger, err := app.NewLogger(settings.Log, cmd.ErrOrStderr())
	if err != nil {
		return nil, err
	}
	return app.New(settings, app.WithLogger(logger))
}

// formatError returns a user-friendly error message.
// With verbose=false: shows only the user message and suggestion.
// With verbose=true: also shows the underlying technical error.
func formatError(err error) string {
	var list *config.ErrorList
	if errors.As(err, &list) && list.Len() > 1 {
		var b strings.Builder
		fmt.Fprintf(&b, "%d problems:", list.Len())
		for _, e := range list.Errors() {
			b.WriteString("\n  - ")
			b.WriteString(e.Error())
			if e.Suggestion != "" {
				b.WriteString("\n    ")
				b.WriteString(e.Suggestion)
			}
		}
		return b.String()
	}

	var userErr *config.UserError
	if errors.As(err, &userErr) {
		msg := userErr.Message
		if userErr.Context != "" {
			msg += fmt.Sprintf(" (at %s)", userErr.Context)
		}
		if userErr.Suggestion != "" {
			msg += fmt.Sprintf("\n\nSuggestion: %s", userErr.Suggestion)
		}
		if verbose && userErr.Underlying != nil {
			msg += fmt.Sprintf("\n\nTechnical details: %v", userErr.Underlying)
		}
		return msg
	}

	var subErr *submission.SubmissionError
	if errors.As(err, &subErr) {
		msg := subErr.UserMessage()
		if verbose {
			msg += "\n\nAttempts:"
			for _, r := range subErr.Attempts {
				msg += fmt.Sprintf("\n  %-28s %s", r.Attempt, r.Summary())
			}
		}
		return msg
	}
	return err.Error()
}

// printError prints an error message to stderr with proper formatting.
func printError(err error) {
	printErrorTo(os.Stderr, err)
}

// printErrorTo prints an error message to the given writer.
func printErrorTo(w io.Writer, err error) {
	_, _ = fmt.Fprintf(w, "Error: %s\n", formatError(err))
}

// registerFlagCompletions sets up custom completions for global flags.
func registerFlagCompletions() {
	_ = rootCmd.RegisterFlagCompletionFunc("config", func(_ *cobra.Command, _ []string, _ string) ([]string, cobra.ShellCompDirective) {
		return []string{"yaml", "yml"}, cobra.ShellCompDirectiveFilterFileExt
	})

	_ = rootCmd.RegisterFlagCompletionFunc("log-level", func(_ *cobra.Command, _ []string, _ string) ([]string, cobra.ShellCompDirective) {
		return []string{"debug", "info", "warn", "error"}, cobra.ShellCompDirectiveNoFileComp
	})

	_ = rootCmd.RegisterFlagCompletionFunc("log-format", func(_ *cobra.Command, _ []string, _ string) ([]string, cobra.ShellCompDirective) {
		return []string{"text", "json"}, cobra.ShellCompDirectiveNoFileComp
	})
}
