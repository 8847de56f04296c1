// Package tui provides the interactive terminal wizard.
package tui

import (
	"context"
	"fmt"
	"io"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/felixgeelhaar/summitforms/internal/app"
	"github.com/felixgeelhaar/summitforms/internal/domain/submission"
)

// WizardOptions configures RunWizard.
type WizardOptions struct {
	// Input and Output default to the terminal.
	Input  io.Reader
	Output io.Writer
	// AltScreen runs the wizard in the alternate screen buffer.
	AltScreen bool
}

// WizardResult is how the wizard ended.
type WizardResult struct {
	// Submitted is set when the form reached the success step.
	Submitted bool
	// Exited is set when the user left before submitting.
	Exited bool
	Report *submission.Report
}

// RunWizard runs the interactive wizard for session until the user submits
// and leaves, or exits.
func RunWizard(ctx context.Context, session *app.Session, opts WizardOptions) (*WizardResult, error) {
	model := newWizardModel(ctx, session)

	programOpts := []tea.ProgramOption{tea.WithContext(ctx)}
	if opts.Input != nil {
		programOpts = append(programOpts, tea.WithInput(opts.Input))
	}
	if opts.Output != nil {
		programOpts = append(programOpts, tea.WithOutput(opts.Output))
	}
	if opts.AltScreen {
		programOpts = append(programOpts, tea.WithAltScreen())
	}

	p := tea.NewProgram(model, programOpts...)
	finalModel, err := p.Run()
	if err != nil {
		return nil, fmt.Errorf("wizard failed: %w", err)
	}

	m, ok := finalModel.(wizardModel)
	if !ok {
		return nil, fmt.Errorf("unexpected model type")
	}
	return &WizardResult{
		Submitted: m.terminal(),
		Exited:    m.exited && !m.terminal(),
		Report:    session.Report(),
	}, nil
}
