package ui

import (
	"github.com/charmbracelet/lipgloss"
)

// Theme colors.
var (
	ColorPrimary    = lipgloss.AdaptiveColor{Light: "#1e66f5", Dark: "#89b4fa"}
	ColorSecondary  = lipgloss.AdaptiveColor{Light: "#7c3aed", Dark: "#cba6f7"}
	ColorSuccess    = lipgloss.AdaptiveColor{Light: "#40a02b", Dark: "#a6e3a1"}
	ColorWarning    = lipgloss.AdaptiveColor{Light: "#df8e1d", Dark: "#f9e2af"}
	ColorError      = lipgloss.AdaptiveColor{Light: "#d20f39", Dark: "#f38ba8"}
	ColorMuted      = lipgloss.AdaptiveColor{Light: "#6c6f85", Dark: "#6c7086"}
	ColorText       = lipgloss.AdaptiveColor{Light: "#4c4f69", Dark: "#cdd6f4"}
	ColorBackground = lipgloss.AdaptiveColor{Light: "#eff1f5", Dark: "#1e1e2e"}
	ColorSurface    = lipgloss.AdaptiveColor{Light: "#e6e9ef", Dark: "#313244"}
)

// Styles contains the lipgloss styles of the wizard.
type Styles struct {
	App         lipgloss.Style
	Title       lipgloss.Style
	Progress    lipgloss.Style
	Description lipgloss.Style

	Label        lipgloss.Style
	LabelFocused lipgloss.Style
	Required     lipgloss.Style
	FieldHelp    lipgloss.Style
	FieldError   lipgloss.Style

	Success lipgloss.Style
	Warning lipgloss.Style
	Error   lipgloss.Style

	Button         lipgloss.Style
	ButtonDisabled lipgloss.Style

	HelpKey  lipgloss.Style
	HelpText lipgloss.Style
}

// DefaultStyles returns the default styles.
func DefaultStyles() Styles {
	return Styles{
		App: lipgloss.NewStyle().
			Padding(1, 2),

		Title: lipgloss.NewStyle().
			Bold(true).
			Foreground(ColorPrimary),

		Progress: lipgloss.NewStyle().
			Foreground(ColorSecondary),

		Description: lipgloss.NewStyle().
			Foreground(ColorText).
			MarginBottom(1),

		Label: lipgloss.NewStyle().
			Foreground(ColorText),

		LabelFocused: lipgloss.NewStyle().
			Foreground(ColorPrimary).
			Bold(true),

		Required: lipgloss.NewStyle().
			Foreground(ColorError),

		FieldHelp: lipgloss.NewStyle().
			Foreground(ColorMuted).
			Italic(true),

		FieldError: lipgloss.NewStyle().
			Foreground(ColorError).
			PaddingLeft(2),

		Success: lipgloss.NewStyle().
			Foreground(ColorSuccess).
			Bold(true),

		Warning: lipgloss.NewStyle().
			Foreground(ColorWarning),

		Error: lipgloss.NewStyle().
			Foreground(ColorError),

		Button: lipgloss.NewStyle().
			Padding(0, 2).
			Foreground(ColorBackground).
			Background(ColorPrimary).
			Bold(true),

		ButtonDisabled: lipgloss.NewStyle().
			Padding(0, 2).
			Foreground(ColorMuted).
			Background(ColorSurface),

		HelpKey: lipgloss.NewStyle().
			Foreground(ColorPrimary).
			Bold(true),

		HelpText: lipgloss.NewStyle().
			Foreground(ColorMuted),
	}
}

// WithWidth returns styles adapted to a terminal width.
func (s Styles) WithWidth(width int) Styles {
	s.App = s.App.Width(width)
	s.Description = s.Description.Width(width - 4)
	return s
}
