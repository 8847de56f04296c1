package tui

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/dustin/go-humanize"
	"github.com/felixgeelhaar/summitforms/internal/app"
	"github.com/felixgeelhaar/summitforms/internal/domain/fields"
	"github.com/felixgeelhaar/summitforms/internal/domain/profiles"
	"github.com/felixgeelhaar/summitforms/internal/domain/submission"
	"github.com/felixgeelhaar/summitforms/internal/domain/wizard"
	"github.com/felixgeelhaar/summitforms/internal/tui/ui"
)

// wizardModel renders one step of a session at a time. Every keystroke is
// written to the form state, so inline errors and the next button follow
// the controller's gate.
type wizardModel struct {
	ctx     context.Context
	session *app.Session
	styles  ui.Styles
	keys    ui.KeyMap
	width   int
	height  int

	step   int
	fields []profiles.Field
	inputs map[string]textinput.Model
	focus  int

	// picked holds the last image path selected per field.
	picked map[string]string

	busy   bool
	status string
	exited bool
}

func newWizardModel(ctx context.Context, session *app.Session) wizardModel {
	m := wizardModel{
		ctx:     ctx,
		session: session,
		styles:  ui.DefaultStyles(),
		keys:    ui.DefaultKeyMap(),
		width:   ui.DefaultWidth,
		height:  ui.DefaultHeight,
		picked:  make(map[string]string),
	}
	return m.loadStep()
}

// loadStep builds the inputs of the controller's current step, filled from
// the form state.
func (m wizardModel) loadStep() wizardModel {
	m.step = m.session.Controller().Step()
	m.fields = m.session.Profile().StepFields(m.step)
	m.inputs = make(map[string]textinput.Model, len(m.fields))
	m.focus = 0
	m.status = ""

	state := m.session.State()
	for _, f := range m.fields {
		if f.Kind == fields.KindCheckbox {
			continue
		}
		in := textinput.New()
		in.Placeholder = f.Placeholder
		in.CharLimit = ui.DefaultCharLimit
		in.Width = ui.DefaultInputWidth
		if f.Kind == fields.KindPassword || f.Secret {
			in.EchoMode = textinput.EchoPassword
		}
		if f.Kind == fields.KindImage {
			in.Placeholder = "path/to/photo.jpg"
			if state.File(f.Name) != nil {
				in.SetValue(m.picked[f.Name])
			}
		} else {
			in.SetValue(state.Text(f.Name))
		}
		if f.Kind == fields.KindSelect {
			in.ShowSuggestions = true
			in.SetSuggestions(m.suggestions(f.Name))
		}
		m.inputs[f.Name] = in
	}
	return m.focusField(0)
}

func (m wizardModel) suggestions(field string) []string {
	options := m.session.Options(field)
	out := make([]string, 0, len(options))
	for i, o := range options {
		if i == ui.MaxSuggestions {
			break
		}
		out = append(out, o.Label)
	}
	return out
}

func (m wizardModel) focusField(i int) wizardModel {
	if len(m.fields) == 0 {
		m.focus = 0
		return m
	}
	m.focus = (i + len(m.fields)) % len(m.fields)
	for idx, f := range m.fields {
		in, ok := m.inputs[f.Name]
		if !ok {
			continue
		}
		if idx == m.focus {
			in.Focus()
		} else {
			in.Blur()
		}
		m.inputs[f.Name] = in
	}
	return m
}

func (m wizardModel) focused() (profiles.Field, bool) {
	if m.focus >= len(m.fields) {
		return profiles.Field{}, false
	}
	return m.fields[m.focus], true
}

func (m wizardModel) terminal() bool {
	return m.step == m.session.Profile().Definition.Terminal()
}

func (m wizardModel) Init() tea.Cmd {
	return textinput.Blink
}

func (m wizardModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.styles = m.styles.WithWidth(msg.Width)
		return m, nil

	case ui.AdvancedMsg:
		m.busy = false
		return m.afterAdvance(msg.Transition, msg.Err)

	case ui.ImageSelectedMsg:
		m.busy = false
		m.status = ""
		if msg.Err == nil {
			m.picked[msg.Field] = msg.Path
		}
		return m, nil

	case tea.KeyMsg:
		return m.handleKey(msg)
	}
	return m.updateInput(msg)
}

func (m wizardModel) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	if ui.Matches(msg, m.keys.Quit) {
		m.exited = true
		return m, tea.Quit
	}
	if m.busy {
		return m, nil
	}

	switch {
	case ui.Matches(msg, m.keys.Back):
		return m.back()
	case ui.Matches(msg, m.keys.Restart) && m.terminal():
		if _, err := m.session.Restart(); err != nil {
			m.status = err.Error()
			return m, nil
		}
		return m.loadStep(), nil
	case msg.Type == tea.KeyTab && m.hasSuggestion():
		return m.updateInput(msg)
	case ui.Matches(msg, m.keys.NextField):
		return m.focusField(m.focus + 1), nil
	case ui.Matches(msg, m.keys.PrevField):
		return m.focusField(m.focus - 1), nil
	case ui.Matches(msg, m.keys.Next):
		return m.next()
	case ui.Matches(msg, m.keys.Toggle):
		if f, ok := m.focused(); ok && f.Kind == fields.KindCheckbox {
			current := m.session.State().Bool(f.Name)
			_ = m.session.SetText(f.Name, fmt.Sprint(!current))
			return m, nil
		}
	}
	return m.updateInput(msg)
}

// hasSuggestion reports whether the focused select input offers a
// completion that tab would accept.
func (m wizardModel) hasSuggestion() bool {
	f, ok := m.focused()
	if !ok || f.Kind != fields.KindSelect {
		return false
	}
	in := m.inputs[f.Name]
	s := in.CurrentSuggestion()
	return s != "" && s != in.Value()
}

// updateInput forwards msg to the focused input and stores its value.
func (m wizardModel) updateInput(msg tea.Msg) (tea.Model, tea.Cmd) {
	f, ok := m.focused()
	if !ok {
		return m, nil
	}
	in, ok := m.inputs[f.Name]
	if !ok {
		return m, nil
	}
	before := in.Value()
	var cmd tea.Cmd
	in, cmd = in.Update(msg)
	m.inputs[f.Name] = in

	if f.Kind != fields.KindImage && in.Value() != before {
		if err := m.session.SetText(f.Name, in.Value()); err != nil {
			m.status = err.Error()
		}
	}
	return m, cmd
}

func (m wizardModel) back() (tea.Model, tea.Cmd) {
	if m.terminal() {
		m.exited = true
		return m, tea.Quit
	}
	t, err := m.session.Retreat()
	if err != nil {
		m.status = err.Error()
		return m, nil
	}
	if t == wizard.TransitionExit {
		m.exited = true
		return m, tea.Quit
	}
	return m.loadStep(), nil
}

// next selects a typed image path first, then advances. Leaving the last
// data step submits in the background.
func (m wizardModel) next() (tea.Model, tea.Cmd) {
	if m.terminal() {
		return m, nil
	}
	if f, ok := m.focused(); ok && f.Kind == fields.KindImage {
		path := strings.TrimSpace(m.inputs[f.Name].Value())
		if path != "" && (m.session.State().File(f.Name) == nil || m.picked[f.Name] != path) {
			m.busy = true
			return m, m.selectImage(f.Name, path)
		}
	}
	if !m.session.Controller().CanAdvance() {
		if err := m.session.Controller().Gate(); err != nil {
			m.status = err.Error()
		}
		return m, nil
	}
	if m.step == m.session.Profile().Definition.LastDataStep() {
		m.busy = true
		m.status = "Submitting…"
		return m, m.advance()
	}
	t, err := m.session.Advance(m.ctx)
	return m.afterAdvance(t, err)
}

func (m wizardModel) advance() tea.Cmd {
	ctx, session := m.ctx, m.session
	return func() tea.Msg {
		t, err := session.Advance(ctx)
		return ui.AdvancedMsg{Transition: t, Err: err}
	}
}

func (m wizardModel) selectImage(field, path string) tea.Cmd {
	ctx, session := m.ctx, m.session
	return func() tea.Msg {
		return ui.ImageSelectedMsg{Field: field, Path: path, Err: session.SelectImage(ctx, field, path)}
	}
}

func (m wizardModel) afterAdvance(t wizard.Transition, err error) (tea.Model, tea.Cmd) {
	if err != nil {
		m.status = errorText(err)
		return m, nil
	}
	if t == wizard.TransitionNone {
		return m, nil
	}
	return m.loadStep(), nil
}

func errorText(err error) string {
	var subErr *submission.SubmissionError
	if errors.As(err, &subErr) {
		return subErr.UserMessage()
	}
	return err.Error()
}

func (m wizardModel) View() string {
	def := m.session.Profile().Definition
	step, _ := def.Step(m.step)

	var b strings.Builder
	b.WriteString(m.styles.Title.Render(m.session.Profile().Title))
	b.WriteString("  ")
	if !m.terminal() {
		b.WriteString(m.styles.Progress.Render(fmt.Sprintf("Step %d of %d", m.step+1, def.Terminal())))
	}
	b.WriteString("\n")
	b.WriteString(m.styles.Title.Render(step.Title))
	b.WriteString("\n")
	if step.Description != "" {
		b.WriteString(m.styles.Description.Render(step.Description))
		b.WriteString("\n")
	}

	if m.terminal() {
		b.WriteString(m.viewComplete())
		return m.styles.App.Render(b.String())
	}

	for i, f := range m.fields {
		b.WriteString(m.viewField(i, f))
	}
	b.WriteString("\n")

	if m.session.Controller().CanAdvance() && !m.busy {
		b.WriteString(m.styles.Button.Render(m.nextLabel()))
	} else {
		b.WriteString(m.styles.ButtonDisabled.Render(m.nextLabel()))
	}
	b.WriteString("\n")
	if m.status != "" {
		b.WriteString("\n")
		b.WriteString(m.styles.Error.Render(m.status))
		b.WriteString("\n")
	}
	b.WriteString("\n")
	b.WriteString(m.styles.Help(m.keys.NextField, m.keys.Toggle, m.keys.Next, m.keys.Back, m.keys.Quit))
	return m.styles.App.Render(b.String())
}

func (m wizardModel) nextLabel() string {
	if m.step == m.session.Profile().Definition.LastDataStep() {
		return "Submit"
	}
	if m.step == 0 {
		return "Start"
	}
	return "Next"
}

func (m wizardModel) viewField(i int, f profiles.Field) string {
	state := m.session.State()
	label := m.styles.Label
	if i == m.focus {
		label = m.styles.LabelFocused
	}

	var b strings.Builder
	if f.Kind == fields.KindCheckbox {
		box := "[ ]"
		if state.Bool(f.Name) {
			box = "[x]"
		}
		b.WriteString(label.Render(box + " " + f.Label))
	} else {
		b.WriteString(label.Render(f.Label))
		if m.session.Profile().IsRequired(f.Name) {
			b.WriteString(m.styles.Required.Render(" *"))
		}
		b.WriteString("\n")
		b.WriteString(m.inputs[f.Name].View())
	}
	b.WriteString("\n")

	if file := state.File(f.Name); f.Kind == fields.KindImage && file != nil {
		note := fmt.Sprintf("%s, %s", file.Name, humanize.IBytes(uint64(file.Size())))
		if len(file.Resized) > 0 {
			note += fmt.Sprintf(" (resized from %s)", humanize.IBytes(uint64(file.SizeBytes)))
		}
		b.WriteString(m.styles.FieldHelp.Render("  " + note))
		b.WriteString("\n")
	} else if f.Help != "" && i == m.focus {
		b.WriteString(m.styles.FieldHelp.Render("  " + f.Help))
		b.WriteString("\n")
	}
	if msg := state.Error(f.Name); msg != "" {
		b.WriteString(m.styles.FieldError.Render(msg))
		b.WriteString("\n")
	}
	return b.String()
}

func (m wizardModel) viewComplete() string {
	var b strings.Builder
	report := m.session.Report()
	b.WriteString(m.styles.Success.Render("Submitted"))
	b.WriteString("\n")
	if report != nil {
		b.WriteString(m.styles.FieldHelp.Render("Reference: " + report.RequestID))
		b.WriteString("\n")
		if report.Minimal() {
			b.WriteString(m.styles.Warning.Render(
				"Only your name and email were accepted. Please contact the organisers to complete your details."))
			b.WriteString("\n")
		}
	}
	b.WriteString("\n")
	b.WriteString(m.styles.Help(m.keys.Restart, m.keys.Back))
	return b.String()
}
