package wizard

import (
	"context"
	"fmt"
	"sync"

	"github.com/felixgeelhaar/statekit"
	"github.com/felixgeelhaar/summitforms/internal/domain/form"
	"github.com/felixgeelhaar/summitforms/internal/ports"
)

// Phase is the submission lifecycle state of a wizard.
type Phase string

// Lifecycle phases.
const (
	PhaseEditing    Phase = "editing"
	PhaseSubmitting Phase = "submitting"
	PhaseCompleted  Phase = "completed"
)

// Machine state ids of the lifecycle phases.
const (
	stateEditing    = statekit.StateID(PhaseEditing)
	stateSubmitting = statekit.StateID(PhaseSubmitting)
	stateCompleted  = statekit.StateID(PhaseCompleted)
)

// Lifecycle events.
const (
	EventSubmit       = "SUBMIT"
	EventSubmitOK     = "SUBMIT_OK"
	EventSubmitFailed = "SUBMIT_FAILED"
	EventRestart      = "RESTART"
)

// Transition tells the caller what a navigation call did.
type Transition int

// Transition results.
const (
	TransitionNone Transition = iota
	TransitionForward
	TransitionBack
	TransitionSubmitted
	TransitionExit
	TransitionRestarted
)

func (t Transition) String() string {
	switch t {
	case TransitionForward:
		return "forward"
	case TransitionBack:
		return "back"
	case TransitionSubmitted:
		return "submitted"
	case TransitionExit:
		return "exit"
	case TransitionRestarted:
		return "restarted"
	default:
		return "none"
	}
}

// Submitter sends a finished form. It receives a snapshot and never the
// live state.
type Submitter interface {
	Submit(ctx context.Context, snapshot form.Snapshot) error
}

// SubmitterFunc adapts a function to Submitter.
type SubmitterFunc func(ctx context.Context, snapshot form.Snapshot) error

// Submit calls f.
func (f SubmitterFunc) Submit(ctx context.Context, snapshot form.Snapshot) error {
	return f(ctx, snapshot)
}

// Option configures a Controller.
type Option func(*Controller)

// WithSubmitter sets the submitter called from the last data step.
func WithSubmitter(s Submitter) Option {
	return func(c *Controller) { c.submitter = s }
}

// WithOnReset registers a hook run by Restart after the form is cleared,
// for releasing resources such as image previews.
func WithOnReset(fn func()) Option {
	return func(c *Controller) { c.onReset = append(c.onReset, fn) }
}

// WithLogger sets the logger used for transitions.
func WithLogger(l ports.Logger) Option {
	return func(c *Controller) {
		if l != nil {
			c.logger = l
		}
	}
}

// Controller drives one wizard instance. The cursor only ever moves by one
// step at a time, jumps to the success step after a successful submission
// and returns to 0 on Restart.
type Controller struct {
	mu        sync.Mutex
	def       Definition
	state     *form.State
	submitter Submitter
	onReset   []func()
	logger    ports.Logger
	interp    *statekit.Interpreter[lifecycle]

	step      int
	valid     []bool
	stepError error
}

type lifecycle struct{}

// New creates a Controller positioned on the overview step.
func New(def Definition, state *form.State, opts ...Option) (*Controller, error) {
	if len(def.Steps) == 0 {
		return nil, fmt.Errorf("%w: no steps", ErrInvalidDefinition)
	}
	c := &Controller{
		def:    def,
		state:  state,
		valid:  make([]bool, len(def.Steps)),
		logger: ports.Discard,
	}
	for _, opt := range opts {
		opt(c)
	}

	interp, err := buildLifecycle(string(def.Form))
	if err != nil {
		return nil, fmt.Errorf("failed to build wizard lifecycle: %w", err)
	}
	c.interp = interp
	c.interp.Start()
	c.recompute()
	return c, nil
}

func buildLifecycle(name string) (*statekit.Interpreter[lifecycle], error) {
	machine, err := statekit.NewMachine[lifecycle]("summitforms-" + name).
		WithInitial(stateEditing).
		State(stateEditing).
		On(EventSubmit).Target(stateSubmitting).Done().
		State(stateSubmitting).
		On(EventSubmitOK).Target(stateCompleted).
		On(EventSubmitFailed).Target(stateEditing).Done().
		State(stateCompleted).
		On(EventRestart).Target(stateEditing).Done().
		Build()
	if err != nil {
		return nil, err
	}
	return statekit.NewInterpreter(machine), nil
}

// Definition returns the wizard's step list.
func (c *Controller) Definition() Definition { return c.def }

// State returns the form state the controller edits.
func (c *Controller) State() *form.State { return c.state }

// Step returns the current step id.
func (c *Controller) Step() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.step
}

// Phase returns the lifecycle phase.
func (c *Controller) Phase() Phase {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.phase()
}

func (c *Controller) phase() Phase {
	return Phase(c.interp.State().Value)
}

// StepError returns the error of the last failed submission, if any.
func (c *Controller) StepError() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.stepError
}

// SetField stores value in the form and recomputes step validity.
func (c *Controller) SetField(field string, value form.Value) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if err := c.editable(); err != nil {
		return err
	}
	if err := c.state.Set(field, value); err != nil {
		return err
	}
	c.recompute()
	return nil
}

// SetFieldError attaches an error produced outside the field validators,
// such as a rejected image, and recomputes step validity.
func (c *Controller) SetFieldError(field, message string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.state.SetError(field, message)
	c.recompute()
}

func (c *Controller) editable() error {
	switch c.phase() {
	case PhaseSubmitting:
		return ErrSubmitting
	case PhaseCompleted:
		return ErrTerminal
	default:
		return nil
	}
}

// IsStepValid reports whether step id may be left forwards.
func (c *Controller) IsStepValid(id int) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	if id < 0 || id >= len(c.valid) {
		return false
	}
	return c.valid[id]
}

// CanAdvance reports whether Advance would be accepted right now. It is
// kept current on every field change so a UI never offers a move the
// controller would refuse.
func (c *Controller) CanAdvance() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.phase() == PhaseEditing && c.step < c.def.Terminal() && c.valid[c.step]
}

// Gate returns the reason the current step cannot be left forwards, or nil.
func (c *Controller) Gate() error {
	return c.StepGate(c.Step())
}

// StepGate returns the reason step id cannot be left forwards, or nil.
func (c *Controller) StepGate(id int) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if gate := c.check(id); gate != nil {
		return gate
	}
	return nil
}

// Advance moves to the next step. From the last data step it submits a
// snapshot of the form instead: on success the cursor jumps to the
// success step, on failure it stays and StepError reports why.
func (c *Controller) Advance(ctx context.Context) (Transition, error) {
	c.mu.Lock()
	if c.phase() == PhaseSubmitting {
		c.mu.Unlock()
		return TransitionNone, ErrSubmitting
	}
	if c.step == c.def.Terminal() {
		c.mu.Unlock()
		return TransitionNone, ErrTerminal
	}
	if gate := c.check(c.step); gate != nil {
		c.mu.Unlock()
		return TransitionNone, gate
	}
	if c.step < c.def.LastDataStep() {
		c.step++
		step := c.step
		c.mu.Unlock()
		c.log(ctx, "wizard advanced", ports.F("step", step))
		return TransitionForward, nil
	}

	if c.submitter == nil {
		c.mu.Unlock()
		return TransitionNone, fmt.Errorf("%s wizard has no submitter", c.def.Form)
	}
	snapshot := c.state.Snapshot()
	c.stepError = nil
	c.interp.Send(statekit.Event{Type: EventSubmit})
	c.mu.Unlock()

	c.log(ctx, "submitting form", ports.F("form", string(c.def.Form)))
	err := c.submitter.Submit(ctx, snapshot)

	c.mu.Lock()
	defer c.mu.Unlock()
	if err != nil {
		c.stepError = err
		c.interp.Send(statekit.Event{Type: EventSubmitFailed, Payload: err})
		return TransitionNone, err
	}
	c.interp.Send(statekit.Event{Type: EventSubmitOK})
	c.step = c.def.Terminal()
	return TransitionSubmitted, nil
}

// Retreat moves back one step. On the overview step it reports
// TransitionExit and the caller should leave the wizard. The success step
// cannot be left backwards.
func (c *Controller) Retreat() (Transition, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	switch {
	case c.phase() == PhaseSubmitting:
		return TransitionNone, ErrSubmitting
	case c.step == c.def.Terminal():
		return TransitionNone, ErrTerminal
	case c.step == 0:
		return TransitionExit, nil
	}
	c.step--
	c.stepError = nil
	return TransitionBack, nil
}

// Restart clears the form and returns to the overview step. It is only
// available on the success step.
func (c *Controller) Restart() (Transition, error) {
	c.mu.Lock()
	if c.step != c.def.Terminal() {
		c.mu.Unlock()
		return TransitionNone, ErrNotComplete
	}
	c.interp.Send(statekit.Event{Type: EventRestart})
	c.step = 0
	c.stepError = nil
	c.state.Reset()
	c.recompute()
	hooks := c.onReset
	c.mu.Unlock()

	for _, fn := range hooks {
		fn()
	}
	return TransitionRestarted, nil
}

// recompute refreshes the validity of every step. Callers hold mu.
func (c *Controller) recompute() {
	for i := range c.def.Steps {
		c.valid[i] = c.check(i) == nil
	}
}

// check evaluates the gate of step id: every required field populated,
// no field of the step carrying an error and the custom rule passing.
func (c *Controller) check(id int) *StepGateError {
	step, ok := c.def.Step(id)
	if !ok {
		return &StepGateError{Step: id, Reason: "no such step"}
	}
	var gate StepGateError
	for _, f := range step.RequiredFields {
		if !c.state.Populated(f) {
			gate.Missing = append(gate.Missing, f)
		}
	}
	for _, f := range step.Fields {
		if c.state.Error(f) != "" {
			gate.Invalid = append(gate.Invalid, f)
		}
	}
	if step.Validator != nil && len(gate.Missing) == 0 {
		if ok, msg := step.Validator(c.state); !ok {
			gate.Reason = msg
		}
	}
	if len(gate.Missing) == 0 && len(gate.Invalid) == 0 && gate.Reason == "" {
		return nil
	}
	gate.Step = id
	return &gate
}

func (c *Controller) log(ctx context.Context, msg string, fields ...ports.Field) {
	c.logger.Info(ctx, msg, fields...)
}
