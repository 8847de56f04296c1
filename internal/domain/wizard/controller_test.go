package wizard

import (
	"context"
	"errors"
	"testing"

	"github.com/felixgeelhaar/summitforms/internal/domain/fields"
	"github.com/felixgeelhaar/summitforms/internal/domain/form"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func consentsChecked(s *form.State) (bool, string) {
	if s.Bool("consent_terms") && s.Bool("consent_privacy") {
		return true, ""
	}
	return false, "Please accept both declarations"
}

func testDefinition(t *testing.T) Definition {
	t.Helper()
	def, err := NewDefinition(form.KindNomination, []StepDefinition{
		{ID: 0, Name: "requirements"},
		{ID: 1, Name: "nominee", Fields: []string{"full_name", "email", "phone", "website"}, RequiredFields: []string{"full_name", "email", "phone"}},
		{ID: 2, Name: "confirmation", Fields: []string{"consent_terms", "consent_privacy"}, Validator: consentsChecked},
		{ID: 3, Name: "success"},
	})
	require.NoError(t, err)
	return def
}

func testState() *form.State {
	return form.NewState(form.KindNomination, form.Schema{
		"full_name":       fields.KindText,
		"email":           fields.KindEmail,
		"phone":           fields.KindPhone,
		"website":         fields.KindText,
		"consent_terms":   fields.KindCheckbox,
		"consent_privacy": fields.KindCheckbox,
	}, nil)
}

type recordingSubmitter struct {
	err       error
	calls     int
	snapshots []form.Snapshot
}

func (r *recordingSubmitter) Submit(_ context.Context, s form.Snapshot) error {
	r.calls++
	r.snapshots = append(r.snapshots, s)
	return r.err
}

func fillNominee(t *testing.T, c *Controller) {
	t.Helper()
	require.NoError(t, c.SetField("full_name", form.Text("Ama Mensah")))
	require.NoError(t, c.SetField("email", form.Text("ama@gmail.com")))
	require.NoError(t, c.SetField("phone", form.Text("055 123 4567")))
}

func TestNewDefinition_Rejects(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name  string
		steps []StepDefinition
	}{
		{"too few steps", []StepDefinition{{ID: 0}, {ID: 1}}},
		{"gap in ids", []StepDefinition{{ID: 0}, {ID: 2}, {ID: 3}}},
		{"overview requires fields", []StepDefinition{{ID: 0, Fields: []string{"a"}, RequiredFields: []string{"a"}}, {ID: 1}, {ID: 2}}},
		{"success collects data", []StepDefinition{{ID: 0}, {ID: 1}, {ID: 2, Fields: []string{"a"}}}},
		{"required field not shown", []StepDefinition{{ID: 0}, {ID: 1, RequiredFields: []string{"a"}}, {ID: 2}}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := NewDefinition(form.KindRegistration, tt.steps)
			assert.ErrorIs(t, err, ErrInvalidDefinition)
		})
	}
}

func TestController_OverviewAlwaysPassable(t *testing.T) {
	t.Parallel()

	c, err := New(testDefinition(t), testState())
	require.NoError(t, err)

	assert.Equal(t, 0, c.Step())
	assert.Equal(t, PhaseEditing, c.Phase())
	assert.True(t, c.CanAdvance())
	tr, err := c.Advance(context.Background())
	require.NoError(t, err)
	assert.Equal(t, TransitionForward, tr)
	assert.Equal(t, 1, c.Step())
}

func TestController_GateBlocksIncompleteStep(t *testing.T) {
	t.Parallel()

	c, err := New(testDefinition(t), testState())
	require.NoError(t, err)
	_, err = c.Advance(context.Background())
	require.NoError(t, err)

	assert.False(t, c.CanAdvance())
	_, err = c.Advance(context.Background())
	var gate *StepGateError
	require.True(t, errors.As(err, &gate))
	assert.Equal(t, 1, gate.Step)
	assert.Equal(t, []string{"full_name", "email", "phone"}, gate.Missing)
	assert.Equal(t, 1, c.Step())

	fillNominee(t, c)
	assert.True(t, c.CanAdvance())
	assert.NoError(t, c.Gate())
}

func TestController_StepGateOfOtherSteps(t *testing.T) {
	t.Parallel()

	c, err := New(testDefinition(t), testState())
	require.NoError(t, err)

	assert.NoError(t, c.StepGate(0))
	var gate *StepGateError
	require.ErrorAs(t, c.StepGate(1), &gate)
	assert.Equal(t, 1, gate.Step)
	require.ErrorAs(t, c.StepGate(99), &gate)
	assert.Equal(t, "no such step", gate.Reason)
	assert.Equal(t, 0, c.Step())
}

func TestController_RemovingAnyRequiredFieldClosesGate(t *testing.T) {
	t.Parallel()

	def := testDefinition(t)
	for _, step := range def.Steps {
		for _, field := range step.RequiredFields {
			t.Run(step.Name+"/"+field, func(t *testing.T) {
				c, err := New(def, testState())
				require.NoError(t, err)
				fillNominee(t, c)
				require.True(t, c.IsStepValid(step.ID))

				require.NoError(t, c.SetField(field, form.Text("")))
				assert.False(t, c.IsStepValid(step.ID))
			})
		}
	}
}

func TestController_InvalidOptionalFieldClosesGate(t *testing.T) {
	t.Parallel()

	def, err := NewDefinition(form.KindRegistration, []StepDefinition{
		{ID: 0},
		{ID: 1, Fields: []string{"email", "alt_email"}, RequiredFields: []string{"email"}},
		{ID: 2},
	})
	require.NoError(t, err)
	state := form.NewState(form.KindRegistration, form.Schema{"email": fields.KindEmail, "alt_email": fields.KindEmail}, nil)
	c, err := New(def, state)
	require.NoError(t, err)

	require.NoError(t, c.SetField("email", form.Text("a@gmail.com")))
	assert.True(t, c.IsStepValid(1))

	require.NoError(t, c.SetField("alt_email", form.Text("a@company.com")))
	assert.False(t, c.IsStepValid(1))

	require.NoError(t, c.SetField("alt_email", form.Text("")))
	assert.True(t, c.IsStepValid(1))
}

func TestController_ExternalFieldError(t *testing.T) {
	t.Parallel()

	c, err := New(testDefinition(t), testState())
	require.NoError(t, err)
	fillNominee(t, c)
	require.True(t, c.IsStepValid(1))

	c.SetFieldError("website", "image too large")
	assert.False(t, c.IsStepValid(1))
	c.SetFieldError("website", "")
	assert.True(t, c.IsStepValid(1))
}

func TestController_CustomValidator(t *testing.T) {
	t.Parallel()

	c, err := New(testDefinition(t), testState())
	require.NoError(t, err)
	assert.False(t, c.IsStepValid(2))

	require.NoError(t, c.SetField("consent_terms", form.Bool(true)))
	assert.False(t, c.IsStepValid(2))
	require.NoError(t, c.SetField("consent_privacy", form.Bool(true)))
	assert.True(t, c.IsStepValid(2))
}

func TestController_RetreatBoundaries(t *testing.T) {
	t.Parallel()

	c, err := New(testDefinition(t), testState())
	require.NoError(t, err)

	tr, err := c.Retreat()
	require.NoError(t, err)
	assert.Equal(t, TransitionExit, tr)
	assert.Equal(t, 0, c.Step())

	_, err = c.Advance(context.Background())
	require.NoError(t, err)
	tr, err = c.Retreat()
	require.NoError(t, err)
	assert.Equal(t, TransitionBack, tr)
	assert.Equal(t, 0, c.Step())
}

func runToConfirmation(t *testing.T, c *Controller) {
	t.Helper()
	ctx := context.Background()
	_, err := c.Advance(ctx)
	require.NoError(t, err)
	fillNominee(t, c)
	_, err = c.Advance(ctx)
	require.NoError(t, err)
	require.NoError(t, c.SetField("consent_terms", form.Bool(true)))
	require.NoError(t, c.SetField("consent_privacy", form.Bool(true)))
	require.Equal(t, 2, c.Step())
}

func TestController_SubmitSuccessJumpsToTerminal(t *testing.T) {
	t.Parallel()

	sub := &recordingSubmitter{}
	reset := 0
	state := testState()
	c, err := New(testDefinition(t), state, WithSubmitter(sub), WithOnReset(func() { reset++ }))
	require.NoError(t, err)
	runToConfirmation(t, c)

	tr, err := c.Advance(context.Background())
	require.NoError(t, err)
	assert.Equal(t, TransitionSubmitted, tr)
	assert.Equal(t, 3, c.Step())
	assert.Equal(t, PhaseCompleted, c.Phase())
	require.Equal(t, 1, sub.calls)
	assert.Equal(t, "ama@gmail.com", sub.snapshots[0].Get("email").AsText())

	_, err = c.Retreat()
	assert.ErrorIs(t, err, ErrTerminal)
	_, err = c.Advance(context.Background())
	assert.ErrorIs(t, err, ErrTerminal)
	assert.ErrorIs(t, c.SetField("email", form.Text("x@gmail.com")), ErrTerminal)
	assert.False(t, c.CanAdvance())

	tr, err = c.Restart()
	require.NoError(t, err)
	assert.Equal(t, TransitionRestarted, tr)
	assert.Equal(t, 0, c.Step())
	assert.Equal(t, PhaseEditing, c.Phase())
	assert.False(t, state.Populated("email"))
	assert.Equal(t, 1, reset)
}

func TestController_SubmitFailureStaysOnStep(t *testing.T) {
	t.Parallel()

	failure := errors.New("server unavailable")
	sub := &recordingSubmitter{err: failure}
	c, err := New(testDefinition(t), testState(), WithSubmitter(sub))
	require.NoError(t, err)
	runToConfirmation(t, c)

	tr, err := c.Advance(context.Background())
	assert.ErrorIs(t, err, failure)
	assert.Equal(t, TransitionNone, tr)
	assert.Equal(t, 2, c.Step())
	assert.Equal(t, PhaseEditing, c.Phase())
	assert.ErrorIs(t, c.StepError(), failure)

	// The user may retry.
	sub.err = nil
	tr, err = c.Advance(context.Background())
	require.NoError(t, err)
	assert.Equal(t, TransitionSubmitted, tr)
	assert.Nil(t, c.StepError())
	assert.Equal(t, 2, sub.calls)
}

func TestController_SnapshotIsolatedFromLaterEdits(t *testing.T) {
	t.Parallel()

	var seen form.Snapshot
	sub := SubmitterFunc(func(_ context.Context, s form.Snapshot) error {
		seen = s
		return errors.New("retry later")
	})
	c, err := New(testDefinition(t), testState(), WithSubmitter(sub))
	require.NoError(t, err)
	runToConfirmation(t, c)

	_, _ = c.Advance(context.Background())
	require.NoError(t, c.SetField("full_name", form.Text("Someone Else")))
	assert.Equal(t, "Ama Mensah", seen.Get("full_name").AsText())
}

func TestController_RestartOnlyFromSuccess(t *testing.T) {
	t.Parallel()

	c, err := New(testDefinition(t), testState())
	require.NoError(t, err)
	_, err = c.Restart()
	assert.ErrorIs(t, err, ErrNotComplete)
}

func TestController_SubmitWithoutSubmitter(t *testing.T) {
	t.Parallel()

	c, err := New(testDefinition(t), testState())
	require.NoError(t, err)
	runToConfirmation(t, c)

	_, err = c.Advance(context.Background())
	require.Error(t, err)
	assert.Equal(t, 2, c.Step())
}

func TestStepGateError_Message(t *testing.T) {
	t.Parallel()

	err := &StepGateError{Step: 3, Missing: []string{"photo"}, Invalid: []string{"email"}, Reason: "Passwords do not match"}
	assert.Equal(t, "step 3 is not complete: missing photo; invalid email; Passwords do not match", err.Error())
	assert.Equal(t, "step 1 is not complete", (&StepGateError{Step: 1}).Error())
}
