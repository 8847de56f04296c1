package config

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gopkg.in/yaml.v3"
)

func TestUserError_Error(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name     string
		err      *UserError
		expected string
	}{
		{
			name:     "simple message",
			err:      &UserError{Code: ErrCodeConfigNotFound, Message: "settings file not found"},
			expected: "settings file not found",
		},
		{
			name:     "message with context",
			err:      &UserError{Code: ErrCodeUnknownField, Message: "unknown field 'age'", Context: "answers.yaml"},
			expected: "unknown field 'age' (at answers.yaml)",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			assert.Equal(t, tt.expected, tt.err.Error())
		})
	}
}

func TestUserError_Format(t *testing.T) {
	t.Parallel()

	err := NewUserError(ErrCodeConfigInvalid, "invalid setting image.quality").
		WithContext("image.quality").
		WithSuggestion("use 1-100")

	assert.Equal(t, "[CONFIG_INVALID] invalid setting image.quality\n  Location: image.quality\n  Suggestion: use 1-100", err.Format())
}

func TestUserError_WithersCopy(t *testing.T) {
	t.Parallel()

	base := NewUserError(ErrCodeAnswersInvalid, "bad answers")
	cause := errors.New("boom")
	derived := base.WithUnderlying(cause)

	assert.Nil(t, base.Underlying)
	assert.ErrorIs(t, derived, cause)
	assert.True(t, errors.Is(derived, &UserError{Code: ErrCodeAnswersInvalid}))
	assert.False(t, errors.Is(derived, &UserError{Code: ErrCodeConfigParse}))
}

func TestErrorList(t *testing.T) {
	t.Parallel()

	l := NewErrorList()
	assert.NoError(t, l.AsError())
	assert.Equal(t, "", l.Error())

	l.Add(nil)
	l.AddValidation("email", "not allowed", "use a personal address")
	require.Equal(t, 1, l.Len())
	assert.Equal(t, "not allowed (at email)", l.Error())

	l.Add(NewInvalidSettingError("api.base_url", "not a URL"))
	assert.Equal(t, 2, len(l.Errors()))
	assert.Contains(t, l.Error(), "2 errors occurred")
	assert.Error(t, l.AsError())
	assert.True(t, IsUserError(l, ErrCodeConfigInvalid))
	assert.ErrorIs(t, l, &UserError{Code: ErrCodeValidationFailed})
}

func TestUserErrorHelpers(t *testing.T) {
	t.Parallel()

	err := error(NewUnknownFormError("sponsor", []string{"nomination", "registration"}))
	assert.True(t, IsUserError(err, ErrCodeUnknownForm))
	assert.False(t, IsUserError(errors.New("plain"), ErrCodeUnknownForm))
	assert.Contains(t, GetUserError(err).Suggestion, "nomination, registration")
	assert.Nil(t, GetUserError(errors.New("plain")))

	assert.Equal(t, ErrCodeUnknownField, NewUnknownFieldError("age", "a.yaml").Code)
}

func TestNewYAMLParseError(t *testing.T) {
	t.Parallel()

	var out map[string]any
	yamlErr := yaml.Unmarshal([]byte("api:\n  base_url: [\n"), &out)
	require.Error(t, yamlErr)

	ue := NewYAMLParseError("summitforms.yaml", yamlErr)
	assert.Equal(t, ErrCodeConfigParse, ue.Code)
	assert.Contains(t, ue.Context, "summitforms.yaml (line ")
	assert.ErrorIs(t, ue, yamlErr)

	ue = NewYAMLParseError("s.yaml", errors.New("time: invalid duration \"soon\""))
	assert.Equal(t, "invalid duration", ue.Message)
	assert.Equal(t, "s.yaml", ue.Context)
}
