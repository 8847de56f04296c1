package submission

import (
	"errors"
	"testing"

	"github.com/felixgeelhaar/summitforms/internal/domain/form"
	"github.com/stretchr/testify/assert"
)

func TestClassify(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name        string
		status      int
		body        string
		outcome     Outcome
		message     string
		fieldErrors map[string]string
		notFound    bool
	}{
		{name: "created with json", status: 201, body: `{"message":"Nomination received"}`, outcome: OutcomeSuccess, message: "Nomination received"},
		{name: "ok with text", status: 200, body: "thanks", outcome: OutcomeSuccess},
		{name: "not found", status: 404, body: "<html>404</html>", outcome: OutcomeServerError, message: "endpoint not found", notFound: true},
		{
			name: "422 errors map with lists", status: 422,
			body:        `{"errors":{"email":["invalid","taken"],"phone":"too short"}}`,
			outcome:     OutcomeValidationRejected,
			fieldErrors: map[string]string{"email": "invalid; taken", "phone": "too short"},
		},
		{name: "422 top-level message", status: 422, body: `{"message":"Duplicate nomination"}`, outcome: OutcomeValidationRejected, message: "Duplicate nomination"},
		{
			name: "422 detail list", status: 422,
			body:        `{"detail":[{"loc":["body","email"],"msg":"value is not a valid email address"}]}`,
			outcome:     OutcomeValidationRejected,
			fieldErrors: map[string]string{"email": "value is not a valid email address"},
		},
		{name: "422 plain text", status: 422, body: "bad input", outcome: OutcomeValidationRejected, message: "bad input"},
		{name: "422 empty", status: 422, body: "", outcome: OutcomeValidationRejected, message: "one or more fields were not accepted"},
		{name: "500 text", status: 500, body: "Internal Server Error", outcome: OutcomeServerError, message: "Internal Server Error"},
		{name: "500 json detail", status: 500, body: `{"detail":"db down"}`, outcome: OutcomeServerError, message: "db down"},
		{name: "502 html page", status: 502, body: "<!doctype html><p>proxy</p>", outcome: OutcomeServerError},
		{name: "400 other", status: 400, body: `{"error":"bad request"}`, outcome: OutcomeServerError, message: "bad request"},
		{name: "truncated json", status: 500, body: `{"message":`, outcome: OutcomeServerError, message: `{"message":`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := classify(tt.status, []byte(tt.body))
			assert.Equal(t, tt.outcome, r.Outcome)
			assert.Equal(t, tt.message, r.Message)
			assert.Equal(t, tt.fieldErrors, r.FieldErrors)
			assert.Equal(t, tt.notFound, r.NotFound)
			assert.Equal(t, tt.body, r.Body)
		})
	}
}

func TestChooseFinal(t *testing.T) {
	t.Parallel()

	rejected := Result{Attempt: "primary/plain", Outcome: OutcomeValidationRejected}
	server := Result{Attempt: "multipart", Outcome: OutcomeServerError}
	skipped := Result{Attempt: "minimal", Outcome: OutcomeSkipped}

	assert.Equal(t, rejected, chooseFinal([]Result{rejected, server, skipped}))
	assert.Equal(t, server, chooseFinal([]Result{server, skipped}))
	assert.Equal(t, OutcomeNetworkFailure, chooseFinal(nil).Outcome)
}

func TestResultSummary(t *testing.T) {
	t.Parallel()

	assert.Equal(t, "server error (HTTP 503)", Result{Outcome: OutcomeServerError, StatusCode: 503}.Summary())
	assert.Equal(t, "the server rejected the submission: email: invalid; phone: short",
		Result{Outcome: OutcomeValidationRejected, FieldErrors: map[string]string{"phone": "short", "email": "invalid"}}.Summary())
	assert.Equal(t, "minimal skipped: endpoint returned 404 earlier",
		Result{Attempt: "minimal", Outcome: OutcomeSkipped, Message: "endpoint returned 404 earlier"}.Summary())
}

func TestSubmissionError_UserMessageAlwaysHasTroubleshooting(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name  string
		final Result
		lead  string
	}{
		{
			name:  "validation rejected",
			final: Result{Outcome: OutcomeValidationRejected, StatusCode: 422, FieldErrors: map[string]string{"email": "taken"}},
			lead:  "Please correct the fields above",
		},
		{
			name:  "network failure",
			final: Result{Outcome: OutcomeNetworkFailure, Cause: errors.New("connection refused")},
			lead:  "The server could not be reached",
		},
		{
			name:  "server error",
			final: Result{Outcome: OutcomeServerError, StatusCode: 503},
			lead:  "Server error (HTTP 503)",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			err := &SubmissionError{Form: form.KindRegistration, RequestID: "req-42", Final: tt.final}
			msg := err.UserMessage()
			assert.Contains(t, msg, tt.lead)
			assert.Contains(t, msg, "check your internet connection")
			assert.Contains(t, msg, "make sure every required field is filled in")
			assert.Contains(t, msg, "contact support quoting reference req-42")
		})
	}
}
