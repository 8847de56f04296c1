package submission

import (
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/tidwall/gjson"
)

// Outcome classifies the result of one attempt.
type Outcome int

// Attempt outcomes.
const (
	OutcomeSuccess Outcome = iota
	OutcomeValidationRejected
	OutcomeServerError
	OutcomeNetworkFailure
	OutcomeSkipped
)

func (o Outcome) String() string {
	switch o {
	case OutcomeSuccess:
		return "success"
	case OutcomeValidationRejected:
		return "validation_rejected"
	case OutcomeServerError:
		return "server_error"
	case OutcomeNetworkFailure:
		return "network_failure"
	case OutcomeSkipped:
		return "skipped"
	default:
		return "unknown"
	}
}

const maxMessageLen = 200

// Result is what one attempt produced. Which fields are set depends on
// Outcome: StatusCode and Body for any HTTP response, FieldErrors for
// validation rejections, Cause for network failures.
type Result struct {
	Attempt     string
	Stage       Stage
	Endpoint    string
	Outcome     Outcome
	StatusCode  int
	Body        string
	Message     string
	FieldErrors map[string]string
	// NotFound is set for 404 responses; the endpoint is not tried again.
	NotFound bool
	Cause    error
	Duration time.Duration
}

// Summary renders the result as one line.
func (r Result) Summary() string {
	switch r.Outcome {
	case OutcomeSuccess:
		return fmt.Sprintf("%s accepted (HTTP %d)", r.Attempt, r.StatusCode)
	case OutcomeValidationRejected:
		if len(r.FieldErrors) == 0 {
			return "the server rejected the submission: " + r.Message
		}
		keys := make([]string, 0, len(r.FieldErrors))
		for k := range r.FieldErrors {
			keys = append(keys, k)
		}
		sort.Strings(keys)
		parts := make([]string, 0, len(keys))
		for _, k := range keys {
			parts = append(parts, k+": "+r.FieldErrors[k])
		}
		return "the server rejected the submission: " + strings.Join(parts, "; ")
	case OutcomeServerError:
		if r.Message != "" {
			return fmt.Sprintf("server error (HTTP %d): %s", r.StatusCode, r.Message)
		}
		return fmt.Sprintf("server error (HTTP %d)", r.StatusCode)
	case OutcomeNetworkFailure:
		return fmt.Sprintf("could not reach the server: %v", r.Cause)
	case OutcomeSkipped:
		return r.Attempt + " skipped: " + r.Message
	default:
		return r.Outcome.String()
	}
}

// classify turns an HTTP response into a Result. The body is kept as text;
// JSON is parsed on a best-effort basis since the API does not reliably
// return it.
func classify(status int, body []byte) Result {
	r := Result{StatusCode: status, Body: string(body)}
	doc, isJSON := parseBody(body)

	switch {
	case status >= 200 && status < 300:
		r.Outcome = OutcomeSuccess
		r.Message = topLevelMessage(doc, isJSON)
	case status == 404:
		r.Outcome = OutcomeServerError
		r.NotFound = true
		r.Message = "endpoint not found"
	case status == 422:
		r.Outcome = OutcomeValidationRejected
		if isJSON {
			r.FieldErrors = fieldErrors(doc)
		}
		r.Message = topLevelMessage(doc, isJSON)
		if r.Message == "" {
			r.Message = textMessage(body)
		}
		if r.Message == "" && len(r.FieldErrors) == 0 {
			r.Message = "one or more fields were not accepted"
		}
	default:
		r.Outcome = OutcomeServerError
		r.Message = topLevelMessage(doc, isJSON)
		if r.Message == "" {
			r.Message = textMessage(body)
		}
	}
	return r
}

func parseBody(body []byte) (gjson.Result, bool) {
	if len(body) == 0 || !gjson.ValidBytes(body) {
		return gjson.Result{}, false
	}
	doc := gjson.ParseBytes(body)
	return doc, doc.IsObject() || doc.IsArray()
}

// topLevelMessage looks for a human readable message in the usual places.
func topLevelMessage(doc gjson.Result, isJSON bool) string {
	if !isJSON {
		return ""
	}
	for _, path := range []string{"message", "error", "detail"} {
		if v := doc.Get(path); v.Type == gjson.String && v.String() != "" {
			return v.String()
		}
	}
	return ""
}

// fieldErrors extracts per-field messages from an "errors" object whose
// values are strings or lists of strings, or from a "detail" list of
// {loc, msg} entries.
func fieldErrors(doc gjson.Result) map[string]string {
	out := make(map[string]string)
	if errs := doc.Get("errors"); errs.IsObject() {
		errs.ForEach(func(key, value gjson.Result) bool {
			if msg := joinMessages(value); msg != "" {
				out[key.String()] = msg
			}
			return true
		})
	}
	if detail := doc.Get("detail"); detail.IsArray() {
		detail.ForEach(func(_, item gjson.Result) bool {
			loc := item.Get("loc").Array()
			msg := item.Get("msg").String()
			if len(loc) == 0 || msg == "" {
				return true
			}
			field := loc[len(loc)-1].String()
			if prev, ok := out[field]; ok {
				msg = prev + "; " + msg
			}
			out[field] = msg
			return true
		})
	}
	if len(out) == 0 {
		return nil
	}
	return out
}

func joinMessages(v gjson.Result) string {
	if !v.IsArray() {
		return v.String()
	}
	var msgs []string
	for _, item := range v.Array() {
		if s := item.String(); s != "" {
			msgs = append(msgs, s)
		}
	}
	return strings.Join(msgs, "; ")
}

// textMessage returns a trimmed plain-text body suitable for display, or ""
// for JSON and HTML bodies.
func textMessage(body []byte) string {
	s := strings.TrimSpace(string(body))
	if s == "" || strings.HasPrefix(s, "<") || gjson.Valid(s) {
		return ""
	}
	if len(s) > maxMessageLen {
		s = s[:maxMessageLen] + "..."
	}
	return s
}
