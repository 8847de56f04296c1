package submission

import (
	"context"
	"errors"
	"io"
	"mime"
	"mime/multipart"
	"net/http"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/felixgeelhaar/summitforms/internal/domain/form"
	"github.com/felixgeelhaar/summitforms/internal/ports"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tidwall/gjson"
)

func testProfile() Profile {
	return Profile{
		Form:     form.KindNomination,
		Endpoint: "/nominate",
		FieldMap: map[string]string{
			"nominee_name":  "nomineeName",
			"nominee_email": "nomineeEmail",
			"category":      "categoryId",
			"photo":         "nomineePhoto",
			"consent_terms": "termsAccepted",
		},
		Optional: []string{"photo"},
		Minimal:  []string{"nominee_name", "nominee_email"},
	}
}

func testSnapshot() form.Snapshot {
	return form.NewSnapshot(form.KindNomination, map[string]form.Value{
		"nominee_name":  form.Text("Ama Mensah"),
		"nominee_email": form.Text("ama@gmail.com"),
		"category":      form.Text("3"),
		"consent_terms": form.Bool(true),
		"photo": form.File(&form.UploadedFile{
			Name:      "ama.jpg",
			Original:  []byte("jpeg-bytes"),
			MIMEType:  "image/jpeg",
			SizeBytes: 10,
		}),
		"unmapped": form.Text("never sent"),
	})
}

// scriptedTransport answers each request with the next scripted reply.
type scriptedTransport struct {
	mu      sync.Mutex
	replies []func(ports.APIRequest) (ports.APIResponse, error)
	calls   []ports.APIRequest
}

func (s *scriptedTransport) Do(_ context.Context, req ports.APIRequest) (ports.APIResponse, error) {
	s.mu.Lock()
	i := len(s.calls)
	s.calls = append(s.calls, req)
	var reply func(ports.APIRequest) (ports.APIResponse, error)
	if i < len(s.replies) {
		reply = s.replies[i]
	}
	s.mu.Unlock()
	if reply == nil {
		return status(500, "unscripted")(req)
	}
	return reply(req)
}

func status(code int, body string) func(ports.APIRequest) (ports.APIResponse, error) {
	return func(ports.APIRequest) (ports.APIResponse, error) {
		return ports.APIResponse{StatusCode: code, Header: http.Header{}, Body: []byte(body)}, nil
	}
}

func networkDown(ports.APIRequest) (ports.APIResponse, error) {
	return ports.APIResponse{}, errors.New("connection refused")
}

func newTestEngine(tr ports.APITransport) *Engine {
	e := NewEngine(Config{BaseURL: "http://api.test/api/", AttemptTimeout: time.Second, BypassHeader: DefaultBypassHeader, BypassValue: "true"}, testProfile(), tr, nil)
	e.newID = func() string { return "req-1" }
	return e
}

func stages(results []Result) []Stage {
	out := make([]Stage, 0, len(results))
	for _, r := range results {
		out = append(out, r.Stage)
	}
	return out
}

func TestPlan_OrderAndShapes(t *testing.T) {
	t.Parallel()

	attempts, err := Plan(testProfile(), testSnapshot())
	require.NoError(t, err)

	names := make([]string, 0, len(attempts))
	for _, a := range attempts {
		names = append(names, a.Name)
	}
	assert.Equal(t, []string{
		"primary/plain", "primary/charset", "primary/charset-nospace",
		"reduced", "multipart", "minimal",
	}, names)

	primary := attempts[0]
	assert.Equal(t, ShapeJSON, primary.Shape)
	assert.Equal(t, "application/json", primary.ContentType)
	doc := gjson.ParseBytes(primary.Payload)
	assert.Equal(t, "Ama Mensah", doc.Get("nomineeName").String())
	assert.True(t, doc.Get("termsAccepted").Bool())
	assert.True(t, strings.HasPrefix(doc.Get("nomineePhoto").String(), "data:image/jpeg;base64,"))
	assert.False(t, doc.Get("unmapped").Exists())

	assert.Equal(t, "application/json; charset=utf-8", attempts[1].ContentType)
	assert.Equal(t, "application/json;charset=utf-8", attempts[2].ContentType)
	assert.Equal(t, primary.Payload, attempts[1].Payload)

	reduced := gjson.ParseBytes(attempts[3].Payload)
	assert.False(t, reduced.Get("nomineePhoto").Exists())
	assert.Equal(t, "3", reduced.Get("categoryId").String())

	minimal := gjson.ParseBytes(attempts[5].Payload)
	assert.Len(t, minimal.Map(), 2)
	assert.Equal(t, "ama@gmail.com", minimal.Get("nomineeEmail").String())
}

func TestPlan_MultipartCarriesSameFields(t *testing.T) {
	t.Parallel()

	attempts, err := Plan(testProfile(), testSnapshot())
	require.NoError(t, err)
	mp := attempts[4]
	require.Equal(t, ShapeMultipart, mp.Shape)

	mediaType, params, err := mime.ParseMediaType(mp.ContentType)
	require.NoError(t, err)
	assert.Equal(t, "multipart/form-data", mediaType)

	r := multipart.NewReader(strings.NewReader(string(mp.Payload)), params["boundary"])
	got := map[string]string{}
	for {
		part, err := r.NextPart()
		if errors.Is(err, io.EOF) {
			break
		}
		require.NoError(t, err)
		data, _ := io.ReadAll(part)
		got[part.FormName()] = string(data)
		if part.FormName() == "nomineePhoto" {
			assert.Equal(t, "ama.jpg", part.FileName())
		}
	}
	assert.Equal(t, map[string]string{
		"categoryId":    "3",
		"nomineeEmail":  "ama@gmail.com",
		"nomineeName":   "Ama Mensah",
		"nomineePhoto":  "jpeg-bytes",
		"termsAccepted": "true",
	}, got)
}

func TestPlan_SkipsReducedWhenNothingOptional(t *testing.T) {
	t.Parallel()

	snap := form.NewSnapshot(form.KindNomination, map[string]form.Value{
		"nominee_name":  form.Text("Ama"),
		"nominee_email": form.Text("ama@gmail.com"),
	})
	attempts, err := Plan(testProfile(), snap)
	require.NoError(t, err)
	for _, a := range attempts {
		assert.NotEqual(t, StageReduced, a.Stage)
	}
}

func TestPlan_EmptySnapshot(t *testing.T) {
	t.Parallel()

	_, err := Plan(testProfile(), form.NewSnapshot(form.KindNomination, nil))
	assert.Error(t, err)
}

func TestPlan_ProfileContentTypes(t *testing.T) {
	t.Parallel()

	p := testProfile()
	p.ContentTypes = []ContentTypeVariant{{Name: "only", Value: "application/json"}}
	attempts, err := Plan(p, testSnapshot())
	require.NoError(t, err)
	assert.Equal(t, "primary/only", attempts[0].Name)
	assert.Equal(t, StageReduced, attempts[1].Stage)
}

func TestEngine_SucceedsOnFirstAttempt(t *testing.T) {
	t.Parallel()

	tr := &scriptedTransport{replies: []func(ports.APIRequest) (ports.APIResponse, error){
		status(201, `{"message":"created"}`),
	}}
	report, err := newTestEngine(tr).Submit(context.Background(), testSnapshot())
	require.NoError(t, err)

	assert.Equal(t, StagePrimary, report.SucceededStage)
	assert.False(t, report.Minimal())
	assert.Equal(t, "created", report.Final.Message)
	require.Len(t, tr.calls, 1)

	req := tr.calls[0]
	assert.Equal(t, http.MethodPost, req.Method)
	assert.Equal(t, "http://api.test/api/nominate", req.URL)
	assert.Equal(t, "application/json", req.Header.Get("Accept"))
	assert.Equal(t, "true", req.Header.Get("ngrok-skip-browser-warning"))
	assert.Equal(t, "req-1", req.Header.Get(RequestIDHeader))
	assert.Len(t, report.Fingerprint, 64)
}

// 500 on every JSON shape, 200 on multipart: success is attributed to the
// multipart stage and nothing is tried afterwards.
func TestEngine_MultipartRescuesAfterServerErrors(t *testing.T) {
	t.Parallel()

	tr := &scriptedTransport{replies: []func(ports.APIRequest) (ports.APIResponse, error){
		status(500, "Internal Server Error"),
		status(500, "Internal Server Error"),
		status(500, "Internal Server Error"),
		status(500, `{"detail":"database unavailable"}`),
		status(200, `ok`),
	}}
	report, err := newTestEngine(tr).Submit(context.Background(), testSnapshot())
	require.NoError(t, err)

	assert.Equal(t, StageMultipart, report.SucceededStage)
	assert.Equal(t, OutcomeSuccess, report.Final.Outcome)
	assert.Equal(t, 200, report.Final.StatusCode)
	assert.Len(t, tr.calls, 5)
	assert.Equal(t, []Stage{StagePrimary, StagePrimary, StagePrimary, StageReduced, StageMultipart}, stages(report.Attempts))
	assert.True(t, strings.HasPrefix(tr.calls[4].Header.Get("Content-Type"), "multipart/form-data; boundary="))
}

func TestEngine_ValidationRejectedEverywhere(t *testing.T) {
	t.Parallel()

	body := `{"errors":{"email":["invalid"]}}`
	tr := &scriptedTransport{}
	for i := 0; i < 6; i++ {
		tr.replies = append(tr.replies, status(422, body))
	}
	report, err := newTestEngine(tr).Submit(context.Background(), testSnapshot())
	require.Error(t, err)

	var subErr *SubmissionError
	require.True(t, errors.As(err, &subErr))
	assert.True(t, errors.Is(err, ErrValidationRejected))
	assert.False(t, errors.Is(err, ErrNetworkFailure))
	assert.Equal(t, OutcomeValidationRejected, subErr.Final.Outcome)
	assert.Equal(t, map[string]string{"email": "invalid"}, subErr.FieldErrors())
	assert.Contains(t, subErr.UserMessage(), "email: invalid")
	assert.False(t, report.Succeeded())
	assert.Len(t, tr.calls, 6)
}

func TestEngine_ValidationRejectionOutranksLaterFailures(t *testing.T) {
	t.Parallel()

	tr := &scriptedTransport{replies: []func(ports.APIRequest) (ports.APIResponse, error){
		status(422, `{"message":"nomineeEmail is already registered"}`),
		status(500, "oops"),
		status(500, "oops"),
		status(500, "oops"),
		networkDown,
		networkDown,
	}}
	_, err := newTestEngine(tr).Submit(context.Background(), testSnapshot())

	var subErr *SubmissionError
	require.True(t, errors.As(err, &subErr))
	assert.Equal(t, OutcomeValidationRejected, subErr.Final.Outcome)
	assert.Equal(t, "nomineeEmail is already registered", subErr.Final.Message)
}

func TestEngine_NotFoundSkipsSameEndpoint(t *testing.T) {
	t.Parallel()

	p := testProfile()
	p.StageEndpoints = map[Stage]string{StageMinimal: "/nominate/minimal"}
	tr := &scriptedTransport{replies: []func(ports.APIRequest) (ports.APIResponse, error){
		status(404, "Not Found"),
		status(201, "{}"),
	}}
	e := NewEngine(Config{BaseURL: "http://api.test/api"}, p, tr, nil)

	report, err := e.Submit(context.Background(), testSnapshot())
	require.NoError(t, err)

	require.Len(t, tr.calls, 2)
	assert.Equal(t, "http://api.test/api/nominate/minimal", tr.calls[1].URL)
	assert.True(t, report.Minimal())

	var skipped int
	for _, r := range report.Attempts {
		if r.Outcome == OutcomeSkipped {
			skipped++
		}
	}
	assert.Equal(t, 4, skipped)
	assert.True(t, report.Attempts[0].NotFound)
}

func TestEngine_AllNotFound(t *testing.T) {
	t.Parallel()

	tr := &scriptedTransport{replies: []func(ports.APIRequest) (ports.APIResponse, error){status(404, "")}}
	_, err := newTestEngine(tr).Submit(context.Background(), testSnapshot())

	var subErr *SubmissionError
	require.True(t, errors.As(err, &subErr))
	assert.Len(t, tr.calls, 1)
	assert.True(t, subErr.Final.NotFound)
	assert.True(t, errors.Is(err, ErrServerError))
	assert.Contains(t, err.Error(), "endpoint not found")
}

func TestEngine_NetworkFailureEverywhere(t *testing.T) {
	t.Parallel()

	tr := &scriptedTransport{}
	for i := 0; i < 6; i++ {
		tr.replies = append(tr.replies, networkDown)
	}
	report, err := newTestEngine(tr).Submit(context.Background(), testSnapshot())

	assert.True(t, errors.Is(err, ErrNetworkFailure))
	assert.Len(t, tr.calls, 6)
	assert.Len(t, report.Attempts, 6)

	var subErr *SubmissionError
	require.True(t, errors.As(err, &subErr))
	msg := subErr.UserMessage()
	assert.Contains(t, msg, "internet connection")
	assert.NotContains(t, msg, "goroutine")
}

func TestEngine_MinimalSuccessIsDistinguishable(t *testing.T) {
	t.Parallel()

	tr := &scriptedTransport{replies: []func(ports.APIRequest) (ports.APIResponse, error){
		networkDown, networkDown, networkDown, networkDown,
		status(500, "no"),
		status(200, `{"id":1}`),
	}}
	report, err := newTestEngine(tr).Submit(context.Background(), testSnapshot())
	require.NoError(t, err)
	assert.True(t, report.Succeeded())
	assert.True(t, report.Minimal())
	assert.Equal(t, StageMinimal, report.SucceededStage)
}

func TestEngine_AttemptTimeoutIsNetworkFailure(t *testing.T) {
	t.Parallel()

	hang := transportFunc(func(ctx context.Context, _ ports.APIRequest) (ports.APIResponse, error) {
		<-ctx.Done()
		return ports.APIResponse{}, ctx.Err()
	})
	e := NewEngine(Config{BaseURL: "http://api.test", AttemptTimeout: 20 * time.Millisecond}, testProfile(), hang, nil)

	start := time.Now()
	_, err := e.Submit(context.Background(), testSnapshot())
	assert.Less(t, time.Since(start), 5*time.Second)

	var subErr *SubmissionError
	require.True(t, errors.As(err, &subErr))
	assert.Equal(t, OutcomeNetworkFailure, subErr.Final.Outcome)
	assert.ErrorIs(t, err, context.DeadlineExceeded)
	assert.Contains(t, subErr.Final.Cause.Error(), "no response within 20ms")
}

func TestEngine_CancelledContextStopsCascade(t *testing.T) {
	t.Parallel()

	ctx, cancel := context.WithCancel(context.Background())
	calls := 0
	tr := transportFunc(func(context.Context, ports.APIRequest) (ports.APIResponse, error) {
		calls++
		cancel()
		return ports.APIResponse{}, context.Canceled
	})
	_, err := newTestEngine(tr).Submit(ctx, testSnapshot())
	assert.ErrorIs(t, err, ErrNetworkFailure)
	assert.Equal(t, 1, calls)
}

type transportFunc func(ctx context.Context, req ports.APIRequest) (ports.APIResponse, error)

func (f transportFunc) Do(ctx context.Context, req ports.APIRequest) (ports.APIResponse, error) {
	return f(ctx, req)
}

func TestFingerprint_StableAndContentSensitive(t *testing.T) {
	t.Parallel()

	a, err := Fingerprint(testProfile(), testSnapshot())
	require.NoError(t, err)
	b, err := Fingerprint(testProfile(), testSnapshot())
	require.NoError(t, err)
	assert.Equal(t, a, b)

	other := form.NewSnapshot(form.KindNomination, map[string]form.Value{"nominee_name": form.Text("Kofi")})
	c, err := Fingerprint(testProfile(), other)
	require.NoError(t, err)
	assert.NotEqual(t, a, c)
}
