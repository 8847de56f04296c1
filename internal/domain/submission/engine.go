package submission

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/felixgeelhaar/summitforms/internal/domain/form"
	"github.com/felixgeelhaar/summitforms/internal/ports"
	"github.com/google/uuid"
)

// Default engine settings.
const (
	DefaultAttemptTimeout = 15 * time.Second
	DefaultBypassHeader   = "ngrok-skip-browser-warning"
	DefaultBypassValue    = "true"
	RequestIDHeader       = "X-Request-ID"
	maxLoggedBody         = 2048
)

// Config configures an Engine.
type Config struct {
	// BaseURL is prepended to every attempt endpoint.
	BaseURL string
	// AttemptTimeout bounds each attempt. A timeout is a network failure.
	AttemptTimeout time.Duration
	// BypassHeader and BypassValue skip a development proxy's warning page.
	// An empty header name disables it.
	BypassHeader string
	BypassValue  string
	UserAgent    string
}

// DefaultConfig returns the engine defaults.
func DefaultConfig() Config {
	return Config{
		BaseURL:        "http://localhost:8000/api",
		AttemptTimeout: DefaultAttemptTimeout,
		BypassHeader:   DefaultBypassHeader,
		BypassValue:    DefaultBypassValue,
	}
}

// Engine submits snapshots of one form profile.
type Engine struct {
	config    Config
	profile   Profile
	transport ports.APITransport
	logger    ports.Logger
	newID     func() string
}

// NewEngine creates an Engine.
func NewEngine(config Config, profile Profile, transport ports.APITransport, logger ports.Logger) *Engine {
	if config.AttemptTimeout <= 0 {
		config.AttemptTimeout = DefaultAttemptTimeout
	}
	if logger == nil {
		logger = ports.Discard
	}
	return &Engine{
		config:    config,
		profile:   profile,
		transport: transport,
		logger:    logger,
		newID:     uuid.NewString,
	}
}

// Profile returns the profile the engine submits.
func (e *Engine) Profile() Profile { return e.profile }

// Submit tries the planned attempts one at a time and stops at the first
// accepted one. Each attempt gets its own timeout. A 404 marks the URL as
// dead and later attempts against it are skipped. When nothing is accepted
// the returned *SubmissionError carries the most informative failure: a
// validation rejection if there was one, otherwise the last failure. The
// report is returned in both cases.
func (e *Engine) Submit(ctx context.Context, snapshot form.Snapshot) (*Report, error) {
	attempts, err := Plan(e.profile, snapshot)
	if err != nil {
		return nil, err
	}
	fingerprint, err := Fingerprint(e.profile, snapshot)
	if err != nil {
		return nil, err
	}

	report := &Report{
		Form:        e.profile.Form,
		RequestID:   e.newID(),
		Fingerprint: fingerprint,
	}
	logger := e.logger.With(ports.F("request_id", report.RequestID), ports.F("form", string(e.profile.Form)))
	dead := make(map[string]bool)

	for _, a := range attempts {
		url := e.url(a.Endpoint)
		if dead[url] {
			res := Result{
				Attempt:  a.Name,
				Stage:    a.Stage,
				Endpoint: url,
				Outcome:  OutcomeSkipped,
				Message:  "endpoint returned 404 earlier",
			}
			report.Attempts = append(report.Attempts, res)
			logger.Debug(ctx, "attempt skipped", ports.F("attempt", a.Name), ports.F("url", url))
			continue
		}

		res := e.try(ctx, logger, report.RequestID, a, url)
		report.Attempts = append(report.Attempts, res)

		if res.Outcome == OutcomeSuccess {
			report.Final = res
			report.SucceededStage = a.Stage
			if report.Minimal() {
				logger.Warn(ctx, "only the minimal payload was accepted; the server may hold a partial record",
					ports.F("attempt", a.Name))
			} else {
				logger.Info(ctx, "submission accepted", ports.F("attempt", a.Name), ports.F("status", res.StatusCode))
			}
			return report, nil
		}
		if res.NotFound {
			dead[url] = true
		}
		if ctx.Err() != nil {
			break
		}
	}

	report.Final = chooseFinal(report.Attempts)
	logger.Warn(ctx, "submission failed", ports.F("outcome", report.Final.Outcome.String()), ports.F("reason", report.Final.Summary()))
	return report, &SubmissionError{
		Form:      e.profile.Form,
		RequestID: report.RequestID,
		Final:     report.Final,
		Attempts:  report.Attempts,
	}
}

func (e *Engine) try(ctx context.Context, logger ports.Logger, requestID string, a Attempt, url string) Result {
	header := make(http.Header)
	header.Set("Accept", "application/json")
	header.Set("Content-Type", a.ContentType)
	header.Set(RequestIDHeader, requestID)
	if e.config.BypassHeader != "" {
		header.Set(e.config.BypassHeader, e.config.BypassValue)
	}
	if e.config.UserAgent != "" {
		header.Set("User-Agent", e.config.UserAgent)
	}

	attemptCtx, cancel := context.WithTimeout(ctx, e.config.AttemptTimeout)
	defer cancel()

	logger.Debug(ctx, "trying attempt",
		ports.F("attempt", a.Name),
		ports.F("url", url),
		ports.F("content_type", a.ContentType),
		ports.F("payload_bytes", len(a.Payload)))

	start := time.Now()
	resp, err := e.transport.Do(attemptCtx, ports.APIRequest{
		Method:  http.MethodPost,
		URL:     url,
		Header:  header,
		Body:    a.Payload,
		Timeout: e.config.AttemptTimeout,
	})
	elapsed := time.Since(start)

	if err != nil {
		if errors.Is(err, context.DeadlineExceeded) || errors.Is(attemptCtx.Err(), context.DeadlineExceeded) {
			err = fmt.Errorf("no response within %s: %w", e.config.AttemptTimeout, err)
		}
		logger.Debug(ctx, "attempt failed without response", ports.F("attempt", a.Name), ports.Err(err))
		return Result{
			Attempt:  a.Name,
			Stage:    a.Stage,
			Endpoint: url,
			Outcome:  OutcomeNetworkFailure,
			Cause:    err,
			Duration: elapsed,
		}
	}

	res := classify(resp.StatusCode, resp.Body)
	res.Attempt = a.Name
	res.Stage = a.Stage
	res.Endpoint = url
	res.Duration = elapsed

	switch res.Outcome {
	case OutcomeServerError:
		logger.Error(ctx, "server error",
			ports.F("attempt", a.Name),
			ports.F("method", http.MethodPost),
			ports.F("url", url),
			ports.F("content_type", a.ContentType),
			ports.F("payload_bytes", len(a.Payload)),
			ports.F("status", resp.StatusCode),
			ports.F("response_content_type", resp.Header.Get("Content-Type")),
			ports.F("response_body", truncate(res.Body, maxLoggedBody)),
			ports.F("duration", elapsed))
	case OutcomeValidationRejected:
		logger.Info(ctx, "submission rejected", ports.F("attempt", a.Name), ports.F("reason", res.Summary()))
	default:
		logger.Debug(ctx, "attempt answered", ports.F("attempt", a.Name), ports.F("status", resp.StatusCode))
	}
	return res
}

func (e *Engine) url(endpoint string) string {
	if strings.HasPrefix(endpoint, "http://") || strings.HasPrefix(endpoint, "https://") {
		return endpoint
	}
	return strings.TrimRight(e.config.BaseURL, "/") + "/" + strings.TrimLeft(endpoint, "/")
}

// chooseFinal picks the failure to report: the last validation rejection,
// which names the fields to fix, else the last attempt that was actually
// made.
func chooseFinal(results []Result) Result {
	for i := len(results) - 1; i >= 0; i-- {
		if results[i].Outcome == OutcomeValidationRejected {
			return results[i]
		}
	}
	for i := len(results) - 1; i >= 0; i-- {
		if results[i].Outcome != OutcomeSkipped {
			return results[i]
		}
	}
	if len(results) > 0 {
		return results[len(results)-1]
	}
	return Result{Outcome: OutcomeNetworkFailure, Cause: errors.New("no attempts were made")}
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n] + "..."
}
