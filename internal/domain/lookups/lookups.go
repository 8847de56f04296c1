// Package lookups loads the option lists that populate wizard dropdowns.
// A lookup makes a single request and falls back to a built-in list on any
// failure, so a dropdown is never empty.
package lookups

import (
	"context"
	_ "embed"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/felixgeelhaar/summitforms/internal/ports"
	"gopkg.in/yaml.v3"
)

//go:embed fallback.yaml
var fallbackYAML []byte

// Kind names a lookup list.
type Kind string

// Lookup lists served by the API.
const (
	KindJobTitle   Kind = "job-title"
	KindUserTitle  Kind = "user-title"
	KindRegions    Kind = "regions"
	KindDistricts  Kind = "districts"
	KindCategories Kind = "categories"
)

// Kinds lists every lookup in fetch order.
var Kinds = []Kind{KindJobTitle, KindUserTitle, KindRegions, KindDistricts, KindCategories}

// ParseKind converts a user supplied lookup name.
func ParseKind(s string) (Kind, error) {
	k := Kind(strings.ToLower(strings.TrimSpace(s)))
	for _, known := range Kinds {
		if k == known {
			return k, nil
		}
	}
	return "", fmt.Errorf("unknown lookup %q", s)
}

// Option is one dropdown entry.
type Option struct {
	Value string `json:"value" yaml:"value"`
	Label string `json:"label" yaml:"label"`
}

// Source tells where a list came from.
type Source string

// List sources.
const (
	SourceRemote   Source = "remote"
	SourceFallback Source = "fallback"
)

// List is a loaded lookup. Err records why the remote list was not used.
type List struct {
	Kind    Kind
	Options []Option
	Source  Source
	Shape   string
	Err     error
}

// Config configures a Client.
type Config struct {
	BaseURL      string
	Timeout      time.Duration
	BypassHeader string
	BypassValue  string
}

// Client fetches lookup lists.
type Client struct {
	config    Config
	transport ports.APITransport
	logger    ports.Logger
	fallback  map[Kind][]Option
}

// NewClient creates a Client.
func NewClient(config Config, transport ports.APITransport, logger ports.Logger) (*Client, error) {
	if logger == nil {
		logger = ports.Discard
	}
	fallback, err := loadFallback()
	if err != nil {
		return nil, err
	}
	return &Client{config: config, transport: transport, logger: logger, fallback: fallback}, nil
}

// Fallback returns the built-in list for kind.
func (c *Client) Fallback(kind Kind) []Option {
	return append([]Option(nil), c.fallback[kind]...)
}

// Fetch loads kind with a single request. It never fails: any error, an
// unknown response shape or an empty list yields the built-in list.
func (c *Client) Fetch(ctx context.Context, kind Kind) List {
	url := strings.TrimRight(c.config.BaseURL, "/") + "/utils/" + string(kind) + "/get"

	options, shape, err := c.fetch(ctx, url)
	if err != nil {
		c.logger.Warn(ctx, "lookup unavailable, using built-in list",
			ports.F("lookup", string(kind)), ports.F("url", url), ports.Err(err))
		return List{Kind: kind, Options: c.Fallback(kind), Source: SourceFallback, Err: err}
	}
	c.logger.Debug(ctx, "lookup loaded",
		ports.F("lookup", string(kind)), ports.F("shape", shape), ports.F("options", len(options)))
	return List{Kind: kind, Options: options, Source: SourceRemote, Shape: shape}
}

// FetchAll loads every lookup, one after the other.
func (c *Client) FetchAll(ctx context.Context) map[Kind]List {
	out := make(map[Kind]List, len(Kinds))
	for _, k := range Kinds {
		out[k] = c.Fetch(ctx, k)
	}
	return out
}

func (c *Client) fetch(ctx context.Context, url string) ([]Option, string, error) {
	header := make(http.Header)
	header.Set("Accept", "application/json")
	if c.config.BypassHeader != "" {
		header.Set(c.config.BypassHeader, c.config.BypassValue)
	}

	resp, err := c.transport.Do(ctx, ports.APIRequest{
		Method:  http.MethodGet,
		URL:     url,
		Header:  header,
		Timeout: c.config.Timeout,
	})
	if err != nil {
		return nil, "", err
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, "", fmt.Errorf("unexpected status %d", resp.StatusCode)
	}

	options, shape, ok := Normalize(resp.Body)
	if !ok {
		return nil, "", ErrUnknownShape
	}
	return options, shape, nil
}

func loadFallback() (map[Kind][]Option, error) {
	var dto map[string][]string
	if err := yaml.Unmarshal(fallbackYAML, &dto); err != nil {
		return nil, fmt.Errorf("failed to parse built-in lookups: %w", err)
	}
	out := make(map[Kind][]Option, len(dto))
	for name, labels := range dto {
		kind, err := ParseKind(name)
		if err != nil {
			return nil, fmt.Errorf("built-in lookups: %w", err)
		}
		opts := make([]Option, 0, len(labels))
		for _, l := range labels {
			opts = append(opts, Option{Value: l, Label: l})
		}
		out[kind] = opts
	}
	for _, k := range Kinds {
		if len(out[k]) == 0 {
			return nil, fmt.Errorf("built-in lookups: no %s list", k)
		}
	}
	return out, nil
}
