// Package google implements lookup.Finder on the Places Text Search API.
package google

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/adeilh/go-places/httpx"
	"github.com/adeilh/go-places/lookup"
	"github.com/adeilh/go-places/record"
)

// DefaultBaseURL is the public Maps API host.
const DefaultBaseURL = "https://maps.googleapis.com"

const textSearchPath = "/maps/api/place/textsearch/json"

var ErrMissingAPIKey = errors.New("google: api key is required")

// Options configures the client.
type Options struct {
	APIKey     string
	BaseURL    string
	Timeout    time.Duration
	RetryCount int
	Logger     *zap.Logger
}

func (o Options) withDefaults() Options {
	if o.BaseURL == "" {
		o.BaseURL = DefaultBaseURL
	}
	if o.Timeout <= 0 {
		o.Timeout = 10 * time.Second
	}
	if o.RetryCount < 0 {
		o.RetryCount = 0
	}
	if o.Logger == nil {
		o.Logger = zap.NewNop()
	}
	return o
}

// Client queries Google Places.
type Client struct {
	http   *httpx.Client
	apiKey string
	logger *zap.Logger
}

func New(opts Options) (*Client, error) {
	cfg := opts.withDefaults()
	if strings.TrimSpace(cfg.APIKey) == "" {
		return nil, ErrMissingAPIKey
	}
	hc := httpx.NewClient(
		httpx.WithBaseURL(cfg.BaseURL),
		httpx.WithClientTimeout(cfg.Timeout),
		httpx.WithRetries(cfg.RetryCount, 200*time.Millisecond),
		httpx.WithClientLogger(cfg.Logger),
	)
	return &Client{http: hc, apiKey: cfg.APIKey, logger: cfg.Logger}, nil
}

type textSearchResponse struct {
	Status       string         `json:"status"`
	ErrorMessage string         `json:"error_message,omitempty"`
	Results      []record.Place `json:"results"`
}

// FindPlace returns the first Text Search result for query.
func (c *Client) FindPlace(ctx context.Context, query string) (record.Place, bool, error) {
	var out textSearchResponse
	_, err := c.http.Get(ctx, textSearchPath, &out, httpx.WithQuery(map[string]string{
		"query": query,
		"key":   c.apiKey,
	}))
	if err != nil {
		return record.Place{}, false, fmt.Errorf("%w: %w", lookup.ErrUnavailable, err)
	}

	switch out.Status {
	case "OK", "":
	case "ZERO_RESULTS":
		return record.Place{}, false, nil
	default:
		return record.Place{}, false, fmt.Errorf("%w: status %s: %s", lookup.ErrUnavailable, out.Status, out.ErrorMessage)
	}
	if len(out.Results) == 0 {
		return record.Place{}, false, nil
	}
	c.logger.Debug("place resolved", zap.String("query", query), zap.Int("candidates", len(out.Results)))

	p := out.Results[0]
	p.ID = ""
	p.Handle = 0
	return p, true, nil
}
