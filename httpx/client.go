package httpx

import (
	"context"
	"fmt"
	"strings"

	"github.com/go-resty/resty/v2"
	"go.uber.org/zap"
)

type Client struct {
	resty *resty.Client
}

func NewClient(opts ...ClientOption) *Client {
	cfg := defaultClientOptions()
	for _, opt := range opts {
		if opt != nil {
			opt(&cfg)
		}
	}

	rc := resty.New()
	if cfg.BaseURL != "" {
		rc.SetBaseURL(cfg.BaseURL)
	}
	if cfg.Timeout > 0 {
		rc.SetTimeout(cfg.Timeout)
	}
	if len(cfg.Headers) > 0 {
		rc.SetHeaders(cfg.Headers)
	}
	logger := cfg.Logger
	if cfg.RetryCount > 0 {
		rc.SetRetryCount(cfg.RetryCount)
		if cfg.RetryWait > 0 {
			rc.SetRetryWaitTime(cfg.RetryWait)
		}
		rc.AddRetryCondition(func(r *resty.Response, err error) bool {
			return err != nil || (r != nil && r.StatusCode() >= 500)
		})
		rc.AddRetryHook(func(r *resty.Response, err error) {
			fields := []zap.Field{zap.Error(err)}
			if r != nil && r.Request != nil {
				fields = append(fields,
					zap.String("method", r.Request.Method),
					zap.String("url", r.Request.URL),
					zap.Int("attempt", r.Request.Attempt),
					zap.Int("status", r.StatusCode()))
			}
			logger.Debug("retrying http request", fields...)
		})
	}
	rc.OnError(func(req *resty.Request, err error) {
		logger.Warn("http request failed",
			zap.String("method", req.Method),
			zap.String("url", req.URL),
			zap.Error(err))
	})

	return &Client{resty: rc}
}

type RequestOption func(*resty.Request)

// WithQuery sets query parameters on the request.
func WithQuery(params map[string]string) RequestOption {
	return func(r *resty.Request) {
		if len(params) == 0 {
			return
		}
		r.SetQueryParams(params)
	}
}

// Get issues a GET for path and decodes a successful JSON response into
// result. Non-2xx responses return a *StatusError.
func (c *Client) Get(ctx context.Context, path string, result any, opts ...RequestOption) (*resty.Response, error) {
	req := c.resty.R().SetContext(ctx)
	for _, opt := range opts {
		if opt != nil {
			opt(req)
		}
	}
	if result != nil {
		req.SetResult(result)
	}
	resp, err := req.Execute(resty.MethodGet, path)
	if err != nil {
		return resp, err
	}
	if resp.IsError() {
		return resp, &StatusError{Code: resp.StatusCode(), Body: strings.TrimSpace(resp.String())}
	}
	return resp, nil
}

// StatusError reports a non-2xx response.
type StatusError struct {
	Code int
	Body string
}

func (e *StatusError) Error() string { return fmt.Sprintf("http %d: %s", e.Code, e.Body) }
