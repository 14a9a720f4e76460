package httpx

import (
	"context"
	"errors"
	"fmt"
	"sync/atomic"
	"testing"
	"time"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
)

func TestServerAndClientRoundTrip(t *testing.T) {
	server := NewServer()
	server.RegisterRoutes(func(a *App) {
		a.GET("/ping", func(c Context) error {
			return c.JSON(StatusOK, map[string]string{"message": "pong"})
		})
	})

	ts := NewTestServer(server.Handler())
	defer ts.Close()

	client := NewClient(WithBaseURL(ts.BaseURL()))

	var body struct {
		Message string `json:"message"`
	}
	resp, err := client.Get(context.Background(), "/ping", &body)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if resp.StatusCode() != StatusOK {
		t.Fatalf("unexpected status: %d", resp.StatusCode())
	}
	if body.Message != "pong" {
		t.Fatalf("unexpected body: %#v", body)
	}
}

func TestErrorHandlerWrapsEchoHTTPError(t *testing.T) {
	server := NewServer()
	server.RegisterRoutes(func(a *App) {
		a.GET("/fail", func(c Context) error {
			return HTTPError(StatusBadRequest, "bad request")
		})
	})

	ts := NewTestServer(server.Handler())
	defer ts.Close()

	client := NewClient(WithBaseURL(ts.BaseURL()))

	resp, err := client.Get(context.Background(), "/fail", nil)
	if err == nil {
		t.Fatalf("expected error")
	}
	if resp == nil {
		t.Fatalf("expected response for error path")
	}
	if resp.StatusCode() != StatusBadRequest {
		t.Fatalf("unexpected status: %d", resp.StatusCode())
	}
}

func TestClientStatusError(t *testing.T) {
	server := NewServer()
	server.RegisterRoutes(func(a *App) {
		a.GET("/missing", func(c Context) error {
			return HTTPError(StatusNotFound, "nothing here")
		})
	})

	ts := NewTestServer(server.Handler())
	defer ts.Close()

	client := ts.NewClient()
	_, err := client.Get(context.Background(), "/missing", nil)
	var se *StatusError
	if !errors.As(err, &se) {
		t.Fatalf("expected *StatusError, got %v", err)
	}
	if se.Code != StatusNotFound {
		t.Fatalf("unexpected status: %d", se.Code)
	}
}

func TestClientRetriesServerErrors(t *testing.T) {
	var calls atomic.Int32
	server := NewServer()
	server.RegisterRoutes(func(a *App) {
		a.GET("/flaky", func(c Context) error {
			if calls.Add(1) < 3 {
				return HTTPError(StatusServiceUnavailable, "try again")
			}
			return c.JSON(StatusOK, map[string]string{"ok": "yes"})
		})
	})

	ts := NewTestServer(server.Handler())
	defer ts.Close()

	client := NewClient(WithBaseURL(ts.BaseURL()), WithRetries(3, time.Millisecond))
	var out map[string]string
	if _, err := client.Get(context.Background(), "/flaky", &out); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if out["ok"] != "yes" || calls.Load() != 3 {
		t.Fatalf("unexpected result: %v after %d calls", out, calls.Load())
	}
}

func TestLoggerMiddlewareWritesRequestLine(t *testing.T) {
	core, logs := observer.New(zapcore.InfoLevel)
	server := NewServer(WithLogger(zap.New(core)))
	server.RegisterRoutes(func(a *App) {
		a.GET("/ping", func(c Context) error { return c.NoContent(StatusNoContent) })
	})

	ts := NewTestServer(server.Handler())
	defer ts.Close()

	if _, err := NewClient(WithBaseURL(ts.BaseURL())).Get(context.Background(), "/ping", nil); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	entries := logs.FilterMessage("request").All()
	if len(entries) != 1 {
		t.Fatalf("expected one request log line, got %d", len(entries))
	}
	if got := entries[0].ContextMap()["uri"]; got != "/ping" {
		t.Fatalf("unexpected uri field: %v", got)
	}
}

func TestValidatorMiddleware(t *testing.T) {
	validator := func(c Context) error {
		if c.Request().Header.Get("X-Allow") != "yes" {
			return HTTPError(StatusBadRequest, "blocked")
		}
		return nil
	}
	server := NewServer(WithValidators(validator))
	server.RegisterRoutes(func(a *App) {
		a.GET("/secure", func(c Context) error { return c.NoContent(StatusOK) })
	})

	ts := NewTestServer(server.Handler())
	defer ts.Close()

	client := ts.NewClient()

	// blocked
	if _, err := client.Get(context.Background(), "/secure", nil); err == nil {
		t.Fatalf("expected validation error")
	}

	// allowed
	allowed := NewClient(WithBaseURL(ts.BaseURL()), WithHeaders(map[string]string{"X-Allow": "yes"}))
	resp, err := allowed.Get(context.Background(), "/secure", nil)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if resp.StatusCode() != StatusOK {
		t.Fatalf("unexpected status: %d", resp.StatusCode())
	}
}

func TestCORSAndLoggerInjection(t *testing.T) {
	corsCfg := DefaultCORSConfig
	corsCfg.AllowOrigins = []string{"http://example.com"}
	server := NewServer(WithCORS(&corsCfg))
	server.RegisterRoutes(func(a *App) {
		a.GET("/ping", func(c Context) error { return c.NoContent(StatusOK) })
	})

	ts := NewTestServer(server.Handler())
	defer ts.Close()

	client := NewClient(WithBaseURL(ts.BaseURL()), WithHeaders(map[string]string{
		"Origin":                        "http://example.com",
		"Access-Control-Request-Method": "GET",
	}))
	resp, err := client.Get(context.Background(), "/ping", nil)
	if err != nil {
		t.Fatalf("options request failed: %v", err)
	}
	if resp.Header().Get("Access-Control-Allow-Origin") != "http://example.com" {
		t.Fatalf("expected CORS allow origin header, got %q", resp.Header().Get("Access-Control-Allow-Origin"))
	}
}

func TestRouterPrefixesAndGroups(t *testing.T) {
	var calls []string
	tag := func(name string) MiddlewareFunc {
		return func(next HandlerFunc) HandlerFunc {
			return func(c Context) error {
				calls = append(calls, name)
				return next(c)
			}
		}
	}

	server := NewServer()
	server.RegisterRoutes(func(a *App) {
		api := NewRouter(a, "/api/", tag("api"))
		api.GET("", func(c Context) error { return c.String(StatusOK, "root") })
		api.Group("/v1", tag("v1")).
			GET("/ping", func(c Context) error { return c.JSON(StatusOK, map[string]string{"message": "pong"}) }).
			PATCH("/ping", func(c Context) error { return c.NoContent(StatusNoContent) })
	})

	ts := NewTestServer(server.Handler())
	defer ts.Close()
	client := ts.NewClient()

	var body map[string]string
	resp, err := client.Get(context.Background(), "/api/v1/ping", &body)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if resp.StatusCode() != StatusOK || body["message"] != "pong" {
		t.Fatalf("unexpected response: status=%d body=%v", resp.StatusCode(), body)
	}
	if len(calls) != 2 || calls[0] != "api" || calls[1] != "v1" {
		t.Fatalf("middleware ran as %v, want [api v1]", calls)
	}

	resp, err = client.Get(context.Background(), "/api", nil)
	if err != nil || resp.String() != "root" {
		t.Fatalf("prefix root: %v %q", err, resp.String())
	}
}

func TestAppRoutes(t *testing.T) {
	a := New()
	NewRouter(a, "/b").DELETE("/x", func(c Context) error { return nil })
	a.GET("/a", func(c Context) error { return nil })
	NewRouter(a, "/b").GET("/x", func(c Context) error { return nil })

	got := a.Routes()
	want := []Route{{Method: "GET", Path: "/a"}, {Method: "DELETE", Path: "/b/x"}, {Method: "GET", Path: "/b/x"}}
	if len(got) != len(want) {
		t.Fatalf("Routes() = %v, want %v", got, want)
	}
	for i := range want {
		if got[i].Method != want[i].Method || got[i].Path != want[i].Path {
			t.Fatalf("Routes()[%d] = %v, want %v", i, got[i], want[i])
		}
	}
}

func TestStatusFor(t *testing.T) {
	errMissing := errors.New("missing")
	errBad := errors.New("bad")
	table := []ErrorStatus{{Err: errMissing, Code: StatusNotFound}, {Err: errBad, Code: StatusBadRequest}}

	if got := StatusFor(fmt.Errorf("lookup: %w", errMissing), table); got != StatusNotFound {
		t.Fatalf("StatusFor(wrapped missing) = %d", got)
	}
	if got := StatusFor(errBad, table); got != StatusBadRequest {
		t.Fatalf("StatusFor(bad) = %d", got)
	}
	if got := StatusFor(errors.New("other"), table); got != StatusInternalError {
		t.Fatalf("StatusFor(other) = %d", got)
	}
}

func TestRegisterRoutesBulk(t *testing.T) {
	server := NewServer()
	server.RegisterRoutes(func(a *App) {
		RegisterRoutes(a,
			Route{Method: "GET", Path: "/r1", Handler: func(c Context) error {
				return c.JSON(StatusOK, map[string]string{"route": "r1"})
			}},
			Route{Method: "GET", Path: "/r2/:id", Handler: func(c Context) error {
				return c.JSON(StatusOK, map[string]string{"route": "r2", "id": c.Param("id")})
			}},
		)
	})

	ts := NewTestServer(server.Handler())
	defer ts.Close()

	client := ts.NewClient()

	var r1 map[string]string
	resp, err := client.Get(context.Background(), "/r1", &r1)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if resp.StatusCode() != StatusOK || r1["route"] != "r1" {
		t.Fatalf("unexpected response: status=%d body=%v", resp.StatusCode(), r1)
	}

	var r2 map[string]string
	if _, err := client.Get(context.Background(), "/r2/42", &r2); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if r2["route"] != "r2" || r2["id"] != "42" {
		t.Fatalf("unexpected response body: %v", r2)
	}
}

func TestClientRequestOptions(t *testing.T) {
	server := NewServer()
	server.RegisterRoutes(func(a *App) {
		a.GET("/opts", func(c Context) error {
			agent := c.Request().Header.Get("User-Agent")
			qp := c.QueryParam("q")
			return c.JSON(StatusOK, map[string]string{"agent": agent, "q": qp})
		})
	})

	ts := NewTestServer(server.Handler())
	defer ts.Close()

	client := NewClient(WithBaseURL(ts.BaseURL()))

	var out map[string]string
	resp, err := client.Get(context.Background(), "/opts", &out,
		WithQuery(map[string]string{"q": "pasta near Rome"}),
	)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if resp.StatusCode() != StatusOK {
		t.Fatalf("unexpected status: %d", resp.StatusCode())
	}
	if out["agent"] != "go-places" || out["q"] != "pasta near Rome" {
		t.Fatalf("unexpected headers/query: %v", out)
	}
}
