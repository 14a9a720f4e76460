package google

import (
	"context"
	"errors"
	"testing"

	"github.com/adeilh/go-places/httpx"
	"github.com/adeilh/go-places/lookup"
)

func newFakeAPI(t *testing.T, handler httpx.HandlerFunc) *httpx.TestServer {
	t.Helper()
	server := httpx.NewServer()
	server.RegisterRoutes(func(a *httpx.App) {
		a.GET(textSearchPath, handler)
	})
	ts := httpx.NewTestServer(server.Handler())
	t.Cleanup(ts.Close)
	return ts
}

func TestFindPlaceReturnsFirstResult(t *testing.T) {
	var gotQuery, gotKey string
	ts := newFakeAPI(t, func(c httpx.Context) error {
		gotQuery = c.QueryParam("query")
		gotKey = c.QueryParam("key")
		return c.JSONBlob(httpx.StatusOK, []byte(`{
			"status": "OK",
			"results": [
				{"name": "Pasta Palace", "place_id": "abc", "formatted_address": "1 Main St", "rating": 4.6,
				 "user_ratings_total": 120, "opening_hours": {"open_now": true}},
				{"name": "Pasta Shack", "place_id": "def"}
			]
		}`))
	})

	client, err := New(Options{APIKey: "secret", BaseURL: ts.BaseURL()})
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}
	p, found, err := client.FindPlace(context.Background(), lookup.Query("Pasta Palace", "Rome"))
	if err != nil {
		t.Fatalf("FindPlace() error = %v", err)
	}
	if !found {
		t.Fatalf("FindPlace() found = false")
	}
	if gotQuery != "Pasta Palace near Rome" || gotKey != "secret" {
		t.Fatalf("unexpected request: query=%q key=%q", gotQuery, gotKey)
	}
	if p.Name != "Pasta Palace" || p.PlaceID != "abc" || p.Rating == nil || *p.Rating != 4.6 {
		t.Fatalf("unexpected place: %+v", p)
	}
	if _, ok := p.Extra.Get("opening_hours"); !ok {
		t.Fatalf("unknown members were dropped: %v", p.Extra)
	}
}

func TestFindPlaceZeroResults(t *testing.T) {
	ts := newFakeAPI(t, func(c httpx.Context) error {
		return c.JSONBlob(httpx.StatusOK, []byte(`{"status": "ZERO_RESULTS", "results": []}`))
	})
	client, _ := New(Options{APIKey: "secret", BaseURL: ts.BaseURL()})

	_, found, err := client.FindPlace(context.Background(), "nowhere")
	if err != nil || found {
		t.Fatalf("FindPlace() = found %v, err %v", found, err)
	}
}

func TestFindPlaceErrors(t *testing.T) {
	denied := newFakeAPI(t, func(c httpx.Context) error {
		return c.JSONBlob(httpx.StatusOK, []byte(`{"status": "REQUEST_DENIED", "error_message": "bad key"}`))
	})
	broken := newFakeAPI(t, func(c httpx.Context) error {
		return httpx.HTTPError(httpx.StatusInternalError, "boom")
	})

	for name, url := range map[string]string{"denied": denied.BaseURL(), "broken": broken.BaseURL()} {
		t.Run(name, func(t *testing.T) {
			client, _ := New(Options{APIKey: "secret", BaseURL: url})
			if _, _, err := client.FindPlace(context.Background(), "x"); !errors.Is(err, lookup.ErrUnavailable) {
				t.Fatalf("FindPlace() error = %v, want ErrUnavailable", err)
			}
		})
	}
}

func TestNewRequiresAPIKey(t *testing.T) {
	if _, err := New(Options{}); !errors.Is(err, ErrMissingAPIKey) {
		t.Fatalf("New() error = %v, want ErrMissingAPIKey", err)
	}
}
