package fx

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"famspend/internal/core"
)

func newTestClient(url string) *Client {
	return NewClient(url, 2*time.Second, nil)
}

func TestResolveSameCurrencyShortCircuit(t *testing.T) {
	calls := 0
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls++
	}))
	defer srv.Close()

	rate, err := newTestClient(srv.URL).Resolve(context.Background(), "USD", "USD", core.NewDate(2024, 3, 1))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if rate != 1 {
		t.Fatalf("rate = %v, want exactly 1", rate)
	}
	if calls != 0 {
		t.Fatalf("rate source was called %d times, want 0", calls)
	}
}

func TestResolve(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/2024-03-01" {
			t.Errorf("path = %s, want /2024-03-01", r.URL.Path)
		}
		if r.URL.Query().Get("from") != "USD" || r.URL.Query().Get("to") != "EUR" {
			t.Errorf("unexpected query: %s", r.URL.RawQuery)
		}
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"amount":1.0,"base":"USD","date":"2024-03-01","rates":{"EUR":0.92}}`))
	}))
	defer srv.Close()

	rate, err := newTestClient(srv.URL).Resolve(context.Background(), "USD", "EUR", core.NewDate(2024, 3, 1))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if rate != 0.92 {
		t.Fatalf("rate = %v, want 0.92", rate)
	}
}

func TestResolveRateUnavailable(t *testing.T) {
	cases := []struct {
		name    string
		handler http.HandlerFunc
	}{
		{"missing pair in response", func(w http.ResponseWriter, r *http.Request) {
			_, _ = w.Write([]byte(`{"rates":{}}`))
		}},
		{"not found", func(w http.ResponseWriter, r *http.Request) {
			http.Error(w, "not found", http.StatusNotFound)
		}},
		{"unsupported currency", func(w http.ResponseWriter, r *http.Request) {
			http.Error(w, "not supported", http.StatusUnprocessableEntity)
		}},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			srv := httptest.NewServer(tc.handler)
			defer srv.Close()

			_, err := newTestClient(srv.URL).Resolve(context.Background(), "USD", "XXX", core.NewDate(2024, 3, 1))
			if !errors.Is(err, ErrRateUnavailable) {
				t.Fatalf("expected ErrRateUnavailable, got %v", err)
			}
		})
	}
}

func TestResolveSourceUnreachable(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "boom", http.StatusBadGateway)
	}))
	defer srv.Close()

	_, err := newTestClient(srv.URL).Resolve(context.Background(), "USD", "EUR", core.NewDate(2024, 3, 1))
	if !errors.Is(err, ErrSourceUnreachable) {
		t.Fatalf("expected ErrSourceUnreachable on 5xx, got %v", err)
	}

	// Transport-level failure.
	dead := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	dead.Close()

	_, err = newTestClient(dead.URL).Resolve(context.Background(), "USD", "EUR", core.NewDate(2024, 3, 1))
	if !errors.Is(err, ErrSourceUnreachable) {
		t.Fatalf("expected ErrSourceUnreachable on transport failure, got %v", err)
	}
}

func TestFixedResolver(t *testing.T) {
	r := Fixed{"USD/EUR": 0.92}

	rate, err := r.Resolve(context.Background(), "USD", "EUR", core.Date{})
	if err != nil || rate != 0.92 {
		t.Fatalf("got %v, %v", rate, err)
	}
	if rate, _ := r.Resolve(context.Background(), "GBP", "GBP", core.Date{}); rate != 1 {
		t.Fatalf("same-currency rate = %v, want 1", rate)
	}
	if _, err := r.Resolve(context.Background(), "GBP", "EUR", core.Date{}); !errors.Is(err, ErrRateUnavailable) {
		t.Fatalf("expected ErrRateUnavailable, got %v", err)
	}
}
