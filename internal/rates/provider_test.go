package rates

import (
	"context"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
)

func discard() *slog.Logger { return slog.New(slog.NewTextHandler(io.Discard, nil)) }

func TestRateFromLiveLookup(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"amount":1.0,"base":"USD","rates":{"BRL":5.43}}`))
	}))
	defer srv.Close()

	p := NewProvider(srv.Client(), srv.URL, discard())
	assert.InDelta(t, 5.43, p.Rate(context.Background()), 1e-9)
}

func TestRateIsCached(t *testing.T) {
	calls := 0
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls++
		w.Write([]byte(`{"rates":{"BRL":5.10}}`))
	}))
	defer srv.Close()

	p := NewProvider(srv.Client(), srv.URL, discard())
	p.Rate(context.Background())
	p.Rate(context.Background())
	assert.Equal(t, 1, calls)
}

func TestRateFallsBackOnServerError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "internal error", http.StatusInternalServerError)
	}))
	defer srv.Close()

	p := NewProvider(srv.Client(), srv.URL, discard())
	assert.Equal(t, DefaultUSDBRL, p.Rate(context.Background()))
}

func TestRateFallsBackOnMalformedBody(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"rates":{}}`))
	}))
	defer srv.Close()

	p := NewProvider(srv.Client(), srv.URL, discard())
	assert.Equal(t, DefaultUSDBRL, p.Rate(context.Background()))
}

func TestRateFallsBackOnNetworkError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	srv.Close() // connection refused from here on

	p := NewProvider(http.DefaultClient, srv.URL, discard())
	got := p.Rate(context.Background())
	assert.Equal(t, DefaultUSDBRL, got)
	assert.Greater(t, got, 0.0)
}

func TestRateFailureIsNotCached(t *testing.T) {
	healthy := false
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if !healthy {
			http.Error(w, "warming up", http.StatusServiceUnavailable)
			return
		}
		w.Write([]byte(`{"rates":{"BRL":4.98}}`))
	}))
	defer srv.Close()

	p := NewProvider(srv.Client(), srv.URL, discard())
	assert.Equal(t, DefaultUSDBRL, p.Rate(context.Background()))

	healthy = true
	assert.InDelta(t, 4.98, p.Rate(context.Background()), 1e-9)
}
