package fetcher

import (
	"compress/gzip"
	"context"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/roastlens/roastlens/internal/config"
	"github.com/roastlens/roastlens/internal/types"
)

func testFetcher(t *testing.T) *Fetcher {
	t.Helper()
	cfg := config.DefaultConfig().Scraper
	cfg.MaxRetries = 3
	cfg.BackoffBase = 10 * time.Millisecond
	cfg.RequestTimeout = 5 * time.Second
	return New(&cfg, slog.New(slog.NewTextHandler(io.Discard, nil)))
}

func TestFetchSuccess(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("<html><body>hello</body></html>"))
	}))
	defer ts.Close()

	f := testFetcher(t)
	body, status, err := f.Fetch(context.Background(), ts.URL, nil)
	if err != nil {
		t.Fatalf("Fetch failed: %v", err)
	}
	if status != http.StatusOK {
		t.Errorf("status = %d, want 200", status)
	}
	if string(body) != "<html><body>hello</body></html>" {
		t.Errorf("unexpected body: %q", body)
	}
}

func TestFetchRetryAfterDoesNotConsumeBudget(t *testing.T) {
	var calls int32
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		n := atomic.AddInt32(&calls, 1)
		if n <= 2 {
			w.Header().Set("Retry-After", "1")
			w.WriteHeader(http.StatusTooManyRequests)
			return
		}
		w.Write([]byte("ok"))
	}))
	defer ts.Close()

	f := testFetcher(t)
	start := time.Now()
	body, _, err := f.Fetch(context.Background(), ts.URL, &Options{MaxRetries: 1})
	elapsed := time.Since(start)

	if err != nil {
		t.Fatalf("Fetch failed: %v", err)
	}
	if string(body) != "ok" {
		t.Errorf("unexpected body: %q", body)
	}
	// Two 429s with Retry-After: 1 each, so the fetch must have waited
	// at least 2 seconds, and must have succeeded despite MaxRetries=1.
	if elapsed < 2*time.Second {
		t.Errorf("elapsed = %v, want >= 2s", elapsed)
	}
	if n := atomic.LoadInt32(&calls); n != 3 {
		t.Errorf("calls = %d, want 3", n)
	}
}

func TestFetchPersistentRateLimitEventuallyFails(t *testing.T) {
	var calls int32
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&calls, 1)
		w.Header().Set("Retry-After", "0")
		w.WriteHeader(http.StatusTooManyRequests)
	}))
	defer ts.Close()

	f := testFetcher(t)
	_, _, err := f.Fetch(context.Background(), ts.URL, &Options{MaxRetries: 2})
	if err == nil {
		t.Fatal("Fetch succeeded against a server that always rate limits")
	}
	if !errors.Is(err, types.ErrMaxRetries) {
		t.Errorf("error = %v, want max retries", err)
	}
	// Free 429 waits are capped, then the budget applies: at most
	// maxRateLimitWaits free passes plus MaxRetries budgeted attempts.
	if n := atomic.LoadInt32(&calls); n > maxRateLimitWaits+2 {
		t.Errorf("calls = %d, want <= %d", n, maxRateLimitWaits+2)
	}
}

func TestFetchRedirectLoop(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("/a", func(w http.ResponseWriter, r *http.Request) {
		http.Redirect(w, r, "/b", http.StatusMovedPermanently)
	})
	mux.HandleFunc("/b", func(w http.ResponseWriter, r *http.Request) {
		http.Redirect(w, r, "/a", http.StatusMovedPermanently)
	})
	ts := httptest.NewServer(mux)
	defer ts.Close()

	f := testFetcher(t)
	_, _, err := f.Fetch(context.Background(), ts.URL+"/a", &Options{MaxRetries: 10})
	if !errors.Is(err, types.ErrRedirectLoop) {
		t.Fatalf("error = %v, want redirect loop", err)
	}
}

func TestFetchFollowsRedirect(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("/old", func(w http.ResponseWriter, r *http.Request) {
		http.Redirect(w, r, "/new", http.StatusFound)
	})
	mux.HandleFunc("/new", func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("moved here"))
	})
	ts := httptest.NewServer(mux)
	defer ts.Close()

	f := testFetcher(t)
	body, _, err := f.Fetch(context.Background(), ts.URL+"/old", nil)
	if err != nil {
		t.Fatalf("Fetch failed: %v", err)
	}
	if string(body) != "moved here" {
		t.Errorf("unexpected body: %q", body)
	}
}

func TestFetchNotFoundFailsFast(t *testing.T) {
	var calls int32
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&calls, 1)
		w.WriteHeader(http.StatusNotFound)
	}))
	defer ts.Close()

	f := testFetcher(t)
	_, status, err := f.Fetch(context.Background(), ts.URL, &Options{MaxRetries: 5})
	if err == nil {
		t.Fatal("want error for 404")
	}
	if status != http.StatusNotFound {
		t.Errorf("status = %d, want 404", status)
	}
	if n := atomic.LoadInt32(&calls); n != 1 {
		t.Errorf("calls = %d, want 1 (no retries on 404)", n)
	}
}

func TestFetchRetriesServerErrors(t *testing.T) {
	var calls int32
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if atomic.AddInt32(&calls, 1) < 3 {
			w.WriteHeader(http.StatusInternalServerError)
			return
		}
		w.Write([]byte("recovered"))
	}))
	defer ts.Close()

	f := testFetcher(t)
	body, _, err := f.Fetch(context.Background(), ts.URL, &Options{MaxRetries: 3})
	if err != nil {
		t.Fatalf("Fetch failed: %v", err)
	}
	if string(body) != "recovered" {
		t.Errorf("unexpected body: %q", body)
	}
}

func TestFetchGzipBody(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Encoding", "gzip")
		gz := gzip.NewWriter(w)
		gz.Write([]byte("compressed content"))
		gz.Close()
	}))
	defer ts.Close()

	f := testFetcher(t)
	body, _, err := f.Fetch(context.Background(), ts.URL, nil)
	if err != nil {
		t.Fatalf("Fetch failed: %v", err)
	}
	if string(body) != "compressed content" {
		t.Errorf("unexpected body: %q", body)
	}
}

func TestParseRetryAfter(t *testing.T) {
	fallback := 5 * time.Second
	cases := []struct {
		header string
		want   time.Duration
	}{
		{"", fallback},
		{"3", 3 * time.Second},
		{"600", 120 * time.Second},
		{"garbage", fallback},
	}
	for _, tc := range cases {
		if got := parseRetryAfter(tc.header, fallback); got != tc.want {
			t.Errorf("parseRetryAfter(%q) = %v, want %v", tc.header, got, tc.want)
		}
	}
}
