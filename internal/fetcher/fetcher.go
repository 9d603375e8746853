package fetcher

import (
	"compress/flate"
	"compress/gzip"
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"math/rand"
	"net"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"syscall"
	"time"

	"github.com/andybalholm/brotli"

	"github.com/roastlens/roastlens/internal/config"
	"github.com/roastlens/roastlens/internal/types"
)

// maxRateLimitWaits bounds how many 429 Retry-After windows a single
// fetch will sit out without spending its retry budget.
const maxRateLimitWaits = 5

// Options tune a single fetch. The zero value uses config defaults.
type Options struct {
	MaxRetries int
	Timeout    time.Duration
	Headers    map[string]string
	RateLimit  bool
}

// Fetcher performs resilient HTTP GETs: retry with exponential backoff
// and jitter, Retry-After handling on 429 (without consuming retry
// budget), and explicit redirect following with loop detection.
type Fetcher struct {
	client   *http.Client
	cfg      *config.ScraperConfig
	limiters *LimiterRegistry
	logger   *slog.Logger
}

// New creates a Fetcher. Redirects are followed manually so a visited
// set can be carried across hops; the client never auto-follows.
func New(cfg *config.ScraperConfig, logger *slog.Logger) *Fetcher {
	transport := &http.Transport{
		DialContext: (&net.Dialer{
			Timeout:   30 * time.Second,
			KeepAlive: 30 * time.Second,
		}).DialContext,
		MaxIdleConns:        100,
		MaxIdleConnsPerHost: 50,
		IdleConnTimeout:     90 * time.Second,
		TLSHandshakeTimeout: 10 * time.Second,
		DisableCompression:  true, // We handle decompression ourselves (including brotli)
	}

	return &Fetcher{
		client: &http.Client{
			Transport: transport,
			CheckRedirect: func(req *http.Request, via []*http.Request) error {
				return http.ErrUseLastResponse
			},
		},
		cfg:      cfg,
		limiters: NewLimiterRegistry(cfg.RequestsPerSecond),
		logger:   logger.With("component", "fetcher"),
	}
}

// Limiters exposes the per-host limiter registry shared by all workers.
func (f *Fetcher) Limiters() *LimiterRegistry { return f.limiters }

// Fetch GETs a URL and returns the body and status code.
//
// Retry accounting: the first maxRateLimitWaits 429 waits do not
// consume the retry budget; further 429s and redirect hops do. 403/404 and redirect loops fail immediately. All other
// non-2xx statuses and transient network errors retry with exponential
// backoff and ±50% jitter, and the final error aggregates the last
// underlying cause.
func (f *Fetcher) Fetch(ctx context.Context, rawURL string, opts *Options) ([]byte, int, error) {
	if rawURL == "" {
		return nil, 0, &types.FetchError{URL: rawURL, Err: types.ErrInvalidURL}
	}
	if opts == nil {
		opts = &Options{}
	}

	retries := opts.MaxRetries
	if retries <= 0 {
		retries = f.cfg.MaxRetries
	}
	timeout := opts.Timeout
	if timeout <= 0 {
		timeout = f.cfg.RequestTimeout
	}

	visited := map[string]struct{}{rawURL: {}}
	current := rawURL
	backoff := f.cfg.BackoffBase
	rateLimitWaits := 0
	var lastErr error

	for attempt := 0; attempt < retries; attempt++ {
		if opts.RateLimit {
			if err := f.limiters.Wait(ctx, current); err != nil {
				return nil, 0, &types.FetchError{URL: current, Err: err}
			}
		}

		body, status, redirect, err := f.doAttempt(ctx, current, timeout, opts.Headers)
		if err == nil && redirect == "" {
			return body, status, nil
		}

		if redirect != "" {
			if _, seen := visited[redirect]; seen {
				return nil, status, &types.FetchError{
					URL: current,
					Err: fmt.Errorf("%w: %s", types.ErrRedirectLoop, redirect),
				}
			}
			visited[redirect] = struct{}{}
			f.logger.Info("following redirect", "from", current, "to", redirect)
			current = redirect
			continue
		}

		var fe *types.FetchError
		if errors.As(err, &fe) {
			// 429: sleep out the Retry-After window and go again without
			// touching the budget. A server that never stops rate limiting
			// gets at most maxRateLimitWaits free passes, then the 429
			// counts against the budget like any other retryable failure.
			if fe.StatusCode == http.StatusTooManyRequests && rateLimitWaits < maxRateLimitWaits {
				rateLimitWaits++
				f.logger.Warn("rate limited",
					"url", current, "retry_after", fe.RetryAfter, "wait", rateLimitWaits)
				if serr := sleepCtx(ctx, fe.RetryAfter); serr != nil {
					return nil, status, &types.FetchError{URL: current, Err: serr}
				}
				attempt--
				continue
			}
			if !fe.Retryable {
				return nil, status, err
			}
		}

		lastErr = err
		if attempt == retries-1 {
			break
		}

		wait := jitter(backoff)
		f.logger.Warn("retrying fetch",
			"url", current,
			"attempt", attempt+1,
			"max_retries", retries,
			"wait", wait,
			"error", err,
		)
		if serr := sleepCtx(ctx, wait); serr != nil {
			return nil, 0, &types.FetchError{URL: current, Err: serr}
		}
		backoff *= 2
	}

	return nil, 0, &types.FetchError{
		URL: current,
		Err: fmt.Errorf("%w after %d attempts: %v", types.ErrMaxRetries, retries, lastErr),
	}
}

// doAttempt issues one GET. It returns either a body, a redirect target,
// or an error; redirect resolution is left to the caller so the visited
// set stays in one place.
func (f *Fetcher) doAttempt(ctx context.Context, rawURL string, timeout time.Duration, headers map[string]string) (body []byte, status int, redirect string, err error) {
	reqCtx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	req, err := http.NewRequestWithContext(reqCtx, http.MethodGet, rawURL, nil)
	if err != nil {
		return nil, 0, "", &types.FetchError{URL: rawURL, Err: err}
	}

	req.Header.Set("User-Agent", f.cfg.UserAgent)
	req.Header.Set("Accept", "text/html,application/xhtml+xml,application/xml;q=0.9,*/*;q=0.8")
	req.Header.Set("Accept-Language", "en-US,en;q=0.9")
	req.Header.Set("Accept-Encoding", "gzip, deflate, br")
	for k, v := range headers {
		req.Header.Set(k, v)
	}

	resp, err := f.client.Do(req)
	if err != nil {
		return nil, 0, "", &types.FetchError{URL: rawURL, Err: err, Retryable: isRetryableError(err)}
	}
	defer resp.Body.Close()

	switch {
	case resp.StatusCode == http.StatusTooManyRequests:
		retryAfter := parseRetryAfter(resp.Header.Get("Retry-After"), f.cfg.BackoffBase*5)
		return nil, resp.StatusCode, "", &types.FetchError{
			URL:        rawURL,
			StatusCode: resp.StatusCode,
			Err:        fmt.Errorf("HTTP 429: rate limited"),
			Retryable:  true,
			RetryAfter: retryAfter,
		}

	case resp.StatusCode == http.StatusMovedPermanently,
		resp.StatusCode == http.StatusFound,
		resp.StatusCode == http.StatusTemporaryRedirect,
		resp.StatusCode == http.StatusPermanentRedirect:
		loc := resp.Header.Get("Location")
		if loc == "" {
			return nil, resp.StatusCode, "", &types.FetchError{
				URL:        rawURL,
				StatusCode: resp.StatusCode,
				Err:        fmt.Errorf("redirect with no Location header"),
			}
		}
		target, err := resolveRedirect(rawURL, loc)
		if err != nil {
			return nil, resp.StatusCode, "", &types.FetchError{URL: rawURL, Err: err}
		}
		return nil, resp.StatusCode, target, nil

	case resp.StatusCode == http.StatusNotFound, resp.StatusCode == http.StatusForbidden:
		return nil, resp.StatusCode, "", &types.FetchError{
			URL:        rawURL,
			StatusCode: resp.StatusCode,
			Err:        fmt.Errorf("HTTP %d", resp.StatusCode),
		}

	case resp.StatusCode < 200 || resp.StatusCode >= 300:
		snippet, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return nil, resp.StatusCode, "", &types.FetchError{
			URL:        rawURL,
			StatusCode: resp.StatusCode,
			Err:        fmt.Errorf("HTTP %d: %s", resp.StatusCode, strings.TrimSpace(string(snippet))),
			Retryable:  true,
		}
	}

	var reader io.Reader = resp.Body
	if f.cfg.MaxBodySize > 0 {
		reader = io.LimitReader(reader, f.cfg.MaxBodySize)
	}
	reader, err = decompressReader(resp, reader)
	if err != nil {
		return nil, resp.StatusCode, "", &types.FetchError{URL: rawURL, Err: err}
	}

	body, err = io.ReadAll(reader)
	if err != nil {
		return nil, resp.StatusCode, "", &types.FetchError{URL: rawURL, Err: err, Retryable: true}
	}
	return body, resp.StatusCode, "", nil
}

// resolveRedirect resolves a Location header against the current URL.
func resolveRedirect(current, location string) (string, error) {
	base, err := url.Parse(current)
	if err != nil {
		return "", err
	}
	ref, err := url.Parse(location)
	if err != nil {
		return "", err
	}
	return base.ResolveReference(ref).String(), nil
}

// decompressReader wraps a reader with the appropriate decompressor.
// Handles gzip, deflate, and brotli (br) encodings.
func decompressReader(resp *http.Response, reader io.Reader) (io.Reader, error) {
	switch resp.Header.Get("Content-Encoding") {
	case "gzip":
		return gzip.NewReader(reader)
	case "deflate":
		return flate.NewReader(reader), nil
	case "br":
		return brotli.NewReader(reader), nil
	default:
		return reader, nil
	}
}

// isRetryableError checks if a network error warrants a retry.
// Covers timeouts, connection resets, unexpected EOF, and connection refused.
func isRetryableError(err error) bool {
	if err == nil {
		return false
	}
	// Context cancellation is NOT retryable
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return false
	}
	if errors.Is(err, io.ErrUnexpectedEOF) || errors.Is(err, io.EOF) {
		return true
	}
	if netErr, ok := err.(net.Error); ok && netErr.Timeout() {
		return true
	}
	var opErr *net.OpError
	if errors.As(err, &opErr) {
		if errors.Is(opErr.Err, syscall.ECONNRESET) ||
			errors.Is(opErr.Err, syscall.ECONNREFUSED) {
			return true
		}
	}
	return false
}

// parseRetryAfter parses the Retry-After header value.
// Supports both integer seconds and HTTP-date formats.
func parseRetryAfter(header string, fallback time.Duration) time.Duration {
	if header == "" {
		return fallback
	}
	if secs, err := strconv.Atoi(strings.TrimSpace(header)); err == nil {
		if secs > 120 {
			secs = 120 // cap at 2 minutes
		}
		return time.Duration(secs) * time.Second
	}
	if t, err := http.ParseTime(header); err == nil {
		d := time.Until(t)
		if d < 0 {
			return time.Second
		}
		if d > 2*time.Minute {
			return 2 * time.Minute
		}
		return d
	}
	return fallback
}

// jitter spreads a backoff delay over ±50% of its base value.
func jitter(base time.Duration) time.Duration {
	factor := 0.5 + rand.Float64() // 0.5–1.5
	return time.Duration(float64(base) * factor)
}

// sleepCtx sleeps for d or until the context is done.
func sleepCtx(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return nil
	}
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
