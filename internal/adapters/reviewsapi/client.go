// Package reviewsapi is an HTTP client for the reviews API.
package reviewsapi

import (
	"bytes"
	"context"
	crand "crypto/rand"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"golang.org/x/time/rate"

	"landlord_reviews/internal/domain"
)

const maxAttempts = 4

type Client struct {
	base string
	hc   *http.Client
	rl   *rate.Limiter
}

func New(base string, rps int) (*Client, error) {
	if _, err := url.ParseRequestURI(base); err != nil {
		return nil, fmt.Errorf("invalid base URL %q: %w", base, err)
	}
	if rps <= 0 {
		rps = 5
	}
	return &Client{
		base: strings.TrimRight(base, "/"),
		hc:   &http.Client{Timeout: 20 * time.Second},
		rl:   rate.NewLimiter(rate.Limit(rps), rps),
	}, nil
}

// Submit posts a new review. A 400 answer is returned as *domain.ValidationError.
func (c *Client) Submit(ctx context.Context, in domain.ReviewInput) (domain.Review, error) {
	body, err := json.Marshal(in)
	if err != nil {
		return domain.Review{}, err
	}
	var out domain.Review
	return out, c.do(ctx, http.MethodPost, c.base+"/api/reviews", body, &out)
}

// Near fetches the reviews around (lat, lng).
func (c *Client) Near(ctx context.Context, lat, lng float64) ([]domain.Review, error) {
	q := url.Values{}
	q.Set("lat", strconv.FormatFloat(lat, 'f', -1, 64))
	q.Set("lng", strconv.FormatFloat(lng, 'f', -1, 64))
	var out []domain.Review
	return out, c.do(ctx, http.MethodGet, c.base+"/api/reviews?"+q.Encode(), nil, &out)
}

// ---- Internals ----

var ErrRemote = errors.New("reviews api: server error")

// do performs one logical call with client-side rate limiting and retries.
// GETs retry on network errors, 429 and 5xx. POSTs retry only when the
// server certainly did not store anything (429, 503).
func (c *Client) do(ctx context.Context, method, u string, body []byte, out any) error {
	if err := c.rl.Wait(ctx); err != nil {
		return err
	}
	idempotent := method == http.MethodGet

	var lastErr error
	for i := 0; i < maxAttempts; i++ {
		var rd io.Reader
		if body != nil {
			rd = bytes.NewReader(body)
		}
		req, err := http.NewRequestWithContext(ctx, method, u, rd)
		if err != nil {
			return err
		}
		req.Header.Set("Accept", "application/json")
		if body != nil {
			req.Header.Set("Content-Type", "application/json")
		}
		req.Header.Set("User-Agent", "landlord-reviews-client/1.0")

		resp, err := c.hc.Do(req)
		if err != nil {
			if ctx.Err() != nil {
				return ctx.Err()
			}
			lastErr = err
			if idempotent && i < maxAttempts-1 && sleepCtx(ctx, backoff(i)) {
				continue
			}
			if ctx.Err() != nil {
				return ctx.Err()
			}
			return lastErr
		}

		switch {
		case resp.StatusCode == http.StatusOK || resp.StatusCode == http.StatusCreated:
			err := json.NewDecoder(resp.Body).Decode(out)
			resp.Body.Close()
			return err

		case resp.StatusCode == http.StatusBadRequest:
			msg := readMessage(resp)
			return &domain.ValidationError{Message: msg}

		case retryable(resp.StatusCode, idempotent):
			wait := retryAfter(resp)
			msg := readMessage(resp)
			if wait == 0 {
				wait = backoff(i)
			}
			lastErr = fmt.Errorf("%w: %d %s", ErrRemote, resp.StatusCode, msg)
			if i < maxAttempts-1 && sleepCtx(ctx, wait) {
				continue
			}
			if ctx.Err() != nil {
				return ctx.Err()
			}
			return lastErr

		default:
			msg := readMessage(resp)
			return fmt.Errorf("%w: %d %s", ErrRemote, resp.StatusCode, msg)
		}
	}
	return lastErr
}

func retryable(status int, idempotent bool) bool {
	switch status {
	case http.StatusTooManyRequests, http.StatusServiceUnavailable:
		return true
	case http.StatusInternalServerError, http.StatusBadGateway, http.StatusGatewayTimeout:
		return idempotent
	}
	return false
}

// readMessage extracts {"message": ...} from an error body and closes it.
func readMessage(resp *http.Response) string {
	defer resp.Body.Close()
	b, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
	var m struct {
		Message string `json:"message"`
	}
	if err := json.Unmarshal(b, &m); err == nil && m.Message != "" {
		return m.Message
	}
	return strings.TrimSpace(string(b))
}

// sleepCtx waits for d or returns early if ctx is done.
func sleepCtx(ctx context.Context, d time.Duration) bool {
	if d <= 0 {
		return true
	}
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return false
	case <-t.C:
		return true
	}
}

// retryAfter parses Retry-After header (seconds or HTTP-date). Returns 0 if absent/invalid.
func retryAfter(resp *http.Response) time.Duration {
	h := resp.Header.Get("Retry-After")
	if h == "" {
		return 0
	}
	if secs, err := strconv.Atoi(strings.TrimSpace(h)); err == nil && secs >= 0 {
		return time.Duration(secs) * time.Second
	}
	if t, err := http.ParseTime(h); err == nil {
		if d := time.Until(t); d > 0 {
			return d
		}
	}
	return 0
}

// backoff returns an exponential delay (100ms, 200ms, 400ms...) with up to +50% jitter.
func backoff(i int) time.Duration {
	base := time.Duration(1<<i) * 100 * time.Millisecond
	var b [1]byte
	if _, err := crand.Read(b[:]); err != nil {
		return base
	}
	f := float64(b[0]) / 255.0
	return base + time.Duration(0.5*f*float64(base))
}
