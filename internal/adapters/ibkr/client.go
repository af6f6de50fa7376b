package ibkr

// client.go — HTTP plumbing for the IBKR Client Portal gateway.
//
// The gateway is a local Java process that proxies an authenticated
// session; it serves a self-signed certificate, hence the optional
// insecure TLS mode. All requests go through one rate limiter sized well
// under the documented global limit.

import (
	"bytes"
	"context"
	"crypto/tls"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"math"
	"net/http"
	"net/url"
	"strings"
	"time"

	"golang.org/x/time/rate"
)

const (
	// Client Portal allows ~10 req/s globally; stay at 60% of that.
	requestsPerSec = 6
	requestBurst   = 3

	maxRetries    = 3
	baseRetryWait = 500 * time.Millisecond
)

// Client is the HTTP client for the Client Portal REST API with rate
// limiting and transport-level retries.
type Client struct {
	http      *http.Client
	base      string
	limiter   *rate.Limiter
	accountID string
}

// NewClient creates a Client for the gateway at gatewayURL
// (e.g. "https://localhost:5000").
func NewClient(gatewayURL string, insecureSkipVerify bool) *Client {
	transport := http.DefaultTransport.(*http.Transport).Clone()
	if insecureSkipVerify {
		transport.TLSClientConfig = &tls.Config{InsecureSkipVerify: true}
	}
	return &Client{
		http: &http.Client{
			Timeout:   15 * time.Second,
			Transport: transport,
		},
		base:    strings.TrimRight(gatewayURL, "/") + "/v1/api",
		limiter: rate.NewLimiter(requestsPerSec, requestBurst),
	}
}

// Warmup primes the gateway session. The Client Portal requires one
// authenticated request before iserver endpoints respond; listing the
// portfolio accounts is the conventional one.
func (c *Client) Warmup(ctx context.Context) error {
	var accounts []json.RawMessage
	if err := c.get(ctx, "/portfolio/accounts", nil, &accounts); err != nil {
		return fmt.Errorf("ibkr.Warmup: %w", err)
	}
	slog.Debug("ibkr: session warmed up", "accounts", len(accounts))
	return nil
}

// get does a GET with rate limiting and retries.
func (c *Client) get(ctx context.Context, path string, query url.Values, out any) error {
	u := c.base + path
	if len(query) > 0 {
		u += "?" + query.Encode()
	}
	return c.doWithRetry(ctx, func() (*http.Response, error) {
		req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
		if err != nil {
			return nil, err
		}
		req.Header.Set("Accept", "application/json")
		return c.http.Do(req)
	}, out)
}

// post does a JSON POST with rate limiting and retries.
func (c *Client) post(ctx context.Context, path string, body, out any) error {
	return c.doWithRetry(ctx, func() (*http.Response, error) {
		return c.newPost(ctx, path, body)
	}, out)
}

// postOnce does a JSON POST with rate limiting but no retries, returning
// the raw status and body. Order submission and confirmation go through
// here: a failed order call is fatal to the run, never replayed, and the
// caller needs the upstream status/body for its error.
func (c *Client) postOnce(ctx context.Context, path string, body any) (int, []byte, error) {
	if err := c.limiter.Wait(ctx); err != nil {
		return 0, nil, fmt.Errorf("rate limiter: %w", err)
	}
	resp, err := c.newPost(ctx, path, body)
	if err != nil {
		return 0, nil, err
	}
	defer resp.Body.Close()
	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return resp.StatusCode, nil, fmt.Errorf("read response: %w", err)
	}
	return resp.StatusCode, raw, nil
}

func (c *Client) newPost(ctx context.Context, path string, body any) (*http.Response, error) {
	b, err := json.Marshal(body)
	if err != nil {
		return nil, fmt.Errorf("marshal body: %w", err)
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.base+path, bytes.NewReader(b))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")
	return c.http.Do(req)
}

// doWithRetry runs the request with exponential backoff on transport-level
// failures. Application-level 4xx responses are returned immediately.
func (c *Client) doWithRetry(ctx context.Context, fn func() (*http.Response, error), out any) error {
	for attempt := 0; attempt <= maxRetries; attempt++ {
		if err := c.limiter.Wait(ctx); err != nil {
			return fmt.Errorf("rate limiter: %w", err)
		}

		resp, err := fn()
		if err != nil {
			if attempt == maxRetries {
				return fmt.Errorf("request failed after %d retries: %w", maxRetries, err)
			}
			c.sleep(ctx, attempt)
			continue
		}

		if resp.StatusCode == http.StatusTooManyRequests {
			resp.Body.Close()
			slog.Warn("ibkr: rate limited by gateway", "attempt", attempt+1)
			c.sleep(ctx, attempt)
			continue
		}

		if resp.StatusCode >= 500 {
			resp.Body.Close()
			if attempt == maxRetries {
				return fmt.Errorf("server error %d after %d retries", resp.StatusCode, maxRetries)
			}
			c.sleep(ctx, attempt)
			continue
		}

		if resp.StatusCode >= 400 {
			body, _ := io.ReadAll(resp.Body)
			resp.Body.Close()
			return fmt.Errorf("client error %d: %s", resp.StatusCode, string(body))
		}

		defer resp.Body.Close()
		if out == nil {
			io.Copy(io.Discard, resp.Body)
			return nil
		}
		dec := json.NewDecoder(resp.Body)
		dec.UseNumber()
		if err := dec.Decode(out); err != nil {
			return fmt.Errorf("decode response: %w", err)
		}
		return nil
	}
	return fmt.Errorf("exhausted %d retries", maxRetries)
}

// sleep waits with exponential backoff, respecting the context.
func (c *Client) sleep(ctx context.Context, attempt int) {
	wait := time.Duration(math.Pow(2, float64(attempt))) * baseRetryWait
	select {
	case <-time.After(wait):
	case <-ctx.Done():
	}
}
