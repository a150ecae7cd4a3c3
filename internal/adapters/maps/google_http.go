package maps

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"route-planner-service/internal/domain"
	"route-planner-service/internal/platform/metrics"
	"strings"
	"time"
)

type httpStatusError struct {
	Code int
	Body string
}

func (e *httpStatusError) Error() string {
	return fmt.Sprintf("Code %d: %s", e.Code, e.Body)
}

func (g *GoogleProvider) newRequest(
	ctx context.Context,
	method string,
	url string,
	body io.Reader,
) (*http.Request, error) {
	req, err := http.NewRequestWithContext(ctx, method, url, body)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}

	req.Header.Set("X-Goog-Api-Key", g.apiKey)
	req.Header.Set("Accept", "application/json")

	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	return req, nil
}

// newQueryRequest builds a GET request against the Maps web services, which
// take the key as a query parameter.
func (g *GoogleProvider) newQueryRequest(ctx context.Context, path string, params map[string]string) (*http.Request, error) {
	req, err := g.newRequest(ctx, http.MethodGet, g.mapsBaseURL+path, nil)
	if err != nil {
		return nil, err
	}

	q := req.URL.Query()
	for k, v := range params {
		q.Set(k, v)
	}
	q.Set("key", g.apiKey)
	req.URL.RawQuery = q.Encode()

	return req, nil
}

func (g *GoogleProvider) do(req *http.Request) (*http.Response, error) {
	resp, err := g.session.Do(req)
	if err != nil {
		return nil, err
	}
	if resp.StatusCode >= 400 {
		b, _ := io.ReadAll(resp.Body)
		resp.Body.Close()
		return nil, &httpStatusError{
			Code: resp.StatusCode,
			Body: strings.TrimSpace(string(b)),
		}
	}
	return resp, nil
}

// doWithRetry retries transient failures (network errors, 429 and 5xx responses)
// using exponential backoff while respecting context cancellation. Every attempt
// waits on the shared rate limiter first. Final failures are UpstreamErrors.
func (g *GoogleProvider) doWithRetry(
	ctx context.Context,
	op string,
	makeReq func() (*http.Request, error),
) (*http.Response, error) {
	resp, err := g.retry(ctx, makeReq)
	if err != nil {
		metrics.MapsCalls.WithLabelValues(op, "error").Inc()
		return nil, &domain.UpstreamError{Op: "google " + op, Err: err}
	}
	metrics.MapsCalls.WithLabelValues(op, "ok").Inc()
	return resp, nil
}

func (g *GoogleProvider) retry(
	ctx context.Context,
	makeReq func() (*http.Request, error),
) (*http.Response, error) {
	backoff := g.backoff
	var lastErr error

	for attempt := 1; attempt <= g.maxAttempts; attempt++ {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		if g.limiter != nil {
			if err := g.limiter.Wait(ctx); err != nil {
				return nil, fmt.Errorf("rate limit wait: %w", err)
			}
		}

		req, err := makeReq()
		if err != nil {
			return nil, fmt.Errorf("make request: %w", err)
		}

		resp, err := g.do(req)
		if err == nil {
			return resp, nil
		}
		lastErr = err

		retry := false
		var he *httpStatusError
		if errors.As(err, &he) {
			switch he.Code {
			case 429, 500, 502, 503, 504:
				retry = true
			}
		}

		var netErr net.Error
		if !retry && errors.As(err, &netErr) {
			retry = true
		}

		if !retry || attempt == g.maxAttempts {
			return nil, lastErr
		}

		timer := time.NewTimer(backoff)
		select {
		case <-ctx.Done():
			timer.Stop()
			return nil, ctx.Err()
		case <-timer.C:
		}

		backoff *= 2
	}

	return nil, lastErr
}
