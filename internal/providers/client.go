// Package providers holds the HTTP plumbing shared by the external data source clients.
package providers

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"time"

	"transitfinder.org/internal/isochrone"
	"transitfinder.org/internal/logging"
	"transitfinder.org/internal/metrics"
)

const userAgent = "transitfinder (+https://transitfinder.org)"

// maxBodyBytes caps how much of a response is decoded.
const maxBodyBytes = 16 << 20

type headerTransport struct {
	headers http.Header
	next    http.RoundTripper
}

func (t *headerTransport) RoundTrip(request *http.Request) (*http.Response, error) {
	request = request.Clone(request.Context())
	request.Header.Set("User-Agent", userAgent)
	for k, values := range t.headers {
		for _, v := range values {
			request.Header.Add(k, v)
		}
	}
	return t.next.RoundTrip(request)
}

// NewHTTPClient returns a client whose requests carry headers and are
// measured under provider by collector. collector may be nil.
func NewHTTPClient(provider string, timeout time.Duration, collector *metrics.Collector, logger *slog.Logger, headers http.Header) *http.Client {
	return &http.Client{
		Timeout: timeout,
		Transport: &headerTransport{
			headers: headers,
			next:    collector.Transport(provider, nil, logger),
		},
	}
}

// Client performs JSON requests against one provider and classifies
// failures with the isochrone sentinel errors.
type Client struct {
	Name   string
	HTTP   *http.Client
	Logger *slog.Logger
}

func (c *Client) GetJSON(ctx context.Context, rawURL string, out any) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		return fmt.Errorf("%s: building request: %w", c.Name, err)
	}
	return c.do(req, out)
}

// PostFormJSON posts form url-encoded and decodes a JSON response.
func (c *Client) PostFormJSON(ctx context.Context, rawURL string, form url.Values, out any) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, rawURL, strings.NewReader(form.Encode()))
	if err != nil {
		return fmt.Errorf("%s: building request: %w", c.Name, err)
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	return c.do(req, out)
}

func (c *Client) do(req *http.Request, out any) (err error) {
	resp, err := c.HTTP.Do(req)
	if err != nil {
		if ctxErr := req.Context().Err(); ctxErr != nil {
			return ctxErr
		}
		return fmt.Errorf("%s: %w: %w", c.Name, isochrone.ErrProviderUnavailable, err)
	}
	defer logging.SafeCloseWithLogging(resp.Body, c.Logger, c.Name+"_response")

	if err := StatusError(c.Name, resp.StatusCode); err != nil {
		_, _ = io.Copy(io.Discard, io.LimitReader(resp.Body, 4096))
		return err
	}

	if err := json.NewDecoder(io.LimitReader(resp.Body, maxBodyBytes)).Decode(out); err != nil {
		if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
			return err
		}
		return fmt.Errorf("%s: malformed response: %w: %w", c.Name, isochrone.ErrProviderUnavailable, err)
	}
	return nil
}

// StatusError maps a non-2xx status to a classified error.
func StatusError(provider string, status int) error {
	switch {
	case status >= 200 && status < 300:
		return nil
	case status == http.StatusNotFound:
		return fmt.Errorf("%s: HTTP %d: %w", provider, status, isochrone.ErrNotFound)
	default:
		return fmt.Errorf("%s: HTTP %d: %w", provider, status, isochrone.ErrProviderUnavailable)
	}
}

// JoinURL appends path segments to base, escaping each segment.
func JoinURL(base string, segments ...string) string {
	escaped := make([]string, len(segments))
	for i, s := range segments {
		escaped[i] = url.PathEscape(s)
	}
	return strings.TrimSuffix(base, "/") + "/" + strings.Join(escaped, "/")
}
