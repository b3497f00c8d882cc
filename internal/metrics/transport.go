package metrics

import (
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"transitfinder.org/internal/logging"
)

// instrumentedTransport counts and times every request made through it.
type instrumentedTransport struct {
	provider  string
	next      http.RoundTripper
	collector *Collector
	logger    *slog.Logger
}

// Transport wraps next so requests to provider are measured and logged.
// A nil next uses http.DefaultTransport; a nil collector only logs.
func (c *Collector) Transport(provider string, next http.RoundTripper, logger *slog.Logger) http.RoundTripper {
	if next == nil {
		next = http.DefaultTransport
	}
	return &instrumentedTransport{provider: provider, next: next, collector: c, logger: logger}
}

func (t *instrumentedTransport) RoundTrip(req *http.Request) (*http.Response, error) {
	start := time.Now()
	resp, err := t.next.RoundTrip(req)
	elapsed := time.Since(start)

	status := 0
	outcome := "error"
	if err == nil {
		status = resp.StatusCode
		outcome = statusClass(status)
	}

	if t.collector != nil {
		t.collector.ProviderRequests.WithLabelValues(t.provider, outcome).Inc()
		t.collector.ProviderLatency.WithLabelValues(t.provider).Observe(elapsed.Seconds())
	}

	logErr := err
	if logErr == nil && status >= 400 {
		logErr = fmt.Errorf("HTTP %d", status)
	}
	logging.LogProviderCall(t.logger, t.provider, req.URL.Host, status, elapsed, logErr)

	return resp, err
}
