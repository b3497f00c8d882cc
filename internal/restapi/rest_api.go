package restapi

import (
	"net/http"
	"time"

	"transitfinder.org/internal/app"
)

type RestAPI struct {
	*app.Application
	rateLimiter *RateLimitMiddleware
}

// NewRestAPI creates a new RestAPI instance with initialized rate limiter
func NewRestAPI(app *app.Application) *RestAPI {
	return &RestAPI{
		Application: app,
		rateLimiter: NewRateLimitMiddleware(app.Config.RateLimit, time.Second, app.Config.ExemptAPIKeys),
	}
}

// Shutdown stops background work owned by the API.
func (api *RestAPI) Shutdown() {
	api.rateLimiter.Stop()
}

// Handler is the full middleware chain around the router.
func (api *RestAPI) Handler() http.Handler {
	var handler http.Handler = api.Routes()
	handler = api.rateLimiter.Handler(handler)
	handler = CompressionMiddleware(handler)
	handler = api.WithSecurityHeaders(handler)
	var observer HTTPObserver
	if api.Metrics != nil {
		observer = api.Metrics
	}
	handler = NewRequestLoggingMiddleware(api.Logger, observer)(handler)
	return handler
}
