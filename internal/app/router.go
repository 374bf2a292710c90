package app

import (
	"context"
	"net/http"
	"strings"

	"github.com/gorilla/mux"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	invhttp "github.com/tair/field-service/internal/inventory/delivery/http"
	"github.com/tair/field-service/pkg/httpx"
)

// RouterConfig carries the optional parts of the HTTP surface
type RouterConfig struct {
	// Health reports whether the backing store is reachable; nil means always healthy
	Health func(ctx context.Context) error
	// Swagger serves the API documentation UI when set
	Swagger http.Handler
	// RateLimiter limits authenticated callers when set
	RateLimiter *httpx.RateLimiter
}

// NewRouter registers middleware, operational endpoints and every API route. API routes
// require a bearer token; the rate limiter runs after authentication so it keys on the user.
func NewRouter(a *Application, cfg RouterConfig) http.Handler {
	router := mux.NewRouter()
	middleware := httpx.DefaultMiddlewareConfig(nil)
	httpx.RegisterMiddlewares(router, middleware)

	router.Handle("/metrics", promhttp.Handler())
	router.HandleFunc("/health", healthHandler(cfg.Health)).Methods("GET")
	if cfg.Swagger != nil {
		invhttp.RegisterSwaggerDocs(router, cfg.Swagger)
	}

	api := router.MatcherFunc(func(r *http.Request, _ *mux.RouteMatch) bool {
		return strings.HasPrefix(r.URL.Path, "/api/")
	}).Subrouter()
	api.Use(httpx.AuthMiddleware)
	if cfg.RateLimiter != nil {
		api.Use(cfg.RateLimiter.Middleware)
	}

	a.Inventory.RegisterRoutes(api)
	a.Requisitions.RegisterRoutes(api)
	a.Jobs.RegisterRoutes(api)
	a.Inspections.RegisterRoutes(api)

	return httpx.SetupCORS(middleware)(router)
}

func healthHandler(check func(ctx context.Context) error) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if check != nil {
			if err := check(r.Context()); err != nil {
				httpx.RespondMessage(w, http.StatusServiceUnavailable, "Database unavailable")
				return
			}
		}
		httpx.RespondJSON(w, http.StatusOK, httpx.Response{
			Success: true,
			Message: "Field service is healthy",
		})
	}
}
