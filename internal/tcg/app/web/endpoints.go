package web

import (
	"net/http"

	"tcgsearch_api/internal/auth"
	"tcgsearch_api/internal/tcg/app/web/handlers"
	"tcgsearch_api/metrics"
	"tcgsearch_api/pkg/logger"
	"tcgsearch_api/pkg/middleware"
)

type Handlers struct {
	Search   *handlers.SearchHandler
	Identity *handlers.IdentityHandler
	Status   *handlers.StatusHandler
}

// routeConfig binds a handler to a path; protected routes require an operator token.
type routeConfig struct {
	routePath string
	handler   http.Handler
	protected bool
}

// SetupRoutes builds the public mux wrapped in request id, logging and CORS middleware.
func SetupRoutes(h Handlers, jwtSecret string, log logger.Logger) http.Handler {
	routes := []routeConfig{
		{routePath: "/api/search", handler: h.Search},
		{routePath: "/api/identity", handler: h.Identity, protected: true},
		{routePath: "/api/upstream/status", handler: h.Status},
	}

	mux := http.NewServeMux()
	for _, rCfg := range routes {
		handler := rCfg.handler
		if rCfg.protected && jwtSecret != "" {
			handler = auth.AuthMiddleware(jwtSecret)(auth.RoleMiddleware(auth.RoleOperator, auth.RoleAdmin)(handler))
		}
		mux.Handle(rCfg.routePath, middleware.PrometheusMiddleware(rCfg.routePath, handler))
	}
	mux.Handle("/metrics", metrics.MetricsHandler())

	return middleware.RequestID(middleware.Logging(log.WithPrefix("[HTTP]"))(middleware.CORS(mux)))
}
