package httptransport

import (
	"context"
	"log/slog"
	"net/http"
	"sort"
	"time"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"

	chathandler "touch/internal/chat/handler"
	identityhandler "touch/internal/identity/handler"
	"touch/internal/platform/metrics"
	"touch/pkg/platform/httputil"
	authmw "touch/pkg/platform/middleware/auth"
	request "touch/pkg/platform/middleware/request"
	"touch/pkg/platform/middleware/requesttime"
)

const requestTimeout = 30 * time.Second

// HealthCheck probes one backing dependency.
type HealthCheck func(ctx context.Context) error

// Dependencies carries everything the router mounts.
type Dependencies struct {
	Logger      *slog.Logger
	Metrics     *metrics.Metrics
	Gatherer    prometheus.Gatherer
	Identity    *identityhandler.Handler
	Chats       *chathandler.Handler
	Validator   authmw.JWTValidator
	Revocations authmw.TokenRevocationChecker
	Health      map[string]HealthCheck
}

// NewRouter wires the public API under /api plus health and metrics
// endpoints. Everything but send-code, verify-code, health and metrics sits
// behind the bearer token guard.
func NewRouter(deps Dependencies) http.Handler {
	logger := deps.Logger
	if logger == nil {
		logger = slog.Default()
	}
	gatherer := deps.Gatherer
	if gatherer == nil {
		gatherer = prometheus.DefaultGatherer
	}

	r := chi.NewRouter()
	r.Use(request.Recovery(logger))
	r.Use(request.RequestID)
	r.Use(requesttime.Middleware)
	r.Use(request.Logger(logger))

	r.Get("/healthz", healthHandler(deps.Health, logger))
	r.Handle("/metrics", promhttp.HandlerFor(gatherer, promhttp.HandlerOpts{}))

	r.Route("/api", func(api chi.Router) {
		api.Use(chimw.Timeout(requestTimeout))
		api.Use(request.ContentTypeJSON)
		api.Use(request.Latency(deps.Metrics))

		deps.Identity.Register(api)

		api.Group(func(protected chi.Router) {
			protected.Use(authmw.RequireAuth(deps.Validator, deps.Revocations, logger))
			deps.Identity.RegisterProtected(protected)
			deps.Chats.Register(protected)
		})
	})

	return otelhttp.NewHandler(r, "touch.http",
		otelhttp.WithSpanNameFormatter(func(_ string, r *http.Request) string {
			return r.Method + " " + r.URL.Path
		}),
	)
}

type healthResponse struct {
	Status string            `json:"status"`
	Checks map[string]string `json:"checks,omitempty"`
}

func healthHandler(checks map[string]HealthCheck, logger *slog.Logger) http.HandlerFunc {
	names := make([]string, 0, len(checks))
	for name := range checks {
		names = append(names, name)
	}
	sort.Strings(names)

	return func(w http.ResponseWriter, r *http.Request) {
		ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
		defer cancel()

		resp := healthResponse{Status: "ok"}
		status := http.StatusOK
		for _, name := range names {
			if resp.Checks == nil {
				resp.Checks = make(map[string]string, len(names))
			}
			if err := checks[name](ctx); err != nil {
				logger.WarnContext(ctx, "health check failed", "check", name, "error", err)
				resp.Checks[name] = "down"
				resp.Status = "degraded"
				status = http.StatusServiceUnavailable
				continue
			}
			resp.Checks[name] = "up"
		}
		httputil.WriteJSON(w, status, resp)
	}
}
