package http

import (
	"context"
	"log/slog"
	"net/http"
	"sync"
	"time"

	"budgetr/internal/budget"
	"budgetr/internal/core"
	applog "budgetr/internal/log"
	"budgetr/internal/middleware/ratelimit"
	"budgetr/internal/middleware/security"
	"budgetr/internal/middleware/trace"
	"budgetr/internal/services"
	"budgetr/internal/settings"
)

// BudgetAPI is the service surface the handlers need.
// *services.BudgetService implements it.
type BudgetAPI interface {
	AddExpenditure(ctx context.Context, e core.Expenditure) (core.Expenditure, error)
	GetExpenditure(ctx context.Context, id string) (core.Expenditure, error)
	DeleteExpenditure(ctx context.Context, id string) error
	DisplayExpenditures(ctx context.Context, override core.Frequency) ([]core.Expenditure, core.Frequency, error)
	Dashboard(ctx context.Context, override core.Frequency) (budget.Summary, error)
	Settings(ctx context.Context) (settings.Snapshot, error)
	UpdateSetting(ctx context.Context, key, raw string) (string, error)
	ProjectGoal(ctx context.Context, req services.GoalRequest) (budget.GoalProjection, error)
}

// Options configures optional server behaviour.
type Options struct {
	// Logger is attached to every request context. Defaults to slog.Default.
	Logger    *applog.Logger
	RateLimit ratelimit.Config
	// Ready reports whether the backing stores are reachable. nil means always ready.
	Ready          func(ctx context.Context) error
	TrustedProxies []string
}

type Server struct {
	http.Server
	api       BudgetAPI
	validator *CustomValidator
	limiter   *ratelimit.Limiter
	tracer    *trace.Middleware
	ready     func(ctx context.Context) error

	shutdownOnce sync.Once
}

// NewServer configures routes and middleware, returning a ready-to-run server.
func NewServer(addr string, api BudgetAPI, opts Options) *Server {
	logger := opts.Logger
	if logger == nil {
		logger = applog.New(applog.Config{Handler: slog.Default().Handler(), Component: applog.ComponentHTTP})
	}

	resolver := security.NewClientIPResolver()
	for _, cidr := range opts.TrustedProxies {
		if err := resolver.AddTrustedProxy(cidr); err != nil {
			logger.Warn("Ignoring trusted proxy", "cidr", cidr, "error", err)
		}
	}

	s := &Server{
		api:       api,
		validator: NewValidator(),
		limiter:   ratelimit.NewLimiter(opts.RateLimit),
		tracer:    trace.NewMiddleware(resolver.ClientIP),
		ready:     opts.Ready,
	}

	limited := s.limiter.Middleware(resolver.ClientIP, func(w http.ResponseWriter, r *http.Request) {
		TooManyRequestsError().Write(w)
	})
	write := func(h http.HandlerFunc) http.Handler { return limited(h) }

	mux := http.NewServeMux()
	mux.HandleFunc("GET /healthz", handleHealth)
	mux.HandleFunc("GET /readyz", s.handleReady)

	mux.HandleFunc("GET /api/dashboard", s.handleDashboard)
	mux.HandleFunc("GET /api/expenditures", s.handleListExpenditures)
	mux.Handle("POST /api/expenditures", write(s.handleCreateExpenditure))
	mux.HandleFunc("GET /api/expenditures/{id}", s.handleGetExpenditure)
	mux.Handle("DELETE /api/expenditures/{id}", write(s.handleDeleteExpenditure))
	mux.HandleFunc("GET /api/settings", s.handleGetSettings)
	mux.Handle("PUT /api/settings/{key}", write(s.handleUpdateSetting))
	mux.HandleFunc("POST /api/goals/projection", s.handleProjectGoal)

	var handler http.Handler = mux
	handler = security.Headers(security.DefaultHeadersConfig())(handler)
	handler = s.tracer.Middleware(handler)
	handler = applog.Middleware(logger)(handler)

	s.Server = http.Server{
		Addr:              addr,
		Handler:           handler,
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       15 * time.Second,
		WriteTimeout:      15 * time.Second,
		IdleTimeout:       60 * time.Second,
	}
	return s
}

// Shutdown stops the rate limiter and gracefully shuts down the server.
func (s *Server) Shutdown(ctx context.Context) error {
	var err error
	s.shutdownOnce.Do(func() {
		s.limiter.Stop()
		err = s.Server.Shutdown(ctx)
	})
	return err
}

// RequestMetrics returns the trace counters.
func (s *Server) RequestMetrics() trace.Metrics {
	return s.tracer.GetMetrics()
}
