package http

import (
	"context"
	"net/http"
	"time"

	"fintrack/internal/auth"
	"fintrack/internal/config"
	"fintrack/internal/core"
	applog "fintrack/internal/log"
	"fintrack/internal/middleware/ratelimit"
	"fintrack/internal/middleware/security"
	"fintrack/internal/middleware/trace"
	"fintrack/internal/services"
)

const (
	readHeaderTimeout = 5 * time.Second
	writeTimeout      = 30 * time.Second
	idleTimeout       = 60 * time.Second

	// Applies to POST endpoints only; reads are unthrottled.
	postRequestsPerMinute = 30
)

// Server is the JSON API over the expense and auth services.
type Server struct {
	httpServer *http.Server

	expenses *services.ExpenseService
	auth     *auth.Service
	clock    core.Clock
	loc      *time.Location
	logger   *applog.Logger
	slogger  *applog.StructuredLogger

	tracer   *trace.Middleware
	limiter  *ratelimit.Limiter
	headers  *security.HeadersMiddleware
	detector *security.Detector
}

func NewServer(
	cfg *config.Config,
	expenses *services.ExpenseService,
	authService *auth.Service,
	clock core.Clock,
	loc *time.Location,
) *Server {
	detector := security.NewDetector()
	logger := applog.New(applog.Config{Component: applog.ComponentHTTP})

	s := &Server{
		expenses: expenses,
		auth:     authService,
		clock:    clock,
		loc:      loc,
		logger:   logger,
		slogger:  applog.NewStructuredLogger(logger),
		tracer:   trace.NewMiddleware(detector.ExtractClientIP),
		limiter: ratelimit.NewLimiter(ratelimit.Config{
			RequestsPerMinute: postRequestsPerMinute,
			CleanupInterval:   5 * time.Minute,
		}),
		headers:  security.NewHeadersMiddleware(security.DefaultHeadersConfig()),
		detector: detector,
	}

	s.httpServer = &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           s.routes(),
		ReadHeaderTimeout: readHeaderTimeout,
		WriteTimeout:      writeTimeout,
		IdleTimeout:       idleTimeout,
	}

	return s
}

func (s *Server) routes() http.Handler {
	mux := http.NewServeMux()

	limited := s.limiter.Middleware(s.detector.ExtractClientIP, nil)

	mux.Handle("POST /auth/signup", limited(http.HandlerFunc(s.handleSignup)))
	mux.Handle("POST /auth/login", limited(http.HandlerFunc(s.handleLogin)))

	mux.Handle("POST /expenses", limited(s.requireAuth(http.HandlerFunc(s.handleCreateExpense))))
	mux.Handle("GET /expenses", s.requireAuth(http.HandlerFunc(s.handleListExpenses)))
	mux.Handle("GET /expenses/categories", s.requireAuth(http.HandlerFunc(s.handleCategorySummaries)))
	mux.Handle("GET /expenses/monthly-summary", s.requireAuth(http.HandlerFunc(s.handleMonthlySummary)))
	mux.Handle("DELETE /expenses/{id}", s.requireAuth(http.HandlerFunc(s.handleDeleteExpense)))

	mux.HandleFunc("GET /healthz", s.handleHealth)
	mux.HandleFunc("GET /readyz", s.handleReady)

	var handler http.Handler = mux
	handler = s.rejectSuspicious(handler)
	handler = s.tracer.Middleware(handler)
	handler = applog.Middleware(s.logger)(handler)
	handler = s.headers.Middleware(handler)
	return handler
}

// rejectSuspicious drops requests matching known scanner and traversal
// patterns before they reach a handler.
func (s *Server) rejectSuspicious(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if s.detector.DetectSuspiciousRequest(r) {
			respondError(w, http.StatusForbidden, "forbidden")
			return
		}
		next.ServeHTTP(w, r)
	})
}

// Start begins serving. Blocks until the server stops.
func (s *Server) Start() error {
	return s.httpServer.ListenAndServe()
}

// Shutdown gracefully stops the server and its rate limiter.
func (s *Server) Shutdown(ctx context.Context) error {
	s.limiter.Stop()
	return s.httpServer.Shutdown(ctx)
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	respondJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// handleReady checks database connectivity by loading the category catalog.
func (s *Server) handleReady(w http.ResponseWriter, r *http.Request) {
	names, err := s.expenses.CategoryNames(r.Context())
	if err != nil {
		respondJSON(w, http.StatusServiceUnavailable, map[string]string{"status": "unavailable"})
		return
	}
	respondJSON(w, http.StatusOK, map[string]any{
		"status":     "ready",
		"categories": len(names),
	})
}
