package http

import (
	"context"
	"net/http"
	"sync"
	"time"

	"fiscus/internal/analysis"
	"fiscus/internal/core"
	"fiscus/internal/log"
	"fiscus/internal/middleware/ratelimit"
	"fiscus/internal/middleware/security"
	"fiscus/internal/middleware/trace"
	"fiscus/internal/services"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
)

// Ledger is the service surface the handlers drive.
type Ledger interface {
	CreateAccount(ctx context.Context, in core.AccountInput) (core.Account, error)
	UpdateAccount(ctx context.Context, id int64, in core.AccountInput) (core.Account, error)
	DeleteAccount(ctx context.Context, id int64) (core.DeleteAccountResult, error)
	GetAccount(ctx context.Context, id int64) (core.Account, error)
	ListAccounts(ctx context.Context) ([]core.Account, error)

	CreateTransaction(ctx context.Context, in core.TransactionInput) (core.CreateResult, error)
	UpdateTransaction(ctx context.Context, id int64, in core.TransactionInput) (core.UpdateResult, error)
	DeleteTransaction(ctx context.Context, id int64) (*core.Account, error)
	GetTransaction(ctx context.Context, id int64) (core.Transaction, error)
	ListTransactions(ctx context.Context) ([]core.Transaction, error)
	ImportPending(ctx context.Context, items []core.TransactionInput) []services.ImportResult

	MonthlyReport(ctx context.Context, m core.Month) (analysis.MonthlyReport, error)
	Summary(ctx context.Context, recent int) (analysis.HomeSummary, error)
	CurrentMonth() core.Month
	MonthOptions(n int) []core.Month

	GetSetting(ctx context.Context, key string) (string, error)
	SetSetting(ctx context.Context, key, value string) error

	Ready(ctx context.Context) error
}

// Options tunes the server. Zero values pick defaults.
type Options struct {
	Logger             *log.Logger
	RateLimitPerMinute int
	RecentLimit        int
}

type Server struct {
	http.Server
	ledger      Ledger
	logger      *log.Logger
	limiter     *ratelimit.Limiter
	tracer      *trace.Middleware
	recentLimit int
	started     time.Time

	shutdownOnce sync.Once
}

// NewServer wires the routes and middleware, returning a ready-to-run server.
func NewServer(addr string, ledger Ledger, opts Options) *Server {
	logger := opts.Logger
	if logger == nil {
		logger = log.New(log.DefaultConfig())
	}
	if opts.RecentLimit <= 0 {
		opts.RecentLimit = 5
	}

	s := &Server{
		Server: http.Server{
			Addr:              addr,
			ReadHeaderTimeout: 5 * time.Second,
			ReadTimeout:       10 * time.Second,
			WriteTimeout:      30 * time.Second,
			IdleTimeout:       60 * time.Second,
			MaxHeaderBytes:    1 << 16,
		},
		ledger:      ledger,
		logger:      logger.WithComponent(log.ComponentHTTP),
		limiter:     ratelimit.NewLimiter(ratelimit.Config{RequestsPerMinute: opts.RateLimitPerMinute}),
		tracer:      trace.NewMiddleware(logger, extractClientIP),
		recentLimit: opts.RecentLimit,
		started:     time.Now(),
	}
	s.Handler = s.routes()
	return s
}

func (s *Server) routes() http.Handler {
	r := chi.NewRouter()

	r.Use(s.tracer.Middleware)
	r.Use(log.Middleware(s.logger))
	r.Use(log.RequestIDMiddleware(trace.GetRequestIDFromRequest))
	r.Use(chimw.Recoverer)
	r.Use(security.NewHeadersMiddleware(security.DefaultHeadersConfig()).Middleware)
	r.Use(s.limiter.Middleware(extractClientIP, s.handleRateLimited))

	r.NotFound(func(w http.ResponseWriter, r *http.Request) {
		writeMessage(w, r, http.StatusNotFound, "route not found")
	})
	r.MethodNotAllowed(func(w http.ResponseWriter, r *http.Request) {
		writeMessage(w, r, http.StatusMethodNotAllowed, "method not allowed")
	})

	r.Get("/health", s.handleHealth)
	r.Get("/healthz", s.handleLiveness)
	r.Get("/readyz", s.handleReady)
	r.Get("/metrics", s.handleMetrics)

	r.Route("/accounts", func(r chi.Router) {
		r.Get("/", s.handleListAccounts)
		r.Post("/", s.handleCreateAccount)
		r.Get("/{id}", s.handleGetAccount)
		r.Put("/{id}", s.handleUpdateAccount)
		r.Delete("/{id}", s.handleDeleteAccount)
	})

	r.Route("/transactions", func(r chi.Router) {
		r.Get("/", s.handleListTransactions)
		r.Post("/", s.handleCreateTransaction)
		r.Post("/import", s.handleImportTransactions)
		r.Get("/{id}", s.handleGetTransaction)
		r.Put("/{id}", s.handleUpdateTransaction)
		r.Delete("/{id}", s.handleDeleteTransaction)
	})

	r.Get("/analysis", s.handleAnalysis)
	r.Get("/analysis/months", s.handleMonthOptions)
	r.Get("/summary", s.handleSummary)

	r.Get("/settings/{key}", s.handleGetSetting)
	r.Put("/settings/{key}", s.handlePutSetting)

	return r
}

func (s *Server) handleRateLimited(w http.ResponseWriter, r *http.Request) {
	log.FromContext(r.Context()).WithComponent(log.ComponentRateLimit).WarnContext(r.Context(), "Rate limit exceeded",
		log.FieldClientIP, extractClientIP(r),
		log.FieldMethod, r.Method,
		log.FieldPath, r.URL.Path)
	writeMessage(w, r, http.StatusTooManyRequests, "Rate limit exceeded. Please try again later.")
}

// Shutdown stops background goroutines and drains the HTTP server.
func (s *Server) Shutdown(ctx context.Context) error {
	var err error
	s.shutdownOnce.Do(func() {
		s.limiter.Stop()
		err = s.Server.Shutdown(ctx)
	})
	return err
}
