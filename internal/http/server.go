// Package http exposes the ledger as a JSON API. Every response uses the
// {status, message, data} envelope and every route except the probes needs
// a bearer token.
package http

import (
	"context"
	"fmt"
	"net/http"
	"sync"
	"time"

	"ledger/internal/auth"
	"ledger/internal/core"
	"ledger/internal/log"
	"ledger/internal/middleware/ratelimit"
	"ledger/internal/middleware/security"
	"ledger/internal/middleware/trace"
	"ledger/internal/services"
	"ledger/internal/store"
)

const readyTimeout = 2 * time.Second

// Options wires the server's collaborators.
type Options struct {
	Store    store.Store
	Resolver *auth.Resolver
	Logger   *log.Logger
	// Publisher is optional; nil disables ledger events.
	Publisher         services.Publisher
	RequestsPerMinute int
	TrustedProxies    []string
	// Now replaces time.Now in the services, mainly for tests.
	Now func() time.Time
}

type Server struct {
	http.Server
	store        store.Store
	resolver     *auth.Resolver
	logger       *log.Logger
	ledger       *services.LedgerService
	transactions *services.TransactionService
	categories   *services.CategoryService

	limiter  *ratelimit.Limiter
	detector *security.Detector

	shutdownOnce sync.Once
}

// NewServer configures routes and middleware, returning a ready-to-run server.
func NewServer(addr string, opts Options) (*Server, error) {
	if opts.Store == nil || opts.Resolver == nil {
		return nil, fmt.Errorf("http server needs a store and a token resolver")
	}
	logger := opts.Logger
	if logger == nil {
		logger = log.Nop()
	}

	svcOpts := []services.Option{services.WithLogger(logger)}
	if opts.Publisher != nil {
		svcOpts = append(svcOpts, services.WithPublisher(opts.Publisher))
	}
	if opts.Now != nil {
		svcOpts = append(svcOpts, services.WithClock(opts.Now))
	}

	detector := security.NewDetector(logger)
	for _, cidr := range opts.TrustedProxies {
		if err := detector.AddTrustedProxy(cidr); err != nil {
			return nil, err
		}
	}

	mux := http.NewServeMux()
	s := &Server{
		Server: http.Server{
			Addr:              addr,
			ReadHeaderTimeout: 10 * time.Second,
			ReadTimeout:       30 * time.Second,
			WriteTimeout:      30 * time.Second,
			IdleTimeout:       120 * time.Second,
		},
		store:        opts.Store,
		resolver:     opts.Resolver,
		logger:       logger.WithComponent(log.ComponentHTTP),
		ledger:       services.NewLedgerService(opts.Store, svcOpts...),
		transactions: services.NewTransactionService(opts.Store, svcOpts...),
		categories:   services.NewCategoryService(opts.Store, svcOpts...),
		limiter:      ratelimit.NewLimiter(ratelimit.Config{RequestsPerMinute: opts.RequestsPerMinute}),
		detector:     detector,
	}
	s.routes(mux)

	tracer := trace.NewMiddleware(logger, detector.ExtractClientIP)
	limited := s.limiter.Middleware(detector.ExtractClientIP, writeRateLimited)
	headers := security.NewHeadersMiddleware(security.DefaultHeadersConfig())

	s.Handler = headers.Middleware(detector.Middleware(tracer.Middleware(limited(mux))))
	return s, nil
}

func (s *Server) routes(mux *http.ServeMux) {
	mux.HandleFunc("GET /healthz", handleHealth)
	mux.HandleFunc("GET /readyz", s.handleReady)

	mux.Handle("POST /category", s.authenticated(s.handleCreateCategory))
	mux.Handle("GET /categories", s.authenticated(s.handleListCategories))
	mux.Handle("GET /category/{type}", s.authenticated(s.handleListCategoriesByType))
	mux.Handle("PUT /category/{id}", s.authenticated(s.handleUpdateCategory))
	mux.Handle("DELETE /category/{id}", s.authenticated(s.handleDeleteCategory))

	for _, kind := range []core.TransactionType{core.Income, core.Expense} {
		single, plural := "/"+string(kind), "/"+pluralKey(kind)
		mux.Handle("POST "+single, s.authenticated(s.handleAddTransaction(kind)))
		mux.Handle("GET "+plural, s.authenticated(s.handleListCurrentMonth(kind)))
		mux.Handle("DELETE "+single+"/{id}", s.authenticated(s.handleDeleteTransaction(kind)))
	}

	mux.Handle("GET /dashboard", s.authenticated(s.handleDashboard))
	mux.Handle("POST /filter", s.authenticated(s.handleFilter))

	mux.HandleFunc("/", func(w http.ResponseWriter, r *http.Request) {
		Failure(http.StatusNotFound, "Resource not found").Write(w)
	})
}

// authenticated resolves the caller before running next. The user id is
// also attached to the request logger.
func (s *Server) authenticated(next http.HandlerFunc) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		user, err := s.resolver.Resolve(r)
		if err != nil {
			s.logger.WarnContext(r.Context(), "Authentication failed",
				log.FieldPath, r.URL.Path,
				log.FieldClientIP, s.detector.ExtractClientIP(r),
				log.FieldError, err)
			writeUnauthenticated(w, err)
			return
		}
		ctx := auth.WithUser(r.Context(), user)
		ctx = log.WithLogger(ctx, log.FromContext(ctx).With(log.FieldUserID, int64(user)))
		next(w, r.WithContext(ctx))
	})
}

// currentUser is only called behind authenticated.
func currentUser(r *http.Request) core.UserID {
	user, _ := auth.UserFrom(r.Context())
	return user
}

func handleHealth(w http.ResponseWriter, r *http.Request) {
	Success("ok").Write(w)
}

func (s *Server) handleReady(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), readyTimeout)
	defer cancel()
	if err := s.store.Ping(ctx); err != nil {
		s.logger.ErrorContext(ctx, "Readiness check failed", log.FieldError, err)
		Failure(http.StatusServiceUnavailable, "Store unavailable").Write(w)
		return
	}
	Success("ready").Write(w)
}

// Shutdown stops the rate limiter and drains the HTTP server. It is safe to
// call more than once.
func (s *Server) Shutdown(ctx context.Context) error {
	var shutdownErr error
	s.shutdownOnce.Do(func() {
		s.limiter.Stop()
		shutdownErr = s.Server.Shutdown(ctx)
	})
	return shutdownErr
}
