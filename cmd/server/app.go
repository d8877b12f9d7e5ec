package main

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/diewo77/go-taxprep/auth"
	"github.com/diewo77/go-taxprep/httpx"
	"github.com/diewo77/go-taxprep/internal/config"
	"github.com/diewo77/go-taxprep/internal/handlers"
	"github.com/diewo77/go-taxprep/internal/metrics"
	"github.com/diewo77/go-taxprep/internal/notify"
	"github.com/diewo77/go-taxprep/internal/policy"
	"github.com/diewo77/go-taxprep/internal/refcache"
	"github.com/diewo77/go-taxprep/internal/reference"
	"github.com/diewo77/go-taxprep/internal/services"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

// App is the main application handler that sets up all routes.
type App struct {
	mux      *http.ServeMux
	db       *gorm.DB
	log      *slog.Logger
	tokens   *auth.Tokens
	accounts *services.AccountService
	handler  http.Handler
}

// NewApp wires services and handlers over db.
func NewApp(db *gorm.DB, cfg *config.Config, log *slog.Logger) *App {
	app := &App{
		mux:      http.NewServeMux(),
		db:       db,
		log:      log,
		tokens:   auth.NewTokens(cfg.Auth.Secret, cfg.Auth.TokenTTL),
		accounts: services.NewAccountService(db),
	}
	ref := reference.NewStore(db, cfg.Cache.ReferenceTTL, refcache.WithObserver(metrics.CacheObserver))
	notifier := notify.New(cfg.Mail, log)
	gate := policy.Default()

	quotes := services.NewQuoteService(db, ref, log, notifier)
	checklist := services.NewChecklistService(db, ref, log)
	answers := services.NewAnswerService(db, ref)
	taxReturns := services.NewTaxReturnService(db, ref)
	documents := services.NewDocumentService(db, ref)
	messages := services.NewMessageService(db, log, notifier)

	app.setupRoutes(
		handlers.NewAuthHandler(app.accounts, app.tokens, gate),
		handlers.NewReferenceHandler(ref, gate, log),
		handlers.NewTaxReturnHandler(taxReturns, answers, gate),
		handlers.NewQuoteHandler(quotes, checklist, documents, messages, gate),
	)
	queryTimeout := time.Duration(cfg.Database.QueryTimeout) * time.Second
	app.handler = withRequestID(withLogging(log, withQueryTimeout(queryTimeout, app.tokens.Middleware(metrics.Middleware(app.mux)))))
	return app
}

// ServeHTTP implements http.Handler.
func (a *App) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	a.handler.ServeHTTP(w, r)
}

func (a *App) setupRoutes(ah *handlers.AuthHandler, rh *handlers.ReferenceHandler, th *handlers.TaxReturnHandler, qh *handlers.QuoteHandler) {
	// ─────────────────────────────────────────────────────────────────────────
	// Public routes (no auth required)
	// ─────────────────────────────────────────────────────────────────────────
	a.mux.HandleFunc("POST /api/accounts", ah.Register)
	a.mux.HandleFunc("POST /api/login", ah.Login)
	a.mux.HandleFunc("GET /healthz", a.health)
	a.mux.Handle("GET /metrics", metrics.Handler())

	// ─────────────────────────────────────────────────────────────────────────
	// Accounts
	// ─────────────────────────────────────────────────────────────────────────
	a.mux.Handle("GET /api/accounts/{id}", requireAuth(ah.Account))

	// ─────────────────────────────────────────────────────────────────────────
	// Reference data
	// ─────────────────────────────────────────────────────────────────────────
	a.mux.Handle("GET /api/products", requireAuth(rh.Products))
	a.mux.Handle("GET /api/categories", requireAuth(rh.Categories))
	a.mux.Handle("GET /api/categories/{id}/questions", requireAuth(rh.Questions))
	a.mux.Handle("GET /api/statuses", requireAuth(rh.Statuses))

	// ─────────────────────────────────────────────────────────────────────────
	// Filers and questionnaire (ownership checked in handlers)
	// ─────────────────────────────────────────────────────────────────────────
	a.mux.Handle("POST /api/taxreturns", requireAuth(th.Create))
	a.mux.Handle("GET /api/taxreturns", requireAuth(th.List))
	a.mux.Handle("PUT /api/taxreturns/{id}/answers/{questionId}", requireAuth(th.SaveAnswer))
	a.mux.Handle("GET /api/taxreturns/{id}/answers", requireAuth(th.ListAnswers))

	// ─────────────────────────────────────────────────────────────────────────
	// Quotes, checklist, documents and messages
	// ─────────────────────────────────────────────────────────────────────────
	a.mux.Handle("POST /api/quotes", requireAuth(qh.Build))
	a.mux.Handle("GET /api/quotes/{id}", requireAuth(qh.Totals))
	a.mux.Handle("PUT /api/quotes/{id}/lineitems/{itemId}", requireAuth(qh.SetLineItem))
	a.mux.Handle("GET /api/quotes/{id}/checklist", requireAuth(qh.Checklist))
	a.mux.Handle("POST /api/quotes/{id}/documents", requireAuth(qh.RegisterDocument))
	a.mux.Handle("GET /api/quotes/{id}/messages", requireAuth(qh.ListMessages))
	a.mux.Handle("POST /api/quotes/{id}/messages", requireAuth(qh.PostMessage))

	// ─────────────────────────────────────────────────────────────────────────
	// Staff routes
	// ─────────────────────────────────────────────────────────────────────────
	a.mux.Handle("PUT /api/taxreturns/{id}/status", requireAdmin(th.UpdateStatus))
	a.mux.Handle("POST /api/quotes/{id}/adminlineitems", requireAdmin(qh.AddAdminItem))
	a.mux.Handle("DELETE /api/quotes/{id}/adminlineitems/{itemId}", requireAdmin(qh.DeleteAdminItem))
	a.mux.Handle("POST /api/admin/cache/invalidate", requireAuth(rh.InvalidateCache)) // staff-only through the reference policy
}

// ─────────────────────────────────────────────────────────────────────────────
// Middleware
// ─────────────────────────────────────────────────────────────────────────────

func requireAuth(fn http.HandlerFunc) http.Handler {
	return auth.RequireAuth(fn)
}

func requireAdmin(fn http.HandlerFunc) http.Handler {
	return auth.RequireAdmin(fn)
}

type requestIDKey struct{}

// withRequestID tags each request with an id, reusing X-Request-ID when the
// caller sends one.
func withRequestID(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		id := r.Header.Get("X-Request-ID")
		if id == "" {
			id = uuid.NewString()
		}
		w.Header().Set("X-Request-ID", id)
		next.ServeHTTP(w, r.WithContext(context.WithValue(r.Context(), requestIDKey{}, id)))
	})
}

func requestID(ctx context.Context) string {
	id, _ := ctx.Value(requestIDKey{}).(string)
	return id
}

// withQueryTimeout bounds every storage call made while serving a request.
// A transaction still open at the deadline is rolled back. d <= 0 disables it.
func withQueryTimeout(d time.Duration, next http.Handler) http.Handler {
	if d <= 0 {
		return next
	}
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ctx, cancel := context.WithTimeout(r.Context(), d)
		defer cancel()
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

type statusWriter struct {
	http.ResponseWriter
	status int
}

func (w *statusWriter) WriteHeader(code int) {
	w.status = code
	w.ResponseWriter.WriteHeader(code)
}

// withLogging adds request logging middleware.
func withLogging(log *slog.Logger, next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		sw := &statusWriter{ResponseWriter: w, status: http.StatusOK}
		next.ServeHTTP(sw, r)
		log.InfoContext(r.Context(), "request",
			"method", r.Method,
			"path", r.URL.Path,
			"status", sw.status,
			"duration", time.Since(start),
			"request_id", requestID(r.Context()),
		)
	})
}

// ─────────────────────────────────────────────────────────────────────────────
// Health
// ─────────────────────────────────────────────────────────────────────────────

func (a *App) health(w http.ResponseWriter, r *http.Request) {
	sqlDB, err := a.db.DB()
	if err == nil {
		ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
		defer cancel()
		err = sqlDB.PingContext(ctx)
	}
	if err != nil {
		a.log.ErrorContext(r.Context(), "health check failed", "error", err)
		httpx.JSON(w, http.StatusServiceUnavailable, map[string]string{"status": "unavailable"})
		return
	}
	httpx.JSON(w, http.StatusOK, map[string]string{"status": "ok"})
}
