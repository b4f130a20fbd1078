// Package http exposes the treasury ledger as a JSON API plus the
// public rekap verification view.
package http

import (
	"context"
	"net/http"
	"strings"
	"sync"
	"time"

	applog "kasku/internal/log"
	"kasku/internal/middleware/ratelimit"
	"kasku/internal/middleware/security"
	"kasku/internal/middleware/trace"
	"kasku/internal/receipt"
	"kasku/internal/services"
)

type Server struct {
	http.Server

	ledger     *services.LedgerService
	receipts   *receipt.Generator
	pdf        *receipt.PDFRenderer
	treasurers []string
	now        func() time.Time

	rateLimiter  *ratelimit.Limiter
	shutdownOnce sync.Once
}

// Options tune server collaborators that tests override.
type Options struct {
	// Treasurers served by GET /api/treasurers.
	Treasurers []string
	// Now supplies the reference time for stats and insights.
	Now func() time.Time
	// RequestsPerMinute for the write-path rate limiter.
	RequestsPerMinute int
}

// NewServer wires routes and middleware, returning a ready-to-run server.
func NewServer(addr string, ledger *services.LedgerService, gen *receipt.Generator, pdf *receipt.PDFRenderer, opts Options) *Server {
	if opts.Now == nil {
		opts.Now = time.Now
	}
	if opts.RequestsPerMinute <= 0 {
		opts.RequestsPerMinute = 60
	}

	s := &Server{
		ledger:      ledger,
		receipts:    gen,
		pdf:         pdf,
		treasurers:  opts.Treasurers,
		now:         opts.Now,
		rateLimiter: ratelimit.NewLimiter(ratelimit.Config{RequestsPerMinute: opts.RequestsPerMinute}),
	}

	mux := http.NewServeMux()

	mux.HandleFunc("GET /healthz", handleHealth)

	mux.HandleFunc("GET /api/transactions", s.handleListTransactions)
	mux.HandleFunc("POST /api/transactions", s.handleCreateTransaction)
	mux.HandleFunc("PATCH /api/transactions/{id}", s.handlePatchTransaction)
	mux.HandleFunc("DELETE /api/transactions/{id}", s.handleDeleteTransaction)

	mux.HandleFunc("GET /api/events", s.handleListEvents)
	mux.HandleFunc("POST /api/events", s.handleCreateEvent)
	mux.HandleFunc("PATCH /api/events/{id}", s.handlePatchEvent)
	mux.HandleFunc("DELETE /api/events/{id}", s.handleDeleteEvent)
	mux.HandleFunc("GET /api/events/{id}/budget", s.handleEventBudget)

	mux.HandleFunc("GET /api/stats", s.handleStats)
	mux.HandleFunc("GET /api/reports/monthly", s.handleMonthlyReport)
	mux.HandleFunc("GET /api/reports/categories", s.handleCategoryReport)
	mux.HandleFunc("GET /api/insights", s.handleInsights)

	mux.HandleFunc("GET /api/transactions/{id}/receipt", s.handleReceipt)
	mux.HandleFunc("GET /api/transactions/{id}/receipt.pdf", s.handleReceiptPDF)
	mux.HandleFunc("GET /api/receipts.pdf", s.handleBulkReceiptPDF)
	mux.HandleFunc("GET /rekap", s.handleRekap)

	mux.HandleFunc("POST /api/voice/parse", s.handleVoiceParse)
	mux.HandleFunc("GET /api/categories", s.handleCategories)
	mux.HandleFunc("GET /api/treasurers", s.handleTreasurers)

	logMW := applog.Middleware(applog.New(applog.DefaultConfig()).WithComponent(applog.ComponentHTTP))
	traceMW := trace.NewMiddleware(clientIP)
	headersMW := security.NewHeadersMiddleware(security.DefaultHeadersConfig())
	limitMW := s.rateLimiter.Middleware(clientIP, nil)

	handler := logMW(traceMW.Middleware(headersMW.Middleware(s.limitWrites(limitMW, mux))))

	s.Server = http.Server{
		Addr:              addr,
		Handler:           handler,
		ReadHeaderTimeout: 10 * time.Second,
	}

	return s
}

// limitWrites applies the rate limiter to mutating methods only; reads
// stay unthrottled for dashboard polling.
func (s *Server) limitWrites(limit func(http.Handler) http.Handler, next http.Handler) http.Handler {
	limited := limit(next)
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.Method {
		case http.MethodPost, http.MethodPatch, http.MethodPut, http.MethodDelete:
			limited.ServeHTTP(w, r)
		default:
			next.ServeHTTP(w, r)
		}
	})
}

// Shutdown stops the server and its cleanup goroutines.
func (s *Server) Shutdown(ctx context.Context) error {
	var shutdownErr error
	s.shutdownOnce.Do(func() {
		s.rateLimiter.Stop()
		shutdownErr = s.Server.Shutdown(ctx)
	})
	return shutdownErr
}

func clientIP(r *http.Request) string {
	if ip := r.Header.Get("X-Forwarded-For"); ip != "" {
		if i := strings.IndexByte(ip, ','); i >= 0 {
			ip = ip[:i]
		}
		return strings.TrimSpace(ip)
	}
	if ip := r.Header.Get("X-Real-IP"); ip != "" {
		return ip
	}
	return r.RemoteAddr
}

func handleHealth(w http.ResponseWriter, r *http.Request) {
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("ok"))
}
