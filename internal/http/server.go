// Package http serves the garden JSON API: sessions, debts and their
// derived payments, transactions, and the gamification surface.
package http

import (
	"context"
	"net/http"
	"sync"
	"time"

	"giardino/internal/log"
	"giardino/internal/services"
)

type Server struct {
	http.Server
	garden      *services.GardenService
	logger      *log.Logger
	rateLimiter *rateLimiter

	shutdownOnce sync.Once
}

// NewServer configures routes and middleware, returning a ready-to-run
// http.Server.
func NewServer(addr string, garden *services.GardenService, logger *log.Logger) *Server {
	mux := http.NewServeMux()

	s := &Server{
		Server: http.Server{
			Addr:              addr,
			Handler:           mux,
			ReadHeaderTimeout: 10 * time.Second,
		},
		garden:      garden,
		logger:      logger,
		rateLimiter: newRateLimiter(),
	}

	mux.HandleFunc("GET /healthz", handleHealth)
	mux.HandleFunc("GET /readyz", handleReady)

	// Session lifecycle. Register and login are the only API routes that
	// work without a session token.
	mux.HandleFunc("POST /api/session", s.withMiddleware(s.handleRegister))
	mux.HandleFunc("POST /api/session/login", s.withMiddleware(s.handleLogin))
	mux.HandleFunc("DELETE /api/session", s.withMiddleware(s.handleLogout))

	mux.HandleFunc("GET /api/debts", s.withMiddleware(s.handleListDebts))
	mux.HandleFunc("POST /api/debts", s.withMiddleware(s.handleCreateDebt))
	mux.HandleFunc("PATCH /api/debts/{id}", s.withMiddleware(s.handleUpdateDebt))
	mux.HandleFunc("DELETE /api/debts/{id}", s.withMiddleware(s.handleDeleteDebt))

	mux.HandleFunc("GET /api/payments", s.withMiddleware(s.handleListPayments))
	mux.HandleFunc("POST /api/payments/{id}/paid", s.withMiddleware(s.handleMarkPaymentPaid))

	mux.HandleFunc("GET /api/transactions", s.withMiddleware(s.handleListTransactions))
	mux.HandleFunc("POST /api/transactions", s.withMiddleware(s.handleCreateTransaction))
	mux.HandleFunc("PATCH /api/transactions/{id}", s.withMiddleware(s.handleUpdateTransaction))
	mux.HandleFunc("DELETE /api/transactions/{id}", s.withMiddleware(s.handleDeleteTransaction))

	mux.HandleFunc("GET /api/badges", s.withMiddleware(s.handleListBadges))
	mux.HandleFunc("POST /api/badges/{id}/earn", s.withMiddleware(s.handleEarnBadge))

	mux.HandleFunc("GET /api/challenges", s.withMiddleware(s.handleListChallenges))
	mux.HandleFunc("PUT /api/challenges/{id}/progress", s.withMiddleware(s.handleChallengeProgress))

	mux.HandleFunc("GET /api/streak", s.withMiddleware(s.handleGetStreak))
	mux.HandleFunc("POST /api/streak/checkin", s.withMiddleware(s.handleStreakCheckIn))

	mux.HandleFunc("GET /api/garden", s.withMiddleware(s.handleGetGarden))
	mux.HandleFunc("GET /api/state", s.withMiddleware(s.handleGetState))

	return s
}

// withMiddleware adds request tracing, security headers, and rate
// limiting on mutating methods.
func (s *Server) withMiddleware(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		clientIP := extractClientIP(r)
		requestID := generateRequestID()

		ctx := context.WithValue(r.Context(), requestIDKey, requestID)
		r = r.WithContext(ctx)

		s.logger.Debug("Request started",
			"request_id", requestID,
			"method", r.Method,
			"url", r.URL.Path,
			"client_ip", clientIP)

		if isMutating(r.Method) && !s.rateLimiter.allow(clientIP) {
			s.logger.Warn("Rate limit exceeded", "client_ip", clientIP, "method", r.Method, "url", r.URL.Path)
			w.Header().Set("Retry-After", "60")
			writeError(w, http.StatusTooManyRequests, "rate limit exceeded")
			return
		}

		w.Header().Set("X-Content-Type-Options", "nosniff")
		w.Header().Set("X-Frame-Options", "DENY")
		w.Header().Set("Referrer-Policy", "strict-origin-when-cross-origin")

		rw := &responseWriter{ResponseWriter: w, statusCode: http.StatusOK}
		next(rw, r)

		s.logger.Info("Request completed",
			"request_id", requestID,
			"method", r.Method,
			"url", r.URL.Path,
			"status", rw.statusCode,
			"duration_ms", time.Since(start).Milliseconds(),
			"client_ip", clientIP)
	}
}

func isMutating(method string) bool {
	switch method {
	case http.MethodPost, http.MethodPut, http.MethodPatch, http.MethodDelete:
		return true
	}
	return false
}

// responseWriter wraps http.ResponseWriter to capture the status code.
type responseWriter struct {
	http.ResponseWriter
	statusCode int
}

func (rw *responseWriter) WriteHeader(code int) {
	rw.statusCode = code
	rw.ResponseWriter.WriteHeader(code)
}

// Shutdown stops the server and its rate limiter cleanup goroutine.
func (s *Server) Shutdown(ctx context.Context) error {
	var shutdownErr error
	s.shutdownOnce.Do(func() {
		if s.rateLimiter != nil {
			s.rateLimiter.stop()
		}
		shutdownErr = s.Server.Shutdown(ctx)
	})
	return shutdownErr
}

func handleHealth(w http.ResponseWriter, _ *http.Request) {
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("ok"))
}

func handleReady(w http.ResponseWriter, _ *http.Request) {
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("ready"))
}
