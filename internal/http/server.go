// Package http exposes the analytics API over JSON endpoints.
package http

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"fmt"
	"log/slog"
	"net/http"
	"sync"
	"time"

	"salesdash/internal/cache"
	"salesdash/internal/core"
	"salesdash/internal/log"
	"salesdash/internal/services"
	"salesdash/internal/storage"
)

// DatasetStore is the slice of the repository the API reads from.
type DatasetStore interface {
	GetDataset(ctx context.Context, id string) (storage.Dataset, error)
	ListDatasets(ctx context.Context) ([]storage.Dataset, error)
	DeleteDataset(ctx context.Context, id string) error
	LoadRecords(ctx context.Context, id string) (*core.RecordSet, error)
}

// Ingester accepts raw CSV uploads.
type Ingester interface {
	IngestCSV(ctx context.Context, name string, raw []byte) (services.IngestResult, error)
}

// ReportRequester enqueues report jobs.
type ReportRequester interface {
	RequestReport(ctx context.Context, datasetID string, filter core.Filter) (string, error)
}

type Server struct {
	http.Server
	store   DatasetStore
	ingest  Ingester
	reports ReportRequester

	uploadMaxBytes int64

	logger      *log.StructuredLogger
	rateLimiter *rateLimiter

	// Record sets are reloaded from SQLite on a miss; filters always apply
	// to the cached full set, so the cache keys on dataset ID alone.
	recordCache  *cache.LRUCache[*core.RecordSet]
	cacheManager *cache.Manager

	shutdownOnce sync.Once
}

// Simple in-memory rate limiter
type rateLimiter struct {
	mu           sync.Mutex
	clients      map[string]*clientInfo
	stopCleanup  chan struct{}
	shutdownOnce sync.Once
}

type clientInfo struct {
	lastRequest time.Time
	requests    int
}

func newRateLimiter() *rateLimiter {
	rl := &rateLimiter{
		clients:     make(map[string]*clientInfo),
		stopCleanup: make(chan struct{}),
	}
	go rl.startCleanup()
	return rl
}

// startCleanup runs periodic cleanup to remove stale client entries
func (rl *rateLimiter) startCleanup() {
	ticker := time.NewTicker(5 * time.Minute)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			rl.cleanupStaleEntries()
		case <-rl.stopCleanup:
			return
		}
	}
}

// cleanupStaleEntries removes client entries older than 10 minutes
func (rl *rateLimiter) cleanupStaleEntries() {
	rl.mu.Lock()
	defer rl.mu.Unlock()

	cutoff := time.Now().Add(-10 * time.Minute)
	for ip, client := range rl.clients {
		if client.lastRequest.Before(cutoff) {
			delete(rl.clients, ip)
		}
	}
}

// stop gracefully shuts down the rate limiter cleanup goroutine
func (rl *rateLimiter) stop() {
	rl.shutdownOnce.Do(func() {
		if rl.stopCleanup != nil {
			close(rl.stopCleanup)
		}
	})
}

func (rl *rateLimiter) allow(clientIP string) bool {
	rl.mu.Lock()
	defer rl.mu.Unlock()

	now := time.Now()
	client, exists := rl.clients[clientIP]

	if !exists {
		rl.clients[clientIP] = &clientInfo{
			lastRequest: now,
			requests:    1,
		}
		return true
	}

	// Reset counter if more than 1 minute has passed
	if now.Sub(client.lastRequest) > time.Minute {
		client.requests = 1
		client.lastRequest = now
		return true
	}

	// Allow up to 60 requests per minute
	client.requests++
	client.lastRequest = now

	return client.requests <= 60
}

// NewServer configures routes and returns a ready-to-run server.
func NewServer(addr string, store DatasetStore, ingest Ingester, reports ReportRequester, uploadMaxBytes int64) *Server {
	mux := http.NewServeMux()
	logger := log.New(log.Config{Component: log.ComponentHTTP})

	s := &Server{
		Server: http.Server{
			Addr: addr,
			// Every handler can pull the request-scoped logger back out
			// with log.FromContext.
			Handler: log.Middleware(logger)(mux),
		},
		store:          store,
		ingest:         ingest,
		reports:        reports,
		uploadMaxBytes: uploadMaxBytes,
		logger:         log.NewStructuredLogger(logger),
		rateLimiter:    newRateLimiter(),
		recordCache:    cache.NewLRUCache[*core.RecordSet](20, 10*time.Minute),
		cacheManager:   cache.NewManager(),
	}
	s.cacheManager.Register(s.recordCache)
	s.cacheManager.StartCleanup(10 * time.Minute)

	mux.HandleFunc("GET /healthz", handleHealth)
	mux.HandleFunc("GET /readyz", handleReady)

	mux.HandleFunc("POST /datasets", s.withSecurityHeaders(s.handleUpload))
	mux.HandleFunc("GET /datasets", s.withSecurityHeaders(s.handleListDatasets))
	mux.HandleFunc("GET /datasets/{id}", s.withSecurityHeaders(s.handleGetDataset))
	mux.HandleFunc("DELETE /datasets/{id}", s.withSecurityHeaders(s.handleDeleteDataset))

	mux.HandleFunc("GET /datasets/{id}/kpis", s.withSecurityHeaders(s.handleKPIs))
	mux.HandleFunc("GET /datasets/{id}/timeseries/monthly", s.withSecurityHeaders(s.handleMonthly))
	mux.HandleFunc("GET /datasets/{id}/timeseries/quarterly", s.withSecurityHeaders(s.handleQuarterly))
	mux.HandleFunc("GET /datasets/{id}/timeseries/weekdays", s.withSecurityHeaders(s.handleWeekdays))
	mux.HandleFunc("GET /datasets/{id}/products/categories", s.withSecurityHeaders(s.handleCategorySales))
	mux.HandleFunc("GET /datasets/{id}/products/top", s.withSecurityHeaders(s.handleTopProducts))
	mux.HandleFunc("GET /datasets/{id}/products/top-by-category", s.withSecurityHeaders(s.handleTopProductsByCategory))
	mux.HandleFunc("GET /datasets/{id}/products/price-distribution", s.withSecurityHeaders(s.handlePriceDistribution))
	mux.HandleFunc("GET /datasets/{id}/customers", s.withSecurityHeaders(s.handleCustomers))
	mux.HandleFunc("GET /datasets/{id}/customers/top", s.withSecurityHeaders(s.handleTopCustomers))
	mux.HandleFunc("GET /datasets/{id}/customers/concentration", s.withSecurityHeaders(s.handleConcentration))
	mux.HandleFunc("GET /datasets/{id}/discounts/application", s.withSecurityHeaders(s.handleDiscountApplication))
	mux.HandleFunc("GET /datasets/{id}/discounts/rate-distribution", s.withSecurityHeaders(s.handleRateDistribution))
	mux.HandleFunc("GET /datasets/{id}/discounts/categories", s.withSecurityHeaders(s.handleDiscountByCategory))
	mux.HandleFunc("GET /datasets/{id}/discounts/summary", s.withSecurityHeaders(s.handleDiscountSummary))

	mux.HandleFunc("POST /datasets/{id}/reports", s.withSecurityHeaders(s.handleRequestReport))

	return s
}

// Shutdown gracefully shuts down the server and cleanup routines
func (s *Server) Shutdown(ctx context.Context) error {
	var shutdownErr error

	s.shutdownOnce.Do(func() {
		s.cacheManager.Stop()
		if s.rateLimiter != nil {
			s.rateLimiter.stop()
		}
		shutdownErr = s.Server.Shutdown(ctx)
	})

	return shutdownErr
}

// withSecurityHeaders adds security headers, rate limiting, and request logging to responses
func (s *Server) withSecurityHeaders(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()

		// Extract client IP (considering proxies)
		clientIP := r.Header.Get("X-Forwarded-For")
		if clientIP == "" {
			clientIP = r.Header.Get("X-Real-IP")
		}
		if clientIP == "" {
			clientIP = r.RemoteAddr
		}

		requestID := generateRequestID()
		ctx := context.WithValue(r.Context(), requestIDKey, requestID)
		r = r.WithContext(ctx)

		s.logger.LogHTTPStart(ctx, r, clientIP)

		// Rate limit mutating requests (uploads, report jobs, deletes)
		if r.Method != http.MethodGet && !s.rateLimiter.allow(clientIP) {
			slog.WarnContext(ctx, "Rate limit exceeded", "client_ip", clientIP, "method", r.Method, "url", r.URL.Path)
			w.Header().Set("Retry-After", "60")
			http.Error(w, "Rate limit exceeded. Please try again later.", http.StatusTooManyRequests)
			return
		}

		w.Header().Set("X-Content-Type-Options", "nosniff")
		w.Header().Set("X-Frame-Options", "DENY")
		w.Header().Set("Content-Security-Policy", "default-src 'self'")
		w.Header().Set("Referrer-Policy", "strict-origin-when-cross-origin")

		rw := &responseWriter{ResponseWriter: w, statusCode: http.StatusOK}
		next(rw, r)

		s.logger.LogHTTPEnd(ctx, r, rw.statusCode, time.Since(start).Milliseconds(), clientIP)
	}
}

type contextKey string

const requestIDKey contextKey = "request_id"

// responseWriter wraps http.ResponseWriter to capture the status code
type responseWriter struct {
	http.ResponseWriter
	statusCode int
}

func (rw *responseWriter) WriteHeader(code int) {
	rw.statusCode = code
	rw.ResponseWriter.WriteHeader(code)
}

// generateRequestID creates a unique request ID for tracing
func generateRequestID() string {
	bytes := make([]byte, 8)
	if _, err := rand.Read(bytes); err != nil {
		// Fallback to timestamp if random fails
		return fmt.Sprintf("req_%d", time.Now().UnixNano())
	}
	return "req_" + hex.EncodeToString(bytes)
}

func handleHealth(w http.ResponseWriter, r *http.Request) {
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("ok"))
}

func handleReady(w http.ResponseWriter, r *http.Request) {
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("ready"))
}
