package httpapi

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"sentidash/internal/domain"
	"sentidash/internal/store"
)

// Options configures a DashboardServer. Zero values select defaults.
type Options struct {
	// TopStocksLimit is the row count of /api/top-stocks.
	TopStocksLimit int

	// StaticDir, when set, is served at / (a prebuilt dashboard frontend).
	StaticDir string

	// Registry receives the API metrics and backs /metrics. A private
	// registry is created when nil.
	Registry *prometheus.Registry
}

// DashboardServer serves the dashboard HTTP API.
type DashboardServer struct {
	store     store.SentimentStore
	log       *slog.Logger
	metrics   *Metrics
	registry  *prometheus.Registry
	topLimit  int
	staticDir string
}

// NewDashboardServer creates a new dashboard HTTP server over st.
func NewDashboardServer(st store.SentimentStore, log *slog.Logger, opts Options) *DashboardServer {
	if opts.TopStocksLimit <= 0 {
		opts.TopStocksLimit = domain.DefaultTopStocksLimit
	}
	if opts.Registry == nil {
		opts.Registry = prometheus.NewRegistry()
	}
	return &DashboardServer{
		store:     st,
		log:       log,
		metrics:   NewMetrics(opts.Registry),
		registry:  opts.Registry,
		topLimit:  opts.TopStocksLimit,
		staticDir: opts.StaticDir,
	}
}

// RegisterRoutes registers all API routes on the given mux.
func (s *DashboardServer) RegisterRoutes(mux *http.ServeMux) {
	mux.HandleFunc("GET /api/assets", s.metrics.instrument("assets", s.handleAssets))
	mux.HandleFunc("GET /api/stats", s.metrics.instrument("stats", s.handleStats))
	mux.HandleFunc("GET /api/top-stocks", s.metrics.instrument("top-stocks", s.handleTopStocks))
	mux.HandleFunc("GET /api/trends", s.metrics.instrument("trends", s.handleTrends))
	mux.HandleFunc("GET /healthz", s.handleHealth)
	mux.Handle("GET /metrics", promhttp.HandlerFor(s.registry, promhttp.HandlerOpts{}))
	if s.staticDir != "" {
		mux.Handle("GET /", http.FileServer(http.Dir(s.staticDir)))
	}
}

// Handler returns an http.Handler with request-ID and CORS middleware.
func (s *DashboardServer) Handler() http.Handler {
	mux := http.NewServeMux()
	s.RegisterRoutes(mux)
	return requestIDMiddleware(corsMiddleware(mux))
}

func (s *DashboardServer) writeJSON(w http.ResponseWriter, r *http.Request, v any) {
	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(v); err != nil {
		s.log.Error("encoding JSON response", "error", err, "request_id", requestID(r.Context()), "path", r.URL.Path)
	}
}

func writeError(w http.ResponseWriter, status int, msg string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(ErrorResponse{Error: msg})
}

// internalError logs err and replies with a generic 500. Store details are
// never sent to the client.
func (s *DashboardServer) internalError(w http.ResponseWriter, r *http.Request, msg string, err error) {
	var qe *store.QueryError
	if errors.As(err, &qe) {
		s.metrics.queryErrors.WithLabelValues(qe.Op).Inc()
	}
	s.log.Error(msg, "error", err, "request_id", requestID(r.Context()), "path", r.URL.Path)
	writeError(w, http.StatusInternalServerError, "Internal Server Error")
}

func (s *DashboardServer) handleAssets(w http.ResponseWriter, r *http.Request) {
	tickers, err := s.store.ListTickers(r.Context())
	if err != nil {
		s.internalError(w, r, "listing tickers", err)
		return
	}
	if tickers == nil {
		tickers = []string{}
	}
	s.writeJSON(w, r, tickers)
}

func (s *DashboardServer) handleStats(w http.ResponseWriter, r *http.Request) {
	st, err := s.store.Stats(r.Context())
	if err != nil {
		s.internalError(w, r, "computing stats", err)
		return
	}
	s.writeJSON(w, r, convertStats(st))
}

func (s *DashboardServer) handleTopStocks(w http.ResponseWriter, r *http.Request) {
	stocks, err := s.store.TopStocks(r.Context(), s.topLimit)
	if err != nil {
		s.internalError(w, r, "ranking top stocks", err)
		return
	}
	s.writeJSON(w, r, convertTopStocks(stocks))
}

func (s *DashboardServer) handleTrends(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	window, err := domain.ParseTrendWindow(q.Get("days"))
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid days parameter")
		return
	}

	points, err := s.store.Trends(r.Context(), store.TrendQuery{
		Window: window,
		Ticker: q.Get("ticker"),
	})
	if err != nil {
		s.internalError(w, r, "computing trends", err)
		return
	}
	s.writeJSON(w, r, convertTrend(points))
}

func (s *DashboardServer) handleHealth(w http.ResponseWriter, r *http.Request) {
	if err := s.store.Ping(r.Context()); err != nil {
		s.log.Warn("health check failed", "error", err, "request_id", requestID(r.Context()))
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusServiceUnavailable)
		json.NewEncoder(w).Encode(HealthResponse{Status: "unavailable"})
		return
	}
	s.writeJSON(w, r, HealthResponse{Status: "ok"})
}
