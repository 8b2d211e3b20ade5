// internal/api/server.go
package api

import (
	"context"
	"fmt"
	"net"
	"net/http"
	"time"

	handler "github.com/newthinker/signalpro/internal/api/handler/api"
	"github.com/newthinker/signalpro/internal/api/handler/web"
	"github.com/newthinker/signalpro/internal/api/job"
	"github.com/newthinker/signalpro/internal/api/middleware"
	"github.com/newthinker/signalpro/internal/api/stream"
	"github.com/newthinker/signalpro/internal/chart"
	"github.com/newthinker/signalpro/internal/logger"
	"github.com/newthinker/signalpro/internal/metrics"
	"github.com/newthinker/signalpro/internal/session"
	"go.uber.org/zap"
)

// Server is the HTTP server the dashboard presentation talks to.
type Server struct {
	httpServer *http.Server
	logger     *zap.Logger
	mux        *http.ServeMux
	stream     *stream.Handler
	exports    *handler.ExportsHandler // nil without an exporter
}

// Config holds server configuration.
type Config struct {
	Host         string
	Port         int
	APIKey       string
	MetricsPath  string // empty disables /metrics
	TemplatesDir string // empty uses the embedded dashboard templates
	Chart        chart.Config
	ChartWidth   int
	ChartHeight  int
}

// Dependencies are the components routes are served from.
type Dependencies struct {
	Session *session.Session
	Metrics *metrics.Registry // optional
	// Exporter enables the /api/v1/exports routes.
	Exporter handler.Exporter
}

// NewServer creates a new HTTP server.
func NewServer(cfg Config, deps Dependencies, log *zap.Logger) (*Server, error) {
	if deps.Session == nil {
		return nil, fmt.Errorf("session is required")
	}
	log = logger.OrNop(log)

	mux := http.NewServeMux()
	s := &Server{
		logger: log,
		mux:    mux,
		stream: stream.NewHandler(deps.Session, log, deps.Metrics),
	}

	if err := s.setupRoutes(cfg, deps); err != nil {
		return nil, err
	}

	mws := []func(http.Handler) http.Handler{metrics.LoggingMiddleware(log)}
	if deps.Metrics != nil {
		mws = append(mws, metrics.HTTPMiddleware(deps.Metrics))
	}

	s.httpServer = &http.Server{
		Addr:         fmt.Sprintf("%s:%d", cfg.Host, cfg.Port),
		Handler:      middleware.Chain(mux, mws...),
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	return s, nil
}

// setupRoutes configures all HTTP routes.
func (s *Server) setupRoutes(cfg Config, deps Dependencies) error {
	pages, err := web.NewHandler(deps.Session, cfg.TemplatesDir, web.Options{
		Chart:       cfg.Chart,
		ChartWidth:  cfg.ChartWidth,
		ChartHeight: cfg.ChartHeight,
		Logger:      s.logger,
	})
	if err != nil {
		return fmt.Errorf("loading dashboard templates: %w", err)
	}

	signals := handler.NewSignalsHandler(deps.Session)
	hist := handler.NewHistoryHandler(deps.Session.HistoryStore())
	summary := handler.NewSummaryHandler(deps.Session)
	charts := handler.NewChartHandler(cfg.Chart, cfg.ChartWidth, cfg.ChartHeight)

	s.mux.HandleFunc("GET /api/health", s.handleHealth)

	auth := middleware.APIKeyAuth(cfg.APIKey)
	s.mux.Handle("GET /{$}", auth(http.HandlerFunc(pages.Dashboard)))
	s.mux.Handle("GET /api/v1/signals", auth(http.HandlerFunc(signals.List)))
	s.mux.Handle("GET /api/v1/signals/{id}", auth(http.HandlerFunc(signals.GetByID)))
	s.mux.Handle("GET /api/v1/history", auth(http.HandlerFunc(hist.List)))
	s.mux.Handle("GET /api/v1/history/{id}", auth(http.HandlerFunc(hist.Get)))
	s.mux.Handle("GET /api/v1/summary", auth(http.HandlerFunc(summary.Summary)))
	s.mux.Handle("GET /api/v1/snapshot", auth(http.HandlerFunc(summary.Snapshot)))
	s.mux.Handle("GET /api/v1/chart", auth(http.HandlerFunc(charts.Series)))
	s.mux.Handle("GET /api/v1/chart.png", auth(http.HandlerFunc(charts.Image)))
	s.mux.Handle("GET /api/v1/stream", auth(s.stream))

	if deps.Exporter != nil {
		s.exports = handler.NewExportsHandler(deps.Exporter, job.NewStore(100, time.Hour), time.Minute, s.logger)
		s.mux.Handle("POST /api/v1/exports", auth(http.HandlerFunc(s.exports.Create)))
		s.mux.Handle("GET /api/v1/exports", auth(http.HandlerFunc(s.exports.List)))
		s.mux.Handle("GET /api/v1/exports/{id}", auth(http.HandlerFunc(s.exports.Get)))
		s.mux.Handle("GET /api/v1/exports/{id}/report", auth(http.HandlerFunc(s.exports.Report)))
	}

	if deps.Metrics != nil && cfg.MetricsPath != "" {
		s.mux.Handle("GET "+cfg.MetricsPath, deps.Metrics.Handler())
	}
	return nil
}

// Handler exposes the full middleware-wrapped handler, for tests and for
// embedding in another server.
func (s *Server) Handler() http.Handler {
	return s.httpServer.Handler
}

// Addr is the configured listen address.
func (s *Server) Addr() string {
	return s.httpServer.Addr
}

// Start listens and serves until Shutdown.
func (s *Server) Start() error {
	ln, err := net.Listen("tcp", s.httpServer.Addr)
	if err != nil {
		return fmt.Errorf("listening on %s: %w", s.httpServer.Addr, err)
	}
	return s.Serve(ln)
}

// Serve accepts connections on ln until Shutdown.
func (s *Server) Serve(ln net.Listener) error {
	s.logger.Info("starting HTTP server", zap.String("addr", ln.Addr().String()))
	if err := s.httpServer.Serve(ln); err != nil && err != http.ErrServerClosed {
		return fmt.Errorf("server error: %w", err)
	}
	return nil
}

// Shutdown gracefully shuts down the server. Stream clients are hijacked
// connections that http.Server.Shutdown does not track, so they are closed
// explicitly.
func (s *Server) Shutdown(ctx context.Context) error {
	s.logger.Info("shutting down HTTP server")
	s.stream.CloseAll()
	err := s.httpServer.Shutdown(ctx)
	if s.exports != nil {
		done := make(chan struct{})
		go func() {
			s.exports.Wait()
			close(done)
		}()
		select {
		case <-done:
		case <-ctx.Done():
			s.logger.Warn("export jobs still running at shutdown")
		}
	}
	return err
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	w.Write([]byte(`{"status":"ok"}`))
}
