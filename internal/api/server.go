package api

import (
	"context"
	"encoding/json"
	"errors"
	"net"
	"net/http"
	"net/http/pprof"

	"github.com/iwanhae/kickoff/internal/pipeline"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"
)

// Trigger starts pipeline runs.
type Trigger interface {
	Run(ctx context.Context) (*pipeline.Report, error)
	Last() *pipeline.Report
}

// StatsProvider reports warehouse statistics.
type StatsProvider interface {
	Stats(ctx context.Context) map[string]any
}

// Server holds the dependencies for the API server.
type Server struct {
	trigger Trigger
	stats   StatsProvider
	logger  *zap.Logger
	server  *http.Server
}

// New creates a new API server. Requests inherit baseCtx, so cancelling it aborts
// runs started over HTTP.
func New(baseCtx context.Context, trigger Trigger, stats StatsProvider, port string, logger *zap.Logger) *Server {
	s := &Server{
		trigger: trigger,
		stats:   stats,
		logger:  logger.Named("server"),
	}

	mux := http.NewServeMux()

	mux.HandleFunc("/run", s.handleRun)
	mux.HandleFunc("/report", s.handleReport)
	mux.HandleFunc("/stats", s.handleStats)
	mux.HandleFunc("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	})

	// pprof profiling endpoints
	mux.HandleFunc("/debug/pprof/", pprof.Index)
	mux.HandleFunc("/debug/pprof/cmdline", pprof.Cmdline)
	mux.HandleFunc("/debug/pprof/profile", pprof.Profile)
	mux.HandleFunc("/debug/pprof/symbol", pprof.Symbol)
	mux.HandleFunc("/debug/pprof/trace", pprof.Trace)

	// Prometheus metrics
	mux.Handle("/metrics", promhttp.Handler())

	s.server = &http.Server{
		Addr:        ":" + port,
		Handler:     mux,
		BaseContext: func(net.Listener) context.Context { return baseCtx },
	}
	return s
}

// Handler returns the request multiplexer.
func (s *Server) Handler() http.Handler {
	return s.server.Handler
}

func (s *Server) handleRun(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet && r.Method != http.MethodPost {
		http.Error(w, "server: only GET and POST methods are allowed", http.StatusMethodNotAllowed)
		return
	}

	report, err := s.trigger.Run(r.Context())
	switch {
	case errors.Is(err, pipeline.ErrRunInProgress):
		http.Error(w, "server: "+err.Error(), http.StatusConflict)
		return
	case err != nil:
		s.logger.Error("triggered run failed", zap.Error(err))
		http.Error(w, "server: run failed: "+err.Error(), http.StatusInternalServerError)
		return
	}

	s.logger.Info("triggered run finished", zap.String("run_id", report.RunID))
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte(pipeline.Success))
}

func (s *Server) handleReport(w http.ResponseWriter, r *http.Request) {
	report := s.trigger.Last()
	if report == nil {
		http.Error(w, "server: no run has finished yet", http.StatusNotFound)
		return
	}
	s.writeJSON(w, report)
}

func (s *Server) handleStats(w http.ResponseWriter, r *http.Request) {
	s.writeJSON(w, s.stats.Stats(r.Context()))
}

func (s *Server) writeJSON(w http.ResponseWriter, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		s.logger.Error("failed to write response", zap.Error(err))
	}
}

// Start runs the API server.
func (s *Server) Start() error {
	s.logger.Info("listening", zap.String("addr", s.server.Addr))
	return s.server.ListenAndServe()
}

// Shutdown gracefully shuts down the server.
func (s *Server) Shutdown(ctx context.Context) error {
	s.logger.Info("shutting down API server")
	return s.server.Shutdown(ctx)
}
