package gateway

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"sync/atomic"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rahul/opsagent/internal/agent"
	"github.com/rahul/opsagent/internal/observability"
)

const (
	apiName    = "opsagent API"
	apiVersion = "1.0.0"

	maxRequestBytes = 1 << 20
)

// ServerConfig holds HTTP API settings.
type ServerConfig struct {
	Address         string
	ShutdownTimeout time.Duration
	// WriteTimeout must cover a full task run.
	WriteTimeout time.Duration
}

// Server serves the task API.
type Server struct {
	httpServer      *http.Server
	processor       TaskProcessor
	tools           []string
	status          *observability.StatusBoard
	log             *slog.Logger
	shutdownTimeout time.Duration
	inShutdown      atomic.Bool
}

type ProcessRequest struct {
	Task    string `json:"task"`
	Verbose bool   `json:"verbose"`
}

type ProcessResponse struct {
	Status string `json:"status"`
	Result any    `json:"result"`
}

// NewServer builds the API server. gatherer may be nil to disable /metrics.
func NewServer(processor TaskProcessor, tools []string, status *observability.StatusBoard, gatherer prometheus.Gatherer, log *slog.Logger, cfg ServerConfig) *Server {
	if cfg.ShutdownTimeout == 0 {
		cfg.ShutdownTimeout = 15 * time.Second
	}
	if cfg.WriteTimeout == 0 {
		cfg.WriteTimeout = 5 * time.Minute
	}
	if log == nil {
		log = observability.Discard()
	}

	s := &Server{
		processor:       processor,
		tools:           tools,
		status:          status,
		log:             log,
		shutdownTimeout: cfg.ShutdownTimeout,
	}

	mux := http.NewServeMux()
	mux.HandleFunc("GET /{$}", s.handleRoot)
	mux.HandleFunc("GET /health", s.handleHealth)
	mux.HandleFunc("POST /process", s.handleProcess)
	if gatherer != nil {
		mux.Handle("GET /metrics", promhttp.HandlerFor(gatherer, promhttp.HandlerOpts{}))
	}

	s.httpServer = &http.Server{
		Addr:              cfg.Address,
		Handler:           mux,
		ReadHeaderTimeout: 10 * time.Second,
		WriteTimeout:      cfg.WriteTimeout,
		IdleTimeout:       60 * time.Second,
	}
	return s
}

// Handler exposes the routing table, mainly for tests.
func (s *Server) Handler() http.Handler {
	return s.httpServer.Handler
}

// Serve accepts connections on l until Shutdown. It returns
// http.ErrServerClosed after a graceful shutdown.
func (s *Server) Serve(l net.Listener) error {
	s.log.Info("API server listening", "address", l.Addr().String())
	return s.httpServer.Serve(l)
}

// Start listens on the configured address.
func (s *Server) Start() error {
	l, err := net.Listen("tcp", s.httpServer.Addr)
	if err != nil {
		return fmt.Errorf("listen %s: %w", s.httpServer.Addr, err)
	}
	return s.Serve(l)
}

// Shutdown stops accepting requests and waits for running tasks to finish,
// up to the shutdown timeout.
func (s *Server) Shutdown(ctx context.Context) error {
	s.inShutdown.Store(true)
	s.httpServer.SetKeepAlivesEnabled(false)

	ctx, cancel := context.WithTimeout(ctx, s.shutdownTimeout)
	defer cancel()
	return s.httpServer.Shutdown(ctx)
}

func (s *Server) handleRoot(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{
		"message": apiName,
		"status":  "running",
		"version": apiVersion,
	})
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	status, code := "healthy", http.StatusOK
	if s.inShutdown.Load() {
		status, code = "shutting_down", http.StatusServiceUnavailable
	}

	inflight := map[string]int{}
	if s.status != nil {
		counts, _ := s.status.Snapshot()
		for stage, n := range counts {
			inflight[string(stage)] = n
		}
	}

	writeJSON(w, code, map[string]any{
		"status": status,
		"agents": map[string]string{
			"planner":  "ready",
			"executor": "ready",
			"verifier": "ready",
		},
		"tools":    s.tools,
		"inflight": inflight,
	})
}

func (s *Server) handleProcess(w http.ResponseWriter, r *http.Request) {
	var req ProcessRequest
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxRequestBytes))
	if err := dec.Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"detail": "invalid request body: " + err.Error()})
		return
	}

	var opts []agent.RunOption
	if req.Verbose {
		opts = append(opts, agent.WithObserver(&logObserver{log: s.log}))
	}

	result, err := s.processor.ProcessTask(r.Context(), req.Task, opts...)
	var se *agent.StageError
	if err != nil && !errors.As(err, &se) {
		s.log.Error("task processing failed", "error", err)
		writeJSON(w, http.StatusInternalServerError, map[string]string{"detail": err.Error()})
		return
	}

	writeJSON(w, http.StatusOK, ProcessResponse{
		Status: "success",
		Result: resultPayload(result, err),
	})
}

// logObserver reports stage progress to the server log for verbose requests.
type logObserver struct {
	log *slog.Logger
}

func (o *logObserver) StageStarted(stage agent.Stage) {
	o.log.Info("stage started", "stage", stage)
}

func (o *logObserver) StageFinished(stage agent.Stage, result any, err error) {
	if err != nil {
		o.log.Info("stage failed", "stage", stage, "error", err)
		return
	}
	o.log.Info("stage finished", "stage", stage, "result", result)
}

func writeJSON(w http.ResponseWriter, code int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		http.Error(w, fmt.Sprintf("Failed to encode response: %v", err), http.StatusInternalServerError)
	}
}
