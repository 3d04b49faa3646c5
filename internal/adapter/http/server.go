package http

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/couchcryptid/dssat-eval-service/internal/domain"
	sharedobs "github.com/couchcryptid/storm-data-shared/observability"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// maxRequestBody caps the size of a POST /api/evaluate body.
const maxRequestBody = 1 << 20

// Catalog browses crops and their data folders.
type Catalog interface {
	domain.CropCatalog
	Experiments(crop domain.Crop) ([]domain.Experiment, error)
	OutputFiles(crop domain.Crop) ([]string, error)
	Treatments(crop domain.Crop, experiment string) ([]domain.Treatment, error)
}

// Evaluator answers evaluation requests synchronously.
type Evaluator interface {
	Evaluate(ctx context.Context, req domain.EvaluationRequest) (domain.EvaluationReport, error)
}

// Server exposes health, readiness, metrics and the evaluation API.
type Server struct {
	httpServer *http.Server
	catalog    Catalog
	evaluator  Evaluator
	logger     *slog.Logger
}

// NewServer creates an HTTP server with /healthz, /readyz, /metrics and the
// /api routes.
func NewServer(addr string, ready sharedobs.ReadinessChecker, catalog Catalog, evaluator Evaluator, logger *slog.Logger) *Server {
	mux := http.NewServeMux()

	s := &Server{
		httpServer: &http.Server{
			Addr:         addr,
			Handler:      mux,
			ReadTimeout:  10 * time.Second,
			WriteTimeout: 60 * time.Second,
			IdleTimeout:  60 * time.Second,
		},
		catalog:   catalog,
		evaluator: evaluator,
		logger:    logger,
	}

	mux.HandleFunc("GET /healthz", sharedobs.LivenessHandler())
	mux.HandleFunc("GET /readyz", sharedobs.ReadinessHandler(ready))
	mux.Handle("GET /metrics", promhttp.Handler())

	mux.HandleFunc("GET /api/crops", s.handleCrops)
	mux.HandleFunc("GET /api/crops/{crop}/experiments", s.handleExperiments)
	mux.HandleFunc("GET /api/crops/{crop}/experiments/{experiment}/treatments", s.handleTreatments)
	mux.HandleFunc("GET /api/crops/{crop}/outputs", s.handleOutputs)
	mux.HandleFunc("POST /api/evaluate", s.handleEvaluate)

	return s
}

// Start begins listening. Returns http.ErrServerClosed on graceful shutdown.
func (s *Server) Start() error {
	s.logger.Info("http server starting", "addr", s.httpServer.Addr)
	return s.httpServer.ListenAndServe()
}

// Shutdown gracefully drains connections within the given context deadline.
func (s *Server) Shutdown(ctx context.Context) error {
	return s.httpServer.Shutdown(ctx)
}

// ServeHTTP delegates to the underlying handler, useful for testing.
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.httpServer.Handler.ServeHTTP(w, r)
}

func (s *Server) handleCrops(w http.ResponseWriter, r *http.Request) {
	crops, err := s.catalog.Crops(r.Context())
	if err != nil {
		s.writeError(w, err)
		return
	}
	sharedobs.WriteJSON(w, http.StatusOK, crops)
}

func (s *Server) handleExperiments(w http.ResponseWriter, r *http.Request) {
	crop, ok := s.resolveCrop(w, r)
	if !ok {
		return
	}
	exps, err := s.catalog.Experiments(crop)
	if err != nil {
		s.writeError(w, err)
		return
	}
	sharedobs.WriteJSON(w, http.StatusOK, exps)
}

func (s *Server) handleTreatments(w http.ResponseWriter, r *http.Request) {
	crop, ok := s.resolveCrop(w, r)
	if !ok {
		return
	}
	trts, err := s.catalog.Treatments(crop, r.PathValue("experiment"))
	if err != nil {
		s.writeError(w, err)
		return
	}
	sharedobs.WriteJSON(w, http.StatusOK, trts)
}

func (s *Server) handleOutputs(w http.ResponseWriter, r *http.Request) {
	crop, ok := s.resolveCrop(w, r)
	if !ok {
		return
	}
	files, err := s.catalog.OutputFiles(crop)
	if err != nil {
		s.writeError(w, err)
		return
	}
	sharedobs.WriteJSON(w, http.StatusOK, files)
}

func (s *Server) handleEvaluate(w http.ResponseWriter, r *http.Request) {
	var req domain.EvaluationRequest
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxRequestBody))
	if err := dec.Decode(&req); err != nil {
		sharedobs.WriteJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid JSON body: " + err.Error()})
		return
	}
	report, err := s.evaluator.Evaluate(r.Context(), req)
	if err != nil {
		s.writeError(w, err)
		return
	}
	sharedobs.WriteJSON(w, http.StatusOK, report)
}

func (s *Server) resolveCrop(w http.ResponseWriter, r *http.Request) (domain.Crop, bool) {
	crop, err := s.catalog.Crop(r.Context(), r.PathValue("crop"))
	if err != nil {
		s.writeError(w, err)
		return domain.Crop{}, false
	}
	return crop, true
}

// writeError maps domain errors onto status codes.
func (s *Server) writeError(w http.ResponseWriter, err error) {
	status := http.StatusInternalServerError
	switch {
	case errors.Is(err, domain.ErrInvalidRequest):
		status = http.StatusBadRequest
	case errors.Is(err, domain.ErrUnknownCrop),
		errors.Is(err, domain.ErrWorkDirNotFound),
		errors.Is(err, domain.ErrExperimentNotFound):
		status = http.StatusNotFound
	}
	if status == http.StatusInternalServerError {
		s.logger.Error("request failed", "error", err)
	}
	sharedobs.WriteJSON(w, status, map[string]string{"error": err.Error()})
}
