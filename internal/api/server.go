package api

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"goperm/domain/core"
	"goperm/domain/dataset"
	"goperm/domain/model"
	"goperm/internal/permutation"
	"goperm/ports"
)

const (
	// maxListLimit caps how many runs a single list request may return
	maxListLimit = 100
	// maxRunBodyBytes caps the request body for run creation (32 MiB)
	maxRunBodyBytes = 32 << 20
)

// Runner executes permutation runs. *permutation.Tester satisfies it.
type Runner interface {
	RunReport(ctx context.Context, ds *dataset.Dataset, outcome string, predictors []string, nreps int) (*model.Report, error)
}

// Server exposes permutation runs over HTTP. The repository is optional:
// without one, POST still works but completed runs are not retrievable later.
type Server struct {
	runner Runner
	repo   ports.RunRepository
	router chi.Router
}

// NewServer creates the HTTP server around a runner and an optional repository
func NewServer(runner Runner, repo ports.RunRepository) *Server {
	s := &Server{runner: runner, repo: repo}

	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)

	r.Get("/healthz", s.handleHealth)
	r.Route("/v1/runs", func(r chi.Router) {
		r.Post("/", s.handleCreateRun)
		r.Get("/", s.handleListRuns)
		r.Get("/{runID}", s.handleGetRun)
	})

	s.router = r
	return s
}

// Handler returns the root HTTP handler
func (s *Server) Handler() http.Handler {
	return s.router
}

func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (s *Server) handleCreateRun(w http.ResponseWriter, r *http.Request) {
	var req RunRequest
	body := http.MaxBytesReader(w, r.Body, maxRunBodyBytes)
	if err := json.NewDecoder(body).Decode(&req); err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			writeError(w, http.StatusRequestEntityTooLarge, "request body too large", "INVALID_INPUT")
			return
		}
		writeError(w, http.StatusBadRequest, "invalid JSON body", "INVALID_INPUT")
		return
	}

	ds, err := req.Dataset()
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error(), "INVALID_INPUT")
		return
	}

	report, err := s.runner.RunReport(r.Context(), ds, req.Outcome, req.Predictors, req.Nreps)
	if err != nil {
		s.writeRunError(w, err)
		return
	}

	if s.repo != nil {
		if err := s.repo.Save(r.Context(), report); err != nil {
			log.Printf("[API] failed to persist run %s: %v", report.RunID, err)
		}
	}

	writeJSON(w, http.StatusCreated, report)
}

func (s *Server) handleGetRun(w http.ResponseWriter, r *http.Request) {
	if s.repo == nil {
		writeError(w, http.StatusNotImplemented, "run storage is not configured", "NOT_FOUND")
		return
	}

	id, err := core.ParseRunID(chi.URLParam(r, "runID"))
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid run ID", "INVALID_INPUT")
		return
	}

	report, err := s.repo.GetByID(r.Context(), id)
	if core.IsNotFoundError(err) {
		writeError(w, http.StatusNotFound, "run not found", "NOT_FOUND")
		return
	}
	if err != nil {
		writeError(w, http.StatusInternalServerError, "failed to load run", "INTERNAL_ERROR")
		return
	}

	writeJSON(w, http.StatusOK, report)
}

func (s *Server) handleListRuns(w http.ResponseWriter, r *http.Request) {
	if s.repo == nil {
		writeJSON(w, http.StatusOK, []*model.Report{})
		return
	}

	limit := 20
	if raw := r.URL.Query().Get("limit"); raw != "" {
		parsed, err := strconv.Atoi(raw)
		if err != nil || parsed < 1 || parsed > maxListLimit {
			writeError(w, http.StatusBadRequest,
				fmt.Sprintf("limit must be between 1 and %d", maxListLimit), "INVALID_INPUT")
			return
		}
		limit = parsed
	}

	reports, err := s.repo.ListRecent(r.Context(), limit)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "failed to list runs", "INTERNAL_ERROR")
		return
	}
	if reports == nil {
		reports = []*model.Report{}
	}

	writeJSON(w, http.StatusOK, reports)
}

func (s *Server) writeRunError(w http.ResponseWriter, err error) {
	var failure *permutation.FitFailure
	switch {
	case core.IsInvalidArgument(err):
		writeError(w, http.StatusBadRequest, err.Error(), "INVALID_INPUT")
	case errors.As(err, &failure):
		writeError(w, http.StatusUnprocessableEntity, err.Error(), "FIT_FAILURE")
	default:
		writeError(w, http.StatusInternalServerError, "permutation run failed", "INTERNAL_ERROR")
	}
}

func writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(payload); err != nil {
		log.Printf("[API] failed to encode response: %v", err)
	}
}

func writeError(w http.ResponseWriter, status int, message, code string) {
	writeJSON(w, status, ErrorResponse{Error: message, Code: code})
}
