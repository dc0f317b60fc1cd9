// Package api serves classification run results over HTTP.
package api

import (
	"encoding/json"
	"errors"
	"log"
	"net/http"
	"strconv"
	"time"

	"github.com/verasls/activity-recognition/internal/db"
	"github.com/verasls/activity-recognition/internal/report"
	"github.com/verasls/activity-recognition/internal/version"
)

// ANSI escape codes for request logging
const colorCyan = "\033[36m"
const colorReset = "\033[0m"
const colorYellow = "\033[33m"
const colorBoldGreen = "\033[1;32m"
const colorBoldRed = "\033[1;31m"

type Server struct {
	db *db.DB
}

func NewServer(database *db.DB) *Server {
	return &Server{db: database}
}

type loggingResponseWriter struct {
	http.ResponseWriter
	statusCode int
}

func (lrw *loggingResponseWriter) WriteHeader(code int) {
	lrw.statusCode = code
	lrw.ResponseWriter.WriteHeader(code)
}

func statusCodeColor(statusCode int) string {
	switch {
	case statusCode >= 200 && statusCode < 300:
		return colorBoldGreen + strconv.Itoa(statusCode) + colorReset
	case statusCode >= 300 && statusCode < 400:
		return colorYellow + strconv.Itoa(statusCode) + colorReset
	case statusCode >= 400:
		return colorBoldRed + strconv.Itoa(statusCode) + colorReset
	default:
		return strconv.Itoa(statusCode)
	}
}

// LoggingMiddleware logs method, path, status, and duration.
func LoggingMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		lrw := &loggingResponseWriter{w, http.StatusOK}
		next.ServeHTTP(lrw, r)
		log.Printf(
			"[%s] %s %s%s%s %vms",
			statusCodeColor(lrw.statusCode), r.Method,
			colorCyan, r.RequestURI, colorReset,
			float64(time.Since(start).Nanoseconds())/1e6,
		)
	})
}

func (s *Server) ServeMux() *http.ServeMux {
	mux := http.NewServeMux()
	mux.HandleFunc("GET /healthz", s.handleHealth)
	mux.HandleFunc("GET /api/runs", s.listRuns)
	mux.HandleFunc("GET /api/runs/{id}", s.getRun)
	mux.HandleFunc("GET /api/runs/{id}/predictions", s.listPredictions)
	mux.HandleFunc("GET /api/runs/{id}/summary", s.activitySummary)
	mux.HandleFunc("GET /api/runs/{id}/report", s.runReport)
	return mux
}

func (s *Server) writeJSON(w http.ResponseWriter, v any) {
	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(v); err != nil {
		log.Printf("failed to write response: %v", err)
	}
}

func (s *Server) writeJSONError(w http.ResponseWriter, status int, msg string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(map[string]string{"error": msg})
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	s.writeJSON(w, map[string]string{
		"status":  "ok",
		"version": version.Version,
	})
}

func (s *Server) listRuns(w http.ResponseWriter, r *http.Request) {
	limit := 0
	if l := r.URL.Query().Get("limit"); l != "" {
		v, err := strconv.Atoi(l)
		if err != nil || v < 1 {
			s.writeJSONError(w, http.StatusBadRequest, "Invalid 'limit' parameter")
			return
		}
		limit = v
	}

	runs, err := s.db.ListRuns(limit)
	if err != nil {
		s.writeJSONError(w, http.StatusInternalServerError, "Failed to list runs")
		return
	}
	if runs == nil {
		runs = []*db.Run{}
	}
	s.writeJSON(w, runs)
}

func (s *Server) getRun(w http.ResponseWriter, r *http.Request) {
	run, ok := s.lookupRun(w, r)
	if !ok {
		return
	}
	s.writeJSON(w, run)
}

func (s *Server) listPredictions(w http.ResponseWriter, r *http.Request) {
	run, ok := s.lookupRun(w, r)
	if !ok {
		return
	}

	limit, offset := 0, 0
	if l := r.URL.Query().Get("limit"); l != "" {
		v, err := strconv.Atoi(l)
		if err != nil || v < 1 {
			s.writeJSONError(w, http.StatusBadRequest, "Invalid 'limit' parameter")
			return
		}
		limit = v
	}
	if o := r.URL.Query().Get("offset"); o != "" {
		v, err := strconv.Atoi(o)
		if err != nil || v < 0 {
			s.writeJSONError(w, http.StatusBadRequest, "Invalid 'offset' parameter")
			return
		}
		offset = v
	}

	predictions, err := s.db.ListPredictions(run.ID, limit, offset)
	if err != nil {
		s.writeJSONError(w, http.StatusInternalServerError, "Failed to list predictions")
		return
	}
	s.writeJSON(w, map[string]any{
		"run_id":      run.ID,
		"predictions": predictions,
	})
}

func (s *Server) activitySummary(w http.ResponseWriter, r *http.Request) {
	run, ok := s.lookupRun(w, r)
	if !ok {
		return
	}

	totals, err := s.db.ActivitySummary(run.ID)
	if err != nil {
		s.writeJSONError(w, http.StatusInternalServerError, "Failed to summarize run")
		return
	}
	if totals == nil {
		totals = []db.ActivityTotal{}
	}
	s.writeJSON(w, map[string]any{
		"run_id":  run.ID,
		"totals":  totals,
		"windows": run.WindowCount,
	})
}

// runReport renders an HTML activity timeline for a run. Debugging and
// review surface; no auth.
func (s *Server) runReport(w http.ResponseWriter, r *http.Request) {
	run, ok := s.lookupRun(w, r)
	if !ok {
		return
	}

	predictions, err := s.db.ListPredictions(run.ID, 0, 0)
	if err != nil {
		s.writeJSONError(w, http.StatusInternalServerError, "Failed to list predictions")
		return
	}
	totals, err := s.db.ActivitySummary(run.ID)
	if err != nil {
		s.writeJSONError(w, http.StatusInternalServerError, "Failed to summarize run")
		return
	}

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	if err := report.Render(w, run, predictions, totals); err != nil {
		log.Printf("failed to render report for run %s: %v", run.ID, err)
	}
}

// lookupRun resolves the {id} path value to a run, writing the error
// response itself when the run cannot be served.
func (s *Server) lookupRun(w http.ResponseWriter, r *http.Request) (*db.Run, bool) {
	id := r.PathValue("id")
	run, err := s.db.GetRun(id)
	if err != nil {
		if errors.Is(err, db.ErrRunNotFound) {
			s.writeJSONError(w, http.StatusNotFound, "No run with id "+id)
		} else {
			s.writeJSONError(w, http.StatusInternalServerError, "Failed to load run")
		}
		return nil, false
	}
	return run, true
}
