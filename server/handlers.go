package server

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/inference-sim/drawsim/sim"
	"github.com/inference-sim/drawsim/sim/draws"
	"github.com/inference-sim/drawsim/sim/history"
	"github.com/inference-sim/drawsim/sim/trace"
)

// LogsResponse is a page of log lines. Next is the since value for the
// following poll.
type LogsResponse struct {
	Since int      `json:"since"`
	Next  int      `json:"next"`
	Lines []string `json:"lines"`
}

type errorResponse struct {
	Error string `json:"error"`
}

func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	s.writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (s *Server) handleState(w http.ResponseWriter, _ *http.Request) {
	s.writeJSON(w, http.StatusOK, s.engine.Snapshot())
}

func (s *Server) handlePlay(w http.ResponseWriter, _ *http.Request) {
	s.engine.Play()
	s.writeJSON(w, http.StatusOK, s.engine.Snapshot())
}

func (s *Server) handlePause(w http.ResponseWriter, _ *http.Request) {
	s.engine.Pause()
	s.writeJSON(w, http.StatusOK, s.engine.Snapshot())
}

func (s *Server) handleReset(w http.ResponseWriter, _ *http.Request) {
	s.engine.Reset()
	s.writeJSON(w, http.StatusOK, s.engine.Snapshot())
}

// handleLoadData accepts a CSV draw history either as the raw request body
// or as the "file" field of a multipart form.
func (s *Server) handleLoadData(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, s.maxUploadBytes)

	var body io.Reader = r.Body
	if strings.HasPrefix(r.Header.Get("Content-Type"), "multipart/form-data") {
		file, _, err := r.FormFile("file")
		if err != nil {
			s.writeJSON(w, http.StatusBadRequest, errorResponse{Error: "multipart upload needs a \"file\" field"})
			return
		}
		defer file.Close()
		body = file
	}

	err := s.engine.LoadData(body)
	var formatErr *draws.FormatError
	var tooLarge *http.MaxBytesError
	switch {
	case err == nil:
		s.writeJSON(w, http.StatusOK, s.engine.Snapshot())
	case errors.As(err, &tooLarge):
		s.writeJSON(w, http.StatusRequestEntityTooLarge, errorResponse{Error: "draw history too large"})
	case errors.As(err, &formatErr):
		s.writeJSON(w, http.StatusBadRequest, errorResponse{Error: formatErr.Error()})
	case errors.Is(err, sim.ErrBoardWidthMismatch):
		s.writeJSON(w, http.StatusBadRequest, errorResponse{Error: err.Error()})
	default:
		s.log.WithError(err).Error("Failed to load draw data")
		s.writeJSON(w, http.StatusInternalServerError, errorResponse{Error: "failed to load draw data"})
	}
}

func (s *Server) handleGenerations(w http.ResponseWriter, _ *http.Request) {
	gens := s.engine.Snapshot().Generations
	if gens == nil {
		gens = []trace.GenerationRecord{}
	}
	s.writeJSON(w, http.StatusOK, gens)
}

func (s *Server) handleLogs(w http.ResponseWriter, r *http.Request) {
	since := 0
	if raw := r.URL.Query().Get("since"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n < 0 {
			s.writeJSON(w, http.StatusBadRequest, errorResponse{Error: "since must be a non-negative integer"})
			return
		}
		since = n
	}
	lines := s.engine.Logs(since)
	if lines == nil {
		lines = []string{}
	}
	s.writeJSON(w, http.StatusOK, LogsResponse{Since: since, Next: since + len(lines), Lines: lines})
}

func (s *Server) handleListRuns(w http.ResponseWriter, r *http.Request) {
	if s.history == nil {
		s.writeJSON(w, http.StatusOK, []history.Run{})
		return
	}
	runs, err := s.history.ListRuns(r.Context())
	if err != nil {
		s.log.WithError(err).Error("Failed to list runs")
		s.writeJSON(w, http.StatusInternalServerError, errorResponse{Error: "failed to list runs"})
		return
	}
	if runs == nil {
		runs = []history.Run{}
	}
	s.writeJSON(w, http.StatusOK, runs)
}

func (s *Server) handleRunGenerations(w http.ResponseWriter, r *http.Request) {
	runID := chi.URLParam(r, "runID")
	if s.history == nil {
		s.writeJSON(w, http.StatusNotFound, errorResponse{Error: "run history disabled"})
		return
	}
	gens, ok, err := s.history.GetGenerations(r.Context(), runID)
	if err != nil {
		s.log.WithError(err).WithField("run_id", runID).Error("Failed to fetch generations")
		s.writeJSON(w, http.StatusInternalServerError, errorResponse{Error: "failed to fetch generations"})
		return
	}
	if !ok {
		s.writeJSON(w, http.StatusNotFound, errorResponse{Error: "no generations for run " + runID})
		return
	}
	s.writeJSON(w, http.StatusOK, gens)
}

func (s *Server) writeJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(data); err != nil {
		s.log.WithError(err).Error("Failed to encode JSON response")
	}
}
