package server

import (
	"encoding/json"
	"errors"
	"mime/multipart"
	"net/http"
	"path/filepath"
	"strconv"
	"strings"

	"pbb/internal/model"
	"pbb/internal/pipeline"
	"pbb/internal/source"
)

type errorResponse struct {
	Error string `json:"error"`
}

func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// handleAnalyze runs the pipeline on two uploaded tables. The request
// is multipart/form-data with file parts named "positions" and
// "budgets"; the file extension selects the format.
func (s *Server) handleAnalyze(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseMultipartForm(maxUploadBytes); err != nil {
		writeError(w, http.StatusBadRequest, "expected multipart form data: "+err.Error())
		return
	}

	positions, err := readUploadedTable(r, "positions")
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	budgets, err := readUploadedTable(r, "budgets")
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	res, err := pipeline.Analyze(positions, budgets, s.cfg)
	if err != nil {
		var schemaErr *model.SchemaError
		var valErr *model.ValidationError
		if errors.As(err, &schemaErr) || errors.As(err, &valErr) {
			writeError(w, http.StatusUnprocessableEntity, err.Error())
			return
		}
		s.logger.Error("analyze failed", "error", err)
		writeError(w, http.StatusInternalServerError, "analysis failed")
		return
	}

	if s.history != nil {
		label := r.FormValue("label")
		if id, err := s.history.SaveRun(label, positions.Name, budgets.Name, res); err != nil {
			s.logger.Error("saving run", "error", err)
		} else {
			w.Header().Set("X-Run-Id", strconv.FormatInt(id, 10))
		}
	}

	writeJSON(w, http.StatusOK, res)
}

func (s *Server) handleListRuns(w http.ResponseWriter, _ *http.Request) {
	if s.history == nil {
		writeError(w, http.StatusNotFound, "run history is not enabled")
		return
	}
	metas, err := s.history.ListRuns()
	if err != nil {
		s.logger.Error("listing runs", "error", err)
		writeError(w, http.StatusInternalServerError, "listing runs failed")
		return
	}
	writeJSON(w, http.StatusOK, metas)
}

func (s *Server) handleGetRun(w http.ResponseWriter, r *http.Request) {
	if s.history == nil {
		writeError(w, http.StatusNotFound, "run history is not enabled")
		return
	}
	id, err := strconv.ParseInt(r.PathValue("id"), 10, 64)
	if err != nil {
		writeError(w, http.StatusBadRequest, "run id must be an integer")
		return
	}
	res, _, err := s.history.LoadRun(id)
	if err != nil {
		writeError(w, http.StatusNotFound, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, res)
}

// readUploadedTable reads one named file part as a table.
func readUploadedTable(r *http.Request, field string) (*source.Table, error) {
	file, header, err := r.FormFile(field)
	if err != nil {
		return nil, errors.New("missing file part " + strconv.Quote(field))
	}
	defer func() { _ = file.Close() }()

	return parseUpload(file, header.Filename, field)
}

func parseUpload(file multipart.File, filename, field string) (*source.Table, error) {
	name := filepath.Base(filename)
	if name == "" || name == "." {
		name = field
	}

	switch strings.ToLower(filepath.Ext(name)) {
	case ".xlsx":
		return source.ReadXLSXTable(file, name)
	default:
		return source.ReadCSVTable(file, name)
	}
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, errorResponse{Error: msg})
}
