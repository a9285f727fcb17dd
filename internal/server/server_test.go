package server

import (
	"bytes"
	"encoding/json"
	"io"
	"log/slog"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"testing"

	"pbb/internal/config"
	"pbb/internal/model"
	"pbb/internal/store"

	"github.com/shopspring/decimal"
)

func mustDec(t *testing.T, s string) decimal.Decimal {
	t.Helper()
	d, err := decimal.NewFromString(s)
	if err != nil {
		t.Fatalf("parse decimal %q: %v", s, err)
	}
	return d
}

func testServer(t *testing.T, history *store.History) http.Handler {
	t.Helper()
	cfg := config.DefaultAnalysis()
	cfg.Costs = config.NewCostTable(map[string]float64{"Ranger": 120000})
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	return New("127.0.0.1:0", cfg, history, logger).Handler
}

func multipartBody(t *testing.T, files map[string]string, fields map[string]string) (*bytes.Buffer, string) {
	t.Helper()
	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	for field, content := range files {
		fw, err := mw.CreateFormFile(field, field+".csv")
		if err != nil {
			t.Fatal(err)
		}
		if _, err := fw.Write([]byte(content)); err != nil {
			t.Fatal(err)
		}
	}
	for k, v := range fields {
		if err := mw.WriteField(k, v); err != nil {
			t.Fatal(err)
		}
	}
	if err := mw.Close(); err != nil {
		t.Fatal(err)
	}
	return &buf, mw.FormDataContentType()
}

const (
	positionsCSV = "Department,Division,Position Name\nParks,North,Ranger\nParks,North,Ranger\nParks,North,Ranger\nParks,South,Ranger\n"
	budgetsCSV   = "Department,Budget\nParks,400000\n"
)

func TestHandleAnalyze(t *testing.T) {
	handler := testServer(t, nil)

	body, contentType := multipartBody(t, map[string]string{
		"positions": positionsCSV,
		"budgets":   budgetsCSV,
	}, nil)

	req := httptest.NewRequest(http.MethodPost, "/v1/analyze", body)
	req.Header.Set("Content-Type", contentType)
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, body = %s", rec.Code, rec.Body)
	}

	var res model.AnalysisResult
	if err := json.Unmarshal(rec.Body.Bytes(), &res); err != nil {
		t.Fatalf("decoding response: %v", err)
	}
	if res.Summary.ProgramCount != 2 {
		t.Errorf("ProgramCount = %d, want 2", res.Summary.ProgramCount)
	}
	if !res.Summary.TotalPredictedCost.Equal(mustDec(t, "480000")) {
		t.Errorf("TotalPredictedCost = %s", res.Summary.TotalPredictedCost)
	}
}

func TestHandleAnalyze_MissingPart(t *testing.T) {
	handler := testServer(t, nil)

	body, contentType := multipartBody(t, map[string]string{
		"positions": positionsCSV,
	}, nil)

	req := httptest.NewRequest(http.MethodPost, "/v1/analyze", body)
	req.Header.Set("Content-Type", contentType)
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	if rec.Code != http.StatusBadRequest {
		t.Errorf("status = %d, want 400", rec.Code)
	}
}

func TestHandleAnalyze_SchemaErrorIs422(t *testing.T) {
	handler := testServer(t, nil)

	body, contentType := multipartBody(t, map[string]string{
		"positions": "Dept,Role\nParks,Ranger\n",
		"budgets":   budgetsCSV,
	}, nil)

	req := httptest.NewRequest(http.MethodPost, "/v1/analyze", body)
	req.Header.Set("Content-Type", contentType)
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	if rec.Code != http.StatusUnprocessableEntity {
		t.Errorf("status = %d, want 422", rec.Code)
	}

	var resp errorResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatal(err)
	}
	if resp.Error == "" {
		t.Error("empty error message")
	}
}

func TestHandleAnalyze_PersistsRun(t *testing.T) {
	history, err := store.Open(filepath.Join(t.TempDir(), "history.db"))
	if err != nil {
		t.Fatal(err)
	}
	defer func() { _ = history.Close() }()

	handler := testServer(t, history)

	body, contentType := multipartBody(t, map[string]string{
		"positions": positionsCSV,
		"budgets":   budgetsCSV,
	}, map[string]string{"label": "api run"})

	req := httptest.NewRequest(http.MethodPost, "/v1/analyze", body)
	req.Header.Set("Content-Type", contentType)
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, body = %s", rec.Code, rec.Body)
	}
	if rec.Header().Get("X-Run-Id") == "" {
		t.Error("missing X-Run-Id header")
	}

	metas, err := history.ListRuns()
	if err != nil {
		t.Fatal(err)
	}
	if len(metas) != 1 || metas[0].Label != "api run" {
		t.Errorf("runs = %+v", metas)
	}
}

func TestHandleRuns_DisabledWithoutHistory(t *testing.T) {
	handler := testServer(t, nil)

	req := httptest.NewRequest(http.MethodGet, "/v1/runs", nil)
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	if rec.Code != http.StatusNotFound {
		t.Errorf("status = %d, want 404", rec.Code)
	}
}

func TestHandleHealth(t *testing.T) {
	handler := testServer(t, nil)

	req := httptest.NewRequest(http.MethodGet, "/healthz", nil)
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Errorf("status = %d, want 200", rec.Code)
	}
}
