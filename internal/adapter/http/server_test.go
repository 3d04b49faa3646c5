package http_test

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	httpadapter "github.com/couchcryptid/dssat-eval-service/internal/adapter/http"
	"github.com/couchcryptid/dssat-eval-service/internal/adapter/dssatfs"
	"github.com/couchcryptid/dssat-eval-service/internal/domain"
	"github.com/couchcryptid/dssat-eval-service/internal/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type mockReadiness struct {
	err error
}

func (m *mockReadiness) CheckReadiness(_ context.Context) error { return m.err }

type mockEvaluator struct {
	got domain.EvaluationRequest
	err error
}

func (m *mockEvaluator) Evaluate(_ context.Context, req domain.EvaluationRequest) (domain.EvaluationReport, error) {
	m.got = req
	if m.err != nil {
		return domain.EvaluationReport{}, m.err
	}
	return domain.EvaluationReport{RequestID: "req-1", Crop: req.Crop, Records: []domain.MetricsRecord{}}, nil
}

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func newTestServer(t *testing.T, readyErr error, eval *mockEvaluator) (*httpadapter.Server, testutil.Install) {
	t.Helper()
	in := testutil.NewInstall(t)
	if eval == nil {
		eval = &mockEvaluator{}
	}
	catalog := dssatfs.NewCatalog(in.Base, discardLogger())
	return httpadapter.NewServer(":0", &mockReadiness{err: readyErr}, catalog, eval, discardLogger()), in
}

func serve(srv *httpadapter.Server, method, target, body string) *httptest.ResponseRecorder {
	rec := httptest.NewRecorder()
	var r io.Reader
	if body != "" {
		r = strings.NewReader(body)
	}
	srv.ServeHTTP(rec, httptest.NewRequest(method, target, r))
	return rec
}

func TestHealthzReturns200(t *testing.T) {
	srv, _ := newTestServer(t, nil, nil)
	rec := serve(srv, http.MethodGet, "/healthz", "")

	assert.Equal(t, http.StatusOK, rec.Code)

	var body map[string]string
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, "healthy", body["status"])
}

func TestReadyzReturns200WhenReady(t *testing.T) {
	srv, _ := newTestServer(t, nil, nil)
	rec := serve(srv, http.MethodGet, "/readyz", "")

	assert.Equal(t, http.StatusOK, rec.Code)

	var body map[string]string
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, "ready", body["status"])
}

func TestReadyzReturns503WhenNotReady(t *testing.T) {
	srv, _ := newTestServer(t, fmt.Errorf("not ready yet"), nil)
	rec := serve(srv, http.MethodGet, "/readyz", "")

	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)

	var body map[string]string
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, "not ready", body["status"])
	assert.Equal(t, "not ready yet", body["error"])
}

func TestMetricsEndpoint(t *testing.T) {
	srv, _ := newTestServer(t, nil, nil)
	rec := serve(srv, http.MethodGet, "/metrics", "")

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "go_goroutines")
}

func TestCropsEndpoint(t *testing.T) {
	srv, in := newTestServer(t, nil, nil)
	rec := serve(srv, http.MethodGet, "/api/crops", "")
	require.Equal(t, http.StatusOK, rec.Code)

	var crops []domain.Crop
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &crops))
	require.NotEmpty(t, crops)
	assert.Equal(t, domain.Crop{Code: "MZ", Name: "Maize", Directory: in.MaizeDir}, crops[0])
}

func TestCropBrowsingEndpoints(t *testing.T) {
	tests := []struct {
		name     string
		target   string
		wantCode int
		wantBody string
	}{
		{"experiments", "/api/crops/maize/experiments", http.StatusOK, `"UFGA8201.MZX"`},
		{"outputs", "/api/crops/Maize/outputs", http.StatusOK, `"PlantGro.OUT"`},
		{"treatments", "/api/crops/Maize/experiments/UFGA8201.MZX/treatments", http.StatusOK, `"RAINFED"`},
		{"unknown crop", "/api/crops/Rice/outputs", http.StatusNotFound, "unknown crop"},
		{"missing directory", "/api/crops/Soybean/experiments", http.StatusNotFound, "crop directory not found"},
		{"missing experiment", "/api/crops/Maize/experiments/NOPE.MZX/treatments", http.StatusNotFound, "experiment file not found"},
		{"experiment outside crop directory", "/api/crops/Maize/experiments/..%2FDETAIL.CDE/treatments", http.StatusBadRequest, "invalid file name"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			srv, _ := newTestServer(t, nil, nil)
			rec := serve(srv, http.MethodGet, tt.target, "")
			assert.Equal(t, tt.wantCode, rec.Code)
			assert.Contains(t, rec.Body.String(), tt.wantBody)
		})
	}
}

func TestEvaluateEndpoint(t *testing.T) {
	eval := &mockEvaluator{}
	srv, _ := newTestServer(t, nil, eval)

	rec := serve(srv, http.MethodPost, "/api/evaluate", `{"crop":"Maize","include_evaluate":true}`)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "Maize", eval.got.Crop)
	assert.True(t, eval.got.IncludeEvaluate)

	var report domain.EvaluationReport
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &report))
	assert.Equal(t, "req-1", report.RequestID)
}

func TestEvaluateEndpointErrors(t *testing.T) {
	tests := []struct {
		name     string
		body     string
		err      error
		wantCode int
	}{
		{"malformed body", `{"crop":`, nil, http.StatusBadRequest},
		{"invalid request", `{}`, fmt.Errorf("%w: crop is required", domain.ErrInvalidRequest), http.StatusBadRequest},
		{"unknown crop", `{"crop":"Rice"}`, fmt.Errorf("resolve crop: %w", domain.ErrUnknownCrop), http.StatusNotFound},
		{"internal", `{"crop":"Maize"}`, fmt.Errorf("disk on fire"), http.StatusInternalServerError},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			srv, _ := newTestServer(t, nil, &mockEvaluator{err: tt.err})
			rec := serve(srv, http.MethodPost, "/api/evaluate", tt.body)
			assert.Equal(t, tt.wantCode, rec.Code)

			var body map[string]string
			require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
			assert.NotEmpty(t, body["error"])
		})
	}
}
