package api

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/newthinker/signalpro/internal/api/job"
	"github.com/newthinker/signalpro/internal/core"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type stubExporter struct {
	path    string
	err     error
	reports map[string][]byte
}

func (s stubExporter) Export(ctx context.Context) (string, error) {
	return s.path, s.err
}

func (s stubExporter) Report(ctx context.Context, path string) ([]byte, error) {
	data, ok := s.reports[path]
	if !ok {
		return nil, core.WrapError(core.ErrReportNotFound, errors.New(path))
	}
	return data, nil
}

func decodeJob(t *testing.T, w *httptest.ResponseRecorder) job.Job {
	t.Helper()
	var resp struct {
		Data job.Job `json:"data"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	return resp.Data
}

func TestExportsHandler_CreateCompletes(t *testing.T) {
	jobs := job.NewStore(10, time.Hour)
	h := NewExportsHandler(stubExporter{path: "reports/2025/03/14/snapshot-1.json"}, jobs, time.Second, nil)

	w := httptest.NewRecorder()
	h.Create(w, httptest.NewRequest(http.MethodPost, "/api/v1/exports", nil))

	require.Equal(t, http.StatusAccepted, w.Code)
	created := decodeJob(t, w)
	assert.Equal(t, job.StatusPending, created.Status)
	assert.Equal(t, "/api/v1/exports/"+created.ID, w.Header().Get("Location"))

	h.Wait()

	got, err := jobs.Get(created.ID)
	require.NoError(t, err)
	assert.Equal(t, job.StatusComplete, got.Status)
	assert.Equal(t, map[string]string{"path": "reports/2025/03/14/snapshot-1.json"}, got.Result)
}

func TestExportsHandler_CreateFails(t *testing.T) {
	jobs := job.NewStore(10, time.Hour)
	h := NewExportsHandler(stubExporter{err: errors.New("bucket unreachable")}, jobs, time.Second, nil)

	w := httptest.NewRecorder()
	h.Create(w, httptest.NewRequest(http.MethodPost, "/api/v1/exports", nil))
	created := decodeJob(t, w)
	h.Wait()

	got, err := jobs.Get(created.ID)
	require.NoError(t, err)
	assert.Equal(t, job.StatusFailed, got.Status)
	assert.Equal(t, "bucket unreachable", got.Error)
}

func TestExportsHandler_Get(t *testing.T) {
	jobs := job.NewStore(10, time.Hour)
	h := NewExportsHandler(stubExporter{}, jobs, time.Second, nil)
	j := jobs.Create(exportJobType)

	mux := http.NewServeMux()
	mux.HandleFunc("GET /api/v1/exports/{id}", h.Get)

	w := httptest.NewRecorder()
	mux.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/api/v1/exports/"+j.ID, nil))
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, j.ID, decodeJob(t, w).ID)

	w = httptest.NewRecorder()
	mux.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/api/v1/exports/missing", nil))
	assert.Equal(t, http.StatusNotFound, w.Code)
	assert.Equal(t, "JOB_NOT_FOUND", decodeError(t, w).Code)
}

func TestExportsHandler_List(t *testing.T) {
	jobs := job.NewStore(10, time.Hour)
	h := NewExportsHandler(stubExporter{}, jobs, time.Second, nil)
	jobs.Create(exportJobType)
	jobs.Create(exportJobType)

	w := httptest.NewRecorder()
	h.List(w, httptest.NewRequest(http.MethodGet, "/api/v1/exports", nil))

	require.Equal(t, http.StatusOK, w.Code)
	data := decodeData(t, w)
	assert.Equal(t, 2.0, data["count"])
}

func TestExportsHandler_Report(t *testing.T) {
	const path = "reports/2025/03/14/snapshot-1741944413-a1.json"
	jobs := job.NewStore(10, time.Hour)
	h := NewExportsHandler(stubExporter{
		path:    path,
		reports: map[string][]byte{path: []byte(`{"tick":7}`)},
	}, jobs, time.Second, nil)

	mux := http.NewServeMux()
	mux.HandleFunc("GET /api/v1/exports/{id}/report", h.Report)

	pending := jobs.Create(exportJobType)
	w := httptest.NewRecorder()
	mux.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/api/v1/exports/"+pending.ID+"/report", nil))
	assert.Equal(t, http.StatusConflict, w.Code)
	assert.Equal(t, "JOB_NOT_FINISHED", decodeError(t, w).Code)

	cw := httptest.NewRecorder()
	h.Create(cw, httptest.NewRequest(http.MethodPost, "/api/v1/exports", nil))
	created := decodeJob(t, cw)
	h.Wait()

	w = httptest.NewRecorder()
	mux.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/api/v1/exports/"+created.ID+"/report", nil))
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "application/json", w.Header().Get("Content-Type"))
	assert.JSONEq(t, `{"tick":7}`, w.Body.String())

	w = httptest.NewRecorder()
	mux.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/api/v1/exports/missing/report", nil))
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestExportsHandler_ReportMissingFromArchive(t *testing.T) {
	jobs := job.NewStore(10, time.Hour)
	h := NewExportsHandler(stubExporter{path: "reports/gone.json"}, jobs, time.Second, nil)

	cw := httptest.NewRecorder()
	h.Create(cw, httptest.NewRequest(http.MethodPost, "/api/v1/exports", nil))
	created := decodeJob(t, cw)
	h.Wait()

	mux := http.NewServeMux()
	mux.HandleFunc("GET /api/v1/exports/{id}/report", h.Report)

	w := httptest.NewRecorder()
	mux.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/api/v1/exports/"+created.ID+"/report", nil))
	assert.Equal(t, http.StatusNotFound, w.Code)
	assert.Equal(t, "REPORT_NOT_FOUND", decodeError(t, w).Code)
}

func TestExportsHandler_CreateKeepsRunningJobsAtCapacity(t *testing.T) {
	jobs := job.NewStore(1, time.Hour)
	block := make(chan struct{})
	h := NewExportsHandler(blockingExporter{release: block}, jobs, time.Second, nil)

	w := httptest.NewRecorder()
	h.Create(w, httptest.NewRequest(http.MethodPost, "/api/v1/exports", nil))
	first := decodeJob(t, w)

	w = httptest.NewRecorder()
	h.Create(w, httptest.NewRequest(http.MethodPost, "/api/v1/exports", nil))
	second := decodeJob(t, w)

	close(block)
	h.Wait()

	for _, id := range []string{first.ID, second.ID} {
		got, err := jobs.Get(id)
		require.NoError(t, err)
		assert.Equal(t, job.StatusComplete, got.Status)
	}
}

type blockingExporter struct {
	release chan struct{}
}

func (b blockingExporter) Export(ctx context.Context) (string, error) {
	select {
	case <-b.release:
		return "reports/done.json", nil
	case <-ctx.Done():
		return "", ctx.Err()
	}
}

func (blockingExporter) Report(context.Context, string) ([]byte, error) {
	return nil, core.ErrReportNotFound
}
