package api

import (
	"context"
	"fmt"
	"net/http"
	"sync"
	"time"

	"github.com/newthinker/signalpro/internal/api/job"
	"github.com/newthinker/signalpro/internal/api/response"
	"github.com/newthinker/signalpro/internal/core"
	"github.com/newthinker/signalpro/internal/logger"
	"go.uber.org/zap"
)

const exportJobType = "export"

// Exporter is satisfied by *export.Exporter.
type Exporter interface {
	Export(ctx context.Context) (string, error)
	Report(ctx context.Context, path string) ([]byte, error)
}

// ExportsHandler runs snapshot exports in the background and reports on them.
type ExportsHandler struct {
	exporter Exporter
	jobs     *job.Store
	timeout  time.Duration
	logger   *zap.Logger
	wg       sync.WaitGroup
}

// NewExportsHandler creates an exports handler. Each export gets timeout to
// finish.
func NewExportsHandler(exporter Exporter, jobs *job.Store, timeout time.Duration, log *zap.Logger) *ExportsHandler {
	return &ExportsHandler{
		exporter: exporter,
		jobs:     jobs,
		timeout:  timeout,
		logger:   logger.OrNop(log),
	}
}

// Create starts an export and returns 202 with the pending job.
func (h *ExportsHandler) Create(w http.ResponseWriter, r *http.Request) {
	j := h.jobs.Create(exportJobType)

	h.wg.Add(1)
	go h.run(j.ID)

	w.Header().Set("Location", "/api/v1/exports/"+j.ID)
	response.JSON(w, http.StatusAccepted, j)
}

func (h *ExportsHandler) run(id string) {
	defer h.wg.Done()

	// The request context ends with the 202, so the export gets its own.
	ctx, cancel := context.WithTimeout(context.Background(), h.timeout)
	defer cancel()

	if err := h.jobs.Update(id, func(j *job.Job) { j.Status = job.StatusRunning }); err != nil {
		h.logger.Warn("export job lost before start", zap.String("job", id), zap.Error(err))
	}

	path, err := h.exporter.Export(ctx)
	if err != nil {
		h.logger.Warn("export job failed", zap.String("job", id), zap.Error(err))
	}
	updateErr := h.jobs.Update(id, func(j *job.Job) {
		if err != nil {
			j.Status = job.StatusFailed
			j.Error = err.Error()
			return
		}
		j.Status = job.StatusComplete
		j.Result = map[string]string{"path": path}
	})
	if updateErr != nil {
		h.logger.Warn("export job lost before completion",
			zap.String("job", id), zap.String("path", path), zap.Error(updateErr))
	}
}

// Get returns one export job.
func (h *ExportsHandler) Get(w http.ResponseWriter, r *http.Request) {
	j, err := h.jobs.Get(r.PathValue("id"))
	if err != nil {
		response.Error(w, err)
		return
	}
	response.JSON(w, http.StatusOK, j)
}

// Report streams the archived report of a completed export job.
func (h *ExportsHandler) Report(w http.ResponseWriter, r *http.Request) {
	j, err := h.jobs.Get(r.PathValue("id"))
	if err != nil {
		response.Error(w, err)
		return
	}
	result, _ := j.Result.(map[string]string)
	if j.Status != job.StatusComplete || result["path"] == "" {
		response.Error(w, core.WrapError(core.ErrJobNotFinished, fmt.Errorf("job %s is %s", j.ID, j.Status)))
		return
	}

	data, err := h.exporter.Report(r.Context(), result["path"])
	if err != nil {
		response.Error(w, err)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	w.Write(data)
}

// List returns known export jobs, newest first.
func (h *ExportsHandler) List(w http.ResponseWriter, r *http.Request) {
	jobs := h.jobs.List()
	response.JSON(w, http.StatusOK, map[string]any{
		"jobs":  jobs,
		"count": len(jobs),
	})
}

// Wait blocks until running exports finish.
func (h *ExportsHandler) Wait() {
	h.wg.Wait()
}
