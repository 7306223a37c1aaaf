package api

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/jonesrussell/linkreach/internal/database"
	"github.com/jonesrussell/linkreach/internal/domain"
	"github.com/jonesrussell/linkreach/internal/export"
	"github.com/jonesrussell/linkreach/internal/ingest"
	"github.com/jonesrussell/linkreach/internal/logger"
	"github.com/jonesrussell/linkreach/internal/registry"
)

const (
	defaultLimit  = 50
	defaultOffset = 0
	recentDays    = 7
)

// JobStarter launches a job's background run. The API never runs jobs
// inline; the runtime owning the registry does.
type JobStarter interface {
	Start(job *domain.Job) error
}

// Handlers holds the API's collaborators.
type Handlers struct {
	jobs     database.JobRepositoryInterface
	targets  database.TargetRepositoryInterface
	counters database.CounterRepositoryInterface
	cancels  database.CancelRepositoryInterface
	registry *registry.Registry
	starter  JobStarter
	logger   logger.Interface
}

// HandlersParams bundles the handler dependencies.
type HandlersParams struct {
	Jobs     database.JobRepositoryInterface
	Targets  database.TargetRepositoryInterface
	Counters database.CounterRepositoryInterface
	Cancels  database.CancelRepositoryInterface
	Registry *registry.Registry
	Starter  JobStarter
	Logger   logger.Interface
}

// NewHandlers creates the API handlers.
func NewHandlers(p HandlersParams) *Handlers {
	return &Handlers{
		jobs:     p.Jobs,
		targets:  p.Targets,
		counters: p.Counters,
		cancels:  p.Cancels,
		registry: p.Registry,
		starter:  p.Starter,
		logger:   p.Logger,
	}
}

// ListJobs handles GET /api/v1/jobs
func (h *Handlers) ListJobs(c *gin.Context) {
	status := c.Query("status")

	limit, err := strconv.Atoi(c.DefaultQuery("limit", strconv.Itoa(defaultLimit)))
	if err != nil || limit <= 0 {
		limit = defaultLimit
	}

	offset, err := strconv.Atoi(c.DefaultQuery("offset", strconv.Itoa(defaultOffset)))
	if err != nil || offset < 0 {
		offset = defaultOffset
	}

	jobs, err := h.jobs.List(c.Request.Context(), status, limit, offset)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{
			"error": "Failed to retrieve jobs",
		})
		return
	}

	total, err := h.jobs.Count(c.Request.Context(), status)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{
			"error": "Failed to get total count",
		})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"jobs":  jobs,
		"total": total,
	})
}

// CreateJob handles POST /api/v1/jobs
func (h *Handlers) CreateJob(c *gin.Context) {
	var req CreateJobRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"error": "Invalid request: " + err.Error(),
		})
		return
	}

	if !domain.ValidMode(req.Mode) {
		c.JSON(http.StatusBadRequest, gin.H{
			"error": "Invalid mode: must be connect, message or both",
		})
		return
	}

	job := &domain.Job{
		ID:         uuid.New().String(),
		Mode:       req.Mode,
		Status:     domain.JobStatusPending,
		LiveStatus: "queued",
		DryRun:     req.DryRun,
	}

	if err := h.jobs.Create(c.Request.Context(), job); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{
			"error": "Failed to create job: " + err.Error(),
		})
		return
	}

	if err := h.starter.Start(job); err != nil {
		c.JSON(http.StatusConflict, gin.H{
			"error": "Failed to start job: " + err.Error(),
		})
		return
	}

	c.JSON(http.StatusCreated, job)
}

// GetJob handles GET /api/v1/jobs/:id
func (h *Handlers) GetJob(c *gin.Context) {
	id := c.Param("id")

	if id == "" || id == "undefined" {
		c.JSON(http.StatusBadRequest, gin.H{
			"error": "Invalid job ID",
		})
		return
	}

	job, err := h.jobs.GetByID(c.Request.Context(), id)
	if err != nil {
		c.JSON(http.StatusNotFound, gin.H{
			"error": "Job not found",
		})
		return
	}

	c.JSON(http.StatusOK, job)
}

// CancelJob handles POST /api/v1/jobs/:id/cancel
func (h *Handlers) CancelJob(c *gin.Context) {
	id := c.Param("id")

	job, err := h.jobs.GetByID(c.Request.Context(), id)
	if err != nil {
		c.JSON(http.StatusNotFound, gin.H{
			"error": "Job not found",
		})
		return
	}

	if job.Terminal() {
		c.JSON(http.StatusBadRequest, gin.H{
			"error": "Job already finished",
		})
		return
	}

	// Append-only signal; the owning runner observes it between targets.
	if err := h.cancels.Request(c.Request.Context(), id); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{
			"error": "Failed to request cancellation",
		})
		return
	}

	// Also cancel the in-process context when this instance owns the run.
	if handle, ok := h.registry.Lookup(id); ok {
		handle.Cancel()
	}

	c.JSON(http.StatusAccepted, gin.H{
		"message": "Cancellation requested",
		"job_id":  id,
	})
}

// ImportTargets handles POST /api/v1/targets/import
func (h *Handlers) ImportTargets(c *gin.Context) {
	var req ImportTargetsRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"error": "Invalid request: " + err.Error(),
		})
		return
	}

	var valid, invalid []string
	for _, raw := range req.URLs {
		normalized, err := ingest.NormalizeURL(raw)
		if err != nil {
			invalid = append(invalid, raw)
			continue
		}
		valid = append(valid, normalized)
	}

	resp := ImportTargetsResponse{Invalid: invalid}

	if len(valid) > 0 {
		result, err := h.targets.Import(c.Request.Context(), valid)
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{
				"error": "Failed to import targets",
			})
			return
		}
		resp.Imported = result.Imported
		resp.Skipped = result.Skipped
		resp.Total = result.Total
	}

	c.JSON(http.StatusOK, resp)
}

// TargetSummary handles GET /api/v1/targets/summary
func (h *Handlers) TargetSummary(c *gin.Context) {
	summary, err := h.targets.Summary(c.Request.Context())
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{
			"error": "Failed to summarize targets",
		})
		return
	}

	c.JSON(http.StatusOK, summary)
}

// ExportTargets handles GET /api/v1/targets/export
func (h *Handlers) ExportTargets(c *gin.Context) {
	c.Header("Content-Type", "text/csv")
	c.Header("Content-Disposition", `attachment; filename="targets.csv"`)

	exporter := export.NewExporter(h.targets)
	if _, err := exporter.Write(c.Request.Context(), c.Writer); err != nil {
		h.logger.Error("Failed to export targets", "error", err)
		c.Status(http.StatusInternalServerError)
	}
}

// Stats handles GET /api/v1/stats
func (h *Handlers) Stats(c *gin.Context) {
	stats, err := h.counters.RecentStats(c.Request.Context(), recentDays)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{
			"error": "Failed to retrieve stats",
		})
		return
	}

	c.JSON(http.StatusOK, gin.H{"days": stats})
}
