package handler

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/kevinluu/screenline/internal/api/middleware"
	"github.com/kevinluu/screenline/internal/pipeline"
	"github.com/kevinluu/screenline/internal/queue"
	"github.com/kevinluu/screenline/internal/repository"
)

// CandidateHandler exposes candidate records and the analysis trigger.
type CandidateHandler struct {
	candidates *repository.CandidateRepository
	activity   *repository.ActivityLogRepository
	runtime    *pipeline.Runtime
}

// NewCandidateHandler creates a new candidate handler.
func NewCandidateHandler(candidates *repository.CandidateRepository, activity *repository.ActivityLogRepository, runtime *pipeline.Runtime) *CandidateHandler {
	return &CandidateHandler{candidates: candidates, activity: activity, runtime: runtime}
}

// GetCandidate returns a candidate record by ID.
func (h *CandidateHandler) GetCandidate(c *gin.Context) {
	log := middleware.GetLogger(c)
	id := c.Param("id")

	candidate, err := h.candidates.GetByID(c.Request.Context(), id)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "candidate not found"})
			return
		}
		log.WithError(err).Error("Failed to load candidate")
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": "store unavailable"})
		return
	}

	c.JSON(http.StatusOK, candidate)
}

// ListActivity returns the most recent audit entries for a candidate.
func (h *CandidateHandler) ListActivity(c *gin.Context) {
	log := middleware.GetLogger(c)
	id := c.Param("id")

	entries, err := h.activity.ListByCandidate(c.Request.Context(), id, 50)
	if err != nil {
		log.WithError(err).Error("Failed to load activity log")
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": "store unavailable"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"activity": entries})
}

type analyzeRequest struct {
	CVPath string `json:"cv_path"`
	JobID  string `json:"job_id"`
}

// Analyze enqueues a CV analysis task for the candidate. The CV path and
// job default to what is stored on the candidate record.
func (h *CandidateHandler) Analyze(c *gin.Context) {
	log := middleware.GetLogger(c)
	id := c.Param("id")

	// The body is optional; everything defaults to the stored record.
	var req analyzeRequest
	if c.Request.ContentLength > 0 {
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body"})
			return
		}
	}

	candidate, err := h.candidates.GetByID(c.Request.Context(), id)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "candidate not found"})
			return
		}
		log.WithError(err).Error("Failed to load candidate")
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": "store unavailable"})
		return
	}

	cvPath := req.CVPath
	if cvPath == "" {
		cvPath = candidate.CVPath
	}
	if cvPath == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "candidate has no CV on file and no cv_path was given"})
		return
	}
	jobID := req.JobID
	if jobID == "" {
		jobID = candidate.JobID
	}

	rec, err := h.runtime.EnqueueAnalysis(c.Request.Context(), id, cvPath, jobID)
	if err != nil {
		log.WithError(err).Error("Failed to enqueue analysis task")
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": "queue unavailable"})
		return
	}

	log.WithField("task_id", rec.Task.TaskID).Info("Analysis task enqueued")
	c.JSON(http.StatusAccepted, gin.H{
		"task_id": rec.Task.TaskID,
		"state":   rec.State,
	})
}

// GetTask returns the queue-side view of an analysis task.
func (h *CandidateHandler) GetTask(c *gin.Context) {
	log := middleware.GetLogger(c)
	id := c.Param("id")

	rec, err := h.runtime.Queue().GetTask(c.Request.Context(), id)
	if err != nil {
		if errors.Is(err, queue.ErrTaskNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "task not found"})
			return
		}
		log.WithError(err).Error("Failed to load task")
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": "queue unavailable"})
		return
	}

	c.JSON(http.StatusOK, rec)
}
