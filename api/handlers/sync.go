package handlers

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/gpuindex/gpu-price-index/internal/logger"
	"github.com/gpuindex/gpu-price-index/internal/pipeline"
	"github.com/gpuindex/gpu-price-index/pkg/models"
)

type SyncRunner interface {
	Run(ctx context.Context, trigger string) (*models.SyncReport, error)
}

type SyncRunLister interface {
	GetRecent(ctx context.Context, limit int) ([]models.SyncRun, error)
}

type SyncHandler struct {
	runner  SyncRunner
	runs    SyncRunLister
	timeout time.Duration
	limits  Limits
}

func NewSyncHandler(runner SyncRunner, runs SyncRunLister, timeout time.Duration, limits Limits) *SyncHandler {
	if timeout <= 0 {
		timeout = 5 * time.Minute
	}
	return &SyncHandler{
		runner:  runner,
		runs:    runs,
		timeout: timeout,
		limits:  Limits{Default: 20, Max: limits.withDefaults().Max},
	}
}

type SyncResponse struct {
	Success      bool                 `json:"success"`
	Stats        models.SyncStats     `json:"stats"`
	Updates      []models.PriceUpdate `json:"updates"`
	NotFoundGPUs []string             `json:"notFoundGPUs"`
	FailedGPUs   []string             `json:"failedGPUs,omitempty"`
}

// Trigger godoc
// @Summary Run a price sync
// @Description Fetches every provider, merges by priority and refreshes stored prices.
// @Tags Sync
// @Produce json
// @Security BearerAuth
// @Success 200 {object} SyncResponse
// @Failure 401 {object} map[string]string "Missing or invalid bearer token"
// @Failure 409 {object} map[string]interface{} "A sync is already running"
// @Failure 500 {object} map[string]interface{} "Secret not configured or catalog unavailable"
// @Router /api/sync [post]
func (h *SyncHandler) Trigger(c *gin.Context) {
	ctx, cancel := context.WithTimeout(c.Request.Context(), h.timeout)
	defer cancel()

	report, err := h.runner.Run(ctx, pipeline.TriggerManual)
	if err != nil {
		if errors.Is(err, pipeline.ErrSyncInProgress) {
			c.JSON(http.StatusConflict, gin.H{"success": false, "error": err.Error()})
			return
		}
		logger.ErrorCtxf(ctx, "Manual sync failed: %v", err)
		c.JSON(http.StatusInternalServerError, gin.H{"success": false, "error": err.Error()})
		return
	}

	c.JSON(http.StatusOK, SyncResponse{
		Success:      true,
		Stats:        report.Stats,
		Updates:      report.Updates,
		NotFoundGPUs: report.NotFoundGPUs,
		FailedGPUs:   report.FailedGPUs,
	})
}

// Runs godoc
// @Summary Recent sync runs
// @Tags Sync
// @Produce json
// @Param limit query int false "Maximum rows"
// @Success 200 {object} map[string]interface{}
// @Router /api/sync/runs [get]
func (h *SyncHandler) Runs(c *gin.Context) {
	ctx, cancel := context.WithTimeout(c.Request.Context(), 5*time.Second)
	defer cancel()

	runs, err := h.runs.GetRecent(ctx, parseLimit(c, h.limits))
	if err != nil {
		logger.ErrorCtxf(ctx, "Failed to fetch sync runs: %v", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to fetch sync runs"})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"data":  runs,
		"count": len(runs),
	})
}
