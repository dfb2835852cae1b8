package handlers

import (
	"context"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/gpuindex/gpu-price-index/internal/logger"
	"github.com/gpuindex/gpu-price-index/pkg/models"
)

type IndexReader interface {
	Snapshot(ctx context.Context) (models.IndexSnapshot, error)
}

type IndexHandler struct {
	index  IndexReader
	maxAge time.Duration
}

func NewIndexHandler(index IndexReader, maxAge time.Duration) *IndexHandler {
	if maxAge <= 0 {
		maxAge = time.Minute
	}
	return &IndexHandler{index: index, maxAge: maxAge}
}

// Get godoc
// @Summary Current GPU price indices
// @Description Composite indices, 24h/7d/30d changes and 7-day volatility, rounded to 2 decimals.
// @Tags Index
// @Produce json
// @Success 200 {object} models.IndexSnapshot
// @Failure 500 {object} map[string]string
// @Router /api/index [get]
func (h *IndexHandler) Get(c *gin.Context) {
	ctx, cancel := context.WithTimeout(c.Request.Context(), 15*time.Second)
	defer cancel()

	snapshot, err := h.index.Snapshot(ctx)
	if err != nil {
		logger.ErrorCtxf(ctx, "Failed to compute index: %v", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to compute index"})
		return
	}

	c.Header("Cache-Control", "public, max-age="+strconv.Itoa(int(h.maxAge.Seconds())))
	c.JSON(http.StatusOK, snapshot)
}
