package handlers

import (
	"context"
	"errors"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/gpuindex/gpu-price-index/internal/index"
	"github.com/gpuindex/gpu-price-index/internal/logger"
	"github.com/gpuindex/gpu-price-index/pkg/database/queries"
	"github.com/gpuindex/gpu-price-index/pkg/models"
)

const (
	defaultHistoryRange = 7 * 24 * time.Hour
	defaultAverageDays  = 7
	maxAverageDays      = 30
)

type GPUReader interface {
	GetAll(ctx context.Context, brand models.Brand) ([]models.GPU, error)
	GetByID(ctx context.Context, id int64) (*models.GPU, error)
}

type PriceHistoryReader interface {
	GetByGPU(ctx context.Context, gpuID int64, from, to time.Time, limit int) ([]models.PriceObservation, error)
}

type GPUHandler struct {
	gpus    GPUReader
	history PriceHistoryReader
	limits  Limits
	now     func() time.Time
}

func NewGPUHandler(gpus GPUReader, history PriceHistoryReader, limits Limits) *GPUHandler {
	return &GPUHandler{
		gpus:    gpus,
		history: history,
		limits:  limits.withDefaults(),
		now:     time.Now,
	}
}

func parseBrand(raw string) (models.Brand, bool) {
	for _, b := range []models.Brand{models.BrandNVIDIA, models.BrandAMD, models.BrandOther} {
		if strings.EqualFold(raw, string(b)) {
			return b, true
		}
	}
	return "", false
}

// List godoc
// @Summary List tracked GPUs
// @Tags GPUs
// @Produce json
// @Param brand query string false "NVIDIA, AMD or other"
// @Success 200 {object} map[string]interface{}
// @Failure 400 {object} map[string]string
// @Router /api/gpus [get]
func (h *GPUHandler) List(c *gin.Context) {
	var brand models.Brand
	if raw := c.Query("brand"); raw != "" {
		b, ok := parseBrand(raw)
		if !ok {
			c.JSON(http.StatusBadRequest, gin.H{"error": "unknown brand"})
			return
		}
		brand = b
	}

	ctx, cancel := context.WithTimeout(c.Request.Context(), 10*time.Second)
	defer cancel()

	gpus, err := h.gpus.GetAll(ctx, brand)
	if err != nil {
		logger.ErrorCtxf(ctx, "Failed to list GPUs: %v", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to fetch gpus"})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"gpus":  gpus,
		"count": len(gpus),
	})
}

// lookup writes the error response itself when it returns nil.
func (h *GPUHandler) lookup(ctx context.Context, c *gin.Context) *models.GPU {
	id, ok := parseID(c)
	if !ok {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid gpu id"})
		return nil
	}

	gpu, err := h.gpus.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, queries.ErrGPUNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "gpu not found"})
			return nil
		}
		logger.ErrorCtxf(ctx, "Failed to fetch GPU %d: %v", id, err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to fetch gpu"})
		return nil
	}
	return gpu
}

// Get godoc
// @Summary Get one GPU
// @Tags GPUs
// @Produce json
// @Param id path int true "GPU ID"
// @Success 200 {object} models.GPU
// @Failure 404 {object} map[string]string
// @Router /api/gpus/{id} [get]
func (h *GPUHandler) Get(c *gin.Context) {
	ctx, cancel := context.WithTimeout(c.Request.Context(), 5*time.Second)
	defer cancel()

	if gpu := h.lookup(ctx, c); gpu != nil {
		c.JSON(http.StatusOK, gpu)
	}
}

// History godoc
// @Summary Price observations for one GPU
// @Tags GPUs
// @Produce json
// @Param id path int true "GPU ID"
// @Param range query string false "Relative range such as 24h or 7d"
// @Param from query string false "RFC3339 start"
// @Param to query string false "RFC3339 end"
// @Param limit query int false "Maximum rows"
// @Success 200 {object} map[string]interface{}
// @Failure 404 {object} map[string]string
// @Router /api/gpus/{id}/history [get]
func (h *GPUHandler) History(c *gin.Context) {
	ctx, cancel := context.WithTimeout(c.Request.Context(), 10*time.Second)
	defer cancel()

	gpu := h.lookup(ctx, c)
	if gpu == nil {
		return
	}

	from, to := parseTimeRange(c, h.now(), defaultHistoryRange)
	limit := parseLimit(c, h.limits)

	history, err := h.history.GetByGPU(ctx, gpu.ID, from, to, limit)
	if err != nil {
		logger.ErrorCtxf(ctx, "Failed to fetch history for GPU %d: %v", gpu.ID, err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to fetch price history"})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"gpu_id": gpu.ID,
		"from":   from,
		"to":     to,
		"data":   history,
		"count":  len(history),
	})
}

// Average godoc
// @Summary Trailing average price for one GPU
// @Tags GPUs
// @Produce json
// @Param id path int true "GPU ID"
// @Param days query int false "Window in days, 1 to 30"
// @Success 200 {object} map[string]interface{}
// @Failure 400 {object} map[string]string
// @Failure 404 {object} map[string]string
// @Router /api/gpus/{id}/average [get]
func (h *GPUHandler) Average(c *gin.Context) {
	days := defaultAverageDays
	if raw := c.Query("days"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n < 1 || n > maxAverageDays {
			c.JSON(http.StatusBadRequest, gin.H{"error": "days must be between 1 and 30"})
			return
		}
		days = n
	}

	ctx, cancel := context.WithTimeout(c.Request.Context(), 10*time.Second)
	defer cancel()

	gpu := h.lookup(ctx, c)
	if gpu == nil {
		return
	}

	now := h.now()
	window := time.Duration(days) * index.Day
	history, err := h.history.GetByGPU(ctx, gpu.ID, now.Add(-window), now, h.limits.Max)
	if err != nil {
		logger.ErrorCtxf(ctx, "Failed to fetch history for GPU %d: %v", gpu.ID, err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to fetch price history"})
		return
	}

	avg, samples := index.TrailingAverage(history, now, window)

	c.JSON(http.StatusOK, gin.H{
		"gpu_id":        gpu.ID,
		"gpu":           gpu.Label(),
		"days":          days,
		"average_price": avg,
		"samples":       samples,
		"current_price": gpu.CurrentPrice,
	})
}
