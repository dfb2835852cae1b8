package handlers

import (
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
)

// Limits bounds the page sizes list endpoints accept.
type Limits struct {
	Default int
	Max     int
}

func (l Limits) withDefaults() Limits {
	if l.Default <= 0 {
		l.Default = 100
	}
	if l.Max <= 0 {
		l.Max = 1000
	}
	if l.Default > l.Max {
		l.Default = l.Max
	}
	return l
}

func parseTimeRange(c *gin.Context, now time.Time, defaultRange time.Duration) (time.Time, time.Time) {
	to := now
	from := to.Add(-defaultRange)

	if fromStr := c.Query("from"); fromStr != "" {
		if parsed, err := time.Parse(time.RFC3339, fromStr); err == nil {
			from = parsed
		}
	}

	if toStr := c.Query("to"); toStr != "" {
		if parsed, err := time.Parse(time.RFC3339, toStr); err == nil {
			to = parsed
		}
	}

	// Relative ranges such as "1h", "24h" or "7d" count back from "to".
	if rangeStr := c.Query("range"); rangeStr != "" {
		from = to.Add(-parseDuration(rangeStr, defaultRange))
	}

	return from, to
}

func parseLimit(c *gin.Context, limits Limits) int {
	limit := limits.Default
	if limitStr := c.Query("limit"); limitStr != "" {
		if parsed, err := strconv.Atoi(limitStr); err == nil && parsed > 0 {
			limit = parsed
			if limit > limits.Max {
				limit = limits.Max
			}
		}
	}
	return limit
}

func parseDuration(s string, fallback time.Duration) time.Duration {
	if len(s) < 2 {
		return fallback
	}

	unit := s[len(s)-1]
	value, err := strconv.Atoi(s[:len(s)-1])
	if err != nil || value <= 0 {
		return fallback
	}

	switch unit {
	case 'm':
		return time.Duration(value) * time.Minute
	case 'h':
		return time.Duration(value) * time.Hour
	case 'd':
		return time.Duration(value) * 24 * time.Hour
	default:
		return fallback
	}
}

func parseID(c *gin.Context) (int64, bool) {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil || id <= 0 {
		return 0, false
	}
	return id, true
}
