package middleware

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/gpuindex/gpu-price-index/internal/auth"
	"github.com/gpuindex/gpu-price-index/internal/logger"
)

const AuthorizationHeader = "Authorization"

// BearerAuthorizer checks an Authorization header value.
type BearerAuthorizer interface {
	AuthorizeBearer(header string) error
}

// SyncAuth guards the sync trigger. A missing server secret is a
// configuration fault and answers 500 rather than 401.
func SyncAuth(authorizer BearerAuthorizer) gin.HandlerFunc {
	return func(c *gin.Context) {
		err := authorizer.AuthorizeBearer(c.GetHeader(AuthorizationHeader))
		if err == nil {
			c.Next()
			return
		}

		switch {
		case errors.Is(err, auth.ErrNotConfigured):
			logger.WithField("path", c.FullPath()).Error("Sync secret is not configured")
			c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{
				"error": "sync secret not configured",
			})
		case errors.Is(err, auth.ErrMissingToken):
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{
				"error": "missing bearer token",
			})
		case errors.Is(err, auth.ErrExpiredToken):
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{
				"error": "token expired",
			})
		default:
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{
				"error": "unauthorized",
			})
		}
	}
}
