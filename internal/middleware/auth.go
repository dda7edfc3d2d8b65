// Package middleware provides gin middleware for the HTTP API.
package middleware

import (
	"crypto/subtle"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/channelboard/youtube-channel-dashboard-go/pkg/logger"
)

const (
	headerAPIKey = "X-API-Key"
	headerAuth   = "Authorization"
	bearerPrefix = "Bearer "
)

// APIKeyAuth validates admin API keys on refresh-trigger endpoints.
type APIKeyAuth struct {
	apiKeys []string
}

// NewAPIKeyAuth creates the middleware. With no keys configured every
// request is rejected.
func NewAPIKeyAuth(apiKeys []string) *APIKeyAuth {
	valid := make([]string, 0, len(apiKeys))
	for _, key := range apiKeys {
		if key != "" {
			valid = append(valid, key)
		}
	}
	return &APIKeyAuth{apiKeys: valid}
}

// Middleware checks the X-API-Key header first, then Authorization: Bearer.
// Invalid or missing keys get 401.
func (a *APIKeyAuth) Middleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		apiKey := extractAPIKey(c.Request)

		if !a.isValidAPIKey(apiKey) {
			logger.Log.Warn("unauthorized request",
				zap.String("path", c.Request.URL.Path),
				zap.String("method", c.Request.Method),
				zap.String("remote_addr", c.ClientIP()),
			)
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "Unauthorized"})
			return
		}

		c.Next()
	}
}

func extractAPIKey(r *http.Request) string {
	if apiKey := r.Header.Get(headerAPIKey); apiKey != "" {
		return apiKey
	}
	if auth := r.Header.Get(headerAuth); strings.HasPrefix(auth, bearerPrefix) {
		return strings.TrimPrefix(auth, bearerPrefix)
	}
	return ""
}

// isValidAPIKey compares in constant time to avoid leaking key material
// through timing.
func (a *APIKeyAuth) isValidAPIKey(apiKey string) bool {
	if apiKey == "" {
		return false
	}
	for _, key := range a.apiKeys {
		if subtle.ConstantTimeCompare([]byte(apiKey), []byte(key)) == 1 {
			return true
		}
	}
	return false
}
