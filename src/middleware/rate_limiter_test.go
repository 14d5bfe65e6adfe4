package middleware

import (
	"net/http"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
)

func TestLoginRateLimit(t *testing.T) {
	gin.SetMode(gin.TestMode)
	router := gin.New()
	router.POST("/auth/login", LoginRateLimit(RateLimitConfig{RequestsPerMinute: 3, Burst: 2}), okHandler)

	// Burst allows the first two attempts from one IP
	for i := 0; i < 2; i++ {
		w := performRequest(router, http.MethodPost, "/auth/login", nil)
		assert.Equal(t, http.StatusOK, w.Code, "attempt %d", i+1)
	}

	w := performRequest(router, http.MethodPost, "/auth/login", nil)
	assert.Equal(t, http.StatusTooManyRequests, w.Code)
	assert.Contains(t, w.Body.String(), "rate_limit_exceeded")
	assert.Contains(t, w.Body.String(), "retry_after")
}

func TestLoginRateLimitDefaults(t *testing.T) {
	gin.SetMode(gin.TestMode)
	router := gin.New()
	router.POST("/auth/login", LoginRateLimit(RateLimitConfig{}), okHandler)

	w := performRequest(router, http.MethodPost, "/auth/login", nil)
	assert.Equal(t, http.StatusOK, w.Code)

	w = performRequest(router, http.MethodPost, "/auth/login", nil)
	assert.Equal(t, http.StatusTooManyRequests, w.Code)
}
