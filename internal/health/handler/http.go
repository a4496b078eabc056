// Package handler exposes the liveness endpoint.
package handler

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"
)

// Checker verifies one dependency end to end.
type Checker interface {
	HealthCheck(ctx context.Context) error
}

// HTTPHandler serves GET /healthz.
type HTTPHandler struct {
	checkers map[string]Checker
}

// NewHTTPHandler returns a handler running the named checkers.
func NewHTTPHandler(checkers map[string]Checker) *HTTPHandler {
	return &HTTPHandler{checkers: checkers}
}

// Register mounts the health route.
func (h *HTTPHandler) Register(r gin.IRoutes) {
	r.GET("/healthz", h.healthz)
}

func (h *HTTPHandler) healthz(c *gin.Context) {
	results := gin.H{}
	healthy := true
	for name, checker := range h.checkers {
		if err := checker.HealthCheck(c.Request.Context()); err != nil {
			results[name] = err.Error()
			healthy = false
		} else {
			results[name] = "ok"
		}
	}
	status := http.StatusOK
	if !healthy {
		status = http.StatusServiceUnavailable
	}
	c.JSON(status, gin.H{"status": statusWord(healthy), "checks": results})
}

func statusWord(healthy bool) string {
	if healthy {
		return "ok"
	}
	return "degraded"
}
