// Package handler exposes GET /dev/otp for automated tests and local
// development. The route is mounted only when dev OTP mode is enabled;
// config refuses that flag in production.
package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"my-friends/backend/internal/devotp"
)

// HTTPHandler serves the dev OTP peek endpoint.
type HTTPHandler struct {
	store devotp.Store
}

// NewHTTPHandler returns a handler over the dev OTP store.
func NewHTTPHandler(store devotp.Store) *HTTPHandler {
	return &HTTPHandler{store: store}
}

// Register mounts the dev route.
func (h *HTTPHandler) Register(r gin.IRoutes) {
	r.GET("/dev/otp", h.get)
}

func (h *HTTPHandler) get(c *gin.Context) {
	phone := c.Query("phone")
	if phone == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "validation", "message": "phone is required"})
		return
	}
	code, ok := h.store.Get(phone)
	if !ok {
		c.JSON(http.StatusNotFound, gin.H{"error": "otp_not_found"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"phone": phone, "otp": code})
}
