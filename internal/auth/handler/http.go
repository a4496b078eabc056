// Package handler exposes the authentication flows over HTTP.
package handler

import (
	"errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"my-friends/backend/internal/auth/service"
	"my-friends/backend/internal/otp"
	"my-friends/backend/internal/server/middleware"
	userdomain "my-friends/backend/internal/user/domain"
)

// HTTPHandler serves the auth endpoints.
type HTTPHandler struct {
	auth      *service.Service
	cookieTTL time.Duration
}

// NewHTTPHandler returns a handler over the auth service. cookieTTL sets
// the advisory Max-Age on the session cookie.
func NewHTTPHandler(auth *service.Service, cookieTTL time.Duration) *HTTPHandler {
	return &HTTPHandler{auth: auth, cookieTTL: cookieTTL}
}

// Register mounts the auth routes. authed must already carry RequireUser.
func (h *HTTPHandler) Register(public, authed *gin.RouterGroup) {
	public.POST("/auth/login", h.startLogin)
	public.POST("/auth/login/verify", h.verifyLogin)
	public.POST("/auth/register/start", h.startRegistration)
	public.POST("/auth/register/verify", h.verifyRegistration)
	public.POST("/auth/register/complete", h.completeRegistration)
	authed.POST("/auth/logout", h.logout)
	authed.GET("/me", h.me)
}

type phoneRequest struct {
	Phone string `json:"phone" binding:"required"`
}

type verifyRequest struct {
	Phone string `json:"phone" binding:"required"`
	OTP   string `json:"otp" binding:"required"`
}

type registerStartRequest struct {
	Phone string `json:"phone" binding:"required"`
	Role  string `json:"role" binding:"required"`
}

type registerCompleteRequest struct {
	Ticket   string `json:"ticket" binding:"required"`
	Name     string `json:"name" binding:"required"`
	Location string `json:"location" binding:"required"`
}

func (h *HTTPHandler) startLogin(c *gin.Context) {
	var req phoneRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "phone is required")
		return
	}
	if err := h.auth.StartLogin(c.Request.Context(), req.Phone); err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "OTP sent"})
}

func (h *HTTPHandler) verifyLogin(c *gin.Context) {
	var req verifyRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "phone and otp are required")
		return
	}
	user, token, err := h.auth.VerifyLogin(c.Request.Context(), req.Phone, req.OTP)
	if err != nil {
		h.fail(c, err)
		return
	}
	h.setSessionCookie(c, token)
	c.JSON(http.StatusOK, gin.H{"user": user})
}

func (h *HTTPHandler) startRegistration(c *gin.Context) {
	var req registerStartRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "phone and role are required")
		return
	}
	role, err := userdomain.ParseRole(req.Role)
	if err != nil {
		badRequest(c, err.Error())
		return
	}
	if err := h.auth.StartRegistration(c.Request.Context(), req.Phone, role); err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "OTP sent"})
}

func (h *HTTPHandler) verifyRegistration(c *gin.Context) {
	var req verifyRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "phone and otp are required")
		return
	}
	ticket, err := h.auth.VerifyRegistration(c.Request.Context(), req.Phone, req.OTP)
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"ticket": ticket})
}

func (h *HTTPHandler) completeRegistration(c *gin.Context) {
	var req registerCompleteRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "ticket, name and location are required")
		return
	}
	user, token, err := h.auth.CompleteRegistration(c.Request.Context(), req.Ticket, req.Name, req.Location)
	if err != nil {
		h.fail(c, err)
		return
	}
	h.setSessionCookie(c, token)
	c.JSON(http.StatusOK, gin.H{"user": user})
}

func (h *HTTPHandler) logout(c *gin.Context) {
	if token, ok := middleware.GetToken(c); ok {
		h.auth.Logout(token)
	}
	c.SetCookie(middleware.SessionCookie, "", -1, "/", "", false, true)
	c.JSON(http.StatusOK, gin.H{"message": "logged out"})
}

func (h *HTTPHandler) me(c *gin.Context) {
	user, ok := middleware.GetUser(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "unauthenticated"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"user": user})
}

func (h *HTTPHandler) setSessionCookie(c *gin.Context, token string) {
	c.SetCookie(middleware.SessionCookie, token, int(h.cookieTTL.Seconds()), "/", "", false, true)
}

// fail maps service errors to HTTP. Phone existence is deliberately
// disclosed (404 vs 409) so the UI can steer between login and signup.
func (h *HTTPHandler) fail(c *gin.Context, err error) {
	switch {
	case errors.Is(err, service.ErrUserNotFound):
		c.JSON(http.StatusNotFound, gin.H{"error": "user_not_found"})
	case errors.Is(err, service.ErrPhoneAlreadyRegistered):
		c.JSON(http.StatusConflict, gin.H{"error": "phone_already_registered"})
	case errors.Is(err, otp.ErrNotFound):
		c.JSON(http.StatusNotFound, gin.H{"error": "otp_not_found"})
	case errors.Is(err, otp.ErrExpired):
		c.JSON(http.StatusGone, gin.H{"error": "otp_expired"})
	case errors.Is(err, otp.ErrMismatch):
		c.JSON(http.StatusUnauthorized, gin.H{"error": "otp_mismatch"})
	case errors.Is(err, service.ErrInvalidTicket):
		c.JSON(http.StatusUnauthorized, gin.H{"error": "invalid_ticket"})
	case errors.Is(err, service.ErrWrongFlow):
		badRequest(c, err.Error())
	default:
		c.JSON(http.StatusInternalServerError, gin.H{"error": "internal"})
	}
}

func badRequest(c *gin.Context, msg string) {
	c.JSON(http.StatusBadRequest, gin.H{"error": "validation", "message": msg})
}
