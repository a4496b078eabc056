// Package handler exposes the marketplace operations over HTTP. All
// routes require an authenticated session.
package handler

import (
	"context"
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"my-friends/backend/internal/server/middleware"
	"my-friends/backend/internal/task/domain"
	"my-friends/backend/internal/task/service"
	userdomain "my-friends/backend/internal/user/domain"
)

// HTTPHandler serves the task endpoints.
type HTTPHandler struct {
	tasks *service.Service
}

// NewHTTPHandler returns a handler over the task service.
func NewHTTPHandler(tasks *service.Service) *HTTPHandler {
	return &HTTPHandler{tasks: tasks}
}

// Register mounts the task routes on an authenticated group.
func (h *HTTPHandler) Register(authed *gin.RouterGroup) {
	authed.POST("/tasks", h.create)
	authed.GET("/tasks/available", h.listAvailable)
	authed.GET("/tasks/mine", h.listMine)
	authed.GET("/tasks/history", h.history)
	authed.POST("/tasks/:id/accept", h.accept)
	authed.GET("/tasks/:id/payment", h.payment)
	authed.POST("/tasks/:id/payment", h.completePayment)
	authed.GET("/dashboard", h.dashboard)
}

type createRequest struct {
	Title            string  `json:"title" binding:"required"`
	Description      string  `json:"description" binding:"required"`
	ItemCost         float64 `json:"itemCost"`
	ServiceFee       float64 `json:"serviceFee"`
	DeliveryLocation string  `json:"deliveryLocation" binding:"required"`
}

type paymentRequest struct {
	PaymentMethod string `json:"paymentMethod" binding:"required"`
}

func (h *HTTPHandler) create(c *gin.Context) {
	caller := mustUser(c)
	if caller == nil {
		return
	}
	var req createRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "validation", "message": err.Error()})
		return
	}
	task, err := h.tasks.Create(c.Request.Context(), caller, service.CreateInput{
		Title:            req.Title,
		Description:      req.Description,
		ItemCost:         req.ItemCost,
		ServiceFee:       req.ServiceFee,
		DeliveryLocation: req.DeliveryLocation,
	})
	if err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusCreated, gin.H{"task": task})
}

func (h *HTTPHandler) listAvailable(c *gin.Context) {
	h.list(c, h.tasks.ListAvailable)
}

func (h *HTTPHandler) listMine(c *gin.Context) {
	h.list(c, h.tasks.ListMine)
}

func (h *HTTPHandler) history(c *gin.Context) {
	h.list(c, h.tasks.History)
}

func (h *HTTPHandler) accept(c *gin.Context) {
	caller := mustUser(c)
	if caller == nil {
		return
	}
	task, err := h.tasks.Accept(c.Request.Context(), caller, c.Param("id"))
	if err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"task": task})
}

func (h *HTTPHandler) payment(c *gin.Context) {
	caller := mustUser(c)
	if caller == nil {
		return
	}
	task, err := h.tasks.Payment(c.Request.Context(), caller, c.Param("id"))
	if err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"task": task})
}

func (h *HTTPHandler) completePayment(c *gin.Context) {
	caller := mustUser(c)
	if caller == nil {
		return
	}
	var req paymentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "validation", "message": "paymentMethod is required"})
		return
	}
	task, err := h.tasks.CompletePayment(c.Request.Context(), caller, c.Param("id"), req.PaymentMethod)
	if err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"task": task})
}

func (h *HTTPHandler) dashboard(c *gin.Context) {
	caller := mustUser(c)
	if caller == nil {
		return
	}
	stats, err := h.tasks.Dashboard(c.Request.Context(), caller)
	if err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"stats": stats})
}

func (h *HTTPHandler) list(c *gin.Context, fn func(ctx context.Context, u *userdomain.User) ([]domain.Task, error)) {
	caller := mustUser(c)
	if caller == nil {
		return
	}
	tasks, err := fn(c.Request.Context(), caller)
	if err != nil {
		fail(c, err)
		return
	}
	if tasks == nil {
		tasks = []domain.Task{}
	}
	c.JSON(http.StatusOK, gin.H{"tasks": tasks})
}

func mustUser(c *gin.Context) *userdomain.User {
	user, ok := middleware.GetUser(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "unauthenticated"})
		return nil
	}
	return user
}

func fail(c *gin.Context, err error) {
	switch {
	case errors.Is(err, service.ErrTaskNotFound):
		c.JSON(http.StatusNotFound, gin.H{"error": "task_not_found"})
	case errors.Is(err, service.ErrForbidden):
		c.JSON(http.StatusForbidden, gin.H{"error": "forbidden"})
	case errors.Is(err, service.ErrInvalidState):
		c.JSON(http.StatusConflict, gin.H{"error": "invalid_state"})
	case errors.Is(err, service.ErrValidation):
		c.JSON(http.StatusBadRequest, gin.H{"error": "validation", "message": err.Error()})
	default:
		c.JSON(http.StatusInternalServerError, gin.H{"error": "internal"})
	}
}
