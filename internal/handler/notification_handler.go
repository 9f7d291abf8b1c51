package handler

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/uni-iro/mou-registry-api/internal/dto"

	"github.com/uni-iro/mou-registry-api/internal/models"
	appErrors "github.com/uni-iro/mou-registry-api/pkg/errors"
	"github.com/uni-iro/mou-registry-api/pkg/response"
)

type notificationService interface {
	List(ctx context.Context, userID string) ([]models.Notification, error)
	MarkRead(ctx context.Context, id string) error
	Clear(ctx context.Context, userID string) error
	NotifyExpiry(ctx context.Context, mouID string) error
	ScanExpiring(ctx context.Context, now time.Time) (int, error)
}

// NotificationHandler serves the caller's notification feed.
type NotificationHandler struct {
	service notificationService
}

// NewNotificationHandler constructs the handler.
func NewNotificationHandler(service notificationService) *NotificationHandler {
	return &NotificationHandler{service: service}
}

// List godoc
// @Summary List notifications for the caller
// @Tags Notifications
// @Produce json
// @Success 200 {object} response.Envelope
// @Router /notifications [get]
func (h *NotificationHandler) List(c *gin.Context) {
	claims := claimsFromContext(c)
	if claims == nil {
		response.Error(c, appErrors.ErrUnauthorized)
		return
	}

	notifications, err := h.service.List(c.Request.Context(), claims.UserID)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.JSON(c, http.StatusOK, notifications, nil)
}

// MarkRead godoc
// @Summary Mark a notification as read
// @Tags Notifications
// @Produce json
// @Param id path string true "Notification ID"
// @Success 204 {object} response.Envelope
// @Router /notifications/{id}/read [post]
func (h *NotificationHandler) MarkRead(c *gin.Context) {
	claims := claimsFromContext(c)
	if claims == nil {
		response.Error(c, appErrors.ErrUnauthorized)
		return
	}

	if err := h.service.MarkRead(c.Request.Context(), c.Param("id")); err != nil {
		response.Error(c, err)
		return
	}

	response.NoContent(c)
}

// Notify godoc
// @Summary Raise an expiry reminder for a submission
// @Tags Notifications
// @Accept json
// @Produce json
// @Param request body dto.NotifyExpiryRequest true "Submission reference"
// @Success 204 {object} response.Envelope
// @Router /notifications/notify [post]
func (h *NotificationHandler) Notify(c *gin.Context) {
	claims := claimsFromContext(c)
	if claims == nil {
		response.Error(c, appErrors.ErrUnauthorized)
		return
	}

	var req dto.NotifyExpiryRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "mouId is required"))
		return
	}

	if err := h.service.NotifyExpiry(c.Request.Context(), req.MOUID); err != nil {
		response.Error(c, err)
		return
	}

	response.NoContent(c)
}

// Scan godoc
// @Summary Run the expiry scan immediately
// @Tags Notifications
// @Produce json
// @Success 200 {object} response.Envelope
// @Router /notifications/scan [post]
func (h *NotificationHandler) Scan(c *gin.Context) {
	claims := claimsFromContext(c)
	if claims == nil {
		response.Error(c, appErrors.ErrUnauthorized)
		return
	}

	created, err := h.service.ScanExpiring(c.Request.Context(), time.Now().UTC())
	if err != nil {
		response.Error(c, err)
		return
	}

	response.JSON(c, http.StatusOK, gin.H{"remindersCreated": created}, nil)
}

// Clear godoc
// @Summary Remove all notifications for the caller
// @Tags Notifications
// @Produce json
// @Success 204 {object} response.Envelope
// @Router /notifications [delete]
func (h *NotificationHandler) Clear(c *gin.Context) {
	claims := claimsFromContext(c)
	if claims == nil {
		response.Error(c, appErrors.ErrUnauthorized)
		return
	}

	if err := h.service.Clear(c.Request.Context(), claims.UserID); err != nil {
		response.Error(c, err)
		return
	}

	response.NoContent(c)
}
