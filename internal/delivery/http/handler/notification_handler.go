package handler

import (
	"net/http"

	"precast-tracker/internal/usecase/notification"
	"precast-tracker/pkg/utils"

	"github.com/gin-gonic/gin"
)

type NotificationHandler struct {
	service *notification.Service
}

func NewNotificationHandler(service *notification.Service) *NotificationHandler {
	return &NotificationHandler{service: service}
}

func (h *NotificationHandler) RegisterRoutes(router *gin.RouterGroup) {
	notifications := router.Group("/notifications")
	{
		notifications.GET("", h.ListNotifications)
		notifications.POST("/:id/read", h.MarkRead)
	}
}

func (h *NotificationHandler) ListNotifications(c *gin.Context) {
	actorID, ok := actor(c)
	if !ok {
		return
	}

	var req notification.ListNotificationsRequest
	if !bindQuery(c, &req) {
		return
	}

	result, err := h.service.ListNotifications(c.Request.Context(), actorID, &req)
	if err != nil {
		utils.RespondError(c, err)
		return
	}

	utils.SuccessResponse(c, http.StatusOK, "Notifications retrieved successfully", notification.ToNotificationResponses(result))
}

func (h *NotificationHandler) MarkRead(c *gin.Context) {
	actorID, ok := actor(c)
	if !ok {
		return
	}
	id, ok := pathID(c, "id")
	if !ok {
		return
	}

	if err := h.service.MarkRead(c.Request.Context(), id, actorID); err != nil {
		utils.RespondError(c, err)
		return
	}

	utils.SuccessResponse(c, http.StatusOK, "Notification marked as read", nil)
}
