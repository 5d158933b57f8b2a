package notification

import (
	"time"

	domainNotification "precast-tracker/internal/domain/notification"

	"github.com/google/uuid"
)

type ListNotificationsRequest struct {
	Limit int `form:"limit" validate:"omitempty,min=1,max=200"`
}

type NotificationResponse struct {
	ID        uuid.UUID  `json:"id"`
	ElementID uuid.UUID  `json:"element_id"`
	ProjectID uuid.UUID  `json:"project_id"`
	Title     string     `json:"title"`
	Body      string     `json:"body"`
	Read      bool       `json:"read"`
	ReadAt    *time.Time `json:"read_at,omitempty"`
	CreatedAt time.Time  `json:"created_at"`
}

func ToNotificationResponse(n *domainNotification.Notification) *NotificationResponse {
	return &NotificationResponse{
		ID:        n.ID,
		ElementID: n.ElementID,
		ProjectID: n.ProjectID,
		Title:     n.Title,
		Body:      n.Body,
		Read:      n.ReadAt != nil,
		ReadAt:    n.ReadAt,
		CreatedAt: n.CreatedAt,
	}
}

func ToNotificationResponses(notifications []*domainNotification.Notification) []*NotificationResponse {
	out := make([]*NotificationResponse, len(notifications))
	for i, n := range notifications {
		out[i] = ToNotificationResponse(n)
	}
	return out
}
