package handlers

import (
	"net/http"
	"strings"

	"picotask-rush-backend/pkg/config"
	"picotask-rush-backend/pkg/database"
	"picotask-rush-backend/pkg/models"
	"picotask-rush-backend/pkg/utils"
)

// NotificationHandler serves the notification sink routes.
type NotificationHandler struct {
	config *config.Config
	store  database.Store
}

// NewNotificationHandler creates the notification handler.
func NewNotificationHandler(cfg *config.Config, store database.Store) *NotificationHandler {
	return &NotificationHandler{config: cfg, store: store}
}

// AppendNotification handles POST /notification.
func (h *NotificationHandler) AppendNotification(w http.ResponseWriter, r *http.Request) {
	var notification models.Notification
	if err := utils.ParseJSONBody(r, &notification); err != nil {
		utils.WriteBadRequestResponse(w, "Invalid body")
		return
	}
	if strings.TrimSpace(notification.RecipientEmail) == "" {
		utils.WriteBadRequestResponse(w, "recipient_email is required")
		return
	}

	if err := h.store.CreateNotification(r.Context(), &notification); err != nil {
		utils.WriteInternalServerErrorResponse(w, "Failed to append notification")
		return
	}
	utils.WriteCreatedResponse(w, notification)
}

// ListNotifications handles GET /notification?email=. Without the filter the
// entire log comes back; pagination is deliberately out of scope.
func (h *NotificationHandler) ListNotifications(w http.ResponseWriter, r *http.Request) {
	email := utils.GetQueryParam(r, "email", "")
	notifications, err := h.store.ListNotifications(r.Context(), email)
	if err != nil {
		utils.WriteInternalServerErrorResponse(w, "Failed to list notifications")
		return
	}
	utils.WriteSuccessResponse(w, notifications)
}
