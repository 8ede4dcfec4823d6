package handlers

import (
	"context"
	"errors"

	"github.com/gofiber/fiber/v2"

	"github.com/Kalwarein/edu-harmony-link/internal/models"
	"github.com/Kalwarein/edu-harmony-link/internal/services"
)

type notificationApplicationService interface {
	Create(ctx context.Context, input services.CreateNotificationInput) (*models.Notification, error)
	ListForUser(ctx context.Context, userID string) ([]models.Notification, error)
	MarkRead(ctx context.Context, userID, notificationID string) error
	MarkAllRead(ctx context.Context, userID string) error
	Delete(ctx context.Context, userID, notificationID string) error
}

type NotificationHandler struct {
	service notificationApplicationService
}

type createNotificationRequest struct {
	RecipientID *string `json:"recipient_id"`
	Title       string  `json:"title"`
	Content     string  `json:"content"`
	Type        string  `json:"type"`
	IsErasable  *bool   `json:"is_erasable"`
}

func NewNotificationHandler(service notificationApplicationService) *NotificationHandler {
	return &NotificationHandler{service: service}
}

func (h *NotificationHandler) List(c *fiber.Ctx) error {
	userID, ok := currentUserID(c)
	if !ok {
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"error": "Invalid token"})
	}

	notifications, err := h.service.ListForUser(c.Context(), userID)
	if err != nil {
		return mapNotificationError(c, err)
	}

	// read/unread filtering happens here; broadcast rows keep per-viewer
	// state on the client, so "unread" only filters addressed rows
	filter := c.Query("filter")
	if filter == "read" || filter == "unread" {
		wantRead := filter == "read"
		filtered := make([]models.Notification, 0, len(notifications))
		for _, notification := range notifications {
			if notification.RecipientID == nil {
				if !wantRead {
					filtered = append(filtered, notification)
				}
				continue
			}
			if notification.IsRead == wantRead {
				filtered = append(filtered, notification)
			}
		}
		notifications = filtered
	}

	return c.JSON(fiber.Map{"notifications": notifications})
}

func (h *NotificationHandler) MarkRead(c *fiber.Ctx) error {
	userID, ok := currentUserID(c)
	if !ok {
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"error": "Invalid token"})
	}

	notificationID := c.Params("id")
	if !validUUID(notificationID) {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Invalid notification id"})
	}

	if err := h.service.MarkRead(c.Context(), userID, notificationID); err != nil {
		return mapNotificationError(c, err)
	}

	return c.JSON(fiber.Map{"status": "ok"})
}

func (h *NotificationHandler) MarkAllRead(c *fiber.Ctx) error {
	userID, ok := currentUserID(c)
	if !ok {
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"error": "Invalid token"})
	}

	if err := h.service.MarkAllRead(c.Context(), userID); err != nil {
		return mapNotificationError(c, err)
	}

	return c.JSON(fiber.Map{"status": "ok"})
}

func (h *NotificationHandler) Delete(c *fiber.Ctx) error {
	userID, ok := currentUserID(c)
	if !ok {
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"error": "Invalid token"})
	}

	notificationID := c.Params("id")
	if !validUUID(notificationID) {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Invalid notification id"})
	}

	if err := h.service.Delete(c.Context(), userID, notificationID); err != nil {
		return mapNotificationError(c, err)
	}

	return c.JSON(fiber.Map{"status": "deleted"})
}

// Create is admin-only; the emergency type additionally requires the
// emergency permission. Route middleware already checked send_alerts.
func (h *NotificationHandler) Create(c *fiber.Ctx) error {
	if _, ok := currentUserID(c); !ok {
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"error": "Invalid token"})
	}

	var req createNotificationRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Invalid request body"})
	}

	if req.RecipientID != nil && !validUUID(*req.RecipientID) {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Invalid recipient id"})
	}

	isErasable := true
	if req.IsErasable != nil {
		isErasable = *req.IsErasable
	}

	notification, err := h.service.Create(c.Context(), services.CreateNotificationInput{
		RecipientID: req.RecipientID,
		Title:       req.Title,
		Content:     req.Content,
		Type:        req.Type,
		IsErasable:  isErasable,
	})
	if err != nil {
		return mapNotificationError(c, err)
	}

	return c.Status(fiber.StatusCreated).JSON(fiber.Map{"notification": notification})
}

func mapNotificationError(c *fiber.Ctx, err error) error {
	switch {
	case errors.Is(err, services.ErrNotFound):
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": "Notification not found"})
	case errors.Is(err, services.ErrForbidden):
		return c.Status(fiber.StatusForbidden).JSON(fiber.Map{"error": "Notification cannot be dismissed"})
	case errors.Is(err, services.ErrInvalidInput):
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Invalid request"})
	default:
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Failed to process notification"})
	}
}
