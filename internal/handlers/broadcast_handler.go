package handlers

import (
	"context"
	"errors"

	"github.com/gofiber/fiber/v2"

	"github.com/Kalwarein/edu-harmony-link/internal/models"
	"github.com/Kalwarein/edu-harmony-link/internal/services"
)

type broadcastApplicationService interface {
	Send(ctx context.Context, actorID string, input services.SendBroadcastInput) (*models.BroadcastMessage, error)
	List(ctx context.Context, page int, limit int) ([]models.BroadcastMessage, int, error)
	Delete(ctx context.Context, actorID string, adminLevel string, messageID string) error
}

type BroadcastHandler struct {
	service broadcastApplicationService
}

func NewBroadcastHandler(service broadcastApplicationService) *BroadcastHandler {
	return &BroadcastHandler{service: service}
}

func (h *BroadcastHandler) ListMessages(c *fiber.Ctx) error {
	if _, ok := currentUserID(c); !ok {
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"error": "Invalid token"})
	}

	page := parsePositiveInt(c.Query("page"), 1)
	limit := parsePositiveInt(c.Query("limit"), defaultPageLimit)
	if limit > maxPageLimit {
		limit = maxPageLimit
	}

	messages, total, err := h.service.List(c.Context(), page, limit)
	if err != nil {
		return mapBroadcastError(c, err)
	}

	return c.JSON(fiber.Map{
		"messages":   messages,
		"pagination": buildPaginationMeta(page, limit, total),
	})
}

// SendMessage accepts JSON or multipart. A "reply_to" value snapshots the
// referenced message at send time.
func (h *BroadcastHandler) SendMessage(c *fiber.Ctx) error {
	userID, ok := currentUserID(c)
	if !ok {
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"error": "Invalid token"})
	}
	adminLevel, _ := c.Locals("admin_level").(string)

	content, attachment, cleanup, err := parseMessagePayload(c)
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": err.Error()})
	}
	defer cleanup()

	replyTo := c.FormValue("reply_to")
	if replyTo == "" {
		var req struct {
			ReplyTo string `json:"reply_to"`
		}
		if parseErr := c.BodyParser(&req); parseErr == nil {
			replyTo = req.ReplyTo
		}
	}
	if replyTo != "" && !validUUID(replyTo) {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Invalid reply reference"})
	}

	message, err := h.service.Send(c.Context(), userID, services.SendBroadcastInput{
		Content:    content,
		Attachment: attachment,
		ReplyTo:    replyTo,
		IsAdmin:    adminLevel != "",
	})
	if err != nil {
		return mapBroadcastError(c, err)
	}

	return c.Status(fiber.StatusCreated).JSON(fiber.Map{"message": message})
}

func (h *BroadcastHandler) DeleteMessage(c *fiber.Ctx) error {
	userID, ok := currentUserID(c)
	if !ok {
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"error": "Invalid token"})
	}
	adminLevel, _ := c.Locals("admin_level").(string)

	messageID := c.Params("id")
	if !validUUID(messageID) {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Invalid message id"})
	}

	if err := h.service.Delete(c.Context(), userID, adminLevel, messageID); err != nil {
		return mapBroadcastError(c, err)
	}

	return c.JSON(fiber.Map{"status": "deleted"})
}

func mapBroadcastError(c *fiber.Ctx, err error) error {
	switch {
	case errors.Is(err, services.ErrForbidden):
		return c.Status(fiber.StatusForbidden).JSON(fiber.Map{"error": "Forbidden"})
	case errors.Is(err, services.ErrInvalidInput):
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Invalid request"})
	case errors.Is(err, services.ErrNotFound):
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": "Message not found"})
	default:
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Failed to process message"})
	}
}
