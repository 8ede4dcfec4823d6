package handlers

import (
	"context"

	"github.com/gofiber/fiber/v2"
)

type pushSubscriptionStore interface {
	Upsert(ctx context.Context, userID, endpoint, keyP256dh, keyAuth string) error
	RevokeEndpointForUser(ctx context.Context, endpoint, userID string) error
}

type vapidKeySource interface {
	VAPIDPublicKey() string
}

// PushHandler stores browser Web Push subscriptions.
type PushHandler struct {
	subscriptionRepo pushSubscriptionStore
	notifier         vapidKeySource
}

type subscribeRequest struct {
	Endpoint string `json:"endpoint"`
	Keys     struct {
		P256dh string `json:"p256dh"`
		Auth   string `json:"auth"`
	} `json:"keys"`
}

func NewPushHandler(
	subscriptionRepo pushSubscriptionStore,
	notifier vapidKeySource,
) *PushHandler {
	return &PushHandler{
		subscriptionRepo: subscriptionRepo,
		notifier:         notifier,
	}
}

// VAPIDKey exposes the public key the browser needs to subscribe. Returns
// 404 when push is not configured.
func (h *PushHandler) VAPIDKey(c *fiber.Ctx) error {
	key := h.notifier.VAPIDPublicKey()
	if key == "" {
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": "Push is not configured"})
	}
	return c.JSON(fiber.Map{"public_key": key})
}

func (h *PushHandler) Subscribe(c *fiber.Ctx) error {
	userID, ok := currentUserID(c)
	if !ok {
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"error": "Invalid token"})
	}

	var req subscribeRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Invalid request body"})
	}
	if req.Endpoint == "" || req.Keys.P256dh == "" || req.Keys.Auth == "" {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Endpoint and keys are required"})
	}

	if err := h.subscriptionRepo.Upsert(c.Context(), userID, req.Endpoint, req.Keys.P256dh, req.Keys.Auth); err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Failed to store subscription"})
	}

	return c.Status(fiber.StatusCreated).JSON(fiber.Map{"status": "subscribed"})
}

func (h *PushHandler) Unsubscribe(c *fiber.Ctx) error {
	userID, ok := currentUserID(c)
	if !ok {
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"error": "Invalid token"})
	}

	var req struct {
		Endpoint string `json:"endpoint"`
	}
	if err := c.BodyParser(&req); err != nil || req.Endpoint == "" {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Endpoint is required"})
	}

	// scoped to the caller so one account cannot drop another's endpoint
	if err := h.subscriptionRepo.RevokeEndpointForUser(c.Context(), req.Endpoint, userID); err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Failed to remove subscription"})
	}

	return c.JSON(fiber.Map{"status": "unsubscribed"})
}
