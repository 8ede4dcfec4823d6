package handlers

import (
	"context"
	"errors"
	"mime/multipart"
	"strings"

	websocket "github.com/gofiber/contrib/websocket"
	"github.com/gofiber/fiber/v2"

	"github.com/Kalwarein/edu-harmony-link/internal/models"
	"github.com/Kalwarein/edu-harmony-link/internal/services"
	chatws "github.com/Kalwarein/edu-harmony-link/internal/websocket"
	"github.com/Kalwarein/edu-harmony-link/pkg/utils"
)

type chatApplicationService interface {
	StartConversation(ctx context.Context, actorID string, otherUserID string) (*models.Conversation, error)
	ListConversations(ctx context.Context, actorID string) ([]models.ConversationSummary, error)
	ListMessages(ctx context.Context, actorID string, conversationID string, page int, limit int) ([]models.DirectMessage, int, error)
	SendMessage(ctx context.Context, actorID string, conversationID string, content string, attachment *services.AttachmentUpload) (*services.ChatDelivery, error)
	UnreadCount(ctx context.Context, actorID string, conversationID string) (int, error)
	MarkRead(ctx context.Context, actorID string, conversationID string) error
}

type ChatHandler struct {
	service   chatApplicationService
	hub       *chatws.Hub
	jwtSecret string
}

type startConversationRequest struct {
	UserID string `json:"user_id"`
}

type sendMessageRequest struct {
	Content string `json:"content"`
}

func NewChatHandler(service chatApplicationService, hub *chatws.Hub, jwtSecret string) *ChatHandler {
	return &ChatHandler{
		service:   service,
		hub:       hub,
		jwtSecret: jwtSecret,
	}
}

func (h *ChatHandler) ListConversations(c *fiber.Ctx) error {
	userID, ok := currentUserID(c)
	if !ok {
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"error": "Invalid token"})
	}

	conversations, err := h.service.ListConversations(c.Context(), userID)
	if err != nil {
		return mapChatError(c, err)
	}

	return c.JSON(fiber.Map{"conversations": conversations})
}

func (h *ChatHandler) StartConversation(c *fiber.Ctx) error {
	userID, ok := currentUserID(c)
	if !ok {
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"error": "Invalid token"})
	}

	var req startConversationRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Invalid request body"})
	}
	if !validUUID(req.UserID) {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Invalid user id"})
	}

	conversation, err := h.service.StartConversation(c.Context(), userID, req.UserID)
	if err != nil {
		return mapChatError(c, err)
	}

	return c.Status(fiber.StatusCreated).JSON(fiber.Map{"conversation": conversation})
}

func (h *ChatHandler) GetMessages(c *fiber.Ctx) error {
	userID, ok := currentUserID(c)
	if !ok {
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"error": "Invalid token"})
	}

	conversationID := c.Params("id")
	if !validUUID(conversationID) {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Invalid conversation id"})
	}

	page := parsePositiveInt(c.Query("page"), 1)
	limit := parsePositiveInt(c.Query("limit"), defaultPageLimit)
	if limit > maxPageLimit {
		limit = maxPageLimit
	}

	messages, total, err := h.service.ListMessages(c.Context(), userID, conversationID, page, limit)
	if err != nil {
		return mapChatError(c, err)
	}

	return c.JSON(fiber.Map{
		"messages":   messages,
		"pagination": buildPaginationMeta(page, limit, total),
	})
}

// SendMessage accepts JSON ({"content": ...}) or multipart with a
// "content" field and an optional "attachment" file.
func (h *ChatHandler) SendMessage(c *fiber.Ctx) error {
	userID, ok := currentUserID(c)
	if !ok {
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"error": "Invalid token"})
	}

	conversationID := c.Params("id")
	if !validUUID(conversationID) {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Invalid conversation id"})
	}

	content, attachment, cleanup, err := parseMessagePayload(c)
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": err.Error()})
	}
	defer cleanup()

	delivery, err := h.service.SendMessage(c.Context(), userID, conversationID, content, attachment)
	if err != nil {
		return mapChatError(c, err)
	}

	return c.Status(fiber.StatusCreated).JSON(fiber.Map{"message": delivery.Message})
}

func (h *ChatHandler) GetUnreadCount(c *fiber.Ctx) error {
	userID, ok := currentUserID(c)
	if !ok {
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"error": "Invalid token"})
	}

	conversationID := c.Params("id")
	if !validUUID(conversationID) {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Invalid conversation id"})
	}

	count, err := h.service.UnreadCount(c.Context(), userID, conversationID)
	if err != nil {
		return mapChatError(c, err)
	}

	return c.JSON(fiber.Map{"unread_count": count})
}

func (h *ChatHandler) MarkRead(c *fiber.Ctx) error {
	userID, ok := currentUserID(c)
	if !ok {
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"error": "Invalid token"})
	}

	conversationID := c.Params("id")
	if !validUUID(conversationID) {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Invalid conversation id"})
	}

	if err := h.service.MarkRead(c.Context(), userID, conversationID); err != nil {
		return mapChatError(c, err)
	}

	return c.JSON(fiber.Map{"status": "ok"})
}

func (h *ChatHandler) WebSocketAuth(c *fiber.Ctx) error {
	if !websocket.IsWebSocketUpgrade(c) {
		return c.Status(fiber.StatusUpgradeRequired).JSON(fiber.Map{"error": "WebSocket upgrade required"})
	}

	claims, err := h.parseWSClaims(c)
	if err != nil {
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"error": "Invalid or expired token"})
	}

	c.Locals("user_id", claims.UserID)
	c.Locals("role", claims.Role)
	return c.Next()
}

func (h *ChatHandler) HandleWebSocket(conn *websocket.Conn) {
	userID, _ := conn.Locals("user_id").(string)
	client := chatws.NewClient(h.hub, conn, userID)

	h.hub.Register(client)
	go client.WritePump()
	client.ReadPump(h.service)
}

func (h *ChatHandler) parseWSClaims(c *fiber.Ctx) (*utils.Claims, error) {
	tokenString := strings.TrimSpace(c.Query("token"))
	if tokenString == "" {
		authHeader := strings.TrimSpace(c.Get("Authorization"))
		if authHeader != "" {
			parts := strings.Split(authHeader, " ")
			if len(parts) == 2 && parts[0] == "Bearer" {
				tokenString = parts[1]
			}
		}
	}

	if tokenString == "" {
		return nil, errors.New("missing token")
	}

	return utils.ValidateToken(tokenString, h.jwtSecret)
}

// parseMessagePayload extracts content and an optional attachment from a
// JSON or multipart request. The returned cleanup closes the attachment
// file; it is safe to call unconditionally.
func parseMessagePayload(c *fiber.Ctx) (string, *services.AttachmentUpload, func(), error) {
	noop := func() {}

	fileHeader, err := c.FormFile("attachment")
	if err != nil {
		// no multipart attachment; fall back to body content
		var req sendMessageRequest
		if parseErr := c.BodyParser(&req); parseErr != nil {
			req.Content = c.FormValue("content")
		}
		if strings.TrimSpace(req.Content) == "" {
			return "", nil, noop, errors.New("content or attachment is required")
		}
		return req.Content, nil, noop, nil
	}

	if fileHeader.Size <= 0 {
		return "", nil, noop, errors.New("attachment is empty")
	}
	if fileHeader.Size > services.MaxAttachmentSizeBytes {
		return "", nil, noop, errors.New("attachment exceeds 10MB limit")
	}

	file, err := fileHeader.Open()
	if err != nil {
		return "", nil, noop, errors.New("failed to open attachment")
	}

	attachment := &services.AttachmentUpload{
		File:        file,
		Filename:    fileHeader.Filename,
		ContentType: attachmentContentType(fileHeader),
		Size:        fileHeader.Size,
	}
	cleanup := func() { _ = file.Close() }

	return c.FormValue("content"), attachment, cleanup, nil
}

func attachmentContentType(fileHeader *multipart.FileHeader) string {
	contentType := fileHeader.Header.Get("Content-Type")
	if contentType == "" {
		return "application/octet-stream"
	}
	return contentType
}

func mapChatError(c *fiber.Ctx, err error) error {
	switch {
	case errors.Is(err, services.ErrForbidden):
		return c.Status(fiber.StatusForbidden).JSON(fiber.Map{"error": "Forbidden"})
	case errors.Is(err, services.ErrInvalidInput):
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Invalid request"})
	case errors.Is(err, services.ErrUserNotFound):
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": "User not found"})
	case errors.Is(err, services.ErrNotFound):
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": "Conversation not found"})
	default:
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Failed to process chat request"})
	}
}
