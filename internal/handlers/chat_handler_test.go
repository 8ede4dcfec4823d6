package handlers

import (
	"bytes"
	"context"
	"encoding/json"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gofiber/fiber/v2"

	"github.com/Kalwarein/edu-harmony-link/internal/events"
	"github.com/Kalwarein/edu-harmony-link/internal/models"
	"github.com/Kalwarein/edu-harmony-link/internal/services"
	chatws "github.com/Kalwarein/edu-harmony-link/internal/websocket"
)

const (
	testUserID         = "7f4f7a36-4c18-4bb8-9a52-4a6a2a0e2a11"
	testOtherUserID    = "b2a6a87a-6c4a-4cd5-8f6a-1f5e8a8a9b22"
	testConversationID = "c9a1f0de-25a7-4c5b-9a41-aaf4f0b5cd33"
)

type stubChatService struct {
	conversationsResult []models.ConversationSummary
	conversationsErr    error
	startResult         *models.Conversation
	startErr            error
	messagesResult      []models.DirectMessage
	messagesTotal       int
	messagesErr         error
	sendResult          *services.ChatDelivery
	sendErr             error
	unreadResult        int
	markReadErr         error

	lastActorID        string
	lastOtherUserID    string
	lastConversationID string
	lastContent        string
	lastAttachment     *services.AttachmentUpload
	lastPage           int
	lastLimit          int
	markReadCalled     bool
}

func (s *stubChatService) StartConversation(_ context.Context, actorID string, otherUserID string) (*models.Conversation, error) {
	s.lastActorID = actorID
	s.lastOtherUserID = otherUserID
	return s.startResult, s.startErr
}

func (s *stubChatService) ListConversations(_ context.Context, actorID string) ([]models.ConversationSummary, error) {
	s.lastActorID = actorID
	return s.conversationsResult, s.conversationsErr
}

func (s *stubChatService) ListMessages(_ context.Context, actorID string, conversationID string, page int, limit int) ([]models.DirectMessage, int, error) {
	s.lastActorID = actorID
	s.lastConversationID = conversationID
	s.lastPage = page
	s.lastLimit = limit
	return s.messagesResult, s.messagesTotal, s.messagesErr
}

func (s *stubChatService) SendMessage(_ context.Context, actorID string, conversationID string, content string, attachment *services.AttachmentUpload) (*services.ChatDelivery, error) {
	s.lastActorID = actorID
	s.lastConversationID = conversationID
	s.lastContent = content
	s.lastAttachment = attachment
	return s.sendResult, s.sendErr
}

func (s *stubChatService) UnreadCount(_ context.Context, actorID string, conversationID string) (int, error) {
	s.lastActorID = actorID
	s.lastConversationID = conversationID
	return s.unreadResult, nil
}

func (s *stubChatService) MarkRead(_ context.Context, actorID string, conversationID string) error {
	s.lastActorID = actorID
	s.lastConversationID = conversationID
	s.markReadCalled = true
	return s.markReadErr
}

func newChatTestApp(service *stubChatService) *fiber.App {
	handler := NewChatHandler(service, chatws.NewHub(events.NewBus()), "secret")

	app := fiber.New()
	app.Use(func(c *fiber.Ctx) error {
		c.Locals("user_id", testUserID)
		c.Locals("role", "parent")
		return c.Next()
	})
	app.Get("/api/v1/conversations", handler.ListConversations)
	app.Post("/api/v1/conversations", handler.StartConversation)
	app.Get("/api/v1/conversations/:id/messages", handler.GetMessages)
	app.Post("/api/v1/conversations/:id/messages", handler.SendMessage)
	app.Get("/api/v1/conversations/:id/unread-count", handler.GetUnreadCount)
	app.Post("/api/v1/conversations/:id/read", handler.MarkRead)
	return app
}

func TestListConversationsReturnsSummaries(t *testing.T) {
	service := &stubChatService{
		conversationsResult: []models.ConversationSummary{
			{
				Conversation: models.Conversation{
					ID:           testConversationID,
					Participant1: testUserID,
					Participant2: testOtherUserID,
				},
				LastMessage: &models.DirectMessage{
					ID:             "d1e9a9c4-0b6a-49ad-8a4e-2d31f1b9aa44",
					ConversationID: testConversationID,
					SenderID:       testOtherUserID,
					Content:        "See you at pickup",
					CreatedAt:      time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC),
				},
				UnreadCount: 2,
			},
		},
	}
	app := newChatTestApp(service)

	req := httptest.NewRequest(http.MethodGet, "/api/v1/conversations", nil)
	resp, err := app.Test(req)
	if err != nil {
		t.Fatalf("app.Test: %v", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		t.Fatalf("expected 200, got %d", resp.StatusCode)
	}
	if service.lastActorID != testUserID {
		t.Fatalf("unexpected actor: %q", service.lastActorID)
	}

	var body struct {
		Conversations []models.ConversationSummary `json:"conversations"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		t.Fatalf("Decode: %v", err)
	}
	if len(body.Conversations) != 1 || body.Conversations[0].UnreadCount != 2 {
		t.Fatalf("unexpected response: %+v", body.Conversations)
	}
}

func TestStartConversationReturnsCreated(t *testing.T) {
	service := &stubChatService{
		startResult: &models.Conversation{
			ID:           testConversationID,
			Participant1: testUserID,
			Participant2: testOtherUserID,
		},
	}
	app := newChatTestApp(service)

	payload := `{"user_id": "` + testOtherUserID + `"}`
	req := httptest.NewRequest(http.MethodPost, "/api/v1/conversations", strings.NewReader(payload))
	req.Header.Set("Content-Type", "application/json")
	resp, err := app.Test(req)
	if err != nil {
		t.Fatalf("app.Test: %v", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusCreated {
		t.Fatalf("expected 201, got %d", resp.StatusCode)
	}
	if service.lastOtherUserID != testOtherUserID {
		t.Fatalf("unexpected other user: %q", service.lastOtherUserID)
	}
}

func TestStartConversationRejectsBadUserID(t *testing.T) {
	service := &stubChatService{}
	app := newChatTestApp(service)

	req := httptest.NewRequest(http.MethodPost, "/api/v1/conversations", strings.NewReader(`{"user_id": "not-a-uuid"}`))
	req.Header.Set("Content-Type", "application/json")
	resp, err := app.Test(req)
	if err != nil {
		t.Fatalf("app.Test: %v", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", resp.StatusCode)
	}
	if service.lastOtherUserID != "" {
		t.Fatal("service should not have been called")
	}
}

func TestGetMessagesClampsLimit(t *testing.T) {
	service := &stubChatService{messagesTotal: 0}
	app := newChatTestApp(service)

	req := httptest.NewRequest(http.MethodGet, "/api/v1/conversations/"+testConversationID+"/messages?page=2&limit=500", nil)
	resp, err := app.Test(req)
	if err != nil {
		t.Fatalf("app.Test: %v", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		t.Fatalf("expected 200, got %d", resp.StatusCode)
	}
	if service.lastPage != 2 || service.lastLimit != maxPageLimit {
		t.Fatalf("unexpected paging: page=%d limit=%d", service.lastPage, service.lastLimit)
	}
}

func TestGetMessagesForbiddenMapsTo403(t *testing.T) {
	service := &stubChatService{messagesErr: services.ErrForbidden}
	app := newChatTestApp(service)

	req := httptest.NewRequest(http.MethodGet, "/api/v1/conversations/"+testConversationID+"/messages", nil)
	resp, err := app.Test(req)
	if err != nil {
		t.Fatalf("app.Test: %v", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusForbidden {
		t.Fatalf("expected 403, got %d", resp.StatusCode)
	}
}

func TestSendMessageJSONBody(t *testing.T) {
	service := &stubChatService{
		sendResult: &services.ChatDelivery{
			Message: &models.DirectMessage{
				ID:             "a53f6b1e-9b0c-4ef9-8f9a-bb1e2c7d8e55",
				ConversationID: testConversationID,
				SenderID:       testUserID,
				Content:        "Running late",
			},
			RecipientID: testOtherUserID,
		},
	}
	app := newChatTestApp(service)

	req := httptest.NewRequest(http.MethodPost, "/api/v1/conversations/"+testConversationID+"/messages", strings.NewReader(`{"content": "Running late"}`))
	req.Header.Set("Content-Type", "application/json")
	resp, err := app.Test(req)
	if err != nil {
		t.Fatalf("app.Test: %v", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusCreated {
		t.Fatalf("expected 201, got %d", resp.StatusCode)
	}
	if service.lastContent != "Running late" {
		t.Fatalf("unexpected content: %q", service.lastContent)
	}
	if service.lastAttachment != nil {
		t.Fatal("attachment should be nil for JSON body")
	}
}

func TestSendMessageMultipartAttachment(t *testing.T) {
	service := &stubChatService{
		sendResult: &services.ChatDelivery{
			Message: &models.DirectMessage{ID: "a53f6b1e-9b0c-4ef9-8f9a-bb1e2c7d8e55"},
		},
	}
	app := newChatTestApp(service)

	var buf bytes.Buffer
	writer := multipart.NewWriter(&buf)
	part, err := writer.CreateFormFile("attachment", "homework.pdf")
	if err != nil {
		t.Fatalf("CreateFormFile: %v", err)
	}
	if _, err := part.Write([]byte("%PDF-1.4 fake")); err != nil {
		t.Fatalf("Write: %v", err)
	}
	if err := writer.WriteField("content", ""); err != nil {
		t.Fatalf("WriteField: %v", err)
	}
	if err := writer.Close(); err != nil {
		t.Fatalf("Close: %v", err)
	}

	req := httptest.NewRequest(http.MethodPost, "/api/v1/conversations/"+testConversationID+"/messages", &buf)
	req.Header.Set("Content-Type", writer.FormDataContentType())
	resp, err := app.Test(req)
	if err != nil {
		t.Fatalf("app.Test: %v", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusCreated {
		t.Fatalf("expected 201, got %d", resp.StatusCode)
	}
	if service.lastAttachment == nil {
		t.Fatal("expected attachment to reach the service")
	}
	if service.lastAttachment.Filename != "homework.pdf" {
		t.Fatalf("unexpected filename: %q", service.lastAttachment.Filename)
	}
}

func TestSendMessageRequiresContentOrAttachment(t *testing.T) {
	service := &stubChatService{}
	app := newChatTestApp(service)

	req := httptest.NewRequest(http.MethodPost, "/api/v1/conversations/"+testConversationID+"/messages", strings.NewReader(`{"content": "   "}`))
	req.Header.Set("Content-Type", "application/json")
	resp, err := app.Test(req)
	if err != nil {
		t.Fatalf("app.Test: %v", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", resp.StatusCode)
	}
}

func TestMarkReadCallsService(t *testing.T) {
	service := &stubChatService{}
	app := newChatTestApp(service)

	req := httptest.NewRequest(http.MethodPost, "/api/v1/conversations/"+testConversationID+"/read", nil)
	resp, err := app.Test(req)
	if err != nil {
		t.Fatalf("app.Test: %v", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		t.Fatalf("expected 200, got %d", resp.StatusCode)
	}
	if !service.markReadCalled || service.lastConversationID != testConversationID {
		t.Fatalf("mark read not forwarded: %+v", service)
	}
}
