package handlers

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gofiber/fiber/v2"

	"github.com/Kalwarein/edu-harmony-link/internal/models"
	"github.com/Kalwarein/edu-harmony-link/internal/services"
)

type stubNotificationService struct {
	listResult   []models.Notification
	listErr      error
	createResult *models.Notification
	createErr    error
	markReadErr  error
	deleteErr    error

	lastUserID         string
	lastNotificationID string
	lastCreateInput    services.CreateNotificationInput
	markAllReadCalled  bool
}

func (s *stubNotificationService) Create(_ context.Context, input services.CreateNotificationInput) (*models.Notification, error) {
	s.lastCreateInput = input
	return s.createResult, s.createErr
}

func (s *stubNotificationService) ListForUser(_ context.Context, userID string) ([]models.Notification, error) {
	s.lastUserID = userID
	return s.listResult, s.listErr
}

func (s *stubNotificationService) MarkRead(_ context.Context, userID, notificationID string) error {
	s.lastUserID = userID
	s.lastNotificationID = notificationID
	return s.markReadErr
}

func (s *stubNotificationService) MarkAllRead(_ context.Context, userID string) error {
	s.lastUserID = userID
	s.markAllReadCalled = true
	return nil
}

func (s *stubNotificationService) Delete(_ context.Context, userID, notificationID string) error {
	s.lastUserID = userID
	s.lastNotificationID = notificationID
	return s.deleteErr
}

func newNotificationTestApp(service *stubNotificationService) *fiber.App {
	handler := NewNotificationHandler(service)

	app := fiber.New()
	app.Use(func(c *fiber.Ctx) error {
		c.Locals("user_id", testUserID)
		c.Locals("role", "staff")
		return c.Next()
	})
	app.Get("/api/v1/notifications", handler.List)
	app.Post("/api/v1/notifications", handler.Create)
	app.Put("/api/v1/notifications/read-all", handler.MarkAllRead)
	app.Put("/api/v1/notifications/:id/read", handler.MarkRead)
	app.Delete("/api/v1/notifications/:id", handler.Delete)
	return app
}

func TestListNotificationsUnreadFilterKeepsBroadcasts(t *testing.T) {
	recipient := testUserID
	service := &stubNotificationService{
		listResult: []models.Notification{
			{ID: "3b2e7f11-58a4-4f23-a6cf-9a1b2c3d4e01", RecipientID: nil, Title: "School closed", Type: models.NotificationTypeWeather},
			{ID: "3b2e7f11-58a4-4f23-a6cf-9a1b2c3d4e02", RecipientID: &recipient, Title: "New grade", Type: models.NotificationTypeAcademic, IsRead: true},
			{ID: "3b2e7f11-58a4-4f23-a6cf-9a1b2c3d4e03", RecipientID: &recipient, Title: "New message", Type: models.NotificationTypeGeneral, IsRead: false},
		},
	}
	app := newNotificationTestApp(service)

	req := httptest.NewRequest(http.MethodGet, "/api/v1/notifications?filter=unread", nil)
	resp, err := app.Test(req)
	if err != nil {
		t.Fatalf("app.Test: %v", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		t.Fatalf("expected 200, got %d", resp.StatusCode)
	}

	var body struct {
		Notifications []models.Notification `json:"notifications"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		t.Fatalf("Decode: %v", err)
	}
	if len(body.Notifications) != 2 {
		t.Fatalf("expected broadcast and unread rows, got %d", len(body.Notifications))
	}
	for _, notification := range body.Notifications {
		if notification.RecipientID != nil && notification.IsRead {
			t.Fatalf("read addressed row leaked through unread filter: %+v", notification)
		}
	}
}

func TestListNotificationsReadFilterDropsBroadcasts(t *testing.T) {
	recipient := testUserID
	service := &stubNotificationService{
		listResult: []models.Notification{
			{ID: "3b2e7f11-58a4-4f23-a6cf-9a1b2c3d4e01", RecipientID: nil, Title: "School closed"},
			{ID: "3b2e7f11-58a4-4f23-a6cf-9a1b2c3d4e02", RecipientID: &recipient, Title: "New grade", IsRead: true},
		},
	}
	app := newNotificationTestApp(service)

	req := httptest.NewRequest(http.MethodGet, "/api/v1/notifications?filter=read", nil)
	resp, err := app.Test(req)
	if err != nil {
		t.Fatalf("app.Test: %v", err)
	}
	defer resp.Body.Close()

	var body struct {
		Notifications []models.Notification `json:"notifications"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		t.Fatalf("Decode: %v", err)
	}
	if len(body.Notifications) != 1 || body.Notifications[0].Title != "New grade" {
		t.Fatalf("unexpected read filter result: %+v", body.Notifications)
	}
}

func TestDeleteProtectedNotificationMapsTo403(t *testing.T) {
	service := &stubNotificationService{deleteErr: services.ErrForbidden}
	app := newNotificationTestApp(service)

	req := httptest.NewRequest(http.MethodDelete, "/api/v1/notifications/3b2e7f11-58a4-4f23-a6cf-9a1b2c3d4e01", nil)
	resp, err := app.Test(req)
	if err != nil {
		t.Fatalf("app.Test: %v", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusForbidden {
		t.Fatalf("expected 403, got %d", resp.StatusCode)
	}
}

func TestDeleteUnknownNotificationMapsTo404(t *testing.T) {
	service := &stubNotificationService{deleteErr: services.ErrNotFound}
	app := newNotificationTestApp(service)

	req := httptest.NewRequest(http.MethodDelete, "/api/v1/notifications/3b2e7f11-58a4-4f23-a6cf-9a1b2c3d4e99", nil)
	resp, err := app.Test(req)
	if err != nil {
		t.Fatalf("app.Test: %v", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusNotFound {
		t.Fatalf("expected 404, got %d", resp.StatusCode)
	}
}

func TestCreateNotificationForwardsInput(t *testing.T) {
	service := &stubNotificationService{
		createResult: &models.Notification{
			ID:    "3b2e7f11-58a4-4f23-a6cf-9a1b2c3d4e09",
			Title: "Early dismissal",
			Type:  models.NotificationTypeWeather,
		},
	}
	app := newNotificationTestApp(service)

	payload := `{"title": "Early dismissal", "content": "Buses leave at 1pm", "type": "weather"}`
	req := httptest.NewRequest(http.MethodPost, "/api/v1/notifications", strings.NewReader(payload))
	req.Header.Set("Content-Type", "application/json")
	resp, err := app.Test(req)
	if err != nil {
		t.Fatalf("app.Test: %v", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusCreated {
		t.Fatalf("expected 201, got %d", resp.StatusCode)
	}
	input := service.lastCreateInput
	if input.Title != "Early dismissal" || input.Type != "weather" || input.RecipientID != nil {
		t.Fatalf("unexpected create input: %+v", input)
	}
	if !input.IsErasable {
		t.Fatal("is_erasable should default to true")
	}
}

func TestMarkAllReadCallsService(t *testing.T) {
	service := &stubNotificationService{}
	app := newNotificationTestApp(service)

	req := httptest.NewRequest(http.MethodPut, "/api/v1/notifications/read-all", nil)
	resp, err := app.Test(req)
	if err != nil {
		t.Fatalf("app.Test: %v", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		t.Fatalf("expected 200, got %d", resp.StatusCode)
	}
	if !service.markAllReadCalled || service.lastUserID != testUserID {
		t.Fatal("mark all read not forwarded")
	}
}
