package services

import (
	"context"
	"errors"
	"strings"

	"github.com/jackc/pgx/v5"

	"github.com/Kalwarein/edu-harmony-link/internal/events"
	"github.com/Kalwarein/edu-harmony-link/internal/models"
	"github.com/Kalwarein/edu-harmony-link/internal/repository"
)

type NotificationService struct {
	notificationRepo *repository.NotificationRepository
	notifier         *PushNotifier
	bus              *events.Bus
}

type CreateNotificationInput struct {
	RecipientID *string
	Title       string
	Content     string
	Type        string
	IsErasable  bool
}

func NewNotificationService(
	notificationRepo *repository.NotificationRepository,
	notifier *PushNotifier,
	bus *events.Bus,
) *NotificationService {
	return &NotificationService{
		notificationRepo: notificationRepo,
		notifier:         notifier,
		bus:              bus,
	}
}

// Create stores a notification and fans it out: a realtime event for
// connected clients and a web push for subscribed browsers. Permission
// checks happen at the handler against the admin session.
func (s *NotificationService) Create(
	ctx context.Context,
	input CreateNotificationInput,
) (*models.Notification, error) {
	input.Title = strings.TrimSpace(input.Title)
	input.Content = strings.TrimSpace(input.Content)
	if input.Title == "" || input.Content == "" {
		return nil, ErrInvalidInput
	}
	if !models.ValidNotificationType(input.Type) {
		return nil, ErrInvalidInput
	}
	if input.RecipientID != nil && *input.RecipientID == "" {
		return nil, ErrInvalidInput
	}

	notification, err := s.notificationRepo.Create(ctx, repository.CreateNotificationInput{
		RecipientID: input.RecipientID,
		Title:       input.Title,
		Content:     input.Content,
		Type:        input.Type,
		IsErasable:  input.IsErasable,
	})
	if err != nil {
		return nil, err
	}

	change := events.Change{
		Table:   events.TableNotifications,
		Action:  events.ActionInsert,
		RowID:   notification.ID,
		Payload: notification,
	}
	if notification.RecipientID != nil {
		change.Recipients = []string{*notification.RecipientID}
	}
	s.bus.Publish(change)

	if notification.RecipientID != nil {
		s.notifier.NotifyUser(ctx, *notification.RecipientID, notification.Title, notification.Content, "/notifications")
	} else {
		s.notifier.NotifyAll(ctx, notification.Title, notification.Content, "/notifications")
	}

	return notification, nil
}

func (s *NotificationService) ListForUser(
	ctx context.Context,
	userID string,
) ([]models.Notification, error) {
	return s.notificationRepo.ListForRecipient(ctx, userID)
}

// MarkRead is idempotent; broadcast rows (shared across viewers) are not
// mutated, their per-viewer read state lives on the client.
func (s *NotificationService) MarkRead(ctx context.Context, userID, notificationID string) error {
	if notificationID == "" {
		return ErrInvalidInput
	}
	if err := s.notificationRepo.MarkRead(ctx, notificationID, userID); err != nil {
		return err
	}

	s.bus.Publish(events.Change{
		Table:      events.TableNotifications,
		Action:     events.ActionUpdate,
		RowID:      notificationID,
		Recipients: []string{userID},
	})
	return nil
}

func (s *NotificationService) MarkAllRead(ctx context.Context, userID string) error {
	if err := s.notificationRepo.MarkAllRead(ctx, userID); err != nil {
		return err
	}

	s.bus.Publish(events.Change{
		Table:      events.TableNotifications,
		Action:     events.ActionUpdate,
		Recipients: []string{userID},
	})
	return nil
}

// Delete dismisses a notification, refusing when the row is not erasable or
// not addressed to the caller.
func (s *NotificationService) Delete(ctx context.Context, userID, notificationID string) error {
	if notificationID == "" {
		return ErrInvalidInput
	}

	deleted, err := s.notificationRepo.Delete(ctx, notificationID, userID)
	if err != nil {
		return err
	}
	if !deleted {
		// The id may not exist at all, or the row may be protected or
		// addressed to someone else. Look it up to tell the two apart.
		if _, err := s.notificationRepo.GetByID(ctx, notificationID); err != nil {
			if errors.Is(err, pgx.ErrNoRows) {
				return ErrNotFound
			}
			return err
		}
		return ErrForbidden
	}

	s.bus.Publish(events.Change{
		Table:      events.TableNotifications,
		Action:     events.ActionDelete,
		RowID:      notificationID,
		Recipients: []string{userID},
	})
	return nil
}
