package repository

import (
	"context"

	"github.com/Kalwarein/edu-harmony-link/internal/models"
)

type CreateNotificationInput struct {
	RecipientID *string
	Title       string
	Content     string
	Type        string
	IsErasable  bool
}

type NotificationRepository struct {
	db DBTX
}

func NewNotificationRepository(db DBTX) *NotificationRepository {
	return &NotificationRepository{db: db}
}

func (r *NotificationRepository) Create(
	ctx context.Context,
	input CreateNotificationInput,
) (*models.Notification, error) {
	query := `
		INSERT INTO notifications (recipient_id, title, content, type, is_read, is_erasable)
		VALUES ($1, $2, $3, $4, FALSE, $5)
		RETURNING id, recipient_id, title, content, type, is_read, is_erasable, created_at
	`

	var notification models.Notification
	err := r.db.QueryRow(
		ctx,
		query,
		input.RecipientID,
		input.Title,
		input.Content,
		input.Type,
		input.IsErasable,
	).Scan(
		&notification.ID,
		&notification.RecipientID,
		&notification.Title,
		&notification.Content,
		&notification.Type,
		&notification.IsRead,
		&notification.IsErasable,
		&notification.CreatedAt,
	)
	if err != nil {
		return nil, err
	}

	return &notification, nil
}

// ListForRecipient returns the caller's notifications plus all broadcast
// rows (null recipient), newest first.
func (r *NotificationRepository) ListForRecipient(
	ctx context.Context,
	recipientID string,
) ([]models.Notification, error) {
	query := `
		SELECT id, recipient_id, title, content, type, is_read, is_erasable, created_at
		FROM notifications
		WHERE recipient_id = $1 OR recipient_id IS NULL
		ORDER BY created_at DESC, id DESC
	`

	rows, err := r.db.Query(ctx, query, recipientID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	notifications := make([]models.Notification, 0)
	for rows.Next() {
		var notification models.Notification
		if err := rows.Scan(
			&notification.ID,
			&notification.RecipientID,
			&notification.Title,
			&notification.Content,
			&notification.Type,
			&notification.IsRead,
			&notification.IsErasable,
			&notification.CreatedAt,
		); err != nil {
			return nil, err
		}

		notifications = append(notifications, notification)
	}

	if err := rows.Err(); err != nil {
		return nil, err
	}

	return notifications, nil
}

// MarkRead flips is_read on a row addressed to the reader. Broadcast rows
// are shared across viewers, so their read state is not stored here; the
// statement simply matches no rows for them.
func (r *NotificationRepository) MarkRead(
	ctx context.Context,
	notificationID string,
	recipientID string,
) error {
	_, err := r.db.Exec(ctx, `
		UPDATE notifications
		SET is_read = TRUE
		WHERE id = $1
		  AND recipient_id = $2
	`, notificationID, recipientID)
	return err
}

func (r *NotificationRepository) MarkAllRead(ctx context.Context, recipientID string) error {
	_, err := r.db.Exec(ctx, `
		UPDATE notifications
		SET is_read = TRUE
		WHERE recipient_id = $1
		  AND is_read = FALSE
	`, recipientID)
	return err
}

func (r *NotificationRepository) GetByID(ctx context.Context, notificationID string) (*models.Notification, error) {
	var notification models.Notification
	err := r.db.QueryRow(ctx, `
		SELECT id, recipient_id, title, content, type, is_read, is_erasable, created_at
		FROM notifications
		WHERE id = $1
	`, notificationID).Scan(
		&notification.ID,
		&notification.RecipientID,
		&notification.Title,
		&notification.Content,
		&notification.Type,
		&notification.IsRead,
		&notification.IsErasable,
		&notification.CreatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &notification, nil
}

// Delete removes a notification only when it is erasable and addressed to
// the requester. It reports whether a row was deleted.
func (r *NotificationRepository) Delete(
	ctx context.Context,
	notificationID string,
	recipientID string,
) (bool, error) {
	tag, err := r.db.Exec(ctx, `
		DELETE FROM notifications
		WHERE id = $1
		  AND recipient_id = $2
		  AND is_erasable = TRUE
	`, notificationID, recipientID)
	if err != nil {
		return false, err
	}
	return tag.RowsAffected() > 0, nil
}
