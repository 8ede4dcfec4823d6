package repository

import (
	"context"

	"github.com/Kalwarein/edu-harmony-link/internal/models"
)

type CreateBroadcastMessageInput struct {
	SenderID       string
	Content        string
	IsAdminMessage bool
	ReplyTo        *string
	ReplyToContent *string
	ReplyToSender  *string
	AttachmentURL  *string
	AttachmentType *string
	AttachmentName *string
}

type BroadcastRepository struct {
	db DBTX
}

func NewBroadcastRepository(db DBTX) *BroadcastRepository {
	return &BroadcastRepository{db: db}
}

func (r *BroadcastRepository) Create(
	ctx context.Context,
	input CreateBroadcastMessageInput,
) (*models.BroadcastMessage, error) {
	query := `
		INSERT INTO messages (
			sender_id, content, is_admin_message,
			reply_to, reply_to_content, reply_to_sender,
			attachment_url, attachment_type, attachment_name
		)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
		RETURNING id, sender_id, content, is_admin_message,
		          reply_to, reply_to_content, reply_to_sender,
		          attachment_url, attachment_type, attachment_name, created_at
	`

	var message models.BroadcastMessage
	err := r.db.QueryRow(
		ctx,
		query,
		input.SenderID,
		input.Content,
		input.IsAdminMessage,
		input.ReplyTo,
		input.ReplyToContent,
		input.ReplyToSender,
		input.AttachmentURL,
		input.AttachmentType,
		input.AttachmentName,
	).Scan(
		&message.ID,
		&message.SenderID,
		&message.Content,
		&message.IsAdminMessage,
		&message.ReplyTo,
		&message.ReplyToContent,
		&message.ReplyToSender,
		&message.AttachmentURL,
		&message.AttachmentType,
		&message.AttachmentName,
		&message.CreatedAt,
	)
	if err != nil {
		return nil, err
	}

	return &message, nil
}

func (r *BroadcastRepository) GetByID(ctx context.Context, messageID string) (*models.BroadcastMessage, error) {
	query := `
		SELECT id, sender_id, content, is_admin_message,
		       reply_to, reply_to_content, reply_to_sender,
		       attachment_url, attachment_type, attachment_name, created_at
		FROM messages
		WHERE id = $1
	`

	var message models.BroadcastMessage
	err := r.db.QueryRow(ctx, query, messageID).Scan(
		&message.ID,
		&message.SenderID,
		&message.Content,
		&message.IsAdminMessage,
		&message.ReplyTo,
		&message.ReplyToContent,
		&message.ReplyToSender,
		&message.AttachmentURL,
		&message.AttachmentType,
		&message.AttachmentName,
		&message.CreatedAt,
	)
	if err != nil {
		return nil, err
	}

	return &message, nil
}

// List returns broadcast messages oldest-to-newest, joined with the
// sender's profile for display.
func (r *BroadcastRepository) List(
	ctx context.Context,
	limit int,
	offset int,
) ([]models.BroadcastMessage, int, error) {
	var total int
	if err := r.db.QueryRow(ctx, `SELECT COUNT(*) FROM messages`).Scan(&total); err != nil {
		return nil, 0, err
	}

	query := `
		SELECT m.id, m.sender_id, m.content, m.is_admin_message,
		       m.reply_to, m.reply_to_content, m.reply_to_sender,
		       m.attachment_url, m.attachment_type, m.attachment_name, m.created_at,
		       COALESCE(p.first_name || ' ' || p.last_name, 'Unknown'),
		       COALESCE(u.role, '')
		FROM messages m
		LEFT JOIN profiles p ON p.user_id = m.sender_id
		LEFT JOIN users u ON u.id = m.sender_id
		ORDER BY m.created_at ASC, m.id ASC
		LIMIT $1 OFFSET $2
	`

	rows, err := r.db.Query(ctx, query, limit, offset)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()

	messages := make([]models.BroadcastMessage, 0)
	for rows.Next() {
		var message models.BroadcastMessage
		if err := rows.Scan(
			&message.ID,
			&message.SenderID,
			&message.Content,
			&message.IsAdminMessage,
			&message.ReplyTo,
			&message.ReplyToContent,
			&message.ReplyToSender,
			&message.AttachmentURL,
			&message.AttachmentType,
			&message.AttachmentName,
			&message.CreatedAt,
			&message.SenderName,
			&message.SenderRole,
		); err != nil {
			return nil, 0, err
		}

		messages = append(messages, message)
	}

	if err := rows.Err(); err != nil {
		return nil, 0, err
	}

	return messages, total, nil
}

// Delete removes a broadcast message. Reply snapshots referencing it in
// other rows are left untouched.
func (r *BroadcastRepository) Delete(ctx context.Context, messageID string) error {
	_, err := r.db.Exec(ctx, `
		DELETE FROM messages
		WHERE id = $1
	`, messageID)
	return err
}
