package repository

import (
	"context"

	"github.com/Kalwarein/edu-harmony-link/internal/models"
)

type CreateDirectMessageInput struct {
	ConversationID string
	SenderID       string
	Content        string
	AttachmentURL  *string
	AttachmentType *string
	AttachmentName *string
}

type DirectMessageRepository struct {
	db DBTX
}

func NewDirectMessageRepository(db DBTX) *DirectMessageRepository {
	return &DirectMessageRepository{db: db}
}

func (r *DirectMessageRepository) Create(
	ctx context.Context,
	input CreateDirectMessageInput,
) (*models.DirectMessage, error) {
	query := `
		INSERT INTO direct_messages (
			conversation_id, sender_id, content,
			attachment_url, attachment_type, attachment_name, is_read
		)
		VALUES ($1, $2, $3, $4, $5, $6, FALSE)
		RETURNING id, conversation_id, sender_id, content,
		          attachment_url, attachment_type, attachment_name, is_read, created_at
	`

	var message models.DirectMessage
	err := r.db.QueryRow(
		ctx,
		query,
		input.ConversationID,
		input.SenderID,
		input.Content,
		input.AttachmentURL,
		input.AttachmentType,
		input.AttachmentName,
	).Scan(
		&message.ID,
		&message.ConversationID,
		&message.SenderID,
		&message.Content,
		&message.AttachmentURL,
		&message.AttachmentType,
		&message.AttachmentName,
		&message.IsRead,
		&message.CreatedAt,
	)
	if err != nil {
		return nil, err
	}

	return &message, nil
}

// ListByConversation returns a page of messages oldest-to-newest along with
// the total row count for the conversation.
func (r *DirectMessageRepository) ListByConversation(
	ctx context.Context,
	conversationID string,
	limit int,
	offset int,
) ([]models.DirectMessage, int, error) {
	totalQuery := `
		SELECT COUNT(*)
		FROM direct_messages
		WHERE conversation_id = $1
	`

	var total int
	if err := r.db.QueryRow(ctx, totalQuery, conversationID).Scan(&total); err != nil {
		return nil, 0, err
	}

	query := `
		SELECT id, conversation_id, sender_id, content,
		       attachment_url, attachment_type, attachment_name, is_read, created_at
		FROM direct_messages
		WHERE conversation_id = $1
		ORDER BY created_at ASC, id ASC
		LIMIT $2 OFFSET $3
	`

	rows, err := r.db.Query(ctx, query, conversationID, limit, offset)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()

	messages := make([]models.DirectMessage, 0)
	for rows.Next() {
		var message models.DirectMessage
		if err := rows.Scan(
			&message.ID,
			&message.ConversationID,
			&message.SenderID,
			&message.Content,
			&message.AttachmentURL,
			&message.AttachmentType,
			&message.AttachmentName,
			&message.IsRead,
			&message.CreatedAt,
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

// UnreadCount counts messages the viewer has not read yet, i.e. rows sent
// by the other participant with is_read still false.
func (r *DirectMessageRepository) UnreadCount(
	ctx context.Context,
	conversationID string,
	viewerID string,
) (int, error) {
	var count int
	err := r.db.QueryRow(ctx, `
		SELECT COUNT(*)
		FROM direct_messages
		WHERE conversation_id = $1
		  AND sender_id <> $2
		  AND is_read = FALSE
	`, conversationID, viewerID).Scan(&count)
	return count, err
}

func (r *DirectMessageRepository) MarkConversationRead(
	ctx context.Context,
	conversationID string,
	readerID string,
) error {
	_, err := r.db.Exec(ctx, `
		UPDATE direct_messages
		SET is_read = TRUE
		WHERE conversation_id = $1
		  AND sender_id <> $2
		  AND is_read = FALSE
	`, conversationID, readerID)
	return err
}

func (r *DirectMessageRepository) MarkMessagesRead(
	ctx context.Context,
	messageIDs []string,
	readerID string,
) error {
	if len(messageIDs) == 0 {
		return nil
	}
	_, err := r.db.Exec(ctx, `
		UPDATE direct_messages
		SET is_read = TRUE
		WHERE id = ANY($1)
		  AND sender_id <> $2
		  AND is_read = FALSE
	`, messageIDs, readerID)
	return err
}
