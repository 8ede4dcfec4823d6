package repository

import (
	"context"
	"database/sql"

	"github.com/google/uuid"

	"github.com/Kalwarein/edu-harmony-link/internal/models"
)

type ConversationRepository struct {
	db DBTX
}

func NewConversationRepository(db DBTX) *ConversationRepository {
	return &ConversationRepository{db: db}
}

// CanonicalPair orders two user ids so the smaller one comes first. Ids
// are normalized to the canonical lowercase uuid form first, so the string
// ordering here agrees with the uuid byte ordering the conversations CHECK
// constraint compares under. Every unordered pair has exactly one
// canonical form, which the table enforces with a unique index.
func CanonicalPair(a, b string) (string, string) {
	if parsed, err := uuid.Parse(a); err == nil {
		a = parsed.String()
	}
	if parsed, err := uuid.Parse(b); err == nil {
		b = parsed.String()
	}
	if a < b {
		return a, b
	}
	return b, a
}

// GetOrCreate resolves the conversation for an unordered pair of users,
// inserting it on first contact. The upsert on the canonical pair makes
// concurrent first-contact calls converge on a single row.
func (r *ConversationRepository) GetOrCreate(
	ctx context.Context,
	userA string,
	userB string,
) (*models.Conversation, error) {
	participant1, participant2 := CanonicalPair(userA, userB)

	query := `
		INSERT INTO conversations (participant_1, participant_2)
		VALUES ($1, $2)
		ON CONFLICT (participant_1, participant_2)
		DO UPDATE SET participant_1 = conversations.participant_1
		RETURNING id, participant_1, participant_2, last_message_at, created_at
	`

	var conversation models.Conversation
	err := r.db.QueryRow(ctx, query, participant1, participant2).Scan(
		&conversation.ID,
		&conversation.Participant1,
		&conversation.Participant2,
		&conversation.LastMessageAt,
		&conversation.CreatedAt,
	)
	if err != nil {
		return nil, err
	}

	return &conversation, nil
}

func (r *ConversationRepository) GetByID(ctx context.Context, conversationID string) (*models.Conversation, error) {
	query := `
		SELECT id, participant_1, participant_2, last_message_at, created_at
		FROM conversations
		WHERE id = $1
	`

	var conversation models.Conversation
	err := r.db.QueryRow(ctx, query, conversationID).Scan(
		&conversation.ID,
		&conversation.Participant1,
		&conversation.Participant2,
		&conversation.LastMessageAt,
		&conversation.CreatedAt,
	)
	if err != nil {
		return nil, err
	}

	return &conversation, nil
}

func (r *ConversationRepository) GetByIDForParticipant(
	ctx context.Context,
	conversationID string,
	participantID string,
) (*models.Conversation, error) {
	query := `
		SELECT id, participant_1, participant_2, last_message_at, created_at
		FROM conversations
		WHERE id = $1 AND (participant_1 = $2 OR participant_2 = $2)
	`

	var conversation models.Conversation
	err := r.db.QueryRow(ctx, query, conversationID, participantID).Scan(
		&conversation.ID,
		&conversation.Participant1,
		&conversation.Participant2,
		&conversation.LastMessageAt,
		&conversation.CreatedAt,
	)
	if err != nil {
		return nil, err
	}

	return &conversation, nil
}

func (r *ConversationRepository) ListForParticipant(
	ctx context.Context,
	participantID string,
) ([]models.ConversationSummary, error) {
	query := `
		SELECT
			c.id,
			c.participant_1,
			c.participant_2,
			c.last_message_at,
			c.created_at,
			lm.id,
			lm.conversation_id,
			lm.sender_id,
			lm.content,
			lm.is_read,
			lm.created_at,
			COALESCE(uc.unread_count, 0)
		FROM conversations c
		LEFT JOIN LATERAL (
			SELECT id, conversation_id, sender_id, content, is_read, created_at
			FROM direct_messages
			WHERE conversation_id = c.id
			ORDER BY created_at DESC, id DESC
			LIMIT 1
		) lm ON TRUE
		LEFT JOIN LATERAL (
			SELECT COUNT(*) AS unread_count
			FROM direct_messages
			WHERE conversation_id = c.id
			  AND sender_id <> $1
			  AND is_read = FALSE
		) uc ON TRUE
		WHERE c.participant_1 = $1 OR c.participant_2 = $1
		ORDER BY COALESCE(lm.created_at, c.last_message_at, c.created_at) DESC, c.id DESC
	`

	rows, err := r.db.Query(ctx, query, participantID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	summaries := make([]models.ConversationSummary, 0)
	for rows.Next() {
		var summary models.ConversationSummary
		var messageID sql.NullString
		var messageConversationID sql.NullString
		var messageSenderID sql.NullString
		var messageContent sql.NullString
		var messageIsRead sql.NullBool
		var messageCreatedAt sql.NullTime

		if err := rows.Scan(
			&summary.ID,
			&summary.Participant1,
			&summary.Participant2,
			&summary.LastMessageAt,
			&summary.CreatedAt,
			&messageID,
			&messageConversationID,
			&messageSenderID,
			&messageContent,
			&messageIsRead,
			&messageCreatedAt,
			&summary.UnreadCount,
		); err != nil {
			return nil, err
		}

		if messageID.Valid {
			summary.LastMessage = &models.DirectMessage{
				ID:             messageID.String,
				ConversationID: messageConversationID.String,
				SenderID:       messageSenderID.String,
				Content:        messageContent.String,
				IsRead:         messageIsRead.Bool,
				CreatedAt:      messageCreatedAt.Time,
			}
		}

		summaries = append(summaries, summary)
	}

	if err := rows.Err(); err != nil {
		return nil, err
	}

	return summaries, nil
}

func (r *ConversationRepository) Touch(ctx context.Context, conversationID string) error {
	_, err := r.db.Exec(ctx, `
		UPDATE conversations
		SET last_message_at = NOW()
		WHERE id = $1
	`, conversationID)
	return err
}
