package services

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/Kalwarein/edu-harmony-link/internal/events"
	"github.com/Kalwarein/edu-harmony-link/internal/models"
	"github.com/Kalwarein/edu-harmony-link/internal/repository"
)

type contactReader interface {
	GetContact(ctx context.Context, userID string) (*models.Contact, error)
}

type ChatService struct {
	db               *pgxpool.Pool
	conversationRepo *repository.ConversationRepository
	messageRepo      *repository.DirectMessageRepository
	profileRepo      contactReader
	storage          StorageService
	bus              *events.Bus
}

type ChatDelivery struct {
	Conversation *models.Conversation
	Message      *models.DirectMessage
	RecipientID  string
}

func NewChatService(
	db *pgxpool.Pool,
	conversationRepo *repository.ConversationRepository,
	messageRepo *repository.DirectMessageRepository,
	profileRepo contactReader,
	storage StorageService,
	bus *events.Bus,
) *ChatService {
	return &ChatService{
		db:               db,
		conversationRepo: conversationRepo,
		messageRepo:      messageRepo,
		profileRepo:      profileRepo,
		storage:          storage,
		bus:              bus,
	}
}

// StartConversation resolves or creates the single conversation between the
// actor and another user. Repeated and concurrent calls for the same pair
// all return the same row.
func (s *ChatService) StartConversation(
	ctx context.Context,
	actorID string,
	otherUserID string,
) (*models.Conversation, error) {
	if otherUserID == "" || otherUserID == actorID {
		return nil, ErrInvalidInput
	}

	if _, err := s.profileRepo.GetContact(ctx, otherUserID); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrUserNotFound
		}
		return nil, err
	}

	conversation, err := s.conversationRepo.GetOrCreate(ctx, actorID, otherUserID)
	if err != nil {
		return nil, err
	}

	s.bus.Publish(events.Change{
		Table:      events.TableConversations,
		Action:     events.ActionInsert,
		RowID:      conversation.ID,
		Recipients: []string{conversation.Participant1, conversation.Participant2},
		Payload:    conversation,
	})

	return conversation, nil
}

func (s *ChatService) ListConversations(
	ctx context.Context,
	actorID string,
) ([]models.ConversationSummary, error) {
	summaries, err := s.conversationRepo.ListForParticipant(ctx, actorID)
	if err != nil {
		return nil, err
	}

	for i := range summaries {
		otherID := summaries[i].OtherParticipant(actorID)
		contact, err := s.profileRepo.GetContact(ctx, otherID)
		if err != nil {
			if errors.Is(err, pgx.ErrNoRows) {
				continue
			}
			return nil, err
		}
		summaries[i].OtherUser = contact
	}

	return summaries, nil
}

// ListMessages returns a page of a conversation oldest-to-newest and marks
// the fetched messages read for the actor in the same transaction.
func (s *ChatService) ListMessages(
	ctx context.Context,
	actorID string,
	conversationID string,
	page int,
	limit int,
) ([]models.DirectMessage, int, error) {
	if conversationID == "" || page <= 0 || limit <= 0 {
		return nil, 0, ErrInvalidInput
	}

	if _, err := s.conversationRepo.GetByIDForParticipant(ctx, conversationID, actorID); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, 0, ErrNotFound
		}
		return nil, 0, err
	}

	tx, err := s.db.Begin(ctx)
	if err != nil {
		return nil, 0, err
	}
	defer func() {
		_ = tx.Rollback(ctx)
	}()

	txMessageRepo := repository.NewDirectMessageRepository(tx)

	messages, total, err := txMessageRepo.ListByConversation(
		ctx,
		conversationID,
		limit,
		(page-1)*limit,
	)
	if err != nil {
		return nil, 0, err
	}

	messageIDs := make([]string, 0, len(messages))
	for _, message := range messages {
		messageIDs = append(messageIDs, message.ID)
	}

	if err := txMessageRepo.MarkMessagesRead(ctx, messageIDs, actorID); err != nil {
		return nil, 0, err
	}

	for i := range messages {
		if messages[i].SenderID != actorID {
			messages[i].IsRead = true
		}
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, 0, err
	}

	return messages, total, nil
}

func (s *ChatService) UnreadCount(
	ctx context.Context,
	actorID string,
	conversationID string,
) (int, error) {
	if conversationID == "" {
		return 0, ErrInvalidInput
	}

	if _, err := s.conversationRepo.GetByIDForParticipant(ctx, conversationID, actorID); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return 0, ErrNotFound
		}
		return 0, err
	}

	return s.messageRepo.UnreadCount(ctx, conversationID, actorID)
}

// MarkRead flips the read flag on every message addressed to the actor in
// the conversation. Re-marking is a no-op.
func (s *ChatService) MarkRead(ctx context.Context, actorID string, conversationID string) error {
	if conversationID == "" {
		return ErrInvalidInput
	}

	if _, err := s.conversationRepo.GetByIDForParticipant(ctx, conversationID, actorID); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return ErrNotFound
		}
		return err
	}

	return s.messageRepo.MarkConversationRead(ctx, conversationID, actorID)
}

// SendMessage stores a direct message. Either text or an attachment must be
// present; with an attachment the blob is uploaded first, and the message
// row is only written after the upload succeeds.
func (s *ChatService) SendMessage(
	ctx context.Context,
	actorID string,
	conversationID string,
	content string,
	attachment *AttachmentUpload,
) (*ChatDelivery, error) {
	if conversationID == "" {
		return nil, ErrInvalidInput
	}

	trimmed := strings.TrimSpace(content)
	if trimmed == "" && attachment == nil {
		return nil, ErrInvalidInput
	}

	conversation, err := s.conversationRepo.GetByIDForParticipant(ctx, conversationID, actorID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrForbidden
		}
		return nil, err
	}

	input := repository.CreateDirectMessageInput{
		ConversationID: conversationID,
		SenderID:       actorID,
		Content:        trimmed,
	}

	if attachment != nil {
		if trimmed == "" {
			input.Content = placeholderFor(attachment)
		}
		attachmentURL, err := uploadAttachment(ctx, s.storage, attachment)
		if err != nil {
			return nil, err
		}
		input.AttachmentURL = &attachmentURL
		input.AttachmentType = &attachment.ContentType
		input.AttachmentName = &attachment.Filename
	}

	tx, err := s.db.Begin(ctx)
	if err != nil {
		return nil, err
	}
	defer func() {
		_ = tx.Rollback(ctx)
	}()

	txMessageRepo := repository.NewDirectMessageRepository(tx)
	txConversationRepo := repository.NewConversationRepository(tx)

	message, err := txMessageRepo.Create(ctx, input)
	if err != nil {
		return nil, err
	}

	if err := txConversationRepo.Touch(ctx, conversationID); err != nil {
		return nil, err
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, err
	}

	recipientID := conversation.OtherParticipant(actorID)

	s.bus.Publish(events.Change{
		Table:      events.TableDirectMessages,
		Action:     events.ActionInsert,
		RowID:      message.ID,
		Recipients: []string{actorID, recipientID},
		Payload:    message,
	})

	return &ChatDelivery{
		Conversation: conversation,
		Message:      message,
		RecipientID:  recipientID,
	}, nil
}

func FormatChatTimestamp(ts time.Time) string {
	return ts.UTC().Format(time.RFC3339)
}
