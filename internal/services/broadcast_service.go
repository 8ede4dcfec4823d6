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

// BroadcastService runs the single school-wide channel every user can read
// and post to.
type BroadcastService struct {
	messageRepo *repository.BroadcastRepository
	profileRepo contactReader
	storage     StorageService
	bus         *events.Bus
}

type SendBroadcastInput struct {
	Content    string
	Attachment *AttachmentUpload
	ReplyTo    string
	IsAdmin    bool
}

func NewBroadcastService(
	messageRepo *repository.BroadcastRepository,
	profileRepo contactReader,
	storage StorageService,
	bus *events.Bus,
) *BroadcastService {
	return &BroadcastService{
		messageRepo: messageRepo,
		profileRepo: profileRepo,
		storage:     storage,
		bus:         bus,
	}
}

// Send posts to the broadcast channel. A reply reference is snapshotted at
// send time (id, content, sender name); the snapshot survives deletion of
// the original message.
func (s *BroadcastService) Send(
	ctx context.Context,
	actorID string,
	input SendBroadcastInput,
) (*models.BroadcastMessage, error) {
	trimmed := strings.TrimSpace(input.Content)
	if trimmed == "" && input.Attachment == nil {
		return nil, ErrInvalidInput
	}

	create := repository.CreateBroadcastMessageInput{
		SenderID:       actorID,
		Content:        trimmed,
		IsAdminMessage: input.IsAdmin,
	}

	if input.ReplyTo != "" {
		original, err := s.messageRepo.GetByID(ctx, input.ReplyTo)
		if err != nil {
			if errors.Is(err, pgx.ErrNoRows) {
				return nil, ErrNotFound
			}
			return nil, err
		}

		senderName := "Unknown"
		if contact, err := s.profileRepo.GetContact(ctx, original.SenderID); err == nil {
			senderName = contact.FirstName + " " + contact.LastName
		}

		create.ReplyTo = &original.ID
		create.ReplyToContent = &original.Content
		create.ReplyToSender = &senderName
	}

	if input.Attachment != nil {
		if trimmed == "" {
			create.Content = placeholderFor(input.Attachment)
		}
		attachmentURL, err := uploadAttachment(ctx, s.storage, input.Attachment)
		if err != nil {
			return nil, err
		}
		create.AttachmentURL = &attachmentURL
		create.AttachmentType = &input.Attachment.ContentType
		create.AttachmentName = &input.Attachment.Filename
	}

	message, err := s.messageRepo.Create(ctx, create)
	if err != nil {
		return nil, err
	}

	if contact, err := s.profileRepo.GetContact(ctx, actorID); err == nil {
		message.SenderName = contact.FirstName + " " + contact.LastName
		message.SenderRole = contact.Role
	}

	s.bus.Publish(events.Change{
		Table:   events.TableMessages,
		Action:  events.ActionInsert,
		RowID:   message.ID,
		Payload: message,
	})

	return message, nil
}

func (s *BroadcastService) List(
	ctx context.Context,
	page int,
	limit int,
) ([]models.BroadcastMessage, int, error) {
	if page <= 0 || limit <= 0 {
		return nil, 0, ErrInvalidInput
	}
	return s.messageRepo.List(ctx, limit, (page-1)*limit)
}

// Delete removes a broadcast message. The sender may delete their own
// message; a principal-level admin may delete any.
func (s *BroadcastService) Delete(
	ctx context.Context,
	actorID string,
	adminLevel string,
	messageID string,
) error {
	message, err := s.messageRepo.GetByID(ctx, messageID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return ErrNotFound
		}
		return err
	}

	if message.SenderID != actorID && adminLevel != AdminLevelPrincipal {
		return ErrForbidden
	}

	if err := s.messageRepo.Delete(ctx, messageID); err != nil {
		return err
	}

	s.bus.Publish(events.Change{
		Table:  events.TableMessages,
		Action: events.ActionDelete,
		RowID:  messageID,
	})

	return nil
}
