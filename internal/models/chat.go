package models

import "time"

// Conversation is a two-party thread. Participants are stored in canonical
// order: the lexicographically smaller user id is always participant_1, so
// any unordered pair maps to exactly one row.
type Conversation struct {
	ID            string    `json:"id"`
	Participant1  string    `json:"participant_1"`
	Participant2  string    `json:"participant_2"`
	LastMessageAt time.Time `json:"last_message_at"`
	CreatedAt     time.Time `json:"created_at"`
}

// OtherParticipant returns the participant that is not viewerID.
func (c *Conversation) OtherParticipant(viewerID string) string {
	if c.Participant1 == viewerID {
		return c.Participant2
	}
	return c.Participant1
}

type DirectMessage struct {
	ID             string    `json:"id"`
	ConversationID string    `json:"conversation_id"`
	SenderID       string    `json:"sender_id"`
	Content        string    `json:"content"`
	AttachmentURL  *string   `json:"attachment_url,omitempty"`
	AttachmentType *string   `json:"attachment_type,omitempty"`
	AttachmentName *string   `json:"attachment_name,omitempty"`
	IsRead         bool      `json:"is_read"`
	CreatedAt      time.Time `json:"created_at"`
}

type ConversationSummary struct {
	Conversation
	OtherUser   *Contact       `json:"other_user,omitempty"`
	LastMessage *DirectMessage `json:"last_message,omitempty"`
	UnreadCount int            `json:"unread_count"`
}
