package models

import "time"

// BroadcastMessage is a message on the single school-wide channel. The
// reply_* columns are a snapshot captured at send time; they are never
// rewritten when the referenced message is edited or deleted.
type BroadcastMessage struct {
	ID             string    `json:"id"`
	SenderID       string    `json:"sender_id"`
	Content        string    `json:"content"`
	IsAdminMessage bool      `json:"is_admin_message"`
	ReplyTo        *string   `json:"reply_to,omitempty"`
	ReplyToContent *string   `json:"reply_to_content,omitempty"`
	ReplyToSender  *string   `json:"reply_to_sender,omitempty"`
	AttachmentURL  *string   `json:"attachment_url,omitempty"`
	AttachmentType *string   `json:"attachment_type,omitempty"`
	AttachmentName *string   `json:"attachment_name,omitempty"`
	CreatedAt      time.Time `json:"created_at"`

	SenderName string `json:"sender_name,omitempty"`
	SenderRole string `json:"sender_role,omitempty"`
}
