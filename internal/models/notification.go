package models

import "time"

const (
	NotificationTypeEmergency = "emergency"
	NotificationTypeWeather   = "weather"
	NotificationTypeAcademic  = "academic"
	NotificationTypeEvent     = "event"
	NotificationTypeGeneral   = "general"
)

// Notification is addressed to a single recipient, or to everyone when
// RecipientID is nil (a single shared row). Non-erasable notifications
// cannot be dismissed by regular users.
type Notification struct {
	ID          string    `json:"id"`
	RecipientID *string   `json:"recipient_id,omitempty"`
	Title       string    `json:"title"`
	Content     string    `json:"content"`
	Type        string    `json:"type"`
	IsRead      bool      `json:"is_read"`
	IsErasable  bool      `json:"is_erasable"`
	CreatedAt   time.Time `json:"created_at"`
}

func ValidNotificationType(t string) bool {
	switch t {
	case NotificationTypeEmergency, NotificationTypeWeather,
		NotificationTypeAcademic, NotificationTypeEvent, NotificationTypeGeneral:
		return true
	default:
		return false
	}
}

// PushSubscription is a stored Web Push endpoint for one of a user's
// browsers.
type PushSubscription struct {
	ID        string     `json:"id"`
	UserID    string     `json:"user_id"`
	Endpoint  string     `json:"endpoint"`
	KeyP256dh string     `json:"p256dh"`
	KeyAuth   string     `json:"auth"`
	CreatedAt time.Time  `json:"created_at"`
	RevokedAt *time.Time `json:"revoked_at,omitempty"`
}
