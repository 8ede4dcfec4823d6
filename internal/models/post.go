package models

import "time"

// Post is a feed entry: an announcement or assignment published from the
// admin panel. Expired posts stay in storage but are filtered from the feed.
type Post struct {
	ID        string     `json:"id"`
	Title     string     `json:"title"`
	Content   string     `json:"content"`
	AuthorID  string     `json:"author_id"`
	IsPinned  bool       `json:"is_pinned"`
	ExpiresAt *time.Time `json:"expires_at,omitempty"`
	ImageURL  *string    `json:"image_url,omitempty"`
	CreatedAt time.Time  `json:"created_at"`

	AuthorName       string `json:"author_name,omitempty"`
	AuthorRole       string `json:"author_role,omitempty"`
	AuthorAdminLevel string `json:"author_admin_level,omitempty"`
}

type PaginationMeta struct {
	Page       int `json:"page"`
	Limit      int `json:"limit"`
	Total      int `json:"total"`
	TotalPages int `json:"total_pages"`
}
