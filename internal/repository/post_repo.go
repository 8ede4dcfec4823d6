package repository

import (
	"context"
	"time"

	"github.com/Kalwarein/edu-harmony-link/internal/models"
)

type CreatePostInput struct {
	Title     string
	Content   string
	AuthorID  string
	IsPinned  bool
	ExpiresAt *time.Time
	ImageURL  *string
}

type PostRepository struct {
	db DBTX
}

func NewPostRepository(db DBTX) *PostRepository {
	return &PostRepository{db: db}
}

func (r *PostRepository) Create(ctx context.Context, input CreatePostInput) (*models.Post, error) {
	query := `
		INSERT INTO posts (title, content, author_id, is_pinned, expires_at, image_url)
		VALUES ($1, $2, $3, $4, $5, $6)
		RETURNING id, title, content, author_id, is_pinned, expires_at, image_url, created_at
	`

	var post models.Post
	err := r.db.QueryRow(
		ctx,
		query,
		input.Title,
		input.Content,
		input.AuthorID,
		input.IsPinned,
		input.ExpiresAt,
		input.ImageURL,
	).Scan(
		&post.ID,
		&post.Title,
		&post.Content,
		&post.AuthorID,
		&post.IsPinned,
		&post.ExpiresAt,
		&post.ImageURL,
		&post.CreatedAt,
	)
	if err != nil {
		return nil, err
	}

	return &post, nil
}

// ListActive returns non-expired posts, pinned first then newest, joined
// with the author's profile for display.
func (r *PostRepository) ListActive(ctx context.Context, limit, offset int) ([]models.Post, int, error) {
	var total int
	err := r.db.QueryRow(ctx, `
		SELECT COUNT(*)
		FROM posts
		WHERE expires_at IS NULL OR expires_at > NOW()
	`).Scan(&total)
	if err != nil {
		return nil, 0, err
	}

	query := `
		SELECT p.id, p.title, p.content, p.author_id, p.is_pinned,
		       p.expires_at, p.image_url, p.created_at,
		       COALESCE(pr.first_name || ' ' || pr.last_name, 'Unknown'),
		       COALESCE(u.role, '')
		FROM posts p
		LEFT JOIN profiles pr ON pr.user_id = p.author_id
		LEFT JOIN users u ON u.id = p.author_id
		WHERE p.expires_at IS NULL OR p.expires_at > NOW()
		ORDER BY p.is_pinned DESC, p.created_at DESC, p.id DESC
		LIMIT $1 OFFSET $2
	`

	rows, err := r.db.Query(ctx, query, limit, offset)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()

	posts := make([]models.Post, 0)
	for rows.Next() {
		var post models.Post
		if err := rows.Scan(
			&post.ID,
			&post.Title,
			&post.Content,
			&post.AuthorID,
			&post.IsPinned,
			&post.ExpiresAt,
			&post.ImageURL,
			&post.CreatedAt,
			&post.AuthorName,
			&post.AuthorRole,
		); err != nil {
			return nil, 0, err
		}

		posts = append(posts, post)
	}

	if err := rows.Err(); err != nil {
		return nil, 0, err
	}

	return posts, total, nil
}

func (r *PostRepository) Delete(ctx context.Context, postID string) (bool, error) {
	tag, err := r.db.Exec(ctx, `
		DELETE FROM posts
		WHERE id = $1
	`, postID)
	if err != nil {
		return false, err
	}
	return tag.RowsAffected() > 0, nil
}
