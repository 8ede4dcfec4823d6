package services

import (
	"context"
	"strings"
	"time"

	"github.com/Kalwarein/edu-harmony-link/internal/models"
	"github.com/Kalwarein/edu-harmony-link/internal/repository"
)

// FeedService manages the announcements/assignments feed published from
// the admin panel.
type FeedService struct {
	postRepo *repository.PostRepository
	adminSvc *AdminService
}

type CreatePostInput struct {
	Title     string
	Content   string
	IsPinned  bool
	ExpiresAt *time.Time
	ImageURL  *string
}

func NewFeedService(postRepo *repository.PostRepository, adminSvc *AdminService) *FeedService {
	return &FeedService{
		postRepo: postRepo,
		adminSvc: adminSvc,
	}
}

func (s *FeedService) CreatePost(
	ctx context.Context,
	authorID string,
	adminLevel string,
	input CreatePostInput,
) (*models.Post, error) {
	if !s.adminSvc.HasPermission(adminLevel, PermCreatePosts) {
		return nil, ErrForbidden
	}

	input.Title = strings.TrimSpace(input.Title)
	input.Content = strings.TrimSpace(input.Content)
	if input.Title == "" || input.Content == "" {
		return nil, ErrInvalidInput
	}
	if input.ExpiresAt != nil && input.ExpiresAt.Before(time.Now()) {
		return nil, ErrInvalidInput
	}

	post, err := s.postRepo.Create(ctx, repository.CreatePostInput{
		Title:     input.Title,
		Content:   input.Content,
		AuthorID:  authorID,
		IsPinned:  input.IsPinned,
		ExpiresAt: input.ExpiresAt,
		ImageURL:  input.ImageURL,
	})
	if err != nil {
		return nil, err
	}

	post.AuthorAdminLevel = adminLevel
	return post, nil
}

func (s *FeedService) ListPosts(
	ctx context.Context,
	page int,
	limit int,
) ([]models.Post, int, error) {
	if page <= 0 || limit <= 0 {
		return nil, 0, ErrInvalidInput
	}
	return s.postRepo.ListActive(ctx, limit, (page-1)*limit)
}

func (s *FeedService) DeletePost(
	ctx context.Context,
	adminLevel string,
	postID string,
) error {
	if !s.adminSvc.HasPermission(adminLevel, PermCreatePosts) {
		return ErrForbidden
	}

	deleted, err := s.postRepo.Delete(ctx, postID)
	if err != nil {
		return err
	}
	if !deleted {
		return ErrNotFound
	}
	return nil
}
