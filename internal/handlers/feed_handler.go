package handlers

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/gofiber/fiber/v2"

	"github.com/Kalwarein/edu-harmony-link/internal/models"
	"github.com/Kalwarein/edu-harmony-link/internal/services"
)

type feedApplicationService interface {
	CreatePost(ctx context.Context, authorID string, adminLevel string, input services.CreatePostInput) (*models.Post, error)
	ListPosts(ctx context.Context, page int, limit int) ([]models.Post, int, error)
	DeletePost(ctx context.Context, adminLevel string, postID string) error
}

type FeedHandler struct {
	service feedApplicationService
	storage services.StorageService
}

type createPostRequest struct {
	Title     string  `json:"title"`
	Content   string  `json:"content"`
	IsPinned  bool    `json:"is_pinned"`
	ExpiresAt *string `json:"expires_at"`
	ImageURL  *string `json:"image_url"`
}

func NewFeedHandler(service feedApplicationService, storage services.StorageService) *FeedHandler {
	return &FeedHandler{service: service, storage: storage}
}

func (h *FeedHandler) ListPosts(c *fiber.Ctx) error {
	if _, ok := currentUserID(c); !ok {
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"error": "Invalid token"})
	}

	page := parsePositiveInt(c.Query("page"), 1)
	limit := parsePositiveInt(c.Query("limit"), defaultPageLimit)
	if limit > maxPageLimit {
		limit = maxPageLimit
	}

	posts, total, err := h.service.ListPosts(c.Context(), page, limit)
	if err != nil {
		return mapFeedError(c, err)
	}

	return c.JSON(fiber.Map{
		"posts":      posts,
		"pagination": buildPaginationMeta(page, limit, total),
	})
}

func (h *FeedHandler) CreatePost(c *fiber.Ctx) error {
	userID, ok := currentUserID(c)
	if !ok {
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"error": "Invalid token"})
	}
	adminLevel, _ := c.Locals("admin_level").(string)

	req, imageURL, err := h.parsePostPayload(c)
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": err.Error()})
	}
	if imageURL != nil {
		req.ImageURL = imageURL
	}

	var expiresAt *time.Time
	if req.ExpiresAt != nil && *req.ExpiresAt != "" {
		parsed, err := time.Parse(time.RFC3339, *req.ExpiresAt)
		if err != nil {
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Invalid expires_at timestamp"})
		}
		expiresAt = &parsed
	}

	post, err := h.service.CreatePost(c.Context(), userID, adminLevel, services.CreatePostInput{
		Title:     req.Title,
		Content:   req.Content,
		IsPinned:  req.IsPinned,
		ExpiresAt: expiresAt,
		ImageURL:  req.ImageURL,
	})
	if err != nil {
		return mapFeedError(c, err)
	}

	return c.Status(fiber.StatusCreated).JSON(fiber.Map{"post": post})
}

// parsePostPayload reads a post from JSON, or from multipart with an
// optional "image" file that is uploaded before the post is stored.
func (h *FeedHandler) parsePostPayload(c *fiber.Ctx) (createPostRequest, *string, error) {
	var req createPostRequest

	fileHeader, err := c.FormFile("image")
	if err != nil {
		if parseErr := c.BodyParser(&req); parseErr != nil {
			req.Title = c.FormValue("title")
			req.Content = c.FormValue("content")
			req.IsPinned = c.FormValue("is_pinned") == "true"
			if value := c.FormValue("expires_at"); value != "" {
				req.ExpiresAt = &value
			}
		}
		return req, nil, nil
	}

	req.Title = c.FormValue("title")
	req.Content = c.FormValue("content")
	req.IsPinned = c.FormValue("is_pinned") == "true"
	if value := c.FormValue("expires_at"); value != "" {
		req.ExpiresAt = &value
	}

	if h.storage == nil {
		return req, nil, errors.New("storage is not configured")
	}
	if fileHeader.Size <= 0 {
		return req, nil, errors.New("image file is empty")
	}
	if fileHeader.Size > services.MaxAttachmentSizeBytes {
		return req, nil, errors.New("image exceeds 10MB limit")
	}

	file, err := fileHeader.Open()
	if err != nil {
		return req, nil, errors.New("failed to open image file")
	}
	defer file.Close()

	objectKey := fmt.Sprintf("posts/%d-%s", time.Now().UnixMilli(), fileHeader.Filename)
	imageURL, err := h.storage.UploadFile(c.Context(), file, objectKey, attachmentContentType(fileHeader))
	if err != nil {
		return req, nil, errors.New("failed to upload image")
	}

	return req, &imageURL, nil
}

func (h *FeedHandler) DeletePost(c *fiber.Ctx) error {
	if _, ok := currentUserID(c); !ok {
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"error": "Invalid token"})
	}
	adminLevel, _ := c.Locals("admin_level").(string)

	postID := c.Params("id")
	if !validUUID(postID) {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Invalid post id"})
	}

	if err := h.service.DeletePost(c.Context(), adminLevel, postID); err != nil {
		return mapFeedError(c, err)
	}

	return c.JSON(fiber.Map{"status": "deleted"})
}

func mapFeedError(c *fiber.Ctx, err error) error {
	switch {
	case errors.Is(err, services.ErrForbidden):
		return c.Status(fiber.StatusForbidden).JSON(fiber.Map{"error": "Forbidden"})
	case errors.Is(err, services.ErrInvalidInput):
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Invalid request"})
	case errors.Is(err, services.ErrNotFound):
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": "Post not found"})
	default:
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Failed to process post"})
	}
}
