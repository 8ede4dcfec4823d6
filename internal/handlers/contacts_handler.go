package handlers

import (
	"strings"

	"github.com/gofiber/fiber/v2"

	"github.com/Kalwarein/edu-harmony-link/internal/repository"
)

// ContactsHandler serves the directory used to start new conversations.
type ContactsHandler struct {
	profileRepo *repository.ProfileRepository
}

func NewContactsHandler(profileRepo *repository.ProfileRepository) *ContactsHandler {
	return &ContactsHandler{profileRepo: profileRepo}
}

func (h *ContactsHandler) ListContacts(c *fiber.Ctx) error {
	userID, ok := currentUserID(c)
	if !ok {
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"error": "Invalid token"})
	}

	search := strings.TrimSpace(c.Query("search"))

	contacts, err := h.profileRepo.ListContacts(c.Context(), userID, search)
	if err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Failed to fetch contacts"})
	}

	return c.JSON(fiber.Map{"contacts": contacts})
}
