package handlers

import (
	"errors"

	"github.com/gofiber/fiber/v2"
	"github.com/jackc/pgx/v5"

	"github.com/Kalwarein/edu-harmony-link/internal/repository"
	"github.com/Kalwarein/edu-harmony-link/internal/services"
	"github.com/Kalwarein/edu-harmony-link/pkg/utils"
)

// AdminHandler runs the shared-password admin scheme: a signed-in user
// picks a level, supplies its shared password, and receives an elevated
// token carrying the level claim.
type AdminHandler struct {
	adminSvc  *services.AdminService
	userRepo  *repository.UserRepository
	jwtSecret string
}

type adminLoginRequest struct {
	Level    string `json:"level"`
	Password string `json:"password"`
}

func NewAdminHandler(
	adminSvc *services.AdminService,
	userRepo *repository.UserRepository,
	jwtSecret string,
) *AdminHandler {
	return &AdminHandler{
		adminSvc:  adminSvc,
		userRepo:  userRepo,
		jwtSecret: jwtSecret,
	}
}

// ListLevels returns the selectable admin tiers with their permission
// lists (never their passwords).
func (h *AdminHandler) ListLevels(c *fiber.Ctx) error {
	return c.JSON(fiber.Map{"levels": h.adminSvc.Levels()})
}

func (h *AdminHandler) Login(c *fiber.Ctx) error {
	userID, ok := currentUserID(c)
	if !ok {
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"error": "Invalid token"})
	}

	var req adminLoginRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Invalid request body"})
	}
	if req.Level == "" || req.Password == "" {
		return c.Status(fiber.StatusBadRequest).
			JSON(fiber.Map{"error": "Admin level and password are required"})
	}

	user, err := h.userRepo.GetByID(c.Context(), userID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"error": "Invalid token"})
		}
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Failed to fetch user"})
	}

	level, err := h.adminSvc.Authenticate(req.Level, req.Password)
	if err != nil {
		return c.Status(fiber.StatusUnauthorized).
			JSON(fiber.Map{"error": "Invalid password for the selected admin level"})
	}

	token, err := utils.GenerateAdminToken(user.ID, user.Role, level.Level, h.jwtSecret)
	if err != nil {
		return c.Status(fiber.StatusInternalServerError).
			JSON(fiber.Map{"error": "Failed to generate token"})
	}

	return c.JSON(fiber.Map{
		"token":       token,
		"level":       level.Level,
		"title":       level.Title,
		"permissions": level.Permissions,
	})
}
