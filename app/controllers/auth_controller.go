package controllers

import (
	"errors"
	"time"

	"github.com/gofiber/fiber/v2"
	"gorm.io/gorm"

	"github.com/marketmate/marketmate/app/models"
	"github.com/marketmate/marketmate/app/repository"
	"github.com/marketmate/marketmate/internal/pkg/database"
	"github.com/marketmate/marketmate/internal/pkg/jwtauth"
	"github.com/marketmate/marketmate/internal/pkg/usercontext"
	"github.com/marketmate/marketmate/internal/pkg/utils"
)

type registerRequest struct {
	Username string `json:"username"`
	Email    string `json:"email"`
	Password string `json:"password"`
}

type loginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// HandleRegister creates a new account and returns a token.
func HandleRegister(c *fiber.Ctx) error {
	var req registerRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "bad_request", "message": "Invalid request body"})
	}

	repo := repository.GetGlobalFactory().GetUserRepository()
	if existing, err := repo.GetByEmail(req.Email); err == nil && existing != nil {
		return c.Status(fiber.StatusConflict).JSON(fiber.Map{"error": "conflict", "message": "Email already registered"})
	}

	user, err := models.CreateUser(req.Username, req.Email, req.Password)
	if err != nil {
		return c.Status(fiber.StatusUnprocessableEntity).JSON(fiber.Map{"error": "validation_failed", "message": err.Error()})
	}
	if err := repo.Create(user); err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "internal_server_error", "message": "Failed to create account"})
	}

	token, err := jwtauth.IssueToken(user.ID, user.Name, user.Role)
	if err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "internal_server_error", "message": "Failed to issue token"})
	}

	return c.Status(fiber.StatusCreated).JSON(fiber.Map{
		"token": token,
		"user":  publicUser(user),
	})
}

// HandleLogin verifies credentials and returns a token.
func HandleLogin(c *fiber.Ctx) error {
	var req loginRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "bad_request", "message": "Invalid request body"})
	}

	user, err := models.FindUserByEmail(database.GetDB(), req.Email)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"error": "unauthorized", "message": "Wrong email or password"})
		}
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "internal_server_error", "message": "Login failed"})
	}

	if !models.CheckPasswordHash(req.Password, user.Password) {
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"error": "unauthorized", "message": "Wrong email or password"})
	}
	if user.Status == models.STATUS_BANNED {
		return c.Status(fiber.StatusForbidden).JSON(fiber.Map{"error": "forbidden", "message": "Account banned"})
	}

	now := time.Now()
	user.LastLoginAt = &now
	if err := repository.GetGlobalFactory().GetUserRepository().Update(user); err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "internal_server_error", "message": "Login failed"})
	}

	token, err := jwtauth.IssueToken(user.ID, user.Name, user.Role)
	if err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "internal_server_error", "message": "Failed to issue token"})
	}

	return c.JSON(fiber.Map{
		"token": token,
		"user":  publicUser(user),
	})
}

// HandleGetMe returns the authenticated account.
func HandleGetMe(c *fiber.Ctx) error {
	userCtx := usercontext.GetUserContext(c)

	user, err := repository.GetGlobalFactory().GetUserRepository().GetByID(userCtx.UserID)
	if err != nil {
		return renderError(c, err)
	}

	avatarURL := user.AvatarURL
	if avatarURL == "" {
		avatarURL = utils.GravatarURL(user.Email, utils.DefaultAvatarSize)
	}

	return c.JSON(fiber.Map{
		"id":            user.ID,
		"username":      user.Name,
		"email":         user.Email,
		"role":          user.Role,
		"status":        user.Status,
		"bio":           user.Bio,
		"avatar_url":    avatarURL,
		"location":      user.Location,
		"created_at":    user.CreatedAt.UTC().Format(time.RFC3339),
		"last_login_at": formatTimePtr(user.LastLoginAt),
	})
}

func publicUser(u *models.User) fiber.Map {
	return fiber.Map{
		"id":       u.ID,
		"username": u.Name,
		"email":    u.Email,
		"role":     u.Role,
	}
}
