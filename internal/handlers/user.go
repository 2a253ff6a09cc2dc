package handlers

import (
	"context"
	"errors"
	"fmt"
	"log"
	"time"

	"strive/internal/models"
	"strive/internal/services"

	"github.com/gofiber/fiber/v2"
)

// UserHandler handles profile endpoints
type UserHandler struct {
	users services.UserRepository
}

// NewUserHandler creates a new user handler
func NewUserHandler(users services.UserRepository) *UserHandler {
	return &UserHandler{users: users}
}

// currentUser loads the caller's profile, creating it on first use
func currentUser(ctx context.Context, c *fiber.Ctx, users services.UserRepository) (*models.User, error) {
	userID := c.Locals("user_id").(string)
	username, _ := c.Locals("username").(string)

	user, err := users.EnsureProfile(ctx, userID, username)
	if err != nil {
		return nil, err
	}
	if guest, _ := c.Locals("is_guest").(bool); guest {
		user.IsGuest = true
	}
	return user, nil
}

func userError(c *fiber.Ctx, err error) error {
	if errors.Is(err, services.ErrUserNotFound) {
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": "User not found"})
	}
	if errors.Is(err, services.ErrInvalidPoints) {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": err.Error()})
	}
	log.Printf("❌ [USER] Failed to load profile: %v", err)
	return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Failed to load user"})
}

// GetMe returns the caller's profile
// GET /api/users/me
func (h *UserHandler) GetMe(c *fiber.Ctx) error {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	user, err := currentUser(ctx, c, h.users)
	if err != nil {
		return userError(c, err)
	}
	return c.JSON(user)
}

// UpdatePreferenceRequest toggles the display unit system
type UpdatePreferenceRequest struct {
	UseImperial *bool `json:"useImperial"`
}

// UpdatePreference sets whether weights are shown in lbs
// PUT /api/users/preference
func (h *UserHandler) UpdatePreference(c *fiber.Ctx) error {
	var req UpdatePreferenceRequest
	if err := c.BodyParser(&req); err != nil || req.UseImperial == nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "useImperial must be true or false",
		})
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	user, err := currentUser(ctx, c, h.users)
	if err != nil {
		return userError(c, err)
	}

	userID := user.ID.Hex()
	if err := h.users.SetUseImperial(ctx, userID, *req.UseImperial); err != nil {
		return userError(c, err)
	}

	updated, err := h.users.GetByID(ctx, userID)
	if err != nil {
		return userError(c, err)
	}
	return c.JSON(updated)
}

// AddPointsRequest carries the Strive Points to credit
type AddPointsRequest struct {
	Amount *int `json:"amount"`
}

// AddPoints credits Strive Points to the caller, typically the reward of a completed quest.
// The path id must be the caller's own id or "me".
// POST /api/users/:id/points
func (h *UserHandler) AddPoints(c *fiber.Ctx) error {
	callerID := c.Locals("user_id").(string)
	if target := c.Params("id"); target != "me" && target != callerID {
		return c.Status(fiber.StatusForbidden).JSON(fiber.Map{
			"error": "Cannot add points to another user",
		})
	}

	var req AddPointsRequest
	if err := c.BodyParser(&req); err != nil || req.Amount == nil || *req.Amount <= 0 {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "amount must be a positive whole number",
		})
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	user, err := currentUser(ctx, c, h.users)
	if err != nil {
		return userError(c, err)
	}

	updated, err := h.users.AddPoints(ctx, user.ID.Hex(), *req.Amount)
	if err != nil {
		return userError(c, err)
	}

	log.Printf("⭐ [USER] Added %d SP to %s (level %d)", *req.Amount, updated.ID.Hex(), updated.Level)
	return c.JSON(fiber.Map{
		"message":      fmt.Sprintf("Added %d SP to %s", *req.Amount, updated.Username),
		"strivePoints": updated.StrivePoints,
		"level":        updated.Level,
	})
}
