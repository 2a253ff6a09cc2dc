package handlers

import (
	"context"
	"errors"
	"log"
	"time"

	"strive/internal/services"
	"strive/pkg/auth"

	"github.com/gofiber/fiber/v2"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

// DevHandler serves development-only helpers. Routes are not registered in production.
type DevHandler struct {
	workoutService *services.WorkoutService
	users          services.UserRepository
	jwtAuth        *auth.LocalJWTAuth
}

// NewDevHandler creates a new dev handler. jwtAuth may be nil.
func NewDevHandler(workoutService *services.WorkoutService, users services.UserRepository, jwtAuth *auth.LocalJWTAuth) *DevHandler {
	return &DevHandler{workoutService: workoutService, users: users, jwtAuth: jwtAuth}
}

// PopulateWorkouts seeds sample workouts for a caller with an empty history
// POST /api/dev/populate-workouts
func (h *DevHandler) PopulateWorkouts(c *fiber.Ctx) error {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	user, err := currentUser(ctx, c, h.users)
	if err != nil {
		return userError(c, err)
	}

	created, err := h.workoutService.SeedSampleWorkouts(ctx, user.ID.Hex())
	if errors.Is(err, services.ErrWorkoutsExist) {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "User already has workouts"})
	}
	if err != nil {
		log.Printf("❌ [DEV] Failed to seed workouts: %v", err)
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Failed to seed workouts"})
	}

	return c.Status(fiber.StatusCreated).JSON(fiber.Map{
		"message":         "Test workouts created successfully",
		"workoutsCreated": created,
	})
}

// IssueTokenRequest names the account to sign a token for
type IssueTokenRequest struct {
	UserID   string `json:"userId"`
	Username string `json:"username"`
	Guest    bool   `json:"guest"`
}

// IssueToken signs a bearer token for local testing
// POST /api/dev/token
func (h *DevHandler) IssueToken(c *fiber.Ctx) error {
	if h.jwtAuth == nil {
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": "JWT auth is not configured"})
	}

	var req IssueTokenRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Invalid request body"})
	}
	if req.UserID == "" {
		req.UserID = primitive.NewObjectID().Hex()
	}
	if !primitive.IsValidObjectID(req.UserID) {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "userId must be a 24 character hex id"})
	}

	token, err := h.jwtAuth.GenerateAccessToken(req.UserID, req.Username, req.Guest)
	if err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": err.Error()})
	}

	return c.JSON(fiber.Map{"token": token, "userId": req.UserID})
}
