package handlers

import (
	"context"
	"errors"
	"log"
	"time"

	"strive/internal/models"
	"strive/internal/services"

	"github.com/gofiber/fiber/v2"
)

// WorkoutHandler handles workout logging endpoints
type WorkoutHandler struct {
	workoutService *services.WorkoutService
	users          services.UserRepository
}

// NewWorkoutHandler creates a new workout handler
func NewWorkoutHandler(workoutService *services.WorkoutService, users services.UserRepository) *WorkoutHandler {
	return &WorkoutHandler{workoutService: workoutService, users: users}
}

// CreateWorkoutRequest is the body of POST /api/workouts
type CreateWorkoutRequest struct {
	Title     string                   `json:"title"`
	Duration  int                      `json:"duration"`
	Date      *time.Time               `json:"date"`
	Exercises []models.WorkoutExercise `json:"exercises"`
}

// CreateWorkout stores a workout and reports the quests it completed
// POST /api/workouts
func (h *WorkoutHandler) CreateWorkout(c *fiber.Ctx) error {
	var req CreateWorkoutRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Invalid request body",
		})
	}

	ctx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()

	user, err := currentUser(ctx, c, h.users)
	if err != nil {
		return userError(c, err)
	}

	workout := &models.Workout{
		Title:     req.Title,
		Duration:  req.Duration,
		Exercises: req.Exercises,
	}
	if req.Date != nil {
		workout.Date = *req.Date
	}
	if workout.Exercises == nil {
		workout.Exercises = []models.WorkoutExercise{}
	}

	result, err := h.workoutService.LogWorkout(ctx, user, workout)
	switch {
	case errors.Is(err, services.ErrInvalidWorkout):
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": err.Error()})
	case errors.Is(err, services.ErrGuestWorkoutLimit):
		return c.Status(fiber.StatusForbidden).JSON(fiber.Map{
			"error": "Guest accounts are limited to 5 workouts. Create a free Strive account for unlimited access!",
		})
	case err != nil:
		log.Printf("❌ [WORKOUT] Failed to log workout for %s: %v", user.ID.Hex(), err)
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "Failed to save workout",
		})
	}

	return c.Status(fiber.StatusCreated).JSON(result)
}

// ListWorkouts returns the caller's workouts, most recent first
// GET /api/workouts?limit=50
func (h *WorkoutHandler) ListWorkouts(c *fiber.Ctx) error {
	userID := c.Locals("user_id").(string)

	limit := c.QueryInt("limit", 50)
	if limit <= 0 || limit > 200 {
		limit = 50
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	workouts, err := h.workoutService.ListWorkouts(ctx, userID, limit)
	if err != nil {
		log.Printf("❌ [WORKOUT] Failed to list workouts for %s: %v", userID, err)
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "Failed to list workouts",
		})
	}

	return c.JSON(workouts)
}
