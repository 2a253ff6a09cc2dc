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

// Listing may generate all three duration slots back to back
const questRequestTimeout = 3 * time.Minute

const (
	generationFailedMessage    = "Could not generate new quests right now, try again shortly"
	insufficientHistoryMessage = "Log your first workout to unlock quests"
)

// QuestHandler handles quest endpoints
type QuestHandler struct {
	questService *services.QuestService
}

// NewQuestHandler creates a new quest handler
func NewQuestHandler(questService *services.QuestService) *QuestHandler {
	return &QuestHandler{questService: questService}
}

// ListQuests returns the caller's live quests grouped by duration
// GET /api/quests
func (h *QuestHandler) ListQuests(c *fiber.Ctx) error {
	userID := c.Locals("user_id").(string)

	ctx, cancel := context.WithTimeout(context.Background(), questRequestTimeout)
	defer cancel()

	grouped, err := h.questService.ListQuests(ctx, userID)
	if err != nil {
		return questError(c, err, "list quests")
	}

	return c.JSON(fiber.Map{"quests": grouped})
}

// GenerateQuests fills one duration slot for the caller
// POST /api/quests/generate/:duration
func (h *QuestHandler) GenerateQuests(c *fiber.Ctx) error {
	userID := c.Locals("user_id").(string)
	duration := models.QuestDuration(c.Params("duration"))

	ctx, cancel := context.WithTimeout(context.Background(), questRequestTimeout)
	defer cancel()

	quests, err := h.questService.GenerateQuests(ctx, userID, duration)
	if errors.Is(err, services.ErrInsufficientHistory) {
		return c.JSON(fiber.Map{
			"message": insufficientHistoryMessage,
			"quests":  []models.Quest{},
		})
	}
	if err != nil {
		return questError(c, err, "generate quests")
	}

	return c.JSON(fiber.Map{
		"message": fmt.Sprintf("%s quests generated!", duration),
		"quests":  quests,
	})
}

// CheckCompletionRequest carries the workout just submitted
type CheckCompletionRequest struct {
	NewWorkout *models.Workout `json:"newWorkout"`
}

// CheckCompletion evaluates a submitted workout against the caller's active quests
// POST /api/quests/check-completion
func (h *QuestHandler) CheckCompletion(c *fiber.Ctx) error {
	userID := c.Locals("user_id").(string)

	var req CheckCompletionRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Invalid request body",
		})
	}
	if req.NewWorkout == nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "newWorkout is required",
		})
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	matches, err := h.questService.CheckCompletion(ctx, userID, req.NewWorkout)
	if err != nil {
		return questError(c, err, "check quest completion")
	}

	return c.JSON(fiber.Map{"updatedQuests": matches})
}

// GetQuest returns a single quest owned by the caller
// GET /api/quests/:id
func (h *QuestHandler) GetQuest(c *fiber.Ctx) error {
	userID := c.Locals("user_id").(string)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	quest, err := h.questService.GetQuest(ctx, userID, c.Params("id"))
	if err != nil {
		return questError(c, err, "get quest")
	}

	return c.JSON(fiber.Map{"quest": quest})
}

// questError maps quest service errors to HTTP responses
func questError(c *fiber.Ctx, err error, action string) error {
	switch {
	case errors.Is(err, services.ErrInvalidDuration):
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Invalid quest duration, expected daily, weekly or monthly",
		})
	case errors.Is(err, services.ErrQuestNotFound):
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{
			"error": "Quest not found",
		})
	case errors.Is(err, services.ErrQuestNotOwned):
		return c.Status(fiber.StatusForbidden).JSON(fiber.Map{
			"error": "Not authorised to access this quest",
		})
	case errors.Is(err, services.ErrGenerationFailed),
		errors.Is(err, services.ErrMalformedResponse),
		errors.Is(err, context.DeadlineExceeded):
		return c.Status(fiber.StatusServiceUnavailable).JSON(fiber.Map{
			"error": generationFailedMessage,
		})
	}

	log.Printf("❌ [QUEST] Failed to %s: %v", action, err)
	return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
		"error": "Failed to " + action,
	})
}
