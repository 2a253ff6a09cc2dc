package handlers

import "github.com/gofiber/fiber/v2"

// RegisterQuestRoutes mounts quest endpoints on an authenticated router.
// generateLimiter guards forced generation and may be nil.
func RegisterQuestRoutes(router fiber.Router, h *QuestHandler, generateLimiter fiber.Handler) {
	quests := router.Group("/quests")
	quests.Get("/", h.ListQuests)
	if generateLimiter != nil {
		quests.Post("/generate/:duration", generateLimiter, h.GenerateQuests)
	} else {
		quests.Post("/generate/:duration", h.GenerateQuests)
	}
	quests.Post("/check-completion", h.CheckCompletion)
	quests.Get("/:id", h.GetQuest)
}

// RegisterWorkoutRoutes mounts workout endpoints on an authenticated router
func RegisterWorkoutRoutes(router fiber.Router, h *WorkoutHandler) {
	workouts := router.Group("/workouts")
	workouts.Get("/", h.ListWorkouts)
	workouts.Post("/", h.CreateWorkout)
}

// RegisterUserRoutes mounts profile endpoints on an authenticated router
func RegisterUserRoutes(router fiber.Router, h *UserHandler) {
	users := router.Group("/users")
	users.Get("/me", h.GetMe)
	users.Put("/preference", h.UpdatePreference)
	users.Post("/:id/points", h.AddPoints)
}
