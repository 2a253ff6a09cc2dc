package services

import (
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"strive/internal/models"
)

// Prompt line prefixes. The mock generator reads these back, so keep them stable.
const (
	promptDurationPrefix = "QUEST DURATION: "
	promptCountPrefix    = "QUEST COUNT: "
	promptExcludedPrefix = "EXCLUDED EXERCISES: "
	promptWorkoutsPrefix = "USER WORKOUTS: "
)

// DifficultyDirectives supplies the duration-specific difficulty scaling text
type DifficultyDirectives interface {
	Directive(duration models.QuestDuration) string
}

// DefaultDifficultyDirectives is used when no override file is configured
var DefaultDifficultyDirectives = StaticDirectives{
	models.QuestDurationDaily:   "Short-term goals achievable in a single session. Aim 5-15% above the user's recent working sets.",
	models.QuestDurationWeekly:  "Harder than a daily goal and reachable with consistent effort across the week. Aim 20-40% above the user's current best.",
	models.QuestDurationMonthly: "The user's most ambitious goal, needing progressive training through the month. Aim 50-100% above the user's current best.",
}

// StaticDirectives is a fixed duration -> directive table
type StaticDirectives map[models.QuestDuration]string

// Directive implements DifficultyDirectives
func (s StaticDirectives) Directive(duration models.QuestDuration) string {
	return s[duration]
}

// ExerciseSummary is one exercise of a workout as shown to the generator
type ExerciseSummary struct {
	Name string              `json:"name"`
	Sets []models.WorkoutSet `json:"sets"`
}

// WorkoutSummary is one recent workout as shown to the generator
type WorkoutSummary struct {
	Date      time.Time         `json:"date"`
	Exercises []ExerciseSummary `json:"exercises"`
}

// QuestGenerationRequest carries everything needed to prompt for one batch
type QuestGenerationRequest struct {
	Duration   models.QuestDuration
	Count      int
	UnitSystem string
	Directive  string
	Excluded   []string
	Workouts   []WorkoutSummary
}

// SummarizeWorkouts converts stored workouts to the activity summary, keeping input order
func SummarizeWorkouts(workouts []models.Workout) []WorkoutSummary {
	summary := make([]WorkoutSummary, 0, len(workouts))
	for _, w := range workouts {
		exercises := make([]ExerciseSummary, 0, len(w.Exercises))
		for _, e := range w.Exercises {
			exercises = append(exercises, ExerciseSummary{Name: e.Name, Sets: e.Sets})
		}
		summary = append(summary, WorkoutSummary{Date: w.Date, Exercises: exercises})
	}
	return summary
}

// BuildQuestPrompt renders the generation request as a single prompt
func BuildQuestPrompt(req QuestGenerationRequest) (string, error) {
	workouts := req.Workouts
	if workouts == nil {
		workouts = []WorkoutSummary{}
	}
	workoutsJSON, err := json.Marshal(workouts)
	if err != nil {
		return "", fmt.Errorf("failed to encode workout summary: %w", err)
	}

	excluded := "none"
	if len(req.Excluded) > 0 {
		excluded = strings.Join(req.Excluded, ", ")
	}

	var b strings.Builder
	fmt.Fprintf(&b, "You are a strength coach writing %s fitness quests for a lifter.\n", req.Duration)
	fmt.Fprintf(&b, "The user tracks their training in %s. Use that unit system in titles and descriptions.\n", req.UnitSystem)
	b.WriteString("The numeric weight in \"completion\" must always be in kilograms.\n\n")

	b.WriteString(promptDurationPrefix + string(req.Duration) + "\n")
	fmt.Fprintf(&b, "%s%d\n\n", promptCountPrefix, req.Count)

	fmt.Fprintf(&b, "Generate EXACTLY %d quest(s). Each must be completable with one set in one session.\n\n", req.Count)

	b.WriteString("DIFFICULTY:\n")
	b.WriteString(req.Directive + "\n\n")

	b.WriteString("RULES:\n")
	b.WriteString("- Every quest targets a DIFFERENT exercise.\n")
	b.WriteString("- Only use exercises that appear in the user's workouts below. Never invent an exercise.\n")
	b.WriteString("- Never use an excluded exercise; those already have active quests.\n")
	fmt.Fprintf(&b, "- \"reps\" is an integer from %d to %d.\n", MinQuestReps, MaxQuestReps)
	b.WriteString("- Capitalise the first letter of each word of the exercise name. A hyphenated word is one word: \"T-bar Row\", not \"T-Bar Row\".\n")
	b.WriteString("- \"title\" is 1-6 words. \"description\" is 1-2 sentences stating exactly what to lift.\n\n")

	b.WriteString(promptExcludedPrefix + excluded + "\n\n")

	b.WriteString("Respond with ONLY this JSON object and nothing else:\n")
	fmt.Fprintf(&b, `{"quests": [{"title": "string", "duration": "%s", "description": "string", "completion": {"exercise": "string", "weight": number, "reps": integer}}]}`, req.Duration)
	b.WriteString("\n\n")

	b.WriteString(promptWorkoutsPrefix + string(workoutsJSON) + "\n")

	return b.String(), nil
}
