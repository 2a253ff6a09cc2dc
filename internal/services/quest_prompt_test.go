package services

import (
	"strings"
	"testing"
	"time"

	"strive/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBuildQuestPrompt(t *testing.T) {
	req := QuestGenerationRequest{
		Duration:   models.QuestDurationWeekly,
		Count:      2,
		UnitSystem: "imperial (lbs)",
		Directive:  "Push hard this week.",
		Excluded:   []string{"Squat", "Bench Press"},
		Workouts: SummarizeWorkouts([]models.Workout{{
			Date: time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC),
			Exercises: []models.WorkoutExercise{
				{Name: "Leg Press", MuscleGroup: "Legs", Sets: []models.WorkoutSet{{Weight: 120, Reps: 10}}},
			},
		}}),
	}

	prompt, err := BuildQuestPrompt(req)
	require.NoError(t, err)

	assert.Contains(t, prompt, "imperial (lbs)")
	assert.Contains(t, prompt, "Push hard this week.")
	assert.Contains(t, prompt, "Generate EXACTLY 2 quest(s)")
	assert.Contains(t, prompt, promptDurationPrefix+"weekly")
	assert.Contains(t, prompt, promptCountPrefix+"2")
	assert.Contains(t, prompt, promptExcludedPrefix+"Squat, Bench Press")
	assert.Contains(t, prompt, `"name":"Leg Press"`)
	assert.NotContains(t, prompt, "Legs", "muscle group is not part of the summary")
}

func TestBuildQuestPromptNoExclusions(t *testing.T) {
	prompt, err := BuildQuestPrompt(QuestGenerationRequest{Duration: models.QuestDurationDaily, Count: 3})
	require.NoError(t, err)
	assert.Contains(t, prompt, promptExcludedPrefix+"none")
	assert.True(t, strings.Contains(prompt, promptWorkoutsPrefix+"[]"))
}

func TestDefaultDifficultyDirectives(t *testing.T) {
	for _, d := range models.QuestDurations {
		assert.NotEmpty(t, DefaultDifficultyDirectives.Directive(d), string(d))
	}
}
