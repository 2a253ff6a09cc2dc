package services

import (
	"context"
	"testing"
	"time"

	"strive/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMockTextGenerator_ProducesParseableBatch(t *testing.T) {
	workouts := []models.Workout{
		{Date: time.Now(), Exercises: []models.WorkoutExercise{
			{Name: "Bench Press", Sets: []models.WorkoutSet{{Weight: 80, Reps: 8}, {Weight: 75, Reps: 10}}},
			{Name: "Overhead Press", Sets: []models.WorkoutSet{{Weight: 40, Reps: 10}}},
		}},
		{Date: time.Now(), Exercises: []models.WorkoutExercise{
			{Name: "squat", Sets: []models.WorkoutSet{{Weight: 100, Reps: 5}}},
			{Name: "Lat Pulldown", Sets: []models.WorkoutSet{{Weight: 60, Reps: 15}}},
		}},
	}

	prompt, err := BuildQuestPrompt(QuestGenerationRequest{
		Duration:   models.QuestDurationDaily,
		Count:      3,
		UnitSystem: "metric (kg)",
		Excluded:   []string{"Bench Press"},
		Workouts:   SummarizeWorkouts(workouts),
	})
	require.NoError(t, err)

	raw, err := NewMockTextGenerator().Generate(context.Background(), prompt)
	require.NoError(t, err)

	drafts, err := ParseQuestBatch(raw, 3)
	require.NoError(t, err)

	names := []string{}
	for _, d := range drafts {
		names = append(names, d.Completion.Exercise)
		assert.GreaterOrEqual(t, d.Completion.Reps, MinQuestReps)
		assert.LessOrEqual(t, d.Completion.Reps, MaxQuestReps)
	}
	assert.Equal(t, []string{"Overhead Press", "Squat", "Lat Pulldown"}, names)
	assert.Equal(t, 42.5, drafts[0].Completion.Weight)
	assert.Equal(t, 12, drafts[2].Completion.Reps)
}

func TestMockTextGenerator_RejectsForeignPrompt(t *testing.T) {
	_, err := NewMockTextGenerator().Generate(context.Background(), "write me a poem")
	assert.Error(t, err)
}
