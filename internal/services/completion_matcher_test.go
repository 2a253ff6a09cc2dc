package services

import (
	"testing"

	"strive/internal/models"

	"github.com/stretchr/testify/assert"
)

func TestWorkoutMeetsCriterion(t *testing.T) {
	bench := models.CompletionCriterion{Exercise: "Bench Press", Weight: 80, Reps: 8}

	tests := []struct {
		name     string
		workout  *models.Workout
		criteria models.CompletionCriterion
		expected bool
	}{
		{
			name:     "nil workout",
			workout:  nil,
			criteria: bench,
			expected: false,
		},
		{
			name: "exact match",
			workout: &models.Workout{Exercises: []models.WorkoutExercise{
				{Name: "Bench Press", Sets: []models.WorkoutSet{{Weight: 80, Reps: 8}}},
			}},
			criteria: bench,
			expected: true,
		},
		{
			name: "exceeds both",
			workout: &models.Workout{Exercises: []models.WorkoutExercise{
				{Name: "bench press", Sets: []models.WorkoutSet{{Weight: 90, Reps: 10}}},
			}},
			criteria: bench,
			expected: true,
		},
		{
			name: "split across sets does not count",
			workout: &models.Workout{Exercises: []models.WorkoutExercise{
				{Name: "Bench Press", Sets: []models.WorkoutSet{{Weight: 100, Reps: 1}, {Weight: 1, Reps: 20}}},
			}},
			criteria: bench,
			expected: false,
		},
		{
			name: "one qualifying set among many",
			workout: &models.Workout{Exercises: []models.WorkoutExercise{
				{Name: "Bench Press", Sets: []models.WorkoutSet{{Weight: 60, Reps: 12}, {Weight: 80, Reps: 8}, {Weight: 85, Reps: 3}}},
			}},
			criteria: bench,
			expected: true,
		},
		{
			name: "weight short",
			workout: &models.Workout{Exercises: []models.WorkoutExercise{
				{Name: "Bench Press", Sets: []models.WorkoutSet{{Weight: 79.5, Reps: 12}}},
			}},
			criteria: bench,
			expected: false,
		},
		{
			name: "different exercise",
			workout: &models.Workout{Exercises: []models.WorkoutExercise{
				{Name: "Incline Bench Press", Sets: []models.WorkoutSet{{Weight: 100, Reps: 10}}},
			}},
			criteria: bench,
			expected: false,
		},
		{
			name: "case and whitespace folded",
			workout: &models.Workout{Exercises: []models.WorkoutExercise{
				{Name: "  squat ", Sets: []models.WorkoutSet{{Weight: 105, Reps: 5}}},
			}},
			criteria: models.CompletionCriterion{Exercise: "Squat", Weight: 100, Reps: 5},
			expected: true,
		},
		{
			name: "exercise listed twice, second qualifies",
			workout: &models.Workout{Exercises: []models.WorkoutExercise{
				{Name: "Squat", Sets: []models.WorkoutSet{{Weight: 90, Reps: 5}}},
				{Name: "SQUAT", Sets: []models.WorkoutSet{{Weight: 100, Reps: 6}}},
			}},
			criteria: models.CompletionCriterion{Exercise: "Squat", Weight: 100, Reps: 5},
			expected: true,
		},
		{
			name: "no sets",
			workout: &models.Workout{Exercises: []models.WorkoutExercise{
				{Name: "Bench Press"},
			}},
			criteria: bench,
			expected: false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, WorkoutMeetsCriterion(tt.workout, tt.criteria))
		})
	}
}
