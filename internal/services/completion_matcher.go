package services

import "strive/internal/models"

// WorkoutMeetsCriterion reports whether a single logged set of the criterion's exercise
// clears both the weight and the reps bar. Weight and reps from different sets never combine.
func WorkoutMeetsCriterion(workout *models.Workout, criterion models.CompletionCriterion) bool {
	if workout == nil {
		return false
	}
	key := ExerciseKey(criterion.Exercise)
	if key == "" {
		return false
	}

	for _, exercise := range workout.Exercises {
		if ExerciseKey(exercise.Name) != key {
			continue
		}
		for _, set := range exercise.Sets {
			if set.Weight >= criterion.Weight && set.Reps >= criterion.Reps {
				return true
			}
		}
	}
	return false
}
