package services

import (
	"context"
	"fmt"
	"log"
	"strings"

	"strive/internal/models"
)

// GuestWorkoutLimit caps the workouts a guest account may log
const GuestWorkoutLimit = 5

// WorkoutService logs workouts and runs quest completion against them
type WorkoutService struct {
	workouts WorkoutRepository
	quests   *QuestService
	metrics  *Metrics
}

// NewWorkoutService creates a workout service
func NewWorkoutService(workouts WorkoutRepository, quests *QuestService) *WorkoutService {
	return &WorkoutService{workouts: workouts, quests: quests}
}

// SetMetrics attaches Prometheus metrics (optional)
func (s *WorkoutService) SetMetrics(metrics *Metrics) {
	s.metrics = metrics
}

// LogWorkoutResult is a stored workout and the quests it completed
type LogWorkoutResult struct {
	Workout       *models.Workout     `json:"workout"`
	UpdatedQuests []models.QuestMatch `json:"updatedQuests"`
}

// ValidateWorkout checks the fields a workout must carry before it is stored
func ValidateWorkout(w *models.Workout) error {
	if strings.TrimSpace(w.Title) == "" {
		return fmt.Errorf("%w: title is required", ErrInvalidWorkout)
	}
	if w.Duration < 0 {
		return fmt.Errorf("%w: duration cannot be negative", ErrInvalidWorkout)
	}
	for i, e := range w.Exercises {
		if strings.TrimSpace(e.Name) == "" {
			return fmt.Errorf("%w: exercise %d has no name", ErrInvalidWorkout, i+1)
		}
		for _, set := range e.Sets {
			if set.Weight < 0 || set.Reps < 0 {
				return fmt.Errorf("%w: %s has a negative set", ErrInvalidWorkout, e.Name)
			}
		}
	}
	return nil
}

// LogWorkout stores the workout and then checks it against the user's active quests.
// Completion failures never undo the stored workout.
func (s *WorkoutService) LogWorkout(ctx context.Context, user *models.User, workout *models.Workout) (*LogWorkoutResult, error) {
	if err := ValidateWorkout(workout); err != nil {
		return nil, err
	}

	userID := user.ID.Hex()
	if user.IsGuest {
		count, err := s.workouts.Count(ctx, userID)
		if err != nil {
			return nil, err
		}
		if count >= GuestWorkoutLimit {
			return nil, ErrGuestWorkoutLimit
		}
	}

	workout.UserID = userID
	workout.Title = strings.TrimSpace(workout.Title)
	if err := s.workouts.Create(ctx, workout); err != nil {
		return nil, err
	}
	s.metrics.RecordWorkout()

	matches, err := s.quests.CheckCompletion(ctx, userID, workout)
	if err != nil {
		log.Printf("⚠️  [QUEST] Completion check failed for workout %s: %v", workout.ID.Hex(), err)
		matches = []models.QuestMatch{}
	}

	return &LogWorkoutResult{Workout: workout, UpdatedQuests: matches}, nil
}

// ListWorkouts returns the user's workouts, most recent first
func (s *WorkoutService) ListWorkouts(ctx context.Context, userID string, limit int) ([]models.Workout, error) {
	return s.workouts.FindRecent(ctx, userID, limit)
}

// SampleWorkouts is the training history used to seed development accounts
func SampleWorkouts() []models.Workout {
	return []models.Workout{
		{
			Title:    "Push Day",
			Duration: 75,
			Exercises: []models.WorkoutExercise{
				{Name: "Bench Press", MuscleGroup: "Chest", Sets: []models.WorkoutSet{{Weight: 80, Reps: 8}, {Weight: 80, Reps: 8}, {Weight: 75, Reps: 10}}},
				{Name: "Overhead Press", MuscleGroup: "Shoulders", Sets: []models.WorkoutSet{{Weight: 40, Reps: 10}, {Weight: 40, Reps: 10}}},
			},
		},
		{
			Title:    "Pull Day",
			Duration: 70,
			Exercises: []models.WorkoutExercise{
				{Name: "Lat Pulldown", MuscleGroup: "Back", Sets: []models.WorkoutSet{{Weight: 60, Reps: 10}, {Weight: 60, Reps: 10}}},
				{Name: "Barbell Row", MuscleGroup: "Back", Sets: []models.WorkoutSet{{Weight: 70, Reps: 8}, {Weight: 70, Reps: 8}}},
			},
		},
		{
			Title:    "Leg Day",
			Duration: 80,
			Exercises: []models.WorkoutExercise{
				{Name: "Squat", MuscleGroup: "Legs", Sets: []models.WorkoutSet{{Weight: 100, Reps: 5}, {Weight: 100, Reps: 5}, {Weight: 90, Reps: 8}}},
				{Name: "Romanian Deadlift", MuscleGroup: "Legs", Sets: []models.WorkoutSet{{Weight: 90, Reps: 8}, {Weight: 90, Reps: 8}}},
			},
		},
	}
}

// SeedSampleWorkouts stores SampleWorkouts for a user who has none
func (s *WorkoutService) SeedSampleWorkouts(ctx context.Context, userID string) (int, error) {
	count, err := s.workouts.Count(ctx, userID)
	if err != nil {
		return 0, err
	}
	if count > 0 {
		return 0, ErrWorkoutsExist
	}

	samples := SampleWorkouts()
	for i := range samples {
		samples[i].UserID = userID
		if err := s.workouts.Create(ctx, &samples[i]); err != nil {
			return i, fmt.Errorf("failed to seed workout %q: %w", samples[i].Title, err)
		}
	}
	return len(samples), nil
}
