package services

import (
	"context"
	"fmt"
	"time"

	"strive/internal/database"
	"strive/internal/models"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// WorkoutStore is the MongoDB WorkoutRepository
type WorkoutStore struct {
	collection *mongo.Collection
}

// NewWorkoutStore creates a workout store
func NewWorkoutStore(db *database.MongoDB) *WorkoutStore {
	return &WorkoutStore{collection: db.Collection(database.CollectionWorkouts)}
}

// Create implements WorkoutRepository
func (s *WorkoutStore) Create(ctx context.Context, workout *models.Workout) error {
	now := time.Now()
	if workout.ID.IsZero() {
		workout.ID = primitive.NewObjectID()
	}
	if workout.Date.IsZero() {
		workout.Date = now
	}
	workout.CreatedAt = now
	workout.UpdatedAt = now

	if _, err := s.collection.InsertOne(ctx, workout); err != nil {
		return fmt.Errorf("failed to create workout: %w", err)
	}
	return nil
}

// FindRecent implements WorkoutRepository
func (s *WorkoutStore) FindRecent(ctx context.Context, userID string, limit int) ([]models.Workout, error) {
	opts := options.Find().SetSort(bson.D{{Key: "date", Value: -1}})
	if limit > 0 {
		opts.SetLimit(int64(limit))
	}

	cursor, err := s.collection.Find(ctx, bson.M{"userId": userID}, opts)
	if err != nil {
		return nil, fmt.Errorf("failed to list workouts: %w", err)
	}
	defer cursor.Close(ctx)

	workouts := []models.Workout{}
	if err := cursor.All(ctx, &workouts); err != nil {
		return nil, fmt.Errorf("failed to decode workouts: %w", err)
	}
	return workouts, nil
}

// Count implements WorkoutRepository
func (s *WorkoutStore) Count(ctx context.Context, userID string) (int64, error) {
	count, err := s.collection.CountDocuments(ctx, bson.M{"userId": userID})
	if err != nil {
		return 0, fmt.Errorf("failed to count workouts: %w", err)
	}
	return count, nil
}
