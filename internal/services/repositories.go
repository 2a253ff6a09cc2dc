package services

import (
	"context"
	"time"

	"strive/internal/models"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// QuestRepository persists quests. Implementations must express every
// check-then-write as a single conditional operation.
type QuestRepository interface {
	// InsertBatch stores all quests or none of them
	InsertBatch(ctx context.Context, quests []models.Quest) error
	// SweepExpired moves the user's active and completed quests with expiry < now to expired
	SweepExpired(ctx context.Context, userID string, now time.Time) (int64, error)
	// SweepAllExpired is SweepExpired across every user
	SweepAllExpired(ctx context.Context, now time.Time) (int64, error)
	// CountLive counts non-expired quests in one duration slot
	CountLive(ctx context.Context, userID string, duration models.QuestDuration, now time.Time) (int64, error)
	// ListLive returns non-expired quests ordered by expiry; an empty duration means all
	ListLive(ctx context.Context, userID string, duration models.QuestDuration, now time.Time) ([]models.Quest, error)
	// ListActive returns quests still in the active state with expiry >= now
	ListActive(ctx context.Context, userID string, now time.Time) ([]models.Quest, error)
	// MarkCompleted transitions a quest to completed only if it is still active and unexpired.
	// It reports whether this call performed the transition.
	MarkCompleted(ctx context.Context, userID string, questID primitive.ObjectID, at time.Time) (bool, error)
	GetByID(ctx context.Context, questID primitive.ObjectID) (*models.Quest, error)
}

// WorkoutRepository stores logged workouts
type WorkoutRepository interface {
	Create(ctx context.Context, workout *models.Workout) error
	// FindRecent returns up to limit workouts, most recent first
	FindRecent(ctx context.Context, userID string, limit int) ([]models.Workout, error)
	Count(ctx context.Context, userID string) (int64, error)
}

// UserRepository reads and updates user profiles
type UserRepository interface {
	GetByID(ctx context.Context, userID string) (*models.User, error)
	// AddPoints adds amount to the user's Strive Points and recomputes the level in one write
	AddPoints(ctx context.Context, userID string, amount int) (*models.User, error)
	SetUseImperial(ctx context.Context, userID string, useImperial bool) error
	// EnsureProfile creates a default profile when none exists
	EnsureProfile(ctx context.Context, userID, username string) (*models.User, error)
}
