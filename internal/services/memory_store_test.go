package services

import (
	"context"
	"errors"
	"testing"
	"time"

	"strive/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

func TestMemoryQuestStore_MarkCompletedIsConditional(t *testing.T) {
	store := NewMemoryQuestStore()
	ctx := context.Background()
	now := time.Now()

	q := models.Quest{UserID: "u1", Status: models.QuestStatusActive, Expiry: now.Add(time.Hour)}
	require.NoError(t, store.InsertBatch(ctx, []models.Quest{q}))
	live, err := store.ListLive(ctx, "u1", "", now)
	require.NoError(t, err)
	require.Len(t, live, 1)
	id := live[0].ID

	ok, err := store.MarkCompleted(ctx, "u2", id, now)
	require.NoError(t, err)
	assert.False(t, ok, "other users cannot complete the quest")

	ok, err = store.MarkCompleted(ctx, "u1", id, now)
	require.NoError(t, err)
	assert.True(t, ok)

	ok, err = store.MarkCompleted(ctx, "u1", id, now)
	require.NoError(t, err)
	assert.False(t, ok, "already completed")
}

func TestMemoryQuestStore_ExpiredIsTerminal(t *testing.T) {
	store := NewMemoryQuestStore()
	ctx := context.Background()
	now := time.Now()

	id := primitive.NewObjectID()
	require.NoError(t, store.InsertBatch(ctx, []models.Quest{{
		ID: id, UserID: "u1", Status: models.QuestStatusActive, Expiry: now.Add(-time.Minute),
	}}))

	n, err := store.SweepExpired(ctx, "u1", now)
	require.NoError(t, err)
	assert.EqualValues(t, 1, n)

	ok, err := store.MarkCompleted(ctx, "u1", id, now.Add(-time.Hour))
	require.NoError(t, err)
	assert.False(t, ok)

	n, err = store.SweepExpired(ctx, "u1", now)
	require.NoError(t, err)
	assert.Zero(t, n)

	got, err := store.GetByID(ctx, id)
	require.NoError(t, err)
	assert.Equal(t, models.QuestStatusExpired, got.Status)
}

func TestMemoryQuestStore_InsertBatchIsAllOrNothing(t *testing.T) {
	store := NewMemoryQuestStore()
	ctx := context.Background()
	dup := primitive.NewObjectID()

	require.NoError(t, store.InsertBatch(ctx, []models.Quest{{ID: dup, UserID: "u1", Expiry: time.Now().Add(time.Hour)}}))
	err := store.InsertBatch(ctx, []models.Quest{
		{UserID: "u1", Expiry: time.Now().Add(time.Hour)},
		{ID: dup, UserID: "u1", Expiry: time.Now().Add(time.Hour)},
	})
	require.Error(t, err)

	live, err := store.ListLive(ctx, "u1", "", time.Now())
	require.NoError(t, err)
	assert.Len(t, live, 1)

	store.failInsert = errors.New("boom")
	assert.Error(t, store.InsertBatch(ctx, []models.Quest{{UserID: "u1"}}))
}

func TestMemoryWorkoutStore(t *testing.T) {
	store := NewMemoryWorkoutStore()
	ctx := context.Background()
	base := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)

	for i, name := range []string{"Squat", "Bench Press", "Squat"} {
		require.NoError(t, store.Create(ctx, &models.Workout{
			UserID:    "u1",
			Date:      base.AddDate(0, 0, i),
			Exercises: []models.WorkoutExercise{{Name: name}},
		}))
	}
	require.NoError(t, store.Create(ctx, &models.Workout{UserID: "u2", Exercises: []models.WorkoutExercise{{Name: "Row"}}}))

	recent, err := store.FindRecent(ctx, "u1", 2)
	require.NoError(t, err)
	require.Len(t, recent, 2)
	assert.True(t, recent[0].Date.After(recent[1].Date))

	count, err := store.Count(ctx, "u1")
	require.NoError(t, err)
	assert.EqualValues(t, 3, count)
}

func TestUserService_CachesAndInvalidates(t *testing.T) {
	repo := NewMemoryUserStore()
	svc := NewUserService(repo)
	ctx := context.Background()
	id := primitive.NewObjectID().Hex()

	_, err := svc.GetByID(ctx, id)
	assert.ErrorIs(t, err, ErrUserNotFound)

	created, err := svc.EnsureProfile(ctx, id, "lifter")
	require.NoError(t, err)
	assert.Equal(t, 1, created.Level)
	assert.False(t, created.UseImperial)

	require.NoError(t, svc.SetUseImperial(ctx, id, true))
	got, err := svc.GetByID(ctx, id)
	require.NoError(t, err)
	assert.True(t, got.UseImperial)
	assert.Equal(t, "imperial (lbs)", got.UnitSystem())

	_, err = svc.EnsureProfile(ctx, "not-hex", "x")
	assert.ErrorIs(t, err, ErrUserNotFound)
}

// readDuringWriteStore lets a reader hit the service while the preference write is in flight.
type readDuringWriteStore struct {
	*MemoryUserStore
	duringWrite func()
}

func (s *readDuringWriteStore) SetUseImperial(ctx context.Context, userID string, useImperial bool) error {
	s.duringWrite()
	return s.MemoryUserStore.SetUseImperial(ctx, userID, useImperial)
}

func TestUserService_ReadDuringPreferenceWriteDoesNotRecacheStaleValue(t *testing.T) {
	repo := &readDuringWriteStore{MemoryUserStore: NewMemoryUserStore()}
	svc := NewUserService(repo)
	ctx := context.Background()
	id := primitive.NewObjectID().Hex()

	_, err := svc.EnsureProfile(ctx, id, "lifter")
	require.NoError(t, err)

	repo.duringWrite = func() {
		_, err := svc.GetByID(ctx, id)
		require.NoError(t, err)
	}
	require.NoError(t, svc.SetUseImperial(ctx, id, true))

	got, err := svc.GetByID(ctx, id)
	require.NoError(t, err)
	assert.True(t, got.UseImperial)
}

func TestUserService_AddPoints(t *testing.T) {
	svc := NewUserService(NewMemoryUserStore())
	ctx := context.Background()
	id := primitive.NewObjectID().Hex()

	_, err := svc.EnsureProfile(ctx, id, "lifter")
	require.NoError(t, err)
	// warm the cache so the update must invalidate it
	_, err = svc.GetByID(ctx, id)
	require.NoError(t, err)

	updated, err := svc.AddPoints(ctx, id, 99)
	require.NoError(t, err)
	assert.Equal(t, 99, updated.StrivePoints)
	assert.Equal(t, 1, updated.Level)

	updated, err = svc.AddPoints(ctx, id, 1)
	require.NoError(t, err)
	assert.Equal(t, 100, updated.StrivePoints)
	assert.Equal(t, 2, updated.Level)

	got, err := svc.GetByID(ctx, id)
	require.NoError(t, err)
	assert.Equal(t, 100, got.StrivePoints)
	assert.Equal(t, 2, got.Level)

	for _, amount := range []int{0, -10} {
		_, err = svc.AddPoints(ctx, id, amount)
		assert.ErrorIs(t, err, ErrInvalidPoints)
	}

	_, err = svc.AddPoints(ctx, primitive.NewObjectID().Hex(), 10)
	assert.ErrorIs(t, err, ErrUserNotFound)
}
