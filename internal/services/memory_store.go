package services

import (
	"context"
	"errors"
	"sort"
	"sync"
	"time"

	"strive/internal/models"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// MemoryQuestStore is an in-process QuestRepository for development without MongoDB.
// State does not survive a restart.
type MemoryQuestStore struct {
	mu     sync.Mutex
	quests map[primitive.ObjectID]models.Quest

	// failInsert makes InsertBatch fail, for exercising rollback paths
	failInsert error
}

// NewMemoryQuestStore creates an empty store
func NewMemoryQuestStore() *MemoryQuestStore {
	return &MemoryQuestStore{quests: make(map[primitive.ObjectID]models.Quest)}
}

// InsertBatch implements QuestRepository
func (s *MemoryQuestStore) InsertBatch(ctx context.Context, quests []models.Quest) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.failInsert != nil {
		return s.failInsert
	}
	for i := range quests {
		if quests[i].ID.IsZero() {
			quests[i].ID = primitive.NewObjectID()
		}
		if _, exists := s.quests[quests[i].ID]; exists {
			return errors.New("duplicate quest id")
		}
	}
	for _, q := range quests {
		s.quests[q.ID] = q
	}
	return nil
}

func (s *MemoryQuestStore) sweep(userID string, now time.Time) int64 {
	var n int64
	for id, q := range s.quests {
		if userID != "" && q.UserID != userID {
			continue
		}
		if (q.Status == models.QuestStatusActive || q.Status == models.QuestStatusCompleted) && q.Expiry.Before(now) {
			q.Status = models.QuestStatusExpired
			q.UpdatedAt = now
			s.quests[id] = q
			n++
		}
	}
	return n
}

// SweepExpired implements QuestRepository
func (s *MemoryQuestStore) SweepExpired(ctx context.Context, userID string, now time.Time) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.sweep(userID, now), nil
}

// SweepAllExpired implements QuestRepository
func (s *MemoryQuestStore) SweepAllExpired(ctx context.Context, now time.Time) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.sweep("", now), nil
}

// CountLive implements QuestRepository
func (s *MemoryQuestStore) CountLive(ctx context.Context, userID string, duration models.QuestDuration, now time.Time) (int64, error) {
	live, _ := s.ListLive(ctx, userID, duration, now)
	return int64(len(live)), nil
}

// ListLive implements QuestRepository
func (s *MemoryQuestStore) ListLive(ctx context.Context, userID string, duration models.QuestDuration, now time.Time) ([]models.Quest, error) {
	return s.filter(func(q *models.Quest) bool {
		return q.UserID == userID && (duration == "" || q.Duration == duration) && q.IsLive(now)
	}), nil
}

// ListActive implements QuestRepository
func (s *MemoryQuestStore) ListActive(ctx context.Context, userID string, now time.Time) ([]models.Quest, error) {
	return s.filter(func(q *models.Quest) bool {
		return q.UserID == userID && q.Status == models.QuestStatusActive && !q.Expiry.Before(now)
	}), nil
}

func (s *MemoryQuestStore) filter(keep func(q *models.Quest) bool) []models.Quest {
	s.mu.Lock()
	defer s.mu.Unlock()

	out := []models.Quest{}
	for _, q := range s.quests {
		if keep(&q) {
			out = append(out, q)
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Expiry.Equal(out[j].Expiry) {
			return out[i].ID.Hex() < out[j].ID.Hex()
		}
		return out[i].Expiry.Before(out[j].Expiry)
	})
	return out
}

// MarkCompleted implements QuestRepository
func (s *MemoryQuestStore) MarkCompleted(ctx context.Context, userID string, questID primitive.ObjectID, at time.Time) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	q, ok := s.quests[questID]
	if !ok || q.UserID != userID || q.Status != models.QuestStatusActive || q.Expiry.Before(at) {
		return false, nil
	}
	q.Status = models.QuestStatusCompleted
	q.CompletedAt = &at
	q.UpdatedAt = at
	s.quests[questID] = q
	return true, nil
}

// GetByID implements QuestRepository
func (s *MemoryQuestStore) GetByID(ctx context.Context, questID primitive.ObjectID) (*models.Quest, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	q, ok := s.quests[questID]
	if !ok {
		return nil, ErrQuestNotFound
	}
	return &q, nil
}

// MemoryWorkoutStore is an in-process WorkoutRepository
type MemoryWorkoutStore struct {
	mu       sync.Mutex
	workouts []models.Workout
}

// NewMemoryWorkoutStore creates an empty store
func NewMemoryWorkoutStore() *MemoryWorkoutStore {
	return &MemoryWorkoutStore{}
}

// Create implements WorkoutRepository
func (s *MemoryWorkoutStore) Create(ctx context.Context, workout *models.Workout) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := time.Now()
	if workout.ID.IsZero() {
		workout.ID = primitive.NewObjectID()
	}
	if workout.Date.IsZero() {
		workout.Date = now
	}
	workout.CreatedAt = now
	workout.UpdatedAt = now
	s.workouts = append(s.workouts, *workout)
	return nil
}

// FindRecent implements WorkoutRepository
func (s *MemoryWorkoutStore) FindRecent(ctx context.Context, userID string, limit int) ([]models.Workout, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	out := []models.Workout{}
	for _, w := range s.workouts {
		if w.UserID == userID {
			out = append(out, w)
		}
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].Date.After(out[j].Date) })
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

// Count implements WorkoutRepository
func (s *MemoryWorkoutStore) Count(ctx context.Context, userID string) (int64, error) {
	recent, _ := s.FindRecent(ctx, userID, 0)
	return int64(len(recent)), nil
}

// MemoryUserStore is an in-process UserRepository
type MemoryUserStore struct {
	mu    sync.Mutex
	users map[string]models.User
}

// NewMemoryUserStore creates an empty store
func NewMemoryUserStore() *MemoryUserStore {
	return &MemoryUserStore{users: make(map[string]models.User)}
}

// Put stores a profile under its hex ID
func (s *MemoryUserStore) Put(user models.User) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.users[user.ID.Hex()] = user
}

// GetByID implements UserRepository
func (s *MemoryUserStore) GetByID(ctx context.Context, userID string) (*models.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	u, ok := s.users[userID]
	if !ok {
		return nil, ErrUserNotFound
	}
	return &u, nil
}

// SetUseImperial implements UserRepository
func (s *MemoryUserStore) SetUseImperial(ctx context.Context, userID string, useImperial bool) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	u, ok := s.users[userID]
	if !ok {
		return ErrUserNotFound
	}
	u.UseImperial = useImperial
	u.UpdatedAt = time.Now()
	s.users[userID] = u
	return nil
}

// AddPoints implements UserRepository
func (s *MemoryUserStore) AddPoints(ctx context.Context, userID string, amount int) (*models.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	u, ok := s.users[userID]
	if !ok {
		return nil, ErrUserNotFound
	}
	u.StrivePoints += amount
	u.Level = models.LevelForPoints(u.StrivePoints)
	u.UpdatedAt = time.Now()
	s.users[userID] = u
	return &u, nil
}

// EnsureProfile implements UserRepository
func (s *MemoryUserStore) EnsureProfile(ctx context.Context, userID, username string) (*models.User, error) {
	oid, err := primitive.ObjectIDFromHex(userID)
	if err != nil {
		return nil, ErrUserNotFound
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if u, ok := s.users[userID]; ok {
		return &u, nil
	}
	now := time.Now()
	u := models.User{ID: oid, Username: username, Level: 1, CreatedAt: now, UpdatedAt: now}
	s.users[userID] = u
	return &u, nil
}
