package services

import (
	"context"
	"errors"
	"fmt"
	"log"
	"sort"
	"time"

	"strive/internal/logging"
	"strive/internal/models"

	"github.com/google/uuid"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

// QuestServiceConfig tunes the generation policy
type QuestServiceConfig struct {
	HistoryLimit   int           // recent workouts shown to the generator
	MaxRetries     int           // generator attempts after the first
	AttemptTimeout time.Duration // per generator call
	Location       *time.Location
	Directives     DifficultyDirectives
}

// QuestService owns quest generation, completion and expiry
type QuestService struct {
	quests    QuestRepository
	workouts  WorkoutRepository
	users     UserRepository
	generator TextGenerator
	locker    SlotLocker
	metrics   *Metrics
	config    QuestServiceConfig
	now       func() time.Time
}

// NewQuestService creates a quest service. A nil locker falls back to an in-process one.
func NewQuestService(
	quests QuestRepository,
	workouts WorkoutRepository,
	users UserRepository,
	generator TextGenerator,
	locker SlotLocker,
	cfg QuestServiceConfig,
) *QuestService {
	if cfg.HistoryLimit <= 0 {
		cfg.HistoryLimit = 10
	}
	if cfg.MaxRetries < 0 {
		cfg.MaxRetries = 0
	}
	if cfg.AttemptTimeout <= 0 {
		cfg.AttemptTimeout = 60 * time.Second
	}
	if cfg.Location == nil {
		cfg.Location = time.UTC
	}
	if cfg.Directives == nil {
		cfg.Directives = DefaultDifficultyDirectives
	}
	if locker == nil {
		locker = NewLocalSlotLocker()
	}

	return &QuestService{
		quests:    quests,
		workouts:  workouts,
		users:     users,
		generator: generator,
		locker:    locker,
		config:    cfg,
		now:       time.Now,
	}
}

// SetMetrics attaches Prometheus metrics (optional)
func (s *QuestService) SetMetrics(metrics *Metrics) {
	s.metrics = metrics
}

// StartOfDay truncates t to midnight in loc
func StartOfDay(t time.Time, loc *time.Location) time.Time {
	local := t.In(loc)
	return time.Date(local.Year(), local.Month(), local.Day(), 0, 0, 0, 0, loc)
}

// Sweep expires the user's quests whose expiry has passed
func (s *QuestService) Sweep(ctx context.Context, userID string) error {
	n, err := s.quests.SweepExpired(ctx, userID, s.now())
	if err != nil {
		return err
	}
	if n > 0 {
		logging.WithUser(userID, "").Debug("expired quests swept", "count", n)
	}
	s.metrics.RecordExpired(n)
	return nil
}

// SweepAll expires overdue quests for every user
func (s *QuestService) SweepAll(ctx context.Context) (int64, error) {
	n, err := s.quests.SweepAllExpired(ctx, s.now())
	if err != nil {
		return 0, err
	}
	s.metrics.RecordExpired(n)
	return n, nil
}

// EnsureQuests returns the live batch for the slot, generating one when the slot is empty.
// It does not sweep; callers sweep first so stale quests do not count as live.
func (s *QuestService) EnsureQuests(ctx context.Context, userID string, duration models.QuestDuration) ([]models.Quest, error) {
	policy, ok := duration.Policy()
	if !ok {
		return nil, ErrInvalidDuration
	}

	now := s.now()
	live, err := s.quests.ListLive(ctx, userID, duration, now)
	if err != nil {
		return nil, err
	}
	if len(live) > 0 {
		return live, nil
	}

	workouts, err := s.workouts.FindRecent(ctx, userID, s.config.HistoryLimit)
	if err != nil {
		return nil, err
	}
	if len(workouts) == 0 {
		return nil, ErrInsufficientHistory
	}

	// Only exercises the generator can see in the summary are eligible
	history := windowExerciseKeys(workouts)

	unitSystem := s.unitSystem(ctx, userID)
	summary := SummarizeWorkouts(workouts)
	logger := logging.WithUser(userID, string(duration))

	attempts := 1 + s.config.MaxRetries
	var lastErr error
	for attempt := 1; attempt <= attempts; attempt++ {
		excluded, err := s.activeExerciseKeys(ctx, userID, s.now())
		if err != nil {
			return nil, err
		}

		available := 0
		for key := range history {
			if _, taken := excluded[key]; !taken {
				available++
			}
		}
		if available < policy.Count {
			return nil, fmt.Errorf("%w: %d unclaimed exercises for %d %s quests", ErrInsufficientHistory, available, policy.Count, duration)
		}

		drafts, err := s.generateDrafts(ctx, QuestGenerationRequest{
			Duration:   duration,
			Count:      policy.Count,
			UnitSystem: unitSystem,
			Directive:  s.config.Directives.Directive(duration),
			Excluded:   sortedNames(excluded),
			Workouts:   summary,
		}, history, excluded)
		if err != nil {
			if ctxErr := ctx.Err(); ctxErr != nil {
				return nil, ctxErr
			}
			lastErr = err
			logger.Warn("quest generation attempt failed", "attempt", attempt, "error", err)
			continue
		}

		quests, err := s.commitBatch(ctx, userID, duration, policy, drafts)
		if errors.Is(err, errSlotConflict) {
			s.metrics.RecordConflict()
			lastErr = err
			logger.Info("exercise claimed concurrently, regenerating", "attempt", attempt)
			continue
		}
		if err != nil {
			return nil, err
		}
		return quests, nil
	}

	log.Printf("❌ [QUEST] Generation failed for user %s (%s) after %d attempts: %v", userID, duration, attempts, lastErr)
	return nil, fmt.Errorf("%w: %v", ErrGenerationFailed, lastErr)
}

// errSlotConflict means a concurrent commit claimed one of the drafted exercises
var errSlotConflict = errors.New("exercise claimed by a concurrent batch")

// generateDrafts runs one generator call with no lock held and validates its output
func (s *QuestService) generateDrafts(ctx context.Context, req QuestGenerationRequest, history map[string]string, excluded map[string]string) ([]models.QuestDraft, error) {
	prompt, err := BuildQuestPrompt(req)
	if err != nil {
		return nil, err
	}

	genCtx, cancel := context.WithTimeout(ctx, s.config.AttemptTimeout)
	defer cancel()

	start := time.Now()
	raw, err := s.generator.Generate(genCtx, prompt)
	elapsed := time.Since(start).Seconds()
	if err != nil {
		s.metrics.RecordAttempt("error", elapsed)
		return nil, fmt.Errorf("generator call failed: %w", err)
	}

	drafts, err := ParseQuestBatch(raw, req.Count)
	if err == nil {
		err = checkDraftExercises(drafts, history, excluded)
	}
	if err != nil {
		s.metrics.RecordAttempt("malformed", elapsed)
		log.Printf("⚠️  [QUEST] Rejected generator output (%d bytes): %v", len(raw), err)
		return nil, err
	}

	s.metrics.RecordAttempt("ok", elapsed)
	return drafts, nil
}

// checkDraftExercises rejects drafts naming an exercise the user never logged or one already claimed
func checkDraftExercises(drafts []models.QuestDraft, history map[string]string, excluded map[string]string) error {
	for _, d := range drafts {
		key := ExerciseKey(d.Completion.Exercise)
		if _, ok := history[key]; !ok {
			return fmt.Errorf("%w: %q is not in the workout history", ErrMalformedResponse, d.Completion.Exercise)
		}
		if _, taken := excluded[key]; taken {
			return fmt.Errorf("%w: %q is already claimed by an active quest", ErrMalformedResponse, d.Completion.Exercise)
		}
	}
	return nil
}

// commitBatch persists drafts under the user's slot lock. If another request filled
// the slot first its batch is returned and drafts are discarded.
func (s *QuestService) commitBatch(
	ctx context.Context,
	userID string,
	duration models.QuestDuration,
	policy models.QuestPolicy,
	drafts []models.QuestDraft,
) ([]models.Quest, error) {
	unlock, err := s.locker.Lock(ctx, userID)
	if err != nil {
		return nil, err
	}
	defer unlock()

	// Generation may have run past midnight, so expiry is anchored to commit time
	now := s.now()

	count, err := s.quests.CountLive(ctx, userID, duration, now)
	if err != nil {
		return nil, err
	}
	if count > 0 {
		log.Printf("ℹ️  [QUEST] Slot %s for user %s filled concurrently, discarding drafts", duration, userID)
		return s.quests.ListLive(ctx, userID, duration, now)
	}

	excluded, err := s.activeExerciseKeys(ctx, userID, now)
	if err != nil {
		return nil, err
	}
	for _, d := range drafts {
		if _, taken := excluded[ExerciseKey(d.Completion.Exercise)]; taken {
			return nil, errSlotConflict
		}
	}

	batchID := uuid.New().String()
	expiry := StartOfDay(now, s.config.Location).AddDate(0, 0, policy.ExpiryDays)
	created := now

	quests := make([]models.Quest, len(drafts))
	for i, d := range drafts {
		quests[i] = models.Quest{
			ID:          primitive.NewObjectID(),
			UserID:      userID,
			BatchID:     batchID,
			Title:       d.Title,
			Duration:    duration,
			Description: d.Description,
			Completion:  d.Completion,
			Reward:      policy.Reward,
			Status:      models.QuestStatusActive,
			Expiry:      expiry,
			CreatedAt:   created,
			UpdatedAt:   created,
		}
	}

	if err := s.quests.InsertBatch(ctx, quests); err != nil {
		return nil, err
	}

	s.metrics.RecordGenerated(string(duration), len(quests))
	logging.WithUser(userID, string(duration)).Info("quest batch created",
		"batch_id", batchID,
		"count", len(quests),
		"expiry", expiry,
	)
	return quests, nil
}

// GenerateQuests sweeps and then ensures a single duration slot
func (s *QuestService) GenerateQuests(ctx context.Context, userID string, duration models.QuestDuration) ([]models.Quest, error) {
	if !duration.IsValid() {
		return nil, ErrInvalidDuration
	}
	if err := s.Sweep(ctx, userID); err != nil {
		return nil, err
	}
	return s.EnsureQuests(ctx, userID, duration)
}

// ListQuests sweeps, fills every empty duration slot and returns the live quests grouped.
// A user without enough history gets empty groups.
func (s *QuestService) ListQuests(ctx context.Context, userID string) (*models.GroupedQuests, error) {
	if err := s.Sweep(ctx, userID); err != nil {
		return nil, err
	}

	// Sequential so each batch sees the exercises claimed by the previous one
	for _, duration := range models.QuestDurations {
		if _, err := s.EnsureQuests(ctx, userID, duration); err != nil {
			if errors.Is(err, ErrInsufficientHistory) {
				continue
			}
			return nil, err
		}
	}

	live, err := s.quests.ListLive(ctx, userID, "", s.now())
	if err != nil {
		return nil, err
	}

	grouped := &models.GroupedQuests{
		Daily:   []models.Quest{},
		Weekly:  []models.Quest{},
		Monthly: []models.Quest{},
	}
	for _, q := range live {
		switch q.Duration {
		case models.QuestDurationDaily:
			grouped.Daily = append(grouped.Daily, q)
		case models.QuestDurationWeekly:
			grouped.Weekly = append(grouped.Weekly, q)
		case models.QuestDurationMonthly:
			grouped.Monthly = append(grouped.Monthly, q)
		}
	}
	return grouped, nil
}

// CheckCompletion completes every active quest the workout satisfies.
// A quest that fails to update is logged and skipped.
func (s *QuestService) CheckCompletion(ctx context.Context, userID string, workout *models.Workout) ([]models.QuestMatch, error) {
	now := s.now()
	active, err := s.quests.ListActive(ctx, userID, now)
	if err != nil {
		return nil, err
	}

	logger := logging.WithUser(userID, "")
	matches := []models.QuestMatch{}
	for _, q := range active {
		if !WorkoutMeetsCriterion(workout, q.Completion) {
			continue
		}

		completed, err := s.quests.MarkCompleted(ctx, userID, q.ID, now)
		if err != nil {
			logging.WithQuest(logger, q.ID.Hex(), q.Completion.Exercise).Error("failed to complete quest", "error", err)
			continue
		}
		if !completed {
			// Completed or expired by a concurrent request
			continue
		}

		s.metrics.RecordCompleted(string(q.Duration))
		logging.WithQuest(logger, q.ID.Hex(), q.Completion.Exercise).Info("quest completed", "reward", q.Reward)
		matches = append(matches, models.QuestMatch{
			QuestID:   q.ID,
			QuestName: q.Title,
			Completed: true,
			Reward:    q.Reward,
		})
	}
	return matches, nil
}

// GetQuest returns one quest owned by userID
func (s *QuestService) GetQuest(ctx context.Context, userID, questID string) (*models.Quest, error) {
	oid, err := primitive.ObjectIDFromHex(questID)
	if err != nil {
		return nil, ErrQuestNotFound
	}

	quest, err := s.quests.GetByID(ctx, oid)
	if err != nil {
		return nil, err
	}
	if quest.UserID != userID {
		return nil, ErrQuestNotOwned
	}
	return quest, nil
}

// windowExerciseKeys maps the folded key of every exercise in workouts to its normalized name
func windowExerciseKeys(workouts []models.Workout) map[string]string {
	keys := make(map[string]string)
	for _, w := range workouts {
		for _, e := range w.Exercises {
			normalized := NormalizeExerciseName(e.Name)
			if normalized == "" {
				continue
			}
			keys[ExerciseKey(normalized)] = normalized
		}
	}
	return keys
}

// activeExerciseKeys returns the exercises claimed by active, unexpired quests
func (s *QuestService) activeExerciseKeys(ctx context.Context, userID string, now time.Time) (map[string]string, error) {
	active, err := s.quests.ListActive(ctx, userID, now)
	if err != nil {
		return nil, err
	}
	keys := make(map[string]string, len(active))
	for _, q := range active {
		normalized := NormalizeExerciseName(q.Completion.Exercise)
		keys[ExerciseKey(normalized)] = normalized
	}
	return keys, nil
}

func (s *QuestService) unitSystem(ctx context.Context, userID string) string {
	user, err := s.users.GetByID(ctx, userID)
	if err != nil {
		if !errors.Is(err, ErrUserNotFound) {
			log.Printf("⚠️  [QUEST] Failed to load profile for %s, defaulting to metric: %v", userID, err)
		}
		return (&models.User{}).UnitSystem()
	}
	return user.UnitSystem()
}

func sortedNames(keys map[string]string) []string {
	names := make([]string, 0, len(keys))
	for _, name := range keys {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
