package jobs

import (
	"context"
	"fmt"
	"log"
	"sync"
	"time"

	"github.com/robfig/cron/v3"
)

// QuestSweeper expires overdue quests across all users
type QuestSweeper interface {
	SweepAll(ctx context.Context) (int64, error)
}

// QuestExpirySweepJob moves active and completed quests past their expiry to expired.
// Reads sweep lazily on their own, so this only keeps stored state tidy between visits.
type QuestExpirySweepJob struct {
	sweeper  QuestSweeper
	spec     string
	schedule cron.Schedule
	loc      *time.Location

	mu          sync.Mutex
	lastRun     time.Time
	lastExpired int64
}

// NewQuestExpirySweepJob validates spec and builds the job
func NewQuestExpirySweepJob(sweeper QuestSweeper, spec string, loc *time.Location) (*QuestExpirySweepJob, error) {
	parser := cron.NewParser(cron.Minute | cron.Hour | cron.Dom | cron.Month | cron.Dow)
	schedule, err := parser.Parse(spec)
	if err != nil {
		return nil, fmt.Errorf("invalid sweep schedule %q: %w", spec, err)
	}
	if loc == nil {
		loc = time.UTC
	}
	return &QuestExpirySweepJob{
		sweeper:  sweeper,
		spec:     spec,
		schedule: schedule,
		loc:      loc,
	}, nil
}

// Run sweeps every user's overdue quests
func (j *QuestExpirySweepJob) Run(ctx context.Context) error {
	expired, err := j.sweeper.SweepAll(ctx)

	j.mu.Lock()
	j.lastRun = time.Now()
	if err == nil {
		j.lastExpired = expired
	}
	j.mu.Unlock()

	if err != nil {
		return fmt.Errorf("quest sweep failed: %w", err)
	}
	if expired > 0 {
		log.Printf("🧹 [QUEST-SWEEP] Expired %d quests", expired)
	}
	return nil
}

// Schedule implements Job
func (j *QuestExpirySweepJob) Schedule() string {
	return j.spec
}

// GetNextRunTime implements Job
func (j *QuestExpirySweepJob) GetNextRunTime() time.Time {
	return j.schedule.Next(time.Now().In(j.loc))
}

// LastRun returns when the job last ran and how many quests it expired
func (j *QuestExpirySweepJob) LastRun() (time.Time, int64) {
	j.mu.Lock()
	defer j.mu.Unlock()
	return j.lastRun, j.lastExpired
}
