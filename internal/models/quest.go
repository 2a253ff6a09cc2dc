package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// QuestDuration is the time horizon bucket of a quest
type QuestDuration string

const (
	QuestDurationDaily   QuestDuration = "daily"
	QuestDurationWeekly  QuestDuration = "weekly"
	QuestDurationMonthly QuestDuration = "monthly"
)

// QuestDurations lists every duration class in display order
var QuestDurations = []QuestDuration{QuestDurationDaily, QuestDurationWeekly, QuestDurationMonthly}

// QuestStatus represents the lifecycle state of a quest
type QuestStatus string

const (
	QuestStatusActive    QuestStatus = "active"
	QuestStatusCompleted QuestStatus = "completed"
	QuestStatusExpired   QuestStatus = "expired"
)

// QuestPolicy holds the fixed generation parameters of a duration class
type QuestPolicy struct {
	Count      int
	ExpiryDays int
	Reward     int
}

var questPolicies = map[QuestDuration]QuestPolicy{
	QuestDurationDaily:   {Count: 3, ExpiryDays: 1, Reward: 100},
	QuestDurationWeekly:  {Count: 2, ExpiryDays: 7, Reward: 500},
	QuestDurationMonthly: {Count: 1, ExpiryDays: 30, Reward: 1000},
}

// Policy returns the generation parameters for the duration class
func (d QuestDuration) Policy() (QuestPolicy, bool) {
	p, ok := questPolicies[d]
	return p, ok
}

// IsValid reports whether d is a known duration class
func (d QuestDuration) IsValid() bool {
	_, ok := questPolicies[d]
	return ok
}

// CanTransitionTo reports whether moving from s to next is a legal forward transition.
// active -> completed, active -> expired, completed -> expired. Nothing leaves expired.
func (s QuestStatus) CanTransitionTo(next QuestStatus) bool {
	switch s {
	case QuestStatusActive:
		return next == QuestStatusCompleted || next == QuestStatusExpired
	case QuestStatusCompleted:
		return next == QuestStatusExpired
	default:
		return false
	}
}

// CompletionCriterion is the set a logged workout must meet or exceed
type CompletionCriterion struct {
	Exercise string  `bson:"exercise" json:"exercise"`
	Weight   float64 `bson:"weight" json:"weight"`
	Reps     int     `bson:"reps" json:"reps"`
}

// Quest is a generated fitness goal owned by one user
type Quest struct {
	ID          primitive.ObjectID  `bson:"_id,omitempty" json:"id"`
	UserID      string              `bson:"userId" json:"userId"`
	BatchID     string              `bson:"batchId" json:"batchId"`
	Title       string              `bson:"title" json:"title"`
	Duration    QuestDuration       `bson:"duration" json:"duration"`
	Description string              `bson:"description" json:"description"`
	Completion  CompletionCriterion `bson:"completion" json:"completion"`
	Reward      int                 `bson:"reward" json:"reward"`
	Status      QuestStatus         `bson:"status" json:"status"`
	Expiry      time.Time           `bson:"expiry" json:"expiry"`

	CompletedAt *time.Time `bson:"completedAt,omitempty" json:"completedAt,omitempty"`
	CreatedAt   time.Time  `bson:"createdAt" json:"createdAt"`
	UpdatedAt   time.Time  `bson:"updatedAt" json:"updatedAt"`
}

// IsLive reports whether the quest still occupies its duration slot at now
func (q *Quest) IsLive(now time.Time) bool {
	return q.Status != QuestStatusExpired && !q.Expiry.Before(now)
}

// QuestDraft is a validated but not yet persisted quest produced by the generator
type QuestDraft struct {
	Title       string
	Description string
	Completion  CompletionCriterion
}

// QuestMatch reports a quest completed by a submitted workout
type QuestMatch struct {
	QuestID   primitive.ObjectID `json:"questId"`
	QuestName string             `json:"questName"`
	Completed bool               `json:"completed"`
	Reward    int                `json:"reward"`
}

// GroupedQuests is the listing shape returned to clients
type GroupedQuests struct {
	Daily   []Quest `json:"daily"`
	Weekly  []Quest `json:"weekly"`
	Monthly []Quest `json:"monthly"`
}
