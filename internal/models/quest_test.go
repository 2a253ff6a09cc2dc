package models

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestQuestDurationPolicy(t *testing.T) {
	tests := []struct {
		duration QuestDuration
		want     QuestPolicy
	}{
		{QuestDurationDaily, QuestPolicy{Count: 3, ExpiryDays: 1, Reward: 100}},
		{QuestDurationWeekly, QuestPolicy{Count: 2, ExpiryDays: 7, Reward: 500}},
		{QuestDurationMonthly, QuestPolicy{Count: 1, ExpiryDays: 30, Reward: 1000}},
	}

	for _, tt := range tests {
		t.Run(string(tt.duration), func(t *testing.T) {
			got, ok := tt.duration.Policy()
			assert.True(t, ok)
			assert.Equal(t, tt.want, got)
			assert.True(t, tt.duration.IsValid())
		})
	}

	_, ok := QuestDuration("yearly").Policy()
	assert.False(t, ok)
	assert.False(t, QuestDuration("").IsValid())
}

func TestQuestStatusTransitions(t *testing.T) {
	all := []QuestStatus{QuestStatusActive, QuestStatusCompleted, QuestStatusExpired}
	allowed := map[QuestStatus][]QuestStatus{
		QuestStatusActive:    {QuestStatusCompleted, QuestStatusExpired},
		QuestStatusCompleted: {QuestStatusExpired},
		QuestStatusExpired:   {},
	}

	for _, from := range all {
		for _, to := range all {
			want := false
			for _, a := range allowed[from] {
				if a == to {
					want = true
				}
			}
			assert.Equal(t, want, from.CanTransitionTo(to), "%s -> %s", from, to)
		}
	}
}

func TestQuestIsLive(t *testing.T) {
	now := time.Date(2026, 3, 10, 12, 0, 0, 0, time.UTC)

	q := Quest{Status: QuestStatusActive, Expiry: now.Add(time.Hour)}
	assert.True(t, q.IsLive(now))

	q.Status = QuestStatusCompleted
	assert.True(t, q.IsLive(now))

	q.Expiry = now
	assert.True(t, q.IsLive(now), "expiry equal to now is still live")

	q.Expiry = now.Add(-time.Second)
	assert.False(t, q.IsLive(now))

	q = Quest{Status: QuestStatusExpired, Expiry: now.Add(time.Hour)}
	assert.False(t, q.IsLive(now))
}
