package services

import (
	"bufio"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"strconv"
	"strings"

	"strive/internal/models"
)

var mockProgression = map[models.QuestDuration]float64{
	models.QuestDurationDaily:   1.05,
	models.QuestDurationWeekly:  1.25,
	models.QuestDurationMonthly: 1.5,
}

// MockTextGenerator answers quest prompts deterministically from the activity
// summary embedded in the prompt. Used when USE_MOCK_AI is set.
type MockTextGenerator struct{}

// NewMockTextGenerator creates a mock generator
func NewMockTextGenerator() *MockTextGenerator {
	return &MockTextGenerator{}
}

type mockPrompt struct {
	duration models.QuestDuration
	count    int
	excluded map[string]bool
	workouts []WorkoutSummary
}

func parseMockPrompt(prompt string) (*mockPrompt, error) {
	p := &mockPrompt{excluded: map[string]bool{}}
	scanner := bufio.NewScanner(strings.NewReader(prompt))
	scanner.Buffer(make([]byte, 0, 64*1024), 4*1024*1024)

	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		switch {
		case strings.HasPrefix(line, promptDurationPrefix):
			p.duration = models.QuestDuration(strings.TrimPrefix(line, promptDurationPrefix))
		case strings.HasPrefix(line, promptCountPrefix):
			n, err := strconv.Atoi(strings.TrimPrefix(line, promptCountPrefix))
			if err != nil {
				return nil, fmt.Errorf("bad quest count: %w", err)
			}
			p.count = n
		case strings.HasPrefix(line, promptExcludedPrefix):
			for _, name := range strings.Split(strings.TrimPrefix(line, promptExcludedPrefix), ",") {
				p.excluded[ExerciseKey(name)] = true
			}
		case strings.HasPrefix(line, promptWorkoutsPrefix):
			if err := json.Unmarshal([]byte(strings.TrimPrefix(line, promptWorkoutsPrefix)), &p.workouts); err != nil {
				return nil, fmt.Errorf("bad workout summary: %w", err)
			}
		}
	}
	if err := scanner.Err(); err != nil {
		return nil, err
	}
	if p.count <= 0 {
		return nil, errors.New("prompt has no quest count")
	}
	return p, nil
}

// Generate implements TextGenerator
func (m *MockTextGenerator) Generate(ctx context.Context, prompt string) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}

	p, err := parseMockPrompt(prompt)
	if err != nil {
		return "", err
	}

	factor, ok := mockProgression[p.duration]
	if !ok {
		factor = 1.1
	}

	type best struct {
		name   string
		weight float64
		reps   int
	}
	var order []string
	bests := map[string]*best{}
	for _, w := range p.workouts {
		for _, e := range w.Exercises {
			key := ExerciseKey(e.Name)
			if key == "" || p.excluded[key] {
				continue
			}
			b, seen := bests[key]
			if !seen {
				b = &best{name: NormalizeExerciseName(e.Name)}
				bests[key] = b
				order = append(order, key)
			}
			for _, s := range e.Sets {
				if s.Weight > b.weight || (s.Weight == b.weight && s.Reps > b.reps) {
					b.weight, b.reps = s.Weight, s.Reps
				}
			}
		}
	}

	type wireQuest struct {
		Title       string                     `json:"title"`
		Duration    models.QuestDuration       `json:"duration"`
		Description string                     `json:"description"`
		Completion  models.CompletionCriterion `json:"completion"`
	}
	quests := make([]wireQuest, 0, p.count)
	for _, key := range order {
		if len(quests) == p.count {
			break
		}
		b := bests[key]
		weight := math.Round(b.weight*factor/2.5) * 2.5
		reps := b.reps
		if reps < MinQuestReps {
			reps = MinQuestReps
		}
		if reps > MaxQuestReps {
			reps = MaxQuestReps
		}
		quests = append(quests, wireQuest{
			Title:       b.name + " Challenge",
			Duration:    p.duration,
			Description: fmt.Sprintf("Hit %s for %d reps at %.1fkg in a single set.", b.name, reps, weight),
			Completion:  models.CompletionCriterion{Exercise: b.name, Weight: weight, Reps: reps},
		})
	}

	out, err := json.Marshal(map[string]interface{}{"quests": quests})
	if err != nil {
		return "", err
	}
	return "```json\n" + string(out) + "\n```", nil
}
