package services

import (
	"encoding/json"
	"fmt"
	"math"
	"regexp"
	"strings"
	"sync"

	"strive/internal/models"

	"github.com/santhosh-tekuri/jsonschema/v5"
)

// Bounds on the reps of a completion criterion
const (
	MinQuestReps = 1
	MaxQuestReps = 12
)

const questBatchSchemaURL = "https://strive.schemas.local/quests/batch.schema.json"

// questBatchSchema is the shape the generator is instructed to return
const questBatchSchema = `{
	"type": "object",
	"required": ["quests"],
	"properties": {
		"quests": {
			"type": "array",
			"items": {
				"type": "object",
				"required": ["title", "description", "completion"],
				"properties": {
					"title": {"type": "string", "minLength": 1},
					"description": {"type": "string", "minLength": 1},
					"duration": {"type": "string"},
					"completion": {
						"type": "object",
						"required": ["exercise", "weight", "reps"],
						"properties": {
							"exercise": {"type": "string", "minLength": 1},
							"weight": {"type": "number", "minimum": 0},
							"reps": {"type": "integer", "minimum": 1, "maximum": 12}
						}
					}
				}
			}
		}
	}
}`

var (
	compiledBatchSchema *jsonschema.Schema
	batchSchemaErr      error
	batchSchemaOnce     sync.Once

	codeFencePattern = regexp.MustCompile("(?i)```[a-z]*")
)

func questSchema() (*jsonschema.Schema, error) {
	batchSchemaOnce.Do(func() {
		c := jsonschema.NewCompiler()
		c.Draft = jsonschema.Draft2020
		if err := c.AddResource(questBatchSchemaURL, strings.NewReader(questBatchSchema)); err != nil {
			batchSchemaErr = fmt.Errorf("failed to load quest schema: %w", err)
			return
		}
		compiledBatchSchema, batchSchemaErr = c.Compile(questBatchSchemaURL)
	})
	return compiledBatchSchema, batchSchemaErr
}

type questBatchWire struct {
	Quests []questDraftWire `json:"quests"`
}

type questDraftWire struct {
	Title       string `json:"title"`
	Description string `json:"description"`
	Completion  struct {
		Exercise string  `json:"exercise"`
		Weight   float64 `json:"weight"`
		Reps     float64 `json:"reps"`
	} `json:"completion"`
}

// extractJSONObject strips markdown fences and returns the first complete JSON object in
// the text. Commentary before and after it is ignored, even when it contains braces.
func extractJSONObject(raw string) (string, bool) {
	text := codeFencePattern.ReplaceAllString(raw, "")
	for offset := 0; offset < len(text); {
		i := strings.IndexByte(text[offset:], '{')
		if i == -1 {
			break
		}
		start := offset + i

		var obj json.RawMessage
		if err := json.NewDecoder(strings.NewReader(text[start:])).Decode(&obj); err == nil {
			return string(obj), true
		}
		offset = start + 1
	}
	return "", false
}

// ParseQuestBatch turns raw generator text into exactly expectedCount validated drafts.
// Every failure wraps ErrMalformedResponse. Exercise names in the result are normalised.
func ParseQuestBatch(raw string, expectedCount int) ([]models.QuestDraft, error) {
	body, ok := extractJSONObject(raw)
	if !ok {
		return nil, fmt.Errorf("%w: no JSON object in response", ErrMalformedResponse)
	}

	var doc interface{}
	if err := json.Unmarshal([]byte(body), &doc); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformedResponse, err)
	}

	schema, err := questSchema()
	if err != nil {
		return nil, err
	}
	if err := schema.Validate(doc); err != nil {
		return nil, fmt.Errorf("%w: schema validation failed: %v", ErrMalformedResponse, err)
	}

	var batch questBatchWire
	if err := json.Unmarshal([]byte(body), &batch); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformedResponse, err)
	}

	if len(batch.Quests) != expectedCount {
		return nil, fmt.Errorf("%w: expected %d quests, got %d", ErrMalformedResponse, expectedCount, len(batch.Quests))
	}

	drafts := make([]models.QuestDraft, 0, len(batch.Quests))
	seen := make(map[string]int, len(batch.Quests))
	for i, q := range batch.Quests {
		title := strings.TrimSpace(q.Title)
		description := strings.TrimSpace(q.Description)
		exercise := NormalizeExerciseName(q.Completion.Exercise)

		switch {
		case title == "":
			return nil, fmt.Errorf("%w: quest %d has an empty title", ErrMalformedResponse, i)
		case description == "":
			return nil, fmt.Errorf("%w: quest %d has an empty description", ErrMalformedResponse, i)
		case exercise == "":
			return nil, fmt.Errorf("%w: quest %d has an empty exercise", ErrMalformedResponse, i)
		}

		reps := q.Completion.Reps
		if reps != math.Trunc(reps) || reps < MinQuestReps || reps > MaxQuestReps {
			return nil, fmt.Errorf("%w: quest %d reps %v outside [%d,%d]", ErrMalformedResponse, i, reps, MinQuestReps, MaxQuestReps)
		}
		if math.IsNaN(q.Completion.Weight) || q.Completion.Weight < 0 {
			return nil, fmt.Errorf("%w: quest %d has a negative weight", ErrMalformedResponse, i)
		}

		key := ExerciseKey(exercise)
		if prev, dup := seen[key]; dup {
			return nil, fmt.Errorf("%w: quests %d and %d both target %q", ErrMalformedResponse, prev, i, exercise)
		}
		seen[key] = i

		drafts = append(drafts, models.QuestDraft{
			Title:       title,
			Description: description,
			Completion: models.CompletionCriterion{
				Exercise: exercise,
				Weight:   q.Completion.Weight,
				Reps:     int(reps),
			},
		})
	}

	return drafts, nil
}
