package config

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"strive/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var testDefaults = map[models.QuestDuration]string{
	models.QuestDurationDaily:   "default daily",
	models.QuestDurationWeekly:  "default weekly",
	models.QuestDurationMonthly: "default monthly",
}

func writePrompts(t *testing.T, path, body string) {
	t.Helper()
	require.NoError(t, os.WriteFile(path, []byte(body), 0o644))
}

func TestQuestPrompts_DefaultsWithoutFile(t *testing.T) {
	p, err := NewQuestPrompts("", testDefaults)
	require.NoError(t, err)
	assert.Equal(t, "default weekly", p.Directive(models.QuestDurationWeekly))
}

func TestQuestPrompts_OverridesFromYAML(t *testing.T) {
	path := filepath.Join(t.TempDir(), "prompts.yaml")
	writePrompts(t, path, "directives:\n  Daily: \"push a little\"\n  monthly: \"\"\n")

	p, err := NewQuestPrompts(path, testDefaults)
	require.NoError(t, err)

	assert.Equal(t, "push a little", p.Directive(models.QuestDurationDaily))
	assert.Equal(t, "default weekly", p.Directive(models.QuestDurationWeekly))
	assert.Equal(t, "default monthly", p.Directive(models.QuestDurationMonthly))
}

func TestQuestPrompts_RejectsBadFiles(t *testing.T) {
	dir := t.TempDir()

	_, err := NewQuestPrompts(filepath.Join(dir, "missing.yaml"), testDefaults)
	assert.Error(t, err)

	path := filepath.Join(dir, "bad.yaml")
	writePrompts(t, path, "directives:\n  yearly: \"nope\"\n")
	_, err = NewQuestPrompts(path, testDefaults)
	assert.Error(t, err)
}

func TestQuestPrompts_ReloadKeepsPreviousOnError(t *testing.T) {
	path := filepath.Join(t.TempDir(), "prompts.yaml")
	writePrompts(t, path, "directives:\n  weekly: \"v1\"\n")
	p, err := NewQuestPrompts(path, testDefaults)
	require.NoError(t, err)

	writePrompts(t, path, "directives: [not, a, map")
	assert.Error(t, p.Reload())
	assert.Equal(t, "v1", p.Directive(models.QuestDurationWeekly))
}

func TestQuestPrompts_WatchReloadsOnWrite(t *testing.T) {
	path := filepath.Join(t.TempDir(), "prompts.yaml")
	writePrompts(t, path, "directives:\n  daily: \"v1\"\n")
	p, err := NewQuestPrompts(path, testDefaults)
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go p.Watch(ctx)

	// Give the watcher time to register before writing
	time.Sleep(200 * time.Millisecond)
	writePrompts(t, path, "directives:\n  daily: \"v2\"\n")

	assert.Eventually(t, func() bool {
		return p.Directive(models.QuestDurationDaily) == "v2"
	}, 5*time.Second, 50*time.Millisecond)
}

func TestConfigLoad(t *testing.T) {
	t.Setenv("QUEST_GENERATION_RETRIES", "2")
	t.Setenv("LLM_TIMEOUT", "15s")
	t.Setenv("LLM_BASE_URL", "http://localhost:11434/v1/")
	t.Setenv("QUEST_TIMEZONE", "Not/AZone")
	t.Setenv("USE_MOCK_AI", "true")
	t.Setenv("ENVIRONMENT", "Production")

	cfg := Load()
	assert.Equal(t, 2, cfg.QuestGenerationRetries)
	assert.Equal(t, 15*time.Second, cfg.LLMTimeout)
	assert.Equal(t, "http://localhost:11434/v1", cfg.LLMBaseURL)
	assert.Equal(t, 10, cfg.QuestHistoryLimit)
	assert.Equal(t, time.UTC, cfg.Location())
	assert.True(t, cfg.UseMockAI)
	assert.True(t, cfg.IsProduction())
}
