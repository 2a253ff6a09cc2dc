package config

import (
	"context"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"strive/internal/models"

	"github.com/fsnotify/fsnotify"
	"gopkg.in/yaml.v3"
)

// questPromptsFile is the on-disk shape of QUEST_PROMPTS_FILE
//
//	directives:
//	  daily: "Aim 5-15% above recent working sets."
//	  weekly: "..."
type questPromptsFile struct {
	Directives map[string]string `yaml:"directives"`
}

// QuestPrompts holds the per-duration difficulty directives, reloadable from a YAML file.
// Durations missing from the file keep their default text.
type QuestPrompts struct {
	path     string
	defaults map[models.QuestDuration]string

	mu         sync.RWMutex
	directives map[models.QuestDuration]string
}

// NewQuestPrompts creates directives backed by path. An empty path serves the defaults only.
func NewQuestPrompts(path string, defaults map[models.QuestDuration]string) (*QuestPrompts, error) {
	p := &QuestPrompts{
		path:       path,
		defaults:   defaults,
		directives: copyDirectives(defaults),
	}
	if path == "" {
		return p, nil
	}
	if err := p.Reload(); err != nil {
		return nil, err
	}
	return p, nil
}

// Directive returns the current directive for a duration
func (p *QuestPrompts) Directive(duration models.QuestDuration) string {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return p.directives[duration]
}

// Reload re-reads the file. On error the previous directives stay in effect.
func (p *QuestPrompts) Reload() error {
	data, err := os.ReadFile(p.path)
	if err != nil {
		return fmt.Errorf("failed to read quest prompts file: %w", err)
	}

	var file questPromptsFile
	if err := yaml.Unmarshal(data, &file); err != nil {
		return fmt.Errorf("failed to parse quest prompts YAML: %w", err)
	}

	next := copyDirectives(p.defaults)
	for key, text := range file.Directives {
		duration := models.QuestDuration(strings.ToLower(strings.TrimSpace(key)))
		if !duration.IsValid() {
			return fmt.Errorf("unknown quest duration %q in %s", key, p.path)
		}
		if text = strings.TrimSpace(text); text != "" {
			next[duration] = text
		}
	}

	p.mu.Lock()
	p.directives = next
	p.mu.Unlock()
	return nil
}

// Watch reloads the file whenever it is written, until ctx is done
func (p *QuestPrompts) Watch(ctx context.Context) {
	if p.path == "" {
		return
	}

	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		log.Printf("⚠️  Failed to create file watcher: %v", err)
		return
	}
	defer watcher.Close()

	absPath, err := filepath.Abs(p.path)
	if err != nil {
		log.Printf("⚠️  Failed to get absolute path for %s: %v", p.path, err)
		return
	}

	// Watch the directory; editors often replace the file instead of writing it
	filename := filepath.Base(absPath)
	if err := watcher.Add(filepath.Dir(absPath)); err != nil {
		log.Printf("⚠️  Failed to watch directory for %s: %v", p.path, err)
		return
	}

	log.Printf("👁️  Watching %s for changes (hot-reload enabled)", p.path)

	var debounceTimer *time.Timer
	for {
		select {
		case <-ctx.Done():
			if debounceTimer != nil {
				debounceTimer.Stop()
			}
			return

		case event, ok := <-watcher.Events:
			if !ok {
				return
			}
			if filepath.Base(event.Name) != filename {
				continue
			}
			if event.Op&(fsnotify.Write|fsnotify.Create) == 0 {
				continue
			}

			if debounceTimer != nil {
				debounceTimer.Stop()
			}
			debounceTimer = time.AfterFunc(300*time.Millisecond, func() {
				if err := p.Reload(); err != nil {
					log.Printf("❌ Failed to reload quest prompts: %v", err)
					return
				}
				log.Printf("✅ Quest prompts reloaded from %s", p.path)
			})

		case err, ok := <-watcher.Errors:
			if !ok {
				return
			}
			log.Printf("⚠️  File watcher error: %v", err)
		}
	}
}

func copyDirectives(src map[models.QuestDuration]string) map[models.QuestDuration]string {
	dst := make(map[models.QuestDuration]string, len(src))
	for k, v := range src {
		dst[k] = v
	}
	return dst
}
