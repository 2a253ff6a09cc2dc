package logging

import (
	"log/slog"
	"os"
	"strings"
)

// Init configures the global slog logger.
// In production (ENVIRONMENT=production) it uses JSON output for log aggregation.
// Otherwise it uses the human-readable text handler.
func Init() {
	env := strings.ToLower(os.Getenv("ENVIRONMENT"))

	var handler slog.Handler
	if env == "production" {
		handler = slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
			Level: slog.LevelInfo,
		})
	} else {
		handler = slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{
			Level: slog.LevelDebug,
		})
	}

	slog.SetDefault(slog.New(handler))
}

// WithUser returns a logger scoped to one user's quest operations.
func WithUser(userID string, duration string) *slog.Logger {
	logger := slog.With("user_id", userID)
	if duration != "" {
		logger = logger.With("duration", duration)
	}
	return logger
}

// WithQuest returns a logger scoped to a single quest.
func WithQuest(logger *slog.Logger, questID, exercise string) *slog.Logger {
	return logger.With(
		"quest_id", questID,
		"exercise", exercise,
	)
}
