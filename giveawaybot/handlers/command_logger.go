package handlers

import (
	"log/slog"
	"time"

	"github.com/disgoorg/disgo/handler"
)

const (
	slowThreshold = 2 * time.Second
	stuckWarnAt   = 30 * time.Second
)

// WrapWithLogging wraps a command handler with logging functionality
func WrapWithLogging(name string, h handler.CommandHandler) handler.CommandHandler {
	return func(e *handler.CommandEvent) error {
		slog.Info("Command started",
			slog.String("type", "cmd"),
			slog.String("name", name),
			slog.String("user_id", e.User().ID.String()),
			slog.String("user_name", e.User().Username),
		)
		return runLogged(name, e.User().ID.String(), func() error {
			return h(e)
		})
	}
}

// runLogged runs h synchronously and logs its outcome. The handler is
// never abandoned mid-flight: commands bound their own work with
// context timeouts, so instead of detaching a goroutine and walking away
// after a deadline, a timer flags the command as stuck while it keeps
// running to completion.
func runLogged(name, userID string, h func() error) error {
	start := time.Now()

	stuck := time.AfterFunc(stuckWarnAt, func() {
		slog.Error("Command still running",
			slog.String("type", "cmd"),
			slog.String("name", name),
			slog.String("user_id", userID),
			slog.Duration("running_for", stuckWarnAt),
			slog.String("status", "stuck"),
		)
	})
	defer stuck.Stop()

	err := h()
	duration := time.Since(start)

	attrs := []any{
		slog.String("type", "cmd"),
		slog.String("name", name),
		slog.String("user_id", userID),
		slog.Duration("took", duration),
	}

	if err != nil {
		slog.Error("Command failed", append(attrs,
			slog.Any("error", err),
			slog.String("status", "failed"),
		)...)
	} else if duration > slowThreshold {
		slog.Warn("Command executed slowly", append(attrs,
			slog.String("status", "slow"),
		)...)
	} else {
		slog.Info("Command completed", append(attrs,
			slog.String("status", "success"),
		)...)
	}
	return err
}
