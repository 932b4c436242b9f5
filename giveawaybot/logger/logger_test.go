package logger

import (
	"context"
	"log/slog"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestHandlerLevel(t *testing.T) {
	h := NewHandler()
	ctx := context.Background()

	// debug by default, like the bot before config is loaded
	assert.True(t, h.Enabled(ctx, slog.LevelDebug))

	h.SetLevel(slog.LevelWarn)
	assert.False(t, h.Enabled(ctx, slog.LevelDebug))
	assert.False(t, h.Enabled(ctx, slog.LevelInfo))
	assert.True(t, h.Enabled(ctx, slog.LevelWarn))
	assert.True(t, h.Enabled(ctx, slog.LevelError))
}

func TestHandlerLevelSharedByDerivedHandlers(t *testing.T) {
	h := NewHandler()
	derived := h.WithAttrs([]slog.Attr{slog.String("type", "db")})

	h.SetLevel(slog.LevelError)
	assert.False(t, derived.Enabled(context.Background(), slog.LevelInfo))
	assert.True(t, derived.Enabled(context.Background(), slog.LevelError))
}

func TestSkipsGatewayChatter(t *testing.T) {
	r := slog.NewRecord(time.Now(), slog.LevelDebug, "Received Gateway Message", 0)
	assert.True(t, shouldSkipLog(&r))

	r = slog.NewRecord(time.Now(), slog.LevelInfo, "Gift links added", 0)
	assert.False(t, shouldSkipLog(&r))
}
