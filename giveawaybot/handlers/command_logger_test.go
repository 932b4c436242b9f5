package handlers

import (
	"errors"
	"runtime"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRunLoggedPassesResultThrough(t *testing.T) {
	var called bool
	err := runLogged("test", "111", func() error {
		called = true
		return nil
	})
	require.NoError(t, err)
	assert.True(t, called)

	wantErr := errors.New("boom")
	err = runLogged("test", "111", func() error {
		return wantErr
	})
	assert.ErrorIs(t, err, wantErr)
}

func TestRunLoggedLeavesNoGoroutineBehind(t *testing.T) {
	before := runtime.NumGoroutine()
	for i := 0; i < 50; i++ {
		_ = runLogged("test", "111", func() error { return nil })
	}
	assert.LessOrEqual(t, runtime.NumGoroutine(), before+1)
}
