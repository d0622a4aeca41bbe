package zap_test

import (
	"errors"
	"testing"

	"github.com/fwojciec/gias/zap"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
)

func TestNewLogger(t *testing.T) {
	t.Parallel()

	t.Run("accepts known levels", func(t *testing.T) {
		t.Parallel()

		for _, level := range []string{"", "debug", "info", "warn", "error"} {
			_, err := zap.NewLogger(level, false)
			assert.NoError(t, err, level)
		}
	})

	t.Run("development mode builds", func(t *testing.T) {
		t.Parallel()

		_, err := zap.NewLogger("debug", true)

		assert.NoError(t, err)
	})

	t.Run("rejects unknown level", func(t *testing.T) {
		t.Parallel()

		_, err := zap.NewLogger("loud", false)

		assert.Error(t, err)
	})
}

func TestNewTestLogger(t *testing.T) {
	t.Parallel()

	core, logs := observer.New(zapcore.InfoLevel)
	logger := zap.NewTestLogger(core)

	logger.Info("patch written", "path", "/tmp/p.patch")
	logger.Error(errors.New("boom"), "git apply failed")
	logger.V(1).Info("hidden at info level")

	entries := logs.All()
	require.Len(t, entries, 2)
	assert.Equal(t, "patch written", entries[0].Message)
	assert.Equal(t, "/tmp/p.patch", entries[0].ContextMap()["path"])
	assert.Equal(t, zapcore.ErrorLevel, entries[1].Level)
}
