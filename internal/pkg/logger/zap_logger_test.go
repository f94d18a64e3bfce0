package logger

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
)

func TestZapLogger_Fields(t *testing.T) {
	core, logs := observer.New(zapcore.DebugLevel)
	l := NewWithCore(core)

	l.Info("KnowledgeService", "loaded", map[string]interface{}{"count": 3})
	l.Warn("KnowledgeService", "no details", nil)
	l.Error("KnowledgeService", "failed", map[string]interface{}{"error": errors.New("boom")})

	entries := logs.All()
	require.Len(t, entries, 3)

	assert.Equal(t, "loaded", entries[0].Message)
	assert.Equal(t, "KnowledgeService", entries[0].ContextMap()["module"])
	assert.Equal(t, map[string]interface{}{"count": 3}, entries[0].ContextMap()["details"])

	assert.Equal(t, zapcore.WarnLevel, entries[1].Level)
	assert.NotNil(t, entries[1].ContextMap()["details"])

	assert.Equal(t, "boom", entries[2].ContextMap()["error"])
}

func TestNopLogger(t *testing.T) {
	l := NewNopLogger()
	l.Debug("m", "ignored", nil)
	assert.NoError(t, l.Sync())
}
