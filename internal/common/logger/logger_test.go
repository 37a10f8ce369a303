package logger

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
)

func TestParseLevel(t *testing.T) {
	assert.Equal(t, zapcore.DebugLevel, parseLevel("debug"))
	assert.Equal(t, zapcore.WarnLevel, parseLevel("warn"))
	assert.Equal(t, zapcore.ErrorLevel, parseLevel("error"))
	assert.Equal(t, zapcore.InfoLevel, parseLevel("info"))
	assert.Equal(t, zapcore.InfoLevel, parseLevel("verbose"))
}

func TestToZapFields_SortedAndErrorAware(t *testing.T) {
	fields := toZapFields(map[string]interface{}{
		"sessionId": "s-1",
		"cause":     errors.New("boom"),
		"attempt":   2,
	})

	require.Len(t, fields, 3)
	assert.Equal(t, "attempt", fields[0].Key)
	assert.Equal(t, "cause", fields[1].Key)
	assert.Equal(t, zapcore.ErrorType, fields[1].Type)
	assert.Equal(t, "sessionId", fields[2].Key)

	assert.Nil(t, toZapFields(nil))
}

func TestZapAdapter_WithFieldsCarriesContext(t *testing.T) {
	core, logs := observer.New(zapcore.DebugLevel)
	log := NewZapAdapter(zap.New(core))

	log.WithFields(map[string]interface{}{"intent": "greeting"}).Info("turn processed", map[string]interface{}{
		"confidence": 0.5,
	})
	log.WithError(errors.New("insert failed")).Warn("persistence degraded", nil)

	entries := logs.All()
	require.Len(t, entries, 2)
	assert.Equal(t, "turn processed", entries[0].Message)
	assert.Equal(t, "greeting", entries[0].ContextMap()["intent"])
	assert.Equal(t, 0.5, entries[0].ContextMap()["confidence"])
	assert.Equal(t, "insert failed", entries[1].ContextMap()["error"])
}

func TestNoOpLogger(t *testing.T) {
	log := NewNoOpLogger()
	assert.NotPanics(t, func() {
		log.With(map[string]interface{}{"k": "v"}).Error("ignored", nil)
	})
}
