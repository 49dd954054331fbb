package logger

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"
)

func TestInitRejectsBadLevel(t *testing.T) {
	err := Init(Config{Level: "loud"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "invalid log level")
}

func TestWithContextAddsRunFields(t *testing.T) {
	core, logs := observer.New(zap.DebugLevel)
	Set(zap.New(core))
	t.Cleanup(func() { Set(nil) })

	ctx := context.WithValue(context.Background(), RunIDKey, "run-1")
	ctx = context.WithValue(ctx, TransformerKey, "trait-suffix")
	ctx = context.WithValue(ctx, GrowoutKey, "FL_2006")

	WithContext(ctx).Info("emitted")

	entries := logs.All()
	require.Len(t, entries, 1)
	fields := entries[0].ContextMap()
	assert.Equal(t, "run-1", fields["run_id"])
	assert.Equal(t, "trait-suffix", fields["transformer"])
	assert.Equal(t, "FL_2006", fields["growout"])
}

func TestGrowoutField(t *testing.T) {
	core, logs := observer.New(zap.DebugLevel)
	log := zap.New(core)

	ctx := WithGrowout(context.Background(), "MO_2006")
	log.Info("named", GrowoutField(ctx))
	log.Info("unnamed", GrowoutField(context.Background()))

	entries := logs.All()
	require.Len(t, entries, 2)
	assert.Equal(t, map[string]interface{}{"growout": "MO_2006"}, entries[0].ContextMap())
	assert.Empty(t, entries[1].ContextMap())
}

func TestGetBuildsDefault(t *testing.T) {
	Set(nil)
	l := Get()
	require.NotNil(t, l)
	assert.Same(t, l, Get())
}
