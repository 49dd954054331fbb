package observability

import (
	"bytes"
	"context"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel/attribute"
)

func TestTracingDisabled(t *testing.T) {
	tr, err := InitTracing(TracingConfig{})
	require.NoError(t, err)

	_, span := tr.StartSpan(context.Background(), "ingest")
	span.SetInt("rows", 3)
	span.End(nil)

	assert.NoError(t, tr.Shutdown(context.Background()))
}

func TestTracingExportsSpans(t *testing.T) {
	var buf bytes.Buffer
	tr, err := InitTracing(TracingConfig{Enabled: true, ServiceVersion: "test", Writer: &buf})
	require.NoError(t, err)

	ctx, parent := tr.StartSpan(context.Background(), "split", attribute.String("transformer", "trait-suffix"))
	_, child := tr.StartSpan(ctx, "sink")
	child.SetString("format", "csv")
	child.End(fmt.Errorf("disk full"))
	parent.SetInt("outputs", 4)
	parent.End(nil)

	require.NoError(t, tr.Shutdown(context.Background()))

	out := buf.String()
	assert.Contains(t, out, `"Name":"split"`)
	assert.Contains(t, out, `"Name":"sink"`)
	assert.Contains(t, out, "trait-suffix")
	assert.Contains(t, out, "disk full")
}

func TestResourceMonitor(t *testing.T) {
	rm := NewResourceMonitor()
	u := rm.Usage()

	assert.Positive(t, u.GoroutineCount)
	assert.Positive(t, u.MemoryRSS)
	assert.Len(t, u.Fields(), 5)
}
