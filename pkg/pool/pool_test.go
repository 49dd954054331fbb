package pool

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

type counter struct{ n int }

func TestPoolResetsOnPut(t *testing.T) {
	p := New(func() *counter { return &counter{} }, func(c *counter) { c.n = 0 })

	c := p.Get()
	c.n = 5
	_, inUse := p.Stats()
	assert.Equal(t, int64(1), inUse)

	p.Put(c)
	assert.Equal(t, 0, c.n)

	allocated, inUse := p.Stats()
	assert.Equal(t, int64(1), allocated)
	assert.Equal(t, int64(0), inUse)
}

func TestBufferPool(t *testing.T) {
	b := GetBuffer()
	assert.Equal(t, 0, b.Len())
	b.WriteString("FL_2006")
	PutBuffer(b)

	b = GetBuffer()
	assert.Equal(t, 0, b.Len())
	PutBuffer(b)
	PutBuffer(nil)
}
