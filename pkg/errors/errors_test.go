package errors

import (
	stderrors "errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestWrapPreservesStack(t *testing.T) {
	inner := New(ErrorTypeFormat, "bad year")
	outer := Wrap(inner, ErrorTypeData, "split failed")

	require.NotNil(t, outer)
	assert.Equal(t, inner.Stack, outer.Stack)
	assert.True(t, stderrors.Is(outer, inner))
}

func TestWrapNil(t *testing.T) {
	assert.Nil(t, Wrap(nil, ErrorTypeData, "nothing"))
}

func TestIsTypeWalksCauses(t *testing.T) {
	inner := Format("FLxx", "year suffix is not numeric")
	outer := Wrap(inner, ErrorTypeData, "split failed")
	wrapped := fmt.Errorf("run: %w", outer)

	assert.True(t, IsType(wrapped, ErrorTypeData))
	assert.True(t, IsType(wrapped, ErrorTypeFormat))
	assert.False(t, IsType(wrapped, ErrorTypeCardinality))
	assert.False(t, IsType(stderrors.New("plain"), ErrorTypeFormat))
}

func TestConstructorDetails(t *testing.T) {
	err := TypeMismatch("abc", "number", "weight_FL06", 4)

	v, ok := err.Detail("line")
	require.True(t, ok)
	assert.Equal(t, 4, v)
	assert.Equal(t, ErrorTypeTypeMismatch, err.Type)

	card := Cardinality("FL_2006", "FL06", "fl06")
	assert.Contains(t, card.Error(), "FL_2006")
	assert.Equal(t, ErrorTypeCardinality, card.Type)

	empty := EmptyInput("stdin")
	assert.Equal(t, "empty_input: no data supplied from stdin", empty.Error())
}
