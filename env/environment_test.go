package env

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/wudi/vela/errors"
	"github.com/wudi/vela/values"
)

func TestTemporalDeadZone(t *testing.T) {
	e := NewDeclarative(nil)
	e.CreateImmutableBinding("x", true)

	_, err := e.GetBindingValue("x", true)
	assert.NotNil(t, err)
	assert.Equal(t, errors.ReferenceError, err.Kind)

	assert.NoError(t, toGoErr(e.InitializeBinding("x", values.Int32(1))))

	v, err := e.GetBindingValue("x", true)
	assert.Nil(t, err)
	assert.Equal(t, int32(1), v.AsInt32())
}

func TestConstReassignmentFails(t *testing.T) {
	e := NewDeclarative(nil)
	e.CreateImmutableBinding("c", true)
	_ = e.InitializeBinding("c", values.Int32(1))

	err := e.SetMutableBinding("c", values.Int32(2), true)
	assert.NotNil(t, err)
	assert.Equal(t, errors.TypeError, err.Kind)
}

func TestResolveWalksOuterChain(t *testing.T) {
	outer := NewDeclarative(nil)
	outer.CreateMutableBinding("x", false)
	_ = outer.InitializeBinding("x", values.Int32(7))

	inner := NewDeclarative(outer)
	found := Resolve(inner, "x")
	assert.Same(t, outer, found)
	assert.Equal(t, 1, Depth(inner, outer))
}

func TestDeletableBinding(t *testing.T) {
	e := NewDeclarative(nil)
	e.CreateMutableBinding("x", true)
	_ = e.InitializeBinding("x", values.Undefined)
	assert.True(t, e.DeleteBinding("x"))
	assert.False(t, e.HasBinding("x"))
}

func toGoErr(e *errors.Error) error {
	if e == nil {
		return nil
	}
	return e
}
