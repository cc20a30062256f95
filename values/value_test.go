package values

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/wudi/vela/errors"
)

func TestSameValueNaN(t *testing.T) {
	nan := Float64(math.NaN())
	assert.True(t, SameValue(nan, nan))
	assert.False(t, StrictEquals(nan, nan))
}

func TestSameValueZeroSigns(t *testing.T) {
	pos := Float64(0)
	neg := Float64(math.Copysign(0, -1))
	assert.False(t, SameValue(pos, neg))
	assert.True(t, StrictEquals(pos, neg))
	assert.True(t, SameValueZero(pos, neg))
}

func TestToNumberRoundTrip(t *testing.T) {
	for _, f := range []float64{0, 1, -1, 3.5, 1e21, -1e-10} {
		v := Float64(f)
		got := stringToNumber(v.ToStringValue())
		assert.Equal(t, f, got)
	}
	nan := Float64(math.NaN())
	assert.True(t, math.IsNaN(stringToNumber(nan.ToStringValue())))
}

func TestLooseEqualsCoercion(t *testing.T) {
	assert.True(t, LooseEquals(Int32(1), StringFromGo("1")))
	assert.True(t, LooseEquals(Bool(true), Int32(1)))
	assert.True(t, LooseEquals(Null, Undefined))
	assert.False(t, LooseEquals(Null, Int32(0)))
	assert.False(t, LooseEquals(Undefined, Int32(0)))
}

func TestJsStringUnpairedSurrogate(t *testing.T) {
	// A lone high surrogate (0xD800) is legal in an ECMAScript string.
	lone := StringFromUnits([]uint16{0xD800})
	assert.Equal(t, 1, lone.AsString().Len())
	// The lossy UTF-8 view substitutes the replacement character.
	assert.Contains(t, lone.AsString().ToGoString(), "�")
}

func TestJsStringSurrogatePairRoundTrip(t *testing.T) {
	s := NewJsString("\U0001F600") // outside the BMP, requires a surrogate pair
	assert.Equal(t, 2, s.Len())
	assert.Equal(t, "\U0001F600", s.ToGoString())
}

func TestTypeOf(t *testing.T) {
	assert.Equal(t, "undefined", Undefined.TypeOf())
	assert.Equal(t, "object", Null.TypeOf())
	assert.Equal(t, "number", Int32(1).TypeOf())
	assert.Equal(t, "string", StringFromGo("x").TypeOf())

	fn := NewFunctionObject(nil, "f", 0, func(this Value, args []Value) (Value, *errors.Error) {
		return Undefined, nil
	}, nil)
	assert.Equal(t, "function", ObjectValue(fn).TypeOf())
}
