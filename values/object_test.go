package values

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/wudi/vela/errors"
)

func TestDefineOwnPropertyThenGetOwnPropertyCompatible(t *testing.T) {
	o := NewOrdinaryObject(nil)
	key := StringKey("x")
	val := Int32(42)
	desc := DataDescriptor(val, true, true, true)

	ok, err := o.Methods.DefineOwnProperty(o, key, desc)
	assert.Nil(t, err)
	assert.True(t, ok)

	got, exists := o.Methods.GetOwnProperty(o, key)
	assert.True(t, exists)
	assert.True(t, StrictEquals(*got.Value, val))
}

func TestNonConfigurableRejectsReconfiguration(t *testing.T) {
	o := NewOrdinaryObject(nil)
	key := StringKey("frozen")
	val := Int32(1)
	ok, _ := o.Methods.DefineOwnProperty(o, key, DataDescriptor(val, false, false, false))
	assert.True(t, ok)

	// Attempting to make it configurable must fail.
	ok, _ = o.Methods.DefineOwnProperty(o, key, PropertyDescriptor{Configurable: boolPtr(true)})
	assert.False(t, ok)

	// Attempting to change its value must fail (non-writable, non-configurable).
	other := Int32(2)
	ok, _ = o.Methods.DefineOwnProperty(o, key, PropertyDescriptor{Kind: DescData, Value: &other})
	assert.False(t, ok)

	got, _ := o.Methods.GetOwnProperty(o, key)
	assert.True(t, StrictEquals(*got.Value, val))
}

func TestOwnPropertyKeysOrdering(t *testing.T) {
	o := NewOrdinaryObject(nil)
	sym := NewSymbol("s")
	v := Undefined
	o.Properties.Set(StringKey("b"), &PropertyDescriptor{Kind: DescData, Value: &v, Enumerable: boolPtr(true), Configurable: boolPtr(true), Writable: boolPtr(true)})
	o.Properties.Set(SymbolKey(sym), &PropertyDescriptor{Kind: DescData, Value: &v, Enumerable: boolPtr(true), Configurable: boolPtr(true), Writable: boolPtr(true)})
	o.Properties.Set(IndexKey(5), &PropertyDescriptor{Kind: DescData, Value: &v, Enumerable: boolPtr(true), Configurable: boolPtr(true), Writable: boolPtr(true)})
	o.Properties.Set(StringKey("a"), &PropertyDescriptor{Kind: DescData, Value: &v, Enumerable: boolPtr(true), Configurable: boolPtr(true), Writable: boolPtr(true)})
	o.Properties.Set(IndexKey(1), &PropertyDescriptor{Kind: DescData, Value: &v, Enumerable: boolPtr(true), Configurable: boolPtr(true), Writable: boolPtr(true)})

	keys := o.Methods.OwnPropertyKeys(o)
	assert.Equal(t, []PropertyKey{
		IndexKey(1), IndexKey(5), StringKey("b"), StringKey("a"), SymbolKey(sym),
	}, keys)
}

func TestArrayLengthInvariant(t *testing.T) {
	arr := NewArrayObject(nil)
	v := StringFromGo("x")
	ok, _ := arr.Methods.DefineOwnProperty(arr, IndexKey(3), DataDescriptor(v, true, true, true))
	assert.True(t, ok)

	length, _ := arr.Methods.GetOwnProperty(arr, StringKey("length"))
	assert.Equal(t, int32(4), length.Value.AsInt32())

	// Shrinking length deletes elements at or beyond the new length.
	newLen := Int32(1)
	ok, _ = arr.Methods.DefineOwnProperty(arr, StringKey("length"), PropertyDescriptor{Kind: DescData, Value: &newLen, Writable: boolPtr(true)})
	assert.True(t, ok)
	_, exists := arr.Methods.GetOwnProperty(arr, IndexKey(3))
	assert.False(t, exists)
}

func TestProxyGetTrapForwardsKeyAsString(t *testing.T) {
	target := NewOrdinaryObject(nil)
	handler := NewOrdinaryObject(nil)
	trap := NewFunctionObject(nil, "get", 2, func(this Value, args []Value) (Value, *errors.Error) {
		return args[1], nil
	}, nil)
	handler.Properties.Set(StringKey("get"), &PropertyDescriptor{
		Kind: DescData, Value: valPtr(ObjectValue(trap)),
		Writable: boolPtr(true), Enumerable: boolPtr(true), Configurable: boolPtr(true),
	})
	proxy := NewProxyObject(target, handler)

	result, err := proxy.Methods.Get(proxy, StringKey("hello"), ObjectValue(proxy))
	assert.Nil(t, err)
	assert.Equal(t, "hello", result.ToStringValue())
}

func valPtr(v Value) *Value { return &v }
