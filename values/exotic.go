package values

import "github.com/wudi/vela/errors"

// --- Array exotic object (ECMA-262 10.4.2) ---

var arrayMethods = InternalMethods{
	GetPrototypeOf:    ordinaryGetPrototypeOf,
	SetPrototypeOf:    ordinarySetPrototypeOf,
	IsExtensible:      ordinaryIsExtensible,
	PreventExtensions: ordinaryPreventExtensions,
	GetOwnProperty:    ordinaryGetOwnProperty,
	DefineOwnProperty: arrayDefineOwnProperty,
	HasProperty:       ordinaryHasProperty,
	Get:               ordinaryGet,
	Set:               ordinarySet,
	Delete:            ordinaryDelete,
	OwnPropertyKeys:   ordinaryOwnPropertyKeys,
}

// arrayDefineOwnProperty keeps "length" consistent and expands it when an
// integer index >= length is defined (spec §4.2).
func arrayDefineOwnProperty(o *Object, key PropertyKey, desc PropertyDescriptor) (bool, *errors.Error) {
	if key.Kind == KeyString && key.Str == "length" {
		return arraySetLength(o, desc)
	}
	if key.Kind == KeyIndex {
		lengthDesc, _ := o.Properties.Get(StringKey("length"))
		oldLen := uint32(lengthDesc.Value.ToNumber())
		if key.Index >= oldLen && !lengthDesc.isWritable() {
			return false, nil
		}
		ok := ValidateAndApplyPropertyDescriptor(o.Properties, key, o.Extensible, desc)
		if !ok {
			return false, nil
		}
		if key.Index >= oldLen {
			newLen := Int32(int32(key.Index + 1))
			lengthDesc.Value = &newLen
			o.Properties.Set(StringKey("length"), lengthDesc)
		}
		return true, nil
	}
	ok := ValidateAndApplyPropertyDescriptor(o.Properties, key, o.Extensible, desc)
	return ok, nil
}

func arraySetLength(o *Object, desc PropertyDescriptor) (bool, *errors.Error) {
	if desc.Value == nil {
		ok := ValidateAndApplyPropertyDescriptor(o.Properties, StringKey("length"), o.Extensible, desc)
		return ok, nil
	}
	newLen := uint32(desc.Value.ToNumber())
	current, _ := o.Properties.Get(StringKey("length"))
	oldLen := uint32(current.Value.ToNumber())
	ok := ValidateAndApplyPropertyDescriptor(o.Properties, StringKey("length"), o.Extensible, desc)
	if !ok {
		return false, nil
	}
	if newLen < oldLen {
		for i := oldLen; i > newLen; i-- {
			o.Properties.Delete(IndexKey(i - 1))
		}
	}
	return true, nil
}

// --- Boxed String exotic object (ECMA-262 10.4.3) ---

var stringWrapperMethods = InternalMethods{
	GetPrototypeOf:    ordinaryGetPrototypeOf,
	SetPrototypeOf:    ordinarySetPrototypeOf,
	IsExtensible:      ordinaryIsExtensible,
	PreventExtensions: ordinaryPreventExtensions,
	GetOwnProperty:    stringGetOwnProperty,
	DefineOwnProperty: ordinaryDefineOwnProperty,
	HasProperty:       ordinaryHasProperty,
	Get:               ordinaryGet,
	Set:               ordinarySet,
	Delete:            ordinaryDelete,
	OwnPropertyKeys:   stringOwnPropertyKeys,
}

func stringGetOwnProperty(o *Object, key PropertyKey) (*PropertyDescriptor, bool) {
	if key.Kind == KeyIndex && int(key.Index) < o.StringData.Primitive.Len() {
		units := o.StringData.Primitive.Units()
		ch := StringFromUnits(units[key.Index : key.Index+1])
		return &PropertyDescriptor{
			Kind: DescData, Value: &ch, Writable: boolPtr(false),
			Enumerable: boolPtr(true), Configurable: boolPtr(false),
		}, true
	}
	return ordinaryGetOwnProperty(o, key)
}

func stringOwnPropertyKeys(o *Object) []PropertyKey {
	n := o.StringData.Primitive.Len()
	keys := make([]PropertyKey, 0, n)
	for i := 0; i < n; i++ {
		keys = append(keys, IndexKey(uint32(i)))
	}
	return append(keys, ordinaryOwnPropertyKeys(o)...)
}

// --- Proxy exotic object (ECMA-262 10.5) ---
//
// Every trap falls back to forwarding directly to the target when the
// handler doesn't define one, per the spec's "if trap is undefined" steps
// for each internal method.

var proxyMethods = InternalMethods{
	GetPrototypeOf:    proxyGetPrototypeOf,
	SetPrototypeOf:    proxySetPrototypeOf,
	IsExtensible:      proxyIsExtensible,
	PreventExtensions: proxyPreventExtensions,
	GetOwnProperty:    proxyGetOwnProperty,
	DefineOwnProperty: proxyDefineOwnProperty,
	HasProperty:       proxyHasProperty,
	Get:               proxyGet,
	Set:               proxySet,
	Delete:            proxyDelete,
	OwnPropertyKeys:   proxyOwnPropertyKeys,
}

func proxyTrap(o *Object, name string) (*Object, bool) {
	if o.ProxyData.Handler == nil {
		return nil, false
	}
	v, err := o.ProxyData.Handler.Methods.Get(o.ProxyData.Handler, StringKey(name), ObjectValue(o.ProxyData.Handler))
	if err != nil || v.typ != TypeObject || v.obj.Call == nil {
		return nil, false
	}
	return v.obj, true
}

func proxyGetPrototypeOf(o *Object) *Object {
	if trap, ok := proxyTrap(o, "getPrototypeOf"); ok {
		if v, err := trap.Call(ObjectValue(o.ProxyData.Handler), []Value{ObjectValue(o.ProxyData.Target)}); err == nil && v.typ == TypeObject {
			return v.obj
		}
	}
	return o.ProxyData.Target.Methods.GetPrototypeOf(o.ProxyData.Target)
}

func proxySetPrototypeOf(o *Object, proto *Object) bool {
	if trap, ok := proxyTrap(o, "setPrototypeOf"); ok {
		v, err := trap.Call(ObjectValue(o.ProxyData.Handler), []Value{ObjectValue(o.ProxyData.Target), ObjectValue(proto)})
		return err == nil && v.ToBoolean()
	}
	return o.ProxyData.Target.Methods.SetPrototypeOf(o.ProxyData.Target, proto)
}

func proxyIsExtensible(o *Object) bool {
	if trap, ok := proxyTrap(o, "isExtensible"); ok {
		v, err := trap.Call(ObjectValue(o.ProxyData.Handler), []Value{ObjectValue(o.ProxyData.Target)})
		return err == nil && v.ToBoolean()
	}
	return o.ProxyData.Target.Methods.IsExtensible(o.ProxyData.Target)
}

func proxyPreventExtensions(o *Object) bool {
	if trap, ok := proxyTrap(o, "preventExtensions"); ok {
		v, err := trap.Call(ObjectValue(o.ProxyData.Handler), []Value{ObjectValue(o.ProxyData.Target)})
		return err == nil && v.ToBoolean()
	}
	return o.ProxyData.Target.Methods.PreventExtensions(o.ProxyData.Target)
}

func proxyGetOwnProperty(o *Object, key PropertyKey) (*PropertyDescriptor, bool) {
	if trap, ok := proxyTrap(o, "getOwnPropertyDescriptor"); ok {
		v, err := trap.Call(ObjectValue(o.ProxyData.Handler), []Value{ObjectValue(o.ProxyData.Target), propertyKeyValue(key)})
		if err != nil || v.IsUndefined() {
			return nil, false
		}
		return descriptorFromObject(v.obj), true
	}
	return o.ProxyData.Target.Methods.GetOwnProperty(o.ProxyData.Target, key)
}

func proxyDefineOwnProperty(o *Object, key PropertyKey, desc PropertyDescriptor) (bool, *errors.Error) {
	if trap, ok := proxyTrap(o, "defineProperty"); ok {
		v, err := trap.Call(ObjectValue(o.ProxyData.Handler), []Value{ObjectValue(o.ProxyData.Target), propertyKeyValue(key), descriptorToObject(desc)})
		return err == nil && v.ToBoolean(), err
	}
	return o.ProxyData.Target.Methods.DefineOwnProperty(o.ProxyData.Target, key, desc)
}

func proxyHasProperty(o *Object, key PropertyKey) bool {
	if trap, ok := proxyTrap(o, "has"); ok {
		v, err := trap.Call(ObjectValue(o.ProxyData.Handler), []Value{ObjectValue(o.ProxyData.Target), propertyKeyValue(key)})
		return err == nil && v.ToBoolean()
	}
	return o.ProxyData.Target.Methods.HasProperty(o.ProxyData.Target, key)
}

func proxyGet(o *Object, key PropertyKey, receiver Value) (Value, *errors.Error) {
	if trap, ok := proxyTrap(o, "get"); ok {
		return trap.Call(ObjectValue(o.ProxyData.Handler), []Value{ObjectValue(o.ProxyData.Target), propertyKeyValue(key), receiver})
	}
	return o.ProxyData.Target.Methods.Get(o.ProxyData.Target, key, receiver)
}

func proxySet(o *Object, key PropertyKey, value Value, receiver Value) (bool, *errors.Error) {
	if trap, ok := proxyTrap(o, "set"); ok {
		v, err := trap.Call(ObjectValue(o.ProxyData.Handler), []Value{ObjectValue(o.ProxyData.Target), propertyKeyValue(key), value, receiver})
		return err == nil && v.ToBoolean(), err
	}
	return o.ProxyData.Target.Methods.Set(o.ProxyData.Target, key, value, receiver)
}

func proxyDelete(o *Object, key PropertyKey) bool {
	if trap, ok := proxyTrap(o, "deleteProperty"); ok {
		v, err := trap.Call(ObjectValue(o.ProxyData.Handler), []Value{ObjectValue(o.ProxyData.Target), propertyKeyValue(key)})
		return err == nil && v.ToBoolean()
	}
	return o.ProxyData.Target.Methods.Delete(o.ProxyData.Target, key)
}

func proxyOwnPropertyKeys(o *Object) []PropertyKey {
	if trap, ok := proxyTrap(o, "ownKeys"); ok {
		v, err := trap.Call(ObjectValue(o.ProxyData.Handler), []Value{ObjectValue(o.ProxyData.Target)})
		if err == nil && v.typ == TypeObject {
			return arrayObjectToKeys(v.obj)
		}
	}
	return o.ProxyData.Target.Methods.OwnPropertyKeys(o.ProxyData.Target)
}

func propertyKeyValue(key PropertyKey) Value {
	if key.Kind == KeySymbol {
		return SymbolValue(key.Sym)
	}
	return StringFromGo(key.String())
}

// descriptorFromObject/descriptorToObject bridge the internal descriptor
// representation and the plain-object shape a Proxy trap or
// Object.defineProperty call observes (value/writable/get/set/enumerable/
// configurable own properties). Kept intentionally small: it is enough to
// round-trip through a trap, not a full reflective Object.* surface.
func descriptorFromObject(o *Object) *PropertyDescriptor {
	d := &PropertyDescriptor{}
	if v, ok := o.Properties.Get(StringKey("value")); ok {
		d.Kind = DescData
		d.Value = v.Value
	}
	if v, ok := o.Properties.Get(StringKey("get")); ok {
		d.Kind = DescAccessor
		d.Get = v.Value
	}
	if v, ok := o.Properties.Get(StringKey("set")); ok {
		d.Kind = DescAccessor
		d.Set = v.Value
	}
	if v, ok := o.Properties.Get(StringKey("writable")); ok {
		d.Writable = boolPtr(v.Value.ToBoolean())
	}
	if v, ok := o.Properties.Get(StringKey("enumerable")); ok {
		d.Enumerable = boolPtr(v.Value.ToBoolean())
	}
	if v, ok := o.Properties.Get(StringKey("configurable")); ok {
		d.Configurable = boolPtr(v.Value.ToBoolean())
	}
	return d
}

func descriptorToObject(desc PropertyDescriptor) Value {
	o := NewOrdinaryObject(nil)
	if desc.Value != nil {
		o.Properties.Set(StringKey("value"), &PropertyDescriptor{Kind: DescData, Value: desc.Value, Writable: boolPtr(true), Enumerable: boolPtr(true), Configurable: boolPtr(true)})
	}
	if desc.Get != nil {
		o.Properties.Set(StringKey("get"), &PropertyDescriptor{Kind: DescData, Value: desc.Get, Writable: boolPtr(true), Enumerable: boolPtr(true), Configurable: boolPtr(true)})
	}
	if desc.Set != nil {
		o.Properties.Set(StringKey("set"), &PropertyDescriptor{Kind: DescData, Value: desc.Set, Writable: boolPtr(true), Enumerable: boolPtr(true), Configurable: boolPtr(true)})
	}
	if desc.Writable != nil {
		v := Bool(*desc.Writable)
		o.Properties.Set(StringKey("writable"), &PropertyDescriptor{Kind: DescData, Value: &v, Writable: boolPtr(true), Enumerable: boolPtr(true), Configurable: boolPtr(true)})
	}
	if desc.Enumerable != nil {
		v := Bool(*desc.Enumerable)
		o.Properties.Set(StringKey("enumerable"), &PropertyDescriptor{Kind: DescData, Value: &v, Writable: boolPtr(true), Enumerable: boolPtr(true), Configurable: boolPtr(true)})
	}
	if desc.Configurable != nil {
		v := Bool(*desc.Configurable)
		o.Properties.Set(StringKey("configurable"), &PropertyDescriptor{Kind: DescData, Value: &v, Writable: boolPtr(true), Enumerable: boolPtr(true), Configurable: boolPtr(true)})
	}
	return ObjectValue(o)
}

func arrayObjectToKeys(o *Object) []PropertyKey {
	keys := make([]PropertyKey, 0, o.Properties.Len())
	for _, k := range o.Methods.OwnPropertyKeys(o) {
		if k.Kind == KeyIndex {
			v, _ := o.Methods.Get(o, k, ObjectValue(o))
			keys = append(keys, ToPropertyKey(v))
		}
	}
	return keys
}
