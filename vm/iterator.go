package vm

import (
	"github.com/wudi/vela/env"
	"github.com/wudi/vela/errors"
	"github.com/wudi/vela/values"
)

func setDataProp(o *values.Object, name string, v values.Value) {
	o.Properties.Set(values.StringKey(name), &values.PropertyDescriptor{
		Kind: values.DescData, Value: &v, Writable: boolPtrVM(true), Enumerable: boolPtrVM(true), Configurable: boolPtrVM(true),
	})
}

// getIterator implements GetIterator (ECMA-262 7.4.2): arrays get a
// synthesized fast-path iterator, everything else goes through
// value[Symbol.iterator]().
func (vm *Vm) getIterator(v values.Value, span errors.Span) (values.Value, *errors.Error) {
	realm := vm.Realm
	if v.IsString() {
		return makeStringIterator(realm, v), nil
	}
	if !v.IsObject() {
		return values.Undefined, vm.raiseTypeError(span, "%s is not iterable", v.TypeOf())
	}
	obj := v.AsObject()
	if obj.ExoticKind == values.ExoticArray {
		return makeArrayIterator(realm, obj), nil
	}
	methodVal, err := obj.Methods.Get(obj, values.SymbolKey(values.SymbolIterator), v)
	if err != nil {
		return values.Undefined, vm.wrapInternalError(err, span)
	}
	if !methodVal.IsCallable() {
		return values.Undefined, vm.raiseTypeError(span, "value is not iterable")
	}
	return methodVal.AsObject().Call(v, nil)
}

// iteratorNext calls iterator.next() and reports {value, done}.
func (vm *Vm) iteratorNext(iter values.Value, span errors.Span) (value values.Value, done bool, rerr *errors.Error) {
	if !iter.IsObject() {
		return values.Undefined, true, vm.raiseTypeError(span, "iterator result is not an object")
	}
	nextFn, ok := iter.AsObject().GetOwnMethod("next")
	if !ok {
		return values.Undefined, true, vm.raiseTypeError(span, "iterator has no next method")
	}
	result, err := nextFn.Call(iter, nil)
	if err != nil {
		return values.Undefined, true, vm.wrapInternalError(err, span)
	}
	if !result.IsObject() {
		return values.Undefined, true, vm.raiseTypeError(span, "iterator result is not an object")
	}
	doneVal, _ := result.AsObject().Methods.Get(result.AsObject(), values.StringKey("done"), result)
	val, _ := result.AsObject().Methods.Get(result.AsObject(), values.StringKey("value"), result)
	return val, doneVal.ToBoolean(), nil
}

// iteratorClose calls iterator.return() if present, ignoring its result,
// per the IteratorClose abstract operation (7.4.9). The compiler emits
// IteratorClose only at the end of array-pattern and object-rest
// destructuring; a for-of loop that exits by break/throw/return does
// not close its iterator.
func (vm *Vm) iteratorClose(iter values.Value) {
	if !iter.IsObject() {
		return
	}
	if retFn, ok := iter.AsObject().GetOwnMethod("return"); ok {
		_, _ = retFn.Call(iter, nil)
	}
}

// makeForInIterator walks obj's prototype chain collecting enumerable
// string-keyed property names, each one reported at most once even if
// shadowed further up the chain (ECMA-262 14.7.5.9 EnumerateObjectProperties,
// simplified: captured up front rather than lazily re-checked as the
// chain mutates mid-loop).
func (vm *Vm) makeForInIterator(v values.Value) values.Value {
	realm := vm.Realm
	var names []string
	if v.IsObject() {
		seen := map[string]bool{}
		for cur := v.AsObject(); cur != nil; cur = cur.Methods.GetPrototypeOf(cur) {
			for _, key := range cur.Properties.Keys() {
				if key.Kind == values.KeySymbol || seen[key.String()] {
					continue
				}
				seen[key.String()] = true
				if d, ok := cur.Properties.Get(key); ok && d.Enumerable != nil && *d.Enumerable {
					names = append(names, key.String())
				}
			}
		}
	}
	idx := 0
	iterObj := values.NewOrdinaryObject(realm.Intrinsics.ObjectPrototype)
	nextFn := values.NewFunctionObject(realm.Intrinsics.FunctionPrototype, "next", 0, func(this values.Value, args []values.Value) (values.Value, *errors.Error) {
		result := values.NewOrdinaryObject(realm.Intrinsics.ObjectPrototype)
		if idx >= len(names) {
			setDataProp(result, "done", values.True)
			setDataProp(result, "value", values.Undefined)
			return values.ObjectValue(result), nil
		}
		name := names[idx]
		idx++
		setDataProp(result, "done", values.False)
		setDataProp(result, "value", values.StringFromGo(name))
		return values.ObjectValue(result), nil
	}, nil)
	setDataProp(iterObj, "next", values.ObjectValue(nextFn))
	return values.ObjectValue(iterObj)
}

func makeArrayIterator(realm *env.Realm, arr *values.Object) values.Value {
	idx := 0
	iterObj := values.NewOrdinaryObject(realm.Intrinsics.ObjectPrototype)
	nextFn := values.NewFunctionObject(realm.Intrinsics.FunctionPrototype, "next", 0, func(this values.Value, args []values.Value) (values.Value, *errors.Error) {
		lengthDesc, _ := arr.Methods.GetOwnProperty(arr, values.StringKey("length"))
		length := int(lengthDesc.Value.ToNumber())
		result := values.NewOrdinaryObject(realm.Intrinsics.ObjectPrototype)
		if idx >= length {
			setDataProp(result, "done", values.True)
			setDataProp(result, "value", values.Undefined)
			return values.ObjectValue(result), nil
		}
		v, err := arr.Methods.Get(arr, values.IndexKey(uint32(idx)), values.ObjectValue(arr))
		if err != nil {
			return values.Undefined, err
		}
		idx++
		setDataProp(result, "done", values.False)
		setDataProp(result, "value", v)
		return values.ObjectValue(result), nil
	}, nil)
	setDataProp(iterObj, "next", values.ObjectValue(nextFn))
	return values.ObjectValue(iterObj)
}

func makeStringIterator(realm *env.Realm, s values.Value) values.Value {
	units := s.AsString().Units()
	idx := 0
	iterObj := values.NewOrdinaryObject(realm.Intrinsics.ObjectPrototype)
	nextFn := values.NewFunctionObject(realm.Intrinsics.FunctionPrototype, "next", 0, func(this values.Value, args []values.Value) (values.Value, *errors.Error) {
		result := values.NewOrdinaryObject(realm.Intrinsics.ObjectPrototype)
		if idx >= len(units) {
			setDataProp(result, "done", values.True)
			setDataProp(result, "value", values.Undefined)
			return values.ObjectValue(result), nil
		}
		end := idx + 1
		if units[idx] >= 0xD800 && units[idx] <= 0xDBFF && end < len(units) && units[end] >= 0xDC00 && units[end] <= 0xDFFF {
			end++
		}
		ch := values.StringFromUnits(units[idx:end])
		idx = end
		setDataProp(result, "done", values.False)
		setDataProp(result, "value", ch)
		return values.ObjectValue(result), nil
	}, nil)
	setDataProp(iterObj, "next", values.ObjectValue(nextFn))
	return values.ObjectValue(iterObj)
}
