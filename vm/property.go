package vm

import (
	"github.com/wudi/vela/env"
	"github.com/wudi/vela/errors"
	"github.com/wudi/vela/values"
)

// getPropIC implements GetProp/GetPropIC: a monomorphic inline cache
// keyed on the receiver's identity, remembering which object in the
// prototype chain actually owns the property so a cache hit skips the
// walk entirely (spec §4.1 "variable access with inline-cache slots" —
// the same idea applies to property sites).
func (vm *Vm) getPropIC(block *CodeBlock, recvObj *values.Object, key values.PropertyKey, icSlot int, receiver values.Value) (values.Value, *errors.Error) {
	if icSlot >= 0 && icSlot < len(block.ICProps) {
		e := block.ICProps[icSlot]
		if e.obj == recvObj && e.owner != nil {
			if d, ok := e.owner.Methods.GetOwnProperty(e.owner, key); ok {
				return vm.descValue(d, receiver)
			}
		}
	}
	for cur := recvObj; cur != nil; cur = cur.Methods.GetPrototypeOf(cur) {
		if d, ok := cur.Methods.GetOwnProperty(cur, key); ok {
			if icSlot >= 0 && icSlot < len(block.ICProps) {
				block.ICProps[icSlot] = icPropEntry{obj: recvObj, owner: cur, desc: d}
			}
			return vm.descValue(d, receiver)
		}
	}
	return values.Undefined, nil
}

func (vm *Vm) descValue(d *values.PropertyDescriptor, receiver values.Value) (values.Value, *errors.Error) {
	if d.Kind == values.DescAccessor {
		if d.Get == nil || !d.Get.IsCallable() {
			return values.Undefined, nil
		}
		return d.Get.AsObject().Call(receiver, nil)
	}
	if d.Value == nil {
		return values.Undefined, nil
	}
	return *d.Value, nil
}

// getValueProperty reads key off receiver, boxing primitive receivers
// against the realm's matching prototype just long enough to resolve the
// method (strings are the only primitive with its own prototype wired up
// today; every other primitive falls back to Object.prototype, spec §4.2
// "GetProp on a primitive receiver").
func (vm *Vm) getValueProperty(receiver values.Value, key values.PropertyKey, span errors.Span) (values.Value, *errors.Error) {
	if receiver.IsObject() {
		v, err := receiver.AsObject().Methods.Get(receiver.AsObject(), key, receiver)
		if err != nil {
			return values.Undefined, vm.wrapInternalError(err, span)
		}
		return v, nil
	}
	if receiver.IsNullish() {
		return values.Undefined, vm.raiseTypeError(span, "cannot read properties of %s (reading '%s')", receiver.TypeOf(), key.String())
	}
	proto := vm.Realm.Intrinsics.ObjectPrototype
	if receiver.IsString() {
		proto = vm.Realm.Intrinsics.StringPrototype
		if key.Kind == values.KeyIndex {
			units := receiver.AsString().Units()
			if int(key.Index) < len(units) {
				return values.StringFromUnits(units[key.Index : key.Index+1]), nil
			}
			return values.Undefined, nil
		}
		if key.Kind == values.KeyString && key.Str == "length" {
			return values.Int32(int32(receiver.AsString().Len())), nil
		}
	}
	v, err := proto.Methods.Get(proto, key, receiver)
	if err != nil {
		return values.Undefined, vm.wrapInternalError(err, span)
	}
	return v, nil
}

// getSuperProp implements `super.prop`/`super.method()`: the lookup
// starts one level up from the enclosing method's home object (the
// class prototype it was defined on), but the receiver stays `this` so
// a getter or method body sees the actual instance (ECMA-262 13.3.5.1
// "MakeSuperPropertyReference").
func (vm *Vm) getSuperProp(frame *CallFrame, name string, span errors.Span) (values.Value, *errors.Error) {
	homeObject := vm.homeObjects[frame.FuncObj]
	if homeObject == nil {
		return values.Undefined, vm.raiseTypeError(span, "'super' keyword is only valid inside a method")
	}
	parent := homeObject.Methods.GetPrototypeOf(homeObject)
	if parent == nil {
		return values.Undefined, nil
	}
	v, err := parent.Methods.Get(parent, values.StringKey(name), frame.This)
	if err != nil {
		return values.Undefined, vm.wrapInternalError(err, span)
	}
	return v, nil
}

// getBindingIC caches the environment a free variable resolved to, so
// repeated reads of a closed-over outer binding don't re-walk the scope
// chain (spec §4.1). Revalidated with HasBinding each time since the
// binding could have been deleted (non-strict `var`/object environments
// are the only deletable case, but the check is cheap either way).
func (vm *Vm) getBindingIC(block *CodeBlock, frame *CallFrame, name string, icSlot int) (*env.Environment, bool) {
	if icSlot >= 0 && icSlot < len(block.ICBindings) {
		if e := block.ICBindings[icSlot]; e != nil && e.HasBinding(name) {
			return e, true
		}
	}
	e := env.Resolve(frame.Env, name)
	if e == nil {
		return nil, false
	}
	if icSlot >= 0 && icSlot < len(block.ICBindings) {
		block.ICBindings[icSlot] = e
	}
	return e, true
}
