package vm

import (
	"github.com/wudi/vela/env"
	"github.com/wudi/vela/errors"
	"github.com/wudi/vela/values"
)

func resolveThis(e *env.Environment) values.Value {
	for cur := e; cur != nil; cur = cur.Outer {
		if cur.HasThisBinding() {
			if v, err := cur.GetThisBinding(); err == nil {
				return v
			}
		}
	}
	return values.Undefined
}

// instantiateFunction builds the callable Object for a compiled
// function literal, closing over the environment active at the point
// the NewFunction opcode ran (spec §4.1 "function literals compile to
// a CodeBlock referenced by index").
func (vm *Vm) instantiateFunction(proto *FunctionProto, closureEnv *env.Environment) *values.Object {
	var fnObj *values.Object
	call := func(this values.Value, args []values.Value) (values.Value, *errors.Error) {
		effectiveThis := this
		if proto.IsArrow {
			effectiveThis = resolveThis(closureEnv)
		}
		return vm.invoke(proto, effectiveThis, values.Undefined, args, closureEnv, fnObj)
	}
	var construct values.NativeFunction
	if !proto.IsArrow && !proto.IsGenerator && !proto.IsAsync {
		construct = func(this values.Value, args []values.Value) (values.Value, *errors.Error) {
			result, err := vm.invoke(proto, this, values.ObjectValue(fnObj), args, closureEnv, fnObj)
			if err != nil {
				return values.Undefined, err
			}
			if result.IsObject() {
				return result, nil
			}
			return this, nil
		}
	}
	fnObj = values.NewFunctionObject(vm.Realm.Intrinsics.FunctionPrototype, proto.Name, len(proto.ParamNames), call, construct)
	if !proto.IsArrow {
		protoObj := values.NewOrdinaryObject(vm.Realm.Intrinsics.ObjectPrototype)
		ctorVal := values.ObjectValue(fnObj)
		protoObj.Properties.Set(values.StringKey("constructor"), &values.PropertyDescriptor{
			Kind: values.DescData, Value: &ctorVal, Writable: boolPtrVM(true), Configurable: boolPtrVM(true),
		})
		protoVal := values.ObjectValue(protoObj)
		fnObj.Properties.Set(values.StringKey("prototype"), &values.PropertyDescriptor{
			Kind: values.DescData, Value: &protoVal, Writable: boolPtrVM(true),
		})
	}
	return fnObj
}

// invoke dispatches to the right execution strategy for proto's kind:
// a generator call returns a suspended Generator synchronously: an
// async call returns a pending Promise synchronously; an ordinary call
// runs to completion inline.
func (vm *Vm) invoke(proto *FunctionProto, this, newTarget values.Value, args []values.Value, closureEnv *env.Environment, fnObj *values.Object) (values.Value, *errors.Error) {
	switch {
	case proto.IsGenerator:
		return vm.makeGeneratorObject(proto, this, newTarget, args, closureEnv, fnObj), nil
	case proto.IsAsync:
		return vm.RunAsync(proto, this, newTarget, args, closureEnv, fnObj), nil
	default:
		return vm.Run(proto.Code, proto, this, newTarget, args, closureEnv, fnObj)
	}
}

// constructNew implements the `new` operator: allocate a fresh ordinary
// object whose prototype is the callee's own "prototype" property (or
// Object.prototype if that isn't an object), then invoke Construct with
// it (spec §4.1 "New").
func (vm *Vm) constructNew(callee values.Value, args []values.Value, span errors.Span) (values.Value, *errors.Error) {
	if !callee.IsObject() || callee.AsObject().Construct == nil {
		return values.Undefined, vm.raiseTypeError(span, "%s is not a constructor", callee.TypeOf())
	}
	ctor := callee.AsObject()
	proto := vm.Realm.Intrinsics.ObjectPrototype
	if protoVal, err := ctor.Methods.Get(ctor, values.StringKey("prototype"), callee); err == nil && protoVal.IsObject() {
		proto = protoVal.AsObject()
	}
	fresh := values.ObjectValue(values.NewOrdinaryObject(proto))
	result, err := ctor.Construct(fresh, args)
	if err != nil {
		return values.Undefined, vm.wrapInternalError(err, span)
	}
	return result, nil
}
