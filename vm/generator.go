package vm

import (
	"github.com/wudi/vela/env"
	"github.com/wudi/vela/errors"
	"github.com/wudi/vela/values"
)

func (vm *Vm) iterResult(value values.Value, done bool) values.Value {
	r := values.NewOrdinaryObject(vm.Realm.Intrinsics.ObjectPrototype)
	setDataProp(r, "value", value)
	setDataProp(r, "done", values.Bool(done))
	return values.ObjectValue(r)
}

// makeGeneratorObject builds the Generator instance returned synchronously
// by calling a generator function: the body doesn't run at all until the
// first .next() (spec §4 "Yield/Await suspension"). frame is suspended
// and resumed in place — its PC/stack/env are the only state a
// suspension needs, so next()/throw()/return() just call execFrame or
// resumeFrame directly on it; nothing here ever spawns a goroutine.
func (vm *Vm) makeGeneratorObject(proto *FunctionProto, this, newTarget values.Value, args []values.Value, closureEnv *env.Environment, fnObj *values.Object) values.Value {
	frame := &CallFrame{Block: proto.Code, Proto: proto, Env: env.NewFunction(closureEnv, fnObj), This: this, NewTarget: newTarget, FuncObj: fnObj, Suspendable: true}
	if !proto.IsDerivedCtor {
		frame.Env.BindThis(this)
	}
	frame.Env.SetNewTarget(newTarget)
	bindParams(frame, proto, args, vm.Realm.Intrinsics.ArrayPrototype)

	started := false
	done := false

	drive := func(kind resumeKind, value values.Value) (values.Value, *errors.Error) {
		if done {
			if kind == resumeThrow {
				return values.Undefined, thrownAsError(proto.Code, value)
			}
			return vm.iterResult(value, true), nil
		}

		var sig signal
		var err *errors.Error
		switch {
		case !started && kind == resumeReturn:
			started, done = true, true
			return vm.iterResult(value, true), nil
		case !started && kind == resumeThrow:
			started, done = true, true
			return values.Undefined, thrownAsError(proto.Code, value)
		case !started:
			started = true
			sig, err = vm.execFrame(frame)
		default:
			sig, err = vm.resumeFrame(frame, kind, value)
		}

		if err != nil {
			done = true
			return values.Undefined, err
		}
		switch sig.kind {
		case sigYield:
			return vm.iterResult(sig.value, false), nil
		case sigAwait:
			// A generator body never reaches an await point; async
			// generators aren't modeled, so this can't legitimately occur.
			done = true
			return values.Undefined, vm.raiseTypeError(proto.Code.Span, "unexpected await in generator")
		case sigThrow:
			done = true
			return values.Undefined, thrownAsError(proto.Code, sig.value)
		case sigReturn:
			done = true
			return vm.iterResult(sig.value, true), nil
		default: // sigNormal: the body fell off the end without an explicit return
			done = true
			return vm.iterResult(values.Undefined, true), nil
		}
	}

	genObj := values.NewOrdinaryObject(vm.Realm.Intrinsics.ObjectPrototype)
	genObj.ClassName = "Generator"
	nextFn := values.NewFunctionObject(vm.Realm.Intrinsics.FunctionPrototype, "next", 1, func(_ values.Value, args []values.Value) (values.Value, *errors.Error) {
		return drive(resumeNext, argOrUndefined(args, 0))
	}, nil)
	throwFn := values.NewFunctionObject(vm.Realm.Intrinsics.FunctionPrototype, "throw", 1, func(_ values.Value, args []values.Value) (values.Value, *errors.Error) {
		return drive(resumeThrow, argOrUndefined(args, 0))
	}, nil)
	returnFn := values.NewFunctionObject(vm.Realm.Intrinsics.FunctionPrototype, "return", 1, func(_ values.Value, args []values.Value) (values.Value, *errors.Error) {
		return drive(resumeReturn, argOrUndefined(args, 0))
	}, nil)
	setDataProp(genObj, "next", values.ObjectValue(nextFn))
	setDataProp(genObj, "throw", values.ObjectValue(throwFn))
	setDataProp(genObj, "return", values.ObjectValue(returnFn))
	selfIterFn := values.NewFunctionObject(vm.Realm.Intrinsics.FunctionPrototype, "[Symbol.iterator]", 0, func(this values.Value, _ []values.Value) (values.Value, *errors.Error) {
		return this, nil
	}, nil)
	genObj.Properties.Set(values.SymbolKey(values.SymbolIterator), &values.PropertyDescriptor{
		Kind: values.DescData, Value: valuePtr(values.ObjectValue(selfIterFn)), Writable: boolPtrVM(true), Configurable: boolPtrVM(true),
	})
	return values.ObjectValue(genObj)
}

func argOrUndefined(args []values.Value, i int) values.Value {
	if i < len(args) {
		return args[i]
	}
	return values.Undefined
}

func valuePtr(v values.Value) *values.Value { return &v }
