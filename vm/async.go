package vm

import (
	"github.com/wudi/vela/env"
	"github.com/wudi/vela/errors"
	"github.com/wudi/vela/values"
)

// RunAsync executes an async function body and returns the Promise that
// settles with its eventual completion (spec §4/§5). The body runs
// synchronously up to its first await before RunAsync returns, matching
// ECMAScript's AsyncFunctionStart (27.7.5.1). Each await suspends the
// same way a generator's yield does — execFrame returns a sigAwait
// completion, leaving frame's PC/stack/env exactly where they are — and
// resuming is a plain resumeFrame call scheduled as a promise-reaction
// microtask through the job queue; no goroutine is ever spawned.
func (vm *Vm) RunAsync(proto *FunctionProto, this, newTarget values.Value, args []values.Value, closureEnv *env.Environment, fnObj *values.Object) values.Value {
	frame := &CallFrame{Block: proto.Code, Proto: proto, Env: env.NewFunction(closureEnv, fnObj), This: this, NewTarget: newTarget, FuncObj: fnObj, Suspendable: true}
	if !proto.IsDerivedCtor {
		frame.Env.BindThis(this)
	}
	frame.Env.SetNewTarget(newTarget)
	bindParams(frame, proto, args, vm.Realm.Intrinsics.ArrayPrototype)

	promise := vm.NewPromise()
	vm.driveAsync(frame, promise, func() (signal, *errors.Error) { return vm.execFrame(frame) })
	return values.ObjectValue(promise)
}

// driveAsync runs one step of frame (either its initial execFrame call or
// a resumption from a settled await) and either settles promise or
// schedules the next step as a microtask once the awaited value settles.
func (vm *Vm) driveAsync(frame *CallFrame, promise *values.Object, step func() (signal, *errors.Error)) {
	sig, err := step()
	if err != nil {
		vm.RejectPromise(promise, NewErrorValue(vm.Realm, errors.RuntimeLimit, err.Error()))
		return
	}
	switch sig.kind {
	case sigAwait:
		vm.subscribeAwait(sig.value,
			func(v values.Value) {
				vm.driveAsync(frame, promise, func() (signal, *errors.Error) { return vm.resumeFrame(frame, resumeNext, v) })
			},
			func(reason values.Value) {
				vm.driveAsync(frame, promise, func() (signal, *errors.Error) { return vm.resumeFrame(frame, resumeThrow, reason) })
			},
		)
	case sigThrow:
		vm.RejectPromise(promise, sig.value)
	default:
		vm.ResolvePromise(promise, sig.value)
	}
}

// subscribeAwait adapts an arbitrary awaited value (a Promise, a
// thenable, or a plain value) to the onFulfill/onReject callback pair by
// routing it through a throwaway promise — reusing ResolvePromise's
// thenable-adoption logic instead of duplicating it.
func (vm *Vm) subscribeAwait(value values.Value, onFulfill, onReject func(values.Value)) {
	p := vm.NewPromise()
	vm.ResolvePromise(p, value)
	vm.SubscribePromise(p, onFulfill, onReject)
}
