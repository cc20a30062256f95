package vm

import (
	"github.com/wudi/vela/errors"
	"github.com/wudi/vela/values"
)

// NewPromise allocates a pending promise bound to this Vm's realm.
func (vm *Vm) NewPromise() *values.Object {
	return values.NewPromiseObject(vm.Realm.Intrinsics.PromisePrototype)
}

// ResolvePromise settles p as fulfilled with value, unless value is
// itself a thenable (a Promise or any object with a callable "then"),
// in which case p adopts that thenable's eventual state (ECMA-262
// 27.2.1.3.2 "Promise Resolve Thenable Job", simplified to run as one
// microtask rather than its own nested job record).
func (vm *Vm) ResolvePromise(p *values.Object, value values.Value) {
	if p.PromiseData.State != values.PromisePending {
		return
	}
	if value.IsObject() && value.AsObject() != p {
		if thenFn, ok := value.AsObject().GetOwnMethod("then"); ok {
			vm.Jobs().Enqueue(func() {
				resolveFn := values.NewFunctionObject(nil, "", 1, func(_ values.Value, args []values.Value) (values.Value, *errors.Error) {
					var v values.Value
					if len(args) > 0 {
						v = args[0]
					}
					vm.ResolvePromise(p, v)
					return values.Undefined, nil
				}, nil)
				rejectFn := values.NewFunctionObject(nil, "", 1, func(_ values.Value, args []values.Value) (values.Value, *errors.Error) {
					var v values.Value
					if len(args) > 0 {
						v = args[0]
					}
					vm.RejectPromise(p, v)
					return values.Undefined, nil
				}, nil)
				_, _ = thenFn.Call(value, []values.Value{values.ObjectValue(resolveFn), values.ObjectValue(rejectFn)})
			})
			return
		}
	}
	p.PromiseData.State = values.PromiseFulfilled
	p.PromiseData.Result = value
	reactions := p.PromiseData.OnFulfill
	p.PromiseData.OnFulfill, p.PromiseData.OnReject = nil, nil
	for _, r := range reactions {
		r := r
		vm.Jobs().Enqueue(func() { r(value) })
	}
}

// RejectPromise settles p as rejected with reason.
func (vm *Vm) RejectPromise(p *values.Object, reason values.Value) {
	if p.PromiseData.State != values.PromisePending {
		return
	}
	p.PromiseData.State = values.PromiseRejected
	p.PromiseData.Result = reason
	reactions := p.PromiseData.OnReject
	p.PromiseData.OnFulfill, p.PromiseData.OnReject = nil, nil
	for _, r := range reactions {
		r := r
		vm.Jobs().Enqueue(func() { r(reason) })
	}
}

// SubscribePromise registers onFulfill/onReject to run (as microtasks)
// once p settles, or immediately schedules them if it already has.
func (vm *Vm) SubscribePromise(p *values.Object, onFulfill, onReject func(values.Value)) {
	switch p.PromiseData.State {
	case values.PromiseFulfilled:
		v := p.PromiseData.Result
		vm.Jobs().Enqueue(func() { onFulfill(v) })
	case values.PromiseRejected:
		v := p.PromiseData.Result
		vm.Jobs().Enqueue(func() { onReject(v) })
	default:
		p.PromiseData.OnFulfill = append(p.PromiseData.OnFulfill, onFulfill)
		p.PromiseData.OnReject = append(p.PromiseData.OnReject, onReject)
	}
}
