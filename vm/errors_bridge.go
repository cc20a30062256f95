package vm

import "github.com/wudi/vela/errors"

// raiseTypeError/raiseRangeError/raiseReferenceError build a catchable
// *errors.Error with its Payload pre-populated, so the dispatch loop can
// hand the thrown Error object straight to a handler without a second
// realm lookup.
func (vm *Vm) raiseTypeError(span errors.Span, format string, args ...interface{}) *errors.Error {
	return vm.raise(errors.TypeError, span, format, args...)
}

func (vm *Vm) raiseRangeError(span errors.Span, format string, args ...interface{}) *errors.Error {
	return vm.raise(errors.RangeError, span, format, args...)
}

func (vm *Vm) raiseReferenceError(span errors.Span, format string, args ...interface{}) *errors.Error {
	return vm.raise(errors.ReferenceError, span, format, args...)
}

func (vm *Vm) raise(kind errors.Kind, span errors.Span, format string, args ...interface{}) *errors.Error {
	e := errors.New(kind, span, format, args...)
	return e.WithPayload(NewErrorValue(vm.Realm, kind, e.Message))
}

// wrapInternalError adapts an *errors.Error surfaced from the env/values
// packages (which have no realm to build a Payload against) into one
// carrying a catchable Error object, unless it is already one of the
// uncatchable kinds.
func (vm *Vm) wrapInternalError(err *errors.Error, span errors.Span) *errors.Error {
	if err == nil {
		return nil
	}
	if !err.Kind.Catchable() {
		return err
	}
	if err.Payload != nil {
		return err
	}
	return err.WithPayload(NewErrorValue(vm.Realm, err.Kind, err.Message))
}
