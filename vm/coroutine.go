package vm

import (
	"github.com/wudi/vela/errors"
	"github.com/wudi/vela/values"
)

// resumeKind distinguishes how a suspended generator/async frame is
// being woken: Generator.prototype.next/.throw/.return, or an awaited
// value's fulfillment/rejection.
type resumeKind byte

const (
	resumeNext   resumeKind = iota // .next(v) / a settled await's fulfillment
	resumeThrow                     // .throw(v) / a settled await's rejection
	resumeReturn                    // .return(v): force completion, running pending finally blocks
)

// resumeFrame wakes a frame that previously suspended by returning a
// sigYield or sigAwait completion from execFrame. frame's PC, value
// stack and environment chain are exactly where that return left them —
// a suspended call is nothing more than a CallFrame execFrame hasn't
// finished walking yet — so resuming is feeding the resume value in and
// re-entering the dispatch loop, never a goroutine or channel hop.
func (vm *Vm) resumeFrame(frame *CallFrame, kind resumeKind, value values.Value) (signal, *errors.Error) {
	switch kind {
	case resumeNext:
		frame.push(value)
	case resumeThrow:
		sig := signal{kind: sigThrow, value: value}
		newPC, handled := vm.handleCompletion(frame, sig)
		if !handled {
			return sig, nil
		}
		frame.PC = newPC
	case resumeReturn:
		sig := signal{kind: sigReturn, value: value}
		newPC, handled := vm.handleCompletion(frame, sig)
		if !handled {
			return sig, nil
		}
		frame.PC = newPC
	}
	return vm.execFrame(frame)
}
