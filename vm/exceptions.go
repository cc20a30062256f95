package vm

// handleCompletion unwinds frame's handler stack looking for a place to
// route a non-normal completion ("handler table" routing, "try/finally
// completion override"). It is used for both Throw and Return
// completions: a `return` inside a try with an active finally must run
// that finally before the function actually returns, and the finally's
// own completion can override the pending one.
//
// Every call here dispatches a brand new completion, so any
// pendingCompletion already in flight on frame is necessarily stale: it
// belongs to a finally that is being abandoned mid-run (superseded by
// this new throw/return before it ever reached its own ExitFinally) and
// will otherwise sit around to be wrongly resurfaced by an unrelated,
// later finally in the same frame.
//
// PushHandler's two operands use address 0 as a sentinel for "absent"
// (catchAddr==0 means no catch clause, finallyAddr==0 means no finally
// clause); address 0 is always the CodeBlock's own first instruction,
// never a legal catch/finally target, so the sentinel can't collide
// with a real address.
func (vm *Vm) handleCompletion(frame *CallFrame, sig signal) (newPC int, handled bool) {
	frame.pendingCompletion = nil

	for len(frame.Handlers) > 0 {
		h := frame.Handlers[len(frame.Handlers)-1]
		frame.Handlers = frame.Handlers[:len(frame.Handlers)-1]
		frame.truncate(h.stackDepth)
		frame.Env = h.env

		if sig.kind == sigThrow && h.hasCatch {
			frame.push(sig.value)
			return h.catchAddr, true
		}
		if h.hasFinally {
			frame.pendingCompletion = &signal{kind: sig.kind, value: sig.value}
			return h.finallyAddr, true
		}
		// No catch applicable (or this is a Return) and no finally: keep
		// unwinding to the next enclosing handler.
	}
	return 0, false
}
