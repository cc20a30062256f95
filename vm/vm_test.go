package vm

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/wudi/vela/env"
	"github.com/wudi/vela/errors"
	"github.com/wudi/vela/opcodes"
	"github.com/wudi/vela/values"
)

func newTestVm() *Vm {
	return New(env.NewRealm(), DefaultLimits())
}

// buildBlock assembles a CodeBlock from raw opcodes, the way the
// compiler's Writer output does, without going through the compiler
// package (avoids the compiler->vm import that would make this an
// import cycle from inside package vm).
func buildBlock(name string, w *opcodes.Writer, constants []values.Value) *CodeBlock {
	return NewCodeBlock(name, w.Code, constants, nil, errors.Span{}, nil, 0, 0)
}

func runBlock(t *testing.T, block *CodeBlock) (signal, *errors.Error) {
	t.Helper()
	vm := newTestVm()
	frame := &CallFrame{Block: block, Env: env.NewFunction(nil, nil)}
	frame.Env.BindThis(values.Undefined)
	return vm.execFrame(frame)
}

func TestPerIterationEnvCopiesBindingForwardIntoSiblingEnvironment(t *testing.T) {
	var w opcodes.Writer
	constants := []values.Value{values.StringFromGo("i"), values.Int32(0)}
	w.EmitOperands(opcodes.DeclareVar, 0, 1) // let i
	w.EmitOperands(opcodes.LoadConst, 1)     // 0
	w.EmitOperands(opcodes.InitBinding, 0)
	w.Emit(opcodes.PerIterationEnv)
	w.EmitOperands(opcodes.GetBinding, 0, 0)
	w.Emit(opcodes.Return)

	block := buildBlock("test", &w, constants)
	vm := newTestVm()
	frame := &CallFrame{Block: block, Env: env.NewFunction(nil, nil)}
	frame.Env.BindThis(values.Undefined)
	originalEnv := frame.Env

	sig, err := vm.execFrame(frame)
	require.Nil(t, err)
	assert.Equal(t, sigReturn, sig.kind)
	assert.Equal(t, int32(0), sig.value.AsInt32())
	assert.NotSame(t, originalEnv, frame.Env, "PerIterationEnv must replace frame.Env with a fresh sibling")
	assert.Same(t, originalEnv.Outer, frame.Env.Outer, "the sibling must share the same Outer as the old per-iteration env")
}

func TestPerIterationEnvPreservesIndependentBindingsAcrossIterations(t *testing.T) {
	// Simulates what compileFor emits per iteration: declare+init i in a
	// fresh per-iteration env, capture i by reference in a closure-like
	// read, then run PerIterationEnv and mutate the new env's copy. The
	// old env's binding must be untouched by the later mutation.
	outer := env.NewDeclarative(nil)
	first := env.NewDeclarative(outer)
	first.CreateMutableBinding("i", false)
	require.Nil(t, first.InitializeBinding("i", values.Int32(0)))

	block := buildBlock("noop", &opcodes.Writer{}, nil)
	frame := &CallFrame{Block: block, Env: first}

	// Manually drive the same copy the PerIterationEnv opcode performs.
	fresh := env.NewDeclarative(frame.Env.Outer)
	for _, name := range frame.Env.BindingNames() {
		val, verr := frame.Env.GetBindingValue(name, false)
		require.Nil(t, verr)
		fresh.CreateMutableBinding(name, false)
		require.Nil(t, fresh.InitializeBinding(name, val))
	}
	frame.Env = fresh
	require.Nil(t, frame.Env.SetMutableBinding("i", values.Int32(1), false))

	oldVal, verr := first.GetBindingValue("i", false)
	require.Nil(t, verr)
	assert.Equal(t, int32(0), oldVal.AsInt32(), "mutating the new per-iteration env must not affect the old one")

	newVal, verr := frame.Env.GetBindingValue("i", false)
	require.Nil(t, verr)
	assert.Equal(t, int32(1), newVal.AsInt32())
}

func TestHandleCompletionClearsStalePendingCompletionFromAbandonedFinally(t *testing.T) {
	// Mirrors: try { try { throw 1 } finally { throw 2 } } catch(e) {}
	// followed by an unrelated try { 1 } finally { 2 }; the second
	// finally must not resurface the first finally's abandoned throw.
	vm := newTestVm()
	block := buildBlock("noop", &opcodes.Writer{}, nil)
	frame := &CallFrame{Block: block, Env: env.NewDeclarative(nil)}

	outerHandler := handlerEntry{hasCatch: true, catchAddr: 100, env: frame.Env}
	innerHandler := handlerEntry{hasFinally: true, finallyAddr: 50, env: frame.Env}
	frame.Handlers = append(frame.Handlers, outerHandler, innerHandler)

	// The inner try throws 1; it is routed into its own finally, leaving
	// a pendingCompletion of kind sigThrow/1 on frame.
	pc, handled := vm.handleCompletion(frame, signal{kind: sigThrow, value: values.Int32(1)})
	require.True(t, handled)
	assert.Equal(t, 50, pc)
	require.NotNil(t, frame.pendingCompletion)
	assert.Equal(t, sigThrow, frame.pendingCompletion.kind)

	// The finally body itself throws 2 before ever reaching ExitFinally.
	// Dispatching this new throw must consult the outer catch handler
	// (already the only entry left on frame.Handlers) and must clear the
	// stale pendingCompletion left over from the inner one.
	pc, handled = vm.handleCompletion(frame, signal{kind: sigThrow, value: values.Int32(2)})
	require.True(t, handled)
	assert.Equal(t, 100, pc)
	assert.Nil(t, frame.pendingCompletion, "a new completion dispatch must supersede any stale pending one")
}

func TestExitFinallyFallsThroughWithNoPendingCompletion(t *testing.T) {
	var w opcodes.Writer
	w.Emit(opcodes.ExitFinally)
	w.Emit(opcodes.LoadZero)
	w.Emit(opcodes.Return)
	block := buildBlock("test", &w, nil)

	sig, err := runBlock(t, block)
	require.Nil(t, err)
	assert.Equal(t, sigReturn, sig.kind)
	assert.Equal(t, int32(0), sig.value.AsInt32())
}

func TestYieldSuspendsAndResumeFrameContinuesFromTheSamePC(t *testing.T) {
	var w opcodes.Writer
	constants := []values.Value{values.Int32(1), values.Int32(2)}
	w.EmitOperands(opcodes.LoadConst, 0)
	w.Emit(opcodes.Yield)
	w.Emit(opcodes.Pop) // discard the value resumeFrame pushes back
	w.EmitOperands(opcodes.LoadConst, 1)
	w.Emit(opcodes.Return)
	block := buildBlock("gen", &w, constants)

	vm := newTestVm()
	frame := &CallFrame{Block: block, Env: env.NewFunction(nil, nil), Suspendable: true}
	frame.Env.BindThis(values.Undefined)

	sig, err := vm.execFrame(frame)
	require.Nil(t, err)
	require.Equal(t, sigYield, sig.kind)
	assert.Equal(t, int32(1), sig.value.AsInt32())

	sig, err = vm.resumeFrame(frame, resumeNext, values.Undefined)
	require.Nil(t, err)
	assert.Equal(t, sigReturn, sig.kind)
	assert.Equal(t, int32(2), sig.value.AsInt32())
}

func TestYieldOutsideGeneratorFrameRaisesTypeError(t *testing.T) {
	var w opcodes.Writer
	w.Emit(opcodes.LoadZero)
	w.Emit(opcodes.Yield)
	block := buildBlock("notgen", &w, nil)

	sig, err := runBlock(t, block)
	require.Nil(t, err)
	assert.Equal(t, sigThrow, sig.kind)
	assert.True(t, sig.value.IsObject())
}

func TestAwaitSuspendsWithSigAwaitAndResumesWithResolvedValue(t *testing.T) {
	var w opcodes.Writer
	constants := []values.Value{values.Int32(41)}
	w.EmitOperands(opcodes.LoadConst, 0)
	w.Emit(opcodes.Await)
	w.Emit(opcodes.Return)
	block := buildBlock("async", &w, constants)

	vm := newTestVm()
	frame := &CallFrame{Block: block, Env: env.NewFunction(nil, nil), Suspendable: true}
	frame.Env.BindThis(values.Undefined)

	sig, err := vm.execFrame(frame)
	require.Nil(t, err)
	require.Equal(t, sigAwait, sig.kind)
	assert.Equal(t, int32(41), sig.value.AsInt32())

	sig, err = vm.resumeFrame(frame, resumeNext, values.Int32(42))
	require.Nil(t, err)
	assert.Equal(t, sigReturn, sig.kind)
	assert.Equal(t, int32(42), sig.value.AsInt32())
}

func TestReturnInsideTryRoutesThroughFinallyBeforeUnwinding(t *testing.T) {
	// Catches the pre-existing gap review item (b) also fixed: a Return
	// bypassing handleCompletion entirely would skip the finally body.
	var w opcodes.Writer
	constants := []values.Value{values.Int32(3), values.Int32(9)}
	catch, finally := w.EmitHandler(opcodes.PushHandler)
	w.EmitOperands(opcodes.LoadConst, 0)
	w.Emit(opcodes.Return)
	w.PatchTo(catch, 0)
	w.PatchTo(finally, w.Here())
	// finally body: falls through normally, so ExitFinally must resurface
	// the pending Return completion it was overriding.
	w.Emit(opcodes.ExitFinally)
	w.EmitOperands(opcodes.LoadConst, 1)
	w.Emit(opcodes.Return)
	block := buildBlock("tryreturn", &w, constants)

	sig, err := runBlock(t, block)
	require.Nil(t, err)
	assert.Equal(t, sigReturn, sig.kind)
	assert.Equal(t, int32(3), sig.value.AsInt32(), "the try block's own return value must win once its finally completes normally")
}
