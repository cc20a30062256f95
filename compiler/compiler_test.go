package compiler

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/wudi/vela/opcodes"
	"github.com/wudi/vela/parser"
)

func compileSource(t *testing.T, src string) *opcodes.Reader {
	t.Helper()
	prog, err := parser.Parse([]byte(src))
	require.Nil(t, err)
	block, cerr := New().CompileProgram(prog)
	require.Nil(t, cerr)
	return &opcodes.Reader{Code: block.Code}
}

// opSequence decodes every instruction in r and returns just the opcodes,
// in order, for shape assertions that don't care about operand values.
func opSequence(r *opcodes.Reader) []opcodes.Op {
	var ops []opcodes.Op
	for !r.AtEnd() {
		inst := r.Decode()
		ops = append(ops, inst.Op)
		r.PC = inst.NextPC
	}
	return ops
}

func containsOp(ops []opcodes.Op, want opcodes.Op) bool {
	for _, op := range ops {
		if op == want {
			return true
		}
	}
	return false
}

func TestCompileForWithLetEmitsPerIterationEnv(t *testing.T) {
	r := compileSource(t, `for (let i = 0; i < 3; i++) { i; }`)
	ops := opSequence(r)
	assert.True(t, containsOp(ops, opcodes.PerIterationEnv), "a C-style for loop over `let` must emit PerIterationEnv per ECMA-262 14.7.4.3")
}

func TestCompileForWithVarOmitsPerIterationEnv(t *testing.T) {
	r := compileSource(t, `for (var i = 0; i < 3; i++) { i; }`)
	ops := opSequence(r)
	assert.False(t, containsOp(ops, opcodes.PerIterationEnv), "`var` has no per-iteration binding, so no fresh environment is needed")
}

func TestCompileForWithoutDeclarationOmitsPerIterationEnv(t *testing.T) {
	r := compileSource(t, `let i = 0; for (; i < 3; i++) { i; }`)
	ops := opSequence(r)
	assert.False(t, containsOp(ops, opcodes.PerIterationEnv))
}

func TestCompileYieldStarLowersToIteratorLoopWithoutDedicatedOpcode(t *testing.T) {
	prog, err := parser.Parse([]byte(`function* g() { yield* other(); }`))
	require.Nil(t, err)
	block, cerr := New().CompileProgram(prog)
	require.Nil(t, cerr)
	require.Len(t, block.Functions, 1)
	ops := opSequence(&opcodes.Reader{Code: block.Functions[0].Code.Code})
	assert.True(t, containsOp(ops, opcodes.GetIterator))
	assert.True(t, containsOp(ops, opcodes.IteratorNext))
	assert.True(t, containsOp(ops, opcodes.Yield))
}

func TestCompileTryFinallyEmitsHandlerAndExitFinally(t *testing.T) {
	r := compileSource(t, `try { 1; } finally { 2; }`)
	ops := opSequence(r)
	assert.True(t, containsOp(ops, opcodes.PushHandler))
	assert.True(t, containsOp(ops, opcodes.ExitFinally))
}

func TestCompileRecursiveFunctionProducesNestedCodeBlock(t *testing.T) {
	prog, err := parser.Parse([]byte(`function fib(n) { if (n < 2) return n; return fib(n - 1) + fib(n - 2); }`))
	require.Nil(t, err)
	block, cerr := New().CompileProgram(prog)
	require.Nil(t, cerr)
	require.Len(t, block.Functions, 1)
	assert.Equal(t, "fib", block.Functions[0].Name)
	assert.NotEmpty(t, block.Functions[0].Code.Code)
}

func TestCompileSimpleArithmeticProgram(t *testing.T) {
	r := compileSource(t, `1 + 2;`)
	ops := opSequence(r)
	assert.True(t, containsOp(ops, opcodes.Add))
	assert.Equal(t, opcodes.ReturnUndefined, ops[len(ops)-1])
}
