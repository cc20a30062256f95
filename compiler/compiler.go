// Package compiler lowers the parsed AST (an external collaborator's
// output, spec §1/§6) into the bytecode CodeBlocks the virtual machine
// executes (spec §4.1). One Compiler walks the tree once; each
// function/generator/async body gets its own CodeBlock, linked from its
// enclosing scope's CodeBlock.Functions and referenced by a NewFunction
// operand.
package compiler

import (
	"math/big"

	"github.com/wudi/vela/ast"
	"github.com/wudi/vela/errors"
	"github.com/wudi/vela/opcodes"
	"github.com/wudi/vela/values"
	"github.com/wudi/vela/vm"
)

// loopCtx tracks one breakable/continuable construct (spec §4.1 "break
// and continue resolve to plain jumps at compile time, never crossing a
// function boundary"). Switch statements push a loopCtx too, with
// continue disabled (continueOK false), since `break` targets the
// nearest enclosing breakable construct but `continue` only ever
// targets a loop.
type loopCtx struct {
	label          string
	continueOK     bool
	breakLabels    []opcodes.Label
	continueLabels []opcodes.Label
}

type constKey struct {
	kind byte // 0=string 1=number 2=bigint
	str  string
	num  float64
}

// unit is the compilation state for one CodeBlock (a script top level or
// a single function/method body). Nested functions get their own unit,
// linked back into the parent's functions slice once compiled.
type unit struct {
	writer      opcodes.Writer
	constants   []values.Value
	constIndex  map[constKey]uint32
	functions   []*vm.FunctionProto
	pcSpans     map[int]errors.Span
	nextIC      int
	nextPropIC  int
	loops       []loopCtx
	tempCounter int
}

func newUnit() *unit {
	return &unit{constIndex: map[constKey]uint32{}, pcSpans: map[int]errors.Span{}}
}

// Compiler holds the unit currently being emitted into; compiling a
// nested function pushes a fresh unit and pops back to the enclosing one
// when the function body is done (see functions.go).
type Compiler struct {
	u *unit
}

// New returns a Compiler ready to compile one Program.
func New() *Compiler { return &Compiler{} }

// CompileProgram compiles a full script (or module) body into its
// top-level CodeBlock (spec §3.5, §4.1).
func (c *Compiler) CompileProgram(prog *ast.Program) (*vm.CodeBlock, error) {
	c.u = newUnit()
	c.hoistBlock(prog.Body)
	for _, stmt := range prog.Body {
		c.compileStmt(stmt)
	}
	c.emit(opcodes.ReturnUndefined)
	return c.finish("<script>", prog.Span()), nil
}

func (c *Compiler) finish(name string, span errors.Span) *vm.CodeBlock {
	u := c.u
	return vm.NewCodeBlock(name, u.writer.Code, u.constants, u.functions, span, u.pcSpans, u.nextIC, u.nextPropIC)
}

// --- emit helpers ---

func (c *Compiler) emit(op opcodes.Op) int { return c.u.writer.Emit(op) }

func (c *Compiler) emitOperands(op opcodes.Op, operands ...uint32) int {
	return c.u.writer.EmitOperands(op, operands...)
}

func (c *Compiler) emitJump(op opcodes.Op) opcodes.Label { return c.u.writer.EmitJump(op) }

func (c *Compiler) patch(l opcodes.Label) { c.u.writer.Patch(l) }

func (c *Compiler) here() int { return c.u.writer.Here() }

func (c *Compiler) noteSpan(addr int, span errors.Span) { c.u.pcSpans[addr] = span }

// nextBindingIC/nextPropIC hand out fresh, always-distinct inline-cache
// slot indices; reuse would let two unrelated call sites corrupt each
// other's cache.
func (c *Compiler) nextBindingIC() int {
	slot := c.u.nextIC
	c.u.nextIC++
	return slot
}

func (c *Compiler) nextPropIC() int {
	slot := c.u.nextPropIC
	c.u.nextPropIC++
	return slot
}

// loadConst interns v in the constant pool (string/number/bigint content
// equality, not identity) and emits LoadConst.
func (c *Compiler) loadConst(v values.Value) {
	c.emitOperands(opcodes.LoadConst, c.internValue(v))
}

func (c *Compiler) internValue(v values.Value) uint32 {
	var key constKey
	switch {
	case v.IsString():
		key = constKey{kind: 0, str: v.ToStringValue()}
	case v.IsBigInt():
		key = constKey{kind: 2, str: v.AsBigInt().String()}
	default:
		key = constKey{kind: 1, num: v.ToNumber()}
	}
	if idx, ok := c.u.constIndex[key]; ok {
		return idx
	}
	idx := uint32(len(c.u.constants))
	c.u.constants = append(c.u.constants, v)
	c.u.constIndex[key] = idx
	return idx
}

// internName interns a bare identifier/property name as a string
// constant, used by every opcode that carries a "name const idx" operand.
func (c *Compiler) internName(name string) uint32 {
	return c.internValue(values.StringFromGo(name))
}

func bigIntFromDigits(digits string) *big.Int {
	n := new(big.Int)
	n.SetString(digits, 10)
	return n
}
