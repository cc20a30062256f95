package opcodes

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestOpStringKnownAndUnknown(t *testing.T) {
	assert.Equal(t, "add", Add.String())
	assert.Equal(t, "per_iteration_env", PerIterationEnv.String())
	assert.Equal(t, "yield", Yield.String())
	assert.Equal(t, "unknown", opCount.String())
}

func TestIsValid(t *testing.T) {
	assert.True(t, Add.IsValid())
	assert.True(t, PerIterationEnv.IsValid())
	assert.False(t, opCount.IsValid())
	assert.False(t, Op(255).IsValid())
}

func TestOperandCountForKnownOpcodes(t *testing.T) {
	assert.Equal(t, 1, OperandCount(LoadConst))
	assert.Equal(t, 2, OperandCount(DeclareVar))
	assert.Equal(t, 2, OperandCount(GetBinding))
	assert.Equal(t, 0, OperandCount(Pop))
	assert.Equal(t, 0, OperandCount(PerIterationEnv))
	assert.Equal(t, 0, OperandCount(Yield))
}

func TestWriterEmitBareOpcodeRoundTrips(t *testing.T) {
	var w Writer
	w.Emit(Pop)
	w.Emit(Dup)

	r := Reader{Code: w.Code}
	inst := r.Decode()
	assert.Equal(t, Pop, inst.Op)
	assert.Empty(t, inst.Operands)
	r.PC = inst.NextPC
	inst = r.Decode()
	assert.Equal(t, Dup, inst.Op)
	assert.True(t, r.AtEnd())
}

func TestWriterEmitOperandsPicksNarrowestWidth(t *testing.T) {
	var w Writer
	w.EmitOperands(LoadConst, 5)
	assert.Equal(t, []byte{byte(LoadConst), 5}, w.Code)

	w = Writer{}
	w.EmitOperands(LoadConst, 300)
	assert.Equal(t, byte(Wide16), w.Code[0])

	w = Writer{}
	w.EmitOperands(LoadConst, 70000)
	assert.Equal(t, byte(Wide32), w.Code[0])
}

func TestWriterEmitOperandsDecodesBackToOriginalValues(t *testing.T) {
	var w Writer
	w.EmitOperands(DeclareVar, 12345, 2)

	r := Reader{Code: w.Code}
	inst := r.Decode()
	assert.Equal(t, DeclareVar, inst.Op)
	assert.Equal(t, []uint32{12345, 2}, inst.Operands)
	assert.True(t, r.AtEnd())
}

func TestEmitJumpAndPatch(t *testing.T) {
	var w Writer
	label := w.EmitJump(Jump)
	w.Emit(Nop)
	target := w.Here()
	w.Patch(label)

	r := Reader{Code: w.Code}
	inst := r.Decode()
	assert.Equal(t, Jump, inst.Op)
	assert.Equal(t, []uint32{uint32(target)}, inst.Operands)
}

func TestEmitHandlerReservesTwoIndependentlyPatchableSlots(t *testing.T) {
	var w Writer
	catch, finally := w.EmitHandler(PushHandler)
	w.PatchTo(catch, 10)
	w.PatchTo(finally, 20)

	r := Reader{Code: w.Code}
	inst := r.Decode()
	assert.Equal(t, PushHandler, inst.Op)
	assert.Equal(t, []uint32{10, 20}, inst.Operands)
}

func TestDecodeSequenceOfMixedWidthInstructions(t *testing.T) {
	var w Writer
	w.Emit(LoadZero)
	w.EmitOperands(LoadConst, 1)
	w.EmitOperands(GetBinding, 300, 0)
	w.Emit(Return)

	r := Reader{Code: w.Code}
	var ops []Op
	for !r.AtEnd() {
		inst := r.Decode()
		ops = append(ops, inst.Op)
		r.PC = inst.NextPC
	}
	assert.Equal(t, []Op{LoadZero, LoadConst, GetBinding, Return}, ops)
}
