package vm

import (
	"math"
	"math/big"

	"github.com/wudi/vela/errors"
	"github.com/wudi/vela/opcodes"
	"github.com/wudi/vela/values"
)

// binaryOp implements the arithmetic/bitwise/comparison opcodes (spec
// §4.1). String concatenation and numeric addition share the `+`
// opcode, as in the ECMAScript grammar itself (12.8.3 "The Addition
// Operator").
func (vm *Vm) binaryOp(op int, l, r values.Value, span errors.Span) (values.Value, *errors.Error) {
	switch binOp(op) {
	case opAdd:
		return vm.add(l, r, span)
	case opSub:
		return vm.numeric(l, r, span, func(a, b float64) float64 { return a - b }, func(a, b *big.Int) *big.Int { return new(big.Int).Sub(a, b) })
	case opMul:
		return vm.numeric(l, r, span, func(a, b float64) float64 { return a * b }, func(a, b *big.Int) *big.Int { return new(big.Int).Mul(a, b) })
	case opDiv:
		return vm.numeric(l, r, span, func(a, b float64) float64 { return a / b }, func(a, b *big.Int) *big.Int {
			if b.Sign() == 0 {
				return big.NewInt(0)
			}
			return new(big.Int).Quo(a, b)
		})
	case opMod:
		return vm.numeric(l, r, span, math.Mod, func(a, b *big.Int) *big.Int {
			if b.Sign() == 0 {
				return big.NewInt(0)
			}
			return new(big.Int).Rem(a, b)
		})
	case opExp:
		return vm.numeric(l, r, span, math.Pow, func(a, b *big.Int) *big.Int { return new(big.Int).Exp(a, b, nil) })
	case opBitAnd:
		return values.Int32(toInt32(l.ToNumber()) & toInt32(r.ToNumber())), nil
	case opBitOr:
		return values.Int32(toInt32(l.ToNumber()) | toInt32(r.ToNumber())), nil
	case opBitXor:
		return values.Int32(toInt32(l.ToNumber()) ^ toInt32(r.ToNumber())), nil
	case opShl:
		return values.Int32(toInt32(l.ToNumber()) << (toUint32(r.ToNumber()) & 31)), nil
	case opShr:
		return values.Int32(toInt32(l.ToNumber()) >> (toUint32(r.ToNumber()) & 31)), nil
	case opUShr:
		return values.Int32(int32(toUint32(l.ToNumber()) >> (toUint32(r.ToNumber()) & 31))), nil
	case opEq:
		return values.Bool(values.LooseEquals(l, r)), nil
	case opNeq:
		return values.Bool(!values.LooseEquals(l, r)), nil
	case opStrictEq:
		return values.Bool(values.StrictEquals(l, r)), nil
	case opStrictNeq:
		return values.Bool(!values.StrictEquals(l, r)), nil
	case opLt, opLte, opGt, opGte:
		return vm.relational(op, l, r, span)
	case opInstanceOf:
		return vm.instanceOf(l, r, span)
	case opIn:
		return vm.inOperator(l, r, span)
	}
	return values.Undefined, vm.raiseTypeError(span, "unsupported binary operator")
}

type binOp int

const (
	opAdd binOp = iota
	opSub
	opMul
	opDiv
	opMod
	opExp
	opBitAnd
	opBitOr
	opBitXor
	opShl
	opShr
	opUShr
	opEq
	opNeq
	opStrictEq
	opStrictNeq
	opLt
	opLte
	opGt
	opGte
	opInstanceOf
	opIn
)

func (vm *Vm) add(l, r values.Value, span errors.Span) (values.Value, *errors.Error) {
	lp, lok := values.ToPrimitive(l, values.HintDefault)
	rp, rok := values.ToPrimitive(r, values.HintDefault)
	if !lok {
		lp = l
	}
	if !rok {
		rp = r
	}
	if lp.IsString() || rp.IsString() {
		return values.StringFromGo(lp.ToStringValue() + rp.ToStringValue()), nil
	}
	if lp.IsBigInt() && rp.IsBigInt() {
		return values.BigIntValue(new(big.Int).Add(lp.AsBigInt(), rp.AsBigInt())), nil
	}
	if lp.IsBigInt() != rp.IsBigInt() {
		return values.Undefined, vm.raiseTypeError(span, "cannot mix BigInt and other types")
	}
	return values.Float64(lp.ToNumber() + rp.ToNumber()), nil
}

func (vm *Vm) numeric(l, r values.Value, span errors.Span, ffn func(a, b float64) float64, bfn func(a, b *big.Int) *big.Int) (values.Value, *errors.Error) {
	if l.IsBigInt() && r.IsBigInt() {
		return values.BigIntValue(bfn(l.AsBigInt(), r.AsBigInt())), nil
	}
	if l.IsBigInt() != r.IsBigInt() {
		return values.Undefined, vm.raiseTypeError(span, "cannot mix BigInt and other types")
	}
	return values.Float64(ffn(l.ToNumber(), r.ToNumber())), nil
}

func (vm *Vm) relational(op int, l, r values.Value, span errors.Span) (values.Value, *errors.Error) {
	lp, _ := values.ToPrimitive(l, values.HintNumber)
	rp, _ := values.ToPrimitive(r, values.HintNumber)
	if lp.IsString() && rp.IsString() {
		ls, rs := lp.ToStringValue(), rp.ToStringValue()
		switch binOp(op) {
		case opLt:
			return values.Bool(ls < rs), nil
		case opLte:
			return values.Bool(ls <= rs), nil
		case opGt:
			return values.Bool(ls > rs), nil
		default:
			return values.Bool(ls >= rs), nil
		}
	}
	a, b := lp.ToNumber(), rp.ToNumber()
	if math.IsNaN(a) || math.IsNaN(b) {
		return values.False, nil
	}
	switch binOp(op) {
	case opLt:
		return values.Bool(a < b), nil
	case opLte:
		return values.Bool(a <= b), nil
	case opGt:
		return values.Bool(a > b), nil
	default:
		return values.Bool(a >= b), nil
	}
}

func (vm *Vm) instanceOf(l, r values.Value, span errors.Span) (values.Value, *errors.Error) {
	if !r.IsObject() || r.AsObject().Call == nil {
		return values.Undefined, vm.raiseTypeError(span, "right-hand side of instanceof is not callable")
	}
	protoVal, err := r.AsObject().Methods.Get(r.AsObject(), values.StringKey("prototype"), r)
	if err != nil {
		return values.Undefined, vm.wrapInternalError(err, span)
	}
	if !protoVal.IsObject() {
		return values.Undefined, vm.raiseTypeError(span, "prototype is not an object")
	}
	if !l.IsObject() {
		return values.False, nil
	}
	target := protoVal.AsObject()
	for p := l.AsObject().Methods.GetPrototypeOf(l.AsObject()); p != nil; p = p.Methods.GetPrototypeOf(p) {
		if p == target {
			return values.True, nil
		}
	}
	return values.False, nil
}

func (vm *Vm) inOperator(l, r values.Value, span errors.Span) (values.Value, *errors.Error) {
	if !r.IsObject() {
		return values.Undefined, vm.raiseTypeError(span, "cannot use 'in' operator on a non-object")
	}
	key := values.ToPropertyKey(l)
	return values.Bool(r.AsObject().Methods.HasProperty(r.AsObject(), key)), nil
}

// unaryMinus, unaryPlus and bitNot implement the prefix unary opcodes whose behavior isn't
// already a single dedicated opcode.
func (vm *Vm) unaryMinus(v values.Value) values.Value {
	if v.IsBigInt() {
		return values.BigIntValue(new(big.Int).Neg(v.AsBigInt()))
	}
	return values.Float64(-v.ToNumber())
}

func (vm *Vm) unaryPlus(v values.Value) values.Value { return values.Float64(v.ToNumber()) }

func (vm *Vm) bitNot(v values.Value) values.Value { return values.Int32(^toInt32(v.ToNumber())) }

// incDec implements ++ / -- (ECMA-262 13.4.4/13.4.5); the compiler emits
// whichever Dup/Pop shuffling around Inc/Dec gives prefix vs postfix
// semantics their distinct stack-value-after-op behavior.
func (vm *Vm) incDec(v values.Value, delta int64) values.Value {
	if v.IsBigInt() {
		return values.BigIntValue(new(big.Int).Add(v.AsBigInt(), big.NewInt(delta)))
	}
	return values.Float64(v.ToNumber() + float64(delta))
}

// binOpFromOpcode maps the opcode stream's arithmetic/comparison opcodes
// onto binaryOp's internal binOp enum.
func binOpFromOpcode(op opcodes.Op) binOp {
	switch op {
	case opcodes.Add:
		return opAdd
	case opcodes.Sub:
		return opSub
	case opcodes.Mul:
		return opMul
	case opcodes.Div:
		return opDiv
	case opcodes.Mod:
		return opMod
	case opcodes.Exp:
		return opExp
	case opcodes.BitAnd:
		return opBitAnd
	case opcodes.BitOr:
		return opBitOr
	case opcodes.BitXor:
		return opBitXor
	case opcodes.Shl:
		return opShl
	case opcodes.Shr:
		return opShr
	case opcodes.UShr:
		return opUShr
	case opcodes.Eq:
		return opEq
	case opcodes.Neq:
		return opNeq
	case opcodes.StrictEq:
		return opStrictEq
	case opcodes.StrictNeq:
		return opStrictNeq
	case opcodes.Lt:
		return opLt
	case opcodes.Lte:
		return opLte
	case opcodes.Gt:
		return opGt
	case opcodes.Gte:
		return opGte
	case opcodes.InstanceOf:
		return opInstanceOf
	default:
		return opIn
	}
}
