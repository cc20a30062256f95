// Package values implements the core's tagged Value and the polymorphic
// Object abstraction (spec §3.1-3.3, §4.2). Value and Object live in one
// package because they are mutually referential: an Object's properties
// hold Values, and a Value's object variant is a handle to an Object.
package values

import (
	"fmt"
	"math"
	"math/big"
	"strconv"
	"strings"

	"github.com/google/uuid"
)

// Type is the tag of a Value's active variant.
type Type byte

const (
	TypeUndefined Type = iota
	TypeNull
	TypeBoolean
	TypeInt32
	TypeFloat64
	TypeBigInt
	TypeString
	TypeSymbol
	TypeObject
)

func (t Type) String() string {
	switch t {
	case TypeUndefined:
		return "undefined"
	case TypeNull:
		return "null"
	case TypeBoolean:
		return "boolean"
	case TypeInt32:
		return "int32"
	case TypeFloat64:
		return "float64"
	case TypeBigInt:
		return "bigint"
	case TypeString:
		return "string"
	case TypeSymbol:
		return "symbol"
	case TypeObject:
		return "object"
	default:
		return "unknown"
	}
}

// Value is the tagged union described in spec §3.1. Integer and float
// numbers are distinguished so arithmetic fast paths can stay in int32
// without boxing; ECMAScript's Number type is otherwise a single IEEE754
// double, so every Int32 is also exactly representable as a Float64.
type Value struct {
	typ  Type
	b    bool
	i32  int32
	f64  float64
	big  *big.Int
	str  *JsString
	sym  *Symbol
	obj  *Object
}

// JsString is UTF-16 code-unit storage. ECMAScript strings are not
// required to be well-formed Unicode (lone surrogates are legal), so we
// store raw UTF-16 units rather than Go's UTF-8 string directly; a lossy
// UTF-8 view is derived only at FFI boundaries (ToGoString).
type JsString struct {
	units []uint16
}

// Symbol is a unique nominal identity, independent of its description.
type Symbol struct {
	id          string
	Description string
}

func NewSymbol(description string) *Symbol {
	return &Symbol{id: uuid.NewString(), Description: description}
}

func (s *Symbol) ID() string { return s.id }

func (s *Symbol) String() string {
	return fmt.Sprintf("Symbol(%s)", s.Description)
}

// --- Constructors ---

var (
	Undefined = Value{typ: TypeUndefined}
	Null      = Value{typ: TypeNull}
	True      = Value{typ: TypeBoolean, b: true}
	False     = Value{typ: TypeBoolean, b: false}
)

func Bool(b bool) Value {
	if b {
		return True
	}
	return False
}

func Int32(i int32) Value { return Value{typ: TypeInt32, i32: i} }

func Float64(f float64) Value { return Value{typ: TypeFloat64, f64: f} }

func BigIntValue(b *big.Int) Value { return Value{typ: TypeBigInt, big: b} }

func StringFromGo(s string) Value {
	return Value{typ: TypeString, str: NewJsString(s)}
}

func StringFromUnits(units []uint16) Value {
	cp := make([]uint16, len(units))
	copy(cp, units)
	return Value{typ: TypeString, str: &JsString{units: cp}}
}

func SymbolValue(s *Symbol) Value { return Value{typ: TypeSymbol, sym: s} }

func ObjectValue(o *Object) Value { return Value{typ: TypeObject, obj: o} }

// NewJsString encodes a Go (UTF-8) string into UTF-16 code units.
func NewJsString(s string) *JsString {
	units := make([]uint16, 0, len(s))
	for _, r := range s {
		if r > 0xFFFF {
			r -= 0x10000
			units = append(units, uint16(0xD800+(r>>10)), uint16(0xDC00+(r&0x3FF)))
		} else {
			units = append(units, uint16(r))
		}
	}
	return &JsString{units: units}
}

func (s *JsString) Units() []uint16 { return s.units }

func (s *JsString) Len() int { return len(s.units) }

// ToGoString produces a lossy UTF-8 view, substituting U+FFFD for any
// unpaired surrogate, for use only at FFI/host boundaries.
func (s *JsString) ToGoString() string {
	var sb strings.Builder
	units := s.units
	for i := 0; i < len(units); i++ {
		u := units[i]
		switch {
		case u >= 0xD800 && u <= 0xDBFF && i+1 < len(units) && units[i+1] >= 0xDC00 && units[i+1] <= 0xDFFF:
			r := (rune(u)-0xD800)<<10 + (rune(units[i+1]) - 0xDC00) + 0x10000
			sb.WriteRune(r)
			i++
		case u >= 0xD800 && u <= 0xDFFF:
			sb.WriteRune(0xFFFD)
		default:
			sb.WriteRune(rune(u))
		}
	}
	return sb.String()
}

func (s *JsString) Equal(o *JsString) bool {
	if len(s.units) != len(o.units) {
		return false
	}
	for i := range s.units {
		if s.units[i] != o.units[i] {
			return false
		}
	}
	return true
}

func (s *JsString) Concat(o *JsString) *JsString {
	out := make([]uint16, 0, len(s.units)+len(o.units))
	out = append(out, s.units...)
	out = append(out, o.units...)
	return &JsString{units: out}
}

// --- Accessors / predicates ---

func (v Value) Type() Type          { return v.typ }
func (v Value) IsUndefined() bool   { return v.typ == TypeUndefined }
func (v Value) IsNull() bool        { return v.typ == TypeNull }
func (v Value) IsNullish() bool     { return v.typ == TypeUndefined || v.typ == TypeNull }
func (v Value) IsBoolean() bool     { return v.typ == TypeBoolean }
func (v Value) IsInt32() bool       { return v.typ == TypeInt32 }
func (v Value) IsFloat64() bool     { return v.typ == TypeFloat64 }
func (v Value) IsNumber() bool      { return v.typ == TypeInt32 || v.typ == TypeFloat64 }
func (v Value) IsBigInt() bool      { return v.typ == TypeBigInt }
func (v Value) IsString() bool      { return v.typ == TypeString }
func (v Value) IsSymbol() bool      { return v.typ == TypeSymbol }
func (v Value) IsObject() bool      { return v.typ == TypeObject }

func (v Value) AsBool() bool       { return v.b }
func (v Value) AsInt32() int32     { return v.i32 }
func (v Value) AsFloat64() float64 { return v.f64 }
func (v Value) AsBigInt() *big.Int { return v.big }
func (v Value) AsString() *JsString {
	return v.str
}
func (v Value) AsSymbol() *Symbol { return v.sym }
func (v Value) AsObject() *Object { return v.obj }

// IsCallable reports whether Call on this value's object is meaningful.
func (v Value) IsCallable() bool {
	return v.typ == TypeObject && v.obj != nil && v.obj.Call != nil
}

// --- §7 clause 7 abstract operations ---

// TypeOf implements the `typeof` operator.
func (v Value) TypeOf() string {
	switch v.typ {
	case TypeUndefined:
		return "undefined"
	case TypeNull:
		return "object" // historical ECMAScript wart, kept faithfully
	case TypeBoolean:
		return "boolean"
	case TypeInt32, TypeFloat64:
		return "number"
	case TypeBigInt:
		return "bigint"
	case TypeString:
		return "string"
	case TypeSymbol:
		return "symbol"
	case TypeObject:
		if v.obj.Call != nil {
			return "function"
		}
		return "object"
	default:
		return "undefined"
	}
}

// ToBoolean implements ToBoolean (7.1.2).
func (v Value) ToBoolean() bool {
	switch v.typ {
	case TypeUndefined, TypeNull:
		return false
	case TypeBoolean:
		return v.b
	case TypeInt32:
		return v.i32 != 0
	case TypeFloat64:
		return v.f64 != 0 && !math.IsNaN(v.f64)
	case TypeBigInt:
		return v.big.Sign() != 0
	case TypeString:
		return v.str.Len() > 0
	case TypeSymbol, TypeObject:
		return true
	default:
		return false
	}
}

// ToNumber implements ToNumber (7.1.4) for non-BigInt operands; BigInt
// throws a TypeError per spec, signalled by the caller checking IsBigInt
// first (the core never implicitly mixes BigInt and Number).
func (v Value) ToNumber() float64 {
	switch v.typ {
	case TypeUndefined:
		return math.NaN()
	case TypeNull:
		return 0
	case TypeBoolean:
		if v.b {
			return 1
		}
		return 0
	case TypeInt32:
		return float64(v.i32)
	case TypeFloat64:
		return v.f64
	case TypeString:
		return stringToNumber(v.str.ToGoString())
	default:
		return math.NaN()
	}
}

func stringToNumber(s string) float64 {
	trimmed := strings.TrimSpace(s)
	if trimmed == "" {
		return 0
	}
	f, err := strconv.ParseFloat(trimmed, 64)
	if err != nil {
		return math.NaN()
	}
	return f
}

// ToStringValue implements ToString (7.1.17), returning the core's string
// representation of v. Objects must go through ToPrimitive first; this
// assumes v is already a primitive or provides its own string tag.
func (v Value) ToStringValue() string {
	switch v.typ {
	case TypeUndefined:
		return "undefined"
	case TypeNull:
		return "null"
	case TypeBoolean:
		if v.b {
			return "true"
		}
		return "false"
	case TypeInt32:
		return strconv.FormatInt(int64(v.i32), 10)
	case TypeFloat64:
		return formatFloat(v.f64)
	case TypeBigInt:
		return v.big.String()
	case TypeString:
		return v.str.ToGoString()
	case TypeSymbol:
		panic("TypeError: cannot convert a Symbol value to a string")
	case TypeObject:
		return "[object Object]"
	default:
		return ""
	}
}

func formatFloat(f float64) string {
	switch {
	case math.IsNaN(f):
		return "NaN"
	case math.IsInf(f, 1):
		return "Infinity"
	case math.IsInf(f, -1):
		return "-Infinity"
	default:
		return strconv.FormatFloat(f, 'g', -1, 64)
	}
}

// Hint is the ToPrimitive coercion hint (7.1.1).
type Hint int

const (
	HintDefault Hint = iota
	HintNumber
	HintString
)

// ToPrimitive implements ToPrimitive (7.1.1). For ordinary objects it
// tries Symbol.toPrimitive (not modeled here), then the hint-ordered
// valueOf/toString pair via the object's exposed methods.
func ToPrimitive(v Value, hint Hint) (Value, bool) {
	if v.typ != TypeObject {
		return v, true
	}
	methods := []string{"valueOf", "toString"}
	if hint == HintString {
		methods = []string{"toString", "valueOf"}
	}
	for _, name := range methods {
		fn, ok := v.obj.GetOwnMethod(name)
		if !ok || fn.Call == nil {
			continue
		}
		result, err := fn.Call(v, nil)
		if err != nil {
			continue
		}
		if result.typ != TypeObject {
			return result, true
		}
	}
	return Value{}, false
}

// SameValue implements SameValue (7.2.10): NaN equals itself, +0 and -0
// differ.
func SameValue(a, b Value) bool {
	if a.typ != b.typ {
		return false
	}
	switch a.typ {
	case TypeUndefined, TypeNull:
		return true
	case TypeBoolean:
		return a.b == b.b
	case TypeInt32:
		return a.i32 == b.i32
	case TypeFloat64:
		if math.IsNaN(a.f64) && math.IsNaN(b.f64) {
			return true
		}
		if a.f64 == 0 && b.f64 == 0 {
			return math.Signbit(a.f64) == math.Signbit(b.f64)
		}
		return a.f64 == b.f64
	case TypeBigInt:
		return a.big.Cmp(b.big) == 0
	case TypeString:
		return a.str.Equal(b.str)
	case TypeSymbol:
		return a.sym == b.sym
	case TypeObject:
		return a.obj == b.obj
	default:
		return false
	}
}

// SameValueZero is SameValue except +0 and -0 are equal (used by Array
// includes, Map/Set key comparisons).
func SameValueZero(a, b Value) bool {
	if a.typ == TypeFloat64 && b.typ == TypeFloat64 && a.f64 == 0 && b.f64 == 0 {
		return true
	}
	return SameValue(a, b)
}

// StrictEquals implements the === operator (7.2.14): like SameValue but
// +0 == -0 and it never special-cases NaN as equal to itself.
func StrictEquals(a, b Value) bool {
	if a.typ != b.typ {
		return false
	}
	switch a.typ {
	case TypeFloat64:
		return a.f64 == b.f64
	case TypeInt32:
		return a.i32 == b.i32
	default:
		return SameValue(a, b)
	}
}

// LooseEquals implements the == operator's abstract equality comparison
// (7.2.13), including the coercions between numbers/strings/booleans.
func LooseEquals(a, b Value) bool {
	if a.typ == b.typ {
		return StrictEquals(a, b)
	}
	if a.IsNullish() && b.IsNullish() {
		return true
	}
	if a.IsNullish() || b.IsNullish() {
		return false
	}
	if a.IsNumber() && b.IsString() {
		return numEquals(a, Float64(stringToNumber(b.str.ToGoString())))
	}
	if a.IsString() && b.IsNumber() {
		return LooseEquals(b, a)
	}
	if a.typ == TypeBigInt && b.IsString() {
		bi, ok := new(big.Int).SetString(b.str.ToGoString(), 10)
		return ok && a.big.Cmp(bi) == 0
	}
	if a.IsString() && b.typ == TypeBigInt {
		return LooseEquals(b, a)
	}
	if a.IsBoolean() {
		return LooseEquals(boolToNumber(a), b)
	}
	if b.IsBoolean() {
		return LooseEquals(a, boolToNumber(b))
	}
	if (a.IsNumber() || a.typ == TypeBigInt) && b.typ == TypeObject {
		if prim, ok := ToPrimitive(b, HintDefault); ok {
			return LooseEquals(a, prim)
		}
		return false
	}
	if a.typ == TypeObject && (b.IsNumber() || b.IsString() || b.typ == TypeBigInt) {
		return LooseEquals(b, a)
	}
	return false
}

func boolToNumber(v Value) Value {
	if v.b {
		return Int32(1)
	}
	return Int32(0)
}

func numEquals(a, b Value) bool {
	return a.ToNumber() == b.ToNumber()
}

// Inspect renders a debug form used by the REPL/tests; it never panics,
// unlike ToStringValue on a Symbol.
func (v Value) Inspect() string {
	switch v.typ {
	case TypeSymbol:
		return v.sym.String()
	case TypeString:
		return strconv.Quote(v.str.ToGoString())
	case TypeObject:
		return v.obj.Inspect()
	default:
		return v.ToStringValue()
	}
}
