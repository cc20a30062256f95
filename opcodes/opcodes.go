// Package opcodes defines the virtual machine's instruction set (spec
// §4.1): literals, variable access with inline-cache slots, property
// access, arithmetic/bitwise/logical/comparison, control flow, calls,
// the iterator protocol, generator/async suspension, exceptions,
// environment push/pop, binding initialization, object/array/template/
// regexp literal construction, and class setup.
//
// Encoding departs from the teacher's fixed-width
// Instruction{Op1,Op2,Result uint32} struct: spec §4.1 calls for "a
// single-byte (with widening prefixes for operands that don't fit)
// opcode stream", so each instruction is one opcode byte followed by
// zero or more operands that default to a single byte and widen to
// 16 or 32 bits when a WideN prefix precedes them (justified in
// DESIGN.md). The category-banded const block and the opcodeNames map
// keep the teacher's own "const ( ... ) + name table" idiom.
package opcodes

// Op is one instruction in the opcode stream.
type Op byte

const (
	// --- widening prefixes ---
	Wide16 Op = iota // next instruction's operands are uint16, not uint8
	Wide32           // next instruction's operands are uint32, not uint8

	// --- stack / literals ---
	Nop
	LoadUndefined
	LoadNull
	LoadTrue
	LoadFalse
	LoadZero
	LoadConst // operand: constant pool index
	Pop
	Dup
	Swap

	// --- variable access (by name, resolved through the environment
	// chain; an inline-cache slot caches the defining environment's
	// identity+depth so repeated lookups skip the walk, spec §4.1) ---
	DeclareVar    // operands: name const idx, kind (0=var,1=let,2=const)
	InitBinding   // operand: name const idx
	GetBinding    // operands: name const idx, ic slot idx
	SetBinding    // operands: name const idx, ic slot idx
	GetBindingRef // operand: name const idx (typeof on an unresolved name must not throw)

	// --- property access ---
	GetProp         // operand: name const idx
	GetPropIC       // operands: name const idx, ic slot idx
	SetProp         // operand: name const idx
	GetPropComputed // (key on stack)
	SetPropComputed // (key on stack)
	DeleteProp      // operand: name const idx
	DeletePropComputed

	// --- arithmetic / bitwise / logical / comparison ---
	Add
	Sub
	Mul
	Div
	Mod
	Exp
	BitAnd
	BitOr
	BitXor
	Shl
	Shr
	UShr
	Neg
	Pos
	LogNot
	BitNot
	TypeOf
	Void
	Eq
	Neq
	StrictEq
	StrictNeq
	Lt
	Lte
	Gt
	Gte
	InstanceOf
	In
	Inc // ++ (postfix/prefix distinguished at the emit site by ordering)
	Dec

	// --- control flow ---
	Jump         // operand: absolute byte address
	JumpIfFalse  // operand: absolute byte address; pops
	JumpIfTrue   // operand: absolute byte address; pops
	JumpIfNullish // operand: absolute byte address; does not pop (?. / ??)

	// --- calls ---
	LoadThis       // pushes the current frame's `this` binding
	LoadNewTarget  // pushes the current frame's new.target (undefined outside a constructor call)
	GetSuperProp   // operand: name const idx; reads a property starting at the home object's prototype, receiver is `this`
	CallSuperMethod // operands: name const idx, argc; like GetSuperProp followed by a call with `this` as receiver
	Call       // operand: argc
	CallMethod // operands: name const idx, argc
	New        // operand: argc
	SuperCall  // operand: argc; invokes the active derived constructor's parent and binds `this`
	Return
	ReturnUndefined
	Throw
	ExitFinally // ends a finally block: resumes frame.pendingCompletion if set, else falls through

	// --- iterator protocol (for-of, spread, destructuring) ---
	GetIterator
	GetAsyncIterator
	GetForInIterator // pops an object, pushes an iterator over its own enumerable string keys (for-in, spec-simplified: own keys only, no prototype chain walk)
	IteratorNext
	IteratorClose

	// --- generator / async suspension ---
	//
	// yield* is not its own opcode: the compiler lowers it to a bytecode
	// loop around GetIterator/IteratorNext/Yield, the same way for-of
	// lowers to a loop around GetIterator/IteratorNext.
	Yield
	Await

	// --- exception handling ---
	PushHandler // operands: catch addr, finally addr (0 = absent)
	PopHandler

	// --- environment push/pop ---
	PushBlockEnv
	PushFunctionEnv
	PopEnv
	PerIterationEnv // replaces frame.Env with a sibling declarative env (same Outer) carrying forward every binding's current value (ECMA-262 14.7.4.3 CreatePerIterationEnvironment)

	// --- object/array/template/regexp construction ---
	NewObject
	NewArray
	NewArrayFromElements // operand: element count
	DefineDataProperty   // operand: name const idx
	DefineComputedProperty
	DefineMethod   // operand: name const idx
	DefineGetter   // operand: name const idx
	DefineSetter   // operand: name const idx
	SpreadInto     // spreads top-of-stack iterable into the array/args being built
	NewTemplate    // operand: quasi count; interleaved values already pushed
	NewRegExp      // operands: pattern const idx, flags const idx
	NewFunction    // operand: function-prototype const idx (index into CodeBlock.Functions)

	// --- class setup ---
	NewClass          // operands: name const idx, has-superclass flag
	DefineClassMethod // operand: name const idx
	DefineClassField  // operand: name const idx

	opCount
)

var opcodeNames = map[Op]string{
	Wide16:                 "wide16",
	Wide32:                 "wide32",
	Nop:                    "nop",
	LoadUndefined:          "load_undefined",
	LoadNull:               "load_null",
	LoadTrue:               "load_true",
	LoadFalse:              "load_false",
	LoadZero:               "load_zero",
	LoadConst:              "load_const",
	Pop:                    "pop",
	Dup:                    "dup",
	Swap:                   "swap",
	DeclareVar:             "declare_var",
	InitBinding:            "init_binding",
	GetBinding:             "get_binding",
	SetBinding:             "set_binding",
	GetBindingRef:          "get_binding_ref",
	GetProp:                "get_prop",
	GetPropIC:              "get_prop_ic",
	SetProp:                "set_prop",
	GetPropComputed:        "get_prop_computed",
	SetPropComputed:        "set_prop_computed",
	DeleteProp:             "delete_prop",
	DeletePropComputed:     "delete_prop_computed",
	Add:                    "add",
	Sub:                    "sub",
	Mul:                    "mul",
	Div:                    "div",
	Mod:                    "mod",
	Exp:                    "exp",
	BitAnd:                 "bit_and",
	BitOr:                  "bit_or",
	BitXor:                 "bit_xor",
	Shl:                    "shl",
	Shr:                    "shr",
	UShr:                   "ushr",
	Neg:                    "neg",
	Pos:                    "pos",
	LogNot:                 "log_not",
	BitNot:                 "bit_not",
	TypeOf:                 "typeof",
	Void:                   "void",
	Eq:                     "eq",
	Neq:                    "neq",
	StrictEq:               "strict_eq",
	StrictNeq:              "strict_neq",
	Lt:                     "lt",
	Lte:                    "lte",
	Gt:                     "gt",
	Gte:                    "gte",
	InstanceOf:             "instanceof",
	In:                     "in",
	Inc:                    "inc",
	Dec:                    "dec",
	Jump:                   "jump",
	JumpIfFalse:            "jump_if_false",
	JumpIfTrue:             "jump_if_true",
	JumpIfNullish:          "jump_if_nullish",
	LoadThis:               "load_this",
	LoadNewTarget:          "load_new_target",
	GetSuperProp:           "get_super_prop",
	CallSuperMethod:        "call_super_method",
	Call:                   "call",
	CallMethod:             "call_method",
	New:                    "new",
	SuperCall:              "super_call",
	Return:                 "return",
	ReturnUndefined:        "return_undefined",
	Throw:                  "throw",
	ExitFinally:            "exit_finally",
	GetIterator:            "get_iterator",
	GetAsyncIterator:       "get_async_iterator",
	GetForInIterator:       "get_for_in_iterator",
	IteratorNext:           "iterator_next",
	IteratorClose:          "iterator_close",
	Yield:                  "yield",
	Await:                  "await",
	PushHandler:            "push_handler",
	PopHandler:             "pop_handler",
	PushBlockEnv:           "push_block_env",
	PushFunctionEnv:        "push_function_env",
	PopEnv:                 "pop_env",
	PerIterationEnv:        "per_iteration_env",
	NewObject:              "new_object",
	NewArray:               "new_array",
	NewArrayFromElements:   "new_array_from_elements",
	DefineDataProperty:     "define_data_property",
	DefineComputedProperty: "define_computed_property",
	DefineMethod:           "define_method",
	DefineGetter:           "define_getter",
	DefineSetter:           "define_setter",
	SpreadInto:             "spread_into",
	NewTemplate:            "new_template",
	NewRegExp:              "new_regexp",
	NewFunction:            "new_function",
	NewClass:               "new_class",
	DefineClassMethod:      "define_class_method",
	DefineClassField:       "define_class_field",
}

func (op Op) String() string {
	if name, ok := opcodeNames[op]; ok {
		return name
	}
	return "unknown"
}

// operandCounts records how many operands (not the byte width — just
// the count) each opcode consumes, for the disassembler and compiler
// symmetry check.
var operandCounts = map[Op]int{
	LoadConst: 1, DeclareVar: 2, InitBinding: 1, GetBinding: 2, SetBinding: 2,
	GetBindingRef: 1, GetProp: 1, GetPropIC: 2, SetProp: 1, DeleteProp: 1,
	Jump: 1, JumpIfFalse: 1, JumpIfTrue: 1, JumpIfNullish: 1,
	GetSuperProp: 1, CallSuperMethod: 2,
	Call: 1, CallMethod: 2, New: 1, SuperCall: 1, PushHandler: 2,
	NewArrayFromElements: 1, DefineDataProperty: 1, DefineMethod: 1,
	DefineGetter: 1, DefineSetter: 1, NewTemplate: 1, NewRegExp: 2,
	NewFunction: 1, NewClass: 2, DefineClassMethod: 1, DefineClassField: 1,
}

// OperandCount returns how many operands op expects.
func OperandCount(op Op) int { return operandCounts[op] }

// IsValid reports whether op is a defined opcode (used by the
// disassembler to detect stream corruption).
func (op Op) IsValid() bool { return op < opCount }
