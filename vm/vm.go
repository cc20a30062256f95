// Package vm implements the virtual machine (C4): instruction dispatch,
// call frames, the exception handler table, and generator/async
// suspension (spec §4).
package vm

import (
	"github.com/wudi/vela/env"
	"github.com/wudi/vela/errors"
	"github.com/wudi/vela/values"
)

// FunctionProto is a compiled function body plus the metadata needed to
// instantiate a closure over it at runtime (spec §4.1 "function
// literals compile to a CodeBlock referenced by index").
type FunctionProto struct {
	Code          *CodeBlock
	Name          string
	ParamNames    []string
	RestParam     string // "" if the function has no rest parameter
	IsArrow       bool   // arrows don't get their own `this`/`arguments`/`new.target`
	IsGenerator   bool
	IsAsync       bool
	IsDerivedCtor bool // derived class constructors delay `this` binding until super()
}

// CodeBlock is one compiled unit: a script top level, or a single
// function/method/generator body (spec §4.1).
type CodeBlock struct {
	Name      string
	Code      []byte
	Constants []values.Value
	Functions []*FunctionProto
	Span      errors.Span
	// PCSpans maps instruction addresses to source spans for error
	// reporting; sparse (only recorded at call/throw-relevant sites).
	PCSpans map[int]errors.Span

	// Inline-cache slots, one array per opcode family that carries an ic
	// slot operand (spec §4.1 "variable access with inline-cache slots").
	// Monomorphic: each slot remembers the last environment/object it
	// resolved against and is revalidated (not blindly trusted) on reuse,
	// so a polymorphic site degrades to the slow path instead of
	// returning a stale result.
	ICBindings []*env.Environment
	ICProps    []icPropEntry
}

type icPropEntry struct {
	obj   *values.Object // the receiver last seen at this site
	owner *values.Object // the object in its prototype chain that actually owns the property
	desc  *values.PropertyDescriptor
}

// NewCodeBlock assembles a compiled unit. The compiler calls this rather
// than building a CodeBlock literal directly since icPropEntry is
// unexported: IC slot counts come in as plain ints and this allocates
// the backing slices itself.
func NewCodeBlock(name string, code []byte, constants []values.Value, functions []*FunctionProto, span errors.Span, pcSpans map[int]errors.Span, icBindingSlots, icPropSlots int) *CodeBlock {
	return &CodeBlock{
		Name: name, Code: code, Constants: constants, Functions: functions,
		Span: span, PCSpans: pcSpans,
		ICBindings: make([]*env.Environment, icBindingSlots),
		ICProps:    make([]icPropEntry, icPropSlots),
	}
}

func (c *CodeBlock) spanAt(pc int) errors.Span {
	if s, ok := c.PCSpans[pc]; ok {
		return s
	}
	return c.Span
}

// handlerEntry is one live try/catch/finally frame (spec §4.1 "handler
// table", §4.4 exception propagation).
type handlerEntry struct {
	catchAddr, finallyAddr int
	hasCatch, hasFinally   bool
	stackDepth             int
	env                    *env.Environment
}

// CallFrame is one activation record (spec §4.1).
type CallFrame struct {
	Block     *CodeBlock
	Proto     *FunctionProto
	PC        int
	Stack     []values.Value
	Env       *env.Environment
	This      values.Value
	NewTarget values.Value
	Handlers  []handlerEntry
	FuncObj   *values.Object

	// Suspendable is set for generator and async function frames; the
	// Yield/Await opcodes check it to decide whether suspending (instead
	// of raising a TypeError) is legal in this frame (see coroutine.go).
	Suspendable bool

	// pendingCompletion carries a Throw or Return signal across a
	// finally block's execution (set when handleCompletion routes
	// through a handler's finallyAddr; consumed by the ExitFinally
	// opcode once the finally body itself completes normally).
	pendingCompletion *signal
}

func (f *CallFrame) push(v values.Value) { f.Stack = append(f.Stack, v) }

func (f *CallFrame) pop() values.Value {
	v := f.Stack[len(f.Stack)-1]
	f.Stack = f.Stack[:len(f.Stack)-1]
	return v
}

func (f *CallFrame) peek() values.Value { return f.Stack[len(f.Stack)-1] }

func (f *CallFrame) truncate(depth int) { f.Stack = f.Stack[:depth] }

// RuntimeLimits bounds the resources a single Execute call may consume
// (spec §4.4 "RuntimeLimit is uncatchable").
type RuntimeLimits struct {
	MaxCallDepth  int
	MaxStackSlots int
	MaxSteps      uint64 // 0 = unbounded; counts every instruction this Vm dispatches, across all calls
}

// DefaultLimits matches the teacher's conservative defaults, scaled to
// an interpreter rather than a request-scoped script engine.
func DefaultLimits() RuntimeLimits {
	return RuntimeLimits{MaxCallDepth: 2000, MaxStackSlots: 1 << 20, MaxSteps: 0}
}

// Vm is one execution engine bound to a realm (spec §4 "the VM owns the
// value stack, environment stack, call-frame stack, pending-exception
// slot, return-value slot, runtime limits, job queue, and the active
// realm").
type Vm struct {
	Realm     *env.Realm
	Limits    RuntimeLimits
	callDepth int
	jobs      *JobQueue
	steps     uint64

	// classFields holds this/super-independent field initializers per
	// class constructor object, applied to `this` at construction time
	// (see construct.go's opNewClass/opDefineClassField).
	classFields map[*values.Object][]classFieldEntry

	// homeObjects maps a method's instantiated function object to the
	// class prototype it was defined on, and superCtors maps a
	// constructor method's function object to its parent class's
	// constructor — both resolved at NewClass/DefineClassMethod time
	// since `extends` is an arbitrary runtime expression, not something
	// the compiler can bind statically (see construct.go).
	homeObjects map[*values.Object]*values.Object
	superCtors  map[*values.Object]*values.Object
	classSuper  map[*values.Object]*values.Object // ctorObj -> its superclass constructor, while a class body is being built
}

// New constructs a Vm bound to realm with the given limits.
func New(realm *env.Realm, limits RuntimeLimits) *Vm {
	return &Vm{Realm: realm, Limits: limits, jobs: newJobQueue()}
}

// Jobs exposes the microtask queue so the engine/host can drain it
// between turns (spec §5 "the job queue is drained at checkpoints").
func (vm *Vm) Jobs() *JobQueue { return vm.jobs }

// signalKind is the VM-internal completion discriminant (spec §4
// CompletionType, restricted to what can cross a call boundary —
// break/continue never escape a function since the compiler resolves
// them to plain jumps within it).
type signalKind byte

const (
	sigNormal signalKind = iota
	sigReturn
	sigThrow
	sigYield // a generator body suspended at `yield`; value is the yielded value
	sigAwait // an async function body suspended at `await`; value is the awaited value
)

type signal struct {
	kind  signalKind
	value values.Value
}

// Run executes block as a fresh call frame with this/args bound, and
// returns its completion value or a thrown value wrapped as an error
// (spec §4 "Execute").
func (vm *Vm) Run(block *CodeBlock, proto *FunctionProto, this values.Value, newTarget values.Value, args []values.Value, closure *env.Environment, funcObj *values.Object) (values.Value, *errors.Error) {
	vm.callDepth++
	defer func() { vm.callDepth-- }()
	if vm.callDepth > vm.Limits.MaxCallDepth {
		return values.Undefined, errors.RuntimeLimitError(block.Span, "call stack", uint64(vm.callDepth), uint64(vm.Limits.MaxCallDepth))
	}

	frame := &CallFrame{Block: block, Proto: proto, Env: env.NewFunction(closure, funcObj), This: this, NewTarget: newTarget, FuncObj: funcObj}
	if proto == nil || !proto.IsDerivedCtor {
		frame.Env.BindThis(this)
	}
	frame.Env.SetNewTarget(newTarget)
	bindParams(frame, proto, args, vm.Realm.Intrinsics.ArrayPrototype)

	sig, err := vm.execFrame(frame)
	if err != nil {
		return values.Undefined, err
	}
	switch sig.kind {
	case sigThrow:
		return values.Undefined, thrownAsError(block, sig.value)
	case sigReturn:
		return sig.value, nil
	default:
		return values.Undefined, nil
	}
}

func bindParams(frame *CallFrame, proto *FunctionProto, args []values.Value, arrayProto *values.Object) {
	if proto == nil {
		return
	}
	for i, name := range proto.ParamNames {
		var v values.Value = values.Undefined
		if i < len(args) {
			v = args[i]
		}
		frame.Env.CreateMutableBinding(name, false)
		_ = frame.Env.InitializeBinding(name, v)
	}
	if proto.RestParam != "" {
		rest := values.NewArrayObject(arrayProto)
		start := len(proto.ParamNames)
		for i := start; i < len(args); i++ {
			idx := uint32(i - start)
			v := args[i]
			rest.Properties.Set(values.IndexKey(idx), &values.PropertyDescriptor{
				Kind: values.DescData, Value: &v, Writable: boolPtrVM(true), Enumerable: boolPtrVM(true), Configurable: boolPtrVM(true),
			})
		}
		length := values.Int32(int32(len(args) - start))
		if length.AsInt32() < 0 {
			length = values.Int32(0)
		}
		rest.Properties.Set(values.StringKey("length"), &values.PropertyDescriptor{Kind: values.DescData, Value: &length, Writable: boolPtrVM(true)})
		frame.Env.CreateMutableBinding(proto.RestParam, false)
		_ = frame.Env.InitializeBinding(proto.RestParam, values.ObjectValue(rest))
	}
}

func boolPtrVM(b bool) *bool { return &b }

// thrownAsError bridges a JS throw completion (an arbitrary Value) back
// into the *errors.Error channel Compile/Execute's signature exposes to
// the host. Catchable JS throws keep their original value reachable via
// Error.Message for host-visible diagnostics; script-level try/catch
// never goes through this path, it only applies to an uncaught throw
// reaching the outermost Execute call.
func thrownAsError(block *CodeBlock, v values.Value) *errors.Error {
	kind := errors.TypeError
	msg := v.Inspect()
	if v.IsObject() && v.AsObject().ErrorData != nil {
		kind = v.AsObject().ErrorData.Kind
		if m, ok := v.AsObject().Properties.Get(values.StringKey("message")); ok && m.Value != nil {
			msg = m.Value.ToStringValue()
		}
	}
	return errors.New(kind, block.Span, "%s", msg).WithPayload(v)
}

// NewErrorValue constructs a catchable JS Error object of the given
// kind, the shape `Throw*Error` opcodes and builtin operations raise
// (spec §7 "errors are ordinary catchable objects, except RuntimeLimit
// and OutOfMemory").
func NewErrorValue(realm *env.Realm, kind errors.Kind, message string) values.Value {
	proto := realm.Intrinsics.ErrorPrototype
	if ctor, ok := realm.Intrinsics.ErrorConstructors[kind.String()]; ok && ctor != nil {
		proto = ctor
	}
	obj := values.NewOrdinaryObject(proto)
	obj.ClassName = "Error"
	obj.ErrorData = &values.ErrorData{Kind: kind, RealmID: realm.ID}
	msgVal := values.StringFromGo(message)
	obj.Properties.Set(values.StringKey("message"), &values.PropertyDescriptor{
		Kind: values.DescData, Value: &msgVal, Writable: boolPtrVM(true), Enumerable: boolPtrVM(false), Configurable: boolPtrVM(true),
	})
	nameVal := values.StringFromGo(kind.String())
	obj.Properties.Set(values.StringKey("name"), &values.PropertyDescriptor{
		Kind: values.DescData, Value: &nameVal, Writable: boolPtrVM(true), Enumerable: boolPtrVM(false), Configurable: boolPtrVM(true),
	})
	return values.ObjectValue(obj)
}
