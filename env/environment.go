// Package env implements the lexical environment chain and the realm
// boundary (spec §3.4, §3.6, §4.3).
package env

import (
	"github.com/wudi/vela/errors"
	"github.com/wudi/vela/values"
)

// Kind distinguishes the five environment record flavors spec §3.4 names.
type Kind byte

const (
	KindDeclarative Kind = iota
	KindFunction
	KindObject
	KindGlobal
	KindModule
)

type binding struct {
	value       values.Value
	mutable     bool
	deletable   bool
	initialized bool
	strictDecl  bool // create_immutable_binding's "strict" parameter
}

// Environment is one frame of the lexical scope chain (spec §3.4).
type Environment struct {
	Kind  Kind
	Outer *Environment

	names    map[string]int
	bindings []binding

	// Object environments (module `with`, the global object record) wrap
	// a backing object instead of a private binding table.
	objectBacking *values.Object

	// Function environments carry a `this` binding slot.
	hasThis       bool
	thisBound     bool
	thisVal       values.Value
	newTarget     values.Value
	functionObj   *values.Object
}

// NewDeclarative creates a fresh declarative environment frame, pushed on
// block entry, `catch`, and similar lexical scope boundaries (spec §3.4).
func NewDeclarative(outer *Environment) *Environment {
	return &Environment{Kind: KindDeclarative, Outer: outer, names: map[string]int{}}
}

// NewFunction creates a function environment with a `this` binding slot.
func NewFunction(outer *Environment, fn *values.Object) *Environment {
	return &Environment{Kind: KindFunction, Outer: outer, names: map[string]int{}, hasThis: true, functionObj: fn}
}

// NewObject wraps a backing object (used for `with` statements and the
// global object record).
func NewObject(outer *Environment, backing *values.Object, kind Kind) *Environment {
	return &Environment{Kind: kind, Outer: outer, objectBacking: backing, names: map[string]int{}}
}

// CreateMutableBinding implements CreateMutableBinding (spec §4.3). The
// binding starts uninitialized, same as CreateImmutableBinding: `let`
// gets a real TDZ this way, and every caller that wants eager
// initialization (var hoisting, parameter binding) already follows up
// with an immediate InitializeBinding call.
func (e *Environment) CreateMutableBinding(name string, deletable bool) {
	if e.objectBacking != nil {
		undef := values.Undefined
		e.objectBacking.Properties.Set(values.StringKey(name), &values.PropertyDescriptor{
			Kind: values.DescData, Value: &undef, Writable: boolPtr(true),
			Enumerable: boolPtr(true), Configurable: boolPtr(deletable),
		})
		return
	}
	if _, exists := e.names[name]; exists {
		return
	}
	e.names[name] = len(e.bindings)
	e.bindings = append(e.bindings, binding{mutable: true, deletable: deletable, initialized: false, value: values.Undefined})
}

// CreateImmutableBinding implements CreateImmutableBinding (spec §4.3);
// the binding starts uninitialized (the TDZ, spec §4.3/§9).
func (e *Environment) CreateImmutableBinding(name string, strict bool) {
	if _, exists := e.names[name]; exists {
		return
	}
	e.names[name] = len(e.bindings)
	e.bindings = append(e.bindings, binding{mutable: false, initialized: false, strictDecl: strict, value: values.Undefined})
}

// InitializeBinding implements InitializeBinding (spec §4.3): fails if the
// binding is already initialized.
func (e *Environment) InitializeBinding(name string, value values.Value) *errors.Error {
	if e.objectBacking != nil {
		_, err := e.objectBacking.Methods.Set(e.objectBacking, values.StringKey(name), value, values.ObjectValue(e.objectBacking))
		return err
	}
	idx, ok := e.names[name]
	if !ok {
		return errors.New(errors.ReferenceError, errors.Span{}, "binding %q not declared", name)
	}
	if e.bindings[idx].initialized {
		return errors.New(errors.ReferenceError, errors.Span{}, "binding %q already initialized", name)
	}
	e.bindings[idx].initialized = true
	e.bindings[idx].value = value
	return nil
}

// GetBindingValue implements GetBindingValue (spec §4.3): TDZ reads, and
// unresolved strict-mode reads, produce a ReferenceError.
func (e *Environment) GetBindingValue(name string, strict bool) (values.Value, *errors.Error) {
	if e.objectBacking != nil {
		if !e.objectBacking.Methods.HasProperty(e.objectBacking, values.StringKey(name)) {
			if strict {
				return values.Undefined, errors.New(errors.ReferenceError, errors.Span{}, "%s is not defined", name)
			}
			return values.Undefined, nil
		}
		return e.objectBacking.Methods.Get(e.objectBacking, values.StringKey(name), values.ObjectValue(e.objectBacking))
	}
	idx, ok := e.names[name]
	if !ok {
		return values.Undefined, errors.New(errors.ReferenceError, errors.Span{}, "%s is not defined", name)
	}
	if !e.bindings[idx].initialized {
		return values.Undefined, errors.New(errors.ReferenceError, errors.Span{}, "cannot access %q before initialization", name)
	}
	return e.bindings[idx].value, nil
}

// SetMutableBinding implements SetMutableBinding (spec §4.3).
func (e *Environment) SetMutableBinding(name string, value values.Value, strict bool) *errors.Error {
	if e.objectBacking != nil {
		ok, err := e.objectBacking.Methods.Set(e.objectBacking, values.StringKey(name), value, values.ObjectValue(e.objectBacking))
		if err != nil {
			return err
		}
		if !ok && strict {
			return errors.New(errors.TypeError, errors.Span{}, "cannot assign to read only property %q", name)
		}
		return nil
	}
	idx, ok := e.names[name]
	if !ok {
		if strict {
			return errors.New(errors.ReferenceError, errors.Span{}, "%s is not defined", name)
		}
		// Non-strict assignment to an undeclared name creates a global.
		e.names[name] = len(e.bindings)
		e.bindings = append(e.bindings, binding{mutable: true, initialized: true, value: value})
		return nil
	}
	b := &e.bindings[idx]
	if !b.initialized {
		return errors.New(errors.ReferenceError, errors.Span{}, "cannot access %q before initialization", name)
	}
	if !b.mutable {
		if strict {
			return errors.New(errors.TypeError, errors.Span{}, "assignment to constant variable %q", name)
		}
		return nil
	}
	b.value = value
	return nil
}

// DeleteBinding implements DeleteBinding (spec §4.3): only deletable
// bindings may be removed.
func (e *Environment) DeleteBinding(name string) bool {
	if e.objectBacking != nil {
		return e.objectBacking.Methods.Delete(e.objectBacking, values.StringKey(name))
	}
	idx, ok := e.names[name]
	if !ok {
		return true
	}
	if !e.bindings[idx].deletable {
		return false
	}
	delete(e.names, name)
	return true
}

// BindingNames lists the names declared directly in this frame, in
// declaration order. Used by CreatePerIterationEnvironment (spec
// §4.1/§8's per-iteration `let` closures) to copy a loop header's
// bindings forward into the next iteration's fresh environment.
func (e *Environment) BindingNames() []string {
	if e.objectBacking != nil || len(e.names) == 0 {
		return nil
	}
	out := make([]string, len(e.names))
	for name, idx := range e.names {
		out[idx] = name
	}
	return out
}

// HasBinding reports whether name resolves in this frame specifically
// (not walking Outer).
func (e *Environment) HasBinding(name string) bool {
	if e.objectBacking != nil {
		return e.objectBacking.Methods.HasProperty(e.objectBacking, values.StringKey(name))
	}
	_, ok := e.names[name]
	return ok
}

// HasThisBinding / GetThisBinding implement spec §4.3 for function and
// global environments.
func (e *Environment) HasThisBinding() bool { return e.hasThis }

func (e *Environment) GetThisBinding() (values.Value, *errors.Error) {
	if !e.hasThis {
		return values.Undefined, errors.New(errors.ReferenceError, errors.Span{}, "no `this` binding in this scope")
	}
	if !e.thisBound {
		return values.Undefined, errors.New(errors.ReferenceError, errors.Span{}, "must call super constructor before accessing `this`")
	}
	return e.thisVal, nil
}

// BindThis initializes the `this` slot (ordinary functions bind it on
// entry; derived-class constructors bind it only after `super()`).
func (e *Environment) BindThis(v values.Value) {
	e.thisVal = v
	e.thisBound = true
}

func (e *Environment) SetNewTarget(v values.Value) { e.newTarget = v }
func (e *Environment) NewTarget() values.Value     { return e.newTarget }

func boolPtr(b bool) *bool { return &b }

// Resolve walks the chain from e outward looking for name, returning the
// defining environment (or nil). Used by the compiler's scope-analysis
// fallback path for free variables (spec §4.1 "free names fall back to
// dynamic lookup").
func Resolve(start *Environment, name string) *Environment {
	for cur := start; cur != nil; cur = cur.Outer {
		if cur.HasBinding(name) {
			return cur
		}
	}
	return nil
}

// Depth returns how many Outer hops separate start and target, used to
// encode "environment depth + slot" variable references (spec §4.1).
func Depth(start, target *Environment) int {
	d := 0
	for cur := start; cur != nil; cur = cur.Outer {
		if cur == target {
			return d
		}
		d++
	}
	return -1
}
