// Package registry is the native binding layer a host uses to expose Go
// functionality to script code (spec §6 "register_global_property",
// "register_global_callable", "register_global_class"). It is
// generalized from the teacher's compiler/registry package, which built
// PHP class/method descriptors keyed by name in a global map; here the
// unit of registration is a JS native function or class directly
// wired onto a realm's global object and intrinsics, since this
// engine's object model (values.Object, values.NativeFunction) already
// is the dispatch table — there's no separate descriptor layer to
// resolve through at call time.
package registry

import (
	"sync"

	"github.com/maruel/natural"

	"github.com/wudi/vela/env"
	"github.com/wudi/vela/values"
)

// Registry tracks every name registered onto a realm, purely for
// introspection (the REPL's `.globals` command, spec §1.4) — the
// teacher's GlobalRegistry served the same "what do we know about" role
// for its ClassRegistry, guarded by the same sync.RWMutex idiom.
type Registry struct {
	mu    sync.RWMutex
	realm *env.Realm
	names map[string]Kind
}

// Kind labels what sort of thing a registered global name is, so
// `.globals` can annotate its listing.
type Kind byte

const (
	KindProperty Kind = iota
	KindCallable
	KindClass
)

func (k Kind) String() string {
	switch k {
	case KindCallable:
		return "function"
	case KindClass:
		return "class"
	default:
		return "property"
	}
}

// New returns a Registry bound to realm. A host typically creates one
// per engine.Context and calls its Register* methods during bootstrap.
func New(realm *env.Realm) *Registry {
	return &Registry{realm: realm, names: map[string]Kind{}}
}

// RegisterProperty installs a plain data property on the global object.
func (r *Registry) RegisterProperty(name string, v values.Value, writable, enumerable, configurable bool) {
	r.realm.RegisterGlobalProperty(name, v, writable, enumerable, configurable)
	r.note(name, KindProperty)
}

// RegisterCallable installs a native function as a global binding (spec
// §6). length is the function's declared arity, used by `Function.length`.
func (r *Registry) RegisterCallable(name string, length int, fn values.NativeFunction) {
	r.realm.RegisterGlobalCallable(name, length, fn)
	r.note(name, KindCallable)
}

// RegisterClass installs a constructor built by a ClassBuilder as a
// global binding under name; the prototype is reachable only through
// the constructor's .prototype property.
func (r *Registry) RegisterClass(name string, ctor *values.Object) {
	r.realm.RegisterGlobalProperty(name, values.ObjectValue(ctor), true, false, true)
	r.note(name, KindClass)
}

func (r *Registry) note(name string, k Kind) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.names[name] = k
}

// Names returns every registered global name, naturally sorted (so
// `Array10` sorts after `Array9` instead of before it, matching the
// REPL's `.globals` listing, spec §1.4).
func (r *Registry) Names() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]string, 0, len(r.names))
	for name := range r.names {
		out = append(out, name)
	}
	natural.Sort(out)
	return out
}

// KindOf reports the Kind a name was registered under.
func (r *Registry) KindOf(name string) (Kind, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	k, ok := r.names[name]
	return k, ok
}

// ClassBuilder is a fluent API for assembling a native class's
// constructor and prototype before installing it on a realm, mirroring
// the teacher's ClassBuilder/MethodBuilder pair but emitting
// values.Object method/property descriptors directly instead of an
// intermediate ClassDescriptor, since there's no separate bytecode
// method variant to choose between here — every native class member is
// a Go closure.
type ClassBuilder struct {
	realm      *env.Realm
	name       string
	ctor       values.NativeFunction
	length     int
	superProto *values.Object
	proto      *values.Object
}

// NewClass starts building a native class named name, backed by a
// constructor closure. ctor receives `this` already allocated by New
// (see values.NewFunctionObject's Construct slot) and only needs to
// initialize it.
func NewClass(realm *env.Realm, name string, length int, ctor values.NativeFunction) *ClassBuilder {
	return &ClassBuilder{realm: realm, name: name, ctor: ctor, length: length}
}

// Extends sets the prototype chain: parent is the superclass's prototype
// object, the new class's prototype inherits from it directly, and
// instances constructed through it resolve inherited
// methods through that chain, same as a script-level `class X extends Y`.
func (b *ClassBuilder) Extends(parent *values.Object) *ClassBuilder {
	b.superProto = parent
	return b
}

func (b *ClassBuilder) ensureProto() *values.Object {
	if b.proto == nil {
		parentProto := b.realm.Intrinsics.ObjectPrototype
		if b.superProto != nil {
			parentProto = b.superProto
		}
		b.proto = values.NewOrdinaryObject(parentProto)
	}
	return b.proto
}

// Method installs a non-enumerable method on the class prototype.
func (b *ClassBuilder) Method(name string, length int, fn values.NativeFunction) *ClassBuilder {
	proto := b.ensureProto()
	m := values.NewFunctionObject(b.realm.Intrinsics.FunctionPrototype, name, length, fn, nil)
	proto.Properties.Set(values.StringKey(name), desc0(values.ObjectValue(m)))
	return b
}

// Getter installs an accessor property's read side on the prototype.
func (b *ClassBuilder) Getter(name string, fn values.NativeFunction) *ClassBuilder {
	proto := b.ensureProto()
	g := values.NewFunctionObject(b.realm.Intrinsics.FunctionPrototype, "get "+name, 0, fn, nil)
	mergeAccessor(proto, name, values.ObjectValue(g), values.Undefined)
	return b
}

// Setter installs an accessor property's write side on the prototype.
func (b *ClassBuilder) Setter(name string, fn values.NativeFunction) *ClassBuilder {
	proto := b.ensureProto()
	s := values.NewFunctionObject(b.realm.Intrinsics.FunctionPrototype, "set "+name, 1, fn, nil)
	mergeAccessor(proto, name, values.Undefined, values.ObjectValue(s))
	return b
}

// Field records an own data property every new instance should start
// with; the constructor closure is responsible for actually setting it
// on `this` (unlike a script class, a native constructor has no
// compiler-generated field-initializer prologue to piggyback on).
func (b *ClassBuilder) Field(name string, def values.Value) *ClassBuilder {
	proto := b.ensureProto()
	proto.Properties.Set(values.StringKey(name), desc0(def))
	return b
}

// Build finalizes the constructor object, wiring .prototype/.constructor
// the way a script-level class declaration does (ECMA-262 15.7.1), and
// returns it ready for Registry.RegisterClass; its .prototype object can
// be passed to a later ClassBuilder.Extends.
func (b *ClassBuilder) Build() *values.Object {
	proto := b.ensureProto()
	ctorObj := values.NewFunctionObject(b.realm.Intrinsics.FunctionPrototype, b.name, b.length, b.ctor, b.ctor)
	ctorObj.Properties.Set(values.StringKey("prototype"), desc3(values.ObjectValue(proto), false, false, false))
	proto.Properties.Set(values.StringKey("constructor"), desc0WithEnum(values.ObjectValue(ctorObj), false))
	return ctorObj
}

func desc0(v values.Value) *values.PropertyDescriptor {
	d := values.DataDescriptor(v, true, false, true)
	return &d
}

func desc0WithEnum(v values.Value, enumerable bool) *values.PropertyDescriptor {
	d := values.DataDescriptor(v, true, enumerable, true)
	return &d
}

func desc3(v values.Value, writable, enumerable, configurable bool) *values.PropertyDescriptor {
	d := values.DataDescriptor(v, writable, enumerable, configurable)
	return &d
}

// mergeAccessor installs or widens an accessor descriptor on obj so that
// calling Getter then Setter (in either order) for the same name ends
// up with both sides set, rather than the second call clobbering the
// first.
func mergeAccessor(obj *values.Object, name string, get, set values.Value) {
	key := values.StringKey(name)
	if existing, ok := obj.Properties.Get(key); ok && existing.Kind == values.DescAccessor {
		if get == values.Undefined && existing.Get != nil {
			get = *existing.Get
		}
		if set == values.Undefined && existing.Set != nil {
			set = *existing.Set
		}
	}
	d := values.AccessorDescriptor(get, set, false, true)
	obj.Properties.Set(key, &d)
}
