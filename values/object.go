package values

import (
	"fmt"

	"github.com/wudi/vela/errors"
)

// NativeFunction is the host-callable shape every function object's Call
// (and, for constructors, Construct) slot holds. Ordinary script
// functions get a closure here that re-enters the VM for their
// CodeBlock; the values package itself never depends on the VM (it is a
// C2-only package per spec §2), which is why this is a plain func type
// rather than a *vm.CodeBlock reference.
type NativeFunction func(this Value, args []Value) (Value, *errors.Error)

// InternalMethods is the fixed vtable of the 11 essential internal
// methods every object exposes (spec §4.2, §9 "fixed vtable of 11
// function pointers"). Exotic objects install a table that overrides
// only the entries their exotic behavior touches.
type InternalMethods struct {
	GetPrototypeOf    func(o *Object) *Object
	SetPrototypeOf    func(o *Object, proto *Object) bool
	IsExtensible      func(o *Object) bool
	PreventExtensions func(o *Object) bool
	GetOwnProperty    func(o *Object, key PropertyKey) (*PropertyDescriptor, bool)
	DefineOwnProperty func(o *Object, key PropertyKey, desc PropertyDescriptor) (bool, *errors.Error)
	HasProperty       func(o *Object, key PropertyKey) bool
	Get               func(o *Object, key PropertyKey, receiver Value) (Value, *errors.Error)
	Set               func(o *Object, key PropertyKey, value Value, receiver Value) (bool, *errors.Error)
	Delete            func(o *Object, key PropertyKey) bool
	OwnPropertyKeys   func(o *Object) []PropertyKey
}

// ExoticKind names the ObjectData variant, purely for diagnostics/typeof
// style dispatch that isn't already covered by the vtable.
type ExoticKind byte

const (
	ExoticNone ExoticKind = iota
	ExoticArray
	ExoticStringWrapper
	ExoticProxy
	ExoticError
	ExoticPromise
)

// PromiseState is one of the three states a Promise can occupy (spec
// §4, Supplemented features: Promise/job-queue plumbing for async/await).
type PromiseState byte

const (
	PromisePending PromiseState = iota
	PromiseFulfilled
	PromiseRejected
)

// PromiseData is the exotic state backing a Promise instance. Reactions
// are plain Go closures rather than CodeBlock references, matching the
// same VM-independence rule as NativeFunction: the vm package supplies
// closures that capture what they need when it constructs a Promise.
type PromiseData struct {
	State     PromiseState
	Result    Value
	OnFulfill []func(Value)
	OnReject  []func(Value)
}

// ArrayData is the exotic state an Array object carries in addition to
// its PropertyMap: only the "length" invariant, since elements live as
// ordinary index-keyed properties.
type ArrayData struct{}

// StringWrapperData backs a boxed String object (`new String("x")`);
// Primitive holds the wrapped value so indexed character properties can
// be synthesized without scanning the property map.
type StringWrapperData struct {
	Primitive *JsString
}

// ProxyData holds a Proxy's target and handler (spec §4.2 "Proxies
// forward every method to a trap table").
type ProxyData struct {
	Target  *Object
	Handler *Object
}

// ErrorData is attached to Error instances for instanceof / stack-trace
// plumbing; the realm that constructed the error is used to resolve
// instanceof across realm boundaries (spec §7).
type ErrorData struct {
	Kind    errors.Kind
	RealmID string
}

// Object is the polymorphic object abstraction of spec §3.2.
type Object struct {
	Prototype  *Object
	Extensible bool
	Properties *PropertyMap
	Methods    *InternalMethods

	ExoticKind ExoticKind
	ArrayData  *ArrayData
	StringData *StringWrapperData
	ProxyData   *ProxyData
	ErrorData   *ErrorData
	PromiseData *PromiseData

	// Callable objects carry Call (and Construct, if usable with `new`).
	// Both are nil for ordinary data objects.
	Call       NativeFunction
	Construct  NativeFunction
	FuncName   string
	FuncLength int

	// ClassName is used only for Inspect()/ToStringValue() tagging
	// ("[object Array]" etc.) — not part of the internal-method contract.
	ClassName string
}

// NewOrdinaryObject allocates a plain object with the ordinary internal
// method table installed, per spec §4.2/§9 ("exotics pick a table at
// construction").
func NewOrdinaryObject(proto *Object) *Object {
	return &Object{
		Prototype:  proto,
		Extensible: true,
		Properties: NewPropertyMap(),
		Methods:    &ordinaryMethods,
		ClassName:  "Object",
	}
}

// NewArrayObject allocates an exotic Array whose DefineOwnProperty keeps
// the "length" property consistent (spec §4.2).
func NewArrayObject(proto *Object) *Object {
	o := &Object{
		Prototype:  proto,
		Extensible: true,
		Properties: NewPropertyMap(),
		Methods:    &arrayMethods,
		ExoticKind: ExoticArray,
		ArrayData:  &ArrayData{},
		ClassName:  "Array",
	}
	zero := Int32(0)
	o.Properties.Set(StringKey("length"), &PropertyDescriptor{
		Kind: DescData, Value: &zero, Writable: boolPtr(true),
		Enumerable: boolPtr(false), Configurable: boolPtr(false),
	})
	return o
}

// NewStringWrapperObject allocates an exotic boxed String with read-only
// indexed character properties (spec §4.2).
func NewStringWrapperObject(proto *Object, s *JsString) *Object {
	length := Int32(int32(s.Len()))
	o := &Object{
		Prototype:  proto,
		Extensible: true,
		Properties: NewPropertyMap(),
		Methods:    &stringWrapperMethods,
		ExoticKind: ExoticStringWrapper,
		StringData: &StringWrapperData{Primitive: s},
		ClassName:  "String",
	}
	o.Properties.Set(StringKey("length"), &PropertyDescriptor{
		Kind: DescData, Value: &length, Writable: boolPtr(false),
		Enumerable: boolPtr(false), Configurable: boolPtr(false),
	})
	return o
}

// NewProxyObject allocates a Proxy forwarding every internal method to
// handler traps (spec §4.2).
func NewProxyObject(target, handler *Object) *Object {
	return &Object{
		Extensible: true,
		Properties: NewPropertyMap(),
		Methods:    &proxyMethods,
		ExoticKind: ExoticProxy,
		ProxyData:  &ProxyData{Target: target, Handler: handler},
		ClassName:  "Proxy",
	}
}

// NewPromiseObject allocates a pending Promise. Promises use the
// ordinary internal method table: their exotic behavior is entirely in
// resolve/reject/then semantics, not in property access.
func NewPromiseObject(proto *Object) *Object {
	return &Object{
		Prototype:   proto,
		Extensible:  true,
		Properties:  NewPropertyMap(),
		Methods:     &ordinaryMethods,
		ExoticKind:  ExoticPromise,
		PromiseData: &PromiseData{State: PromisePending},
		ClassName:   "Promise",
	}
}

// NewFunctionObject wraps a NativeFunction (host-supplied or a closure
// produced by the VM for a compiled CodeBlock) as a callable Object.
func NewFunctionObject(proto *Object, name string, length int, call, construct NativeFunction) *Object {
	return &Object{
		Prototype:  proto,
		Extensible: true,
		Properties: NewPropertyMap(),
		Methods:    &ordinaryMethods,
		Call:       call,
		Construct:  construct,
		FuncName:   name,
		FuncLength: length,
		ClassName:  "Function",
	}
}

func (o *Object) Inspect() string {
	switch o.ExoticKind {
	case ExoticArray:
		return fmt.Sprintf("Array(%d)", o.Properties.Len())
	case ExoticProxy:
		return "Proxy"
	default:
		if o.Call != nil {
			return fmt.Sprintf("[Function: %s]", o.FuncName)
		}
		return fmt.Sprintf("[object %s]", o.ClassName)
	}
}

// GetOwnMethod is a convenience used by ToPrimitive: fetch an own or
// inherited data property and check it's callable.
func (o *Object) GetOwnMethod(name string) (*Object, bool) {
	v, err := o.Methods.Get(o, StringKey(name), ObjectValue(o))
	if err != nil || v.typ != TypeObject || v.obj.Call == nil {
		return nil, false
	}
	return v.obj, true
}

// --- Ordinary internal methods (ECMA-262 10.1) ---

var ordinaryMethods = InternalMethods{
	GetPrototypeOf:    ordinaryGetPrototypeOf,
	SetPrototypeOf:    ordinarySetPrototypeOf,
	IsExtensible:      ordinaryIsExtensible,
	PreventExtensions: ordinaryPreventExtensions,
	GetOwnProperty:    ordinaryGetOwnProperty,
	DefineOwnProperty: ordinaryDefineOwnProperty,
	HasProperty:       ordinaryHasProperty,
	Get:               ordinaryGet,
	Set:               ordinarySet,
	Delete:            ordinaryDelete,
	OwnPropertyKeys:   ordinaryOwnPropertyKeys,
}

func ordinaryGetPrototypeOf(o *Object) *Object { return o.Prototype }

func ordinarySetPrototypeOf(o *Object, proto *Object) bool {
	if o.Prototype == proto {
		return true
	}
	if !o.Extensible {
		return false
	}
	// Reject cycles by walking the candidate prototype's chain.
	for p := proto; p != nil; p = p.Methods.GetPrototypeOf(p) {
		if p == o {
			return false
		}
	}
	o.Prototype = proto
	return true
}

func ordinaryIsExtensible(o *Object) bool { return o.Extensible }

func ordinaryPreventExtensions(o *Object) bool {
	o.Extensible = false
	return true
}

func ordinaryGetOwnProperty(o *Object, key PropertyKey) (*PropertyDescriptor, bool) {
	return o.Properties.Get(key)
}

func ordinaryDefineOwnProperty(o *Object, key PropertyKey, desc PropertyDescriptor) (bool, *errors.Error) {
	ok := ValidateAndApplyPropertyDescriptor(o.Properties, key, o.Extensible, desc)
	return ok, nil
}

func ordinaryHasProperty(o *Object, key PropertyKey) bool {
	for cur := o; cur != nil; cur = cur.Methods.GetPrototypeOf(cur) {
		if _, ok := cur.Methods.GetOwnProperty(cur, key); ok {
			return true
		}
	}
	return false
}

func ordinaryGet(o *Object, key PropertyKey, receiver Value) (Value, *errors.Error) {
	desc, ok := o.Methods.GetOwnProperty(o, key)
	if !ok {
		proto := o.Methods.GetPrototypeOf(o)
		if proto == nil {
			return Undefined, nil
		}
		return proto.Methods.Get(proto, key, receiver)
	}
	if desc.Kind == DescAccessor {
		if desc.Get == nil || desc.Get.typ != TypeObject || desc.Get.obj.Call == nil {
			return Undefined, nil
		}
		return desc.Get.obj.Call(receiver, nil)
	}
	if desc.Value == nil {
		return Undefined, nil
	}
	return *desc.Value, nil
}

func ordinarySet(o *Object, key PropertyKey, value Value, receiver Value) (bool, *errors.Error) {
	desc, ok := o.Methods.GetOwnProperty(o, key)
	if !ok {
		proto := o.Methods.GetPrototypeOf(o)
		if proto != nil {
			return proto.Methods.Set(proto, key, value, receiver)
		}
		desc = nil
	}
	if desc != nil && desc.Kind == DescAccessor {
		if desc.Set == nil || desc.Set.typ != TypeObject || desc.Set.obj.Call == nil {
			return false, nil
		}
		_, err := desc.Set.obj.Call(receiver, []Value{value})
		return err == nil, err
	}
	if receiver.typ != TypeObject {
		return false, nil
	}
	target := receiver.obj
	existing, existsOnReceiver := target.Methods.GetOwnProperty(target, key)
	if existsOnReceiver {
		if existing.Kind == DescAccessor {
			return false, nil
		}
		if !existing.isWritable() {
			return false, nil
		}
		newDesc := PropertyDescriptor{Kind: DescData, Value: &value}
		return target.Methods.DefineOwnProperty(target, key, newDesc)
	}
	return target.Methods.DefineOwnProperty(target, key, DataDescriptor(value, true, true, true))
}

func ordinaryDelete(o *Object, key PropertyKey) bool {
	desc, ok := o.Properties.Get(key)
	if !ok {
		return true
	}
	if !desc.isConfigurable() {
		return false
	}
	o.Properties.Delete(key)
	return true
}

func ordinaryOwnPropertyKeys(o *Object) []PropertyKey {
	return o.Properties.Keys()
}
