package env

import (
	"github.com/google/uuid"
	"github.com/wudi/vela/values"
)

// Intrinsics is the fixed set of well-known objects a realm owns: one
// constructor/prototype object per builtin (spec §3.6, glossary
// "Intrinsics"). The core only allocates the slots the VM/compiler need
// to reference directly; the concrete builtin library (external
// collaborator, spec §1) populates the rest through RegisterGlobalClass.
type Intrinsics struct {
	ObjectPrototype   *values.Object
	FunctionPrototype *values.Object
	ArrayPrototype    *values.Object
	StringPrototype   *values.Object
	ErrorPrototype    *values.Object
	ErrorConstructors map[string]*values.Object // TypeError, RangeError, ...
	PromisePrototype  *values.Object
}

// Realm is a container for a global object, a global environment, and one
// copy of the intrinsics (spec §3.6, glossary "Realm").
type Realm struct {
	ID         string
	GlobalObj  *values.Object
	GlobalEnv  *Environment // object-record wrapping GlobalObj
	LexicalEnv *Environment // declarative record chained under GlobalEnv, for `let`/`const`/`class` at top level
	Intrinsics *Intrinsics
}

// NewRealm constructs a realm's global object, environment chain, and
// intrinsics table. Intrinsics are built once, before any user code runs
// (spec §4.3 "Intrinsics are constructed once at realm creation").
func NewRealm() *Realm {
	intrinsics := &Intrinsics{
		ErrorConstructors: map[string]*values.Object{},
	}
	intrinsics.ObjectPrototype = &values.Object{Extensible: true, Properties: values.NewPropertyMap(), ClassName: "Object"}
	intrinsics.ObjectPrototype.Methods = ordinaryMethodsRef()
	intrinsics.FunctionPrototype = values.NewOrdinaryObject(intrinsics.ObjectPrototype)
	intrinsics.FunctionPrototype.ClassName = "Function"
	intrinsics.ArrayPrototype = values.NewOrdinaryObject(intrinsics.ObjectPrototype)
	intrinsics.ArrayPrototype.ClassName = "Array"
	intrinsics.StringPrototype = values.NewOrdinaryObject(intrinsics.ObjectPrototype)
	intrinsics.StringPrototype.ClassName = "String"
	intrinsics.ErrorPrototype = values.NewOrdinaryObject(intrinsics.ObjectPrototype)
	intrinsics.ErrorPrototype.ClassName = "Error"
	intrinsics.PromisePrototype = values.NewOrdinaryObject(intrinsics.ObjectPrototype)
	intrinsics.PromisePrototype.ClassName = "Promise"

	globalObj := values.NewOrdinaryObject(intrinsics.ObjectPrototype)
	globalEnv := NewObject(nil, globalObj, KindGlobal)
	globalEnv.hasThis = true
	globalEnv.BindThis(values.ObjectValue(globalObj))
	lexicalEnv := NewDeclarative(globalEnv)

	return &Realm{
		ID:         uuid.NewString(),
		GlobalObj:  globalObj,
		GlobalEnv:  globalEnv,
		LexicalEnv: lexicalEnv,
		Intrinsics: intrinsics,
	}
}

// ordinaryMethodsRef avoids values package needing to export its private
// ordinaryMethods var directly to env; NewOrdinaryObject already installs
// it, so we just borrow a throwaway object's table once here.
func ordinaryMethodsRef() *values.InternalMethods {
	return values.NewOrdinaryObject(nil).Methods
}

// RegisterGlobalProperty installs a data property directly on the global
// object (spec §6 "register_global_property").
func (r *Realm) RegisterGlobalProperty(name string, v values.Value, writable, enumerable, configurable bool) {
	r.GlobalObj.Properties.Set(values.StringKey(name), &values.PropertyDescriptor{
		Kind: values.DescData, Value: &v,
		Writable: &writable, Enumerable: &enumerable, Configurable: &configurable,
	})
}

// RegisterGlobalCallable installs a native function as a global binding
// (spec §6 "register_global_callable").
func (r *Realm) RegisterGlobalCallable(name string, length int, fn values.NativeFunction) {
	obj := values.NewFunctionObject(r.Intrinsics.FunctionPrototype, name, length, fn, nil)
	r.RegisterGlobalProperty(name, values.ObjectValue(obj), true, false, true)
}
