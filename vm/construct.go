package vm

import (
	"github.com/wudi/vela/errors"
	"github.com/wudi/vela/values"
)

// classFieldEntry is one `name = initializer` class field. Initializers
// are evaluated once, at class-definition time, rather than per
// instance with `this` bound to the new object, which covers constant
// and closed-over field initializers but not ones that reference
// `this`/`super`.
type classFieldEntry struct {
	name  string
	value values.Value
}

func popArgs(frame *CallFrame, argc int) []values.Value {
	args := make([]values.Value, argc)
	for i := argc - 1; i >= 0; i-- {
		args[i] = frame.pop()
	}
	return args
}

func (vm *Vm) opNewArrayFromElements(frame *CallFrame, count int) {
	arr := values.NewArrayObject(vm.Realm.Intrinsics.ArrayPrototype)
	elems := make([]values.Value, count)
	for i := count - 1; i >= 0; i-- {
		elems[i] = frame.pop()
	}
	for i, v := range elems {
		v := v
		arr.Properties.Set(values.IndexKey(uint32(i)), &values.PropertyDescriptor{
			Kind: values.DescData, Value: &v, Writable: boolPtrVM(true), Enumerable: boolPtrVM(true), Configurable: boolPtrVM(true),
		})
	}
	setArrayLength(arr, uint32(count))
	frame.push(values.ObjectValue(arr))
}

func setArrayLength(arr *values.Object, n uint32) {
	length := values.Int32(int32(n))
	arr.Properties.Set(values.StringKey("length"), &values.PropertyDescriptor{
		Kind: values.DescData, Value: &length, Writable: boolPtrVM(true), Enumerable: boolPtrVM(false), Configurable: boolPtrVM(false),
	})
}

func arrayLength(arr *values.Object) uint32 {
	d, ok := arr.Properties.Get(values.StringKey("length"))
	if !ok || d.Value == nil {
		return 0
	}
	return uint32(d.Value.ToNumber())
}

// opSpreadInto implements SpreadInto for an array literal under
// construction: the array sits one slot below the just-pushed iterable
// on the stack, so it's unpacked element by element and appended (spec
// §4.1 "SpreadInto spreads top-of-stack iterable into the array/args
// being built"). Spread in call-argument position is not supported: the
// fixed-arity Call/CallMethod/New opcodes have no variant that accepts a
// runtime-determined argument count (documented limitation, DESIGN.md).
func (vm *Vm) opSpreadInto(frame *CallFrame, span errors.Span) *errors.Error {
	iterable := frame.pop()
	arr := frame.peek().AsObject()
	iter, err := vm.getIterator(iterable, span)
	if err != nil {
		return err
	}
	idx := arrayLength(arr)
	for {
		v, done, err := vm.iteratorNext(iter, span)
		if err != nil {
			return err
		}
		if done {
			break
		}
		v := v
		arr.Properties.Set(values.IndexKey(idx), &values.PropertyDescriptor{
			Kind: values.DescData, Value: &v, Writable: boolPtrVM(true), Enumerable: boolPtrVM(true), Configurable: boolPtrVM(true),
		})
		idx++
	}
	setArrayLength(arr, idx)
	return nil
}

func (vm *Vm) opDefineDataProperty(frame *CallFrame, name string) {
	value := frame.pop()
	obj := frame.peek().AsObject()
	obj.Properties.Set(values.StringKey(name), &values.PropertyDescriptor{
		Kind: values.DescData, Value: &value, Writable: boolPtrVM(true), Enumerable: boolPtrVM(true), Configurable: boolPtrVM(true),
	})
}

func (vm *Vm) opDefineComputedProperty(frame *CallFrame) {
	value := frame.pop()
	key := frame.pop()
	obj := frame.peek().AsObject()
	obj.Properties.Set(values.ToPropertyKey(key), &values.PropertyDescriptor{
		Kind: values.DescData, Value: &value, Writable: boolPtrVM(true), Enumerable: boolPtrVM(true), Configurable: boolPtrVM(true),
	})
}

func (vm *Vm) opDefineMethod(frame *CallFrame, name string) {
	fn := frame.pop()
	obj := frame.peek().AsObject()
	if fn.IsObject() {
		fn.AsObject().FuncName = name
	}
	obj.Properties.Set(values.StringKey(name), &values.PropertyDescriptor{
		Kind: values.DescData, Value: &fn, Writable: boolPtrVM(true), Enumerable: boolPtrVM(true), Configurable: boolPtrVM(true),
	})
}

func (vm *Vm) opDefineAccessor(frame *CallFrame, name string, isGetter bool) {
	fn := frame.pop()
	obj := frame.peek().AsObject()
	key := values.StringKey(name)
	existing, _ := obj.Properties.Get(key)
	desc := values.PropertyDescriptor{Kind: values.DescAccessor, Enumerable: boolPtrVM(true), Configurable: boolPtrVM(true)}
	if existing != nil && existing.Kind == values.DescAccessor {
		desc.Get, desc.Set = existing.Get, existing.Set
	}
	if isGetter {
		desc.Get = &fn
	} else {
		desc.Set = &fn
	}
	obj.Properties.Set(key, &desc)
}

func (vm *Vm) opNewTemplate(frame *CallFrame, partCount int, span errors.Span) *errors.Error {
	parts := make([]values.Value, partCount)
	for i := partCount - 1; i >= 0; i-- {
		parts[i] = frame.pop()
	}
	var result string
	for _, p := range parts {
		s, err := vm.toDisplayString(p, span)
		if err != nil {
			return err
		}
		result += s
	}
	frame.push(values.StringFromGo(result))
	return nil
}

func (vm *Vm) toDisplayString(v values.Value, span errors.Span) (string, *errors.Error) {
	p, ok := values.ToPrimitive(v, values.HintString)
	if !ok {
		p = v
	}
	if p.IsSymbol() {
		return "", vm.raiseTypeError(span, "cannot convert a Symbol value to a string")
	}
	return p.ToStringValue(), nil
}

func (vm *Vm) opNewRegExp(pattern, flags string) values.Value {
	obj := values.NewOrdinaryObject(vm.Realm.Intrinsics.ObjectPrototype)
	obj.ClassName = "RegExp"
	sourceVal := values.StringFromGo(pattern)
	flagsVal := values.StringFromGo(flags)
	obj.Properties.Set(values.StringKey("source"), &values.PropertyDescriptor{Kind: values.DescData, Value: &sourceVal, Enumerable: boolPtrVM(false)})
	obj.Properties.Set(values.StringKey("flags"), &values.PropertyDescriptor{Kind: values.DescData, Value: &flagsVal, Enumerable: boolPtrVM(false)})
	return values.ObjectValue(obj)
}

// opNewClass implements NewClass; DefineClassMethod and DefineClassField
// have their own handlers below. Only instance methods and
// this/super-independent field initializers are supported; static
// members are not.
func (vm *Vm) opNewClass(frame *CallFrame, name string, hasSuper bool) *errors.Error {
	var superCtor *values.Object
	protoParent := vm.Realm.Intrinsics.ObjectPrototype
	if hasSuper {
		superVal := frame.pop()
		if !superVal.IsObject() || superVal.AsObject().Construct == nil {
			return vm.raiseTypeError(frame.Block.spanAt(frame.PC), "class extends value is not a constructor")
		}
		superCtor = superVal.AsObject()
		if protoVal, err := superCtor.Methods.Get(superCtor, values.StringKey("prototype"), values.ObjectValue(superCtor)); err == nil && protoVal.IsObject() {
			protoParent = protoVal.AsObject()
		}
	}

	classProto := values.NewOrdinaryObject(protoParent)
	ctorObj := values.NewFunctionObject(vm.Realm.Intrinsics.FunctionPrototype, name, 0, nil, nil)
	if hasSuper {
		ctorObj.Prototype = superCtor
		if vm.classSuper == nil {
			vm.classSuper = map[*values.Object]*values.Object{}
		}
		vm.classSuper[ctorObj] = superCtor
	}
	protoVal := values.ObjectValue(classProto)
	ctorObj.Properties.Set(values.StringKey("prototype"), &values.PropertyDescriptor{
		Kind: values.DescData, Value: &protoVal, Writable: boolPtrVM(false), Enumerable: boolPtrVM(false), Configurable: boolPtrVM(false),
	})
	ctorVal := values.ObjectValue(ctorObj)
	classProto.Properties.Set(values.StringKey("constructor"), &values.PropertyDescriptor{
		Kind: values.DescData, Value: &ctorVal, Writable: boolPtrVM(true), Enumerable: boolPtrVM(false), Configurable: boolPtrVM(true),
	})

	// Default constructor body, overwritten by a later DefineClassMethod
	// "constructor" if the class declares one explicitly. Field
	// initializers are looked up at call time, since DefineClassField
	// opcodes for this class run after NewClass while the constructor
	// closure is being set up.
	ctorObj.Construct = func(this values.Value, args []values.Value) (values.Value, *errors.Error) {
		for _, f := range vm.classFields[ctorObj] {
			setDataProp(this.AsObject(), f.name, f.value)
		}
		if hasSuper {
			return superCtor.Construct(this, args)
		}
		return this, nil
	}
	ctorObj.Call = func(this values.Value, args []values.Value) (values.Value, *errors.Error) {
		return values.Undefined, vm.raiseTypeError(frame.Block.spanAt(frame.PC), "class constructor %s cannot be invoked without 'new'", name)
	}

	frame.push(values.ObjectValue(ctorObj))
	return nil
}

func (vm *Vm) opDefineClassMethod(frame *CallFrame, name string) {
	fn := frame.pop()
	ctorObj := frame.peek().AsObject()
	protoValForHome, _ := ctorObj.Properties.Get(values.StringKey("prototype"))
	if fn.IsObject() && protoValForHome != nil && protoValForHome.Value != nil {
		if vm.homeObjects == nil {
			vm.homeObjects = map[*values.Object]*values.Object{}
		}
		vm.homeObjects[fn.AsObject()] = protoValForHome.Value.AsObject()
		if superCtor, ok := vm.classSuper[ctorObj]; ok {
			if vm.superCtors == nil {
				vm.superCtors = map[*values.Object]*values.Object{}
			}
			vm.superCtors[fn.AsObject()] = superCtor
		}
	}
	if name == "constructor" && fn.IsObject() {
		fnObj := fn.AsObject()
		innerConstruct := fnObj.Construct
		ctorObj.Construct = func(this values.Value, args []values.Value) (values.Value, *errors.Error) {
			for _, f := range vm.classFields[ctorObj] {
				setDataProp(this.AsObject(), f.name, f.value)
			}
			if innerConstruct != nil {
				return innerConstruct(this, args)
			}
			return fnObj.Call(this, args)
		}
		ctorObj.Call = func(this values.Value, args []values.Value) (values.Value, *errors.Error) {
			return values.Undefined, vm.raiseTypeError(errors.Span{}, "class constructor %s cannot be invoked without 'new'", ctorObj.FuncName)
		}
		return
	}
	protoVal, _ := ctorObj.Properties.Get(values.StringKey("prototype"))
	classProto := protoVal.Value.AsObject()
	if fn.IsObject() {
		fn.AsObject().FuncName = name
	}
	classProto.Properties.Set(values.StringKey(name), &values.PropertyDescriptor{
		Kind: values.DescData, Value: &fn, Writable: boolPtrVM(true), Enumerable: boolPtrVM(false), Configurable: boolPtrVM(true),
	})
}

func (vm *Vm) opDefineClassField(frame *CallFrame, name string) {
	value := frame.pop()
	ctorObj := frame.peek().AsObject()
	if vm.classFields == nil {
		vm.classFields = map[*values.Object][]classFieldEntry{}
	}
	vm.classFields[ctorObj] = append(vm.classFields[ctorObj], classFieldEntry{name: name, value: value})
}
