package registry

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/wudi/vela/env"
	"github.com/wudi/vela/errors"
	"github.com/wudi/vela/values"
)

func noopFn(this values.Value, args []values.Value) (values.Value, *errors.Error) {
	return values.Undefined, nil
}

func TestRegisterCallableAndProperty(t *testing.T) {
	realm := env.NewRealm()
	reg := New(realm)

	reg.RegisterProperty("VERSION", values.StringFromGo("1.0"), false, true, false)
	reg.RegisterCallable("log", 1, noopFn)

	assert.Contains(t, reg.Names(), "VERSION")
	assert.Contains(t, reg.Names(), "log")

	kind, ok := reg.KindOf("log")
	require.True(t, ok)
	assert.Equal(t, KindCallable, kind)
}

func TestClassBuilderBuildsConstructorWithPrototypeLink(t *testing.T) {
	realm := env.NewRealm()

	point := NewClass(realm, "Point", 2, noopFn).
		Method("toString", 0, func(this values.Value, args []values.Value) (values.Value, *errors.Error) {
			return values.StringFromGo("[Point]"), nil
		}).
		Build()

	require.NotNil(t, point)
	assert.Equal(t, "Point", point.FuncName)

	protoDesc, ok := point.Properties.Get(values.StringKey("prototype"))
	require.True(t, ok)
	proto := protoDesc.Value.AsObject()

	ctorDesc, ok := proto.Properties.Get(values.StringKey("constructor"))
	require.True(t, ok)
	assert.Same(t, point, ctorDesc.Value.AsObject())

	methodDesc, ok := proto.Properties.Get(values.StringKey("toString"))
	require.True(t, ok)
	assert.NotNil(t, methodDesc.Value.AsObject().Call)
}

func TestClassBuilderExtendsChainsPrototype(t *testing.T) {
	realm := env.NewRealm()
	base := NewClass(realm, "Base", 0, noopFn).Build()
	baseProtoDesc, _ := base.Properties.Get(values.StringKey("prototype"))
	baseProto := baseProtoDesc.Value.AsObject()

	derived := NewClass(realm, "Derived", 0, noopFn).Extends(baseProto).Build()
	derivedProtoDesc, _ := derived.Properties.Get(values.StringKey("prototype"))
	derivedProto := derivedProtoDesc.Value.AsObject()

	assert.Same(t, baseProto, derivedProto.Prototype)
}

func TestGetterSetterMergeOnSameAccessor(t *testing.T) {
	realm := env.NewRealm()
	var stored values.Value = values.Undefined

	ctor := NewClass(realm, "Box", 0, noopFn).
		Getter("value", func(this values.Value, args []values.Value) (values.Value, *errors.Error) {
			return stored, nil
		}).
		Setter("value", func(this values.Value, args []values.Value) (values.Value, *errors.Error) {
			if len(args) > 0 {
				stored = args[0]
			}
			return values.Undefined, nil
		}).
		Build()

	protoDesc, _ := ctor.Properties.Get(values.StringKey("prototype"))
	proto := protoDesc.Value.AsObject()
	accessor, ok := proto.Properties.Get(values.StringKey("value"))
	require.True(t, ok)
	require.Equal(t, values.DescAccessor, accessor.Kind)
	assert.NotNil(t, accessor.Get)
	assert.NotNil(t, accessor.Set)
}
