package engine

import (
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/wudi/vela/errors"
	"github.com/wudi/vela/values"
)

// Bootstrap installs the minimal `console` intrinsic (spec §4 supplement:
// builtins are out of core scope, but console.log is how every one of
// spec §8's end-to-end scenarios would actually be observed). It is a
// demonstration of the registration API, not a builtins implementation
// effort — just enough for a script run through Execute to print
// something a caller can see.
//
// out defaults to os.Stdout when nil.
func Bootstrap(c *Context, out io.Writer) {
	if out == nil {
		out = os.Stdout
	}
	console := newConsoleObject(c, out)
	c.RegisterGlobalProperty("console", values.ObjectValue(console), true, false, true)
	c.RegisterGlobalClass("Proxy", newProxyConstructor(c))
}

// newProxyConstructor builds the `Proxy` global: `new Proxy(target, handler)`
// is the only way a script can reach values.NewProxyObject, so this is
// the whole of its surface (no Proxy.revocable, matching spec §4.2's
// scope).
func newProxyConstructor(c *Context) *values.Object {
	construct := func(_ values.Value, args []values.Value) (values.Value, *errors.Error) {
		target := argAt(args, 0)
		handler := argAt(args, 1)
		if !target.IsObject() || !handler.IsObject() {
			return values.Undefined, errors.New(errors.TypeError, errors.Span{}, "Proxy target and handler must both be objects")
		}
		return values.ObjectValue(values.NewProxyObject(target.AsObject(), handler.AsObject())), nil
	}
	call := func(_ values.Value, _ []values.Value) (values.Value, *errors.Error) {
		return values.Undefined, errors.New(errors.TypeError, errors.Span{}, "Constructor Proxy requires 'new'")
	}
	return values.NewFunctionObject(c.Realm.Intrinsics.FunctionPrototype, "Proxy", 2, call, construct)
}

func argAt(args []values.Value, i int) values.Value {
	if i < len(args) {
		return args[i]
	}
	return values.Undefined
}

func newConsoleObject(c *Context, out io.Writer) *values.Object {
	obj := values.NewOrdinaryObject(c.Realm.Intrinsics.ObjectPrototype)
	logFn := values.NewFunctionObject(c.Realm.Intrinsics.FunctionPrototype, "log", 0,
		func(this values.Value, args []values.Value) (values.Value, *errors.Error) {
			fmt.Fprintln(out, formatConsoleArgs(args))
			return values.Undefined, nil
		}, nil)
	errFn := values.NewFunctionObject(c.Realm.Intrinsics.FunctionPrototype, "error", 0,
		func(this values.Value, args []values.Value) (values.Value, *errors.Error) {
			fmt.Fprintln(os.Stderr, formatConsoleArgs(args))
			return values.Undefined, nil
		}, nil)
	obj.Properties.Set(values.StringKey("log"), dataDesc(values.ObjectValue(logFn)))
	obj.Properties.Set(values.StringKey("error"), dataDesc(values.ObjectValue(errFn)))
	return obj
}

func formatConsoleArgs(args []values.Value) string {
	parts := make([]string, len(args))
	for i, a := range args {
		parts[i] = a.Inspect()
	}
	return strings.Join(parts, " ")
}

func dataDesc(v values.Value) *values.PropertyDescriptor {
	d := values.DataDescriptor(v, true, false, true)
	return &d
}
