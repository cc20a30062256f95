package engine

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/wudi/vela/config"
	"github.com/wudi/vela/errors"
	"github.com/wudi/vela/parser"
	"github.com/wudi/vela/values"
)

func newTestContext(t *testing.T) *Context {
	t.Helper()
	return New(config.Default(), ParserFunc(parser.Parse))
}

func TestExecuteReturnsCompletionValue(t *testing.T) {
	c := newTestContext(t)
	v, err := c.Execute([]byte(`1 + 2;`))
	require.Nil(t, err)
	assert.Equal(t, float64(3), v.ToNumber())
}

func TestExecuteFunctionCallAndClosure(t *testing.T) {
	c := newTestContext(t)
	v, err := c.Execute([]byte(`
		function makeAdder(a) {
			return function(b) { return a + b; };
		}
		let add5 = makeAdder(5);
		add5(10);
	`))
	require.Nil(t, err)
	assert.Equal(t, float64(15), v.ToNumber())
}

func TestExecutePropagatesSyntaxError(t *testing.T) {
	c := newTestContext(t)
	_, err := c.Execute([]byte(`function f(...rest) {}`))
	require.NotNil(t, err)
	assert.Equal(t, "SyntaxError", err.Kind.String())
}

func TestExecuteUncaughtThrowBecomesError(t *testing.T) {
	c := newTestContext(t)
	_, err := c.Execute([]byte(`throw "boom";`))
	require.NotNil(t, err)
}

func TestBootstrapConsoleLogWritesToWriter(t *testing.T) {
	c := newTestContext(t)
	var buf bytes.Buffer
	Bootstrap(c, &buf)

	_, err := c.Execute([]byte(`console.log("hello", 42);`))
	require.Nil(t, err)
	assert.Contains(t, buf.String(), "hello")
	assert.Contains(t, buf.String(), "42")
}

func TestRegisterGlobalCallableIsVisibleToScript(t *testing.T) {
	c := newTestContext(t)
	var seen float64
	c.RegisterGlobalCallable("record", 1, func(this values.Value, args []values.Value) (values.Value, *errors.Error) {
		if len(args) > 0 {
			seen = args[0].ToNumber()
		}
		return values.Undefined, nil
	})

	_, err := c.Execute([]byte(`record(99);`))
	require.Nil(t, err)
	assert.Equal(t, float64(99), seen)
}

func TestGlobalsListsRegisteredNames(t *testing.T) {
	c := newTestContext(t)
	Bootstrap(c, &bytes.Buffer{})
	names := c.Globals()
	assert.Contains(t, names, "console")
}

func TestExecuteRecursiveFibonacci(t *testing.T) {
	c := newTestContext(t)
	v, err := c.Execute([]byte(`
		function fib(n) {
			if (n < 2) return n;
			return fib(n - 1) + fib(n - 2);
		}
		fib(10);
	`))
	require.Nil(t, err)
	assert.Equal(t, float64(55), v.ToNumber())
}

func TestExecutePerIterationLetClosuresCaptureDistinctValues(t *testing.T) {
	c := newTestContext(t)
	v, err := c.Execute([]byte(`
		let a = [];
		for (let i = 0; i < 3; i++) {
			a.push(() => i);
		}
		a.map(f => f()).join(",");
	`))
	require.Nil(t, err)
	assert.Equal(t, "0,1,2", v.ToStringValue())
}

func TestExecuteNestedTryFinallyCompletionIsNotResurfaced(t *testing.T) {
	c := newTestContext(t)
	v, err := c.Execute([]byte(`
		function f() {
			try {
				try { throw 1; } finally { throw 2; }
			} catch (e) {}
			try { 1; } finally { 2; }
			return 3;
		}
		f();
	`))
	require.Nil(t, err)
	assert.Equal(t, float64(3), v.ToNumber())
}

func TestExecuteGeneratorNextProtocol(t *testing.T) {
	c := newTestContext(t)
	v, err := c.Execute([]byte(`
		function* counter() {
			yield 1;
			yield 2;
			return 3;
		}
		let g = counter();
		let first = g.next();
		let second = g.next();
		let third = g.next();
		let fourth = g.next();
		[first.value, first.done, second.value, third.value, third.done, fourth.done].join(",");
	`))
	require.Nil(t, err)
	assert.Equal(t, "1,false,2,3,true,true", v.ToStringValue())
}

func TestExecuteAsyncAwaitResolvesInOrder(t *testing.T) {
	c := newTestContext(t)
	Bootstrap(c, &bytes.Buffer{})
	var recorded string
	c.RegisterGlobalCallable("record", 1, func(_ values.Value, args []values.Value) (values.Value, *errors.Error) {
		if len(args) > 0 {
			recorded = args[0].ToStringValue()
		}
		return values.Undefined, nil
	})

	_, err := c.Execute([]byte(`
		async function run() {
			let a = await 1;
			let b = await (a + 1);
			record(a + "," + b);
		}
		run();
	`))
	require.Nil(t, err)
	assert.Equal(t, "1,2", recorded)
}

func TestExecuteProxyGetTrapIsInvoked(t *testing.T) {
	c := newTestContext(t)
	Bootstrap(c, &bytes.Buffer{})
	v, err := c.Execute([]byte(`
		let target = { value: 1 };
		let handler = {
			get: function(obj, prop) {
				if (prop === "value") return obj.value * 100;
				return obj[prop];
			}
		};
		let p = new Proxy(target, handler);
		p.value;
	`))
	require.Nil(t, err)
	assert.Equal(t, float64(100), v.ToNumber())
}

func TestExecuteAsyncDrainsBudgetedMicrotasks(t *testing.T) {
	c := newTestContext(t)
	var buf bytes.Buffer
	Bootstrap(c, &buf)

	_, pending, err := c.ExecuteAsync([]byte(`
		async function run() {
			console.log("ran");
		}
		run();
	`))
	require.Nil(t, err)
	assert.False(t, pending)
}
