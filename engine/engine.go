// Package engine is the host embedding API: it ties a Realm, a Vm, and
// the Compiler together behind Compile/Execute/ExecuteAsync, the way a
// caller of the teacher's NewExecutionContext/NewVirtualMachine pair
// would assemble one request's worth of PHP runtime state. The parser
// is an external collaborator (spec §1); Context takes one through the
// Parser seam rather than importing the bundled stand-in directly, so a
// host can swap in a complete grammar without touching this package.
package engine

import (
	"fmt"

	"github.com/wudi/vela/ast"
	"github.com/wudi/vela/compiler"
	"github.com/wudi/vela/config"
	"github.com/wudi/vela/env"
	"github.com/wudi/vela/errors"
	"github.com/wudi/vela/registry"
	"github.com/wudi/vela/values"
	"github.com/wudi/vela/vm"
)

// Parser is the grammar seam spec §1/§6 places out of core scope: Context
// never constructs an AST itself, it only asks whatever Parser it was
// given to turn source bytes into one.
type Parser interface {
	Parse(src []byte) (*ast.Program, *errors.Error)
}

// Context is one embeddable script engine instance: a realm, a virtual
// machine bound to it, a compiler, a registry tracking what's been
// exposed to script code, and the parser collaborator that feeds it
// (spec §6 "Context::new(realm_config)").
type Context struct {
	Realm    *env.Realm
	Vm       *vm.Vm
	Registry *registry.Registry
	Config   config.RealmConfig

	parser Parser
}

// New constructs a Context from cfg, wired to realm-fresh intrinsics and
// an empty global object. parser is the grammar collaborator; pass
// the parser package's Parse function (wrapped in ParserFunc) to
// use the bundled recursive-descent stand-in, or a host's own grammar.
func New(cfg config.RealmConfig, p Parser) *Context {
	realm := env.NewRealm()
	return &Context{
		Realm:    realm,
		Vm:       vm.New(realm, cfg.Limits()),
		Registry: registry.New(realm),
		Config:   cfg,
		parser:   p,
	}
}

// ParserFunc adapts a plain function to the Parser interface, mirroring
// the standard library's http.HandlerFunc idiom.
type ParserFunc func([]byte) (*ast.Program, *errors.Error)

func (f ParserFunc) Parse(src []byte) (*ast.Program, *errors.Error) { return f(src) }

// Compile parses src and lowers it to a runnable CodeBlock, without
// executing it (spec §6 "Compile"). Parse errors and compile errors both
// come back as *errors.Error; a host that wants to distinguish a grammar
// failure from a static-semantics failure can switch on err.Kind (parse
// errors are always SyntaxError).
func (c *Context) Compile(src []byte) (*vm.CodeBlock, *errors.Error) {
	prog, perr := c.parser.Parse(src)
	if perr != nil {
		return nil, perr
	}
	block, err := compiler.New().CompileProgram(prog)
	if err != nil {
		if ce, ok := err.(*errors.Error); ok {
			return nil, ce
		}
		return nil, errors.New(errors.SyntaxError, errors.Span{}, "%s", err.Error())
	}
	return block, nil
}

// Execute compiles and runs src as a script top level, returning its
// completion value (spec §6 "Execute"). It runs to completion
// synchronously; microtasks queued by any Promise work script triggers
// are drained once the top-level body returns, matching a plain
// `<script>` evaluation's job-queue checkpoint (spec §5).
func (c *Context) Execute(src []byte) (values.Value, *errors.Error) {
	block, err := c.Compile(src)
	if err != nil {
		return values.Undefined, err
	}
	return c.Run(block)
}

// Run executes an already-compiled CodeBlock as a script top level and
// drains the job queue afterward.
func (c *Context) Run(block *vm.CodeBlock) (values.Value, *errors.Error) {
	this := values.ObjectValue(c.Realm.GlobalObj)
	v, err := c.Vm.Run(block, nil, this, values.Undefined, nil, c.Realm.LexicalEnv, nil)
	if err != nil {
		return v, err
	}
	c.Vm.Jobs().DrainAll()
	return v, nil
}

// ExecuteAsync runs src the same way Execute does, but treats the job
// queue as a cooperative scheduling budget (spec §5 "the job queue is
// drained at checkpoints") instead of draining it unconditionally: at
// most cfg.MicrotaskBudget jobs run before ExecuteAsync returns control
// to the caller, reporting whether work is still pending so a host
// event loop can decide when to call it again.
func (c *Context) ExecuteAsync(src []byte) (result values.Value, pending bool, err *errors.Error) {
	block, cerr := c.Compile(src)
	if cerr != nil {
		return values.Undefined, false, cerr
	}
	this := values.ObjectValue(c.Realm.GlobalObj)
	v, rerr := c.Vm.Run(block, nil, this, values.Undefined, nil, c.Realm.LexicalEnv, nil)
	if rerr != nil {
		return v, false, rerr
	}
	budget := c.Config.MicrotaskBudget
	if budget <= 0 {
		budget = 1
	}
	jobs := c.Vm.Jobs()
	for i := 0; i < budget && jobs.Pending(); i++ {
		jobs.DrainOne()
	}
	return v, jobs.Pending(), nil
}

// RegisterGlobalProperty installs a data property on the global object
// (spec §6 "register_global_property").
func (c *Context) RegisterGlobalProperty(name string, v values.Value, writable, enumerable, configurable bool) {
	c.Registry.RegisterProperty(name, v, writable, enumerable, configurable)
}

// RegisterGlobalCallable installs a native function as a global binding
// (spec §6 "register_global_callable").
func (c *Context) RegisterGlobalCallable(name string, length int, fn values.NativeFunction) {
	c.Registry.RegisterCallable(name, length, fn)
}

// RegisterGlobalClass installs a constructor built by a
// registry.ClassBuilder as a global binding (spec §6
// "register_global_class").
func (c *Context) RegisterGlobalClass(name string, ctor *values.Object) {
	c.Registry.RegisterClass(name, ctor)
}

// Globals lists every name registered on this Context so far, naturally
// sorted (spec §1.4's REPL `.globals` command is the direct consumer,
// but anything introspecting a host embedding can use this too).
func (c *Context) Globals() []string { return c.Registry.Names() }

// FormatError renders err the way a host's top-level error handler
// would: "Kind: message (at line:col)", matching errors.Error.Error but
// exposed here so callers that only hold an engine.Context don't need to
// import errors just to stringify a failure.
func (c *Context) FormatError(err *errors.Error) string {
	return fmt.Sprintf("%s", err.Error())
}
