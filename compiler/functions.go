package compiler

import (
	"fmt"

	"github.com/wudi/vela/ast"
	"github.com/wudi/vela/errors"
	"github.com/wudi/vela/opcodes"
	"github.com/wudi/vela/vm"
)

// compileHoistedFunctionDecl compiles one function declaration's literal
// at its hoisted position (ECMA-262 "InstantiateFunctionObject", run
// before the block's other statements so later code can call it before
// its textual position). The binding itself was not pre-declared by
// hoistBlock's var pass, so it's declared here.
func (c *Compiler) compileHoistedFunctionDecl(fd *ast.FunctionDeclaration) {
	c.emitOperands(opcodes.DeclareVar, c.internName(fd.Name), 1)
	c.compileFunctionLiteral(fd.Name, fd.Params, fd.Body, fd.Generator, fd.Async, false, fd.Span())
	c.emitOperands(opcodes.InitBinding, c.internName(fd.Name))
}

// compileFunctionLiteral compiles a function/method body into its own
// CodeBlock and leaves the instantiated closure (via NewFunction) on top
// of the stack. Rest parameters have no dedicated AST node in this
// grammar (only plain identifiers and destructuring patterns), so
// `...rest` is not supported here; a function needing it is written with
// `arguments` instead (documented in DESIGN.md).
func (c *Compiler) compileFunctionLiteral(name string, params []ast.Expression, body *ast.BlockStatement, generator, async, isDerivedCtor bool, span errors.Span) {
	parent := c.u
	c.u = newUnit()

	paramNames := make([]string, len(params))
	for i, p := range params {
		pname, isPattern := paramBindingName(i, p)
		paramNames[i] = pname
		if !isPattern {
			continue
		}
		for _, bn := range bindingNames(p) {
			c.emitOperands(opcodes.DeclareVar, c.internName(bn), 1)
		}
		c.emitOperands(opcodes.GetBinding, c.internName(pname), uint32(c.nextBindingIC()))
		c.destructureInto(p, bindKindDeclare)
	}

	c.hoistBlock(body.Body)
	for _, stmt := range body.Body {
		c.compileStmt(stmt)
	}
	c.emit(opcodes.ReturnUndefined)

	code := c.finish(fnDisplayName(name), span)
	c.u = parent

	proto := &vm.FunctionProto{
		Code:          code,
		Name:          name,
		ParamNames:    paramNames,
		IsGenerator:   generator,
		IsAsync:       async,
		IsDerivedCtor: isDerivedCtor,
	}
	c.u.functions = append(c.u.functions, proto)
	idx := uint32(len(c.u.functions) - 1)
	c.emitOperands(opcodes.NewFunction, idx)
}

// compileArrowFunction compiles an arrow function, whose body may be a
// block or a single expression standing in for `return expr;` (ECMA-262
// 14.8 "ConciseBody"). Arrows never get their own `this`, `arguments`, or
// `new.target`: the instantiated closure resolves `this` through its
// defining scope at call time (vm.instantiateFunction).
func (c *Compiler) compileArrowFunction(n *ast.ArrowFunctionExpression) {
	parent := c.u
	c.u = newUnit()

	paramNames := make([]string, len(n.Params))
	for i, p := range n.Params {
		pname, isPattern := paramBindingName(i, p)
		paramNames[i] = pname
		if !isPattern {
			continue
		}
		for _, bn := range bindingNames(p) {
			c.emitOperands(opcodes.DeclareVar, c.internName(bn), 1)
		}
		c.emitOperands(opcodes.GetBinding, c.internName(pname), uint32(c.nextBindingIC()))
		c.destructureInto(p, bindKindDeclare)
	}

	switch b := n.Body.(type) {
	case *ast.BlockStatement:
		c.hoistBlock(b.Body)
		for _, stmt := range b.Body {
			c.compileStmt(stmt)
		}
		c.emit(opcodes.ReturnUndefined)
	case ast.Expression:
		c.compileExpr(b)
		c.emit(opcodes.Return)
	}

	code := c.finish("<anonymous>", n.Span())
	c.u = parent

	proto := &vm.FunctionProto{
		Code:       code,
		Name:       "",
		ParamNames: paramNames,
		IsArrow:    true,
		IsAsync:    n.Async,
	}
	c.u.functions = append(c.u.functions, proto)
	idx := uint32(len(c.u.functions) - 1)
	c.emitOperands(opcodes.NewFunction, idx)
}

// paramBindingName returns the name a parameter is bound under at the
// FunctionProto level: its own name for a plain identifier, or a
// synthetic positional name for a pattern/default that the function
// body's prologue then destructures from.
func paramBindingName(i int, p ast.Expression) (name string, isPattern bool) {
	if id, ok := p.(*ast.Identifier); ok {
		return id.Name, false
	}
	return fmt.Sprintf("%%arg%d", i), true
}

func fnDisplayName(name string) string {
	if name == "" {
		return "<anonymous>"
	}
	return name
}
