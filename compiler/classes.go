package compiler

import (
	"github.com/wudi/vela/ast"
	"github.com/wudi/vela/errors"
	"github.com/wudi/vela/opcodes"
)

// compileClassLike lowers a class declaration or expression (ECMA-262
// 15.7) to NewClass plus one DefineClassMethod/DefineClassField per
// member, leaving the constructor function object on the stack. Static
// members and computed member keys aren't supported: NewClass/
// DefineClassMethod/DefineClassField only carry a compile-time name
// operand, with no "static" flag or key-on-stack form.
func (c *Compiler) compileClassLike(name string, superClass ast.Expression, members []ast.ClassMember, span errors.Span) {
	hasSuper := superClass != nil
	if hasSuper {
		c.compileExpr(superClass)
	}
	hasSuperFlag := uint32(0)
	if hasSuper {
		hasSuperFlag = 1
	}
	c.emitOperands(opcodes.NewClass, c.internName(name), hasSuperFlag)

	for _, m := range members {
		if m.Static || m.Computed {
			continue
		}
		switch m.Kind {
		case ast.FieldKind:
			if m.Value != nil {
				c.compileExpr(m.Value)
			} else {
				c.emit(opcodes.LoadUndefined)
			}
			c.emitOperands(opcodes.DefineClassField, c.internName(m.Key))
		case ast.GetterKind, ast.SetterKind:
			c.emit(opcodes.Dup)
			c.emitOperands(opcodes.GetProp, c.internName("prototype"))
			c.compileFunctionLiteral(m.Key, m.Function.Params, m.Function.Body, m.Function.Generator, m.Function.Async, false, m.Span())
			if m.Kind == ast.GetterKind {
				c.emitOperands(opcodes.DefineGetter, c.internName(m.Key))
			} else {
				c.emitOperands(opcodes.DefineSetter, c.internName(m.Key))
			}
			c.emit(opcodes.Pop)
		default: // MethodKind, including "constructor"
			isCtor := m.Key == "constructor"
			c.compileFunctionLiteral(m.Key, m.Function.Params, m.Function.Body, m.Function.Generator, m.Function.Async, isCtor && hasSuper, m.Span())
			c.emitOperands(opcodes.DefineClassMethod, c.internName(m.Key))
		}
	}
}
