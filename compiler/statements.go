package compiler

import (
	"github.com/wudi/vela/ast"
	"github.com/wudi/vela/opcodes"
)

func (c *Compiler) compileStmt(s ast.Statement) {
	switch n := s.(type) {
	case *ast.ExpressionStatement:
		c.compileExpr(n.Expr)
		c.emit(opcodes.Pop)
	case *ast.VariableDeclaration:
		c.compileVariableDeclaration(n)
	case *ast.BlockStatement:
		c.compileBlockScoped(n.Body)
	case *ast.IfStatement:
		c.compileIf(n)
	case *ast.ForStatement:
		c.compileFor(n, "")
	case *ast.ForInStatement:
		c.compileForIn(n, "")
	case *ast.ForOfStatement:
		c.compileForOf(n, "")
	case *ast.WhileStatement:
		c.compileWhile(n, "")
	case *ast.DoWhileStatement:
		c.compileDoWhile(n, "")
	case *ast.BreakStatement:
		c.emitBreak(n.Label)
	case *ast.ContinueStatement:
		c.emitContinue(n.Label)
	case *ast.ReturnStatement:
		if n.Argument != nil {
			c.compileExpr(n.Argument)
			c.emit(opcodes.Return)
		} else {
			c.emit(opcodes.ReturnUndefined)
		}
	case *ast.ThrowStatement:
		c.compileExpr(n.Argument)
		addr := c.emit(opcodes.Throw)
		c.noteSpan(addr, n.Span())
	case *ast.TryStatement:
		c.compileTry(n)
	case *ast.LabeledStatement:
		c.compileLabeled(n)
	case *ast.SwitchStatement:
		c.compileSwitch(n, "")
	case *ast.FunctionDeclaration:
		// Hoisted and compiled by hoistBlock; nothing to do at its
		// textual position.
	case *ast.ClassDeclaration:
		c.emitOperands(opcodes.DeclareVar, c.internName(n.Name), 1)
		c.compileClassLike(n.Name, n.SuperClass, n.Body, n.Span())
		c.emitOperands(opcodes.InitBinding, c.internName(n.Name))
	}
}

// compileBlockScoped compiles a nested block with its own lexical
// environment (spec §3.4 "each block gets a fresh Declarative
// Environment"); function declarations inside it are hoisted to its top
// (ECMA-262 Annex B block-scoped function hoisting, simplified to
// "visible throughout this block").
func (c *Compiler) compileBlockScoped(body []ast.Statement) {
	c.emit(opcodes.PushBlockEnv)
	c.hoistBlock(body)
	for _, st := range body {
		c.compileStmt(st)
	}
	c.emit(opcodes.PopEnv)
}

func (c *Compiler) compileVariableDeclaration(n *ast.VariableDeclaration) {
	for _, d := range n.Declarations {
		// `var` names are already declared and initialized to undefined by
		// the enclosing function/script's hoisting pass (hoist.go); a
		// declarator with no initializer is then a no-op, and one with an
		// initializer is a plain assignment into the existing binding, not
		// a (re-)initialization.
		bindKind := bindKindDeclare
		if n.Kind == ast.VarVar {
			bindKind = bindKindAssign
			if d.Init == nil {
				continue
			}
		}
		if id, ok := d.Target.(*ast.Identifier); ok {
			if n.Kind != ast.VarVar {
				c.emitOperands(opcodes.DeclareVar, c.internName(id.Name), uint32(declKind(n.Kind)))
			}
			if d.Init != nil {
				c.compileExpr(d.Init)
			} else {
				c.emit(opcodes.LoadUndefined)
			}
			c.bindIdentifier(id.Name, bindKind)
			continue
		}
		// Destructuring declarator: declare every bound name first (so
		// forward references within the same pattern still see a TDZ
		// binding rather than an unresolved one), then evaluate the
		// initializer and destructure into each binding's InitBinding.
		if n.Kind != ast.VarVar {
			for _, name := range bindingNames(d.Target) {
				c.emitOperands(opcodes.DeclareVar, c.internName(name), uint32(declKind(n.Kind)))
			}
		}
		c.compileExpr(d.Init)
		c.destructureInto(d.Target, bindKind)
	}
}

func declKind(k ast.VariableKind) int {
	switch k {
	case ast.VarConst:
		return 2
	default:
		return 1
	}
}

func (c *Compiler) compileIf(n *ast.IfStatement) {
	c.compileExpr(n.Test)
	elseLbl := c.emitJump(opcodes.JumpIfFalse)
	c.compileStmt(n.Consequent)
	if n.Alternate == nil {
		c.patch(elseLbl)
		return
	}
	endLbl := c.emitJump(opcodes.Jump)
	c.patch(elseLbl)
	c.compileStmt(n.Alternate)
	c.patch(endLbl)
}

func (c *Compiler) compileWhile(n *ast.WhileStatement, label string) {
	head := c.here()
	c.compileExpr(n.Test)
	endLbl := c.emitJump(opcodes.JumpIfFalse)
	c.pushLoop(label, true)
	c.compileStmt(n.Body)
	l := c.popLoop()
	c.patchAll(l.continueLabels, head)
	c.emitOperands(opcodes.Jump, uint32(head))
	c.patch(endLbl)
	c.patchAll(l.breakLabels, c.here())
}

func (c *Compiler) compileDoWhile(n *ast.DoWhileStatement, label string) {
	head := c.here()
	c.pushLoop(label, true)
	c.compileStmt(n.Body)
	l := c.popLoop()
	testAddr := c.here()
	c.patchAll(l.continueLabels, testAddr)
	c.compileExpr(n.Test)
	c.emitOperands(opcodes.JumpIfTrue, uint32(head))
	c.patchAll(l.breakLabels, c.here())
}

// compileFor implements the C-style for loop. Each iteration gets a
// fresh Declarative Environment over a `let`/`const` init so closures
// created in the body capture that iteration's value, not a shared
// mutable slot (ECMA-262 14.7.4.3 CreatePerIterationEnvironment).
func (c *Compiler) compileFor(n *ast.ForStatement, label string) {
	perIteration := false
	c.emit(opcodes.PushBlockEnv)
	if decl, ok := n.Init.(*ast.VariableDeclaration); ok {
		c.compileVariableDeclaration(decl)
		perIteration = decl.Kind != ast.VarVar
	} else if expr, ok := n.Init.(ast.Expression); ok && expr != nil {
		c.compileExpr(expr)
		c.emit(opcodes.Pop)
	}

	head := c.here()
	var endLbl opcodes.Label
	hasTest := n.Test != nil
	if hasTest {
		c.compileExpr(n.Test)
		endLbl = c.emitJump(opcodes.JumpIfFalse)
	}
	c.pushLoop(label, true)
	c.compileStmt(n.Body)
	l := c.popLoop()

	updateAddr := c.here()
	c.patchAll(l.continueLabels, updateAddr)
	if perIteration {
		// Carry the current iteration's bindings into a fresh sibling
		// environment before the update expression runs, so a closure
		// captured during this iteration's body keeps its own copy
		// instead of seeing later iterations' mutations.
		c.emit(opcodes.PerIterationEnv)
	}
	if n.Update != nil {
		c.compileExpr(n.Update)
		c.emit(opcodes.Pop)
	}
	c.emitOperands(opcodes.Jump, uint32(head))
	if hasTest {
		c.patch(endLbl)
	}
	c.patchAll(l.breakLabels, c.here())
	c.emit(opcodes.PopEnv)
}

func (c *Compiler) compileForOf(n *ast.ForOfStatement, label string) {
	c.compileExpr(n.Right)
	if n.Await {
		c.emit(opcodes.GetAsyncIterator)
	} else {
		c.emit(opcodes.GetIterator)
	}
	head := c.here()
	c.emit(opcodes.IteratorNext)
	// stack: [iter, result]; peek "done" without losing result
	c.emit(opcodes.Dup)
	c.emitOperands(opcodes.GetProp, c.internName("done"))
	endLbl := c.emitJump(opcodes.JumpIfTrue)
	// stack: [iter, result]; pull value, bind it (iter stays for the next pass)
	c.emitOperands(opcodes.GetProp, c.internName("value"))
	c.emit(opcodes.PushBlockEnv)
	c.bindForTarget(n.IsDecl, n.DeclKind, n.Left)
	c.pushLoop(label, true)
	c.compileStmt(n.Body)
	l := c.popLoop()
	contAddr := c.here()
	c.patchAll(l.continueLabels, contAddr)
	c.emit(opcodes.PopEnv)
	c.emitOperands(opcodes.Jump, uint32(head))
	c.patch(endLbl)
	// stack on the done path: [iter, result]; discard both
	c.emit(opcodes.Pop)
	c.emit(opcodes.Pop)
	c.patchAll(l.breakLabels, c.here())
}

func (c *Compiler) compileForIn(n *ast.ForInStatement, label string) {
	c.compileExpr(n.Right)
	c.emit(opcodes.GetForInIterator)
	head := c.here()
	c.emit(opcodes.IteratorNext)
	c.emit(opcodes.Dup)
	c.emitOperands(opcodes.GetProp, c.internName("done"))
	endLbl := c.emitJump(opcodes.JumpIfTrue)
	c.emitOperands(opcodes.GetProp, c.internName("value"))
	c.emit(opcodes.PushBlockEnv)
	c.bindForTarget(n.IsDecl, n.DeclKind, n.Left)
	c.pushLoop(label, true)
	c.compileStmt(n.Body)
	l := c.popLoop()
	c.patchAll(l.continueLabels, c.here())
	c.emit(opcodes.PopEnv)
	c.emitOperands(opcodes.Jump, uint32(head))
	c.patch(endLbl)
	c.emit(opcodes.Pop)
	c.emit(opcodes.Pop)
	c.patchAll(l.breakLabels, c.here())
}

// bindForTarget binds one for-of/for-in iteration value, which is on top
// of the stack, to Left.
func (c *Compiler) bindForTarget(isDecl bool, kind ast.VariableKind, left ast.Expression) {
	if isDecl && kind != ast.VarVar {
		for _, name := range bindingNames(left) {
			c.emitOperands(opcodes.DeclareVar, c.internName(name), uint32(declKind(kind)))
		}
		c.destructureInto(left, bindKindDeclare)
		return
	}
	// `var`-kind loop targets were already hoisted to the enclosing
	// function/script scope; bind into that existing binding instead of
	// shadowing it with a new block-scoped one.
	c.destructureInto(left, bindKindAssign)
}

func (c *Compiler) compileLabeled(n *ast.LabeledStatement) {
	switch body := n.Body.(type) {
	case *ast.ForStatement:
		c.compileFor(body, n.Label)
	case *ast.ForInStatement:
		c.compileForIn(body, n.Label)
	case *ast.ForOfStatement:
		c.compileForOf(body, n.Label)
	case *ast.WhileStatement:
		c.compileWhile(body, n.Label)
	case *ast.DoWhileStatement:
		c.compileDoWhile(body, n.Label)
	case *ast.SwitchStatement:
		c.compileSwitch(body, n.Label)
	default:
		c.pushLoop(n.Label, false)
		c.compileStmt(n.Body)
		l := c.popLoop()
		c.patchAll(l.breakLabels, c.here())
	}
}

// compileSwitch lowers to a strict-equality test chain followed by a
// fallthrough-by-default statement stream (spec §3.4 "switch falls
// through between cases like the source ECMAScript grammar").
func (c *Compiler) compileSwitch(n *ast.SwitchStatement, label string) {
	c.emit(opcodes.PushBlockEnv)
	c.compileExpr(n.Discriminant)

	bodyLabels := make([]opcodes.Label, len(n.Cases))
	defaultIdx := -1
	for i, cs := range n.Cases {
		if cs.Test == nil {
			defaultIdx = i
			continue
		}
		c.emit(opcodes.Dup)
		c.compileExpr(cs.Test)
		c.emit(opcodes.StrictEq)
		skip := c.emitJump(opcodes.JumpIfFalse)
		c.emit(opcodes.Pop) // drop the discriminant on the matched path
		bodyLabels[i] = c.emitJump(opcodes.Jump)
		c.patch(skip)
	}
	c.emit(opcodes.Pop) // no match: drop the discriminant
	afterDispatch := c.emitJump(opcodes.Jump)

	c.pushLoop(label, false)
	for i, cs := range n.Cases {
		if i == defaultIdx {
			c.patch(afterDispatch)
		} else {
			c.patch(bodyLabels[i])
		}
		for _, st := range cs.Consequent {
			c.compileStmt(st)
		}
	}
	if defaultIdx < 0 {
		c.patch(afterDispatch)
	}
	l := c.popLoop()
	c.patchAll(l.breakLabels, c.here())
	c.emit(opcodes.PopEnv)
}

func (c *Compiler) compileTry(n *ast.TryStatement) {
	catchLbl, finallyLbl := c.u.writer.EmitHandler(opcodes.PushHandler)
	bodyEndLbl := opcodes.Label{}
	_ = bodyEndLbl

	for _, st := range n.Block.Body {
		c.compileStmt(st)
	}
	c.emit(opcodes.PopHandler)
	afterTry := c.emitJump(opcodes.Jump)

	if n.Handler != nil {
		c.u.writer.PatchTo(catchLbl, c.here())
		c.emit(opcodes.PushBlockEnv)
		if n.Handler.Param != nil {
			for _, name := range bindingNames(n.Handler.Param) {
				c.emitOperands(opcodes.DeclareVar, c.internName(name), 1)
			}
			c.destructureInto(n.Handler.Param, bindKindDeclare)
		} else {
			c.emit(opcodes.Pop) // no catch binding: discard the thrown value
		}
		for _, st := range n.Handler.Body.Body {
			c.compileStmt(st)
		}
		c.emit(opcodes.PopEnv)
	} else {
		c.u.writer.PatchTo(catchLbl, 0)
	}
	c.patch(afterTry)

	if n.Finalizer != nil {
		finallyAddr := c.here()
		c.u.writer.PatchTo(finallyLbl, finallyAddr)
		for _, st := range n.Finalizer.Body {
			c.compileStmt(st)
		}
		c.emit(opcodes.ExitFinally)
	} else {
		c.u.writer.PatchTo(finallyLbl, 0)
	}
}
