package compiler

import (
	"github.com/wudi/vela/ast"
	"github.com/wudi/vela/opcodes"
	"github.com/wudi/vela/values"
)

var binaryOpcodes = map[string]opcodes.Op{
	"+": opcodes.Add, "-": opcodes.Sub, "*": opcodes.Mul, "/": opcodes.Div,
	"%": opcodes.Mod, "**": opcodes.Exp,
	"&": opcodes.BitAnd, "|": opcodes.BitOr, "^": opcodes.BitXor,
	"<<": opcodes.Shl, ">>": opcodes.Shr, ">>>": opcodes.UShr,
	"==": opcodes.Eq, "!=": opcodes.Neq, "===": opcodes.StrictEq, "!==": opcodes.StrictNeq,
	"<": opcodes.Lt, "<=": opcodes.Lte, ">": opcodes.Gt, ">=": opcodes.Gte,
	"instanceof": opcodes.InstanceOf, "in": opcodes.In,
}

// compoundOps maps a compound assignment operator to the binary op its
// read-modify-write desugars to ("+=" x -> x = x + ...).
var compoundOps = map[string]string{
	"+=": "+", "-=": "-", "*=": "*", "/=": "/", "%=": "%", "**=": "**",
	"&=": "&", "|=": "|", "^=": "^", "<<=": "<<", ">>=": ">>", ">>>=": ">>>",
}

func (c *Compiler) compileExpr(e ast.Expression) {
	switch n := e.(type) {
	case *ast.Identifier:
		c.emitOperands(opcodes.GetBinding, c.internName(n.Name), uint32(c.nextBindingIC()))
	case *ast.Literal:
		c.compileLiteral(n)
	case *ast.ThisExpression:
		c.emit(opcodes.LoadThis)
	case *ast.ArrayLiteral:
		c.compileArrayLiteral(n)
	case *ast.ObjectLiteral:
		c.compileObjectLiteral(n)
	case *ast.FunctionExpression:
		c.compileFunctionLiteral(n.Name, n.Params, n.Body, n.Generator, n.Async, false, n.Span())
	case *ast.ArrowFunctionExpression:
		c.compileArrowFunction(n)
	case *ast.ClassExpression:
		c.compileClassLike(n.Name, n.SuperClass, n.Body, n.Span())
	case *ast.UnaryExpression:
		c.compileUnary(n)
	case *ast.UpdateExpression:
		c.compileUpdate(n)
	case *ast.BinaryExpression:
		c.compileExpr(n.Left)
		c.compileExpr(n.Right)
		op, ok := binaryOpcodes[n.Operator]
		if !ok {
			panic("compiler: unknown binary operator " + n.Operator)
		}
		c.emit(op)
	case *ast.LogicalExpression:
		c.compileLogical(n)
	case *ast.AssignmentExpression:
		c.compileAssignment(n)
	case *ast.ConditionalExpression:
		c.compileConditional(n)
	case *ast.CallExpression:
		c.compileCall(n)
	case *ast.NewExpression:
		c.compileNew(n)
	case *ast.MemberExpression:
		c.compileMemberGet(n)
	case *ast.SequenceExpression:
		for i, sub := range n.Expressions {
			if i > 0 {
				c.emit(opcodes.Pop)
			}
			c.compileExpr(sub)
		}
	case *ast.TemplateLiteral:
		c.compileTemplate(n)
	case *ast.YieldExpression:
		c.compileYield(n)
	case *ast.AwaitExpression:
		c.compileExpr(n.Argument)
		c.emit(opcodes.Await)
	}
}

func (c *Compiler) compileLiteral(n *ast.Literal) {
	switch n.Value.Kind {
	case ast.LitUndefined:
		c.emit(opcodes.LoadUndefined)
	case ast.LitNull:
		c.emit(opcodes.LoadNull)
	case ast.LitBoolean:
		if n.Value.Bool {
			c.emit(opcodes.LoadTrue)
		} else {
			c.emit(opcodes.LoadFalse)
		}
	case ast.LitNumber:
		if n.Value.Num == 0 {
			c.emit(opcodes.LoadZero)
			return
		}
		c.loadConst(values.Float64(n.Value.Num))
	case ast.LitBigInt:
		c.loadConst(values.BigIntValue(bigIntFromDigits(n.Value.Str)))
	case ast.LitString:
		c.loadConst(values.StringFromGo(n.Value.Str))
	}
}

// compileArrayLiteral builds the array incrementally with
// DefineComputedProperty rather than a single NewArrayFromElements
// whenever a spread element is present, since the element count isn't
// known until the spread source is exhausted at runtime.
func (c *Compiler) compileArrayLiteral(n *ast.ArrayLiteral) {
	hasSpread := false
	for _, el := range n.Elements {
		if el.Spread {
			hasSpread = true
			break
		}
	}
	if !hasSpread {
		for _, el := range n.Elements {
			if el.Expr == nil {
				c.emit(opcodes.LoadUndefined)
				continue
			}
			c.compileExpr(el.Expr)
		}
		c.emitOperands(opcodes.NewArrayFromElements, uint32(len(n.Elements)))
		return
	}
	c.emit(opcodes.NewArray)
	idxName := c.newTempName()
	c.emit(opcodes.LoadZero)
	c.emitOperands(opcodes.DeclareVar, c.internName(idxName), 1)
	c.emitOperands(opcodes.InitBinding, c.internName(idxName))
	for _, el := range n.Elements {
		if el.Spread {
			c.compileExpr(el.Expr)
			c.emit(opcodes.SpreadInto)
			// re-sync the index temp to the array's new length so a
			// later element doesn't overwrite what the spread just added.
			c.emit(opcodes.Dup)
			c.emitOperands(opcodes.GetProp, c.internName("length"))
			c.bindIdentifier(idxName, bindKindAssign)
			continue
		}
		c.loadTemp(idxName)
		if el.Expr == nil {
			c.emit(opcodes.LoadUndefined)
		} else {
			c.compileExpr(el.Expr)
		}
		c.emit(opcodes.DefineComputedProperty)
		c.loadTemp(idxName)
		c.emit(opcodes.Inc)
		c.bindIdentifier(idxName, bindKindAssign)
	}
}

func (c *Compiler) compileObjectLiteral(n *ast.ObjectLiteral) {
	c.emit(opcodes.NewObject)
	for _, p := range n.Properties {
		switch p.Kind {
		case "spread":
			c.compileExpr(p.Value)
			c.emit(opcodes.SpreadInto)
		case "get", "set":
			fn := p.Value.(*ast.FunctionExpression)
			c.compileFunctionLiteral("", fn.Params, fn.Body, fn.Generator, fn.Async, false, fn.Span())
			if p.Computed {
				c.compileExpr(p.Key)
				if p.Kind == "get" {
					c.emit(opcodes.DefineGetter)
				} else {
					c.emit(opcodes.DefineSetter)
				}
				continue
			}
			name := propKeyName(p.Key)
			if p.Kind == "get" {
				c.emitOperands(opcodes.DefineGetter, c.internName(name))
			} else {
				c.emitOperands(opcodes.DefineSetter, c.internName(name))
			}
		case "method":
			fn := p.Value.(*ast.FunctionExpression)
			c.compileFunctionLiteral("", fn.Params, fn.Body, fn.Generator, fn.Async, false, fn.Span())
			if p.Computed {
				c.compileExpr(p.Key)
				c.emit(opcodes.DefineMethod)
				continue
			}
			c.emitOperands(opcodes.DefineMethod, c.internName(propKeyName(p.Key)))
		default: // "init"
			if p.Computed {
				c.compileExpr(p.Key)
				c.compileExpr(p.Value)
				c.emit(opcodes.DefineComputedProperty)
				continue
			}
			c.compileExpr(p.Value)
			c.emitOperands(opcodes.DefineDataProperty, c.internName(propKeyName(p.Key)))
		}
	}
}

func (c *Compiler) compileUnary(n *ast.UnaryExpression) {
	if n.Operator == "delete" {
		c.compileDelete(n.Argument)
		return
	}
	if n.Operator == "typeof" {
		if id, ok := n.Argument.(*ast.Identifier); ok {
			c.emitOperands(opcodes.GetBindingRef, c.internName(id.Name))
			c.emit(opcodes.TypeOf)
			return
		}
	}
	c.compileExpr(n.Argument)
	switch n.Operator {
	case "+":
		c.emit(opcodes.Pos)
	case "-":
		c.emit(opcodes.Neg)
	case "!":
		c.emit(opcodes.LogNot)
	case "~":
		c.emit(opcodes.BitNot)
	case "typeof":
		c.emit(opcodes.TypeOf)
	case "void":
		c.emit(opcodes.Void)
	}
}

func (c *Compiler) compileDelete(target ast.Expression) {
	m, ok := target.(*ast.MemberExpression)
	if !ok {
		c.emit(opcodes.LoadTrue)
		return
	}
	c.compileExpr(m.Object)
	if m.Computed {
		c.compileExpr(m.Property)
		c.emit(opcodes.DeletePropComputed)
		return
	}
	name := m.Property.(*ast.Identifier).Name
	c.emitOperands(opcodes.DeleteProp, c.internName(name))
}

// compileUpdate implements ++/-- (ECMA-262 13.4 "Update Expressions").
// Prefix leaves the new value on the stack; postfix stashes the old
// value in a temp first and reloads it after the store.
func (c *Compiler) compileUpdate(n *ast.UpdateExpression) {
	op := opcodes.Inc
	if n.Operator == "--" {
		op = opcodes.Dec
	}
	if id, ok := n.Argument.(*ast.Identifier); ok {
		c.emitOperands(opcodes.GetBinding, c.internName(id.Name), uint32(c.nextBindingIC()))
		if n.Prefix {
			c.emit(op)
			c.emitOperands(opcodes.SetBinding, c.internName(id.Name), uint32(c.nextBindingIC()))
			return
		}
		old := c.stashTemp()
		c.loadTemp(old)
		c.emit(op)
		c.emitOperands(opcodes.SetBinding, c.internName(id.Name), uint32(c.nextBindingIC()))
		c.emit(opcodes.Pop)
		c.loadTemp(old)
		return
	}
	m := n.Argument.(*ast.MemberExpression)
	c.compileExpr(m.Object)
	objTmp := c.stashTemp()
	if m.Computed {
		c.compileExpr(m.Property)
	} else {
		c.loadConst(values.StringFromGo(m.Property.(*ast.Identifier).Name))
	}
	keyTmp := c.stashTemp()
	c.loadTemp(objTmp)
	c.loadTemp(keyTmp)
	c.emit(opcodes.GetPropComputed)
	if n.Prefix {
		c.emit(op)
		c.loadTemp(objTmp)
		c.emit(opcodes.Swap)
		c.loadTemp(keyTmp)
		c.emit(opcodes.Swap)
		c.emit(opcodes.SetPropComputed)
		return
	}
	old := c.stashTemp()
	c.loadTemp(old)
	c.emit(op)
	c.loadTemp(objTmp)
	c.emit(opcodes.Swap)
	c.loadTemp(keyTmp)
	c.emit(opcodes.Swap)
	c.emit(opcodes.SetPropComputed)
	c.emit(opcodes.Pop)
	c.loadTemp(old)
}

// compileLogical lowers &&/||/?? to short-circuit jumps: the instruction
// set has no dedicated logical-op opcode (spec §4.1, "control flow is
// jumps only").
func (c *Compiler) compileLogical(n *ast.LogicalExpression) {
	c.compileExpr(n.Left)
	switch n.Operator {
	case "&&":
		c.emit(opcodes.Dup)
		end := c.emitJump(opcodes.JumpIfFalse)
		c.emit(opcodes.Pop)
		c.compileExpr(n.Right)
		c.patch(end)
	case "||":
		c.emit(opcodes.Dup)
		c.emit(opcodes.LogNot)
		end := c.emitJump(opcodes.JumpIfFalse)
		c.emit(opcodes.Pop)
		c.compileExpr(n.Right)
		c.patch(end)
	case "??":
		end := c.emitJump(opcodes.JumpIfNullish)
		notNullish := c.emitJump(opcodes.Jump)
		c.patch(end)
		c.emit(opcodes.Pop)
		c.compileExpr(n.Right)
		c.patch(notNullish)
	}
}

func (c *Compiler) compileConditional(n *ast.ConditionalExpression) {
	c.compileExpr(n.Test)
	elseLbl := c.emitJump(opcodes.JumpIfFalse)
	c.compileExpr(n.Consequent)
	end := c.emitJump(opcodes.Jump)
	c.patch(elseLbl)
	c.compileExpr(n.Alternate)
	c.patch(end)
}

// compileAssignment implements both plain `=` (including destructuring
// targets) and the compound/logical-assignment operators, which all
// read-modify-write their target (ECMA-262 13.15).
func (c *Compiler) compileAssignment(n *ast.AssignmentExpression) {
	switch n.Operator {
	case "=":
		c.compileExpr(n.Value)
		c.emit(opcodes.Dup)
		c.destructureInto(n.Target, bindKindAssign)
		return
	case "&&=", "||=", "??=":
		c.compileLogicalAssign(n)
		return
	}
	base, ok := compoundOps[n.Operator]
	if !ok {
		panic("compiler: unknown assignment operator " + n.Operator)
	}
	binOp := binaryOpcodes[base]
	if id, isID := n.Target.(*ast.Identifier); isID {
		c.emitOperands(opcodes.GetBinding, c.internName(id.Name), uint32(c.nextBindingIC()))
		c.compileExpr(n.Value)
		c.emit(binOp)
		c.emit(opcodes.Dup)
		c.emitOperands(opcodes.SetBinding, c.internName(id.Name), uint32(c.nextBindingIC()))
		c.emit(opcodes.Pop)
		return
	}
	m := n.Target.(*ast.MemberExpression)
	c.compileExpr(m.Object)
	objTmp := c.stashTemp()
	if m.Computed {
		c.compileExpr(m.Property)
	} else {
		c.loadConst(values.StringFromGo(m.Property.(*ast.Identifier).Name))
	}
	keyTmp := c.stashTemp()
	c.loadTemp(objTmp)
	c.loadTemp(keyTmp)
	c.emit(opcodes.GetPropComputed)
	c.compileExpr(n.Value)
	c.emit(binOp)
	valTmp := c.stashTemp()
	c.loadTemp(objTmp)
	c.loadTemp(keyTmp)
	c.loadTemp(valTmp)
	c.emit(opcodes.SetPropComputed)
	c.emit(opcodes.Pop)
	c.loadTemp(valTmp)
}

// compileLogicalAssign implements &&=, ||=, ??=: the right-hand side is
// only ever evaluated (and only ever stored) when the short-circuit test
// passes, so it can't reuse the plain compound-assignment desugaring.
func (c *Compiler) compileLogicalAssign(n *ast.AssignmentExpression) {
	if id, ok := n.Target.(*ast.Identifier); ok {
		c.emitOperands(opcodes.GetBinding, c.internName(id.Name), uint32(c.nextBindingIC()))
		skip := c.logicalAssignTest(n.Operator)
		c.emit(opcodes.Pop)
		c.compileExpr(n.Value)
		c.emit(opcodes.Dup)
		c.emitOperands(opcodes.SetBinding, c.internName(id.Name), uint32(c.nextBindingIC()))
		c.emit(opcodes.Pop)
		c.patch(skip)
		return
	}
	m := n.Target.(*ast.MemberExpression)
	c.compileExpr(m.Object)
	objTmp := c.stashTemp()
	if m.Computed {
		c.compileExpr(m.Property)
	} else {
		c.loadConst(values.StringFromGo(m.Property.(*ast.Identifier).Name))
	}
	keyTmp := c.stashTemp()
	c.loadTemp(objTmp)
	c.loadTemp(keyTmp)
	c.emit(opcodes.GetPropComputed)
	skip := c.logicalAssignTest(n.Operator)
	c.emit(opcodes.Pop)
	c.compileExpr(n.Value)
	valTmp := c.stashTemp()
	c.loadTemp(objTmp)
	c.loadTemp(keyTmp)
	c.loadTemp(valTmp)
	c.emit(opcodes.SetPropComputed)
	c.emit(opcodes.Pop)
	c.loadTemp(valTmp)
	c.patch(skip)
}

// logicalAssignTest consumes nothing, peeking the current value to
// decide whether the caller's store path should run, and returns the
// jump label to patch once the store path (if any) has been emitted.
func (c *Compiler) logicalAssignTest(operator string) opcodes.Label {
	switch operator {
	case "&&=":
		c.emit(opcodes.Dup)
		return c.emitJump(opcodes.JumpIfFalse)
	case "||=":
		c.emit(opcodes.Dup)
		c.emit(opcodes.LogNot)
		return c.emitJump(opcodes.JumpIfFalse)
	default: // "??="
		nullish := c.emitJump(opcodes.JumpIfNullish)
		skip := c.emitJump(opcodes.Jump)
		c.patch(nullish)
		return skip
	}
}

func (c *Compiler) compileMemberGet(n *ast.MemberExpression) {
	if _, isSuper := n.Object.(*ast.SuperExpression); isSuper {
		if n.Computed {
			// Computed super property access has no dedicated opcode;
			// this engine only supports GetSuperProp's name-operand form.
			panic("compiler: computed super property access is not supported")
		}
		name := n.Property.(*ast.Identifier).Name
		c.emitOperands(opcodes.GetSuperProp, c.internName(name))
		return
	}
	c.compileExpr(n.Object)
	if n.Optional {
		end := c.emitJump(opcodes.JumpIfNullish)
		c.memberAccess(n)
		after := c.emitJump(opcodes.Jump)
		c.patch(end)
		c.patch(after)
		return
	}
	c.memberAccess(n)
}

func (c *Compiler) memberAccess(n *ast.MemberExpression) {
	if n.Computed {
		c.compileExpr(n.Property)
		c.emit(opcodes.GetPropComputed)
		return
	}
	name := n.Property.(*ast.Identifier).Name
	c.emitOperands(opcodes.GetPropIC, c.internName(name), uint32(c.nextPropIC()))
}

// compileCall implements CallExpression, including optional chaining
// (ECMA-262 13.3.7) and super.method()/super() forms. Spread arguments
// aren't supported: the instruction set's Call/CallMethod opcodes only
// carry a fixed argc, with no variable-length-via-array calling
// convention (documented in DESIGN.md).
func (c *Compiler) compileCall(n *ast.CallExpression) {
	if sc, isSuper := n.Callee.(*ast.SuperExpression); isSuper {
		_ = sc
		for _, a := range n.Arguments {
			c.compileExpr(a.Expr)
		}
		c.emitOperands(opcodes.SuperCall, uint32(len(n.Arguments)))
		return
	}
	if m, isMember := n.Callee.(*ast.MemberExpression); isMember {
		if _, isSuper := m.Object.(*ast.SuperExpression); isSuper {
			name := m.Property.(*ast.Identifier).Name
			for _, a := range n.Arguments {
				c.compileExpr(a.Expr)
			}
			c.emitOperands(opcodes.CallSuperMethod, c.internName(name), uint32(len(n.Arguments)))
			return
		}
		c.compileExpr(m.Object)
		if m.Optional || n.Optional {
			end := c.emitJump(opcodes.JumpIfNullish)
			c.compileMethodCall(m, n)
			after := c.emitJump(opcodes.Jump)
			c.patch(end)
			c.patch(after)
			return
		}
		c.compileMethodCall(m, n)
		return
	}
	c.compileExpr(n.Callee)
	if n.Optional {
		end := c.emitJump(opcodes.JumpIfNullish)
		for _, a := range n.Arguments {
			c.compileExpr(a.Expr)
		}
		c.emitOperands(opcodes.Call, uint32(len(n.Arguments)))
		after := c.emitJump(opcodes.Jump)
		c.patch(end)
		c.patch(after)
		return
	}
	for _, a := range n.Arguments {
		c.compileExpr(a.Expr)
	}
	c.emitOperands(opcodes.Call, uint32(len(n.Arguments)))
}

// compileMethodCall emits the rest of a receiver.method(args) call; the
// receiver object is assumed already on the stack. CallMethod binds
// `this` to the receiver but only carries a compile-time name operand,
// so a computed key (obj[expr]()) has to fetch the method value itself
// and call it with plain Call instead, which loses the `this` binding
// Call never provides (documented in DESIGN.md).
func (c *Compiler) compileMethodCall(m *ast.MemberExpression, call *ast.CallExpression) {
	if m.Computed {
		recvTmp := c.stashTemp()
		c.loadTemp(recvTmp)
		c.compileExpr(m.Property)
		c.emit(opcodes.GetPropComputed)
		for _, a := range call.Arguments {
			c.compileExpr(a.Expr)
		}
		c.emitOperands(opcodes.Call, uint32(len(call.Arguments)))
		return
	}
	name := m.Property.(*ast.Identifier).Name
	for _, a := range call.Arguments {
		c.compileExpr(a.Expr)
	}
	c.emitOperands(opcodes.CallMethod, c.internName(name), uint32(len(call.Arguments)))
}

func (c *Compiler) compileNew(n *ast.NewExpression) {
	c.compileExpr(n.Callee)
	for _, a := range n.Arguments {
		c.compileExpr(a.Expr)
	}
	c.emitOperands(opcodes.New, uint32(len(n.Arguments)))
}

func (c *Compiler) compileTemplate(n *ast.TemplateLiteral) {
	count := 0
	for i, q := range n.Quasis {
		c.loadConst(values.StringFromGo(q))
		count++
		if i < len(n.Expressions) {
			c.compileExpr(n.Expressions[i])
			count++
		}
	}
	c.emitOperands(opcodes.NewTemplate, uint32(count))
}

func (c *Compiler) compileYield(n *ast.YieldExpression) {
	if n.Argument == nil {
		c.emit(opcodes.LoadUndefined)
	} else {
		c.compileExpr(n.Argument)
	}
	if n.Delegate {
		c.compileYieldStar()
		return
	}
	c.emit(opcodes.Yield)
}

// compileYieldStar lowers `yield*` to a bytecode loop over the
// delegate's iterator, the same shape compileForOf uses for `for...of`:
// there is no dedicated opcode, just GetIterator/IteratorNext/Yield
// wired up with jumps, so suspending mid-delegation is nothing more than
// a plain Yield suspension (see vm/dispatch.go's generator/async
// suspension comment).
func (c *Compiler) compileYieldStar() {
	c.emit(opcodes.GetIterator)
	head := c.here()
	c.emit(opcodes.IteratorNext)
	// stack: [iter, result]
	c.emit(opcodes.Dup)
	c.emitOperands(opcodes.GetProp, c.internName("done"))
	endLbl := c.emitJump(opcodes.JumpIfTrue)
	c.emitOperands(opcodes.GetProp, c.internName("value"))
	// stack: [iter, value]
	c.emit(opcodes.Yield)
	// stack: [iter, resumedValue]; the resumed value isn't forwarded
	// into the delegate's next() call, matching a plain `for...of` drive.
	c.emit(opcodes.Pop)
	c.emitOperands(opcodes.Jump, uint32(head))
	c.patch(endLbl)
	// stack: [iter, result]; result.value is yield*'s own expression value
	c.emitOperands(opcodes.GetProp, c.internName("value"))
	c.emit(opcodes.Swap)
	c.emit(opcodes.Pop)
}
