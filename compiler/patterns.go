package compiler

import (
	"fmt"

	"github.com/wudi/vela/ast"
	"github.com/wudi/vela/opcodes"
	"github.com/wudi/vela/values"
)

const (
	bindKindDeclare = iota // InitBinding: first write into a freshly declared binding
	bindKindAssign         // SetBinding/SetProp: target already exists
)

func (c *Compiler) bindIdentifier(name string, kind int) {
	if kind == bindKindDeclare {
		c.emitOperands(opcodes.InitBinding, c.internName(name))
		return
	}
	c.emitOperands(opcodes.SetBinding, c.internName(name), uint32(c.nextBindingIC()))
	c.emit(opcodes.Pop)
}

func (c *Compiler) newTempName() string {
	c.u.tempCounter++
	return fmt.Sprintf("%%d%d", c.u.tempCounter)
}

// stashTemp consumes the value on top of the stack into a fresh,
// block-scoped hidden binding and returns its name, so later code can
// reload it as many times as a pattern needs. The instruction set only
// exposes Dup/Swap, which can't reach past the top two stack slots, so
// named temporaries stand in for the "pick" operations a pattern
// desugaring would otherwise want.
func (c *Compiler) stashTemp() string {
	name := c.newTempName()
	c.emitOperands(opcodes.DeclareVar, c.internName(name), 1)
	c.emitOperands(opcodes.InitBinding, c.internName(name))
	return name
}

func (c *Compiler) loadTemp(name string) {
	c.emitOperands(opcodes.GetBinding, c.internName(name), uint32(c.nextBindingIC()))
}

// destructureInto binds the value on top of the stack (consuming it)
// into target (ECMA-262 13.3.3 "Destructuring Binding Patterns",
// desugared here to plain iterator-protocol and property-access
// bytecode rather than a dedicated destructuring opcode).
func (c *Compiler) destructureInto(target ast.Expression, kind int) {
	switch t := target.(type) {
	case *ast.Identifier:
		c.bindIdentifier(t.Name, kind)
	case *ast.MemberExpression:
		c.destructureIntoMember(t)
	case *ast.AssignmentPattern:
		tmp := c.stashTemp()
		c.loadTemp(tmp)
		c.emit(opcodes.LoadUndefined)
		c.emit(opcodes.StrictEq)
		useValue := c.emitJump(opcodes.JumpIfFalse)
		c.compileExpr(t.Default)
		skip := c.emitJump(opcodes.Jump)
		c.patch(useValue)
		c.loadTemp(tmp)
		c.patch(skip)
		c.destructureInto(t.Target, kind)
	case *ast.ArrayPattern:
		c.destructureArray(t, kind)
	case *ast.ObjectPattern:
		c.destructureObject(t, kind)
	}
}

// destructureIntoMember implements an assignment-target member
// expression inside a pattern, e.g. `([a.x] = arr)` or `([a[k]] = arr)`.
// Both forms stash the value to assign in a temporary; the computed form
// also stashes the object so its key can be evaluated after it.
func (c *Compiler) destructureIntoMember(t *ast.MemberExpression) {
	tmp := c.stashTemp() // the value to assign
	c.compileExpr(t.Object)
	if t.Computed {
		objTmp := c.stashTemp()
		c.loadTemp(objTmp)
		c.compileExpr(t.Property)
		c.loadTemp(tmp)
		c.emit(opcodes.SetPropComputed)
		c.emit(opcodes.Pop)
		return
	}
	c.loadTemp(tmp)
	name := t.Property.(*ast.Identifier).Name
	c.emitOperands(opcodes.SetProp, c.internName(name))
	c.emit(opcodes.Pop)
}

// destructureArray implements array pattern destructuring via the
// iterator protocol (ECMA-262 13.3.3.8): each element pulls the next
// iterator result regardless of whether earlier elements were elisions,
// and a trailing rest element collects everything left.
func (c *Compiler) destructureArray(t *ast.ArrayPattern, kind int) {
	c.emit(opcodes.GetIterator)
	iterName := c.stashTemp()
	exhausted := c.stashBoolFalse()

	for _, el := range t.Elements {
		if el.Rest {
			c.destructureArrayRest(iterName, exhausted, el.Target, kind)
			c.loadTemp(iterName)
			c.emit(opcodes.IteratorClose)
			return
		}
		c.advanceIterTemp(iterName, exhausted)
		if el.Target == nil {
			c.emit(opcodes.Pop) // elision: discard the pulled value
			continue
		}
		c.destructureInto(el.Target, kind)
	}
	c.loadTemp(iterName)
	c.emit(opcodes.IteratorClose)
}

func (c *Compiler) stashBoolFalse() string {
	c.emit(opcodes.LoadFalse)
	return c.stashTemp()
}

// advanceIterTemp pulls one value from the iterator named iterName,
// pushing it (or undefined once the iterator is exhausted) and updating
// the exhausted flag temp. Net stack effect: +1 (the value).
func (c *Compiler) advanceIterTemp(iterName, exhausted string) {
	c.loadTemp(exhausted)
	alreadyDone := c.emitJump(opcodes.JumpIfTrue)

	c.loadTemp(iterName)
	c.emit(opcodes.IteratorNext)
	c.emit(opcodes.Dup)
	c.emitOperands(opcodes.GetProp, c.internName("done"))
	notDone := c.emitJump(opcodes.JumpIfFalse)
	c.emit(opcodes.LoadTrue)
	c.bindIdentifier(exhausted, bindKindAssign)
	c.patch(notDone)
	c.emitOperands(opcodes.GetProp, c.internName("value"))
	// drop the redundant iterator reference IteratorNext re-pushed; the
	// next pull reloads it fresh from iterName.
	c.emit(opcodes.Swap)
	c.emit(opcodes.Pop)
	pushedValue := c.emitJump(opcodes.Jump)

	c.patch(alreadyDone)
	c.emit(opcodes.LoadUndefined)
	c.patch(pushedValue)
}

// destructureArrayRest collects every value left in the iterator into a
// fresh array and binds it to target. The array stays on the data stack
// (DefineComputedProperty peeks rather than pops its receiver, the same
// convention array/object literal construction uses) while idxName, a
// hidden counter binding, tracks the next index to fill.
func (c *Compiler) destructureArrayRest(iterName, exhausted string, target ast.Expression, kind int) {
	c.emit(opcodes.NewArray)
	idxName := c.newTempName()
	c.emit(opcodes.LoadZero)
	c.emitOperands(opcodes.DeclareVar, c.internName(idxName), 1)
	c.emitOperands(opcodes.InitBinding, c.internName(idxName))

	head := c.here()
	c.loadTemp(exhausted)
	done := c.emitJump(opcodes.JumpIfTrue)

	c.loadTemp(iterName)
	c.emit(opcodes.IteratorNext)
	// drop the iterator reference IteratorNext re-pushed under the result
	c.emit(opcodes.Swap)
	c.emit(opcodes.Pop)
	c.emit(opcodes.Dup)
	c.emitOperands(opcodes.GetProp, c.internName("done"))
	notDone := c.emitJump(opcodes.JumpIfFalse)
	c.emit(opcodes.Pop) // drop the exhausted result object; array stays below
	c.emit(opcodes.LoadTrue)
	c.bindIdentifier(exhausted, bindKindAssign)
	c.emitOperands(opcodes.Jump, uint32(head))

	c.patch(notDone)
	c.emitOperands(opcodes.GetProp, c.internName("value"))
	// stack: [array, value]; stash value so idx can be loaded between
	// array and value for DefineComputedProperty's [array, key, value].
	valTmp := c.stashTemp()
	c.loadTemp(idxName)
	c.loadTemp(valTmp)
	c.emit(opcodes.DefineComputedProperty)
	c.loadTemp(idxName)
	c.emit(opcodes.Inc)
	c.bindIdentifier(idxName, bindKindAssign)
	c.emitOperands(opcodes.Jump, uint32(head))

	c.patch(done)
	c.destructureInto(target, kind)
}

func propKeyName(k ast.Expression) string {
	switch v := k.(type) {
	case *ast.Identifier:
		return v.Name
	case *ast.Literal:
		return v.Value.Str
	default:
		return ""
	}
}

// destructureObject implements object pattern destructuring (ECMA-262
// 13.3.3.7): non-computed keys read directly off the stashed source
// object, computed keys read via GetPropComputed, and a trailing rest
// element collects what's left into a fresh object.
func (c *Compiler) destructureObject(t *ast.ObjectPattern, kind int) {
	objTmp := c.stashTemp()
	var restTarget ast.Expression
	var excluded []string
	for _, p := range t.Properties {
		if p.Rest {
			restTarget = p.Value
			continue
		}
		if p.Computed {
			c.loadTemp(objTmp)
			c.compileExpr(p.Key)
			c.emit(opcodes.GetPropComputed)
		} else {
			name := propKeyName(p.Key)
			excluded = append(excluded, name)
			c.loadTemp(objTmp)
			c.emitOperands(opcodes.GetProp, c.internName(name))
		}
		c.destructureInto(p.Value, kind)
	}
	if restTarget != nil {
		c.destructureObjectRest(objTmp, excluded, restTarget, kind)
	}
}

// destructureObjectRest gathers every own enumerable key of the source
// object not already destructured by a non-computed key into a fresh
// object (keys read through a computed pattern key aren't excluded from
// the rest object). GetForInIterator
// enumerates own keys only, so this naturally matches the spec's rest
// semantics without an extra own-vs-inherited filter.
func (c *Compiler) destructureObjectRest(objTmp string, excluded []string, target ast.Expression, kind int) {
	c.emit(opcodes.NewObject)
	restTmp := c.stashTemp()

	c.loadTemp(objTmp)
	c.emit(opcodes.GetForInIterator)
	iterTmp := c.stashTemp()

	head := c.here()
	c.loadTemp(iterTmp)
	c.emit(opcodes.IteratorNext)
	c.emit(opcodes.Swap)
	c.emit(opcodes.Pop)
	c.emit(opcodes.Dup)
	c.emitOperands(opcodes.GetProp, c.internName("done"))
	doneLbl := c.emitJump(opcodes.JumpIfTrue)
	c.emitOperands(opcodes.GetProp, c.internName("value"))
	keyTmp := c.stashTemp()

	var skipJumps []opcodes.Label
	for _, name := range excluded {
		c.loadTemp(keyTmp)
		c.loadConst(values.StringFromGo(name))
		c.emit(opcodes.StrictEq)
		skipJumps = append(skipJumps, c.emitJump(opcodes.JumpIfTrue))
	}

	c.loadTemp(objTmp)
	c.loadTemp(keyTmp)
	c.emit(opcodes.GetPropComputed)
	valTmp := c.stashTemp()
	c.loadTemp(restTmp)
	c.loadTemp(keyTmp)
	c.loadTemp(valTmp)
	c.emit(opcodes.DefineComputedProperty)
	c.emit(opcodes.Pop)

	for _, l := range skipJumps {
		c.patch(l)
	}
	c.emitOperands(opcodes.Jump, uint32(head))

	c.patch(doneLbl)
	c.emit(opcodes.Pop) // drop the iterator's final result object
	c.loadTemp(iterTmp)
	c.emit(opcodes.IteratorClose)
	c.loadTemp(restTmp)
	c.destructureInto(target, kind)
}
