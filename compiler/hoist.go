package compiler

import (
	"github.com/wudi/vela/ast"
	"github.com/wudi/vela/opcodes"
)

// bindingNames flattens a declaration target (identifier or destructuring
// pattern) into the list of names it binds, used both for var hoisting
// and for desugaring a destructuring declarator/assignment.
func bindingNames(target ast.Expression) []string {
	switch t := target.(type) {
	case *ast.Identifier:
		return []string{t.Name}
	case *ast.AssignmentPattern:
		return bindingNames(t.Target)
	case *ast.ArrayPattern:
		var out []string
		for _, el := range t.Elements {
			if el.Target != nil {
				out = append(out, bindingNames(el.Target)...)
			}
		}
		return out
	case *ast.ObjectPattern:
		var out []string
		for _, p := range t.Properties {
			out = append(out, bindingNames(p.Value)...)
		}
		return out
	default:
		return nil
	}
}

// hoistBlock pre-declares every `var` binding and function declaration
// reachable from stmts without crossing into a nested function scope
// (ECMA-262 "VarDeclaredNames"/function hoisting), then compiles each
// function declaration's literal immediately so later statements in the
// same block can call it before its textual position.
func (c *Compiler) hoistBlock(stmts []ast.Statement) {
	var varNames []string
	for _, s := range stmts {
		collectVarNames(s, &varNames)
	}
	seen := map[string]bool{}
	for _, name := range varNames {
		if seen[name] {
			continue
		}
		seen[name] = true
		c.emitOperands(opcodes.DeclareVar, c.internName(name), 0)
	}
	for _, s := range stmts {
		if fd, ok := s.(*ast.FunctionDeclaration); ok {
			c.compileHoistedFunctionDecl(fd)
		}
	}
}

func collectVarNames(s ast.Statement, out *[]string) {
	switch n := s.(type) {
	case *ast.VariableDeclaration:
		if n.Kind == ast.VarVar {
			for _, d := range n.Declarations {
				*out = append(*out, bindingNames(d.Target)...)
			}
		}
	case *ast.BlockStatement:
		for _, st := range n.Body {
			collectVarNames(st, out)
		}
	case *ast.IfStatement:
		collectVarNames(n.Consequent, out)
		if n.Alternate != nil {
			collectVarNames(n.Alternate, out)
		}
	case *ast.ForStatement:
		if decl, ok := n.Init.(*ast.VariableDeclaration); ok && decl.Kind == ast.VarVar {
			for _, d := range decl.Declarations {
				*out = append(*out, bindingNames(d.Target)...)
			}
		}
		collectVarNames(n.Body, out)
	case *ast.ForInStatement:
		if n.IsDecl && n.DeclKind == ast.VarVar {
			*out = append(*out, bindingNames(n.Left)...)
		}
		collectVarNames(n.Body, out)
	case *ast.ForOfStatement:
		if n.IsDecl && n.DeclKind == ast.VarVar {
			*out = append(*out, bindingNames(n.Left)...)
		}
		collectVarNames(n.Body, out)
	case *ast.WhileStatement:
		collectVarNames(n.Body, out)
	case *ast.DoWhileStatement:
		collectVarNames(n.Body, out)
	case *ast.TryStatement:
		for _, st := range n.Block.Body {
			collectVarNames(st, out)
		}
		if n.Handler != nil {
			for _, st := range n.Handler.Body.Body {
				collectVarNames(st, out)
			}
		}
		if n.Finalizer != nil {
			for _, st := range n.Finalizer.Body {
				collectVarNames(st, out)
			}
		}
	case *ast.LabeledStatement:
		collectVarNames(n.Body, out)
	case *ast.SwitchStatement:
		for _, cs := range n.Cases {
			for _, st := range cs.Consequent {
				collectVarNames(st, out)
			}
		}
	}
}
