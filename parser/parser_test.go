package parser

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/wudi/vela/ast"
)

func parseProgram(t *testing.T, src string) *ast.Program {
	t.Helper()
	prog, err := Parse([]byte(src))
	require.Nil(t, err, "unexpected parse error: %v", err)
	require.NotNil(t, prog)
	return prog
}

func TestParseVariableDeclarations(t *testing.T) {
	prog := parseProgram(t, `let a = 1, b = a + 2; const c = b;`)
	require.Len(t, prog.Body, 2)
	d := prog.Body[0].(*ast.VariableDeclaration)
	assert.Equal(t, ast.VarLet, d.Kind)
	require.Len(t, d.Declarations, 2)
	assert.Equal(t, "a", d.Declarations[0].Target.(*ast.Identifier).Name)
}

func TestParseFunctionDeclarationAndCall(t *testing.T) {
	prog := parseProgram(t, `function add(a, b) { return a + b; } add(1, 2);`)
	require.Len(t, prog.Body, 2)
	fn := prog.Body[0].(*ast.FunctionDeclaration)
	assert.Equal(t, "add", fn.Name)
	require.Len(t, fn.Params, 2)
	es := prog.Body[1].(*ast.ExpressionStatement)
	call := es.Expr.(*ast.CallExpression)
	assert.Len(t, call.Arguments, 2)
}

func TestParseArrowFunctionVsParenExpression(t *testing.T) {
	prog := parseProgram(t, `let f = (x, y) => x + y; let g = (1 + 2) * 3;`)
	f := prog.Body[0].(*ast.VariableDeclaration).Declarations[0].Init.(*ast.ArrowFunctionExpression)
	assert.Len(t, f.Params, 2)
	_, isExpr := f.Body.(ast.Expression)
	assert.True(t, isExpr)

	g := prog.Body[1].(*ast.VariableDeclaration).Declarations[0].Init
	_, isBinary := g.(*ast.BinaryExpression)
	assert.True(t, isBinary)
}

func TestParseSingleIdentArrow(t *testing.T) {
	prog := parseProgram(t, `let inc = x => x + 1;`)
	f := prog.Body[0].(*ast.VariableDeclaration).Declarations[0].Init.(*ast.ArrowFunctionExpression)
	require.Len(t, f.Params, 1)
	assert.Equal(t, "x", f.Params[0].(*ast.Identifier).Name)
}

func TestParseIfElseWhileFor(t *testing.T) {
	prog := parseProgram(t, `
		if (a) { b(); } else { c(); }
		while (a < 10) { a++; }
		for (let i = 0; i < 10; i = i + 1) { total += i; }
	`)
	require.Len(t, prog.Body, 3)
	_, ok := prog.Body[0].(*ast.IfStatement)
	assert.True(t, ok)
	_, ok = prog.Body[1].(*ast.WhileStatement)
	assert.True(t, ok)
	forStmt, ok := prog.Body[2].(*ast.ForStatement)
	require.True(t, ok)
	_, ok = forStmt.Init.(*ast.VariableDeclaration)
	assert.True(t, ok)
}

func TestParseForOfAndForIn(t *testing.T) {
	prog := parseProgram(t, `
		for (const item of items) { use(item); }
		for (const key in obj) { use(key); }
	`)
	require.Len(t, prog.Body, 2)
	ofStmt := prog.Body[0].(*ast.ForOfStatement)
	assert.True(t, ofStmt.IsDecl)
	assert.Equal(t, ast.VarConst, ofStmt.DeclKind)
	inStmt := prog.Body[1].(*ast.ForInStatement)
	assert.True(t, inStmt.IsDecl)
}

func TestParseClassWithMethodsAndGetters(t *testing.T) {
	prog := parseProgram(t, `
		class Point extends Base {
			constructor(x, y) { this.x = x; this.y = y; }
			get sum() { return this.x + this.y; }
			static origin() { return new Point(0, 0); }
		}
	`)
	cls := prog.Body[0].(*ast.ClassDeclaration)
	assert.Equal(t, "Point", cls.Name)
	require.NotNil(t, cls.SuperClass)
	require.Len(t, cls.Body, 3)
	assert.Equal(t, ast.MethodKind, cls.Body[0].Kind)
	assert.Equal(t, ast.GetterKind, cls.Body[1].Kind)
	assert.True(t, cls.Body[2].Static)
}

func TestParseTryCatchFinally(t *testing.T) {
	prog := parseProgram(t, `
		try { risky(); } catch (e) { handle(e); } finally { cleanup(); }
	`)
	tryStmt := prog.Body[0].(*ast.TryStatement)
	require.NotNil(t, tryStmt.Handler)
	require.NotNil(t, tryStmt.Finalizer)
	assert.Equal(t, "e", tryStmt.Handler.Param.(*ast.Identifier).Name)
}

func TestParseSwitchStatement(t *testing.T) {
	prog := parseProgram(t, `
		switch (x) {
		case 1:
			a();
			break;
		default:
			b();
		}
	`)
	sw := prog.Body[0].(*ast.SwitchStatement)
	require.Len(t, sw.Cases, 2)
	assert.NotNil(t, sw.Cases[0].Test)
	assert.Nil(t, sw.Cases[1].Test)
}

func TestParseDestructuringDeclarations(t *testing.T) {
	prog := parseProgram(t, `let [a, , b, ...rest] = arr; let {x, y: z, ...others} = obj;`)
	d1 := prog.Body[0].(*ast.VariableDeclaration).Declarations[0]
	arrPat := d1.Target.(*ast.ArrayPattern)
	require.Len(t, arrPat.Elements, 4)
	assert.Nil(t, arrPat.Elements[1].Target)
	assert.True(t, arrPat.Elements[3].Rest)

	d2 := prog.Body[1].(*ast.VariableDeclaration).Declarations[0]
	objPat := d2.Target.(*ast.ObjectPattern)
	require.Len(t, objPat.Properties, 3)
	assert.True(t, objPat.Properties[2].Rest)
}

func TestParseTemplateLiteralWithSubstitutions(t *testing.T) {
	prog := parseProgram(t, "let s = `hello ${name}, total is ${a + b}`;")
	tmpl := prog.Body[0].(*ast.VariableDeclaration).Declarations[0].Init.(*ast.TemplateLiteral)
	require.Len(t, tmpl.Quasis, 3)
	require.Len(t, tmpl.Expressions, 2)
	assert.Equal(t, "name", tmpl.Expressions[0].(*ast.Identifier).Name)
	_, isBinary := tmpl.Expressions[1].(*ast.BinaryExpression)
	assert.True(t, isBinary)
}

func TestParseObjectLiteralWithMethodsAndShorthand(t *testing.T) {
	prog := parseProgram(t, `let o = { a, b: 2, greet() { return 1; }, get c() { return 3; } };`)
	obj := prog.Body[0].(*ast.VariableDeclaration).Declarations[0].Init.(*ast.ObjectLiteral)
	require.Len(t, obj.Properties, 4)
	assert.True(t, obj.Properties[0].Shorthand)
	assert.Equal(t, "method", obj.Properties[2].Kind)
	assert.Equal(t, "get", obj.Properties[3].Kind)
}

func TestParseOptionalChainingAndNullish(t *testing.T) {
	prog := parseProgram(t, `let v = a?.b?.[0] ?? fallback;`)
	init := prog.Body[0].(*ast.VariableDeclaration).Declarations[0].Init
	logical := init.(*ast.LogicalExpression)
	assert.Equal(t, "??", logical.Operator)
	member := logical.Left.(*ast.MemberExpression)
	assert.True(t, member.Computed)
	assert.True(t, member.Optional)
}

func TestParseGeneratorAndYield(t *testing.T) {
	prog := parseProgram(t, `function* gen() { yield 1; yield* other(); }`)
	fn := prog.Body[0].(*ast.FunctionDeclaration)
	assert.True(t, fn.Generator)
	y1 := fn.Body.Body[0].(*ast.ExpressionStatement).Expr.(*ast.YieldExpression)
	assert.False(t, y1.Delegate)
	y2 := fn.Body.Body[1].(*ast.ExpressionStatement).Expr.(*ast.YieldExpression)
	assert.True(t, y2.Delegate)
}

func TestParseAsyncAwait(t *testing.T) {
	prog := parseProgram(t, `async function run() { let v = await fetchThing(); return v; }`)
	fn := prog.Body[0].(*ast.FunctionDeclaration)
	assert.True(t, fn.Async)
	decl := fn.Body.Body[0].(*ast.VariableDeclaration)
	_, isAwait := decl.Declarations[0].Init.(*ast.AwaitExpression)
	assert.True(t, isAwait)
}

func TestParseCompoundAndLogicalAssignment(t *testing.T) {
	prog := parseProgram(t, `a += 1; b ??= 2; c &&= d;`)
	s1 := prog.Body[0].(*ast.ExpressionStatement).Expr.(*ast.AssignmentExpression)
	assert.Equal(t, "+=", s1.Operator)
	s2 := prog.Body[1].(*ast.ExpressionStatement).Expr.(*ast.AssignmentExpression)
	assert.Equal(t, "??=", s2.Operator)
	s3 := prog.Body[2].(*ast.ExpressionStatement).Expr.(*ast.AssignmentExpression)
	assert.Equal(t, "&&=", s3.Operator)
}

func TestParseExponentRightAssociative(t *testing.T) {
	prog := parseProgram(t, `let r = 2 ** 3 ** 2;`)
	bin := prog.Body[0].(*ast.VariableDeclaration).Declarations[0].Init.(*ast.BinaryExpression)
	assert.Equal(t, "**", bin.Operator)
	_, rightIsBinary := bin.Right.(*ast.BinaryExpression)
	assert.True(t, rightIsBinary)
}

func TestParseLabeledBreakContinue(t *testing.T) {
	prog := parseProgram(t, `outer: for (;;) { break outer; }`)
	label := prog.Body[0].(*ast.LabeledStatement)
	assert.Equal(t, "outer", label.Label)
}

func TestParseRestParamRejected(t *testing.T) {
	_, err := Parse([]byte(`function f(...rest) {}`))
	require.NotNil(t, err)
	assert.Equal(t, "SyntaxError", err.Kind.String())
}

func TestParseSpreadCallArgumentRejected(t *testing.T) {
	_, err := Parse([]byte(`f(...args);`))
	require.NotNil(t, err)
}
