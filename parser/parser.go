// Package parser is the engine's built-in stand-in for the external
// grammar collaborator spec §1/§6 places out of core scope: "a tiny
// recursive-descent stand-in sufficient to exercise the whole pipeline
// end-to-end, not a full ECMAScript grammar" (SPEC_FULL §3). It
// satisfies engine.Parser so a host can swap in a complete grammar
// without touching the compiler or VM.
package parser

import (
	"strconv"
	"strings"

	"github.com/wudi/vela/ast"
	"github.com/wudi/vela/errors"
	"github.com/wudi/vela/lexer"
)

// parseError is recovered at Parse's top level and turned into the
// *errors.Error the Parser interface promises; panicking keeps every
// inner parse* method's signature free of an error return, matching
// the teacher's Pratt parser's "accumulate then bail" posture but
// fail-fast since this stand-in has no error-recovery story.
type parseError struct{ err *errors.Error }

// Parser walks a token stream with one token of lookahead (p.peek)
// beyond the current one (p.cur).
type Parser struct {
	lex       *lexer.Lexer
	cur, peek lexer.Token
	noIn      bool // suppresses treating `in` as a relational operator while parsing a classic for-loop's init clause
}

func New(src string) *Parser {
	p := &Parser{lex: lexer.New(src)}
	p.next()
	p.next()
	return p
}

// Parse implements engine.Parser.
func Parse(src []byte) (prog *ast.Program, err *errors.Error) {
	defer func() {
		if r := recover(); r != nil {
			if pe, ok := r.(parseError); ok {
				err = pe.err
				return
			}
			panic(r)
		}
	}()
	p := New(string(src))
	return p.parseProgram(), nil
}

func (p *Parser) next() {
	p.cur = p.peek
	p.peek = p.lex.Next()
}

func (p *Parser) span() errors.Span {
	return errors.Span{Line: p.cur.Pos.Line, Column: p.cur.Pos.Column, Offset: p.cur.Pos.Offset, End: p.cur.Pos.Offset + len(p.cur.Value)}
}

func (p *Parser) fail(format string, args ...interface{}) {
	panic(parseError{errors.New(errors.SyntaxError, p.span(), format, args...)})
}

func (p *Parser) expect(t lexer.TokenType, what string) lexer.Token {
	if p.cur.Type != t {
		p.fail("expected %s, got %q", what, p.cur.Value)
	}
	tok := p.cur
	p.next()
	return tok
}

func (p *Parser) at(t lexer.TokenType) bool    { return p.cur.Type == t }
func (p *Parser) atKw(kw string) bool          { return p.cur.IsKeyword(kw) }
func (p *Parser) accept(t lexer.TokenType) bool {
	if p.at(t) {
		p.next()
		return true
	}
	return false
}
func (p *Parser) acceptKw(kw string) bool {
	if p.atKw(kw) {
		p.next()
		return true
	}
	return false
}

// semicolon implements a minimal automatic-semicolon-insertion rule: an
// explicit `;` is consumed; otherwise a `}` , EOF, or a line break
// before the next token lets the statement end silently (ECMA-262 §12.9).
func (p *Parser) semicolon() {
	if p.accept(lexer.SEMI) {
		return
	}
	if p.at(lexer.RBRACE) || p.at(lexer.EOF) || p.cur.NewlineBefore {
		return
	}
	p.fail("expected ';', got %q", p.cur.Value)
}

// --- Program & statements ---

func (p *Parser) parseProgram() *ast.Program {
	start := p.span()
	var body []ast.Statement
	for !p.at(lexer.EOF) {
		body = append(body, p.parseStatement())
	}
	return &ast.Program{Base: ast.Base{SpanVal: start}, Body: body}
}

func (p *Parser) parseStatement() ast.Statement {
	switch {
	case p.at(lexer.LBRACE):
		return p.parseBlock()
	case p.atKw("var"), p.atKw("let"), p.atKw("const"):
		d := p.parseVariableDeclaration()
		p.semicolon()
		return d
	case p.atKw("function"):
		return p.parseFunctionDeclaration()
	case p.atKw("async") && p.peekIsFunction():
		return p.parseFunctionDeclaration()
	case p.atKw("class"):
		return p.parseClassDeclaration()
	case p.atKw("if"):
		return p.parseIf()
	case p.atKw("while"):
		return p.parseWhile()
	case p.atKw("do"):
		return p.parseDoWhile()
	case p.atKw("for"):
		return p.parseFor()
	case p.atKw("return"):
		return p.parseReturn()
	case p.atKw("break"):
		return p.parseBreakContinue(true)
	case p.atKw("continue"):
		return p.parseBreakContinue(false)
	case p.atKw("throw"):
		return p.parseThrow()
	case p.atKw("try"):
		return p.parseTry()
	case p.atKw("switch"):
		return p.parseSwitch()
	case p.at(lexer.SEMI):
		start := p.span()
		p.next()
		return &ast.BlockStatement{Base: ast.Base{SpanVal: start}}
	case p.at(lexer.IDENT) && p.peek.Type == lexer.COLON:
		return p.parseLabeled()
	default:
		start := p.span()
		e := p.parseExpression()
		p.semicolon()
		return &ast.ExpressionStatement{Base: ast.Base{SpanVal: start}, Expr: e}
	}
}

func (p *Parser) peekIsFunction() bool {
	// lookahead beyond peek isn't buffered; async-function detection only
	// needs to know the token after `async`, which IS p.peek here since
	// `async` itself is p.cur.
	return p.peek.IsKeyword("function")
}

func (p *Parser) parseBlock() *ast.BlockStatement {
	start := p.span()
	p.expect(lexer.LBRACE, "'{'")
	var body []ast.Statement
	for !p.at(lexer.RBRACE) && !p.at(lexer.EOF) {
		body = append(body, p.parseStatement())
	}
	p.expect(lexer.RBRACE, "'}'")
	return &ast.BlockStatement{Base: ast.Base{SpanVal: start}, Body: body}
}

func (p *Parser) declKind() ast.VariableKind {
	switch p.cur.Value {
	case "let":
		return ast.VarLet
	case "const":
		return ast.VarConst
	default:
		return ast.VarVar
	}
}

func (p *Parser) parseVariableDeclaration() *ast.VariableDeclaration {
	start := p.span()
	kind := p.declKind()
	p.next()
	var decls []ast.VariableDeclarator
	for {
		dstart := p.span()
		target := p.parseBindingTarget()
		var init ast.Expression
		if p.accept(lexer.ASSIGN) {
			init = p.parseAssignExpr()
		}
		decls = append(decls, ast.VariableDeclarator{Base: ast.Base{SpanVal: dstart}, Target: target, Init: init})
		if !p.accept(lexer.COMMA) {
			break
		}
	}
	return &ast.VariableDeclaration{Base: ast.Base{SpanVal: start}, Kind: kind, Declarations: decls}
}

// parseBindingTarget parses a binding position (declarator target,
// parameter, catch parameter): an identifier or a destructuring
// pattern, with `= default` wrapped in an AssignmentPattern. Rest
// bindings (`...rest`) have no backing AST node and are rejected.
func (p *Parser) parseBindingTarget() ast.Expression {
	var target ast.Expression
	switch {
	case p.at(lexer.LBRACKET):
		target = p.parseArrayPattern()
	case p.at(lexer.LBRACE):
		target = p.parseObjectPattern()
	case p.at(lexer.DOTDOTDOT):
		p.fail("rest elements are not supported")
		return nil
	default:
		target = p.parseIdentifier()
	}
	if p.accept(lexer.ASSIGN) {
		def := p.parseAssignExpr()
		return &ast.AssignmentPattern{Base: ast.Base{SpanVal: target.Span()}, Target: target, Default: def}
	}
	return target
}

func (p *Parser) parseArrayPattern() *ast.ArrayPattern {
	start := p.span()
	p.expect(lexer.LBRACKET, "'['")
	var elems []ast.ArrayPatternElement
	for !p.at(lexer.RBRACKET) {
		if p.accept(lexer.COMMA) {
			elems = append(elems, ast.ArrayPatternElement{})
			continue
		}
		if p.accept(lexer.DOTDOTDOT) {
			elems = append(elems, ast.ArrayPatternElement{Target: p.parseBindingTarget(), Rest: true})
		} else {
			elems = append(elems, ast.ArrayPatternElement{Target: p.parseBindingTarget()})
		}
		if !p.at(lexer.RBRACKET) {
			p.expect(lexer.COMMA, "','")
		}
	}
	p.expect(lexer.RBRACKET, "']'")
	return &ast.ArrayPattern{Base: ast.Base{SpanVal: start}, Elements: elems}
}

func (p *Parser) parseObjectPattern() *ast.ObjectPattern {
	start := p.span()
	p.expect(lexer.LBRACE, "'{'")
	var props []ast.ObjectPatternProperty
	for !p.at(lexer.RBRACE) {
		if p.accept(lexer.DOTDOTDOT) {
			props = append(props, ast.ObjectPatternProperty{Value: p.parseBindingTarget(), Rest: true})
			if !p.at(lexer.RBRACE) {
				p.expect(lexer.COMMA, "','")
			}
			continue
		}
		computed := false
		var key ast.Expression
		if p.accept(lexer.LBRACKET) {
			computed = true
			key = p.parseAssignExpr()
			p.expect(lexer.RBRACKET, "']'")
		} else {
			key = p.parsePropertyKey()
		}
		var value ast.Expression
		if p.accept(lexer.COLON) {
			value = p.parseBindingTarget()
		} else {
			// shorthand { a } or { a = def }
			id := key.(*ast.Identifier)
			if p.accept(lexer.ASSIGN) {
				value = &ast.AssignmentPattern{Base: ast.Base{SpanVal: id.Span()}, Target: id, Default: p.parseAssignExpr()}
			} else {
				value = id
			}
		}
		props = append(props, ast.ObjectPatternProperty{Key: key, Computed: computed, Value: value})
		if !p.at(lexer.RBRACE) {
			p.expect(lexer.COMMA, "','")
		}
	}
	p.expect(lexer.RBRACE, "'}'")
	return &ast.ObjectPattern{Base: ast.Base{SpanVal: start}, Properties: props}
}

func (p *Parser) parsePropertyKey() ast.Expression {
	start := p.span()
	switch p.cur.Type {
	case lexer.STRING:
		v := p.cur.Value
		p.next()
		return &ast.Literal{Base: ast.Base{SpanVal: start}, Value: ast.LiteralValue{Kind: ast.LitString, Str: v}}
	case lexer.NUMBER:
		return p.parseNumberLiteral()
	default:
		return p.parseIdentifierLike()
	}
}

// parseIdentifierLike accepts a KEYWORD token as a plain name where the
// grammar position unambiguously wants an identifier (property keys,
// method names): `get`, `set`, `async`, `of`, `static` and similar
// contextual keywords are common property names in real-world code.
func (p *Parser) parseIdentifierLike() *ast.Identifier {
	start := p.span()
	if p.cur.Type != lexer.IDENT && p.cur.Type != lexer.KEYWORD {
		p.fail("expected identifier, got %q", p.cur.Value)
	}
	name := p.cur.Value
	p.next()
	return &ast.Identifier{Base: ast.Base{SpanVal: start}, Name: name}
}

func (p *Parser) parseIdentifier() *ast.Identifier {
	start := p.span()
	tok := p.expect(lexer.IDENT, "identifier")
	return &ast.Identifier{Base: ast.Base{SpanVal: start}, Name: tok.Value}
}

func (p *Parser) parseNumberLiteral() *ast.Literal {
	start := p.span()
	text := p.cur.Value
	p.next()
	if strings.HasSuffix(text, "n") {
		return &ast.Literal{Base: ast.Base{SpanVal: start}, Value: ast.LiteralValue{Kind: ast.LitBigInt, Str: strings.TrimSuffix(text, "n")}}
	}
	f, _ := strconv.ParseFloat(text, 64)
	return &ast.Literal{Base: ast.Base{SpanVal: start}, Value: ast.LiteralValue{Kind: ast.LitNumber, Num: f}}
}

func (p *Parser) parseFunctionDeclaration() *ast.FunctionDeclaration {
	start := p.span()
	async := p.acceptKw("async")
	p.expect(lexer.KEYWORD, "'function'") // already confirmed == "function" by caller
	gen := p.accept(lexer.STAR)
	name := p.parseIdentifier().Name
	params := p.parseParams()
	body := p.parseBlock()
	return &ast.FunctionDeclaration{Base: ast.Base{SpanVal: start}, Name: name, Params: params, Body: body, Generator: gen, Async: async}
}

func (p *Parser) parseParams() []ast.Expression {
	p.expect(lexer.LPAREN, "'('")
	var params []ast.Expression
	for !p.at(lexer.RPAREN) {
		params = append(params, p.parseBindingTarget())
		if !p.at(lexer.RPAREN) {
			p.expect(lexer.COMMA, "','")
		}
	}
	p.expect(lexer.RPAREN, "')'")
	return params
}

func (p *Parser) parseClassDeclaration() *ast.ClassDeclaration {
	start := p.span()
	p.next() // 'class'
	name := p.parseIdentifier().Name
	var super ast.Expression
	if p.acceptKw("extends") {
		super = p.parseLeftHandSideExpression()
	}
	body := p.parseClassBody()
	return &ast.ClassDeclaration{Base: ast.Base{SpanVal: start}, Name: name, SuperClass: super, Body: body}
}

func (p *Parser) parseClassBody() []ast.ClassMember {
	p.expect(lexer.LBRACE, "'{'")
	var members []ast.ClassMember
	for !p.at(lexer.RBRACE) && !p.at(lexer.EOF) {
		if p.accept(lexer.SEMI) {
			continue
		}
		members = append(members, p.parseClassMember())
	}
	p.expect(lexer.RBRACE, "'}'")
	return members
}

func (p *Parser) parseClassMember() ast.ClassMember {
	start := p.span()
	static := p.acceptKw("static")
	kind := ast.MethodKind
	if (p.atKw("get") || p.atKw("set")) && !p.peekStartsCallOrAssign() {
		if p.cur.Value == "get" {
			kind = ast.GetterKind
		} else {
			kind = ast.SetterKind
		}
		p.next()
	}
	async := false
	gen := false
	if p.atKw("async") && !p.peekStartsCallOrAssign() {
		async = true
		p.next()
	}
	if p.accept(lexer.STAR) {
		gen = true
	}
	computed := false
	var keyExpr ast.Expression
	var key string
	if p.accept(lexer.LBRACKET) {
		computed = true
		keyExpr = p.parseAssignExpr()
		p.expect(lexer.RBRACKET, "']'")
	} else {
		key = p.parsePropertyKey().(*ast.Identifier).Name
	}
	if p.at(lexer.LPAREN) {
		params := p.parseParams()
		body := p.parseBlock()
		fn := &ast.FunctionExpression{Base: ast.Base{SpanVal: start}, Name: key, Params: params, Body: body, Generator: gen, Async: async}
		return ast.ClassMember{Base: ast.Base{SpanVal: start}, Kind: kind, Static: static, Key: key, Computed: computed, KeyExpr: keyExpr, Function: fn}
	}
	var value ast.Expression
	if p.accept(lexer.ASSIGN) {
		value = p.parseAssignExpr()
	}
	p.semicolon()
	return ast.ClassMember{Base: ast.Base{SpanVal: start}, Kind: ast.FieldKind, Static: static, Key: key, Computed: computed, KeyExpr: keyExpr, Value: value}
}

// peekStartsCallOrAssign distinguishes `get(` (a method literally named
// "get") from `get foo() {}` (a getter named foo): if what follows the
// contextual keyword is itself `(`, the keyword was the member name.
func (p *Parser) peekStartsCallOrAssign() bool {
	return p.peek.Type == lexer.LPAREN
}

func (p *Parser) parseIf() ast.Statement {
	start := p.span()
	p.next()
	p.expect(lexer.LPAREN, "'('")
	test := p.parseExpression()
	p.expect(lexer.RPAREN, "')'")
	cons := p.parseStatement()
	var alt ast.Statement
	if p.acceptKw("else") {
		alt = p.parseStatement()
	}
	return &ast.IfStatement{Base: ast.Base{SpanVal: start}, Test: test, Consequent: cons, Alternate: alt}
}

func (p *Parser) parseWhile() ast.Statement {
	start := p.span()
	p.next()
	p.expect(lexer.LPAREN, "'('")
	test := p.parseExpression()
	p.expect(lexer.RPAREN, "')'")
	body := p.parseStatement()
	return &ast.WhileStatement{Base: ast.Base{SpanVal: start}, Test: test, Body: body}
}

func (p *Parser) parseDoWhile() ast.Statement {
	start := p.span()
	p.next()
	body := p.parseStatement()
	if !p.acceptKw("while") {
		p.fail("expected 'while'")
	}
	p.expect(lexer.LPAREN, "'('")
	test := p.parseExpression()
	p.expect(lexer.RPAREN, "')'")
	p.semicolon()
	return &ast.DoWhileStatement{Base: ast.Base{SpanVal: start}, Body: body, Test: test}
}

func (p *Parser) parseFor() ast.Statement {
	start := p.span()
	p.next()
	p.expect(lexer.LPAREN, "'('")

	var init ast.Node
	var declKind ast.VariableKind
	if p.atKw("var") || p.atKw("let") || p.atKw("const") {
		declKind = p.declKind()
		declStart := p.span()
		p.next()
		target := p.parseBindingTarget()
		if p.atKw("in") || p.atKw("of") {
			isOf := p.cur.Value == "of"
			p.next()
			right := p.parseAssignExpr()
			p.expect(lexer.RPAREN, "')'")
			body := p.parseStatement()
			if isOf {
				return &ast.ForOfStatement{Base: ast.Base{SpanVal: start}, DeclKind: declKind, IsDecl: true, Left: target, Right: right, Body: body}
			}
			return &ast.ForInStatement{Base: ast.Base{SpanVal: start}, DeclKind: declKind, IsDecl: true, Left: target, Right: right, Body: body}
		}
		var initExpr ast.Expression
		if p.accept(lexer.ASSIGN) {
			initExpr = p.parseAssignExpr()
		}
		decls := []ast.VariableDeclarator{{Base: ast.Base{SpanVal: declStart}, Target: target, Init: initExpr}}
		for p.accept(lexer.COMMA) {
			t2 := p.parseBindingTarget()
			var i2 ast.Expression
			if p.accept(lexer.ASSIGN) {
				i2 = p.parseAssignExpr()
			}
			decls = append(decls, ast.VariableDeclarator{Base: ast.Base{SpanVal: t2.Span()}, Target: t2, Init: i2})
		}
		init = &ast.VariableDeclaration{Base: ast.Base{SpanVal: declStart}, Kind: declKind, Declarations: decls}
	} else if !p.at(lexer.SEMI) {
		p.noIn = true
		left := p.parseExpression()
		p.noIn = false
		if p.atKw("in") || p.atKw("of") {
			isOf := p.cur.Value == "of"
			p.next()
			right := p.parseAssignExpr()
			p.expect(lexer.RPAREN, "')'")
			body := p.parseStatement()
			if isOf {
				return &ast.ForOfStatement{Base: ast.Base{SpanVal: start}, IsDecl: false, Left: left, Right: right, Body: body}
			}
			return &ast.ForInStatement{Base: ast.Base{SpanVal: start}, IsDecl: false, Left: left, Right: right, Body: body}
		}
		init = left
	}

	p.expect(lexer.SEMI, "';'")
	var test ast.Expression
	if !p.at(lexer.SEMI) {
		test = p.parseExpression()
	}
	p.expect(lexer.SEMI, "';'")
	var update ast.Expression
	if !p.at(lexer.RPAREN) {
		update = p.parseExpression()
	}
	p.expect(lexer.RPAREN, "')'")
	body := p.parseStatement()
	return &ast.ForStatement{Base: ast.Base{SpanVal: start}, Init: init, Test: test, Update: update, Body: body}
}

func (p *Parser) parseReturn() ast.Statement {
	start := p.span()
	p.next()
	var arg ast.Expression
	if !p.at(lexer.SEMI) && !p.at(lexer.RBRACE) && !p.at(lexer.EOF) && !p.cur.NewlineBefore {
		arg = p.parseExpression()
	}
	p.semicolon()
	return &ast.ReturnStatement{Base: ast.Base{SpanVal: start}, Argument: arg}
}

func (p *Parser) parseBreakContinue(isBreak bool) ast.Statement {
	start := p.span()
	p.next()
	label := ""
	if p.at(lexer.IDENT) && !p.cur.NewlineBefore {
		label = p.cur.Value
		p.next()
	}
	p.semicolon()
	if isBreak {
		return &ast.BreakStatement{Base: ast.Base{SpanVal: start}, Label: label}
	}
	return &ast.ContinueStatement{Base: ast.Base{SpanVal: start}, Label: label}
}

func (p *Parser) parseThrow() ast.Statement {
	start := p.span()
	p.next()
	arg := p.parseExpression()
	p.semicolon()
	return &ast.ThrowStatement{Base: ast.Base{SpanVal: start}, Argument: arg}
}

func (p *Parser) parseTry() ast.Statement {
	start := p.span()
	p.next()
	block := p.parseBlock()
	var handler *ast.CatchClause
	var finalizer *ast.BlockStatement
	if p.acceptKw("catch") {
		cstart := p.span()
		var param ast.Expression
		if p.accept(lexer.LPAREN) {
			param = p.parseBindingTarget()
			p.expect(lexer.RPAREN, "')'")
		}
		body := p.parseBlock()
		handler = &ast.CatchClause{Base: ast.Base{SpanVal: cstart}, Param: param, Body: body}
	}
	if p.acceptKw("finally") {
		finalizer = p.parseBlock()
	}
	return &ast.TryStatement{Base: ast.Base{SpanVal: start}, Block: block, Handler: handler, Finalizer: finalizer}
}

func (p *Parser) parseSwitch() ast.Statement {
	start := p.span()
	p.next()
	p.expect(lexer.LPAREN, "'('")
	disc := p.parseExpression()
	p.expect(lexer.RPAREN, "')'")
	p.expect(lexer.LBRACE, "'{'")
	var cases []ast.SwitchCase
	for !p.at(lexer.RBRACE) && !p.at(lexer.EOF) {
		cstart := p.span()
		var test ast.Expression
		if p.acceptKw("case") {
			test = p.parseExpression()
		} else if !p.acceptKw("default") {
			p.fail("expected 'case' or 'default'")
		}
		p.expect(lexer.COLON, "':'")
		var body []ast.Statement
		for !p.atKw("case") && !p.atKw("default") && !p.at(lexer.RBRACE) && !p.at(lexer.EOF) {
			body = append(body, p.parseStatement())
		}
		cases = append(cases, ast.SwitchCase{Base: ast.Base{SpanVal: cstart}, Test: test, Consequent: body})
	}
	p.expect(lexer.RBRACE, "'}'")
	return &ast.SwitchStatement{Base: ast.Base{SpanVal: start}, Discriminant: disc, Cases: cases}
}

func (p *Parser) parseLabeled() ast.Statement {
	start := p.span()
	label := p.cur.Value
	p.next()
	p.next() // ':'
	body := p.parseStatement()
	return &ast.LabeledStatement{Base: ast.Base{SpanVal: start}, Label: label, Body: body}
}

// --- Expressions ---

// checkpoint snapshots enough parser state to backtrack a speculative
// parse (used to disambiguate an arrow function's parameter list from a
// parenthesized expression, which share a prefix).
type checkpoint struct {
	lex       lexer.Lexer
	cur, peek lexer.Token
}

func (p *Parser) mark() checkpoint {
	return checkpoint{lex: *p.lex, cur: p.cur, peek: p.peek}
}

func (p *Parser) reset(c checkpoint) {
	l := c.lex
	p.lex = &l
	p.cur = c.cur
	p.peek = c.peek
}

var assignOps = map[lexer.TokenType]string{
	lexer.ASSIGN:          "=",
	lexer.PLUS_ASSIGN:     "+=",
	lexer.MINUS_ASSIGN:    "-=",
	lexer.STAR_ASSIGN:     "*=",
	lexer.SLASH_ASSIGN:    "/=",
	lexer.PERCENT_ASSIGN:  "%=",
	lexer.STARSTAR_ASSIGN: "**=",
	lexer.AMP_ASSIGN:      "&=",
	lexer.PIPE_ASSIGN:     "|=",
	lexer.CARET_ASSIGN:    "^=",
	lexer.SHL_ASSIGN:      "<<=",
	lexer.SHR_ASSIGN:      ">>=",
	lexer.USHR_ASSIGN:     ">>>=",
	lexer.AND_ASSIGN:      "&&=",
	lexer.OR_ASSIGN:       "||=",
	lexer.QQ_ASSIGN:       "??=",
}

func (p *Parser) parseExpression() ast.Expression {
	start := p.span()
	first := p.parseAssignExpr()
	if !p.at(lexer.COMMA) {
		return first
	}
	exprs := []ast.Expression{first}
	for p.accept(lexer.COMMA) {
		exprs = append(exprs, p.parseAssignExpr())
	}
	return &ast.SequenceExpression{Base: ast.Base{SpanVal: start}, Expressions: exprs}
}

func (p *Parser) parseAssignExpr() ast.Expression {
	if arrow, ok := p.tryParseArrow(); ok {
		return arrow
	}
	if p.atKw("yield") {
		return p.parseYield()
	}
	left := p.parseConditional()
	if op, ok := assignOps[p.cur.Type]; ok {
		switch left.(type) {
		case *ast.ArrayLiteral, *ast.ObjectLiteral:
			p.fail("destructuring assignment is not supported")
		}
		p.next()
		value := p.parseAssignExpr()
		return &ast.AssignmentExpression{Base: ast.Base{SpanVal: left.Span()}, Operator: op, Target: left, Value: value}
	}
	return left
}

// tryParseArrow speculatively parses an arrow function's parameter list,
// backtracking to cp if what follows isn't `=>` — the only way to tell
// `(a, b)` the parenthesized expression from `(a, b) => ...` the arrow
// function without a grammar that commits earlier.
func (p *Parser) tryParseArrow() (ast.Expression, bool) {
	cp := p.mark()
	async := false
	if p.atKw("async") && !p.peek.NewlineBefore && (p.peek.Type == lexer.LPAREN || p.peek.Type == lexer.IDENT) {
		async = true
		p.next()
	}
	start := p.span()
	var params []ast.Expression
	switch {
	case p.at(lexer.IDENT):
		params = []ast.Expression{p.parseIdentifier()}
	case p.at(lexer.LPAREN):
		var ok bool
		params, ok = p.tryParseParamList()
		if !ok {
			p.reset(cp)
			return nil, false
		}
	default:
		p.reset(cp)
		return nil, false
	}
	if !p.at(lexer.ARROW) || p.cur.NewlineBefore {
		p.reset(cp)
		return nil, false
	}
	p.next()
	var body ast.Node
	if p.at(lexer.LBRACE) {
		body = p.parseBlock()
	} else {
		body = p.parseAssignExpr()
	}
	return &ast.ArrowFunctionExpression{Base: ast.Base{SpanVal: start}, Params: params, Body: body, Async: async}, true
}

func (p *Parser) tryParseParamList() (params []ast.Expression, ok bool) {
	defer func() {
		if recover() != nil {
			ok = false
			params = nil
		}
	}()
	return p.parseParams(), true
}

func (p *Parser) parseYield() ast.Expression {
	start := p.span()
	p.next()
	delegate := p.accept(lexer.STAR)
	var arg ast.Expression
	if !p.at(lexer.SEMI) && !p.at(lexer.RBRACE) && !p.at(lexer.RPAREN) && !p.at(lexer.RBRACKET) &&
		!p.at(lexer.COMMA) && !p.at(lexer.COLON) && !p.at(lexer.EOF) && !p.cur.NewlineBefore {
		arg = p.parseAssignExpr()
	}
	return &ast.YieldExpression{Base: ast.Base{SpanVal: start}, Argument: arg, Delegate: delegate}
}

func (p *Parser) parseConditional() ast.Expression {
	test := p.parseNullish()
	if !p.accept(lexer.QUESTION) {
		return test
	}
	cons := p.parseAssignExpr()
	p.expect(lexer.COLON, "':'")
	alt := p.parseAssignExpr()
	return &ast.ConditionalExpression{Base: ast.Base{SpanVal: test.Span()}, Test: test, Consequent: cons, Alternate: alt}
}

func (p *Parser) parseNullish() ast.Expression {
	left := p.parseLogicalOr()
	for p.at(lexer.QUESTIONQUESTION) {
		p.next()
		right := p.parseLogicalOr()
		left = &ast.LogicalExpression{Base: ast.Base{SpanVal: left.Span()}, Operator: "??", Left: left, Right: right}
	}
	return left
}

func (p *Parser) parseLogicalOr() ast.Expression {
	left := p.parseLogicalAnd()
	for p.at(lexer.OROR) {
		p.next()
		right := p.parseLogicalAnd()
		left = &ast.LogicalExpression{Base: ast.Base{SpanVal: left.Span()}, Operator: "||", Left: left, Right: right}
	}
	return left
}

func (p *Parser) parseLogicalAnd() ast.Expression {
	left := p.parseBitOr()
	for p.at(lexer.ANDAND) {
		p.next()
		right := p.parseBitOr()
		left = &ast.LogicalExpression{Base: ast.Base{SpanVal: left.Span()}, Operator: "&&", Left: left, Right: right}
	}
	return left
}

func (p *Parser) parseBitOr() ast.Expression {
	left := p.parseBitXor()
	for p.at(lexer.PIPE) {
		p.next()
		right := p.parseBitXor()
		left = &ast.BinaryExpression{Base: ast.Base{SpanVal: left.Span()}, Operator: "|", Left: left, Right: right}
	}
	return left
}

func (p *Parser) parseBitXor() ast.Expression {
	left := p.parseBitAnd()
	for p.at(lexer.CARET) {
		p.next()
		right := p.parseBitAnd()
		left = &ast.BinaryExpression{Base: ast.Base{SpanVal: left.Span()}, Operator: "^", Left: left, Right: right}
	}
	return left
}

func (p *Parser) parseBitAnd() ast.Expression {
	left := p.parseEquality()
	for p.at(lexer.AMP) {
		p.next()
		right := p.parseEquality()
		left = &ast.BinaryExpression{Base: ast.Base{SpanVal: left.Span()}, Operator: "&", Left: left, Right: right}
	}
	return left
}

func (p *Parser) parseEquality() ast.Expression {
	left := p.parseRelational()
	for {
		var op string
		switch {
		case p.at(lexer.EQ):
			op = "=="
		case p.at(lexer.NEQ):
			op = "!="
		case p.at(lexer.SEQ):
			op = "==="
		case p.at(lexer.SNEQ):
			op = "!=="
		default:
			return left
		}
		p.next()
		right := p.parseRelational()
		left = &ast.BinaryExpression{Base: ast.Base{SpanVal: left.Span()}, Operator: op, Left: left, Right: right}
	}
}

// parseRelational consults p.noIn so a classic for-loop's init clause
// doesn't mistake the `in` that introduces for-in for the relational
// operator (ECMA-262 13.10, the "NoIn" grammar parameter).
func (p *Parser) parseRelational() ast.Expression {
	left := p.parseShift()
	for {
		var op string
		switch {
		case p.at(lexer.LT):
			op = "<"
		case p.at(lexer.LTE):
			op = "<="
		case p.at(lexer.GT):
			op = ">"
		case p.at(lexer.GTE):
			op = ">="
		case p.atKw("instanceof"):
			op = "instanceof"
		case p.atKw("in") && !p.noIn:
			op = "in"
		default:
			return left
		}
		p.next()
		right := p.parseShift()
		left = &ast.BinaryExpression{Base: ast.Base{SpanVal: left.Span()}, Operator: op, Left: left, Right: right}
	}
}

func (p *Parser) parseShift() ast.Expression {
	left := p.parseAdditive()
	for {
		var op string
		switch {
		case p.at(lexer.SHL):
			op = "<<"
		case p.at(lexer.SHR):
			op = ">>"
		case p.at(lexer.USHR):
			op = ">>>"
		default:
			return left
		}
		p.next()
		right := p.parseAdditive()
		left = &ast.BinaryExpression{Base: ast.Base{SpanVal: left.Span()}, Operator: op, Left: left, Right: right}
	}
}

func (p *Parser) parseAdditive() ast.Expression {
	left := p.parseMultiplicative()
	for {
		var op string
		switch {
		case p.at(lexer.PLUS):
			op = "+"
		case p.at(lexer.MINUS):
			op = "-"
		default:
			return left
		}
		p.next()
		right := p.parseMultiplicative()
		left = &ast.BinaryExpression{Base: ast.Base{SpanVal: left.Span()}, Operator: op, Left: left, Right: right}
	}
}

func (p *Parser) parseMultiplicative() ast.Expression {
	left := p.parseExponent()
	for {
		var op string
		switch {
		case p.at(lexer.STAR):
			op = "*"
		case p.at(lexer.SLASH):
			op = "/"
		case p.at(lexer.PERCENT):
			op = "%"
		default:
			return left
		}
		p.next()
		right := p.parseExponent()
		left = &ast.BinaryExpression{Base: ast.Base{SpanVal: left.Span()}, Operator: op, Left: left, Right: right}
	}
}

// parseExponent is right-associative: `2 ** 3 ** 2` is `2 ** (3 ** 2)`.
func (p *Parser) parseExponent() ast.Expression {
	left := p.parseUnary()
	if p.at(lexer.STARSTAR) {
		p.next()
		right := p.parseExponent()
		return &ast.BinaryExpression{Base: ast.Base{SpanVal: left.Span()}, Operator: "**", Left: left, Right: right}
	}
	return left
}

func (p *Parser) parseUnary() ast.Expression {
	start := p.span()
	switch {
	case p.at(lexer.PLUS):
		p.next()
		return &ast.UnaryExpression{Base: ast.Base{SpanVal: start}, Operator: "+", Argument: p.parseUnary()}
	case p.at(lexer.MINUS):
		p.next()
		return &ast.UnaryExpression{Base: ast.Base{SpanVal: start}, Operator: "-", Argument: p.parseUnary()}
	case p.at(lexer.NOT):
		p.next()
		return &ast.UnaryExpression{Base: ast.Base{SpanVal: start}, Operator: "!", Argument: p.parseUnary()}
	case p.at(lexer.TILDE):
		p.next()
		return &ast.UnaryExpression{Base: ast.Base{SpanVal: start}, Operator: "~", Argument: p.parseUnary()}
	case p.atKw("typeof"):
		p.next()
		return &ast.UnaryExpression{Base: ast.Base{SpanVal: start}, Operator: "typeof", Argument: p.parseUnary()}
	case p.atKw("void"):
		p.next()
		return &ast.UnaryExpression{Base: ast.Base{SpanVal: start}, Operator: "void", Argument: p.parseUnary()}
	case p.atKw("delete"):
		p.next()
		return &ast.UnaryExpression{Base: ast.Base{SpanVal: start}, Operator: "delete", Argument: p.parseUnary()}
	case p.atKw("await"):
		p.next()
		return &ast.AwaitExpression{Base: ast.Base{SpanVal: start}, Argument: p.parseUnary()}
	case p.at(lexer.INC):
		p.next()
		return &ast.UpdateExpression{Base: ast.Base{SpanVal: start}, Operator: "++", Argument: p.parseUnary(), Prefix: true}
	case p.at(lexer.DEC):
		p.next()
		return &ast.UpdateExpression{Base: ast.Base{SpanVal: start}, Operator: "--", Argument: p.parseUnary(), Prefix: true}
	default:
		return p.parsePostfix()
	}
}

// parsePostfix consults NewlineBefore: a line break between the operand
// and `++`/`--` makes it a new statement instead of a postfix update
// (ECMA-262 13.4, restricted productions).
func (p *Parser) parsePostfix() ast.Expression {
	expr := p.parseLeftHandSideExpression()
	if !p.cur.NewlineBefore {
		if p.at(lexer.INC) {
			p.next()
			return &ast.UpdateExpression{Base: ast.Base{SpanVal: expr.Span()}, Operator: "++", Argument: expr, Prefix: false}
		}
		if p.at(lexer.DEC) {
			p.next()
			return &ast.UpdateExpression{Base: ast.Base{SpanVal: expr.Span()}, Operator: "--", Argument: expr, Prefix: false}
		}
	}
	return expr
}

func (p *Parser) parseLeftHandSideExpression() ast.Expression {
	var expr ast.Expression
	if p.atKw("new") {
		expr = p.parseNewExpression()
	} else {
		expr = p.parsePrimary()
	}
	return p.parseCallMemberTail(expr)
}

// parseNewExpression follows ECMA-262's MemberExpression production:
// `new`'s callee only picks up member accesses, never a call, so
// `new a.b.c(x)` constructs `a.b.c` and `new a.b.c(x).d` accesses `.d`
// on the resulting instance rather than being folded into the callee.
func (p *Parser) parseNewExpression() ast.Expression {
	start := p.span()
	p.next() // 'new'
	if p.atKw("new") {
		callee := p.parseNewExpression()
		return &ast.NewExpression{Base: ast.Base{SpanVal: start}, Callee: callee}
	}
	callee := p.parseMemberOnly(p.parsePrimary())
	var args []ast.ArrayElement
	if p.at(lexer.LPAREN) {
		args = p.parseArguments()
	}
	return &ast.NewExpression{Base: ast.Base{SpanVal: start}, Callee: callee, Arguments: args}
}

func (p *Parser) parseMemberOnly(expr ast.Expression) ast.Expression {
	for {
		switch {
		case p.at(lexer.DOT):
			p.next()
			prop := p.parseIdentifierLike()
			expr = &ast.MemberExpression{Base: ast.Base{SpanVal: expr.Span()}, Object: expr, Property: prop}
		case p.at(lexer.LBRACKET):
			p.next()
			prop := p.parseExpression()
			p.expect(lexer.RBRACKET, "']'")
			expr = &ast.MemberExpression{Base: ast.Base{SpanVal: expr.Span()}, Object: expr, Property: prop, Computed: true}
		default:
			return expr
		}
	}
}

func (p *Parser) parseCallMemberTail(expr ast.Expression) ast.Expression {
	for {
		switch {
		case p.at(lexer.DOT):
			p.next()
			prop := p.parseIdentifierLike()
			expr = &ast.MemberExpression{Base: ast.Base{SpanVal: expr.Span()}, Object: expr, Property: prop}
		case p.at(lexer.QUESTIONDOT):
			p.next()
			switch {
			case p.at(lexer.LPAREN):
				args := p.parseArguments()
				expr = &ast.CallExpression{Base: ast.Base{SpanVal: expr.Span()}, Callee: expr, Arguments: args, Optional: true}
			case p.at(lexer.LBRACKET):
				p.next()
				prop := p.parseExpression()
				p.expect(lexer.RBRACKET, "']'")
				expr = &ast.MemberExpression{Base: ast.Base{SpanVal: expr.Span()}, Object: expr, Property: prop, Computed: true, Optional: true}
			default:
				prop := p.parseIdentifierLike()
				expr = &ast.MemberExpression{Base: ast.Base{SpanVal: expr.Span()}, Object: expr, Property: prop, Optional: true}
			}
		case p.at(lexer.LBRACKET):
			p.next()
			prop := p.parseExpression()
			p.expect(lexer.RBRACKET, "']'")
			expr = &ast.MemberExpression{Base: ast.Base{SpanVal: expr.Span()}, Object: expr, Property: prop, Computed: true}
		case p.at(lexer.LPAREN):
			args := p.parseArguments()
			expr = &ast.CallExpression{Base: ast.Base{SpanVal: expr.Span()}, Callee: expr, Arguments: args}
		default:
			return expr
		}
	}
}

// parseArguments rejects spread arguments: the instruction set's
// Call/CallMethod opcodes only carry a fixed argc (see
// compiler.compileCall), so there is no variable-length calling
// convention to target.
func (p *Parser) parseArguments() []ast.ArrayElement {
	p.expect(lexer.LPAREN, "'('")
	var args []ast.ArrayElement
	for !p.at(lexer.RPAREN) {
		if p.at(lexer.DOTDOTDOT) {
			p.fail("spread arguments are not supported")
		}
		args = append(args, ast.ArrayElement{Expr: p.parseAssignExpr()})
		if !p.at(lexer.RPAREN) {
			p.expect(lexer.COMMA, "','")
		}
	}
	p.expect(lexer.RPAREN, "')'")
	return args
}

func (p *Parser) parsePrimary() ast.Expression {
	start := p.span()
	switch {
	case p.at(lexer.NUMBER):
		return p.parseNumberLiteral()
	case p.at(lexer.STRING):
		v := p.cur.Value
		p.next()
		return &ast.Literal{Base: ast.Base{SpanVal: start}, Value: ast.LiteralValue{Kind: ast.LitString, Str: v}}
	case p.at(lexer.TEMPLATE):
		return p.parseTemplateLiteral()
	case p.atKw("true"):
		p.next()
		return &ast.Literal{Base: ast.Base{SpanVal: start}, Value: ast.LiteralValue{Kind: ast.LitBoolean, Bool: true}}
	case p.atKw("false"):
		p.next()
		return &ast.Literal{Base: ast.Base{SpanVal: start}, Value: ast.LiteralValue{Kind: ast.LitBoolean, Bool: false}}
	case p.atKw("null"):
		p.next()
		return &ast.Literal{Base: ast.Base{SpanVal: start}, Value: ast.LiteralValue{Kind: ast.LitNull}}
	case p.atKw("undefined"):
		p.next()
		return &ast.Literal{Base: ast.Base{SpanVal: start}, Value: ast.LiteralValue{Kind: ast.LitUndefined}}
	case p.atKw("this"):
		p.next()
		return &ast.ThisExpression{Base: ast.Base{SpanVal: start}}
	case p.atKw("super"):
		p.next()
		return &ast.SuperExpression{Base: ast.Base{SpanVal: start}}
	case p.atKw("function"):
		return p.parseFunctionExpression(false)
	case p.atKw("async") && p.peek.IsKeyword("function"):
		p.next()
		return p.parseFunctionExpression(true)
	case p.atKw("class"):
		return p.parseClassExpression()
	case p.at(lexer.LBRACKET):
		return p.parseArrayLiteral()
	case p.at(lexer.LBRACE):
		return p.parseObjectLiteral()
	case p.at(lexer.LPAREN):
		return p.parseParenExpression()
	case p.at(lexer.IDENT):
		return p.parseIdentifier()
	case p.cur.Type == lexer.KEYWORD:
		// A contextual keyword (get, set, of, static, async, yield outside a
		// generator) used where the grammar unambiguously wants a name.
		return p.parseIdentifierLike()
	default:
		p.fail("unexpected token %q", p.cur.Value)
		return nil
	}
}

func (p *Parser) parseParenExpression() ast.Expression {
	p.next() // '('
	e := p.parseExpression()
	p.expect(lexer.RPAREN, "')'")
	return e
}

func (p *Parser) parseFunctionExpression(async bool) *ast.FunctionExpression {
	start := p.span()
	p.next() // 'function'
	gen := p.accept(lexer.STAR)
	name := ""
	if p.at(lexer.IDENT) {
		name = p.parseIdentifier().Name
	}
	params := p.parseParams()
	body := p.parseBlock()
	return &ast.FunctionExpression{Base: ast.Base{SpanVal: start}, Name: name, Params: params, Body: body, Generator: gen, Async: async}
}

func (p *Parser) parseClassExpression() *ast.ClassExpression {
	start := p.span()
	p.next() // 'class'
	name := ""
	if p.at(lexer.IDENT) {
		name = p.parseIdentifier().Name
	}
	var super ast.Expression
	if p.acceptKw("extends") {
		super = p.parseLeftHandSideExpression()
	}
	body := p.parseClassBody()
	return &ast.ClassExpression{Base: ast.Base{SpanVal: start}, Name: name, SuperClass: super, Body: body}
}

func (p *Parser) parseArrayLiteral() *ast.ArrayLiteral {
	start := p.span()
	p.expect(lexer.LBRACKET, "'['")
	var elems []ast.ArrayElement
	for !p.at(lexer.RBRACKET) {
		if p.at(lexer.COMMA) {
			elems = append(elems, ast.ArrayElement{})
			p.next()
			continue
		}
		if p.accept(lexer.DOTDOTDOT) {
			elems = append(elems, ast.ArrayElement{Expr: p.parseAssignExpr(), Spread: true})
		} else {
			elems = append(elems, ast.ArrayElement{Expr: p.parseAssignExpr()})
		}
		if !p.at(lexer.RBRACKET) {
			if !p.accept(lexer.COMMA) {
				break
			}
		}
	}
	p.expect(lexer.RBRACKET, "']'")
	return &ast.ArrayLiteral{Base: ast.Base{SpanVal: start}, Elements: elems}
}

// peekIsPropEnd reports whether the token after a contextual keyword
// (`get`/`set`/`async`) shows that keyword was itself the property name,
// not a modifier: `get(` is a method named "get", `get: 1` and `get, `
// and `get }` are a shorthand/init property named "get".
func (p *Parser) peekIsPropEnd() bool {
	switch p.peek.Type {
	case lexer.COLON, lexer.LPAREN, lexer.COMMA, lexer.RBRACE, lexer.ASSIGN:
		return true
	default:
		return false
	}
}

func (p *Parser) parseObjectLiteral() *ast.ObjectLiteral {
	start := p.span()
	p.expect(lexer.LBRACE, "'{'")
	var props []ast.ObjectProperty
	for !p.at(lexer.RBRACE) {
		pstart := p.span()
		if p.accept(lexer.DOTDOTDOT) {
			v := p.parseAssignExpr()
			props = append(props, ast.ObjectProperty{Base: ast.Base{SpanVal: pstart}, Kind: "spread", Value: v})
			if !p.at(lexer.RBRACE) {
				p.expect(lexer.COMMA, "','")
			}
			continue
		}
		async := false
		gen := false
		kind := "init"
		switch {
		case (p.atKw("get") || p.atKw("set")) && !p.peekIsPropEnd():
			if p.cur.Value == "get" {
				kind = "get"
			} else {
				kind = "set"
			}
			p.next()
		case p.atKw("async") && !p.peekIsPropEnd():
			async = true
			p.next()
		}
		if p.accept(lexer.STAR) {
			gen = true
		}
		computed := false
		var key ast.Expression
		if p.accept(lexer.LBRACKET) {
			computed = true
			key = p.parseAssignExpr()
			p.expect(lexer.RBRACKET, "']'")
		} else {
			key = p.parsePropertyKey()
		}
		switch {
		case p.at(lexer.LPAREN):
			params := p.parseParams()
			body := p.parseBlock()
			fn := &ast.FunctionExpression{Base: ast.Base{SpanVal: pstart}, Params: params, Body: body, Generator: gen, Async: async}
			if kind == "init" {
				kind = "method"
			}
			props = append(props, ast.ObjectProperty{Base: ast.Base{SpanVal: pstart}, Kind: kind, Key: key, Computed: computed, Value: fn})
		case p.accept(lexer.COLON):
			v := p.parseAssignExpr()
			props = append(props, ast.ObjectProperty{Base: ast.Base{SpanVal: pstart}, Kind: "init", Key: key, Computed: computed, Value: v})
		default:
			id, ok := key.(*ast.Identifier)
			if !ok {
				p.fail("invalid shorthand property")
			}
			var v ast.Expression = id
			if p.accept(lexer.ASSIGN) {
				v = &ast.AssignmentPattern{Base: ast.Base{SpanVal: id.Span()}, Target: id, Default: p.parseAssignExpr()}
			}
			props = append(props, ast.ObjectProperty{Base: ast.Base{SpanVal: pstart}, Kind: "init", Key: key, Value: v, Shorthand: true})
		}
		if !p.at(lexer.RBRACE) {
			p.expect(lexer.COMMA, "','")
		}
	}
	p.expect(lexer.RBRACE, "'}'")
	return &ast.ObjectLiteral{Base: ast.Base{SpanVal: start}, Properties: props}
}

// parseTemplateLiteral splits the lexer's single raw TEMPLATE token into
// alternating quasi text and `${...}` substitutions, re-parsing each
// substitution as a standalone expression with its own Parser. A
// template literal nested inside a substitution is only correctly
// bounded by brace-depth, not by re-entrant lexing, so a substitution
// containing a nested template whose own substitutions use `{`/`}` in
// string text can mis-split (documented in DESIGN.md).
func (p *Parser) parseTemplateLiteral() *ast.TemplateLiteral {
	start := p.span()
	raw := p.cur.Value
	p.next()
	inner := raw
	if len(inner) >= 2 {
		inner = inner[1 : len(inner)-1]
	}
	var quasis []string
	var exprs []ast.Expression
	var buf strings.Builder
	i := 0
	for i < len(inner) {
		c := inner[i]
		if c == '\\' && i+1 < len(inner) {
			buf.WriteByte(unescapeTemplate(inner[i+1]))
			i += 2
			continue
		}
		if c == '$' && i+1 < len(inner) && inner[i+1] == '{' {
			quasis = append(quasis, buf.String())
			buf.Reset()
			depth := 1
			j := i + 2
			for j < len(inner) && depth > 0 {
				switch inner[j] {
				case '{':
					depth++
				case '}':
					depth--
				}
				if depth == 0 {
					break
				}
				j++
			}
			sub := inner[i+2 : j]
			exprs = append(exprs, parseExprFragment(sub))
			i = j + 1
			continue
		}
		buf.WriteByte(c)
		i++
	}
	quasis = append(quasis, buf.String())
	return &ast.TemplateLiteral{Base: ast.Base{SpanVal: start}, Quasis: quasis, Expressions: exprs}
}

func unescapeTemplate(c byte) byte {
	switch c {
	case 'n':
		return '\n'
	case 't':
		return '\t'
	case 'r':
		return '\r'
	default:
		return c
	}
}

// parseExprFragment parses a template substitution's source in its own
// Parser; a syntax error inside it panics with the same parseError the
// top-level Parse recovers, so the whole template literal's enclosing
// Parse call surfaces one consistent error.
func parseExprFragment(src string) ast.Expression {
	p2 := New(src)
	return p2.parseExpression()
}
