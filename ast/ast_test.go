package ast

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/wudi/vela/errors"
)

func TestBaseSpanReturnsEmbeddedSpan(t *testing.T) {
	n := Identifier{Base: Base{SpanVal: errors.Span{Line: 3, Column: 1}}, Name: "x"}
	assert.Equal(t, 3, n.Span().Line)
}

func TestStatementNodesSatisfyStatementInterface(t *testing.T) {
	var stmts []Statement = []Statement{
		ExpressionStatement{},
		VariableDeclaration{},
		BlockStatement{},
		IfStatement{},
		ForStatement{},
		ForInStatement{},
		ForOfStatement{},
		WhileStatement{},
		DoWhileStatement{},
		BreakStatement{},
		ContinueStatement{},
		ReturnStatement{},
		ThrowStatement{},
		TryStatement{},
		LabeledStatement{},
		SwitchStatement{},
		FunctionDeclaration{},
		ClassDeclaration{},
	}
	assert.Len(t, stmts, 18)
}

func TestExpressionNodesSatisfyExpressionInterface(t *testing.T) {
	var exprs []Expression = []Expression{
		Identifier{},
		Literal{},
		ThisExpression{},
		SuperExpression{},
		ArrayLiteral{},
		ObjectLiteral{},
		FunctionExpression{},
		ArrowFunctionExpression{},
		ClassExpression{},
		UnaryExpression{},
		UpdateExpression{},
		BinaryExpression{},
		LogicalExpression{},
		AssignmentExpression{},
		ConditionalExpression{},
		CallExpression{},
		NewExpression{},
		MemberExpression{},
		SequenceExpression{},
		TemplateLiteral{},
		YieldExpression{},
		AwaitExpression{},
		ArrayPattern{},
		ObjectPattern{},
		AssignmentPattern{},
	}
	assert.Len(t, exprs, 25)
}

func TestYieldExpressionDelegateFlagDistinguishesYieldStar(t *testing.T) {
	plain := YieldExpression{Argument: Identifier{Name: "v"}}
	star := YieldExpression{Argument: Identifier{Name: "it"}, Delegate: true}
	assert.False(t, plain.Delegate)
	assert.True(t, star.Delegate)
}

func TestForStatementInitAcceptsDeclarationOrBareExpression(t *testing.T) {
	withDecl := ForStatement{Init: VariableDeclaration{Kind: VarLet}}
	decl, ok := withDecl.Init.(VariableDeclaration)
	assert.True(t, ok)
	assert.Equal(t, VarLet, decl.Kind)

	withExpr := ForStatement{Init: Identifier{Name: "i"}}
	_, ok = withExpr.Init.(Expression)
	assert.True(t, ok)

	bare := ForStatement{}
	assert.Nil(t, bare.Init)
}

func TestTryStatementHandlerAndFinalizerAreIndependentlyOptional(t *testing.T) {
	full := TryStatement{
		Block:     &BlockStatement{},
		Handler:   &CatchClause{Body: &BlockStatement{}},
		Finalizer: &BlockStatement{},
	}
	assert.NotNil(t, full.Handler)
	assert.NotNil(t, full.Finalizer)

	finallyOnly := TryStatement{Block: &BlockStatement{}, Finalizer: &BlockStatement{}}
	assert.Nil(t, finallyOnly.Handler)
	assert.NotNil(t, finallyOnly.Finalizer)
}

func TestClassMemberKindDistinguishesMethodGetterSetterField(t *testing.T) {
	members := []ClassMember{
		{Kind: MethodKind, Key: "run"},
		{Kind: GetterKind, Key: "value"},
		{Kind: SetterKind, Key: "value"},
		{Kind: FieldKind, Key: "count", Value: Literal{Value: LiteralValue{Kind: LitNumber, Num: 0}}},
	}
	assert.Equal(t, MethodKind, members[0].Kind)
	assert.Equal(t, GetterKind, members[1].Kind)
	assert.Equal(t, SetterKind, members[2].Kind)
	assert.Equal(t, FieldKind, members[3].Kind)
	assert.Equal(t, float64(0), members[3].Value.(Literal).Value.Num)
}
