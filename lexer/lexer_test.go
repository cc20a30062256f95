package lexer

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func allTokens(src string) []Token {
	l := New(src)
	var toks []Token
	for {
		tok := l.Next()
		toks = append(toks, tok)
		if tok.Type == EOF {
			return toks
		}
	}
}

func TestLexIdentifierVersusKeyword(t *testing.T) {
	toks := allTokens(`foo let`)
	assert.Equal(t, IDENT, toks[0].Type)
	assert.Equal(t, "foo", toks[0].Value)
	assert.Equal(t, KEYWORD, toks[1].Type)
	assert.Equal(t, "let", toks[1].Value)
}

func TestLexNumberWithFractionExponentAndBigIntSuffix(t *testing.T) {
	toks := allTokens(`3.14 1e10 9n`)
	assert.Equal(t, "3.14", toks[0].Value)
	assert.Equal(t, "1e10", toks[1].Value)
	assert.Equal(t, "9n", toks[2].Value)
}

func TestLexStringHandlesEscapes(t *testing.T) {
	toks := allTokens(`"a\nb"`)
	assert.Equal(t, STRING, toks[0].Type)
	assert.Equal(t, "a\nb", toks[0].Value)
}

func TestLexTemplateCapturesNestedSubstitutionDepth(t *testing.T) {
	toks := allTokens("`a${ `b${c}` }d`")
	assert.Equal(t, TEMPLATE, toks[0].Type)
	assert.Equal(t, "`a${ `b${c}` }d`", toks[0].Value)
}

func TestLexSkipsLineAndBlockComments(t *testing.T) {
	toks := allTokens("// comment\n1 /* block */ + 2")
	assert.Equal(t, NUMBER, toks[0].Type)
	assert.Equal(t, "1", toks[0].Value)
	assert.Equal(t, PLUS, toks[1].Type)
	assert.Equal(t, NUMBER, toks[2].Type)
	assert.Equal(t, "2", toks[2].Value)
}

func TestLexNewlineBeforeFlagsASITrigger(t *testing.T) {
	toks := allTokens("a\nb")
	assert.False(t, toks[0].NewlineBefore)
	assert.True(t, toks[1].NewlineBefore)
}

func TestLexThreeCharAndTwoCharOperators(t *testing.T) {
	toks := allTokens(`=== !== >>> ?? ?. => ** ++ --`)
	want := []TokenType{SEQ, SNEQ, USHR, QUESTIONQUESTION, QUESTIONDOT, ARROW, STARSTAR, INC, DEC}
	for i, w := range want {
		assert.Equal(t, w, toks[i].Type, "token %d", i)
	}
}

func TestTokenIsKeyword(t *testing.T) {
	tok := Token{Type: KEYWORD, Value: "async"}
	assert.True(t, tok.IsKeyword("async"))
	assert.False(t, tok.IsKeyword("await"))

	ident := Token{Type: IDENT, Value: "async"}
	assert.False(t, ident.IsKeyword("async"))
}

func TestEmptySourceYieldsImmediateEOF(t *testing.T) {
	toks := allTokens("")
	assert.Len(t, toks, 1)
	assert.Equal(t, EOF, toks[0].Type)
}
