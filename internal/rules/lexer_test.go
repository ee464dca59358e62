package rules

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLexer_Punctuation(t *testing.T) {
	tokens, err := NewLexer("(a, b) [c] : ; ** * / % ^ + -").Tokenize()
	require.NoError(t, err)

	var types []TokenType
	for _, tok := range tokens {
		types = append(types, tok.Type)
	}
	assert.Equal(t, []TokenType{
		TokenLParen, TokenIdentifier, TokenComma, TokenIdentifier, TokenRParen,
		TokenLBracket, TokenIdentifier, TokenRBracket,
		TokenColon, TokenSemicolon, TokenStarStar, TokenStar, TokenSlash,
		TokenPercent, TokenCaret, TokenPlus, TokenMinus, TokenEOF,
	}, types)
}

func TestLexer_ComparisonOperators(t *testing.T) {
	tokens, err := NewLexer("== != >= <= > <").Tokenize()
	require.NoError(t, err)

	var types []TokenType
	for _, tok := range tokens {
		types = append(types, tok.Type)
	}
	assert.Equal(t, []TokenType{
		TokenEqEq, TokenNotEq, TokenGtEq, TokenLtEq, TokenGt, TokenLt, TokenEOF,
	}, types)
}

func TestLexer_NumberLiteral(t *testing.T) {
	tokens, err := NewLexer("650").Tokenize()
	require.NoError(t, err)
	require.Len(t, tokens, 2)
	assert.Equal(t, TokenNumber, tokens[0].Type)
	assert.True(t, tokens[0].Literal.(decimal.Decimal).Equal(decimal.NewFromInt(650)))
}

func TestLexer_DecimalAndExponentLiteral(t *testing.T) {
	tokens, err := NewLexer("3.14 1.5e2").Tokenize()
	require.NoError(t, err)
	require.Len(t, tokens, 3)
	assert.True(t, tokens[0].Literal.(decimal.Decimal).Equal(decimal.NewFromFloat(3.14)))
	assert.True(t, tokens[1].Literal.(decimal.Decimal).Equal(decimal.NewFromFloat(150)))
}

func TestLexer_StringLiteralEscapes(t *testing.T) {
	tokens, err := NewLexer(`"line1\nline2\ttabbed\"quoted\""`).Tokenize()
	require.NoError(t, err)
	require.Len(t, tokens, 2)
	assert.Equal(t, "line1\nline2\ttabbed\"quoted\"", tokens[0].Literal)
}

func TestLexer_UnterminatedString(t *testing.T) {
	_, err := NewLexer(`"unterminated`).Tokenize()
	require.Error(t, err)
	codedErr, ok := err.(*CodedError)
	require.True(t, ok)
	assert.Equal(t, ErrLexUnterminatedString, codedErr.Code)
}

func TestLexer_UnexpectedCharacter(t *testing.T) {
	_, err := NewLexer("a @ b").Tokenize()
	require.Error(t, err)
	codedErr, ok := err.(*CodedError)
	require.True(t, ok)
	assert.Equal(t, ErrLexUnexpectedChar, codedErr.Code)
}

func TestLexer_KeywordCaseInsensitive(t *testing.T) {
	tokens, err := NewLexer("AT_LEAST at_least At_Least").Tokenize()
	require.NoError(t, err)
	require.Len(t, tokens, 4)
	assert.Equal(t, tokens[0].Type, tokens[1].Type)
	assert.Equal(t, tokens[1].Type, tokens[2].Type)
}

func TestLexer_BooleanAndNullLiterals(t *testing.T) {
	tokens, err := NewLexer("true false null").Tokenize()
	require.NoError(t, err)
	require.Len(t, tokens, 4)
	assert.Equal(t, TokenBoolean, tokens[0].Type)
	assert.Equal(t, true, tokens[0].Literal)
	assert.Equal(t, TokenBoolean, tokens[1].Type)
	assert.Equal(t, false, tokens[1].Literal)
	assert.Equal(t, TokenNull, tokens[2].Type)
}

func TestLexer_IdentifierWithUnderscoresAndDigits(t *testing.T) {
	tokens, err := NewLexer("my_var2 MIN_SCORE").Tokenize()
	require.NoError(t, err)
	require.Len(t, tokens, 3)
	assert.Equal(t, TokenIdentifier, tokens[0].Type)
	assert.Equal(t, "my_var2", tokens[0].Lexeme)
	assert.Equal(t, TokenIdentifier, tokens[1].Type)
	assert.Equal(t, "MIN_SCORE", tokens[1].Lexeme)
}

func TestLexer_TracksLineAndColumn(t *testing.T) {
	tokens, err := NewLexer("a\nb").Tokenize()
	require.NoError(t, err)
	require.Len(t, tokens, 3)
	assert.Equal(t, 1, tokens[0].Loc.Line)
	assert.Equal(t, 2, tokens[1].Loc.Line)
}
