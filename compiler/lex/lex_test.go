package lex

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/a64asm/asm/compiler/asm"
)

func TestLexClassify(t *testing.T) {
	ctx := context.Background()

	tokens := Lex(ctx, []byte("loop:\n  add x1, x2, xzr ; tail\n"))

	assert.Equal(t, []asm.Token{
		{Kind: asm.Label, Lexeme: "loop:"},
		{Kind: asm.Newline},
		{Kind: asm.ID, Lexeme: "add"},
		{Kind: asm.Reg, Lexeme: "x1"},
		{Kind: asm.Comma, Lexeme: ","},
		{Kind: asm.Reg, Lexeme: "x2"},
		{Kind: asm.Comma, Lexeme: ","},
		{Kind: asm.ZReg, Lexeme: "xzr"},
		{Kind: asm.Newline},
	}, tokens)
}

func TestLexBrackets(t *testing.T) {
	tokens := Lex(context.Background(), []byte("ldur x1, [x2, -8]"))

	assert.Equal(t, []asm.Token{
		{Kind: asm.ID, Lexeme: "ldur"},
		{Kind: asm.Reg, Lexeme: "x1"},
		{Kind: asm.Comma, Lexeme: ","},
		{Kind: asm.LBrack, Lexeme: "["},
		{Kind: asm.Reg, Lexeme: "x2"},
		{Kind: asm.Comma, Lexeme: ","},
		{Kind: asm.Int, Lexeme: "-8"},
		{Kind: asm.RBrack, Lexeme: "]"},
		{Kind: asm.Newline},
	}, tokens)
}

func TestLexCondBranch(t *testing.T) {
	tokens := Lex(context.Background(), []byte("b.eq done"))

	assert.Equal(t, []asm.Token{
		{Kind: asm.ID, Lexeme: "b"},
		{Kind: asm.DotID, Lexeme: ".eq"},
		{Kind: asm.ID, Lexeme: "done"},
		{Kind: asm.Newline},
	}, tokens)

	// not a known condition: stays a single ID
	tokens = Lex(context.Background(), []byte("b.xx done"))
	assert.Equal(t, asm.ID, tokens[0].Kind)
	assert.Equal(t, "b.xx", tokens[0].Lexeme)
}

func TestLexLiteralsAndDirectives(t *testing.T) {
	tokens := Lex(context.Background(), []byte(".8byte 0x10\n.8byte 42 // c\nsp\n"))

	assert.Equal(t, []asm.Token{
		{Kind: asm.DotID, Lexeme: ".8byte"},
		{Kind: asm.HexInt, Lexeme: "0x10"},
		{Kind: asm.Newline},
		{Kind: asm.DotID, Lexeme: ".8byte"},
		{Kind: asm.Int, Lexeme: "42"},
		{Kind: asm.Newline},
		{Kind: asm.ID, Lexeme: "sp"},
		{Kind: asm.Newline},
	}, tokens)
}

func TestReadTokens(t *testing.T) {
	text := []byte("ID add\nREG x1\nCOMMA ,\nZREG xzr\nNEWLINE\n")

	tokens, err := ReadTokens(context.Background(), text)
	require.NoError(t, err)

	assert.Equal(t, []asm.Token{
		{Kind: asm.ID, Lexeme: "add"},
		{Kind: asm.Reg, Lexeme: "x1"},
		{Kind: asm.Comma, Lexeme: ","},
		{Kind: asm.ZReg, Lexeme: "xzr"},
		{Kind: asm.Newline},
	}, tokens)
}

func TestReadTokensErrors(t *testing.T) {
	_, err := ReadTokens(context.Background(), []byte("BOGUS x"))
	assert.ErrorIs(t, err, ErrSyntax)

	_, err = ReadTokens(context.Background(), []byte("REG"))
	assert.ErrorIs(t, err, ErrSyntax)
}

func TestKindRoundTrip(t *testing.T) {
	for k := asm.DotID; k <= asm.Newline; k++ {
		assert.Equal(t, k, asm.KindFromString(k.String()), k)
	}

	assert.Equal(t, asm.None, asm.KindFromString("NONE"))
}
