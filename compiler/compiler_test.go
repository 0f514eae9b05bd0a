package compiler

import (
	"context"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/a64asm/asm/compiler/asm"
	"github.com/a64asm/asm/compiler/ir"
	"github.com/a64asm/asm/compiler/lex"
)

// pretokenize renders a token stream back into the pre-tokenized
// input format.
func pretokenize(tokens []asm.Token) []byte {
	var b strings.Builder

	for _, t := range tokens {
		b.WriteString(t.Kind.String())

		if t.Kind != asm.Newline {
			b.WriteString(" ")
			b.WriteString(t.Lexeme)
		}

		b.WriteString("\n")
	}

	return []byte(b.String())
}

func TestModesEquivalent(t *testing.T) {
	ctx := context.Background()

	high := []byte(`
label loop
if x1 == x2 goto done
x1 = x1 + x3
goto loop
label done
ret
`)

	raw := []byte(`
loop:
cmp x1, x2
b.eq done
add x1, x1, x3
b loop
done:
br x30
`)

	objHigh, symHigh, err := Assemble(ctx, "high", high, High)
	require.NoError(t, err)

	objRaw, symRaw, err := Assemble(ctx, "raw", raw, Raw)
	require.NoError(t, err)

	objTok, symTok, err := Assemble(ctx, "tok", pretokenize(lex.Lex(ctx, raw)), Tokenized)
	require.NoError(t, err)

	assert.Equal(t, objRaw, objHigh)
	assert.Equal(t, objRaw, objTok)
	assert.Equal(t, symRaw, symHigh)
	assert.Equal(t, symRaw, symTok)

	assert.Equal(t, "loop 0\ndone 16\n", string(symRaw))
}

func TestHighModulo(t *testing.T) {
	ctx := context.Background()

	obj, _, err := Assemble(ctx, "mod", []byte("x4 = x5 % x6\n"), High)
	require.NoError(t, err)

	// sdiv, mul, sub
	assert.Len(t, obj, 12)
}

func TestHighDataTable(t *testing.T) {
	ctx := context.Background()

	obj, symbols, err := Assemble(ctx, "data", []byte(`
.8byte target
label target
ret
`), High)
	require.NoError(t, err)

	require.Len(t, obj, 12)
	assert.Equal(t, []byte{8, 0, 0, 0, 0, 0, 0, 0}, obj[:8])
	assert.Equal(t, "target 8\n", string(symbols))
}

func TestParseIRDump(t *testing.T) {
	ctx := context.Background()

	prog, err := ParseIR(ctx, []byte(`
label loop
x1 = x2 + x3
x4 = *(x5 + 8)
*(x6 + 16) = x7
if x1 < x2 goto loop
x8 = x9
call x10
goto loop
ret
.8byte 99
`))
	require.NoError(t, err)

	dump := string(ir.AppendDump(nil, prog))

	assert.Equal(t, `loop:
  ADD x1, x2, x3
  LOAD x4, [x5 + 8]
  STORE [x6 + 16], x7
  CMP_BRANCH x1 < x2, loop
  MOV x8, x9
  CALL x10
  BRANCH loop
  RET
  DATA8 99
`, dump)
}

func TestAssembleErrors(t *testing.T) {
	ctx := context.Background()

	_, _, err := Assemble(ctx, "bad", []byte("x1 = x2 ?\n"), High)
	assert.Error(t, err)

	_, _, err = Assemble(ctx, "bad", []byte("BOGUS x\n"), Tokenized)
	assert.Error(t, err)

	_, _, err = Assemble(ctx, "bad", []byte("adc x1, x2, x3\n"), Raw)
	assert.Error(t, err)
}

func TestAssembleDeterministic(t *testing.T) {
	ctx := context.Background()

	text := []byte("label a\nx1 = x2 + x3\ngoto a\n")

	first, _, err := Assemble(ctx, "p", text, High)
	require.NoError(t, err)

	second, _, err := Assemble(ctx, "p", text, High)
	require.NoError(t, err)

	assert.Equal(t, first, second)
}
