package asm

import (
	"tlog.app/go/tlog/tlwire"
)

type (
	// Kind classifies a token in the assembler token alphabet.
	Kind int

	// Token is a single lexical item. Newline carries an empty lexeme.
	Token struct {
		Kind   Kind
		Lexeme string
	}
)

const (
	None Kind = iota
	DotID
	Label
	ID
	HexInt
	Reg
	ZReg
	Int
	Comma
	LBrack
	RBrack
	Newline
)

// kindNames are the wire names used by the pre-tokenized input format.
var kindNames = []string{
	"NONE", "DOTID", "LABEL", "ID", "HEXINT", "REG",
	"ZREG", "INT", "COMMA", "LBRACK", "RBRACK", "NEWLINE",
}

func (k Kind) String() string {
	if k < 0 || int(k) >= len(kindNames) {
		return "UNKNOWN"
	}

	return kindNames[k]
}

// KindFromString decodes a wire name. Unknown names map to None.
func KindFromString(s string) Kind {
	for i, n := range kindNames {
		if i != 0 && s == n {
			return Kind(i)
		}
	}

	return None
}

func (t Token) TlogAppend(b []byte) []byte {
	var e tlwire.Encoder

	b = e.AppendMap(b, 2)
	b = e.AppendString(b, "kind")
	b = e.AppendString(b, t.Kind.String())
	b = e.AppendString(b, "lex")
	b = e.AppendString(b, t.Lexeme)

	return b
}
