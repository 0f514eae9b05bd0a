package back

import (
	"context"

	"tlog.app/go/errors"
	"tlog.app/go/tlog"

	"github.com/a64asm/asm/compiler/asm"
	"github.com/a64asm/asm/compiler/asm/arm64"
	"github.com/a64asm/asm/compiler/ir"
)

var ErrSyntax = errors.New("syntax error")

// condSuffix maps high-level comparison operators to b.cond suffixes.
var condSuffix = map[string]string{
	"==": ".eq",
	"!=": ".ne",
	"<":  ".lt",
	"<=": ".le",
	">":  ".gt",
	">=": ".ge",
}

// Lower selects ARM64 instructions for each IR op, producing the token
// stream the assembler consumes. Every emitted statement, including
// the sub-instructions of a multi-statement expansion, ends with a
// Newline token.
func Lower(ctx context.Context, prog []ir.Instr) (tokens []asm.Token, err error) {
	tr := tlog.SpanFromContext(ctx)

	for i, x := range prog {
		tokens, err = lowerOne(tokens, x)
		if err != nil {
			return nil, errors.Wrap(err, "instr %d (%T)", i, x)
		}

		tokens = append(tokens, asm.Token{Kind: asm.Newline})
	}

	if tr.If("dump_tokens") {
		tr.Printw("lowered", "tokens", tokens)
	}

	return tokens, nil
}

func lowerOne(out []asm.Token, x ir.Instr) ([]asm.Token, error) {
	switch x := x.(type) {
	case ir.Label:
		return append(out, asm.Token{Kind: asm.Label, Lexeme: string(x) + ":"}), nil
	case ir.Add:
		return rrr(out, "add", x.Dst, x.Src1, x.Src2)
	case ir.Sub:
		return rrr(out, "sub", x.Dst, x.Src1, x.Src2)
	case ir.Mul:
		return rrr(out, "mul", x.Dst, x.Src1, x.Src2)
	case ir.Div:
		return rrr(out, "sdiv", x.Dst, x.Src1, x.Src2)
	case ir.Mod:
		return lowerMod(out, x)
	case ir.Mov:
		return rrr(out, "add", x.Dst, x.Src, "xzr")
	case ir.Load:
		return mem(out, "ldur", x.Dst, x.Base, x.Off)
	case ir.Store:
		return mem(out, "stur", x.Src, x.Base, x.Off)
	case ir.CmpBranch:
		return lowerCmpBranch(out, x)
	case ir.Branch:
		t, err := immOrLabel(x.Label)
		if err != nil {
			return nil, err
		}

		return append(out, asm.Token{Kind: asm.ID, Lexeme: "b"}, t), nil
	case ir.Call:
		r, err := regToken(x.Src)
		if err != nil {
			return nil, err
		}

		return append(out, asm.Token{Kind: asm.ID, Lexeme: "blr"}, r), nil
	case ir.Ret:
		return append(out,
			asm.Token{Kind: asm.ID, Lexeme: "br"},
			asm.Token{Kind: asm.Reg, Lexeme: "x30"},
		), nil
	case ir.Data8:
		t, err := immOrLabel(x.Value)
		if err != nil {
			return nil, err
		}

		return append(out, asm.Token{Kind: asm.DotID, Lexeme: ".8byte"}, t), nil
	}

	return nil, errors.Wrap(ErrSyntax, "unknown ir op %T", x)
}

// lowerMod expands dst = src1 % src2 into
//
//	sdiv dst, src1, src2
//	mul  dst, dst, src2
//	sub  dst, src1, dst
func lowerMod(out []asm.Token, x ir.Mod) ([]asm.Token, error) {
	out, err := rrr(out, "sdiv", x.Dst, x.Src1, x.Src2)
	if err != nil {
		return nil, err
	}

	out = append(out, asm.Token{Kind: asm.Newline})

	out, err = rrr(out, "mul", x.Dst, x.Dst, x.Src2)
	if err != nil {
		return nil, err
	}

	out = append(out, asm.Token{Kind: asm.Newline})

	return rrr(out, "sub", x.Dst, x.Src1, x.Dst)
}

func lowerCmpBranch(out []asm.Token, x ir.CmpBranch) ([]asm.Token, error) {
	s1, err := regToken(x.Src1)
	if err != nil {
		return nil, err
	}

	s2, err := regToken(x.Src2)
	if err != nil {
		return nil, err
	}

	cond, ok := condSuffix[x.Cond]
	if !ok {
		return nil, errors.Wrap(arm64.ErrCondition, "%v", x.Cond)
	}

	target, err := immOrLabel(x.Label)
	if err != nil {
		return nil, err
	}

	return append(out,
		asm.Token{Kind: asm.ID, Lexeme: "cmp"},
		s1,
		asm.Token{Kind: asm.Comma, Lexeme: ","},
		s2,
		asm.Token{Kind: asm.Newline},
		asm.Token{Kind: asm.ID, Lexeme: "b"},
		asm.Token{Kind: asm.DotID, Lexeme: cond},
		target,
	), nil
}

func rrr(out []asm.Token, instr, a, b, c string) ([]asm.Token, error) {
	ra, err := regToken(a)
	if err != nil {
		return nil, err
	}

	rb, err := regToken(b)
	if err != nil {
		return nil, err
	}

	rc, err := regToken(c)
	if err != nil {
		return nil, err
	}

	return append(out,
		asm.Token{Kind: asm.ID, Lexeme: instr},
		ra,
		asm.Token{Kind: asm.Comma, Lexeme: ","},
		rb,
		asm.Token{Kind: asm.Comma, Lexeme: ","},
		rc,
	), nil
}

func mem(out []asm.Token, instr, val, base, off string) ([]asm.Token, error) {
	rv, err := regToken(val)
	if err != nil {
		return nil, err
	}

	rb, err := regToken(base)
	if err != nil {
		return nil, err
	}

	ro, err := immOrLabel(off)
	if err != nil {
		return nil, err
	}

	return append(out,
		asm.Token{Kind: asm.ID, Lexeme: instr},
		rv,
		asm.Token{Kind: asm.Comma, Lexeme: ","},
		asm.Token{Kind: asm.LBrack, Lexeme: "["},
		rb,
		asm.Token{Kind: asm.Comma, Lexeme: ","},
		ro,
		asm.Token{Kind: asm.RBrack, Lexeme: "]"},
	), nil
}

func regToken(s string) (asm.Token, error) {
	switch {
	case s == "xzr":
		return asm.Token{Kind: asm.ZReg, Lexeme: s}, nil
	case s == "sp":
		return asm.Token{Kind: asm.ID, Lexeme: s}, nil
	case len(s) >= 2 && s[0] == 'x' && s[1] >= '0' && s[1] <= '9':
		return asm.Token{Kind: asm.Reg, Lexeme: s}, nil
	}

	return asm.Token{}, errors.Wrap(ErrSyntax, "expected register, got %q", s)
}

func immOrLabel(s string) (asm.Token, error) {
	if s == "" {
		return asm.Token{}, errors.Wrap(ErrSyntax, "empty immediate")
	}

	if len(s) > 2 && s[0] == '0' && (s[1] == 'x' || s[1] == 'X') {
		return asm.Token{Kind: asm.HexInt, Lexeme: s}, nil
	}

	if isInt(s) {
		return asm.Token{Kind: asm.Int, Lexeme: s}, nil
	}

	return asm.Token{Kind: asm.ID, Lexeme: s}, nil
}

func isInt(s string) bool {
	i := 0
	if s != "" && (s[0] == '-' || s[0] == '+') {
		i = 1
	}

	if i == len(s) {
		return false
	}

	for ; i < len(s); i++ {
		if s[i] < '0' || s[i] > '9' {
			return false
		}
	}

	return true
}
