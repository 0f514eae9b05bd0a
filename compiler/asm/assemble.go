package asm

import (
	"context"
	"strconv"
	"strings"

	"github.com/nikandfor/hacked/hfmt"
	"tlog.app/go/errors"
	"tlog.app/go/tlog"

	"github.com/a64asm/asm/compiler/asm/arm64"
	"github.com/a64asm/asm/compiler/sym"
)

type (
	// Assembler turns a token stream into machine code over two passes:
	// the first resolves labels to byte addresses, the second encodes.
	Assembler struct {
		Symbols *sym.Table
	}

	// statement is one line worth of tokens, newlines stripped.
	statement []Token
)

var ErrSyntax = errors.New("syntax error")

// patterns maps a mnemonic to its operand shape.
// r register or sp, z register or xzr, i immediate,
// j immediate or label, c comma, l '[', t ']'.
var patterns = map[string]string{
	"add":   "rcrcz",
	"sub":   "rcrcz",
	"mul":   "rcrcz",
	"smulh": "rcrcz",
	"umulh": "rcrcz",
	"sdiv":  "rcrcz",
	"udiv":  "rcrcz",
	"cmp":   "rcz",
	"br":    "r",
	"blr":   "r",
	"ldur":  "rclrcit",
	"stur":  "rclrcit",
	"ldr":   "rcj",
	"b":     "j",
}

func New() *Assembler {
	return &Assembler{
		Symbols: sym.New(),
	}
}

// Assemble runs both passes over the token stream
// and returns the object bytes.
func (a *Assembler) Assemble(ctx context.Context, tokens []Token) (obj []byte, err error) {
	tr := tlog.SpanFromContext(ctx)

	lines := groupLines(tokens)

	err = a.pass1(lines)
	if err != nil {
		return nil, errors.Wrap(err, "pass 1")
	}

	tr.Printw("symbols resolved", "statements", len(lines), "labels", len(a.Symbols.Order()))

	obj, err = a.pass2(lines)
	if err != nil {
		return nil, errors.Wrap(err, "pass 2")
	}

	return obj, nil
}

// AppendSymbols renders the label dump, one "name address" line per
// label in definition order.
func (a *Assembler) AppendSymbols(b []byte) []byte {
	for _, name := range a.Symbols.Order() {
		addr, _ := a.Symbols.Lookup(name)

		b = hfmt.Appendf(b, "%s %d\n", name, addr)
	}

	return b
}

func groupLines(tokens []Token) []statement {
	var lines []statement
	var cur statement

	for _, t := range tokens {
		if t.Kind != Newline {
			cur = append(cur, t)
			continue
		}

		if len(cur) != 0 {
			lines = append(lines, cur)
			cur = nil
		}
	}

	if len(cur) != 0 {
		lines = append(lines, cur)
	}

	return lines
}

func (a *Assembler) pass1(lines []statement) error {
	var pc uint64

	for _, line := range lines {
		switch {
		case len(line) == 1 && line[0].Kind == Label:
			name := strings.TrimSuffix(line[0].Lexeme, ":")

			err := a.Symbols.Define(name, pc)
			if err != nil {
				return err
			}
		case line[0].Kind == DotID && line[0].Lexeme == ".8byte":
			pc += 8
		default:
			pc += 4
		}
	}

	return nil
}

func (a *Assembler) pass2(lines []statement) (obj []byte, err error) {
	var pc uint64

	for _, line := range lines {
		// labels contributed in pass 1
		if len(line) == 1 && line[0].Kind == Label {
			continue
		}

		if line[0].Kind == DotID && line[0].Lexeme == ".8byte" {
			obj, err = a.data8(obj, line)
			if err != nil {
				return nil, err
			}

			pc += 8
			continue
		}

		if line[0].Kind != ID {
			return nil, errors.Wrap(ErrSyntax, "expected instruction, got %v %q", line[0].Kind, line[0].Lexeme)
		}

		w, err := a.encodeLine(line, pc)
		if err != nil {
			return nil, err
		}

		obj = arm64.AppendWord32(obj, w)
		pc += 4
	}

	return obj, nil
}

func (a *Assembler) data8(obj []byte, line statement) ([]byte, error) {
	if len(line) < 2 {
		return nil, errors.Wrap(ErrSyntax, "missing operand for .8byte")
	}

	var val uint64

	switch t := line[1]; t.Kind {
	case ID:
		addr, err := a.Symbols.Lookup(t.Lexeme)
		if err != nil {
			return nil, err
		}

		val = addr
	case Int, HexInt:
		v, err := parseData8(t.Lexeme)
		if err != nil {
			return nil, errors.Wrap(err, ".8byte")
		}

		val = v
	default:
		return nil, errors.Wrap(ErrSyntax, "bad .8byte operand %q", t.Lexeme)
	}

	return arm64.AppendWord64(obj, val), nil
}

// parseData8 parses a 64-bit datum with base auto-detection:
// 0x prefix selects hex, anything else is decimal.
// Negative values wrap to their two's-complement representation.
func parseData8(s string) (uint64, error) {
	if s == "" {
		return 0, errors.Wrap(ErrSyntax, "empty value")
	}

	body := s
	if s[0] == '-' || s[0] == '+' {
		body = s[1:]
	}

	base := 10
	if len(body) > 2 && body[0] == '0' && (body[1] == 'x' || body[1] == 'X') {
		base = 16
		body = body[2:]
	}

	if s[0] == '-' {
		v, err := strconv.ParseInt("-"+body, base, 64)
		if err != nil {
			return 0, errors.Wrap(ErrSyntax, "bad value %v", s)
		}

		return uint64(v), nil
	}

	v, err := strconv.ParseUint(body, base, 64)
	if err != nil {
		return 0, errors.Wrap(ErrSyntax, "bad value %v", s)
	}

	return v, nil
}

func (a *Assembler) encodeLine(line statement, pc uint64) (uint32, error) {
	instr := line[0].Lexeme

	pattern, ok := patterns[instr]
	if !ok {
		return 0, errors.Wrap(arm64.ErrUnknownInstruction, "%v", instr)
	}

	var args [3]int64
	ai := 0
	ti := 1

	// b with a condition suffix becomes b.cond, the condition
	// occupies argument slot 0 and the offset pattern stays j.
	if instr == "b" && len(line) > 1 && line[1].Kind == DotID {
		cond, ok := arm64.Conds[line[1].Lexeme]
		if !ok {
			return 0, errors.Wrap(arm64.ErrCondition, "%v", line[1].Lexeme)
		}

		args[ai] = cond
		ai++
		instr = "b.cond"
		ti = 2
	}

	for _, p := range pattern {
		if ti >= len(line) {
			return 0, errors.Wrap(ErrSyntax, "too few operands for %v", instr)
		}

		t := line[ti]
		ti++

		switch p {
		case 'r':
			if t.Kind != Reg && !(t.Kind == ID && t.Lexeme == "sp") {
				return 0, errors.Wrap(ErrSyntax, "expected register or sp, got %q", t.Lexeme)
			}

			v, err := arm64.ReadReg(t.Lexeme)
			if err != nil {
				return 0, err
			}

			args[ai] = v
			ai++
		case 'z':
			if t.Kind != Reg && t.Kind != ZReg {
				return 0, errors.Wrap(ErrSyntax, "expected register or xzr, got %q", t.Lexeme)
			}

			v, err := arm64.ReadReg(t.Lexeme)
			if err != nil {
				return 0, err
			}

			args[ai] = v
			ai++
		case 'c':
			if t.Kind != Comma {
				return 0, errors.Wrap(ErrSyntax, "expected comma, got %q", t.Lexeme)
			}
		case 'l':
			if t.Kind != LBrack {
				return 0, errors.Wrap(ErrSyntax, "expected '[', got %q", t.Lexeme)
			}
		case 't':
			if t.Kind != RBrack {
				return 0, errors.Wrap(ErrSyntax, "expected ']', got %q", t.Lexeme)
			}
		case 'i':
			if t.Kind != Int && t.Kind != HexInt {
				return 0, errors.Wrap(ErrSyntax, "expected immediate, got %q", t.Lexeme)
			}

			v, err := arm64.ReadImm(t.Lexeme)
			if err != nil {
				return 0, err
			}

			args[ai] = v
			ai++
		case 'j':
			switch t.Kind {
			case Int, HexInt:
				v, err := arm64.ReadImm(t.Lexeme)
				if err != nil {
					return 0, err
				}

				args[ai] = v
			case ID:
				addr, err := a.Symbols.Lookup(t.Lexeme)
				if err != nil {
					return 0, err
				}

				args[ai] = int64(addr) - int64(pc)
			default:
				return 0, errors.Wrap(ErrSyntax, "expected immediate or label, got %q", t.Lexeme)
			}

			ai++
		}
	}

	if ti < len(line) {
		return 0, errors.Wrap(ErrSyntax, "extra tokens after %v", instr)
	}

	return arm64.Encode(instr, args[0], args[1], args[2])
}
