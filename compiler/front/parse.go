package front

import (
	"bytes"
	"context"
	"strings"

	"tlog.app/go/errors"
	"tlog.app/go/tlog"

	"github.com/a64asm/asm/compiler/ir"
)

var ErrSyntax = errors.New("syntax error")

// conds are the comparison operators an if clause accepts.
var conds = map[string]struct{}{
	"==": {}, "!=": {},
	"<": {}, "<=": {},
	">": {}, ">=": {},
}

// Parse turns pseudocode into IR, one statement per line.
// Blank lines and lines whose first non-space character is # are skipped.
func Parse(ctx context.Context, text []byte) (prog []ir.Instr, err error) {
	tr := tlog.SpanFromContext(ctx)

	lineno := 0

	for len(text) != 0 {
		line := text

		if i := bytes.IndexByte(text, '\n'); i >= 0 {
			line, text = text[:i], text[i+1:]
		} else {
			text = nil
		}

		lineno++

		s := strings.TrimSpace(string(line))
		if s == "" || s[0] == '#' {
			continue
		}

		prog, err = parseLine(prog, s)
		if err != nil {
			return nil, errors.Wrap(err, "line %d", lineno)
		}
	}

	tr.Printw("pseudocode parsed", "lines", lineno, "instrs", len(prog))

	return prog, nil
}

func parseLine(prog []ir.Instr, line string) ([]ir.Instr, error) {
	words := strings.Fields(line)

	switch words[0] {
	case "label":
		if len(words) < 2 {
			return nil, errors.Wrap(ErrSyntax, "label requires a name")
		}

		return append(prog, ir.Label(words[1])), nil
	case "goto":
		if len(words) < 2 {
			return nil, errors.Wrap(ErrSyntax, "goto requires a label")
		}

		return append(prog, ir.Branch{Label: words[1]}), nil
	case "call":
		if len(words) < 2 {
			return nil, errors.Wrap(ErrSyntax, "call requires a register")
		}

		return append(prog, ir.Call{Src: words[1]}), nil
	case "ret":
		return append(prog, ir.Ret{}), nil
	case ".8byte":
		if len(words) < 2 {
			return nil, errors.Wrap(ErrSyntax, ".8byte requires a value")
		}

		return append(prog, ir.Data8{Value: words[1]}), nil
	case "if":
		return parseIf(prog, words)
	}

	eq := -1

	for i, w := range words {
		if w == "=" {
			eq = i
			break
		}
	}

	if eq < 0 {
		return nil, errors.Wrap(ErrSyntax, "unrecognized statement: %v", line)
	}

	if words[0][0] == '*' {
		return parseStore(prog, words, eq)
	}

	if eq != 1 {
		return nil, errors.Wrap(ErrSyntax, "expected 'register = ...': %v", line)
	}

	return parseAssign(prog, words[0], words[2:], line)
}

func parseIf(prog []ir.Instr, words []string) ([]ir.Instr, error) {
	if len(words) < 6 || words[4] != "goto" {
		return nil, errors.Wrap(ErrSyntax, "want 'if <reg> <op> <reg> goto <label>'")
	}

	if _, ok := conds[words[2]]; !ok {
		return nil, errors.Wrap(ErrSyntax, "unknown comparison: %v", words[2])
	}

	return append(prog, ir.CmpBranch{
		Src1:  words[1],
		Src2:  words[3],
		Cond:  words[2],
		Label: words[5],
	}), nil
}

func parseAssign(prog []ir.Instr, dst string, rhs []string, line string) ([]ir.Instr, error) {
	if len(rhs) != 0 && rhs[0][0] == '*' {
		base, off, err := parseAddr(strings.Join(rhs, " ")[1:])
		if err != nil {
			return nil, err
		}

		return append(prog, ir.Load{Dst: dst, Base: base, Off: off}), nil
	}

	if len(rhs) == 3 && isReg(rhs[0]) && isReg(rhs[2]) {
		switch rhs[1] {
		case "+":
			return append(prog, ir.Add{Dst: dst, Src1: rhs[0], Src2: rhs[2]}), nil
		case "-":
			return append(prog, ir.Sub{Dst: dst, Src1: rhs[0], Src2: rhs[2]}), nil
		case "*":
			return append(prog, ir.Mul{Dst: dst, Src1: rhs[0], Src2: rhs[2]}), nil
		case "/":
			return append(prog, ir.Div{Dst: dst, Src1: rhs[0], Src2: rhs[2]}), nil
		case "%":
			return append(prog, ir.Mod{Dst: dst, Src1: rhs[0], Src2: rhs[2]}), nil
		}

		return nil, errors.Wrap(ErrSyntax, "unknown operator: %v", rhs[1])
	}

	if len(rhs) == 1 && isReg(rhs[0]) {
		return append(prog, ir.Mov{Dst: dst, Src: rhs[0]}), nil
	}

	return nil, errors.Wrap(ErrSyntax, "unrecognized assignment: %v", line)
}

func parseStore(prog []ir.Instr, words []string, eq int) ([]ir.Instr, error) {
	if eq+1 >= len(words) {
		return nil, errors.Wrap(ErrSyntax, "missing value in store")
	}

	base, off, err := parseAddr(strings.Join(words[:eq], " ")[1:])
	if err != nil {
		return nil, err
	}

	return append(prog, ir.Store{Base: base, Src: words[eq+1], Off: off}), nil
}

// parseAddr decodes a pointer expression with the leading '*' already
// stripped: "x1", "(x1 + 8)", "( x1 + 8 )". The offset defaults to 0.
func parseAddr(s string) (base, off string, err error) {
	off = "0"

	s = strings.TrimSpace(s)

	if s != "" && s[0] != '(' {
		if parts := strings.Fields(s); len(parts) == 1 {
			return parts[0], off, nil
		}

		return "", "", errors.Wrap(ErrSyntax, "bad address expression: *%s", s)
	}

	s = strings.TrimSpace(strings.TrimPrefix(s, "("))
	if !strings.HasSuffix(s, ")") {
		return "", "", errors.Wrap(ErrSyntax, "bad address expression: *(%s", s)
	}

	s = strings.TrimSuffix(s, ")")

	parts := strings.Fields(s)
	switch {
	case len(parts) == 1:
		base = parts[0]
	case len(parts) == 3 && parts[1] == "+":
		base, off = parts[0], parts[2]
	default:
		return "", "", errors.Wrap(ErrSyntax, "bad address expression: *%s", s)
	}

	return base, off, nil
}

func isReg(s string) bool {
	if s == "xzr" || s == "sp" {
		return true
	}

	return len(s) >= 2 && s[0] == 'x' && s[1] >= '0' && s[1] <= '9'
}
