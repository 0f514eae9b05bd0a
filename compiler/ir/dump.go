package ir

import (
	"github.com/nikandfor/hacked/hfmt"
)

// AppendDump renders prog in the human-readable diagnostic format.
func AppendDump(b []byte, prog []Instr) []byte {
	for _, x := range prog {
		switch x := x.(type) {
		case Label:
			b = hfmt.Appendf(b, "%s:\n", string(x))
		case Add:
			b = hfmt.Appendf(b, "  ADD %s, %s, %s\n", x.Dst, x.Src1, x.Src2)
		case Sub:
			b = hfmt.Appendf(b, "  SUB %s, %s, %s\n", x.Dst, x.Src1, x.Src2)
		case Mul:
			b = hfmt.Appendf(b, "  MUL %s, %s, %s\n", x.Dst, x.Src1, x.Src2)
		case Div:
			b = hfmt.Appendf(b, "  DIV %s, %s, %s\n", x.Dst, x.Src1, x.Src2)
		case Mod:
			b = hfmt.Appendf(b, "  MOD %s, %s, %s\n", x.Dst, x.Src1, x.Src2)
		case Mov:
			b = hfmt.Appendf(b, "  MOV %s, %s\n", x.Dst, x.Src)
		case Load:
			b = hfmt.Appendf(b, "  LOAD %s, [%s + %s]\n", x.Dst, x.Base, x.Off)
		case Store:
			b = hfmt.Appendf(b, "  STORE [%s + %s], %s\n", x.Base, x.Off, x.Src)
		case CmpBranch:
			b = hfmt.Appendf(b, "  CMP_BRANCH %s %s %s, %s\n", x.Src1, x.Cond, x.Src2, x.Label)
		case Branch:
			b = hfmt.Appendf(b, "  BRANCH %s\n", x.Label)
		case Call:
			b = hfmt.Appendf(b, "  CALL %s\n", x.Src)
		case Ret:
			b = append(b, "  RET\n"...)
		case Data8:
			b = hfmt.Appendf(b, "  DATA8 %s\n", x.Value)
		}
	}

	return b
}
