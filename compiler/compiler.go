package compiler

import (
	"context"
	"os"

	"tlog.app/go/errors"
	"tlog.app/go/tlog"

	"github.com/a64asm/asm/compiler/asm"
	"github.com/a64asm/asm/compiler/back"
	"github.com/a64asm/asm/compiler/front"
	"github.com/a64asm/asm/compiler/ir"
	"github.com/a64asm/asm/compiler/lex"
)

// Mode selects how the input text enters the pipeline.
type Mode int

const (
	Tokenized Mode = iota // pre-tokenized "KIND LEXEME" format
	Raw                   // ARM64 assembly text
	High                  // pseudocode
)

func (m Mode) String() string {
	switch m {
	case Tokenized:
		return "tokenized"
	case Raw:
		return "raw"
	case High:
		return "high"
	}

	return "unknown"
}

// AssembleFile reads and assembles a single source file.
func AssembleFile(ctx context.Context, name string, mode Mode) (obj, symbols []byte, err error) {
	text, err := os.ReadFile(name)
	if err != nil {
		return nil, nil, errors.Wrap(err, "read file")
	}

	tlog.SpanFromContext(ctx).Printw("read file", "size", len(text), "name", name)

	return Assemble(ctx, name, text, mode)
}

// Assemble runs the pipeline for the given input mode. It returns the
// little-endian object bytes and the rendered label dump.
func Assemble(ctx context.Context, name string, text []byte, mode Mode) (obj, symbols []byte, err error) {
	tr, ctx := tlog.SpawnFromContextAndWrap(ctx, "assemble", "name", name, "mode", mode)
	defer tr.Finish("err", &err)

	tokens, err := tokenize(ctx, text, mode)
	if err != nil {
		return nil, nil, err
	}

	if tr.If("dump_tokens") {
		tr.Printw("token stream", "tokens", tokens)
	}

	a := asm.New()

	obj, err = a.Assemble(ctx, tokens)
	if err != nil {
		return nil, nil, errors.Wrap(err, "assemble")
	}

	return obj, a.AppendSymbols(nil), nil
}

func tokenize(ctx context.Context, text []byte, mode Mode) ([]asm.Token, error) {
	switch mode {
	case Tokenized:
		return lex.ReadTokens(ctx, text)
	case Raw:
		return lex.Lex(ctx, text), nil
	case High:
		prog, err := ParseIR(ctx, text)
		if err != nil {
			return nil, err
		}

		return back.Lower(ctx, prog)
	}

	return nil, errors.New("unknown mode: %v", mode)
}

// ParseIR exposes the pseudocode front end, for IR dumps.
func ParseIR(ctx context.Context, text []byte) (prog []ir.Instr, err error) {
	tr := tlog.SpanFromContext(ctx)

	prog, err = front.Parse(ctx, text)
	if err != nil {
		return nil, errors.Wrap(err, "parse pseudocode")
	}

	if tr.If("dump_ir") {
		tr.Printw("ir", "dump", string(ir.AppendDump(nil, prog)))
	}

	return prog, nil
}
