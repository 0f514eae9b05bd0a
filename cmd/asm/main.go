package main

import (
	"context"
	"fmt"
	"io"
	"os"

	"golang.org/x/term"
	"nikand.dev/go/cli"
	"tlog.app/go/errors"
	"tlog.app/go/tlog"

	"github.com/a64asm/asm/compiler"
	"github.com/a64asm/asm/compiler/ir"
)

func main() {
	app := &cli.Command{
		Name:        "asm",
		Description: "asm assembles ARM64 machine code from tokens, assembly text, or pseudocode",
		Before:      before,
		Action:      run,
		Args:        cli.Args{},
		Flags: []*cli.Flag{
			cli.NewFlag("tokenized", false, "input is the pre-tokenized (KIND LEXEME) format"),
			cli.NewFlag("raw", false, "input is ARM64 assembly text"),
			cli.NewFlag("high", false, "input is pseudocode"),
			cli.NewFlag("dump-ir", false, "dump IR instead of assembling (with --high)"),

			cli.NewFlag("v", "", "verbosity topics"),
			cli.HelpFlag,
		},
	}

	err := cli.Run(app, os.Args, os.Environ())
	if err != nil {
		fmt.Fprintf(os.Stderr, "ERROR: %v\n", err)
		os.Exit(1)
	}
}

func before(c *cli.Command) error {
	if v := c.String("v"); v != "" {
		tlog.DefaultLogger = tlog.New(tlog.NewConsoleWriter(os.Stderr, tlog.LdetFlags))
		tlog.SetVerbosity(v)
	} else {
		tlog.DefaultLogger = nil
	}

	return nil
}

func run(c *cli.Command) (err error) {
	ctx := context.Background()
	ctx = tlog.ContextWithSpan(ctx, tlog.Root())

	mode, err := selectMode(c)
	if err != nil {
		return err
	}

	name, text, err := readInput(c)
	if err != nil {
		return err
	}

	if c.Bool("dump-ir") {
		if mode != compiler.High {
			return errors.New("--dump-ir requires --high")
		}

		prog, err := compiler.ParseIR(ctx, text)
		if err != nil {
			return err
		}

		_, err = os.Stderr.Write(ir.AppendDump(nil, prog))

		return err
	}

	obj, symbols, err := compiler.Assemble(ctx, name, text, mode)
	if err != nil {
		return err
	}

	if term.IsTerminal(int(os.Stdout.Fd())) {
		tlog.Root().Printw("writing raw binary to a terminal", "bytes", len(obj))
	}

	_, err = os.Stdout.Write(obj)
	if err != nil {
		return errors.Wrap(err, "write object")
	}

	_, err = os.Stderr.Write(symbols)
	if err != nil {
		return errors.Wrap(err, "write symbols")
	}

	return nil
}

func selectMode(c *cli.Command) (compiler.Mode, error) {
	mode := compiler.Tokenized
	n := 0

	if c.Bool("tokenized") {
		n++
	}

	if c.Bool("raw") {
		mode = compiler.Raw
		n++
	}

	if c.Bool("high") {
		mode = compiler.High
		n++
	}

	if n > 1 {
		return 0, errors.New("pick a single input mode")
	}

	return mode, nil
}

func readInput(c *cli.Command) (name string, text []byte, err error) {
	if len(c.Args) > 1 {
		return "", nil, errors.New("at most one input file")
	}

	name = "-"
	if len(c.Args) == 1 {
		name = c.Args[0]
	}

	if name == "-" {
		text, err = io.ReadAll(os.Stdin)
		if err != nil {
			return "", nil, errors.Wrap(err, "read stdin")
		}

		return "stdin", text, nil
	}

	text, err = os.ReadFile(name)
	if err != nil {
		return "", nil, errors.Wrap(err, "read %v", name)
	}

	return name, text, nil
}
