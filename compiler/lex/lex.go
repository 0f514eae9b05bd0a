package lex

import (
	"bytes"
	"context"
	"strings"

	"tlog.app/go/errors"

	"github.com/a64asm/asm/compiler/asm"
	"github.com/a64asm/asm/compiler/asm/arm64"
)

var ErrSyntax = errors.New("syntax error")

// ReadTokens parses the pre-tokenized input format: whitespace
// separated "KIND LEXEME" pairs, except NEWLINE has no lexeme.
func ReadTokens(ctx context.Context, text []byte) (tokens []asm.Token, err error) {
	fields := strings.Fields(string(text))

	for i := 0; i < len(fields); {
		k := asm.KindFromString(fields[i])
		if k == asm.None {
			return nil, errors.Wrap(ErrSyntax, "unknown token kind: %v", fields[i])
		}

		i++

		if k == asm.Newline {
			tokens = append(tokens, asm.Token{Kind: k})
			continue
		}

		if i == len(fields) {
			return nil, errors.Wrap(ErrSyntax, "missing lexeme for %v", k)
		}

		tokens = append(tokens, asm.Token{Kind: k, Lexeme: fields[i]})
		i++
	}

	return tokens, nil
}

// Lex scans raw ARM64 assembly text. Comments run from ; or // to the
// end of the line. Every source line produces a trailing Newline token.
func Lex(ctx context.Context, text []byte) (tokens []asm.Token) {
	for len(text) != 0 {
		line := text

		if i := bytes.IndexByte(text, '\n'); i >= 0 {
			line, text = text[:i], text[i+1:]
		} else {
			text = nil
		}

		tokens = lexLine(tokens, string(line))
		tokens = append(tokens, asm.Token{Kind: asm.Newline})
	}

	return tokens
}

func lexLine(out []asm.Token, line string) []asm.Token {
	line = stripComment(line)

	for i := 0; i < len(line); {
		switch c := line[i]; c {
		case ' ', '\t', '\r':
			i++
		case ',':
			out = append(out, asm.Token{Kind: asm.Comma, Lexeme: ","})
			i++
		case '[':
			out = append(out, asm.Token{Kind: asm.LBrack, Lexeme: "["})
			i++
		case ']':
			out = append(out, asm.Token{Kind: asm.RBrack, Lexeme: "]"})
			i++
		default:
			st := i

			for i < len(line) && !isDelim(line[i]) {
				i++
			}

			out = classify(out, line[st:i])
		}
	}

	return out
}

func stripComment(line string) string {
	if i := strings.Index(line, "//"); i >= 0 {
		line = line[:i]
	}

	if i := strings.Index(line, ";"); i >= 0 {
		line = line[:i]
	}

	return line
}

func isDelim(c byte) bool {
	switch c {
	case ' ', '\t', '\r', ',', '[', ']':
		return true
	}

	return false
}

// classify turns one word into a token. Conditional branches such as
// b.eq split into two: ID "b" followed by DOTID ".eq".
func classify(out []asm.Token, word string) []asm.Token {
	if word == "" {
		return out
	}

	if len(word) >= 4 && word[0] == 'b' && word[1] == '.' {
		if _, ok := arm64.Conds[word[1:]]; ok {
			return append(out,
				asm.Token{Kind: asm.ID, Lexeme: "b"},
				asm.Token{Kind: asm.DotID, Lexeme: word[1:]},
			)
		}
	}

	switch {
	case word[len(word)-1] == ':':
		return append(out, asm.Token{Kind: asm.Label, Lexeme: word})
	case word[0] == '.':
		return append(out, asm.Token{Kind: asm.DotID, Lexeme: word})
	case len(word) > 2 && word[0] == '0' && (word[1] == 'x' || word[1] == 'X'):
		return append(out, asm.Token{Kind: asm.HexInt, Lexeme: word})
	case isInt(word):
		return append(out, asm.Token{Kind: asm.Int, Lexeme: word})
	case word == "xzr":
		return append(out, asm.Token{Kind: asm.ZReg, Lexeme: word})
	case len(word) >= 2 && word[0] == 'x' && word[1] >= '0' && word[1] <= '9':
		return append(out, asm.Token{Kind: asm.Reg, Lexeme: word})
	}

	// instruction name, label reference, sp
	return append(out, asm.Token{Kind: asm.ID, Lexeme: word})
}

func isInt(s string) bool {
	i := 0
	if s[0] == '-' || s[0] == '+' {
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
