package parser

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/stanzalang/stanza/internal/ast"
)

type tokenKind int

const (
	tokEOF tokenKind = iota
	tokIdent
	tokInteger
	tokString
	tokCapture // @name or @N
	tokKeyword
	tokPunct
)

type token struct {
	kind tokenKind
	text string
	loc  ast.Location
}

// lexer tokenises one stanza source file. Stanza patterns (the
// `(query) { ... }` head) are handed to the tree-sitter query compiler
// verbatim as balanced-parenthesis text, so the lexer's only job
// inside a pattern is counting parens; it tokenises properly once
// inside the `{ }` statement block.
type lexer struct {
	src []byte
	pos int
	row int
	col int
}

func newLexer(src []byte) *lexer {
	return &lexer{src: src}
}

func (l *lexer) loc() ast.Location { return ast.Location{Row: l.row, Column: l.col} }

func (l *lexer) peekByte() byte {
	if l.pos >= len(l.src) {
		return 0
	}
	return l.src[l.pos]
}

func (l *lexer) advance() byte {
	b := l.src[l.pos]
	l.pos++
	if b == '\n' {
		l.row++
		l.col = 0
	} else {
		l.col++
	}
	return b
}

func (l *lexer) skipTrivia() {
	for l.pos < len(l.src) {
		b := l.peekByte()
		switch {
		case b == ' ' || b == '\t' || b == '\r' || b == '\n':
			l.advance()
		case b == ';' && l.pos+1 < len(l.src) && l.src[l.pos+1] == ';':
			for l.pos < len(l.src) && l.peekByte() != '\n' {
				l.advance()
			}
		default:
			return
		}
	}
}

// readBalanced reads a parenthesised tree-sitter query pattern
// starting at '(' through its matching ')', inclusive, as raw text.
func (l *lexer) readBalanced() (string, ast.Location, error) {
	l.skipTrivia()
	start := l.loc()
	if l.peekByte() != '(' {
		return "", start, fmt.Errorf("%s: expected '(' to start a stanza pattern", start)
	}
	depth := 0
	var sb strings.Builder
	for l.pos < len(l.src) {
		b := l.advance()
		sb.WriteByte(b)
		switch b {
		case '(':
			depth++
		case ')':
			depth--
			if depth == 0 {
				// consume any trailing capture name, e.g. `) @root`
				l.skipTrivia()
				for l.peekByte() == '@' {
					sb.WriteByte(l.advance())
					for isIdentByte(l.peekByte()) {
						sb.WriteByte(l.advance())
					}
					l.skipTrivia()
				}
				return sb.String(), start, nil
			}
		}
	}
	return "", start, fmt.Errorf("%s: unterminated stanza pattern", start)
}

func isIdentStart(b byte) bool {
	return b == '_' || (b >= 'a' && b <= 'z') || (b >= 'A' && b <= 'Z')
}

func isIdentByte(b byte) bool {
	return isIdentStart(b) || (b >= '0' && b <= '9')
}

var keywords = map[string]bool{
	"node": true, "edge": true, "attr": true,
	"let": true, "var": true, "set": true,
	"scan": true, "print": true,
}

func (l *lexer) next() (token, error) {
	l.skipTrivia()
	loc := l.loc()
	if l.pos >= len(l.src) {
		return token{kind: tokEOF, loc: loc}, nil
	}

	b := l.peekByte()
	switch {
	case b == '#':
		l.advance()
		start := l.pos
		for isIdentByte(l.peekByte()) {
			l.advance()
		}
		return token{kind: tokIdent, text: "#" + string(l.src[start:l.pos]), loc: loc}, nil

	case b == '@':
		l.advance()
		start := l.pos
		for isIdentByte(l.peekByte()) {
			l.advance()
		}
		return token{kind: tokCapture, text: string(l.src[start:l.pos]), loc: loc}, nil

	case b == '"':
		return l.readString(loc)

	case b >= '0' && b <= '9':
		start := l.pos
		for l.peekByte() >= '0' && l.peekByte() <= '9' {
			l.advance()
		}
		return token{kind: tokInteger, text: string(l.src[start:l.pos]), loc: loc}, nil

	case isIdentStart(b):
		start := l.pos
		for isIdentByte(l.peekByte()) {
			l.advance()
		}
		text := string(l.src[start:l.pos])
		if keywords[text] {
			return token{kind: tokKeyword, text: text, loc: loc}, nil
		}
		return token{kind: tokIdent, text: text, loc: loc}, nil

	case b == '-' && l.pos+1 < len(l.src) && l.src[l.pos+1] == '>':
		l.advance()
		l.advance()
		return token{kind: tokPunct, text: "->", loc: loc}, nil

	case strings.ContainsRune("(){}.,=;[]", rune(b)):
		l.advance()
		return token{kind: tokPunct, text: string(b), loc: loc}, nil

	default:
		return token{}, fmt.Errorf("%s: unexpected character %q", loc, b)
	}
}

func (l *lexer) readString(loc ast.Location) (token, error) {
	l.advance() // opening quote
	var sb strings.Builder
	for {
		if l.pos >= len(l.src) {
			return token{}, fmt.Errorf("%s: unterminated string literal", loc)
		}
		b := l.advance()
		if b == '"' {
			break
		}
		if b == '\\' && l.pos < len(l.src) {
			esc := l.advance()
			switch esc {
			case 'n':
				sb.WriteByte('\n')
			case 't':
				sb.WriteByte('\t')
			case '"':
				sb.WriteByte('"')
			case '\\':
				sb.WriteByte('\\')
			default:
				sb.WriteByte(esc)
			}
			continue
		}
		sb.WriteByte(b)
	}
	return token{kind: tokString, text: sb.String(), loc: loc}, nil
}

func parseInteger(text string) (int64, error) {
	return strconv.ParseInt(text, 10, 64)
}
