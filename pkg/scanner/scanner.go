// Package scanner turns Lox source text into tokens.
package scanner

import (
	"fmt"
	"strconv"
	"strings"
	"unicode"

	"golang.org/x/text/unicode/norm"

	"lox/interpreter-go/pkg/token"
)

// Error is a lexical error tagged with the line it occurred on.
type Error struct {
	Line    int
	Message string
}

func (e Error) Error() string {
	return fmt.Sprintf("[line %d] Error: %s", e.Line, e.Message)
}

// ErrorList aggregates every scan error found in one pass.
type ErrorList []Error

func (l ErrorList) Error() string {
	parts := make([]string, len(l))
	for i, err := range l {
		parts[i] = err.Error()
	}
	return strings.Join(parts, "\n")
}

// Scanner walks a source buffer one rune at a time.
type Scanner struct {
	src     []rune
	start   int
	current int
	line    int
	tokens  []token.Token
	errors  ErrorList
}

// New prepares a scanner over source.
func New(source string) *Scanner {
	return &Scanner{src: []rune(source), line: 1}
}

// Scan is a convenience wrapper returning the full token sequence and, when
// any lexeme was malformed, an ErrorList.
func Scan(source string) ([]token.Token, error) {
	s := New(source)
	tokens := s.ScanTokens()
	if len(s.errors) > 0 {
		return tokens, s.errors
	}
	return tokens, nil
}

// ScanTokens scans the whole buffer. Scanning continues past errors so one
// call reports all of them; the result always ends with an EOF token.
func (s *Scanner) ScanTokens() []token.Token {
	for !s.atEnd() {
		s.start = s.current
		s.scanToken()
	}
	s.tokens = append(s.tokens, token.New(token.EOF, "", nil, s.line))
	return s.tokens
}

// Errors returns the errors collected so far.
func (s *Scanner) Errors() ErrorList {
	return s.errors
}

func (s *Scanner) scanToken() {
	c := s.advance()
	switch c {
	case '(':
		s.add(token.LeftParen)
	case ')':
		s.add(token.RightParen)
	case '{':
		s.add(token.LeftBrace)
	case '}':
		s.add(token.RightBrace)
	case ',':
		s.add(token.Comma)
	case '.':
		s.add(token.Dot)
	case '-':
		s.add(token.Minus)
	case '+':
		s.add(token.Plus)
	case ';':
		s.add(token.Semicolon)
	case ':':
		s.add(token.Colon)
	case '*':
		s.add(token.Star)
	case '!':
		s.addEither('=', token.BangEqual, token.Bang)
	case '=':
		s.addEither('=', token.EqualEqual, token.Equal)
	case '<':
		s.addEither('=', token.LessEqual, token.Less)
	case '>':
		s.addEither('=', token.GreaterEqual, token.Greater)
	case '/':
		if s.match('/') {
			for s.peek() != '\n' && !s.atEnd() {
				s.advance()
			}
			return
		}
		s.add(token.Slash)
	case ' ', '\r', '\t':
	case '\n':
		s.line++
	case '"':
		s.scanString()
	default:
		switch {
		case isDigit(c):
			s.number()
		case isIdentStart(c):
			s.identifier()
		default:
			s.errorf("Unexpected character '%c'.", c)
		}
	}
}

func (s *Scanner) scanString() {
	for s.peek() != '"' && !s.atEnd() {
		if s.peek() == '\n' {
			s.line++
		}
		s.advance()
	}
	if s.atEnd() {
		s.errorf("Unterminated string.")
		return
	}
	s.advance()
	value := string(s.src[s.start+1 : s.current-1])
	s.addLiteral(token.String, value)
}

func (s *Scanner) number() {
	for isDigit(s.peek()) {
		s.advance()
	}
	if s.peek() == '.' && isDigit(s.peekNext()) {
		s.advance()
		for isDigit(s.peek()) {
			s.advance()
		}
	}
	lexeme := string(s.src[s.start:s.current])
	value, err := strconv.ParseFloat(lexeme, 64)
	if err != nil {
		s.errorf("Invalid number '%s'.", lexeme)
		return
	}
	s.addLiteral(token.Number, value)
}

func (s *Scanner) identifier() {
	for isIdentPart(s.peek()) {
		s.advance()
	}
	// Identifiers are compared in NFC so precomposed and decomposed
	// spellings name the same variable. String literals keep their runes.
	text := norm.NFC.String(string(s.src[s.start:s.current]))
	s.tokens = append(s.tokens, token.New(token.Lookup(text), text, nil, s.line))
}

func (s *Scanner) add(typ token.Type) {
	s.addLiteral(typ, nil)
}

func (s *Scanner) addEither(next rune, matched, otherwise token.Type) {
	if s.match(next) {
		s.add(matched)
		return
	}
	s.add(otherwise)
}

func (s *Scanner) addLiteral(typ token.Type, literal any) {
	lexeme := string(s.src[s.start:s.current])
	s.tokens = append(s.tokens, token.New(typ, lexeme, literal, s.line))
}

func (s *Scanner) errorf(format string, args ...any) {
	s.errors = append(s.errors, Error{Line: s.line, Message: fmt.Sprintf(format, args...)})
}

func (s *Scanner) atEnd() bool {
	return s.current >= len(s.src)
}

func (s *Scanner) advance() rune {
	c := s.src[s.current]
	s.current++
	return c
}

func (s *Scanner) match(expected rune) bool {
	if s.atEnd() || s.src[s.current] != expected {
		return false
	}
	s.current++
	return true
}

func (s *Scanner) peek() rune {
	if s.atEnd() {
		return 0
	}
	return s.src[s.current]
}

func (s *Scanner) peekNext() rune {
	if s.current+1 >= len(s.src) {
		return 0
	}
	return s.src[s.current+1]
}

func isDigit(c rune) bool {
	return c >= '0' && c <= '9'
}

func isIdentStart(c rune) bool {
	return c == '_' || unicode.IsLetter(c)
}

func isIdentPart(c rune) bool {
	return isIdentStart(c) || isDigit(c) || unicode.Is(unicode.Mn, c)
}
