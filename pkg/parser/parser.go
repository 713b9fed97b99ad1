// Package parser builds Lox syntax trees by recursive descent.
package parser

import (
	"fmt"
	"strings"

	"lox/interpreter-go/pkg/ast"
	"lox/interpreter-go/pkg/scanner"
	"lox/interpreter-go/pkg/token"
)

// Error is a grammar violation at a specific token.
type Error struct {
	Token   token.Token
	Message string
}

func (e Error) Error() string {
	return fmt.Sprintf("[line %d] Error%s: %s", e.Token.Line, Where(e.Token), e.Message)
}

// Where describes the location of tok the way diagnostics print it.
func Where(tok token.Token) string {
	if tok.Type == token.EOF {
		return " at end"
	}
	return fmt.Sprintf(" at '%s'", tok.Lexeme)
}

// ErrorList aggregates every parse error found in one pass.
type ErrorList []Error

func (l ErrorList) Error() string {
	parts := make([]string, len(l))
	for i, err := range l {
		parts[i] = err.Error()
	}
	return strings.Join(parts, "\n")
}

// Parser consumes a token sequence produced by the scanner.
type Parser struct {
	tokens  []token.Token
	current int
	errors  ErrorList
}

// New prepares a parser. tokens must end with an EOF token.
func New(tokens []token.Token) *Parser {
	if len(tokens) == 0 || tokens[len(tokens)-1].Type != token.EOF {
		line := 1
		if len(tokens) > 0 {
			line = tokens[len(tokens)-1].Line
		}
		tokens = append(tokens, token.New(token.EOF, "", nil, line))
	}
	return &Parser{tokens: tokens}
}

// Parse parses a whole program. On malformed input it recovers at the next
// statement boundary and keeps going; the returned error is an ErrorList
// holding every problem and the program must not be executed.
func Parse(tokens []token.Token) (*ast.Program, error) {
	p := New(tokens)
	program := p.ParseProgram()
	if len(p.errors) > 0 {
		return program, p.errors
	}
	return program, nil
}

// ParseSource scans and parses source. Scan errors are returned before any
// parsing is attempted.
func ParseSource(source string) (*ast.Program, error) {
	tokens, err := scanner.Scan(source)
	if err != nil {
		return nil, err
	}
	return Parse(tokens)
}

// ParseProgram parses declarations until EOF.
func (p *Parser) ParseProgram() *ast.Program {
	body := make([]ast.Statement, 0)
	for !p.atEnd() {
		if stmt := p.declaration(); stmt != nil {
			body = append(body, stmt)
		}
	}
	return ast.NewProgram(body)
}

// Errors returns the errors collected so far.
func (p *Parser) Errors() ErrorList {
	return p.errors
}

// report records an error without unwinding.
func (p *Parser) report(tok token.Token, message string) {
	p.errors = append(p.errors, Error{Token: tok, Message: message})
}

func (p *Parser) errorAt(tok token.Token, message string) error {
	return Error{Token: tok, Message: message}
}

// synchronize discards tokens until a likely statement boundary.
func (p *Parser) synchronize() {
	p.advance()
	for !p.atEnd() {
		if p.previous().Type == token.Semicolon {
			return
		}
		switch p.peek().Type {
		case token.Class, token.Fun, token.Var, token.For, token.If,
			token.While, token.Print, token.Return:
			return
		}
		p.advance()
	}
}

func (p *Parser) match(types ...token.Type) bool {
	for _, typ := range types {
		if p.check(typ) {
			p.advance()
			return true
		}
	}
	return false
}

func (p *Parser) consume(typ token.Type, message string) (token.Token, error) {
	if p.check(typ) {
		return p.advance(), nil
	}
	return token.Token{}, p.errorAt(p.peek(), message)
}

func (p *Parser) check(typ token.Type) bool {
	if p.atEnd() {
		return false
	}
	return p.peek().Type == typ
}

func (p *Parser) checkNext(typ token.Type) bool {
	if p.current+1 >= len(p.tokens) {
		return false
	}
	return p.tokens[p.current+1].Type == typ
}

func (p *Parser) advance() token.Token {
	if !p.atEnd() {
		p.current++
	}
	return p.previous()
}

func (p *Parser) atEnd() bool {
	return p.peek().Type == token.EOF
}

func (p *Parser) peek() token.Token {
	return p.tokens[p.current]
}

func (p *Parser) previous() token.Token {
	return p.tokens[p.current-1]
}
