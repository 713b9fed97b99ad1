package driver

import (
	"fmt"
	"io"
	"os"
	"path/filepath"

	"lox/interpreter-go/pkg/ast"
	"lox/interpreter-go/pkg/interpreter"
	"lox/interpreter-go/pkg/parser"
	"lox/interpreter-go/pkg/resolver"
	"lox/interpreter-go/pkg/scanner"
)

// Session runs successive programs against one interpreter, so globals and
// resolved distances from earlier runs stay visible to later ones.
type Session struct {
	cfg    Config
	interp *interpreter.Interpreter
	runs   int
}

// NewSession builds a session printing to out.
func NewSession(cfg Config, out io.Writer) (*Session, error) {
	interp := interpreter.New(out)
	interp.SetMaxCallDepth(cfg.MaxCallDepth)
	if err := interp.EnableNatives(cfg.Natives...); err != nil {
		return nil, fmt.Errorf("driver: %w", err)
	}
	return &Session{cfg: cfg, interp: interp}, nil
}

// Interpreter exposes the underlying interpreter, e.g. to define natives.
func (s *Session) Interpreter() *interpreter.Interpreter {
	return s.interp
}

// Runs reports how many programs reached execution.
func (s *Session) Runs() int {
	return s.runs
}

// Run checks and executes source. Static errors are returned as one *Error
// batch before anything executes; a runtime error stops the program and is
// returned as an *Error holding that single diagnostic.
func (s *Session) Run(source string) error {
	return s.run(source, "")
}

// RunFile reads and runs the script at path. Diagnostics carry the path.
func (s *Session) RunFile(path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("driver: read %s: %w", path, err)
	}
	return s.run(string(data), filepath.Base(path))
}

func (s *Session) run(source, path string) error {
	program, err := Check(source)
	if err != nil {
		return attachPath(err, path)
	}
	locals, err := resolver.Resolve(program)
	if err != nil {
		return attachPath(asDriverError(err), path)
	}
	s.runs++
	if err := s.interp.Interpret(program, locals); err != nil {
		return attachPath(asDriverError(err), path)
	}
	return nil
}

// Check scans and parses source without resolving or running it. Scan
// errors are reported alone; parsing only runs over a clean token stream.
func Check(source string) (*ast.Program, error) {
	tokens, err := scanner.Scan(source)
	if err != nil {
		return nil, asDriverError(err)
	}
	program, err := parser.Parse(tokens)
	if err != nil {
		return nil, asDriverError(err)
	}
	return program, nil
}

// Validate runs every static check on source without executing it.
func Validate(source string) error {
	program, err := Check(source)
	if err != nil {
		return err
	}
	if _, err := resolver.Resolve(program); err != nil {
		return asDriverError(err)
	}
	return nil
}

// Run executes source in a fresh session.
func Run(source string, out io.Writer, cfg Config) error {
	session, err := NewSession(cfg, out)
	if err != nil {
		return err
	}
	return session.Run(source)
}

func asDriverError(err error) error {
	if diags, ok := collectDiagnostics(err); ok {
		return &Error{Diagnostics: diags}
	}
	return fmt.Errorf("driver: %w", err)
}

func attachPath(err error, path string) error {
	if path == "" {
		return err
	}
	if derr, ok := err.(*Error); ok {
		derr.Diagnostics = withPath(derr.Diagnostics, path)
	}
	return err
}
