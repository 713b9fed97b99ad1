package interpreter

import (
	"fmt"
	"io"

	"lox/interpreter-go/pkg/ast"
	"lox/interpreter-go/pkg/resolver"
	"lox/interpreter-go/pkg/runtime"
)

// DefaultMaxCallDepth bounds nested calls before "Stack overflow." is raised.
const DefaultMaxCallDepth = 2048

// Interpreter drives evaluation of resolved Lox programs. One interpreter
// owns one environment graph and must be used from a single goroutine.
type Interpreter struct {
	global       *runtime.Environment
	locals       resolver.Locals
	out          io.Writer
	maxCallDepth int
	depth        int
}

// New returns an interpreter printing to out with an empty global
// environment. Natives are added with EnableNatives.
func New(out io.Writer) *Interpreter {
	if out == nil {
		out = io.Discard
	}
	return &Interpreter{
		global:       runtime.NewEnvironment(nil),
		locals:       make(resolver.Locals),
		out:          out,
		maxCallDepth: DefaultMaxCallDepth,
	}
}

// GlobalEnvironment returns the interpreter's global environment.
func (i *Interpreter) GlobalEnvironment() *runtime.Environment {
	return i.global
}

// SetMaxCallDepth overrides the call-depth guard; n <= 0 restores the default.
func (i *Interpreter) SetMaxCallDepth(n int) {
	if n <= 0 {
		n = DefaultMaxCallDepth
	}
	i.maxCallDepth = n
}

// Interpret executes a program whose references were resolved into locals.
// Distances accumulate across calls so a session can run many programs
// against the same globals. The first runtime error stops execution and is
// returned as a *RuntimeError.
func (i *Interpreter) Interpret(program *ast.Program, locals resolver.Locals) error {
	if program == nil {
		return fmt.Errorf("interpreter: program is nil")
	}
	for expr, distance := range locals {
		i.locals[expr] = distance
	}
	i.depth = 0
	for _, stmt := range program.Body {
		if _, err := i.executeStatement(stmt, i.global); err != nil {
			return err
		}
	}
	return nil
}

// CallFunction invokes a user-defined function; it implements runtime.Invoker.
func (i *Interpreter) CallFunction(fn *runtime.FunctionValue, args []runtime.Value) (runtime.Value, error) {
	if len(args) != len(fn.Params) {
		return nil, fmt.Errorf("Expected %d %s but got %d.", len(fn.Params), pluralArgs(len(fn.Params)), len(args))
	}
	env := runtime.NewEnvironment(fn.Closure)
	for idx, param := range fn.Params {
		env.Define(param.Lexeme, args[idx])
	}
	result, err := i.executeBlock(fn.Body, env)
	if err != nil {
		return nil, err
	}
	if fn.IsInitializer {
		return fn.Closure.GetAt(0, "this")
	}
	if result.returning {
		return result.value, nil
	}
	return runtime.NilValue{}, nil
}

// isTruthy treats only nil and false as false.
func isTruthy(val runtime.Value) bool {
	switch v := val.(type) {
	case runtime.NilValue:
		return false
	case runtime.BoolValue:
		return v.Val
	default:
		return true
	}
}

// valuesEqual never coerces across kinds. Numbers follow IEEE comparison so
// NaN is unequal to itself; reference kinds compare by identity.
func valuesEqual(a, b runtime.Value) bool {
	switch av := a.(type) {
	case runtime.NilValue:
		_, ok := b.(runtime.NilValue)
		return ok
	case runtime.BoolValue:
		bv, ok := b.(runtime.BoolValue)
		return ok && av.Val == bv.Val
	case runtime.NumberValue:
		bv, ok := b.(runtime.NumberValue)
		return ok && av.Val == bv.Val
	case runtime.StringValue:
		bv, ok := b.(runtime.StringValue)
		return ok && av.Val == bv.Val
	default:
		return a == b
	}
}
