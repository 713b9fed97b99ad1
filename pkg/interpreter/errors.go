package interpreter

import (
	"fmt"

	"lox/interpreter-go/pkg/runtime"
	"lox/interpreter-go/pkg/token"
)

// RuntimeError aborts execution at the token whose evaluation failed.
type RuntimeError struct {
	Token   token.Token
	Message string
}

func (e *RuntimeError) Error() string {
	return fmt.Sprintf("%s\n[line %d]", e.Message, e.Token.Line)
}

// Line reports the source line of the failing operation.
func (e *RuntimeError) Line() int {
	return e.Token.Line
}

func runtimeErrorf(tok token.Token, format string, args ...any) *RuntimeError {
	return &RuntimeError{Token: tok, Message: fmt.Sprintf(format, args...)}
}

// attribute converts plain errors raised below the evaluator (environment
// misses, native failures) into a RuntimeError at tok. Existing runtime
// errors pass through untouched so the innermost location wins.
func attribute(err error, tok token.Token) error {
	switch e := err.(type) {
	case nil:
		return nil
	case *RuntimeError:
		return e
	default:
		return runtimeErrorf(tok, "%s", err.Error())
	}
}

func describeCallee(v runtime.Value) string {
	switch c := v.(type) {
	case *runtime.FunctionValue:
		if c.Name == "" {
			return "anonymous function"
		}
		return fmt.Sprintf("function '%s'", c.Name)
	case *runtime.NativeFunctionValue:
		return fmt.Sprintf("native function '%s'", c.Name)
	case *runtime.ClassValue:
		return fmt.Sprintf("class '%s'", c.Name)
	default:
		return v.Kind().String()
	}
}

func pluralArgs(n int) string {
	if n == 1 {
		return "argument"
	}
	return "arguments"
}
