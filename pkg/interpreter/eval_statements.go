package interpreter

import (
	"fmt"

	"lox/interpreter-go/pkg/ast"
	"lox/interpreter-go/pkg/runtime"
)

// completion is the result of executing a statement: either normal
// fall-through or a return carrying its value up to the enclosing call.
type completion struct {
	returning bool
	value     runtime.Value
}

var normalCompletion = completion{}

func (i *Interpreter) executeStatement(node ast.Statement, env *runtime.Environment) (completion, error) {
	switch n := node.(type) {
	case *ast.ExpressionStatement:
		if _, err := i.evaluateExpression(n.Expression, env); err != nil {
			return normalCompletion, err
		}
		return normalCompletion, nil
	case *ast.PrintStatement:
		val, err := i.evaluateExpression(n.Expression, env)
		if err != nil {
			return normalCompletion, err
		}
		if _, err := fmt.Fprintln(i.out, Stringify(val)); err != nil {
			return normalCompletion, fmt.Errorf("print: %w", err)
		}
		return normalCompletion, nil
	case *ast.VarDeclaration:
		var val runtime.Value = runtime.NilValue{}
		if n.Initializer != nil {
			v, err := i.evaluateExpression(n.Initializer, env)
			if err != nil {
				return normalCompletion, err
			}
			val = v
		}
		env.Define(n.Name.Lexeme, val)
		return normalCompletion, nil
	case *ast.BlockStatement:
		return i.executeBlock(n.Body, runtime.NewEnvironment(env))
	case *ast.IfStatement:
		cond, err := i.evaluateExpression(n.Condition, env)
		if err != nil {
			return normalCompletion, err
		}
		if isTruthy(cond) {
			return i.executeStatement(n.Then, env)
		}
		if n.Else != nil {
			return i.executeStatement(n.Else, env)
		}
		return normalCompletion, nil
	case *ast.WhileLoop:
		return i.executeWhile(n, env)
	case *ast.FunctionDeclaration:
		env.Define(n.Name.Lexeme, runtime.NewFunction(n, env, false))
		return normalCompletion, nil
	case *ast.ReturnStatement:
		var val runtime.Value = runtime.NilValue{}
		if n.Value != nil {
			v, err := i.evaluateExpression(n.Value, env)
			if err != nil {
				return normalCompletion, err
			}
			val = v
		}
		return completion{returning: true, value: val}, nil
	case *ast.ClassDeclaration:
		return normalCompletion, i.executeClassDeclaration(n, env)
	default:
		return normalCompletion, fmt.Errorf("unsupported statement type: %s", node.NodeType())
	}
}

// executeBlock runs body in env, stopping at the first return.
func (i *Interpreter) executeBlock(body []ast.Statement, env *runtime.Environment) (completion, error) {
	for _, stmt := range body {
		result, err := i.executeStatement(stmt, env)
		if err != nil {
			return normalCompletion, err
		}
		if result.returning {
			return result, nil
		}
	}
	return normalCompletion, nil
}

func (i *Interpreter) executeWhile(loop *ast.WhileLoop, env *runtime.Environment) (completion, error) {
	for {
		cond, err := i.evaluateExpression(loop.Condition, env)
		if err != nil {
			return normalCompletion, err
		}
		if !isTruthy(cond) {
			return normalCompletion, nil
		}
		result, err := i.executeStatement(loop.Body, env)
		if err != nil {
			return normalCompletion, err
		}
		if result.returning {
			return result, nil
		}
	}
}
