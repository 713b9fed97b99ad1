package interpreter

import (
	"fmt"

	"lox/interpreter-go/pkg/ast"
	"lox/interpreter-go/pkg/runtime"
	"lox/interpreter-go/pkg/token"
)

func (i *Interpreter) evaluateExpression(node ast.Expression, env *runtime.Environment) (runtime.Value, error) {
	switch n := node.(type) {
	case *ast.NumberLiteral:
		return runtime.NumberValue{Val: n.Value}, nil
	case *ast.StringLiteral:
		return runtime.StringValue{Val: n.Value}, nil
	case *ast.BooleanLiteral:
		return runtime.BoolValue{Val: n.Value}, nil
	case *ast.NilLiteral:
		return runtime.NilValue{}, nil
	case *ast.GroupingExpression:
		return i.evaluateExpression(n.Expression, env)
	case *ast.Variable:
		return i.lookUpVariable(n, n.Name, env)
	case *ast.AssignmentExpression:
		return i.evaluateAssignment(n, env)
	case *ast.UnaryExpression:
		return i.evaluateUnary(n, env)
	case *ast.BinaryExpression:
		return i.evaluateBinary(n, env)
	case *ast.LogicalExpression:
		return i.evaluateLogical(n, env)
	case *ast.FunctionCall:
		return i.evaluateCall(n, env)
	case *ast.LambdaExpression:
		return runtime.NewLambda(n, env), nil
	case *ast.GetExpression:
		return i.evaluateGet(n, env)
	case *ast.SetExpression:
		return i.evaluateSet(n, env)
	case *ast.ThisExpression:
		return i.lookUpVariable(n, n.Keyword, env)
	case *ast.SuperExpression:
		return i.evaluateSuper(n, env)
	default:
		return nil, fmt.Errorf("unsupported expression type: %s", node.NodeType())
	}
}

// lookUpVariable reads a resolved local by distance, or a global by name.
func (i *Interpreter) lookUpVariable(expr ast.Expression, name token.Token, env *runtime.Environment) (runtime.Value, error) {
	var (
		val runtime.Value
		err error
	)
	if distance, ok := i.locals[expr]; ok {
		val, err = env.GetAt(distance, name.Lexeme)
	} else {
		val, err = i.global.Get(name.Lexeme)
	}
	if err != nil {
		return nil, attribute(err, name)
	}
	return val, nil
}

func (i *Interpreter) evaluateAssignment(n *ast.AssignmentExpression, env *runtime.Environment) (runtime.Value, error) {
	val, err := i.evaluateExpression(n.Value, env)
	if err != nil {
		return nil, err
	}
	if distance, ok := i.locals[n]; ok {
		err = env.AssignAt(distance, n.Name.Lexeme, val)
	} else {
		err = i.global.Assign(n.Name.Lexeme, val)
	}
	if err != nil {
		return nil, attribute(err, n.Name)
	}
	return val, nil
}

func (i *Interpreter) evaluateUnary(n *ast.UnaryExpression, env *runtime.Environment) (runtime.Value, error) {
	operand, err := i.evaluateExpression(n.Operand, env)
	if err != nil {
		return nil, err
	}
	switch n.Operator.Type {
	case token.Bang:
		return runtime.BoolValue{Val: !isTruthy(operand)}, nil
	case token.Minus:
		num, ok := operand.(runtime.NumberValue)
		if !ok {
			return nil, runtimeErrorf(n.Operator, "Operand of '-' must be a number, got %s.", operand.Kind())
		}
		return runtime.NumberValue{Val: -num.Val}, nil
	default:
		return nil, runtimeErrorf(n.Operator, "Unsupported unary operator '%s'.", n.Operator.Lexeme)
	}
}

// evaluateBinary evaluates both operands left to right, then applies the
// operator. Division by zero yields IEEE infinities or NaN.
func (i *Interpreter) evaluateBinary(n *ast.BinaryExpression, env *runtime.Environment) (runtime.Value, error) {
	left, err := i.evaluateExpression(n.Left, env)
	if err != nil {
		return nil, err
	}
	right, err := i.evaluateExpression(n.Right, env)
	if err != nil {
		return nil, err
	}

	switch n.Operator.Type {
	case token.EqualEqual:
		return runtime.BoolValue{Val: valuesEqual(left, right)}, nil
	case token.BangEqual:
		return runtime.BoolValue{Val: !valuesEqual(left, right)}, nil
	case token.Plus:
		if l, ok := left.(runtime.StringValue); ok {
			if r, ok := right.(runtime.StringValue); ok {
				return runtime.StringValue{Val: l.Val + r.Val}, nil
			}
		}
		l, r, ok := numberOperands(left, right)
		if !ok {
			return nil, runtimeErrorf(n.Operator, "Operands of '+' must be two numbers or two strings, got %s and %s.", left.Kind(), right.Kind())
		}
		return runtime.NumberValue{Val: l + r}, nil
	}

	l, r, ok := numberOperands(left, right)
	if !ok {
		return nil, runtimeErrorf(n.Operator, "Operands of '%s' must be numbers, got %s and %s.", n.Operator.Lexeme, left.Kind(), right.Kind())
	}
	switch n.Operator.Type {
	case token.Minus:
		return runtime.NumberValue{Val: l - r}, nil
	case token.Star:
		return runtime.NumberValue{Val: l * r}, nil
	case token.Slash:
		return runtime.NumberValue{Val: l / r}, nil
	case token.Greater:
		return runtime.BoolValue{Val: l > r}, nil
	case token.GreaterEqual:
		return runtime.BoolValue{Val: l >= r}, nil
	case token.Less:
		return runtime.BoolValue{Val: l < r}, nil
	case token.LessEqual:
		return runtime.BoolValue{Val: l <= r}, nil
	default:
		return nil, runtimeErrorf(n.Operator, "Unsupported binary operator '%s'.", n.Operator.Lexeme)
	}
}

func numberOperands(left, right runtime.Value) (float64, float64, bool) {
	l, ok := left.(runtime.NumberValue)
	if !ok {
		return 0, 0, false
	}
	r, ok := right.(runtime.NumberValue)
	if !ok {
		return 0, 0, false
	}
	return l.Val, r.Val, true
}

// evaluateLogical short-circuits and yields the last operand evaluated.
func (i *Interpreter) evaluateLogical(n *ast.LogicalExpression, env *runtime.Environment) (runtime.Value, error) {
	left, err := i.evaluateExpression(n.Left, env)
	if err != nil {
		return nil, err
	}
	if n.Operator.Type == token.Or {
		if isTruthy(left) {
			return left, nil
		}
	} else if !isTruthy(left) {
		return left, nil
	}
	return i.evaluateExpression(n.Right, env)
}

func (i *Interpreter) evaluateCall(n *ast.FunctionCall, env *runtime.Environment) (runtime.Value, error) {
	callee, err := i.evaluateExpression(n.Callee, env)
	if err != nil {
		return nil, err
	}
	args := make([]runtime.Value, 0, len(n.Arguments))
	for _, argExpr := range n.Arguments {
		arg, err := i.evaluateExpression(argExpr, env)
		if err != nil {
			return nil, err
		}
		args = append(args, arg)
	}

	callable, ok := runtime.AsCallable(callee)
	if !ok {
		return nil, runtimeErrorf(n.Paren, "Can only call functions and classes, got %s.", callee.Kind())
	}
	if arity := callable.Arity(); len(args) != arity {
		return nil, runtimeErrorf(n.Paren, "Expected %d %s but got %d for %s.", arity, pluralArgs(arity), len(args), describeCallee(callee))
	}
	if i.depth >= i.maxCallDepth {
		return nil, runtimeErrorf(n.Paren, "Stack overflow.")
	}
	i.depth++
	defer func() { i.depth-- }()

	result, err := callable.Call(i, args)
	if err != nil {
		return nil, attribute(err, n.Paren)
	}
	return result, nil
}
