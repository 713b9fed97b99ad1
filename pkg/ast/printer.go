package ast

import (
	"fmt"
	"strconv"
	"strings"

	"lox/interpreter-go/pkg/token"
)

// Sexpr renders a node as a parenthesised prefix expression, for example
// `(* (- 123) (group 34.5))`. A Program renders one statement per line.
// Output is deterministic for a given tree.
func Sexpr(node Node) string {
	var b strings.Builder
	writeSexpr(&b, node)
	return b.String()
}

func writeSexpr(b *strings.Builder, node Node) {
	switch n := node.(type) {
	case nil:
		b.WriteString("<nil>")
	case *Program:
		for i, stmt := range n.Body {
			if i > 0 {
				b.WriteByte('\n')
			}
			writeSexpr(b, stmt)
		}
	case *NumberLiteral:
		b.WriteString(formatNumber(n.Value))
	case *StringLiteral:
		b.WriteString(quote(n.Value))
	case *BooleanLiteral:
		b.WriteString(strconv.FormatBool(n.Value))
	case *NilLiteral:
		b.WriteString("nil")
	case *Variable:
		b.WriteString(n.Name.Lexeme)
	case *ThisExpression:
		b.WriteString("this")
	case *AssignmentExpression:
		parenthesize(b, "=", n.Name.Lexeme, n.Value)
	case *UnaryExpression:
		parenthesize(b, n.Operator.Lexeme, n.Operand)
	case *BinaryExpression:
		parenthesize(b, n.Operator.Lexeme, n.Left, n.Right)
	case *LogicalExpression:
		parenthesize(b, n.Operator.Lexeme, n.Left, n.Right)
	case *GroupingExpression:
		parenthesize(b, "group", n.Expression)
	case *FunctionCall:
		parts := []any{n.Callee}
		for _, arg := range n.Arguments {
			parts = append(parts, arg)
		}
		parenthesize(b, "call", parts...)
	case *GetExpression:
		parenthesize(b, ".", n.Object, n.Name.Lexeme)
	case *SetExpression:
		parenthesize(b, "set", n.Object, n.Name.Lexeme, n.Value)
	case *SuperExpression:
		parenthesize(b, "super", n.Method.Lexeme)
	case *LambdaExpression:
		parts := []any{paramList(n.Params)}
		parenthesize(b, "fun", appendStatements(parts, n.Body)...)
	case *ExpressionStatement:
		parenthesize(b, ";", n.Expression)
	case *PrintStatement:
		parenthesize(b, "print", n.Expression)
	case *VarDeclaration:
		if n.Initializer == nil {
			parenthesize(b, "var", n.Name.Lexeme)
			return
		}
		parenthesize(b, "var", n.Name.Lexeme, n.Initializer)
	case *BlockStatement:
		parenthesize(b, "block", appendStatements(nil, n.Body)...)
	case *IfStatement:
		if n.Else == nil {
			parenthesize(b, "if", n.Condition, n.Then)
			return
		}
		parenthesize(b, "if-else", n.Condition, n.Then, n.Else)
	case *WhileLoop:
		parenthesize(b, "while", n.Condition, n.Body)
	case *ReturnStatement:
		if n.Value == nil {
			b.WriteString("(return)")
			return
		}
		parenthesize(b, "return", n.Value)
	case *FunctionDeclaration:
		parts := []any{n.Name.Lexeme, paramList(n.Params)}
		parenthesize(b, "fun", appendStatements(parts, n.Body)...)
	case *ClassDeclaration:
		parts := []any{n.Name.Lexeme}
		if n.Superclass != nil {
			parts = append(parts, "<", n.Superclass.Name.Lexeme)
		}
		for _, method := range n.Methods {
			parts = append(parts, method)
		}
		parenthesize(b, "class", parts...)
	default:
		fmt.Fprintf(b, "<%s>", node.NodeType())
	}
}

// parenthesize writes `(head part...)`; parts are nodes or raw strings.
func parenthesize(b *strings.Builder, head string, parts ...any) {
	b.WriteByte('(')
	b.WriteString(head)
	for _, part := range parts {
		b.WriteByte(' ')
		switch p := part.(type) {
		case string:
			b.WriteString(p)
		case Node:
			writeSexpr(b, p)
		}
	}
	b.WriteByte(')')
}

func appendStatements(parts []any, body []Statement) []any {
	for _, stmt := range body {
		parts = append(parts, stmt)
	}
	return parts
}

func paramList(params []token.Token) string {
	names := make([]string, len(params))
	for i, p := range params {
		names[i] = p.Lexeme
	}
	return "(" + strings.Join(names, " ") + ")"
}

func formatNumber(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}

func quote(s string) string {
	return `"` + s + `"`
}
