package ast

import (
	"strconv"
	"strings"

	"lox/interpreter-go/pkg/token"
)

const indentUnit = "  "

// Format prints a tree back to Lox source. Grouping nodes keep their
// parentheses, so formatting a parsed program and parsing the result yields
// the same tree (for loops come back as their while-loop desugaring).
func Format(node Node) string {
	f := &formatter{}
	switch n := node.(type) {
	case *Program:
		for _, stmt := range n.Body {
			f.stmt(stmt)
			f.b.WriteByte('\n')
		}
	case Statement:
		f.stmt(n)
	case Expression:
		f.expr(n)
	}
	return f.b.String()
}

type formatter struct {
	b      strings.Builder
	indent int
}

func (f *formatter) newline() {
	f.b.WriteByte('\n')
	f.b.WriteString(strings.Repeat(indentUnit, f.indent))
}

func (f *formatter) stmt(node Statement) {
	switch n := node.(type) {
	case *ExpressionStatement:
		f.expr(n.Expression)
		f.b.WriteByte(';')
	case *PrintStatement:
		f.b.WriteString("print ")
		f.expr(n.Expression)
		f.b.WriteByte(';')
	case *VarDeclaration:
		f.b.WriteString("var ")
		f.b.WriteString(n.Name.Lexeme)
		if n.Initializer != nil {
			f.b.WriteString(" = ")
			f.expr(n.Initializer)
		}
		f.b.WriteByte(';')
	case *BlockStatement:
		f.block(n.Body)
	case *IfStatement:
		f.b.WriteString("if (")
		f.expr(n.Condition)
		f.b.WriteString(") ")
		f.stmt(n.Then)
		if n.Else != nil {
			f.b.WriteString(" else ")
			f.stmt(n.Else)
		}
	case *WhileLoop:
		f.b.WriteString("while (")
		f.expr(n.Condition)
		f.b.WriteString(") ")
		f.stmt(n.Body)
	case *ReturnStatement:
		f.b.WriteString("return")
		if n.Value != nil {
			f.b.WriteByte(' ')
			f.expr(n.Value)
		}
		f.b.WriteByte(';')
	case *FunctionDeclaration:
		f.b.WriteString("fun ")
		f.function(n.Name.Lexeme, n.Params, n.Body)
	case *ClassDeclaration:
		f.b.WriteString("class ")
		f.b.WriteString(n.Name.Lexeme)
		if n.Superclass != nil {
			f.b.WriteString(" < ")
			f.b.WriteString(n.Superclass.Name.Lexeme)
		}
		f.b.WriteString(" {")
		f.indent++
		for _, method := range n.Methods {
			f.newline()
			f.function(method.Name.Lexeme, method.Params, method.Body)
		}
		f.indent--
		f.newline()
		f.b.WriteByte('}')
	}
}

func (f *formatter) block(body []Statement) {
	f.b.WriteByte('{')
	f.indent++
	for _, stmt := range body {
		f.newline()
		f.stmt(stmt)
	}
	f.indent--
	f.newline()
	f.b.WriteByte('}')
}

func (f *formatter) function(name string, params []token.Token, body []Statement) {
	f.b.WriteString(name)
	f.b.WriteByte('(')
	for i, p := range params {
		if i > 0 {
			f.b.WriteString(", ")
		}
		f.b.WriteString(p.Lexeme)
	}
	f.b.WriteString(") ")
	f.block(body)
}

func (f *formatter) expr(node Expression) {
	switch n := node.(type) {
	case *NumberLiteral:
		f.b.WriteString(formatNumber(n.Value))
	case *StringLiteral:
		f.b.WriteString(quote(n.Value))
	case *BooleanLiteral:
		f.b.WriteString(strconv.FormatBool(n.Value))
	case *NilLiteral:
		f.b.WriteString("nil")
	case *Variable:
		f.b.WriteString(n.Name.Lexeme)
	case *ThisExpression:
		f.b.WriteString("this")
	case *SuperExpression:
		f.b.WriteString("super.")
		f.b.WriteString(n.Method.Lexeme)
	case *AssignmentExpression:
		f.b.WriteString(n.Name.Lexeme)
		f.b.WriteString(" = ")
		f.expr(n.Value)
	case *UnaryExpression:
		f.b.WriteString(n.Operator.Lexeme)
		f.expr(n.Operand)
	case *BinaryExpression:
		f.infix(n.Left, n.Operator.Lexeme, n.Right)
	case *LogicalExpression:
		f.infix(n.Left, n.Operator.Lexeme, n.Right)
	case *GroupingExpression:
		f.b.WriteByte('(')
		f.expr(n.Expression)
		f.b.WriteByte(')')
	case *FunctionCall:
		f.expr(n.Callee)
		f.b.WriteByte('(')
		for i, arg := range n.Arguments {
			if i > 0 {
				f.b.WriteString(", ")
			}
			f.expr(arg)
		}
		f.b.WriteByte(')')
	case *GetExpression:
		f.expr(n.Object)
		f.b.WriteByte('.')
		f.b.WriteString(n.Name.Lexeme)
	case *SetExpression:
		f.expr(n.Object)
		f.b.WriteByte('.')
		f.b.WriteString(n.Name.Lexeme)
		f.b.WriteString(" = ")
		f.expr(n.Value)
	case *LambdaExpression:
		f.b.WriteString("fun ")
		f.function("", n.Params, n.Body)
	}
}

func (f *formatter) infix(left Expression, op string, right Expression) {
	f.expr(left)
	f.b.WriteByte(' ')
	f.b.WriteString(op)
	f.b.WriteByte(' ')
	f.expr(right)
}
