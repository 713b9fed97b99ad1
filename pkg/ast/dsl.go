package ast

import "lox/interpreter-go/pkg/token"

// Token helpers. Synthesised tokens carry line 0.

var operatorTypes = map[string]token.Type{
	"-":   token.Minus,
	"+":   token.Plus,
	"/":   token.Slash,
	"*":   token.Star,
	"!":   token.Bang,
	"!=":  token.BangEqual,
	"==":  token.EqualEqual,
	">":   token.Greater,
	">=":  token.GreaterEqual,
	"<":   token.Less,
	"<=":  token.LessEqual,
	"and": token.And,
	"or":  token.Or,
}

// Tok builds an identifier token, or the keyword token when name is reserved.
func Tok(name string) token.Token {
	return token.New(token.Lookup(name), name, nil, 0)
}

// Op builds an operator token from its lexeme.
func Op(lexeme string) token.Token {
	typ, ok := operatorTypes[lexeme]
	if !ok {
		panic("ast: unknown operator " + lexeme)
	}
	return token.New(typ, lexeme, nil, 0)
}

func toks(names []string) []token.Token {
	out := make([]token.Token, len(names))
	for i, n := range names {
		out[i] = Tok(n)
	}
	return out
}

// Literal helpers.

func Num(value float64) *NumberLiteral {
	return NewNumberLiteral(value)
}

func Str(value string) *StringLiteral {
	return NewStringLiteral(value)
}

func Bool(value bool) *BooleanLiteral {
	return NewBooleanLiteral(value)
}

func Nil() *NilLiteral {
	return NewNilLiteral()
}

// Expression helpers.

func ID(name string) *Variable {
	return NewVariable(Tok(name))
}

func Assign(name string, value Expression) *AssignmentExpression {
	return NewAssignmentExpression(Tok(name), value)
}

func Un(op string, operand Expression) *UnaryExpression {
	return NewUnaryExpression(Op(op), operand)
}

func Bin(op string, left, right Expression) *BinaryExpression {
	return NewBinaryExpression(Op(op), left, right)
}

func And(left, right Expression) *LogicalExpression {
	return NewLogicalExpression(Op("and"), left, right)
}

func Or(left, right Expression) *LogicalExpression {
	return NewLogicalExpression(Op("or"), left, right)
}

func Group(expr Expression) *GroupingExpression {
	return NewGroupingExpression(expr)
}

func Call(callee Expression, args ...Expression) *FunctionCall {
	return NewFunctionCall(callee, token.New(token.RightParen, ")", nil, 0), args)
}

func CallName(name string, args ...Expression) *FunctionCall {
	return Call(ID(name), args...)
}

func Get(object Expression, name string) *GetExpression {
	return NewGetExpression(object, Tok(name))
}

func Set(object Expression, name string, value Expression) *SetExpression {
	return NewSetExpression(object, Tok(name), value)
}

func This() *ThisExpression {
	return NewThisExpression(Tok("this"))
}

func Super(method string) *SuperExpression {
	return NewSuperExpression(Tok("super"), Tok(method))
}

func Lambda(params []string, body ...Statement) *LambdaExpression {
	return NewLambdaExpression(Tok("fun"), toks(params), body)
}

// Statement helpers.

func Expr(expr Expression) *ExpressionStatement {
	return NewExpressionStatement(expr)
}

func Print(expr Expression) *PrintStatement {
	return NewPrintStatement(expr)
}

func Var(name string, initializer Expression) *VarDeclaration {
	return NewVarDeclaration(Tok(name), initializer)
}

func Block(body ...Statement) *BlockStatement {
	return NewBlockStatement(body)
}

func If(condition Expression, then Statement, elseBranch Statement) *IfStatement {
	return NewIfStatement(condition, then, elseBranch)
}

func While(condition Expression, body Statement) *WhileLoop {
	return NewWhileLoop(condition, body)
}

func Ret(value Expression) *ReturnStatement {
	return NewReturnStatement(Tok("return"), value)
}

func Fn(name string, params []string, body ...Statement) *FunctionDeclaration {
	return NewFunctionDeclaration(Tok(name), toks(params), body)
}

// Class builds a class declaration; superclass may be empty.
func Class(name string, superclass string, methods ...*FunctionDeclaration) *ClassDeclaration {
	var super *Variable
	if superclass != "" {
		super = ID(superclass)
	}
	return NewClassDeclaration(Tok(name), super, methods)
}

func Prog(body ...Statement) *Program {
	return NewProgram(body)
}
