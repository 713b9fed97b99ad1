// Package resolver performs the static scope pass that runs between parsing
// and evaluation.
package resolver

import (
	"fmt"
	"strings"

	"lox/interpreter-go/pkg/ast"
	"lox/interpreter-go/pkg/token"
)

// Locals maps each resolved reference node to the number of scopes between
// the reference and its binding. References absent from the map are globals.
type Locals map[ast.Expression]int

// Diagnostic represents a scope error found during resolution.
type Diagnostic struct {
	Token   token.Token
	Message string
}

func (d Diagnostic) Error() string {
	where := " at end"
	if d.Token.Type != token.EOF {
		where = fmt.Sprintf(" at '%s'", d.Token.Lexeme)
	}
	return fmt.Sprintf("[line %d] Error%s: %s", d.Token.Line, where, d.Message)
}

// DiagnosticList aggregates every resolution error in a program.
type DiagnosticList []Diagnostic

func (l DiagnosticList) Error() string {
	parts := make([]string, len(l))
	for i, d := range l {
		parts[i] = d.Error()
	}
	return strings.Join(parts, "\n")
}

// scope tracks whether each name declared in a block has finished its
// initializer.
type scope map[string]bool

// Resolver traverses a program and records distances and diagnostics.
type Resolver struct {
	scopes        []scope
	functionStack []FunctionKind
	classStack    []ClassKind
	locals        Locals
	diagnostics   DiagnosticList
}

// New returns a resolver instance.
func New() *Resolver {
	return &Resolver{}
}

// Resolve is the one-shot entry point. On any diagnostic the distance table
// is discarded and a DiagnosticList is returned; the program must not run.
func Resolve(program *ast.Program) (Locals, error) {
	locals, diags := New().ResolveProgram(program)
	if len(diags) > 0 {
		return nil, diags
	}
	return locals, nil
}

// ResolveProgram walks every top-level statement. Resolution continues past
// errors so sibling code is still checked.
func (r *Resolver) ResolveProgram(program *ast.Program) (Locals, DiagnosticList) {
	r.scopes = nil
	r.functionStack = nil
	r.classStack = nil
	r.locals = make(Locals)
	r.diagnostics = nil
	if program != nil {
		r.resolveStatements(program.Body)
	}
	return r.locals, r.diagnostics
}

func (r *Resolver) report(tok token.Token, message string) {
	r.diagnostics = append(r.diagnostics, Diagnostic{Token: tok, Message: message})
}

func (r *Resolver) resolveStatements(body []ast.Statement) {
	for _, stmt := range body {
		r.resolveStatement(stmt)
	}
}

func (r *Resolver) resolveStatement(node ast.Statement) {
	switch n := node.(type) {
	case *ast.BlockStatement:
		r.beginScope()
		r.resolveStatements(n.Body)
		r.endScope()
	case *ast.VarDeclaration:
		r.declare(n.Name)
		if n.Initializer != nil {
			r.resolveExpression(n.Initializer)
		}
		r.define(n.Name)
	case *ast.FunctionDeclaration:
		r.declare(n.Name)
		r.define(n.Name)
		r.resolveFunction(n.Params, n.Body, FunctionKindFunction)
	case *ast.ClassDeclaration:
		r.resolveClass(n)
	case *ast.ExpressionStatement:
		r.resolveExpression(n.Expression)
	case *ast.PrintStatement:
		r.resolveExpression(n.Expression)
	case *ast.IfStatement:
		r.resolveExpression(n.Condition)
		r.resolveStatement(n.Then)
		if n.Else != nil {
			r.resolveStatement(n.Else)
		}
	case *ast.WhileLoop:
		r.resolveExpression(n.Condition)
		r.resolveStatement(n.Body)
	case *ast.ReturnStatement:
		kind := r.currentFunction()
		if kind == FunctionKindNone {
			r.report(n.Keyword, "Can't return from top-level code.")
		}
		if n.Value != nil {
			if kind == FunctionKindInitializer {
				r.report(n.Keyword, "Can't return a value from an initializer.")
			}
			r.resolveExpression(n.Value)
		}
	}
}

func (r *Resolver) resolveClass(n *ast.ClassDeclaration) {
	r.pushClass(ClassKindClass)
	defer r.popClass()

	r.declare(n.Name)
	r.define(n.Name)

	if n.Superclass != nil {
		if n.Superclass.Name.Lexeme == n.Name.Lexeme {
			r.report(n.Superclass.Name, "A class can't inherit from itself.")
		}
		r.setClass(ClassKindSubclass)
		r.resolveExpression(n.Superclass)
		r.beginScope()
		r.peekScope()["super"] = true
	}

	r.beginScope()
	r.peekScope()["this"] = true
	for _, method := range n.Methods {
		kind := FunctionKindMethod
		if method.Name.Lexeme == "init" {
			kind = FunctionKindInitializer
		}
		r.resolveFunction(method.Params, method.Body, kind)
	}
	r.endScope()

	if n.Superclass != nil {
		r.endScope()
	}
}

func (r *Resolver) resolveFunction(params []token.Token, body []ast.Statement, kind FunctionKind) {
	r.pushFunction(kind)
	defer r.popFunction()

	r.beginScope()
	for _, param := range params {
		r.declare(param)
		r.define(param)
	}
	r.resolveStatements(body)
	r.endScope()
}

func (r *Resolver) resolveExpression(node ast.Expression) {
	switch n := node.(type) {
	case *ast.Variable:
		if s := r.peekScope(); s != nil {
			if defined, ok := s[n.Name.Lexeme]; ok && !defined {
				r.report(n.Name, "Can't read local variable in its own initializer.")
			}
		}
		r.resolveLocal(n, n.Name)
	case *ast.AssignmentExpression:
		r.resolveExpression(n.Value)
		r.resolveLocal(n, n.Name)
	case *ast.BinaryExpression:
		r.resolveExpression(n.Left)
		r.resolveExpression(n.Right)
	case *ast.LogicalExpression:
		r.resolveExpression(n.Left)
		r.resolveExpression(n.Right)
	case *ast.UnaryExpression:
		r.resolveExpression(n.Operand)
	case *ast.GroupingExpression:
		r.resolveExpression(n.Expression)
	case *ast.FunctionCall:
		r.resolveExpression(n.Callee)
		for _, arg := range n.Arguments {
			r.resolveExpression(arg)
		}
	case *ast.GetExpression:
		r.resolveExpression(n.Object)
	case *ast.SetExpression:
		r.resolveExpression(n.Value)
		r.resolveExpression(n.Object)
	case *ast.ThisExpression:
		if r.currentClass() == ClassKindNone {
			r.report(n.Keyword, "Can't use 'this' outside of a class.")
			return
		}
		r.resolveLocal(n, n.Keyword)
	case *ast.SuperExpression:
		switch r.currentClass() {
		case ClassKindNone:
			r.report(n.Keyword, "Can't use 'super' outside of a class.")
			return
		case ClassKindClass:
			r.report(n.Keyword, "Can't use 'super' in a class with no superclass.")
			return
		}
		r.resolveLocal(n, n.Keyword)
	case *ast.LambdaExpression:
		r.resolveFunction(n.Params, n.Body, FunctionKindFunction)
	case *ast.NumberLiteral, *ast.StringLiteral, *ast.BooleanLiteral, *ast.NilLiteral:
	}
}

// resolveLocal records the distance to the innermost scope declaring name.
func (r *Resolver) resolveLocal(expr ast.Expression, name token.Token) {
	for i := len(r.scopes) - 1; i >= 0; i-- {
		if _, ok := r.scopes[i][name.Lexeme]; ok {
			r.locals[expr] = len(r.scopes) - 1 - i
			return
		}
	}
}

func (r *Resolver) beginScope() {
	r.scopes = append(r.scopes, make(scope))
}

func (r *Resolver) endScope() {
	if len(r.scopes) == 0 {
		return
	}
	r.scopes = r.scopes[:len(r.scopes)-1]
}

func (r *Resolver) peekScope() scope {
	if len(r.scopes) == 0 {
		return nil
	}
	return r.scopes[len(r.scopes)-1]
}

func (r *Resolver) declare(name token.Token) {
	s := r.peekScope()
	if s == nil {
		return
	}
	if _, exists := s[name.Lexeme]; exists {
		r.report(name, "Already a variable with this name in this scope.")
	}
	s[name.Lexeme] = false
}

func (r *Resolver) define(name token.Token) {
	if s := r.peekScope(); s != nil {
		s[name.Lexeme] = true
	}
}
