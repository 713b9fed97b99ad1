package resolver

import (
	"errors"
	"testing"

	"lox/interpreter-go/pkg/ast"
	"lox/interpreter-go/pkg/parser"
)

func parse(t *testing.T, source string) *ast.Program {
	t.Helper()
	program, err := parser.ParseSource(source)
	if err != nil {
		t.Fatalf("parse error: %v", err)
	}
	return program
}

func diagnosticsFor(t *testing.T, source string) DiagnosticList {
	t.Helper()
	locals, err := Resolve(parse(t, source))
	if err == nil {
		t.Fatalf("expected resolution errors for %q", source)
	}
	if locals != nil {
		t.Fatalf("distance table must be discarded on error")
	}
	var list DiagnosticList
	if !errors.As(err, &list) {
		t.Fatalf("expected DiagnosticList, got %T", err)
	}
	return list
}

func TestResolveDistances(t *testing.T) {
	program := parse(t, `
var g = 1;
{
  var a = 1;
  {
    var b = a;
    a = b + g;
  }
}
`)
	locals, err := Resolve(program)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	outer := program.Body[1].(*ast.BlockStatement)
	inner := outer.Body[1].(*ast.BlockStatement)

	readA := inner.Body[0].(*ast.VarDeclaration).Initializer.(*ast.Variable)
	if d, ok := locals[readA]; !ok || d != 1 {
		t.Fatalf("expected a at distance 1, got %d (%v)", d, ok)
	}
	assign := inner.Body[1].(*ast.ExpressionStatement).Expression.(*ast.AssignmentExpression)
	if d, ok := locals[assign]; !ok || d != 1 {
		t.Fatalf("expected assignment to a at distance 1, got %d (%v)", d, ok)
	}
	sum := assign.Value.(*ast.BinaryExpression)
	if d, ok := locals[sum.Left]; !ok || d != 0 {
		t.Fatalf("expected b at distance 0, got %d (%v)", d, ok)
	}
	if _, ok := locals[sum.Right]; ok {
		t.Fatalf("globals must not be recorded")
	}
}

func TestResolveShadowedNamesIndependently(t *testing.T) {
	program := parse(t, `
{
  var x = 1;
  fun show() { print x; }
  {
    var x = 2;
    print x;
  }
}
`)
	locals, err := Resolve(program)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	block := program.Body[0].(*ast.BlockStatement)
	fn := block.Body[1].(*ast.FunctionDeclaration)
	inFn := fn.Body[0].(*ast.PrintStatement).Expression
	inner := block.Body[2].(*ast.BlockStatement).Body[1].(*ast.PrintStatement).Expression
	if locals[inFn] != 1 {
		t.Fatalf("x inside show should be 1 scope out, got %d", locals[inFn])
	}
	if locals[inner] != 0 {
		t.Fatalf("shadowing x should be local, got %d", locals[inner])
	}
}

func TestResolveThisAndSuper(t *testing.T) {
	program := parse(t, `
class A { name() { return "A"; } }
class B < A {
  name() {
    var f = fun () { return this; };
    return super.name();
  }
}
`)
	locals, err := Resolve(program)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	class := program.Body[1].(*ast.ClassDeclaration)
	method := class.Methods[0]
	lambda := method.Body[0].(*ast.VarDeclaration).Initializer.(*ast.LambdaExpression)
	this := lambda.Body[0].(*ast.ReturnStatement).Value
	// lambda params, method params, this scope
	if locals[this] != 2 {
		t.Fatalf("expected this at distance 2, got %d", locals[this])
	}
	call := method.Body[1].(*ast.ReturnStatement).Value.(*ast.FunctionCall)
	super := call.Callee.(*ast.SuperExpression)
	// method params, this scope, super scope
	if locals[super] != 2 {
		t.Fatalf("expected super at distance 2, got %d", locals[super])
	}
}

func TestResolveSelfReferencingInitializer(t *testing.T) {
	list := diagnosticsFor(t, "var a = 1;\n{\n  var a = a;\n}")
	if len(list) != 1 {
		t.Fatalf("expected one diagnostic, got %v", list)
	}
	if list[0].Message != "Can't read local variable in its own initializer." || list[0].Token.Line != 3 {
		t.Fatalf("unexpected diagnostic %v", list[0])
	}
	if got := list[0].Error(); got != "[line 3] Error at 'a': Can't read local variable in its own initializer." {
		t.Fatalf("unexpected formatting %q", got)
	}
}

func TestResolveGlobalSelfReferenceIsAllowed(t *testing.T) {
	if _, err := Resolve(parse(t, "var a = a;")); err != nil {
		t.Fatalf("globals resolve dynamically, got %v", err)
	}
}

func TestResolveReportsEveryMisuse(t *testing.T) {
	source := `
return 1;
print this;
print super.x;
class Lone { m() { return super.m(); } }
class Self < Self {}
class Init { init() { return 1; } }
fun f() { var x = 1; var x = 2; }
fun g() { this.x = 1; }
`
	list := diagnosticsFor(t, source)
	want := []string{
		"Can't return from top-level code.",
		"Can't use 'this' outside of a class.",
		"Can't use 'super' outside of a class.",
		"Can't use 'super' in a class with no superclass.",
		"A class can't inherit from itself.",
		"Can't return a value from an initializer.",
		"Already a variable with this name in this scope.",
		"Can't use 'this' outside of a class.",
	}
	if len(list) != len(want) {
		t.Fatalf("expected %d diagnostics, got %d:\n%v", len(want), len(list), list)
	}
	for i, msg := range want {
		if list[i].Message != msg {
			t.Fatalf("diagnostic %d: expected %q, got %q", i, msg, list[i].Message)
		}
	}
}

func TestResolveAllowsBareReturnInInitializer(t *testing.T) {
	if _, err := Resolve(parse(t, "class A { init() { return; } }")); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
}

func TestResolverIsReusable(t *testing.T) {
	r := New()
	if _, diags := r.ResolveProgram(parse(t, "return;")); len(diags) != 1 {
		t.Fatalf("expected one diagnostic, got %v", diags)
	}
	locals, diags := r.ResolveProgram(parse(t, "{ var a; print a; }"))
	if len(diags) != 0 || len(locals) != 1 {
		t.Fatalf("state must reset between runs: %v %v", locals, diags)
	}
}
