package parser

import (
	"errors"
	"testing"

	"lox/interpreter-go/pkg/ast"
	"lox/interpreter-go/pkg/scanner"
)

func mustParse(t *testing.T, source string) *ast.Program {
	t.Helper()
	program, err := ParseSource(source)
	if err != nil {
		t.Fatalf("parse error: %v", err)
	}
	return program
}

func parseErrors(t *testing.T, source string) ErrorList {
	t.Helper()
	_, err := ParseSource(source)
	if err == nil {
		t.Fatalf("expected parse errors for %q", source)
	}
	var list ErrorList
	if !errors.As(err, &list) {
		t.Fatalf("expected ErrorList, got %T: %v", err, err)
	}
	return list
}

func TestParseExpressionPrecedence(t *testing.T) {
	cases := []struct {
		source string
		want   string
	}{
		{"-123 * (34.5);", "(; (* (- 123) (group 34.5)))"},
		{"1 + 2 * 3 - 4 / 5;", "(; (- (+ 1 (* 2 3)) (/ 4 5)))"},
		{"a or b and c == d < e + f * !g;", "(; (or a (and b (== c (< d (+ e (* f (! g))))))))"},
		{"1 - 2 - 3;", "(; (- (- 1 2) 3))"},
		{"a = b = c;", "(; (= a (= b c)))"},
		{"!!true;", "(; (! (! true)))"},
		{"a.b.c = f(1)(2).d;", "(; (set (. a b) c (. (call (call f 1) 2) d)))"},
		{"1 >= 2 != 3 <= 4;", "(; (!= (>= 1 2) (<= 3 4)))"},
		{`print "hi" + nil;`, `(print (+ "hi" nil))`},
	}
	for _, tc := range cases {
		program := mustParse(t, tc.source)
		if got := ast.Sexpr(program); got != tc.want {
			t.Fatalf("%q: expected %s, got %s", tc.source, tc.want, got)
		}
	}
}

func TestParseStatements(t *testing.T) {
	source := `
var a;
var b = 1;
{ print a; a = b; }
if (a) print 1; else { print 2; }
while (a < 10) a = a + 1;
fun add(x, y) { return x + y; }
fun noop() { return; }
`
	want := "(var a)\n" +
		"(var b 1)\n" +
		"(block (print a) (; (= a b)))\n" +
		"(if-else a (print 1) (block (print 2)))\n" +
		"(while (< a 10) (; (= a (+ a 1))))\n" +
		"(fun add (x y) (return (+ x y)))\n" +
		"(fun noop () (return))"
	if got := ast.Sexpr(mustParse(t, source)); got != want {
		t.Fatalf("unexpected tree:\n%s\nwant:\n%s", got, want)
	}
}

func TestParseForDesugarsToWhile(t *testing.T) {
	cases := []struct {
		source string
		want   string
	}{
		{"for (var i = 0; i < 3; i = i + 1) print i;", "(block (var i 0) (while (< i 3) (block (print i) (; (= i (+ i 1))))))"},
		{"for (;;) print 1;", "(while true (print 1))"},
		{"for (i = 0; i < 1;) {}", "(block (; (= i 0)) (while (< i 1) (block)))"},
	}
	for _, tc := range cases {
		if got := ast.Sexpr(mustParse(t, tc.source)); got != tc.want {
			t.Fatalf("%q: expected %s, got %s", tc.source, tc.want, got)
		}
	}
}

func TestParseClasses(t *testing.T) {
	source := `
class A { init(x) { this.x = x; } get() { return this.x; } }
class B < A { get() { return super.get() + 1; } }
class C : B {}
`
	program := mustParse(t, source)
	if len(program.Body) != 3 {
		t.Fatalf("expected 3 classes, got %d", len(program.Body))
	}
	a := program.Body[0].(*ast.ClassDeclaration)
	if a.Superclass != nil || len(a.Methods) != 2 || a.Methods[0].Name.Lexeme != "init" {
		t.Fatalf("unexpected class A: %s", ast.Sexpr(a))
	}
	b := program.Body[1].(*ast.ClassDeclaration)
	if b.Superclass == nil || b.Superclass.Name.Lexeme != "A" {
		t.Fatalf("expected B < A, got %s", ast.Sexpr(b))
	}
	want := "(class B < A (fun get () (return (+ (call (super get)) 1))))"
	if got := ast.Sexpr(b); got != want {
		t.Fatalf("expected %s, got %s", want, got)
	}
	c := program.Body[2].(*ast.ClassDeclaration)
	if c.Superclass == nil || c.Superclass.Name.Lexeme != "B" {
		t.Fatalf("expected colon superclass clause to parse, got %s", ast.Sexpr(c))
	}
}

func TestParseLambdaVersusDeclaration(t *testing.T) {
	program := mustParse(t, "fun named() {} var f = fun (a) { return a; }; fun (x) {};")
	if _, ok := program.Body[0].(*ast.FunctionDeclaration); !ok {
		t.Fatalf("expected function declaration, got %T", program.Body[0])
	}
	decl := program.Body[1].(*ast.VarDeclaration)
	if _, ok := decl.Initializer.(*ast.LambdaExpression); !ok {
		t.Fatalf("expected lambda initializer, got %T", decl.Initializer)
	}
	stmt, ok := program.Body[2].(*ast.ExpressionStatement)
	if !ok {
		t.Fatalf("expected expression statement, got %T", program.Body[2])
	}
	if got := ast.Sexpr(stmt); got != "(; (fun (x)))" {
		t.Fatalf("unexpected lambda statement %s", got)
	}
}

func TestParseRecoversAndReportsEveryError(t *testing.T) {
	source := `
var = 1;
print 2;
print (3;
class { }
print 4 print 5;
fun ok() { print 6; }
`
	list := parseErrors(t, source)
	if len(list) != 4 {
		t.Fatalf("expected 4 errors, got %d:\n%v", len(list), list)
	}
	want := []struct {
		line    int
		message string
	}{
		{2, "Expect variable name."},
		{4, "Expect ')' after expression."},
		{5, "Expect class name."},
		{6, "Expect ';' after value."},
	}
	for i, w := range want {
		if list[i].Token.Line != w.line || list[i].Message != w.message {
			t.Fatalf("error %d: expected line %d %q, got %v", i, w.line, w.message, list[i])
		}
	}
	if got := list[0].Error(); got != "[line 2] Error at '=': Expect variable name." {
		t.Fatalf("unexpected formatting %q", got)
	}
}

func TestParseErrorAtEnd(t *testing.T) {
	list := parseErrors(t, "print 1")
	if len(list) != 1 {
		t.Fatalf("expected one error, got %v", list)
	}
	if got := list[0].Error(); got != "[line 1] Error at end: Expect ';' after value." {
		t.Fatalf("unexpected error %q", got)
	}
}

func TestParseInvalidAssignmentTargetKeepsParsing(t *testing.T) {
	program, err := ParseSource("a + b = c; print 1;")
	var list ErrorList
	if !errors.As(err, &list) || len(list) != 1 {
		t.Fatalf("expected a single error, got %v", err)
	}
	if list[0].Message != "Invalid assignment target." || list[0].Token.Lexeme != "=" {
		t.Fatalf("unexpected error %v", list[0])
	}
	if len(program.Body) != 2 {
		t.Fatalf("expected parsing to continue, got %d statements", len(program.Body))
	}
}

func TestParseSourceReturnsScanErrors(t *testing.T) {
	_, err := ParseSource("print @;")
	var list scanner.ErrorList
	if !errors.As(err, &list) {
		t.Fatalf("expected scanner errors, got %T: %v", err, err)
	}
}

func TestParseIsDeterministic(t *testing.T) {
	source := `
class Base { init(n) { this.n = n; } show() { print this.n; } }
class Derived < Base { show() { super.show(); print "derived"; } }
fun make(x) { fun inner() { x = x + 1; return x; } return inner; }
var counter = make(0);
for (var i = 0; i < 2; i = i + 1) { if (i == 1 and true) print counter(); else print -i; }
`
	first := ast.Sexpr(mustParse(t, source))
	for i := 0; i < 3; i++ {
		if again := ast.Sexpr(mustParse(t, source)); again != first {
			t.Fatalf("parse %d differs:\n%s\nvs\n%s", i, again, first)
		}
	}
}

func TestFormatRoundTripIsIdempotent(t *testing.T) {
	source := `
class Base { init(n) { this.n = n; } show() { print this.n; } }
class Derived < Base { show() { super.show(); print "derived"; } }
var f = fun (a, b) { return (a + b) * -2; };
for (var i = 0; i < 2; i = i + 1) { if (!(i == 1) or nil) print f(i, 1); else print "x"; }
while (false) {}
`
	program := mustParse(t, source)
	formatted := ast.Format(program)
	reparsed := mustParse(t, formatted)
	if ast.Sexpr(reparsed) != ast.Sexpr(program) {
		t.Fatalf("round trip changed the tree:\n%s\nvs\n%s", ast.Sexpr(reparsed), ast.Sexpr(program))
	}
	if again := ast.Format(reparsed); again != formatted {
		t.Fatalf("format is not idempotent:\n%s\nvs\n%s", again, formatted)
	}
}
