package driver

import (
	"bytes"
	"context"
	"errors"
	"path/filepath"
	"strings"
	"testing"
)

func runCapture(t *testing.T, source string) (string, error) {
	t.Helper()
	var out bytes.Buffer
	err := Run(source, &out, DefaultConfig())
	return out.String(), err
}

func requireDriverError(t *testing.T, err error) *Error {
	t.Helper()
	var derr *Error
	if !errors.As(err, &derr) {
		t.Fatalf("expected *driver.Error, got %T (%v)", err, err)
	}
	return derr
}

func TestFixtures(t *testing.T) {
	fixtures, err := LoadFixtures(filepath.Join("testdata", "fixtures"))
	if err != nil {
		t.Fatalf("load fixtures: %v", err)
	}
	if len(fixtures) == 0 {
		t.Fatalf("expected fixtures under testdata/fixtures")
	}
	for _, fixture := range fixtures {
		fixture := fixture
		t.Run(fixture.Name, func(t *testing.T) {
			result := RunFixture(fixture, DefaultConfig())
			if result.Err != nil {
				t.Fatalf("run error: %v", result.Err)
			}
			if !result.Passed() {
				t.Fatalf("fixture %s failed:\n%s", fixture.Path, strings.Join(result.Mismatches, "\n"))
			}
		})
	}
}

func TestRunFixturesOnBothExecutors(t *testing.T) {
	fixtures, err := LoadFixtures(filepath.Join("testdata", "fixtures"))
	if err != nil {
		t.Fatalf("load fixtures: %v", err)
	}
	executors := map[string]Executor{
		"serial":    NewSerialExecutor(),
		"goroutine": NewGoroutineExecutor(4),
	}
	for name, exec := range executors {
		results := RunFixtures(context.Background(), exec, fixtures, DefaultConfig())
		if err := exec.Shutdown(); err != nil {
			t.Fatalf("%s: shutdown: %v", name, err)
		}
		if len(results) != len(fixtures) {
			t.Fatalf("%s: expected %d results, got %d", name, len(fixtures), len(results))
		}
		for idx, result := range results {
			if result.Fixture != fixtures[idx] {
				t.Fatalf("%s: result %d out of order", name, idx)
			}
			if !result.Passed() {
				t.Fatalf("%s: fixture %s failed: %v %v", name, result.Fixture.Name, result.Err, result.Mismatches)
			}
		}
	}
}

func TestRunCapturesOutput(t *testing.T) {
	out, err := runCapture(t, `var greeting = "hi"; print greeting + "!"; print 1 / 0;`)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if out != "hi!\ninf\n" {
		t.Fatalf("unexpected output %q", out)
	}
}

func TestStaticErrorsPreventExecution(t *testing.T) {
	out, err := runCapture(t, "print \"side effect\";\nreturn 1;\nprint this;")
	derr := requireDriverError(t, err)
	if out != "" {
		t.Fatalf("expected no output, got %q", out)
	}
	if derr.Stage() != StageResolve {
		t.Fatalf("expected resolve stage, got %s", derr.Stage())
	}
	if len(derr.Diagnostics) != 2 {
		t.Fatalf("expected 2 diagnostics, got %d: %v", len(derr.Diagnostics), derr)
	}
	if derr.Diagnostics[0].Line != 2 || derr.Diagnostics[1].Line != 3 {
		t.Fatalf("unexpected lines: %+v", derr.Diagnostics)
	}
}

func TestScanErrorsStopBeforeParsing(t *testing.T) {
	for _, source := range []string{"var a = @;\nprint (1;", "print \"abc"} {
		_, err := runCapture(t, source)
		derr := requireDriverError(t, err)
		for _, diag := range derr.Diagnostics {
			if diag.Stage != StageScan {
				t.Fatalf("%q: expected only scan diagnostics, got %+v", source, derr.Diagnostics)
			}
		}
		if len(derr.Diagnostics) != 1 {
			t.Fatalf("%q: expected one diagnostic, got %d", source, len(derr.Diagnostics))
		}
	}
}

func TestRuntimeErrorKeepsEarlierOutput(t *testing.T) {
	out, err := runCapture(t, "print 1;\nprint -\"x\";\nprint 3;")
	derr := requireDriverError(t, err)
	if out != "1\n" {
		t.Fatalf("unexpected output %q", out)
	}
	if len(derr.Diagnostics) != 1 {
		t.Fatalf("expected one runtime diagnostic, got %d", len(derr.Diagnostics))
	}
	diag := derr.Diagnostics[0]
	if diag.Stage != StageRuntime || diag.Line != 2 {
		t.Fatalf("unexpected diagnostic %+v", diag)
	}
	if diag.Message != "Operand of '-' must be a number, got string." {
		t.Fatalf("unexpected message %q", diag.Message)
	}
}

func TestDescribeDiagnostic(t *testing.T) {
	cases := []struct {
		diag Diagnostic
		want string
	}{
		{Diagnostic{Stage: StageParse, Line: 3, Where: " at 'x'", Message: "Expect ';' after value."}, "[line 3] Error at 'x': Expect ';' after value."},
		{Diagnostic{Stage: StageScan, Line: 1, Message: "Unterminated string."}, "[line 1] Error: Unterminated string."},
		{Diagnostic{Stage: StageRuntime, Line: 7, Message: "Undefined variable 'y'."}, "Undefined variable 'y'.\n[line 7]"},
		{Diagnostic{Stage: StageResolve, Path: "main.lox", Line: 2, Where: " at end", Message: "Boom."}, "[main.lox line 2] Error at end: Boom."},
	}
	for _, tc := range cases {
		if got := DescribeDiagnostic(tc.diag); got != tc.want {
			t.Fatalf("DescribeDiagnostic(%+v) = %q, want %q", tc.diag, got, tc.want)
		}
	}
	if !StageResolve.Static() || StageRuntime.Static() {
		t.Fatalf("unexpected Static classification")
	}
}

func TestSessionKeepsGlobalsAcrossRuns(t *testing.T) {
	var out bytes.Buffer
	session, err := NewSession(DefaultConfig(), &out)
	if err != nil {
		t.Fatalf("new session: %v", err)
	}
	steps := []string{
		"var count = 1;",
		"fun bump() { count = count + 1; return count; }",
		"class Box { init(v) { this.v = v; } get() { return this.v; } }",
		"print bump(); print Box(count).get();",
	}
	for _, step := range steps {
		if err := session.Run(step); err != nil {
			t.Fatalf("run %q: %v", step, err)
		}
	}
	if out.String() != "2\n2\n" {
		t.Fatalf("unexpected output %q", out.String())
	}
	if err := session.Run("print missing;"); err == nil {
		t.Fatalf("expected runtime error")
	}
	if err := session.Run("print count;"); err != nil {
		t.Fatalf("session unusable after runtime error: %v", err)
	}
	if session.Runs() != 6 {
		t.Fatalf("expected 6 executed programs, got %d", session.Runs())
	}
}

func TestSessionRunFileAttachesPath(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "broken.lox")
	writeFile(t, path, "print nope;\n")
	session, err := NewSession(DefaultConfig(), nil)
	if err != nil {
		t.Fatalf("new session: %v", err)
	}
	derr := requireDriverError(t, session.RunFile(path))
	if derr.Diagnostics[0].Path != "broken.lox" {
		t.Fatalf("expected path on diagnostic, got %+v", derr.Diagnostics[0])
	}
	if err := session.RunFile(filepath.Join(dir, "absent.lox")); err == nil || errors.As(err, new(*Error)) {
		t.Fatalf("expected plain IO error, got %v", err)
	}
}

func TestNativesFollowConfig(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Natives = nil
	var out bytes.Buffer
	err := Run("print clock;", &out, cfg)
	derr := requireDriverError(t, err)
	if derr.Diagnostics[0].Message != "Undefined variable 'clock'." {
		t.Fatalf("unexpected message %q", derr.Diagnostics[0].Message)
	}

	out.Reset()
	if err := Run("print clock() > 0;", &out, DefaultConfig()); err != nil {
		t.Fatalf("clock: %v", err)
	}
	if out.String() != "true\n" {
		t.Fatalf("unexpected output %q", out.String())
	}

	cfg.Natives = []string{"sleep"}
	if _, err := NewSession(cfg, nil); err == nil {
		t.Fatalf("expected unknown native error")
	}
}

func TestIdentifiersAreNormalized(t *testing.T) {
	composed := "caf\u00e9"
	decomposed := "cafe\u0301"
	out, err := runCapture(t, "var "+composed+" = 1; print "+decomposed+";")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if out != "1\n" {
		t.Fatalf("unexpected output %q", out)
	}
}

func TestStringLiteralsKeepTheirRunes(t *testing.T) {
	out, err := runCapture(t, "print \"e\u0301\" == \"\u00e9\";\nprint \"e\u0301\";")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if out != "false\ne\u0301\n" {
		t.Fatalf("unexpected output %q", out)
	}
}

func TestCheckReturnsProgram(t *testing.T) {
	program, err := Check("print 1 + 2;")
	if err != nil {
		t.Fatalf("check: %v", err)
	}
	if len(program.Body) != 1 {
		t.Fatalf("expected one statement, got %d", len(program.Body))
	}
	if _, err := Check("print ;"); err == nil {
		t.Fatalf("expected parse error")
	}
}
