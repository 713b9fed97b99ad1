package main

import (
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"

	git "github.com/go-git/go-git/v5"
)

func writeScript(t *testing.T, dir, name, contents string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		t.Fatalf("mkdir: %v", err)
	}
	if err := os.WriteFile(path, []byte(contents), 0o600); err != nil {
		t.Fatalf("write %s: %v", name, err)
	}
	return path
}

// isolatedDir returns a temp directory inside its own git worktree so config
// discovery never escapes into the surrounding filesystem.
func isolatedDir(t *testing.T) string {
	t.Helper()
	dir := t.TempDir()
	if _, err := git.PlainInit(dir, false); err != nil {
		t.Fatalf("git init: %v", err)
	}
	return dir
}

func runCLI(args []string, stdin string) (int, string, string) {
	var stdout, stderr bytes.Buffer
	code := run(args, strings.NewReader(stdin), &stdout, &stderr)
	return code, stdout.String(), stderr.String()
}

func TestRunScript(t *testing.T) {
	dir := isolatedDir(t)
	script := writeScript(t, dir, "fib.lox", "fun fib(n) { if (n <= 1) return n; return fib(n - 1) + fib(n - 2); }\nprint fib(10);\n")
	for _, args := range [][]string{{"run", script}, {script}} {
		code, stdout, stderr := runCLI(args, "")
		if code != exitOK {
			t.Fatalf("%v: exit %d, stderr %q", args, code, stderr)
		}
		if stdout != "55\n" {
			t.Fatalf("%v: unexpected stdout %q", args, stdout)
		}
	}
}

func TestEvalInlineSource(t *testing.T) {
	code, stdout, stderr := runCLI([]string{"-e", "var a = 20; print a + 22;"}, "")
	if code != exitOK || stdout != "42\n" {
		t.Fatalf("unexpected result %d %q %q", code, stdout, stderr)
	}
	code, _, stderr = runCLI([]string{"--eval", "print nope;"}, "")
	if code != exitRuntime || !strings.Contains(stderr, "Undefined variable 'nope'.\n[line 1]") {
		t.Fatalf("expected runtime failure, got %d %q", code, stderr)
	}
	code, _, _ = runCLI([]string{"-e"}, "")
	if code != exitUsage {
		t.Fatalf("expected usage error, got %d", code)
	}
}

func TestExitCodes(t *testing.T) {
	dir := isolatedDir(t)
	cases := []struct {
		name    string
		source  string
		code    int
		message string
	}{
		{"static", "{ var a = a; }\n", exitStatic, "[fixture.lox line 1] Error at 'a': Can't read local variable in its own initializer."},
		{"parse", "print ;\n", exitStatic, "Error at ';': Expect expression."},
		{"runtime", "print \"a\" + 1;\n", exitRuntime, "Operands of '+' must be two numbers or two strings, got string and number.\n[fixture.lox line 1]"},
	}
	for _, tc := range cases {
		script := writeScript(t, filepath.Join(dir, tc.name), "fixture.lox", tc.source)
		code, _, stderr := runCLI([]string{"run", script}, "")
		if code != tc.code {
			t.Fatalf("%s: expected exit %d, got %d (stderr %q)", tc.name, tc.code, code, stderr)
		}
		if !strings.Contains(stderr, tc.message) {
			t.Fatalf("%s: expected stderr to contain %q, got %q", tc.name, tc.message, stderr)
		}
	}
}

func TestMissingScriptIsIOFailure(t *testing.T) {
	dir := isolatedDir(t)
	code, _, stderr := runCLI([]string{"run", filepath.Join(dir, "absent.lox")}, "")
	if code != exitFailure {
		t.Fatalf("expected exit %d, got %d (%q)", exitFailure, code, stderr)
	}
}

func TestUsageErrors(t *testing.T) {
	code, _, stderr := runCLI([]string{"frobnicate"}, "")
	if code != exitUsage || !strings.Contains(stderr, "unknown command") {
		t.Fatalf("expected usage error, got %d %q", code, stderr)
	}
	code, _, _ = runCLI([]string{"ast"}, "")
	if code != exitUsage {
		t.Fatalf("expected usage error for ast without script, got %d", code)
	}
	code, stdout, _ := runCLI([]string{"--help"}, "")
	if code != exitOK || !strings.Contains(stdout, "Usage:") {
		t.Fatalf("expected help output, got %d %q", code, stdout)
	}
	code, stdout, _ = runCLI([]string{"--version"}, "")
	if code != exitOK || strings.TrimSpace(stdout) != cliToolVersion {
		t.Fatalf("unexpected version output %d %q", code, stdout)
	}
}

func TestRunUsesConfiguredEntry(t *testing.T) {
	dir := isolatedDir(t)
	writeScript(t, dir, "lox.yml", "name: demo\nentry: src/main.lox\nnatives: []\n")
	writeScript(t, dir, "src/main.lox", "print \"from entry\";\n")
	config := filepath.Join(dir, "lox.yml")
	code, stdout, stderr := runCLI([]string{"run", "--config", config}, "")
	if code != exitOK {
		t.Fatalf("exit %d, stderr %q", code, stderr)
	}
	if stdout != "from entry\n" {
		t.Fatalf("unexpected stdout %q", stdout)
	}
}

func TestConfigErrorsAreReported(t *testing.T) {
	dir := isolatedDir(t)
	config := writeScript(t, dir, "lox.yml", "max_call_depth: -1\n")
	script := writeScript(t, dir, "main.lox", "print 1;\n")
	code, _, stderr := runCLI([]string{"run", "--config", config, script}, "")
	if code != exitFailure || !strings.Contains(stderr, "max_call_depth must be positive") {
		t.Fatalf("expected config failure, got %d %q", code, stderr)
	}
}

func TestReplKeepsState(t *testing.T) {
	dir := isolatedDir(t)
	config := writeScript(t, dir, "lox.toml", "prompt = \"\"\n")
	input := "var x = 40;\nfun add(n) { return x + n; }\n\nprint add(2);\nprint nope;\nprint x;\n"
	code, stdout, stderr := runCLI([]string{"repl", "--config", config}, input)
	if code != exitOK {
		t.Fatalf("exit %d, stderr %q", code, stderr)
	}
	if stdout != "42\n40\n\n" {
		t.Fatalf("unexpected stdout %q", stdout)
	}
	if !strings.Contains(stderr, "Undefined variable 'nope'.") {
		t.Fatalf("expected runtime diagnostic, got %q", stderr)
	}
}

func TestFixtureCommand(t *testing.T) {
	dir := isolatedDir(t)
	writeScript(t, dir, "lox.yml", "fixtures: cases\nparallelism: 2\n")
	writeScript(t, dir, "cases/pass.yml", "source: |\n  print 1 + 2;\nstdout: |\n  3\n")
	writeScript(t, dir, "cases/fail.yml", "source: |\n  print 1;\nstdout: |\n  2\n")
	config := filepath.Join(dir, "lox.yml")

	code, stdout, _ := runCLI([]string{"test", "--config", config}, "")
	if code != exitFailure {
		t.Fatalf("expected failure exit, got %d", code)
	}
	if !strings.Contains(stdout, "ok   pass") || !strings.Contains(stdout, "FAIL fail") {
		t.Fatalf("unexpected report %q", stdout)
	}
	if !strings.Contains(stdout, "1 passed, 1 failed") {
		t.Fatalf("unexpected summary %q", stdout)
	}

	if err := os.Remove(filepath.Join(dir, "cases", "fail.yml")); err != nil {
		t.Fatalf("remove: %v", err)
	}
	code, stdout, _ = runCLI([]string{"test", "--config", config}, "")
	if code != exitOK || !strings.Contains(stdout, "1 passed, 0 failed") {
		t.Fatalf("expected success, got %d %q", code, stdout)
	}
}

func TestFixtureCommandRunsBundledFixtures(t *testing.T) {
	dir := filepath.Join("..", "..", "pkg", "driver", "testdata", "fixtures")
	code, stdout, stderr := runCLI([]string{"test", "--config", writeScript(t, isolatedDir(t), "lox.yml", "parallelism: 4\n"), dir}, "")
	if code != exitOK {
		t.Fatalf("bundled fixtures failed (%d):\n%s%s", code, stdout, stderr)
	}
}

func TestAstCommand(t *testing.T) {
	dir := isolatedDir(t)
	script := writeScript(t, dir, "expr.lox", "print -123 * (45.67);\n")
	code, stdout, stderr := runCLI([]string{"ast", script}, "")
	if code != exitOK {
		t.Fatalf("exit %d, stderr %q", code, stderr)
	}
	if strings.TrimSpace(stdout) != "(print (* (- 123) (group 45.67)))" {
		t.Fatalf("unexpected sexpr %q", stdout)
	}

	code, stdout, stderr = runCLI([]string{"ast", "--json", script}, "")
	if code != exitOK {
		t.Fatalf("exit %d, stderr %q", code, stderr)
	}
	var decoded map[string]any
	if err := json.Unmarshal([]byte(stdout), &decoded); err != nil {
		t.Fatalf("invalid json: %v\n%s", err, stdout)
	}
	if decoded["type"] != "Program" {
		t.Fatalf("expected Program root, got %v", decoded["type"])
	}
}

func TestCheckCommand(t *testing.T) {
	dir := isolatedDir(t)
	good := writeScript(t, dir, "good.lox", "var a = 1; print a;\n")
	code, stdout, _ := runCLI([]string{"check", good}, "")
	if code != exitOK || !strings.Contains(stdout, "ok") {
		t.Fatalf("expected ok, got %d %q", code, stdout)
	}
	bad := writeScript(t, dir, "bad.lox", "print \"never\";\nthis;\n")
	code, stdout, stderr := runCLI([]string{"check", bad}, "")
	if code != exitStatic {
		t.Fatalf("expected static failure, got %d", code)
	}
	if stdout != "" || !strings.Contains(stderr, "Can't use 'this' outside of a class.") {
		t.Fatalf("unexpected output %q / %q", stdout, stderr)
	}
}
