package main

import (
	"bufio"
	"context"
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/samber/do"

	"lox/interpreter-go/pkg/ast"
	"lox/interpreter-go/pkg/driver"
)

const cliToolVersion = "lox-cli 0.1.0-dev"

// Exit codes follow the sysexits convention used by jlox-style tools.
const (
	exitOK      = 0
	exitFailure = 1
	exitUsage   = 64
	exitStatic  = 65
	exitRuntime = 70
)

func main() {
	os.Exit(run(os.Args[1:], os.Stdin, os.Stdout, os.Stderr))
}

type cli struct {
	stdin  io.Reader
	stdout io.Writer
	stderr io.Writer
}

func run(args []string, stdin io.Reader, stdout, stderr io.Writer) int {
	c := &cli{stdin: stdin, stdout: stdout, stderr: stderr}
	if len(args) == 0 {
		return c.runDefault()
	}

	switch args[0] {
	case "--help", "-h", "help":
		c.printUsage(stdout)
		return exitOK
	case "--version", "-V", "version":
		fmt.Fprintln(stdout, cliToolVersion)
		return exitOK
	case "-e", "--eval":
		return c.runEval(args[1:])
	case "run":
		return c.runScript(args[1:])
	case "repl":
		return c.runRepl(args[1:])
	case "test":
		return c.runFixtures(args[1:])
	case "ast":
		return c.runAST(args[1:])
	case "check":
		return c.runCheck(args[1:])
	default:
		if looksLikeScript(args[0]) {
			return c.runScript(args)
		}
		fmt.Fprintf(stderr, "lox: unknown command %q\n", args[0])
		c.printUsage(stderr)
		return exitUsage
	}
}

func (c *cli) printUsage(w io.Writer) {
	fmt.Fprintln(w, "Usage:")
	fmt.Fprintln(w, "  lox [script.lox]")
	fmt.Fprintln(w, "  lox run [--config path] [script.lox]")
	fmt.Fprintln(w, "  lox -e <source>")
	fmt.Fprintln(w, "  lox repl [--config path]")
	fmt.Fprintln(w, "  lox test [--config path] [fixture-dir]")
	fmt.Fprintln(w, "  lox check <script.lox>")
	fmt.Fprintln(w, "  lox ast [--json] <script.lox>")
	fmt.Fprintln(w, "  lox --version")
}

func looksLikeScript(arg string) bool {
	if strings.HasSuffix(arg, ".lox") {
		return true
	}
	info, err := os.Stat(arg)
	return err == nil && !info.IsDir()
}

// newFlags builds a flag set reporting to stderr with the shared --config
// option.
func (c *cli) newFlags(name string) (*flag.FlagSet, *string) {
	fs := flag.NewFlagSet("lox "+name, flag.ContinueOnError)
	fs.SetOutput(c.stderr)
	configPath := fs.String("config", "", "path to lox.yml or lox.toml")
	return fs, configPath
}

// runDefault runs the configured entry script, or starts the REPL when the
// project has none.
func (c *cli) runDefault() int {
	injector := newContainer("", ".")
	defer injector.Shutdown()
	cfg, err := do.Invoke[driver.Config](injector)
	if err != nil {
		fmt.Fprintf(c.stderr, "failed to load config: %v\n", err)
		return exitFailure
	}
	if cfg.Entry != "" {
		return c.execFile(injector, cfg.EntryPath())
	}
	return c.repl(injector, cfg)
}

func (c *cli) runScript(args []string) int {
	fs, configPath := c.newFlags("run")
	if err := fs.Parse(args); err != nil {
		return exitUsage
	}
	if fs.NArg() > 1 {
		fmt.Fprintln(c.stderr, "lox run accepts at most one script")
		return exitUsage
	}
	dir := "."
	if fs.NArg() == 1 {
		dir = filepath.Dir(fs.Arg(0))
	}
	injector := newContainer(*configPath, dir)
	defer injector.Shutdown()
	cfg, err := do.Invoke[driver.Config](injector)
	if err != nil {
		fmt.Fprintf(c.stderr, "failed to load config: %v\n", err)
		return exitFailure
	}
	path := fs.Arg(0)
	if path == "" {
		path = cfg.EntryPath()
	}
	if path == "" {
		fmt.Fprintln(c.stderr, "lox run requires a script (no entry configured)")
		return exitUsage
	}
	return c.execFile(injector, path)
}

// runEval runs a program given inline on the command line.
func (c *cli) runEval(args []string) int {
	if len(args) != 1 {
		fmt.Fprintln(c.stderr, "lox -e requires exactly one source argument")
		return exitUsage
	}
	injector := newContainer("", ".")
	defer injector.Shutdown()
	if _, err := do.Invoke[driver.Config](injector); err != nil {
		fmt.Fprintf(c.stderr, "failed to load config: %v\n", err)
		return exitFailure
	}
	newSession := do.MustInvoke[sessionFactory](injector)
	session, err := newSession(c.stdout)
	if err != nil {
		fmt.Fprintf(c.stderr, "%v\n", err)
		return exitFailure
	}
	return c.report(session.Run(args[0]))
}

func (c *cli) execFile(injector *do.Injector, path string) int {
	newSession := do.MustInvoke[sessionFactory](injector)
	session, err := newSession(c.stdout)
	if err != nil {
		fmt.Fprintf(c.stderr, "%v\n", err)
		return exitFailure
	}
	return c.report(session.RunFile(path))
}

// report prints err and maps it to an exit code.
func (c *cli) report(err error) int {
	if err == nil {
		return exitOK
	}
	var derr *driver.Error
	if !errors.As(err, &derr) {
		fmt.Fprintf(c.stderr, "%v\n", err)
		return exitFailure
	}
	for _, diag := range derr.Diagnostics {
		fmt.Fprintln(c.stderr, driver.DescribeDiagnostic(diag))
	}
	if derr.Stage().Static() {
		return exitStatic
	}
	return exitRuntime
}

func (c *cli) runRepl(args []string) int {
	fs, configPath := c.newFlags("repl")
	if err := fs.Parse(args); err != nil {
		return exitUsage
	}
	if fs.NArg() > 0 {
		fmt.Fprintln(c.stderr, "lox repl takes no arguments")
		return exitUsage
	}
	injector := newContainer(*configPath, ".")
	defer injector.Shutdown()
	cfg, err := do.Invoke[driver.Config](injector)
	if err != nil {
		fmt.Fprintf(c.stderr, "failed to load config: %v\n", err)
		return exitFailure
	}
	return c.repl(injector, cfg)
}

// repl reads one line at a time into a single session. Errors are printed
// and the loop continues; definitions survive across lines.
func (c *cli) repl(injector *do.Injector, cfg driver.Config) int {
	newSession := do.MustInvoke[sessionFactory](injector)
	session, err := newSession(c.stdout)
	if err != nil {
		fmt.Fprintf(c.stderr, "%v\n", err)
		return exitFailure
	}
	scanner := bufio.NewScanner(c.stdin)
	for {
		fmt.Fprint(c.stdout, cfg.Prompt)
		if !scanner.Scan() {
			break
		}
		line := scanner.Text()
		if strings.TrimSpace(line) == "" {
			continue
		}
		c.report(session.Run(line))
	}
	fmt.Fprintln(c.stdout)
	if err := scanner.Err(); err != nil {
		fmt.Fprintf(c.stderr, "read input: %v\n", err)
		return exitFailure
	}
	return exitOK
}

func (c *cli) runFixtures(args []string) int {
	fs, configPath := c.newFlags("test")
	if err := fs.Parse(args); err != nil {
		return exitUsage
	}
	if fs.NArg() > 1 {
		fmt.Fprintln(c.stderr, "lox test accepts at most one directory")
		return exitUsage
	}
	dir := fs.Arg(0)
	injector := newContainer(*configPath, ".")
	defer injector.Shutdown()
	cfg, err := do.Invoke[driver.Config](injector)
	if err != nil {
		fmt.Fprintf(c.stderr, "failed to load config: %v\n", err)
		return exitFailure
	}
	if dir == "" {
		dir = cfg.FixturesPath()
	}
	fixtures, err := driver.LoadFixtures(dir)
	if err != nil {
		fmt.Fprintf(c.stderr, "%v\n", err)
		return exitFailure
	}
	exec := do.MustInvoke[driver.Executor](injector)
	results := driver.RunFixtures(context.Background(), exec, fixtures, cfg)

	failed := 0
	for _, result := range results {
		if result.Passed() {
			fmt.Fprintf(c.stdout, "ok   %s\n", result.Fixture.Name)
			continue
		}
		failed++
		fmt.Fprintf(c.stdout, "FAIL %s (%s)\n", result.Fixture.Name, result.Fixture.Path)
		if result.Err != nil {
			fmt.Fprintf(c.stdout, "  error: %v\n", result.Err)
		}
		for _, mismatch := range result.Mismatches {
			fmt.Fprintf(c.stdout, "  %s\n", strings.ReplaceAll(mismatch, "\n", "\n  "))
		}
	}
	fmt.Fprintf(c.stdout, "%d passed, %d failed\n", len(results)-failed, failed)
	if failed > 0 {
		return exitFailure
	}
	return exitOK
}

func (c *cli) runCheck(args []string) int {
	fs, _ := c.newFlags("check")
	if err := fs.Parse(args); err != nil {
		return exitUsage
	}
	if fs.NArg() != 1 {
		fmt.Fprintln(c.stderr, "lox check requires exactly one script")
		return exitUsage
	}
	source, err := os.ReadFile(fs.Arg(0))
	if err != nil {
		fmt.Fprintf(c.stderr, "read %s: %v\n", fs.Arg(0), err)
		return exitFailure
	}
	if err := driver.Validate(string(source)); err != nil {
		return c.report(err)
	}
	fmt.Fprintf(c.stdout, "%s: ok\n", fs.Arg(0))
	return exitOK
}

func (c *cli) runAST(args []string) int {
	fs, _ := c.newFlags("ast")
	asJSON := fs.Bool("json", false, "print the syntax tree as JSON")
	if err := fs.Parse(args); err != nil {
		return exitUsage
	}
	if fs.NArg() != 1 {
		fmt.Fprintln(c.stderr, "lox ast requires exactly one script")
		return exitUsage
	}
	source, err := os.ReadFile(fs.Arg(0))
	if err != nil {
		fmt.Fprintf(c.stderr, "read %s: %v\n", fs.Arg(0), err)
		return exitFailure
	}
	program, err := driver.Check(string(source))
	if err != nil {
		return c.report(err)
	}
	if *asJSON {
		encoder := json.NewEncoder(c.stdout)
		encoder.SetIndent("", "  ")
		if err := encoder.Encode(program); err != nil {
			fmt.Fprintf(c.stderr, "encode ast: %v\n", err)
			return exitFailure
		}
		return exitOK
	}
	fmt.Fprintln(c.stdout, ast.Sexpr(program))
	return exitOK
}
