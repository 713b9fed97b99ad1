package driver

import (
	"errors"
	"fmt"
	"strings"

	"lox/interpreter-go/pkg/interpreter"
	"lox/interpreter-go/pkg/parser"
	"lox/interpreter-go/pkg/resolver"
	"lox/interpreter-go/pkg/scanner"
)

// Stage names the pipeline step that produced a diagnostic.
type Stage string

const (
	StageScan    Stage = "scan"
	StageParse   Stage = "parse"
	StageResolve Stage = "resolve"
	StageRuntime Stage = "runtime"
)

// Static reports whether the stage runs before execution starts.
func (s Stage) Static() bool {
	return s != StageRuntime
}

// Diagnostic is one error record surfaced to embedders.
type Diagnostic struct {
	Stage   Stage  `yaml:"stage"`
	Path    string `yaml:"-"`
	Line    int    `yaml:"line"`
	Where   string `yaml:"where,omitempty"`
	Message string `yaml:"message"`
}

// Error carries the diagnostic batch of a failed run. A runtime failure
// always holds exactly one diagnostic.
type Error struct {
	Diagnostics []Diagnostic
}

func (e *Error) Error() string {
	if len(e.Diagnostics) == 0 {
		return "lox: run failed"
	}
	parts := make([]string, len(e.Diagnostics))
	for i, diag := range e.Diagnostics {
		parts[i] = DescribeDiagnostic(diag)
	}
	return strings.Join(parts, "\n")
}

// Stage returns the stage of the first diagnostic.
func (e *Error) Stage() Stage {
	if len(e.Diagnostics) == 0 {
		return ""
	}
	return e.Diagnostics[0].Stage
}

// DescribeDiagnostic renders a diagnostic for terminal output. Static errors
// read `[line N] Error at 'x': message`; runtime errors put the message first
// and the line below it.
func DescribeDiagnostic(diag Diagnostic) string {
	location := formatDiagnosticLocation(diag)
	if diag.Stage == StageRuntime {
		return fmt.Sprintf("%s\n[%s]", diag.Message, location)
	}
	return fmt.Sprintf("[%s] Error%s: %s", location, diag.Where, diag.Message)
}

func formatDiagnosticLocation(diag Diagnostic) string {
	if diag.Path != "" {
		return fmt.Sprintf("%s line %d", diag.Path, diag.Line)
	}
	return fmt.Sprintf("line %d", diag.Line)
}

// collectDiagnostics converts a stage error into diagnostic records. ok is
// false when err is not a language error (an output failure, for example).
func collectDiagnostics(err error) (diags []Diagnostic, ok bool) {
	var (
		scanErrs    scanner.ErrorList
		parseErrs   parser.ErrorList
		resolveErrs resolver.DiagnosticList
		runtimeErr  *interpreter.RuntimeError
	)
	switch {
	case errors.As(err, &scanErrs):
		for _, e := range scanErrs {
			diags = append(diags, Diagnostic{Stage: StageScan, Line: e.Line, Message: e.Message})
		}
	case errors.As(err, &parseErrs):
		for _, e := range parseErrs {
			diags = append(diags, Diagnostic{Stage: StageParse, Line: e.Token.Line, Where: parser.Where(e.Token), Message: e.Message})
		}
	case errors.As(err, &resolveErrs):
		for _, d := range resolveErrs {
			diags = append(diags, Diagnostic{Stage: StageResolve, Line: d.Token.Line, Where: parser.Where(d.Token), Message: d.Message})
		}
	case errors.As(err, &runtimeErr):
		diags = append(diags, Diagnostic{Stage: StageRuntime, Line: runtimeErr.Line(), Message: runtimeErr.Message})
	default:
		return nil, false
	}
	return diags, true
}

func withPath(diags []Diagnostic, path string) []Diagnostic {
	for i := range diags {
		diags[i].Path = path
	}
	return diags
}
