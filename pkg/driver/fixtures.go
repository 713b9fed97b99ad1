package driver

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"gopkg.in/yaml.v3"
)

// Fixture is a program together with the output and diagnostics it must
// produce.
type Fixture struct {
	Path         string       `yaml:"-"`
	Name         string       `yaml:"name"`
	Source       string       `yaml:"source"`
	Stdout       string       `yaml:"stdout"`
	Diagnostics  []Diagnostic `yaml:"diagnostics"`
	MaxCallDepth int          `yaml:"max_call_depth"`
}

// FixtureResult records what a fixture run produced and how it differed
// from the expectation.
type FixtureResult struct {
	Fixture     *Fixture
	Stdout      string
	Diagnostics []Diagnostic
	Mismatches  []string
	Err         error
}

// Passed reports whether the run matched its fixture.
func (r FixtureResult) Passed() bool {
	return r.Err == nil && len(r.Mismatches) == 0
}

// LoadFixture parses one YAML fixture file.
func LoadFixture(path string) (*Fixture, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("fixture: open %s: %w", path, err)
	}
	defer file.Close()

	decoder := yaml.NewDecoder(file)
	decoder.KnownFields(true)

	var fixture Fixture
	if err := decoder.Decode(&fixture); err != nil {
		if errors.Is(err, io.EOF) {
			return nil, fmt.Errorf("fixture: %s is empty", path)
		}
		return nil, fmt.Errorf("fixture: parse %s: %w", path, err)
	}
	fixture.Path = path
	if fixture.Name == "" {
		fixture.Name = strings.TrimSuffix(filepath.Base(path), filepath.Ext(path))
	}
	var issues []string
	if strings.TrimSpace(fixture.Source) == "" {
		issues = append(issues, "source must be provided")
	}
	for idx, diag := range fixture.Diagnostics {
		switch diag.Stage {
		case StageScan, StageParse, StageResolve, StageRuntime:
		default:
			issues = append(issues, fmt.Sprintf("diagnostics[%d]: unknown stage %q", idx, diag.Stage))
		}
		if diag.Message == "" {
			issues = append(issues, fmt.Sprintf("diagnostics[%d]: message must be provided", idx))
		}
	}
	if len(issues) > 0 {
		return nil, fmt.Errorf("fixture: %s: %w", path, &ValidationError{Issues: issues})
	}
	return &fixture, nil
}

// LoadFixtures loads every .yml and .yaml file in dir, sorted by file name.
func LoadFixtures(dir string) ([]*Fixture, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("fixture: read %s: %w", dir, err)
	}
	var paths []string
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		switch filepath.Ext(entry.Name()) {
		case ".yml", ".yaml":
			paths = append(paths, filepath.Join(dir, entry.Name()))
		}
	}
	sort.Strings(paths)
	fixtures := make([]*Fixture, 0, len(paths))
	for _, path := range paths {
		fixture, err := LoadFixture(path)
		if err != nil {
			return nil, err
		}
		fixtures = append(fixtures, fixture)
	}
	return fixtures, nil
}

// RunFixture runs a fixture in a fresh session and compares the results.
func RunFixture(fixture *Fixture, cfg Config) FixtureResult {
	result := FixtureResult{Fixture: fixture}
	if fixture.MaxCallDepth > 0 {
		cfg.MaxCallDepth = fixture.MaxCallDepth
	}
	var out bytes.Buffer
	session, err := NewSession(cfg, &out)
	if err != nil {
		result.Err = err
		return result
	}
	runErr := session.Run(fixture.Source)
	result.Stdout = out.String()
	if runErr != nil {
		var derr *Error
		if !errors.As(runErr, &derr) {
			result.Err = runErr
			return result
		}
		result.Diagnostics = derr.Diagnostics
	}
	result.Mismatches = compareFixture(fixture, result)
	return result
}

func compareFixture(fixture *Fixture, result FixtureResult) []string {
	var mismatches []string
	if result.Stdout != fixture.Stdout {
		mismatches = append(mismatches, fmt.Sprintf("stdout mismatch:\nexpected %q\n     got %q", fixture.Stdout, result.Stdout))
	}
	if len(result.Diagnostics) != len(fixture.Diagnostics) {
		mismatches = append(mismatches, fmt.Sprintf("expected %d diagnostics, got %d:\n%s", len(fixture.Diagnostics), len(result.Diagnostics), describeAll(result.Diagnostics)))
		return mismatches
	}
	for idx, want := range fixture.Diagnostics {
		got := result.Diagnostics[idx]
		if got.Stage != want.Stage || got.Message != want.Message ||
			(want.Line != 0 && got.Line != want.Line) ||
			(want.Where != "" && got.Where != want.Where) {
			mismatches = append(mismatches, fmt.Sprintf("diagnostic %d: expected %s, got %s", idx, DescribeDiagnostic(want), DescribeDiagnostic(got)))
		}
	}
	return mismatches
}

func describeAll(diags []Diagnostic) string {
	parts := make([]string, len(diags))
	for i, diag := range diags {
		parts[i] = "  " + DescribeDiagnostic(diag)
	}
	return strings.Join(parts, "\n")
}

// RunFixtures schedules every fixture on exec and returns the results in
// input order. Each fixture gets its own session.
func RunFixtures(ctx context.Context, exec Executor, fixtures []*Fixture, cfg Config) []FixtureResult {
	results := make([]FixtureResult, len(fixtures))
	handles := make([]*Handle, len(fixtures))
	for idx, fixture := range fixtures {
		idx, fixture := idx, fixture
		handles[idx] = exec.Submit(ctx, func(context.Context) error {
			results[idx] = RunFixture(fixture, cfg)
			return nil
		})
	}
	for idx, handle := range handles {
		if err := handle.Wait(); err != nil {
			results[idx] = FixtureResult{Fixture: fixtures[idx], Err: err}
		}
	}
	return results
}
