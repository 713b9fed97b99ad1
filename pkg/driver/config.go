package driver

import (
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/go-git/go-git/v5"
	"github.com/pelletier/go-toml/v2"
	"gopkg.in/yaml.v3"

	"lox/interpreter-go/pkg/interpreter"
)

// ConfigFileNames lists the project files FindConfig looks for, in order.
var ConfigFileNames = []string{"lox.yml", "lox.yaml", "lox.toml"}

// ErrConfigNotFound is returned by FindConfig when no project file exists
// between the start directory and the search boundary.
var ErrConfigNotFound = errors.New("config: project file not found")

// Config describes a Lox project.
type Config struct {
	Path         string
	Name         string
	Entry        string
	MaxCallDepth int
	Natives      []string
	Prompt       string
	Fixtures     string
	Parallelism  int
}

// DefaultConfig enables every native and uses the default limits.
func DefaultConfig() Config {
	return Config{
		Name:         "lox",
		MaxCallDepth: interpreter.DefaultMaxCallDepth,
		Natives:      interpreter.NativeNames(),
		Prompt:       "> ",
		Fixtures:     "fixtures",
		Parallelism:  1,
	}
}

// Dir returns the directory holding the config file, or "." for defaults.
func (c Config) Dir() string {
	if c.Path == "" {
		return "."
	}
	return filepath.Dir(c.Path)
}

// EntryPath resolves Entry against the project directory.
func (c Config) EntryPath() string {
	if c.Entry == "" || filepath.IsAbs(c.Entry) {
		return c.Entry
	}
	return filepath.Join(c.Dir(), c.Entry)
}

// FixturesPath resolves Fixtures against the project directory.
func (c Config) FixturesPath() string {
	if filepath.IsAbs(c.Fixtures) {
		return c.Fixtures
	}
	return filepath.Join(c.Dir(), c.Fixtures)
}

// ValidationError aggregates config validation failures.
type ValidationError struct {
	Issues []string
}

func (e *ValidationError) Error() string {
	if len(e.Issues) == 0 {
		return "config: invalid configuration"
	}
	var b strings.Builder
	b.WriteString("config validation failed:")
	for _, issue := range e.Issues {
		b.WriteString("\n- ")
		b.WriteString(issue)
	}
	return b.String()
}

type configFile struct {
	Name         string    `yaml:"name" toml:"name"`
	Entry        string    `yaml:"entry" toml:"entry"`
	MaxCallDepth *int      `yaml:"max_call_depth" toml:"max_call_depth"`
	Natives      *[]string `yaml:"natives" toml:"natives"`
	Prompt       *string   `yaml:"prompt" toml:"prompt"`
	Fixtures     string    `yaml:"fixtures" toml:"fixtures"`
	Parallelism  *int      `yaml:"parallelism" toml:"parallelism"`
}

// LoadConfig parses lox.yml, lox.yaml or lox.toml and validates it. Fields
// left out keep their DefaultConfig values.
func LoadConfig(path string) (Config, error) {
	if path == "" {
		return Config{}, fmt.Errorf("config: empty path")
	}
	absPath, err := filepath.Abs(path)
	if err != nil {
		return Config{}, fmt.Errorf("config: resolve %s: %w", path, err)
	}
	file, err := os.Open(absPath)
	if err != nil {
		return Config{}, fmt.Errorf("config: open %s: %w", absPath, err)
	}
	defer file.Close()

	var raw configFile
	switch ext := strings.ToLower(filepath.Ext(absPath)); ext {
	case ".yml", ".yaml":
		decoder := yaml.NewDecoder(file)
		decoder.KnownFields(true)
		if err := decoder.Decode(&raw); err != nil {
			if errors.Is(err, io.EOF) {
				return Config{}, fmt.Errorf("config: %s is empty", absPath)
			}
			return Config{}, fmt.Errorf("config: parse %s: %w", absPath, err)
		}
	case ".toml":
		decoder := toml.NewDecoder(file)
		decoder.DisallowUnknownFields()
		if err := decoder.Decode(&raw); err != nil {
			return Config{}, fmt.Errorf("config: parse %s: %w", absPath, err)
		}
	default:
		return Config{}, fmt.Errorf("config: unsupported file type %q for %s", ext, absPath)
	}

	cfg := raw.toConfig(absPath)
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

func (raw configFile) toConfig(path string) Config {
	cfg := DefaultConfig()
	cfg.Path = path
	cfg.Name = filepath.Base(filepath.Dir(path))
	if name := strings.TrimSpace(raw.Name); name != "" {
		cfg.Name = name
	}
	cfg.Entry = strings.TrimSpace(raw.Entry)
	if raw.MaxCallDepth != nil {
		cfg.MaxCallDepth = *raw.MaxCallDepth
	}
	if raw.Natives != nil {
		cfg.Natives = append([]string{}, (*raw.Natives)...)
	}
	if raw.Prompt != nil {
		cfg.Prompt = *raw.Prompt
	}
	if fixtures := strings.TrimSpace(raw.Fixtures); fixtures != "" {
		cfg.Fixtures = fixtures
	}
	if raw.Parallelism != nil {
		cfg.Parallelism = *raw.Parallelism
	}
	return cfg
}

// Validate reports every problem with the config at once.
func (c Config) Validate() error {
	var issues []string
	if strings.TrimSpace(c.Name) == "" {
		issues = append(issues, "name must be provided")
	}
	if c.Entry != "" && !strings.HasSuffix(c.Entry, ".lox") {
		issues = append(issues, fmt.Sprintf("entry %q must be a .lox file", c.Entry))
	}
	if c.MaxCallDepth <= 0 {
		issues = append(issues, fmt.Sprintf("max_call_depth must be positive, got %d", c.MaxCallDepth))
	}
	known := make(map[string]bool)
	for _, name := range interpreter.NativeNames() {
		known[name] = true
	}
	seen := make(map[string]bool)
	for _, name := range c.Natives {
		switch {
		case !known[name]:
			issues = append(issues, fmt.Sprintf("unknown native %q (available: %s)", name, strings.Join(interpreter.NativeNames(), ", ")))
		case seen[name]:
			issues = append(issues, fmt.Sprintf("native %q listed more than once", name))
		}
		seen[name] = true
	}
	if c.Parallelism < 1 {
		issues = append(issues, fmt.Sprintf("parallelism must be at least 1, got %d", c.Parallelism))
	}
	if len(issues) > 0 {
		return &ValidationError{Issues: issues}
	}
	return nil
}

// FindConfig walks up from start looking for a project file. The walk stops
// at the root of the enclosing git worktree, or at the filesystem root when
// start is not inside a repository.
func FindConfig(start string) (string, error) {
	dir, err := filepath.Abs(start)
	if err != nil {
		return "", fmt.Errorf("config: resolve start directory %q: %w", start, err)
	}
	if info, statErr := os.Stat(dir); statErr == nil && !info.IsDir() {
		dir = filepath.Dir(dir)
	}
	boundary, err := worktreeRoot(dir)
	if err != nil {
		return "", err
	}
	origin := dir
	for {
		for _, name := range ConfigFileNames {
			candidate := filepath.Join(dir, name)
			info, err := os.Stat(candidate)
			if err == nil && !info.IsDir() {
				return candidate, nil
			}
			if err != nil && !errors.Is(err, os.ErrNotExist) {
				return "", fmt.Errorf("config: stat %s: %w", candidate, err)
			}
		}
		parent := filepath.Dir(dir)
		if dir == boundary || parent == dir {
			return "", fmt.Errorf("no %s found from %s upwards: %w", strings.Join(ConfigFileNames, "/"), origin, ErrConfigNotFound)
		}
		dir = parent
	}
}

// worktreeRoot returns the root of the git worktree containing dir, or ""
// when dir is not inside one.
func worktreeRoot(dir string) (string, error) {
	repo, err := git.PlainOpenWithOptions(dir, &git.PlainOpenOptions{DetectDotGit: true})
	if err != nil {
		if errors.Is(err, git.ErrRepositoryNotExists) {
			return "", nil
		}
		return "", fmt.Errorf("config: open repository at %s: %w", dir, err)
	}
	worktree, err := repo.Worktree()
	if err != nil {
		if errors.Is(err, git.ErrIsBareRepository) {
			return "", nil
		}
		return "", fmt.Errorf("config: open worktree at %s: %w", dir, err)
	}
	root, err := filepath.Abs(worktree.Filesystem.Root())
	if err != nil {
		return "", fmt.Errorf("config: resolve worktree root: %w", err)
	}
	return root, nil
}

// LoadNearestConfig finds and loads the project file for dir, falling back
// to DefaultConfig when none exists.
func LoadNearestConfig(dir string) (Config, error) {
	path, err := FindConfig(dir)
	if err != nil {
		if errors.Is(err, ErrConfigNotFound) {
			return DefaultConfig(), nil
		}
		return Config{}, err
	}
	return LoadConfig(path)
}
