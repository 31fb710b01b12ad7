// Package manifest handles qvmtool.toml configuration.
package manifest

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/BurntSushi/toml"

	"github.com/chazu/qvmtool/decompiler"
	"github.com/chazu/qvmtool/pkg/bytecode"
)

// FileName is the name of the configuration file.
const FileName = "qvmtool.toml"

// Output formats.
const (
	FormatTree = "tree"
	FormatCBOR = "cbor"
	FormatSpew = "spew"
)

// Manifest represents a qvmtool.toml configuration.
type Manifest struct {
	Decompile Decompile  `toml:"decompile"`
	Output    Output     `toml:"output"`
	Functions []Function `toml:"function"`

	// Dir is the directory containing the qvmtool.toml file (set at load time).
	Dir string `toml:"-"`
}

// Decompile configures resource limits and parallelism.
type Decompile struct {
	MaxDepth int `toml:"max-depth"`
	MaxSteps int `toml:"max-steps"`
	Workers  int `toml:"workers"`
}

// Output configures what the CLI prints.
type Output struct {
	Format  string `toml:"format"`
	Summary bool   `toml:"summary"`
}

// Function declares an extra entry point to decompile.
type Function struct {
	Name    string `toml:"name"`
	Address int    `toml:"address"`
}

// Default returns the configuration used when no qvmtool.toml exists.
func Default() *Manifest {
	m := &Manifest{}
	m.applyDefaults()
	return m
}

// Load parses a qvmtool.toml file from the given directory.
func Load(dir string) (*Manifest, error) {
	path := filepath.Join(dir, FileName)
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("cannot read %s: %w", path, err)
	}

	m, err := Parse(data)
	if err != nil {
		return nil, fmt.Errorf("parse error in %s: %w", path, err)
	}

	m.Dir, err = filepath.Abs(dir)
	if err != nil {
		return nil, fmt.Errorf("cannot resolve path %s: %w", dir, err)
	}
	return m, nil
}

// Parse decodes and validates manifest contents.
func Parse(data []byte) (*Manifest, error) {
	var m Manifest
	if _, err := toml.Decode(string(data), &m); err != nil {
		return nil, err
	}
	m.applyDefaults()
	if err := m.Validate(); err != nil {
		return nil, err
	}
	return &m, nil
}

// FindAndLoad walks up from startDir to find a qvmtool.toml file,
// then loads and returns the manifest. Returns nil if no manifest is found.
func FindAndLoad(startDir string) (*Manifest, error) {
	dir, err := filepath.Abs(startDir)
	if err != nil {
		return nil, err
	}

	for {
		path := filepath.Join(dir, FileName)
		if _, err := os.Stat(path); err == nil {
			return Load(dir)
		}

		parent := filepath.Dir(dir)
		if parent == dir {
			// Reached root
			return nil, nil
		}
		dir = parent
	}
}

func (m *Manifest) applyDefaults() {
	if m.Decompile.MaxDepth == 0 {
		m.Decompile.MaxDepth = decompiler.DefaultMaxDepth
	}
	if m.Decompile.MaxSteps == 0 {
		m.Decompile.MaxSteps = decompiler.DefaultMaxSteps
	}
	if m.Output.Format == "" {
		m.Output.Format = FormatTree
	}
}

// Validate checks value ranges.
func (m *Manifest) Validate() error {
	if m.Decompile.MaxDepth < 0 {
		return fmt.Errorf("decompile.max-depth must be positive, got %d", m.Decompile.MaxDepth)
	}
	if m.Decompile.Workers < 0 {
		return fmt.Errorf("decompile.workers must not be negative, got %d", m.Decompile.Workers)
	}
	switch m.Output.Format {
	case FormatTree, FormatCBOR, FormatSpew:
	default:
		return fmt.Errorf("output.format must be %s, %s or %s, got %q", FormatTree, FormatCBOR, FormatSpew, m.Output.Format)
	}
	seen := make(map[string]bool, len(m.Functions))
	for i, fn := range m.Functions {
		if fn.Name == "" {
			return fmt.Errorf("function %d has no name", i)
		}
		if fn.Address < 0 {
			return fmt.Errorf("function %s: address must not be negative", fn.Name)
		}
		if seen[fn.Name] {
			return fmt.Errorf("function %s declared twice", fn.Name)
		}
		seen[fn.Name] = true
	}
	return nil
}

// Options returns the decompiler options the manifest describes.
func (m *Manifest) Options() decompiler.Options {
	return decompiler.Options{
		Limits: decompiler.Limits{
			MaxDepth: m.Decompile.MaxDepth,
			MaxSteps: m.Decompile.MaxSteps,
		},
		Workers: m.Decompile.Workers,
	}
}

// Symbols returns the declared entry points.
func (m *Manifest) Symbols() []bytecode.Symbol {
	syms := make([]bytecode.Symbol, len(m.Functions))
	for i, fn := range m.Functions {
		syms[i] = bytecode.Symbol{Name: fn.Name, Address: fn.Address}
	}
	return syms
}
