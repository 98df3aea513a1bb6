// Package catalog loads pattern definitions from YAML.
//
// A catalog file lists definitions under a top-level "patterns" key:
//
//	patterns:
//	  - id: mi.date.1
//	    name: ISO-8601 Date
//	    pattern: '\b(\d{4})-(\d{2})-(\d{2})\b'
//	    keywords: ["-"]
//	    examples: ["2024-01-15"]
package catalog

import (
	"fmt"
	"io/fs"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"

	"github.com/praetorian-inc/matchindex/pkg/types"
)

// Loader handles loading pattern definitions from YAML files.
type Loader struct {
	fs fs.FS // embedded filesystem for built-in patterns
}

// NewLoader creates a loader backed by the built-in catalog.
func NewLoader() *Loader {
	return &Loader{
		fs: builtinFS,
	}
}

// NewLoaderWithFS creates a loader with a custom filesystem.
// The filesystem must contain a "patterns" directory of .yml files.
func NewLoaderWithFS(fsys fs.FS) *Loader {
	return &Loader{
		fs: fsys,
	}
}

// Parse decodes every definition in a catalog document.
func (l *Loader) Parse(data []byte) ([]*types.PatternDef, error) {
	var file yamlCatalogFile
	if err := yaml.Unmarshal(data, &file); err != nil {
		return nil, fmt.Errorf("failed to parse YAML: %w", err)
	}

	if len(file.Patterns) == 0 {
		return nil, fmt.Errorf("no patterns found in YAML")
	}

	defs := make([]*types.PatternDef, 0, len(file.Patterns))
	for _, yp := range file.Patterns {
		defs = append(defs, convertYAMLPattern(yp))
	}
	return defs, nil
}

// LoadFile loads definitions from a YAML file path.
func (l *Loader) LoadFile(path string) ([]*types.PatternDef, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read file %s: %w", path, err)
	}
	defs, err := l.Parse(data)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return defs, nil
}

// LoadPath loads a single file, or a directory with LoadDir.
func (l *Loader) LoadPath(path string) ([]*types.PatternDef, error) {
	info, err := os.Stat(path)
	if err != nil {
		return nil, fmt.Errorf("failed to stat %s: %w", path, err)
	}
	if info.IsDir() {
		return l.LoadDir(path)
	}
	return l.LoadFile(path)
}

// LoadDir loads every .yml/.yaml file below dir in lexical order.
func (l *Loader) LoadDir(path string) ([]*types.PatternDef, error) {
	var defs []*types.PatternDef
	err := filepath.WalkDir(path, func(p string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() || !isYAML(p) {
			return nil
		}
		loaded, err := l.LoadFile(p)
		if err != nil {
			return err
		}
		defs = append(defs, loaded...)
		return nil
	})
	if err != nil {
		return nil, err
	}
	if len(defs) == 0 {
		return nil, fmt.Errorf("no pattern files found in %s", path)
	}
	return defs, nil
}

// LoadBuiltin loads all built-in definitions from the loader's filesystem.
func (l *Loader) LoadBuiltin() ([]*types.PatternDef, error) {
	var defs []*types.PatternDef

	err := fs.WalkDir(l.fs, "patterns", func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() || !isYAML(path) {
			return nil
		}

		data, err := fs.ReadFile(l.fs, path)
		if err != nil {
			return fmt.Errorf("failed to read %s: %w", path, err)
		}

		loaded, err := l.Parse(data)
		if err != nil {
			return fmt.Errorf("failed to parse %s: %w", path, err)
		}
		defs = append(defs, loaded...)
		return nil
	})

	if err != nil {
		return nil, err
	}

	return defs, nil
}

func isYAML(path string) bool {
	ext := filepath.Ext(path)
	return ext == ".yml" || ext == ".yaml"
}

// convertYAMLPattern converts yamlPattern to types.PatternDef and computes StructuralID.
func convertYAMLPattern(yp yamlPattern) *types.PatternDef {
	d := &types.PatternDef{
		ID:               yp.ID,
		Name:             yp.Name,
		Pattern:          yp.Pattern,
		Flags:            yp.Flags,
		Engine:           yp.Engine,
		Description:      yp.Description,
		Keywords:         yp.Keywords,
		Examples:         yp.Examples,
		NegativeExamples: yp.NegativeExamples,
		Categories:       yp.Categories,
	}
	d.StructuralID = d.ComputeStructuralID()
	return d
}
