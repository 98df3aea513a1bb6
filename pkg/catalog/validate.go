package catalog

import (
	"errors"
	"fmt"

	"github.com/praetorian-inc/matchindex/pkg/matcher"
	"github.com/praetorian-inc/matchindex/pkg/types"
)

// ValidateDef checks required fields, compiles the pattern and runs its
// examples. Every example must produce at least one occurrence and every
// negative example none.
func ValidateDef(d *types.PatternDef) error {
	if d == nil {
		return fmt.Errorf("pattern definition is nil")
	}
	if d.ID == "" {
		return fmt.Errorf("pattern ID is required")
	}
	if d.Name == "" {
		return fmt.Errorf("pattern %s: name is required", d.ID)
	}
	if d.Pattern == "" {
		return fmt.Errorf("pattern %s: pattern is required", d.ID)
	}

	expected := d.ComputeStructuralID()
	if d.StructuralID != "" && d.StructuralID != expected {
		return fmt.Errorf("pattern %s has inconsistent StructuralID: got %s, expected %s",
			d.ID, d.StructuralID, expected)
	}

	p, err := matcher.CompileDef(d, 0)
	if err != nil {
		return fmt.Errorf("pattern %s: %w", d.ID, err)
	}
	if err := p.Validate(); err != nil {
		return fmt.Errorf("pattern %s: %w", d.ID, err)
	}

	for _, ex := range d.Examples {
		occ, err := matcher.MatchAll(ex, p)
		if err != nil {
			return fmt.Errorf("pattern %s: example %q: %w", d.ID, ex, err)
		}
		if len(occ) == 0 {
			return fmt.Errorf("pattern %s: example %q does not match", d.ID, ex)
		}
	}
	for _, ex := range d.NegativeExamples {
		occ, err := matcher.MatchAll(ex, p)
		if err != nil {
			return fmt.Errorf("pattern %s: negative example %q: %w", d.ID, ex, err)
		}
		if len(occ) > 0 {
			return fmt.Errorf("pattern %s: negative example %q matches at %d", d.ID, ex, occ[0].Index)
		}
	}
	return nil
}

// Validate runs ValidateDef on every definition and also rejects duplicate IDs.
// All problems are reported, joined into one error.
func Validate(defs []*types.PatternDef) error {
	var errs []error
	seen := make(map[string]bool, len(defs))
	for _, d := range defs {
		if err := ValidateDef(d); err != nil {
			errs = append(errs, err)
			continue
		}
		if seen[d.ID] {
			errs = append(errs, fmt.Errorf("duplicate pattern ID: %s", d.ID))
		}
		seen[d.ID] = true
	}
	return errors.Join(errs...)
}
