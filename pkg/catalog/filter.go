package catalog

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/praetorian-inc/matchindex/pkg/types"
)

// FilterConfig specifies include and exclude expressions matched against
// definition IDs.
type FilterConfig struct {
	Include []string // only matching definitions are kept
	Exclude []string // matching definitions are dropped
}

// ParseList splits a comma-separated flag value into trimmed entries.
func ParseList(value string) []string {
	if value == "" {
		return []string{}
	}

	parts := strings.Split(value, ",")
	result := make([]string, 0, len(parts))
	for _, p := range parts {
		trimmed := strings.TrimSpace(p)
		if trimmed != "" {
			result = append(result, trimmed)
		}
	}
	return result
}

// Filter applies include, then exclude. An empty include keeps everything.
func Filter(defs []*types.PatternDef, config FilterConfig) ([]*types.PatternDef, error) {
	if len(defs) == 0 {
		return defs, nil
	}

	include, err := compileAll(config.Include)
	if err != nil {
		return nil, err
	}
	exclude, err := compileAll(config.Exclude)
	if err != nil {
		return nil, err
	}

	result := make([]*types.PatternDef, 0, len(defs))
	for _, d := range defs {
		if len(include) > 0 && !matchesAny(d.ID, include) {
			continue
		}
		if matchesAny(d.ID, exclude) {
			continue
		}
		result = append(result, d)
	}
	return result, nil
}

// ByID returns the definition with the given ID, or nil.
func ByID(defs []*types.PatternDef, id string) *types.PatternDef {
	for _, d := range defs {
		if d.ID == id {
			return d
		}
	}
	return nil
}

func compileAll(exprs []string) ([]*regexp.Regexp, error) {
	out := make([]*regexp.Regexp, 0, len(exprs))
	for _, expr := range exprs {
		re, err := regexp.Compile(expr)
		if err != nil {
			return nil, fmt.Errorf("invalid filter expression %q: %w", expr, err)
		}
		out = append(out, re)
	}
	return out, nil
}

func matchesAny(id string, regexes []*regexp.Regexp) bool {
	for _, re := range regexes {
		if re.MatchString(id) {
			return true
		}
	}
	return false
}
