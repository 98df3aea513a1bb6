// Package matchindex finds every match of a pattern in a text and recovers
// the byte offset of each capture group.
//
// # Basic Usage
//
// Compile a pattern with at least one capturing group and collect its
// occurrences:
//
//	p := matchindex.MustCompile(`(a.)(b)(c.)d`)
//	occurrences, err := matchindex.MatchAll("aabccde", p)
//	if err != nil {
//	    log.Fatal(err)
//	}
//	for _, occ := range occurrences {
//	    for _, g := range occ.CaptureGroups {
//	        fmt.Printf("%q at %d\n", g.Text, g.Index)
//	    }
//	}
//
// Groups nested inside another group report matchindex.Unresolved (-1).
//
// # Catalog Scanning
//
// A Scanner runs the builtin pattern catalog (or custom definitions) over
// many texts:
//
//	scanner, err := matchindex.NewScanner()
//	if err != nil {
//	    log.Fatal(err)
//	}
//	defer scanner.Close()
//
//	results, err := scanner.ScanString("timeout=30 released 2024-01-15")
package matchindex

import (
	"context"
	"fmt"
	"os"

	"github.com/praetorian-inc/matchindex/pkg/catalog"
	"github.com/praetorian-inc/matchindex/pkg/matcher"
	"github.com/praetorian-inc/matchindex/pkg/pattern"
	"github.com/praetorian-inc/matchindex/pkg/scanner"
	"github.com/praetorian-inc/matchindex/pkg/types"
)

// Re-export commonly used types for convenience.
// Users can import just "github.com/praetorian-inc/matchindex" without subpackages.
type (
	// Pattern is a compiled, immutable expression.
	Pattern = pattern.Pattern

	// Option configures Compile.
	Option = pattern.Option

	// Engine selects the regular expression implementation.
	Engine = pattern.Engine

	// Occurrence is one match with its resolved capture groups.
	Occurrence = types.Occurrence

	// CaptureGroup is a capture text and its offset in the searched text.
	CaptureGroup = types.CaptureGroup

	// InvalidPatternError is returned for patterns without a capturing group.
	InvalidPatternError = pattern.InvalidPatternError

	// PatternDef is a catalog entry.
	PatternDef = types.PatternDef

	// PatternResult groups the occurrences of one catalog pattern.
	PatternResult = matcher.PatternResult
)

// Re-exported constants.
const (
	EngineRE2        = pattern.EngineRE2
	EngineECMAScript = pattern.EngineECMAScript

	// Unresolved is the offset of a capture group nested inside another group.
	Unresolved = types.Unresolved
)

var (
	// ErrInvalidPattern matches every InvalidPatternError via errors.Is.
	ErrInvalidPattern = pattern.ErrInvalidPattern

	// ErrTimeout is wrapped when the ECMAScript engine abandons a match.
	ErrTimeout = matcher.ErrTimeout
)

// WithFlags sets the flag string, e.g. "gi".
func WithFlags(flags string) Option {
	return pattern.WithFlags(flags)
}

// WithEngine selects the engine. Default is EngineRE2.
func WithEngine(engine Engine) Option {
	return pattern.WithEngine(engine)
}

// Compile compiles source with the given options.
func Compile(source string, opts ...Option) (*Pattern, error) {
	return pattern.Compile(source, opts...)
}

// MustCompile is like Compile but panics on error.
func MustCompile(source string, opts ...Option) *Pattern {
	return pattern.MustCompile(source, opts...)
}

// Parse compiles a /source/flags literal.
func Parse(literal string, opts ...Option) (*Pattern, error) {
	return pattern.Parse(literal, opts...)
}

// MatchAll returns every non-overlapping occurrence of p in text, left to
// right, with the offset of each capture group resolved. The scan is
// exhaustive whether or not p has the g flag, and p is not modified.
//
// Returns *InvalidPatternError if p's source has no capturing group.
func MatchAll(text string, p *Pattern) ([]*Occurrence, error) {
	return matcher.MatchAll(text, p)
}

// MatchCaptureGroupAll returns the capture groups of every occurrence of p
// in text as one list, in occurrence order and then group order.
func MatchCaptureGroupAll(text string, p *Pattern) ([]CaptureGroup, error) {
	return matcher.MatchCaptureGroupAll(text, p)
}

// Scanner runs a pattern catalog over texts.
type Scanner struct {
	core *scanner.Core
}

// scannerConfig holds scanner configuration.
type scannerConfig struct {
	patterns []*PatternDef
	workers  int
}

// ScannerOption configures a Scanner.
type ScannerOption func(*scannerConfig)

// WithPatterns uses custom definitions instead of the builtin catalog.
func WithPatterns(patterns []*PatternDef) ScannerOption {
	return func(c *scannerConfig) {
		c.patterns = patterns
	}
}

// WithWorkers bounds how many patterns run in parallel on a large text.
// Default is GOMAXPROCS.
func WithWorkers(workers int) ScannerOption {
	return func(c *scannerConfig) {
		c.workers = workers
	}
}

// NewScanner creates a new Scanner with the given options.
//
// By default, the scanner uses the builtin catalog and keeps results in memory.
func NewScanner(opts ...ScannerOption) (*Scanner, error) {
	config := &scannerConfig{}
	for _, opt := range opts {
		opt(config)
	}

	mopts := matcher.DefaultOptions()
	if config.workers > 0 {
		mopts.Workers = config.workers
	}

	core, err := scanner.NewCore(scanner.Config{
		Patterns: config.patterns,
		Matcher:  mopts,
	})
	if err != nil {
		return nil, fmt.Errorf("creating scanner: %w", err)
	}

	return &Scanner{core: core}, nil
}

// ScanString scans content and returns the patterns that matched with their
// occurrences.
func (s *Scanner) ScanString(content string) ([]*PatternResult, error) {
	return s.ScanStringWithContext(context.Background(), content)
}

// ScanStringWithContext is ScanString with cancellation.
func (s *Scanner) ScanStringWithContext(ctx context.Context, content string) ([]*PatternResult, error) {
	result, err := s.core.Scan(ctx, content, "inline")
	if err != nil {
		return nil, err
	}
	return result.Results, nil
}

// ScanFile reads and scans a file.
func (s *Scanner) ScanFile(path string) ([]*PatternResult, error) {
	content, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading file: %w", err)
	}
	return s.ScanString(string(content))
}

// PatternCount returns the number of catalog patterns loaded.
func (s *Scanner) PatternCount() int {
	return len(s.core.Patterns())
}

// Patterns returns a copy of the loaded definitions.
func (s *Scanner) Patterns() []*PatternDef {
	patterns := make([]*PatternDef, len(s.core.Patterns()))
	copy(patterns, s.core.Patterns())
	return patterns
}

// Close releases scanner resources.
func (s *Scanner) Close() error {
	s.core.Close()
	return nil
}

// LoadPatternsFromFile loads catalog definitions from a YAML file.
// Use this with WithPatterns to scan with a custom catalog.
func LoadPatternsFromFile(path string) ([]*PatternDef, error) {
	return catalog.NewLoader().LoadFile(path)
}

// LoadBuiltinPatterns returns the builtin catalog.
func LoadBuiltinPatterns() ([]*PatternDef, error) {
	return scanner.GetBuiltinPatterns()
}
