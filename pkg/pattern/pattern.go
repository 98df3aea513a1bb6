// Package pattern holds compiled, immutable pattern values.
//
// A Pattern pairs a source expression with a flag set and an engine. Go's
// regexp package (RE2 syntax) is the default engine; patterns written for
// JavaScript can use the ECMAScript engine backed by regexp2.
package pattern

import (
	"fmt"
	"regexp"
	"sort"
	"strings"
	"time"

	"github.com/dlclark/regexp2"
)

// Engine selects the regular expression implementation behind a Pattern.
type Engine string

const (
	// EngineRE2 compiles with Go's regexp package. Linear time, no backreferences.
	EngineRE2 Engine = "re2"
	// EngineECMAScript compiles with regexp2 in ECMAScript mode (backtracking).
	EngineECMAScript Engine = "ecmascript"
)

// DefaultTimeout bounds a single ECMAScript match to stop catastrophic backtracking.
const DefaultTimeout = 5 * time.Second

// knownFlags lists every accepted flag, in canonical order.
//
//	g  global (exhaustive) scanning
//	i  case-insensitive
//	m  multi-line: ^ and $ match at line breaks
//	s  dot matches newline
//	x  free-spacing: unescaped whitespace and (?#...) comments are ignored
const knownFlags = "gimsx"

// ParseEngine converts a user supplied engine name. Empty means EngineRE2.
func ParseEngine(name string) (Engine, error) {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case "", "re2", "go":
		return EngineRE2, nil
	case "ecmascript", "ecma", "js", "javascript":
		return EngineECMAScript, nil
	default:
		return "", fmt.Errorf("unknown engine %q (want re2 or ecmascript)", name)
	}
}

// Pattern is a compiled expression. It is immutable and safe for concurrent use;
// methods that change options return a new Pattern.
type Pattern struct {
	source  string
	flags   string
	engine  Engine
	timeout time.Duration

	std  *regexp.Regexp  // set for EngineRE2
	ecma *regexp2.Regexp // set for EngineECMAScript

	// order holds the regexp2 group numbers of the capturing groups in
	// pattern order. Set for EngineECMAScript.
	order []int
}

// Option configures Compile.
type Option func(*config)

type config struct {
	flags   string
	engine  Engine
	timeout time.Duration
}

// WithFlags sets the flag string, e.g. "gi".
func WithFlags(flags string) Option {
	return func(c *config) {
		c.flags = flags
	}
}

// WithEngine selects the engine. Default is EngineRE2.
func WithEngine(engine Engine) Option {
	return func(c *config) {
		c.engine = engine
	}
}

// WithTimeout sets the per-match timeout of the ECMAScript engine.
// Zero keeps DefaultTimeout. Ignored by EngineRE2, which cannot backtrack.
func WithTimeout(d time.Duration) Option {
	return func(c *config) {
		c.timeout = d
	}
}

// Compile compiles source. Patterns without capturing groups compile fine;
// operations that resolve capture offsets reject them later with
// InvalidPatternError.
func Compile(source string, opts ...Option) (*Pattern, error) {
	cfg := &config{engine: EngineRE2}
	for _, opt := range opts {
		opt(cfg)
	}
	if cfg.engine == "" {
		cfg.engine = EngineRE2
	}

	flags, err := normalizeFlags(cfg.flags)
	if err != nil {
		return nil, err
	}

	timeout := cfg.timeout
	if timeout <= 0 {
		timeout = DefaultTimeout
	}

	return compile(source, flags, cfg.engine, timeout)
}

// MustCompile is like Compile but panics if the expression cannot be parsed.
func MustCompile(source string, opts ...Option) *Pattern {
	p, err := Compile(source, opts...)
	if err != nil {
		panic(err)
	}
	return p
}

// Parse compiles a literal written as /source/flags. Text that does not start
// with a slash is taken as a bare source with no flags.
func Parse(literal string, opts ...Option) (*Pattern, error) {
	if !strings.HasPrefix(literal, "/") {
		return Compile(literal, opts...)
	}

	end := strings.LastIndex(literal, "/")
	if end == 0 {
		return nil, fmt.Errorf("unterminated pattern literal %q", literal)
	}

	source := literal[1:end]
	flags := literal[end+1:]
	return Compile(source, append(opts, WithFlags(flags))...)
}

func compile(source, flags string, engine Engine, timeout time.Duration) (*Pattern, error) {
	p := &Pattern{
		source:  source,
		flags:   flags,
		engine:  engine,
		timeout: timeout,
	}

	switch engine {
	case EngineRE2:
		re, err := regexp.Compile(re2Expression(source, flags))
		if err != nil {
			return nil, fmt.Errorf("failed to compile pattern %q: %w", source, err)
		}
		p.std = re
	case EngineECMAScript:
		re, err := regexp2.Compile(source, ecmaOptions(flags))
		if err != nil {
			return nil, fmt.Errorf("failed to compile pattern %q: %w", source, err)
		}
		re.MatchTimeout = timeout
		p.ecma = re
		extended := strings.ContainsRune(flags, 'x') || hasExtendedPrefix(source)
		p.order = ecmaGroupOrder(source, extended, re)
	default:
		return nil, fmt.Errorf("unknown engine %q", engine)
	}

	return p, nil
}

// re2Expression folds the flag set into inline RE2 flags.
func re2Expression(source, flags string) string {
	if strings.ContainsRune(flags, 'x') || hasExtendedPrefix(source) {
		source = stripExtended(source)
	}

	var inline strings.Builder
	for _, f := range flags {
		switch f {
		case 'i', 'm', 's':
			inline.WriteRune(f)
		}
	}
	if inline.Len() == 0 {
		return source
	}
	return "(?" + inline.String() + ")" + source
}

// ecmaOptions maps flags onto regexp2 options. regexp2 only allows the
// ECMAScript option together with IgnoreCase and Multiline, so patterns using
// s or x fall back to regexp2's default syntax with the matching options.
func ecmaOptions(flags string) regexp2.RegexOptions {
	opts := regexp2.None
	ecma := true
	for _, f := range flags {
		switch f {
		case 'i':
			opts |= regexp2.IgnoreCase
		case 'm':
			opts |= regexp2.Multiline
		case 's':
			opts |= regexp2.Singleline
			ecma = false
		case 'x':
			opts |= regexp2.IgnorePatternWhitespace
			ecma = false
		}
	}
	if ecma {
		opts |= regexp2.ECMAScript
	}
	return opts
}

// normalizeFlags validates flags and returns them deduplicated in canonical order.
func normalizeFlags(flags string) (string, error) {
	seen := make(map[rune]bool, len(flags))
	for _, f := range flags {
		if !strings.ContainsRune(knownFlags, f) {
			return "", fmt.Errorf("unknown flag %q in %q (supported: %s)", f, flags, knownFlags)
		}
		seen[f] = true
	}

	out := make([]rune, 0, len(seen))
	for f := range seen {
		out = append(out, f)
	}
	sort.Slice(out, func(i, j int) bool {
		return strings.IndexRune(knownFlags, out[i]) < strings.IndexRune(knownFlags, out[j])
	})
	return string(out), nil
}

// Source returns the expression as written by the caller.
func (p *Pattern) Source() string {
	return p.source
}

// Flags returns the canonical flag string.
func (p *Pattern) Flags() string {
	return p.flags
}

// Engine returns the engine the pattern was compiled for.
func (p *Pattern) Engine() Engine {
	return p.engine
}

// Timeout returns the per-match timeout applied by the ECMAScript engine.
func (p *Pattern) Timeout() time.Duration {
	return p.timeout
}

// IsGlobal reports whether the g flag is set.
func (p *Pattern) IsGlobal() bool {
	return strings.ContainsRune(p.flags, 'g')
}

// Global returns p configured for exhaustive scanning. If p already has the g
// flag it is returned as is; otherwise a copy with the flag added is returned
// and p is left untouched.
func (p *Pattern) Global() *Pattern {
	if p.IsGlobal() {
		return p
	}
	flags, _ := normalizeFlags(p.flags + "g")
	cp := *p
	cp.flags = flags
	return &cp
}

// HasCaptureGroup reports whether the source contains a group-opening marker.
// This is a literal check on the source text, made before any matching.
func (p *Pattern) HasCaptureGroup() bool {
	return strings.Contains(p.source, "(")
}

// Validate returns an InvalidPatternError if p has no capturing group.
func (p *Pattern) Validate() error {
	if !p.HasCaptureGroup() {
		return &InvalidPatternError{Source: p.source}
	}
	return nil
}

// NumGroups returns the number of capturing groups the engine reports.
func (p *Pattern) NumGroups() int {
	if p.std != nil {
		return p.std.NumSubexp()
	}
	return len(p.order)
}

// GroupNames returns the name of each capturing group in pattern order,
// "" for unnamed groups. The full match is not included.
func (p *Pattern) GroupNames() []string {
	if p.std != nil {
		return append([]string(nil), p.std.SubexpNames()[1:]...)
	}

	names := make([]string, 0, len(p.order))
	for _, n := range p.order {
		name := p.ecma.GroupNameFromNumber(n)
		if name == fmt.Sprint(n) {
			name = ""
		}
		names = append(names, name)
	}
	return names
}

// Stdlib returns the compiled Go regexp, or nil for other engines.
func (p *Pattern) Stdlib() *regexp.Regexp {
	return p.std
}

// GroupNumbers returns the regexp2 group number of each capturing group in
// pattern order, or nil for other engines.
func (p *Pattern) GroupNumbers() []int {
	return p.order
}

// ECMAScript returns the compiled regexp2 expression, or nil for other engines.
func (p *Pattern) ECMAScript() *regexp2.Regexp {
	return p.ecma
}

// String renders the pattern as a /source/flags literal.
func (p *Pattern) String() string {
	return "/" + p.source + "/" + p.flags
}
