//go:build wasm

package main

import (
	"context"
	"encoding/json"
	"errors"
	"sync"
	"syscall/js"

	"github.com/praetorian-inc/matchindex/pkg/catalog"
	"github.com/praetorian-inc/matchindex/pkg/matcher"
	"github.com/praetorian-inc/matchindex/pkg/pattern"
	"github.com/praetorian-inc/matchindex/pkg/types"
)

var (
	sets   = make(map[int]*matcher.Set)
	setsMu sync.RWMutex
	nextID int
)

func errorResult(code, msg string) map[string]interface{} {
	return map[string]interface{}{"error": msg, "code": code}
}

func failure(err error) map[string]interface{} {
	switch {
	case errors.Is(err, pattern.ErrInvalidPattern):
		return errorResult("invalid_pattern", err.Error())
	case errors.Is(err, matcher.ErrTimeout):
		return errorResult("timeout", err.Error())
	default:
		return errorResult("bad_request", err.Error())
	}
}

func toJSON(v interface{}) interface{} {
	b, err := json.Marshal(v)
	if err != nil {
		return errorResult("bad_request", "failed to marshal result: "+err.Error())
	}
	return string(b)
}

// compileArgs builds a pattern from (text, literal[, engine]) arguments.
// The literal is written as /source/flags. Callers in JS get JavaScript
// matching semantics unless they ask for another engine.
func compileArgs(args []js.Value) (string, *pattern.Pattern, error) {
	if len(args) < 2 {
		return "", nil, errors.New("text and pattern arguments required")
	}
	text := args[0].String()

	engine := pattern.EngineECMAScript
	if len(args) > 2 && args[2].Type() == js.TypeString {
		var err error
		engine, err = pattern.ParseEngine(args[2].String())
		if err != nil {
			return "", nil, err
		}
	}

	p, err := pattern.Parse(args[1].String(), pattern.WithEngine(engine))
	if err != nil {
		return "", nil, err
	}
	return text, p, nil
}

// matchAll returns every occurrence with resolved capture groups.
// JS: MatchIndexMatchAll(text, "/src/flags", engine = "ecmascript") -> JSON occurrences or error
func matchAll(this js.Value, args []js.Value) interface{} {
	text, p, err := compileArgs(args)
	if err != nil {
		return failure(err)
	}
	occurrences, err := matcher.MatchAll(text, p)
	if err != nil {
		return failure(err)
	}
	return toJSON(occurrences)
}

// matchCaptureGroupAll returns the capture groups of every occurrence, flattened.
// JS: MatchIndexMatchCaptureGroupAll(text, "/src/flags", engine?) -> JSON groups or error
func matchCaptureGroupAll(this js.Value, args []js.Value) interface{} {
	text, p, err := compileArgs(args)
	if err != nil {
		return failure(err)
	}
	groups, err := matcher.MatchCaptureGroupAll(text, p)
	if err != nil {
		return failure(err)
	}
	return toJSON(groups)
}

// newSet compiles a pattern catalog. "builtin" selects the embedded catalog;
// anything else is parsed as a YAML or JSON catalog document.
// JS: MatchIndexNewSet(catalog) -> {handle} or error
func newSet(this js.Value, args []js.Value) interface{} {
	if len(args) < 1 {
		return errorResult("bad_request", "catalog argument required")
	}

	loader := catalog.NewLoader()
	doc := args[0].String()

	var (
		defs []*types.PatternDef
		err  error
	)
	if doc == "builtin" {
		defs, err = loader.LoadBuiltin()
	} else {
		defs, err = loader.Parse([]byte(doc))
	}
	if err != nil {
		return failure(err)
	}

	set, err := matcher.NewSet(defs, matcher.DefaultOptions())
	if err != nil {
		return failure(err)
	}

	setsMu.Lock()
	id := nextID
	nextID++
	sets[id] = set
	setsMu.Unlock()

	return map[string]interface{}{"handle": id}
}

// setMatch runs every pattern of a set over text.
// JS: MatchIndexSetMatch(handle, text) -> JSON match result or error
func setMatch(this js.Value, args []js.Value) interface{} {
	if len(args) < 2 {
		return errorResult("bad_request", "handle and text arguments required")
	}

	setsMu.RLock()
	set, ok := sets[args[0].Int()]
	setsMu.RUnlock()
	if !ok {
		return errorResult("bad_request", "invalid set handle")
	}

	result, err := set.Match(context.Background(), args[1].String())
	if err != nil {
		return failure(err)
	}
	return toJSON(result)
}

// closeSet releases a set.
// JS: MatchIndexCloseSet(handle)
func closeSet(this js.Value, args []js.Value) interface{} {
	if len(args) < 1 {
		return errorResult("bad_request", "handle argument required")
	}

	handle := args[0].Int()

	setsMu.Lock()
	set, ok := sets[handle]
	if ok {
		delete(sets, handle)
	}
	setsMu.Unlock()

	if !ok {
		return errorResult("bad_request", "invalid set handle")
	}
	set.Close()
	return nil
}

// getBuiltinPatterns returns the embedded catalog as JSON.
// JS: MatchIndexGetBuiltinPatterns() -> JSON pattern array
func getBuiltinPatterns(this js.Value, args []js.Value) interface{} {
	defs, err := catalog.NewLoader().LoadBuiltin()
	if err != nil {
		return failure(err)
	}
	return toJSON(defs)
}
