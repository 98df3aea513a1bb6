//go:build wasm

package main

import (
	"syscall/js"
)

func main() {
	js.Global().Set("MatchIndexMatchAll", js.FuncOf(matchAll))
	js.Global().Set("MatchIndexMatchCaptureGroupAll", js.FuncOf(matchCaptureGroupAll))
	js.Global().Set("MatchIndexNewSet", js.FuncOf(newSet))
	js.Global().Set("MatchIndexSetMatch", js.FuncOf(setMatch))
	js.Global().Set("MatchIndexCloseSet", js.FuncOf(closeSet))
	js.Global().Set("MatchIndexGetBuiltinPatterns", js.FuncOf(getBuiltinPatterns))

	<-make(chan struct{})
}
