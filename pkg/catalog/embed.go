package catalog

import "embed"

// builtinFS embeds the built-in pattern catalog.
//
//go:embed patterns/*.yml
var builtinFS embed.FS
