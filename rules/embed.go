// Package rules embeds the rule scripts glint runs by default. Each
// top-level *.risor file is one rule, run once per checked file.
package rules

import "embed"

//go:embed *.risor
var FS embed.FS
