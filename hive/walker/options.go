package walker

import (
	"log/slog"
	"strings"

	"github.com/joshuapare/hivetrace/pkg/types"
)

// DefaultMaxDepth bounds descent when Options.MaxDepth is zero.
const DefaultMaxDepth = types.WindowsMaxTreeDepthPractical

// Options configures a walk.
type Options struct {
	// StartPath limits the walk to the subtree rooted at this key. Empty
	// walks the whole hive.
	StartPath string

	// Pattern is a regular expression matched case-insensitively against
	// each key's full path. It is compiled even when Filter is false so a
	// bad pattern always fails the walk.
	Pattern string

	// Filter enables Pattern. When false every visited key is emitted.
	Filter bool

	// IncludeDescendants emits every key below a matching key, whether or
	// not the descendant's own path matches.
	IncludeDescendants bool

	// MaxDepth is the deepest key (root = 0) that is descended into.
	MaxDepth int

	// Logger receives warnings about skipped cells. Nil discards.
	Logger *slog.Logger
}

func (o Options) maxDepth() int {
	if o.MaxDepth <= 0 {
		return DefaultMaxDepth
	}
	return o.MaxDepth
}

// hiveAliases maps the leading component(s) of a user supplied path to the
// number of components that name the hive rather than a key in it.
var hiveAliases = map[string]int{
	"HKLM":                2,
	"HKEY_LOCAL_MACHINE":  2,
	"HKU":                 2,
	"HKEY_USERS":          2,
	"HKCU":                1,
	"HKEY_CURRENT_USER":   1,
	"HKCR":                1,
	"HKEY_CLASSES_ROOT":   1,
	"HKCC":                1,
	"HKEY_CURRENT_CONFIG": 1,
}

// SplitPath turns a user supplied key path into key name components,
// dropping hive aliases and the root key name. Both \ and / separate
// components.
func SplitPath(path, rootName string) []string {
	path = strings.ReplaceAll(path, "/", types.PathSeparator)
	var parts []string
	for _, p := range strings.Split(path, types.PathSeparator) {
		if p != "" {
			parts = append(parts, p)
		}
	}
	if len(parts) == 0 {
		return nil
	}
	if n, ok := hiveAliases[strings.ToUpper(parts[0])]; ok {
		parts = parts[min(n, len(parts)):]
	}
	if len(parts) > 0 && rootName != "" && strings.EqualFold(parts[0], rootName) {
		parts = parts[1:]
	}
	if len(parts) == 0 {
		return nil
	}
	return parts
}
