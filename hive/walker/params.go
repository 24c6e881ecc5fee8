package walker

import (
	"strings"

	"github.com/joshuapare/hivetrace/hive"
	"github.com/joshuapare/hivetrace/internal/pathfilter"
	"github.com/joshuapare/hivetrace/pkg/types"
)

// keyTracker holds the absolute offsets of the cells in the current descent
// chain: key nodes and the ri lists being expanded. It is used for cycle
// detection only and shrinks as the walk backtracks.
type keyTracker map[uint64]struct{}

func (t keyTracker) push(abs uint64) bool {
	if _, ok := t[abs]; ok {
		return false
	}
	t[abs] = struct{}{}
	return true
}

func (t keyTracker) pop(abs uint64) { delete(t, abs) }

func (t keyTracker) has(abs uint64) bool {
	_, ok := t[abs]
	return ok
}

// offsetTracker memoizes decoded key nodes by absolute offset for the whole
// walk.
type offsetTracker map[uint64]hive.Key

// params is the state of one top-level traversal. A fresh value is built by
// every Run and dropped when it returns.
type params struct {
	startPath     []string
	filter        *pathfilter.Filter
	filterOn      bool
	keyTracker    keyTracker
	offsetTracker offsetTracker
	registryPath  []string
	entries       []types.RegistryEntry
}

func newParams(startPath []string, filter *pathfilter.Filter, filterOn bool) *params {
	return &params{
		startPath:     startPath,
		filter:        filter,
		filterOn:      filterOn && !filter.Empty(),
		keyTracker:    keyTracker{},
		offsetTracker: offsetTracker{},
	}
}

func (p *params) path() string {
	return strings.Join(p.registryPath, types.PathSeparator)
}

func (p *params) parentPath() string {
	if len(p.registryPath) < 2 {
		return ""
	}
	return strings.Join(p.registryPath[:len(p.registryPath)-1], types.PathSeparator)
}

func (p *params) matches(path string) bool {
	return !p.filterOn || p.filter.Matches(path)
}
