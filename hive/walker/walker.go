package walker

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/google/uuid"

	"github.com/joshuapare/hivetrace/hive"
	"github.com/joshuapare/hivetrace/internal/format"
	"github.com/joshuapare/hivetrace/internal/pathfilter"
	"github.com/joshuapare/hivetrace/pkg/types"
)

const initialStackCapacity = 64

// Frame states.
const (
	stateEnter = iota
	stateChildren
	stateDone
)

// frame is one key on the explicit descent stack.
type frame struct {
	key      hive.Key
	abs      uint64
	depth    int
	matched  bool // this key or an ancestor matched the filter
	children []subkeyRef
	next     int
	state    uint8
}

// Stats counts what a walk did.
type Stats struct {
	KeysVisited int // key nodes entered, including ones not emitted
	KeysDecoded int // distinct key cells decoded
	CacheHits   int // key cells reached again through another parent
	Emitted     int
	Cycles      int
	Pruned      int // siblings rejected by an lf/lh hint without decoding
	Skipped     int // cells that failed to resolve or decode
}

// Walker traverses one hive. It is not safe for concurrent use.
type Walker struct {
	h     *hive.Hive
	opts  Options
	id    uuid.UUID
	log   *slog.Logger
	diags *types.DiagnosticReport
	stats Stats
	p     *params
	stack []frame
}

// New prepares a walker over h. Nothing is read until Run.
func New(h *hive.Hive, opts Options) *Walker {
	id := uuid.New()
	log := opts.Logger
	if log == nil {
		log = slog.New(slog.DiscardHandler)
	}
	return &Walker{
		h:     h,
		opts:  opts,
		id:    id,
		log:   log.With("walk_id", id.String(), "hive", h.Name()),
		diags: types.NewDiagnosticReport(),
	}
}

// Walk runs a single walk over h.
func Walk(ctx context.Context, h *hive.Hive, opts Options) ([]types.RegistryEntry, error) {
	return New(h, opts).Run(ctx)
}

// ID identifies the walk in log records.
func (w *Walker) ID() uuid.UUID { return w.id }

// Diagnostics returns the cells skipped by the last Run.
func (w *Walker) Diagnostics() *types.DiagnosticReport { return w.diags }

// Stats returns counters for the last Run.
func (w *Walker) Stats() Stats { return w.stats }

// Run walks the hive and returns the emitted entries in pre-order.
//
// An unreadable root key fails with a KindParser error and an invalid
// pattern with KindRegex. If ctx is cancelled the entries gathered so far
// are returned with ctx.Err().
func (w *Walker) Run(ctx context.Context) ([]types.RegistryEntry, error) {
	w.diags = types.NewDiagnosticReport()
	w.stats = Stats{}

	filter, err := pathfilter.Compile(w.opts.Pattern)
	if err != nil {
		return nil, types.NewError(types.KindRegex, fmt.Sprintf("compile pattern %q", w.opts.Pattern), err)
	}

	root, err := w.h.Root()
	if err != nil {
		return nil, types.NewError(types.KindParser, "decode root key", err)
	}

	w.p = newParams(SplitPath(w.opts.StartPath, root.Name), filter, w.opts.Filter)
	defer func() { w.p = nil }()

	w.log.Debug("walk start",
		"root", root.Name,
		"start_path", strings.Join(w.p.startPath, types.PathSeparator),
		"pattern", filter.String(),
	)

	abs := w.h.Abs(root.Offset)
	w.p.offsetTracker[abs] = root
	w.stats.KeysDecoded++
	w.stack = append(make([]frame, 0, initialStackCapacity), frame{key: root, abs: abs})

	for len(w.stack) > 0 {
		top := &w.stack[len(w.stack)-1]
		switch top.state {
		case stateEnter:
			if err := ctx.Err(); err != nil {
				w.log.Info("walk cancelled", "entries", len(w.p.entries))
				w.stack = w.stack[:0]
				return w.p.entries, err
			}
			w.enter(top)
			top.state = stateChildren

		case stateChildren:
			child, ok := w.nextChild(top)
			if !ok {
				top.state = stateDone
				continue
			}
			w.stack = append(w.stack, child)

		case stateDone:
			w.leave()
		}
	}

	w.log.Debug("walk done",
		"entries", len(w.p.entries),
		"diagnostics", w.diags.Len(),
		"cycles", w.stats.Cycles,
	)
	return w.p.entries, nil
}

// enter pushes the key onto the chain, emits it when it qualifies and
// resolves its children.
func (w *Walker) enter(f *frame) {
	w.stats.KeysVisited++
	w.p.keyTracker.push(f.abs)
	if f.depth > 0 {
		w.p.registryPath = append(w.p.registryPath, f.key.Name)
	} else {
		w.p.registryPath = append(w.p.registryPath[:0], f.key.Name)
	}

	onStartPath := f.depth < len(w.p.startPath)
	if !onStartPath {
		path := w.p.path()
		if w.p.matches(path) {
			f.matched = true
		} else if w.opts.IncludeDescendants && w.parentMatched() {
			f.matched = true
		}
		if f.matched {
			w.emit(f, path)
		}
	}

	if !f.key.HasSubkeyList() {
		return
	}
	if f.depth >= w.opts.maxDepth() {
		w.diag(types.SevInfo, types.DiagStructure, f.abs, "NK", "maximum depth reached; subkeys not descended", w.opts.maxDepth(), f.depth)
		return
	}
	refs, err := w.resolveSubkeys(f.key.SubkeyListOffset)
	if err != nil {
		w.skip("subkey list", w.h.Abs(f.key.SubkeyListOffset), "LIST", err)
	}
	f.children = refs
}

// leave pops the top frame and its chain entries.
func (w *Walker) leave() {
	top := w.stack[len(w.stack)-1]
	w.p.keyTracker.pop(top.abs)
	w.p.registryPath = w.p.registryPath[:len(w.p.registryPath)-1]
	w.stack = w.stack[:len(w.stack)-1]
}

func (w *Walker) parentMatched() bool {
	if len(w.stack) < 2 {
		return false
	}
	return w.stack[len(w.stack)-2].matched
}

// nextChild returns the next child frame of f to descend into, skipping
// children that fail to decode, form a cycle or fall off the start path.
func (w *Walker) nextChild(f *frame) (frame, bool) {
	for f.next < len(f.children) {
		ref := f.children[f.next]
		f.next++

		onStartPath := f.depth < len(w.p.startPath)
		var want string
		if onStartPath {
			want = w.p.startPath[f.depth]
			if format.HintRulesOut(ref.kind, ref.hint, want) {
				w.stats.Pruned++
				continue
			}
		}

		abs := w.h.Abs(ref.offset)
		if w.p.keyTracker.has(abs) {
			w.stats.Cycles++
			w.log.Warn("cycle in key tree", "offset", abs, "parent", w.p.path())
			w.diag(types.SevWarning, types.DiagStructure, abs, "NK", "subkey refers back into its own ancestry", nil, w.p.path())
			continue
		}

		key, ok := w.decodeKey(ref.offset, abs)
		if !ok {
			continue
		}
		if onStartPath && !strings.EqualFold(key.Name, want) {
			continue
		}
		return frame{key: key, abs: abs, depth: f.depth + 1}, true
	}
	return frame{}, false
}

// decodeKey decodes the key cell at rel through the offset tracker.
func (w *Walker) decodeKey(rel uint32, abs uint64) (hive.Key, bool) {
	if k, ok := w.p.offsetTracker[abs]; ok {
		w.stats.CacheHits++
		return k, true
	}
	k, err := w.h.Key(rel)
	if err != nil {
		w.skip("key", abs, "NK", err)
		return hive.Key{}, false
	}
	w.stats.KeysDecoded++
	w.p.offsetTracker[abs] = k
	return k, true
}

func (w *Walker) emit(f *frame, path string) {
	w.stats.Emitted++
	w.p.entries = append(w.p.entries, types.RegistryEntry{
		Path:           path,
		Key:            w.p.parentPath(),
		Name:           f.key.Name,
		Class:          w.className(f),
		LastWritten:    f.key.LastWritten,
		Depth:          f.depth,
		SubkeyCount:    f.key.SubkeyCount,
		SecurityOffset: f.key.SecurityOffset,
		Values:         w.values(f.key, path),
	})
}

func (w *Walker) className(f *frame) string {
	class, err := w.h.ClassName(f.key)
	if err != nil {
		w.diag(types.SevInfo, types.DiagData, f.abs, "NK", "class name unreadable: "+err.Error(), nil, nil)
		return ""
	}
	return class
}

// skip records a cell that could not be used.
func (w *Walker) skip(what string, abs uint64, structure string, err error) {
	w.stats.Skipped++
	w.log.Warn("skipping unreadable "+what, "offset", abs, "path", w.p.path(), "error", err)
	w.diag(types.SevWarning, types.DiagStructure, abs, structure, what+": "+err.Error(), nil, nil)
}

func (w *Walker) diag(sev types.Severity, cat types.DiagCategory, abs uint64, structure, issue string, expected, actual any) {
	w.diags.Add(types.Diagnostic{
		Severity:  sev,
		Category:  cat,
		Offset:    abs,
		Structure: structure,
		Issue:     issue,
		Expected:  expected,
		Actual:    actual,
		KeyPath:   w.p.path(),
	})
}
