package walker

import (
	"errors"
	"fmt"

	"github.com/joshuapare/hivetrace/internal/format"
	"github.com/joshuapare/hivetrace/pkg/types"
)

// subkeyRef is one child reference taken from a leaf list. hint is the lf
// name prefix or lh hash and is only meaningful for those kinds.
type subkeyRef struct {
	offset uint32
	kind   format.ListKind
	hint   uint32
}

var errListCycle = errors.New("ri list refers back into its own chain")

// resolveSubkeys flattens the list at listRel into child references in
// on-disk order. ri lists are expanded recursively; each ri cell sits on the
// key tracker while it is expanded, so an ri that reaches itself or an
// enclosing ri is cut. Entries that fail to resolve are skipped and
// recorded. An error is returned only when listRel itself is unusable;
// refs may still hold entries recovered from a truncated list.
func (w *Walker) resolveSubkeys(listRel uint32) ([]subkeyRef, error) {
	var refs []subkeyRef
	err := w.expandList(listRel, &refs)
	return refs, err
}

func (w *Walker) expandList(rel uint32, out *[]subkeyRef) error {
	if rel == format.InvalidOffset {
		return nil
	}
	abs := w.h.Abs(rel)
	list, err := w.h.SubkeyList(rel)
	if err != nil {
		return err
	}
	if list.Truncated {
		w.diag(types.SevWarning, types.DiagStructure, abs, list.Kind.String(),
			"subkey list truncated by its cell", int(list.Count), len(list.Offsets))
	}

	if list.Kind != format.ListRI {
		for i, off := range list.Offsets {
			ref := subkeyRef{offset: off, kind: list.Kind}
			if list.Hints != nil {
				ref.hint = list.Hints[i]
			}
			*out = append(*out, ref)
		}
		return nil
	}

	if !w.p.keyTracker.push(abs) {
		return fmt.Errorf("ri %#x: %w", rel, errListCycle)
	}
	defer w.p.keyTracker.pop(abs)

	for i, child := range list.Offsets {
		childAbs := w.h.Abs(child)
		if w.p.keyTracker.has(childAbs) {
			w.stats.Cycles++
			w.log.Warn("ri cycle", "list", abs, "entry", i, "offset", childAbs)
			w.diag(types.SevWarning, types.DiagStructure, childAbs, "ri",
				errListCycle.Error(), nil, fmt.Sprintf("entry %d of ri %#x", i, abs))
			continue
		}
		if err := w.expandList(child, out); err != nil {
			if errors.Is(err, errListCycle) {
				continue
			}
			w.skip(fmt.Sprintf("ri entry %d", i), childAbs, "ri", err)
		}
	}
	return nil
}
