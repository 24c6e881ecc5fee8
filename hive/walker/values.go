package walker

import (
	"errors"

	"github.com/joshuapare/hivetrace/hive"
	"github.com/joshuapare/hivetrace/pkg/types"
)

// values decodes the values of k. A value list that cannot be read yields
// no values; a value whose header decodes but whose data does not is kept
// with nil Data. Neither stops the key from being emitted.
func (w *Walker) values(k hive.Key, path string) []types.Value {
	offs, err := w.h.ValueOffsets(k)
	if err != nil {
		w.skip("value list", w.h.Abs(k.ValueListOffset), "VALUELIST", err)
	}
	if len(offs) == 0 {
		return nil
	}

	out := make([]types.Value, 0, len(offs))
	for _, rel := range offs {
		abs := w.h.Abs(rel)
		v, err := w.h.Value(rel)
		switch {
		case err == nil:
		case errors.Is(err, hive.ErrValueData):
			w.log.Warn("value data unreadable", "offset", abs, "path", path, "value", v.Name, "error", err)
			w.diag(types.SevWarning, types.DiagData, abs, "VK", err.Error(), nil, nil)
		default:
			w.skip("value", abs, "VK", err)
			continue
		}
		if !v.Type.Known() {
			w.log.Debug("unknown value type", "offset", abs, "path", path, "value", v.Name, "type", uint32(v.Type))
			w.diag(types.SevInfo, types.DiagData, abs, "VK", "unknown value type", nil, v.Type.String())
		}
		out = append(out, v)
	}
	return out
}
