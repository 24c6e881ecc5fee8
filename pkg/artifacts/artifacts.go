// Package artifacts extracts forensic artifacts from SYSTEM hives on top of
// the walker: the current control set, the service list and the raw
// AppCompatCache (Shimcache) value.
package artifacts

import (
	"context"
	"errors"
	"fmt"

	"github.com/joshuapare/hivetrace/hive"
	"github.com/joshuapare/hivetrace/hive/walker"
	"github.com/joshuapare/hivetrace/pkg/types"
)

var (
	// ErrNotFound is returned when the key or value an artifact lives in is
	// missing from the hive.
	ErrNotFound = errors.New("artifacts: not found")
)

// ControlSetName formats a control set number the way SYSTEM names them.
func ControlSetName(n uint32) string {
	return fmt.Sprintf("ControlSet%03d", n)
}

// CurrentControlSet reads Select\Current and returns the name of the
// control set it points at, e.g. "ControlSet001".
func CurrentControlSet(ctx context.Context, h *hive.Hive) (string, error) {
	entry, err := key(ctx, h, "Select")
	if err != nil {
		return "", err
	}
	v, ok := entry.Value("Current")
	if !ok {
		return "", fmt.Errorf(`Select\Current: %w`, ErrNotFound)
	}
	n, ok := v.Uint64()
	if !ok {
		return "", fmt.Errorf(`Select\Current: %s value of %d bytes: %w`, v.Type, len(v.Data), hive.ErrValueData)
	}
	return ControlSetName(uint32(n)), nil
}

// key returns the entry for a single key, without its descendants.
func key(ctx context.Context, h *hive.Hive, path string) (types.RegistryEntry, error) {
	entries, err := walker.Walk(ctx, h, walker.Options{
		StartPath: path,
		MaxDepth:  len(walker.SplitPath(path, "")),
	})
	if err != nil {
		return types.RegistryEntry{}, err
	}
	if len(entries) == 0 {
		return types.RegistryEntry{}, fmt.Errorf("%s: %w", path, ErrNotFound)
	}
	return entries[0], nil
}
