package artifacts

import (
	"context"
	"fmt"
	"time"

	"github.com/joshuapare/hivetrace/hive"
	"github.com/joshuapare/hivetrace/hive/walker"
	"github.com/joshuapare/hivetrace/pkg/types"
)

// Service start types.
const (
	StartBoot     = 0
	StartSystem   = 1
	StartAuto     = 2
	StartDemand   = 3
	StartDisabled = 4
)

var startNames = map[uint32]string{
	StartBoot:     "boot",
	StartSystem:   "system",
	StartAuto:     "auto",
	StartDemand:   "demand",
	StartDisabled: "disabled",
}

// Service is one key under <ControlSet>\Services.
type Service struct {
	Name        string    `json:"name"`
	DisplayName string    `json:"display_name,omitempty"`
	ImagePath   string    `json:"image_path,omitempty"`
	ServiceDll  string    `json:"service_dll,omitempty"` // from the Parameters subkey
	Start       *uint32   `json:"start,omitempty"`
	Type        *uint32   `json:"type,omitempty"`
	LastWritten time.Time `json:"last_written"`
	Path        string    `json:"path"`
}

// StartName returns the start type as text, or "" when unset.
func (s Service) StartName() string {
	if s.Start == nil {
		return ""
	}
	if n, ok := startNames[*s.Start]; ok {
		return n
	}
	return fmt.Sprintf("%d", *s.Start)
}

// Services enumerates the services of the current control set in on-disk
// order.
func Services(ctx context.Context, h *hive.Hive) ([]Service, error) {
	cs, err := CurrentControlSet(ctx, h)
	if err != nil {
		return nil, err
	}
	return ServicesIn(ctx, h, cs)
}

// ServicesIn enumerates the services of the named control set.
func ServicesIn(ctx context.Context, h *hive.Hive, controlSet string) ([]Service, error) {
	path := controlSet + `\Services`
	entries, err := walker.Walk(ctx, h, walker.Options{
		StartPath: path,
		MaxDepth:  len(walker.SplitPath(path, "")) + 2,
	})
	if err != nil {
		return nil, err
	}
	if len(entries) == 0 {
		return nil, fmt.Errorf("%s: %w", path, ErrNotFound)
	}

	// Pre-order puts each service right before its own subkeys.
	root := entries[0]
	var out []Service
	for _, e := range entries[1:] {
		switch {
		case e.Key == root.Path:
			out = append(out, newService(e))
		case len(out) > 0 && e.Key == out[len(out)-1].Path && e.Name == "Parameters":
			if v, ok := e.Value("ServiceDll"); ok {
				out[len(out)-1].ServiceDll = v.String()
			}
		}
	}
	return out, nil
}

func newService(e types.RegistryEntry) Service {
	s := Service{Name: e.Name, LastWritten: e.LastWritten, Path: e.Path}
	if v, ok := e.Value("DisplayName"); ok {
		s.DisplayName = v.String()
	}
	if v, ok := e.Value("ImagePath"); ok {
		s.ImagePath = v.String()
	}
	s.Start = dword(e, "Start")
	s.Type = dword(e, "Type")
	return s
}

func dword(e types.RegistryEntry, name string) *uint32 {
	v, ok := e.Value(name)
	if !ok {
		return nil
	}
	n, ok := v.Uint64()
	if !ok {
		return nil
	}
	u := uint32(n)
	return &u
}
