package printer

import (
	"encoding/hex"
	"encoding/json"
	"time"

	"github.com/google/uuid"

	"github.com/joshuapare/hivetrace/pkg/types"
)

// Document is the JSON output of a walk.
type Document struct {
	ID      string      `json:"id"`
	Count   int         `json:"count"`
	Entries []jsonEntry `json:"entries"`
}

type jsonEntry struct {
	Path      string      `json:"path"`
	Name      string      `json:"name"`
	Class     string      `json:"class,omitempty"`
	LastWrite string      `json:"last_write,omitempty"`
	Depth     *int        `json:"depth,omitempty"`
	Subkeys   *uint32     `json:"subkeys,omitempty"`
	Security  *uint32     `json:"security,omitempty"`
	Values    []jsonValue `json:"values,omitempty"`
}

type jsonValue struct {
	Name      string `json:"name"`
	Type      string `json:"type,omitempty"`
	Data      any    `json:"data"`
	Size      int    `json:"size"`
	Truncated bool   `json:"truncated,omitempty"`
}

func (p *Printer) printJSON(entries []types.RegistryEntry) error {
	id := p.opts.DocumentID
	if id == uuid.Nil {
		id = uuid.New()
	}
	doc := Document{
		ID:      id.String(),
		Count:   len(entries),
		Entries: make([]jsonEntry, 0, len(entries)),
	}
	for _, e := range entries {
		doc.Entries = append(doc.Entries, p.jsonEntry(e))
	}

	data, err := json.MarshalIndent(doc, "", "  ")
	if err != nil {
		return types.NewError(types.KindSerialize, "encode entries", err)
	}
	ew := &errWriter{w: p.writer}
	ew.write(data)
	ew.write([]byte{'\n'})
	return ew.result()
}

func (p *Printer) jsonEntry(e types.RegistryEntry) jsonEntry {
	out := jsonEntry{Path: e.Path, Name: e.Name, Class: e.Class}
	if p.opts.ShowTimestamps {
		out.LastWrite = e.LastWritten.UTC().Format(time.RFC3339)
	}
	if p.opts.PrintMetadata {
		depth, subkeys, sec := e.Depth, e.SubkeyCount, e.SecurityOffset
		out.Depth = &depth
		out.Subkeys = &subkeys
		out.Security = &sec
	}
	if p.opts.ShowValues {
		for _, v := range e.Values {
			out.Values = append(out.Values, p.jsonValue(v))
		}
	}
	return out
}

func (p *Printer) jsonValue(v types.Value) jsonValue {
	out := jsonValue{Name: valueName(v), Size: len(v.Data)}
	if p.opts.ShowValueTypes {
		out.Type = v.Type.String()
	}
	if v.Data == nil {
		return out
	}

	switch {
	case v.Type.IsString():
		out.Data = v.String()
		return out
	case v.Type == types.REG_MULTI_SZ:
		strs := v.Strings()
		if strs == nil {
			strs = []string{}
		}
		out.Data = strs
		return out
	}
	if n, ok := v.Uint64(); ok {
		out.Data = n
		return out
	}

	data := v.Data
	if limit := p.opts.MaxValueBytes; limit > 0 && len(data) > limit {
		data = data[:limit]
		out.Truncated = true
	}
	out.Data = hex.EncodeToString(data)
	return out
}
