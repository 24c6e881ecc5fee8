package artifacts

import (
	"context"
	"fmt"
	"time"

	"github.com/joshuapare/hivetrace/hive"
	"github.com/joshuapare/hivetrace/internal/buf"
	"github.com/joshuapare/hivetrace/internal/format"
	"github.com/joshuapare/hivetrace/internal/textenc"
)

// AppCompatCache header magics.
const (
	magicXP     = 0xDEADBEEF
	magic2003   = 0xBADC0FFE
	magicWin7   = 0xBADC0FEE
	win8Header  = 0x80
	maxEntries  = 4096
	maxBlobSize = 1 << 16
)

// Cache layouts reported in Shimcache.Format.
const (
	FormatUnknown = "unknown"
	FormatXP      = "xp"
	Format2003    = "2003"
	FormatWin7    = "win7"
	FormatWin8    = "win8"
	FormatWin81   = "win8.1"
	FormatWin10   = "win10"
)

// Shimcache is the AppCompatCache value of the current control set.
type Shimcache struct {
	Path      string           `json:"path"`
	Format    string           `json:"format"`
	Signature string           `json:"signature"` // entry magic ("10ts") or header magic in hex
	Raw       []byte           `json:"-"`
	Entries   []ShimcacheEntry `json:"entries,omitempty"`
}

// ShimcacheEntry is one record of a Windows 8 or later cache.
type ShimcacheEntry struct {
	Order        int       `json:"order"`
	Path         string    `json:"path"`
	LastModified time.Time `json:"last_modified"`
	DataSize     uint32    `json:"data_size"`
}

// ShimcachePath returns the key holding AppCompatCache in controlSet.
func ShimcachePath(controlSet string) string {
	return controlSet + `\Control\Session Manager\AppCompatCache`
}

// ReadShimcache locates the AppCompatCache value of the current control
// set. Records are decoded for Windows 8 and later layouts; older layouts
// are returned raw with their signature.
func ReadShimcache(ctx context.Context, h *hive.Hive) (Shimcache, error) {
	cs, err := CurrentControlSet(ctx, h)
	if err != nil {
		return Shimcache{}, err
	}
	path := ShimcachePath(cs)
	entry, err := key(ctx, h, path)
	if err != nil {
		return Shimcache{}, err
	}
	v, ok := entry.Value("AppCompatCache")
	if !ok {
		return Shimcache{}, fmt.Errorf("%s\\AppCompatCache: %w", path, ErrNotFound)
	}
	if v.Data == nil {
		return Shimcache{}, fmt.Errorf("%s\\AppCompatCache: %w", path, hive.ErrValueData)
	}
	sc := ParseShimcache(v.Data)
	sc.Path = entry.Path
	return sc, nil
}

// ParseShimcache identifies the cache layout and decodes its records where
// the layout is known. It never fails; unrecognised data keeps Raw only.
func ParseShimcache(data []byte) Shimcache {
	sc := Shimcache{Raw: data, Format: FormatUnknown}
	if len(data) < 4 {
		return sc
	}
	magic := buf.U32LE(data)
	sc.Signature = fmt.Sprintf("0x%08x", magic)

	switch magic {
	case magicXP:
		sc.Format = FormatXP
		return sc
	case magic2003:
		sc.Format = Format2003
		return sc
	case magicWin7:
		sc.Format = FormatWin7
		return sc
	}

	// Windows 8 and later: the first dword is the header size and records
	// start right after it with a four byte tag.
	off := int(magic)
	if tag, ok := buf.Slice(data, off, 4); ok {
		switch {
		case off == win8Header && string(tag) == "00ts":
			sc.Format = FormatWin8
		case off == win8Header && string(tag) == "10ts":
			sc.Format = FormatWin81
		case (off == 0x30 || off == 0x34) && string(tag) == "10ts":
			sc.Format = FormatWin10
		default:
			return sc
		}
		sc.Signature = string(tag)
		sc.Entries = parseRecords(data, off, string(tag), sc.Format == FormatWin10)
	}
	return sc
}

// parseRecords decodes consecutive tagged records. Windows 8.x records carry
// insert and shim flag dwords before the timestamp. Decoding stops at the first
// record that does not fit.
func parseRecords(data []byte, off int, tag string, win10 bool) []ShimcacheEntry {
	var out []ShimcacheEntry
	for len(out) < maxEntries {
		head, ok := buf.Slice(data, off, 12)
		if !ok || string(head[:4]) != tag {
			break
		}
		size := int(buf.U32LE(head[8:]))
		body, ok := buf.Slice(data, off+12, size)
		if !ok || len(body) < 2 {
			break
		}

		pathLen := int(buf.U16LE(body))
		p := 2
		path, ok := buf.Slice(body, p, pathLen)
		if !ok {
			break
		}
		p += pathLen
		if !win10 {
			p += 4 + 4 // insert flags, shim flags
		}
		tsRaw, ok := buf.Slice(body, p, 8)
		if !ok {
			break
		}
		p += 8
		var blob uint32
		if b, ok := buf.Slice(body, p, 4); ok {
			blob = buf.U32LE(b)
		}
		if blob > maxBlobSize {
			break
		}

		out = append(out, ShimcacheEntry{
			Order:        len(out),
			Path:         textenc.UTF16(path),
			LastModified: lastModified(buf.U64LE(tsRaw)),
			DataSize:     blob,
		})
		off += 12 + size
	}
	return out
}

func lastModified(ft uint64) time.Time {
	if ft == 0 {
		return time.Time{}
	}
	return format.FiletimeToTime(ft)
}
