package types

import (
	"encoding/hex"
	"strconv"
	"strings"
	"time"

	"github.com/joshuapare/hivetrace/internal/buf"
	"github.com/joshuapare/hivetrace/internal/textenc"
)

// PathSeparator joins key names in RegistryEntry paths.
const PathSeparator = `\`

// RegistryEntry is one resolved key produced by a traversal. Entries are
// independent copies; they never alias the hive buffer.
type RegistryEntry struct {
	Path           string    `json:"path"`          // full path from the root key, e.g. ROOT\A\B
	Key            string    `json:"key"`           // path of the parent key ("" for the root)
	Name           string    `json:"name"`          // this key's own name
	Class          string    `json:"class,omitempty"`
	LastWritten    time.Time `json:"last_written"`  // NK last write time, UTC
	Depth          int       `json:"depth"`         // 0 for the root key
	SubkeyCount    uint32    `json:"subkey_count"`  // as declared by the NK
	SecurityOffset uint32    `json:"security"`      // relative SK cell offset
	Values         []Value   `json:"values"`
}

// Value is a decoded VK attached to an entry. Data is nil when the value
// header decoded but its data could not be recovered.
type Value struct {
	Name string  `json:"name"` // "" is the default value
	Type RegType `json:"type"`
	Data []byte  `json:"data"`
}

// Value returns the named value, matched case-insensitively.
func (e RegistryEntry) Value(name string) (Value, bool) {
	for _, v := range e.Values {
		if strings.EqualFold(v.Name, name) {
			return v, true
		}
	}
	return Value{}, false
}

// String decodes REG_SZ, REG_EXPAND_SZ and REG_LINK data. Other types
// return "".
func (v Value) String() string {
	if !v.Type.IsString() {
		return ""
	}
	return textenc.UTF16String(v.Data)
}

// Strings decodes REG_MULTI_SZ data. For single-string types it returns a
// one-element slice.
func (v Value) Strings() []string {
	switch {
	case v.Type == REG_MULTI_SZ:
		return textenc.MultiString(v.Data)
	case v.Type.IsString():
		return []string{v.String()}
	default:
		return nil
	}
}

// Uint64 decodes REG_DWORD, REG_DWORD_BIG_ENDIAN and REG_QWORD data. ok is
// false for other types or short data.
func (v Value) Uint64() (uint64, bool) {
	switch v.Type {
	case REG_DWORD:
		if len(v.Data) < 4 {
			return 0, false
		}
		return uint64(buf.U32LE(v.Data)), true
	case REG_DWORD_BIG_ENDIAN:
		if len(v.Data) < 4 {
			return 0, false
		}
		return uint64(buf.U32BE(v.Data)), true
	case REG_QWORD:
		if len(v.Data) < 8 {
			return 0, false
		}
		return buf.U64LE(v.Data), true
	default:
		return 0, false
	}
}

// Format renders the data as text according to its type. Binary and
// unknown types are hex encoded and cut at maxBytes (0 means no limit).
func (v Value) Format(maxBytes int) string {
	if v.Data == nil {
		return "<unreadable>"
	}
	switch {
	case v.Type.IsString():
		return v.String()
	case v.Type == REG_MULTI_SZ:
		return strings.Join(v.Strings(), ", ")
	}
	if n, ok := v.Uint64(); ok {
		return strconv.FormatUint(n, 10)
	}
	data := v.Data
	suffix := ""
	if maxBytes > 0 && len(data) > maxBytes {
		data = data[:maxBytes]
		suffix = "..."
	}
	return hex.EncodeToString(data) + suffix
}
