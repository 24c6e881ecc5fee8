// Package testhive builds synthetic REGF hives for tests. The output is a
// valid hive as far as this module's reader is concerned: base block with
// checksum, 4 KiB aligned bins, allocated cells and every list encoding.
// Builders record where each cell landed so tests can corrupt bytes.
package testhive

import (
	"encoding/binary"
	"strings"
	"time"

	"golang.org/x/text/encoding/charmap"

	"github.com/joshuapare/hivetrace/internal/format"
	"github.com/joshuapare/hivetrace/internal/textenc"
	"github.com/joshuapare/hivetrace/pkg/types"
)

// DefaultTime is the last-write time given to keys that do not set one.
var DefaultTime = time.Date(2023, 3, 14, 15, 9, 26, 0, time.UTC)

// Builder accumulates a key tree. The zero value is not usable; call New.
type Builder struct {
	root     *Key
	listKind format.ListKind
	riChunk  int
}

// Key is a node in the tree under construction.
type Key struct {
	b         *Builder
	name      string
	utf16     bool
	written   time.Time
	class     string
	listKind  format.ListKind
	children  []*Key
	values    []value
	parent    *Key
	nkRel     uint32
	listRel   uint32
	riLeaves  []uint32
	valueList uint32
}

type value struct {
	name  string
	typ   types.RegType
	data  []byte
	vkRel uint32
}

// New starts a hive whose root key is named rootName.
func New(rootName string) *Builder {
	b := &Builder{listKind: format.ListLH, riChunk: 2}
	b.root = &Key{b: b, name: rootName, written: DefaultTime}
	return b
}

// Root returns the root key.
func (b *Builder) Root() *Key { return b.root }

// ListKind sets the default subkey list encoding for keys that do not set
// their own. ListRI splits children into lh leaves of RIChunk entries.
func (b *Builder) ListKind(kind format.ListKind) *Builder {
	b.listKind = kind
	return b
}

// RIChunk sets how many children go in each ri leaf list.
func (b *Builder) RIChunk(n int) *Builder {
	if n > 0 {
		b.riChunk = n
	}
	return b
}

// AddKey appends a child key and returns it.
func (k *Key) AddKey(name string) *Key {
	child := &Key{b: k.b, name: name, written: DefaultTime, parent: k}
	k.children = append(k.children, child)
	return child
}

// Key returns the named child, creating it when missing.
func (k *Key) Key(name string) *Key {
	for _, c := range k.children {
		if strings.EqualFold(c.name, name) {
			return c
		}
	}
	return k.AddKey(name)
}

// Path creates every component of a backslash separated path under k.
func (k *Key) Path(path string) *Key {
	cur := k
	for _, part := range strings.Split(path, `\`) {
		if part != "" {
			cur = cur.Key(part)
		}
	}
	return cur
}

// AddValue appends a value to the key.
func (k *Key) AddValue(name string, typ types.RegType, data []byte) *Key {
	k.values = append(k.values, value{name: name, typ: typ, data: data})
	return k
}

// UTF16Name forces the key name to be stored as UTF-16LE.
func (k *Key) UTF16Name() *Key {
	k.utf16 = true
	return k
}

// LastWritten sets the key timestamp.
func (k *Key) LastWritten(t time.Time) *Key {
	k.written = t
	return k
}

// Class sets the key class name.
func (k *Key) Class(s string) *Key {
	k.class = s
	return k
}

// ListKind sets the subkey list encoding for this key only.
func (k *Key) ListKind(kind format.ListKind) *Key {
	k.listKind = kind
	return k
}

// PathName returns the key's full path from the root.
func (k *Key) PathName() string {
	if k.parent == nil {
		return k.name
	}
	return k.parent.PathName() + `\` + k.name
}

// SZ encodes s as a NUL terminated UTF-16LE string.
func SZ(s string) []byte {
	return append(textenc.EncodeUTF16(s), 0, 0)
}

// MultiSZ encodes a REG_MULTI_SZ payload.
func MultiSZ(items ...string) []byte {
	var out []byte
	for _, s := range items {
		out = append(out, SZ(s)...)
	}
	return append(out, 0, 0)
}

// DWORD encodes a little-endian uint32.
func DWORD(v uint32) []byte {
	return binary.LittleEndian.AppendUint32(nil, v)
}

// QWORD encodes a little-endian uint64.
func QWORD(v uint64) []byte {
	return binary.LittleEndian.AppendUint64(nil, v)
}

func encodeName(name string, forceUTF16 bool) ([]byte, bool) {
	if !forceUTF16 {
		if raw, err := charmap.Windows1252.NewEncoder().Bytes([]byte(name)); err == nil {
			return raw, true
		}
	}
	return textenc.EncodeUTF16(name), false
}
