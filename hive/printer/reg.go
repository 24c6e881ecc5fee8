package printer

import (
	"fmt"
	"strings"

	"github.com/joshuapare/hivetrace/pkg/types"
)

const regHeader = "Windows Registry Editor Version 5.00\n"

func (p *Printer) printReg(entries []types.RegistryEntry) error {
	ew := &errWriter{w: p.writer}
	ew.printf("%s", regHeader)
	for _, e := range entries {
		ew.printf("\n[%s]\n", p.regPath(e.Path))
		if !p.opts.ShowValues {
			continue
		}
		for _, v := range e.Values {
			ew.printf("%s\n", regValueLine(v))
		}
	}
	return ew.result()
}

// regPath swaps the root key name, the first path component, for RegRoot.
func (p *Printer) regPath(path string) string {
	root := p.opts.RegRoot
	if root == "" {
		root = DefaultRegRoot
	}
	_, rest, found := strings.Cut(path, types.PathSeparator)
	if !found || rest == "" {
		return root
	}
	return root + types.PathSeparator + rest
}

// regValueLine encodes one value the way regedit exports it. Values whose
// data could not be read become comments.
func regValueLine(v types.Value) string {
	name := "@"
	if v.Name != "" {
		name = `"` + escapeRegString(v.Name) + `"`
	}
	if v.Data == nil {
		return fmt.Sprintf("; %s unreadable (%s)", name, v.Type)
	}

	switch v.Type {
	case types.REG_SZ:
		return fmt.Sprintf(`%s="%s"`, name, escapeRegString(v.String()))
	case types.REG_DWORD:
		if n, ok := v.Uint64(); ok && len(v.Data) == 4 {
			return fmt.Sprintf("%s=dword:%08x", name, n)
		}
		return fmt.Sprintf("%s=hex(4):%s", name, formatHexBytes(v.Data))
	case types.REG_BINARY:
		return fmt.Sprintf("%s=hex:%s", name, formatHexBytes(v.Data))
	default:
		return fmt.Sprintf("%s=hex(%x):%s", name, uint32(v.Type), formatHexBytes(v.Data))
	}
}

// escapeRegString escapes backslashes and quotes.
func escapeRegString(s string) string {
	s = strings.ReplaceAll(s, `\`, `\\`)
	return strings.ReplaceAll(s, `"`, `\"`)
}

// formatHexBytes formats bytes as comma-separated hex pairs.
func formatHexBytes(data []byte) string {
	if len(data) == 0 {
		return ""
	}
	var sb strings.Builder
	sb.Grow(len(data) * 3)
	for i, b := range data {
		if i > 0 {
			sb.WriteByte(',')
		}
		fmt.Fprintf(&sb, "%02x", b)
	}
	return sb.String()
}
