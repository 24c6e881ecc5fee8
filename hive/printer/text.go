package printer

import (
	"strings"

	"github.com/joshuapare/hivetrace/pkg/types"
)

const textTimeLayout = "2006-01-02 15:04:05"

func (p *Printer) printText(entries []types.RegistryEntry) error {
	ew := &errWriter{w: p.writer}
	for i, e := range entries {
		if i > 0 {
			ew.printf("\n")
		}
		p.printEntryText(ew, e)
	}
	return ew.result()
}

func (p *Printer) printEntryText(ew *errWriter, e types.RegistryEntry) {
	indent := strings.Repeat(" ", e.Depth*p.opts.IndentSize)

	ew.printf("%s[%s]\n", indent, e.Name)
	if p.opts.ShowTimestamps {
		ew.printf("%s  Last Write: %s\n", indent, e.LastWritten.UTC().Format(textTimeLayout))
	}
	if p.opts.PrintMetadata {
		ew.printf("%s  Path: %s\n", indent, e.Path)
		if e.Class != "" {
			ew.printf("%s  Class: %s\n", indent, e.Class)
		}
		ew.printf("%s  Subkeys: %d, Values: %d, Security: 0x%X\n",
			indent, e.SubkeyCount, len(e.Values), e.SecurityOffset)
	}
	if !p.opts.ShowValues {
		return
	}
	for _, v := range e.Values {
		p.printValueText(ew, v, indent+"  ")
	}
}

func (p *Printer) printValueText(ew *errWriter, v types.Value, indent string) {
	ew.printf("%s\"%s\"", indent, valueName(v))
	if p.opts.ShowValueTypes {
		ew.printf(" [%s]", v.Type)
	}
	ew.printf(" = ")

	if v.Data == nil {
		ew.printf("<unreadable>\n")
		return
	}

	switch {
	case v.Type.IsString():
		ew.printf("\"%s\"\n", v.String())
		return
	case v.Type == types.REG_MULTI_SZ:
		strs := v.Strings()
		if len(strs) == 0 {
			ew.printf("[]\n")
			return
		}
		ew.printf("[\n")
		for _, s := range strs {
			ew.printf("%s  \"%s\"\n", indent, s)
		}
		ew.printf("%s]\n", indent)
		return
	}

	if n, ok := v.Uint64(); ok {
		if v.Type == types.REG_QWORD {
			ew.printf("0x%016X (%d)\n", n, n)
		} else {
			ew.printf("0x%08X (%d)\n", n, n)
		}
		return
	}

	if len(v.Data) == 0 {
		ew.printf("<empty>\n")
		return
	}
	ew.printf("%s", v.Format(p.opts.MaxValueBytes))
	if p.opts.MaxValueBytes > 0 && len(v.Data) > p.opts.MaxValueBytes {
		ew.printf(" (%d total bytes)", len(v.Data))
	}
	ew.printf("\n")
}
