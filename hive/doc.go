// Package hive provides read-only access to Windows Registry hive files.
//
// A hive file is a 4 KiB base block followed by hive bins:
//
//	[REGF base block - 4KB] [HBIN 0] [HBIN 1] ... [HBIN N]
//
// Each bin holds cells (keys, values, subkey lists, data). Cells refer to
// each other by offsets relative to the end of the base block. This package
// indexes the bins, resolves relative offsets to cell payloads and decodes
// keys and values on demand. It never builds a pointer tree and never
// modifies the buffer.
//
// # Opening a Hive
//
//	h, err := hive.Open("/evidence/SYSTEM")      // mmap
//	h, err := hive.Load(afero.NewOsFs(), path)   // read into memory
//	h, err := hive.New(raw)                      // caller-owned bytes
//
// Tree traversal lives in the walker subpackage.
package hive
