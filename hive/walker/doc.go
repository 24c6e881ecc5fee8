// Package walker traverses the key tree of a hive and returns the resolved
// keys as a flat, ordered list of entries.
//
// # Overview
//
// A walk starts at the root key named by the base block and descends depth
// first. Each key is decoded, optionally tested against a path filter, and
// emitted together with its values. Output is pre-order with siblings in
// on-disk order, so two walks of the same buffer produce identical results.
//
//	h, _ := hive.Open("SYSTEM")
//	entries, err := walker.Walk(ctx, h, walker.Options{
//	    StartPath: `HKLM\SYSTEM\ControlSet001\Services`,
//	})
//
// # Evidence Handling
//
// Hives handed to forensic tools are often damaged. The walker treats one
// bad cell as the loss of one subtree, never as a failed walk:
//   - A subkey list entry that does not resolve is skipped; its siblings are
//     still visited.
//   - A value whose header decodes but whose data does not is emitted with
//     nil Data.
//   - A subkey list (or ri chain) that points back into the current descent
//     chain is a cycle. The branch is cut and the ancestor appears once.
//
// Every skipped cell is logged at warn level and recorded in the walk's
// diagnostics report. Only an unreadable root key or an invalid filter
// pattern fails the walk.
//
// # Start Path
//
// Options.StartPath restricts the walk to one subtree. Components are
// matched case-insensitively. Hive aliases (HKLM\SYSTEM, HKCU, ...) and the
// root key name are stripped first. Keys along the path are descended but
// not emitted; lf and lh hints let the walker skip siblings without
// decoding them.
//
// # Shared Cells
//
// A key cell reachable from two different parents is decoded once and
// emitted under each parent with its own path. Only a revisit within the
// active chain counts as a cycle.
//
// # Thread Safety
//
// A Walker is not safe for concurrent use. WalkAll runs one walker per hive
// in its own goroutine.
package walker
