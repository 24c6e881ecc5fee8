package main

import (
	"context"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/joshuapare/hivetrace/hive/walker"
	"github.com/joshuapare/hivetrace/internal/textenc"
	"github.com/joshuapare/hivetrace/pkg/types"
)

func init() {
	rootCmd.AddCommand(newInfoCmd())
}

func newInfoCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "info <hive>",
		Short: "Report base block fields, bins, cell counts and diagnostics",
		Long: `The info command prints the hive header, the bin layout found by scanning,
per-type cell counts and every diagnostic raised while opening and walking
the hive.

Example:
  hivectl info SYSTEM
  hivectl info SYSTEM --json`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runInfo(cmd.Context(), args)
		},
	}
	return cmd
}

type hiveInfo struct {
	File         string                  `json:"file"`
	Size         int                     `json:"size"`
	Version      string                  `json:"version"`
	EmbeddedName string                  `json:"embedded_name"`
	LastWritten  time.Time               `json:"last_written"`
	Sequence     [2]uint32               `json:"sequence"`
	Dirty        bool                    `json:"dirty"`
	RootOffset   uint32                  `json:"root_offset"`
	DataSize     uint32                  `json:"data_size"`
	Bins         int                     `json:"bins"`
	Keys         int                     `json:"keys"`
	Cells        walker.CellStats        `json:"cells"`
	Diagnostics  *types.DiagnosticReport `json:"diagnostics"`
}

func runInfo(ctx context.Context, args []string) error {
	hivePath := args[0]

	h, err := openHive(hivePath)
	if err != nil {
		return err
	}
	defer h.Close()

	hdr := h.Header()
	info := hiveInfo{
		File:         hivePath,
		Size:         h.Size(),
		Version:      h.Version(),
		EmbeddedName: textenc.UTF16String(hdr.FileNameRaw),
		LastWritten:  h.LastWritten(),
		Sequence:     [2]uint32{hdr.PrimarySequence, hdr.SecondarySequence},
		Dirty:        hdr.Dirty(),
		RootOffset:   hdr.RootCellOffset,
		DataSize:     hdr.HiveBinsDataSize,
		Bins:         len(h.Bins()),
		Cells:        walker.CountCells(h),
		Diagnostics:  types.NewDiagnosticReport(),
	}
	info.Diagnostics.Merge(h.Diagnostics())

	w := walker.New(h, walkOptions(""))
	entries, err := w.Run(ctx)
	if err != nil {
		return fmt.Errorf("walk failed: %w", err)
	}
	info.Keys = len(entries)
	info.Diagnostics.Merge(w.Diagnostics())

	if jsonOut {
		return printJSON(info)
	}

	printInfo("\nHive Information:\n")
	printInfo("  File: %s\n", info.File)
	printInfo("  Size: %s\n", formatSize(info.Size))
	printInfo("  Version: %s\n", info.Version)
	if info.EmbeddedName != "" {
		printInfo("  Embedded name: %s\n", info.EmbeddedName)
	}
	printInfo("  Last written: %s\n", info.LastWritten.UTC().Format(time.RFC3339))
	printInfo("  Sequence: %d/%d", info.Sequence[0], info.Sequence[1])
	if info.Dirty {
		printInfo(" (dirty)")
	}
	printInfo("\n")
	printInfo("  Root cell: 0x%X\n", info.RootOffset)
	printInfo("  Bins: %d (0x%X bytes declared)\n", info.Bins, info.DataSize)
	printInfo("  Reachable keys: %d\n", info.Keys)

	printInfo("\nCells:\n  %s\n", info.Cells)

	printInfo("\nDiagnostics:\n")
	if quiet {
		return nil
	}
	return info.Diagnostics.WriteText(stdout)
}

func formatSize(size int) string {
	switch {
	case size < 1024:
		return fmt.Sprintf("%d bytes", size)
	case size < 1024*1024:
		return fmt.Sprintf("%.1f KB", float64(size)/1024)
	default:
		return fmt.Sprintf("%.1f MB", float64(size)/(1024*1024))
	}
}
