package main

import (
	"context"
	"encoding/hex"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/joshuapare/hivetrace/pkg/artifacts"
)

var shimcacheRaw bool

func init() {
	cmd := newShimcacheCmd()
	cmd.Flags().BoolVar(&shimcacheRaw, "raw", false, "Hex dump the raw AppCompatCache value")
	rootCmd.AddCommand(cmd)
}

func newShimcacheCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "shimcache <hive>",
		Short: "Read the AppCompatCache value of a SYSTEM hive",
		Long: `The shimcache command locates AppCompatCache in the current control set,
identifies the cache layout and lists its records for Windows 8 and later.
Older layouts are reported with their signature only; use --raw to dump them.

Example:
  hivectl shimcache SYSTEM
  hivectl shimcache SYSTEM --raw`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runShimcache(cmd.Context(), args)
		},
	}
	return cmd
}

func runShimcache(ctx context.Context, args []string) error {
	h, err := openHive(args[0])
	if err != nil {
		return err
	}
	defer h.Close()

	sc, err := artifacts.ReadShimcache(ctx, h)
	if err != nil {
		return fmt.Errorf("failed to read shimcache: %w", err)
	}

	if jsonOut {
		return printJSON(sc)
	}

	printInfo("Key: %s\n", sc.Path)
	printInfo("Format: %s (signature %s)\n", sc.Format, sc.Signature)
	printInfo("Size: %d bytes, %d entries\n\n", len(sc.Raw), len(sc.Entries))

	if shimcacheRaw {
		_, err := fmt.Fprint(stdout, hex.Dump(sc.Raw))
		return err
	}
	for _, e := range sc.Entries {
		modified := "-"
		if !e.LastModified.IsZero() {
			modified = e.LastModified.UTC().Format(time.RFC3339)
		}
		if _, err := fmt.Fprintf(stdout, "%4d  %-20s  %s\n", e.Order, modified, e.Path); err != nil {
			return err
		}
	}
	return nil
}
