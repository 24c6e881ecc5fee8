package main

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/joshuapare/hivetrace/hive/walker"
)

func init() {
	rootCmd.AddCommand(newWalkCmd())
}

func newWalkCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "walk <hive> [path]",
		Short: "Dump every key of a hive or of one subtree",
		Long: `The walk command visits keys in pre-order and prints each with its values.
When a path is given only that key and its descendants are printed. Hive
prefixes such as HKLM\SYSTEM and the root key name are accepted and ignored.

Example:
  hivectl walk SYSTEM
  hivectl walk SYSTEM "ControlSet001\Services" --max-depth 4
  hivectl walk SYSTEM "HKLM\SYSTEM\Select" --format reg`,
		Args: cobra.RangeArgs(1, 2),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runWalk(cmd.Context(), args)
		},
	}
	return cmd
}

func runWalk(ctx context.Context, args []string) error {
	hivePath := args[0]
	var start string
	if len(args) > 1 {
		start = args[1]
	}

	h, err := openHive(hivePath)
	if err != nil {
		return err
	}
	defer h.Close()

	w := walker.New(h, walkOptions(start))
	entries, err := w.Run(ctx)
	if err != nil {
		return fmt.Errorf("walk failed: %w", err)
	}
	printVerbose("Walk %s: %d keys, %d diagnostics\n", w.ID(), len(entries), w.Diagnostics().Len())
	if start != "" && len(entries) == 0 {
		printInfo("Key not found: %s\n", start)
		return nil
	}
	return printEntries(h, entries)
}
