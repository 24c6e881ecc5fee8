package main

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/joshuapare/hivetrace/hive/walker"
)

var (
	queryStart       string
	queryDescendants bool
)

func init() {
	cmd := newQueryCmd()
	cmd.Flags().StringVar(&queryStart, "start", "", "Only search below this key")
	cmd.Flags().BoolVar(&queryDescendants, "descendants", false, "Also print every key below a match")
	rootCmd.AddCommand(cmd)
}

func newQueryCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "query <hive> <pattern>",
		Short: "Print keys whose full path matches a regular expression",
		Long: `The query command walks the hive and prints keys whose full path, including
the root key name, matches the pattern. Matching ignores case.

Example:
  hivectl query SYSTEM '\\Services\\[^\\]+$'
  hivectl query SYSTEM 'Parameters$' --start ControlSet001\Services
  hivectl query SYSTEM '\\Tcpip$' --descendants --json`,
		Args: cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runQuery(cmd.Context(), args)
		},
	}
	return cmd
}

func runQuery(ctx context.Context, args []string) error {
	hivePath, pattern := args[0], args[1]

	h, err := openHive(hivePath)
	if err != nil {
		return err
	}
	defer h.Close()

	opts := walkOptions(queryStart)
	opts.Pattern = pattern
	opts.Filter = true
	opts.IncludeDescendants = opts.IncludeDescendants || queryDescendants

	w := walker.New(h, opts)
	entries, err := w.Run(ctx)
	if err != nil {
		return fmt.Errorf("query failed: %w", err)
	}
	st := w.Stats()
	printVerbose("Query %s: %d of %d keys matched\n", w.ID(), st.Emitted, st.KeysVisited)
	return printEntries(h, entries)
}
