package main

import (
	"context"
	"fmt"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/joshuapare/hivetrace/pkg/artifacts"
)

var servicesControlSet string

func init() {
	cmd := newServicesCmd()
	cmd.Flags().StringVar(&servicesControlSet, "control-set", "", "Control set to read, e.g. ControlSet002 (default: Select\\Current)")
	rootCmd.AddCommand(cmd)
}

func newServicesCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "services <hive>",
		Short: "List services of a SYSTEM hive",
		Long: `The services command lists every key under <ControlSet>\Services with its
start type, image path and service DLL, in on-disk order.

Example:
  hivectl services SYSTEM
  hivectl services SYSTEM --control-set ControlSet002 --json`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runServices(cmd.Context(), args)
		},
	}
	return cmd
}

func runServices(ctx context.Context, args []string) error {
	h, err := openHive(args[0])
	if err != nil {
		return err
	}
	defer h.Close()

	var svcs []artifacts.Service
	if servicesControlSet != "" {
		svcs, err = artifacts.ServicesIn(ctx, h, servicesControlSet)
	} else {
		svcs, err = artifacts.Services(ctx, h)
	}
	if err != nil {
		return fmt.Errorf("failed to read services: %w", err)
	}

	if jsonOut {
		return printJSON(svcs)
	}

	printInfo("%d services\n\n", len(svcs))
	tw := tabwriter.NewWriter(stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "NAME\tSTART\tTYPE\tLAST WRITTEN\tIMAGE PATH\tSERVICE DLL")
	for _, s := range svcs {
		typ := "-"
		if s.Type != nil {
			typ = fmt.Sprintf("0x%X", *s.Type)
		}
		start := s.StartName()
		if start == "" {
			start = "-"
		}
		fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%s\t%s\n",
			s.Name, start, typ, s.LastWritten.UTC().Format("2006-01-02 15:04:05"), s.ImagePath, s.ServiceDll)
	}
	return tw.Flush()
}
