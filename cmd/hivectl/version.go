package main

import (
	"fmt"
	"runtime"

	"github.com/spf13/cobra"
)

// Set by the release build through -ldflags.
var (
	version = "dev"
	commit  = "none"
	date    = "unknown"
)

type buildInfo struct {
	Version  string `json:"version"`
	Commit   string `json:"commit"`
	Built    string `json:"built"`
	Go       string `json:"go"`
	Platform string `json:"platform"` // GOOS/GOARCH
}

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print version information",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		return runVersion()
	},
}

func init() {
	rootCmd.AddCommand(versionCmd)
}

func runVersion() error {
	info := buildInfo{
		Version:  version,
		Commit:   commit,
		Built:    date,
		Go:       runtime.Version(),
		Platform: runtime.GOOS + "/" + runtime.GOARCH,
	}
	if jsonOut {
		return printJSON(info)
	}
	_, err := fmt.Fprintf(stdout, "hivectl %s\n  commit: %s\n  built: %s\n  go: %s (%s)\n",
		info.Version, info.Commit, info.Built, info.Go, info.Platform)
	return err
}
