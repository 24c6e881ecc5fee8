package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"github.com/joshuapare/hivetrace/hive"
	"github.com/joshuapare/hivetrace/hive/printer"
	"github.com/joshuapare/hivetrace/hive/walker"
	"github.com/joshuapare/hivetrace/internal/config"
	"github.com/joshuapare/hivetrace/internal/logger"
	"github.com/joshuapare/hivetrace/pkg/types"
)

var (
	// Global flags
	verbose    bool
	quiet      bool
	jsonOut    bool
	configPath string

	settings = config.New(nil)
	cfg      config.Config

	stdout io.Writer = os.Stdout
	stderr io.Writer = os.Stderr
)

var rootCmd = &cobra.Command{
	Use:   "hivectl",
	Short: "Walk Windows registry hive files",
	Long: `hivectl walks Windows Registry hive files without trusting them. Corrupted
cells, cyclic subkey lists and truncated data are reported and skipped so that
everything still reachable is recovered.`,
	Version:       "0.1.0",
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		return loadConfig()
	},
	PersistentPostRunE: func(cmd *cobra.Command, args []string) error {
		return logger.Close()
	},
}

func init() {
	pf := rootCmd.PersistentFlags()
	pf.BoolVarP(&verbose, "verbose", "v", false, "Enable verbose output and debug logging")
	pf.BoolVarP(&quiet, "quiet", "q", false, "Suppress all output except errors and results")
	pf.BoolVar(&jsonOut, "json", false, "Output in JSON format")
	pf.StringVar(&configPath, "config", "", "Config file (default: search ., $HOME/.hivetrace, /etc/hivetrace)")

	pf.Int("max-depth", 0, "Deepest key level to descend into (config walk.max_depth)")
	pf.String("format", "", "Output format: text, json or reg (config output.format)")
	pf.Int("max-value-bytes", 0, "Cut binary data after this many bytes, 0 for all (config output.max_value_bytes)")
	pf.String("log-level", "", "Log level: debug, info, warn or error (config log.level)")
	pf.String("log-dir", "", "Write logs to dated files in this directory (config log.dir)")

	for key, flag := range map[string]string{
		config.KeyMaxDepth:      "max-depth",
		config.KeyOutputFormat:  "format",
		config.KeyMaxValueBytes: "max-value-bytes",
		config.KeyLogLevel:      "log-level",
		config.KeyLogDir:        "log-dir",
	} {
		if err := settings.BindPFlag(key, pf.Lookup(flag)); err != nil {
			panic(err)
		}
	}
}

func execute() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	if err := rootCmd.ExecuteContext(ctx); err != nil {
		printError("%v\n", err)
		stop()
		os.Exit(1)
	}
}

// loadConfig resolves settings from the config file, environment and flags,
// then sets up logging.
func loadConfig() error {
	if err := config.Read(settings, configPath); err != nil {
		return err
	}
	c, err := config.Decode(settings)
	if err != nil {
		return err
	}
	cfg = c

	opts := cfg.LoggerOptions()
	opts.Output = stderr
	if verbose {
		opts.Enabled = true
		opts.Level = slog.LevelDebug
	}
	return logger.Init(opts)
}

// openHive memory-maps a hive file.
func openHive(path string) (*hive.Hive, error) {
	printVerbose("Opening hive: %s\n", path)
	h, err := hive.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open hive: %w", err)
	}
	if d := h.Diagnostics(); d.Len() > 0 {
		logger.Info("hive opened with diagnostics", "hive", path, "count", d.Len())
	}
	return h, nil
}

// walkOptions builds walker options from the resolved config.
func walkOptions(start string) walker.Options {
	return walker.Options{
		StartPath:          start,
		MaxDepth:           cfg.Walk.MaxDepth,
		IncludeDescendants: cfg.Walk.IncludeDescendants,
		Logger:             logger.L,
	}
}

// printEntries renders entries in the configured output format.
func printEntries(h *hive.Hive, entries []types.RegistryEntry) error {
	format, err := printer.ParseFormat(cfg.Output.Format)
	if err != nil {
		return err
	}
	if jsonOut {
		format = printer.FormatJSON
	}
	opts := printer.DefaultOptions()
	opts.Format = format
	opts.MaxValueBytes = cfg.Output.MaxValueBytes
	opts.RegRoot = regRoot(h.Name())
	return printer.New(stdout, opts).Print(entries)
}

// regRoot names the export root after the hive file, e.g.
// HKEY_LOCAL_MACHINE\SYSTEM.
func regRoot(path string) string {
	base := strings.ToUpper(filepath.Base(path))
	if path == "" || base == "." {
		return printer.DefaultRegRoot
	}
	return printer.DefaultRegRoot + types.PathSeparator + base
}

// Helper functions for output

// printInfo prints an info message if not in quiet mode
func printInfo(format string, args ...any) {
	if !quiet {
		fmt.Fprintf(stdout, format, args...)
	}
}

// printError prints an error message
func printError(format string, args ...any) {
	fmt.Fprintf(stderr, "Error: "+format, args...)
}

// printVerbose prints a verbose message if verbose mode is enabled
func printVerbose(format string, args ...any) {
	if verbose && !quiet {
		fmt.Fprintf(stderr, format, args...)
	}
}

// printJSON outputs data as JSON
func printJSON(v any) error {
	encoder := json.NewEncoder(stdout)
	encoder.SetIndent("", "  ")
	return encoder.Encode(v)
}
