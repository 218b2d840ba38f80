// Package cli wires escapeguard's cobra commands (scan, watch) to the
// scanner, report, config, and logging packages.
package cli

import (
	"fmt"

	"github.com/spf13/cobra"
)

var (
	flagVerbose     bool
	flagFormat      string
	flagOutput      string
	flagOutputDir   string
	flagTimestamp   bool
	flagWorkers     int
	flagConfigPath  string
	flagListFormats bool
	flagCacheSize   int
)

// Execute builds and runs the root cobra command.
func Execute() error {
	return newRootCmd().Execute()
}

func newRootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:   "escapeguard",
		Short: "Find and fix unescaped output and unparameterized SQL in the target templating language",
	}

	root.PersistentFlags().BoolVarP(&flagVerbose, "verbose", "v", false, "verbose logging")
	root.PersistentFlags().StringVar(&flagFormat, "format", "text", "output format (text, json, sarif, all)")
	root.PersistentFlags().StringVar(&flagOutput, "output", "", "output file name (default: escapeguard_report.<format>)")
	root.PersistentFlags().StringVar(&flagOutputDir, "output-dir", ".", "directory reports are written to")
	root.PersistentFlags().BoolVar(&flagTimestamp, "timestamp", false, "add a timestamp to the report filename")
	root.PersistentFlags().IntVar(&flagWorkers, "workers", 0, "number of concurrent analysis workers (default: 8)")
	root.PersistentFlags().StringVar(&flagConfigPath, "config", ".escapeguard.yml", "path to the vocabulary config file")
	root.PersistentFlags().BoolVar(&flagListFormats, "list-formats", false, "list supported report formats and exit")
	root.PersistentFlags().IntVar(&flagCacheSize, "cache-size", 0, "max cached per-file analysis results (default: 512)")

	root.AddCommand(newScanCmd())
	root.AddCommand(newWatchCmd())
	return root
}

// resolveConcurrency picks the worker count for a scan: the --workers
// flag when set, falling back to config.Config.Workers, and finally to
// scanner.New's own default (8) when neither is set.
func resolveConcurrency(flagWorkers, cfgWorkers int) int {
	if flagWorkers > 0 {
		return flagWorkers
	}
	return cfgWorkers
}

func printListFormatsIfRequested(cmd *cobra.Command) (bool, error) {
	if !flagListFormats {
		return false, nil
	}
	for _, f := range supportedFormatNames() {
		fmt.Fprintln(cmd.OutOrStdout(), f)
	}
	return true, nil
}
