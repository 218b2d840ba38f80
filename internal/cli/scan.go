package cli

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"escapeguard/internal/config"
	"escapeguard/internal/logging"
	"escapeguard/internal/report"
	"escapeguard/internal/scanner"
)

func supportedFormatNames() []string {
	var names []string
	for _, f := range report.SupportedFormats() {
		names = append(names, string(f))
	}
	return names
}

func newScanCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "scan [path]",
		Short: "Scan a directory tree once and write a report",
		Args:  cobra.MaximumNArgs(1),
		RunE:  runScan,
	}
	return cmd
}

func runScan(cmd *cobra.Command, args []string) error {
	if handled, err := printListFormatsIfRequested(cmd); handled || err != nil {
		return err
	}

	root := "."
	if len(args) == 1 {
		root = args[0]
	}

	log, err := logging.New(flagVerbose)
	if err != nil {
		return fmt.Errorf("escapeguard: building logger: %w", err)
	}
	defer log.Sync()

	cfg, vocab, err := config.Load(flagConfigPath)
	if err != nil {
		return fmt.Errorf("escapeguard: loading config: %w", err)
	}

	s := scanner.New(scanner.Options{
		Root:        root,
		Concurrency: resolveConcurrency(flagWorkers, cfg.Workers),
		Vocab:       vocab,
		Log:         log,
		CacheSize:   flagCacheSize,
		ExcludeDirs: cfg.ExcludeDirs,
	})

	log.Infow("scan starting", "root", root)
	result, err := s.Scan(context.Background())
	if err != nil {
		return fmt.Errorf("escapeguard: scan failed: %w", err)
	}
	log.Infow("scan complete", "files", result.FilesScanned, "findings", result.Total())

	format, err := report.ParseFormat(flagFormat)
	if err != nil {
		return err
	}

	opts := []report.ManagerOption{
		report.WithFormat(format),
		report.WithOutputDir(flagOutputDir),
	}
	if flagOutput != "" {
		opts = append(opts, report.WithFilename(flagOutput))
	}
	if flagTimestamp {
		opts = append(opts, report.WithTimestamp())
	}

	paths, err := report.NewManager(opts...).Generate(result)
	if err != nil {
		return fmt.Errorf("escapeguard: writing report: %w", err)
	}
	for _, p := range paths {
		fmt.Fprintln(cmd.OutOrStdout(), p)
	}
	return nil
}
