package cli

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"escapeguard/internal/config"
	"escapeguard/internal/core"
	"escapeguard/internal/logging"
	"escapeguard/internal/report"
	"escapeguard/internal/scanner"
)

func newWatchCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "watch [path]",
		Short: "Watch a directory tree and re-analyze files as they change",
		Args:  cobra.MaximumNArgs(1),
		RunE:  runWatch,
	}
}

func runWatch(cmd *cobra.Command, args []string) error {
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

	w, err := scanner.NewWatcher(s)
	if err != nil {
		return fmt.Errorf("escapeguard: starting watcher: %w", err)
	}

	cfgWatcher, err := config.NewWatcher(flagConfigPath, log, func(_ config.Config, newVocab core.Vocabulary) {
		s.SetVocab(newVocab)
	})
	if err != nil {
		log.Warnw("config hot-reload disabled", "error", err)
	} else {
		go cfgWatcher.Watch()
		defer cfgWatcher.Close()
	}

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	log.Infow("watch starting", "root", root)
	return w.Run(ctx, func(result *report.ScanResult) {
		for _, f := range result.Files {
			for _, finding := range f.Findings {
				fmt.Fprintf(cmd.OutOrStdout(), "%s:%d [%s] %s\n", f.Path, finding.Line, finding.Kind, finding.Fix)
			}
		}
	})
}
