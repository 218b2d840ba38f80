package scanner

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/fsnotify/fsnotify"
	"go.uber.org/zap"

	"escapeguard/internal/analysis"
	"escapeguard/internal/report"
)

// Watcher re-runs analysis on individual files as they change, instead
// of rescanning Options.Root on every event — a `scan` run fans out
// across the whole tree with errgroup, but `watch` only ever has one
// changed file to react to, so it reanalyzes inline on the event
// goroutine.
type Watcher struct {
	scanner *Scanner
	log     *zap.SugaredLogger
	fsw     *fsnotify.Watcher
}

// NewWatcher builds a Watcher over scanner's root, adding to the
// underlying fsnotify watcher every directory that holds at least one
// matching file when NewWatcher runs. Directories created later, or
// holding no matching file at that time, are not watched.
func NewWatcher(s *Scanner) (*Watcher, error) {
	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("scanner: creating watcher: %w", err)
	}

	paths, err := s.discover()
	if err != nil {
		fsw.Close()
		return nil, fmt.Errorf("scanner: discovering files to watch: %w", err)
	}
	dirs := map[string]struct{}{}
	for _, p := range paths {
		dirs[filepath.Dir(p)] = struct{}{}
	}
	for dir := range dirs {
		if err := fsw.Add(dir); err != nil {
			fsw.Close()
			return nil, fmt.Errorf("scanner: watching %s: %w", dir, err)
		}
	}

	return &Watcher{scanner: s, log: s.opts.Log, fsw: fsw}, nil
}

// Run blocks, re-analyzing each changed file and delivering a
// single-file report.ScanResult to onChange until ctx is canceled.
func (w *Watcher) Run(ctx context.Context, onChange func(*report.ScanResult)) error {
	defer w.fsw.Close()
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case ev, ok := <-w.fsw.Events:
			if !ok {
				return nil
			}
			if ev.Op&(fsnotify.Write|fsnotify.Create) == 0 {
				continue
			}
			if !w.matchesExtension(ev.Name) {
				continue
			}
			w.log.Infow("rescanning changed file", "path", ev.Name)
			w.rescan(ctx, ev.Name, onChange)
		case err, ok := <-w.fsw.Errors:
			if !ok {
				return nil
			}
			w.log.Warnw("watch error", "error", err)
		}
	}
}

func (w *Watcher) matchesExtension(path string) bool {
	for _, ext := range w.scanner.opts.Extensions {
		if strings.HasSuffix(path, ext) {
			return true
		}
	}
	return false
}

func (w *Watcher) rescan(ctx context.Context, path string, onChange func(*report.ScanResult)) {
	started := time.Now()
	source, err := os.ReadFile(path)
	if err != nil {
		w.log.Warnw("could not read changed file", "path", path, "error", err)
		return
	}
	cache := w.scanner.currentCache()
	res, ok := cache.Get(path, source)
	if !ok {
		res = analysis.Analyze(ctx, path, source, w.scanner.CurrentVocab())
		cache.Put(path, source, res)
	}
	result := report.NewScanResult()
	result.Files = []report.FileResult{{Path: path, Findings: res.Findings}}
	result.FilesScanned = 1
	result.Duration = time.Since(started)
	onChange(result)
}
