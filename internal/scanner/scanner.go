// Package scanner walks a filesystem tree, fans out per-file analysis
// concurrently, and assembles the results into a report.ScanResult.
// escapeguard's per-file analysis.Analyze call is pure and synchronous
// (spec §5); everything in this package is the "external layer" spec
// §5 says owns concurrency.
package scanner

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"escapeguard/internal/analysis"
	"escapeguard/internal/core"
	"escapeguard/internal/report"
)

// excludedDirs is the default set of directories never descended into.
// Grounded on the teacher's getExcludedDirs, trimmed to the subset that
// still makes sense outside a C/C++ build tree.
func excludedDirs() map[string]bool {
	return map[string]bool{
		"vendor": true, "node_modules": true, "third_party": true, "thirdparty": true,
		".git": true, ".svn": true, ".hg": true,
		".cache": true, ".idea": true, ".vscode": true,
		"dist": true, "build": true,
		"test": true, "tests": true, "testing": true,
		"example": true, "examples": true, "sample": true, "samples": true,
		"vendor_test": true,
	}
}

// Options configures a Scanner.
type Options struct {
	Root        string
	Extensions  []string
	Concurrency int
	Vocab       core.Vocabulary
	Log         *zap.SugaredLogger
	// CacheSize bounds the number of per-file analysis results kept in
	// the Scanner's FileCache. Zero defaults to DefaultCacheSize.
	CacheSize int
	// ExcludeDirs names additional directory basenames (config.Config's
	// exclude_dirs) to skip, on top of the built-in excludedDirs() set.
	ExcludeDirs []string
}

// DefaultExtensions lists the file suffixes escapeguard treats as
// source for the target templating language.
var DefaultExtensions = []string{".php", ".phtml"}

// Scanner walks Options.Root and runs analysis.Analyze over every
// matching file, fanning out across Options.Concurrency goroutines via
// errgroup.
type Scanner struct {
	opts    Options
	exclude map[string]bool
	cache   *FileCache

	vocabMu sync.RWMutex
	vocab   core.Vocabulary
}

// New builds a Scanner. A zero Concurrency defaults to 8; a zero
// Extensions list defaults to DefaultExtensions.
func New(opts Options) *Scanner {
	if opts.Concurrency <= 0 {
		opts.Concurrency = 8
	}
	if len(opts.Extensions) == 0 {
		opts.Extensions = DefaultExtensions
	}
	if opts.Log == nil {
		opts.Log = zap.NewNop().Sugar()
	}
	exclude := excludedDirs()
	for _, d := range opts.ExcludeDirs {
		exclude[d] = true
	}
	return &Scanner{
		opts:    opts,
		exclude: exclude,
		vocab:   opts.Vocab,
		cache:   NewFileCache(opts.CacheSize),
	}
}

// CurrentVocab returns the vocabulary in effect for the next analysis
// call, safe to read concurrently with SetVocab.
func (s *Scanner) CurrentVocab() core.Vocabulary {
	s.vocabMu.RLock()
	defer s.vocabMu.RUnlock()
	return s.vocab
}

// currentCache returns the FileCache in effect for the next analysis
// call, safe to read concurrently with SetVocab (which replaces it).
func (s *Scanner) currentCache() *FileCache {
	s.vocabMu.RLock()
	defer s.vocabMu.RUnlock()
	return s.cache
}

// SetVocab replaces the vocabulary used by subsequent Scan/Watcher
// calls, letting a config.Watcher push a hot-reloaded vocabulary in
// without restarting the process.
func (s *Scanner) SetVocab(vocab core.Vocabulary) {
	s.vocabMu.Lock()
	defer s.vocabMu.Unlock()
	s.vocab = vocab
	// A new vocabulary can change every classification decision, so any
	// result cached under the old one is no longer trustworthy.
	s.cache = NewFileCache(s.opts.CacheSize)
}

// Scan walks Options.Root, analyzes every matching file concurrently,
// and returns the assembled report.ScanResult.
func (s *Scanner) Scan(ctx context.Context) (*report.ScanResult, error) {
	started := time.Now()
	paths, err := s.discover()
	if err != nil {
		return nil, fmt.Errorf("scanner: discovering files: %w", err)
	}

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(s.opts.Concurrency)
	vocab := s.CurrentVocab()
	cache := s.currentCache()

	results := make([]report.FileResult, len(paths))
	for i, p := range paths {
		i, p := i, p
		g.Go(func() error {
			source, err := os.ReadFile(p)
			if err != nil {
				s.opts.Log.Warnw("skipping unreadable file", "path", p, "error", err)
				return nil
			}
			res, ok := cache.Get(p, source)
			if !ok {
				res = analysis.Analyze(gctx, p, source, vocab)
				cache.Put(p, source, res)
			}
			results[i] = report.FileResult{Path: p, Findings: res.Findings}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	scanResult := report.NewScanResult()
	scanResult.Files = results
	scanResult.FilesScanned = len(paths)
	scanResult.Duration = time.Since(started)
	return scanResult, nil
}

// discover walks Options.Root and returns every file matching
// Options.Extensions, skipping excluded directories.
func (s *Scanner) discover() ([]string, error) {
	var paths []string
	err := filepath.WalkDir(s.opts.Root, func(path string, d os.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() {
			if s.exclude[d.Name()] {
				return filepath.SkipDir
			}
			return nil
		}
		for _, ext := range s.opts.Extensions {
			if strings.HasSuffix(path, ext) {
				paths = append(paths, path)
				break
			}
		}
		return nil
	})
	return paths, err
}
