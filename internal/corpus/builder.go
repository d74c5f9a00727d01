package corpus

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"scorekit/internal/logging"
)

// Builder scans a directory tree and keeps the index in sync with it.
type Builder struct {
	Index      Indexer
	Workers    int
	Extensions []string

	buildMu sync.Mutex
}

// Indexer is the index surface the builder needs. *Index satisfies it.
type Indexer interface {
	Upsert(md *Metadata) error
	MarkError(path string, size, modtime int64, err error) error
	Remove(path string) error
	Stamps() (map[string]Stamp, error)
}

// Report summarizes one build run.
type Report struct {
	ID       string
	Root     string
	Scanned  int
	Indexed  int
	Skipped  int
	Failed   int
	Removed  int
	Duration time.Duration
}

// NewBuilder wires a builder to an index with default settings.
func NewBuilder(idx Indexer, workers int) *Builder {
	if workers <= 0 {
		workers = 8
	}
	return &Builder{
		Index:      idx,
		Workers:    workers,
		Extensions: []string{".xml", ".musicxml", ".mxl"},
	}
}

// isScoreFile reports whether a path has a recognized score extension.
func (b *Builder) isScoreFile(path string) bool {
	ext := strings.ToLower(filepath.Ext(path))
	for _, e := range b.Extensions {
		if ext == e {
			return true
		}
	}
	return false
}

// Build walks root, extracts changed or new scores in parallel, and
// removes index rows whose files are gone. Unreadable or malformed
// files are recorded as errors and skipped, never fatal.
func (b *Builder) Build(ctx context.Context, root string) (*Report, error) {
	// Serialize overlapping builds: the stamp snapshot and the removal
	// sweep are only consistent for one run at a time.
	b.buildMu.Lock()
	defer b.buildMu.Unlock()

	start := time.Now()
	report := &Report{ID: uuid.New().String(), Root: root}
	logging.Corpus("Build %s: scanning %s with %d workers", report.ID, root, b.Workers)

	stamps, err := b.Index.Stamps()
	if err != nil {
		return nil, err
	}

	type candidate struct {
		path string
		info os.FileInfo
	}
	var candidates []candidate
	seen := make(map[string]bool)

	err = filepath.Walk(root, func(path string, info os.FileInfo, err error) error {
		if err != nil {
			logging.Get(logging.CategoryCorpus).Warn("Walk error at %s: %v", path, err)
			return nil
		}
		if info.IsDir() {
			name := info.Name()
			if strings.HasPrefix(name, ".") && path != root {
				return filepath.SkipDir
			}
			return nil
		}
		if !b.isScoreFile(path) {
			return nil
		}
		seen[path] = true
		candidates = append(candidates, candidate{path, info})
		return nil
	})
	if err != nil {
		return nil, err
	}
	report.Scanned = len(candidates)

	var mu sync.Mutex
	g, ctx := errgroup.WithContext(ctx)
	sem := make(chan struct{}, b.Workers)

	for _, c := range candidates {
		c := c
		if stamp, ok := stamps[c.path]; ok &&
			stamp.Size == c.info.Size() && stamp.ModTime == c.info.ModTime().Unix() {
			report.Skipped++
			continue
		}

		g.Go(func() error {
			select {
			case sem <- struct{}{}:
			case <-ctx.Done():
				return ctx.Err()
			}
			defer func() { <-sem }()

			md, err := Extract(c.path)
			if err != nil {
				logging.Get(logging.CategoryCorpus).Warn("Extraction failed for %s: %v", c.path, err)
				if markErr := b.Index.MarkError(c.path, c.info.Size(), c.info.ModTime().Unix(), err); markErr != nil {
					return markErr
				}
				mu.Lock()
				report.Failed++
				mu.Unlock()
				return nil
			}
			if err := b.Index.Upsert(md); err != nil {
				return err
			}
			mu.Lock()
			report.Indexed++
			mu.Unlock()
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return nil, err
	}

	// Drop rows for files that no longer exist under root. The prefix
	// keeps its trailing separator so a sibling root like root+"b" does
	// not lose rows.
	prefix := root
	if !strings.HasSuffix(prefix, string(os.PathSeparator)) {
		prefix += string(os.PathSeparator)
	}
	for path := range stamps {
		if seen[path] || (path != root && !strings.HasPrefix(path, prefix)) {
			continue
		}
		if err := b.Index.Remove(path); err != nil {
			return nil, err
		}
		report.Removed++
	}

	report.Duration = time.Since(start)
	logging.Corpus("Build %s complete: %d scanned, %d indexed, %d skipped, %d failed, %d removed in %v",
		report.ID, report.Scanned, report.Indexed, report.Skipped, report.Failed,
		report.Removed, report.Duration)
	return report, nil
}
