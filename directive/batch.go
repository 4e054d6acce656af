// © 2026 Ilya Mateyko. All rights reserved.
// Use of this source code is governed by the ISC
// license that can be found in the LICENSE.md file.

package directive

import (
	"bufio"
	"context"
	"fmt"
	"log/slog"
	"os"
	"strings"

	"go.astrophena.name/includer/logger"
	"go.astrophena.name/includer/syncx"
)

// Entry is a target path listed in a manifest.
type Entry struct {
	Path string
	Line int // 1-based line number in the manifest
}

// ReadManifest reads the manifest at path: one target path per line, in
// order. Line terminators are stripped and blank lines are skipped.
func ReadManifest(path string) ([]Entry, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	var (
		entries []Entry
		n       int
	)
	s := bufio.NewScanner(f)
	for s.Scan() {
		n++
		p := strings.TrimSuffix(s.Text(), "\r")
		if p == "" {
			continue
		}
		entries = append(entries, Entry{Path: p, Line: n})
	}
	if err := s.Err(); err != nil {
		return nil, fmt.Errorf("reading manifest %s: %w", path, err)
	}
	return entries, nil
}

// Summary counts the outcome of a [Batch] run.
type Summary struct {
	Changed   int // files that got the directive
	Unchanged int // files that already had it
	Skipped   int // duplicate manifest entries
}

// Batch ensures a directive in every file listed by a manifest.
type Batch struct {
	Manifest  string
	Directive Directive
	DryRun    bool

	seen    syncx.Map[string, int]
	summary Summary
}

// Run processes the manifest entries in order. The first error stops the
// run; files before it have already been rewritten.
func (b *Batch) Run(ctx context.Context) error {
	b.seen = syncx.Map[string, int]{}
	b.summary = Summary{}

	entries, err := ReadManifest(b.Manifest)
	if err != nil {
		return err
	}
	logger.Debug(ctx, "read manifest", slog.String("manifest", b.Manifest), slog.Int("entries", len(entries)))

	opts := Options{DryRun: b.DryRun}
	for _, e := range entries {
		if first, dup := b.seen.LoadOrStore(e.Path, e.Line); dup {
			logger.Debug(ctx, "skipping duplicate manifest entry",
				slog.String("path", e.Path), slog.Int("line", e.Line), slog.Int("first", first))
			b.summary.Skipped++
			continue
		}
		changed, err := Ensure(ctx, e.Path, b.Directive, opts)
		if err != nil {
			return fmt.Errorf("%s:%d: %w", b.Manifest, e.Line, err)
		}
		if changed {
			b.summary.Changed++
		} else {
			b.summary.Unchanged++
		}
	}
	return nil
}

// Summary returns the counts collected by the last call to Run.
func (b *Batch) Summary() Summary { return b.summary }
