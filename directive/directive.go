// © 2026 Ilya Mateyko. All rights reserved.
// Use of this source code is governed by the ISC
// license that can be found in the LICENSE.md file.

// Package directive ensures that an include directive is present in a batch
// of source files.
//
// A missing directive is written over the first blank line of a file, so
// the number of lines never changes. Files that already contain the
// directive are left untouched.
package directive

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"slices"

	"go.astrophena.name/includer/logger"
)

// Annotation is appended to every inserted directive to mark it as added by
// this package.
const Annotation = "  //added by Zhou"

// Predefined directives.
var (
	Assert  = Directive{Text: "#include <cassert>", Annotation: Annotation}
	Climits = Directive{Text: "#include <climits>", Annotation: Annotation}
)

// ErrNoBlankLine is returned when a file lacks the directive and has no empty
// line to hold it.
var ErrNoBlankLine = errors.New("no blank line to insert directive")

// Directive is a line that must be present in a file.
type Directive struct {
	// Text is the directive itself, for example "#include <cassert>".
	Text string
	// Annotation is appended to Text when the directive is inserted.
	Annotation string
}

// Line returns the line written when d is inserted.
func (d Directive) Line() string { return d.Text + d.Annotation }

// PresentIn reports whether any of lines is d, with or without its
// annotation.
func (d Directive) PresentIn(lines []string) bool {
	line := d.Line()
	return slices.ContainsFunc(lines, func(l string) bool {
		return l == d.Text || l == line
	})
}

// Apply returns lines with d written over the first empty line. If d is
// already present, lines are returned as is and changed is false.
// The lines slice itself is never modified.
func (d Directive) Apply(lines []string) (out []string, changed bool, err error) {
	if d.PresentIn(lines) {
		return lines, false, nil
	}
	i := slices.Index(lines, "")
	if i < 0 {
		return nil, false, ErrNoBlankLine
	}
	out = slices.Clone(lines)
	out[i] = d.Line()
	return out, true, nil
}

// SplitLines splits b into lines without their terminators. A line ends at
// "\n", "\r\n" or a lone "\r", and a terminator at the end of b does not
// start a new line.
func SplitLines(b []byte) []string {
	var lines []string
	for len(b) > 0 {
		i := bytes.IndexAny(b, "\r\n")
		if i < 0 {
			lines = append(lines, string(b))
			break
		}
		lines = append(lines, string(b[:i]))
		if b[i] == '\r' && i+1 < len(b) && b[i+1] == '\n' {
			i++
		}
		b = b[i+1:]
	}
	return lines
}

// JoinLines is the reverse of [SplitLines]: it terminates every line with a
// single "\n".
func JoinLines(lines []string) []byte {
	var buf bytes.Buffer
	for _, l := range lines {
		buf.WriteString(l)
		buf.WriteByte('\n')
	}
	return buf.Bytes()
}

// Options control [Ensure].
type Options struct {
	// DryRun reports what would change without writing anything.
	DryRun bool
}

// Ensure makes sure the file at path contains d, writing it over the first
// blank line if needed. It reports whether the file was (or, in dry run
// mode, would be) changed.
//
// The file must exist and be writable even if it already contains d. It is
// rewritten in place through the handle it was read from, so symlinks and
// hard links keep pointing at the updated contents. The new contents are
// computed in full before the file is truncated.
func Ensure(ctx context.Context, path string, d Directive, opts Options) (changed bool, err error) {
	f, err := os.OpenFile(path, os.O_RDWR, 0)
	if err != nil {
		return false, err
	}
	defer func() {
		if cerr := f.Close(); cerr != nil && err == nil {
			changed, err = false, fmt.Errorf("closing %s: %w", path, cerr)
		}
	}()

	content, err := io.ReadAll(f)
	if err != nil {
		return false, fmt.Errorf("reading %s: %w", path, err)
	}

	lines, changed, err := d.Apply(SplitLines(content))
	if err != nil {
		return false, fmt.Errorf("%s: %w", path, err)
	}
	if !changed {
		logger.Debug(ctx, "directive already present", slog.String("path", path))
		return false, nil
	}

	if opts.DryRun {
		logger.Info(ctx, "would add directive", slog.String("path", path), slog.String("directive", d.Text))
		return true, nil
	}
	if err := rewrite(f, JoinLines(lines)); err != nil {
		return false, fmt.Errorf("writing %s: %w", path, err)
	}
	logger.Info(ctx, "added directive", slog.String("path", path), slog.String("directive", d.Text))
	return true, nil
}

// rewrite replaces the contents of f with b.
func rewrite(f *os.File, b []byte) error {
	if err := f.Truncate(0); err != nil {
		return err
	}
	_, err := f.WriteAt(b, 0)
	return err
}
