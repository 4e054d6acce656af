// © 2026 Ilya Mateyko. All rights reserved.
// Use of this source code is governed by the ISC
// license that can be found in the LICENSE.md file.

// Package tool implements the command shared by the directive inserting
// programs.
package tool

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"strings"

	"go.astrophena.name/includer/cli"
	"go.astrophena.name/includer/directive"
	"go.astrophena.name/includer/logger"
)

// App ensures Directive in every file listed in Manifest.
type App struct {
	Manifest  string
	Directive directive.Directive

	dry     bool
	summary directive.Summary
}

// New returns an App for the given manifest and directive.
func New(manifest string, d directive.Directive) *App {
	return &App{Manifest: manifest, Directive: d}
}

// Flags registers the -dry flag.
func (a *App) Flags(fs *flag.FlagSet) {
	fs.BoolVar(&a.dry, "dry", false, "Print the files that would have the directive added, without making changes.")
}

// Run processes the manifest. It accepts no positional arguments.
func (a *App) Run(ctx context.Context) error {
	env := cli.GetEnv(ctx)
	if len(env.Args) > 0 {
		return fmt.Errorf("%w: unexpected arguments %s (manifest is always %s)", cli.ErrInvalidArgs, strings.Join(env.Args, " "), a.Manifest)
	}

	b := &directive.Batch{
		Manifest:  a.Manifest,
		Directive: a.Directive,
		DryRun:    a.dry,
	}
	err := b.Run(ctx)
	a.summary = b.Summary()
	if err != nil {
		return err
	}

	logger.Info(ctx, "done",
		slog.String("manifest", a.Manifest),
		slog.Int("changed", a.summary.Changed),
		slog.Int("unchanged", a.summary.Unchanged),
		slog.Int("skipped", a.summary.Skipped),
		slog.Bool("dry", a.dry),
	)
	return nil
}

// Summary returns the outcome of the last run.
func (a *App) Summary() directive.Summary { return a.summary }
