package main

import (
	"bufio"
	"context"
	"fmt"
	"os"
	"strings"

	"github.com/desertthunder/shelf/internal/catalog"
	"github.com/desertthunder/shelf/internal/formatter"
	"github.com/desertthunder/shelf/internal/rules"
	"github.com/desertthunder/shelf/internal/shared"
	"github.com/urfave/cli/v3"
)

// analyzeLibrary fetches the saved-track library with progress logging,
// reauthorizing once when the stored token has expired.
func (r *Runner) analyzeLibrary(ctx context.Context, cmd *cli.Command) ([]catalog.Track, error) {
	if r.spotify == nil {
		return nil, fmt.Errorf("%w: Spotify service not initialized", shared.ErrRemoteUnavailable)
	}

	progress, stop := r.logProgress()
	snapshot, err := r.engine.Analyze(ctx, progress)
	stop()

	if err != nil {
		reauthed, authErr := r.handleAuthError(ctx, err, cmd)
		if !reauthed {
			return nil, fmt.Errorf("%w: %v", shared.ErrAPIRequest, err)
		}
		if authErr != nil {
			return nil, authErr
		}

		progress, stop = r.logProgress()
		snapshot, err = r.engine.Analyze(ctx, progress)
		stop()
		if err != nil {
			return nil, fmt.Errorf("%w: %v", shared.ErrAPIRequest, err)
		}
	}

	return snapshot, nil
}

// LibraryAnalyze fetches the library, resolves genres, and prints the
// categorized breakdown.
func (r *Runner) LibraryAnalyze(ctx context.Context, cmd *cli.Command) error {
	format := cmd.String("format")
	outputFile := cmd.String("output")
	useJSON := cmd.Bool("json")
	pretty := cmd.Bool("pretty")

	store, err := r.ruleStore()
	if err != nil {
		return err
	}

	snapshot, err := r.analyzeLibrary(ctx, cmd)
	if err != nil {
		return err
	}

	categorized := rules.Categorize(snapshot, store.Rules())

	if format != "" || outputFile != "" {
		path, err := formatter.WriteCatalogExport(categorized, format, outputFile)
		if err != nil {
			return err
		}
		r.writePlain("✓ Library exported to %s\n", path)
		return nil
	}

	if useJSON {
		return r.writeJSON(categorized.Tracks, pretty)
	}

	byCategory := categorized.ByCategory()

	r.writePlainHeader("Library Analysis")
	r.writePlain("Tracks: %d\n\n", len(snapshot))
	for _, name := range categorized.Categories() {
		tracks := byCategory[name]
		r.writePlain("%s: %d tracks\n", name, len(tracks))
	}

	withoutGenres := 0
	for _, track := range snapshot {
		if !track.HasGenres() {
			withoutGenres++
		}
	}
	if withoutGenres > 0 {
		r.writePlain("\n%d tracks have no genre data and fall back to %s\n", withoutGenres, rules.FallbackCategory)
	}

	return nil
}

// LibraryDuplicates finds duplicate saved tracks and optionally removes the
// younger copies.
func (r *Runner) LibraryDuplicates(ctx context.Context, cmd *cli.Command) error {
	remove := cmd.Bool("remove")
	skipConfirm := cmd.Bool("yes")
	useJSON := cmd.Bool("json")
	pretty := cmd.Bool("pretty")

	snapshot, err := r.analyzeLibrary(ctx, cmd)
	if err != nil {
		return err
	}

	groups := r.engine.FindDuplicates(snapshot)

	if len(groups) == 0 {
		r.writePlain("✓ No duplicates found in %d tracks\n", len(snapshot))
		return nil
	}

	if useJSON && !remove {
		return r.writeJSON(groups, pretty)
	}

	r.writePlain("%s", formatter.DuplicatesToText(groups))

	if !remove {
		r.writePlain("\nRun with --remove to delete the younger copies.\n")
		return nil
	}

	removable := 0
	for _, group := range groups {
		removable += len(group.Tracks) - 1
	}

	if !skipConfirm {
		r.writePlain("\nRemove %d tracks from your library? This cannot be undone. [y/N] ", removable)
		reader := bufio.NewReader(os.Stdin)
		answer, err := reader.ReadString('\n')
		if err != nil {
			return fmt.Errorf("failed to read confirmation: %w", err)
		}
		if strings.ToLower(strings.TrimSpace(answer)) != "y" {
			r.writePlain("Aborted.\n")
			return nil
		}
	}

	progress, stop := r.logProgress()
	result := r.engine.RemoveDuplicates(ctx, progress, groups)
	stop()

	r.writePlainln("✓ Removed %d duplicate tracks", result.Removed)
	if result.Failed > 0 {
		r.writePlain("⚠ %d removals failed:\n", result.Failed)
		for _, outcome := range result.Outcomes {
			if outcome.Err != nil {
				r.writePlain("  • %s - %s: %v\n", outcome.Track.Artist, outcome.Track.Title, outcome.Err)
			}
		}
	}

	return nil
}
