package main

import (
	"context"
	"fmt"
	"sort"

	"github.com/desertthunder/shelf/internal/rules"
	"github.com/desertthunder/shelf/internal/shared"
	"github.com/desertthunder/shelf/internal/tasks"
	"github.com/urfave/cli/v3"
)

// PlaylistsSync reconciles the user's genre playlists with the categorized
// library. Only additive mutations are planned: playlists are created or
// appended to, never emptied or deleted.
func (r *Runner) PlaylistsSync(ctx context.Context, cmd *cli.Command) error {
	dryRun := cmd.Bool("dry-run")
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

	progress, stop := r.logProgress()
	plan, err := r.engine.Plan(ctx, progress, categorized, store)
	stop()
	if err != nil {
		return fmt.Errorf("%w: %v", shared.ErrAPIRequest, err)
	}

	if len(plan) == 0 {
		r.writePlain("✓ Playlists are already up to date\n")
		return nil
	}

	if dryRun {
		r.writePlainHeader("Planned Mutations (dry run)")
		return r.writeJSON(plan, pretty)
	}

	progress, stop = r.logProgress()
	result := r.engine.Execute(ctx, progress, plan)
	stop()

	var created, added int
	for _, outcome := range result.Outcomes {
		if outcome.Err == nil && outcome.Mutation.Kind == tasks.MutationCreatePlaylist {
			created++
		}
		added += outcome.Added
	}

	r.writePlainln("✓ Sync complete")
	r.writePlain("  Playlists created: %d\n", created)
	r.writePlain("  Tracks added: %d\n", added)

	if result.Failed > 0 {
		r.writePlain("\n⚠ %d mutations failed:\n", result.Failed)
		for _, outcome := range result.Outcomes {
			if outcome.Err != nil {
				r.writePlain("  • %s %s: %v\n", outcome.Mutation.Kind, outcome.Mutation.Category, outcome.Err)
			}
		}
	}

	return nil
}

// PlaylistsList shows the remote playlists recognized as managed by the
// organizer's naming template.
func (r *Runner) PlaylistsList(ctx context.Context, cmd *cli.Command) error {
	if r.spotify == nil {
		return fmt.Errorf("%w: Spotify service not initialized", shared.ErrRemoteUnavailable)
	}

	store, err := r.ruleStore()
	if err != nil {
		return err
	}

	managed, err := r.engine.ManagedIndex(ctx, nil, store)
	if err != nil {
		reauthed, authErr := r.handleAuthError(ctx, err, cmd)
		if !reauthed {
			return fmt.Errorf("%w: %v", shared.ErrAPIRequest, err)
		}
		if authErr != nil {
			return authErr
		}
		if managed, err = r.engine.ManagedIndex(ctx, nil, store); err != nil {
			return fmt.Errorf("%w: %v", shared.ErrAPIRequest, err)
		}
	}

	if len(managed) == 0 {
		r.writePlain("No managed playlists found. Run 'shelf playlists sync' to create them.\n")
		return nil
	}

	// Iterate the index rather than the active rule labels so playlists
	// managed under categories no longer present in the rule set still list.
	categories := make([]string, 0, len(managed))
	for category := range managed {
		categories = append(categories, category)
	}
	sort.Strings(categories)

	r.writePlain("Found %d managed playlists:\n\n", len(managed))
	for _, category := range categories {
		playlist := managed[category]
		r.writePlain("  %s → %s (%s)\n", category, playlist.Name, playlist.PlaylistID)
	}

	return nil
}
