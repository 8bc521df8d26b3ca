// package tasks implements library analysis and playlist reconciliation.
//
// The core abstraction is LibraryEngine, which orchestrates catalog builds,
// duplicate removal, and the additive sync plan. Operations emit progress
// updates via channels for non-blocking status reporting to CLI/UI layers.
package tasks

import (
	"context"
	"fmt"
	"time"

	"github.com/desertthunder/shelf/internal/catalog"
	"github.com/desertthunder/shelf/internal/models"
	"github.com/desertthunder/shelf/internal/rules"
	"github.com/desertthunder/shelf/internal/services"
	"github.com/desertthunder/shelf/internal/shared"
)

// RemovalOutcome reports the result of one duplicate-track delete.
type RemovalOutcome struct {
	Track catalog.Track // The removable track
	Err   error         // nil on success
}

// RemovalResult contains per-track outcomes of a duplicate removal pass.
type RemovalResult struct {
	Outcomes []RemovalOutcome
	Removed  int
	Failed   int
}

// ManagedPlaylist is a remote playlist recognized as owned by the organizer
// for one category.
type ManagedPlaylist struct {
	Category   string
	PlaylistID string
	Name       string
}

// MutationKind discriminates planned remote mutations.
type MutationKind int

const (
	MutationCreatePlaylist MutationKind = iota
	MutationAddTracks
)

func (k MutationKind) String() string {
	switch k {
	case MutationCreatePlaylist:
		return "create_playlist"
	case MutationAddTracks:
		return "add_tracks"
	default:
		return ""
	}
}

// Mutation is one planned remote change. Plans are additive only: no mutation
// removes tracks or deletes playlists.
type Mutation struct {
	Kind        MutationKind `json:"kind"`
	Category    string       `json:"category"`
	PlaylistID  string       `json:"playlist_id,omitempty"` // Set for add-tracks mutations
	Name        string       `json:"name,omitempty"`        // Set for create mutations
	Description string       `json:"description,omitempty"` // Set for create mutations
	Public      bool         `json:"public,omitempty"`      // Set for create mutations
	TrackIDs    []string     `json:"track_ids"`
}

// MutationOutcome reports the result of executing one mutation.
type MutationOutcome struct {
	Mutation   Mutation
	PlaylistID string // Resolved id (newly created or pre-existing)
	Added      int    // Tracks actually appended
	Err        error  // nil on success
}

// ExecuteResult contains per-mutation outcomes of a sync run.
type ExecuteResult struct {
	Outcomes  []MutationOutcome
	Succeeded int
	Failed    int
}

// EngineOpts configures a [LibraryEngine].
type EngineOpts struct {
	RateLimit     float64       // Genre lookups per second (default: 5)
	RetryAttempts int           // Attempts per remote mutation (default: 3)
	RetryDelay    time.Duration // Delay between attempts (default: 1s)
}

// LibraryEngine orchestrates the analysis and reconciliation stages against a
// single music service.
type LibraryEngine struct {
	service services.Service
	lookup  catalog.GenreLookup
	opts    EngineOpts
}

// NewLibraryEngine creates an engine for the given service.
//
// When lookup is nil, genre lookups go straight to the service; callers can
// supply a caching lookup instead (see repositories.CachedGenreLookup).
func NewLibraryEngine(service services.Service, lookup catalog.GenreLookup, opts EngineOpts) *LibraryEngine {
	if opts.RateLimit <= 0 {
		opts.RateLimit = 5.0
	}
	if opts.RetryAttempts <= 0 {
		opts.RetryAttempts = 3
	}
	if opts.RetryDelay <= 0 {
		opts.RetryDelay = time.Second
	}

	engine := &LibraryEngine{service: service, lookup: lookup, opts: opts}
	if engine.lookup == nil && service != nil {
		engine.lookup = service.ArtistGenres
	}
	return engine
}

// sendProgress sends a progress update through the channel without blocking.
// Uses select with default to ensure progress reporting never blocks execution.
func (e *LibraryEngine) sendProgress(progress chan<- ProgressUpdate, update ProgressUpdate) {
	if progress == nil {
		return
	}
	select {
	case progress <- update:
		// Sent successfully
	default:
		// Channel full or closed, skip this update
	}
}

// Analyze builds a fresh catalog snapshot of the saved-track library.
//
// Every pass re-fetches the full library; nothing is carried over from prior
// passes.
func (e *LibraryEngine) Analyze(ctx context.Context, progress chan<- ProgressUpdate) ([]catalog.Track, error) {
	if e.service == nil {
		return nil, fmt.Errorf("%w: service not initialized", shared.ErrRemoteUnavailable)
	}

	e.sendProgress(progress, fetchLibraryUpdate(0, 1))

	items, err := e.service.SavedTracks(ctx)
	if err != nil {
		return nil, fmt.Errorf("%w: failed to fetch saved tracks: %v", shared.ErrRemoteUnavailable, err)
	}

	e.sendProgress(progress, libraryFetchedUpdate(len(items)))

	total := len(items)
	opts := catalog.BuildOpts{
		RateLimit: e.opts.RateLimit,
		OnTrack: func(i int, item models.SavedTrack) {
			e.sendProgress(progress, lookupGenresUpdate(i+1, total, item.Title))
		},
	}

	return catalog.Build(ctx, items, e.lookup, opts)
}

// FindDuplicates scans a snapshot for duplicate groups.
func (e *LibraryEngine) FindDuplicates(snapshot []catalog.Track) []catalog.DuplicateGroup {
	return catalog.FindDuplicates(snapshot)
}

// RemoveDuplicates deletes every removable track in the given groups from the
// saved library.
//
// Destructive and irreversible: callers must have surfaced the groups for
// review first. A failed delete never blocks the remaining removals; outcomes
// are reported per track.
func (e *LibraryEngine) RemoveDuplicates(ctx context.Context, progress chan<- ProgressUpdate, groups []catalog.DuplicateGroup) *RemovalResult {
	result := &RemovalResult{}

	var removable []catalog.Track
	for _, group := range groups {
		if len(group.Tracks) < 2 {
			continue
		}
		_, extras := group.Resolve()
		removable = append(removable, extras...)
	}

	total := len(removable)
	for i, track := range removable {
		e.sendProgress(progress, removeDuplicateUpdate(i+1, total, track))

		trackID := track.ID
		err := services.Retry(ctx, e.opts.RetryAttempts, e.opts.RetryDelay, func() error {
			return e.service.RemoveSavedTrack(ctx, trackID)
		})
		if err != nil {
			err = fmt.Errorf("%w: failed to remove %q by %q: %v",
				shared.ErrRemoteUnavailable, track.Title, track.Artist, err)
			result.Failed++
		} else {
			result.Removed++
		}
		result.Outcomes = append(result.Outcomes, RemovalOutcome{Track: track, Err: err})
	}

	return result
}

// ManagedIndex discovers managed playlists by matching names against the
// store's naming template. An ambiguous name match is surfaced as an error
// rather than silently mis-extracted.
func (e *LibraryEngine) ManagedIndex(ctx context.Context, progress chan<- ProgressUpdate, store *rules.Store) (map[string]ManagedPlaylist, error) {
	e.sendProgress(progress, fetchPlaylistsUpdate())

	playlists, err := e.service.Playlists(ctx)
	if err != nil {
		return nil, fmt.Errorf("%w: failed to fetch playlists: %v", shared.ErrRemoteUnavailable, err)
	}

	template := store.NameTemplate()
	index := make(map[string]ManagedPlaylist)
	for _, playlist := range playlists {
		category, ok, err := template.Extract(playlist.Name)
		if err != nil {
			return nil, err
		}
		if !ok {
			continue
		}
		if _, exists := index[category]; exists {
			// First managed playlist per category wins; later duplicates are
			// left untouched.
			continue
		}
		index[category] = ManagedPlaylist{
			Category:   category,
			PlaylistID: playlist.ID,
			Name:       playlist.Name,
		}
	}

	return index, nil
}

// Plan computes the minimal additive mutation set bringing managed playlists
// in line with the categorized snapshot.
//
// Fallback-category tracks are never synced. Current playlist membership is
// fetched fresh, never cached, so re-running Plan with no intervening changes
// yields an empty plan.
func (e *LibraryEngine) Plan(ctx context.Context, progress chan<- ProgressUpdate, categorized *rules.CategorizedCatalog, store *rules.Store) ([]Mutation, error) {
	if e.service == nil {
		return nil, fmt.Errorf("%w: service not initialized", shared.ErrRemoteUnavailable)
	}

	existing, err := e.ManagedIndex(ctx, progress, store)
	if err != nil {
		return nil, err
	}

	var categories []string
	for _, category := range categorized.Categories() {
		if category != rules.FallbackCategory {
			categories = append(categories, category)
		}
	}

	var plan []Mutation
	for i, category := range categories {
		e.sendProgress(progress, planCategoryUpdate(i+1, len(categories), category))

		desired := categorized.TrackIDs(category)
		if len(desired) == 0 {
			continue
		}

		managed, ok := existing[category]
		if !ok {
			plan = append(plan, Mutation{
				Kind:        MutationCreatePlaylist,
				Category:    category,
				Name:        store.NameTemplate().Format(category),
				Description: store.DescriptionTemplate().Format(category),
				Public:      store.Public(),
				TrackIDs:    desired,
			})
			continue
		}

		current, err := e.service.PlaylistTrackIDs(ctx, managed.PlaylistID)
		if err != nil {
			return nil, fmt.Errorf("%w: failed to fetch tracks for %q: %v",
				shared.ErrRemoteUnavailable, managed.Name, err)
		}

		have := make(map[string]struct{}, len(current))
		for _, id := range current {
			have[id] = struct{}{}
		}

		var missing []string
		for _, id := range desired {
			if _, ok := have[id]; !ok {
				missing = append(missing, id)
			}
		}

		if len(missing) > 0 {
			plan = append(plan, Mutation{
				Kind:       MutationAddTracks,
				Category:   category,
				PlaylistID: managed.PlaylistID,
				TrackIDs:   missing,
			})
		}
	}

	return plan, nil
}

// Execute applies a reviewed plan.
//
// Track additions are chunked to the service's per-call limit while preserving
// set membership exactly. A failed mutation never blocks the remaining ones;
// outcomes are reported per mutation.
func (e *LibraryEngine) Execute(ctx context.Context, progress chan<- ProgressUpdate, plan []Mutation) *ExecuteResult {
	result := &ExecuteResult{}
	total := len(plan)

	for i, mutation := range plan {
		outcome := MutationOutcome{Mutation: mutation, PlaylistID: mutation.PlaylistID}

		switch mutation.Kind {
		case MutationCreatePlaylist:
			e.sendProgress(progress, createPlaylistUpdate(i+1, total, mutation.Name))

			playlistID, err := e.createWithTracks(ctx, mutation)
			outcome.PlaylistID = playlistID
			if err != nil {
				outcome.Err = err
			} else {
				outcome.Added = len(mutation.TrackIDs)
			}

		case MutationAddTracks:
			e.sendProgress(progress, addTracksUpdate(i+1, total, mutation.Category, len(mutation.TrackIDs)))

			if err := e.addChunked(ctx, mutation.PlaylistID, mutation.TrackIDs); err != nil {
				outcome.Err = err
			} else {
				outcome.Added = len(mutation.TrackIDs)
			}
		}

		if outcome.Err != nil {
			result.Failed++
		} else {
			result.Succeeded++
		}
		result.Outcomes = append(result.Outcomes, outcome)
	}

	return result
}

// createWithTracks creates the playlist then appends its full desired set.
func (e *LibraryEngine) createWithTracks(ctx context.Context, mutation Mutation) (string, error) {
	var playlistID string
	err := services.Retry(ctx, e.opts.RetryAttempts, e.opts.RetryDelay, func() error {
		id, err := e.service.CreatePlaylist(ctx, mutation.Name, mutation.Description, mutation.Public)
		if err != nil {
			return err
		}
		playlistID = id
		return nil
	})
	if err != nil {
		return "", fmt.Errorf("%w: failed to create playlist %q: %v",
			shared.ErrRemoteUnavailable, mutation.Name, err)
	}

	if err := e.addChunked(ctx, playlistID, mutation.TrackIDs); err != nil {
		return playlistID, err
	}
	return playlistID, nil
}

// addChunked appends track ids in service-limit-sized chunks, in order, with
// no drops and no duplicates.
func (e *LibraryEngine) addChunked(ctx context.Context, playlistID string, trackIDs []string) error {
	for start := 0; start < len(trackIDs); start += services.MaxTracksPerAdd {
		end := start + services.MaxTracksPerAdd
		if end > len(trackIDs) {
			end = len(trackIDs)
		}
		chunk := trackIDs[start:end]

		err := services.Retry(ctx, e.opts.RetryAttempts, e.opts.RetryDelay, func() error {
			return e.service.AddTracks(ctx, playlistID, chunk)
		})
		if err != nil {
			return fmt.Errorf("%w: failed to add tracks %d-%d: %v",
				shared.ErrRemoteUnavailable, start, end-1, err)
		}
	}
	return nil
}
