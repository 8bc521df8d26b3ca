package catalog

import (
	"context"
	"fmt"

	"github.com/desertthunder/shelf/internal/models"
	"github.com/desertthunder/shelf/internal/shared"
	"golang.org/x/time/rate"
)

// GenreLookup returns the genre tag set for a single artist.
//
// Lookups are pure: the same artist id always yields the same tag set within
// one analysis pass, so implementations may cache freely.
type GenreLookup func(ctx context.Context, artistID string) ([]string, error)

// BuildOpts configures a catalog build.
type BuildOpts struct {
	RateLimit float64 // Genre lookups per second (default: 5)

	// OnTrack, when set, is invoked before each item is processed. Used by
	// callers to report progress.
	OnTrack func(i int, item models.SavedTrack)
}

// Build constructs a library snapshot from raw saved-track records.
//
// For each item the genre tag set is the union of tags across all of the
// track's artists, deduplicated in first-seen order. Output preserves input
// order and contains one Track per item; tracks with no genre tags are kept
// (they fall through to the fallback category later).
func Build(ctx context.Context, items []models.SavedTrack, lookup GenreLookup, opts BuildOpts) ([]Track, error) {
	if lookup == nil {
		return nil, fmt.Errorf("%w: genre lookup not provided", shared.ErrInvalidArgument)
	}
	if opts.RateLimit <= 0 {
		opts.RateLimit = 5.0
	}

	limiter := rate.NewLimiter(rate.Limit(opts.RateLimit), 1)

	// Lookups are pure, so memoizing per artist across tracks is observably
	// identical to fetching every time.
	memo := make(map[string][]string)

	tracks := make([]Track, 0, len(items))
	for i, item := range items {
		if opts.OnTrack != nil {
			opts.OnTrack(i, item)
		}

		var genres []string
		seen := make(map[string]struct{})

		for _, artist := range item.Artists {
			tags, ok := memo[artist.ID]
			if !ok {
				if err := limiter.Wait(ctx); err != nil {
					return nil, err
				}

				var err error
				tags, err = lookup(ctx, artist.ID)
				if err != nil {
					return nil, fmt.Errorf("%w: genre lookup for artist %s (track %q): %v",
						shared.ErrRemoteUnavailable, artist.ID, item.Title, err)
				}
				memo[artist.ID] = tags
			}

			for _, tag := range tags {
				if _, dup := seen[tag]; dup {
					continue
				}
				seen[tag] = struct{}{}
				genres = append(genres, tag)
			}
		}

		track := Track{
			ID:      item.ID,
			Title:   item.Title,
			Genres:  genres,
			AddedAt: item.AddedAt,
		}
		if len(item.Artists) > 0 {
			track.Artist = item.Artists[0].Name
		}

		tracks = append(tracks, track)
	}

	return tracks, nil
}
