// package services defines interface Service for interacting with the music service HTTP API
package services

import (
	"context"
	"time"

	"github.com/desertthunder/shelf/internal/models"
)

// MaxTracksPerAdd is the remote service's items-per-call limit for playlist
// track additions. Callers chunk larger sets; see tasks.Execute.
const MaxTracksPerAdd = 100

// Service defines the capability set the organizer core consumes from a music
// service provider.
type Service interface {
	// Authenticate performs OAuth or token-based authentication with the service.
	Authenticate(ctx context.Context, credentials map[string]string) error

	// SavedTracks retrieves the user's entire saved-track library as a flat
	// sequence, paginating internally.
	SavedTracks(ctx context.Context) ([]models.SavedTrack, error)

	// ArtistGenres retrieves the genre tag set for a single artist.
	ArtistGenres(ctx context.Context, artistID string) ([]string, error)

	// Playlists retrieves all playlists owned by or followed by the user.
	Playlists(ctx context.Context) ([]models.Playlist, error)

	// PlaylistTrackIDs retrieves the ids of all tracks currently in a playlist.
	PlaylistTrackIDs(ctx context.Context, playlistID string) ([]string, error)

	// RemoveSavedTrack deletes one track from the user's saved library.
	// Destructive and irreversible.
	RemoveSavedTrack(ctx context.Context, trackID string) error

	// CreatePlaylist creates an empty playlist and returns its id.
	CreatePlaylist(ctx context.Context, name, description string, public bool) (string, error)

	// AddTracks appends up to [MaxTracksPerAdd] tracks to a playlist.
	AddTracks(ctx context.Context, playlistID string, trackIDs []string) error

	// Name returns the service name (e.g., "Spotify")
	Name() string
}

// Retry invokes fn up to attempts times, waiting delay between failures.
// Returns the last error when all attempts fail, or the context error if the
// context is cancelled while waiting.
func Retry(ctx context.Context, attempts int, delay time.Duration, fn func() error) error {
	if attempts <= 0 {
		attempts = 1
	}

	var err error
	for attempt := 0; attempt < attempts; attempt++ {
		if err = fn(); err == nil {
			return nil
		}
		if attempt == attempts-1 {
			break
		}
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(delay):
		}
	}
	return err
}
