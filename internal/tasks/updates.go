package tasks

import (
	"fmt"

	"github.com/desertthunder/shelf/internal/catalog"
)

// ProgressUpdate represents a progress event during a long-running operation.
//
// Used to send real-time updates to the CLI or UI layer for display.
type ProgressUpdate struct {
	Phase   Phase  // Operation phase
	Step    int    // Current step number within phase
	Total   int    // Total steps in this phase
	Message string // Human-readable message for display
	Data    any    // Optional phase-specific data for advanced UIs
}

// Operation phase enumeration
type Phase int

const (
	FetchLibrary Phase = iota
	LookupGenres
	ScanDuplicates
	RemoveDuplicate
	FetchPlaylists
	PlanSync
	CreatePlaylist
	AddTracks
)

func (p Phase) String() string {
	switch p {
	case FetchLibrary:
		return "fetch_library"
	case LookupGenres:
		return "lookup_genres"
	case ScanDuplicates:
		return "scan_duplicates"
	case RemoveDuplicate:
		return "remove_duplicate"
	case FetchPlaylists:
		return "fetch_playlists"
	case PlanSync:
		return "plan_sync"
	case CreatePlaylist:
		return "create_playlist"
	case AddTracks:
		return "add_tracks"
	default:
		return ""
	}
}

func fetchLibraryUpdate(step, total int) ProgressUpdate {
	return ProgressUpdate{
		Phase:   FetchLibrary,
		Step:    step,
		Total:   total,
		Message: "Fetching saved tracks...",
	}
}

func libraryFetchedUpdate(count int) ProgressUpdate {
	return ProgressUpdate{
		Phase:   FetchLibrary,
		Step:    1,
		Total:   1,
		Message: fmt.Sprintf("Found %d saved tracks", count),
	}
}

func lookupGenresUpdate(step, total int, title string) ProgressUpdate {
	return ProgressUpdate{
		Phase:   LookupGenres,
		Step:    step,
		Total:   total,
		Message: fmt.Sprintf("[%d/%d] Looking up genres: %s", step, total, title),
	}
}

func removeDuplicateUpdate(step, total int, track catalog.Track) ProgressUpdate {
	return ProgressUpdate{
		Phase:   RemoveDuplicate,
		Step:    step,
		Total:   total,
		Message: fmt.Sprintf("[%d/%d] Removing duplicate: %s - %s", step, total, track.Title, track.Artist),
		Data:    track,
	}
}

func fetchPlaylistsUpdate() ProgressUpdate {
	return ProgressUpdate{
		Phase:   FetchPlaylists,
		Step:    1,
		Total:   1,
		Message: "Fetching existing playlists...",
	}
}

func planCategoryUpdate(step, total int, category string) ProgressUpdate {
	return ProgressUpdate{
		Phase:   PlanSync,
		Step:    step,
		Total:   total,
		Message: fmt.Sprintf("[%d/%d] Planning category: %s", step, total, category),
	}
}

func createPlaylistUpdate(step, total int, name string) ProgressUpdate {
	return ProgressUpdate{
		Phase:   CreatePlaylist,
		Step:    step,
		Total:   total,
		Message: fmt.Sprintf("[%d/%d] Creating playlist: %s", step, total, name),
	}
}

func addTracksUpdate(step, total int, category string, count int) ProgressUpdate {
	return ProgressUpdate{
		Phase:   AddTracks,
		Step:    step,
		Total:   total,
		Message: fmt.Sprintf("[%d/%d] Adding %d tracks to %s", step, total, count, category),
	}
}
