package catalog

import (
	"strings"
	"time"
)

// Track is one entry in a library snapshot. Immutable once built.
type Track struct {
	ID      string    `json:"id"`
	Title   string    `json:"title"`
	Artist  string    `json:"artist"`
	Genres  []string  `json:"genres"`
	AddedAt time.Time `json:"added_at"`
}

// Key is the duplicate identity of a track: the case-insensitive
// (title, artist) pair.
type Key struct {
	Title  string
	Artist string
}

// Key returns the duplicate identity for this track.
func (t Track) Key() Key {
	return NormalizeKey(t.Title, t.Artist)
}

// NormalizeKey lowers and trims a (title, artist) pair into a [Key].
func NormalizeKey(title, artist string) Key {
	return Key{
		Title:  strings.ToLower(strings.TrimSpace(title)),
		Artist: strings.ToLower(strings.TrimSpace(artist)),
	}
}

// HasGenres reports whether the track carries any genre tags.
func (t Track) HasGenres() bool {
	return len(t.Genres) > 0
}
