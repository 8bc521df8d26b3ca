package models

import (
	"fmt"
	"time"
)

// ArtistGenres is a cached genre tag set for one artist.
//
// Genre lookups are pure, so a cache hit is observably identical to a fresh
// fetch. Entries carry a fetched-at timestamp so callers can expire stale rows.
type ArtistGenres struct {
	id        string
	sequence  int
	artistID  string
	genres    []string
	fetchedAt time.Time
	createdAt time.Time
	updatedAt time.Time
	deletedAt *time.Time
}

// NewArtistGenres creates a cache entry for the given artist and tag set.
func NewArtistGenres(artistID string, genres []string) *ArtistGenres {
	now := time.Now()
	return &ArtistGenres{
		artistID:  artistID,
		genres:    genres,
		fetchedAt: now,
		createdAt: now,
		updatedAt: now,
	}
}

func (a *ArtistGenres) ID() string            { return a.id }
func (a *ArtistGenres) Sequence() int         { return a.sequence }
func (a *ArtistGenres) ArtistID() string      { return a.artistID }
func (a *ArtistGenres) Genres() []string      { return a.genres }
func (a *ArtistGenres) FetchedAt() time.Time  { return a.fetchedAt }
func (a *ArtistGenres) CreatedAt() time.Time  { return a.createdAt }
func (a *ArtistGenres) UpdatedAt() time.Time  { return a.updatedAt }
func (a *ArtistGenres) DeletedAt() *time.Time { return a.deletedAt }

func (a *ArtistGenres) SetID(id string)            { a.id = id }
func (a *ArtistGenres) SetSequence(seq int)        { a.sequence = seq }
func (a *ArtistGenres) SetGenres(genres []string)  { a.genres = genres }
func (a *ArtistGenres) SetFetchedAt(t time.Time)   { a.fetchedAt = t }
func (a *ArtistGenres) SetCreatedAt(t time.Time)   { a.createdAt = t }
func (a *ArtistGenres) SetUpdatedAt(t time.Time)   { a.updatedAt = t }
func (a *ArtistGenres) SetDeletedAt(t *time.Time)  { a.deletedAt = t }

// Validate checks that the entry references an artist.
func (a *ArtistGenres) Validate() error {
	if a.artistID == "" {
		return fmt.Errorf("artist_id is required")
	}
	return nil
}
