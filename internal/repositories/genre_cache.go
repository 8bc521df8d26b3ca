package repositories

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	"github.com/desertthunder/shelf/internal/catalog"
	"github.com/desertthunder/shelf/internal/models"
	"github.com/desertthunder/shelf/internal/shared"
)

// GenreCacheRepository persists per-artist genre tag sets.
//
// Genre tag sets are stored as JSON arrays with a fetched-at timestamp so
// stale entries can be expired. Soft deletes follow the usual deleted_at
// convention.
type GenreCacheRepository struct {
	db *sql.DB
}

// NewGenreCacheRepository creates a new GenreCacheRepository with the given database connection
func NewGenreCacheRepository(db *sql.DB) *GenreCacheRepository {
	return &GenreCacheRepository{db: db}
}

// Create inserts a new [models.ArtistGenres] entry with generated ID and sequence
func (r *GenreCacheRepository) Create(entry *models.ArtistGenres) error {
	sequence, err := NextSequence(r.db, "artist_genres")
	if err != nil {
		return fmt.Errorf("failed to generate sequence: %w", err)
	}

	id := shared.GenerateID()
	entry.SetID(id)
	entry.SetSequence(sequence)

	if err := entry.Validate(); err != nil {
		return fmt.Errorf("validation failed: %w", err)
	}

	genres, err := json.Marshal(entry.Genres())
	if err != nil {
		return fmt.Errorf("failed to encode genres: %w", err)
	}

	query := `
		INSERT INTO artist_genres (id, sequence, artist_id, genres, fetched_at, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?)
	`

	_, err = r.db.Exec(query,
		id,
		sequence,
		entry.ArtistID(),
		string(genres),
		entry.FetchedAt(),
		entry.CreatedAt(),
		entry.UpdatedAt(),
	)
	if err != nil {
		return fmt.Errorf("failed to insert genre cache entry: %w", err)
	}

	return nil
}

// Get retrieves an entry by ID, excluding soft-deleted entries
func (r *GenreCacheRepository) Get(id string) (*models.ArtistGenres, error) {
	query := `
		SELECT id, sequence, artist_id, genres, fetched_at, created_at, updated_at, deleted_at
		FROM artist_genres
		WHERE id = ? AND deleted_at IS NULL
	`

	return r.scanOne(r.db.QueryRow(query, id))
}

// GetByArtistID retrieves the cached tag set for one artist
func (r *GenreCacheRepository) GetByArtistID(artistID string) (*models.ArtistGenres, error) {
	query := `
		SELECT id, sequence, artist_id, genres, fetched_at, created_at, updated_at, deleted_at
		FROM artist_genres
		WHERE artist_id = ? AND deleted_at IS NULL
	`

	return r.scanOne(r.db.QueryRow(query, artistID))
}

// Update modifies an existing entry in the database
func (r *GenreCacheRepository) Update(entry *models.ArtistGenres) error {
	if err := entry.Validate(); err != nil {
		return fmt.Errorf("validation failed: %w", err)
	}

	now := time.Now()
	entry.SetUpdatedAt(now)

	genres, err := json.Marshal(entry.Genres())
	if err != nil {
		return fmt.Errorf("failed to encode genres: %w", err)
	}

	query := `
		UPDATE artist_genres
		SET genres = ?, fetched_at = ?, updated_at = ?
		WHERE id = ? AND deleted_at IS NULL
	`

	result, err := r.db.Exec(query, string(genres), entry.FetchedAt(), now, entry.ID())
	if err != nil {
		return fmt.Errorf("failed to update genre cache entry: %w", err)
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get affected rows: %w", err)
	}
	if rows == 0 {
		return fmt.Errorf("genre cache entry not found or already deleted: %s", entry.ID())
	}

	return nil
}

// Delete soft-deletes an entry by ID
func (r *GenreCacheRepository) Delete(id string) error {
	now := time.Now()

	query := `
		UPDATE artist_genres
		SET deleted_at = ?
		WHERE id = ? AND deleted_at IS NULL
	`

	result, err := r.db.Exec(query, now, id)
	if err != nil {
		return fmt.Errorf("failed to delete genre cache entry: %w", err)
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get affected rows: %w", err)
	}
	if rows == 0 {
		return fmt.Errorf("genre cache entry not found or already deleted: %s", id)
	}

	return nil
}

// List retrieves all entries, optionally filtered by artist_id
func (r *GenreCacheRepository) List(criteria map[string]any) ([]*models.ArtistGenres, error) {
	query := `
		SELECT id, sequence, artist_id, genres, fetched_at, created_at, updated_at, deleted_at
		FROM artist_genres
		WHERE deleted_at IS NULL
	`
	var args []any

	if artistID, ok := criteria["artist_id"]; ok {
		query += " AND artist_id = ?"
		args = append(args, artistID)
	}

	query += " ORDER BY sequence"

	rows, err := r.db.Query(query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list genre cache entries: %w", err)
	}
	defer rows.Close()

	var entries []*models.ArtistGenres
	for rows.Next() {
		entry, err := r.scanRow(rows)
		if err != nil {
			return nil, err
		}
		entries = append(entries, entry)
	}

	return entries, rows.Err()
}

func (r *GenreCacheRepository) scanOne(row *sql.Row) (*models.ArtistGenres, error) {
	var (
		id, artistID, genresJSON        string
		sequence                        int
		fetchedAt, createdAt, updatedAt time.Time
		deletedAt                       sql.NullTime
	)

	err := row.Scan(&id, &sequence, &artistID, &genresJSON, &fetchedAt, &createdAt, &updatedAt, &deletedAt)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to scan genre cache entry: %w", err)
	}

	return r.build(id, sequence, artistID, genresJSON, fetchedAt, createdAt, updatedAt, deletedAt)
}

func (r *GenreCacheRepository) scanRow(rows *sql.Rows) (*models.ArtistGenres, error) {
	var (
		id, artistID, genresJSON        string
		sequence                        int
		fetchedAt, createdAt, updatedAt time.Time
		deletedAt                       sql.NullTime
	)

	err := rows.Scan(&id, &sequence, &artistID, &genresJSON, &fetchedAt, &createdAt, &updatedAt, &deletedAt)
	if err != nil {
		return nil, fmt.Errorf("failed to scan genre cache entry: %w", err)
	}

	return r.build(id, sequence, artistID, genresJSON, fetchedAt, createdAt, updatedAt, deletedAt)
}

func (r *GenreCacheRepository) build(id string, sequence int, artistID, genresJSON string, fetchedAt, createdAt, updatedAt time.Time, deletedAt sql.NullTime) (*models.ArtistGenres, error) {
	var genres []string
	if err := json.Unmarshal([]byte(genresJSON), &genres); err != nil {
		return nil, fmt.Errorf("failed to decode genres: %w", err)
	}

	entry := models.NewArtistGenres(artistID, genres)
	entry.SetID(id)
	entry.SetSequence(sequence)
	entry.SetFetchedAt(fetchedAt)
	entry.SetCreatedAt(createdAt)
	entry.SetUpdatedAt(updatedAt)
	if deletedAt.Valid {
		t := deletedAt.Time
		entry.SetDeletedAt(&t)
	}

	return entry, nil
}

// CachedGenreLookup wraps a lookup with read-through caching against the
// repository. Entries older than maxAge are refreshed; a zero maxAge keeps
// entries forever.
//
// Cache failures fall back to the wrapped lookup, so a broken database never
// blocks an analysis pass.
func CachedGenreLookup(repo *GenreCacheRepository, lookup catalog.GenreLookup, maxAge time.Duration) catalog.GenreLookup {
	return func(ctx context.Context, artistID string) ([]string, error) {
		if entry, err := repo.GetByArtistID(artistID); err == nil && entry != nil {
			if maxAge <= 0 || time.Since(entry.FetchedAt()) < maxAge {
				return entry.Genres(), nil
			}
		}

		genres, err := lookup(ctx, artistID)
		if err != nil {
			return nil, err
		}

		if existing, cacheErr := repo.GetByArtistID(artistID); cacheErr == nil {
			if existing == nil {
				entry := models.NewArtistGenres(artistID, genres)
				_ = repo.Create(entry)
			} else {
				existing.SetGenres(genres)
				existing.SetFetchedAt(time.Now())
				_ = repo.Update(existing)
			}
		}

		return genres, nil
	}
}
