// package repositories provides SQLite persistence for cached remote data.
//
// The organizer keeps no durable history; the only persisted entity is the
// artist-genre cache, which is a pure optimization over repeated remote
// lookups.
package repositories

import (
	"database/sql"
	"fmt"
)

// NextSequence atomically increments and returns the next sequence number for
// the given table. Sequence numbers give rows a stable insertion order for
// sorting and debugging; they are never shown in CLI output.
//
// A single UPDATE ... RETURNING statement is atomic in SQLite, so no explicit
// transaction is needed.
func NextSequence(db *sql.DB, table string) (int, error) {
	var sequence int
	query := fmt.Sprintf("UPDATE %s_sequence SET value = value + 1 WHERE id = 1 RETURNING value", table)
	if err := db.QueryRow(query).Scan(&sequence); err != nil {
		return 0, fmt.Errorf("failed to advance %s sequence: %w", table, err)
	}
	return sequence, nil
}
