package store

import (
	"database/sql"
	"fmt"
	"time"
)

// IsFileProcessed reports whether the file at path was already ingested with
// the given content hash. A file whose hash changed since it was marked is
// considered unprocessed.
func (s *Store) IsFileProcessed(path, contentHash string) (bool, error) {
	var stored string
	err := s.db.QueryRow(
		`SELECT content_hash FROM processed_files WHERE file_path = ?`, path,
	).Scan(&stored)
	if err == sql.ErrNoRows {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("ledger lookup %s: %w", path, err)
	}
	return stored == contentHash, nil
}

// MarkFileProcessed records the file's content hash. Marking is idempotent;
// re-marking an already-recorded file updates its hash and timestamp.
func (s *Store) MarkFileProcessed(path, contentHash string) error {
	now := time.Now().UTC().Format(time.RFC3339)
	_, err := s.db.Exec(
		`INSERT INTO processed_files (file_path, content_hash, processed_at)
		 VALUES (?, ?, ?)
		 ON CONFLICT(file_path) DO UPDATE SET
			content_hash = excluded.content_hash,
			processed_at = excluded.processed_at`,
		path, contentHash, now,
	)
	if err != nil {
		return fmt.Errorf("ledger mark %s: %w", path, err)
	}
	return nil
}
