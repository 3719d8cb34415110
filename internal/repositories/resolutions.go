package repositories

import (
	"database/sql"
	"fmt"

	"github.com/desertthunder/mixsync/internal/cache"
	"github.com/desertthunder/mixsync/internal/models"
)

// ResolutionRepository implements cache.Store on a SQLite database.
//
// SaveAll replaces the whole table in one transaction so the on-disk cache
// is always a consistent snapshot, never a partial write.
type ResolutionRepository struct {
	db *sql.DB
}

// NewResolutionRepository creates a new ResolutionRepository with the given database connection
func NewResolutionRepository(db *sql.DB) *ResolutionRepository {
	return &ResolutionRepository{db: db}
}

// LoadAll reads every cached resolution.
func (r *ResolutionRepository) LoadAll() ([]cache.Entry, error) {
	rows, err := r.db.Query("SELECT key, video_id, negative, resolved_at FROM resolutions")
	if err != nil {
		return nil, fmt.Errorf("failed to query resolutions: %w", err)
	}
	defer rows.Close()

	var entries []cache.Entry
	for rows.Next() {
		var entry cache.Entry
		var key string
		var videoID sql.NullString

		if err := rows.Scan(&key, &videoID, &entry.Negative, &entry.ResolvedAt); err != nil {
			return nil, fmt.Errorf("failed to scan resolution: %w", err)
		}

		entry.Key = models.TrackKey(key)
		if videoID.Valid {
			entry.VideoID = videoID.String
		}
		entries = append(entries, entry)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate resolutions: %w", err)
	}

	return entries, nil
}

// SaveAll replaces the stored cache with the given entries.
func (r *ResolutionRepository) SaveAll(entries []cache.Entry) error {
	tx, err := r.db.Begin()
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.Exec("DELETE FROM resolutions"); err != nil {
		return fmt.Errorf("failed to clear resolutions: %w", err)
	}

	stmt, err := tx.Prepare("INSERT INTO resolutions (key, video_id, negative, resolved_at) VALUES (?, ?, ?, ?)")
	if err != nil {
		return fmt.Errorf("failed to prepare insert: %w", err)
	}
	defer stmt.Close()

	for _, entry := range entries {
		videoID := sql.NullString{String: entry.VideoID, Valid: entry.VideoID != ""}
		if _, err := stmt.Exec(string(entry.Key), videoID, entry.Negative, entry.ResolvedAt); err != nil {
			return fmt.Errorf("failed to insert resolution: %w", err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit resolutions: %w", err)
	}

	return nil
}

// Clear removes every cached resolution.
func (r *ResolutionRepository) Clear() error {
	if _, err := r.db.Exec("DELETE FROM resolutions"); err != nil {
		return fmt.Errorf("failed to clear resolutions: %w", err)
	}
	return nil
}

// Count returns the number of stored resolutions and how many are negative.
func (r *ResolutionRepository) Count() (total, negative int, err error) {
	err = r.db.QueryRow("SELECT COUNT(*), COALESCE(SUM(negative), 0) FROM resolutions").Scan(&total, &negative)
	if err != nil {
		return 0, 0, fmt.Errorf("failed to count resolutions: %w", err)
	}
	return total, negative, nil
}
