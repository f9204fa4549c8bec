package database

import (
	"database/sql"
	"encoding/json"
	"fmt"

	"github.com/dbarreiro/rundown-sync/app/rundown"
)

var _ ChangeRepository = (*SQLiteChangeRepository)(nil)

type SQLiteChangeRepository struct {
	db *DB
}

func NewChangeRepository(db *DB) *SQLiteChangeRepository {
	return &SQLiteChangeRepository{db: db}
}

func (r *SQLiteChangeRepository) InsertChange(record rundown.ChangeRecord) error {
	labels, err := json.Marshal(record.Labels)
	if err != nil {
		return fmt.Errorf("failed to encode labels: %w", err)
	}

	_, err = r.db.Exec(`
		INSERT INTO changes (rundown, entry_name, title, labels, detected_at)
		VALUES (?, ?, ?, ?, ?)
	`, record.Rundown, record.EntryName, record.Title, string(labels), record.DetectedAt)
	if err != nil {
		return fmt.Errorf("failed to insert change: %w", err)
	}

	return nil
}

func (r *SQLiteChangeRepository) GetRecentChanges(limit int) ([]Change, error) {
	rows, err := r.db.Query(`
		SELECT id, rundown, entry_name, title, labels, detected_at
		FROM changes
		ORDER BY detected_at DESC, id DESC
		LIMIT ?
	`, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to query changes: %w", err)
	}
	defer rows.Close()

	return scanChanges(rows)
}

func (r *SQLiteChangeRepository) GetChangesByRundown(rundownName string, limit int) ([]Change, error) {
	rows, err := r.db.Query(`
		SELECT id, rundown, entry_name, title, labels, detected_at
		FROM changes
		WHERE rundown = ?
		ORDER BY detected_at DESC, id DESC
		LIMIT ?
	`, rundownName, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to query changes for %s: %w", rundownName, err)
	}
	defer rows.Close()

	return scanChanges(rows)
}

func (r *SQLiteChangeRepository) GetChangeCount() (int, error) {
	var count int
	if err := r.db.QueryRow(`SELECT COUNT(*) FROM changes`).Scan(&count); err != nil {
		return 0, fmt.Errorf("failed to count changes: %w", err)
	}
	return count, nil
}

func (r *SQLiteChangeRepository) GetChangeCountByRundown(rundownName string) (int, error) {
	var count int
	err := r.db.QueryRow(`SELECT COUNT(*) FROM changes WHERE rundown = ?`, rundownName).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("failed to count changes for %s: %w", rundownName, err)
	}
	return count, nil
}

func scanChanges(rows *sql.Rows) ([]Change, error) {
	var changes []Change
	for rows.Next() {
		var change Change
		var labels string
		if err := rows.Scan(&change.ID, &change.Rundown, &change.EntryName, &change.Title, &labels, &change.DetectedAt); err != nil {
			return nil, fmt.Errorf("failed to scan change: %w", err)
		}
		if err := json.Unmarshal([]byte(labels), &change.Labels); err != nil {
			return nil, fmt.Errorf("failed to decode labels: %w", err)
		}
		changes = append(changes, change)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate changes: %w", err)
	}
	return changes, nil
}
