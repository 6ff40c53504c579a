package storage

import (
	"context"
	"fmt"

	"github.com/claude/lightweight/internal/models"
)

// InsertImportLog creates a new import log entry and returns its ID.
func (db *DB) InsertImportLog(ctx context.Context, log models.ImportLog) (int64, error) {
	var id int64
	err := db.Pool.QueryRow(ctx,
		`INSERT INTO import_logs (batch_id, source, status, sessions_received, sessions_inserted,
		 exercises_created, sets_inserted, duration_ms, error_message, metadata)
		 VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10)
		 RETURNING id`,
		log.BatchID, log.Source, log.Status, log.SessionsReceived, log.SessionsInserted,
		log.ExercisesCreated, log.SetsInserted, log.DurationMs, log.ErrorMessage, log.Metadata,
	).Scan(&id)
	if err != nil {
		return 0, fmt.Errorf("inserting import log: %w", translate(err, "import log"))
	}
	return id, nil
}

// UpdateImportLog updates an existing import log entry (typically from "running" to "success" or "error").
func (db *DB) UpdateImportLog(ctx context.Context, id int64, log models.ImportLog) error {
	_, err := db.Pool.Exec(ctx,
		`UPDATE import_logs SET
		 status = $2, sessions_received = $3, sessions_inserted = $4,
		 exercises_created = $5, sets_inserted = $6, duration_ms = $7,
		 error_message = $8, metadata = $9
		 WHERE id = $1`,
		id, log.Status, log.SessionsReceived, log.SessionsInserted,
		log.ExercisesCreated, log.SetsInserted, log.DurationMs, log.ErrorMessage, log.Metadata,
	)
	if err != nil {
		return fmt.Errorf("updating import log %d: %w", id, translate(err, "import log"))
	}
	return nil
}

// QueryImportLogs returns the most recent import logs.
func (db *DB) QueryImportLogs(ctx context.Context, limit int) ([]models.ImportLog, error) {
	if limit <= 0 {
		limit = 50
	}
	rows, err := db.Pool.Query(ctx,
		`SELECT id, batch_id, created_at, source, status, sessions_received, sessions_inserted,
		 exercises_created, sets_inserted, duration_ms, error_message, metadata
		 FROM import_logs
		 ORDER BY created_at DESC, id DESC
		 LIMIT $1`, limit)
	if err != nil {
		return nil, fmt.Errorf("querying import logs: %w", translate(err, "import logs"))
	}
	defer rows.Close()

	result := []models.ImportLog{}
	for rows.Next() {
		var l models.ImportLog
		if err := rows.Scan(&l.ID, &l.BatchID, &l.CreatedAt, &l.Source, &l.Status,
			&l.SessionsReceived, &l.SessionsInserted, &l.ExercisesCreated, &l.SetsInserted,
			&l.DurationMs, &l.ErrorMessage, &l.Metadata); err != nil {
			return nil, fmt.Errorf("scanning import log: %w", err)
		}
		l.CreatedAt = l.CreatedAt.UTC()
		result = append(result, l)
	}
	return result, rows.Err()
}
