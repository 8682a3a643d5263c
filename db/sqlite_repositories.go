package db

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"blogweb/models"
)

// SQLiteEventLogRepository implements the EventLogRepository interface for SQLite
type SQLiteEventLogRepository struct {
	db *sql.DB
}

// NewSQLiteEventLogRepository creates a new SQLiteEventLogRepository
func NewSQLiteEventLogRepository(db *sql.DB) *SQLiteEventLogRepository {
	return &SQLiteEventLogRepository{db: db}
}

// Close closes the database connection
func (r *SQLiteEventLogRepository) Close() error {
	return r.db.Close()
}

// Create creates a new event log
func (r *SQLiteEventLogRepository) Create(ctx context.Context, eventLog *models.EventLog) error {
	if eventLog.ID == "" {
		eventLog.ID = GenerateID()
	}
	if eventLog.CreatedAt == nil {
		now := time.Now().UTC()
		eventLog.CreatedAt = &now
	}

	query := `INSERT INTO event_logs (id, type, description, username, article_id, created_at)
			  VALUES (?, ?, ?, ?, ?, ?)`

	_, err := r.db.ExecContext(ctx, query,
		eventLog.ID, eventLog.Type, eventLog.Description, eventLog.Username,
		nullableString(eventLog.ArticleID), eventLog.CreatedAt.UTC(),
	)
	if err != nil {
		return fmt.Errorf("error inserting event log: %w", err)
	}

	return nil
}

// FindByUsername finds the latest event logs of one user
func (r *SQLiteEventLogRepository) FindByUsername(ctx context.Context, username string, limit int) ([]*models.EventLog, error) {
	query := `SELECT id, type, description, username, article_id, created_at
			  FROM event_logs WHERE username = ? ORDER BY created_at DESC LIMIT ?`

	rows, err := r.db.QueryContext(ctx, query, username, limit)
	if err != nil {
		return nil, fmt.Errorf("error querying user event logs: %w", err)
	}
	defer rows.Close()

	return scanEventLogs(rows)
}

func scanEventLogs(rows *sql.Rows) ([]*models.EventLog, error) {
	var logs []*models.EventLog
	for rows.Next() {
		var log models.EventLog
		var articleID sql.NullString
		var createdAt sql.NullTime

		err := rows.Scan(&log.ID, &log.Type, &log.Description, &log.Username, &articleID, &createdAt)
		if err != nil {
			return nil, fmt.Errorf("error scanning event log: %w", err)
		}

		if articleID.Valid {
			log.ArticleID = &articleID.String
		}
		if createdAt.Valid {
			log.CreatedAt = &createdAt.Time
		}

		logs = append(logs, &log)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating event logs: %w", err)
	}

	return logs, nil
}

func nullableString(s *string) interface{} {
	if s == nil {
		return nil
	}
	return *s
}
