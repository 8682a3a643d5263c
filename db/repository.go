package db

import (
	"context"
	"database/sql"

	"blogweb/models"

	"github.com/google/uuid"
)

// Repository defines a common interface for all repositories
type Repository interface {
	Close() error
}

// EventLogRepository defines the interface for activity log operations
type EventLogRepository interface {
	Repository
	Create(ctx context.Context, eventLog *models.EventLog) error
	FindByUsername(ctx context.Context, username string, limit int) ([]*models.EventLog, error)
}

// RepositoryFactory creates repositories over one connection
type RepositoryFactory struct {
	SQLiteDB *sql.DB
}

// NewRepositoryFactory creates a new repository factory
func NewRepositoryFactory(sqliteDB *sql.DB) *RepositoryFactory {
	return &RepositoryFactory{SQLiteDB: sqliteDB}
}

// NewEventLogRepository creates a new event log repository
func (f *RepositoryFactory) NewEventLogRepository() EventLogRepository {
	return NewSQLiteEventLogRepository(f.SQLiteDB)
}

// GenerateID generates a unique ID for a record
func GenerateID() string {
	return uuid.New().String()
}
