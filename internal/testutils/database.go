package testutils

import (
	"database/sql"
	"path/filepath"
	"testing"

	"blogweb/db"

	_ "github.com/mattn/go-sqlite3"
	"github.com/stretchr/testify/require"
)

func SetupTestDatabase(t *testing.T) *sql.DB {
	dbPath := filepath.Join(t.TempDir(), "test.db")

	testDB, err := sql.Open("sqlite3", dbPath+"?_journal_mode=WAL&_timeout=10000")
	require.NoError(t, err)
	t.Cleanup(func() { testDB.Close() })

	require.NoError(t, db.InitializeSchema(testDB))
	return testDB
}

func SetupTestRepositoryFactory(t *testing.T) *db.RepositoryFactory {
	return db.NewRepositoryFactory(SetupTestDatabase(t))
}
