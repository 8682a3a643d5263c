package testutils

import (
	"path/filepath"
	"testing"
	"time"

	"blogweb/internal/config"
	"blogweb/models"

	"github.com/google/uuid"
)

func GetTestConfig(t *testing.T, apiURL string) *config.Config {
	return &config.Config{
		Port:                 "0",
		APIURL:               apiURL,
		APITimeout:           5 * time.Second,
		SessionSecret:        "test_session_secret_for_testing_only",
		SessionCheckInterval: 50 * time.Millisecond,
		SQLitePath:           filepath.Join(t.TempDir(), "test.db"),
		LogLevel:             "debug",
	}
}

func CreateTestArticle(author string) *models.Article {
	now := time.Now().UTC()
	return &models.Article{
		ID:        uuid.New().String(),
		Title:     "Test Article",
		Content:   "<p>Test content</p>",
		Author:    models.Author{Username: author},
		CreatedAt: now,
		UpdatedAt: now,
	}
}

func CreateTestEventLog(username string, eventType models.EEventLogType) *models.EventLog {
	now := time.Now()
	return &models.EventLog{
		Type:        eventType,
		Description: "Test event message",
		Username:    username,
		CreatedAt:   &now,
	}
}
