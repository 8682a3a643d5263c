package models

import (
	"time"
)

// EventLog is a local activity record for a user
type EventLog struct {
	ID          string        `json:"id"`
	Type        EEventLogType `json:"type"`
	Description string        `json:"description"`
	Username    string        `json:"username"`
	ArticleID   *string       `json:"article_id,omitempty"`
	CreatedAt   *time.Time    `json:"created_at,omitempty"`
}
