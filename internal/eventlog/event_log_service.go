package eventlog

import (
	"context"
	"fmt"
	"time"

	"blogweb/db"
	"blogweb/internal/util"
	"blogweb/models"

	"go.uber.org/zap"
)

type EventLogService struct {
	Repository db.EventLogRepository
	logger     *zap.SugaredLogger
}

func NewEventLogService(repo db.EventLogRepository, logger *zap.SugaredLogger) *EventLogService {
	return &EventLogService{
		Repository: repo,
		logger:     logger,
	}
}

// Record stores an activity entry. Failures are logged and swallowed so that
// a broken activity log never breaks a page.
func (s *EventLogService) Record(ctx context.Context, username string, eventType models.EEventLogType, articleID string) {
	if s == nil || username == "" {
		return
	}

	now := time.Now().UTC()
	eventLog := &models.EventLog{
		Type:      eventType,
		Username:  username,
		CreatedAt: &now,
	}
	if articleID != "" {
		eventLog.ArticleID = &articleID
	}
	eventLog.Description = generateDescription(eventLog)

	err := util.RetryOnLock(ctx, s.logger, func() error {
		return s.Repository.Create(ctx, eventLog)
	})
	if err != nil {
		s.logger.Errorw("failed to record activity", "type", eventType, "username", username, "error", err)
	}
}

// GetAllByUsername returns the latest entries of one user.
func (s *EventLogService) GetAllByUsername(ctx context.Context, username string, limit int) ([]*models.EventLog, error) {
	return s.Repository.FindByUsername(ctx, username, limit)
}

func generateDescription(eventLog *models.EventLog) string {
	article := "an article"
	if eventLog.ArticleID != nil {
		article = fmt.Sprintf("article [%s]", *eventLog.ArticleID)
	}

	switch eventLog.Type {
	case models.LoggedIn:
		return "Signed in"
	case models.LoggedOut:
		return "Signed out"
	case models.SessionExpired:
		return "Session expired, signed out automatically"
	case models.AccountDeleted:
		return "Account deleted"
	case models.PasswordReset:
		return "Password was reset"
	case models.ArticleCreated:
		return "Published a new article"
	case models.ArticleUpdated:
		return fmt.Sprintf("Updated %s", article)
	case models.ArticleDeleted:
		return fmt.Sprintf("Deleted %s", article)
	case models.ArticleDeleteFailed:
		return fmt.Sprintf("Could not delete %s", article)
	default:
		return "Event occurred"
	}
}
