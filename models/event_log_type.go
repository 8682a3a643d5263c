package models

type EEventLogType string

const (
	LoggedIn            EEventLogType = "Logged in"
	LoggedOut           EEventLogType = "Logged out"
	SessionExpired      EEventLogType = "Session expired"
	AccountDeleted      EEventLogType = "Account deleted"
	PasswordReset       EEventLogType = "Password reset"
	ArticleCreated      EEventLogType = "Article created"
	ArticleUpdated      EEventLogType = "Article updated"
	ArticleDeleted      EEventLogType = "Article deleted"
	ArticleDeleteFailed EEventLogType = "Article delete failed"
)
