package session

import (
	"context"
	"encoding/gob"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"

	"blogweb/internal/auth"
	"blogweb/models"

	"github.com/gorilla/sessions"
	"go.uber.org/zap"
)

const (
	CookieName = "blog-session"

	tokenKey    = "token"
	userInfoKey = "user_info"

	// maxAge keeps the cookie for a week; the token's own expiry ends the session sooner.
	maxAge = 86400 * 7
)

// ErrNoSession is returned when a request carries no token.
var ErrNoSession = errors.New("no session")

// Notice kinds
const (
	NoticeInfo    = "info"
	NoticeSuccess = "success"
	NoticeWarning = "warning"
	NoticeError   = "error"
)

// Notice is a one-shot message shown on the next rendered page.
type Notice struct {
	Kind    string
	Message string
}

func init() {
	gob.Register(Notice{})
}

// Store keeps the browser session in a signed cookie.
type Store struct {
	cookies *sessions.CookieStore
	logger  *zap.SugaredLogger
}

func NewStore(secret string, secure bool, logger *zap.SugaredLogger) *Store {
	cookies := sessions.NewCookieStore([]byte(secret))
	cookies.Options = &sessions.Options{
		Path:     "/",
		MaxAge:   maxAge,
		HttpOnly: true,
		Secure:   secure,
		SameSite: http.SameSiteLaxMode,
	}
	return &Store{cookies: cookies, logger: logger}
}

func (s *Store) get(r *http.Request) *sessions.Session {
	sess, err := s.cookies.Get(r, CookieName)
	if err != nil {
		// A tampered or stale cookie yields a fresh session.
		s.logger.Debugw("discarding unreadable session cookie", "error", err)
	}
	return sess
}

// Load returns the stored session, or ErrNoSession when no token is stored.
func (s *Store) Load(r *http.Request) (*models.Session, error) {
	values := s.get(r).Values
	token, _ := values[tokenKey].(string)
	if token == "" {
		return nil, ErrNoSession
	}

	sess := &models.Session{Token: token}
	if raw, ok := values[userInfoKey].(string); ok && raw != "" {
		if err := json.Unmarshal([]byte(raw), &sess.User); err != nil {
			s.logger.Warnw("ignoring malformed user info in session", "error", err)
		}
	}
	if sess.User.Username == "" {
		if claims, err := auth.Decode(token); err == nil {
			sess.User.Username = claims.Username
		}
	}
	return sess, nil
}

// Save stores token and user info, replacing any previous session.
func (s *Store) Save(w http.ResponseWriter, r *http.Request, token string, user models.UserInfo) error {
	userInfo, err := json.Marshal(user)
	if err != nil {
		return fmt.Errorf("failed to encode user info: %w", err)
	}

	sess := s.get(r)
	sess.Values[tokenKey] = token
	sess.Values[userInfoKey] = string(userInfo)
	if err := sess.Save(r, w); err != nil {
		return fmt.Errorf("failed to save session: %w", err)
	}
	return nil
}

// Clear removes token and user info. Pending notices survive.
func (s *Store) Clear(w http.ResponseWriter, r *http.Request) error {
	sess := s.get(r)
	delete(sess.Values, tokenKey)
	delete(sess.Values, userInfoKey)
	if err := sess.Save(r, w); err != nil {
		return fmt.Errorf("failed to clear session: %w", err)
	}
	return nil
}

// AddNotice queues a notice for the next rendered page.
func (s *Store) AddNotice(w http.ResponseWriter, r *http.Request, kind, message string) {
	sess := s.get(r)
	sess.AddFlash(Notice{Kind: kind, Message: message})
	if err := sess.Save(r, w); err != nil {
		s.logger.Errorw("failed to queue notice", "error", err)
	}
}

// Notices pops the queued notices. It must run before the response body is written.
func (s *Store) Notices(w http.ResponseWriter, r *http.Request) []Notice {
	sess := s.get(r)
	flashes := sess.Flashes()
	if len(flashes) == 0 {
		return nil
	}
	if err := sess.Save(r, w); err != nil {
		s.logger.Errorw("failed to drop shown notices", "error", err)
	}

	notices := make([]Notice, 0, len(flashes))
	for _, f := range flashes {
		if n, ok := f.(Notice); ok {
			notices = append(notices, n)
		}
	}
	return notices
}

type contextKey struct{}

// WithSession returns a copy of ctx carrying sess.
func WithSession(ctx context.Context, sess *models.Session) context.Context {
	return context.WithValue(ctx, contextKey{}, sess)
}

// FromContext returns the session the monitor attached to ctx, if any.
func FromContext(ctx context.Context) *models.Session {
	sess, _ := ctx.Value(contextKey{}).(*models.Session)
	return sess
}
