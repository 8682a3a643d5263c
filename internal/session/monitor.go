package session

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"blogweb/internal/auth"
	"blogweb/models"

	"go.uber.org/zap"
)

const (
	LoginPath   = "/login"
	ExpiredPath = "/session/expired"

	ExpiredMessage = "Your session has expired. Please log in again."
)

// Status is the result of checking a stored token.
type Status int

const (
	Anonymous Status = iota
	Active
	Expired
)

func (s Status) String() string {
	switch s {
	case Active:
		return "active"
	case Expired:
		return "expired"
	default:
		return "anonymous"
	}
}

// ActivityRecorder receives the session events the monitor produces.
type ActivityRecorder interface {
	Record(ctx context.Context, username string, eventType models.EEventLogType, articleID string)
}

// Monitor ends sessions whose token has expired.
type Monitor struct {
	Store    *Store
	Interval time.Duration
	Activity ActivityRecorder
	logger   *zap.SugaredLogger
	now      func() time.Time
}

func NewMonitor(store *Store, interval time.Duration, activity ActivityRecorder, logger *zap.SugaredLogger) *Monitor {
	return &Monitor{
		Store:    store,
		Interval: interval,
		Activity: activity,
		logger:   logger,
		now:      time.Now,
	}
}

// Check reports the status of token at now. A token that cannot be decoded
// counts as expired.
func (m *Monitor) Check(token string, now time.Time) Status {
	if token == "" {
		return Anonymous
	}
	expired, err := auth.IsExpired(token, now)
	if err != nil {
		m.logger.Warnw("treating undecodable token as expired", "error", err)
		return Expired
	}
	if expired {
		return Expired
	}
	return Active
}

// Watch checks token every interval until ctx is done or the token expires,
// in which case onExpired runs once and Watch returns Expired.
func (m *Monitor) Watch(ctx context.Context, token string, onExpired func()) Status {
	ticker := time.NewTicker(m.Interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return m.Check(token, m.now())
		case <-ticker.C:
			status := m.Check(token, m.now())
			if status == Active {
				continue
			}
			if onExpired != nil {
				onExpired()
			}
			return status
		}
	}
}

// Middleware checks the stored token on every request. Expired sessions are
// cleared and the browser is sent to the login page; live ones are attached to
// the request context. A login form posted over an expired session goes
// through, so the submitted credentials are not lost.
func (m *Monitor) Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		sess, err := m.Store.Load(r)
		if errors.Is(err, ErrNoSession) {
			next.ServeHTTP(w, r)
			return
		}

		if m.Check(sess.Token, m.now()) == Expired {
			if r.Method == http.MethodPost && r.URL.Path == LoginPath {
				m.discard(w, r, sess)
				next.ServeHTTP(w, r)
				return
			}
			m.expire(w, r, sess)
			Deny(w, r, LoginPath)
			return
		}

		next.ServeHTTP(w, r.WithContext(WithSession(r.Context(), sess)))
	})
}

// Events streams session state to an open page as server-sent events. The
// stream ends with an "expired" event when the token runs out, or when the
// page goes away. It must not sit behind Middleware, which would answer an
// expired token with a redirect the EventSource cannot follow.
func (m *Monitor) Events(w http.ResponseWriter, r *http.Request) {
	sess, err := m.Store.Load(r)
	if err != nil {
		// 204 tells EventSource not to reconnect.
		w.WriteHeader(http.StatusNoContent)
		return
	}

	flusher, ok := w.(http.Flusher)
	if !ok {
		http.Error(w, "streaming unsupported", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	fmt.Fprintf(w, "retry: %d\n\n", m.Interval.Milliseconds())
	flusher.Flush()

	if m.Check(sess.Token, m.now()) != Active {
		writeExpired(w, flusher)
		return
	}

	m.Watch(r.Context(), sess.Token, func() {
		writeExpired(w, flusher)
	})
}

func writeExpired(w http.ResponseWriter, flusher http.Flusher) {
	fmt.Fprintf(w, "event: expired\ndata: %s\n\n", ExpiredPath)
	flusher.Flush()
}

// ExpiredHandler ends the session after the page saw an "expired" event.
func (m *Monitor) ExpiredHandler(w http.ResponseWriter, r *http.Request) {
	sess, err := m.Store.Load(r)
	if err == nil && m.Check(sess.Token, m.now()) == Active {
		// Still valid; a stale tab must not log the user out.
		http.Redirect(w, r, "/", http.StatusSeeOther)
		return
	}
	if err == nil {
		m.expire(w, r, sess)
	}
	http.Redirect(w, r, LoginPath, http.StatusSeeOther)
}

func (m *Monitor) expire(w http.ResponseWriter, r *http.Request, sess *models.Session) {
	m.discard(w, r, sess)
	m.Store.AddNotice(w, r, NoticeWarning, ExpiredMessage)
}

// discard clears an expired session and records it, without telling the user.
func (m *Monitor) discard(w http.ResponseWriter, r *http.Request, sess *models.Session) {
	if err := m.Store.Clear(w, r); err != nil {
		m.logger.Errorw("failed to clear expired session", "error", err)
	}
	if m.Activity != nil {
		m.Activity.Record(r.Context(), sess.User.Username, models.SessionExpired, "")
	}
	m.logger.Infow("session expired", "username", sess.User.Username)
}

// Deny sends the browser away to location. HTMX requests get a 401 with an
// HX-Redirect header instead of a 303.
func Deny(w http.ResponseWriter, r *http.Request, location string) {
	if r.Header.Get("HX-Request") == "true" {
		w.Header().Set("HX-Redirect", location)
		w.WriteHeader(http.StatusUnauthorized)
		return
	}
	http.Redirect(w, r, location, http.StatusSeeOther)
}
