package middleware

import (
	"net/http"

	"blogweb/internal/session"

	"go.uber.org/zap"
)

type Middleware struct {
	Sessions *session.Store
	logger   *zap.SugaredLogger
}

func NewMiddleware(sessions *session.Store, logger *zap.SugaredLogger) *Middleware {
	return &Middleware{Sessions: sessions, logger: logger}
}

// AuthMiddleware lets a request through when the browser holds a token. The
// token is not validated here; expiry is the session monitor's job and the
// remote API has the final word.
func (m *Middleware) AuthMiddleware(next http.HandlerFunc) http.HandlerFunc {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Cache-Control", "no-store")

		sess, err := m.Sessions.Load(r)
		if err != nil || !sess.IsAuthenticated() {
			LoggerFromContext(r.Context(), m.logger).Debugw("denied anonymous request", "path", r.URL.Path)
			session.Deny(w, r, session.LoginPath)
			return
		}

		if session.FromContext(r.Context()) == nil {
			r = r.WithContext(session.WithSession(r.Context(), sess))
		}
		next.ServeHTTP(w, r)
	})
}
