package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"blogweb/internal/session"
	"blogweb/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest"
	"go.uber.org/zap/zaptest/observer"
)

func TestAuthMiddleware(t *testing.T) {
	logger := zaptest.NewLogger(t).Sugar()
	store := session.NewStore("test-session-secret", false, logger)
	m := NewMiddleware(store, logger)

	protected := m.AuthMiddleware(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("secret for " + session.FromContext(r.Context()).User.Username))
	})

	t.Run("NoTokenRedirectsToLogin", func(t *testing.T) {
		rec := httptest.NewRecorder()
		protected(rec, httptest.NewRequest(http.MethodGet, "/create", nil))

		assert.Equal(t, http.StatusSeeOther, rec.Code)
		assert.Equal(t, "/login", rec.Header().Get("Location"))
		assert.Equal(t, "no-store", rec.Header().Get("Cache-Control"))
	})

	t.Run("NoTokenHTMX", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodPost, "/blogs/1/delete", nil)
		req.Header.Set("HX-Request", "true")
		rec := httptest.NewRecorder()
		protected(rec, req)

		assert.Equal(t, http.StatusUnauthorized, rec.Code)
		assert.Equal(t, "/login", rec.Header().Get("HX-Redirect"))
	})

	t.Run("AnyTokenPasses", func(t *testing.T) {
		rec := httptest.NewRecorder()
		require.NoError(t, store.Save(rec, httptest.NewRequest(http.MethodPost, "/login", nil), "not-even-a-jwt", models.UserInfo{Username: "alice"}))

		req := httptest.NewRequest(http.MethodGet, "/create", nil)
		for _, c := range rec.Result().Cookies() {
			req.AddCookie(c)
		}
		rec = httptest.NewRecorder()
		protected(rec, req)

		assert.Equal(t, http.StatusOK, rec.Code)
		assert.Equal(t, "secret for alice", rec.Body.String())
	})
}

func TestLoggingMiddleware(t *testing.T) {
	core, logs := observer.New(zapcore.InfoLevel)
	logger := zap.New(core).Sugar()

	var ctxLogger *zap.SugaredLogger
	handler := LoggingMiddleware(logger)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ctxLogger = LoggerFromContext(r.Context(), nil)
		_, canFlush := w.(http.Flusher)
		assert.True(t, canFlush)
		w.WriteHeader(http.StatusTeapot)
	}))

	req := httptest.NewRequest(http.MethodGet, "/blogs/42", nil)
	req.Header.Set(RequestIDHeader, "req-1")
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	assert.NotNil(t, ctxLogger)
	assert.Equal(t, "req-1", rec.Header().Get(RequestIDHeader))

	entries := logs.FilterMessage("request").All()
	require.Len(t, entries, 1)
	fields := entries[0].ContextMap()
	assert.Equal(t, "/blogs/42", fields["path"])
	assert.Equal(t, int64(http.StatusTeapot), fields["status"])
	assert.Equal(t, "req-1", fields["request_id"])
}

func TestLoggingMiddleware_GeneratesRequestID(t *testing.T) {
	handler := LoggingMiddleware(zap.NewNop().Sugar())(http.NotFoundHandler())
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))
	assert.Len(t, rec.Header().Get(RequestIDHeader), 36)
}
