package session

import (
	"bufio"
	"context"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"sync"
	"testing"
	"time"

	"blogweb/internal/testutils"
	"blogweb/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"
)

type recordedEvent struct {
	Username string
	Type     models.EEventLogType
}

type fakeRecorder struct {
	mu     sync.Mutex
	events []recordedEvent
}

func (f *fakeRecorder) Record(_ context.Context, username string, eventType models.EEventLogType, _ string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.events = append(f.events, recordedEvent{username, eventType})
}

func (f *fakeRecorder) Events() []recordedEvent {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]recordedEvent(nil), f.events...)
}

// newMonitorServer wires a store and monitor the way the web router does,
// plus a /set endpoint that plays the part of the login page.
func newMonitorServer(t *testing.T, interval time.Duration) (*testutils.TestServer, *Monitor, *fakeRecorder) {
	t.Helper()
	logger := zaptest.NewLogger(t).Sugar()
	store := NewStore("test-session-secret", false, logger)
	recorder := &fakeRecorder{}
	monitor := NewMonitor(store, interval, recorder, logger)

	mux := http.NewServeMux()
	mux.HandleFunc("/set", func(w http.ResponseWriter, r *http.Request) {
		user := models.UserInfo{Username: r.URL.Query().Get("user")}
		if err := store.Save(w, r, r.URL.Query().Get("token"), user); err != nil {
			http.Error(w, err.Error(), http.StatusInternalServerError)
			return
		}
		w.WriteHeader(http.StatusNoContent)
	})
	page := monitor.Middleware(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		notices := store.Notices(w, r)
		name := "anonymous"
		if sess := FromContext(r.Context()); sess != nil {
			name = sess.User.Username
		}
		for _, n := range notices {
			fmt.Fprintf(w, "[%s] %s\n", n.Kind, n.Message)
		}
		fmt.Fprintln(w, "user:", name)
	}))
	mux.Handle("/page", page)
	mux.Handle(LoginPath, page)
	mux.HandleFunc("/session/events", monitor.Events)
	mux.HandleFunc("/session/expired", monitor.ExpiredHandler)

	return testutils.NewTestServer(t, mux), monitor, recorder
}

func login(t *testing.T, ts *testutils.TestServer, username string, expiresAt time.Time) {
	t.Helper()
	token := testutils.IssueToken(username, expiresAt)
	resp := ts.GET("/set?user=" + username + "&token=" + token)
	resp.Body.Close()
	require.Equal(t, http.StatusNoContent, resp.StatusCode)
}

func TestMonitor_Check(t *testing.T) {
	monitor := NewMonitor(nil, time.Minute, nil, zaptest.NewLogger(t).Sugar())
	now := time.Now()

	tests := []struct {
		name  string
		token string
		want  Status
	}{
		{"no token", "", Anonymous},
		{"live token", testutils.IssueToken("alice", now.Add(time.Hour)), Active},
		{"expired token", testutils.IssueToken("alice", now.Add(-time.Second)), Expired},
		{"malformed token", "garbage", Expired},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, monitor.Check(tt.token, now))
		})
	}
}

func TestMonitor_Watch(t *testing.T) {
	logger := zaptest.NewLogger(t).Sugar()

	t.Run("FiresWithinOneInterval", func(t *testing.T) {
		monitor := NewMonitor(nil, 20*time.Millisecond, nil, logger)
		token := testutils.IssueToken("alice", time.Now().Add(-time.Second))

		fired := 0
		start := time.Now()
		status := monitor.Watch(context.Background(), token, func() { fired++ })

		assert.Equal(t, Expired, status)
		assert.Equal(t, 1, fired)
		assert.Less(t, time.Since(start), 200*time.Millisecond)
	})

	t.Run("DetectsExpiryOnLaterTick", func(t *testing.T) {
		monitor := NewMonitor(nil, 10*time.Millisecond, nil, logger)
		expiry := time.Now().Add(time.Hour)
		token := testutils.IssueToken("alice", expiry)

		ticks := 0
		monitor.now = func() time.Time {
			ticks++
			if ticks < 3 {
				return expiry.Add(-time.Minute)
			}
			return expiry.Add(time.Minute)
		}

		fired := false
		status := monitor.Watch(context.Background(), token, func() { fired = true })
		assert.Equal(t, Expired, status)
		assert.True(t, fired)
		assert.Equal(t, 3, ticks)
	})

	t.Run("StopsOnCancel", func(t *testing.T) {
		monitor := NewMonitor(nil, 10*time.Millisecond, nil, logger)
		token := testutils.IssueToken("alice", time.Now().Add(time.Hour))

		ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
		defer cancel()

		fired := false
		status := monitor.Watch(ctx, token, func() { fired = true })
		assert.Equal(t, Active, status)
		assert.False(t, fired)
	})
}

func TestMonitor_Middleware(t *testing.T) {
	t.Run("ExpiredTokenClearsSessionAndRedirects", func(t *testing.T) {
		ts, _, recorder := newMonitorServer(t, time.Minute)
		login(t, ts, "alice", time.Now().Add(-time.Minute))

		resp := ts.GET("/page")
		resp.Body.Close()
		testutils.AssertRedirect(t, resp, LoginPath)

		body := testutils.ReadBody(t, ts.GET("/page"))
		assert.Contains(t, body, "[warning] "+ExpiredMessage)
		assert.Contains(t, body, "user: anonymous")

		assert.Equal(t, []recordedEvent{{"alice", models.SessionExpired}}, recorder.Events())
	})

	t.Run("NoticeShownOnce", func(t *testing.T) {
		ts, _, _ := newMonitorServer(t, time.Minute)
		login(t, ts, "alice", time.Now().Add(-time.Minute))
		ts.GET("/page").Body.Close()

		assert.Contains(t, testutils.ReadBody(t, ts.GET("/page")), ExpiredMessage)
		assert.NotContains(t, testutils.ReadBody(t, ts.GET("/page")), ExpiredMessage)
	})

	t.Run("LiveTokenPassesThrough", func(t *testing.T) {
		ts, _, recorder := newMonitorServer(t, time.Minute)
		login(t, ts, "alice", time.Now().Add(time.Hour))

		resp := ts.GET("/page")
		assert.Equal(t, http.StatusOK, resp.StatusCode)
		assert.Contains(t, testutils.ReadBody(t, resp), "user: alice")
		assert.Empty(t, recorder.Events())
	})

	t.Run("LoginPostReachesHandler", func(t *testing.T) {
		ts, _, recorder := newMonitorServer(t, time.Minute)
		login(t, ts, "alice", time.Now().Add(-time.Minute))

		resp := ts.POST(LoginPath, url.Values{"email": {"alice@example.com"}, "password": {"password123"}})
		body := testutils.ReadBody(t, resp)
		assert.Equal(t, http.StatusOK, resp.StatusCode)
		assert.Contains(t, body, "user: anonymous")
		assert.NotContains(t, body, ExpiredMessage)
		assert.Equal(t, []recordedEvent{{"alice", models.SessionExpired}}, recorder.Events())

		resp = ts.GET("/page")
		assert.Equal(t, http.StatusOK, resp.StatusCode)
		assert.Contains(t, testutils.ReadBody(t, resp), "user: anonymous")
	})

	t.Run("HTMXRequestGetsHXRedirect", func(t *testing.T) {
		ts, _, _ := newMonitorServer(t, time.Minute)
		login(t, ts, "alice", time.Now().Add(-time.Minute))

		req, err := http.NewRequest(http.MethodGet, ts.URL+"/page", nil)
		require.NoError(t, err)
		req.Header.Set("HX-Request", "true")
		resp, err := ts.Client.Do(req)
		require.NoError(t, err)
		resp.Body.Close()

		assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
		assert.Equal(t, LoginPath, resp.Header.Get("HX-Redirect"))
	})
}

func TestMonitor_Events(t *testing.T) {
	t.Run("EmitsExpiredWithinOneInterval", func(t *testing.T) {
		interval := 50 * time.Millisecond
		ts, _, _ := newMonitorServer(t, interval)
		// Still valid when the page opens, expired before the first tick ends.
		login(t, ts, "alice", time.Now().Add(time.Second))

		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		req, err := http.NewRequestWithContext(ctx, http.MethodGet, ts.URL+"/session/events", nil)
		require.NoError(t, err)

		start := time.Now()
		resp, err := ts.Client.Do(req)
		require.NoError(t, err)
		defer resp.Body.Close()
		assert.Equal(t, "text/event-stream", resp.Header.Get("Content-Type"))

		scanner := bufio.NewScanner(resp.Body)
		var event, data string
		for scanner.Scan() {
			line := scanner.Text()
			if strings.HasPrefix(line, "event: ") {
				event = strings.TrimPrefix(line, "event: ")
			}
			if strings.HasPrefix(line, "data: ") {
				data = strings.TrimPrefix(line, "data: ")
				break
			}
		}
		assert.Equal(t, "expired", event)
		assert.Equal(t, ExpiredPath, data)
		// exp has one-second resolution, so allow for that plus one interval.
		assert.Less(t, time.Since(start), 2*time.Second+interval)
	})

	t.Run("AnonymousGetsNoContent", func(t *testing.T) {
		ts, _, _ := newMonitorServer(t, time.Minute)
		resp := ts.GET("/session/events")
		resp.Body.Close()
		assert.Equal(t, http.StatusNoContent, resp.StatusCode)
	})
}

func TestMonitor_ExpiredHandler(t *testing.T) {
	t.Run("ClearsExpiredSession", func(t *testing.T) {
		ts, _, recorder := newMonitorServer(t, time.Minute)
		login(t, ts, "alice", time.Now().Add(-time.Minute))

		resp := ts.GET(ExpiredPath)
		resp.Body.Close()
		testutils.AssertRedirect(t, resp, LoginPath)

		body := testutils.ReadBody(t, ts.GET("/page"))
		assert.Contains(t, body, ExpiredMessage)
		assert.Contains(t, body, "user: anonymous")
		assert.Len(t, recorder.Events(), 1)
	})

	t.Run("KeepsLiveSession", func(t *testing.T) {
		ts, _, _ := newMonitorServer(t, time.Minute)
		login(t, ts, "alice", time.Now().Add(time.Hour))

		resp := ts.GET(ExpiredPath)
		resp.Body.Close()
		testutils.AssertRedirect(t, resp, "/")
		assert.Contains(t, testutils.ReadBody(t, ts.GET("/page")), "user: alice")
	})
}
