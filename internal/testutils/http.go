package testutils

import (
	"io"
	"net/http"
	"net/http/cookiejar"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"
)

// TestServer runs a handler behind a real listener and drives it like a
// browser: cookies persist between requests and redirects are not followed,
// so tests can assert on them.
type TestServer struct {
	*httptest.Server
	Client *http.Client
	t      *testing.T
}

func NewTestServer(t *testing.T, handler http.Handler) *TestServer {
	server := httptest.NewServer(handler)
	t.Cleanup(server.Close)

	jar, err := cookiejar.New(nil)
	require.NoError(t, err)

	return &TestServer{
		Server: server,
		Client: &http.Client{
			Jar: jar,
			CheckRedirect: func(*http.Request, []*http.Request) error {
				return http.ErrUseLastResponse
			},
		},
		t: t,
	}
}

func (ts *TestServer) GET(path string) *http.Response {
	resp, err := ts.Client.Get(ts.URL + path)
	require.NoError(ts.t, err)
	return resp
}

// POST submits an HTML form.
func (ts *TestServer) POST(path string, form url.Values) *http.Response {
	resp, err := ts.Client.PostForm(ts.URL+path, form)
	require.NoError(ts.t, err)
	return resp
}

// Follow issues a GET for the Location of a redirect response.
func (ts *TestServer) Follow(resp *http.Response) *http.Response {
	location := resp.Header.Get("Location")
	require.NotEmpty(ts.t, location, "response %d has no Location header", resp.StatusCode)
	resp.Body.Close()
	return ts.GET(location)
}

// Cookie returns the named cookie the client currently holds for the server.
func (ts *TestServer) Cookie(name string) *http.Cookie {
	u, err := url.Parse(ts.URL)
	require.NoError(ts.t, err)
	for _, c := range ts.Client.Jar.Cookies(u) {
		if c.Name == name {
			return c
		}
	}
	return nil
}

// ReadBody drains and closes the response body.
func ReadBody(t *testing.T, resp *http.Response) string {
	t.Helper()
	defer resp.Body.Close()
	data, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	return string(data)
}

// AssertRedirect checks for a 303 to location (query string ignored unless given).
func AssertRedirect(t *testing.T, resp *http.Response, location string) {
	t.Helper()
	require.Equal(t, http.StatusSeeOther, resp.StatusCode, "expected a redirect to %s", location)
	got := resp.Header.Get("Location")
	if !strings.Contains(location, "?") {
		got = strings.SplitN(got, "?", 2)[0]
	}
	require.Equal(t, location, got)
}
