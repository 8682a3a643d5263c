package content

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestSanitize(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want string
	}{
		{"keeps formatting", "<p>Hello <strong>world</strong></p>", "<p>Hello <strong>world</strong></p>"},
		{"drops script", `<p>a</p><script>alert(1)</script>`, "<p>a</p>"},
		{"drops event handlers", `<p onclick="steal()">x</p>`, "<p>x</p>"},
		{"unwraps unknown tags", `<section><em>kept</em></section>`, "<em>kept</em>"},
		{"escapes text", `1 &lt; 2`, "1 &lt; 2"},
		{"void elements", `line<br>next`, "line<br/>next"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, string(Sanitize(tt.in)))
		})
	}
}

func TestSanitize_Links(t *testing.T) {
	out := string(Sanitize(`<a href="https://example.com" target="_blank">ok</a>`))
	assert.Equal(t, `<a href="https://example.com" rel="nofollow noopener">ok</a>`, out)

	out = string(Sanitize(`<a href="java&#x09;script:alert(1)">bad</a>`))
	assert.NotContains(t, out, "href")
	assert.Contains(t, out, "bad")

	out = string(Sanitize(`<img src="data:image/png;base64,xx" alt="pic">`))
	assert.Equal(t, `<img alt="pic"/>`, out)

	out = string(Sanitize(`<img src="/uploads/a.png">`))
	assert.Equal(t, `<img src="/uploads/a.png"/>`, out)
}

func TestPlainText(t *testing.T) {
	assert.Equal(t, "", PlainText(""))
	assert.Equal(t, "", PlainText("<p><br></p>"))
	assert.Equal(t, "", PlainText("<p>   </p><script>x()</script>"))
	assert.Equal(t, "Title One two", PlainText("<h1>Title</h1><p>One</p><p>two</p>"))
	assert.Equal(t, "a & b", PlainText("<p>a &amp; b</p>"))
}

func TestExcerpt(t *testing.T) {
	assert.Equal(t, "short", Excerpt("<p>short</p>", 20))

	long := "<p>" + strings.Repeat("word ", 50) + "</p>"
	got := Excerpt(long, 22)
	assert.True(t, strings.HasSuffix(got, "…"))
	assert.Equal(t, "word word word word…", got)

	// Multi-byte text is cut on rune boundaries.
	got = Excerpt("<p>สวัสดีครับทุกคน</p>", 5)
	assert.Equal(t, "สวัสด…", got)
}
