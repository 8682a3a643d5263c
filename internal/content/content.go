// Package content handles the rich-text HTML of articles: it sanitises what
// the API returns before it is rendered and derives plain text from it.
package content

import (
	"bytes"
	"html/template"
	"strings"
	"unicode"

	"golang.org/x/net/html"
	"golang.org/x/net/html/atom"
)

var allowedTags = map[atom.Atom]bool{
	atom.P: true, atom.Br: true, atom.Hr: true, atom.Div: true, atom.Span: true,
	atom.Strong: true, atom.B: true, atom.Em: true, atom.I: true, atom.U: true, atom.S: true,
	atom.H1: true, atom.H2: true, atom.H3: true, atom.H4: true, atom.H5: true, atom.H6: true,
	atom.Ul: true, atom.Ol: true, atom.Li: true,
	atom.Blockquote: true, atom.Pre: true, atom.Code: true,
	atom.A: true, atom.Img: true,
	atom.Table: true, atom.Thead: true, atom.Tbody: true, atom.Tr: true, atom.Th: true, atom.Td: true,
}

// Elements dropped together with everything inside them.
var droppedTags = map[atom.Atom]bool{
	atom.Script: true, atom.Style: true, atom.Iframe: true, atom.Object: true,
	atom.Embed: true, atom.Form: true, atom.Noscript: true, atom.Template: true,
}

var allowedAttrs = map[atom.Atom]map[string]bool{
	atom.A:   {"href": true, "title": true},
	atom.Img: {"src": true, "alt": true, "title": true, "width": true, "height": true},
	atom.Td:  {"colspan": true, "rowspan": true},
	atom.Th:  {"colspan": true, "rowspan": true},
}

// Sanitize returns raw with every element, attribute and URL scheme outside
// the allow-list removed, ready to be embedded in a page.
func Sanitize(raw string) template.HTML {
	nodes, err := parseFragment(raw)
	if err != nil {
		return template.HTML(template.HTMLEscapeString(raw))
	}

	var buf bytes.Buffer
	for _, n := range nodes {
		writeClean(&buf, n)
	}
	return template.HTML(buf.String())
}

func parseFragment(raw string) ([]*html.Node, error) {
	body := &html.Node{Type: html.ElementNode, Data: "body", DataAtom: atom.Body}
	return html.ParseFragment(strings.NewReader(raw), body)
}

func writeClean(buf *bytes.Buffer, n *html.Node) {
	switch n.Type {
	case html.TextNode:
		buf.WriteString(html.EscapeString(n.Data))
		return
	case html.ElementNode:
	default:
		return
	}

	if droppedTags[n.DataAtom] {
		return
	}
	if !allowedTags[n.DataAtom] {
		// Unknown wrapper: keep its children.
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			writeClean(buf, c)
		}
		return
	}

	clean := &html.Node{Type: html.ElementNode, Data: n.Data, DataAtom: n.DataAtom}
	for _, a := range n.Attr {
		if a.Namespace != "" || !allowedAttrs[n.DataAtom][a.Key] {
			continue
		}
		if (a.Key == "href" || a.Key == "src") && !safeURL(a.Val) {
			continue
		}
		clean.Attr = append(clean.Attr, html.Attribute{Key: a.Key, Val: a.Val})
	}
	if n.DataAtom == atom.A {
		clean.Attr = append(clean.Attr, html.Attribute{Key: "rel", Val: "nofollow noopener"})
	}

	var inner bytes.Buffer
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		writeClean(&inner, c)
	}

	// Render the start tag through x/net/html so attribute values are escaped.
	var open bytes.Buffer
	if err := html.Render(&open, clean); err != nil {
		return
	}
	rendered := open.String()
	if isVoid(n.DataAtom) {
		buf.WriteString(rendered)
		return
	}
	closing := "</" + n.Data + ">"
	buf.WriteString(strings.TrimSuffix(rendered, closing))
	buf.Write(inner.Bytes())
	buf.WriteString(closing)
}

func isVoid(a atom.Atom) bool {
	return a == atom.Br || a == atom.Hr || a == atom.Img
}

func safeURL(raw string) bool {
	u := strings.ToLower(strings.TrimSpace(raw))
	u = strings.Map(func(r rune) rune {
		if unicode.IsSpace(r) || unicode.IsControl(r) {
			return -1
		}
		return r
	}, u)
	if i := strings.IndexAny(u, ":/?#"); i >= 0 && u[i] == ':' {
		scheme := u[:i]
		return scheme == "http" || scheme == "https" || scheme == "mailto"
	}
	return true
}

var blockTags = map[atom.Atom]bool{
	atom.P: true, atom.Br: true, atom.Div: true, atom.Li: true, atom.Tr: true,
	atom.H1: true, atom.H2: true, atom.H3: true, atom.H4: true, atom.H5: true, atom.H6: true,
	atom.Blockquote: true, atom.Pre: true,
}

// PlainText returns the visible text of raw with whitespace collapsed.
func PlainText(raw string) string {
	nodes, err := parseFragment(raw)
	if err != nil {
		return strings.Join(strings.Fields(raw), " ")
	}

	var sb strings.Builder
	var walk func(*html.Node)
	walk = func(n *html.Node) {
		switch {
		case n.Type == html.TextNode:
			sb.WriteString(n.Data)
		case n.Type == html.ElementNode && droppedTags[n.DataAtom]:
			return
		case n.Type == html.ElementNode && blockTags[n.DataAtom]:
			sb.WriteByte(' ')
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			walk(c)
		}
	}
	for _, n := range nodes {
		walk(n)
	}
	return strings.Join(strings.Fields(sb.String()), " ")
}

// Excerpt returns at most limit runes of the article's plain text, cut at a
// word boundary when possible.
func Excerpt(raw string, limit int) string {
	text := PlainText(raw)
	runes := []rune(text)
	if len(runes) <= limit {
		return text
	}

	cut := string(runes[:limit])
	if i := strings.LastIndexByte(cut, ' '); i > limit/2 {
		cut = cut[:i]
	}
	return strings.TrimRightFunc(cut, func(r rune) bool { return unicode.IsSpace(r) || unicode.IsPunct(r) }) + "…"
}
