package extract

import (
	"io"
	"log/slog"
	"strings"
	"testing"

	"github.com/PuerkitoBio/goquery"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func parseHTML(t *testing.T, html string) *goquery.Document {
	t.Helper()
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(html))
	require.NoError(t, err)
	return doc
}

func TestContentExtractsTrimmedText(t *testing.T) {
	doc := parseHTML(t, `<html><body>
		<h1>  The Page Title  </h1>
		<div class="main"><p>Some body text.</p></div>
	</body></html>`)

	fields := Content(doc, map[string]string{
		"title":   "h1",
		"content": ".main",
	}, 1, testLogger())

	assert.Equal(t, "The Page Title", fields["title"])
	assert.Equal(t, "Some body text.", fields["content"])
}

func TestContentFirstMatchWins(t *testing.T) {
	doc := parseHTML(t, `<html><body><p>first paragraph</p><p>second</p></body></html>`)

	fields := Content(doc, map[string]string{"text": "p"}, 1, testLogger())

	assert.Equal(t, "first paragraph", fields["text"])
}

func TestContentMinLengthFilter(t *testing.T) {
	doc := parseHTML(t, `<html><body><h1>  tiny  </h1><p>long enough content here</p></body></html>`)

	fields := Content(doc, map[string]string{
		"title": "h1",
		"body":  "p",
	}, 10, testLogger())

	_, ok := fields["title"]
	assert.False(t, ok, "trimmed text below min length must be absent")
	assert.Equal(t, "long enough content here", fields["body"])
}

func TestContentMissingSelectorAbsent(t *testing.T) {
	doc := parseHTML(t, `<html><body><h1>Title</h1></body></html>`)

	fields := Content(doc, map[string]string{
		"title":  "h1",
		"author": ".author",
	}, 1, testLogger())

	assert.Equal(t, "Title", fields["title"])
	_, ok := fields["author"]
	assert.False(t, ok)
}

// A selector that fails to compile must not affect the remaining fields.
func TestContentInvalidSelectorIsolated(t *testing.T) {
	doc := parseHTML(t, `<html><body><h1>Title</h1></body></html>`)

	fields := Content(doc, map[string]string{
		"broken": "p:unknown-pseudo(",
		"title":  "h1",
	}, 1, testLogger())

	assert.Equal(t, map[string]string{"title": "Title"}, fields)
}
