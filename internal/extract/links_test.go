package extract

import (
	"net/url"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func currentPage(t *testing.T, rawURL string) *url.URL {
	t.Helper()
	u, err := url.Parse(rawURL)
	require.NoError(t, err)
	return u
}

func TestLinksDomainFilter(t *testing.T) {
	doc := parseHTML(t, `<html><body>
		<a href="http://a.test/x">internal</a>
		<a href="http://b.test/y">external</a>
		<a href="http://sub.a.test/z">subdomain</a>
	</body></html>`)

	links := Links(doc, currentPage(t, "http://a.test/"), "a.test", testLogger())

	assert.Equal(t, []string{"http://a.test/x"}, links)
}

func TestLinksResolveRelative(t *testing.T) {
	doc := parseHTML(t, `<html><body>
		<a href="/absolute-path">one</a>
		<a href="sibling">two</a>
		<a href="../up">three</a>
	</body></html>`)

	links := Links(doc, currentPage(t, "http://a.test/dir/page"), "a.test", testLogger())

	assert.Equal(t, []string{
		"http://a.test/absolute-path",
		"http://a.test/dir/sibling",
		"http://a.test/up",
	}, links)
}

func TestLinksSkipNonNavigableSchemes(t *testing.T) {
	doc := parseHTML(t, `<html><body>
		<a href="#section">fragment</a>
		<a href="javascript:void(0)">js</a>
		<a href="mailto:x@a.test">mail</a>
		<a href="tel:+123">phone</a>
		<a href="">empty</a>
		<a href="/real">real</a>
	</body></html>`)

	links := Links(doc, currentPage(t, "http://a.test/"), "a.test", testLogger())

	assert.Equal(t, []string{"http://a.test/real"}, links)
}

func TestLinksMalformedHrefDropped(t *testing.T) {
	doc := parseHTML(t, `<html><body>
		<a href="http://a.test/%zz">broken escape</a>
		<a href="/fine">fine</a>
	</body></html>`)

	links := Links(doc, currentPage(t, "http://a.test/"), "a.test", testLogger())

	assert.Equal(t, []string{"http://a.test/fine"}, links)
}

func TestLinksDuplicatesKept(t *testing.T) {
	doc := parseHTML(t, `<html><body>
		<a href="/x">one</a>
		<a href="/x">again</a>
	</body></html>`)

	links := Links(doc, currentPage(t, "http://a.test/"), "a.test", testLogger())

	assert.Len(t, links, 2, "per-page dedup is the frontier's job")
}
