package extract

import (
	"log/slog"
	"net/url"
	"strings"

	"github.com/PuerkitoBio/goquery"
)

// skippedSchemes are href prefixes that never lead to a fetchable page.
var skippedSchemes = []string{"#", "javascript:", "mailto:", "tel:"}

// Links collects anchor hrefs from the document, resolves them against
// currentURL and keeps only those whose host equals domain exactly.
// Duplicates are allowed here; the frontier dedupes at enqueue time.
func Links(doc *goquery.Document, currentURL *url.URL, domain string, log *slog.Logger) []string {
	var links []string
	doc.Find("a[href]").Each(func(_ int, a *goquery.Selection) {
		href, _ := a.Attr("href")
		if href == "" {
			return
		}
		for _, prefix := range skippedSchemes {
			if strings.HasPrefix(href, prefix) {
				return
			}
		}

		ref, err := url.Parse(href)
		if err != nil {
			log.Debug("can't parse href. Skip the link.", slog.String("href", href),
				slog.String("err", err.Error()))
			return
		}
		absolute := currentURL.ResolveReference(ref)
		if absolute.Host == domain {
			links = append(links, absolute.String())
		}
	})

	return links
}
