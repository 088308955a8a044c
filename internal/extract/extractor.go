// Package extract pulls structured fields and internal links out of a parsed
// page. Both operations isolate failures: a bad selector or a malformed href
// never affects the other fields or links on the page.
package extract

import (
	"log/slog"
	"strings"

	"github.com/PuerkitoBio/goquery"
	"github.com/andybalholm/cascadia"
)

// Content applies the field→selector mapping to the document. For each field
// the first matching element wins; no match, a selector that fails to
// compile, or trimmed text shorter than minLength leaves the field absent.
func Content(doc *goquery.Document, selectors map[string]string, minLength int, log *slog.Logger) map[string]string {
	fields := make(map[string]string, len(selectors))
	for field, selector := range selectors {
		sel, err := cascadia.Compile(selector)
		if err != nil {
			log.Warn("invalid selector. Skip the field.", slog.String("field", field),
				slog.String("selector", selector), slog.String("err", err.Error()))
			continue
		}
		match := doc.FindMatcher(sel).First()
		if match.Length() == 0 {
			log.Debug("no element found for selector.", slog.String("field", field),
				slog.String("selector", selector))
			continue
		}
		text := strings.TrimSpace(match.Text())
		if len(text) < minLength {
			log.Debug("content too short. Skip the field.", slog.String("field", field),
				slog.Int("length", len(text)))
			continue
		}
		fields[field] = text
	}

	return fields
}
