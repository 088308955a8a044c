package model

import "time"

// PageResult is built once per successfully fetched page and handed to the
// persistence side. RawHTML goes to the object store only and is never
// serialized with the metadata.
type PageResult struct {
	URL           string            `json:"url"`
	RawHTML       string            `json:"-"`
	Fields        map[string]string `json:"fields,omitempty"`
	StatusCode    int               `json:"status_code"`
	ContentLength int               `json:"content_length"`
	ScrapedAt     time.Time         `json:"scraped_at"`
}

// Metadata flattens the page metadata and the extracted fields into a single
// document, the shape stored as <sanitizedURL>.json in the raw bucket.
func (p *PageResult) Metadata() map[string]any {
	m := map[string]any{
		"url":            p.URL,
		"scraped_at":     p.ScrapedAt.Unix(),
		"status_code":    p.StatusCode,
		"content_length": p.ContentLength,
	}
	for k, v := range p.Fields {
		m[k] = v
	}

	return m
}

// CrawlSummary is returned by the crawl loop. PagesScraped counts successes
// only; Attempted counts every URL that reached the fetch step.
type CrawlSummary struct {
	StartURL     string `json:"start_url"`
	PagesScraped int    `json:"pages_scraped"`
	Attempted    int    `json:"attempted"`
}
