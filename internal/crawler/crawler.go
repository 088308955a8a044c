// Package crawler runs the bounded BFS crawl of a single domain: frontier in,
// robots gate, throttle, fetch, extract, persist, newly discovered links back
// into the frontier. The loop is strictly sequential so at most one request
// is in flight against the target site at any time.
package crawler

import (
	"bytes"
	"context"
	"fmt"
	"log/slog"
	"net/url"
	"strings"
	"sync"
	"time"

	"github.com/IliaW/site-crawl-worker/config"
	"github.com/IliaW/site-crawl-worker/internal/aws_s3"
	"github.com/IliaW/site-crawl-worker/internal/cache"
	"github.com/IliaW/site-crawl-worker/internal/extract"
	"github.com/IliaW/site-crawl-worker/internal/fetch"
	"github.com/IliaW/site-crawl-worker/internal/frontier"
	"github.com/IliaW/site-crawl-worker/internal/limiter"
	"github.com/IliaW/site-crawl-worker/internal/model"
	"github.com/IliaW/site-crawl-worker/internal/persistence"
	"github.com/IliaW/site-crawl-worker/internal/robots"
	"github.com/PuerkitoBio/goquery"
	jsoniter "github.com/json-iterator/go"
)

// rawBucket is where both objects of every crawled page land.
const rawBucket = "raw"

var keySanitizer = strings.NewReplacer("://", "_", "/", "_", "?", "_", "&", "_")

type Crawler struct {
	Cfg        *config.CrawlerConfig
	Log        *slog.Logger
	Fetcher    *fetch.Client
	Robots     *robots.Policy
	Limiter    *limiter.ThrottleLimiter
	S3         aws_s3.BucketClient
	Cache      cache.CachedClient
	Db         persistence.MetadataStorage
	ResultChan chan<- *model.PageResult
}

// Run crawls from the configured site_url until the frontier empties, the
// page cap is reached, or ctx is canceled. The returned summary is valid in
// every case; the error is non-nil only for a bad seed url or cancellation.
func (c *Crawler) Run(ctx context.Context) (*model.CrawlSummary, error) {
	summary := &model.CrawlSummary{StartURL: c.Cfg.SiteURL}
	startURL, err := url.Parse(c.Cfg.SiteURL)
	if err != nil {
		return summary, fmt.Errorf("invalid site_url %q: %w", c.Cfg.SiteURL, err)
	}
	if startURL.Host == "" {
		return summary, fmt.Errorf("invalid site_url %q: missing host", c.Cfg.SiteURL)
	}
	domain := startURL.Host

	c.Log.Info(fmt.Sprintf("starting crawl of %s.", c.Cfg.SiteURL), slog.Int("max_pages", c.Cfg.MaxPages))
	queue := frontier.NewQueue()
	queue.Enqueue(c.Cfg.SiteURL)

	for queue.Len() > 0 && summary.PagesScraped < c.Cfg.MaxPages {
		select {
		case <-ctx.Done():
			c.Log.Warn("crawl interrupted.", slog.Int("pages_scraped", summary.PagesScraped))
			return summary, ctx.Err()
		default:
		}

		rawURL, ok := queue.Dequeue()
		if !ok {
			break
		}
		// Should not happen: the frontier never enqueues a visited url.
		if queue.Visited(rawURL) {
			continue
		}
		pageURL, err := url.Parse(rawURL)
		if err != nil {
			c.Log.Warn("can't parse url from the frontier. Skip.", slog.String("url", rawURL),
				slog.String("err", err.Error()))
			continue
		}

		if !c.Robots.IsAllowed(pageURL) {
			c.Log.Warn("skipping url. Not allowed by robots.txt.", slog.String("url", rawURL))
			continue
		}
		c.Limiter.Wait()

		summary.Attempted++
		resp, err := c.Fetcher.Get(rawURL)
		if err != nil {
			c.Log.Error("fetch failed.", slog.String("url", rawURL), slog.String("err", err.Error()))
			continue
		}
		doc, err := goquery.NewDocumentFromReader(bytes.NewReader(resp.Body))
		if err != nil {
			c.Log.Error("failed to parse html.", slog.String("url", rawURL),
				slog.String("err", err.Error()))
			continue
		}

		page := &model.PageResult{
			URL:           rawURL,
			RawHTML:       string(resp.Body),
			Fields:        extract.Content(doc, c.Cfg.Selectors, c.Cfg.MinContentLength, c.Log),
			StatusCode:    resp.StatusCode,
			ContentLength: resp.ContentLength,
			ScrapedAt:     time.Now(),
		}
		c.persist(ctx, page)

		queue.MarkVisited(rawURL)
		summary.PagesScraped++
		c.Log.Info("crawled.", slog.String("url", rawURL),
			slog.String("progress", fmt.Sprintf("%d/%d", summary.PagesScraped, c.Cfg.MaxPages)))

		for _, link := range extract.Links(doc, pageURL, domain, c.Log) {
			queue.Enqueue(link)
		}
	}
	c.Log.Info("crawl completed.", slog.Int("pages_scraped", summary.PagesScraped),
		slog.Int("attempted", summary.Attempted))

	return summary, nil
}

// persist writes the raw html and the metadata document as two concurrent
// uploads and waits for both before the loop advances, then records the s3
// link and the metadata row. All failures here are best-effort: the page is
// still counted and marked visited by the caller.
func (c *Crawler) persist(ctx context.Context, page *model.PageResult) {
	sanitized := keySanitizer.Replace(page.URL)
	htmlKey := sanitized + ".html"
	jsonKey := sanitized + ".json"

	metadata, err := jsoniter.MarshalIndent(page.Metadata(), "", "  ")
	if err != nil {
		c.Log.Error("failed to marshal page metadata.", slog.String("url", page.URL),
			slog.String("err", err.Error()))
	}

	wg := &sync.WaitGroup{}
	wg.Add(2)
	go func() {
		defer wg.Done()
		_ = c.S3.Upload(ctx, rawBucket, htmlKey, []byte(page.RawHTML), "text/html")
	}()
	go func() {
		defer wg.Done()
		if metadata != nil {
			_ = c.S3.Upload(ctx, rawBucket, jsonKey, metadata, "application/json")
		}
	}()
	wg.Wait()

	c.Cache.SaveS3Link(page.URL, fmt.Sprintf("s3://%s/%s", rawBucket, htmlKey))
	c.Db.Save(page)
	c.ResultChan <- page
}
