package robots

import (
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"time"

	"github.com/IliaW/site-crawl-worker/config"
	"github.com/patrickmn/go-cache"
	"github.com/temoto/robotstxt"
)

// maxRobotsBodySize limits how much of a robots.txt response is read.
const maxRobotsBodySize = 512 * 1024

// Policy answers robots.txt allow/deny for the crawl session. Directives are
// fetched lazily, once per domain, and cached until the session ends. Any
// failure to fetch or parse fails open: the crawl must not stall because a
// site serves a broken robots.txt.
type Policy struct {
	cfg        *config.CrawlerConfig
	httpClient *http.Client
	store      *cache.Cache
	log        *slog.Logger
}

// entry is one cached directive set. A nil data means the fetch failed and
// the domain is allow-all for the rest of the session.
type entry struct {
	data      *robotstxt.RobotsData
	fetchedAt time.Time
}

func NewPolicy(cfg *config.CrawlerConfig, log *slog.Logger) *Policy {
	return &Policy{
		cfg:        cfg,
		httpClient: &http.Client{Timeout: cfg.Timeout},
		store:      cache.New(cache.NoExpiration, cache.NoExpiration),
		log:        log,
	}
}

// IsAllowed reports whether the url may be fetched. When respect_robots is
// disabled it returns true without any network access.
func (p *Policy) IsAllowed(u *url.URL) bool {
	if !p.cfg.RespectRobots {
		return true
	}

	var e *entry
	if cached, ok := p.store.Get(u.Host); ok {
		e = cached.(*entry)
	} else {
		e = p.fetchRobots(u)
		p.store.Set(u.Host, e, cache.NoExpiration)
	}
	if e.data == nil {
		return true
	}

	return e.data.FindGroup(p.cfg.UserAgent).Test(u.Path)
}

func (p *Policy) fetchRobots(u *url.URL) *entry {
	robotsURL := fmt.Sprintf("%s://%s/robots.txt", u.Scheme, u.Host)
	p.log.Debug("fetching robots.txt.", slog.String("url", robotsURL))

	req, err := http.NewRequest(http.MethodGet, robotsURL, nil)
	if err != nil {
		p.log.Warn("failed to build robots.txt request. Allow crawling.",
			slog.String("url", robotsURL), slog.String("err", err.Error()))
		return &entry{fetchedAt: time.Now()}
	}
	req.Header.Set("User-Agent", p.cfg.UserAgent)

	resp, err := p.httpClient.Do(req)
	if err != nil {
		p.log.Warn("failed to fetch robots.txt. Allow crawling.",
			slog.String("url", robotsURL), slog.String("err", err.Error()))
		return &entry{fetchedAt: time.Now()}
	}
	defer func() {
		_ = resp.Body.Close()
	}()
	if resp.StatusCode != http.StatusOK {
		p.log.Warn("unexpected robots.txt status. Allow crawling.",
			slog.String("url", robotsURL), slog.Int("status_code", resp.StatusCode))
		return &entry{fetchedAt: time.Now()}
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxRobotsBodySize))
	if err != nil {
		p.log.Warn("failed to read robots.txt. Allow crawling.",
			slog.String("url", robotsURL), slog.String("err", err.Error()))
		return &entry{fetchedAt: time.Now()}
	}
	data, err := robotstxt.FromBytes(body)
	if err != nil {
		p.log.Warn("failed to parse robots.txt. Allow crawling.",
			slog.String("url", robotsURL), slog.String("err", err.Error()))
		return &entry{fetchedAt: time.Now()}
	}

	return &entry{data: data, fetchedAt: time.Now()}
}
