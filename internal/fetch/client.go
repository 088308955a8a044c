package fetch

import (
	"compress/gzip"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/IliaW/site-crawl-worker/config"
)

// backoffBase is the first retry delay; it doubles on every further attempt.
const backoffBase = 500 * time.Millisecond

// Response is a fully read HTTP response. ContentLength is the decoded body
// size in bytes.
type Response struct {
	StatusCode    int
	Body          []byte
	ContentLength int
}

// FetchError is the terminal outcome of a failed fetch: a non-retryable
// status, or a retryable failure that survived the whole retry budget. It is
// page-fatal only; the crawl moves on to the next url.
type FetchError struct {
	URL        string
	StatusCode int
	Attempts   int
	Err        error
}

func (e *FetchError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("fetch %s failed after %d attempt(s): %s", e.URL, e.Attempts, e.Err.Error())
	}
	return fmt.Sprintf("fetch %s failed after %d attempt(s): status code %d", e.URL, e.Attempts, e.StatusCode)
}

func (e *FetchError) Unwrap() error { return e.Err }

// Client issues GET requests with a fixed header profile and retries
// transient failures: connection errors and the status codes in
// retryableStatus. max_retries is the number of additional attempts after
// the first one.
type Client struct {
	httpClient *http.Client
	cfg        *config.CrawlerConfig
	log        *slog.Logger
}

var retryableStatus = map[int]struct{}{
	http.StatusTooManyRequests:     {},
	http.StatusInternalServerError: {},
	http.StatusBadGateway:          {},
	http.StatusServiceUnavailable:  {},
	http.StatusGatewayTimeout:      {},
}

func NewClient(cfg *config.CrawlerConfig, log *slog.Logger) *Client {
	return &Client{
		httpClient: &http.Client{Timeout: cfg.Timeout},
		cfg:        cfg,
		log:        log,
	}
}

// Get fetches the url. The returned error, if any, is a *FetchError.
func (c *Client) Get(url string) (*Response, error) {
	if !strings.HasPrefix(url, "http://") && !strings.HasPrefix(url, "https://") {
		url = "https://" + url
	}

	var lastStatus int
	var lastErr error
	attempts := 0
	for retry, delay := c.cfg.MaxRetries, backoffBase; ; retry, delay = retry-1, delay*2 {
		attempts++
		resp, err := c.do(url)
		if err == nil {
			return resp, nil
		}
		lastErr = err
		lastStatus = 0
		var terminal bool
		if fe, ok := err.(*fetchAttemptError); ok {
			lastStatus = fe.statusCode
			terminal = !fe.retryable
		}
		if terminal {
			return nil, &FetchError{URL: url, StatusCode: lastStatus, Attempts: attempts, Err: unwrapAttempt(err)}
		}
		if retry <= 0 {
			break
		}
		c.log.Warn("fetch attempt failed. retrying...", slog.String("url", url),
			slog.Int("attempts_left", retry), slog.String("err", err.Error()))
		time.Sleep(delay)
	}

	return nil, &FetchError{URL: url, StatusCode: lastStatus, Attempts: attempts, Err: unwrapAttempt(lastErr)}
}

// fetchAttemptError classifies a single failed attempt.
type fetchAttemptError struct {
	statusCode int
	retryable  bool
	err        error
}

func (e *fetchAttemptError) Error() string {
	if e.err != nil {
		return e.err.Error()
	}
	return fmt.Sprintf("status code %d", e.statusCode)
}

func unwrapAttempt(err error) error {
	if fe, ok := err.(*fetchAttemptError); ok {
		return fe.err
	}
	return err
}

func (c *Client) do(url string) (*Response, error) {
	req, err := http.NewRequest(http.MethodGet, url, nil)
	if err != nil {
		return nil, &fetchAttemptError{err: err}
	}
	c.setHeaders(req)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		// Connection-level failures and timeouts are retryable.
		return nil, &fetchAttemptError{retryable: true, err: err}
	}
	defer func() {
		_ = resp.Body.Close()
	}()

	if resp.StatusCode >= http.StatusBadRequest {
		if _, ok := retryableStatus[resp.StatusCode]; ok {
			return nil, &fetchAttemptError{statusCode: resp.StatusCode, retryable: true}
		}
		return nil, &fetchAttemptError{statusCode: resp.StatusCode}
	}

	// Accept-Encoding is set explicitly, so the transport does not decode
	// the body for us.
	var reader io.Reader = resp.Body
	if strings.Contains(resp.Header.Get("Content-Encoding"), "gzip") {
		gz, gzErr := gzip.NewReader(resp.Body)
		if gzErr != nil {
			return nil, &fetchAttemptError{retryable: true, err: gzErr}
		}
		defer func() {
			_ = gz.Close()
		}()
		reader = gz
	}
	body, err := io.ReadAll(reader)
	if err != nil {
		return nil, &fetchAttemptError{retryable: true, err: err}
	}

	return &Response{
		StatusCode:    resp.StatusCode,
		Body:          body,
		ContentLength: len(body),
	}, nil
}

func (c *Client) setHeaders(req *http.Request) {
	req.Header.Set("User-Agent", c.cfg.UserAgent)
	req.Header.Set("Accept", "text/html,application/xhtml+xml,application/xml;q=0.9,*/*;q=0.8")
	req.Header.Set("Accept-Language", "en-US,en;q=0.5")
	req.Header.Set("Accept-Encoding", "gzip, deflate")
	req.Header.Set("Connection", "keep-alive")
}
