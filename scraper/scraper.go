package scraper

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/gocolly/colly"
	log "github.com/sirupsen/logrus"
)

// DefaultUserAgent is sent with every catalog request. The catalog serves a
// reduced page to unknown agents, so a desktop browser string is used.
const DefaultUserAgent = "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/83.0.4103.61 Safari/537.36"

// Fetcher retrieves a document by URL and returns its raw body
type Fetcher interface {
	Fetch(ctx context.Context, url string) ([]byte, error)
}

// FetchError reports a page that could not be retrieved: a transport
// failure, a timeout, or a non-success status.
type FetchError struct {
	URL        string
	StatusCode int
	Err        error
}

func (e *FetchError) Error() string {
	if e.StatusCode != 0 {
		return fmt.Sprintf("fetch %s: status %d: %v", e.URL, e.StatusCode, e.Err)
	}
	return fmt.Sprintf("fetch %s: %v", e.URL, e.Err)
}

func (e *FetchError) Unwrap() error {
	return e.Err
}

// Options configures a Scraper
type Options struct {
	UserAgent      string
	RequestTimeout time.Duration
	Transport      http.RoundTripper
}

// Scraper fetches pages with a fresh colly collector per request so that
// every request carries its own context.
type Scraper struct {
	userAgent string
	timeout   time.Duration
	transport http.RoundTripper
}

// NewScraper creates a page fetcher with the given options
func NewScraper(opts Options) *Scraper {
	userAgent := opts.UserAgent
	if userAgent == "" {
		userAgent = DefaultUserAgent
	}

	timeout := opts.RequestTimeout
	if timeout <= 0 {
		timeout = 30 * time.Second
	}

	transport := opts.Transport
	if transport == nil {
		transport = newTransport()
	}

	return &Scraper{
		userAgent: userAgent,
		timeout:   timeout,
		transport: transport,
	}
}

// Fetch visits url and returns the response body. Cancelling ctx aborts the
// request in flight.
func (s *Scraper) Fetch(ctx context.Context, url string) ([]byte, error) {
	if err := ctx.Err(); err != nil {
		return nil, &FetchError{URL: url, Err: err}
	}

	c := colly.NewCollector(
		colly.UserAgent(s.userAgent),
		colly.AllowURLRevisit(),
	)
	c.SetRequestTimeout(s.timeout)
	c.WithTransport(&contextTransport{ctx: ctx, base: s.transport})

	var body []byte
	var status int

	c.OnRequest(func(r *colly.Request) {
		r.Headers.Set("Accept-Language", "en-US,en;q=0.9")
		log.Debugf("Visiting: %s", r.URL)
	})

	c.OnResponse(func(r *colly.Response) {
		log.Debugf("Response received: %d (%d bytes)", r.StatusCode, len(r.Body))
		status = r.StatusCode
		body = r.Body
	})

	c.OnError(func(r *colly.Response, err error) {
		if r != nil {
			status = r.StatusCode
		}
	})

	if err := c.Visit(url); err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			err = ctxErr
		}
		return nil, &FetchError{URL: url, StatusCode: status, Err: err}
	}

	return body, nil
}

// contextTransport binds every outgoing request to ctx. colly v1 has no
// per-request context, so cancellation is threaded through the transport.
type contextTransport struct {
	ctx  context.Context
	base http.RoundTripper
}

func (t *contextTransport) RoundTrip(req *http.Request) (*http.Response, error) {
	return t.base.RoundTrip(req.WithContext(t.ctx))
}

func newTransport() *http.Transport {
	t := http.DefaultTransport.(*http.Transport).Clone()
	t.MaxIdleConns = 100
	t.MaxIdleConnsPerHost = 32
	t.IdleConnTimeout = 30 * time.Second
	t.ResponseHeaderTimeout = 30 * time.Second
	return t
}
