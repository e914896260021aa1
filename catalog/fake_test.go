package catalog

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"

	"episode-pulse/scraper"
)

const testBaseURL = "http://catalog.test"

type pageHandler func(ctx context.Context) ([]byte, error)

// fakeFetcher serves canned pages by URL and records every request
type fakeFetcher struct {
	mu    sync.Mutex
	pages map[string]pageHandler
	calls []string
}

func newFakeFetcher() *fakeFetcher {
	return &fakeFetcher{pages: make(map[string]pageHandler)}
}

func (f *fakeFetcher) Fetch(ctx context.Context, url string) ([]byte, error) {
	f.mu.Lock()
	f.calls = append(f.calls, url)
	handler, ok := f.pages[url]
	f.mu.Unlock()

	if !ok {
		return nil, &scraper.FetchError{URL: url, StatusCode: 404, Err: errors.New("Not Found")}
	}
	return handler(ctx)
}

func (f *fakeFetcher) serve(url, body string) {
	f.handle(url, func(ctx context.Context) ([]byte, error) {
		return []byte(body), nil
	})
}

func (f *fakeFetcher) handle(url string, h pageHandler) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.pages[url] = h
}

func (f *fakeFetcher) requested() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]string(nil), f.calls...)
}

// serveTitle registers an episode listing with a selector of n seasons
func (f *fakeFetcher) serveTitle(titleID string, n int) {
	f.serve(EpisodesURL(testBaseURL, titleID), seasonSelectorPage(n))
}

func (f *fakeFetcher) serveSeason(titleID string, season int, ratings ...string) {
	f.serve(SeasonURL(testBaseURL, titleID, season), seasonPage(ratings...))
}

// blockUntilDone never answers, like a page that only times out
func blockUntilDone(ctx context.Context) ([]byte, error) {
	<-ctx.Done()
	return nil, &scraper.FetchError{Err: ctx.Err()}
}

func seasonSelectorPage(n int) string {
	var b strings.Builder
	b.WriteString(`<html><body><div class="episode-list-select"><select id="bySeason">`)
	for i := 1; i <= n; i++ {
		selected := ""
		if i == n {
			selected = ` selected="selected"`
		}
		fmt.Fprintf(&b, `<option value="%d"%s>%d</option>`, i, selected, i)
	}
	b.WriteString(`</select></div></body></html>`)
	return b.String()
}

// seasonPage renders one rating widget per value; an empty value renders
// an unrated widget.
func seasonPage(ratings ...string) string {
	var b strings.Builder
	b.WriteString(`<html><body><div class="list detail eplist">`)
	for i, r := range ratings {
		fmt.Fprintf(&b, `<div class="list_item"><div class="info"><div class="airdate">%d</div>`, i+1)
		if r == "" {
			b.WriteString(`<div class="ipl-rating-widget"><div class="ipl-rating-interactive"></div></div>`)
		} else {
			fmt.Fprintf(&b, `<div class="ipl-rating-widget"><div class="ipl-rating-star small"><span class="ipl-rating-star__star"></span><span class="ipl-rating-star__rating">%s</span><span class="ipl-rating-star__total-votes">(1,024)</span></div></div>`, r)
		}
		b.WriteString(`</div></div>`)
	}
	b.WriteString(`</div></body></html>`)
	return b.String()
}

func rating(v float64) *float64 {
	return &v
}
