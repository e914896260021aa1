package catalog

import (
	"context"
	"fmt"
	"strings"

	"github.com/samber/lo"
	log "github.com/sirupsen/logrus"
)

// Search looks a show name up on the catalog's find page and returns the
// matching series and mini-series in listing order. Episodes, films and
// other kinds are excluded.
func (c *Client) Search(ctx context.Context, query string) ([]TitleRecord, error) {
	if strings.TrimSpace(query) == "" {
		return nil, fmt.Errorf("search query is empty")
	}

	fetchCtx, cancel := c.withTaskTimeout(ctx)
	defer cancel()

	raw, err := c.fetcher.Fetch(fetchCtx, SearchURL(c.baseURL, query))
	if err != nil {
		return nil, fmt.Errorf("search %q: %w", query, err)
	}

	doc, err := c.parse(raw)
	if err != nil {
		return nil, fmt.Errorf("search %q: %w", query, err)
	}

	records := lo.Filter(ExtractSearchResults(doc), func(r TitleRecord, _ int) bool {
		return r.Kind == KindSeries || r.Kind == KindMiniSeries
	})

	log.WithField("query", query).Debugf("Search returned %d titles", len(records))
	return records, nil
}
