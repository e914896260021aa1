package catalog

import (
	"context"
	"errors"
	"fmt"

	log "github.com/sirupsen/logrus"
)

// DiscoverSeasonCount reads how many seasons a title has from its episode
// listing's season selector. Any failure other than cancellation is
// reported as ErrCountUnavailable.
func (c *Client) DiscoverSeasonCount(ctx context.Context, titleID string) (int, error) {
	if titleID == "" {
		return 0, fmt.Errorf("%w: empty title id", ErrCountUnavailable)
	}

	fetchCtx, cancel := c.withTaskTimeout(ctx)
	defer cancel()

	raw, err := c.fetcher.Fetch(fetchCtx, EpisodesURL(c.baseURL, titleID))
	if err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return 0, fmt.Errorf("%w: %w", ErrCancelled, ctxErr)
		}
		return 0, fmt.Errorf("%w: %s: %w", ErrCountUnavailable, titleID, err)
	}

	doc, err := c.parse(raw)
	if err != nil {
		return 0, fmt.Errorf("%w: %s: %w", ErrCountUnavailable, titleID, err)
	}

	count := CountSeasons(doc)
	if count == 0 {
		return 0, fmt.Errorf("%w: %s: %w", ErrCountUnavailable, titleID, errNoSeasonSelector)
	}

	log.WithField("title", titleID).Debugf("Discovered %d seasons", count)
	return count, nil
}

var errNoSeasonSelector = errors.New("season selector missing or empty")

func (c *Client) withTaskTimeout(ctx context.Context) (context.Context, context.CancelFunc) {
	if c.taskTimeout <= 0 {
		return context.WithCancel(ctx)
	}
	return context.WithTimeout(ctx, c.taskTimeout)
}
