// Package catalog resolves titles and aggregates per-episode ratings from
// the catalog's HTML pages.
package catalog

import (
	"strings"
	"time"

	"episode-pulse/document"
	"episode-pulse/scraper"
)

// Options configures a Client
type Options struct {
	// BaseURL of the catalog, DefaultBaseURL when empty
	BaseURL string
	// Concurrency is the default number of season pages fetched at once.
	// Zero or less fetches every season at once.
	Concurrency int
	// TaskTimeout bounds each page fetch. Zero disables the bound.
	TaskTimeout time.Duration
	// Parse overrides the document parser, document.Parse when nil
	Parse document.ParseFunc
}

// Client talks to the catalog through a page fetcher
type Client struct {
	fetcher     scraper.Fetcher
	parse       document.ParseFunc
	baseURL     string
	concurrency int
	taskTimeout time.Duration
}

// NewClient creates a catalog client
func NewClient(fetcher scraper.Fetcher, opts Options) *Client {
	baseURL := strings.TrimRight(opts.BaseURL, "/")
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}

	parse := opts.Parse
	if parse == nil {
		parse = document.Parse
	}

	return &Client{
		fetcher:     fetcher,
		parse:       parse,
		baseURL:     baseURL,
		concurrency: opts.Concurrency,
		taskTimeout: opts.TaskTimeout,
	}
}
