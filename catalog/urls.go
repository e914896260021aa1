package catalog

import (
	"fmt"
	"net/url"
	"regexp"
	"strings"
)

// DefaultBaseURL is the catalog site queried when no base URL is configured
const DefaultBaseURL = "https://www.imdb.com"

var titleIDPattern = regexp.MustCompile(`/title/(tt\d+)`)

// BuildQueryString turns a show name into the find endpoint's q value:
// words are escaped individually and joined with '+'.
func BuildQueryString(name string) string {
	words := strings.Fields(name)
	for i, w := range words {
		words[i] = url.QueryEscape(w)
	}
	return strings.Join(words, "+")
}

// SearchURL returns the find endpoint for a show name
func SearchURL(baseURL, name string) string {
	return fmt.Sprintf("%s/find?q=%s", baseURL, BuildQueryString(name))
}

// EpisodesURL returns a title's episode listing, which carries the season selector
func EpisodesURL(baseURL, titleID string) string {
	return fmt.Sprintf("%s/title/%s/episodes", baseURL, url.PathEscape(titleID))
}

// SeasonURL returns the episode listing of one season
func SeasonURL(baseURL, titleID string, season int) string {
	return fmt.Sprintf("%s?season=%d", EpisodesURL(baseURL, titleID), season)
}

// TitleIDFromHref extracts a tt-identifier from a title link
func TitleIDFromHref(href string) (string, bool) {
	m := titleIDPattern.FindStringSubmatch(href)
	if len(m) < 2 {
		return "", false
	}
	return m[1], true
}
