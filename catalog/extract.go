package catalog

import (
	"regexp"
	"strconv"
	"strings"

	"episode-pulse/document"
)

const (
	ratingWidgetSelector = "div.ipl-rating-widget"
	ratingValueSelector  = "span.ipl-rating-star__rating"

	seasonOptionSelector = "select#bySeason option"
	seasonTabSelector    = `a[data-testid="tab-season-entry"]`

	legacyResultSelector = "table.findList tr"
	modernResultSelector = "li.find-result-item"
)

// ratingPattern admits plain decimals only, so NaN, Inf and hex floats
// read as unrated.
var ratingPattern = regexp.MustCompile(`^\d+(\.\d+)?$`)

// ExtractRatings reads every rating widget of a season page in document
// order. The n-th widget becomes episode n; an unrated or unreadable widget
// yields a nil rating.
func ExtractRatings(doc document.Document) []EpisodeRating {
	widgets := doc.Find(ratingWidgetSelector)
	ratings := make([]EpisodeRating, 0, len(widgets))
	for i, widget := range widgets {
		ratings = append(ratings, EpisodeRating{
			Episode: i + 1,
			Rating:  parseRating(widget),
		})
	}
	return ratings
}

func parseRating(widget document.Node) *float64 {
	values := widget.Find(ratingValueSelector)
	if len(values) == 0 {
		return nil
	}
	text := strings.TrimSpace(values[0].Text())
	if !ratingPattern.MatchString(text) {
		return nil
	}
	value, err := strconv.ParseFloat(text, 64)
	if err != nil {
		return nil
	}
	return &value
}

// CountSeasons returns the number of entries in a title's season selector.
// The number of entries is the count; the selected entry is ignored.
func CountSeasons(doc document.Document) int {
	if options := doc.Find(seasonOptionSelector); len(options) > 0 {
		return len(options)
	}
	return len(doc.Find(seasonTabSelector))
}

type searchEntry struct {
	href  string
	name  string
	text  string
	image string
}

// ExtractSearchResults reads the find page listing in page order. Entries
// without a resolvable title link are dropped; episodes are kept and
// classified so callers can filter them.
func ExtractSearchResults(doc document.Document) []TitleRecord {
	entries := legacyEntries(doc)
	if len(entries) == 0 {
		entries = modernEntries(doc)
	}

	records := make([]TitleRecord, 0, len(entries))
	for _, e := range entries {
		id, ok := TitleIDFromHref(e.href)
		if !ok || e.name == "" {
			continue
		}
		records = append(records, TitleRecord{
			Name:         e.name,
			ID:           id,
			ThumbnailURL: e.image,
			Kind:         classify(e.text),
		})
	}
	return records
}

func legacyEntries(doc document.Document) []searchEntry {
	var entries []searchEntry
	for _, row := range doc.Find(legacyResultSelector) {
		cells := row.Find("td.result_text")
		if len(cells) == 0 {
			continue
		}
		entry := searchEntry{text: document.CleanText(cells[0].Text())}
		if links := cells[0].Find("a"); len(links) > 0 {
			entry.href, _ = links[0].Attr("href")
			entry.name = document.CleanText(links[0].Text())
		}
		if imgs := row.Find("td.primary_photo img"); len(imgs) > 0 {
			entry.image, _ = imgs[0].Attr("src")
		}
		entries = append(entries, entry)
	}
	return entries
}

func modernEntries(doc document.Document) []searchEntry {
	var entries []searchEntry
	for _, item := range doc.Find(modernResultSelector) {
		entry := searchEntry{text: document.CleanText(item.Text())}
		if links := item.Find("a.ipc-metadata-list-summary-item__t"); len(links) > 0 {
			entry.href, _ = links[0].Attr("href")
			entry.name = document.CleanText(links[0].Text())
		}
		if imgs := item.Find("img"); len(imgs) > 0 {
			entry.image, _ = imgs[0].Attr("src")
		}
		entries = append(entries, entry)
	}
	return entries
}

func classify(text string) TitleKind {
	switch {
	case strings.Contains(text, "TV Episode"):
		return KindEpisode
	case strings.Contains(text, "TV Mini Series"), strings.Contains(text, "TV Mini-Series"):
		return KindMiniSeries
	case strings.Contains(text, "TV Series"):
		return KindSeries
	default:
		return KindOther
	}
}
