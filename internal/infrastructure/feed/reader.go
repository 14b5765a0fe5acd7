package feed

import (
	"context"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"
	"github.com/mmcdole/gofeed"

	"github.com/Lasikiewicz/news-aggregator/internal/domain"
	"github.com/Lasikiewicz/news-aggregator/internal/ports"
)

// Reader pulls RSS/Atom feeds over HTTP and parses them with gofeed.
type Reader struct {
	client    *http.Client
	parser    *gofeed.Parser
	userAgent string
}

var _ ports.FeedReader = (*Reader)(nil)

// NewReader wires an HTTP client; a nil client gets a 30s timeout.
func NewReader(client *http.Client, userAgent string) *Reader {
	if client == nil {
		client = &http.Client{Timeout: 30 * time.Second}
	}
	if userAgent == "" {
		userAgent = "NewsAggregator/1.0"
	}
	return &Reader{client: client, parser: gofeed.NewParser(), userAgent: userAgent}
}

// Read performs a single pull of source. Any network, status or parse
// failure wraps domain.ErrFeedUnavailable.
func (r *Reader) Read(ctx context.Context, source domain.FeedSource) (domain.Feed, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, source.URL, nil)
	if err != nil {
		return domain.Feed{}, fmt.Errorf("%w: build request %s: %v", domain.ErrFeedUnavailable, source.URL, err)
	}
	req.Header.Set("User-Agent", r.userAgent)
	req.Header.Set("Accept", "application/rss+xml, application/atom+xml, application/xml;q=0.9, */*;q=0.8")

	resp, err := r.client.Do(req)
	if err != nil {
		return domain.Feed{}, fmt.Errorf("%w: fetch %s: %v", domain.ErrFeedUnavailable, source.URL, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return domain.Feed{}, fmt.Errorf("%w: %s returned %s", domain.ErrFeedUnavailable, source.URL, resp.Status)
	}

	parsed, err := r.parser.Parse(resp.Body)
	if err != nil {
		return domain.Feed{}, fmt.Errorf("%w: parse %s: %v", domain.ErrFeedUnavailable, source.URL, err)
	}

	items := make([]domain.RawFeedItem, 0, len(parsed.Items))
	for _, entry := range parsed.Items {
		if entry == nil {
			continue
		}
		items = append(items, toRawItem(entry))
	}

	return domain.Feed{Title: strings.TrimSpace(parsed.Title), Items: items}, nil
}

func toRawItem(entry *gofeed.Item) domain.RawFeedItem {
	link := strings.TrimSpace(entry.Link)
	if link == "" && len(entry.Links) > 0 {
		link = strings.TrimSpace(entry.Links[0])
	}

	var isoDate string
	if entry.PublishedParsed != nil {
		isoDate = entry.PublishedParsed.UTC().Format(time.RFC3339)
	} else if entry.UpdatedParsed != nil {
		isoDate = entry.UpdatedParsed.UTC().Format(time.RFC3339)
	}

	return domain.RawFeedItem{
		GUID:           strings.TrimSpace(entry.GUID),
		Link:           link,
		Title:          strings.TrimSpace(entry.Title),
		ContentSnippet: plainText(entry.Description),
		Content:        entry.Content,
		ISODate:        isoDate,
	}
}

// plainText strips markup from feed descriptions, which are frequently HTML.
func plainText(fragment string) string {
	fragment = strings.TrimSpace(fragment)
	if fragment == "" || !strings.Contains(fragment, "<") {
		return strings.Join(strings.Fields(fragment), " ")
	}
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(fragment))
	if err != nil {
		return fragment
	}
	return strings.Join(strings.Fields(doc.Text()), " ")
}
