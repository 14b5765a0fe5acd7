package scrape

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"
	"github.com/go-shiori/go-readability"

	"github.com/Lasikiewicz/news-aggregator/internal/domain"
	"github.com/Lasikiewicz/news-aggregator/internal/ports"
)

const defaultUserAgent = "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/91.0.4472.124 Safari/537.36"

// Options configures a Scraper.
type Options struct {
	Timeout   time.Duration
	UserAgent string
	MaxBytes  int64
}

// Scraper fetches article pages and extracts hero image, body images and text.
type Scraper struct {
	client    *http.Client
	userAgent string
	maxBytes  int64
	detector  ports.LanguageDetector
	logger    *slog.Logger
}

var _ ports.Scraper = (*Scraper)(nil)

// NewScraper wires the HTTP client. Timeout defaults to 10s.
func NewScraper(opts Options, detector ports.LanguageDetector, logger *slog.Logger) *Scraper {
	if opts.Timeout <= 0 {
		opts.Timeout = 10 * time.Second
	}
	if opts.UserAgent == "" {
		opts.UserAgent = defaultUserAgent
	}
	if opts.MaxBytes <= 0 {
		opts.MaxBytes = 5 << 20
	}
	return &Scraper{
		client:    &http.Client{Timeout: opts.Timeout},
		userAgent: opts.UserAgent,
		maxBytes:  opts.MaxBytes,
		detector:  detector,
		logger:    logger,
	}
}

// Scrape never fails: fetch and parse problems are logged and yield an
// empty result.
func (s *Scraper) Scrape(ctx context.Context, pageURL, articleSelector, imageSelector string) domain.ScrapedContent {
	content, err := s.scrape(ctx, pageURL, articleSelector, imageSelector)
	if err != nil {
		if s.logger != nil {
			s.logger.Warn("scrape failed", "url", pageURL, "error", err)
		}
		return domain.ScrapedContent{}
	}
	return content
}

func (s *Scraper) scrape(ctx context.Context, pageURL, articleSelector, imageSelector string) (domain.ScrapedContent, error) {
	base, err := url.Parse(pageURL)
	if err != nil || base.Host == "" {
		return domain.ScrapedContent{}, fmt.Errorf("%w: invalid url %q", domain.ErrScrapeFailure, pageURL)
	}

	raw, err := s.fetch(ctx, pageURL)
	if err != nil {
		return domain.ScrapedContent{}, err
	}

	doc, err := goquery.NewDocumentFromReader(strings.NewReader(raw))
	if err != nil {
		return domain.ScrapedContent{}, fmt.Errorf("%w: parse document: %v", domain.ErrScrapeFailure, err)
	}

	content := extract(doc, raw, base, articleSelector, imageSelector)
	if s.detector != nil && content.TextContent != "" {
		if lang, reliable := s.detector.Detect(content.TextContent); reliable {
			content.Language = lang
		}
	}
	return content, nil
}

func (s *Scraper) fetch(ctx context.Context, pageURL string) (string, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, pageURL, nil)
	if err != nil {
		return "", fmt.Errorf("%w: build request: %v", domain.ErrScrapeFailure, err)
	}
	req.Header.Set("User-Agent", s.userAgent)
	req.Header.Set("Accept", "text/html,application/xhtml+xml,application/xml;q=0.9,*/*;q=0.8")

	resp, err := s.client.Do(req)
	if err != nil {
		return "", classify(err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return "", fmt.Errorf("%w: %s returned %s", domain.ErrScrapeFailure, pageURL, resp.Status)
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, s.maxBytes))
	if err != nil {
		return "", classify(err)
	}
	return string(body), nil
}

func classify(err error) error {
	var netErr net.Error
	if errors.Is(err, context.DeadlineExceeded) || (errors.As(err, &netErr) && netErr.Timeout()) {
		return fmt.Errorf("%w: %v", domain.ErrScrapeTimeout, err)
	}
	return fmt.Errorf("%w: %v", domain.ErrScrapeFailure, err)
}

// contentContainer picks the configured selector, then well-known article
// containers, then the main content found by readability, then <body>.
func contentContainer(doc *goquery.Document, raw string, base *url.URL, articleSelector string) *goquery.Selection {
	if sel := strings.TrimSpace(articleSelector); sel != "" {
		if found := doc.Find(sel).First(); found.Length() > 0 {
			return found
		}
	}
	for _, sel := range containerSelectors {
		if found := doc.Find(sel).First(); found.Length() > 0 {
			return found
		}
	}

	parser := readability.NewParser()
	article, err := parser.Parse(strings.NewReader(raw), base)
	if err == nil && strings.TrimSpace(article.Content) != "" {
		if extracted, err := goquery.NewDocumentFromReader(strings.NewReader(article.Content)); err == nil {
			return extracted.Selection
		}
	}

	return doc.Find("body").First()
}

func extract(doc *goquery.Document, raw string, base *url.URL, articleSelector, imageSelector string) domain.ScrapedContent {
	container := contentContainer(doc, raw, base, articleSelector)

	body := bodyImages(container, base, imageSelector)

	hero := ""
	if og := openGraphImage(doc, base); og != "" {
		hero = og
		body = without(body, hero)
	} else if len(body) > 0 {
		hero = body[0]
		body = body[1:]
	}

	return domain.ScrapedContent{
		HeroImage:   hero,
		BodyImages:  body,
		TextContent: textContent(container),
	}
}

func openGraphImage(doc *goquery.Document, base *url.URL) string {
	for _, sel := range []string{`meta[property="og:image"]`, `meta[name="og:image"]`, `meta[property="og:image:url"]`} {
		if v, ok := doc.Find(sel).First().Attr("content"); ok {
			if resolved, ok := resolve(base, v); ok {
				return resolved
			}
		}
	}
	return ""
}

func textContent(container *goquery.Selection) string {
	clone := container.Clone()
	clone.Find(noiseSelectors).Remove()
	return strings.Join(strings.Fields(clone.Text()), " ")
}

func without(list []string, drop string) []string {
	out := list[:0:0]
	for _, v := range list {
		if v != drop {
			out = append(out, v)
		}
	}
	return out
}
