package usecase

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"sync"

	"github.com/Lasikiewicz/news-aggregator/internal/domain"
	"github.com/Lasikiewicz/news-aggregator/internal/logging"
)

var errBoom = errors.New("boom")

type fakeReader struct {
	feeds map[string]domain.Feed
	errs  map[string]error
}

func (f *fakeReader) Read(_ context.Context, source domain.FeedSource) (domain.Feed, error) {
	if err, ok := f.errs[source.URL]; ok {
		return domain.Feed{}, fmt.Errorf("%w: %v", domain.ErrFeedUnavailable, err)
	}
	return f.feeds[source.URL], nil
}

type fakeScraper struct {
	mu      sync.Mutex
	results map[string]domain.ScrapedContent
	calls   []string
}

func (f *fakeScraper) Scrape(_ context.Context, pageURL, _, _ string) domain.ScrapedContent {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls = append(f.calls, pageURL)
	if res, ok := f.results[pageURL]; ok {
		return res
	}
	return domain.ScrapedContent{HeroImage: pageURL + "/hero.jpg", TextContent: "body of " + pageURL}
}

func (f *fakeScraper) callCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.calls)
}

// fakeOracle answers relevance prompts (prefixed REL) and article prompts
// (prefixed ART) through separate functions.
type fakeOracle struct {
	mu        sync.Mutex
	relevance func(prompt string) (string, error)
	rewrite   func(prompt string) (string, error)
	prompts   []string
}

func (f *fakeOracle) Generate(_ context.Context, prompt string) (string, error) {
	f.mu.Lock()
	f.prompts = append(f.prompts, prompt)
	f.mu.Unlock()

	switch {
	case strings.HasPrefix(prompt, "REL"):
		if f.relevance == nil {
			return "YES", nil
		}
		return f.relevance(prompt)
	case strings.HasPrefix(prompt, "ART"):
		if f.rewrite == nil {
			return `{"content":"<p>rewritten</p>","tags":["news"]}`, nil
		}
		return f.rewrite(prompt)
	}
	return "", fmt.Errorf("unexpected prompt %q", prompt)
}

func (f *fakeOracle) count(prefix string) int {
	f.mu.Lock()
	defer f.mu.Unlock()
	n := 0
	for _, p := range f.prompts {
		if strings.HasPrefix(p, prefix) {
			n++
		}
	}
	return n
}

type memRepo struct {
	mu        sync.Mutex
	articles  map[string]domain.Article
	existsErr error
	upsertErr error
	upserts   int
}

func newMemRepo(keys ...string) *memRepo {
	r := &memRepo{articles: make(map[string]domain.Article)}
	for _, k := range keys {
		r.articles[k] = domain.Article{ID: k}
	}
	return r
}

func (r *memRepo) Exists(_ context.Context, key string) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.existsErr != nil {
		return false, r.existsErr
	}
	_, ok := r.articles[key]
	return ok, nil
}

func (r *memRepo) Upsert(_ context.Context, article domain.Article) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.upsertErr != nil {
		return r.upsertErr
	}
	r.upserts++
	r.articles[article.ID] = article
	return nil
}

func (r *memRepo) Get(_ context.Context, key string) (domain.Article, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	a, ok := r.articles[key]
	if !ok {
		return domain.Article{}, domain.ErrNotFound
	}
	return a, nil
}

func (r *memRepo) upsertCount() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.upserts
}

type fakeNotifier struct {
	mu       sync.Mutex
	messages []string
}

func (n *fakeNotifier) PublishDigest(_ context.Context, digest string) error {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.messages = append(n.messages, digest)
	return nil
}

type fakeDetector map[string]string

func (d fakeDetector) Detect(text string) (string, bool) {
	for marker, lang := range d {
		if strings.Contains(text, marker) {
			return lang, true
		}
	}
	return "eng", true
}

type fakeConfigRepo struct {
	feeds    []domain.FeedSource
	prompts  domain.Prompts
	feedsErr error
}

func (f *fakeConfigRepo) LoadFeeds(context.Context) ([]domain.FeedSource, error) {
	if f.feedsErr != nil {
		return nil, f.feedsErr
	}
	return f.feeds, nil
}

func (f *fakeConfigRepo) LoadPrompts(context.Context) (domain.Prompts, error) {
	return f.prompts, nil
}

func (f *fakeConfigRepo) SaveFeeds(_ context.Context, feeds []domain.FeedSource) error {
	f.feeds = feeds
	return nil
}

func (f *fakeConfigRepo) SavePrompts(_ context.Context, prompts domain.Prompts) error {
	f.prompts = prompts
	return nil
}

var testPrompts = domain.Prompts{
	Relevance: "REL ${title} ${snippet}",
	Article:   "ART ${title} [${category}/${subCategory}] ${content}\n${imageList}",
}

var testKeywords = []domain.CategoryKeywords{
	{Name: "PlayStation", SubCategories: []domain.SubCategoryKeyword{{Name: "PS5", Keywords: []string{"ps5"}}}},
	{Name: "Nintendo", SubCategories: []domain.SubCategoryKeyword{{Name: "Switch 2", Keywords: []string{"switch 2"}}}},
}

type harness struct {
	reader   *fakeReader
	scraper  *fakeScraper
	oracle   *fakeOracle
	repo     *memRepo
	notifier *fakeNotifier
	opts     PipelineOptions
	detector fakeDetector
	logger   *slog.Logger
}

func newHarness() *harness {
	return &harness{
		reader:   &fakeReader{feeds: map[string]domain.Feed{}, errs: map[string]error{}},
		scraper:  &fakeScraper{results: map[string]domain.ScrapedContent{}},
		oracle:   &fakeOracle{},
		repo:     newMemRepo(),
		notifier: &fakeNotifier{},
		opts:     PipelineOptions{RelevanceFilter: true, MaxConcurrentItems: 2},
	}
}

func (h *harness) pipeline() *Pipeline {
	deps := PipelineDeps{
		Reader:   h.reader,
		Scraper:  h.scraper,
		Oracle:   h.oracle,
		Articles: h.repo,
		Notifier: h.notifier,
		Logger:   logging.Discard(),
		Options:  h.opts,
	}
	if h.logger != nil {
		deps.Logger = h.logger
	}
	if h.detector != nil {
		deps.Detector = h.detector
	}
	return NewPipeline(deps)
}

func runConfig(feeds ...domain.FeedSource) domain.RunConfig {
	return domain.RunConfig{Feeds: feeds, Prompts: testPrompts, Keywords: testKeywords}
}
