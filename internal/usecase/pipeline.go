package usecase

import (
	"context"
	"fmt"
	"log/slog"
	"net/url"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"github.com/Lasikiewicz/news-aggregator/internal/category"
	"github.com/Lasikiewicz/news-aggregator/internal/domain"
	"github.com/Lasikiewicz/news-aggregator/internal/metrics"
	"github.com/Lasikiewicz/news-aggregator/internal/ports"
)

// defaultSnippet is stored when the feed item has no description.
const defaultSnippet = "Read more..."

// PipelineOptions toggles optional stages and bounds concurrency.
type PipelineOptions struct {
	RelevanceFilter bool
	// Languages restricts items to these ISO 639-3 codes; empty disables it.
	Languages          []string
	MaxConcurrentFeeds int
	MaxConcurrentItems int
	FeedTimeout        time.Duration
	MaxPromptChars     int
}

// PipelineDeps wires all driven adapters into the orchestration pipeline.
type PipelineDeps struct {
	Reader   ports.FeedReader
	Scraper  ports.Scraper
	Oracle   ports.Oracle
	Articles ports.ArticleRepository
	Detector ports.LanguageDetector
	Notifier ports.Notifier
	Logger   *slog.Logger
	Options  PipelineOptions
}

// Pipeline implements the feed-ingestion workflow.
type Pipeline struct {
	reader   ports.FeedReader
	scraper  ports.Scraper
	oracle   ports.Oracle
	articles ports.ArticleRepository
	detector ports.LanguageDetector
	notifier ports.Notifier
	logger   *slog.Logger
	opts     PipelineOptions
}

// NewPipeline constructs the orchestration component.
func NewPipeline(deps PipelineDeps) *Pipeline {
	logger := deps.Logger
	if logger == nil {
		logger = slog.Default()
	}
	return &Pipeline{
		reader:   deps.Reader,
		scraper:  deps.Scraper,
		oracle:   deps.Oracle,
		articles: deps.Articles,
		detector: deps.Detector,
		notifier: deps.Notifier,
		logger:   logger,
		opts:     deps.Options,
	}
}

// RunReport summarises one run.
type RunReport struct {
	RunID         string
	Sources       int
	SourcesFailed int
	States        map[domain.ItemState]int
	Published     []domain.Article
	Duration      time.Duration
}

// run carries the per-run immutable collaborators.
type run struct {
	id        string
	logger    *slog.Logger
	table     *category.Table
	relevance *RelevanceFilter
	rewriter  *Rewriter

	mu     sync.Mutex
	report RunReport
}

func (r *run) record(state domain.ItemState, article *domain.Article) {
	metrics.ItemsTotal.WithLabelValues(string(state)).Inc()

	r.mu.Lock()
	defer r.mu.Unlock()
	r.report.States[state]++
	if article != nil {
		r.report.Published = append(r.report.Published, *article)
	}
}

func (r *run) sourceFailed() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.report.SourcesFailed++
}

// RunFrom loads the run configuration and executes one run.
func (p *Pipeline) RunFrom(ctx context.Context, source ports.RunConfigSource) (RunReport, error) {
	cfg, err := source.Load(ctx)
	if err != nil {
		return RunReport{}, fmt.Errorf("load run config: %w", err)
	}
	return p.Run(ctx, cfg)
}

// Run processes every feed of cfg. Failures of one feed or item never affect
// the others; only an unusable configuration is returned as an error.
func (p *Pipeline) Run(ctx context.Context, cfg domain.RunConfig) (RunReport, error) {
	if len(cfg.Feeds) == 0 {
		return RunReport{}, fmt.Errorf("%w: no feeds configured", domain.ErrConfigMissing)
	}
	if p.opts.RelevanceFilter && strings.TrimSpace(cfg.Prompts.Relevance) == "" {
		return RunReport{}, fmt.Errorf("%w: relevance prompt is empty", domain.ErrConfigMissing)
	}

	start := time.Now()
	runID := uuid.NewString()
	logger := p.logger.With("run_id", runID)

	r := &run{
		id:        runID,
		logger:    logger,
		table:     category.NewTable(cfg.Keywords),
		relevance: NewRelevanceFilter(p.oracle, cfg.Prompts.Relevance, logger.With("stage", "relevance")),
		rewriter:  NewRewriter(p.oracle, cfg.Prompts.Article, p.opts.MaxPromptChars, logger.With("stage", "rewrite")),
		report: RunReport{
			RunID:   runID,
			Sources: len(cfg.Feeds),
			States:  make(map[domain.ItemState]int),
		},
	}

	logger.Info("run started", "feeds", len(cfg.Feeds))

	var g errgroup.Group
	if p.opts.MaxConcurrentFeeds > 0 {
		g.SetLimit(p.opts.MaxConcurrentFeeds)
	}
	for _, source := range cfg.Feeds {
		source := source
		g.Go(func() error {
			p.processSource(ctx, r, source)
			return nil
		})
	}
	_ = g.Wait()

	report := r.report
	report.Duration = time.Since(start)
	metrics.RunDuration.Observe(report.Duration.Seconds())

	logger.Info("run finished",
		"duration", report.Duration,
		"sources_failed", report.SourcesFailed,
		"upserted", report.States[domain.StateUpserted],
		"deduped", report.States[domain.StateDeduped],
		"filtered", report.States[domain.StateFiltered],
	)

	p.publishDigest(ctx, logger, report.Published)
	return report, nil
}

func (p *Pipeline) processSource(ctx context.Context, r *run, source domain.FeedSource) {
	logger := r.logger.With("feed", source.URL)

	readCtx := ctx
	if p.opts.FeedTimeout > 0 {
		var cancel context.CancelFunc
		readCtx, cancel = context.WithTimeout(ctx, p.opts.FeedTimeout)
		defer cancel()
	}

	feed, err := p.reader.Read(readCtx, source)
	metrics.FeedFetchTotal.WithLabelValues(metrics.Result(err)).Inc()
	if err != nil {
		logger.Warn("feed unavailable", "error", err)
		r.sourceFailed()
		return
	}

	sourceName := feedSourceName(feed.Title, source.URL)
	logger.Debug("feed read", "title", sourceName, "items", len(feed.Items))

	var g errgroup.Group
	if p.opts.MaxConcurrentItems > 0 {
		g.SetLimit(p.opts.MaxConcurrentItems)
	}
	for _, item := range feed.Items {
		item := item
		g.Go(func() error {
			state, article := p.processItem(ctx, r, logger, source, sourceName, item)
			r.record(state, article)
			return nil
		})
	}
	_ = g.Wait()
}

// processItem drives one item to a terminal state. The article is non-nil
// only when the state is StateUpserted.
func (p *Pipeline) processItem(ctx context.Context, r *run, logger *slog.Logger, source domain.FeedSource, sourceName string, item domain.RawFeedItem) (domain.ItemState, *domain.Article) {
	stage := func(state domain.ItemState) {
		logger.Debug("item stage", "state", state)
	}
	stage(domain.StateFetched)

	key, ok := domain.StableKey(item)
	if !ok {
		logger.Debug("item skipped", "state", domain.StateMissingKey, "title", item.Title, "error", domain.ErrMissingKey)
		return domain.StateMissingKey, nil
	}
	logger = logger.With("key", key)

	exists, err := p.articles.Exists(ctx, key)
	if err != nil {
		logger.Warn("item dropped", "state", domain.StateStoreFailed, "error", err)
		return domain.StateStoreFailed, nil
	}
	if exists {
		logger.Debug("item skipped", "state", domain.StateDeduped)
		return domain.StateDeduped, nil
	}
	stage(domain.StateChecked)

	snippet := item.Snippet()
	if !p.languageAllowed(item.Title + " " + snippet) {
		logger.Info("item skipped", "state", domain.StateFiltered, "reason", "language")
		return domain.StateFiltered, nil
	}

	if p.opts.RelevanceFilter && !r.relevance.IsRelevant(ctx, item.Title, snippet) {
		logger.Info("item skipped", "state", domain.StateFiltered, "reason", "relevance")
		return domain.StateFiltered, nil
	}
	stage(domain.StateRelevant)

	scraped := p.scraper.Scrape(ctx, item.Link, source.ArticleSelector, source.ImageSelector)
	stage(domain.StateScraped)
	if !scraped.HasImage() {
		logger.Info("item skipped", "state", domain.StateSkippedNoImage)
		return domain.StateSkippedNoImage, nil
	}
	hero, body := scraped.HeroImage, scraped.BodyImages
	if hero == "" {
		hero, body = body[0], body[1:]
	}
	stage(domain.StateImaged)

	assignment := r.table.Categorize(item.Title, source.Category)
	stage(domain.StateCategorized)

	result, err := r.rewriter.Rewrite(ctx, RewriteInput{
		Title:      item.Title,
		Snippet:    snippet,
		Content:    scraped.TextContent,
		HeroImage:  hero,
		BodyImages: body,
		Category:   assignment,
	})
	if err != nil {
		logger.Warn("item dropped", "state", domain.StateRewriteFailed, "error", err)
		return domain.StateRewriteFailed, nil
	}
	stage(domain.StateRewritten)
	assignment = category.Override(assignment, result.MainCategory, result.SubCategory)

	contentSnippet := strings.TrimSpace(item.ContentSnippet)
	if contentSnippet == "" {
		contentSnippet = defaultSnippet
	}
	tags := result.Tags
	if tags == nil {
		tags = []string{}
	}

	article := domain.Article{
		ID:             key,
		GUID:           key,
		Title:          item.Title,
		TitleShort:     result.TitleShort,
		Link:           item.Link,
		Content:        result.Content,
		ContentSnippet: contentSnippet,
		Published:      parsePublished(item.ISODate),
		Category:       assignment.Category,
		SubCategory:    assignment.SubCategory,
		Tags:           tags,
		ImageURL:       hero,
		BodyImages:     body,
		Source:         sourceName,
	}

	if err := p.articles.Upsert(ctx, article); err != nil {
		logger.Error("item dropped", "state", domain.StateStoreFailed, "error", err)
		return domain.StateStoreFailed, nil
	}

	logger.Info("article stored", "state", domain.StateUpserted, "category", article.Category, "sub_category", article.SubCategory)
	return domain.StateUpserted, &article
}

func (p *Pipeline) languageAllowed(text string) bool {
	if len(p.opts.Languages) == 0 || p.detector == nil {
		return true
	}
	lang, reliable := p.detector.Detect(text)
	if !reliable {
		return true
	}
	for _, allowed := range p.opts.Languages {
		if strings.EqualFold(allowed, lang) {
			return true
		}
	}
	return false
}

func (p *Pipeline) publishDigest(ctx context.Context, logger *slog.Logger, published []domain.Article) {
	if p.notifier == nil || len(published) == 0 {
		return
	}
	if err := p.notifier.PublishDigest(ctx, buildDigestMessage(published)); err != nil {
		logger.Warn("digest not delivered", "error", err)
	}
}

func buildDigestMessage(articles []domain.Article) string {
	var sb strings.Builder
	fmt.Fprintf(&sb, "*%d new articles*\n\n", len(articles))
	for _, article := range articles {
		fmt.Fprintf(&sb, "- %s\n%s / %s\n%s\n\n",
			escapeMarkdown(article.Title),
			escapeMarkdown(article.Category),
			escapeMarkdown(article.SubCategory),
			escapeMarkdown(article.Link))
	}
	return strings.TrimRight(sb.String(), "\n")
}

// markdownEscaper escapes the entity markers of Telegram's legacy Markdown.
var markdownEscaper = strings.NewReplacer(
	"_", "\\_",
	"*", "\\*",
	"`", "\\`",
	"[", "\\[",
)

func escapeMarkdown(s string) string {
	return markdownEscaper.Replace(s)
}

// parsePublished returns the zero time for a missing or unparsable date, in
// which case the store assigns its own clock.
func parsePublished(isoDate string) time.Time {
	isoDate = strings.TrimSpace(isoDate)
	if isoDate == "" {
		return time.Time{}
	}
	t, err := time.Parse(time.RFC3339, isoDate)
	if err != nil {
		return time.Time{}
	}
	return t.UTC()
}

func feedSourceName(title, feedURL string) string {
	if title = strings.TrimSpace(title); title != "" {
		return title
	}
	if u, err := url.Parse(feedURL); err == nil && u.Host != "" {
		return strings.TrimPrefix(u.Host, "www.")
	}
	return feedURL
}
