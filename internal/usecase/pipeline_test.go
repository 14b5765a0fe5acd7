package usecase

import (
	"bytes"
	"context"
	"errors"
	"log/slog"
	"strings"
	"testing"
	"time"

	"github.com/Lasikiewicz/news-aggregator/internal/domain"
)

func TestRunStoresNewArticles(t *testing.T) {
	t.Parallel()

	h := newHarness()
	h.reader.feeds["https://feeds/a"] = domain.Feed{
		Title: "Pocket News",
		Items: []domain.RawFeedItem{
			{GUID: "g-1", Link: "https://site/1", Title: "PS5 Pro price cut", ContentSnippet: "Cheaper now", ISODate: "2026-02-01T08:00:00Z"},
			{Link: "https://site/2", Title: "Weekly roundup"},
		},
	}

	report, err := h.pipeline().Run(context.Background(), runConfig(domain.FeedSource{URL: "https://feeds/a", Category: "PlayStation"}))
	if err != nil {
		t.Fatalf("Run error: %v", err)
	}
	if report.States[domain.StateUpserted] != 2 || len(report.Published) != 2 {
		t.Fatalf("expected 2 upserts, got %+v", report.States)
	}
	if report.RunID == "" {
		t.Fatalf("expected run id")
	}

	first, err := h.repo.Get(context.Background(), "g-1")
	if err != nil {
		t.Fatalf("Get error: %v", err)
	}
	if first.Category != "PlayStation" || first.SubCategory != "PS5" {
		t.Fatalf("unexpected category %s/%s", first.Category, first.SubCategory)
	}
	if first.Source != "Pocket News" || first.ImageURL != "https://site/1/hero.jpg" {
		t.Fatalf("unexpected source or image: %+v", first)
	}
	if !first.Published.Equal(time.Date(2026, 2, 1, 8, 0, 0, 0, time.UTC)) {
		t.Fatalf("unexpected published %v", first.Published)
	}
	if first.Content != "<p>rewritten</p>" || len(first.Tags) != 1 {
		t.Fatalf("unexpected rewrite result: %+v", first)
	}

	second, err := h.repo.Get(context.Background(), "https://site/2")
	if err != nil {
		t.Fatalf("link should be the key when guid is missing: %v", err)
	}
	if second.ContentSnippet != defaultSnippet || !second.Published.IsZero() || second.SubCategory != "General" {
		t.Fatalf("unexpected defaults: %+v", second)
	}

	if len(h.notifier.messages) != 1 || !strings.Contains(h.notifier.messages[0], "PS5 Pro price cut") {
		t.Fatalf("expected one digest, got %v", h.notifier.messages)
	}
}

func TestRunSkipsKnownItemsBeforeAnyWork(t *testing.T) {
	t.Parallel()

	h := newHarness()
	h.repo = newMemRepo("g-1")
	h.reader.feeds["https://feeds/a"] = domain.Feed{Items: []domain.RawFeedItem{{GUID: " g-1 ", Link: "https://site/1", Title: "Old news"}}}

	report, err := h.pipeline().Run(context.Background(), runConfig(domain.FeedSource{URL: "https://feeds/a", Category: "PlayStation"}))
	if err != nil {
		t.Fatalf("Run error: %v", err)
	}
	if report.States[domain.StateDeduped] != 1 {
		t.Fatalf("expected deduped item, got %+v", report.States)
	}
	if h.oracle.count("") != 0 || h.scraper.callCount() != 0 || h.repo.upsertCount() != 0 {
		t.Fatalf("deduped item reached downstream stages")
	}
	if len(h.notifier.messages) != 0 {
		t.Fatalf("no digest expected without new articles")
	}
}

func TestRunStoreReadFailureDropsItem(t *testing.T) {
	t.Parallel()

	h := newHarness()
	h.repo.existsErr = errBoom
	h.reader.feeds["https://feeds/a"] = domain.Feed{Items: []domain.RawFeedItem{{GUID: "g", Link: "https://site/1"}}}

	report, err := h.pipeline().Run(context.Background(), runConfig(domain.FeedSource{URL: "https://feeds/a"}))
	if err != nil {
		t.Fatalf("Run error: %v", err)
	}
	if report.States[domain.StateStoreFailed] != 1 || h.oracle.count("") != 0 {
		t.Fatalf("store read failure must drop the item: %+v", report.States)
	}
}

func TestRunRelevanceFailsClosed(t *testing.T) {
	t.Parallel()

	h := newHarness()
	h.oracle.relevance = func(prompt string) (string, error) {
		switch {
		case strings.Contains(prompt, "errors"):
			return "", errBoom
		case strings.Contains(prompt, "says no"):
			return "No.", nil
		case strings.Contains(prompt, "empty"):
			return "   ", nil
		}
		return "\"Yes\"", nil
	}
	h.reader.feeds["https://feeds/a"] = domain.Feed{Items: []domain.RawFeedItem{
		{GUID: "1", Link: "https://site/1", Title: "oracle errors"},
		{GUID: "2", Link: "https://site/2", Title: "oracle says no"},
		{GUID: "3", Link: "https://site/3", Title: "oracle empty"},
		{GUID: "4", Link: "https://site/4", Title: "oracle agrees"},
	}}

	report, err := h.pipeline().Run(context.Background(), runConfig(domain.FeedSource{URL: "https://feeds/a"}))
	if err != nil {
		t.Fatalf("Run error: %v", err)
	}
	if report.States[domain.StateFiltered] != 3 || report.States[domain.StateUpserted] != 1 {
		t.Fatalf("unexpected states %+v", report.States)
	}
	if h.scraper.callCount() != 1 {
		t.Fatalf("filtered items must not be scraped, got %d scrapes", h.scraper.callCount())
	}
}

func TestRunRelevanceDisabled(t *testing.T) {
	t.Parallel()

	h := newHarness()
	h.opts.RelevanceFilter = false
	h.reader.feeds["https://feeds/a"] = domain.Feed{Items: []domain.RawFeedItem{{GUID: "1", Link: "https://site/1"}}}

	cfg := runConfig(domain.FeedSource{URL: "https://feeds/a"})
	cfg.Prompts.Relevance = ""
	report, err := h.pipeline().Run(context.Background(), cfg)
	if err != nil {
		t.Fatalf("Run error: %v", err)
	}
	if report.States[domain.StateUpserted] != 1 || h.oracle.count("REL") != 0 {
		t.Fatalf("relevance stage should be skipped: %+v", report.States)
	}
}

func TestRunIsolatesFailingSource(t *testing.T) {
	t.Parallel()

	h := newHarness()
	h.opts.MaxConcurrentFeeds = 2
	h.reader.feeds["https://feeds/1"] = domain.Feed{Items: []domain.RawFeedItem{{GUID: "a", Link: "https://site/a"}}}
	h.reader.errs["https://feeds/2"] = errBoom
	h.reader.feeds["https://feeds/3"] = domain.Feed{Items: []domain.RawFeedItem{{GUID: "c", Link: "https://site/c"}}}

	report, err := h.pipeline().Run(context.Background(), runConfig(
		domain.FeedSource{URL: "https://feeds/1"},
		domain.FeedSource{URL: "https://feeds/2"},
		domain.FeedSource{URL: "https://feeds/3"},
	))
	if err != nil {
		t.Fatalf("Run error: %v", err)
	}
	if report.Sources != 3 || report.SourcesFailed != 1 {
		t.Fatalf("expected 1 failed source out of 3, got %d/%d", report.SourcesFailed, report.Sources)
	}
	for _, key := range []string{"a", "c"} {
		if _, err := h.repo.Get(context.Background(), key); err != nil {
			t.Fatalf("item %s of healthy source not stored: %v", key, err)
		}
	}
}

func TestRunIsolatesFailingItem(t *testing.T) {
	t.Parallel()

	h := newHarness()
	h.oracle.rewrite = func(prompt string) (string, error) {
		if strings.Contains(prompt, "broken") {
			return "", errBoom
		}
		return `{"content":"ok","tags":[]}`, nil
	}
	h.reader.feeds["https://feeds/a"] = domain.Feed{Items: []domain.RawFeedItem{
		{GUID: "1", Link: "https://site/1", Title: "broken item"},
		{GUID: "2", Link: "https://site/2", Title: "fine item"},
	}}

	report, err := h.pipeline().Run(context.Background(), runConfig(domain.FeedSource{URL: "https://feeds/a"}))
	if err != nil {
		t.Fatalf("Run error: %v", err)
	}
	if report.States[domain.StateRewriteFailed] != 1 || report.States[domain.StateUpserted] != 1 {
		t.Fatalf("unexpected states %+v", report.States)
	}
}

func TestRunSkipsItemsWithoutImages(t *testing.T) {
	t.Parallel()

	h := newHarness()
	h.scraper.results["https://site/1"] = domain.ScrapedContent{TextContent: "text only"}
	h.scraper.results["https://site/2"] = domain.ScrapedContent{BodyImages: []string{"https://img/1.jpg", "https://img/2.jpg"}}
	h.reader.feeds["https://feeds/a"] = domain.Feed{Items: []domain.RawFeedItem{
		{GUID: "1", Link: "https://site/1"},
		{GUID: "2", Link: "https://site/2"},
	}}

	report, err := h.pipeline().Run(context.Background(), runConfig(domain.FeedSource{URL: "https://feeds/a"}))
	if err != nil {
		t.Fatalf("Run error: %v", err)
	}
	if report.States[domain.StateSkippedNoImage] != 1 || report.States[domain.StateUpserted] != 1 {
		t.Fatalf("unexpected states %+v", report.States)
	}
	if h.oracle.count("ART") != 1 {
		t.Fatalf("image-less item must not be rewritten")
	}

	stored, err := h.repo.Get(context.Background(), "2")
	if err != nil {
		t.Fatalf("Get error: %v", err)
	}
	if stored.ImageURL != "https://img/1.jpg" || len(stored.BodyImages) != 1 || stored.BodyImages[0] != "https://img/2.jpg" {
		t.Fatalf("first body image should become the hero: %+v", stored)
	}
}

func TestRunSkipsItemsWithoutKey(t *testing.T) {
	t.Parallel()

	h := newHarness()
	h.reader.feeds["https://feeds/a"] = domain.Feed{Items: []domain.RawFeedItem{{Title: "orphan", GUID: "  "}}}

	report, err := h.pipeline().Run(context.Background(), runConfig(domain.FeedSource{URL: "https://feeds/a"}))
	if err != nil {
		t.Fatalf("Run error: %v", err)
	}
	if report.States[domain.StateMissingKey] != 1 || h.oracle.count("") != 0 {
		t.Fatalf("unexpected states %+v", report.States)
	}
}

func TestRunMalformedRewriteDropsItem(t *testing.T) {
	t.Parallel()

	h := newHarness()
	h.oracle.rewrite = func(string) (string, error) { return `{"tags":["x"]}`, nil }
	h.reader.feeds["https://feeds/a"] = domain.Feed{Items: []domain.RawFeedItem{{GUID: "1", Link: "https://site/1"}}}

	report, err := h.pipeline().Run(context.Background(), runConfig(domain.FeedSource{URL: "https://feeds/a"}))
	if err != nil {
		t.Fatalf("Run error: %v", err)
	}
	if report.States[domain.StateRewriteFailed] != 1 || h.repo.upsertCount() != 0 {
		t.Fatalf("malformed response must not be stored: %+v", report.States)
	}
}

func TestRunAppliesOracleCategoryOverride(t *testing.T) {
	t.Parallel()

	h := newHarness()
	h.oracle.rewrite = func(prompt string) (string, error) {
		if !strings.Contains(prompt, "[General News/General]") {
			t.Errorf("prompt should carry keyword category, got %q", prompt)
		}
		return `{"content":"c","tags":[],"mainCategory":"Nintendo","subCategory":"Switch 2"}`, nil
	}
	h.reader.feeds["https://feeds/a"] = domain.Feed{Items: []domain.RawFeedItem{{GUID: "1", Link: "https://site/1", Title: "A mystery console"}}}

	if _, err := h.pipeline().Run(context.Background(), runConfig(domain.FeedSource{URL: "https://feeds/a", Category: "Multi-platform"})); err != nil {
		t.Fatalf("Run error: %v", err)
	}
	stored, err := h.repo.Get(context.Background(), "1")
	if err != nil {
		t.Fatalf("Get error: %v", err)
	}
	if stored.Category != "Nintendo" || stored.SubCategory != "Switch 2" {
		t.Fatalf("oracle categories should win, got %s/%s", stored.Category, stored.SubCategory)
	}
}

func TestRunLanguageGate(t *testing.T) {
	t.Parallel()

	h := newHarness()
	h.opts.Languages = []string{"eng"}
	h.detector = fakeDetector{"Nouvelles": "fra"}
	h.reader.feeds["https://feeds/a"] = domain.Feed{Items: []domain.RawFeedItem{
		{GUID: "1", Link: "https://site/1", Title: "Nouvelles du jour"},
		{GUID: "2", Link: "https://site/2", Title: "Daily news"},
	}}

	report, err := h.pipeline().Run(context.Background(), runConfig(domain.FeedSource{URL: "https://feeds/a"}))
	if err != nil {
		t.Fatalf("Run error: %v", err)
	}
	if report.States[domain.StateFiltered] != 1 || report.States[domain.StateUpserted] != 1 {
		t.Fatalf("unexpected states %+v", report.States)
	}
	if h.oracle.count("REL") != 1 {
		t.Fatalf("language-filtered item must not reach the relevance oracle")
	}
}

func TestRunStoreWriteFailure(t *testing.T) {
	t.Parallel()

	h := newHarness()
	h.repo.upsertErr = errBoom
	h.reader.feeds["https://feeds/a"] = domain.Feed{Items: []domain.RawFeedItem{{GUID: "1", Link: "https://site/1"}}}

	report, err := h.pipeline().Run(context.Background(), runConfig(domain.FeedSource{URL: "https://feeds/a"}))
	if err != nil {
		t.Fatalf("Run error: %v", err)
	}
	if report.States[domain.StateStoreFailed] != 1 || len(report.Published) != 0 {
		t.Fatalf("unexpected states %+v", report.States)
	}
}

func TestRunRequiresConfiguration(t *testing.T) {
	t.Parallel()

	h := newHarness()
	if _, err := h.pipeline().Run(context.Background(), domain.RunConfig{Prompts: testPrompts}); !errors.Is(err, domain.ErrConfigMissing) {
		t.Fatalf("expected ErrConfigMissing without feeds, got %v", err)
	}

	cfg := runConfig(domain.FeedSource{URL: "https://feeds/a"})
	cfg.Prompts.Relevance = ""
	if _, err := h.pipeline().Run(context.Background(), cfg); !errors.Is(err, domain.ErrConfigMissing) {
		t.Fatalf("expected ErrConfigMissing without relevance prompt, got %v", err)
	}
}

func TestRunFromStoreConfig(t *testing.T) {
	t.Parallel()

	h := newHarness()
	h.reader.feeds["https://feeds/a"] = domain.Feed{Items: []domain.RawFeedItem{{GUID: "1", Link: "https://site/1"}}}

	repo := &fakeConfigRepo{feeds: []domain.FeedSource{{URL: "https://feeds/a"}}, prompts: testPrompts}
	report, err := h.pipeline().RunFrom(context.Background(), NewStoreConfigSource(repo, testKeywords))
	if err != nil {
		t.Fatalf("RunFrom error: %v", err)
	}
	if report.States[domain.StateUpserted] != 1 {
		t.Fatalf("unexpected states %+v", report.States)
	}

	repo.feedsErr = domain.ErrConfigMissing
	if _, err := h.pipeline().RunFrom(context.Background(), NewStoreConfigSource(repo, testKeywords)); !errors.Is(err, domain.ErrConfigMissing) {
		t.Fatalf("expected ErrConfigMissing, got %v", err)
	}
}

func TestFeedSourceName(t *testing.T) {
	t.Parallel()

	cases := []struct {
		title, url, want string
	}{
		{"Eurogamer", "https://www.eurogamer.net/feed", "Eurogamer"},
		{"  ", "https://www.eurogamer.net/feed", "eurogamer.net"},
		{"", "not a url", "not a url"},
	}
	for _, tc := range cases {
		if got := feedSourceName(tc.title, tc.url); got != tc.want {
			t.Fatalf("feedSourceName(%q, %q) = %q, want %q", tc.title, tc.url, got, tc.want)
		}
	}
}

func TestRunLogsEveryStageOfStoredItem(t *testing.T) {
	t.Parallel()

	var buf bytes.Buffer
	h := newHarness()
	h.logger = slog.New(slog.NewTextHandler(&buf, &slog.HandlerOptions{Level: slog.LevelDebug}))
	h.reader.feeds["https://feeds/a"] = domain.Feed{Items: []domain.RawFeedItem{{GUID: "1", Link: "https://site/1"}}}

	if _, err := h.pipeline().Run(context.Background(), runConfig(domain.FeedSource{URL: "https://feeds/a"})); err != nil {
		t.Fatalf("Run error: %v", err)
	}

	out := buf.String()
	stages := []domain.ItemState{
		domain.StateFetched, domain.StateChecked, domain.StateRelevant, domain.StateScraped,
		domain.StateImaged, domain.StateCategorized, domain.StateRewritten, domain.StateUpserted,
	}
	last := -1
	for _, state := range stages {
		idx := strings.Index(out, "state="+string(state))
		if idx < 0 {
			t.Fatalf("state %s not logged:\n%s", state, out)
		}
		if idx < last {
			t.Fatalf("state %s logged out of order:\n%s", state, out)
		}
		last = idx
	}
}

func TestDigestEscapesMarkdown(t *testing.T) {
	t.Parallel()

	h := newHarness()
	h.reader.feeds["https://feeds/a"] = domain.Feed{Items: []domain.RawFeedItem{
		{GUID: "1", Link: "https://site/half_life", Title: "Half_Life *3 [rumour] `leak`"},
	}}

	if _, err := h.pipeline().Run(context.Background(), runConfig(domain.FeedSource{URL: "https://feeds/a"})); err != nil {
		t.Fatalf("Run error: %v", err)
	}
	if len(h.notifier.messages) != 1 {
		t.Fatalf("expected one digest, got %d", len(h.notifier.messages))
	}
	msg := h.notifier.messages[0]
	for _, want := range []string{"Half\\_Life \\*3 \\[rumour] \\`leak\\`", "https://site/half\\_life", "*1 new articles*"} {
		if !strings.Contains(msg, want) {
			t.Fatalf("digest %q missing %q", msg, want)
		}
	}
}
