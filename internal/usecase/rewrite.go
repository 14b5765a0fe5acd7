package usecase

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"strings"

	"github.com/PuerkitoBio/goquery"

	"github.com/Lasikiewicz/news-aggregator/internal/domain"
	"github.com/Lasikiewicz/news-aggregator/internal/metrics"
	"github.com/Lasikiewicz/news-aggregator/internal/ports"
)

// RewriteInput is everything the article prompt can reference.
type RewriteInput struct {
	Title      string
	Snippet    string
	Content    string
	HeroImage  string
	BodyImages []string
	Category   domain.CategoryAssignment
}

// Rewriter turns scraped content into a publishable article via the oracle.
type Rewriter struct {
	oracle   ports.Oracle
	template string
	maxChars int
	logger   *slog.Logger
}

// NewRewriter binds the article prompt template. maxChars caps the scraped
// text inserted into the prompt.
func NewRewriter(oracle ports.Oracle, template string, maxChars int, logger *slog.Logger) *Rewriter {
	return &Rewriter{oracle: oracle, template: template, maxChars: maxChars, logger: logger}
}

// Rewrite renders the prompt, calls the oracle and validates the answer.
func (r *Rewriter) Rewrite(ctx context.Context, in RewriteInput) (domain.RewriteResult, error) {
	if r.oracle == nil {
		return domain.RewriteResult{}, fmt.Errorf("%w: no oracle configured", domain.ErrOracle)
	}

	content := in.Content
	if strings.TrimSpace(content) == "" {
		content = in.Snippet
	}

	prompt := RenderPrompt(r.template, map[string]string{
		varTitle:       in.Title,
		varSnippet:     in.Snippet,
		varContent:     truncateRunes(content, r.maxChars),
		varImageList:   formatImageList(in.HeroImage, in.BodyImages),
		varCategory:    in.Category.Category,
		varSubCategory: in.Category.SubCategory,
	})

	raw, err := r.oracle.Generate(ctx, prompt)
	metrics.OracleRequestsTotal.WithLabelValues("rewrite", metrics.Result(err)).Inc()
	if err != nil {
		if errors.Is(err, domain.ErrOracle) {
			return domain.RewriteResult{}, err
		}
		return domain.RewriteResult{}, fmt.Errorf("%w: %v", domain.ErrOracle, err)
	}

	result, err := ParseRewrite(raw)
	if err != nil {
		r.logger.Debug("rejected oracle response", "title", in.Title, "response", truncateRunes(raw, 200), "error", err)
		return domain.RewriteResult{}, err
	}
	return result, nil
}

type rewriteWire struct {
	Content      *string  `json:"content"`
	Tags         []string `json:"tags"`
	TitleShort   string   `json:"title_short"`
	SubCategory  string   `json:"subCategory"`
	MainCategory string   `json:"mainCategory"`
}

// ParseRewrite validates an oracle answer. A JSON object is decoded strictly;
// otherwise the answer must be HTML followed by a final [tag, tag] list.
func ParseRewrite(raw string) (domain.RewriteResult, error) {
	text := strings.TrimSpace(raw)
	if strings.HasPrefix(text, "```") {
		text = stripCodeFence(text)
	}
	if text == "" {
		return domain.RewriteResult{}, fmt.Errorf("%w: empty response", domain.ErrMalformedOracleResponse)
	}
	if strings.HasPrefix(text, "{") {
		return parseRewriteJSON(text)
	}
	return parseRewriteHybrid(text)
}

func parseRewriteJSON(text string) (domain.RewriteResult, error) {
	dec := json.NewDecoder(strings.NewReader(text))
	dec.DisallowUnknownFields()

	var wire rewriteWire
	if err := dec.Decode(&wire); err != nil {
		return domain.RewriteResult{}, fmt.Errorf("%w: %v", domain.ErrMalformedOracleResponse, err)
	}
	if err := dec.Decode(&struct{}{}); !errors.Is(err, io.EOF) {
		return domain.RewriteResult{}, fmt.Errorf("%w: trailing data after object", domain.ErrMalformedOracleResponse)
	}
	if wire.Content == nil || strings.TrimSpace(*wire.Content) == "" {
		return domain.RewriteResult{}, fmt.Errorf("%w: content is missing", domain.ErrMalformedOracleResponse)
	}

	return domain.RewriteResult{
		Content:      strings.TrimSpace(*wire.Content),
		Tags:         cleanTags(wire.Tags),
		TitleShort:   strings.TrimSpace(wire.TitleShort),
		SubCategory:  strings.TrimSpace(wire.SubCategory),
		MainCategory: strings.TrimSpace(wire.MainCategory),
	}, nil
}

func parseRewriteHybrid(text string) (domain.RewriteResult, error) {
	if !strings.HasSuffix(text, "]") {
		return domain.RewriteResult{}, fmt.Errorf("%w: no trailing tag list", domain.ErrMalformedOracleResponse)
	}
	open := strings.LastIndex(text, "[")
	if open < 0 {
		return domain.RewriteResult{}, fmt.Errorf("%w: no trailing tag list", domain.ErrMalformedOracleResponse)
	}

	content := strings.TrimSpace(text[:open])
	if content == "" {
		return domain.RewriteResult{}, fmt.Errorf("%w: content is missing", domain.ErrMalformedOracleResponse)
	}
	if !containsMarkup(content) {
		return domain.RewriteResult{}, fmt.Errorf("%w: content has no html elements", domain.ErrMalformedOracleResponse)
	}

	tags := cleanTags(strings.Split(text[open+1:len(text)-1], ","))
	if len(tags) == 0 {
		return domain.RewriteResult{}, fmt.Errorf("%w: empty tag list", domain.ErrMalformedOracleResponse)
	}
	return domain.RewriteResult{Content: content, Tags: tags}, nil
}

// containsMarkup reports whether the fragment holds at least one HTML element.
func containsMarkup(fragment string) bool {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(fragment))
	if err != nil {
		return false
	}
	return doc.Find("body *").Length() > 0
}

// stripCodeFence removes a ``` or ```json fence that opens the text.
func stripCodeFence(text string) string {
	rest := strings.TrimPrefix(text, "```")
	if nl := strings.IndexByte(rest, '\n'); nl >= 0 {
		rest = rest[nl+1:]
	} else {
		return text
	}
	if end := strings.LastIndex(rest, "```"); end >= 0 {
		rest = rest[:end]
	}
	return strings.TrimSpace(rest)
}

func cleanTags(tags []string) []string {
	out := make([]string, 0, len(tags))
	seen := make(map[string]struct{}, len(tags))
	for _, tag := range tags {
		tag = strings.TrimSpace(tag)
		tag = strings.Trim(tag, `"'#`)
		tag = strings.TrimSpace(tag)
		if tag == "" {
			continue
		}
		lower := strings.ToLower(tag)
		if _, ok := seen[lower]; ok {
			continue
		}
		seen[lower] = struct{}{}
		out = append(out, tag)
	}
	return out
}
