package usecase

import (
	"context"
	"log/slog"
	"strings"
	"unicode"

	"github.com/Lasikiewicz/news-aggregator/internal/metrics"
	"github.com/Lasikiewicz/news-aggregator/internal/ports"
)

// RelevanceFilter asks the oracle whether an item is worth processing.
// Anything but an explicit YES counts as not relevant.
type RelevanceFilter struct {
	oracle   ports.Oracle
	template string
	logger   *slog.Logger
}

// NewRelevanceFilter binds the relevance prompt template.
func NewRelevanceFilter(oracle ports.Oracle, template string, logger *slog.Logger) *RelevanceFilter {
	return &RelevanceFilter{oracle: oracle, template: template, logger: logger}
}

// IsRelevant never returns an error; oracle failures yield false.
func (f *RelevanceFilter) IsRelevant(ctx context.Context, title, snippet string) bool {
	if f.oracle == nil || strings.TrimSpace(f.template) == "" {
		f.logger.Warn("relevance check without oracle or prompt", "title", title)
		return false
	}

	prompt := RenderPrompt(f.template, map[string]string{
		varTitle:   title,
		varSnippet: snippet,
	})

	answer, err := f.oracle.Generate(ctx, prompt)
	metrics.OracleRequestsTotal.WithLabelValues("relevance", metrics.Result(err)).Inc()
	if err != nil {
		f.logger.Warn("relevance check failed", "title", title, "error", err)
		return false
	}
	return isAffirmative(answer)
}

// isAffirmative reports whether the first word of the answer is YES,
// ignoring case, quotes and punctuation.
func isAffirmative(answer string) bool {
	fields := strings.Fields(answer)
	if len(fields) == 0 {
		return false
	}
	word := strings.TrimFunc(fields[0], func(r rune) bool {
		return !unicode.IsLetter(r)
	})
	return strings.EqualFold(word, "yes")
}
