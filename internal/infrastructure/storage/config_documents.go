package storage

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/Lasikiewicz/news-aggregator/internal/domain"
)

// Names of the documents in the config collection.
const (
	feedsDocument   = "feeds"
	promptsDocument = "prompts"
)

type feedsDoc struct {
	URLs []domain.FeedSource `json:"urls"`
}

func encodeFeeds(feeds []domain.FeedSource) ([]byte, error) {
	return json.Marshal(feedsDoc{URLs: feeds})
}

func decodeFeeds(raw []byte) ([]domain.FeedSource, error) {
	var doc feedsDoc
	if err := json.Unmarshal(raw, &doc); err != nil {
		return nil, fmt.Errorf("decode feeds document: %w", err)
	}
	if len(doc.URLs) == 0 {
		return nil, fmt.Errorf("%w: feeds document has no urls", domain.ErrConfigMissing)
	}
	return doc.URLs, nil
}

func encodePrompts(p domain.Prompts) ([]byte, error) {
	return json.Marshal(p)
}

func decodePrompts(raw []byte) (domain.Prompts, error) {
	var p domain.Prompts
	if err := json.Unmarshal(raw, &p); err != nil {
		return domain.Prompts{}, fmt.Errorf("decode prompts document: %w", err)
	}
	if strings.TrimSpace(p.Article) == "" {
		return domain.Prompts{}, fmt.Errorf("%w: prompts document has no article template", domain.ErrConfigMissing)
	}
	return p, nil
}

func missingDocument(name string) error {
	return fmt.Errorf("%w: config/%s document not found", domain.ErrConfigMissing, name)
}
