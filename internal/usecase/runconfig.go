package usecase

import (
	"context"
	"fmt"
	"strings"

	"github.com/Lasikiewicz/news-aggregator/internal/domain"
	"github.com/Lasikiewicz/news-aggregator/internal/ports"
)

// StaticConfigSource serves feeds and prompts from the loaded YAML config.
type StaticConfigSource struct {
	cfg domain.RunConfig
}

var _ ports.RunConfigSource = (*StaticConfigSource)(nil)

func NewStaticConfigSource(feeds []domain.FeedSource, prompts domain.Prompts, keywords []domain.CategoryKeywords) *StaticConfigSource {
	return &StaticConfigSource{cfg: domain.RunConfig{Feeds: feeds, Prompts: prompts, Keywords: keywords}}
}

func (s *StaticConfigSource) Load(context.Context) (domain.RunConfig, error) {
	if err := validateRunConfig(s.cfg); err != nil {
		return domain.RunConfig{}, err
	}
	return s.cfg, nil
}

// StoreConfigSource reads the config/feeds and config/prompts documents once
// per run. Keywords always come from local configuration.
type StoreConfigSource struct {
	repo     ports.ConfigRepository
	keywords []domain.CategoryKeywords
}

var _ ports.RunConfigSource = (*StoreConfigSource)(nil)

func NewStoreConfigSource(repo ports.ConfigRepository, keywords []domain.CategoryKeywords) *StoreConfigSource {
	return &StoreConfigSource{repo: repo, keywords: keywords}
}

func (s *StoreConfigSource) Load(ctx context.Context) (domain.RunConfig, error) {
	feeds, err := s.repo.LoadFeeds(ctx)
	if err != nil {
		return domain.RunConfig{}, fmt.Errorf("load feeds: %w", err)
	}
	prompts, err := s.repo.LoadPrompts(ctx)
	if err != nil {
		return domain.RunConfig{}, fmt.Errorf("load prompts: %w", err)
	}

	cfg := domain.RunConfig{Feeds: feeds, Prompts: prompts, Keywords: s.keywords}
	if err := validateRunConfig(cfg); err != nil {
		return domain.RunConfig{}, err
	}
	return cfg, nil
}

func validateRunConfig(cfg domain.RunConfig) error {
	if len(cfg.Feeds) == 0 {
		return fmt.Errorf("%w: no feeds configured", domain.ErrConfigMissing)
	}
	if strings.TrimSpace(cfg.Prompts.Article) == "" {
		return fmt.Errorf("%w: article prompt is empty", domain.ErrConfigMissing)
	}
	return nil
}
