package llm

import (
	"fmt"

	"github.com/Lasikiewicz/news-aggregator/internal/config"
	"github.com/Lasikiewicz/news-aggregator/internal/domain"
	"github.com/Lasikiewicz/news-aggregator/internal/ports"
)

// New selects the oracle implementation for cfg.Provider. A missing API key
// is a startup error.
func New(cfg config.OracleConfig) (ports.Oracle, error) {
	if cfg.APIKey == "" {
		return nil, fmt.Errorf("%w: oracle api key is not set", domain.ErrConfigMissing)
	}
	switch cfg.Provider {
	case config.ProviderOpenAI:
		return NewChatGPTClient(cfg), nil
	case config.ProviderGemini, "":
		return NewGeminiClient(cfg), nil
	default:
		return nil, fmt.Errorf("unknown oracle provider %q", cfg.Provider)
	}
}
