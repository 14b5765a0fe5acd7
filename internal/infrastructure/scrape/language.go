package scrape

import (
	"github.com/abadojack/whatlanggo"

	"github.com/Lasikiewicz/news-aggregator/internal/ports"
)

// LanguageDetector wraps whatlanggo and reports ISO 639-3 codes.
type LanguageDetector struct{}

var _ ports.LanguageDetector = LanguageDetector{}

// Detect returns the language code and whether whatlanggo trusts it.
func (LanguageDetector) Detect(text string) (string, bool) {
	if text == "" {
		return "", false
	}
	info := whatlanggo.Detect(text)
	return info.Lang.Iso6393(), info.IsReliable()
}
