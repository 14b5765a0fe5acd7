package domain

import "time"

// FeedSource is a single configured RSS/Atom endpoint.
type FeedSource struct {
	URL             string `json:"url" yaml:"url"`
	Category        string `json:"category" yaml:"category"`
	ArticleSelector string `json:"articleSelector,omitempty" yaml:"articleSelector"`
	ImageSelector   string `json:"imageSelector,omitempty" yaml:"imageSelector"`
}

// Feed is the parsed result of one feed pull.
type Feed struct {
	Title string
	Items []RawFeedItem
}

// RawFeedItem is an entry as read from a feed; never persisted directly.
type RawFeedItem struct {
	GUID           string
	Link           string
	Title          string
	ContentSnippet string
	Content        string
	ISODate        string
}

// Snippet returns the best short description available for the item.
func (i RawFeedItem) Snippet() string {
	if i.ContentSnippet != "" {
		return i.ContentSnippet
	}
	return i.Content
}

// ScrapedContent is what the scraper recovered from an article page.
// HeroImage never appears in BodyImages.
type ScrapedContent struct {
	HeroImage   string
	BodyImages  []string
	TextContent string
	Language    string
}

// HasImage reports whether any usable image was found.
func (s ScrapedContent) HasImage() bool {
	return s.HeroImage != "" || len(s.BodyImages) > 0
}

// CategoryAssignment is the resolved (category, subCategory) pair.
type CategoryAssignment struct {
	Category    string
	SubCategory string
}

// RewriteResult is the validated oracle output for one article.
type RewriteResult struct {
	Content      string   `json:"content"`
	Tags         []string `json:"tags"`
	TitleShort   string   `json:"title_short,omitempty"`
	SubCategory  string   `json:"subCategory,omitempty"`
	MainCategory string   `json:"mainCategory,omitempty"`
}

// Article is the persisted, normalized record keyed by its stable key.
type Article struct {
	ID             string    `json:"id"`
	GUID           string    `json:"guid"`
	Title          string    `json:"title"`
	TitleShort     string    `json:"title_short,omitempty"`
	Link           string    `json:"link"`
	Content        string    `json:"content"`
	ContentSnippet string    `json:"contentSnippet"`
	Published      time.Time `json:"published"`
	Category       string    `json:"category"`
	SubCategory    string    `json:"subCategory"`
	Tags           []string  `json:"tags"`
	ImageURL       string    `json:"imageUrl"`
	BodyImages     []string  `json:"bodyImages,omitempty"`
	Source         string    `json:"source"`
}

// Prompts holds the oracle prompt templates.
type Prompts struct {
	Relevance string `json:"relevance" yaml:"relevance"`
	Article   string `json:"article" yaml:"article"`
}

// CategoryKeywords declares the sub-category keywords of one main category.
type CategoryKeywords struct {
	Name          string               `json:"name" yaml:"name"`
	SubCategories []SubCategoryKeyword `json:"subCategories" yaml:"subCategories"`
}

// SubCategoryKeyword binds keywords to a sub-category.
type SubCategoryKeyword struct {
	Name     string   `json:"name" yaml:"name"`
	Keywords []string `json:"keywords" yaml:"keywords"`
}

// RunConfig is loaded once at run start and is read-only for the run.
type RunConfig struct {
	Feeds    []FeedSource
	Prompts  Prompts
	Keywords []CategoryKeywords
}
