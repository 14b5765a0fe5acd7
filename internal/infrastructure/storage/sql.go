package storage

import (
	"encoding/json"
	"fmt"
	"time"

	sq "github.com/Masterminds/squirrel"

	"github.com/Lasikiewicz/news-aggregator/internal/domain"
)

const (
	articlesTable = "articles"
	configTable   = "config_documents"
)

var articleColumns = []string{
	"id", "guid", "title", "title_short", "link", "content", "content_snippet",
	"published", "category", "sub_category", "tags", "image_url", "body_images", "source",
}

// dialect captures the differences between the SQL backends.
type dialect struct {
	placeholder sq.PlaceholderFormat
	// now is the server-side current timestamp expression.
	now        string
	encodeTime func(time.Time) any
	// timeDest returns a scan target and a decoder for the published column.
	timeDest func() (any, func() (time.Time, error))
}

func (d dialect) builder() sq.StatementBuilderType {
	return sq.StatementBuilder.PlaceholderFormat(d.placeholder)
}

func (d dialect) upsertArticle(a domain.Article) (string, []any, error) {
	tags, err := encodeList(a.Tags)
	if err != nil {
		return "", nil, fmt.Errorf("encode tags: %w", err)
	}
	bodyImages, err := encodeList(a.BodyImages)
	if err != nil {
		return "", nil, fmt.Errorf("encode body images: %w", err)
	}

	var published any = sq.Expr(d.now)
	if !a.Published.IsZero() {
		published = d.encodeTime(a.Published)
	}

	return d.builder().
		Insert(articlesTable).
		Columns(articleColumns...).
		Values(a.ID, a.GUID, a.Title, a.TitleShort, a.Link, a.Content, a.ContentSnippet,
			published, a.Category, a.SubCategory, tags, a.ImageURL, bodyImages, a.Source).
		Suffix(`ON CONFLICT (id) DO UPDATE SET
			guid = EXCLUDED.guid,
			title = EXCLUDED.title,
			title_short = EXCLUDED.title_short,
			link = EXCLUDED.link,
			content = EXCLUDED.content,
			content_snippet = EXCLUDED.content_snippet,
			published = EXCLUDED.published,
			category = EXCLUDED.category,
			sub_category = EXCLUDED.sub_category,
			tags = EXCLUDED.tags,
			image_url = EXCLUDED.image_url,
			body_images = EXCLUDED.body_images,
			source = EXCLUDED.source`).
		ToSql()
}

func (d dialect) existsArticle(key string) (string, []any, error) {
	return d.builder().
		Select("1").
		From(articlesTable).
		Where(sq.Eq{"id": key}).
		Limit(1).
		ToSql()
}

func (d dialect) selectArticle(key string) (string, []any, error) {
	return d.builder().
		Select(articleColumns...).
		From(articlesTable).
		Where(sq.Eq{"id": key}).
		ToSql()
}

func (d dialect) upsertConfig(name string, body []byte) (string, []any, error) {
	return d.builder().
		Insert(configTable).
		Columns("name", "body").
		Values(name, string(body)).
		Suffix("ON CONFLICT (name) DO UPDATE SET body = EXCLUDED.body").
		ToSql()
}

func (d dialect) selectConfig(name string) (string, []any, error) {
	return d.builder().
		Select("body").
		From(configTable).
		Where(sq.Eq{"name": name}).
		ToSql()
}

// scanArticle reads a row produced by selectArticle.
func (d dialect) scanArticle(scan func(dest ...any) error) (domain.Article, error) {
	var (
		a                domain.Article
		tags, bodyImages string
	)
	publishedDest, decodePublished := d.timeDest()

	err := scan(&a.ID, &a.GUID, &a.Title, &a.TitleShort, &a.Link, &a.Content, &a.ContentSnippet,
		publishedDest, &a.Category, &a.SubCategory, &tags, &a.ImageURL, &bodyImages, &a.Source)
	if err != nil {
		return domain.Article{}, err
	}

	if a.Published, err = decodePublished(); err != nil {
		return domain.Article{}, fmt.Errorf("decode published: %w", err)
	}
	if a.Tags, err = decodeList(tags); err != nil {
		return domain.Article{}, fmt.Errorf("decode tags: %w", err)
	}
	if a.BodyImages, err = decodeList(bodyImages); err != nil {
		return domain.Article{}, fmt.Errorf("decode body images: %w", err)
	}
	if len(a.BodyImages) == 0 {
		a.BodyImages = nil
	}
	return a, nil
}

func encodeList(values []string) (string, error) {
	if values == nil {
		values = []string{}
	}
	raw, err := json.Marshal(values)
	if err != nil {
		return "", err
	}
	return string(raw), nil
}

func decodeList(raw string) ([]string, error) {
	if raw == "" {
		return []string{}, nil
	}
	var values []string
	if err := json.Unmarshal([]byte(raw), &values); err != nil {
		return nil, err
	}
	if values == nil {
		values = []string{}
	}
	return values, nil
}
