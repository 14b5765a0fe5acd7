// Package category maps article titles to (category, subCategory) pairs
// using ordered keyword tables.
package category

import (
	"sort"
	"strings"

	"github.com/Lasikiewicz/news-aggregator/internal/domain"
)

const (
	// AmbiguousCategory marks feeds that cover every platform.
	AmbiguousCategory = "Multi-platform"
	// FallbackCategory is used when an ambiguous feed matches nothing.
	FallbackCategory = "General News"
	// DefaultSubCategory is used when no keyword matches.
	DefaultSubCategory = "General"
)

type entry struct {
	keyword     string
	subCategory string
}

type categoryTable struct {
	name    string
	entries []entry
}

// Table is an immutable keyword table. Entries of every category are sorted
// by keyword length descending at construction so that the longest keyword
// wins when several are substrings of the title.
type Table struct {
	categories []categoryTable
	byName     map[string]int
}

// NewTable builds a table, keeping categories in declared order.
func NewTable(decl []domain.CategoryKeywords) *Table {
	t := &Table{byName: make(map[string]int, len(decl))}
	for _, cat := range decl {
		ct := categoryTable{name: cat.Name}
		for _, sub := range cat.SubCategories {
			for _, kw := range sub.Keywords {
				kw = strings.ToLower(strings.TrimSpace(kw))
				if kw == "" {
					continue
				}
				ct.entries = append(ct.entries, entry{keyword: kw, subCategory: sub.Name})
			}
		}
		sort.SliceStable(ct.entries, func(i, j int) bool {
			return len(ct.entries[i].keyword) > len(ct.entries[j].keyword)
		})
		t.byName[strings.ToLower(cat.Name)] = len(t.categories)
		t.categories = append(t.categories, ct)
	}
	return t
}

// Categorize resolves the assignment for a title coming from a feed tagged
// with feedCategory. The result is never empty.
func (t *Table) Categorize(title, feedCategory string) domain.CategoryAssignment {
	lower := strings.ToLower(title)

	if !strings.EqualFold(feedCategory, AmbiguousCategory) {
		idx, ok := t.byName[strings.ToLower(feedCategory)]
		if !ok {
			return domain.CategoryAssignment{Category: feedCategory, SubCategory: DefaultSubCategory}
		}
		ct := t.categories[idx]
		if sub, ok := ct.match(lower); ok {
			return domain.CategoryAssignment{Category: ct.name, SubCategory: sub}
		}
		return domain.CategoryAssignment{Category: ct.name, SubCategory: DefaultSubCategory}
	}

	for _, ct := range t.categories {
		if sub, ok := ct.match(lower); ok {
			return domain.CategoryAssignment{Category: ct.name, SubCategory: sub}
		}
	}

	return domain.CategoryAssignment{Category: FallbackCategory, SubCategory: DefaultSubCategory}
}

func (c categoryTable) match(lowerTitle string) (string, bool) {
	for _, e := range c.entries {
		if strings.Contains(lowerTitle, e.keyword) {
			return e.subCategory, true
		}
	}
	return "", false
}

// Override applies oracle-provided categories on top of a keyword result.
func Override(base domain.CategoryAssignment, mainCategory, subCategory string) domain.CategoryAssignment {
	if v := strings.TrimSpace(mainCategory); v != "" {
		base.Category = v
	}
	if v := strings.TrimSpace(subCategory); v != "" {
		base.SubCategory = v
	}
	return base
}
