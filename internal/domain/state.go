package domain

import "strings"

// ItemState enumerates the per-item pipeline milestones.
type ItemState string

const (
	StateFetched        ItemState = "fetched"
	StateMissingKey     ItemState = "missing_key"
	StateDeduped        ItemState = "deduped"
	StateChecked        ItemState = "checked"
	StateFiltered       ItemState = "filtered"
	StateRelevant       ItemState = "relevant"
	StateScraped        ItemState = "scraped"
	StateSkippedNoImage ItemState = "skipped_no_image"
	StateImaged         ItemState = "imaged"
	StateCategorized    ItemState = "categorized"
	StateRewriteFailed  ItemState = "rewrite_failed"
	StateRewritten      ItemState = "rewritten"
	StateStoreFailed    ItemState = "store_failed"
	StateUpserted       ItemState = "upserted"
)

// Terminal reports whether no further stage runs after s.
func (s ItemState) Terminal() bool {
	switch s {
	case StateMissingKey, StateDeduped, StateFiltered, StateSkippedNoImage,
		StateRewriteFailed, StateStoreFailed, StateUpserted:
		return true
	}
	return false
}

// StableKey derives the deduplication key of an item: guid, then link.
func StableKey(item RawFeedItem) (string, bool) {
	if guid := strings.TrimSpace(item.GUID); guid != "" {
		return guid, true
	}
	if link := strings.TrimSpace(item.Link); link != "" {
		return link, true
	}
	return "", false
}
