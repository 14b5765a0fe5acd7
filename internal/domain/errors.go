package domain

import "errors"

var (
	ErrFeedUnavailable         = errors.New("feed unavailable")
	ErrScrapeTimeout           = errors.New("scrape timeout")
	ErrScrapeFailure           = errors.New("scrape failure")
	ErrOracle                  = errors.New("oracle error")
	ErrMalformedOracleResponse = errors.New("malformed oracle response")
	ErrMissingKey              = errors.New("item has neither guid nor link")
	ErrConfigMissing           = errors.New("configuration missing")
	ErrNotFound                = errors.New("not found")
)
