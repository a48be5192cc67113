// Package google implements the Google-backed source adapters: search
// suggestions, the trending-searches RSS feed and the Trends timeseries API.
package google

import (
	"context"
	"encoding/json"
	"fmt"
	"net/url"

	"demandflow/fetch"
	"demandflow/internal/phrase"
)

const suggestURL = "https://suggestqueries.google.com/complete/search"

// SuggestSource fetches search autocomplete suggestions for a seed keyword.
type SuggestSource struct {
	fetcher  fetch.Fetcher
	language string
	maxItems int
}

func NewSuggestSource(fetcher fetch.Fetcher, language string, maxItems int) *SuggestSource {
	return &SuggestSource{fetcher: fetcher, language: language, maxItems: maxItems}
}

func (s *SuggestSource) Name() string { return "google_suggest" }

// Suggestions queries the suggest API and returns an ordered, deduplicated
// suggestion list.
func (s *SuggestSource) Suggestions(ctx context.Context, keyword string) ([]string, error) {
	endpoint := fmt.Sprintf("%s?client=firefox&q=%s&hl=%s",
		suggestURL, url.QueryEscape(keyword), url.QueryEscape(s.language))
	payload, err := s.fetcher.Fetch(ctx, endpoint, map[string]string{"Accept": "application/json"})
	if err != nil {
		return nil, err
	}
	return ParseSuggestPayload(payload, s.maxItems)
}

// ParseSuggestPayload decodes the firefox-client suggest response, which is a
// JSON array of the form [query, [suggestion, ...], ...].
func ParseSuggestPayload(payload string, maxItems int) ([]string, error) {
	var data []json.RawMessage
	if err := json.Unmarshal([]byte(payload), &data); err != nil {
		return nil, fmt.Errorf("failed to decode suggest payload: %w", err)
	}
	if len(data) < 2 {
		return nil, nil
	}
	var suggestions []string
	if err := json.Unmarshal(data[1], &suggestions); err != nil {
		return nil, nil
	}
	return phrase.Dedupe(suggestions, maxItems), nil
}
