// Package amazon implements the Amazon completion-API suggest source and the
// search results marketplace scanner.
package amazon

import (
	"context"
	"encoding/json"
	"fmt"
	"net/url"

	"demandflow/fetch"
	"demandflow/internal/phrase"
)

const (
	suggestURL = "https://completion.amazon.com/api/2017/suggestions"

	// US retail marketplace identifier for the completion API.
	usMarketplaceID = "ATVPDKIKX0DER"
)

type SuggestSource struct {
	fetcher  fetch.Fetcher
	maxItems int
}

func NewSuggestSource(fetcher fetch.Fetcher, maxItems int) *SuggestSource {
	return &SuggestSource{fetcher: fetcher, maxItems: maxItems}
}

func (s *SuggestSource) Name() string { return "amazon_suggest" }

func (s *SuggestSource) Suggestions(ctx context.Context, keyword string) ([]string, error) {
	endpoint := fmt.Sprintf(
		"%s?limit=%d&prefix=%s&alias=aps&mid=%s&plain-mid=1&client-info=search-ui",
		suggestURL, s.maxItems, url.QueryEscape(keyword), usMarketplaceID)
	payload, err := s.fetcher.Fetch(ctx, endpoint, map[string]string{"Accept": "application/json"})
	if err != nil {
		return nil, err
	}
	return ParseSuggestPayload(payload, s.maxItems)
}

// ParseSuggestPayload pulls the value field from each completion suggestion.
func ParseSuggestPayload(payload string, maxItems int) ([]string, error) {
	var parsed struct {
		Suggestions []struct {
			Value string `json:"value"`
		} `json:"suggestions"`
	}
	if err := json.Unmarshal([]byte(payload), &parsed); err != nil {
		return nil, fmt.Errorf("failed to decode suggest payload: %w", err)
	}
	suggestions := make([]string, 0, len(parsed.Suggestions))
	for _, item := range parsed.Suggestions {
		if item.Value != "" {
			suggestions = append(suggestions, item.Value)
		}
	}
	return phrase.Dedupe(suggestions, maxItems), nil
}
