// Package walmart implements the Walmart search marketplace scanner. Search
// pages embed their result data as JSON in a __NEXT_DATA__ script tag, so the
// scanner parses that instead of the rendered markup.
package walmart

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/url"
	"strings"

	"demandflow/fetch"
	"demandflow/internal/phrase"
	"demandflow/models"
)

const searchURL = "https://www.walmart.com/search"

type Scanner struct {
	fetcher    fetch.Fetcher
	maxSamples int
}

func NewScanner(fetcher fetch.Fetcher, maxSamples int) *Scanner {
	return &Scanner{fetcher: fetcher, maxSamples: maxSamples}
}

func (s *Scanner) Marketplace() string { return models.MarketplaceWalmart }

func (s *Scanner) Scan(ctx context.Context, keyword string) (models.MarketplaceScanResult, error) {
	endpoint := fmt.Sprintf("%s?q=%s", searchURL, url.QueryEscape(keyword))
	payload, err := s.fetcher.Fetch(ctx, endpoint, map[string]string{"Accept": "text/html"})
	if err != nil {
		return models.MarketplaceScanResult{}, err
	}
	total, samples, err := ParseSearchHTML(payload, s.maxSamples)
	if err != nil {
		return models.MarketplaceScanResult{}, err
	}
	return models.MarketplaceScanResult{
		SourceURL:            endpoint,
		TotalResultsEstimate: total,
		SampleProducts:       samples,
	}, nil
}

type nextData struct {
	Props struct {
		PageProps struct {
			InitialData struct {
				SearchResult *searchResult `json:"searchResult"`
			} `json:"initialData"`
		} `json:"pageProps"`
	} `json:"props"`
}

type searchResult struct {
	AggregatedCount json.RawMessage `json:"aggregatedCount"`
	Count           json.RawMessage `json:"count"`
	ItemStacks      []struct {
		Items []struct {
			Title string `json:"title"`
			Name  string `json:"name"`
		} `json:"items"`
	} `json:"itemStacks"`
}

// ParseSearchHTML locates the embedded __NEXT_DATA__ JSON and reads the result
// count and item stack titles out of it.
func ParseSearchHTML(payload string, maxSamples int) (*int, []string, error) {
	rawJSON, err := extractNextData(payload)
	if err != nil {
		return nil, nil, err
	}

	var parsed nextData
	if err := json.Unmarshal([]byte(rawJSON), &parsed); err != nil {
		return nil, nil, fmt.Errorf("failed to decode __NEXT_DATA__ JSON: %w", err)
	}
	result := parsed.Props.PageProps.InitialData.SearchResult
	if result == nil {
		return nil, nil, errors.New("search payload missing structured searchResult data")
	}

	total := coerceCount(result.AggregatedCount)
	if total == nil {
		total = coerceCount(result.Count)
	}

	titles := make([]string, 0, maxSamples)
	seen := make(map[string]struct{}, maxSamples)
	for _, stack := range result.ItemStacks {
		for _, item := range stack.Items {
			raw := item.Title
			if raw == "" {
				raw = item.Name
			}
			title := phrase.Normalize(raw)
			if title == "" || !phrase.ValidProductTitle(title) {
				continue
			}
			if _, dup := seen[title]; dup {
				continue
			}
			seen[title] = struct{}{}
			titles = append(titles, title)
			if len(titles) >= maxSamples {
				return total, titles, nil
			}
		}
	}
	return total, titles, nil
}

// extractNextData slices the JSON body out of the __NEXT_DATA__ script tag.
// The error messages double as circuit breaker markers for blocked responses.
func extractNextData(payload string) (string, error) {
	scriptStart := strings.Index(payload, `<script id="__NEXT_DATA__"`)
	if scriptStart < 0 {
		return "", errors.New("search payload missing __NEXT_DATA__ script")
	}
	dataStart := strings.Index(payload[scriptStart:], ">")
	if dataStart < 0 {
		return "", errors.New("__NEXT_DATA__ script opening tag is malformed")
	}
	dataStart += scriptStart + 1
	dataEnd := strings.Index(payload[dataStart:], "</script>")
	if dataEnd < 0 {
		return "", errors.New("__NEXT_DATA__ script closing tag is missing")
	}
	return payload[dataStart : dataStart+dataEnd], nil
}

// coerceCount reads a count that upstream serves as either a bare number or a
// formatted string such as "1,000".
func coerceCount(raw json.RawMessage) *int {
	if len(raw) == 0 {
		return nil
	}
	var number json.Number
	if err := json.Unmarshal(raw, &number); err == nil {
		if n, err := number.Int64(); err == nil {
			count := int(n)
			return &count
		}
		if f, err := number.Float64(); err == nil {
			count := int(f)
			return &count
		}
	}
	var text string
	if err := json.Unmarshal(raw, &text); err == nil {
		if n, ok := phrase.CoerceInt(text); ok {
			return &n
		}
	}
	return nil
}
