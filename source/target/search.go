// Package target implements the Target marketplace scanner. Listing data
// comes from the redsky product search API, keyed with the API key embedded in
// the storefront search page.
package target

import (
	"context"
	"crypto/md5"
	"encoding/json"
	"errors"
	"fmt"
	"net/url"
	"regexp"
	"strings"

	"demandflow/fetch"
	"demandflow/internal/phrase"
	"demandflow/models"
)

const (
	searchURL       = "https://www.target.com/s"
	redskySearchURL = "https://redsky.target.com/redsky_aggregations/v1/web/plp_search_v2"
)

var apiKeyRe = regexp.MustCompile(`"apiKey":"([a-f0-9]{40})"`)

type Scanner struct {
	fetcher        fetch.Fetcher
	maxSamples     int
	pricingStoreID string
	fallbackAPIKey string
}

func NewScanner(fetcher fetch.Fetcher, maxSamples int, pricingStoreID, fallbackAPIKey string) *Scanner {
	return &Scanner{
		fetcher:        fetcher,
		maxSamples:     maxSamples,
		pricingStoreID: pricingStoreID,
		fallbackAPIKey: fallbackAPIKey,
	}
}

func (s *Scanner) Marketplace() string { return models.MarketplaceTarget }

func (s *Scanner) Scan(ctx context.Context, keyword string) (models.MarketplaceScanResult, error) {
	pageURL := fmt.Sprintf("%s?searchTerm=%s", searchURL, url.QueryEscape(keyword))
	pagePayload, err := s.fetcher.Fetch(ctx, pageURL, map[string]string{"Accept": "text/html"})
	if err != nil {
		return models.MarketplaceScanResult{}, err
	}
	apiKey, err := ParseAPIKey(pagePayload, s.fallbackAPIKey)
	if err != nil {
		return models.MarketplaceScanResult{}, err
	}

	query := url.Values{}
	query.Set("key", apiKey)
	query.Set("keyword", keyword)
	query.Set("channel", "WEB")
	query.Set("count", "24")
	query.Set("offset", "0")
	query.Set("page", "/s/"+url.QueryEscape(keyword))
	query.Set("pricing_store_id", s.pricingStoreID)
	query.Set("visitor_id", visitorID(keyword))

	apiURL := redskySearchURL + "?" + query.Encode()
	apiPayload, err := s.fetcher.Fetch(ctx, apiURL, map[string]string{
		"Accept":  "application/json",
		"Referer": pageURL,
	})
	if err != nil {
		return models.MarketplaceScanResult{}, err
	}
	total, samples, err := ParseSearchJSON(apiPayload, s.maxSamples)
	if err != nil {
		return models.MarketplaceScanResult{}, err
	}
	return models.MarketplaceScanResult{
		SourceURL:            apiURL,
		TotalResultsEstimate: total,
		SampleProducts:       samples,
	}, nil
}

// ParseAPIKey finds the 40-hex-digit redsky key in the page markup, falling
// back to the provided key when the page no longer inlines one.
func ParseAPIKey(payload, fallbackAPIKey string) (string, error) {
	match := apiKeyRe.FindStringSubmatch(payload)
	if match == nil {
		if fallbackAPIKey != "" {
			return fallbackAPIKey, nil
		}
		return "", errors.New("page payload missing API key")
	}
	return match[1], nil
}

type searchResponse struct {
	Errors []struct {
		Message string `json:"message"`
	} `json:"errors"`
	Data struct {
		Search struct {
			SearchResponse struct {
				Metadata struct {
					TotalResults json.RawMessage `json:"total_results"`
				} `json:"metadata"`
			} `json:"search_response"`
			Products []struct {
				Item struct {
					ProductDescription struct {
						Title string `json:"title"`
					} `json:"product_description"`
				} `json:"item"`
			} `json:"products"`
		} `json:"search"`
	} `json:"data"`
}

// ParseSearchJSON reads the total result count and product titles from a
// redsky plp_search_v2 response.
func ParseSearchJSON(payload string, maxSamples int) (*int, []string, error) {
	var parsed searchResponse
	if err := json.Unmarshal([]byte(payload), &parsed); err != nil {
		return nil, nil, fmt.Errorf("failed to decode search response: %w", err)
	}
	if len(parsed.Errors) > 0 {
		message := parsed.Errors[0].Message
		if message == "" {
			message = "unknown"
		}
		return nil, nil, fmt.Errorf("Target API error: %s", message)
	}

	total := coerceTotal(parsed.Data.Search.SearchResponse.Metadata.TotalResults)

	titles := make([]string, 0, maxSamples)
	seen := make(map[string]struct{}, maxSamples)
	for _, product := range parsed.Data.Search.Products {
		title := phrase.Normalize(product.Item.ProductDescription.Title)
		if title == "" || !phrase.ValidProductTitle(title) {
			continue
		}
		if _, dup := seen[title]; dup {
			continue
		}
		seen[title] = struct{}{}
		titles = append(titles, title)
		if len(titles) >= maxSamples {
			break
		}
	}
	return total, titles, nil
}

// visitorID derives a stable visitor identifier from the keyword so repeated
// scans for the same term present the same session.
func visitorID(keyword string) string {
	digest := md5.Sum([]byte(strings.ToLower(keyword)))
	return strings.ToUpper(fmt.Sprintf("%x", digest))
}

func coerceTotal(raw json.RawMessage) *int {
	if len(raw) == 0 {
		return nil
	}
	var number json.Number
	if err := json.Unmarshal(raw, &number); err == nil {
		if n, err := number.Int64(); err == nil {
			total := int(n)
			return &total
		}
		if f, err := number.Float64(); err == nil {
			total := int(f)
			return &total
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
