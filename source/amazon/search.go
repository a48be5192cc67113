package amazon

import (
	"context"
	"fmt"
	"net/url"
	"regexp"
	"strings"

	"github.com/PuerkitoBio/goquery"

	"demandflow/fetch"
	"demandflow/internal/phrase"
	"demandflow/models"
)

const searchURL = "https://www.amazon.com/s"

var countPatterns = []*regexp.Regexp{
	regexp.MustCompile(`(?i)of (?:over )?([0-9,]+) results for`),
	regexp.MustCompile(`(?i)over\s+([0-9,]+)\s+results`),
	regexp.MustCompile(`(?i)([0-9,]+)\s+results for`),
}

// Scanner scrapes the search results page for result counts and sample
// listing titles.
type Scanner struct {
	fetcher    fetch.Fetcher
	maxSamples int
}

func NewScanner(fetcher fetch.Fetcher, maxSamples int) *Scanner {
	return &Scanner{fetcher: fetcher, maxSamples: maxSamples}
}

func (s *Scanner) Marketplace() string { return models.MarketplaceAmazon }

func (s *Scanner) Scan(ctx context.Context, keyword string) (models.MarketplaceScanResult, error) {
	endpoint := fmt.Sprintf("%s?k=%s", searchURL, url.QueryEscape(keyword))
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

// ParseSearchHTML extracts the advertised result count and product titles.
// Titles come from the title-recipe spans modern result pages carry, falling
// back to the older h2 anchor layout.
func ParseSearchHTML(payload string, maxSamples int) (*int, []string, error) {
	total := extractCount(payload)

	doc, err := goquery.NewDocumentFromReader(strings.NewReader(payload))
	if err != nil {
		return total, nil, fmt.Errorf("failed to parse search page: %w", err)
	}

	titles := make([]string, 0, maxSamples)
	seen := make(map[string]struct{}, maxSamples)
	collect := func(_ int, sel *goquery.Selection) bool {
		title := phrase.Normalize(sel.Text())
		if title == "" || !phrase.ValidProductTitle(title) {
			return true
		}
		if _, dup := seen[title]; dup {
			return true
		}
		seen[title] = struct{}{}
		titles = append(titles, title)
		return len(titles) < maxSamples
	}
	doc.Find(`[data-cy="title-recipe"]`).EachWithBreak(collect)
	if len(titles) < maxSamples {
		doc.Find("h2 a span").EachWithBreak(collect)
	}
	return total, titles, nil
}

func extractCount(payload string) *int {
	for _, pattern := range countPatterns {
		match := pattern.FindStringSubmatch(payload)
		if match == nil {
			continue
		}
		if n, ok := phrase.CoerceInt(match[1]); ok {
			return &n
		}
	}
	return nil
}
