package google

import (
	"context"
	"encoding/xml"
	"fmt"
	"net/url"
	"regexp"
	"strconv"
	"strings"

	"demandflow/fetch"
	"demandflow/internal/phrase"
	"demandflow/models"
)

const trendsRSSURL = "https://trends.google.com/trending/rss"

var compactTrafficRe = regexp.MustCompile(`(?i)([0-9][0-9,]*(?:\.[0-9]+)?)\s*([KMB]?)`)

// TrendFeed fetches the trending-searches RSS feed for a geography.
type TrendFeed struct {
	fetcher  fetch.Fetcher
	geo      string
	maxItems int
}

func NewTrendFeed(fetcher fetch.Fetcher, geo string, maxItems int) *TrendFeed {
	return &TrendFeed{fetcher: fetcher, geo: geo, maxItems: maxItems}
}

// Records fetches and parses the trending feed into ranked trend records.
func (t *TrendFeed) Records(ctx context.Context) ([]models.TrendRecord, error) {
	endpoint := fmt.Sprintf("%s?geo=%s", trendsRSSURL, url.QueryEscape(t.geo))
	payload, err := t.fetcher.Fetch(ctx, endpoint, map[string]string{
		"Accept": "application/rss+xml, application/xml",
	})
	if err != nil {
		return nil, err
	}
	return ParseTrendsRSS(payload, t.maxItems)
}

type rssDocument struct {
	Channel struct {
		Items []rssItem `xml:"item"`
	} `xml:"channel"`
}

type rssItem struct {
	Title         string `xml:"title"`
	ApproxTraffic string `xml:"https://trends.google.com/trends/hottrends approx_traffic"`
}

// ParseTrendsRSS decodes the feed XML. Items keep their feed order as rank;
// blank titles are skipped without consuming a rank slot for later items.
func ParseTrendsRSS(payload string, maxItems int) ([]models.TrendRecord, error) {
	if strings.TrimSpace(payload) == "" {
		return nil, nil
	}
	var doc rssDocument
	if err := xml.Unmarshal([]byte(payload), &doc); err != nil {
		return nil, fmt.Errorf("failed to decode trends feed: %w", err)
	}

	records := make([]models.TrendRecord, 0, len(doc.Channel.Items))
	for i, item := range doc.Channel.Items {
		query := phrase.Normalize(item.Title)
		if query == "" {
			continue
		}
		traffic := strings.TrimSpace(item.ApproxTraffic)
		records = append(records, models.TrendRecord{
			Query:                 query,
			Rank:                  i + 1,
			ApproxTraffic:         traffic,
			ApproxTrafficEstimate: ParseCompactTraffic(traffic),
		})
		if len(records) >= maxItems {
			break
		}
	}
	return records, nil
}

// ParseCompactTraffic converts feed traffic strings such as "200K+" or "1.2M+"
// into an absolute count. Unparseable values map to zero.
func ParseCompactTraffic(value string) int {
	match := compactTrafficRe.FindStringSubmatch(strings.TrimSpace(value))
	if match == nil {
		return 0
	}
	amount, err := strconv.ParseFloat(strings.ReplaceAll(match[1], ",", ""), 64)
	if err != nil {
		return 0
	}
	multiplier := 1.0
	switch strings.ToUpper(match[2]) {
	case "K":
		multiplier = 1_000
	case "M":
		multiplier = 1_000_000
	case "B":
		multiplier = 1_000_000_000
	}
	return int(amount * multiplier)
}
