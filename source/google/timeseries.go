package google

import (
	"context"
	"encoding/json"
	"fmt"
	"net/url"
	"strings"

	"demandflow/fetch"
	"demandflow/internal/phrase"
)

const (
	explorePageURL   = "https://trends.google.com/trends/explore"
	exploreAPIURL    = "https://trends.google.com/trends/api/explore"
	multilineAPIURL  = "https://trends.google.com/trends/api/widgetdata/multiline"
	timeseriesWidget = "TIMESERIES"
)

// TimeseriesSource walks the Trends explore handshake: prime session cookies
// on the explore page, resolve a widget token from the explore API, then pull
// interest values from the multiline endpoint.
type TimeseriesSource struct {
	fetcher    fetch.Fetcher
	geo        string
	language   string
	timeWindow string
}

func NewTimeseriesSource(fetcher fetch.Fetcher, geo, language, timeWindow string) *TimeseriesSource {
	return &TimeseriesSource{fetcher: fetcher, geo: geo, language: language, timeWindow: timeWindow}
}

// Series returns the interest-over-time values for a keyword, oldest first.
func (t *TimeseriesSource) Series(ctx context.Context, keyword string) ([]int, error) {
	pageURL := fmt.Sprintf("%s?geo=%s", explorePageURL, url.QueryEscape(t.geo))

	// Prime session cookies before API calls to reduce 429 responses.
	if _, err := t.fetcher.Fetch(ctx, pageURL, map[string]string{"Accept": "text/html"}); err != nil {
		return nil, err
	}

	exploreReq := map[string]any{
		"comparisonItem": []map[string]any{
			{"keyword": keyword, "geo": t.geo, "time": t.timeWindow},
		},
		"category": 0,
		"property": "",
	}
	encodedReq, err := json.Marshal(exploreReq)
	if err != nil {
		return nil, fmt.Errorf("failed to encode explore request: %w", err)
	}
	exploreURL := fmt.Sprintf("%s?hl=%s&tz=0&req=%s",
		exploreAPIURL, url.QueryEscape(t.language), url.QueryEscape(string(encodedReq)))
	exploreRaw, err := t.fetcher.Fetch(ctx, exploreURL, map[string]string{
		"Accept":  "application/json,text/plain,*/*",
		"Referer": pageURL,
	})
	if err != nil {
		return nil, err
	}
	token, widgetReq, err := ParseExplorePayload(exploreRaw)
	if err != nil {
		return nil, err
	}

	encodedWidgetReq, err := json.Marshal(widgetReq)
	if err != nil {
		return nil, fmt.Errorf("failed to encode widget request: %w", err)
	}
	multilineURL := fmt.Sprintf("%s?hl=%s&tz=0&token=%s&req=%s",
		multilineAPIURL, url.QueryEscape(t.language),
		url.QueryEscape(token), url.QueryEscape(string(encodedWidgetReq)))
	multilineRaw, err := t.fetcher.Fetch(ctx, multilineURL, map[string]string{
		"Accept":  "application/json,text/plain,*/*",
		"Referer": pageURL,
	})
	if err != nil {
		return nil, err
	}
	return ParseMultilinePayload(multilineRaw)
}

type exploreWidget struct {
	ID      string          `json:"id"`
	Token   string          `json:"token"`
	Request json.RawMessage `json:"request"`
}

// ParseExplorePayload pulls the TIMESERIES widget token and its request body
// out of the explore API response.
func ParseExplorePayload(payload string) (string, json.RawMessage, error) {
	var parsed struct {
		Widgets []exploreWidget `json:"widgets"`
	}
	if err := json.Unmarshal([]byte(stripJSONPrefix(payload)), &parsed); err != nil {
		return "", nil, fmt.Errorf("failed to decode explore payload: %w", err)
	}
	for _, widget := range parsed.Widgets {
		if widget.ID != timeseriesWidget {
			continue
		}
		if widget.Token != "" && len(widget.Request) > 0 {
			return widget.Token, widget.Request, nil
		}
	}
	return "", nil, fmt.Errorf("explore payload missing %s widget", timeseriesWidget)
}

// ParseMultilinePayload extracts the first value of each timeline point.
func ParseMultilinePayload(payload string) ([]int, error) {
	var parsed struct {
		Default struct {
			TimelineData []struct {
				Value []json.Number `json:"value"`
			} `json:"timelineData"`
		} `json:"default"`
	}
	if err := json.Unmarshal([]byte(stripJSONPrefix(payload)), &parsed); err != nil {
		return nil, fmt.Errorf("failed to decode multiline payload: %w", err)
	}
	values := make([]int, 0, len(parsed.Default.TimelineData))
	for _, point := range parsed.Default.TimelineData {
		if len(point.Value) == 0 {
			continue
		}
		first := point.Value[0]
		if n, err := first.Int64(); err == nil {
			values = append(values, int(n))
		} else if f, err := first.Float64(); err == nil {
			values = append(values, int(f))
		} else if n, ok := phrase.CoerceInt(first.String()); ok {
			values = append(values, n)
		}
	}
	return values, nil
}

// stripJSONPrefix removes the )]}' anti-hijacking prefix Trends API responses
// carry ahead of the JSON body.
func stripJSONPrefix(payload string) string {
	if strings.HasPrefix(payload, ")]}'") {
		if _, rest, found := strings.Cut(payload, "\n"); found {
			return rest
		}
	}
	return payload
}
