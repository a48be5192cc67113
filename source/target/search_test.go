package target

import (
	"strings"
	"testing"
)

func TestParseAPIKey(t *testing.T) {
	payload := `<script>{"config":{"apiKey":"aabbccddeeff00112233445566778899aabbccdd"}}</script>`
	key, err := ParseAPIKey(payload, "fallback")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if key != "aabbccddeeff00112233445566778899aabbccdd" {
		t.Errorf("unexpected key: %q", key)
	}
}

func TestParseAPIKeyFallback(t *testing.T) {
	key, err := ParseAPIKey("<html></html>", "fallback-key")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if key != "fallback-key" {
		t.Errorf("expected fallback key, got %q", key)
	}

	if _, err := ParseAPIKey("<html></html>", ""); err == nil {
		t.Error("expected error when no key is found and no fallback is set")
	}
}

func TestParseSearchJSON(t *testing.T) {
	payload := `{"data":{"search":{
		"search_response":{"metadata":{"total_results":842}},
		"products":[
			{"item":{"product_description":{"title":"Threshold Stoneware Mug 16oz"}}},
			{"item":{"product_description":{"title":"Threshold Stoneware Mug 16oz"}}},
			{"item":{"product_description":{"title":"Room Essentials Ceramic Mug Set"}}},
			{"item":{"product_description":{"title":"ad"}}}
		]
	}}}`
	total, titles, err := ParseSearchJSON(payload, 5)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if total == nil || *total != 842 {
		t.Fatalf("expected total 842, got %v", total)
	}
	expected := []string{
		"Threshold Stoneware Mug 16oz",
		"Room Essentials Ceramic Mug Set",
	}
	if len(titles) != len(expected) {
		t.Fatalf("expected %d titles, got %d: %v", len(expected), len(titles), titles)
	}
	for i, want := range expected {
		if titles[i] != want {
			t.Errorf("title %d: expected %q, got %q", i, want, titles[i])
		}
	}
}

func TestParseSearchJSONAPIError(t *testing.T) {
	payload := `{"errors":[{"message":"Precondition Failed"}]}`
	_, _, err := ParseSearchJSON(payload, 5)
	if err == nil {
		t.Fatal("expected error for errors payload")
	}
	if !strings.Contains(strings.ToLower(err.Error()), "precondition failed") {
		t.Errorf("error should surface the API message, got: %v", err)
	}
}

func TestVisitorIDStable(t *testing.T) {
	first := visitorID("Ceramic Mug")
	second := visitorID("ceramic mug")
	if first != second {
		t.Errorf("visitor id should be case-insensitive: %q vs %q", first, second)
	}
	if len(first) != 32 || first != strings.ToUpper(first) {
		t.Errorf("visitor id should be 32 uppercase hex chars, got %q", first)
	}
}
