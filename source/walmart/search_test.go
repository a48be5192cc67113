package walmart

import (
	"strings"
	"testing"
)

func wrapNextData(body string) string {
	return `<html><body><script id="__NEXT_DATA__" type="application/json">` + body + `</script></body></html>`
}

func TestParseSearchHTML(t *testing.T) {
	payload := wrapNextData(`{"props":{"pageProps":{"initialData":{"searchResult":{
		"aggregatedCount": 1523,
		"itemStacks":[{"items":[
			{"title":"Mainstays Ceramic Coffee Mug 15oz"},
			{"name":"Stoneware Soup Mug with Handle"},
			{"title":"Mainstays Ceramic Coffee Mug 15oz"},
			{"title":"ad"}
		]}]
	}}}}}`)
	total, titles, err := ParseSearchHTML(payload, 5)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if total == nil || *total != 1523 {
		t.Fatalf("expected total 1523, got %v", total)
	}
	expected := []string{
		"Mainstays Ceramic Coffee Mug 15oz",
		"Stoneware Soup Mug with Handle",
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

func TestParseSearchHTMLCountFallback(t *testing.T) {
	payload := wrapNextData(`{"props":{"pageProps":{"initialData":{"searchResult":{
		"count": "2,400",
		"itemStacks":[]
	}}}}}`)
	total, _, err := ParseSearchHTML(payload, 5)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if total == nil || *total != 2400 {
		t.Fatalf("expected total 2400, got %v", total)
	}
}

func TestParseSearchHTMLMissingScript(t *testing.T) {
	_, _, err := ParseSearchHTML("<html><body>Pardon Our Interruption</body></html>", 5)
	if err == nil {
		t.Fatal("expected error for payload without __NEXT_DATA__")
	}
	if !strings.Contains(strings.ToLower(err.Error()), "missing __next_data__ script") {
		t.Errorf("error should name the missing script tag, got: %v", err)
	}
}

func TestParseSearchHTMLMissingSearchResult(t *testing.T) {
	payload := wrapNextData(`{"props":{"pageProps":{"initialData":{}}}}`)
	if _, _, err := ParseSearchHTML(payload, 5); err == nil {
		t.Fatal("expected error when searchResult is absent")
	}
}
