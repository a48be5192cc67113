package amazon

import (
	"testing"
)

func TestParseSuggestPayload(t *testing.T) {
	payload := `{"suggestions":[
		{"value":"ceramic mug"},
		{"value":"ceramic mug set"},
		{"value":"ceramic mug"},
		{"value":""},
		{"value":"ceramic mug with lid"}
	]}`
	suggestions, err := ParseSuggestPayload(payload, 10)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	expected := []string{"ceramic mug", "ceramic mug set", "ceramic mug with lid"}
	if len(suggestions) != len(expected) {
		t.Fatalf("expected %d suggestions, got %d: %v", len(expected), len(suggestions), suggestions)
	}
	for i, want := range expected {
		if suggestions[i] != want {
			t.Errorf("suggestion %d: expected %q, got %q", i, want, suggestions[i])
		}
	}
}

func TestParseSuggestPayloadInvalidJSON(t *testing.T) {
	if _, err := ParseSuggestPayload("<html>blocked</html>", 5); err == nil {
		t.Error("expected error for invalid JSON")
	}
}

func TestParseSearchHTML(t *testing.T) {
	payload := `<html><body>
	<span>1-48 of over 4,000 results for "ceramic mug"</span>
	<div class="s-main-slot">
	  <div data-component-type="s-search-result">
	    <span data-cy="title-recipe">Handmade Ceramic Coffee Mug 12oz</span>
	  </div>
	  <div data-component-type="s-search-result">
	    <span data-cy="title-recipe">Sponsored</span>
	  </div>
	  <div data-component-type="s-search-result">
	    <span data-cy="title-recipe">Stoneware Mug Set of 4 with Handles</span>
	  </div>
	  <div data-component-type="s-search-result">
	    <h2><a><span>Ceramic Travel Mug with Lid</span></a></h2>
	  </div>
	</div>
	</body></html>`
	total, titles, err := ParseSearchHTML(payload, 5)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if total == nil || *total != 4000 {
		t.Fatalf("expected total 4000, got %v", total)
	}
	expected := []string{
		"Handmade Ceramic Coffee Mug 12oz",
		"Stoneware Mug Set of 4 with Handles",
		"Ceramic Travel Mug with Lid",
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

func TestParseSearchHTMLCapsSamples(t *testing.T) {
	payload := `<html><body>
	<span data-cy="title-recipe">Ceramic Mug Number One</span>
	<span data-cy="title-recipe">Ceramic Mug Number Two</span>
	<span data-cy="title-recipe">Ceramic Mug Number Three</span>
	</body></html>`
	_, titles, err := ParseSearchHTML(payload, 2)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(titles) != 2 {
		t.Errorf("expected 2 titles, got %d: %v", len(titles), titles)
	}
}

func TestParseSearchHTMLNoCount(t *testing.T) {
	total, titles, err := ParseSearchHTML("<html><body></body></html>", 5)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if total != nil {
		t.Errorf("expected nil total, got %d", *total)
	}
	if len(titles) != 0 {
		t.Errorf("expected no titles, got %v", titles)
	}
}
