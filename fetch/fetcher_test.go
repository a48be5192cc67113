package fetch

import (
	"context"
	"testing"
	"time"
)

func TestAssertAllowedHost(t *testing.T) {
	if _, err := assertAllowedHost("https://trends.google.com/trending/rss?geo=US"); err != nil {
		t.Fatalf("expected allowed host, got %v", err)
	}
	if _, err := assertAllowedHost("https://evil.example.com/"); err == nil {
		t.Fatal("expected error for unknown host")
	}
	if _, err := assertAllowedHost("http://trends.google.com/"); err == nil {
		t.Fatal("expected error for plain http")
	}
	if _, err := assertAllowedHost("://bad"); err == nil {
		t.Fatal("expected error for malformed URL")
	}
}

func TestNewClientValidation(t *testing.T) {
	if _, err := NewClient(time.Second, "test-agent", 0, 1); err == nil {
		t.Fatal("expected error for zero rate")
	}
	c, err := NewClient(time.Second, "test-agent", 2, 0)
	if err != nil {
		t.Fatalf("new client: %v", err)
	}
	if c.httpClient.Jar == nil {
		t.Fatal("expected cookie jar to be configured")
	}
}

func TestFetchRejectsDisallowedHostBeforeDialing(t *testing.T) {
	c, err := NewClient(time.Second, "test-agent", 10, 1)
	if err != nil {
		t.Fatalf("new client: %v", err)
	}
	if _, err := c.Fetch(context.Background(), "https://untrusted.example.com/x", nil); err == nil {
		t.Fatal("expected fetch to refuse unknown host")
	}
}
