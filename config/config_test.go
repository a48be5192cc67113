package config

import (
	"os"
	"strings"
	"testing"
)

// writeTempConfig creates a minimal configuration file required for LoadConfig
// and returns its path.
func writeTempConfig(t *testing.T, content string) string {
	t.Helper()
	f, err := os.CreateTemp("", "cfg-*.yml")
	if err != nil {
		t.Fatalf("create temp file: %v", err)
	}
	if _, err := f.WriteString(content); err != nil {
		t.Fatalf("write temp file: %v", err)
	}
	if err := f.Close(); err != nil {
		t.Fatalf("close temp file: %v", err)
	}
	return f.Name()
}

const minimalConfig = `demandflow:
  name: "TestApp"
  version: "1.0"
discovery:
  geo: "US"
storage:
  s3:
    enabled: false
`

func TestLoadConfig(t *testing.T) {
	path := writeTempConfig(t, minimalConfig)
	defer os.Remove(path)

	cfg, err := LoadConfig(path)
	if err != nil {
		t.Fatalf("load config: %v", err)
	}
	if cfg.Demandflow.Name != "TestApp" {
		t.Fatalf("unexpected name %q", cfg.Demandflow.Name)
	}
	if cfg.Discovery.MaxSuggestionsPerSource != 12 {
		t.Fatalf("expected default suggestion cap, got %d", cfg.Discovery.MaxSuggestionsPerSource)
	}
	if cfg.Discovery.TrendTimeWindow != "today 12-m" {
		t.Fatalf("expected default trend window, got %q", cfg.Discovery.TrendTimeWindow)
	}
	if len(cfg.Discovery.Marketplaces) != 3 {
		t.Fatalf("expected default marketplaces, got %v", cfg.Discovery.Marketplaces)
	}
}

func TestLoadConfigRejectsUnknownMarketplace(t *testing.T) {
	content := strings.Replace(minimalConfig, `geo: "US"`, "marketplaces: [\"ebay\"]", 1)
	path := writeTempConfig(t, content)
	defer os.Remove(path)

	if _, err := LoadConfig(path); err == nil {
		t.Fatal("expected error for unsupported marketplace")
	}
}

func TestLoadConfigMissingFile(t *testing.T) {
	if _, err := LoadConfig("does-not-exist.yml"); err == nil {
		t.Fatal("expected error for missing file")
	}
}

func TestS3BucketValidation(t *testing.T) {
	valid := []string{"my-bucket", "demandflow.reports", "abc"}
	invalid := []string{"ab", "-bad", "bad-", "Bad", "a..b", strings.Repeat("x", 64)}
	for _, name := range valid {
		if !isValidS3Bucket(name) {
			t.Errorf("expected %q to be valid", name)
		}
	}
	for _, name := range invalid {
		if isValidS3Bucket(name) {
			t.Errorf("expected %q to be invalid", name)
		}
	}
}
