// Package reporter renders discovery reports as JSON and markdown files and
// optionally archives opportunity rows to S3 in parquet format.
package reporter

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"strings"

	"demandflow/models"
)

var fileStemRe = regexp.MustCompile(`[^a-z0-9]+`)

// DefaultFileStem derives an output filename stem from the store name.
func DefaultFileStem(storeName string) string {
	normalized := strings.Trim(fileStemRe.ReplaceAllString(strings.ToLower(storeName), "-"), "-")
	if normalized == "" {
		normalized = "store"
	}
	return "product-discovery-" + normalized
}

// WriteReports writes the JSON and markdown renditions of a report and
// returns their paths.
func WriteReports(report *models.ProductDiscoveryReport, outputDir, fileStem string) (string, string, error) {
	if err := os.MkdirAll(outputDir, 0o755); err != nil {
		return "", "", fmt.Errorf("failed to create output directory: %w", err)
	}

	jsonPath := filepath.Join(outputDir, fileStem+".json")
	mdPath := filepath.Join(outputDir, fileStem+".md")

	encoded, err := json.MarshalIndent(report, "", "  ")
	if err != nil {
		return "", "", fmt.Errorf("failed to encode report: %w", err)
	}
	if err := os.WriteFile(jsonPath, encoded, 0o644); err != nil {
		return "", "", fmt.Errorf("failed to write JSON report: %w", err)
	}
	if err := os.WriteFile(mdPath, []byte(BuildMarkdown(report)), 0o644); err != nil {
		return "", "", fmt.Errorf("failed to write markdown report: %w", err)
	}
	return jsonPath, mdPath, nil
}
