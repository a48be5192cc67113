// Package phrase holds text normalization helpers shared by the source
// adapters. Upstream payloads mix HTML entities, stray whitespace and
// sponsored filler; everything entering the engine goes through here first.
package phrase

import (
	"html"
	"regexp"
	"strconv"
	"strings"
	"unicode/utf8"
)

var (
	whitespaceRe = regexp.MustCompile(`\s+`)
	digitsRe     = regexp.MustCompile(`[^0-9]`)
	htmlTagRe    = regexp.MustCompile(`<[^>]+>`)
)

var titleBlocklist = map[string]struct{}{
	"sponsored": {},
	"shop now":  {},
	"ad":        {},
}

// Normalize unescapes HTML entities and collapses whitespace runs.
func Normalize(value string) string {
	unescaped := html.UnescapeString(value)
	collapsed := whitespaceRe.ReplaceAllString(unescaped, " ")
	return strings.TrimSpace(collapsed)
}

// Dedupe normalizes phrases, drops duplicates preserving order and caps the
// result at maxItems.
func Dedupe(phrases []string, maxItems int) []string {
	deduped := make([]string, 0, len(phrases))
	seen := make(map[string]struct{}, len(phrases))
	for _, p := range phrases {
		normalized := Normalize(p)
		if normalized == "" {
			continue
		}
		if _, ok := seen[normalized]; ok {
			continue
		}
		seen[normalized] = struct{}{}
		deduped = append(deduped, normalized)
		if len(deduped) >= maxItems {
			break
		}
	}
	return deduped
}

// StripHTML replaces markup tags with spaces so nested spans collapse into a
// single readable title.
func StripHTML(value string) string {
	return htmlTagRe.ReplaceAllString(value, " ")
}

// ValidProductTitle filters out sponsored placements and page chrome that
// marketplace result pages interleave with real listings.
func ValidProductTitle(value string) bool {
	normalized := strings.ToLower(strings.TrimSpace(value))
	if normalized == "" {
		return false
	}
	if _, blocked := titleBlocklist[normalized]; blocked {
		return false
	}
	if strings.HasPrefix(normalized, "sponsored") {
		return false
	}
	if strings.Contains(normalized, "results for") {
		return false
	}
	return utf8.RuneCountInString(normalized) >= 8
}

// CoerceInt extracts an integer from a formatted count such as "1,000" or
// "over 2,000". Returns false when the value carries no digits.
func CoerceInt(value string) (int, bool) {
	digits := digitsRe.ReplaceAllString(value, "")
	if digits == "" {
		return 0, false
	}
	n, err := strconv.Atoi(digits)
	if err != nil {
		return 0, false
	}
	return n, true
}

// GroupThousands renders an integer with comma separators, the inverse of
// CoerceInt for report display.
func GroupThousands(value int) string {
	text := strconv.Itoa(value)
	negative := strings.HasPrefix(text, "-")
	if negative {
		text = text[1:]
	}
	var builder strings.Builder
	for i, digit := range text {
		if i > 0 && (len(text)-i)%3 == 0 {
			builder.WriteByte(',')
		}
		builder.WriteRune(digit)
	}
	if negative {
		return "-" + builder.String()
	}
	return builder.String()
}
