package engine

import (
	"math"
	"regexp"
	"strings"
)

var (
	tokenRe      = regexp.MustCompile(`[a-z0-9]+`)
	whitespaceRe = regexp.MustCompile(`\s+`)
)

// NormalizeKeyword collapses whitespace and enforces the keyword length
// bounds. Overlong keywords are truncated, undersized ones map to the empty
// string.
func NormalizeKeyword(keyword string) string {
	collapsed := whitespaceRe.ReplaceAllString(strings.TrimSpace(keyword), " ")
	if collapsed == "" {
		return ""
	}
	runes := []rune(collapsed)
	if len(runes) < minKeywordLength {
		return ""
	}
	if len(runes) > maxKeywordLength {
		return strings.TrimRight(string(runes[:maxKeywordLength]), " ")
	}
	return collapsed
}

// NormalizeSeedKeywords normalizes and dedupes seed keywords, preserving the
// caller's order. Dedupe is case-insensitive but the first-seen casing wins.
func NormalizeSeedKeywords(seedKeywords []string) []string {
	deduped := make([]string, 0, len(seedKeywords))
	seen := make(map[string]struct{}, len(seedKeywords))
	for _, keyword := range seedKeywords {
		normalized := NormalizeKeyword(keyword)
		if normalized == "" {
			continue
		}
		key := strings.ToLower(normalized)
		if _, ok := seen[key]; ok {
			continue
		}
		seen[key] = struct{}{}
		deduped = append(deduped, normalized)
	}
	return deduped
}

// NormalizeExclusions lowercases and normalizes the exclusion list into a set.
func NormalizeExclusions(excludedKeywords []string) map[string]struct{} {
	normalized := make(map[string]struct{}, len(excludedKeywords))
	for _, keyword := range excludedKeywords {
		value := strings.ToLower(NormalizeKeyword(keyword))
		if value != "" {
			normalized[value] = struct{}{}
		}
	}
	return normalized
}

// IsExcluded vetoes a keyword when it matches an exclusion exactly, contains
// one as a substring, or covers all of an exclusion's tokens.
func IsExcluded(keyword string, excludedKeywords map[string]struct{}) bool {
	if len(excludedKeywords) == 0 {
		return false
	}
	lower := strings.ToLower(keyword)
	if _, ok := excludedKeywords[lower]; ok {
		return true
	}
	keywordTokens := tokenSet(lower)
	for excluded := range excludedKeywords {
		if strings.Contains(lower, excluded) {
			return true
		}
		excludedTokens := tokenSet(excluded)
		if len(excludedTokens) > 0 && isSubset(excludedTokens, keywordTokens) {
			return true
		}
	}
	return false
}

// Relevance scores how well a candidate keyword matches the seed set. Token
// overlap against each seed's token count wins; a plain substring match in
// either direction earns a floor of 0.35. The best seed match is kept,
// clamped to [0, 1].
func Relevance(candidateKeyword string, seedKeywords []string) float64 {
	candidateLower := strings.ToLower(candidateKeyword)
	candidateTokens := tokenSet(candidateLower)
	if len(candidateTokens) == 0 {
		return 0.0
	}

	best := 0.0
	for _, seedKeyword := range seedKeywords {
		seedLower := strings.ToLower(seedKeyword)
		seedTokens := tokenSet(seedLower)
		if len(seedTokens) == 0 {
			continue
		}
		overlap := 0
		for token := range candidateTokens {
			if _, ok := seedTokens[token]; ok {
				overlap++
			}
		}
		if overlap > 0 {
			ratio := float64(overlap) / float64(len(seedTokens))
			if ratio > best {
				best = ratio
			}
		} else if strings.Contains(candidateLower, seedLower) || strings.Contains(seedLower, candidateLower) {
			if best < 0.35 {
				best = 0.35
			}
		}
	}
	return math.Min(1.0, best)
}

func tokenSet(value string) map[string]struct{} {
	tokens := tokenRe.FindAllString(value, -1)
	set := make(map[string]struct{}, len(tokens))
	for _, token := range tokens {
		set[token] = struct{}{}
	}
	return set
}

func isSubset(subset, superset map[string]struct{}) bool {
	for token := range subset {
		if _, ok := superset[token]; !ok {
			return false
		}
	}
	return true
}

// logScaled maps a raw count onto [0, 1] with a log10 curve saturating at one
// million.
func logScaled(value int) float64 {
	if value <= 0 {
		return 0.0
	}
	return math.Min(1.0, math.Log10(float64(value)+1)/6.0)
}

func clamp(value, lower, upper float64) float64 {
	if value < lower {
		return lower
	}
	if value > upper {
		return upper
	}
	return value
}

func round2(value float64) float64 {
	return math.Round(value*100) / 100
}

func round4(value float64) float64 {
	return math.Round(value*10000) / 10000
}
