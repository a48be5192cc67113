package engine

import (
	"sort"
	"strings"
	"sync"
)

// Candidate accumulates every signal observed for one keyword across the
// collection phase. Keys are case-insensitive; the first-seen casing is kept
// for display.
type Candidate struct {
	Keyword            string
	SearchPoints       float64
	TrendPoints        float64
	SustainedPoints    float64
	Sources            map[string]struct{}
	TrendHits          int
	MaxTrendTraffic    int
	SustainedDirection string
}

// SourceNames returns the candidate's provenance sorted for stable output.
func (c *Candidate) SourceNames() []string {
	names := make([]string, 0, len(c.Sources))
	for name := range c.Sources {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Ledger is the concurrent-safe candidate accumulator. Collection goroutines
// add signals; later single-threaded stages read and mutate the candidates
// directly.
type Ledger struct {
	mu         sync.Mutex
	candidates map[string]*Candidate
}

func NewLedger() *Ledger {
	return &Ledger{candidates: make(map[string]*Candidate)}
}

// Add merges one signal observation into the ledger. Invalid keywords are
// dropped silently. Positive trend points also update the candidate's trend
// hit count and peak traffic estimate.
func (l *Ledger) Add(keyword string, searchPoints, trendPoints float64, source string, trafficEstimate int) {
	normalized := NormalizeKeyword(keyword)
	if normalized == "" {
		return
	}
	key := strings.ToLower(normalized)

	l.mu.Lock()
	defer l.mu.Unlock()

	candidate, ok := l.candidates[key]
	if !ok {
		candidate = &Candidate{
			Keyword: normalized,
			Sources: make(map[string]struct{}),
		}
		l.candidates[key] = candidate
	}
	candidate.SearchPoints += searchPoints
	candidate.TrendPoints += trendPoints
	candidate.Sources[source] = struct{}{}
	if trendPoints > 0 {
		candidate.TrendHits++
		if trafficEstimate > candidate.MaxTrendTraffic {
			candidate.MaxTrendTraffic = trafficEstimate
		}
	}
}

// Candidates snapshots the current candidate set. The returned pointers alias
// ledger state; callers only use this after collection has finished.
func (l *Ledger) Candidates() []*Candidate {
	l.mu.Lock()
	defer l.mu.Unlock()
	out := make([]*Candidate, 0, len(l.candidates))
	for _, candidate := range l.candidates {
		out = append(out, candidate)
	}
	return out
}
