package view

import (
	"sort"

	"github.com/TobiSchelling/mediadash/internal/asset"
)

// CategoryCount is one bar of the asset distribution.
type CategoryCount struct {
	Category string
	Count    int
}

// Summary holds dataset-wide averages and the asset type distribution.
type Summary struct {
	Count          int
	AvgClicks      float64
	AvgImpressions float64
	AvgInstalls    float64
	AvgCost        float64
	AvgCTR         float64
	AvgCPI         float64
	Distribution   []CategoryCount
}

// Summarize computes averages and the distribution over every loaded
// record. Callers pass the unfiltered dataset: the summary describes the
// whole import, not the current selection. An empty dataset yields zeros.
func Summarize(records []asset.Record) Summary {
	s := Summary{Count: len(records)}
	counts := map[string]int{}
	for _, r := range records {
		s.AvgClicks += r.Clicks
		s.AvgImpressions += r.Impressions
		s.AvgInstalls += r.Installs
		s.AvgCost += r.Cost
		s.AvgCTR += r.CTR
		s.AvgCPI += r.CostPerInstall
		counts[r.Type]++
	}
	if n := float64(len(records)); n > 0 {
		s.AvgClicks /= n
		s.AvgImpressions /= n
		s.AvgInstalls /= n
		s.AvgCost /= n
		s.AvgCTR /= n
		s.AvgCPI /= n
	}

	for cat, n := range counts {
		s.Distribution = append(s.Distribution, CategoryCount{Category: cat, Count: n})
	}
	sort.Slice(s.Distribution, func(i, j int) bool {
		a, b := s.Distribution[i], s.Distribution[j]
		if a.Count != b.Count {
			return a.Count > b.Count
		}
		return a.Category < b.Category
	})
	return s
}

// MaxCount returns the largest distribution count, for scaling bars.
func (s Summary) MaxCount() int {
	m := 0
	for _, c := range s.Distribution {
		m = max(m, c.Count)
	}
	return m
}
