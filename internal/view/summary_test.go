package view

import (
	"math"
	"testing"

	"github.com/TobiSchelling/mediadash/internal/asset"
)

func TestSummarizeAverages(t *testing.T) {
	records := []asset.Record{
		{Type: "Video", Clicks: 10, Impressions: 100, Installs: 2, Cost: 20, CTR: 0.1, CostPerInstall: 10},
		{Type: "Image", Clicks: 20, Impressions: 300, Installs: 0, Cost: 5, CTR: 0.2, CostPerInstall: 5},
	}
	s := Summarize(records)
	if s.Count != 2 {
		t.Errorf("expected count 2, got %d", s.Count)
	}
	checks := map[string][2]float64{
		"clicks":   {s.AvgClicks, 15},
		"impr":     {s.AvgImpressions, 200},
		"installs": {s.AvgInstalls, 1},
		"cost":     {s.AvgCost, 12.5},
		"ctr":      {s.AvgCTR, 0.15},
		"cpi":      {s.AvgCPI, 7.5},
	}
	for name, c := range checks {
		if math.Abs(c[0]-c[1]) > 1e-9 {
			t.Errorf("%s: expected %v, got %v", name, c[1], c[0])
		}
	}
}

func TestSummarizeDistribution(t *testing.T) {
	s := Summarize(sampleRecords())
	want := []CategoryCount{{"Image", 2}, {"Video", 2}, {"Text", 1}}
	if len(s.Distribution) != len(want) {
		t.Fatalf("expected %d categories, got %v", len(want), s.Distribution)
	}
	for i := range want {
		if s.Distribution[i] != want[i] {
			t.Errorf("position %d: expected %v, got %v", i, want[i], s.Distribution[i])
		}
	}
	if s.MaxCount() != 2 {
		t.Errorf("expected max count 2, got %d", s.MaxCount())
	}
}

func TestComposeSummaryIgnoresFilter(t *testing.T) {
	records := append(makeRecords(12), rec("img", "Image", "Best", 200))
	snap := Compose(records, FilterState{Types: []string{"Image"}})

	if snap.Page.TotalCount != 1 {
		t.Errorf("expected 1 visible record, got %d", snap.Page.TotalCount)
	}
	if snap.Summary.Count != 13 {
		t.Errorf("expected summary over all 13 records, got %d", snap.Summary.Count)
	}
	// (0+1+...+11 + 200) / 13
	if want := 266.0 / 13; math.Abs(snap.Summary.AvgClicks-want) > 1e-9 {
		t.Errorf("expected avg clicks %v, got %v", want, snap.Summary.AvgClicks)
	}
}

func TestComposeClampsFilterPage(t *testing.T) {
	snap := Compose(makeRecords(12), FilterState{Page: 7})
	if snap.Filter.Page != 2 || snap.Page.Number != 2 {
		t.Errorf("expected page clamped to 2, got filter=%d page=%d", snap.Filter.Page, snap.Page.Number)
	}
}

func TestSummarizeEmpty(t *testing.T) {
	s := Summarize(nil)
	if s.Count != 0 || s.AvgClicks != 0 || s.AvgCPI != 0 || len(s.Distribution) != 0 {
		t.Errorf("expected zero summary, got %+v", s)
	}
}
