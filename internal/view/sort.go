package view

import (
	"fmt"
	"slices"
	"sort"
	"strings"

	"github.com/TobiSchelling/mediadash/internal/asset"
)

// SortField selects the metric used to order results.
type SortField int

const (
	SortNone SortField = iota
	SortClicks
	SortImpressions
	SortCTR
	SortCost
	SortInstalls
	SortCPI
)

var sortLabels = [...]string{"None", "Clicks", "Impr.", "CTR", "Cost", "Installs", "CPI"}

// SortFields lists every field in menu order.
func SortFields() []SortField {
	return []SortField{SortNone, SortClicks, SortImpressions, SortCTR, SortCost, SortInstalls, SortCPI}
}

func (f SortField) String() string {
	if f < 0 || int(f) >= len(sortLabels) {
		return fmt.Sprintf("SortField(%d)", int(f))
	}
	return sortLabels[f]
}

var sortKeys = [...]string{"none", "clicks", "impressions", "ctr", "cost", "installs", "cpi"}

// Key returns the lowercase form used in query strings and flags.
func (f SortField) Key() string {
	if f < 0 || int(f) >= len(sortKeys) {
		return "none"
	}
	return sortKeys[f]
}

// Value extracts the field's metric from r.
func (f SortField) Value(r asset.Record) float64 {
	switch f {
	case SortClicks:
		return r.Clicks
	case SortImpressions:
		return r.Impressions
	case SortCTR:
		return r.CTR
	case SortCost:
		return r.Cost
	case SortInstalls:
		return r.Installs
	case SortCPI:
		return r.CostPerInstall
	default:
		return 0
	}
}

// ParseSortField accepts a column label ("Impr.") or a lowercase key
// ("impressions"). An empty string means SortNone.
func ParseSortField(s string) (SortField, error) {
	key := strings.ToLower(strings.TrimSpace(s))
	switch key {
	case "", "none":
		return SortNone, nil
	case "clicks":
		return SortClicks, nil
	case "impr.", "impr", "impressions":
		return SortImpressions, nil
	case "ctr":
		return SortCTR, nil
	case "cost":
		return SortCost, nil
	case "installs":
		return SortInstalls, nil
	case "cpi":
		return SortCPI, nil
	}
	return SortNone, fmt.Errorf("unknown sort field %q", s)
}

// Order is the sort direction.
type Order int

const (
	Descending Order = iota
	Ascending
)

func (o Order) String() string {
	if o == Ascending {
		return "Low to High"
	}
	return "High to Low"
}

// Key returns the short form used in query strings and flags.
func (o Order) Key() string {
	if o == Ascending {
		return "asc"
	}
	return "desc"
}

// ParseOrder accepts "asc"/"desc" or the menu labels. Empty means Descending.
func ParseOrder(s string) (Order, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "desc", "descending", "high to low":
		return Descending, nil
	case "asc", "ascending", "low to high":
		return Ascending, nil
	}
	return Descending, fmt.Errorf("unknown sort order %q", s)
}

// Sort returns a sorted copy of records. Ties keep their input order when
// ascending; descending is the exact reverse of ascending. SortNone
// returns the records in their original order.
func Sort(records []asset.Record, field SortField, order Order) []asset.Record {
	out := slices.Clone(records)
	if field == SortNone {
		return out
	}
	sort.SliceStable(out, func(i, j int) bool {
		return field.Value(out[i]) < field.Value(out[j])
	})
	if order == Descending {
		slices.Reverse(out)
	}
	return out
}
