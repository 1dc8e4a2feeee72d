// Package view filters, sorts and pages asset records and computes the
// dashboard's summary statistics.
package view

import "github.com/TobiSchelling/mediadash/internal/asset"

// PageSize is the fixed number of records per page.
const PageSize = 10

// FilterState is the user's current selection. A nil Types or Tiers slice
// leaves that dimension unconstrained; a non-nil empty slice selects
// nothing. Page is 1-based and clamped on use.
type FilterState struct {
	Types []string
	Tiers []string
	Sort  SortField
	Order Order
	Page  int
}

// Page is one page of the filtered, sorted result.
type Page struct {
	Records    []asset.Record
	Number     int
	TotalPages int
	TotalCount int
}

// NoMatches reports that the filter excluded every record.
func (p Page) NoMatches() bool {
	return p.TotalCount == 0
}

// Start is the 1-based position of the first record on the page, or 0.
func (p Page) Start() int {
	if len(p.Records) == 0 {
		return 0
	}
	return (p.Number-1)*PageSize + 1
}

// End is the 1-based position of the last record on the page, or 0.
func (p Page) End() int {
	if len(p.Records) == 0 {
		return 0
	}
	return p.Start() + len(p.Records) - 1
}

// HasPrev and HasNext report whether neighbouring pages exist.
func (p Page) HasPrev() bool { return p.Number > 1 }
func (p Page) HasNext() bool { return p.Number < p.TotalPages }

// Rows groups the page into rows of at most n records for a grid.
func (p Page) Rows(n int) [][]asset.Record {
	if n <= 0 {
		n = len(p.Records)
	}
	var rows [][]asset.Record
	for start := 0; start < len(p.Records); start += n {
		end := min(start+n, len(p.Records))
		rows = append(rows, p.Records[start:end])
	}
	return rows
}

// TotalPages returns ceil(count/PageSize), never less than 1.
func TotalPages(count int) int {
	if count <= 0 {
		return 1
	}
	return (count + PageSize - 1) / PageSize
}

// Filter keeps records whose type and tier are both selected, preserving
// order. A nil selection matches everything, an empty one nothing.
func Filter(records []asset.Record, types, tiers []string) []asset.Record {
	typeSet := toSet(types)
	tierSet := toSet(tiers)
	out := make([]asset.Record, 0, len(records))
	for _, r := range records {
		if typeSet != nil {
			if _, ok := typeSet[r.Type]; !ok {
				continue
			}
		}
		if tierSet != nil {
			if _, ok := tierSet[r.Performance]; !ok {
				continue
			}
		}
		out = append(out, r)
	}
	return out
}

// Paginate slices one page out of records, clamping number into range.
func Paginate(records []asset.Record, number int) Page {
	total := len(records)
	pages := TotalPages(total)
	number = max(1, min(number, pages))

	start := min((number-1)*PageSize, total)
	end := min(start+PageSize, total)
	return Page{
		Records:    records[start:end],
		Number:     number,
		TotalPages: pages,
		TotalCount: total,
	}
}

// Build runs the filter, sort and paginate steps for f.
func Build(records []asset.Record, f FilterState) Page {
	filtered := Filter(records, f.Types, f.Tiers)
	sorted := Sort(filtered, f.Sort, f.Order)
	return Paginate(sorted, f.Page)
}

// Options lists the distinct asset types and performance tiers in order of
// first appearance.
func Options(records []asset.Record) (types, tiers []string) {
	seenType := map[string]struct{}{}
	seenTier := map[string]struct{}{}
	for _, r := range records {
		if _, ok := seenType[r.Type]; !ok {
			seenType[r.Type] = struct{}{}
			types = append(types, r.Type)
		}
		if _, ok := seenTier[r.Performance]; !ok {
			seenTier[r.Performance] = struct{}{}
			tiers = append(tiers, r.Performance)
		}
	}
	return types, tiers
}

func toSet(values []string) map[string]struct{} {
	if values == nil {
		return nil
	}
	set := make(map[string]struct{}, len(values))
	for _, v := range values {
		set[v] = struct{}{}
	}
	return set
}

// Snapshot is everything the renderer needs for one page load.
type Snapshot struct {
	Filter  FilterState
	Page    Page
	Summary Summary
	Types   []string
	Tiers   []string
}

// Compose builds the page for f and the summary for the full dataset.
func Compose(records []asset.Record, f FilterState) Snapshot {
	types, tiers := Options(records)
	page := Build(records, f)
	f.Page = page.Number
	return Snapshot{
		Filter:  f,
		Page:    page,
		Summary: Summarize(records),
		Types:   types,
		Tiers:   tiers,
	}
}
