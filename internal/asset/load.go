package asset

import (
	"errors"
	"fmt"
	"log/slog"
	"math"
	"strconv"
	"strings"
)

// ErrEmptyTable is returned when the source has no header row.
var ErrEmptyTable = errors.New("table has no header row")

// LoadReport summarizes what happened to the input rows.
type LoadReport struct {
	RowsRead        int
	RowsKept        int
	DroppedMissing  int // a required metric was empty or unparseable
	DroppedEmptyRef int
}

// Dropped returns the total number of discarded rows.
func (r *LoadReport) Dropped() int {
	return r.DroppedMissing + r.DroppedEmptyRef
}

// Load coerces the numeric columns, discards incomplete rows and derives
// cost per install. Row order is preserved.
func Load(t Table) ([]Record, *LoadReport, error) {
	if len(t.Header) == 0 {
		return nil, nil, &IngestError{Err: ErrEmptyTable}
	}

	idx := indexHeader(t.Header)
	for _, name := range append(append([]string{}, requiredText...), requiredNumeric...) {
		if _, ok := idx[name]; !ok {
			return nil, nil, &IngestError{Err: fmt.Errorf("missing column %q", name)}
		}
	}
	perMille, hasPerMille := idx[ColInstallsPerMille]

	report := &LoadReport{}
	records := make([]Record, 0, len(t.Rows))
	for i, row := range t.Rows {
		report.RowsRead++

		nums := make(map[string]float64, len(requiredNumeric))
		complete := true
		for _, name := range requiredNumeric {
			v, ok := parseNumber(cell(row, idx[name]))
			if !ok {
				complete = false
				break
			}
			nums[name] = v
		}
		if !complete {
			report.DroppedMissing++
			slog.Debug("dropping row with missing metric", "row", i+2)
			continue
		}

		ref := strings.TrimSpace(cell(row, idx[ColAsset]))
		if ref == "" {
			report.DroppedEmptyRef++
			slog.Debug("dropping row with empty asset", "row", i+2)
			continue
		}

		rec := Record{
			Ref:         ref,
			Type:        strings.TrimSpace(cell(row, idx[ColAssetType])),
			Performance: strings.TrimSpace(cell(row, idx[ColPerformance])),
			Impressions: nums[ColImpressions],
			Clicks:      nums[ColClicks],
			CTR:         nums[ColCTR],
			Cost:        nums[ColCost],
			Installs:    nums[ColInstalls],
		}
		rec.CostPerInstall = CostPerInstall(rec.Cost, rec.Installs)
		if hasPerMille {
			if v, ok := parseNumber(cell(row, perMille)); ok {
				rec.InstallsPerMille = &v
			}
		}
		records = append(records, rec)
	}
	report.RowsKept = len(records)
	return records, report, nil
}

// indexHeader maps trimmed header labels to column positions. The first
// occurrence of a duplicated label wins.
func indexHeader(header []string) map[string]int {
	idx := make(map[string]int, len(header))
	for i, h := range header {
		name := strings.TrimSpace(h)
		if _, seen := idx[name]; !seen {
			idx[name] = i
		}
	}
	return idx
}

func cell(row []string, i int) string {
	if i < 0 || i >= len(row) {
		return ""
	}
	return row[i]
}

// parseNumber is a lenient-whitespace, strict-format float parse. Blank
// cells and NaN count as missing.
func parseNumber(s string) (float64, bool) {
	s = strings.TrimSpace(s)
	if s == "" {
		return 0, false
	}
	v, err := strconv.ParseFloat(s, 64)
	if err != nil || math.IsNaN(v) {
		return 0, false
	}
	return v, true
}
