// Package asset turns a spreadsheet of creative assets into cleaned,
// typed performance records.
package asset

// Column labels as they appear in the source spreadsheet header.
const (
	ColAsset            = "Asset"
	ColAssetType        = "Asset type"
	ColPerformance      = "Performance"
	ColClicks           = "Clicks"
	ColCTR              = "CTR"
	ColImpressions      = "Impr."
	ColCost             = "Cost"
	ColInstalls         = "Installs"
	ColInstallsPerMille = "Installs per (1000) impressions"
)

// requiredText are the categorical columns every row must carry.
var requiredText = []string{ColAsset, ColAssetType, ColPerformance}

// requiredNumeric are the metrics a row must have parsed to survive loading.
var requiredNumeric = []string{ColClicks, ColCTR, ColImpressions, ColCost, ColInstalls}

// Record is one cleaned row of the dataset.
type Record struct {
	Ref         string
	Type        string
	Performance string

	Impressions float64
	Clicks      float64
	CTR         float64 // fraction, 0..1
	Cost        float64
	Installs    float64

	// CostPerInstall is Cost/Installs, or Cost itself when Installs is zero.
	CostPerInstall float64

	// InstallsPerMille is nil when the column is absent or the cell did not parse.
	InstallsPerMille *float64
}

// CostPerInstall applies the zero-install guard: a row with no installs
// reports its raw cost.
func CostPerInstall(cost, installs float64) float64 {
	if installs == 0 {
		installs = 1
	}
	return cost / installs
}

// Table is a raw header plus rows of cell text.
type Table struct {
	Header []string
	Rows   [][]string
}
