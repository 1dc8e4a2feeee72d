// Package report renders the performance summary as Markdown.
package report

import (
	"fmt"
	"strings"

	"github.com/TobiSchelling/mediadash/internal/view"
)

// Markdown renders s as a titled summary table followed by the asset
// distribution.
func Markdown(title string, s view.Summary) string {
	var b strings.Builder
	fmt.Fprintf(&b, "## %s\n\n", title)
	b.WriteString(SummaryTable(s))
	if s.Count > 0 {
		b.WriteString("\n### Asset Distribution\n\n")
		b.WriteString(Distribution(s))
	}
	return b.String()
}

// SummaryTable renders the averages as a Markdown table.
func SummaryTable(s view.Summary) string {
	if s.Count == 0 {
		return "No assets loaded.\n"
	}

	var b strings.Builder
	fmt.Fprintf(&b, "Averages over %s assets.\n\n", Number(float64(s.Count), 0))
	b.WriteString("| Metric | Average |\n|---|---:|\n")
	rows := [][2]string{
		{"Avg Clicks", Number(s.AvgClicks, 1)},
		{"Avg Impr.", Number(s.AvgImpressions, 1)},
		{"Avg Installs", Number(s.AvgInstalls, 1)},
		{"Avg Cost", Number(s.AvgCost, 2)},
		{"Avg CTR", Percent(s.AvgCTR)},
		{"Avg CPI", Number(s.AvgCPI, 2)},
	}
	for _, r := range rows {
		fmt.Fprintf(&b, "| %s | %s |\n", r[0], r[1])
	}
	return b.String()
}

// Distribution renders the per-type counts as a Markdown list.
func Distribution(s view.Summary) string {
	var b strings.Builder
	for _, c := range s.Distribution {
		fmt.Fprintf(&b, "- **%s**: %d\n", escape(categoryLabel(c.Category)), c.Count)
	}
	return b.String()
}

func categoryLabel(c string) string {
	if c == "" {
		return "(blank)"
	}
	return c
}

var mdEscaper = strings.NewReplacer(
	`\`, `\\`, `*`, `\*`, `_`, `\_`, "`", "\\`", `[`, `\[`, `]`, `\]`, `|`, `\|`, `<`, `&lt;`,
)

// escape keeps user-supplied category names from being read as Markdown.
func escape(s string) string {
	return mdEscaper.Replace(s)
}
