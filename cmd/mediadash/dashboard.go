package main

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/TobiSchelling/mediadash/internal/asset"
	"github.com/TobiSchelling/mediadash/internal/classify"
	"github.com/TobiSchelling/mediadash/internal/report"
	"github.com/TobiSchelling/mediadash/internal/server"
	"github.com/TobiSchelling/mediadash/internal/view"
)

// sourceFlags select the dataset a command works on.
type sourceFlags struct {
	file     string
	importID int64
}

func (s *sourceFlags) register(cmd *cobra.Command) {
	cmd.Flags().StringVarP(&s.file, "file", "f", "", "Read this spreadsheet instead of the snapshot store")
	cmd.Flags().Int64Var(&s.importID, "import", 0, "Use a stored import (default: latest)")
}

type dataset struct {
	Label   string
	Records []asset.Record
}

func (d dataset) Summary() view.Summary {
	return view.Summarize(d.Records)
}

// loadDataset resolves --file, then --import, then the latest stored
// import, then the configured spreadsheet.
func loadDataset(src sourceFlags) (dataset, error) {
	if src.file != "" {
		return loadSpreadsheet(src.file)
	}

	db, err := openDB()
	if err != nil {
		return dataset{}, err
	}
	defer db.Close()

	id := src.importID
	if id == 0 {
		latest, err := db.GetLatestImport()
		if err != nil {
			return dataset{}, fmt.Errorf("finding latest import: %w", err)
		}
		if latest == nil {
			slog.Debug("no stored imports, reading spreadsheet", "path", cfg.Data.File)
			return loadSpreadsheet(cfg.Data.File)
		}
		id = latest.ID
	}

	imp, err := db.GetImport(id)
	if err != nil {
		return dataset{}, err
	}
	if imp == nil {
		return dataset{}, fmt.Errorf("import %d not found", id)
	}
	records, err := db.GetAssets(id)
	if err != nil {
		return dataset{}, fmt.Errorf("loading import %d: %w", id, err)
	}
	return dataset{
		Label:   fmt.Sprintf("Import %d: %s", imp.ID, imp.SourcePath),
		Records: records,
	}, nil
}

func loadSpreadsheet(path string) (dataset, error) {
	records, rep, err := asset.LoadFile(path, cfg.Data.Sheet)
	if err != nil {
		slog.Error("loading spreadsheet failed", "path", path, "error", err)
		return dataset{}, err
	}
	slog.Info("spreadsheet loaded", "path", path, "kept", rep.RowsKept, "dropped", rep.Dropped())
	return dataset{Label: path, Records: records}, nil
}

func newClassifier(offline bool) *classify.Classifier {
	return classify.New(classify.Options{
		Timeout:   cfg.Network.Timeout,
		UserAgent: cfg.Network.UserAgent,
		Offline:   offline || !cfg.Network.Enabled,
	})
}

// --- list command ---

var (
	listSource  sourceFlags
	listTypes   []string
	listTiers   []string
	listSort    string
	listOrder   string
	listPage    int
	listOffline bool
)

var listCmd = &cobra.Command{
	Use:   "list",
	Short: "Print one page of the dashboard in the terminal",
	RunE: func(cmd *cobra.Command, args []string) error {
		field, err := view.ParseSortField(listSort)
		if err != nil {
			return err
		}
		order, err := view.ParseOrder(listOrder)
		if err != nil {
			return err
		}

		ds, err := loadDataset(listSource)
		if err != nil {
			return err
		}

		snap := view.Compose(ds.Records, view.FilterState{
			Types: listTypes,
			Tiers: listTiers,
			Sort:  field,
			Order: order,
			Page:  listPage,
		})
		printPage(cmd.Context(), os.Stdout, snap, newClassifier(listOffline))
		return nil
	},
}

func init() {
	listSource.register(listCmd)
	listCmd.Flags().StringSliceVar(&listTypes, "type", nil, "Asset types to show (default: all)")
	listCmd.Flags().StringSliceVar(&listTiers, "perf", nil, "Performance tiers to show (default: all)")
	listCmd.Flags().StringVar(&listSort, "sort", "none", "Sort by: none, clicks, impressions, ctr, cost, installs, cpi")
	listCmd.Flags().StringVar(&listOrder, "order", "desc", "Sort order: desc or asc")
	listCmd.Flags().IntVarP(&listPage, "page", "p", 1, "Page number")
	listCmd.Flags().BoolVar(&listOffline, "offline", false, "Skip title lookups and image probes")
}

func printPage(ctx context.Context, w io.Writer, snap view.Snapshot, c server.Classifier) {
	page := snap.Page
	bold := color.New(color.Bold).SprintFunc()

	fmt.Fprintf(w, "%s\n\n", bold(fmt.Sprintf("Showing %d items", page.TotalCount)))
	if page.NoMatches() {
		fmt.Fprintln(w, color.YellowString("No data matches filters."))
		return
	}

	for i, rec := range page.Records {
		res := c.Classify(ctx, rec.Ref)
		title := res.DisplayTitle
		if res.Kind == classify.Image {
			title = rec.Ref
		}
		fmt.Fprintf(w, "%3d. %s\n", page.Start()+i, title)
		fmt.Fprintf(w, "     %s · %s · %s\n", res.Kind, rec.Type, tierLabel(rec.Performance))
		fmt.Fprintf(w, "     Impr. %s  Clicks %s  Installs %s  CTR %s  Cost %s  CPI %s\n",
			report.Number(rec.Impressions, 0),
			report.Number(rec.Clicks, 0),
			report.Number(rec.Installs, 0),
			report.Percent(rec.CTR),
			report.Number(rec.Cost, 2),
			report.Number(rec.CostPerInstall, 2),
		)
	}

	if page.TotalPages > 1 {
		fmt.Fprintf(w, "\nShowing %d-%d of %d (page %d/%d)\n",
			page.Start(), page.End(), page.TotalCount, page.Number, page.TotalPages)
	}
}

// tierLabel colors well-known tier names; anything else stays plain.
func tierLabel(tier string) string {
	lower := strings.ToLower(tier)
	switch {
	case strings.Contains(lower, "high"), strings.Contains(lower, "top"), strings.Contains(lower, "best"):
		return color.GreenString(tier)
	case strings.Contains(lower, "low"), strings.Contains(lower, "poor"), strings.Contains(lower, "worst"):
		return color.RedString(tier)
	case strings.Contains(lower, "mid"), strings.Contains(lower, "average"):
		return color.YellowString(tier)
	}
	return tier
}

// --- serve command ---

var (
	serveSource  sourceFlags
	servePort    int
	serveOffline bool
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the local dashboard server",
	RunE: func(cmd *cobra.Command, args []string) error {
		ds, err := loadDataset(serveSource)
		if err != nil {
			return err
		}

		port := cfg.Server.Port
		if servePort > 0 {
			port = servePort
		}

		fmt.Printf("Starting dashboard at http://localhost:%d\n", port)
		fmt.Println("Press Ctrl+C to stop")
		return server.Serve(ds.Records, newClassifier(serveOffline), server.Options{
			Source:      ds.Label,
			GridColumns: cfg.View.GridColumns,
		}, port)
	},
}

func init() {
	serveSource.register(serveCmd)
	serveCmd.Flags().IntVarP(&servePort, "port", "p", 0, "Port to run server on (default: from config)")
	serveCmd.Flags().BoolVar(&serveOffline, "offline", false, "Skip title lookups and image probes")
}
