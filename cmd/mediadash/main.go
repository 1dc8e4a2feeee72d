package main

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"os/signal"
	"path/filepath"
	"strconv"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"

	"github.com/TobiSchelling/mediadash/internal/config"
	"github.com/TobiSchelling/mediadash/internal/database"
	"github.com/TobiSchelling/mediadash/internal/logging"
	"github.com/TobiSchelling/mediadash/internal/pipeline"
	"github.com/TobiSchelling/mediadash/internal/report"
)

var version = "dev"

var (
	verbose    bool
	quiet      bool
	configPath string
	cfg        *config.Config
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	if err := rootCmd.ExecuteContext(ctx); err != nil {
		os.Exit(1)
	}
}

var rootCmd = &cobra.Command{
	Use:     "mediadash",
	Short:   "Media asset performance dashboard",
	Long:    "mediadash loads an ad-asset performance spreadsheet and serves a filterable dashboard of its assets.",
	Version: version,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		// Skip config loading for init and version
		if cmd.Name() == "init" || cmd.Name() == "version" {
			logging.Setup("INFO", verbose, quiet)
			return nil
		}

		if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
			return fmt.Errorf("loading .env: %w", err)
		}

		path, err := config.ResolveConfigPath(configPath)
		if err != nil {
			return err
		}
		cfg, err = config.Load(path)
		if err != nil {
			return fmt.Errorf("loading config: %w", err)
		}
		logging.Setup(cfg.Logging.Level, verbose, quiet)
		return nil
	},
}

func init() {
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "Enable debug logging")
	rootCmd.PersistentFlags().BoolVarP(&quiet, "quiet", "q", false, "Only log errors")
	rootCmd.PersistentFlags().StringVarP(&configPath, "config", "c", "", "Path to config file")

	rootCmd.AddCommand(initCmd)
	rootCmd.AddCommand(statusCmd)
	rootCmd.AddCommand(versionCmd)
	rootCmd.AddCommand(importCmd)
	rootCmd.AddCommand(importsCmd)
	rootCmd.AddCommand(listCmd)
	rootCmd.AddCommand(summaryCmd)
	rootCmd.AddCommand(serveCmd)
}

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print version",
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Println("mediadash", version)
	},
}

var initCmd = &cobra.Command{
	Use:   "init",
	Short: "Initialize configuration in ~/.config/mediadash/",
	RunE: func(cmd *cobra.Command, args []string) error {
		target := filepath.Join(config.ConfigDir(), "config.yaml")
		if _, err := os.Stat(target); err == nil {
			fmt.Printf("Config already exists: %s\n", target)
			return nil
		}

		if err := os.MkdirAll(config.ConfigDir(), 0o755); err != nil {
			return fmt.Errorf("creating config directory: %w", err)
		}

		if err := os.WriteFile(target, config.DefaultConfigYAML, 0o644); err != nil {
			return fmt.Errorf("writing config: %w", err)
		}

		fmt.Printf("Created config: %s\n", target)
		fmt.Println("Edit it to point at your spreadsheet and tune network access.")
		return nil
	},
}

var statusCmd = &cobra.Command{
	Use:   "status",
	Short: "Show configuration and snapshot store status",
	RunE: func(cmd *cobra.Command, args []string) error {
		db, err := openDB()
		if err != nil {
			return err
		}
		defer db.Close()

		stats, err := db.GetStats()
		if err != nil {
			return fmt.Errorf("getting stats: %w", err)
		}

		fmt.Println("Data:")
		fmt.Printf("  Spreadsheet: %s\n", cfg.Data.File)
		if _, err := os.Stat(cfg.Data.File); err != nil {
			fmt.Println("  (file not found)")
		}
		fmt.Printf("  Network lookups: %t\n", cfg.Network.Enabled)
		fmt.Println("\nSnapshot store:")
		fmt.Printf("  Database: %s\n", db.Path())
		fmt.Printf("  Imports: %d\n", stats.Imports)
		fmt.Printf("  Stored assets: %d\n", stats.Assets)
		if stats.LatestImportID > 0 {
			fmt.Printf("  Latest import: %d (%d assets)\n", stats.LatestImportID, stats.LatestAssets)
		}
		return nil
	},
}

// --- import command ---

var (
	dryRun      bool
	forceImport bool
	importSheet string
)

var importCmd = &cobra.Command{
	Use:   "import [file]",
	Short: "Import a spreadsheet into the snapshot store: read -> clean -> store",
	Args:  cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		db, err := openDB()
		if err != nil {
			return err
		}
		defer db.Close()

		path := cfg.Data.File
		if len(args) == 1 {
			path = args[0]
		}
		sheet := cfg.Data.Sheet
		if importSheet != "" {
			sheet = importSheet
		}

		pipe := pipeline.New(db, sheet)
		var result *pipeline.Result
		if dryRun {
			result = pipe.DryRun(path)
		} else {
			result = pipe.Run(path, forceImport)
		}

		for i, step := range result.Steps {
			fmt.Printf("\nStep %d/3: %s\n", i+1, step.Name)
			if step.Err != nil {
				fmt.Printf("  Error: %v\n", step.Err)
			} else {
				fmt.Printf("  %s\n", step.Summary)
			}
		}
		if err := result.Err(); err != nil {
			return err
		}

		if !dryRun {
			fmt.Println("\nImport complete! Run 'mediadash serve' to view the dashboard.")
		}
		return nil
	},
}

func init() {
	importCmd.Flags().BoolVar(&dryRun, "dry-run", false, "Read and clean without storing")
	importCmd.Flags().BoolVar(&forceImport, "force", false, "Store even if the file is unchanged since the last import")
	importCmd.Flags().StringVar(&importSheet, "sheet", "", "Worksheet name (default: first sheet)")
}

// --- imports command ---

var importsCmd = &cobra.Command{
	Use:   "imports",
	Short: "List stored imports",
	RunE: func(cmd *cobra.Command, args []string) error {
		db, err := openDB()
		if err != nil {
			return err
		}
		defer db.Close()

		items, err := db.GetAllImports()
		if err != nil {
			return err
		}
		if len(items) == 0 {
			fmt.Println("No imports yet. Add one with: mediadash import")
			return nil
		}

		fmt.Println("Imports:")
		fmt.Println()
		for _, imp := range items {
			at := ""
			if imp.ImportedAt != nil {
				at = *imp.ImportedAt
			}
			fmt.Printf("  [%d] %s  %s\n", imp.ID, at, imp.SourcePath)
			fmt.Printf("        %d kept, %d dropped of %d rows\n", imp.RowsKept, imp.RowsDropped, imp.RowsRead)
		}
		return nil
	},
}

var importsDeleteCmd = &cobra.Command{
	Use:   "delete [id]",
	Short: "Delete a stored import and its assets",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		db, err := openDB()
		if err != nil {
			return err
		}
		defer db.Close()

		id, err := strconv.ParseInt(args[0], 10, 64)
		if err != nil {
			return fmt.Errorf("invalid import ID: %s", args[0])
		}

		imp, err := db.GetImport(id)
		if err != nil {
			return err
		}
		if imp == nil {
			return fmt.Errorf("import %d not found", id)
		}

		if err := db.DeleteImport(id); err != nil {
			return err
		}
		fmt.Printf("Deleted import [%d]: %s\n", id, imp.SourcePath)
		return nil
	},
}

func init() {
	importsCmd.AddCommand(importsDeleteCmd)
}

// --- summary command ---

var summarySource sourceFlags

var summaryCmd = &cobra.Command{
	Use:   "summary",
	Short: "Print the performance summary as Markdown",
	RunE: func(cmd *cobra.Command, args []string) error {
		ds, err := loadDataset(summarySource)
		if err != nil {
			return err
		}
		fmt.Print(report.Markdown("Performance Summary", ds.Summary()))
		return nil
	},
}

func init() {
	summarySource.register(summaryCmd)
}

func openDB() (*database.DB, error) {
	dataDir := cfg.GetDataDir()
	if err := os.MkdirAll(dataDir, 0o755); err != nil {
		return nil, fmt.Errorf("creating data directory: %w", err)
	}
	return database.Open(cfg.DatabasePath())
}
