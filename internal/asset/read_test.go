package asset

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/xuri/excelize/v2"
)

func writeWorkbook(t *testing.T, rows [][]any) string {
	t.Helper()
	f := excelize.NewFile()
	defer f.Close()
	for i, row := range rows {
		cellRef, err := excelize.CoordinatesToCellName(1, i+1)
		if err != nil {
			t.Fatalf("cell name: %v", err)
		}
		if err := f.SetSheetRow("Sheet1", cellRef, &row); err != nil {
			t.Fatalf("set row: %v", err)
		}
	}
	path := filepath.Join(t.TempDir(), "videos.xlsx")
	if err := f.SaveAs(path); err != nil {
		t.Fatalf("save workbook: %v", err)
	}
	return path
}

func TestLoadFileXLSX(t *testing.T) {
	path := writeWorkbook(t, [][]any{
		{"Asset", "Asset type", "Performance", "Clicks", "CTR", "Impr.", "Cost", "Installs"},
		{"https://www.youtube.com/watch?v=abc", "Video", "Best", 120, 0.04, 3000, 80.5, 10},
		{"Banner text", "Text", "Low", "n/a", 0.01, 100, 1, 0},
		{"https://example.com/pic.jpg", "Image", "Good", 5, 0.02, 250, 9, 0},
	})

	records, report, err := LoadFile(path, "")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(records) != 2 {
		t.Fatalf("expected 2 records, got %d", len(records))
	}
	if report.RowsRead != 3 || report.DroppedMissing != 1 {
		t.Errorf("unexpected report: %+v", report)
	}
	if records[0].Clicks != 120 || records[0].CTR != 0.04 || records[0].CostPerInstall != 8.05 {
		t.Errorf("unexpected first record: %+v", records[0])
	}
	if records[1].CostPerInstall != 9 {
		t.Errorf("expected zero-install CPI 9, got %v", records[1].CostPerInstall)
	}
}

func TestReadFileXLSXNamedSheetMissing(t *testing.T) {
	path := writeWorkbook(t, [][]any{{"Asset"}})
	_, err := ReadFile(path, "Nope")
	var ie *IngestError
	if !errors.As(err, &ie) {
		t.Fatalf("expected IngestError, got %v", err)
	}
	if ie.Source != path {
		t.Errorf("expected source %q, got %q", path, ie.Source)
	}
}

func TestReadFileMissing(t *testing.T) {
	_, err := ReadFile(filepath.Join(t.TempDir(), "absent.xlsx"), "")
	var ie *IngestError
	if !errors.As(err, &ie) {
		t.Fatalf("expected IngestError, got %v", err)
	}
}

func TestReadFileCorruptWorkbook(t *testing.T) {
	path := filepath.Join(t.TempDir(), "broken.xlsx")
	if err := os.WriteFile(path, []byte("not a zip"), 0o644); err != nil {
		t.Fatal(err)
	}
	_, err := ReadFile(path, "")
	var ie *IngestError
	if !errors.As(err, &ie) {
		t.Fatalf("expected IngestError, got %v", err)
	}
}

func TestReadFileUnsupportedExtension(t *testing.T) {
	_, err := ReadFile("data.json", "")
	var ie *IngestError
	if !errors.As(err, &ie) {
		t.Fatalf("expected IngestError, got %v", err)
	}
}

func TestLoadFileCSV(t *testing.T) {
	path := filepath.Join(t.TempDir(), "videos.csv")
	data := "\ufeffAsset,Asset type,Performance,Clicks,CTR,Impr.,Cost,Installs\n" +
		"\"Buy now, save big\",Text,Good,4,0.02,200,10,2\n" +
		",,,,,,,\n" +
		"https://youtu.be/x,Video,Best,1,0.5,2,3,0\n"
	if err := os.WriteFile(path, []byte(data), 0o644); err != nil {
		t.Fatal(err)
	}

	records, report, err := LoadFile(path, "")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(records) != 2 {
		t.Fatalf("expected 2 records, got %d", len(records))
	}
	if records[0].Ref != "Buy now, save big" {
		t.Errorf("expected quoted asset text, got %q", records[0].Ref)
	}
	if report.RowsRead != 2 {
		t.Errorf("blank rows should be skipped, got %d rows read", report.RowsRead)
	}
}

func TestLoadFileMissingColumnCarriesSource(t *testing.T) {
	path := filepath.Join(t.TempDir(), "partial.csv")
	if err := os.WriteFile(path, []byte("Asset,Clicks\nx,1\n"), 0o644); err != nil {
		t.Fatal(err)
	}
	_, _, err := LoadFile(path, "")
	var ie *IngestError
	if !errors.As(err, &ie) {
		t.Fatalf("expected IngestError, got %v", err)
	}
	if ie.Source != path {
		t.Errorf("expected source %q, got %q", path, ie.Source)
	}
	if !strings.Contains(err.Error(), "Asset type") {
		t.Errorf("expected missing column in message, got %q", err.Error())
	}
}
