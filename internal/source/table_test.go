package source

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/xuri/excelize/v2"
)

func TestReadCSVTable(t *testing.T) {
	csv := "Department,Division,Position Name\nParks,North,Ranger\nParks\n"

	tbl, err := ReadCSVTable(strings.NewReader(csv), "positions.csv")
	if err != nil {
		t.Fatalf("ReadCSVTable() error = %v", err)
	}

	if got, want := len(tbl.Headers), 3; got != want {
		t.Fatalf("len(Headers) = %d, want %d", got, want)
	}
	if got, want := len(tbl.Rows), 2; got != want {
		t.Fatalf("len(Rows) = %d, want %d", got, want)
	}
	// Short rows are padded to header width.
	if got, want := len(tbl.Rows[1]), 3; got != want {
		t.Errorf("padded row width = %d, want %d", got, want)
	}
	if tbl.Rows[1][1] != "" || tbl.Rows[1][2] != "" {
		t.Errorf("padded cells = %q, %q, want empty", tbl.Rows[1][1], tbl.Rows[1][2])
	}
}

func TestReadCSVTable_Empty(t *testing.T) {
	tbl, err := ReadCSVTable(strings.NewReader(""), "empty.csv")
	if err != nil {
		t.Fatalf("ReadCSVTable() error = %v", err)
	}
	if len(tbl.Headers) != 0 || len(tbl.Rows) != 0 {
		t.Errorf("empty input produced headers=%v rows=%v", tbl.Headers, tbl.Rows)
	}
}

func TestReadTableFile_UnsupportedExtension(t *testing.T) {
	path := filepath.Join(t.TempDir(), "budgets.ods")
	if err := os.WriteFile(path, []byte("x"), 0o644); err != nil {
		t.Fatal(err)
	}

	if _, err := ReadTableFile(path); err == nil {
		t.Fatal("ReadTableFile() error = nil, want unsupported format error")
	}
}

func TestReadTableFile_XLSX(t *testing.T) {
	path := filepath.Join(t.TempDir(), "budgets.xlsx")
	writeTestWorkbook(t, path, [][]any{
		{"Department", "Budget"},
		{"Parks", 400000},
		{"Library", 150000},
	})

	tbl, err := ReadTableFile(path)
	if err != nil {
		t.Fatalf("ReadTableFile() error = %v", err)
	}
	if got, want := tbl.Name, "budgets.xlsx"; got != want {
		t.Errorf("Name = %q, want %q", got, want)
	}
	if got, want := len(tbl.Rows), 2; got != want {
		t.Fatalf("len(Rows) = %d, want %d", got, want)
	}
	if got, want := tbl.Rows[0][0], "Parks"; got != want {
		t.Errorf("Rows[0][0] = %q, want %q", got, want)
	}
}

func writeTestWorkbook(t *testing.T, path string, rows [][]any) {
	t.Helper()

	wb := excelize.NewFile()
	defer func() { _ = wb.Close() }()

	sheet := wb.GetSheetName(0)
	for i, row := range rows {
		cell, err := excelize.CoordinatesToCellName(1, i+1)
		if err != nil {
			t.Fatal(err)
		}
		if err := wb.SetSheetRow(sheet, cell, &row); err != nil {
			t.Fatal(err)
		}
	}
	if err := wb.SaveAs(path); err != nil {
		t.Fatal(err)
	}
}
