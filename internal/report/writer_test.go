package report

import (
	"encoding/csv"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/licverify/licverify/internal/model"
)

func readRows(t *testing.T, path string) [][]string {
	t.Helper()
	f, err := os.Open(path)
	if err != nil {
		t.Fatalf("open report: %v", err)
	}
	defer func() { _ = f.Close() }()
	rows, err := csv.NewReader(f).ReadAll()
	if err != nil {
		t.Fatalf("read report: %v", err)
	}
	return rows
}

func TestCreate_WritesHeaderImmediately(t *testing.T) {
	path := filepath.Join(t.TempDir(), "report.csv")
	w, err := Create(path)
	if err != nil {
		t.Fatalf("Expected no error, got %v", err)
	}
	defer func() { _ = w.Close() }()

	// Header must be on disk before any record arrives.
	rows := readRows(t, path)
	if len(rows) != 1 {
		t.Fatalf("Expected header-only file, got %d rows", len(rows))
	}
	if rows[0][0] != "first_name" || rows[0][6] != "revocation_reason" {
		t.Errorf("Unexpected header: %v", rows[0])
	}
}

func TestWriteRecords_FlushedPerRequest(t *testing.T) {
	path := filepath.Join(t.TempDir(), "report.csv")
	w, err := Create(path)
	if err != nil {
		t.Fatalf("Expected no error, got %v", err)
	}
	defer func() { _ = w.Close() }()

	expiry := time.Date(2031, 5, 20, 0, 0, 0, 0, time.UTC)
	reason := "A; B - late"
	err = w.WriteRecords([]model.CategoryRecord{
		{
			FirstName: "Jonas", LastName: "Petraitis", LicenseNumber: "LT1",
			StatusText: "V - Valid", Category: "B",
			ExpiryDate: &expiry, RevocationReasonText: &reason,
		},
		{
			FirstName: "Jonas", LastName: "Petraitis", LicenseNumber: "LT1",
			StatusText: "V - Valid", Category: "A",
		},
	})
	if err != nil {
		t.Fatalf("Expected no error, got %v", err)
	}

	// Visible on disk without Close: flushed after the request.
	rows := readRows(t, path)
	if len(rows) != 3 {
		t.Fatalf("Expected header + 2 rows, got %d", len(rows))
	}
	if rows[1][5] != "2031-05-20" || rows[1][6] != "A; B - late" {
		t.Errorf("Unexpected first row: %v", rows[1])
	}
	if rows[2][5] != "" || rows[2][6] != "" {
		t.Errorf("Absent optionals must stay empty: %v", rows[2])
	}
	if w.Written() != 2 {
		t.Errorf("Expected 2 written, got %d", w.Written())
	}
}

func TestWriteRecords_EmptySliceKeepsArtifactValid(t *testing.T) {
	path := filepath.Join(t.TempDir(), "report.csv")
	w, err := Create(path)
	if err != nil {
		t.Fatalf("Expected no error, got %v", err)
	}
	if err := w.WriteRecords(nil); err != nil {
		t.Fatalf("Expected no error, got %v", err)
	}
	if err := w.Close(); err != nil {
		t.Fatalf("Expected no error, got %v", err)
	}
	if rows := readRows(t, path); len(rows) != 1 {
		t.Errorf("Expected header only, got %d rows", len(rows))
	}
}

func TestCreate_UnwritablePath(t *testing.T) {
	_, err := Create(filepath.Join(t.TempDir(), "missing-dir", "report.csv"))
	if err == nil {
		t.Fatal("Expected error for unwritable path")
	}
	if _, ok := err.(*WriteError); !ok {
		t.Errorf("Expected *WriteError, got %T", err)
	}
}
