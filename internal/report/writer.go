// Package report streams the tabular output artifact. The header goes out
// first, even for an empty result set, and every batch of rows is flushed
// immediately so a crash mid-run preserves all fully-processed requests.
package report

import (
	"encoding/csv"
	"fmt"
	"os"

	"github.com/licverify/licverify/internal/model"
)

// WriteError reports a failed write to the output artifact. Fatal: the
// run aborts, keeping whatever was already flushed.
type WriteError struct {
	Path string
	Err  error
}

func (e *WriteError) Error() string {
	return fmt.Sprintf("write report %s: %v", e.Path, e.Err)
}

func (e *WriteError) Unwrap() error { return e.Err }

var header = []string{
	"first_name", "last_name", "license_number",
	"status_text", "category", "expiry_date", "revocation_reason",
}

const dateLayout = "2006-01-02"

// Writer appends CategoryRecords to a CSV file. Opened once per run and
// held until Close.
type Writer struct {
	path    string
	f       *os.File
	csv     *csv.Writer
	written int
}

// Create opens (truncating) the report file and writes the header row.
func Create(path string) (*Writer, error) {
	f, err := os.Create(path)
	if err != nil {
		return nil, &WriteError{Path: path, Err: err}
	}
	w := &Writer{path: path, f: f, csv: csv.NewWriter(f)}
	if err := w.csv.Write(header); err != nil {
		_ = f.Close()
		return nil, &WriteError{Path: path, Err: err}
	}
	if err := w.flush(); err != nil {
		_ = f.Close()
		return nil, err
	}
	return w, nil
}

// WriteRecords appends the rows for one request and flushes them to disk.
func (w *Writer) WriteRecords(records []model.CategoryRecord) error {
	for _, rec := range records {
		row := []string{
			rec.FirstName,
			rec.LastName,
			rec.LicenseNumber,
			rec.StatusText,
			rec.Category,
			"",
			"",
		}
		if rec.ExpiryDate != nil {
			row[5] = rec.ExpiryDate.Format(dateLayout)
		}
		if rec.RevocationReasonText != nil {
			row[6] = *rec.RevocationReasonText
		}
		if err := w.csv.Write(row); err != nil {
			return &WriteError{Path: w.path, Err: err}
		}
		w.written++
	}
	return w.flush()
}

// Written returns the number of data rows written so far.
func (w *Writer) Written() int { return w.written }

// Close flushes and closes the artifact. Safe on every exit path.
func (w *Writer) Close() error {
	flushErr := w.flush()
	if err := w.f.Close(); err != nil {
		return &WriteError{Path: w.path, Err: err}
	}
	return flushErr
}

func (w *Writer) flush() error {
	w.csv.Flush()
	if err := w.csv.Error(); err != nil {
		return &WriteError{Path: w.path, Err: err}
	}
	return nil
}
