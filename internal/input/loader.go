// Package input turns a raw delimited-text file into validated
// verification requests. Loading is eager so the row count is known
// before the batch starts; one bad row never aborts the rest of the file.
package input

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/sirupsen/logrus"

	"github.com/licverify/licverify/internal/model"
	"github.com/licverify/licverify/internal/textenc"
)

// InputError reports an unusable input file: missing, unreadable, or
// lacking a recognizable header. The run still produces an empty report
// artifact, but the exit status reflects it.
type InputError struct {
	Path string
	Err  error
}

func (e *InputError) Error() string {
	return fmt.Sprintf("unusable input %s: %v", e.Path, e.Err)
}

func (e *InputError) Unwrap() error { return e.Err }

// Header synonyms per logical column, matched case-insensitively after
// normalization. Lithuanian and English variants are both accepted.
var (
	firstNameHeaders = []string{"first name", "firstname", "given name", "vardas", "name"}
	lastNameHeaders  = []string{"last name", "lastname", "surname", "family name", "pavarde", "pavardė"}
	docNumberHeaders = []string{
		"document number", "document no", "doc number", "doc no",
		"license number", "licence number", "license no",
		"dokumento numeris", "dokumento nr", "numeris", "number",
	}
)

// Loader reads verification requests from delimited text files.
type Loader struct {
	log *logrus.Logger
}

// NewLoader creates a loader that reports skipped rows to log.
func NewLoader(log *logrus.Logger) *Loader {
	return &Loader{log: log}
}

// Load parses the file at path using the detected format and returns the
// requests in file order. Rows missing a required field after
// sanitization and rows the parser rejects are skipped with a diagnostic
// carrying their 1-based row number. Duplicates are kept.
func (l *Loader) Load(path string, format textenc.Format) ([]model.VerificationRequest, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, &InputError{Path: path, Err: err}
	}
	defer func() { _ = f.Close() }()

	dec, err := textenc.Decoder(format.Encoding)
	if err != nil {
		return nil, &InputError{Path: path, Err: err}
	}

	r := csv.NewReader(dec.Reader(f))
	r.Comma = delimiterRune(format.Delimiter)
	r.FieldsPerRecord = -1
	r.TrimLeadingSpace = true

	header, err := r.Read()
	if err != nil {
		if errors.Is(err, io.EOF) {
			return nil, &InputError{Path: path, Err: errors.New("empty file")}
		}
		return nil, &InputError{Path: path, Err: fmt.Errorf("read header: %w", err)}
	}
	cols, err := matchHeader(header)
	if err != nil {
		return nil, &InputError{Path: path, Err: err}
	}

	var requests []model.VerificationRequest
	row := 1 // header was row 1
	for {
		record, err := r.Read()
		row++
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			// Parser-level problem (e.g. ragged quoting) in this one
			// row; skip it and keep going.
			l.log.WithFields(logrus.Fields{
				"row":    row,
				"reason": err.Error(),
			}).Warn("skipping malformed row")
			continue
		}

		req := model.NewVerificationRequest(
			fieldAt(record, cols.firstName),
			fieldAt(record, cols.lastName),
			fieldAt(record, cols.docNumber),
		)
		if !req.Valid() {
			l.log.WithFields(logrus.Fields{
				"row":    row,
				"reason": "missing required field",
			}).Warn("skipping incomplete row")
			continue
		}
		requests = append(requests, req)
	}
	return requests, nil
}

type columns struct {
	firstName int
	lastName  int
	docNumber int
}

func matchHeader(header []string) (columns, error) {
	cols := columns{firstName: -1, lastName: -1, docNumber: -1}
	for i, cell := range header {
		name := normalizeHeader(cell)
		switch {
		case cols.firstName < 0 && matchesAny(name, firstNameHeaders):
			cols.firstName = i
		case cols.lastName < 0 && matchesAny(name, lastNameHeaders):
			cols.lastName = i
		case cols.docNumber < 0 && matchesAny(name, docNumberHeaders):
			cols.docNumber = i
		}
	}
	if cols.firstName < 0 || cols.lastName < 0 || cols.docNumber < 0 {
		return cols, fmt.Errorf("header does not name all required columns (got %q)", header)
	}
	return cols, nil
}

func normalizeHeader(s string) string {
	s = strings.TrimPrefix(s, "\uFEFF")
	s = strings.ToLower(strings.TrimSpace(s))
	s = strings.ReplaceAll(s, "_", " ")
	return strings.Join(strings.Fields(s), " ")
}

func matchesAny(name string, synonyms []string) bool {
	for _, s := range synonyms {
		if name == s {
			return true
		}
	}
	return false
}

func fieldAt(record []string, idx int) string {
	if idx < 0 || idx >= len(record) {
		return ""
	}
	return record[idx]
}

func delimiterRune(delimiter string) rune {
	for _, r := range delimiter {
		return r
	}
	return ','
}
