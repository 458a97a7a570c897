package core

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"strings"

	"golang.org/x/text/encoding/unicode"
	"golang.org/x/text/transform"
)

// maxRowErrors caps how many row errors one parse collects.
const maxRowErrors = 50

// ParseCSV tokenizes a catalog file into header-keyed rows.
//
// A leading byte-order mark is stripped and invalid UTF-8 is replaced.
// Fully blank lines are skipped. Malformed quoting and rows whose field
// count differs from the header are collected in Table.Errors rather than
// returned, so the caller decides how to treat them. The returned error is
// reserved for read failures.
func ParseCSV(r io.Reader) (*Table, error) {
	decoded := transform.NewReader(r, unicode.BOMOverride(unicode.UTF8.NewDecoder()))

	reader := csv.NewReader(decoded)
	reader.FieldsPerRecord = 0

	t := &Table{}

	header, err := reader.Read()
	if errors.Is(err, io.EOF) {
		return t, nil
	}
	if err != nil {
		var pe *csv.ParseError
		if errors.As(err, &pe) {
			t.Errors = append(t.Errors, RowError{Line: pe.StartLine, Message: pe.Err.Error()})
			return t, nil
		}
		return nil, fmt.Errorf("read header: %w", err)
	}
	for _, h := range header {
		t.Headers = append(t.Headers, strings.TrimSpace(h))
	}

	for {
		record, err := reader.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			var pe *csv.ParseError
			if !errors.As(err, &pe) {
				return nil, fmt.Errorf("read row: %w", err)
			}
			// A short row of empty cells is a blank line, not a defect.
			if errors.Is(pe.Err, csv.ErrFieldCount) && isEmptyRow(record) {
				continue
			}
			if len(t.Errors) < maxRowErrors {
				t.Errors = append(t.Errors, RowError{Line: pe.StartLine, Message: pe.Err.Error()})
			}
			continue
		}

		if isEmptyRow(record) {
			continue
		}

		row := make(map[string]string, len(t.Headers))
		for i, h := range t.Headers {
			if i < len(record) {
				row[h] = record[i]
			}
		}
		t.Rows = append(t.Rows, row)
	}

	return t, nil
}

// isEmptyRow reports whether every cell is blank.
func isEmptyRow(record []string) bool {
	for _, cell := range record {
		if strings.TrimSpace(cell) != "" {
			return false
		}
	}
	return true
}
