package core

import (
	"context"
	"errors"
	"slices"
	"testing"

	"github.com/JonMunkholm/ScanList/internal/blobstore"
)

func TestIngest_SingleRow(t *testing.T) {
	s := newTestStore(t, nil)

	report, err := s.Ingest(context.Background(), fullHeaders, []map[string]string{
		row("123", "Soap", "pcs", "2.5"),
	})
	if err != nil {
		t.Fatalf("Ingest() error = %v", err)
	}
	if report.Outcome != OutcomeSuccess || report.ItemCount != 1 {
		t.Errorf("report = %+v, want success with 1 item", report)
	}
	if !report.Persisted {
		t.Error("report.Persisted = false, want true")
	}

	got := s.Snapshot()
	want := Catalog{"123": {Name: "Soap", UOM: "pcs", Price: 2.5}}
	if len(got) != len(want) || got["123"] != want["123"] {
		t.Errorf("catalog = %v, want %v", got, want)
	}
}

func TestIngest_MissingColumn(t *testing.T) {
	s := loadedStore(t, "111")

	_, err := s.Ingest(context.Background(),
		[]string{ColBarcode, ColProductName, ColUOM},
		[]map[string]string{row("123", "Soap", "pcs", "2.5")},
	)

	var se *SchemaError
	if !errors.As(err, &se) {
		t.Fatalf("Ingest() error = %v, want *SchemaError", err)
	}
	if !slices.Equal(se.Missing, []string{ColSellPrice}) {
		t.Errorf("Missing = %v, want [SELLPRICE]", se.Missing)
	}
	if s.Len() != 0 {
		t.Errorf("catalog has %d items after schema error, want 0", s.Len())
	}
}

func TestIngest_HeaderNamesAreExact(t *testing.T) {
	s := newTestStore(t, nil)
	_, err := s.Ingest(context.Background(),
		[]string{"barcode", ColProductName, ColUOM, ColSellPrice}, nil)

	var se *SchemaError
	if !errors.As(err, &se) || !slices.Equal(se.Missing, []string{ColBarcode}) {
		t.Errorf("Ingest() error = %v, want BARCODE missing", err)
	}
}

func TestIngest_SkipsBlankBarcodes(t *testing.T) {
	s := newTestStore(t, nil)

	report, err := s.Ingest(context.Background(), fullHeaders, []map[string]string{
		row("", "Ghost", "pcs", "1"),
		row("   ", "Ghost", "pcs", "1"),
		row("456", "Milk", "l", "1.2"),
	})
	if err != nil {
		t.Fatalf("Ingest() error = %v", err)
	}
	if report.ItemCount != 1 || report.SkippedRows != 2 || report.TotalRows != 3 {
		t.Errorf("report = %+v, want 1 item, 2 skipped, 3 total", report)
	}
	if _, ok := s.Lookup(""); ok {
		t.Error("blank barcode present in catalog")
	}
}

func TestIngest_UnparsablePrice(t *testing.T) {
	s := newTestStore(t, nil)
	if _, err := s.Ingest(context.Background(), fullHeaders, []map[string]string{
		row("123", "Soap", "pcs", "abc"),
	}); err != nil {
		t.Fatalf("Ingest() error = %v", err)
	}

	rec, ok := s.Lookup("123")
	if !ok || rec.Price != 0 {
		t.Errorf("Lookup(123) = %+v, %v; want price 0", rec, ok)
	}
}

func TestIngest_Normalization(t *testing.T) {
	s := newTestStore(t, nil)
	if _, err := s.Ingest(context.Background(), fullHeaders, []map[string]string{
		row(" 123 ", "  ", "", "-5"),
		row("777", "First", "pcs", "1"),
		row("777", "Second", "box", "2"),
	}); err != nil {
		t.Fatalf("Ingest() error = %v", err)
	}

	rec, ok := s.Lookup("123")
	if !ok {
		t.Fatal("barcode not trimmed")
	}
	if rec.Name != NotAvailable || rec.UOM != NotAvailable || rec.Price != -5 {
		t.Errorf("record = %+v, want N/A, N/A, -5", rec)
	}

	rec, _ = s.Lookup("777")
	if rec.Name != "Second" || rec.UOM != "box" {
		t.Errorf("duplicate barcode: got %+v, want last row", rec)
	}
}

func TestIngest_FailuresClearCatalog(t *testing.T) {
	tests := []struct {
		name    string
		table   *Table
		outcome IngestOutcome
		check   func(error) bool
	}{
		{
			name:    "parse error",
			table:   &Table{Headers: fullHeaders, Rows: []map[string]string{row("1", "a", "b", "1")}, Errors: []RowError{{Line: 3, Message: "bad"}}},
			outcome: OutcomeParseError,
			check:   func(err error) bool { var pe *ParseError; return errors.As(err, &pe) },
		},
		{
			name:    "schema error",
			table:   &Table{Headers: []string{"X"}},
			outcome: OutcomeSchemaError,
			check:   func(err error) bool { var se *SchemaError; return errors.As(err, &se) },
		},
		{
			name:    "empty result",
			table:   &Table{Headers: fullHeaders, Rows: []map[string]string{row("", "a", "b", "1")}},
			outcome: OutcomeEmptyResult,
			check:   func(err error) bool { return errors.Is(err, ErrEmptyResult) },
		},
		{
			name:    "no rows",
			table:   &Table{Headers: fullHeaders},
			outcome: OutcomeEmptyResult,
			check:   func(err error) bool { return errors.Is(err, ErrEmptyResult) },
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			blobs := blobstore.NewMemory()
			s := newTestStore(t, blobs)
			if _, err := s.Ingest(context.Background(), fullHeaders, []map[string]string{row("111", "Old", "pcs", "1")}); err != nil {
				t.Fatalf("seed Ingest() error = %v", err)
			}

			report, err := s.IngestTable(context.Background(), tt.table)
			if !tt.check(err) {
				t.Fatalf("IngestTable() error = %v", err)
			}
			if report.Outcome != tt.outcome {
				t.Errorf("Outcome = %q, want %q", report.Outcome, tt.outcome)
			}
			if s.Len() != 0 {
				t.Errorf("live catalog has %d items, want 0", s.Len())
			}
			if _, err := blobs.Get(context.Background(), testKey); !errors.Is(err, blobstore.ErrNotFound) {
				t.Errorf("persisted copy still present: %v", err)
			}
		})
	}
}

func TestIngest_ParseErrorsCheckedBeforeSchema(t *testing.T) {
	s := newTestStore(t, nil)
	_, err := s.IngestTable(context.Background(), &Table{
		Headers: []string{"X"},
		Errors:  []RowError{{Line: 2, Message: "bad quote"}},
	})
	var pe *ParseError
	if !errors.As(err, &pe) {
		t.Errorf("IngestTable() error = %v, want *ParseError", err)
	}
}

func TestIngest_PersistFailureKeepsCatalog(t *testing.T) {
	blobs := blobstore.Limit(blobstore.NewMemory(), 10)
	s := newTestStore(t, blobs)

	report, err := s.Ingest(context.Background(), fullHeaders, []map[string]string{
		row("123", "Soap", "pcs", "2.5"),
		row("456", "Milk", "l", "1.2"),
	})
	if err != nil {
		t.Fatalf("Ingest() error = %v, want nil", err)
	}
	if report.Persisted {
		t.Error("Persisted = true, want false")
	}

	var pe *PersistError
	if !errors.As(report.PersistErr, &pe) || !errors.Is(report.PersistErr, blobstore.ErrTooLarge) {
		t.Errorf("PersistErr = %v, want *PersistError wrapping ErrTooLarge", report.PersistErr)
	}
	if s.Len() != 2 {
		t.Errorf("live catalog has %d items, want 2", s.Len())
	}
	if _, err := blobs.Get(context.Background(), testKey); !errors.Is(err, blobstore.ErrNotFound) {
		t.Errorf("persisted key should be dropped, Get error = %v", err)
	}
}

func TestBuildCatalog_SkipCount(t *testing.T) {
	rows := make([]map[string]string, 0, 25)
	for range 25 {
		rows = append(rows, row("", "x", "y", "1"))
	}
	rows = append(rows, row("1", "x", "y", "1"))

	c, skipped := BuildCatalog(rows, nil)
	if len(c) != 1 || skipped != 25 {
		t.Errorf("BuildCatalog() = %d items, %d skipped; want 1, 25", len(c), skipped)
	}
}
