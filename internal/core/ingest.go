package core

import (
	"context"
	"log/slog"
	"strings"
	"time"
)

// maxSkipWarnings bounds the per-ingestion log noise for blank barcodes.
const maxSkipWarnings = 10

// Ingest validates tokenized rows and, when they yield at least one
// product, replaces the live catalog with them. It is IngestTable without
// tokenizer errors.
func (s *CatalogStore) Ingest(ctx context.Context, headers []string, rows []map[string]string) (IngestReport, error) {
	return s.IngestTable(ctx, &Table{Headers: headers, Rows: rows})
}

// IngestTable runs one ingestion pass over t.
//
// Parse errors are checked first, then the header schema, then every row is
// normalized into a fresh catalog. Any failure (*ParseError, *SchemaError,
// ErrEmptyResult) clears the live and persisted catalog; nothing is merged.
// On success a persistence failure is reported through IngestReport.PersistErr
// while the new catalog stays live.
func (s *CatalogStore) IngestTable(ctx context.Context, t *Table) (IngestReport, error) {
	start := time.Now()
	report := IngestReport{TotalRows: len(t.Rows)}

	fail := func(outcome IngestOutcome, err error) (IngestReport, error) {
		report.Outcome = outcome
		report.Duration = time.Since(start)
		if clearErr := s.Clear(ctx); clearErr != nil {
			s.logger.Warn("clear after failed ingestion", "error", clearErr)
		}
		s.logger.Warn("catalog ingestion failed", "outcome", outcome, "error", err)
		return report, err
	}

	if len(t.Errors) > 0 {
		return fail(OutcomeParseError, &ParseError{Errors: t.Errors})
	}
	if err := ValidateHeaders(t.Headers); err != nil {
		return fail(OutcomeSchemaError, err)
	}

	catalog, skipped := BuildCatalog(t.Rows, s.logger)
	report.SkippedRows = skipped
	if len(catalog) == 0 {
		return fail(OutcomeEmptyResult, ErrEmptyResult)
	}

	report.Outcome = OutcomeSuccess
	report.ItemCount = len(catalog)
	if err := s.Replace(ctx, catalog); err != nil {
		report.PersistErr = err
	} else {
		report.Persisted = true
	}
	report.Duration = time.Since(start)

	s.logger.Info("catalog ingested",
		"item_count", report.ItemCount,
		"total_rows", report.TotalRows,
		"skipped_rows", report.SkippedRows,
		"persisted", report.Persisted,
		"duration_ms", report.Duration.Milliseconds(),
	)
	return report, nil
}

// BuildCatalog normalizes rows into a catalog keyed by trimmed barcode.
// Rows with a blank barcode are dropped and counted in skipped. A later row
// overwrites an earlier one with the same barcode.
func BuildCatalog(rows []map[string]string, logger *slog.Logger) (Catalog, int) {
	if logger == nil {
		logger = slog.Default()
	}

	catalog := make(Catalog, len(rows))
	skipped := 0
	for i, row := range rows {
		barcode := strings.TrimSpace(row[ColBarcode])
		if barcode == "" {
			skipped++
			switch {
			case skipped <= maxSkipWarnings:
				// Data rows start on line 2, after the header.
				logger.Warn("skipping row with empty barcode", "line", i+2)
			case skipped == maxSkipWarnings+1:
				logger.Warn("further empty barcode warnings suppressed")
			}
			continue
		}

		catalog[barcode] = ProductRecord{
			Name:  textOrNA(row[ColProductName]),
			UOM:   textOrNA(row[ColUOM]),
			Price: ParsePrice(row[ColSellPrice]),
		}
	}
	return catalog, skipped
}
