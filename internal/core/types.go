package core

import (
	"maps"
	"time"
)

// NotAvailable replaces a blank product name or unit of measure.
const NotAvailable = "N/A"

// Required catalog CSV columns. Header names must match exactly.
const (
	ColBarcode     = "BARCODE"
	ColProductName = "PRODUCTNAME"
	ColUOM         = "UOM"
	ColSellPrice   = "SELLPRICE"
)

// RequiredColumns lists every column a catalog file must carry, in the
// order missing ones are reported.
var RequiredColumns = []string{ColBarcode, ColProductName, ColUOM, ColSellPrice}

// ProductRecord is one catalog entry. Records are never mutated after an
// ingestion pass creates them.
type ProductRecord struct {
	Name  string  `json:"name"`
	UOM   string  `json:"uom"`
	Price float64 `json:"price"`
}

// Catalog maps a trimmed, non-empty barcode to its product.
type Catalog map[string]ProductRecord

// Clone returns an independent copy.
func (c Catalog) Clone() Catalog {
	if c == nil {
		return Catalog{}
	}
	return maps.Clone(c)
}

// ResultEntry is one identified item in the result list.
type ResultEntry struct {
	Barcode string        `json:"barcode"`
	Record  ProductRecord `json:"record"`
}

// RowError is a tokenizer-reported problem with one CSV line.
type RowError struct {
	Line    int    `json:"line"`
	Message string `json:"message"`
}

// Table is tokenized CSV: header names, header-keyed rows and any
// row-level parse errors.
type Table struct {
	Headers []string
	Rows    []map[string]string
	Errors  []RowError
}

// IngestOutcome classifies how a catalog ingestion ended.
type IngestOutcome string

const (
	OutcomeSuccess     IngestOutcome = "success"
	OutcomeSchemaError IngestOutcome = "schema_error"
	OutcomeParseError  IngestOutcome = "parse_error"
	OutcomeEmptyResult IngestOutcome = "empty_result"
)

// IngestReport summarizes one ingestion attempt.
type IngestReport struct {
	FileName    string        `json:"file_name,omitempty"`
	Outcome     IngestOutcome `json:"outcome"`
	ItemCount   int           `json:"item_count"`
	TotalRows   int           `json:"total_rows"`
	SkippedRows int           `json:"skipped_rows"`
	Persisted   bool          `json:"persisted"`
	PersistErr  error         `json:"-"`
	Duration    time.Duration `json:"duration_ns"`
}
