// Package core provides the catalog and scan-session logic for ScanList.
//
// This package holds all domain logic independent of any transport. It is
// used by the HTTP server, the scanlist CLI and tests without modification.
//
// # Catalog
//
// A [CatalogStore] owns the live barcode→product mapping and its persisted
// copy in a [blobstore.Store] under one fixed key. Catalogs are replaced
// wholesale by an ingestion pass and never merged:
//
//  1. [ParseCSV] tokenizes the file (BOM stripped, blank lines skipped)
//  2. Row-level parse errors fail the pass with [*ParseError]
//  3. Missing BARCODE, PRODUCTNAME, UOM or SELLPRICE columns fail with [*SchemaError]
//  4. Rows become [ProductRecord] values keyed by trimmed barcode; blank barcodes are skipped
//  5. An empty result fails with [ErrEmptyResult]
//
// Any failure clears both the live and the persisted catalog. A save failure
// after a good pass is reported but keeps the new catalog live.
//
// # Scan Session
//
// A [Session] is a two-state machine (Idle, Active) that consumes
// [DecodeEvent] values from a [Decoder], looks barcodes up and maintains a
// newest-first, deduplicated [ResultList]. Each outcome is published as a
// [Status] with an expiry; a newer status always supersedes an older one.
// Manual entry goes through [Session.ManualAdd] and shares the result list.
//
// # Events
//
// Status changes, result list changes and UI side effects (haptic pulse,
// duplicate highlight) are broadcast through a [Hub] for the event stream
// and metrics.
//
// # Error Handling
//
// Technical errors are mapped to user-friendly messages using [MapError];
// see error_messages.go for the code list.
package core
