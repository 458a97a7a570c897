package core

import (
	"errors"
	"fmt"
	"strings"
)

var (
	// ErrEmptyResult means an ingestion produced no usable rows.
	ErrEmptyResult = errors.New("no valid product rows")

	// ErrCatalogEmpty rejects starting a scan without a loaded catalog.
	ErrCatalogEmpty = errors.New("catalog is empty")

	// ErrCatalogNotLoaded rejects a manual add without a loaded catalog.
	ErrCatalogNotLoaded = errors.New("catalog not loaded")

	ErrAlreadyScanning = errors.New("scan session already active")
	ErrNotScanning     = errors.New("scan session not active")

	// ErrEmptyInput is a blank manual barcode.
	ErrEmptyInput = errors.New("empty barcode input")

	// File-level upload failures.
	ErrNotCSV       = errors.New("not a csv file")
	ErrEmptyFile    = errors.New("could not read content from file")
	ErrFileTooLarge = errors.New("file too large")
	ErrNoFile       = errors.New("no file provided")
)

// SchemaError reports required columns missing from the header row.
type SchemaError struct {
	Missing []string
	Found   []string
}

func (e *SchemaError) Error() string {
	return fmt.Sprintf("missing required columns: %s (found: %s)",
		strings.Join(e.Missing, ", "), strings.Join(e.Found, ", "))
}

// ParseError carries the tokenizer's row-level errors.
type ParseError struct {
	Errors []RowError
}

func (e *ParseError) Error() string {
	if len(e.Errors) == 0 {
		return "csv parse error"
	}
	first := e.Errors[0]
	if len(e.Errors) == 1 {
		return fmt.Sprintf("csv parse error on line %d: %s", first.Line, first.Message)
	}
	return fmt.Sprintf("csv parse error on line %d: %s (and %d more)", first.Line, first.Message, len(e.Errors)-1)
}

// PersistError wraps a blob store failure while saving or clearing the
// catalog. The in-memory catalog stays usable.
type PersistError struct {
	Op  string
	Key string
	Err error
}

func (e *PersistError) Error() string {
	return fmt.Sprintf("persist catalog (%s %s): %v", e.Op, e.Key, e.Err)
}

func (e *PersistError) Unwrap() error { return e.Err }

// DecoderErrorKind classifies a decoder failure.
type DecoderErrorKind int

const (
	DecoderOther DecoderErrorKind = iota
	DecoderPermissionDenied
	DecoderNoCamera
	DecoderDeviceBusy
)

func (k DecoderErrorKind) String() string {
	switch k {
	case DecoderPermissionDenied:
		return "permission_denied"
	case DecoderNoCamera:
		return "no_camera"
	case DecoderDeviceBusy:
		return "device_busy"
	default:
		return "other"
	}
}

// DecoderError is a decoder failure. Setup is true when the decoder could
// not be started at all.
type DecoderError struct {
	Kind  DecoderErrorKind
	Setup bool
	Err   error
}

func (e *DecoderError) Error() string {
	stage := "runtime"
	if e.Setup {
		stage = "setup"
	}
	if e.Err == nil {
		return fmt.Sprintf("decoder %s error (%s)", stage, e.Kind)
	}
	return fmt.Sprintf("decoder %s error (%s): %v", stage, e.Kind, e.Err)
}

func (e *DecoderError) Unwrap() error { return e.Err }
