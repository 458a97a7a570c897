// Package core provides the catalog and scan-session logic for ScanList.
//
// # Error Codes Reference
//
// This file defines user-friendly error messages with codes for support
// reference. Typed errors and sentinels are matched first (errors.As /
// errors.Is), then the error text is searched for known patterns.
//
// # Catalog Errors (CAT001-CAT099)
//
//	CAT001 - Missing required columns (*SchemaError); lists missing and found headers
//	CAT002 - CSV parse errors (*ParseError)
//	CAT003 - No valid product rows (ErrEmptyResult)
//	CAT004 - No catalog loaded (ErrCatalogEmpty, ErrCatalogNotLoaded)
//	CAT005 - Another load is running (ErrLoadBusy)
//
// # File Errors (FILE001-FILE099)
//
//	FILE001 - Not a .csv file (ErrNotCSV)
//	FILE002 - Empty or unreadable file (ErrEmptyFile)
//	FILE003 - File too large (ErrFileTooLarge, "request body too large")
//	FILE004 - No file in the upload (ErrNoFile)
//
// # Storage Errors (STO001-STO099)
//
//	STO001 - Storage quota exceeded while saving (*PersistError wrapping blobstore.ErrTooLarge)
//	STO002 - Other save failure (*PersistError)
//	STO003 - Storage unreachable ("connection refused")
//	STO004 - Operation timed out ("timeout", "deadline exceeded")
//
// # Scanner Errors (SCN001-SCN099)
//
//	SCN001 - Camera permission denied
//	SCN002 - No suitable camera
//	SCN003 - Camera busy or unreadable
//	SCN004 - Other decoder runtime error
//	SCN005 - Decoder setup failed
//	SCN006 - Scan already running (ErrAlreadyScanning)
//	SCN007 - No scan running (ErrNotScanning)
//	SCN008 - Blank manual barcode (ErrEmptyInput)
//	SCN009 - Scanner events arriving faster than they are handled ("queue full")
//
// # Other
//
//	RATE001 - Too many requests ("rate limit")
//	REQ001  - Malformed request body ("invalid request")
//	ERR000  - Fallback for anything unrecognized
package core

import (
	"errors"
	"fmt"
	"strings"

	"github.com/JonMunkholm/ScanList/internal/blobstore"
)

// UserMessage provides user-friendly error information with actionable guidance.
type UserMessage struct {
	Message string `json:"message"` // What happened (user-friendly)
	Action  string `json:"action"`  // What to do about it
	Code    string `json:"code"`    // Error code for support reference
}

// sentinelMessages maps sentinel errors to user messages. Checked in order.
var sentinelMessages = []struct {
	err error
	msg UserMessage
}{
	{ErrEmptyResult, UserMessage{
		Message: "The CSV file seems empty or had no valid product rows.",
		Action:  "Make sure each product row has a BARCODE value",
		Code:    "CAT003",
	}},
	{ErrCatalogEmpty, UserMessage{
		Message: "No product data loaded. Please upload a CSV file first.",
		Action:  "Upload a catalog CSV before scanning",
		Code:    "CAT004",
	}},
	{ErrCatalogNotLoaded, UserMessage{
		Message: "Product data not loaded.",
		Action:  "Upload a catalog CSV before adding items",
		Code:    "CAT004",
	}},
	{ErrLoadBusy, UserMessage{
		Message: "Another catalog file is still loading",
		Action:  "Wait for it to finish and try again",
		Code:    "CAT005",
	}},
	{ErrNotCSV, UserMessage{
		Message: "Please select a valid .csv file.",
		Action:  "Choose a file with a .csv extension",
		Code:    "FILE001",
	}},
	{ErrEmptyFile, UserMessage{
		Message: "Could not read content from the file.",
		Action:  "Check that the file is not empty",
		Code:    "FILE002",
	}},
	{ErrFileTooLarge, UserMessage{
		Message: "File exceeds maximum size limit",
		Action:  "Remove unused columns or split the catalog",
		Code:    "FILE003",
	}},
	{ErrNoFile, UserMessage{
		Message: "Please select a CSV file first.",
		Action:  "Attach the catalog file in the file field",
		Code:    "FILE004",
	}},
	{ErrAlreadyScanning, UserMessage{
		Message: "Scanning is already running",
		Action:  "Stop the current scan first",
		Code:    "SCN006",
	}},
	{ErrNotScanning, UserMessage{
		Message: "No scan is running",
		Action:  "Start scanning first",
		Code:    "SCN007",
	}},
	{ErrEmptyInput, UserMessage{
		Message: "Please enter a barcode.",
		Action:  "Type or paste a barcode",
		Code:    "SCN008",
	}},
}

// errorPattern defines a pattern to match and its corresponding user message.
type errorPattern struct {
	pattern string
	msg     UserMessage
}

// errorPatterns maps technical error text (case-insensitive) to user
// messages for errors that carry no type. The first match wins.
var errorPatterns = []errorPattern{
	{
		pattern: "request body too large",
		msg: UserMessage{
			Message: "File exceeds maximum size limit",
			Action:  "Remove unused columns or split the catalog",
			Code:    "FILE003",
		},
	},
	{
		pattern: "connection refused",
		msg: UserMessage{
			Message: "Storage is unavailable",
			Action:  "Please try again in a few moments",
			Code:    "STO003",
		},
	},
	{
		pattern: "deadline exceeded",
		msg: UserMessage{
			Message: "Operation timed out",
			Action:  "Please try again",
			Code:    "STO004",
		},
	},
	{
		pattern: "timeout",
		msg: UserMessage{
			Message: "Operation timed out",
			Action:  "Please try again",
			Code:    "STO004",
		},
	},
	{
		pattern: "queue full",
		msg: UserMessage{
			Message: "Scanner is sending faster than results can be processed",
			Action:  "Slow down and scan again",
			Code:    "SCN009",
		},
	},
	{
		pattern: "invalid request",
		msg: UserMessage{
			Message: "The request could not be understood",
			Action:  "Check the request body and try again",
			Code:    "REQ001",
		},
	},
	{
		pattern: "rate limit",
		msg: UserMessage{
			Message: "Too many requests",
			Action:  "Please wait a moment before trying again",
			Code:    "RATE001",
		},
	},
}

// defaultMessage is returned when nothing matches (ERR000).
var defaultMessage = UserMessage{
	Message: "An unexpected error occurred",
	Action:  "Please try again or contact support",
	Code:    "ERR000",
}

// MapError converts a technical error to a user-friendly message.
//
// Example:
//
//	msg := MapError(&SchemaError{Missing: []string{"SELLPRICE"}})
//	// msg.Code == "CAT001"
//	// msg.Message == "Missing required columns: SELLPRICE."
func MapError(err error) UserMessage {
	if err == nil {
		return UserMessage{}
	}

	if msg, ok := mapTyped(err); ok {
		return msg
	}

	for _, sm := range sentinelMessages {
		if errors.Is(err, sm.err) {
			return sm.msg
		}
	}

	errStr := strings.ToLower(err.Error())
	for _, ep := range errorPatterns {
		if strings.Contains(errStr, ep.pattern) {
			return ep.msg
		}
	}

	return defaultMessage
}

// mapTyped handles errors whose message depends on their fields.
func mapTyped(err error) (UserMessage, bool) {
	var de *DecoderError
	if errors.As(err, &de) {
		return decoderMessage(de), true
	}

	var se *SchemaError
	if errors.As(err, &se) {
		return UserMessage{
			Message: fmt.Sprintf("Missing required columns: %s.", strings.Join(se.Missing, ", ")),
			Action:  fmt.Sprintf("Found headers: %s. The file needs %s", strings.Join(se.Found, ", "), strings.Join(RequiredColumns, ", ")),
			Code:    "CAT001",
		}, true
	}

	var pe *ParseError
	if errors.As(err, &pe) {
		msg := UserMessage{
			Message: "Errors found while parsing the file.",
			Action:  "Check for unbalanced quotes or rows with the wrong number of columns",
			Code:    "CAT002",
		}
		if len(pe.Errors) > 0 && pe.Errors[0].Line > 0 {
			msg.Message = fmt.Sprintf("Errors found while parsing the file (first on line %d).", pe.Errors[0].Line)
		}
		return msg, true
	}

	var ps *PersistError
	if errors.As(err, &ps) {
		if errors.Is(ps.Err, blobstore.ErrTooLarge) {
			return UserMessage{
				Message: "Could not save data for next time. Local storage might be full.",
				Action:  "The catalog works for this session but must be uploaded again after a restart",
				Code:    "STO001",
			}, true
		}
		return UserMessage{
			Message: "Could not save data for next time.",
			Action:  "The catalog works for this session but must be uploaded again after a restart",
			Code:    "STO002",
		}, true
	}

	return UserMessage{}, false
}

func decoderMessage(e *DecoderError) UserMessage {
	if e.Setup && e.Kind == DecoderOther {
		return UserMessage{
			Message: "Camera setup failed.",
			Action:  "Check the camera connection and try again",
			Code:    "SCN005",
		}
	}

	switch e.Kind {
	case DecoderPermissionDenied:
		return UserMessage{
			Message: "Camera permission denied.",
			Action:  "Please allow camera access in your browser settings",
			Code:    "SCN001",
		}
	case DecoderNoCamera:
		return UserMessage{
			Message: "No suitable camera found.",
			Action:  "Connect a camera or use manual entry",
			Code:    "SCN002",
		}
	case DecoderDeviceBusy:
		return UserMessage{
			Message: "Camera is already in use or cannot be read.",
			Action:  "Close other applications or browser tabs using the camera",
			Code:    "SCN003",
		}
	default:
		return UserMessage{
			Message: "Scanning error. Try again.",
			Action:  "Restart the scan",
			Code:    "SCN004",
		}
	}
}

// FormatUserError creates a formatted error string for display.
// The format is: "Message (Code: XXX). Action"
func FormatUserError(err error) string {
	msg := MapError(err)
	if msg.Message == "" {
		return ""
	}
	return fmt.Sprintf("%s (Code: %s). %s", msg.Message, msg.Code, msg.Action)
}

// IsUserFacing reports whether err maps to a specific message rather than
// the ERR000 fallback.
func IsUserFacing(err error) bool {
	if err == nil {
		return false
	}
	return MapError(err).Code != defaultMessage.Code
}

// UserError pairs a technical error with its user-facing message.
type UserError struct {
	Technical error       // Original technical error for logging
	User      UserMessage // User-friendly message for display
}

func (e *UserError) Error() string {
	return e.User.Message
}

func (e *UserError) Unwrap() error {
	return e.Technical
}

// NewUserError maps err. Returns nil if err is nil.
func NewUserError(err error) *UserError {
	if err == nil {
		return nil
	}
	return &UserError{
		Technical: err,
		User:      MapError(err),
	}
}
