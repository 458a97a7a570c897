package core

import (
	"context"
	"errors"
)

// DecodeEventKind distinguishes decoder results.
type DecodeEventKind int

const (
	// DecodeFound carries a decoded barcode.
	DecodeFound DecodeEventKind = iota
	// DecodeMiss means nothing was detected in this frame. It is not an error.
	DecodeMiss
	// DecodeError carries a classified decoder failure.
	DecodeError
)

// DecodeEvent is one result emitted by a Decoder.
type DecodeEvent struct {
	Kind DecodeEventKind
	Code string
	Err  *DecoderError
}

// Decoded builds a found event.
func Decoded(code string) DecodeEvent {
	return DecodeEvent{Kind: DecodeFound, Code: code}
}

// Miss builds a nothing-detected event.
func Miss() DecodeEvent {
	return DecodeEvent{Kind: DecodeMiss}
}

// DecodeFailed builds an error event.
func DecodeFailed(kind DecoderErrorKind, err error) DecodeEvent {
	return DecodeEvent{Kind: DecodeError, Err: &DecoderError{Kind: kind, Err: err}}
}

// Decoder is the barcode source a scan session consumes.
//
// Start acquires the underlying device and returns a channel of results.
// Cancelling ctx releases the device; the decoder then closes the channel.
// A Start error should be a *DecoderError when the cause can be classified.
type Decoder interface {
	Start(ctx context.Context) (<-chan DecodeEvent, error)
}

// asSetupError converts a Start failure into a setup *DecoderError,
// keeping any classification the decoder supplied.
func asSetupError(err error) *DecoderError {
	var de *DecoderError
	if errors.As(err, &de) {
		return &DecoderError{Kind: de.Kind, Setup: true, Err: de.Err}
	}
	return &DecoderError{Kind: DecoderOther, Setup: true, Err: err}
}
