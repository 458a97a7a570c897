package decoder

import (
	"bufio"
	"context"
	"errors"
	"io"
	"io/fs"
	"os"
	"strings"
	"syscall"

	"github.com/JonMunkholm/ScanList/internal/core"
)

// Lines reads newline-terminated barcodes. A blank line is a miss.
type Lines struct {
	open func() (io.ReadCloser, error)
}

// NewLines reads from the device or file at path, opened on each Start.
func NewLines(path string) *Lines {
	return &Lines{open: func() (io.ReadCloser, error) { return os.Open(path) }}
}

// NewLinesReader reads from r. Cancelling a run cannot interrupt a read
// that is already blocked on r.
func NewLinesReader(r io.Reader) *Lines {
	return &Lines{open: func() (io.ReadCloser, error) { return io.NopCloser(r), nil }}
}

// Start opens the source and streams its lines until ctx is cancelled or
// the source ends. Open failures are returned as classified
// *core.DecoderError values.
func (l *Lines) Start(ctx context.Context) (<-chan core.DecodeEvent, error) {
	rc, err := l.open()
	if err != nil {
		return nil, &core.DecoderError{Kind: ClassifyOpenError(err), Err: err}
	}

	ch := make(chan core.DecodeEvent, 16)
	stop := context.AfterFunc(ctx, func() { rc.Close() })

	go func() {
		defer close(ch)
		defer func() {
			if stop() {
				rc.Close()
			}
		}()

		send := func(ev core.DecodeEvent) bool {
			select {
			case ch <- ev:
				return true
			case <-ctx.Done():
				return false
			}
		}

		scanner := bufio.NewScanner(rc)
		for scanner.Scan() {
			ev := core.Miss()
			if code := strings.TrimSpace(scanner.Text()); code != "" {
				ev = core.Decoded(code)
			}
			if !send(ev) {
				return
			}
		}
		if err := scanner.Err(); err != nil && ctx.Err() == nil {
			send(core.DecodeFailed(ClassifyOpenError(err), err))
		}
	}()

	return ch, nil
}

// ClassifyOpenError maps an OS error from a scanner device to a kind.
func ClassifyOpenError(err error) core.DecoderErrorKind {
	switch {
	case errors.Is(err, fs.ErrPermission):
		return core.DecoderPermissionDenied
	case errors.Is(err, fs.ErrNotExist), errors.Is(err, syscall.ENODEV), errors.Is(err, syscall.ENXIO):
		return core.DecoderNoCamera
	case errors.Is(err, syscall.EBUSY):
		return core.DecoderDeviceBusy
	default:
		return core.DecoderOther
	}
}
