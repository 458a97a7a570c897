package core

import "time"

// StatusChannel names which status line a Status belongs to.
type StatusChannel string

const (
	ChannelScan   StatusChannel = "scan"
	ChannelManual StatusChannel = "manual"
)

// StatusKind is the outcome a status line reports.
type StatusKind string

const (
	StatusIdle             StatusKind = "idle"
	StatusPrompt           StatusKind = "prompt"
	StatusFound            StatusKind = "found"
	StatusDuplicate        StatusKind = "duplicate"
	StatusNotFound         StatusKind = "not_found"
	StatusDecoderError     StatusKind = "decoder_error"
	StatusSetupFailed      StatusKind = "setup_failed"
	StatusEmptyInput       StatusKind = "empty_input"
	StatusCatalogNotLoaded StatusKind = "catalog_not_loaded"
	StatusAdded            StatusKind = "added"
	StatusAlreadyInList    StatusKind = "already_in_list"
)

// PromptText is shown while a scan is running and nothing transient is up.
const PromptText = "Point camera at barcode..."

// Status is one status line value. Seq increases with every status issued
// on the same channel; a pending expiry only applies while its Seq is
// still current. ExpiresAt is zero for statuses that do not revert.
type Status struct {
	Kind      StatusKind    `json:"kind"`
	Channel   StatusChannel `json:"channel"`
	Text      string        `json:"text"`
	Alert     string        `json:"alert,omitempty"`
	Barcode   string        `json:"barcode,omitempty"`
	Seq       uint64        `json:"seq"`
	ExpiresAt time.Time     `json:"expires_at,omitzero"`
}

// Transient reports whether the status will revert on its own.
func (s Status) Transient() bool { return !s.ExpiresAt.IsZero() }

// Timer is the part of *time.Timer the session needs.
type Timer interface {
	Stop() bool
}

// Clock schedules status expiry. Tests substitute a manual clock.
type Clock interface {
	Now() time.Time
	AfterFunc(d time.Duration, f func()) Timer
}

type systemClock struct{}

func (systemClock) Now() time.Time { return time.Now() }

func (systemClock) AfterFunc(d time.Duration, f func()) Timer {
	return time.AfterFunc(d, f)
}

// SystemClock is the wall clock.
var SystemClock Clock = systemClock{}

// statusBoard holds the latest status of one channel and its expiry timer.
type statusBoard struct {
	channel StatusChannel
	current Status
	seq     uint64
	timer   Timer
}

func newStatusBoard(ch StatusChannel) statusBoard {
	return statusBoard{
		channel: ch,
		current: Status{Kind: StatusIdle, Channel: ch},
	}
}

// stopTimer cancels any pending expiry.
func (b *statusBoard) stopTimer() {
	if b.timer != nil {
		b.timer.Stop()
		b.timer = nil
	}
}
