package scan

import (
	"context"
	"time"
)

// FailureKind is the operator-facing classification of a failed scan.
type FailureKind string

const (
	FailureInput     FailureKind = "input"
	FailureStatus    FailureKind = "status"
	FailureTransport FailureKind = "transport"
	FailureTimeout   FailureKind = "timeout"
	FailureDecode    FailureKind = "decode"
)

// FailureRecord is what operators get to see about a failed scan.
type FailureRecord struct {
	SessionID  string      `json:"session_id"`
	Generation uint64      `json:"generation"`
	URL        string      `json:"url"`
	Kind       FailureKind `json:"kind"`
	StatusCode int         `json:"status_code,omitempty"`
	Detail     string      `json:"detail,omitempty"`
	At         time.Time   `json:"at"`
}

// Recorder receives failure records. Implementations must not block for long;
// they run on the scan's goroutine after the state transition.
type Recorder interface {
	RecordFailure(ctx context.Context, rec FailureRecord) error
}
