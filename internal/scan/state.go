package scan

import (
	"errors"
	"time"

	"github.com/raysh454/phishguard/internal/presenter"
)

type Phase string

const (
	PhaseIdle       Phase = "idle"
	PhaseValidating Phase = "validating"
	PhaseLoading    Phase = "loading"
	PhaseSuccess    Phase = "success"
	PhaseFailure    Phase = "failure"
)

// User-facing failure messages. Nothing else about a failure is ever shown.
const (
	MsgInvalidURL = "Please enter a valid URL."
	MsgScanFailed = "Error scanning the URL."
)

var (
	// ErrEmptyURL is the input error for an empty or whitespace-only URL.
	ErrEmptyURL = errors.New("empty url")

	// ErrBusy reports a submission ignored because a scan is in flight.
	ErrBusy = errors.New("scan already in progress")
)

// ViewState is everything a renderer needs. It is always replaced as a whole.
type ViewState struct {
	Phase Phase `json:"phase"`

	// URL is the raw input of the current scan.
	URL string `json:"url"`

	// Generation counts scans started by the owning controller.
	Generation uint64 `json:"generation"`

	ErrorMessage string                    `json:"error_message,omitempty"`
	Result       *presenter.NormalizedView `json:"result,omitempty"`
	Target       *Target                   `json:"target,omitempty"`

	// SubmitEnabled is false while a scan is in flight.
	SubmitEnabled bool `json:"submit_enabled"`

	UpdatedAt time.Time `json:"updated_at"`
}

// Busy reports whether new submissions are currently ignored.
func (s ViewState) Busy() bool {
	return s.Phase == PhaseLoading || s.Phase == PhaseValidating
}

// Terminal reports whether the state ends a scan.
func (s ViewState) Terminal() bool {
	return s.Phase == PhaseSuccess || s.Phase == PhaseFailure
}

func idleState() ViewState {
	return ViewState{Phase: PhaseIdle, SubmitEnabled: true, UpdatedAt: time.Now().UTC()}
}
