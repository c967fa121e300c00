package server

import (
	"github.com/raysh454/phishguard/internal/diagnostics"
	"github.com/raysh454/phishguard/internal/scan"
)

// ScanRequest is the payload for starting a scan.
type ScanRequest struct {
	URL string `json:"url" example:"https://example.com"`
}

// SessionResponse is a session together with its current view state.
type SessionResponse struct {
	ID    string         `json:"id" example:"3f0c9a52-6a55-4c8e-9a43-7c8d35b1f0f2"`
	State scan.ViewState `json:"state"`
}

// DiagnosticsResponse lists recent failed scans for operators.
type DiagnosticsResponse struct {
	Entries []diagnostics.Entry `json:"entries"`
	Counts  map[string]int      `json:"counts"`
}

// ErrorResponse is a uniform error payload returned by the API.
type ErrorResponse struct {
	Error string `json:"error" example:"session not found"`
}
