package model

import (
	"errors"
	"fmt"
)

// ScanRequest is the body sent to the prediction endpoint.
type ScanRequest struct {
	// URL is the trimmed, user-supplied target.
	URL string `json:"url"`
}

// Scores is the per-class confidence returned by the backend, each in [0,100].
// The three values need not sum to 100.
type Scores struct {
	Benign     float64 `json:"benign"`
	Phishing   float64 `json:"phishing"`
	Defacement float64 `json:"defacement"`
}

// PredictionResult is the raw payload of a successful /predict call.
// Optional fields are pointers so that absence stays distinguishable from
// the zero value.
type PredictionResult struct {
	Prediction      string   `json:"prediction"`
	DomainAge       *float64 `json:"domain_age,omitempty"`
	SSLValid        bool     `json:"ssl_valid"`
	ConfidenceScore *float64 `json:"confidence_score,omitempty"`
	SafeBrowsing    string   `json:"safe_browsing,omitempty"`
	DNSRecords      []string `json:"dns_records,omitempty"`
	HistoricalRank  *string  `json:"historical_rank,omitempty"`
	AIExplanation   string   `json:"ai_explanation,omitempty"`
	Screenshot      *string  `json:"screenshot,omitempty"`
	Scores          Scores   `json:"scores"`
}

// PredictionBenign is the verdict that triggers the benign override.
const PredictionBenign = "Benign"

var ErrMissingPrediction = errors.New("prediction missing from response")

// Validate checks the response shape. Missing optional fields are fine; a
// missing verdict or an out-of-range score is not.
func (p *PredictionResult) Validate() error {
	if p == nil {
		return errors.New("nil prediction result")
	}
	if p.Prediction == "" {
		return ErrMissingPrediction
	}
	for name, v := range map[string]float64{
		"benign":     p.Scores.Benign,
		"phishing":   p.Scores.Phishing,
		"defacement": p.Scores.Defacement,
	} {
		if v < 0 || v > 100 {
			return fmt.Errorf("score %s out of range: %v", name, v)
		}
	}
	return nil
}

// HealthStatus is the payload of the backend's health check.
type HealthStatus struct {
	Status  string `json:"status"`
	Message string `json:"message,omitempty"`
}
