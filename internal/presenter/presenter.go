// Package presenter turns a raw prediction payload into the view model the
// renderers consume. Everything here is pure.
package presenter

import (
	"strconv"
	"strings"

	"github.com/raysh454/phishguard/internal/model"
)

const (
	NotApplicable      = "N/A"
	NotAvailable       = "Not Available"
	NoDNSRecords       = "None"
	UnknownDomainAge   = "Unknown"
	SSLValidDisplay    = "Valid"
	SSLInvalidDisplay  = "Invalid"
	dnsRecordSeparator = ", "
)

// NormalizedView is the display-ready form of a PredictionResult.
type NormalizedView struct {
	Prediction string `json:"prediction"`

	// DomainAge is "N years", "N/A" when absent or "Unknown" when the backend
	// could not resolve WHOIS data.
	DomainAge string `json:"domain_age"`

	SSLValid bool   `json:"ssl_valid"`
	SSL      string `json:"ssl"`

	// ConfidenceScore is "N%" or "N/A"; absence is never rendered as zero.
	ConfidenceScore string `json:"confidence_score"`

	SafeBrowsing   string `json:"safe_browsing"`
	DNSRecords     string `json:"dns_records"`
	HistoricalRank string `json:"historical_rank"`
	AIExplanation  string `json:"ai_explanation,omitempty"`

	// Screenshot is empty when the backend sent none; renderers omit the image.
	Screenshot string `json:"screenshot,omitempty"`

	ChartDistribution Distribution `json:"chart_distribution"`
}

// HasScreenshot reports whether an image should be rendered.
func (v NormalizedView) HasScreenshot() bool {
	return v.Screenshot != ""
}

// Normalize maps raw into its NormalizedView. A "Benign" verdict always
// yields a 100% benign distribution, whatever the raw scores say.
func Normalize(raw model.PredictionResult) NormalizedView {
	v := NormalizedView{
		Prediction:        raw.Prediction,
		DomainAge:         formatDomainAge(raw.DomainAge),
		SSLValid:          raw.SSLValid,
		SSL:               SSLInvalidDisplay,
		ConfidenceScore:   NotApplicable,
		SafeBrowsing:      raw.SafeBrowsing,
		DNSRecords:        NoDNSRecords,
		HistoricalRank:    NotAvailable,
		AIExplanation:     raw.AIExplanation,
		ChartDistribution: Distribute(raw.Prediction, raw.Scores),
	}
	if raw.SSLValid {
		v.SSL = SSLValidDisplay
	}
	if raw.ConfidenceScore != nil {
		v.ConfidenceScore = formatNumber(*raw.ConfidenceScore) + "%"
	}
	if strings.TrimSpace(v.SafeBrowsing) == "" {
		v.SafeBrowsing = NotApplicable
	}
	if len(raw.DNSRecords) > 0 {
		v.DNSRecords = strings.Join(raw.DNSRecords, dnsRecordSeparator)
	}
	if raw.HistoricalRank != nil && *raw.HistoricalRank != "" {
		v.HistoricalRank = *raw.HistoricalRank
	}
	if raw.Screenshot != nil {
		v.Screenshot = *raw.Screenshot
	}
	return v
}

func formatDomainAge(age *float64) string {
	switch {
	case age == nil:
		return NotApplicable
	case *age < 0:
		return UnknownDomainAge
	case *age == 1:
		return "1 year"
	default:
		return formatNumber(*age) + " years"
	}
}

func formatNumber(f float64) string {
	return strconv.FormatFloat(f, 'f', -1, 64)
}
