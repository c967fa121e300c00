package view

import (
	"fmt"
	"io"
	"strings"

	"github.com/fatih/color"

	"github.com/raysh454/phishguard/internal/presenter"
	"github.com/raysh454/phishguard/internal/scan"
)

const barWidth = 40

// TerminalColors holds the palette used by Terminal.
type TerminalColors struct {
	Title   *color.Color
	Label   *color.Color
	Good    *color.Color
	Bad     *color.Color
	Warn    *color.Color
	Muted   *color.Color
	Benign  *color.Color
	Phish   *color.Color
	Deface  *color.Color
	Spinner *color.Color
}

// Terminal renders view states as plain or colored text.
type Terminal struct {
	out    io.Writer
	colors *TerminalColors
}

// NewTerminal returns a renderer writing to out. With noColor set no escape
// sequences are emitted regardless of the terminal.
func NewTerminal(out io.Writer, noColor bool) *Terminal {
	c := &TerminalColors{
		Title:   color.New(color.FgCyan, color.Bold),
		Label:   color.New(color.Bold),
		Good:    color.New(color.FgGreen),
		Bad:     color.New(color.FgRed),
		Warn:    color.New(color.FgYellow),
		Muted:   color.New(color.FgWhite),
		Benign:  color.New(color.FgGreen),
		Phish:   color.New(color.FgHiRed),
		Deface:  color.New(color.FgHiYellow),
		Spinner: color.New(color.FgBlue),
	}
	for _, col := range []*color.Color{c.Title, c.Label, c.Good, c.Bad, c.Warn, c.Muted, c.Benign, c.Phish, c.Deface, c.Spinner} {
		if noColor {
			col.DisableColor()
		} else {
			col.EnableColor()
		}
	}
	return &Terminal{out: out, colors: c}
}

// Render writes st. Only the terminal phases carry a body.
func (t *Terminal) Render(st scan.ViewState) error {
	var b strings.Builder

	switch st.Phase {
	case scan.PhaseIdle:
		t.colors.Muted.Fprintln(&b, "Enter a URL to scan.")
	case scan.PhaseValidating, scan.PhaseLoading:
		t.colors.Spinner.Fprintf(&b, "Scanning %s...\n", strings.TrimSpace(st.URL))
	case scan.PhaseFailure:
		t.colors.Bad.Fprintln(&b, st.ErrorMessage)
	case scan.PhaseSuccess:
		t.renderResult(&b, st)
	}

	_, err := io.WriteString(t.out, b.String())
	return err
}

func (t *Terminal) renderResult(b *strings.Builder, st scan.ViewState) {
	r := st.Result
	if r == nil {
		return
	}
	t.colors.Title.Fprintf(b, "Scan Results for %s\n", strings.TrimSpace(st.URL))
	if st.Target != nil && st.Target.IDN {
		t.colors.Warn.Fprintf(b, "Internationalized host: %s is registered as %s\n", st.Target.Host, st.Target.ASCIIHost)
	}

	verdict := t.colors.Bad
	if r.Prediction == "Benign" {
		verdict = t.colors.Good
	}
	t.field(b, "Prediction", verdict.Sprint(r.Prediction))
	t.field(b, "WHOIS Domain Age", r.DomainAge)

	ssl := t.colors.Bad
	if r.SSLValid {
		ssl = t.colors.Good
	}
	t.field(b, "SSL Certificate", ssl.Sprint(r.SSL))
	t.field(b, "Confidence Score", r.ConfidenceScore)
	t.field(b, "Safe Browsing", r.SafeBrowsing)
	t.field(b, "DNS Records", r.DNSRecords)
	t.field(b, "Historical Rank", r.HistoricalRank)
	if r.AIExplanation != "" {
		t.field(b, "Explanation", r.AIExplanation)
	}
	if r.HasScreenshot() {
		t.field(b, "Screenshot", "available (open the web view to display it)")
	}

	b.WriteString("\n")
	t.colors.Title.Fprintln(b, "Confidence Scores")
	for _, bar := range r.ChartDistribution.Bars() {
		t.bar(b, bar)
	}
}

func (t *Terminal) field(b *strings.Builder, label, value string) {
	t.colors.Label.Fprintf(b, "  %-18s", label+":")
	fmt.Fprintf(b, " %s\n", value)
}

func (t *Terminal) bar(b *strings.Builder, bar presenter.Bar) {
	col := t.colors.Benign
	switch bar.Label {
	case "Phishing":
		col = t.colors.Phish
	case "Defacement":
		col = t.colors.Deface
	}
	filled := int(clampPercent(bar.Value) * barWidth / presenter.ChartMax)
	fmt.Fprintf(b, "  %-11s ", bar.Label)
	col.Fprint(b, strings.Repeat("█", filled))
	fmt.Fprintf(b, "%s %s%%\n", strings.Repeat("·", barWidth-filled), formatScore(bar.Value))
}
