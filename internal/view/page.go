// Package view renders a scan.ViewState, either as the scanner web page or
// as terminal output.
package view

import (
	"embed"
	"fmt"
	"html/template"
	"io"
	"math"
	"regexp"
	"strconv"
	"strings"

	"github.com/raysh454/phishguard/internal/presenter"
	"github.com/raysh454/phishguard/internal/scan"
)

//go:embed page.html
var pageFS embed.FS

// DefaultRefreshSeconds is how often a loading page reloads itself.
const DefaultRefreshSeconds = 1

var base64Image = regexp.MustCompile(`^[A-Za-z0-9+/=\r\n]+$`)

var pageTemplate = template.Must(template.New("page.html").Funcs(template.FuncMap{
	"barStyle":      barStyle,
	"formatScore":   formatScore,
	"screenshotSrc": screenshotSrc,
}).ParseFS(pageFS, "page.html"))

// PageData is the template input. Loading pages refresh themselves so a
// scan started by a form post shows up without client-side scripting.
type PageData struct {
	State          scan.ViewState
	Action         string
	Loading        bool
	Refresh        bool
	RefreshSeconds int
	ChartMax       int
	Bars           []presenter.Bar
}

// NewPageData prepares st for rendering with the form posting to action.
func NewPageData(st scan.ViewState, action string) PageData {
	if action == "" {
		action = "/scan"
	}
	d := PageData{
		State:          st,
		Action:         action,
		Loading:        st.Busy(),
		Refresh:        st.Busy(),
		RefreshSeconds: DefaultRefreshSeconds,
		ChartMax:       presenter.ChartMax,
	}
	if st.Result != nil {
		d.Bars = st.Result.ChartDistribution.Bars()
	}
	return d
}

// RenderPage writes the scanner page for st.
func RenderPage(w io.Writer, st scan.ViewState) error {
	return RenderPageData(w, NewPageData(st, ""))
}

func RenderPageData(w io.Writer, d PageData) error {
	if err := pageTemplate.Execute(w, d); err != nil {
		return fmt.Errorf("render page: %w", err)
	}
	return nil
}

func clampPercent(v float64) float64 {
	if math.IsNaN(v) || v < 0 {
		return 0
	}
	if v > presenter.ChartMax {
		return presenter.ChartMax
	}
	return v
}

func formatScore(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}

func barStyle(b presenter.Bar) template.CSS {
	return template.CSS(fmt.Sprintf("height: %s%%; background: %s",
		formatScore(clampPercent(b.Value)*100/presenter.ChartMax), b.Color))
}

// screenshotSrc accepts either a data/http(s) URL or a bare base64 PNG.
// Anything else is dropped rather than emitted into the page.
func screenshotSrc(s string) template.URL {
	s = strings.TrimSpace(s)
	switch {
	case strings.HasPrefix(s, "data:image/"), strings.HasPrefix(s, "https://"), strings.HasPrefix(s, "http://"):
		if strings.ContainsAny(s, "\"'<> ") {
			return ""
		}
		return template.URL(s)
	case base64Image.MatchString(s):
		return template.URL("data:image/png;base64," + s)
	}
	return ""
}
