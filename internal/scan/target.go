package scan

import (
	"net"
	"net/url"
	"strings"

	"golang.org/x/net/idna"
	"golang.org/x/net/publicsuffix"
)

// Target describes the host a scan is about. It is informational only: it
// never alters the request sent to the backend.
type Target struct {
	Host string `json:"host"`

	// ASCIIHost is the IDNA (punycode) form of Host.
	ASCIIHost string `json:"ascii_host,omitempty"`

	// RegistrableDomain is the eTLD+1 of the host, e.g. "example.co.uk".
	RegistrableDomain string `json:"registrable_domain,omitempty"`

	// IDN is set when the host contains internationalized labels, which is
	// how homograph lookalikes (аpple.com vs apple.com) are spelled.
	IDN bool `json:"idn"`
}

// ParseTarget derives a Target from a trimmed URL. Schemeless input is read
// as http, like the backend does. It returns nil when no host can be found.
func ParseTarget(raw string) *Target {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return nil
	}
	if !strings.Contains(raw, "://") {
		raw = "http://" + raw
	}
	u, err := url.Parse(raw)
	if err != nil {
		return nil
	}
	host := strings.TrimSuffix(strings.ToLower(u.Hostname()), ".")
	if host == "" {
		return nil
	}

	t := &Target{Host: host}
	if net.ParseIP(host) != nil {
		t.ASCIIHost = host
		return t
	}

	ascii, err := idna.Lookup.ToASCII(host)
	if err != nil {
		return t
	}
	t.ASCIIHost = ascii
	t.IDN = ascii != host || hasPunycodeLabel(ascii)

	if d, err := publicsuffix.EffectiveTLDPlusOne(ascii); err == nil {
		t.RegistrableDomain = d
	}
	return t
}

func hasPunycodeLabel(host string) bool {
	for _, label := range strings.Split(host, ".") {
		if strings.HasPrefix(label, "xn--") {
			return true
		}
	}
	return false
}
