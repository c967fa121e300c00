package scan_test

import (
	"strings"
	"testing"

	"github.com/raysh454/phishguard/internal/scan"
)

func TestParseTarget(t *testing.T) {
	t.Parallel()
	tests := []struct {
		in         string
		wantHost   string
		wantDomain string
		wantIDN    bool
	}{
		{"https://example.com", "example.com", "example.com", false},
		{"example.com/login", "example.com", "example.com", false},
		{"HTTP://WWW.Example.COM.", "www.example.com", "example.com", false},
		{"https://xn--pple-43d.com", "xn--pple-43d.com", "xn--pple-43d.com", true},
		{"http://192.168.0.1:8080/", "192.168.0.1", "", false},
	}
	for _, tt := range tests {
		got := scan.ParseTarget(tt.in)
		if got == nil {
			t.Errorf("%q: nil target", tt.in)
			continue
		}
		if got.Host != tt.wantHost || got.RegistrableDomain != tt.wantDomain || got.IDN != tt.wantIDN {
			t.Errorf("%q: got %+v", tt.in, got)
		}
	}
}

func TestParseTarget_Homograph(t *testing.T) {
	t.Parallel()
	// Cyrillic "а" in place of the Latin "a".
	got := scan.ParseTarget("https://аpple.com")
	if got == nil {
		t.Fatal("nil target")
	}
	if !got.IDN {
		t.Error("expected IDN to be set")
	}
	if !strings.HasPrefix(got.ASCIIHost, "xn--") {
		t.Errorf("ascii host = %q, want punycode", got.ASCIIHost)
	}
	if got.Host == "apple.com" {
		t.Error("homograph collapsed into the latin host")
	}
}

func TestParseTarget_NoHost(t *testing.T) {
	t.Parallel()
	for _, in := range []string{"", "   ", "http://", "://"} {
		if got := scan.ParseTarget(in); got != nil {
			t.Errorf("%q: expected nil, got %+v", in, got)
		}
	}
}
