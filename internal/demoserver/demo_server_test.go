package demoserver_test

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/raysh454/phishguard/internal/demoserver"
	"github.com/raysh454/phishguard/internal/model"
)

func newStub(t *testing.T, slow time.Duration) *httptest.Server {
	t.Helper()
	cfg := demoserver.DefaultConfig()
	cfg.SlowDelay = slow
	ts := httptest.NewServer(demoserver.NewDemoServer(cfg).Handler())
	t.Cleanup(ts.Close)
	return ts
}

func post(t *testing.T, ts *httptest.Server, body string) *http.Response {
	t.Helper()
	resp, err := http.Post(ts.URL+"/predict", "application/json", strings.NewReader(body))
	if err != nil {
		t.Fatalf("POST /predict: %v", err)
	}
	t.Cleanup(func() { resp.Body.Close() })
	return resp
}

func TestFixtureFor(t *testing.T) {
	t.Parallel()
	tests := map[string]demoserver.Fixture{
		"https://example.com":         demoserver.FixtureBenign,
		"http://PHISHY-bank.example":  demoserver.FixturePhishing,
		"https://defaced.example.org": demoserver.FixtureDefacement,
		"https://error.example":       demoserver.FixtureError,
		"https://slow.example":        demoserver.FixtureSlow,
		"https://error-phish.example": demoserver.FixtureError,
	}
	for url, want := range tests {
		if got := demoserver.FixtureFor(url); got != want {
			t.Errorf("%s: got %s, want %s", url, got, want)
		}
	}
}

func TestPredict_Fixtures(t *testing.T) {
	t.Parallel()
	ts := newStub(t, time.Millisecond)

	tests := []struct {
		url        string
		prediction string
	}{
		{"https://phish.example", "Phishing"},
		{"https://deface.example", "Defacement"},
		{"https://example.com", "Benign"},
		{"https://slow.example", "Benign"},
	}
	for _, tt := range tests {
		resp := post(t, ts, `{"url":"`+tt.url+`"}`)
		if resp.StatusCode != http.StatusOK {
			t.Fatalf("%s: status %d", tt.url, resp.StatusCode)
		}
		var res model.PredictionResult
		if err := json.NewDecoder(resp.Body).Decode(&res); err != nil {
			t.Fatalf("%s: decode: %v", tt.url, err)
		}
		if res.Prediction != tt.prediction {
			t.Errorf("%s: prediction = %q", tt.url, res.Prediction)
		}
		if err := res.Validate(); err != nil {
			t.Errorf("%s: invalid fixture: %v", tt.url, err)
		}
	}
}

func TestPredict_BenignScoresDisagree(t *testing.T) {
	t.Parallel()
	res := demoserver.Result(demoserver.FixtureBenign)
	if res.Scores.Benign >= res.Scores.Phishing {
		t.Errorf("benign fixture should carry disagreeing scores, got %+v", res.Scores)
	}
}

func TestPredict_ErrorsAndValidation(t *testing.T) {
	t.Parallel()
	ts := newStub(t, time.Millisecond)

	if resp := post(t, ts, `{"url":"https://error.example"}`); resp.StatusCode != http.StatusInternalServerError {
		t.Errorf("error fixture: status %d", resp.StatusCode)
	}
	if resp := post(t, ts, `{}`); resp.StatusCode != http.StatusUnprocessableEntity {
		t.Errorf("missing url: status %d", resp.StatusCode)
	}

	resp, err := http.Get(ts.URL + "/predict")
	if err != nil {
		t.Fatalf("GET: %v", err)
	}
	resp.Body.Close()
	if resp.StatusCode != http.StatusMethodNotAllowed {
		t.Errorf("GET /predict: status %d", resp.StatusCode)
	}
}

func TestHealthAndStats(t *testing.T) {
	t.Parallel()
	ts := newStub(t, time.Millisecond)

	resp, err := http.Get(ts.URL + "/healthcheck")
	if err != nil {
		t.Fatalf("GET /healthcheck: %v", err)
	}
	var hs model.HealthStatus
	_ = json.NewDecoder(resp.Body).Decode(&hs)
	resp.Body.Close()
	if hs.Status != "OK" {
		t.Errorf("health = %+v", hs)
	}

	post(t, ts, `{"url":"https://phish.example"}`)
	post(t, ts, `{"url":"https://phish2.example"}`)

	resp, err = http.Get(ts.URL + "/demo/stats")
	if err != nil {
		t.Fatalf("GET /demo/stats: %v", err)
	}
	var stats map[string]int
	_ = json.NewDecoder(resp.Body).Decode(&stats)
	resp.Body.Close()
	if stats["phishing"] != 2 {
		t.Errorf("stats = %v", stats)
	}
}
