// Package demoserver is a stand-in for the prediction backend. It answers
// POST /predict from fixed fixtures keyed on words in the URL so the scanner
// can be demonstrated and tested without the real model. It is not a detector.
package demoserver

import (
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/raysh454/phishguard/internal/model"
)

// Fixture selects a canned response.
type Fixture string

const (
	FixtureBenign     Fixture = "benign"
	FixturePhishing   Fixture = "phishing"
	FixtureDefacement Fixture = "defacement"
	FixtureError      Fixture = "error"
	FixtureSlow       Fixture = "slow"
)

// FixtureFor picks the fixture for url. The first matching keyword wins:
// "error", "slow", "phish", "deface"; anything else is benign.
func FixtureFor(url string) Fixture {
	u := strings.ToLower(url)
	switch {
	case strings.Contains(u, "error"):
		return FixtureError
	case strings.Contains(u, "slow"):
		return FixtureSlow
	case strings.Contains(u, "phish"):
		return FixturePhishing
	case strings.Contains(u, "deface"):
		return FixtureDefacement
	}
	return FixtureBenign
}

// DemoServer serves the fixtures and counts what it answered.
type DemoServer struct {
	cfg   Config
	stats map[Fixture]int
	mu    sync.RWMutex
}

// NewDemoServer creates a new demo server instance.
func NewDemoServer(cfg Config) *DemoServer {
	return &DemoServer{
		cfg:   cfg,
		stats: make(map[Fixture]int),
	}
}

// Handler returns the routes of the demo backend.
func (s *DemoServer) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("/predict", s.predictHandler)
	mux.HandleFunc("/healthcheck", s.healthHandler)

	// Control endpoints
	mux.HandleFunc("/demo/stats", s.statsHandler)
	mux.HandleFunc("/demo/reset", s.resetHandler)
	return withCORS(mux)
}

// Start starts the demo server.
func (s *DemoServer) Start() error {
	addr := fmt.Sprintf(":%d", s.cfg.Port)
	fmt.Printf("Demo prediction backend on http://localhost%s/predict\n", addr)
	fmt.Printf("Stats at http://localhost%s/demo/stats\n", addr)
	return http.ListenAndServe(addr, s.Handler())
}

func withCORS(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Access-Control-Allow-Origin", "*")
		w.Header().Set("Access-Control-Allow-Headers", "*")
		w.Header().Set("Access-Control-Allow-Methods", "*")
		if r.Method == http.MethodOptions {
			w.WriteHeader(http.StatusNoContent)
			return
		}
		next.ServeHTTP(w, r)
	})
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func (s *DemoServer) predictHandler(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		w.Header().Set("Allow", http.MethodPost)
		writeJSON(w, http.StatusMethodNotAllowed, map[string]string{"detail": "Method Not Allowed"})
		return
	}

	var req model.ScanRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || strings.TrimSpace(req.URL) == "" {
		writeJSON(w, http.StatusUnprocessableEntity, map[string]string{"detail": "field required: url"})
		return
	}

	fx := FixtureFor(req.URL)
	s.mu.Lock()
	s.stats[fx]++
	s.mu.Unlock()

	switch fx {
	case FixtureError:
		writeJSON(w, http.StatusInternalServerError, map[string]string{"detail": "Error processing URL: feature extraction failed"})
		return
	case FixtureSlow:
		select {
		case <-time.After(s.cfg.SlowDelay):
		case <-r.Context().Done():
			return
		}
	}
	writeJSON(w, http.StatusOK, Result(fx))
}

func (s *DemoServer) healthHandler(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, model.HealthStatus{Status: "OK", Message: "API is running!"})
}

func (s *DemoServer) statsHandler(w http.ResponseWriter, r *http.Request) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make(map[string]int, len(s.stats))
	for k, v := range s.stats {
		out[string(k)] = v
	}
	writeJSON(w, http.StatusOK, out)
}

func (s *DemoServer) resetHandler(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}
	s.mu.Lock()
	s.stats = make(map[Fixture]int)
	s.mu.Unlock()
	writeJSON(w, http.StatusOK, map[string]any{"success": true})
}

func float(v float64) *float64 { return &v }
func str(v string) *string      { return &v }

// Result is the canned prediction for fx. The slow fixture answers benign.
func Result(fx Fixture) model.PredictionResult {
	switch fx {
	case FixturePhishing:
		return model.PredictionResult{
			Prediction:      "Phishing",
			DomainAge:       float(0),
			SSLValid:        false,
			ConfidenceScore: float(90),
			SafeBrowsing:    "Unsafe",
			DNSRecords:      []string{},
			AIExplanation:   "The URL imitates a login page on a newly registered domain without a valid certificate.",
			Scores:          model.Scores{Benign: 5, Phishing: 90, Defacement: 5},
		}
	case FixtureDefacement:
		return model.PredictionResult{
			Prediction:      "Defacement",
			DomainAge:       float(-1),
			SSLValid:        true,
			ConfidenceScore: float(72),
			SafeBrowsing:    "Unknown",
			DNSRecords:      []string{"ns1.example.net"},
			AIExplanation:   "Page content differs sharply from the site's usual structure.",
			Scores:          model.Scores{Benign: 18, Phishing: 10, Defacement: 72},
		}
	}
	// The raw scores deliberately disagree with the verdict.
	return model.PredictionResult{
		Prediction:      "Benign",
		DomainAge:       float(12),
		SSLValid:        true,
		ConfidenceScore: float(100),
		SafeBrowsing:    "Safe",
		DNSRecords:      []string{"a.example.com", "b.example.com"},
		HistoricalRank:  str("1523"),
		AIExplanation:   "Long-lived domain with a valid certificate.",
		Scores:          model.Scores{Benign: 10, Phishing: 80, Defacement: 10},
	}
}
