// Package testutil provides shared test doubles for use across package tests.
// All dummies implement the corresponding interfaces from the production code,
// allowing injection into components under test without real I/O or side effects.
package testutil

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"time"

	"github.com/raysh454/phishguard/internal/logging"
	"github.com/raysh454/phishguard/internal/model"
	"github.com/raysh454/phishguard/internal/predictor"
	"github.com/raysh454/phishguard/internal/webclient"
)

// ─── Logger ────────────────────────────────────────────────────────────

// DummyLogger implements logging.Logger with in-memory recording.
type DummyLogger struct {
	mu     sync.Mutex
	Errors []string
	Infos  []string
	Debugs []string
	Warns  []string
}

func (l *DummyLogger) Debug(msg string, fields ...logging.Field) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.Debugs = append(l.Debugs, msg)
}

func (l *DummyLogger) Info(msg string, fields ...logging.Field) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.Infos = append(l.Infos, msg)
}

func (l *DummyLogger) Warn(msg string, fields ...logging.Field) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.Warns = append(l.Warns, msg)
}

func (l *DummyLogger) Error(msg string, fields ...logging.Field) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.Errors = append(l.Errors, msg)
}

func (l *DummyLogger) With(_ ...logging.Field) logging.Logger { return l }

// WarnMessages returns a copy of the recorded warnings.
func (l *DummyLogger) WarnMessages() []string {
	l.mu.Lock()
	defer l.mu.Unlock()
	return append([]string(nil), l.Warns...)
}

// ─── WebClient ─────────────────────────────────────────────────────────

// DummyWebClient implements webclient.WebClient.
// It answers every request with Status (default 200) and Body.
// Set Err to force a transport error.
type DummyWebClient struct {
	Status int
	Body   []byte
	Err    error

	mu       sync.Mutex
	Requests []*webclient.Request
}

func (d *DummyWebClient) Do(ctx context.Context, req *webclient.Request) (*webclient.Response, error) {
	d.mu.Lock()
	d.Requests = append(d.Requests, req)
	d.mu.Unlock()

	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if d.Err != nil {
		return nil, d.Err
	}
	status := d.Status
	if status == 0 {
		status = 200
	}
	return &webclient.Response{
		Request:    req,
		Body:       d.Body,
		StatusCode: status,
		FetchedAt:  time.Now(),
	}, nil
}

func (d *DummyWebClient) Get(ctx context.Context, url string) (*webclient.Response, error) {
	return d.Do(ctx, &webclient.Request{Method: "GET", URL: url})
}

func (d *DummyWebClient) Close() error { return nil }

// RequestCount returns how many requests were issued.
func (d *DummyWebClient) RequestCount() int {
	d.mu.Lock()
	defer d.mu.Unlock()
	return len(d.Requests)
}

// ─── Predictor ─────────────────────────────────────────────────────────

// DummyPredictor implements predictor.Predictor.
// Result (or Err) is returned for every call. When Gate is non-nil each call
// blocks until a value is received from it or ctx is done.
type DummyPredictor struct {
	Result *model.PredictionResult
	Err    error
	Gate   chan struct{}

	// Started receives the url of every call as soon as it begins, if non-nil.
	Started chan string

	calls atomic.Int32
	mu    sync.Mutex
	URLs  []string
}

func (d *DummyPredictor) Predict(ctx context.Context, url string) (*model.PredictionResult, error) {
	d.calls.Add(1)
	d.mu.Lock()
	d.URLs = append(d.URLs, url)
	d.mu.Unlock()

	if d.Started != nil {
		d.Started <- url
	}
	if d.Gate != nil {
		select {
		case <-d.Gate:
		case <-ctx.Done():
			return nil, &predictor.RequestError{Kind: predictor.KindTimeout, Err: ctx.Err()}
		}
	}
	if d.Err != nil {
		return nil, d.Err
	}
	if d.Result == nil {
		return nil, &predictor.RequestError{Kind: predictor.KindDecode, Err: errors.New("no result configured")}
	}
	cp := *d.Result
	return &cp, nil
}

func (d *DummyPredictor) Health(context.Context) (*model.HealthStatus, error) {
	if d.Err != nil {
		return nil, d.Err
	}
	return &model.HealthStatus{Status: "OK", Message: "dummy"}, nil
}

func (d *DummyPredictor) Close() error { return nil }

// Calls returns how many Predict calls were made.
func (d *DummyPredictor) Calls() int { return int(d.calls.Load()) }

// ─── Fixtures ──────────────────────────────────────────────────────────

func float(v float64) *float64 { return &v }

// PhishingResult is the canonical non-benign payload.
func PhishingResult() *model.PredictionResult {
	return &model.PredictionResult{
		Prediction:      "Phishing",
		DomainAge:       float(0),
		SSLValid:        false,
		ConfidenceScore: float(90),
		SafeBrowsing:    "Unsafe",
		DNSRecords:      []string{},
		AIExplanation:   "The page imitates a bank login and posts credentials to a new domain.",
		Scores:          model.Scores{Benign: 5, Phishing: 90, Defacement: 5},
	}
}

// BenignResult is a Benign verdict whose raw scores disagree with it.
func BenignResult() *model.PredictionResult {
	return &model.PredictionResult{
		Prediction:      "Benign",
		DomainAge:       float(12),
		SSLValid:        true,
		ConfidenceScore: float(100),
		SafeBrowsing:    "Safe",
		DNSRecords:      []string{"a.com", "b.com"},
		AIExplanation:   "Long-lived domain with a valid certificate.",
		Scores:          model.Scores{Benign: 10, Phishing: 80, Defacement: 10},
	}
}
