package scan_test

import (
	"context"
	"errors"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/raysh454/phishguard/internal/predictor"
	"github.com/raysh454/phishguard/internal/presenter"
	"github.com/raysh454/phishguard/internal/scan"
	"github.com/raysh454/phishguard/internal/testutil"
)

type memRecorder struct {
	mu      sync.Mutex
	records []scan.FailureRecord
}

func (r *memRecorder) RecordFailure(_ context.Context, rec scan.FailureRecord) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.records = append(r.records, rec)
	return nil
}

func (r *memRecorder) all() []scan.FailureRecord {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]scan.FailureRecord(nil), r.records...)
}

func newController(p scan.Predictor, opts ...scan.Option) *scan.Controller {
	return scan.NewController(scan.DefaultConfig(), p, &testutil.DummyLogger{}, opts...)
}

// waitFor polls the controller until cond holds or the deadline passes.
func waitFor(t *testing.T, c *scan.Controller, cond func(scan.ViewState) bool) scan.ViewState {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		if st := c.State(); cond(st) {
			return st
		}
		time.Sleep(5 * time.Millisecond)
	}
	t.Fatalf("condition not reached, state = %+v", c.State())
	return scan.ViewState{}
}

// ─── Initial state ─────────────────────────────────────────────────────

func TestNewController_StartsIdle(t *testing.T) {
	t.Parallel()
	c := newController(&testutil.DummyPredictor{})
	st := c.State()
	if st.Phase != scan.PhaseIdle {
		t.Errorf("phase = %s, want idle", st.Phase)
	}
	if !st.SubmitEnabled {
		t.Error("submit should be enabled when idle")
	}
	if st.Result != nil || st.ErrorMessage != "" {
		t.Errorf("idle state carries data: %+v", st)
	}
	if c.ID() == "" {
		t.Error("expected generated id")
	}
}

// ─── Input validation ──────────────────────────────────────────────────

func TestSubmit_BlankInputFailsWithoutNetwork(t *testing.T) {
	t.Parallel()
	for _, in := range []string{"", " ", "\t\n", "    "} {
		p := &testutil.DummyPredictor{Result: testutil.PhishingResult()}
		rec := &memRecorder{}
		c := newController(p, scan.WithRecorder(rec))

		st := c.Submit(context.Background(), in)
		if st.Phase != scan.PhaseFailure {
			t.Errorf("%q: phase = %s, want failure", in, st.Phase)
		}
		if st.ErrorMessage != scan.MsgInvalidURL {
			t.Errorf("%q: message = %q", in, st.ErrorMessage)
		}
		if p.Calls() != 0 {
			t.Errorf("%q: expected no predictor calls, got %d", in, p.Calls())
		}
		if !st.SubmitEnabled {
			t.Errorf("%q: submit should be re-enabled after failure", in)
		}
		recs := rec.all()
		if len(recs) != 1 || recs[0].Kind != scan.FailureInput {
			t.Errorf("%q: expected one input failure record, got %+v", in, recs)
		}
	}
}

func TestSubmit_TrimsURLBeforeRequest(t *testing.T) {
	t.Parallel()
	p := &testutil.DummyPredictor{Result: testutil.PhishingResult()}
	c := newController(p)

	c.Submit(context.Background(), "  https://example.com \n")
	if p.Calls() != 1 {
		t.Fatalf("expected exactly 1 call, got %d", p.Calls())
	}
	if p.URLs[0] != "https://example.com" {
		t.Errorf("url = %q, want trimmed", p.URLs[0])
	}
}

// ─── Scenarios ─────────────────────────────────────────────────────────

func TestSubmit_PhishingScenario(t *testing.T) {
	t.Parallel()
	c := newController(&testutil.DummyPredictor{Result: testutil.PhishingResult()})

	st := c.Submit(context.Background(), "https://example.com")
	if st.Phase != scan.PhaseSuccess {
		t.Fatalf("phase = %s, want success", st.Phase)
	}
	if st.Result == nil {
		t.Fatal("success without result")
	}
	want := presenter.Distribution{Benign: 5, Phishing: 90, Defacement: 5}
	if st.Result.ChartDistribution != want {
		t.Errorf("distribution = %+v, want %+v", st.Result.ChartDistribution, want)
	}
	if st.Result.DNSRecords != "None" {
		t.Errorf("dns = %q, want None", st.Result.DNSRecords)
	}
	if st.Result.SSL != "Invalid" {
		t.Errorf("ssl = %q, want Invalid", st.Result.SSL)
	}
	if st.ErrorMessage != "" {
		t.Errorf("success carries error %q", st.ErrorMessage)
	}
	if st.URL != "https://example.com" {
		t.Errorf("url = %q", st.URL)
	}
}

func TestSubmit_BenignOverridesScores(t *testing.T) {
	t.Parallel()
	c := newController(&testutil.DummyPredictor{Result: testutil.BenignResult()})

	st := c.Submit(context.Background(), "https://example.com")
	if st.Phase != scan.PhaseSuccess {
		t.Fatalf("phase = %s, want success", st.Phase)
	}
	if st.Result.ChartDistribution != presenter.BenignDistribution {
		t.Errorf("distribution = %+v, want 100/0/0", st.Result.ChartDistribution)
	}
}

func TestSubmit_FailureReplacesPreviousResult(t *testing.T) {
	t.Parallel()
	p := &testutil.DummyPredictor{Result: testutil.PhishingResult()}
	c := newController(p)

	if st := c.Submit(context.Background(), "https://example.com"); st.Result == nil {
		t.Fatal("expected a result from the first scan")
	}

	p.Err = &predictor.RequestError{Kind: predictor.KindStatus, StatusCode: 500}
	st := c.Submit(context.Background(), "https://example.com")
	if st.Phase != scan.PhaseFailure {
		t.Fatalf("phase = %s, want failure", st.Phase)
	}
	if st.Result != nil {
		t.Error("failure must not keep the previous result")
	}
	if st.ErrorMessage != scan.MsgScanFailed {
		t.Errorf("message = %q", st.ErrorMessage)
	}
	if st.Generation != 2 {
		t.Errorf("generation = %d, want 2", st.Generation)
	}
}

// ─── Exclusion while loading ───────────────────────────────────────────

func TestStart_SecondSubmissionWhileLoadingIsIgnored(t *testing.T) {
	t.Parallel()
	gate := make(chan struct{})
	p := &testutil.DummyPredictor{
		Result:  testutil.PhishingResult(),
		Gate:    gate,
		Started: make(chan string, 4),
	}
	c := newController(p)

	st := c.Start(context.Background(), "https://first.example")
	if st.Phase != scan.PhaseLoading {
		t.Fatalf("phase = %s, want loading", st.Phase)
	}
	if st.SubmitEnabled {
		t.Error("submit must be disabled while loading")
	}
	<-p.Started

	again := c.Submit(context.Background(), "https://second.example")
	if again.Phase != scan.PhaseLoading || again.URL != "https://first.example" {
		t.Errorf("second submission changed state: %+v", again)
	}
	if again.Generation != st.Generation {
		t.Errorf("generation moved from %d to %d", st.Generation, again.Generation)
	}
	if p.Calls() != 1 {
		t.Errorf("expected 1 call while loading, got %d", p.Calls())
	}

	close(gate)
	done := waitFor(t, c, scan.ViewState.Terminal)
	if done.Phase != scan.PhaseSuccess || done.URL != "https://first.example" {
		t.Errorf("unexpected final state %+v", done)
	}

	// Once resolved, submissions are accepted again.
	p.Gate = nil
	next := c.Submit(context.Background(), "https://second.example")
	if next.Phase != scan.PhaseSuccess || p.Calls() != 2 {
		t.Errorf("expected a second scan after completion, state=%s calls=%d", next.Phase, p.Calls())
	}
	c.Close()
}

// ─── Subscribers ───────────────────────────────────────────────────────

func TestSubscribe_ObservesTransitions(t *testing.T) {
	t.Parallel()
	c := newController(&testutil.DummyPredictor{Result: testutil.PhishingResult()})
	ch, cancel := c.Subscribe()
	defer cancel()

	c.Submit(context.Background(), "https://example.com")

	var phases []scan.Phase
	for len(phases) < 4 {
		select {
		case st := <-ch:
			phases = append(phases, st.Phase)
		case <-time.After(time.Second):
			t.Fatalf("timed out, got %v", phases)
		}
	}
	want := []scan.Phase{scan.PhaseIdle, scan.PhaseValidating, scan.PhaseLoading, scan.PhaseSuccess}
	for i := range want {
		if phases[i] != want[i] {
			t.Fatalf("phases = %v, want %v", phases, want)
		}
	}
}

func TestSubscribe_SlowSubscriberStillGetsTerminalState(t *testing.T) {
	t.Parallel()
	cfg := scan.DefaultConfig()
	cfg.SubscriberBuffer = 1
	c := scan.NewController(cfg, &testutil.DummyPredictor{Result: testutil.PhishingResult()}, nil)
	ch, cancel := c.Subscribe()
	defer cancel()

	c.Submit(context.Background(), "https://example.com")

	st := <-ch
	if st.Phase != scan.PhaseSuccess {
		t.Errorf("latest queued state = %s, want success", st.Phase)
	}
}

func TestSubscribe_CancelAndCloseCloseChannel(t *testing.T) {
	t.Parallel()
	c := newController(&testutil.DummyPredictor{})
	ch1, cancel1 := c.Subscribe()
	ch2, _ := c.Subscribe()
	<-ch1
	<-ch2

	cancel1()
	cancel1()
	if _, ok := <-ch1; ok {
		t.Error("ch1 should be closed after cancel")
	}

	c.Close()
	if _, ok := <-ch2; ok {
		t.Error("ch2 should be closed after Close")
	}

	ch3, _ := c.Subscribe()
	if _, ok := <-ch3; ok {
		t.Error("subscribing to a closed controller should yield a closed channel")
	}
}

func TestClose_AbortsScanInFlight(t *testing.T) {
	t.Parallel()
	gate := make(chan struct{})
	defer close(gate)
	c := newController(&testutil.DummyPredictor{Result: testutil.PhishingResult(), Gate: gate})

	c.Start(context.Background(), "https://example.com")
	waitFor(t, c, func(st scan.ViewState) bool { return st.Phase == scan.PhaseLoading })
	if n := c.Subscribers(); n != 0 {
		t.Fatalf("subscribers = %d", n)
	}
	ch, _ := c.Subscribe()
	<-ch
	if n := c.Subscribers(); n != 1 {
		t.Errorf("subscribers = %d, want 1", n)
	}

	closed := make(chan struct{})
	go func() {
		c.Close()
		close(closed)
	}()
	select {
	case <-closed:
	case <-time.After(time.Second):
		t.Fatal("Close waited for the backend instead of aborting the scan")
	}
	if st := c.State(); st.Phase != scan.PhaseFailure {
		t.Errorf("phase after Close = %s", st.Phase)
	}
	if n := c.Subscribers(); n != 0 {
		t.Errorf("subscribers after Close = %d", n)
	}
}

// ─── Failures and journaling ───────────────────────────────────────────

func TestSubmit_TimeoutIsJournaled(t *testing.T) {
	t.Parallel()
	cfg := scan.DefaultConfig()
	cfg.Timeout = 20 * time.Millisecond
	rec := &memRecorder{}
	p := &testutil.DummyPredictor{Result: testutil.PhishingResult(), Gate: make(chan struct{})}
	c := scan.NewController(cfg, p, &testutil.DummyLogger{}, scan.WithRecorder(rec))

	st := c.Submit(context.Background(), "https://slow.example")
	if st.Phase != scan.PhaseFailure || st.ErrorMessage != scan.MsgScanFailed {
		t.Fatalf("unexpected state %+v", st)
	}
	recs := rec.all()
	if len(recs) != 1 || recs[0].Kind != scan.FailureTimeout {
		t.Fatalf("expected one timeout record, got %+v", recs)
	}
	if recs[0].URL != "https://slow.example" || recs[0].SessionID != c.ID() {
		t.Errorf("record fields wrong: %+v", recs[0])
	}
}

func TestSubmit_FailureKinds(t *testing.T) {
	t.Parallel()
	tests := []struct {
		name       string
		err        error
		wantKind   scan.FailureKind
		wantStatus int
	}{
		{"status", &predictor.RequestError{Kind: predictor.KindStatus, StatusCode: 503, Body: "down"}, scan.FailureStatus, 503},
		{"transport", &predictor.RequestError{Kind: predictor.KindTransport, Err: errors.New("refused")}, scan.FailureTransport, 0},
		{"decode", &predictor.RequestError{Kind: predictor.KindDecode, StatusCode: 200}, scan.FailureDecode, 200},
		{"plain error", errors.New("boom"), scan.FailureTransport, 0},
	}
	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			rec := &memRecorder{}
			logger := &testutil.DummyLogger{}
			c := scan.NewController(scan.DefaultConfig(), &testutil.DummyPredictor{Err: tt.err}, logger, scan.WithRecorder(rec))

			st := c.Submit(context.Background(), "https://example.com")
			if st.ErrorMessage != scan.MsgScanFailed {
				t.Errorf("user message leaked detail: %q", st.ErrorMessage)
			}
			recs := rec.all()
			if len(recs) != 1 {
				t.Fatalf("expected 1 record, got %d", len(recs))
			}
			if recs[0].Kind != tt.wantKind || recs[0].StatusCode != tt.wantStatus {
				t.Errorf("record = %+v, want kind %s status %d", recs[0], tt.wantKind, tt.wantStatus)
			}
			if len(logger.WarnMessages()) == 0 {
				t.Error("expected failure to be logged as a warning")
			}
		})
	}
}

func TestSubmit_StatusDetailIncludesBody(t *testing.T) {
	t.Parallel()
	rec := &memRecorder{}
	p := &testutil.DummyPredictor{Err: &predictor.RequestError{Kind: predictor.KindStatus, StatusCode: 500, Body: "Error processing URL"}}
	c := newController(p, scan.WithRecorder(rec))

	c.Submit(context.Background(), "https://example.com")
	recs := rec.all()
	if len(recs) != 1 || !strings.Contains(recs[0].Detail, "Error processing URL") {
		t.Errorf("detail = %+v", recs)
	}
}

// ─── Target ────────────────────────────────────────────────────────────

func TestSubmit_CarriesTarget(t *testing.T) {
	t.Parallel()
	c := newController(&testutil.DummyPredictor{Result: testutil.PhishingResult()})
	st := c.Submit(context.Background(), "https://login.example.co.uk/path")
	if st.Target == nil {
		t.Fatal("expected target")
	}
	if st.Target.Host != "login.example.co.uk" || st.Target.RegistrableDomain != "example.co.uk" {
		t.Errorf("target = %+v", st.Target)
	}
	if st.Target.IDN {
		t.Error("ascii host flagged as IDN")
	}
}

func TestTryStart_ReportsBusy(t *testing.T) {
	t.Parallel()
	gate := make(chan struct{})
	p := &testutil.DummyPredictor{Result: testutil.PhishingResult(), Gate: gate}
	c := newController(p)

	if _, err := c.TryStart(context.Background(), "https://example.com"); err != nil {
		t.Fatalf("first TryStart: %v", err)
	}
	st, err := c.TryStart(context.Background(), "https://other.example")
	if !errors.Is(err, scan.ErrBusy) {
		t.Errorf("expected ErrBusy, got %v", err)
	}
	if st.URL != "https://example.com" {
		t.Errorf("busy state url = %q", st.URL)
	}

	close(gate)
	waitFor(t, c, scan.ViewState.Terminal)

	st, err = c.TryStart(context.Background(), "")
	if err != nil || st.ErrorMessage != scan.MsgInvalidURL {
		t.Errorf("blank input: state=%+v err=%v", st, err)
	}
	c.Close()
}
