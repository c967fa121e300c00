package diagnostics_test

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/raysh454/phishguard/internal/diagnostics"
	"github.com/raysh454/phishguard/internal/predictor"
	"github.com/raysh454/phishguard/internal/scan"
	"github.com/raysh454/phishguard/internal/testutil"
)

func openStore(t *testing.T) *diagnostics.Store {
	t.Helper()
	path := filepath.Join(t.TempDir(), "nested", "diagnostics.db")
	s, err := diagnostics.Open(path, &testutil.DummyLogger{})
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	t.Cleanup(func() { _ = s.Close() })
	return s
}

func TestStore_RecordAndList(t *testing.T) {
	t.Parallel()
	s := openStore(t)
	ctx := context.Background()
	base := time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)

	recs := []scan.FailureRecord{
		{SessionID: "s1", Generation: 1, URL: "", Kind: scan.FailureInput, Detail: "empty url", At: base},
		{SessionID: "s1", Generation: 2, URL: "https://a.example", Kind: scan.FailureStatus, StatusCode: 500, Detail: "boom", At: base.Add(time.Minute)},
		{SessionID: "s2", Generation: 1, URL: "https://b.example", Kind: scan.FailureTimeout, At: base.Add(2 * time.Minute)},
	}
	for _, r := range recs {
		if err := s.RecordFailure(ctx, r); err != nil {
			t.Fatalf("RecordFailure: %v", err)
		}
	}

	all, err := s.List(ctx, diagnostics.Filter{})
	if err != nil {
		t.Fatalf("List: %v", err)
	}
	if len(all) != 3 {
		t.Fatalf("expected 3 entries, got %d", len(all))
	}
	if all[0].Kind != scan.FailureTimeout || all[2].Kind != scan.FailureInput {
		t.Errorf("entries not newest first: %v, %v", all[0].Kind, all[2].Kind)
	}
	if all[1].StatusCode != 500 || all[1].Detail != "boom" || all[1].Generation != 2 {
		t.Errorf("status entry mismatch: %+v", all[1])
	}
	if !all[0].At.Equal(base.Add(2 * time.Minute)) {
		t.Errorf("timestamp = %v", all[0].At)
	}
	if all[0].ID == "" {
		t.Error("expected generated id")
	}

	status, err := s.List(ctx, diagnostics.Filter{Kind: scan.FailureStatus})
	if err != nil {
		t.Fatalf("List kind: %v", err)
	}
	if len(status) != 1 || status[0].URL != "https://a.example" {
		t.Errorf("kind filter = %+v", status)
	}

	limited, _ := s.List(ctx, diagnostics.Filter{Limit: 2})
	if len(limited) != 2 {
		t.Errorf("limit: got %d entries", len(limited))
	}

	since, _ := s.List(ctx, diagnostics.Filter{Since: base.Add(30 * time.Second)})
	if len(since) != 2 {
		t.Errorf("since: got %d entries", len(since))
	}

	counts, err := s.CountByKind(ctx)
	if err != nil {
		t.Fatalf("CountByKind: %v", err)
	}
	if counts[scan.FailureInput] != 1 || counts[scan.FailureStatus] != 1 || counts[scan.FailureTimeout] != 1 {
		t.Errorf("counts = %v", counts)
	}
}

func TestStore_Prune(t *testing.T) {
	t.Parallel()
	s := openStore(t)
	ctx := context.Background()
	now := time.Now().UTC()

	_ = s.RecordFailure(ctx, scan.FailureRecord{SessionID: "old", Kind: scan.FailureTransport, At: now.Add(-48 * time.Hour)})
	_ = s.RecordFailure(ctx, scan.FailureRecord{SessionID: "new", Kind: scan.FailureTransport, At: now})

	n, err := s.Prune(ctx, now.Add(-24*time.Hour))
	if err != nil {
		t.Fatalf("Prune: %v", err)
	}
	if n != 1 {
		t.Errorf("pruned %d, want 1", n)
	}
	left, _ := s.List(ctx, diagnostics.Filter{})
	if len(left) != 1 || left[0].SessionID != "new" {
		t.Errorf("remaining = %+v", left)
	}
}

func TestStore_AsControllerRecorder(t *testing.T) {
	t.Parallel()
	s := openStore(t)
	p := &testutil.DummyPredictor{Err: &predictor.RequestError{Kind: predictor.KindStatus, StatusCode: 502}}
	c := scan.NewController(scan.DefaultConfig(), p, nil, scan.WithRecorder(s))

	c.Submit(context.Background(), "https://example.com")
	c.Submit(context.Background(), "   ")

	entries, err := s.List(context.Background(), diagnostics.Filter{})
	if err != nil {
		t.Fatalf("List: %v", err)
	}
	if len(entries) != 2 {
		t.Fatalf("expected 2 entries, got %d", len(entries))
	}
	kinds := map[scan.FailureKind]bool{}
	for _, e := range entries {
		kinds[e.Kind] = true
		if e.SessionID != c.ID() {
			t.Errorf("session id = %q", e.SessionID)
		}
	}
	if !kinds[scan.FailureStatus] || !kinds[scan.FailureInput] {
		t.Errorf("kinds = %v", kinds)
	}
}

func TestOpen_RejectsEmptyPath(t *testing.T) {
	t.Parallel()
	if _, err := diagnostics.Open("", nil); err == nil {
		t.Error("expected error")
	}
}
