package ledger

import (
	"context"
	"path/filepath"
	"sync"
	"testing"

	"github.com/wardenlabs/warden/internal/audit"
	"github.com/wardenlabs/warden/internal/model"
	"github.com/wardenlabs/warden/internal/trust"
)

func TestAbuseReport(t *testing.T) {
	store := trust.NewMemStore()
	l := New(store, nil, nil)
	ctx := context.Background()

	if err := l.Report(ctx, "u1", model.ReportAbuse, "told the tutor to shut up"); err != nil {
		t.Fatal(err)
	}

	p, err := store.Get(ctx, "u1")
	if err != nil {
		t.Fatal(err)
	}
	if p.Karma != 980 {
		t.Errorf("karma = %d, want 980", p.Karma)
	}
	if p.HarassmentScore != 10 {
		t.Errorf("harassment = %d, want 10", p.HarassmentScore)
	}
}

func TestCheatReport(t *testing.T) {
	store := trust.NewMemStore()
	l := New(store, nil, nil)
	ctx := context.Background()

	if err := l.Report(ctx, "u1", model.ReportCheating, "Inhuman Stability (StdDev: 0.00ms)"); err != nil {
		t.Fatal(err)
	}

	p, err := store.Get(ctx, "u1")
	if err != nil {
		t.Fatal(err)
	}
	if p.Karma != 900 {
		t.Errorf("karma = %d, want 900", p.Karma)
	}
	if p.HarassmentScore != 0 {
		t.Errorf("harassment = %d, want 0 for cheating", p.HarassmentScore)
	}
}

func TestUnknownKindRejected(t *testing.T) {
	l := New(trust.NewMemStore(), nil, nil)
	if err := l.Report(context.Background(), "u1", model.ReportKind("vandalism"), ""); err == nil {
		t.Error("expected error for unknown kind")
	}
}

func TestConcurrentReportsLoseNothing(t *testing.T) {
	store := trust.NewMemStore()
	l := New(store, nil, nil)
	ctx := context.Background()

	var wg sync.WaitGroup
	for i := 0; i < 2; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_ = l.Report(ctx, "u1", model.ReportCheating, "bot")
		}()
	}
	wg.Wait()

	p, err := store.Get(ctx, "u1")
	if err != nil {
		t.Fatal(err)
	}
	if p.Karma != 800 {
		t.Errorf("karma = %d, want 800 after two cheat reports", p.Karma)
	}
}

func TestReportsLandInAuditLog(t *testing.T) {
	path := filepath.Join(t.TempDir(), "audit.jsonl")
	al, err := audit.Open(path)
	if err != nil {
		t.Fatal(err)
	}
	defer al.Close()

	l := New(trust.NewMemStore(), al, nil)
	if err := l.Report(context.Background(), "u1", model.ReportAbuse, "slurs"); err != nil {
		t.Fatal(err)
	}

	result, err := audit.Replay(path, audit.ReplayFilter{User: "u1"})
	if err != nil {
		t.Fatal(err)
	}
	if len(result.Entries) != 1 {
		t.Fatalf("entries = %d, want 1", len(result.Entries))
	}
	e := result.Entries[0]
	if e.Event != audit.EventReport || e.Reason != "abuse" || e.Detail != "slurs" {
		t.Errorf("entry = %+v", e)
	}

	if v := audit.Verify(path); !v.Valid {
		t.Errorf("audit chain broken: %s", v.Error)
	}
}
