package kaalabrahma

import (
	"testing"

	"github.com/sriinnu/chitragupta/internal/clock"
)

func TestRegisterStartsAlive(t *testing.T) {
	r := NewRegistry(clock.NewMock(0), DefaultConfig())
	rec := r.Register("a1", 0, "", "root")
	if rec.Status != StatusAlive {
		t.Fatalf("expected alive, got %s", rec.Status)
	}
}

func TestSweepTransitionsToStaleThenDead(t *testing.T) {
	mock := clock.NewMock(0)
	cfg := Config{StaleMs: 100, DeadMs: 300}
	r := NewRegistry(mock, cfg)
	r.Register("a1", 0, "", "root")

	var events []Status
	r.OnStatusChange(func(record HealthRecord, previous Status) {
		events = append(events, record.Status)
	})

	mock.Advance(150)
	r.Sweep()
	rec, _ := r.Get("a1")
	if rec.Status != StatusStale {
		t.Fatalf("expected stale after 150ms, got %s", rec.Status)
	}

	mock.Advance(200)
	r.Sweep()
	rec, _ = r.Get("a1")
	if rec.Status != StatusDead {
		t.Fatalf("expected dead after 350ms total, got %s", rec.Status)
	}

	if len(events) != 2 || events[0] != StatusStale || events[1] != StatusDead {
		t.Fatalf("expected [stale, dead] events, got %v", events)
	}
}

func TestHeartbeatResetsToAlive(t *testing.T) {
	mock := clock.NewMock(0)
	cfg := Config{StaleMs: 100, DeadMs: 300}
	r := NewRegistry(mock, cfg)
	r.Register("a1", 0, "", "root")

	mock.Advance(150)
	r.Sweep()
	r.Heartbeat("a1")

	rec, _ := r.Get("a1")
	if rec.Status != StatusAlive {
		t.Fatalf("expected heartbeat to restore alive, got %s", rec.Status)
	}
}

func TestHealRestoresUnconditionally(t *testing.T) {
	mock := clock.NewMock(0)
	r := NewRegistry(mock, Config{StaleMs: 10, DeadMs: 20})
	r.Register("a1", 0, "", "root")
	mock.Advance(30)
	r.Sweep()

	if !r.Heal("a1") {
		t.Fatalf("expected heal to succeed for known agent")
	}
	rec, _ := r.Get("a1")
	if rec.Status != StatusAlive {
		t.Fatalf("expected healed agent to be alive, got %s", rec.Status)
	}
}

func TestKillAgentFreesSlot(t *testing.T) {
	r := NewRegistry(clock.NewMock(0), DefaultConfig())
	r.Register("a1", 0, "", "root")

	result := r.KillAgent("a1")
	if !result.Freed {
		t.Fatalf("expected kill to free the slot")
	}
	if _, ok := r.Get("a1"); ok {
		t.Fatalf("expected agent removed from registry")
	}
}

func TestKillUnknownAgentReportsNotFreed(t *testing.T) {
	r := NewRegistry(clock.NewMock(0), DefaultConfig())
	result := r.KillAgent("missing")
	if result.Freed {
		t.Fatalf("expected kill of unknown agent to report not freed")
	}
}

func TestSnapshotCountsByStatus(t *testing.T) {
	mock := clock.NewMock(0)
	r := NewRegistry(mock, Config{StaleMs: 100, DeadMs: 300})
	r.Register("a1", 0, "", "")
	r.Register("a2", 0, "", "")
	mock.Advance(150)
	r.Sweep()

	snap := r.Snapshot()
	if snap.Total != 2 || snap.Stale != 2 {
		t.Fatalf("expected 2 total and 2 stale, got %+v", snap)
	}
}

func TestListenerPanicDoesNotBlockOthers(t *testing.T) {
	r := NewRegistry(clock.NewMock(0), DefaultConfig())
	called := false
	r.OnStatusChange(func(record HealthRecord, previous Status) { panic("boom") })
	r.OnStatusChange(func(record HealthRecord, previous Status) { called = true })

	r.Register("a1", 0, "", "")
	r.KillAgent("a1")

	if !called {
		t.Fatalf("expected second listener to still run despite first panicking")
	}
}
