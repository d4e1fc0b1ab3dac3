package clock

import "testing"

func TestRealNowMillisMoves(t *testing.T) {
	var c Clock = Real{}
	a := c.NowMillis()
	if a <= 0 {
		t.Fatalf("expected positive millis, got %d", a)
	}
}

func TestMockAdvance(t *testing.T) {
	m := NewMock(1000)
	if m.NowMillis() != 1000 {
		t.Fatalf("expected 1000, got %d", m.NowMillis())
	}
	m.Advance(500)
	if m.NowMillis() != 1500 {
		t.Fatalf("expected 1500, got %d", m.NowMillis())
	}
	m.Advance(-100)
	if m.NowMillis() != 1500 {
		t.Fatalf("expected negative advance to no-op, got %d", m.NowMillis())
	}
}

func TestMockSet(t *testing.T) {
	m := NewMock(0)
	m.Set(42)
	if m.NowMillis() != 42 {
		t.Fatalf("expected 42, got %d", m.NowMillis())
	}
}
