package ringbuf

import "testing"

func TestPushAndOverflow(t *testing.T) {
	r := New[int](3)
	r.Push(1)
	r.Push(2)
	r.Push(3)
	if r.Size() != 3 {
		t.Fatalf("expected size 3, got %d", r.Size())
	}
	r.Push(4)
	if r.Size() != 3 {
		t.Fatalf("expected size capped at 3, got %d", r.Size())
	}
	got := r.ToArrayOldestFirst()
	want := []int{2, 3, 4}
	for i, v := range want {
		if got[i] != v {
			t.Fatalf("expected %v oldest-first, got %v", want, got)
		}
	}
}

func TestToArrayNewestFirst(t *testing.T) {
	r := New[string](4)
	r.Push("a")
	r.Push("b")
	r.Push("c")
	got := r.ToArray(0)
	want := []string{"c", "b", "a"}
	if len(got) != len(want) {
		t.Fatalf("expected %d elements, got %d", len(want), len(got))
	}
	for i, v := range want {
		if got[i] != v {
			t.Fatalf("expected %v newest-first, got %v", want, got)
		}
	}
}

func TestToArrayLimit(t *testing.T) {
	r := New[int](5)
	for i := 1; i <= 5; i++ {
		r.Push(i)
	}
	got := r.ToArray(2)
	if len(got) != 2 || got[0] != 5 || got[1] != 4 {
		t.Fatalf("expected [5 4], got %v", got)
	}
}

func TestRemoveFunc(t *testing.T) {
	r := New[int](5)
	for i := 1; i <= 5; i++ {
		r.Push(i)
	}
	removed := r.RemoveFunc(func(v int) bool { return v%2 == 0 })
	if removed != 2 {
		t.Fatalf("expected 2 removed, got %d", removed)
	}
	got := r.ToArrayOldestFirst()
	want := []int{1, 3, 5}
	if len(got) != len(want) {
		t.Fatalf("expected %v, got %v", want, got)
	}
	for i, v := range want {
		if got[i] != v {
			t.Fatalf("expected %v, got %v", want, got)
		}
	}
}

func TestCapacityClamped(t *testing.T) {
	r := New[int](0)
	if r.Capacity() != 1 {
		t.Fatalf("expected capacity clamped to 1, got %d", r.Capacity())
	}
}
