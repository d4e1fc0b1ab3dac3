package turiya

import (
	"math"
	"testing"
)

func TestCholeskySolveRecoversKnownSolution(t *testing.T) {
	// A = [[4,2],[2,3]], want x such that A x = b for b = [1, 2].
	a := matrix{{4, 2}, {2, 3}}
	l, err := cholesky(a)
	if err != nil {
		t.Fatalf("cholesky: %v", err)
	}
	b := []float64{1, 2}
	x := solveCholesky(l, b)

	// Verify A x == b.
	got := []float64{a[0][0]*x[0] + a[0][1]*x[1], a[1][0]*x[0] + a[1][1]*x[1]}
	for i := range got {
		if math.Abs(got[i]-b[i]) > 1e-9 {
			t.Fatalf("A x != b: got %v, want %v", got, b)
		}
	}
}

func TestCholeskyRejectsNonPositiveDefinite(t *testing.T) {
	a := matrix{{1, 2}, {2, 1}}
	if _, err := cholesky(a); err == nil {
		t.Fatalf("expected error for non positive-definite matrix")
	}
}

func TestAddOuterAccumulates(t *testing.T) {
	m := newIdentity(2)
	m.addOuter([]float64{1, 2}, 1)
	want := matrix{{2, 2}, {2, 5}}
	for i := range want {
		for j := range want[i] {
			if m[i][j] != want[i][j] {
				t.Fatalf("addOuter mismatch at (%d,%d): got %v want %v", i, j, m[i][j], want[i][j])
			}
		}
	}
}
