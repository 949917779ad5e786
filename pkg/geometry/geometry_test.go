package geometry

import (
	"math"
	"testing"

	"github.com/paulmach/orb"
)

func TestNewPolygonClosesRing(t *testing.T) {
	open := orb.Ring{{0, 0}, {0, 10}, {10, 10}, {10, 0}}

	poly, err := NewPolygon(open)
	if err != nil {
		t.Fatalf("NewPolygon failed: %v", err)
	}

	ring := poly.Exterior()
	if len(ring) != len(open)+1 {
		t.Errorf("Expected %d points after closing, got %d", len(open)+1, len(ring))
	}
	if ring[0] != ring[len(ring)-1] {
		t.Errorf("Exterior ring is not closed: %v vs %v", ring[0], ring[len(ring)-1])
	}
}

func TestNewPolygonKeepsClosedRing(t *testing.T) {
	closed := orb.Ring{{0, 0}, {0, 10}, {10, 10}, {10, 0}, {0, 0}}

	poly, err := NewPolygon(closed)
	if err != nil {
		t.Fatalf("NewPolygon failed: %v", err)
	}
	if len(poly.Exterior()) != len(closed) {
		t.Errorf("Expected %d points, got %d", len(closed), len(poly.Exterior()))
	}
}

func TestNewPolygonRejectsDegenerate(t *testing.T) {
	testCases := []struct {
		name string
		ring orb.Ring
	}{
		{"empty", orb.Ring{}},
		{"single point", orb.Ring{{0, 0}}},
		{"two points", orb.Ring{{0, 0}, {1, 1}}},
		{"self intersecting", orb.Ring{{0, 0}, {10, 10}, {10, 0}, {0, 10}}},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			if _, err := NewPolygon(tc.ring); err == nil {
				t.Errorf("Expected error for %s ring", tc.name)
			}
		})
	}
}

func TestBound(t *testing.T) {
	poly, err := NewPolygon(orb.Ring{{2, 3}, {2, 13}, {12, 13}, {12, 3}})
	if err != nil {
		t.Fatalf("NewPolygon failed: %v", err)
	}

	b := poly.Bound()
	if b.Min[0] != 2 || b.Min[1] != 3 || b.Max[0] != 12 || b.Max[1] != 13 {
		t.Errorf("Unexpected bound: %v", b)
	}
}

func TestContains(t *testing.T) {
	poly, err := NewPolygon(orb.Ring{{0, 0}, {0, 10}, {10, 10}, {10, 0}})
	if err != nil {
		t.Fatalf("NewPolygon failed: %v", err)
	}

	testCases := []struct {
		name     string
		point    orb.Point
		expected bool
	}{
		{"center", orb.Point{5, 5}, true},
		{"near a corner", orb.Point{1, 1}, true},
		{"outside", orb.Point{50, 50}, false},
		{"just outside an edge", orb.Point{10.001, 5}, false},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			if got := poly.Contains(tc.point); got != tc.expected {
				t.Errorf("Contains(%v) = %v, expected %v", tc.point, got, tc.expected)
			}
		})
	}
}

func TestApproxEqual(t *testing.T) {
	base := orb.Ring{{0, 0}, {0, 10}, {10, 10}, {10, 0}}

	a, err := NewPolygon(base)
	if err != nil {
		t.Fatalf("NewPolygon failed: %v", err)
	}

	t.Run("identical", func(t *testing.T) {
		b, _ := NewPolygon(base)
		if !a.ApproxEqual(b, 1e-6) {
			t.Error("Identical polygons reported unequal")
		}
	})

	t.Run("within tolerance", func(t *testing.T) {
		noisy := make(orb.Ring, len(base))
		copy(noisy, base)
		for i := range noisy {
			noisy[i][0] += 1e-9
		}
		b, _ := NewPolygon(noisy)
		if !a.ApproxEqual(b, 1e-6) {
			t.Error("Noise below tolerance reported unequal")
		}
	})

	t.Run("beyond tolerance", func(t *testing.T) {
		shifted := orb.Ring{{1, 0}, {1, 10}, {11, 10}, {11, 0}}
		b, _ := NewPolygon(shifted)
		if a.ApproxEqual(b, 1e-6) {
			t.Error("Shifted polygon reported equal")
		}
	})
}

func TestIntersect(t *testing.T) {
	a, err := NewPolygon(orb.Ring{{0, 0}, {0, 10}, {10, 10}, {10, 0}})
	if err != nil {
		t.Fatalf("NewPolygon failed: %v", err)
	}

	t.Run("overlapping squares", func(t *testing.T) {
		b, _ := NewPolygon(orb.Ring{{5, 5}, {5, 15}, {15, 15}, {15, 5}})
		ring, ok := a.Intersect(b)
		if !ok {
			t.Fatal("Expected an intersection polygon")
		}

		bound := ring.Bound()
		if math.Abs(bound.Min[0]-5) > 1e-9 || math.Abs(bound.Min[1]-5) > 1e-9 ||
			math.Abs(bound.Max[0]-10) > 1e-9 || math.Abs(bound.Max[1]-10) > 1e-9 {
			t.Errorf("Intersection bound %v, expected (5,5)-(10,10)", bound)
		}
	})

	t.Run("disjoint squares", func(t *testing.T) {
		b, _ := NewPolygon(orb.Ring{{50, 50}, {50, 60}, {60, 60}, {60, 50}})
		if _, ok := a.Intersect(b); ok {
			t.Error("Disjoint polygons reported an intersection")
		}
	})

	t.Run("edge touching squares", func(t *testing.T) {
		// shared edge only: the intersection is a line, not a polygon
		b, _ := NewPolygon(orb.Ring{{10, 0}, {10, 10}, {20, 10}, {20, 0}})
		if _, ok := a.Intersect(b); ok {
			t.Error("Line-only intersection should be dropped")
		}
	})
}
