package spatial

import (
	"math/rand"
	"sort"
	"testing"

	"siegefall/server/internal/ecs"
)

func randomCloud(rng *rand.Rand, n int, side float64) []Entry {
	entries := make([]Entry, n)
	for i := range entries {
		entries[i] = Entry{
			Ent: ecs.Handle{Index: uint32(i), Generation: 1},
			X:   rng.Float64() * side,
			Y:   rng.Float64() * side,
		}
	}
	return entries
}

func bruteRadiusK(entries []Entry, x, y, r float64, k int) []Hit {
	rSq := r * r
	var hits []Hit
	for _, e := range entries {
		dx := e.X - x
		dy := e.Y - y
		distSq := dx*dx + dy*dy
		if distSq <= rSq {
			hits = append(hits, Hit{Ent: e.Ent, DistSq: distSq})
		}
	}
	sort.Slice(hits, func(i, j int) bool { return hits[i].DistSq < hits[j].DistSq })
	if len(hits) > k {
		hits = hits[:k]
	}
	return hits
}

func sameHitSet(a, b []Hit) bool {
	if len(a) != len(b) {
		return false
	}
	// Ties at equal distance may order differently; compare as sets per
	// distance band.
	seen := make(map[ecs.Handle]float64, len(b))
	for _, h := range b {
		seen[h.Ent] = h.DistSq
	}
	for _, h := range a {
		d, ok := seen[h.Ent]
		if !ok || d != h.DistSq {
			return false
		}
	}
	return true
}

func TestRadiusKMatchesBruteForce(t *testing.T) {
	rng := rand.New(rand.NewSource(7))
	for _, n := range []int{100, 500, 1000} {
		entries := randomCloud(rng, n, 200)
		var idx Index
		idx.Rebuild(entries)

		for trial := 0; trial < 10; trial++ {
			x := rng.Float64() * 200
			y := rng.Float64() * 200
			r := 1 + rng.Float64()*39
			k := 10 + rng.Intn(41)

			got := idx.RadiusK(x, y, r, k)
			want := bruteRadiusK(entries, x, y, r, k)
			if !sameHitSet(got, want) {
				t.Fatalf("n=%d trial=%d: radius query diverged from brute force (got %d, want %d)", n, trial, len(got), len(want))
			}
			for i := 1; i < len(got); i++ {
				if got[i].DistSq < got[i-1].DistSq {
					t.Fatalf("results not sorted ascending at %d", i)
				}
			}
		}
	}
}

func TestRadiusKEmptyIndex(t *testing.T) {
	var idx Index
	if hits := idx.RadiusK(0, 0, 10, 5); len(hits) != 0 {
		t.Fatalf("expected no hits on empty index, got %d", len(hits))
	}
}

func TestRadiusKTruncatesToK(t *testing.T) {
	entries := make([]Entry, 20)
	for i := range entries {
		entries[i] = Entry{Ent: ecs.Handle{Index: uint32(i), Generation: 1}, X: float64(i), Y: 0}
	}
	var idx Index
	idx.Rebuild(entries)

	hits := idx.RadiusK(0, 0, 100, 3)
	if len(hits) != 3 {
		t.Fatalf("expected 3 hits, got %d", len(hits))
	}
	if hits[0].DistSq != 0 || hits[1].DistSq != 1 || hits[2].DistSq != 4 {
		t.Fatalf("expected the 3 nearest, got %+v", hits)
	}
}

func TestDualRadiusKSplitsRings(t *testing.T) {
	rng := rand.New(rand.NewSource(11))
	entries := randomCloud(rng, 500, 200)
	var idx Index
	idx.Rebuild(entries)

	x, y := 100.0, 100.0
	rInner, rOuter := 20.0, 50.0
	inner, outer := idx.DualRadiusK(x, y, rInner, rOuter, 400)

	wantInner := bruteRadiusK(entries, x, y, rInner, 400)
	if !sameHitSet(inner, wantInner) {
		t.Fatalf("inner ring diverged from brute force")
	}

	innerSet := make(map[ecs.Handle]bool, len(inner))
	for _, h := range inner {
		innerSet[h.Ent] = true
	}
	outerSq := rOuter * rOuter
	innerSq := rInner * rInner
	for _, h := range outer {
		if innerSet[h.Ent] {
			t.Fatalf("entity %v present in both rings", h.Ent)
		}
		if h.DistSq <= innerSq || h.DistSq > outerSq {
			t.Fatalf("outer ring entry out of band: %f", h.DistSq)
		}
	}

	wantOuterCount := len(bruteRadiusK(entries, x, y, rOuter, 10000)) - len(wantInner)
	if len(outer) != wantOuterCount {
		t.Fatalf("expected %d outer entries, got %d", wantOuterCount, len(outer))
	}
}

func TestTowersDirtyFlag(t *testing.T) {
	s := NewSearcher()
	if !s.TowersDirty() {
		t.Fatalf("expected new searcher to need a towers rebuild")
	}
	s.RebuildTowers(nil)
	if s.TowersDirty() {
		t.Fatalf("expected dirty flag cleared after rebuild")
	}
	s.MarkTowersDirty()
	if !s.TowersDirty() {
		t.Fatalf("expected dirty flag set")
	}
}
