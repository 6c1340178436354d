package spatial

import (
	"sort"

	"golang.org/x/sync/errgroup"

	"siegefall/server/internal/ecs"
)

// Entry is one indexed entity with its position at rebuild time.
type Entry struct {
	Ent ecs.Handle
	X   float64
	Y   float64
}

// Hit is a query result carrying the squared distance to the query point.
type Hit struct {
	Ent    ecs.Handle
	DistSq float64
}

// Index holds one entity class as a pair of slices sorted by x and by y.
// Queries walk the x-sorted slice through a binary-searched window; the
// y-sorted slice serves scans that are tighter on the vertical axis.
type Index struct {
	byX []Entry
	byY []Entry
}

// Rebuild replaces the index contents. The two axes are sorted concurrently;
// with a few thousand entries the second goroutine pays for itself.
func (idx *Index) Rebuild(entries []Entry) {
	if idx == nil {
		return
	}
	idx.byX = append(idx.byX[:0], entries...)
	idx.byY = append(idx.byY[:0], entries...)

	var group errgroup.Group
	group.Go(func() error {
		sort.Slice(idx.byX, func(i, j int) bool { return idx.byX[i].X < idx.byX[j].X })
		return nil
	})
	group.Go(func() error {
		sort.Slice(idx.byY, func(i, j int) bool { return idx.byY[i].Y < idx.byY[j].Y })
		return nil
	})
	group.Wait()
}

// Len reports the number of indexed entries.
func (idx *Index) Len() int {
	if idx == nil {
		return 0
	}
	return len(idx.byX)
}

// RadiusK returns up to k entries within radius r of (x, y), sorted ascending
// by squared distance.
func (idx *Index) RadiusK(x, y, r float64, k int) []Hit {
	if idx == nil || r < 0 || k <= 0 {
		return nil
	}
	rSq := r * r
	lo, hi := idx.xWindow(x, r)
	hits := make([]Hit, 0, min(k, hi-lo))
	for i := lo; i < hi; i++ {
		entry := idx.byX[i]
		dy := entry.Y - y
		if dy > r || dy < -r {
			continue
		}
		dx := entry.X - x
		distSq := dx*dx + dy*dy
		if distSq <= rSq {
			hits = append(hits, Hit{Ent: entry.Ent, DistSq: distSq})
		}
	}
	sort.Slice(hits, func(i, j int) bool { return hits[i].DistSq < hits[j].DistSq })
	if len(hits) > k {
		hits = hits[:k]
	}
	return hits
}

// DualRadiusK performs one pass over the outer window, splitting results into
// the inner disc (sorted ascending, capped at k) and the ring between the two
// radii. The ring is capped at k but carries no ordering guarantee; callers
// use its cardinality.
func (idx *Index) DualRadiusK(x, y, rInner, rOuter float64, k int) (inner []Hit, outer []Hit) {
	if idx == nil || rOuter < 0 || k <= 0 {
		return nil, nil
	}
	if rInner > rOuter {
		rInner = rOuter
	}
	innerSq := rInner * rInner
	outerSq := rOuter * rOuter
	lo, hi := idx.xWindow(x, rOuter)
	for i := lo; i < hi; i++ {
		entry := idx.byX[i]
		dy := entry.Y - y
		if dy > rOuter || dy < -rOuter {
			continue
		}
		dx := entry.X - x
		distSq := dx*dx + dy*dy
		switch {
		case distSq <= innerSq:
			inner = append(inner, Hit{Ent: entry.Ent, DistSq: distSq})
		case distSq <= outerSq:
			if len(outer) < k {
				outer = append(outer, Hit{Ent: entry.Ent, DistSq: distSq})
			}
		}
	}
	sort.Slice(inner, func(i, j int) bool { return inner[i].DistSq < inner[j].DistSq })
	if len(inner) > k {
		inner = inner[:k]
	}
	return inner, outer
}

func (idx *Index) xWindow(x, r float64) (int, int) {
	lo := sort.Search(len(idx.byX), func(i int) bool { return idx.byX[i].X >= x-r })
	hi := sort.Search(len(idx.byX), func(i int) bool { return idx.byX[i].X > x+r })
	return lo, hi
}

// Searcher bundles the two indexed entity classes. The units index rebuilds
// every tick; the towers index only when marked dirty by a tower spawn or
// death.
type Searcher struct {
	Units       Index
	Towers      Index
	towersDirty bool
}

func NewSearcher() *Searcher {
	return &Searcher{towersDirty: true}
}

// MarkTowersDirty schedules a towers rebuild on the next refresh.
func (s *Searcher) MarkTowersDirty() {
	if s == nil {
		return
	}
	s.towersDirty = true
}

// TowersDirty reports whether the towers index needs a rebuild.
func (s *Searcher) TowersDirty() bool {
	if s == nil {
		return false
	}
	return s.towersDirty
}

// RebuildUnits refreshes the units index from the live unit positions.
func (s *Searcher) RebuildUnits(entries []Entry) {
	if s == nil {
		return
	}
	s.Units.Rebuild(entries)
}

// RebuildTowers refreshes the towers index and clears the dirty flag.
func (s *Searcher) RebuildTowers(entries []Entry) {
	if s == nil {
		return
	}
	s.Towers.Rebuild(entries)
	s.towersDirty = false
}
