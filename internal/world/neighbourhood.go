package world

import (
	"siegefall/server/internal/ecs"
	"siegefall/server/internal/spatial"
)

const towerNeighbourLimit = 32

// RefreshNeighbourhood rebuilds the spatial indices and rewrites each tower's
// nearby-creep list. Runs at level 0, before any system reads the Searcher.
func (w *World) RefreshNeighbourhood() {
	entries := make([]spatial.Entry, 0, w.Units.Len())
	ecs.Join2(w.Units, w.Positions, func(h ecs.Handle, _ *Unit, pos *Position) {
		if w.Store.PendingDestroy(h) {
			return
		}
		entries = append(entries, spatial.Entry{Ent: h, X: pos.X, Y: pos.Y})
	})
	w.Searcher.RebuildUnits(entries)

	if w.Searcher.TowersDirty() {
		towerEntries := make([]spatial.Entry, 0, w.Towers.Len())
		ecs.Join2(w.Towers, w.Positions, func(h ecs.Handle, _ *Tower, pos *Position) {
			if w.Store.PendingDestroy(h) {
				return
			}
			towerEntries = append(towerEntries, spatial.Entry{Ent: h, X: pos.X, Y: pos.Y})
		})
		w.Searcher.RebuildTowers(towerEntries)
	}

	var pending []Outcome
	ecs.Join2(w.Towers, w.Positions, func(th ecs.Handle, tower *Tower, pos *Position) {
		attack := w.Attacks.Get(th)
		if attack == nil {
			tower.NearbyCreeps = tower.NearbyCreeps[:0]
			return
		}
		towerFaction := w.Factions.Get(th)

		hits := w.Searcher.Units.RadiusK(pos.X, pos.Y, attack.Range, towerNeighbourLimit)
		tower.NearbyCreeps = tower.NearbyCreeps[:0]
		for _, hit := range hits {
			if !w.Store.Alive(hit.Ent) || !w.Creeps.Has(hit.Ent) {
				continue
			}
			if towerFaction != nil {
				cf := w.Factions.Get(hit.Ent)
				if cf == nil || !Hostile(*towerFaction, *cf) {
					continue
				}
			}
			tower.NearbyCreeps = append(tower.NearbyCreeps, TowerNeighbor{Ent: hit.Ent, DistSq: hit.DistSq})
		}

		pending = append(pending, w.refreshBlocking(th, tower, pos)...)
	})
	w.Outcomes.Append(pending...)
}

// refreshBlocking stops unblocked creeps inside the tower's block radius while
// capacity remains, and drops stale block references.
func (w *World) refreshBlocking(th ecs.Handle, tower *Tower, pos *Position) []Outcome {
	live := tower.BlockCreeps[:0]
	for _, ch := range tower.BlockCreeps {
		if w.Store.Alive(ch) {
			live = append(live, ch)
		}
	}
	tower.BlockCreeps = live

	if tower.BlockLimit <= 0 || len(tower.BlockCreeps) >= tower.BlockLimit || tower.BlockRadius <= 0 {
		return nil
	}

	var pending []Outcome
	blocked := make(map[ecs.Handle]bool, len(tower.BlockCreeps))
	for _, ch := range tower.BlockCreeps {
		blocked[ch] = true
	}
	for _, neighbour := range tower.NearbyCreeps {
		if len(tower.BlockCreeps)+len(pending) >= tower.BlockLimit {
			break
		}
		if neighbour.DistSq > tower.BlockRadius*tower.BlockRadius {
			continue
		}
		if blocked[neighbour.Ent] {
			continue
		}
		creep := w.Creeps.Get(neighbour.Ent)
		if creep == nil || !creep.BlockTower.IsNil() {
			continue
		}
		pending = append(pending, Outcome{
			Kind:      OutcomeCreepStop,
			CreepStop: &CreepStopOutcome{Tower: th, Creep: neighbour.Ent},
		})
	}
	return pending
}
