package world

import (
	"context"
	"sort"

	"siegefall/server/internal/ecs"
	"siegefall/server/logging"
	economylog "siegefall/server/logging/economy"
)

const (
	expRewardRadius  = 1200.0
	goldRewardRadius = 800.0
	rewardHeroLimit  = 16
)

// distributeRewards pays out a dying unit's bounty. Hostile heroes inside the
// experience disc share according to the bounty tier; the nearest hero takes
// the full amount, and gold goes to the nearest hero inside the tighter gold
// radius only.
func (w *World) distributeRewards(dead ecs.Handle, unit *Unit, at Position) {
	if unit.ExpReward <= 0 && unit.GoldReward <= 0 {
		return
	}
	deadFaction := w.Factions.Get(dead)
	if deadFaction == nil {
		return
	}

	hits := w.Searcher.Units.RadiusK(at.X, at.Y, expRewardRadius, rewardHeroLimit*4)
	type candidate struct {
		ent    ecs.Handle
		distSq float64
	}
	var heroes []candidate
	for _, hit := range hits {
		if hit.Ent == dead || !w.Store.Alive(hit.Ent) {
			continue
		}
		if !w.Heroes.Has(hit.Ent) {
			continue
		}
		hf := w.Factions.Get(hit.Ent)
		if hf == nil || !Hostile(*deadFaction, *hf) {
			continue
		}
		heroes = append(heroes, candidate{ent: hit.Ent, distSq: hit.DistSq})
		if len(heroes) >= rewardHeroLimit {
			break
		}
	}
	if len(heroes) == 0 {
		return
	}
	sort.Slice(heroes, func(i, j int) bool { return heroes[i].distSq < heroes[j].distSq })

	share := 0.0
	switch unit.Bounty {
	case BountyBoss:
		share = 1.0
	case BountySiege:
		share = 1.0 / 3.0
	}

	if unit.ExpReward > 0 {
		for i, hero := range heroes {
			amount := unit.ExpReward
			if i > 0 {
				if share == 0 {
					break
				}
				amount = unit.ExpReward * share
			}
			w.Outcomes.Append(Outcome{
				Kind:           OutcomeGainExperience,
				GainExperience: &GainExperienceOutcome{Target: hero.ent, Amount: amount},
			})
			economylog.ExperienceAwarded(context.Background(), w.Publisher, w.Clock.TickID,
				logging.EntityRef{ID: EntityID(hero.ent), Kind: logging.EntityKindHero},
				economylog.RewardPayload{Amount: amount, Source: unit.Name})
		}
	}

	if unit.GoldReward > 0 {
		nearest := heroes[0]
		if nearest.distSq <= goldRewardRadius*goldRewardRadius {
			if hero := w.Heroes.Get(nearest.ent); hero != nil {
				if player, ok := w.Players[hero.OwnerPlayer]; ok {
					player.Gold += unit.GoldReward
					economylog.GoldAwarded(context.Background(), w.Publisher, w.Clock.TickID,
						logging.EntityRef{ID: EntityID(nearest.ent), Kind: logging.EntityKindHero},
						economylog.RewardPayload{Amount: unit.GoldReward, Source: unit.Name})
				}
			}
		}
	}
}
