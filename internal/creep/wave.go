package creep

import (
	"context"

	"siegefall/server/internal/net/proto"
	"siegefall/server/internal/world"
	waveslog "siegefall/server/logging/waves"
)

// StepWaves drives the wave cursor. A wave begins when game time passes its
// start time; each path then emits creeps at its scheduled offsets. The
// cursor advances only when every path of the wave is exhausted, and past the
// last wave it is terminal.
func StepWaves(w *world.World) {
	if w.Wave.WaveIndex >= len(w.Waves) {
		return
	}
	wave := &w.Waves[w.Wave.WaveIndex]
	now := w.Clock.Time
	if now < wave.StartTime {
		return
	}

	if !w.Wave.Started {
		w.Wave.Started = true
		w.Wave.NextEmitIndex = make([]int, len(wave.Paths))
		w.Broadcast(proto.CategoryCreepWave, proto.ActionCreate, proto.WavePayload{
			WaveIndex: w.Wave.WaveIndex,
			GameTime:  now,
		}, true)
		waveslog.Started(context.Background(), w.Publisher, w.Clock.TickID,
			waveslog.WavePayload{WaveIndex: w.Wave.WaveIndex, GameTime: now})
	}

	var pending []world.Outcome
	exhausted := true
	for pi := range wave.Paths {
		pathCreeps := &wave.Paths[pi]
		path := w.Paths[pathCreeps.PathName]
		for w.Wave.NextEmitIndex[pi] < len(pathCreeps.Emits) {
			emit := pathCreeps.Emits[w.Wave.NextEmitIndex[pi]]
			if wave.StartTime+emit.TimeOffset > now {
				break
			}
			w.Wave.NextEmitIndex[pi]++
			if path == nil || len(path.Points) == 0 {
				continue
			}
			head := path.Points[0]
			pending = append(pending, world.Outcome{
				Kind: world.OutcomeCreepSpawn,
				CreepSpawn: &world.CreepSpawnOutcome{
					EmitterName: emit.CreepName,
					PathName:    pathCreeps.PathName,
					X:           head.X,
					Y:           head.Y,
				},
			})
		}
		if w.Wave.NextEmitIndex[pi] < len(pathCreeps.Emits) {
			exhausted = false
		}
	}
	w.Outcomes.Append(pending...)

	if exhausted {
		w.Wave.WaveIndex++
		w.Wave.Started = false
		w.Wave.NextEmitIndex = nil
		waveslog.Advanced(context.Background(), w.Publisher, w.Clock.TickID,
			waveslog.WavePayload{WaveIndex: w.Wave.WaveIndex, GameTime: now})
	}
}
