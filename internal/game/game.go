// Package game assembles the world, the skill runtime, and the per-tick stage
// graph into the engine core driven by the simulation loop.
package game

import (
	"context"

	"siegefall/server/internal/ability"
	"siegefall/server/internal/creep"
	"siegefall/server/internal/net/proto"
	"siegefall/server/internal/sim"
	"siegefall/server/internal/skill"
	"siegefall/server/internal/world"
	simulationlog "siegefall/server/logging/simulation"
)

const heartbeatInterval = 2.0

// Config carries the campaign data and infrastructure a game instance needs.
type Config struct {
	TPS          int
	RNGSeed      int64
	Workers      int
	StartingGold float64
	DefaultHero  string

	Deps   sim.Deps
	Outbox world.Outbox

	Registry    *ability.Registry
	AbilityDefs map[string]*ability.Definition

	HeroDefs       map[string]*world.UnitTemplate
	HeroBases      map[string]world.Hero
	UnitDefs       map[string]*world.UnitTemplate
	Emitters       map[string]*world.CreepEmitter
	Paths          map[string]*world.Path
	Waves          []world.CreepWave
	TowerTemplates []world.TowerTemplate
}

// Game is the authoritative engine core: it owns the world and executes the
// stage graph once per tick.
type Game struct {
	deps      sim.Deps
	w         *world.World
	runtime   *skill.Runtime
	scheduler *sim.Scheduler

	heroDefs       map[string]*world.UnitTemplate
	heroBases      map[string]world.Hero
	towerTemplates []world.TowerTemplate
	startingGold   float64
	defaultHero    string

	staged        []sim.Command
	lastHeartbeat float64
}

func New(cfg Config) (*Game, error) {
	w := world.New(world.Config{
		TPS:       cfg.TPS,
		RNGSeed:   cfg.RNGSeed,
		Publisher: cfg.Deps.Publisher,
		Outbox:    cfg.Outbox,
	})
	for name, path := range cfg.Paths {
		w.Paths[name] = path
	}
	for name, emitter := range cfg.Emitters {
		w.Emitters[name] = emitter
	}
	for name, tpl := range cfg.UnitDefs {
		w.UnitDefs[name] = tpl
	}
	w.Waves = cfg.Waves

	registry := cfg.Registry
	if registry == nil {
		registry = ability.NewRegistry()
		for _, h := range ability.DefaultHandlers() {
			if err := registry.Register(h); err != nil {
				return nil, err
			}
		}
	}

	g := &Game{
		deps:           cfg.Deps,
		w:              w,
		runtime:        skill.NewRuntime(registry, cfg.AbilityDefs),
		heroDefs:       cfg.HeroDefs,
		heroBases:      cfg.HeroBases,
		towerTemplates: cfg.TowerTemplates,
		startingGold:   cfg.StartingGold,
		defaultHero:    cfg.DefaultHero,
		lastHeartbeat:  -heartbeatInterval,
	}
	if g.startingGold <= 0 {
		g.startingGold = 100
	}

	scheduler, err := sim.NewScheduler(g.stages(), cfg.Workers)
	if err != nil {
		return nil, err
	}
	g.scheduler = scheduler

	// First heartbeat goes out before any tick so clients see the server.
	g.broadcastHeartbeat()
	return g, nil
}

// World exposes the underlying state for tests and the app wiring.
func (g *Game) World() *world.World { return g.w }

// stages declares the per-tick system graph. Stage order encodes the data
// dependencies: spatial indices first, hp mutation last.
func (g *Game) stages() []sim.Stage {
	run := func(f func()) sim.StageFunc {
		return func(context.Context) error {
			f()
			return nil
		}
	}
	return []sim.Stage{
		{Name: "neighbourhood_refresh", Run: run(g.w.RefreshNeighbourhood)},
		// Commands spawn and move entities, so they must not overlap the
		// searcher rebuild that walks the same tables.
		{Name: "player_command_intake", After: []string{"neighbourhood_refresh"}, Run: run(g.processStaged)},
		{Name: "projectile_step", After: []string{"player_command_intake"},
			Run: run(g.w.StepProjectiles)},
		{Name: "tower_target", After: []string{"projectile_step"}, Run: run(g.w.StepTowerTargets)},
		{Name: "hero_target", After: []string{"tower_target"}, Run: run(g.w.StepHeroTargets)},
		{Name: "skill_runtime", After: []string{"hero_target"}, Run: run(func() { g.runtime.Step(g.w) })},
		{Name: "creep_move", After: []string{"skill_runtime"}, Run: run(func() { creep.StepMovement(g.w) })},
		{Name: "wave_spawn", After: []string{"creep_move"}, Run: run(func() { creep.StepWaves(g.w) })},
		{Name: "damage_resolve", After: []string{"wave_spawn"},
			Run: func(ctx context.Context) error { g.w.ResolveDamage(ctx); return nil }},
		{Name: "death_resolve", After: []string{"damage_resolve"},
			Run: func(ctx context.Context) error { g.w.ResolveDeaths(ctx); return nil }},
	}
}

// Deps implements sim.EngineCore.
func (g *Game) Deps() sim.Deps { return g.deps }

// Apply stages the tick's commands; the intake stage executes them so command
// effects are ordered against the other systems.
func (g *Game) Apply(cmds []sim.Command) {
	g.staged = append(g.staged[:0], cmds...)
}

// Step advances the clock, runs the stage graph, emits the heartbeat, and
// commits deferred destruction.
func (g *Game) Step(ctx context.Context, tick sim.LoopTickContext) error {
	g.w.Clock.Advance(tick.Delta)
	if err := g.scheduler.RunTick(ctx); err != nil {
		simulationlog.StageFailed(ctx, g.deps.Publisher, g.w.Clock.TickID,
			simulationlog.StageFailedPayload{Error: err.Error()})
		return err
	}
	if g.w.Clock.Time-g.lastHeartbeat >= heartbeatInterval {
		g.broadcastHeartbeat()
	}
	g.w.Maintain()
	if g.deps.Metrics != nil {
		g.deps.Metrics.Store("game_tick", g.w.Clock.TickID)
	}
	return nil
}

func (g *Game) broadcastHeartbeat() {
	g.lastHeartbeat = g.w.Clock.Time
	g.w.Broadcast(proto.CategoryHeartbeat, proto.ActionResult, g.w.HeartbeatCounts(), false)
}
