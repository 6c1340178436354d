// Package app wires the campaign data, the game core, the tick loop, and the
// websocket hub into a runnable server.
package app

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"math/rand"
	"net/http"
	"os"
	"time"

	"siegefall/server/internal/ability"
	"siegefall/server/internal/campaign"
	"siegefall/server/internal/game"
	svnet "siegefall/server/internal/net"
	"siegefall/server/internal/sim"
	"siegefall/server/internal/telemetry"
	"siegefall/server/internal/vision"
	"siegefall/server/internal/world"
	"siegefall/server/logging"
	"siegefall/server/logging/sinks"
	simulationlog "siegefall/server/logging/simulation"
)

// Run builds the server from cfg and serves until ctx is cancelled.
func Run(ctx context.Context, cfg Config) error {
	metrics := logging.NewMetrics()
	router, err := buildRouter(cfg)
	if err != nil {
		return fmt.Errorf("logging: %w", err)
	}
	defer func() {
		closeCtx, cancel := context.WithTimeout(context.Background(), 3*time.Second)
		defer cancel()
		router.Close(closeCtx)
	}()

	camp, err := campaign.Load(cfg.CampaignDir)
	if err != nil {
		return fmt.Errorf("campaign %q: %w", cfg.CampaignDir, err)
	}
	registry := ability.NewRegistry()
	for _, h := range ability.DefaultHandlers() {
		if err := registry.Register(h); err != nil {
			return err
		}
	}
	if err := camp.ValidateHandlers(registry); err != nil {
		return fmt.Errorf("campaign %q: %w", cfg.CampaignDir, err)
	}

	// The outbox and the hub need the current tick, but the game does not
	// exist yet. Bind lazily through the pointer.
	var g *game.Game
	tick := func() uint64 {
		if g == nil {
			return 0
		}
		return g.World().Clock.TickID
	}
	outbox := svnet.NewOutbox(cfg.OutboxCapacity, router, metrics, tick)

	seed := cfg.Seed
	if seed == 0 {
		seed = time.Now().UnixNano()
	}
	g, err = game.New(game.Config{
		TPS:          cfg.TickRate,
		RNGSeed:      seed,
		Workers:      cfg.Workers,
		StartingGold: camp.StartingGold,
		DefaultHero:  camp.DefaultHero,
		Deps: sim.Deps{
			Logger:    telemetry.WrapLogger(log.New(os.Stderr, "[siegefall] ", log.LstdFlags)),
			Metrics:   telemetry.WrapMetrics(metrics),
			Publisher: router,
			Clock:     logging.SystemClock{},
			RNG:       rand.New(rand.NewSource(seed)),
		},
		Outbox:         outbox,
		Registry:       registry,
		AbilityDefs:    camp.Abilities,
		HeroDefs:       camp.Heroes,
		HeroBases:      camp.HeroBases,
		UnitDefs:       mergeUnitDefs(camp),
		Emitters:       camp.Emitters,
		Paths:          camp.Paths,
		Waves:          camp.Waves,
		TowerTemplates: camp.Towers,
	})
	if err != nil {
		return fmt.Errorf("game: %w", err)
	}

	var hub *svnet.Hub
	loop := sim.NewLoop(g, sim.LoopConfig{
		TickRate:        cfg.TickRate,
		CommandCapacity: 1024,
		PerActorLimit:   32,
		WarningStep:     256,
	}, sim.LoopHooks{
		AfterStep: func(result sim.LoopStepResult) {
			flushOutbox(outbox, hub)
			if result.Budget > 0 && result.Duration > result.Budget {
				simulationlog.TickOverrun(ctx, router, result.Tick,
					simulationlog.TickOverrunPayload{Duration: result.Duration, Budget: result.Budget})
				metrics.TelemetryAdd("tick_overrun_total", 1)
			}
		},
	})

	intake := svnet.NewIntake(loop, router, tick)
	hub = svnet.NewHub(intake, router, telemetry.WrapMetrics(metrics), tick)
	if cfg.VisionFiltering {
		// Only the passthrough filter ships today; the flag reserves the hook.
		hub.Vision = vision.Passthrough{}
	}
	// Messages queued before the loop starts (the initial heartbeat) would
	// otherwise sit until the first tick.
	flushOutbox(outbox, hub)

	mux := http.NewServeMux()
	mux.Handle("/ws", hub)
	mux.HandleFunc("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
		w.Write([]byte("ok"))
	})
	mux.HandleFunc("/metrics", func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(metrics.TelemetrySnapshot())
	})
	server := &http.Server{Addr: cfg.Addr, Handler: mux}

	stop := make(chan struct{})
	loopDone := make(chan struct{})
	go func() {
		defer close(loopDone)
		loop.Run(ctx, stop)
	}()

	serveErr := make(chan error, 1)
	go func() {
		serveErr <- server.ListenAndServe()
	}()

	select {
	case <-ctx.Done():
	case err := <-serveErr:
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			close(stop)
			<-loopDone
			return fmt.Errorf("serve: %w", err)
		}
	}

	close(stop)
	<-loopDone
	hub.Close()
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	return server.Shutdown(shutdownCtx)
}

// flushOutbox hands everything queued during the tick to the hub. Undelivered
// messages go back so criticals survive a hubless window.
func flushOutbox(outbox *svnet.Outbox, hub *svnet.Hub) {
	msgs := outbox.Drain()
	if hub == nil {
		outbox.Requeue(msgs)
		return
	}
	for _, msg := range msgs {
		hub.Publish(msg)
	}
}

// mergeUnitDefs folds every spawnable template into one lookup so abilities
// can summon any of them by name.
func mergeUnitDefs(camp *campaign.Campaign) map[string]*world.UnitTemplate {
	merged := make(map[string]*world.UnitTemplate,
		len(camp.Summons)+len(camp.Enemies)+len(camp.Neutrals)+len(camp.Heroes))
	for _, defs := range []map[string]*world.UnitTemplate{camp.Summons, camp.Enemies, camp.Neutrals, camp.Heroes} {
		for name, tpl := range defs {
			if _, exists := merged[name]; !exists {
				merged[name] = tpl
			}
		}
	}
	return merged
}

func buildRouter(cfg Config) (*logging.Router, error) {
	var named []logging.NamedSink
	if cfg.Logging.HasSink("console") {
		named = append(named, logging.NamedSink{
			Name: "console",
			Sink: sinks.NewConsoleSink(os.Stdout, cfg.Logging.Console),
		})
	}
	if cfg.Logging.HasSink("json") && cfg.Logging.JSON.FilePath != "" {
		f, err := os.OpenFile(cfg.Logging.JSON.FilePath, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
		if err != nil {
			return nil, err
		}
		named = append(named, logging.NamedSink{
			Name: "json",
			Sink: sinks.NewJSON(f, cfg.Logging.JSON.FlushInterval),
		})
	}
	return logging.NewRouter(logging.SystemClock{}, cfg.Logging, named)
}
