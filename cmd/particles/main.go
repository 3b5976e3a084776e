// Package main provides a headless particle runner for profiling and
// debugging the emission pipeline without a window.
//
// Usage:
//
//	go run ./cmd/particles [flags]
//
// Flags:
//
//	--config <path>     Particle config file (default data/particles.yaml)
//	--preset <name>     Emitter preset (default: first in config)
//	--emitters <n>      Number of emitters (default 8)
//	--ticks <n>         Number of ticks to simulate (default 600)
//	--seed <ms>         Initial timestamp fed to the clock (default 1)
//	--every <n>         Log statistics every n ticks (default 60)
//	--verbose           Enable debug logging
//
// Output is JSON lines on stderr, one per statistics interval.
package main

import (
	"flag"
	"fmt"
	"os"
	"time"

	"github.com/rotisserie/eris"
	"github.com/rs/zerolog"

	"github.com/gonewx/particlefx/pkg/components"
	"github.com/gonewx/particlefx/pkg/config"
	"github.com/gonewx/particlefx/pkg/ecs"
	"github.com/gonewx/particlefx/pkg/entities"
	"github.com/gonewx/particlefx/pkg/game"
	"github.com/gonewx/particlefx/pkg/systems"
	"github.com/gonewx/particlefx/pkg/utils"
)

var (
	configFlag   = flag.String("config", "data/particles.yaml", "Particle config file")
	presetFlag   = flag.String("preset", "", "Emitter preset name")
	emittersFlag = flag.Int("emitters", 8, "Number of emitters")
	ticksFlag    = flag.Int("ticks", 600, "Number of ticks to simulate")
	seedFlag     = flag.Uint("seed", 1, "Initial clock timestamp (ms)")
	everyFlag    = flag.Int("every", 60, "Log statistics every n ticks")
	verboseFlag  = flag.Bool("verbose", false, "Enable debug logging")
)

func main() {
	flag.Parse()

	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "%+v\n", err)
		os.Exit(1)
	}
}

func run() error {
	cfg, err := config.LoadParticleConfig(*configFlag)
	if err != nil {
		return err
	}

	level := cfg.System.LogLevel
	if *verboseFlag {
		level = zerolog.LevelDebugValue
	}
	logger, err := utils.NewLogger(os.Stderr, level, false)
	if err != nil {
		return err
	}

	presetName := *presetFlag
	if presetName == "" {
		if len(cfg.Emitters) == 0 {
			return eris.New("no emitter presets in config")
		}
		presetName = cfg.Emitters[0].Name
	}
	preset, ok := cfg.Emitter(presetName)
	if !ok {
		return eris.Errorf("unknown preset %q (available: %v)", presetName, cfg.EmitterNames())
	}

	em := ecs.NewEntityManager()
	dt := 1 / float32(cfg.System.TickRate)
	clock := game.NewManualClock(dt, uint32(*seedFlag))

	pipeline := systems.NewPresentationGroup(systems.PresentationOptions{
		EntityManager: em,
		Time:          clock,
		Logger:        logger,
		Traversal: ecs.TraversalOptions{
			ChunkSize: cfg.System.ChunkSize,
			Workers:   cfg.System.Workers,
		},
		MaxSpawnPerTick: cfg.System.MaxSpawnPerTick,
	})
	pipeline.Add(
		systems.NewParticleMotionSystem(em, clock),
		systems.NewParticleAgeSystem(em, pipeline.Commands, clock),
		systems.NewParticleTransitionSystem(em),
	)

	registry := entities.RegisterPrefabs(em, cfg)

	// 发射器均匀分布在一条水平线上，朝上发射
	for i := 0; i < *emittersFlag; i++ {
		x := float32(i) * 50
		if _, err := entities.CreateEmitter(em, registry, preset, x, 0, 0); err != nil {
			return err
		}
	}

	logger.Info().
		Str("preset", preset.Name).
		Int("emitters", *emittersFlag).
		Int("ticks", *ticksFlag).
		Msg("headless run started")

	start := time.Now()
	peak := 0

	for tick := 0; tick < *ticksFlag; tick++ {
		if err := pipeline.Update(); err != nil {
			return err
		}
		clock.Advance()

		count := len(ecs.GetEntitiesWith1[*components.ParticleComponent](em))
		if count > peak {
			peak = count
		}
		if *everyFlag > 0 && (tick+1)%*everyFlag == 0 {
			logger.Info().
				Int("tick", tick+1).
				Int("particles", count).
				Int("entities", em.EntityCount()).
				Msg("stats")
		}
	}

	elapsed := time.Since(start)
	logger.Info().
		Int("peak", peak).
		Dur("elapsed", elapsed).
		Float64("ms_per_tick", float64(elapsed.Microseconds())/1000/float64(max(*ticksFlag, 1))).
		Msg("headless run finished")
	return nil
}
