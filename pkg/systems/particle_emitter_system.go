package systems

import (
	"sync/atomic"

	"github.com/go-gl/mathgl/mgl32"
	"github.com/rotisserie/eris"
	"github.com/rs/zerolog"

	"github.com/gonewx/particlefx/pkg/components"
	"github.com/gonewx/particlefx/pkg/ecs"
	"github.com/gonewx/particlefx/pkg/game"
	"github.com/gonewx/particlefx/pkg/utils"
)

// ParticleEmitterSystem spawns particles from active emitters.
//
// The system never touches the live store: for every emitter it queues the
// instantiation of one fully built particle plus count-1 clones of it into a
// command buffer that is played back at the start of the next tick. Each
// particle carries a copy of its emitter's EmitterComponent, which
// ParticleInitializeSystem consumes to randomize the particle.
//
// Emitters are processed in parallel chunks; each chunk writes through its
// own ParallelWriter using the emitter's index in the chunk as sort key.
type ParticleEmitterSystem struct {
	EntityManager *ecs.EntityManager
	Commands      CommandBufferProvider
	Time          game.TimeSource

	Traversal ecs.TraversalOptions
	// MaxSpawnPerTick caps the particles one emitter may spawn per tick (<= 0 = unlimited).
	MaxSpawnPerTick int

	logger zerolog.Logger
	query  *ecs.Query
}

// NewParticleEmitterSystem creates a new ParticleEmitterSystem instance.
func NewParticleEmitterSystem(em *ecs.EntityManager, commands CommandBufferProvider, time game.TimeSource, logger zerolog.Logger) *ParticleEmitterSystem {
	return &ParticleEmitterSystem{
		EntityManager: em,
		Commands:      commands,
		Time:          time,
		logger:        utils.SystemLogger(logger, "ParticleEmitterSystem"),
		query: ecs.NewQuery().
			WithAll(
				ecs.TypeOf[*components.EmitterComponent](),
				ecs.TypeOf[*components.TransformComponent](),
			).
			WithNone(ecs.TypeOf[*components.ParticleComponent]()),
	}
}

// Name returns the system name.
func (s *ParticleEmitterSystem) Name() string {
	return "ParticleEmitterSystem"
}

// Update queues this tick's particle spawns.
// A missing command buffer provider or time source is a hard error; no
// matching emitters is not.
func (s *ParticleEmitterSystem) Update() error {
	if s.Commands == nil {
		return eris.Wrap(ErrCommandBufferUnavailable, s.Name())
	}
	if s.Time == nil {
		return eris.Wrap(ErrTimeSourceUnavailable, s.Name())
	}

	if s.query.IsEmpty(s.EntityManager) {
		return nil
	}
	emitters := s.EntityManager.Query(s.query)

	dt := s.Time.DeltaTime()
	cb := s.Commands.CreateCommandBuffer(s.Name())

	var spawned atomic.Int64
	err := ecs.ForEachChunk(emitters, s.Traversal, func(chunk ecs.Chunk) error {
		w := cb.Writer(chunk.Index)
		n := 0
		for i, id := range chunk.Entities {
			n += s.emit(w, i, id, dt)
		}
		spawned.Add(int64(n))
		return nil
	})
	if err != nil {
		return eris.Wrap(err, s.Name())
	}

	s.logger.Debug().
		Int("emitters", len(emitters)).
		Int64("spawned", spawned.Load()).
		Float32("dt", dt).
		Msg("emission queued")
	return nil
}

// emit queues the particles of one emitter and returns how many were queued.
func (s *ParticleEmitterSystem) emit(w *ecs.ParallelWriter, sortKey int, id ecs.EntityID, dt float32) int {
	em := s.EntityManager

	descriptor, ok := ecs.GetComponent[*components.EmitterComponent](em, id)
	if !ok || !descriptor.Active {
		return 0
	}
	transform, ok := ecs.GetComponent[*components.TransformComponent](em, id)
	if !ok {
		return 0
	}

	emitter, clamped := SanitizeEmitter(*descriptor)
	if clamped {
		s.logger.Debug().Uint64("entity", uint64(id)).Msg("emitter descriptor clamped")
	}

	count := SpawnCount(emitter.ParticlesPerSecond, dt)
	if s.MaxSpawnPerTick > 0 && count > s.MaxSpawnPerTick {
		count = s.MaxSpawnPerTick
	}
	if count == 0 {
		return 0
	}

	if !s.validPrefab(emitter.ParticlePrefab) {
		s.logger.Debug().
			Uint64("entity", uint64(id)).
			Uint64("prefab", uint64(emitter.ParticlePrefab)).
			Msg("emitter prefab missing transform or scale, skipped")
		return 0
	}

	// 偏移量按发射器朝向旋转，只取 x/y
	offset := transform.Rotation.Rotate(mgl32.Vec3{emitter.SpawnOffset.X(), emitter.SpawnOffset.Y(), 0})
	position := transform.Position.Add(mgl32.Vec3{offset.X(), offset.Y(), 0})

	first := w.Instantiate(sortKey, emitter.ParticlePrefab)
	w.AddComponent(sortKey, first, &components.ParticleComponent{})
	w.AddComponent(sortKey, first, &components.BaseColorComponent{Value: emitter.StartColor})
	w.AddComponent(sortKey, first, &components.ParticleAgeComponent{
		Lifetime:  emitter.ParticleLifetime,
		Remaining: emitter.ParticleLifetime,
	})
	snapshot := emitter
	w.AddComponent(sortKey, first, &snapshot)
	w.AddComponent(sortKey, first, &components.ParticleVelocityComponent{})

	w.SetComponent(sortKey, first, &components.TransformComponent{
		Position: position,
		Rotation: transform.Rotation,
	})
	w.SetComponent(sortKey, first, &components.ScaleComponent{
		Value: particleScale(emitter.StartWidth, emitter.StartLength),
	})

	if hasColorTransition(&emitter) {
		w.AddComponent(sortKey, first, &components.ColorTransitionComponent{
			Start: emitter.StartColor,
			End:   emitter.EndColor,
		})
	}
	if hasSizeTransition(&emitter) {
		w.AddComponent(sortKey, first, &components.SizeTransitionComponent{
			StartLength: emitter.StartLength,
			EndLength:   emitter.EndLength,
			StartWidth:  emitter.StartWidth,
			EndWidth:    emitter.EndWidth,
		})
	}

	for range count - 1 {
		w.Instantiate(sortKey, first)
	}
	return count
}

// validPrefab reports whether the prefab can take the Set commands queued for
// the first particle.
func (s *ParticleEmitterSystem) validPrefab(prefab ecs.EntityID) bool {
	return ecs.HasComponent[*components.TransformComponent](s.EntityManager, prefab) &&
		ecs.HasComponent[*components.ScaleComponent](s.EntityManager, prefab)
}
