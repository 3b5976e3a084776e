package entities

import (
	"sort"

	"github.com/go-gl/mathgl/mgl32"
	"github.com/rotisserie/eris"

	"github.com/gonewx/particlefx/pkg/components"
	"github.com/gonewx/particlefx/pkg/config"
	"github.com/gonewx/particlefx/pkg/ecs"
)

// ErrPrefabNotFound is returned when a prefab name has not been registered.
var ErrPrefabNotFound = eris.New("particle prefab not found")

// PrefabRegistry maps prefab names from data/particles.yaml to prefab entities.
type PrefabRegistry struct {
	prefabs map[string]ecs.EntityID
}

// NewPrefabRegistry creates an empty registry.
func NewPrefabRegistry() *PrefabRegistry {
	return &PrefabRegistry{prefabs: make(map[string]ecs.EntityID)}
}

// Register binds name to a prefab entity, replacing any previous binding.
func (r *PrefabRegistry) Register(name string, prefab ecs.EntityID) {
	r.prefabs[name] = prefab
}

// Resolve returns the prefab entity registered under name.
func (r *PrefabRegistry) Resolve(name string) (ecs.EntityID, error) {
	prefab, ok := r.prefabs[name]
	if !ok {
		return 0, eris.Wrapf(ErrPrefabNotFound, "prefab %q", name)
	}
	return prefab, nil
}

// Names returns the registered prefab names in sorted order.
func (r *PrefabRegistry) Names() []string {
	names := make([]string, 0, len(r.prefabs))
	for name := range r.prefabs {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// CreateParticlePrefab creates a prefab entity that particles are instantiated from.
//
// The prefab carries every component the emission stage overwrites with
// SetComponent (Transform, Scale) plus the base colour and render hints.
// Prefab entities are invisible to system queries.
//
// Parameters:
//   - em: EntityManager instance for creating entities
//   - cfg: Prefab configuration (shape, blending, default colour)
//
// Returns:
//   - ecs.EntityID: The ID of the created prefab entity
func CreateParticlePrefab(em *ecs.EntityManager, cfg config.PrefabConfig) ecs.EntityID {
	prefabID := em.CreateEntity()

	em.AddComponent(prefabID, &ecs.Prefab{})
	em.AddComponent(prefabID, &components.TransformComponent{Rotation: mgl32.QuatIdent()})
	em.AddComponent(prefabID, &components.ScaleComponent{Value: mgl32.Vec3{1, 1, 1}})
	em.AddComponent(prefabID, &components.BaseColorComponent{Value: mgl32.Vec4(cfg.Color)})
	em.AddComponent(prefabID, &components.ParticleRenderComponent{
		Shape:    cfg.Shape,
		Additive: cfg.Additive,
	})

	return prefabID
}

// RegisterPrefabs creates a prefab entity for every prefab in cfg and
// registers it under its name.
func RegisterPrefabs(em *ecs.EntityManager, cfg *config.ParticleConfig) *PrefabRegistry {
	registry := NewPrefabRegistry()
	for _, p := range cfg.Prefabs {
		registry.Register(p.Name, CreateParticlePrefab(em, p))
	}
	return registry
}

// EmitterFromPreset converts a YAML preset into an EmitterComponent bound to prefab.
func EmitterFromPreset(preset *config.EmitterPreset, prefab ecs.EntityID) components.EmitterComponent {
	return components.EmitterComponent{
		Active:             preset.IsActive(),
		ParticlesPerSecond: preset.ParticlesPerSecond,
		ParticlePrefab:     prefab,
		SpawnOffset:        mgl32.Vec2(preset.SpawnOffset),
		SpawnSpread:        preset.SpawnSpread,
		AngleSpread:        preset.AngleSpread,
		VelocityBase:       preset.VelocityBase,
		VelocityRandom:     preset.VelocityRandom,
		StartColor:         mgl32.Vec4(preset.StartColor),
		EndColor:           mgl32.Vec4(preset.ResolvedEndColor()),
		StartWidth:         preset.StartWidth,
		EndWidth:           preset.ResolvedEndWidth(),
		StartLength:        preset.StartLength,
		EndLength:          preset.ResolvedEndLength(),
		ParticleLifetime:   preset.Lifetime,
	}
}

// CreateEmitter creates an emitter entity from a preset at the specified world position.
//
// Parameters:
//   - em: EntityManager instance for creating entities
//   - registry: Resolves the preset's prefab name
//   - preset: Emitter preset loaded from data/particles.yaml
//   - worldX, worldY: World coordinates of the emitter
//   - angleDeg: Emitter orientation around the z axis (degrees, 0 = emitting towards +y)
//
// Returns:
//   - ecs.EntityID: The ID of the created emitter entity
//   - error: ErrPrefabNotFound if the preset references an unknown prefab
//
// Example:
//
//	preset, _ := cfg.Emitter("thrust")
//	emitterID, err := CreateEmitter(em, registry, preset, 400, 300, 180)
func CreateEmitter(em *ecs.EntityManager, registry *PrefabRegistry, preset *config.EmitterPreset, worldX, worldY, angleDeg float32) (ecs.EntityID, error) {
	prefab, err := registry.Resolve(preset.Prefab)
	if err != nil {
		return 0, eris.Wrapf(err, "emitter preset %q", preset.Name)
	}

	emitter := EmitterFromPreset(preset, prefab)

	emitterID := em.CreateEntity()
	em.AddComponent(emitterID, &emitter)
	em.AddComponent(emitterID, &components.TransformComponent{
		Position: mgl32.Vec3{worldX, worldY, 0},
		Rotation: ZRotation(angleDeg),
	})

	return emitterID, nil
}

// ZRotation returns the rotation of angleDeg degrees around the z axis.
func ZRotation(angleDeg float32) mgl32.Quat {
	return mgl32.QuatRotate(mgl32.DegToRad(angleDeg), mgl32.Vec3{0, 0, 1})
}
