package components

import (
	"github.com/go-gl/mathgl/mgl32"

	"github.com/gonewx/particlefx/pkg/ecs"
)

// EmitterComponent describes a particle emitter.
//
// The component lives on emitter entities, and a by-value copy of it is
// attached to every particle the emitter spawns. ParticleInitializeSystem
// reads that copy once to randomize the particle's kinematics and then
// removes it, so "has EmitterComponent" on a particle means "not yet
// initialized".
//
// This is a pure data component following ECS principles - it contains no methods.
type EmitterComponent struct {
	// Emitter state (发射器状态)
	Active             bool    // Whether the emitter spawns particles this tick
	ParticlesPerSecond float32 // Emission rate; non-finite or negative rates spawn nothing

	// Template (粒子模板)
	ParticlePrefab ecs.EntityID // Prefab entity instantiated for every particle

	// Spawn placement (发射位置)
	SpawnOffset mgl32.Vec2 // Local-space offset, rotated by the emitter orientation
	SpawnSpread float32    // Half range of the random x/y jitter (world units)

	// Launch (发射角度与速度)
	AngleSpread    float32 // Half range of the random rotation, degrees
	VelocityBase   float32 // Minimum launch speed (units/second)
	VelocityRandom float32 // Extra random speed in [0, VelocityRandom)

	// Appearance over lifetime (生命周期内的外观)
	StartColor  mgl32.Vec4 // RGBA at spawn
	EndColor    mgl32.Vec4 // RGBA at end of life
	StartWidth  float32
	EndWidth    float32
	StartLength float32
	EndLength   float32

	ParticleLifetime float32 // Seconds; must be > 0
}
