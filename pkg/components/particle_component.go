package components

import "github.com/go-gl/mathgl/mgl32"

// ParticleComponent marks an entity as a particle.
// Emitter queries exclude entities carrying it, so a particle holding a copy
// of its emitter's EmitterComponent never emits.
type ParticleComponent struct{}

// ParticleAgeComponent tracks how long a particle has left to live.
// Remaining counts down from Lifetime; the aging collaborator destroys the
// particle once it reaches zero.
type ParticleAgeComponent struct {
	Lifetime  float32 // Total lifetime (seconds)
	Remaining float32 // Time left (seconds)
}

// ParticleVelocityComponent is the particle's velocity accumulator (units/second).
type ParticleVelocityComponent struct {
	Value mgl32.Vec2
}

// BaseColorComponent is the colour the renderer tints the particle with.
type BaseColorComponent struct {
	Value mgl32.Vec4 // RGBA, 0-1
}

// ColorTransitionComponent is attached only when the emitter's start and end
// colours differ; particles without it keep BaseColorComponent for life.
type ColorTransitionComponent struct {
	Start mgl32.Vec4
	End   mgl32.Vec4
}

// SizeTransitionComponent is attached only when the emitter's start and end
// width or length differ.
type SizeTransitionComponent struct {
	StartLength float32
	EndLength   float32
	StartWidth  float32
	EndWidth    float32
}

// ParticleRenderComponent carries renderer hints from the particle prefab.
type ParticleRenderComponent struct {
	Shape    string // "streak" (line along the forward axis) or "quad"
	Additive bool   // Use additive blending
}
