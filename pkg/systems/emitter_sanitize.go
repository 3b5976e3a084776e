package systems

import (
	"math"

	"github.com/go-gl/mathgl/mgl32"

	"github.com/gonewx/particlefx/pkg/components"
)

// minParticleLifetime 生命周期非法时使用的最小值（秒）
const minParticleLifetime = 1e-3

// SpawnCount 计算本帧应生成的粒子数
//
// count = floor(rate*dt + 0.5)。速率或 dt 非有限、非正时返回 0，
// 不依赖负数取整的行为。
func SpawnCount(particlesPerSecond, deltaTime float32) int {
	rate := float64(particlesPerSecond)
	dt := float64(deltaTime)
	if !isFinite(rate) || !isFinite(dt) || rate <= 0 || dt <= 0 {
		return 0
	}
	n := math.Floor(rate*dt + 0.5)
	if n > math.MaxInt32 {
		return math.MaxInt32
	}
	return int(n)
}

// SanitizeEmitter 把描述中的非法数值钳制到最近的合法值
//
// 返回钳制后的副本，以及是否有字段被修改。
//   - 速率：NaN/Inf/负数 → 0
//   - 生命周期：NaN/非正 → minParticleLifetime，+Inf → MaxFloat32
//   - 随机范围与速度：NaN/Inf/负数 → 0
//   - 宽度、长度、颜色分量：NaN → 0
func SanitizeEmitter(e components.EmitterComponent) (components.EmitterComponent, bool) {
	changed := false
	clamp := func(v *float32, fallback float32) {
		if !isFinite(float64(*v)) || *v < 0 {
			*v = fallback
			changed = true
		}
	}
	zeroNaN := func(v *float32) {
		if math.IsNaN(float64(*v)) {
			*v = 0
			changed = true
		}
	}

	clamp(&e.ParticlesPerSecond, 0)
	clamp(&e.SpawnSpread, 0)
	clamp(&e.AngleSpread, 0)
	clamp(&e.VelocityBase, 0)
	clamp(&e.VelocityRandom, 0)

	switch {
	case math.IsInf(float64(e.ParticleLifetime), 1):
		e.ParticleLifetime = math.MaxFloat32
		changed = true
	case math.IsNaN(float64(e.ParticleLifetime)) || e.ParticleLifetime <= 0:
		e.ParticleLifetime = minParticleLifetime
		changed = true
	}

	zeroNaN(&e.StartWidth)
	zeroNaN(&e.EndWidth)
	zeroNaN(&e.StartLength)
	zeroNaN(&e.EndLength)
	zeroNaN(&e.SpawnOffset[0])
	zeroNaN(&e.SpawnOffset[1])
	for i := range 4 {
		zeroNaN(&e.StartColor[i])
		zeroNaN(&e.EndColor[i])
	}

	return e, changed
}

// hasColorTransition 起止颜色任一通道不同
func hasColorTransition(e *components.EmitterComponent) bool {
	return e.StartColor != e.EndColor
}

// hasSizeTransition 起止长度或宽度不同
func hasSizeTransition(e *components.EmitterComponent) bool {
	return e.StartLength != e.EndLength || e.StartWidth != e.EndWidth
}

// particleScale 宽/长/宽 约定：长度沿 y 轴延伸
func particleScale(width, length float32) mgl32.Vec3 {
	return mgl32.Vec3{width, width + length, width}
}

func isFinite(v float64) bool {
	return !math.IsNaN(v) && !math.IsInf(v, 0)
}
