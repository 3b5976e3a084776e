package app

import (
	"testing"
	"testing/fstest"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/gonewx/particlefx/pkg/components"
	"github.com/gonewx/particlefx/pkg/config"
	"github.com/gonewx/particlefx/pkg/ecs"
	"github.com/gonewx/particlefx/pkg/embedded"
	"github.com/gonewx/particlefx/pkg/game"
)

const testConfigYAML = `
system:
  chunkSize: 4
  workers: 2
  tickRate: 60
prefabs:
  - name: streak
    additive: true
  - name: puff
    shape: quad
emitters:
  - name: fast
    prefab: streak
    particlesPerSecond: 120
    velocityBase: 100
    startColor: [1, 1, 1, 1]
    startWidth: 1
    startLength: 4
    lifetime: 0.5
  - name: slow
    prefab: puff
    particlesPerSecond: 30
    startColor: [0.5, 0.5, 0.5, 1]
    endColor: [0.5, 0.5, 0.5, 0]
    startWidth: 8
    lifetime: 2
`

func newTestApp(t *testing.T) *App {
	t.Helper()
	cfg, err := config.ParseParticleConfig([]byte(testConfigYAML))
	require.NoError(t, err)

	a, err := NewApp(Config{
		Particles: cfg,
		Settings:  game.NewSettingsManager(nil, zerolog.Nop()),
		Logger:    zerolog.Nop(),
	})
	require.NoError(t, err)
	return a
}

func emitterRate(t *testing.T, a *App, id ecs.EntityID) float32 {
	t.Helper()
	emitter, ok := ecs.GetComponent[*components.EmitterComponent](a.EntityManager(), id)
	require.True(t, ok)
	return emitter.ParticlesPerSecond
}

func TestNewApp(t *testing.T) {
	a := newTestApp(t)

	assert.Equal(t, "fast", a.Preset().Name)
	assert.Equal(t, 3, a.EmitterCount(), "默认 3 个环形发射器")
	assert.Equal(t, 0, a.ParticleCount())

	w, h := a.Layout(1920, 1080)
	assert.Equal(t, DefaultWidth, w)
	assert.Equal(t, DefaultHeight, h)
}

func TestNewAppErrors(t *testing.T) {
	_, err := NewApp(Config{Logger: zerolog.Nop()})
	assert.Error(t, err)

	_, err = NewApp(Config{Particles: &config.ParticleConfig{}, Logger: zerolog.Nop()})
	assert.ErrorIs(t, err, ErrNoPresets)
}

func TestAppStepSpawnsAndInitializes(t *testing.T) {
	a := newTestApp(t)

	// tick 0 排队，tick 1 回放生成并初始化
	require.NoError(t, a.Step())
	assert.Equal(t, 0, a.ParticleCount())
	require.NoError(t, a.Step())

	// 120/s × 1/60 s = 2 个/发射器
	assert.Equal(t, 6, a.ParticleCount())

	// 再一帧后初始化完成，所有粒子都获得了速度
	require.NoError(t, a.Step())
	em := a.EntityManager()
	uninitialized := em.Query(ecs.NewQuery().WithAll(
		ecs.TypeOf[*components.ParticleComponent](),
		ecs.TypeOf[*components.EmitterComponent](),
	))
	assert.Len(t, uninitialized, 6, "上一帧生成的粒子等待本帧初始化命令回放")

	for _, id := range em.Query(ecs.NewQuery().
		WithAll(ecs.TypeOf[*components.ParticleComponent]()).
		WithNone(ecs.TypeOf[*components.EmitterComponent]())) {
		velocity, ok := ecs.GetComponent[*components.ParticleVelocityComponent](em, id)
		require.True(t, ok)
		assert.InDelta(t, 100, velocity.Value.Len(), 1e-3)
	}
}

func TestAppParticlesExpire(t *testing.T) {
	a := newTestApp(t)

	// 寿命 0.5 秒，约 30 帧后粒子数量稳定
	for i := 0; i < 90; i++ {
		require.NoError(t, a.Step())
	}
	count := a.ParticleCount()
	assert.Greater(t, count, 0)
	assert.LessOrEqual(t, count, 3*2*33, "过期粒子被删除")
}

func TestAppPause(t *testing.T) {
	a := newTestApp(t)
	a.TogglePause()
	assert.True(t, a.IsPaused())

	for i := 0; i < 5; i++ {
		require.NoError(t, a.Step())
	}
	assert.Equal(t, 0, a.ParticleCount(), "暂停时 dt = 0，不生成粒子")

	a.TogglePause()
	assert.False(t, a.IsPaused())
}

func TestAppCyclePreset(t *testing.T) {
	a := newTestApp(t)

	require.NoError(t, a.CyclePreset(1))
	assert.Equal(t, "slow", a.Preset().Name)
	assert.Equal(t, "slow", a.Settings().GetSettings().Preset)
	for _, id := range a.ring {
		assert.Equal(t, float32(30), emitterRate(t, a, id))
	}

	require.NoError(t, a.CyclePreset(1))
	assert.Equal(t, "fast", a.Preset().Name, "循环回到第一个")

	require.NoError(t, a.CyclePreset(-1))
	assert.Equal(t, "slow", a.Preset().Name)
}

func TestAppAdjustRateScale(t *testing.T) {
	a := newTestApp(t)

	require.NoError(t, a.AdjustRateScale(1))
	assert.Equal(t, 2.0, a.Settings().GetSettings().RateScale)
	assert.Equal(t, float32(240), emitterRate(t, a, a.ring[0]))

	require.NoError(t, a.AdjustRateScale(-10))
	assert.Equal(t, game.MinRateScale, a.Settings().GetSettings().RateScale, "倍率被截断")
}

func TestAppAdjustEmitterCount(t *testing.T) {
	a := newTestApp(t)

	require.NoError(t, a.AdjustEmitterCount(2))
	assert.Equal(t, 5, a.EmitterCount())

	require.NoError(t, a.AdjustEmitterCount(-100))
	assert.Equal(t, game.MinEmitterCount, a.EmitterCount())

	emitters := ecs.GetEntitiesWith1[*components.EmitterComponent](a.EntityManager())
	assert.Len(t, emitters, 1, "旧的环形发射器已删除")
}

func TestAppAddEmitterAndClear(t *testing.T) {
	a := newTestApp(t)

	require.NoError(t, a.AddEmitterAt(100, 500))
	assert.Equal(t, 4, a.EmitterCount())

	transform, ok := ecs.GetComponent[*components.TransformComponent](a.EntityManager(), a.placed[0])
	require.True(t, ok)
	assert.InDelta(t, 100, transform.Position.X(), 1e-6)
	assert.InDelta(t, DefaultHeight-500, transform.Position.Y(), 1e-6, "屏幕 y 向下，世界 y 向上")

	for i := 0; i < 3; i++ {
		require.NoError(t, a.Step())
	}
	require.Greater(t, a.ParticleCount(), 0)

	a.Clear()
	assert.Equal(t, 3, a.EmitterCount())

	// 粒子在下一帧开始时删除
	a.TogglePause()
	require.NoError(t, a.Step())
	assert.Equal(t, pendingSpawned(a), a.ParticleCount())
}

// pendingSpawned 返回清除之后才回放生成的粒子数（暂停前最后一帧排队的）
func pendingSpawned(a *App) int {
	return len(a.EntityManager().Query(ecs.NewQuery().WithAll(
		ecs.TypeOf[*components.ParticleComponent](),
		ecs.TypeOf[*components.EmitterComponent](),
	)))
}

func TestRingPosition(t *testing.T) {
	p := ringPosition(400, 300, 150, 0)
	assert.InDelta(t, 400, p.X(), 1e-4)
	assert.InDelta(t, 450, p.Y(), 1e-4)

	p = ringPosition(400, 300, 150, 90)
	assert.InDelta(t, 250, p.X(), 1e-4)
	assert.InDelta(t, 300, p.Y(), 1e-4)
}

func TestSetupWithEmbeddedConfig(t *testing.T) {
	embedded.Init(fstest.MapFS{
		EmbeddedConfigPath: &fstest.MapFile{Data: []byte(testConfigYAML)},
	})
	t.Cleanup(func() { embedded.Init(nil) })

	a, err := Setup(Options{Preset: "slow", LogOutput: &discard{}})
	require.NoError(t, err)
	assert.Equal(t, "slow", a.Preset().Name)
	assert.False(t, a.Settings().IsPersistent())

	_, err = Setup(Options{Preset: "missing", LogOutput: &discard{}})
	assert.Error(t, err)
}

func TestLoadConfigFromFile(t *testing.T) {
	cfg, err := LoadConfig("../../data/particles.yaml")
	require.NoError(t, err)
	assert.NotEmpty(t, cfg.Emitters)

	_, err = LoadConfig("does/not/exist.yaml")
	assert.Error(t, err)
}

type discard struct{}

func (discard) Write(p []byte) (int, error) { return len(p), nil }
