package systems

import (
	"testing"

	"github.com/go-gl/mathgl/mgl32"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"

	"github.com/gonewx/particlefx/pkg/components"
	"github.com/gonewx/particlefx/pkg/ecs"
	"github.com/gonewx/particlefx/pkg/game"
)

// testWorld 测试用的最小运行环境
type testWorld struct {
	em       *ecs.EntityManager
	clock    *game.ManualClock
	commands *ecs.CommandBufferSystem
	emitter  *ParticleEmitterSystem
	init     *ParticleInitializeSystem
	prefab   ecs.EntityID
}

func newTestWorld(t *testing.T, dt float32) *testWorld {
	t.Helper()

	em := ecs.NewEntityManager()
	clock := game.NewManualClock(dt, 12345)
	commands := ecs.NewCommandBufferSystem(em, zerolog.Nop())

	return &testWorld{
		em:       em,
		clock:    clock,
		commands: commands,
		emitter:  NewParticleEmitterSystem(em, commands, clock, zerolog.Nop()),
		init:     NewParticleInitializeSystem(em, commands, clock, zerolog.Nop()),
		prefab:   createTestPrefab(em),
	}
}

// createTestPrefab 创建带 Transform/Scale/BaseColor/渲染提示的粒子模板
func createTestPrefab(em *ecs.EntityManager) ecs.EntityID {
	id := em.CreateEntity()
	em.AddComponent(id, &ecs.Prefab{})
	em.AddComponent(id, &components.TransformComponent{Rotation: mgl32.QuatIdent()})
	em.AddComponent(id, &components.ScaleComponent{Value: mgl32.Vec3{1, 1, 1}})
	em.AddComponent(id, &components.BaseColorComponent{Value: mgl32.Vec4{1, 1, 1, 1}})
	em.AddComponent(id, &components.ParticleRenderComponent{Shape: "streak"})
	return id
}

// testEmitter 返回无随机、无过渡的发射器描述
func testEmitter(prefab ecs.EntityID) components.EmitterComponent {
	return components.EmitterComponent{
		Active:             true,
		ParticlesPerSecond: 5,
		ParticlePrefab:     prefab,
		StartColor:         mgl32.Vec4{1, 0, 0, 1},
		EndColor:           mgl32.Vec4{1, 0, 0, 1},
		StartWidth:         1,
		EndWidth:           1,
		StartLength:        2,
		EndLength:          2,
		ParticleLifetime:   1,
	}
}

// addEmitter 在 position 处创建朝向为 rotation 的发射器实体
func (w *testWorld) addEmitter(desc components.EmitterComponent, position mgl32.Vec3, rotation mgl32.Quat) ecs.EntityID {
	id := w.em.CreateEntity()
	d := desc
	w.em.AddComponent(id, &d)
	w.em.AddComponent(id, &components.TransformComponent{Position: position, Rotation: rotation})
	return id
}

// emitAndPlayback 运行发射系统并立即回放
func (w *testWorld) emitAndPlayback(t *testing.T) {
	t.Helper()
	require.NoError(t, w.emitter.Update())
	require.NoError(t, w.commands.Update())
}

// initializeAndPlayback 运行初始化系统并立即回放
func (w *testWorld) initializeAndPlayback(t *testing.T) {
	t.Helper()
	require.NoError(t, w.init.Update())
	require.NoError(t, w.commands.Update())
}

// particles 返回所有粒子实体（按 ID 升序）
func (w *testWorld) particles() []ecs.EntityID {
	return ecs.GetEntitiesWith1[*components.ParticleComponent](w.em)
}

func mustGet[T any](t *testing.T, em *ecs.EntityManager, id ecs.EntityID) T {
	t.Helper()
	comp, ok := ecs.GetComponent[T](em, id)
	require.True(t, ok, "entity %d missing %s", id, ecs.TypeOf[T]())
	return comp
}
