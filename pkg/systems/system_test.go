package systems

import (
	"errors"
	"testing"

	"github.com/go-gl/mathgl/mgl32"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/gonewx/particlefx/pkg/components"
	"github.com/gonewx/particlefx/pkg/ecs"
	"github.com/gonewx/particlefx/pkg/game"
)

type recordingSystem struct {
	name string
	log  *[]string
	err  error
}

func (s *recordingSystem) Name() string { return s.name }

func (s *recordingSystem) Update() error {
	*s.log = append(*s.log, s.name)
	return s.err
}

func TestSystemGroup_RunsInOrder(t *testing.T) {
	var calls []string
	g := NewSystemGroup("test").Add(
		&recordingSystem{name: "a", log: &calls},
		&recordingSystem{name: "b", log: &calls},
		&recordingSystem{name: "c", log: &calls},
	)

	require.NoError(t, g.Update())
	assert.Equal(t, []string{"a", "b", "c"}, calls)
}

func TestSystemGroup_StopsAtFirstError(t *testing.T) {
	var calls []string
	failure := errors.New("boom")
	g := NewSystemGroup("test").Add(
		&recordingSystem{name: "a", log: &calls},
		&recordingSystem{name: "b", log: &calls, err: failure},
		&recordingSystem{name: "c", log: &calls},
	)

	err := g.Update()
	require.Error(t, err)
	assert.True(t, errors.Is(err, failure))
	assert.Contains(t, err.Error(), "b")
	assert.Equal(t, []string{"a", "b"}, calls)
}

func TestNewPresentationGroup_Order(t *testing.T) {
	em := ecs.NewEntityManager()
	g := NewPresentationGroup(PresentationOptions{
		EntityManager: em,
		Time:          game.NewManualClock(0, 0),
		Logger:        zerolog.Nop(),
	})

	names := make([]string, 0, 3)
	for _, s := range g.Systems() {
		names = append(names, s.Name())
	}
	assert.Equal(t, []string{"CommandBufferSystem", "ParticleEmitterSystem", "ParticleInitializeSystem"}, names)
}

func TestNewPresentationGroup_MissingTimeSource(t *testing.T) {
	em := ecs.NewEntityManager()
	g := NewPresentationGroup(PresentationOptions{EntityManager: em, Logger: zerolog.Nop()})

	err := g.Update()
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrTimeSourceUnavailable))
}

// TestNewPresentationGroup_Pipeline 完整的三帧流程
//
//	第 1 帧：发射排队
//	第 2 帧：回放生成粒子，初始化排队
//	第 3 帧：回放初始化结果
func TestNewPresentationGroup_Pipeline(t *testing.T) {
	em := ecs.NewEntityManager()
	clock := game.NewManualClock(0.2, 1000)
	g := NewPresentationGroup(PresentationOptions{
		EntityManager: em,
		Time:          clock,
		Logger:        zerolog.Nop(),
		Traversal:     ecs.TraversalOptions{ChunkSize: 2},
	})

	prefab := createTestPrefab(em)
	desc := testEmitter(prefab)
	desc.VelocityBase = 1
	emitter := em.CreateEntity()
	em.AddComponent(emitter, &desc)
	em.AddComponent(emitter, &components.TransformComponent{Rotation: mgl32.QuatIdent()})

	particles := func() []ecs.EntityID {
		return ecs.GetEntitiesWith1[*components.ParticleComponent](em)
	}

	require.NoError(t, g.Update())
	assert.Empty(t, particles(), "第 1 帧只排队，不修改实体")
	assert.Equal(t, 1, g.Commands.Pending())

	desc.Active = false
	clock.Advance()
	require.NoError(t, g.Update())
	require.Len(t, particles(), 1)
	p := particles()[0]
	assert.True(t, ecs.HasComponent[*components.EmitterComponent](em, p), "初始化结果尚未回放")

	clock.Advance()
	require.NoError(t, g.Update())
	assert.False(t, ecs.HasComponent[*components.EmitterComponent](em, p))
	velocity := mustGet[*components.ParticleVelocityComponent](t, em, p)
	assert.Equal(t, mgl32.Vec2{0, 1}, velocity.Value)
}
