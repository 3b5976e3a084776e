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

var (
	emitterType  = ecs.TypeOf[*components.EmitterComponent]()
	forwardAxis  = mgl32.Vec3{0, 1, 0}
	rotationAxis = mgl32.Vec3{0, 0, 1}
)

// ParticleInitializeSystem 随机化新生成粒子的初始运动状态
//
// 匹配仍带有 EmitterComponent 副本的粒子（即上一帧排队生成、刚刚回放的粒子），
// 按副本中的参数：
//   - 在 [-AngleSpread, AngleSpread] 度内绕 z 轴旋转
//   - 沿旋转后的前向（+y）叠加 VelocityBase + [0, VelocityRandom) 的速度
//   - 在 x、y 上各加 [-SpawnSpread, SpawnSpread] 的位置抖动
//
// 然后移除 EmitterComponent，粒子不会再次被初始化。
//
// 每个粒子的随机流由 (帧种子, 批内序号) 派生，相同遍历顺序下结果可复现。
type ParticleInitializeSystem struct {
	EntityManager *ecs.EntityManager
	Commands      CommandBufferProvider
	Time          game.TimeSource

	Traversal ecs.TraversalOptions

	logger zerolog.Logger
	query  *ecs.Query
}

// NewParticleInitializeSystem 创建粒子初始化系统
func NewParticleInitializeSystem(em *ecs.EntityManager, commands CommandBufferProvider, time game.TimeSource, logger zerolog.Logger) *ParticleInitializeSystem {
	return &ParticleInitializeSystem{
		EntityManager: em,
		Commands:      commands,
		Time:          time,
		logger:        utils.SystemLogger(logger, "ParticleInitializeSystem"),
		query: ecs.NewQuery().WithAll(
			ecs.TypeOf[*components.ParticleComponent](),
			emitterType,
			ecs.TypeOf[*components.TransformComponent](),
			ecs.TypeOf[*components.ParticleVelocityComponent](),
		),
	}
}

// Name 返回系统名
func (s *ParticleInitializeSystem) Name() string {
	return "ParticleInitializeSystem"
}

// Update 为所有待初始化粒子排队 Set/Remove 命令
func (s *ParticleInitializeSystem) Update() error {
	if s.Commands == nil {
		return eris.Wrap(ErrCommandBufferUnavailable, s.Name())
	}
	if s.Time == nil {
		return eris.Wrap(ErrTimeSourceUnavailable, s.Name())
	}

	if s.query.IsEmpty(s.EntityManager) {
		return nil
	}
	particles := s.EntityManager.Query(s.query)

	seed := s.Time.TimestampMS()
	cb := s.Commands.CreateCommandBuffer(s.Name())

	var initialized atomic.Int64
	err := ecs.ForEachChunk(particles, s.Traversal, func(chunk ecs.Chunk) error {
		w := cb.Writer(chunk.Index)
		n := 0
		for i, id := range chunk.Entities {
			if s.initialize(w, i, chunk.Base+i, id, seed) {
				n++
			}
		}
		initialized.Add(int64(n))
		return nil
	})
	if err != nil {
		return eris.Wrap(err, s.Name())
	}

	s.logger.Debug().
		Int64("particles", initialized.Load()).
		Uint32("seed", seed).
		Msg("initialization queued")
	return nil
}

// initialize 处理单个粒子
// 抽取顺序固定：角度、速度、x 抖动、y 抖动
func (s *ParticleInitializeSystem) initialize(w *ecs.ParallelWriter, sortKey, batchIndex int, id ecs.EntityID, seed uint32) bool {
	em := s.EntityManager

	carried, ok := ecs.GetComponent[*components.EmitterComponent](em, id)
	if !ok {
		return false
	}
	transform, ok := ecs.GetComponent[*components.TransformComponent](em, id)
	if !ok {
		return false
	}
	velocity, ok := ecs.GetComponent[*components.ParticleVelocityComponent](em, id)
	if !ok {
		return false
	}

	emitter, _ := SanitizeEmitter(*carried)
	rnd := utils.NewParticleRandom(seed, batchIndex)

	angle := rnd.NextFloat(-emitter.AngleSpread, emitter.AngleSpread)
	speed := emitter.VelocityBase + rnd.NextFloat(0, emitter.VelocityRandom)
	jitterX := rnd.NextFloat(-emitter.SpawnSpread, emitter.SpawnSpread)
	jitterY := rnd.NextFloat(-emitter.SpawnSpread, emitter.SpawnSpread)

	rotation := transform.Rotation.Mul(mgl32.QuatRotate(mgl32.DegToRad(angle), rotationAxis))
	forward := rotation.Rotate(forwardAxis.Mul(speed))

	position := transform.Position
	position[0] += jitterX
	position[1] += jitterY

	w.SetComponent(sortKey, id, &components.TransformComponent{
		Position: position,
		Rotation: rotation,
	})
	w.SetComponent(sortKey, id, &components.ParticleVelocityComponent{
		Value: velocity.Value.Add(mgl32.Vec2{forward.X(), forward.Y()}),
	})
	w.RemoveComponent(sortKey, id, emitterType)
	return true
}
