package systems

import (
	"github.com/go-gl/mathgl/mgl32"
	"github.com/rotisserie/eris"

	"github.com/gonewx/particlefx/pkg/components"
	"github.com/gonewx/particlefx/pkg/ecs"
	"github.com/gonewx/particlefx/pkg/game"
	"github.com/gonewx/particlefx/pkg/utils"
)

// particle_lifecycle_system.go - 粒子生成之后的逐帧更新
//
// 这些系统消费发射/初始化阶段产生的组件：
//   - ParticleMotionSystem: 按速度移动已初始化的粒子
//   - ParticleAgeSystem: 倒计时寿命，到期后通过命令缓冲区删除
//   - ParticleTransitionSystem: 按年龄插值颜色和尺寸
//
// 它们在主线程上顺序运行，直接修改组件的值，但不做结构性修改。

// ParticleMotionSystem 按速度移动粒子
type ParticleMotionSystem struct {
	EntityManager *ecs.EntityManager
	Time          game.TimeSource
	query         *ecs.Query
}

// NewParticleMotionSystem 创建粒子运动系统
func NewParticleMotionSystem(em *ecs.EntityManager, time game.TimeSource) *ParticleMotionSystem {
	return &ParticleMotionSystem{
		EntityManager: em,
		Time:          time,
		query: ecs.NewQuery().
			WithAll(
				ecs.TypeOf[*components.ParticleComponent](),
				ecs.TypeOf[*components.TransformComponent](),
				ecs.TypeOf[*components.ParticleVelocityComponent](),
			).
			// 未初始化的粒子会在回放时被覆盖位置
			WithNone(ecs.TypeOf[*components.EmitterComponent]()),
	}
}

// Name 返回系统名
func (s *ParticleMotionSystem) Name() string { return "ParticleMotionSystem" }

// Update 位置 += 速度 × dt
func (s *ParticleMotionSystem) Update() error {
	if s.Time == nil {
		return eris.Wrap(ErrTimeSourceUnavailable, s.Name())
	}
	dt := s.Time.DeltaTime()
	if dt == 0 {
		return nil
	}

	for _, id := range s.EntityManager.Query(s.query) {
		transform, _ := ecs.GetComponent[*components.TransformComponent](s.EntityManager, id)
		velocity, _ := ecs.GetComponent[*components.ParticleVelocityComponent](s.EntityManager, id)
		transform.Position[0] += velocity.Value.X() * dt
		transform.Position[1] += velocity.Value.Y() * dt
	}
	return nil
}

// ParticleAgeSystem 倒计时粒子寿命，到期的粒子在下一帧开始时删除
type ParticleAgeSystem struct {
	EntityManager *ecs.EntityManager
	Commands      CommandBufferProvider
	Time          game.TimeSource
}

// NewParticleAgeSystem 创建粒子寿命系统
func NewParticleAgeSystem(em *ecs.EntityManager, commands CommandBufferProvider, time game.TimeSource) *ParticleAgeSystem {
	return &ParticleAgeSystem{
		EntityManager: em,
		Commands:      commands,
		Time:          time,
	}
}

// Name 返回系统名
func (s *ParticleAgeSystem) Name() string { return "ParticleAgeSystem" }

// Update 减少剩余寿命并排队删除到期粒子
func (s *ParticleAgeSystem) Update() error {
	if s.Commands == nil {
		return eris.Wrap(ErrCommandBufferUnavailable, s.Name())
	}
	if s.Time == nil {
		return eris.Wrap(ErrTimeSourceUnavailable, s.Name())
	}

	particles := ecs.GetEntitiesWith2[*components.ParticleComponent, *components.ParticleAgeComponent](s.EntityManager)
	if len(particles) == 0 {
		return nil
	}

	dt := s.Time.DeltaTime()
	var w *ecs.ParallelWriter
	for i, id := range particles {
		age, _ := ecs.GetComponent[*components.ParticleAgeComponent](s.EntityManager, id)
		age.Remaining -= dt
		if age.Remaining > 0 {
			continue
		}
		age.Remaining = 0
		if w == nil {
			w = s.Commands.CreateCommandBuffer(s.Name()).Writer(0)
		}
		w.DestroyEntity(i, id)
	}
	return nil
}

// ParticleTransitionSystem 按年龄插值颜色与尺寸
//
// 只处理带有 ColorTransitionComponent / SizeTransitionComponent 的粒子，
// 起止值相同的粒子在生成时就没有这些组件，不产生逐帧开销。
type ParticleTransitionSystem struct {
	EntityManager *ecs.EntityManager
	colorQuery    *ecs.Query
	sizeQuery     *ecs.Query
}

// NewParticleTransitionSystem 创建过渡系统
func NewParticleTransitionSystem(em *ecs.EntityManager) *ParticleTransitionSystem {
	return &ParticleTransitionSystem{
		EntityManager: em,
		colorQuery: ecs.NewQuery().WithAll(
			ecs.TypeOf[*components.ColorTransitionComponent](),
			ecs.TypeOf[*components.BaseColorComponent](),
			ecs.TypeOf[*components.ParticleAgeComponent](),
		),
		sizeQuery: ecs.NewQuery().WithAll(
			ecs.TypeOf[*components.SizeTransitionComponent](),
			ecs.TypeOf[*components.ScaleComponent](),
			ecs.TypeOf[*components.ParticleAgeComponent](),
		),
	}
}

// Name 返回系统名
func (s *ParticleTransitionSystem) Name() string { return "ParticleTransitionSystem" }

// Update 更新颜色和尺寸
func (s *ParticleTransitionSystem) Update() error {
	em := s.EntityManager

	for _, id := range em.Query(s.colorQuery) {
		transition, _ := ecs.GetComponent[*components.ColorTransitionComponent](em, id)
		color, _ := ecs.GetComponent[*components.BaseColorComponent](em, id)
		age, _ := ecs.GetComponent[*components.ParticleAgeComponent](em, id)

		t := ageProgress(age)
		color.Value = utils.LerpVec4(transition.Start, transition.End, t)
	}

	for _, id := range em.Query(s.sizeQuery) {
		transition, _ := ecs.GetComponent[*components.SizeTransitionComponent](em, id)
		scale, _ := ecs.GetComponent[*components.ScaleComponent](em, id)
		age, _ := ecs.GetComponent[*components.ParticleAgeComponent](em, id)

		t := ageProgress(age)
		width := utils.Lerp(transition.StartWidth, transition.EndWidth, t)
		length := utils.Lerp(transition.StartLength, transition.EndLength, t)
		scale.Value = mgl32.Vec3{width, width + length, width}
	}
	return nil
}

// ageProgress 返回粒子已度过寿命的比例 [0, 1]
func ageProgress(age *components.ParticleAgeComponent) float32 {
	if age.Lifetime <= 0 {
		return 1
	}
	return mgl32.Clamp(1-age.Remaining/age.Lifetime, 0, 1)
}
