package systems

import (
	"github.com/rotisserie/eris"
	"github.com/rs/zerolog"

	"github.com/gonewx/particlefx/pkg/ecs"
	"github.com/gonewx/particlefx/pkg/game"
	"github.com/gonewx/particlefx/pkg/utils"
)

var (
	// ErrCommandBufferUnavailable 系统没有可用的命令缓冲区来源
	ErrCommandBufferUnavailable = eris.New("command buffer unavailable")
	// ErrTimeSourceUnavailable 系统没有可用的时间源
	ErrTimeSourceUnavailable = eris.New("time source unavailable")
)

// System 是调度组中的一个系统
type System interface {
	Name() string
	Update() error
}

// CommandBufferProvider 为系统提供延迟命令缓冲区
//
// ecs.CommandBufferSystem 实现了该接口：缓冲区在下一次调用其 Update 时回放。
type CommandBufferProvider interface {
	CreateCommandBuffer(name string) *ecs.CommandBuffer
}

// SystemGroup 按添加顺序依次运行系统
//
// 任一系统失败时本帧后续系统不再运行，错误带上系统名返回给调用者。
type SystemGroup struct {
	name    string
	systems []System
}

// NewSystemGroup 创建空的系统组
func NewSystemGroup(name string) *SystemGroup {
	return &SystemGroup{name: name}
}

// Add 追加系统，返回组本身以便链式调用
func (g *SystemGroup) Add(systems ...System) *SystemGroup {
	g.systems = append(g.systems, systems...)
	return g
}

// Systems 返回组内系统（按运行顺序）
func (g *SystemGroup) Systems() []System {
	return g.systems
}

// Update 运行一帧
func (g *SystemGroup) Update() error {
	for _, s := range g.systems {
		if err := s.Update(); err != nil {
			return eris.Wrapf(err, "%s: %s", g.name, s.Name())
		}
	}
	return nil
}

// PresentationOptions 组装展示阶段系统组所需的参数
type PresentationOptions struct {
	EntityManager *ecs.EntityManager
	Time          game.TimeSource
	Logger        zerolog.Logger
	Traversal     ecs.TraversalOptions
	// MaxSpawnPerTick 单个发射器每帧生成上限（<= 0 = 不限制）
	MaxSpawnPerTick int
}

// PresentationGroup 展示阶段的系统组及其核心系统
type PresentationGroup struct {
	*SystemGroup
	Commands   *ecs.CommandBufferSystem
	Emitter    *ParticleEmitterSystem
	Initialize *ParticleInitializeSystem
}

// NewPresentationGroup 创建展示阶段系统组
//
// 运行顺序：
//  1. CommandBufferSystem - 回放上一帧排队的命令
//  2. ParticleEmitterSystem - 为发射器排队生成粒子
//  3. ParticleInitializeSystem - 随机化上一帧生成的粒子
//
// 调用者可以继续 Add 粒子运动、老化、过渡等系统。
func NewPresentationGroup(opts PresentationOptions) *PresentationGroup {
	commands := ecs.NewCommandBufferSystem(opts.EntityManager, utils.SystemLogger(opts.Logger, "CommandBufferSystem"))

	emitter := NewParticleEmitterSystem(opts.EntityManager, commands, opts.Time, opts.Logger)
	emitter.Traversal = opts.Traversal
	emitter.MaxSpawnPerTick = opts.MaxSpawnPerTick

	initialize := NewParticleInitializeSystem(opts.EntityManager, commands, opts.Time, opts.Logger)
	initialize.Traversal = opts.Traversal

	group := NewSystemGroup("PresentationGroup").Add(commands, emitter, initialize)

	return &PresentationGroup{
		SystemGroup: group,
		Commands:    commands,
		Emitter:     emitter,
		Initialize:  initialize,
	}
}
