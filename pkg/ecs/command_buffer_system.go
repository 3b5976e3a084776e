package ecs

import (
	"sync"

	"github.com/rotisserie/eris"
	"github.com/rs/zerolog"
)

// CommandBufferSystem 分发命令缓冲区并在下一帧开始时统一回放
//
// 系统在 Update 中调用 CreateCommandBuffer 获取缓冲区；CommandBufferSystem.Update
// 按创建顺序回放所有待处理的缓冲区，然后清理被标记删除的实体。
type CommandBufferSystem struct {
	entityManager *EntityManager
	logger        zerolog.Logger

	mu      sync.Mutex
	pending []*CommandBuffer
}

// NewCommandBufferSystem 创建命令缓冲区系统
func NewCommandBufferSystem(em *EntityManager, logger zerolog.Logger) *CommandBufferSystem {
	return &CommandBufferSystem{
		entityManager: em,
		logger:        logger,
	}
}

// Name 返回系统名
func (s *CommandBufferSystem) Name() string {
	return "CommandBufferSystem"
}

// CreateCommandBuffer 创建一个将在下次 Update 时回放的缓冲区
func (s *CommandBufferSystem) CreateCommandBuffer(name string) *CommandBuffer {
	cb := NewCommandBuffer(name)

	s.mu.Lock()
	s.pending = append(s.pending, cb)
	s.mu.Unlock()

	return cb
}

// Pending 返回等待回放的缓冲区数量
func (s *CommandBufferSystem) Pending() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.pending)
}

// Update 回放所有待处理缓冲区
func (s *CommandBufferSystem) Update() error {
	s.mu.Lock()
	buffers := s.pending
	s.pending = nil
	s.mu.Unlock()

	for i, cb := range buffers {
		n := cb.Len()
		if err := cb.Playback(s.entityManager); err != nil {
			if dropped := len(buffers) - i - 1; dropped > 0 {
				s.logger.Warn().Int("dropped", dropped).Msg("discarding buffers after failed playback")
			}
			return eris.Wrap(err, "command buffer playback")
		}
		s.logger.Debug().Str("buffer", cb.Name()).Int("commands", n).Msg("played back")
	}

	s.entityManager.RemoveMarkedEntities()
	return nil
}
