package ecs

import (
	"fmt"
	"reflect"
	"sort"
	"sync"

	"github.com/rotisserie/eris"
)

// command_buffer.go - 延迟命令缓冲区
//
// 并行遍历期间不能直接修改 EntityManager 的结构（创建实体、增删组件），
// 系统把意图写入 CommandBuffer，由调度方在遍历结束后单线程回放。
//
// 每个分块（Chunk）通过 Writer(chunkIndex) 获得独占的 ParallelWriter，
// 追加命令无需加锁；回放顺序为 (分块序号, sortKey, 追加顺序)。

type commandKind uint8

const (
	cmdInstantiate commandKind = iota
	cmdAddComponent
	cmdSetComponent
	cmdRemoveComponent
	cmdDestroyEntity
)

func (k commandKind) String() string {
	switch k {
	case cmdInstantiate:
		return "instantiate"
	case cmdAddComponent:
		return "add"
	case cmdSetComponent:
		return "set"
	case cmdRemoveComponent:
		return "remove"
	case cmdDestroyEntity:
		return "destroy"
	}
	return fmt.Sprintf("command(%d)", uint8(k))
}

type command struct {
	kind    commandKind
	sortKey int
	// entity 是命令目标；instantiate 时为新分配的延迟引用
	entity        EntityID
	source        EntityID
	component     interface{}
	componentType reflect.Type
}

var (
	// ErrUnresolvedEntity 延迟实体引用不属于当前缓冲区，或在创建之前被使用
	ErrUnresolvedEntity = eris.New("unresolved deferred entity")
	// ErrAlreadyPlayedBack 缓冲区只能回放一次
	ErrAlreadyPlayedBack = eris.New("command buffer already played back")
)

// maxWriters 延迟引用中写入器序号可用的位数（31 位，最高位留给 deferredBit）
const maxWriters = 1<<31 - 1

// CommandBuffer 收集一次遍历产生的结构性修改
type CommandBuffer struct {
	name string

	mu         sync.Mutex
	writers    []*ParallelWriter
	playedBack bool
}

// NewCommandBuffer 创建命令缓冲区，name 用于日志和错误信息（通常为发起系统的名字）
func NewCommandBuffer(name string) *CommandBuffer {
	return &CommandBuffer{name: name}
}

// Name 返回缓冲区名字
func (cb *CommandBuffer) Name() string {
	return cb.name
}

// Writer 为一个分块注册写入器
//
// 返回的 ParallelWriter 只能由一个 goroutine 使用。同一个 chunkIndex
// 注册多个写入器时，回放按注册顺序排列。
func (cb *CommandBuffer) Writer(chunkIndex int) *ParallelWriter {
	cb.mu.Lock()
	defer cb.mu.Unlock()

	if len(cb.writers) >= maxWriters {
		panic("ecs: too many command buffer writers")
	}
	w := &ParallelWriter{
		chunk: chunkIndex,
		slot:  uint32(len(cb.writers)),
	}
	cb.writers = append(cb.writers, w)
	return w
}

// Len 返回已记录的命令数
// 只应在所有写入器完成之后调用
func (cb *CommandBuffer) Len() int {
	cb.mu.Lock()
	defer cb.mu.Unlock()

	n := 0
	for _, w := range cb.writers {
		n += len(w.commands)
	}
	return n
}

// Playback 把所有命令应用到 EntityManager
//
// 回放在第一个失败的命令处停止并返回错误，之前的命令已经生效。
// 无论成功与否缓冲区都不能再次回放。
func (cb *CommandBuffer) Playback(em *EntityManager) error {
	cb.mu.Lock()
	defer cb.mu.Unlock()

	if cb.playedBack {
		return eris.Wrapf(ErrAlreadyPlayedBack, "buffer %q", cb.name)
	}
	cb.playedBack = true

	writers := make([]*ParallelWriter, len(cb.writers))
	copy(writers, cb.writers)
	sort.SliceStable(writers, func(i, j int) bool {
		return writers[i].chunk < writers[j].chunk
	})

	remap := make(map[EntityID]EntityID)
	for _, w := range writers {
		cmds := w.commands
		sort.SliceStable(cmds, func(i, j int) bool {
			return cmds[i].sortKey < cmds[j].sortKey
		})
		for i := range cmds {
			if err := applyCommand(em, &cmds[i], remap); err != nil {
				return eris.Wrapf(err, "buffer %q chunk %d: %s command %d", cb.name, w.chunk, cmds[i].kind, i)
			}
		}
	}

	cb.writers = nil
	return nil
}

func applyCommand(em *EntityManager, c *command, remap map[EntityID]EntityID) error {
	if c.kind == cmdInstantiate {
		source, err := resolveEntity(c.source, remap)
		if err != nil {
			return err
		}
		id, err := em.Instantiate(source)
		if err != nil {
			return err
		}
		remap[c.entity] = id
		return nil
	}

	target, err := resolveEntity(c.entity, remap)
	if err != nil {
		return err
	}
	if !em.Exists(target) {
		return eris.Wrapf(ErrEntityNotFound, "entity %d", target)
	}

	switch c.kind {
	case cmdAddComponent:
		em.AddComponent(target, c.component)
	case cmdSetComponent:
		return em.SetComponent(target, c.component)
	case cmdRemoveComponent:
		em.RemoveComponent(target, c.componentType)
	case cmdDestroyEntity:
		em.DestroyEntity(target)
	}
	return nil
}

func resolveEntity(id EntityID, remap map[EntityID]EntityID) (EntityID, error) {
	if !id.IsDeferred() {
		return id, nil
	}
	resolved, ok := remap[id]
	if !ok {
		return 0, eris.Wrapf(ErrUnresolvedEntity, "entity %#x", uint64(id))
	}
	return resolved, nil
}

// ParallelWriter 是单个分块的命令写入器
//
// sortKey 通常是发起命令的实体在分块中的位置，决定分块内的回放顺序。
type ParallelWriter struct {
	chunk    int
	slot     uint32
	next     uint32
	commands []command
}

// Instantiate 记录以 source 为模板创建实体的命令，返回延迟实体引用
//
// source 可以是已存在的实体（通常是 Prefab），也可以是同一写入器之前返回的延迟引用，
// 此时新实体复制的是回放到这一步时的完整状态。
func (w *ParallelWriter) Instantiate(sortKey int, source EntityID) EntityID {
	w.next++
	ref := deferredBit | EntityID(w.slot)<<32 | EntityID(w.next)
	w.commands = append(w.commands, command{
		kind:    cmdInstantiate,
		sortKey: sortKey,
		entity:  ref,
		source:  source,
	})
	return ref
}

// AddComponent 记录添加（或替换）组件的命令
func (w *ParallelWriter) AddComponent(sortKey int, entity EntityID, component interface{}) {
	w.commands = append(w.commands, command{
		kind:      cmdAddComponent,
		sortKey:   sortKey,
		entity:    entity,
		component: component,
	})
}

// SetComponent 记录覆盖已有组件的命令；回放时组件不存在会报错
func (w *ParallelWriter) SetComponent(sortKey int, entity EntityID, component interface{}) {
	w.commands = append(w.commands, command{
		kind:      cmdSetComponent,
		sortKey:   sortKey,
		entity:    entity,
		component: component,
	})
}

// RemoveComponent 记录移除组件的命令；组件不存在时回放为空操作
func (w *ParallelWriter) RemoveComponent(sortKey int, entity EntityID, componentType reflect.Type) {
	w.commands = append(w.commands, command{
		kind:          cmdRemoveComponent,
		sortKey:       sortKey,
		entity:        entity,
		componentType: componentType,
	})
}

// DestroyEntity 记录删除实体的命令（回放时标记删除）
func (w *ParallelWriter) DestroyEntity(sortKey int, entity EntityID) {
	w.commands = append(w.commands, command{
		kind:    cmdDestroyEntity,
		sortKey: sortKey,
		entity:  entity,
	})
}

// Len 返回该写入器记录的命令数
func (w *ParallelWriter) Len() int {
	return len(w.commands)
}
