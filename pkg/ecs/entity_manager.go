package ecs

import (
	"reflect"
	"sort"

	"github.com/rotisserie/eris"
)

// EntityID 是实体的唯一标识符
//
// 最高位为 1 的 ID 是命令缓冲区分配的延迟实体引用（见 CommandBuffer.Instantiate），
// 只在回放前有效，不会出现在 EntityManager 中。
type EntityID uint64

// deferredBit 标记延迟实体引用
const deferredBit EntityID = 1 << 63

// IsDeferred 报告该 ID 是否为尚未回放的延迟实体引用
func (id EntityID) IsDeferred() bool {
	return id&deferredBit != 0
}

// Prefab 标记模板实体
//
// 带有 *Prefab 的实体不会被查询匹配，Instantiate 时该标记不会被复制到新实体上。
type Prefab struct{}

var prefabType = reflect.TypeOf(&Prefab{})

var (
	// ErrEntityNotFound 实体不存在（或已被删除）
	ErrEntityNotFound = eris.New("entity not found")
	// ErrComponentMissing 实体上没有要设置的组件
	ErrComponentMissing = eris.New("component missing on entity")
)

// EntityManager 管理所有实体和组件
//
// 组件以指针形式存储，每种 reflect.Type 每个实体最多一个。
// 读操作可以在多个 goroutine 中并发执行，但任何写操作都必须独占。
// 并行遍历期间的结构性修改应通过 CommandBuffer 延迟到回放阶段。
type EntityManager struct {
	nextID uint64
	// 实体-组件映射: EntityID -> ComponentType -> Component实例
	components map[EntityID]map[reflect.Type]interface{}
	// 待删除的实体ID列表
	entitiesToDestroy []EntityID
}

// NewEntityManager 创建一个新的 EntityManager 实例
func NewEntityManager() *EntityManager {
	return &EntityManager{
		nextID:            1, // ID从1开始,0保留为无效ID
		components:        make(map[EntityID]map[reflect.Type]interface{}),
		entitiesToDestroy: make([]EntityID, 0),
	}
}

// CreateEntity 创建新实体并返回唯一ID
func (em *EntityManager) CreateEntity() EntityID {
	id := EntityID(em.nextID)
	em.nextID++
	em.components[id] = make(map[reflect.Type]interface{})
	return id
}

// Exists 检查实体是否存在
func (em *EntityManager) Exists(id EntityID) bool {
	_, exists := em.components[id]
	return exists
}

// EntityCount 返回当前实体数量（包括 Prefab 和待删除实体）
func (em *EntityManager) EntityCount() int {
	return len(em.components)
}

// DestroyEntity 标记实体待删除(不立即删除)
func (em *EntityManager) DestroyEntity(id EntityID) {
	em.entitiesToDestroy = append(em.entitiesToDestroy, id)
}

// AddComponent 为实体添加组件
// 同类型组件已存在时会被替换；实体不存在时忽略。
func (em *EntityManager) AddComponent(id EntityID, component interface{}) {
	componentType := reflect.TypeOf(component)
	if compMap, exists := em.components[id]; exists {
		compMap[componentType] = component
	}
}

// SetComponent 替换实体上已存在的组件
//
// 与 AddComponent 不同，SetComponent 要求实体已经拥有该类型的组件，
// 用于覆盖模板实例化后的初始值。
func (em *EntityManager) SetComponent(id EntityID, component interface{}) error {
	componentType := reflect.TypeOf(component)
	compMap, exists := em.components[id]
	if !exists {
		return eris.Wrapf(ErrEntityNotFound, "set %s on entity %d", componentType, id)
	}
	if _, found := compMap[componentType]; !found {
		return eris.Wrapf(ErrComponentMissing, "set %s on entity %d", componentType, id)
	}
	compMap[componentType] = component
	return nil
}

// RemoveComponent 从实体移除指定类型的组件
func (em *EntityManager) RemoveComponent(id EntityID, componentType reflect.Type) {
	if compMap, exists := em.components[id]; exists {
		delete(compMap, componentType)
	}
}

// GetComponent 获取实体的特定类型组件
func (em *EntityManager) GetComponent(id EntityID, componentType reflect.Type) (interface{}, bool) {
	if compMap, exists := em.components[id]; exists {
		if comp, found := compMap[componentType]; found {
			return comp, true
		}
	}
	return nil, false
}

// HasComponent 检查实体是否拥有特定类型组件
func (em *EntityManager) HasComponent(id EntityID, componentType reflect.Type) bool {
	if compMap, exists := em.components[id]; exists {
		_, found := compMap[componentType]
		return found
	}
	return false
}

// Instantiate 以 source 为模板创建新实体
//
// 所有组件都会被复制（指向结构体的指针会复制一份新的结构体），
// 因此修改新实体的组件不会影响模板。Prefab 标记不会被复制。
func (em *EntityManager) Instantiate(source EntityID) (EntityID, error) {
	srcMap, exists := em.components[source]
	if !exists {
		return 0, eris.Wrapf(ErrEntityNotFound, "instantiate from entity %d", source)
	}

	id := em.CreateEntity()
	dst := em.components[id]
	for componentType, comp := range srcMap {
		if componentType == prefabType {
			continue
		}
		dst[componentType] = cloneComponent(comp)
	}
	return id, nil
}

// cloneComponent 复制组件值
// 指向结构体的指针复制为新的指针，其余类型按值返回
func cloneComponent(comp interface{}) interface{} {
	v := reflect.ValueOf(comp)
	if v.Kind() != reflect.Ptr || v.IsNil() || v.Elem().Kind() != reflect.Struct {
		return comp
	}
	cp := reflect.New(v.Elem().Type())
	cp.Elem().Set(v.Elem())
	return cp.Interface()
}

// RemoveMarkedEntities 清理所有标记删除的实体
func (em *EntityManager) RemoveMarkedEntities() {
	for _, id := range em.entitiesToDestroy {
		delete(em.components, id)
	}
	em.entitiesToDestroy = em.entitiesToDestroy[:0] // 清空切片
}

// GetEntitiesWith 查询拥有指定组件类型组合的所有实体
// 参数: componentTypes ...reflect.Type - 需要的组件类型列表
// 返回: []EntityID - 满足条件的实体ID列表（按 ID 升序）
func (em *EntityManager) GetEntitiesWith(componentTypes ...reflect.Type) []EntityID {
	return em.Query(NewQuery().WithAll(componentTypes...))
}

// Query 返回匹配查询条件的实体，按 ID 升序排列
//
// 固定的顺序让并行遍历的分块结果可复现。
func (em *EntityManager) Query(q *Query) []EntityID {
	result := make([]EntityID, 0)

	for id, compMap := range em.components {
		if q.matches(compMap) {
			result = append(result, id)
		}
	}

	sort.Slice(result, func(i, j int) bool { return result[i] < result[j] })
	return result
}
