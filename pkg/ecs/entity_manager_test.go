package ecs

import (
	"errors"
	"reflect"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// 测试组件类型定义
type testPositionComponent struct {
	X, Y float64
}

type testVelocityComponent struct {
	VX, VY float64
}

type testTagComponent struct{}

func TestCreateEntity(t *testing.T) {
	em := NewEntityManager()
	id1 := em.CreateEntity()
	id2 := em.CreateEntity()

	assert.NotEqual(t, id1, id2, "实体 ID 应唯一")
	assert.Equal(t, EntityID(1), id1, "ID 从 1 开始")
	assert.Equal(t, EntityID(2), id2)
	assert.False(t, id1.IsDeferred())
	assert.Equal(t, 2, em.EntityCount())
}

func TestAddAndGetComponent(t *testing.T) {
	em := NewEntityManager()
	id := em.CreateEntity()

	em.AddComponent(id, &testPositionComponent{X: 100, Y: 200})

	comp, found := em.GetComponent(id, reflect.TypeOf(&testPositionComponent{}))
	require.True(t, found)
	assert.Equal(t, &testPositionComponent{X: 100, Y: 200}, comp)

	pos, ok := GetComponent[*testPositionComponent](em, id)
	require.True(t, ok)
	assert.Same(t, comp, pos)
}

func TestAddComponent_MissingEntityIgnored(t *testing.T) {
	em := NewEntityManager()

	em.AddComponent(42, &testPositionComponent{})

	assert.False(t, em.Exists(42))
	assert.False(t, HasComponent[*testPositionComponent](em, 42))
}

func TestHasAndRemoveComponent(t *testing.T) {
	em := NewEntityManager()
	id := em.CreateEntity()
	em.AddComponent(id, &testPositionComponent{})

	assert.True(t, HasComponent[*testPositionComponent](em, id))
	assert.False(t, HasComponent[*testVelocityComponent](em, id))

	em.RemoveComponent(id, TypeOf[*testPositionComponent]())
	assert.False(t, HasComponent[*testPositionComponent](em, id))

	// 移除不存在的组件是空操作
	em.RemoveComponent(id, TypeOf[*testVelocityComponent]())
	assert.True(t, em.Exists(id))
}

func TestSetComponent(t *testing.T) {
	em := NewEntityManager()
	id := em.CreateEntity()
	em.AddComponent(id, &testPositionComponent{X: 1})

	require.NoError(t, em.SetComponent(id, &testPositionComponent{X: 2}))
	pos, _ := GetComponent[*testPositionComponent](em, id)
	assert.Equal(t, 2.0, pos.X)

	err := em.SetComponent(id, &testVelocityComponent{})
	assert.True(t, errors.Is(err, ErrComponentMissing))

	err = em.SetComponent(99, &testPositionComponent{})
	assert.True(t, errors.Is(err, ErrEntityNotFound))
}

func TestDestroyEntity(t *testing.T) {
	em := NewEntityManager()
	id := em.CreateEntity()
	em.AddComponent(id, &testPositionComponent{X: 100, Y: 200})

	em.DestroyEntity(id)
	assert.True(t, em.Exists(id), "标记删除后在清理前仍然存在")

	em.RemoveMarkedEntities()
	assert.False(t, em.Exists(id))
	_, found := em.GetComponent(id, reflect.TypeOf(&testPositionComponent{}))
	assert.False(t, found)
}

func TestDestroyMultipleEntities(t *testing.T) {
	em := NewEntityManager()
	ids := []EntityID{em.CreateEntity(), em.CreateEntity(), em.CreateEntity()}
	for _, id := range ids {
		em.AddComponent(id, &testPositionComponent{})
	}

	em.DestroyEntity(ids[0])
	em.DestroyEntity(ids[2])
	em.RemoveMarkedEntities()

	assert.Equal(t, []EntityID{ids[1]}, GetEntitiesWith1[*testPositionComponent](em))
}

func TestGetEntitiesWith(t *testing.T) {
	em := NewEntityManager()

	// 实体1: 只有Position
	e1 := em.CreateEntity()
	em.AddComponent(e1, &testPositionComponent{})

	// 实体2: Position + Velocity
	e2 := em.CreateEntity()
	em.AddComponent(e2, &testPositionComponent{})
	em.AddComponent(e2, &testVelocityComponent{})

	// 实体3: 只有Velocity
	e3 := em.CreateEntity()
	em.AddComponent(e3, &testVelocityComponent{})

	assert.Equal(t, []EntityID{e1, e2}, GetEntitiesWith1[*testPositionComponent](em))
	assert.Equal(t, []EntityID{e2, e3}, GetEntitiesWith1[*testVelocityComponent](em))
	assert.Equal(t, []EntityID{e2}, GetEntitiesWith2[*testPositionComponent, *testVelocityComponent](em))
	assert.Empty(t, em.GetEntitiesWith(TypeOf[*testPositionComponent](), TypeOf[*testVelocityComponent](), TypeOf[*testTagComponent]()))
}

func TestInstantiate(t *testing.T) {
	em := NewEntityManager()
	prefab := em.CreateEntity()
	em.AddComponent(prefab, &Prefab{})
	em.AddComponent(prefab, &testPositionComponent{X: 3, Y: 4})
	em.AddComponent(prefab, &testTagComponent{})

	id, err := em.Instantiate(prefab)
	require.NoError(t, err)
	assert.NotEqual(t, prefab, id)

	assert.False(t, HasComponent[*Prefab](em, id), "Prefab 标记不应被复制")
	assert.True(t, HasComponent[*testTagComponent](em, id))

	pos, ok := GetComponent[*testPositionComponent](em, id)
	require.True(t, ok)
	assert.Equal(t, testPositionComponent{X: 3, Y: 4}, *pos)

	// 修改实例不影响模板
	pos.X = 100
	src, _ := GetComponent[*testPositionComponent](em, prefab)
	assert.Equal(t, 3.0, src.X)

	_, err = em.Instantiate(999)
	assert.True(t, errors.Is(err, ErrEntityNotFound))
}
