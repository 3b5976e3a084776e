package ecs

import "reflect"

// Query 描述实体查询条件
//
// 用法：
//
//	q := ecs.NewQuery().
//		WithAll(ecs.TypeOf[*components.EmitterComponent]()).
//		WithNone(ecs.TypeOf[*components.ParticleComponent]())
//	ids := em.Query(q)
//
// 默认不匹配带 Prefab 标记的模板实体。
type Query struct {
	all  []reflect.Type
	none []reflect.Type
}

// NewQuery 创建空查询（匹配所有非 Prefab 实体）
func NewQuery() *Query {
	return &Query{}
}

// WithAll 要求实体拥有全部给定组件
func (q *Query) WithAll(componentTypes ...reflect.Type) *Query {
	q.all = append(q.all, componentTypes...)
	return q
}

// WithNone 要求实体不拥有任何给定组件
func (q *Query) WithNone(componentTypes ...reflect.Type) *Query {
	q.none = append(q.none, componentTypes...)
	return q
}

// Entities 在给定 EntityManager 上执行查询
func (q *Query) Entities(em *EntityManager) []EntityID {
	return em.Query(q)
}

// IsEmpty 报告查询当前是否没有匹配实体
// 发射与初始化系统用它做运行门槛，找到第一个匹配即返回
func (q *Query) IsEmpty(em *EntityManager) bool {
	for _, compMap := range em.components {
		if q.matches(compMap) {
			return false
		}
	}
	return true
}

func (q *Query) matches(compMap map[reflect.Type]interface{}) bool {
	if _, isPrefab := compMap[prefabType]; isPrefab {
		return false
	}
	for _, ct := range q.all {
		if _, found := compMap[ct]; !found {
			return false
		}
	}
	for _, ct := range q.none {
		if _, found := compMap[ct]; found {
			return false
		}
	}
	return true
}
