package components

import "github.com/go-gl/mathgl/mgl32"

// TransformComponent 世界坐标下的位置和朝向
//
// 游戏逻辑是 2D 的（XY 平面），朝向用绕 Z 轴的四元数表示，
// 局部 +Y 轴是实体的"前方"。
type TransformComponent struct {
	Position mgl32.Vec3
	Rotation mgl32.Quat
}

// ScaleComponent 非均匀缩放
//
// 粒子使用 (宽, 宽+长, 宽) 的约定：长度沿前方（Y 轴）延伸。
type ScaleComponent struct {
	Value mgl32.Vec3
}
