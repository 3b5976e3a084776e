package utils

import "github.com/go-gl/mathgl/mgl32"

// Interpolation (插值)
//
// 粒子的颜色和尺寸随年龄在起止值之间线性变化。
// t 为寿命进度 ∈ [0, 1]，超出范围时不做截断（由调用方保证）。

// Lerp 线性插值
// t=0 返回 a，t=1 返回 b
func Lerp(a, b, t float32) float32 {
	return a + (b-a)*t
}

// LerpVec4 对 RGBA 等四维向量逐分量插值
func LerpVec4(a, b mgl32.Vec4, t float32) mgl32.Vec4 {
	return a.Add(b.Sub(a).Mul(t))
}
