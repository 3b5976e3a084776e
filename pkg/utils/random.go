package utils

import "math/rand/v2"

// ParticleRandom 是单个粒子私有的随机数流
//
// 流由 (帧种子, 批内序号) 唯一确定：同一帧内不同序号的粒子得到不同序列，
// 相同输入总能复现相同序列。不共享任何可变状态，可在并行分块中直接使用。
type ParticleRandom struct {
	r *rand.Rand
}

// NewParticleRandom 为批内序号 index 派生随机流
func NewParticleRandom(seed uint32, index int) ParticleRandom {
	return ParticleRandom{
		r: rand.New(rand.NewPCG(uint64(seed), mixIndex(uint64(index)))),
	}
}

// mixIndex 是 splitmix64 的终结函数，让相邻序号得到相距很远的 PCG 流
func mixIndex(x uint64) uint64 {
	x += 0x9e3779b97f4a7c15
	x = (x ^ (x >> 30)) * 0xbf58476d1ce4e5b9
	x = (x ^ (x >> 27)) * 0x94d049bb133111eb
	return x ^ (x >> 31)
}

// NextFloat 返回 [min, max) 内均匀分布的随机数；min == max 时返回 min
func (p ParticleRandom) NextFloat(min, max float32) float32 {
	return min + (max-min)*p.r.Float32()
}
