package game

import (
	"math"
	"sync"
	"time"
)

// TimeSource 提供帧间隔和单调时间戳
//
// DeltaTime 是上一帧到本帧经过的秒数（>= 0）；
// TimestampMS 是单调递增的毫秒时间戳，仅用于生成每帧的随机种子。
type TimeSource interface {
	DeltaTime() float32
	TimestampMS() uint32
}

// FrameClock 固定步长的帧时钟
//
// ebiten 以固定 TPS 调用 Update，因此每帧的 dt 为 1/TPS；
// 时间戳取自创建时刻起的单调时钟。
type FrameClock struct {
	mu    sync.Mutex
	step  float32
	delta float32
	start time.Time
	now   func() time.Time
}

// NewFrameClock 创建帧时钟
//
// 参数：
//   - tickRate: 每秒帧数（<= 0 时按 60 处理）
func NewFrameClock(tickRate int) *FrameClock {
	if tickRate <= 0 {
		tickRate = 60
	}
	return &FrameClock{
		step:  1 / float32(tickRate),
		start: time.Now(),
		now:   time.Now,
	}
}

// Tick 推进一帧
func (c *FrameClock) Tick() {
	c.mu.Lock()
	c.delta = c.step
	c.mu.Unlock()
}

// Pause 暂停期间 dt 为 0
func (c *FrameClock) Pause() {
	c.mu.Lock()
	c.delta = 0
	c.mu.Unlock()
}

// DeltaTime 返回本帧 dt（秒）
func (c *FrameClock) DeltaTime() float32 {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.delta
}

// TimestampMS 返回自时钟创建以来的毫秒数（按 uint32 回绕）
func (c *FrameClock) TimestampMS() uint32 {
	elapsed := c.now().Sub(c.start).Milliseconds()
	return uint32(elapsed & math.MaxUint32)
}

// ManualClock 完全由调用者控制的时钟，用于测试和无界面运行
type ManualClock struct {
	mu        sync.Mutex
	delta     float32
	timestamp uint32
}

// NewManualClock 创建手动时钟
func NewManualClock(delta float32, timestampMS uint32) *ManualClock {
	return &ManualClock{delta: delta, timestamp: timestampMS}
}

// Set 同时设置 dt 和时间戳
func (c *ManualClock) Set(delta float32, timestampMS uint32) {
	c.mu.Lock()
	c.delta = delta
	c.timestamp = timestampMS
	c.mu.Unlock()
}

// Advance 时间戳前进 dt 对应的毫秒数，dt 保持不变
func (c *ManualClock) Advance() {
	c.mu.Lock()
	c.timestamp += uint32(c.delta * 1000)
	c.mu.Unlock()
}

// DeltaTime 返回 dt（秒）
func (c *ManualClock) DeltaTime() float32 {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.delta
}

// TimestampMS 返回当前时间戳
func (c *ManualClock) TimestampMS() uint32 {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.timestamp
}
