package config

import (
	"os"

	"github.com/rotisserie/eris"
	"gopkg.in/yaml.v3"
)

// 默认值
const (
	DefaultChunkSize = 64
	DefaultTickRate  = 60
	DefaultLogLevel  = "info"

	// DefaultMaxSpawnPerTick 未配置 maxSpawnPerTick 时单个发射器每帧的生成上限
	DefaultMaxSpawnPerTick = 4096
)

// ParticleConfig 粒子系统配置
//
// 配置文件位置: data/particles.yaml
//
// 包含三部分：
//   - system: 并行遍历与日志等运行参数
//   - prefabs: 粒子模板（渲染形状、混合模式）
//   - emitters: 发射器预设，引用 prefabs 中的模板名
type ParticleConfig struct {
	System   SystemConfig    `yaml:"system"`
	Prefabs  []PrefabConfig  `yaml:"prefabs"`
	Emitters []EmitterPreset `yaml:"emitters"`
}

// SystemConfig 运行参数
type SystemConfig struct {
	// ChunkSize 每个并行分块的实体数（0 = 默认 64）
	ChunkSize int `yaml:"chunkSize"`

	// Workers 并行 goroutine 上限（0 = GOMAXPROCS）
	Workers int `yaml:"workers"`

	// MaxSpawnPerTick 单个发射器每帧最多生成的粒子数
	// （0 = 默认 DefaultMaxSpawnPerTick，负数 = 不限制）
	MaxSpawnPerTick int `yaml:"maxSpawnPerTick"`

	// TickRate 每秒帧数（0 = 默认 60）
	TickRate int `yaml:"tickRate"`

	// LogLevel 日志级别（trace/debug/info/warn/error）
	LogLevel string `yaml:"logLevel"`
}

// PrefabConfig 粒子模板
type PrefabConfig struct {
	Name     string     `yaml:"name"`
	Shape    string     `yaml:"shape"`    // "streak"（默认）或 "quad"
	Additive bool       `yaml:"additive"` // 是否使用叠加混合
	Color    [4]float32 `yaml:"color"`    // 模板默认颜色，生成时会被 startColor 覆盖
}

// EmitterPreset 发射器预设
//
// endColor/endWidth/endLength 省略时与起始值相同，即不产生过渡效果。
type EmitterPreset struct {
	Name   string `yaml:"name"`
	Prefab string `yaml:"prefab"`
	Active *bool  `yaml:"active"` // 省略时为 true

	ParticlesPerSecond float32    `yaml:"particlesPerSecond"`
	SpawnOffset        [2]float32 `yaml:"spawnOffset"`
	SpawnSpread        float32    `yaml:"spawnSpread"`
	AngleSpread        float32    `yaml:"angleSpread"` // 度
	VelocityBase       float32    `yaml:"velocityBase"`
	VelocityRandom     float32    `yaml:"velocityRandom"`

	StartColor  [4]float32  `yaml:"startColor"`
	EndColor    *[4]float32 `yaml:"endColor"`
	StartWidth  float32     `yaml:"startWidth"`
	EndWidth    *float32    `yaml:"endWidth"`
	StartLength float32     `yaml:"startLength"`
	EndLength   *float32    `yaml:"endLength"`

	Lifetime float32 `yaml:"lifetime"` // 秒
}

// IsActive 返回预设是否默认激活
func (p *EmitterPreset) IsActive() bool {
	return p.Active == nil || *p.Active
}

// ResolvedEndColor 返回结束颜色（省略时等于起始颜色）
func (p *EmitterPreset) ResolvedEndColor() [4]float32 {
	if p.EndColor == nil {
		return p.StartColor
	}
	return *p.EndColor
}

// ResolvedEndWidth 返回结束宽度（省略时等于起始宽度）
func (p *EmitterPreset) ResolvedEndWidth() float32 {
	if p.EndWidth == nil {
		return p.StartWidth
	}
	return *p.EndWidth
}

// ResolvedEndLength 返回结束长度（省略时等于起始长度）
func (p *EmitterPreset) ResolvedEndLength() float32 {
	if p.EndLength == nil {
		return p.StartLength
	}
	return *p.EndLength
}

// LoadParticleConfig 加载粒子系统配置
//
// 参数:
//   - path: 配置文件路径（如 "data/particles.yaml"）
//
// 返回:
//   - *ParticleConfig: 已填充默认值并通过验证的配置
//   - error: 读取、解析或验证失败时返回错误
func LoadParticleConfig(path string) (*ParticleConfig, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, eris.Wrapf(err, "failed to read particle config %s", path)
	}
	return ParseParticleConfig(data)
}

// ParseParticleConfig 从 YAML 数据解析粒子系统配置
func ParseParticleConfig(data []byte) (*ParticleConfig, error) {
	var config ParticleConfig
	if err := yaml.Unmarshal(data, &config); err != nil {
		return nil, eris.Wrap(err, "failed to parse particle config")
	}

	config.ApplyDefaults()

	if err := config.Validate(); err != nil {
		return nil, eris.Wrap(err, "invalid particle config")
	}

	return &config, nil
}

// ApplyDefaults 为未设置的运行参数和模板形状填充默认值
func (c *ParticleConfig) ApplyDefaults() {
	if c.System.ChunkSize == 0 {
		c.System.ChunkSize = DefaultChunkSize
	}
	if c.System.TickRate == 0 {
		c.System.TickRate = DefaultTickRate
	}
	if c.System.MaxSpawnPerTick == 0 {
		c.System.MaxSpawnPerTick = DefaultMaxSpawnPerTick
	}
	if c.System.LogLevel == "" {
		c.System.LogLevel = DefaultLogLevel
	}
	for i := range c.Prefabs {
		if c.Prefabs[i].Shape == "" {
			c.Prefabs[i].Shape = "streak"
		}
	}
}

// Validate 验证配置有效性
//
// 检查：
//   - 运行参数不能为负（maxSpawnPerTick 除外，负数表示不限制）
//   - 模板名唯一且形状合法
//   - 发射器名唯一、引用的模板存在、生命周期为正、速率与随机范围非负
func (c *ParticleConfig) Validate() error {
	if c.System.ChunkSize < 0 {
		return eris.Errorf("chunkSize must be >= 0, got %d", c.System.ChunkSize)
	}
	if c.System.Workers < 0 {
		return eris.Errorf("workers must be >= 0, got %d", c.System.Workers)
	}
	if c.System.TickRate < 0 {
		return eris.Errorf("tickRate must be >= 0, got %d", c.System.TickRate)
	}

	prefabs := make(map[string]bool, len(c.Prefabs))
	for _, p := range c.Prefabs {
		if p.Name == "" {
			return eris.New("prefab name must not be empty")
		}
		if prefabs[p.Name] {
			return eris.Errorf("duplicate prefab %q", p.Name)
		}
		if p.Shape != "streak" && p.Shape != "quad" {
			return eris.Errorf("prefab %q: unknown shape %q", p.Name, p.Shape)
		}
		prefabs[p.Name] = true
	}

	emitters := make(map[string]bool, len(c.Emitters))
	for _, e := range c.Emitters {
		if e.Name == "" {
			return eris.New("emitter name must not be empty")
		}
		if emitters[e.Name] {
			return eris.Errorf("duplicate emitter %q", e.Name)
		}
		emitters[e.Name] = true

		if !prefabs[e.Prefab] {
			return eris.Errorf("emitter %q: unknown prefab %q", e.Name, e.Prefab)
		}
		if e.Lifetime <= 0 {
			return eris.Errorf("emitter %q: lifetime must be > 0, got %.3f", e.Name, e.Lifetime)
		}
		if e.ParticlesPerSecond < 0 {
			return eris.Errorf("emitter %q: particlesPerSecond must be >= 0, got %.3f", e.Name, e.ParticlesPerSecond)
		}
		if e.SpawnSpread < 0 || e.AngleSpread < 0 || e.VelocityBase < 0 || e.VelocityRandom < 0 {
			return eris.Errorf("emitter %q: spreads and velocities must be >= 0", e.Name)
		}
	}

	return nil
}

// Emitter 按名字查找发射器预设
func (c *ParticleConfig) Emitter(name string) (*EmitterPreset, bool) {
	for i := range c.Emitters {
		if c.Emitters[i].Name == name {
			return &c.Emitters[i], true
		}
	}
	return nil, false
}

// EmitterNames 返回所有发射器预设名（保持文件中的顺序）
func (c *ParticleConfig) EmitterNames() []string {
	names := make([]string, 0, len(c.Emitters))
	for _, e := range c.Emitters {
		names = append(names, e.Name)
	}
	return names
}
