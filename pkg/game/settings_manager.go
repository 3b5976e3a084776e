package game

import (
	"math"

	"github.com/quasilyte/gdata/v2"
	"github.com/rotisserie/eris"
	"github.com/rs/zerolog"
	"gopkg.in/yaml.v3"
)

// 查看器设置范围
const (
	MinRateScale    = 0.1
	MaxRateScale    = 4.0
	MinEmitterCount = 1
	MaxEmitterCount = 16
)

// ViewerSettings 粒子查看器设置
type ViewerSettings struct {
	// 发射器设置
	Preset       string  `yaml:"preset"`       // 当前发射器预设名（空 = 配置中的第一个）
	EmitterCount int     `yaml:"emitterCount"` // 环绕中心旋转的发射器数量 1 ~ 16
	RateScale    float64 `yaml:"rateScale"`    // 发射速率倍率 0.1 ~ 4.0

	// 显示设置
	ShowHUD    bool `yaml:"showHUD"`    // 是否显示统计信息
	Fullscreen bool `yaml:"fullscreen"` // 启动时是否全屏
}

// DefaultSettings 返回默认设置
func DefaultSettings() *ViewerSettings {
	return &ViewerSettings{
		Preset:       "",
		EmitterCount: 3,
		RateScale:    1.0,
		ShowHUD:      true,
		Fullscreen:   false,
	}
}

// SettingsManager 设置管理器
// 负责查看器设置的加载、保存和内存管理
type SettingsManager struct {
	gdataManager *gdata.Manager  // gdata 跨平台存储管理器，可为 nil（降级模式）
	settings     *ViewerSettings // 当前设置
	logger       zerolog.Logger
}

// 存储路径常量
const (
	settingsObject   = "settings"
	settingsProperty = "viewer"
)

// NewSettingsManager 创建新的设置管理器实例
//
// 参数：
//   - gdataManager: gdata 跨平台存储管理器，可为 nil（降级模式，仅内存设置）
//   - logger: 日志器
//
// 返回：
//   - *SettingsManager: 设置管理器实例（加载失败时使用默认设置）
func NewSettingsManager(gdataManager *gdata.Manager, logger zerolog.Logger) *SettingsManager {
	sm := &SettingsManager{
		gdataManager: gdataManager,
		settings:     DefaultSettings(),
		logger:       logger.With().Str("component", "SettingsManager").Logger(),
	}

	// 尝试加载已保存的设置
	if err := sm.Load(); err != nil {
		// 加载失败不是致命错误，使用默认设置
		sm.logger.Warn().Err(err).Msg("failed to load settings, using defaults")
	}

	return sm
}

// Load 从 gdata 加载设置
//
// 如果 gdataManager 为 nil 或文件不存在，使用默认设置
//
// 返回：
//   - error: 如果读取或反序列化失败返回错误
func (sm *SettingsManager) Load() error {
	// 降级模式：无法持久化，使用默认设置
	if sm.gdataManager == nil {
		sm.settings = DefaultSettings()
		return nil
	}

	if !sm.gdataManager.ObjectPropExists(settingsObject, settingsProperty) {
		sm.settings = DefaultSettings()
		return nil
	}

	data, err := sm.gdataManager.LoadObjectProp(settingsObject, settingsProperty)
	if err != nil {
		sm.settings = DefaultSettings()
		return eris.Wrap(err, "failed to load settings")
	}

	loaded := DefaultSettings()
	if err := yaml.Unmarshal(data, loaded); err != nil {
		sm.settings = DefaultSettings()
		return eris.Wrap(err, "failed to unmarshal settings")
	}

	// 旧文件或手工修改的值可能越界
	loaded.RateScale = clampFloat(loaded.RateScale, MinRateScale, MaxRateScale)
	loaded.EmitterCount = clampInt(loaded.EmitterCount, MinEmitterCount, MaxEmitterCount)

	sm.settings = loaded
	sm.logger.Debug().Str("preset", loaded.Preset).Msg("settings loaded")
	return nil
}

// Save 保存设置到 gdata
//
// 如果 gdataManager 为 nil，返回 nil（降级模式，不报错）
func (sm *SettingsManager) Save() error {
	if sm.gdataManager == nil {
		return nil
	}

	data, err := yaml.Marshal(sm.settings)
	if err != nil {
		return eris.Wrap(err, "failed to marshal settings")
	}

	if err := sm.gdataManager.SaveObjectProp(settingsObject, settingsProperty, data); err != nil {
		return eris.Wrap(err, "failed to save settings")
	}

	sm.logger.Debug().Msg("settings saved")
	return nil
}

// IsPersistent 报告设置是否可以持久化
func (sm *SettingsManager) IsPersistent() bool {
	return sm.gdataManager != nil
}

// GetSettings 获取当前设置
func (sm *SettingsManager) GetSettings() *ViewerSettings {
	return sm.settings
}

// SetPreset 设置当前发射器预设
// 注意：仅修改内存中的设置，需调用 Save() 方法持久化
func (sm *SettingsManager) SetPreset(name string) {
	sm.settings.Preset = name
}

// SetRateScale 设置发射速率倍率
//
// 倍率会被限制在 MinRateScale ~ MaxRateScale 范围内
// 注意：仅修改内存中的设置，需调用 Save() 方法持久化
//
// 参数：
//   - scale: 速率倍率
func (sm *SettingsManager) SetRateScale(scale float64) {
	sm.settings.RateScale = clampFloat(scale, MinRateScale, MaxRateScale)
}

// SetEmitterCount 设置发射器数量（1 ~ 16）
func (sm *SettingsManager) SetEmitterCount(n int) {
	sm.settings.EmitterCount = clampInt(n, MinEmitterCount, MaxEmitterCount)
}

// SetShowHUD 设置统计信息显示开关
func (sm *SettingsManager) SetShowHUD(show bool) {
	sm.settings.ShowHUD = show
}

// SetFullscreen 设置全屏模式
func (sm *SettingsManager) SetFullscreen(enabled bool) {
	sm.settings.Fullscreen = enabled
}

func clampFloat(v, lo, hi float64) float64 {
	if math.IsNaN(v) || v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}

func clampInt(v, lo, hi int) int {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
