package app

import (
	"io"
	"os"

	"github.com/quasilyte/gdata/v2"
	"github.com/rotisserie/eris"
	"github.com/rs/zerolog"

	"github.com/gonewx/particlefx/pkg/config"
	"github.com/gonewx/particlefx/pkg/embedded"
	"github.com/gonewx/particlefx/pkg/game"
	"github.com/gonewx/particlefx/pkg/utils"
)

// EmbeddedConfigPath 嵌入的默认粒子配置路径
const EmbeddedConfigPath = "data/particles.yaml"

// AppName gdata 存储使用的应用名
const AppName = "particlefx"

// Options 查看器启动参数
type Options struct {
	// ConfigPath 粒子配置文件路径，为空时使用嵌入的 data/particles.yaml
	ConfigPath string
	// Preset 启动时使用的预设，为空时使用已保存的设置
	Preset string
	// Verbose 使用 debug 日志级别（覆盖配置中的 logLevel）
	Verbose bool
	// LogOutput 日志输出，默认 os.Stderr
	LogOutput io.Writer
	// Persistent 是否通过 gdata 保存设置
	Persistent bool
}

// LoadConfig 加载粒子配置
//
// path 为空时从 embedded 包读取；调用前必须已经调用 embedded.Init()。
func LoadConfig(path string) (*config.ParticleConfig, error) {
	if path != "" {
		return config.LoadParticleConfig(path)
	}
	data, err := embedded.ReadFile(EmbeddedConfigPath)
	if err != nil {
		return nil, err
	}
	return config.ParseParticleConfig(data)
}

// Setup 加载配置、创建日志器与设置管理器，并创建查看器
func Setup(opts Options) (*App, error) {
	cfg, err := LoadConfig(opts.ConfigPath)
	if err != nil {
		return nil, eris.Wrap(err, "粒子配置加载失败")
	}

	out := opts.LogOutput
	if out == nil {
		out = os.Stderr
	}
	level := cfg.System.LogLevel
	if opts.Verbose {
		level = zerolog.LevelDebugValue
	}
	logger, err := utils.NewLogger(out, level, true)
	if err != nil {
		return nil, err
	}

	var store *gdata.Manager
	if opts.Persistent {
		if err := utils.EnsureStorageDir(); err != nil {
			logger.Warn().Err(err).Msg("storage directory unavailable")
		}
		store, err = gdata.Open(gdata.Config{AppName: AppName})
		if err != nil {
			// 存储不可用不是致命错误，设置只保存在内存中
			logger.Warn().Err(err).Msg("settings storage unavailable")
			store = nil
		}
	}

	settings := game.NewSettingsManager(store, logger)
	if opts.Preset != "" {
		if _, ok := cfg.Emitter(opts.Preset); !ok {
			return nil, eris.Errorf("unknown preset %q (available: %v)", opts.Preset, cfg.EmitterNames())
		}
		settings.SetPreset(opts.Preset)
	}

	return NewApp(Config{
		Particles: cfg,
		Settings:  settings,
		Logger:    logger,
	})
}
