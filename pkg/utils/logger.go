package utils

import (
	"io"
	"strings"

	"github.com/rotisserie/eris"
	"github.com/rs/zerolog"
)

// NewLogger 创建根日志器
//
// level 为空时使用 info；console 为 true 时输出人类可读格式（查看器使用），
// 否则输出 JSON（无界面运行器使用）。
func NewLogger(w io.Writer, level string, console bool) (zerolog.Logger, error) {
	if level == "" {
		level = zerolog.LevelInfoValue
	}
	lvl, err := zerolog.ParseLevel(strings.ToLower(level))
	if err != nil {
		return zerolog.Nop(), eris.Wrapf(err, "invalid log level %q", level)
	}
	if console {
		w = zerolog.ConsoleWriter{Out: w, TimeFormat: "15:04:05.000"}
	}
	return zerolog.New(w).Level(lvl).With().Timestamp().Logger(), nil
}

// SystemLogger 创建带 {"system": name} 字段的子日志器
func SystemLogger(l zerolog.Logger, name string) zerolog.Logger {
	return l.With().Str("system", name).Logger()
}
