//go:build android

package utils

import (
	"os"
	"path/filepath"
	"strings"

	"github.com/rotisserie/eris"
)

// EnsureStorageDir 确保 Android 存储目录存在并可写
// gdata 在 Android 上使用 /data/data/{package}/ 作为存储路径，
// 但不会预先创建子目录，设置保存前需要先调用。
func EnsureStorageDir() error {
	dir := GetStoragePath()
	if dir == "" {
		return eris.New("failed to detect Android package name")
	}
	settingsDir := filepath.Join(dir, "settings")

	if err := os.MkdirAll(settingsDir, 0755); err != nil {
		return eris.Wrapf(err, "failed to create settings directory %s", settingsDir)
	}

	probe := filepath.Join(settingsDir, ".write_test")
	if err := os.WriteFile(probe, []byte("test"), 0644); err != nil {
		return eris.Wrapf(err, "settings directory %s is not writable", settingsDir)
	}
	return os.Remove(probe)
}

// GetStoragePath 获取 Android 存储路径 /data/data/{package}
// 包名从 /proc/self/cmdline 读取，失败时返回空字符串
func GetStoragePath() string {
	data, err := os.ReadFile("/proc/self/cmdline")
	if err != nil {
		return ""
	}
	pkg := strings.Map(func(r rune) rune {
		if r == 0 || r == '\n' {
			return -1
		}
		return r
	}, string(data))
	if pkg == "" {
		return ""
	}
	return filepath.Join("/data/data", pkg)
}
