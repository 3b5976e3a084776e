//go:build mobile

// Package mobile 提供 ebitenmobile 绑定入口
//
// 此包用于构建 Android (.aar) 和 iOS (.xcframework) 包。
// 使用 ebitenmobile 工具构建时会自动调用 init() 函数。
//
// 此文件仅在使用 -tags mobile 构建时编译。
//
//	# Android
//	ebitenmobile bind -target android -tags mobile -androidapi 23 -javapkg com.gonewx.particlefx -o build/android/particlefx.aar -v ./mobile
//
//	# iOS (仅 macOS)
//	ebitenmobile bind -target ios -tags mobile -o build/ios/ParticleFX.xcframework -v ./mobile
package mobile

import (
	"fmt"

	"github.com/hajimehoshi/ebiten/v2/mobile"

	"github.com/gonewx/particlefx/pkg/app"
	"github.com/gonewx/particlefx/pkg/embedded"
)

func init() {
	// 初始化嵌入数据，dataFS 在 embed.go 中声明
	embedded.Init(dataFS)

	viewer, err := app.Setup(app.Options{
		Verbose:    true,
		Persistent: true,
	})
	if err != nil {
		panic(fmt.Sprintf("查看器初始化失败: %+v", err))
	}

	// 注册到 ebitenmobile
	mobile.SetGame(viewer)
}

// Dummy 是一个空导出函数，确保包被 ebitenmobile 正确识别
func Dummy() {}
