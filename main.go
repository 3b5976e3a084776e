package main

import (
	"errors"
	"flag"
	"fmt"
	"os"

	"github.com/hajimehoshi/ebiten/v2"

	"github.com/gonewx/particlefx/pkg/app"
	"github.com/gonewx/particlefx/pkg/embedded"
)

var (
	verboseFlag = flag.Bool("verbose", false, "Enable debug logging")
	presetFlag  = flag.String("preset", "", "Start with the given emitter preset")
	configFlag  = flag.String("config", "", "Particle config file (default: embedded data/particles.yaml)")
)

func main() {
	flag.Parse()

	// 初始化嵌入数据，必须在加载配置之前
	embedded.Init(dataFS)

	viewer, err := app.Setup(app.Options{
		ConfigPath: *configFlag,
		Preset:     *presetFlag,
		Verbose:    *verboseFlag,
		Persistent: true,
	})
	if err != nil {
		fmt.Fprintf(os.Stderr, "初始化失败: %+v\n", err)
		os.Exit(1)
	}

	w, h := viewer.Layout(0, 0)
	ebiten.SetWindowSize(w, h)
	ebiten.SetWindowTitle("particlefx")
	ebiten.SetWindowResizingMode(ebiten.WindowResizingModeEnabled)
	ebiten.SetTPS(viewer.TickRate())
	ebiten.SetFullscreen(viewer.Settings().GetSettings().Fullscreen)

	runErr := ebiten.RunGame(viewer)

	// 退出时保存设置
	if err := viewer.Settings().Save(); err != nil {
		fmt.Fprintf(os.Stderr, "保存设置失败: %v\n", err)
	}

	if runErr != nil && !errors.Is(runErr, ebiten.Termination) {
		fmt.Fprintf(os.Stderr, "%+v\n", runErr)
		os.Exit(1)
	}
}
