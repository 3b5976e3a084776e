// Package app 提供粒子查看器的核心包装器
//
// 该包将查看器初始化逻辑从 main 包提取出来，使其可以被桌面端和移动端共用。
// 桌面端通过 main.go 调用 Setup()，移动端通过 mobile/mobile.go 调用。
package app

import (
	"fmt"
	"image/color"
	"math"

	"github.com/go-gl/mathgl/mgl32"
	"github.com/rotisserie/eris"
	"github.com/rs/zerolog"

	"github.com/hajimehoshi/ebiten/v2"
	"github.com/hajimehoshi/ebiten/v2/ebitenutil"
	"github.com/hajimehoshi/ebiten/v2/inpututil"

	"github.com/gonewx/particlefx/pkg/components"
	"github.com/gonewx/particlefx/pkg/config"
	"github.com/gonewx/particlefx/pkg/ecs"
	"github.com/gonewx/particlefx/pkg/entities"
	"github.com/gonewx/particlefx/pkg/game"
	"github.com/gonewx/particlefx/pkg/systems"
	"github.com/gonewx/particlefx/pkg/utils"
)

// 查看器默认窗口尺寸
const (
	DefaultWidth  = 800
	DefaultHeight = 600
)

// 环形发射器参数
const (
	ringRadius      = 150 // 发射器到屏幕中心的距离
	ringSpinDegPerS = 30  // 旋转速度（度/秒）
	rateScaleStep   = 0.25
)

// ErrNoPresets 配置中没有任何发射器预设
var ErrNoPresets = eris.New("particle config has no emitter presets")

// Config 定义应用启动配置
type Config struct {
	// Particles 已验证的粒子配置
	Particles *config.ParticleConfig
	// Settings 查看器设置，可为 nil（使用默认设置、不持久化）
	Settings *game.SettingsManager
	// Logger 根日志器
	Logger zerolog.Logger
	// Width/Height 逻辑屏幕尺寸（0 = 默认 800x600）
	Width  int
	Height int
}

// App 是粒子查看器，实现 ebiten.Game 接口
//
// 画面中心有若干个环绕旋转、朝外发射的发射器，鼠标点击可以添加固定发射器。
// 每个 tick 依次运行命令回放、发射、初始化、运动、老化、过渡系统。
type App struct {
	particles *config.ParticleConfig
	settings  *game.SettingsManager
	logger    zerolog.Logger

	em       *ecs.EntityManager
	clock    *game.FrameClock
	pipeline *systems.PresentationGroup
	registry *entities.PrefabRegistry
	renderer *ParticleRenderer

	ring   []ecs.EntityID // 环绕中心旋转的发射器
	placed []ecs.EntityID // 鼠标放置的发射器
	spin   float32        // 环的当前角度（度）

	presetIndex int
	paused      bool
	ticks       uint64

	particleQuery *ecs.Query

	width, height            int
	pendingWindowSizeReset   bool // 延迟设置窗口大小标志
	windowSizeResetCountdown int  // 延迟帧数
}

// NewApp 创建并初始化粒子查看器
func NewApp(cfg Config) (*App, error) {
	if cfg.Particles == nil {
		return nil, eris.New("particle config is required")
	}
	if len(cfg.Particles.Emitters) == 0 {
		return nil, ErrNoPresets
	}
	if cfg.Settings == nil {
		cfg.Settings = game.NewSettingsManager(nil, cfg.Logger)
	}
	if cfg.Width <= 0 {
		cfg.Width = DefaultWidth
	}
	if cfg.Height <= 0 {
		cfg.Height = DefaultHeight
	}

	em := ecs.NewEntityManager()
	clock := game.NewFrameClock(cfg.Particles.System.TickRate)

	pipeline := systems.NewPresentationGroup(systems.PresentationOptions{
		EntityManager: em,
		Time:          clock,
		Logger:        cfg.Logger,
		Traversal: ecs.TraversalOptions{
			ChunkSize: cfg.Particles.System.ChunkSize,
			Workers:   cfg.Particles.System.Workers,
		},
		MaxSpawnPerTick: cfg.Particles.System.MaxSpawnPerTick,
	})
	pipeline.Add(
		systems.NewParticleMotionSystem(em, clock),
		systems.NewParticleAgeSystem(em, pipeline.Commands, clock),
		systems.NewParticleTransitionSystem(em),
	)

	a := &App{
		particles: cfg.Particles,
		settings:  cfg.Settings,
		logger:    cfg.Logger.With().Str("component", "App").Logger(),
		em:        em,
		clock:     clock,
		pipeline:  pipeline,
		registry:  entities.RegisterPrefabs(em, cfg.Particles),
		renderer:  NewParticleRenderer(em, Camera{ScreenHeight: float32(cfg.Height)}),
		particleQuery: ecs.NewQuery().WithAll(
			ecs.TypeOf[*components.ParticleComponent](),
		),
		width:  cfg.Width,
		height: cfg.Height,
	}

	a.presetIndex = a.findPreset(cfg.Settings.GetSettings().Preset)
	if err := a.rebuildRing(); err != nil {
		return nil, err
	}

	a.logger.Info().
		Str("preset", a.Preset().Name).
		Int("emitters", len(a.ring)).
		Int("prefabs", len(a.registry.Names())).
		Msg("viewer initialized")

	return a, nil
}

// findPreset 返回预设下标，找不到时返回 0
func (a *App) findPreset(name string) int {
	for i, e := range a.particles.Emitters {
		if e.Name == name {
			return i
		}
	}
	if name != "" {
		a.logger.Warn().Str("preset", name).Msg("unknown preset, using first")
	}
	return 0
}

// Preset 返回当前发射器预设
func (a *App) Preset() *config.EmitterPreset {
	return &a.particles.Emitters[a.presetIndex]
}

// EntityManager 返回查看器使用的实体管理器
func (a *App) EntityManager() *ecs.EntityManager {
	return a.em
}

// Settings 返回设置管理器（用于退出时保存）
func (a *App) Settings() *game.SettingsManager {
	return a.settings
}

// EmitterCount 返回当前发射器总数（环形 + 放置）
func (a *App) EmitterCount() int {
	return len(a.ring) + len(a.placed)
}

// ParticleCount 返回当前粒子数
func (a *App) ParticleCount() int {
	return len(a.em.Query(a.particleQuery))
}

// TickRate 返回配置的每秒帧数
func (a *App) TickRate() int {
	return a.particles.System.TickRate
}

// IsPaused 返回是否暂停
func (a *App) IsPaused() bool {
	return a.paused
}

// emitterComponent 按当前预设和速率倍率生成发射器组件
func (a *App) emitterComponent() (*components.EmitterComponent, error) {
	preset := a.Preset()
	prefab, err := a.registry.Resolve(preset.Prefab)
	if err != nil {
		return nil, eris.Wrapf(err, "emitter preset %q", preset.Name)
	}
	emitter := entities.EmitterFromPreset(preset, prefab)
	emitter.ParticlesPerSecond *= float32(a.settings.GetSettings().RateScale)
	return &emitter, nil
}

// spawnEmitter 在世界坐标处创建当前预设的发射器
func (a *App) spawnEmitter(x, y, angleDeg float32) (ecs.EntityID, error) {
	emitter, err := a.emitterComponent()
	if err != nil {
		return 0, err
	}
	id := a.em.CreateEntity()
	a.em.AddComponent(id, emitter)
	a.em.AddComponent(id, &components.TransformComponent{
		Position: mgl32.Vec3{x, y, 0},
		Rotation: entities.ZRotation(angleDeg),
	})
	return id, nil
}

// rebuildRing 按设置中的数量重建环形发射器
func (a *App) rebuildRing() error {
	for _, id := range a.ring {
		a.em.DestroyEntity(id)
	}
	a.em.RemoveMarkedEntities()
	a.ring = a.ring[:0]

	n := a.settings.GetSettings().EmitterCount
	for i := 0; i < n; i++ {
		id, err := a.spawnEmitter(float32(a.width)/2, float32(a.height)/2, 0)
		if err != nil {
			return err
		}
		a.ring = append(a.ring, id)
	}
	a.updateRing(0)
	return nil
}

// updateRing 推进环的角度并更新发射器位置与朝向
func (a *App) updateRing(dt float32) {
	a.spin += ringSpinDegPerS * dt
	if a.spin >= 360 {
		a.spin -= 360
	}

	cx, cy := float32(a.width)/2, float32(a.height)/2
	n := float32(len(a.ring))
	for i, id := range a.ring {
		transform, ok := ecs.GetComponent[*components.TransformComponent](a.em, id)
		if !ok {
			continue
		}
		angle := a.spin + float32(i)*360/n
		transform.Position = ringPosition(cx, cy, ringRadius, angle)
		transform.Rotation = entities.ZRotation(angle)
	}
}

// ringPosition 返回中心 (cx, cy) 沿 angleDeg 方向前进 radius 后的位置
// 与 ZRotation(angleDeg) 的前方（+y 旋转后）一致
func ringPosition(cx, cy, radius, angleDeg float32) mgl32.Vec3 {
	rad := mgl32.DegToRad(angleDeg)
	sin, cos := math.Sincos(float64(rad))
	return mgl32.Vec3{cx - radius*float32(sin), cy + radius*float32(cos), 0}
}

// applyPreset 把当前预设写回所有发射器
func (a *App) applyPreset() error {
	for _, id := range append(append([]ecs.EntityID{}, a.ring...), a.placed...) {
		emitter, err := a.emitterComponent()
		if err != nil {
			return err
		}
		a.em.AddComponent(id, emitter)
	}
	return nil
}

// CyclePreset 切换到前/后一个预设
func (a *App) CyclePreset(delta int) error {
	n := len(a.particles.Emitters)
	a.presetIndex = ((a.presetIndex+delta)%n + n) % n
	a.settings.SetPreset(a.Preset().Name)
	a.logger.Info().Str("preset", a.Preset().Name).Msg("preset changed")
	return a.applyPreset()
}

// AdjustRateScale 调整发射速率倍率
func (a *App) AdjustRateScale(delta float64) error {
	a.settings.SetRateScale(a.settings.GetSettings().RateScale + delta)
	return a.applyPreset()
}

// AdjustEmitterCount 调整环形发射器数量
func (a *App) AdjustEmitterCount(delta int) error {
	a.settings.SetEmitterCount(a.settings.GetSettings().EmitterCount + delta)
	if a.settings.GetSettings().EmitterCount == len(a.ring) {
		return nil
	}
	return a.rebuildRing()
}

// AddEmitterAt 在屏幕坐标处添加一个朝上的发射器
func (a *App) AddEmitterAt(screenX, screenY int) error {
	x, y := float32(screenX), float32(a.height-screenY)
	id, err := a.spawnEmitter(x, y, 0)
	if err != nil {
		return err
	}
	a.placed = append(a.placed, id)
	a.logger.Debug().Float32("x", x).Float32("y", y).Msg("emitter placed")
	return nil
}

// Clear 删除放置的发射器和所有粒子
//
// 粒子可能仍是待回放命令的目标，因此通过命令缓冲区在下一帧删除。
func (a *App) Clear() {
	for _, id := range a.placed {
		a.em.DestroyEntity(id)
	}
	a.em.RemoveMarkedEntities()
	a.placed = a.placed[:0]

	particles := a.em.Query(a.particleQuery)
	if len(particles) == 0 {
		return
	}
	w := a.pipeline.Commands.CreateCommandBuffer("Clear").Writer(0)
	for i, id := range particles {
		w.DestroyEntity(i, id)
	}
}

// TogglePause 暂停/继续
func (a *App) TogglePause() {
	a.paused = !a.paused
}

// Step 运行一个 tick
func (a *App) Step() error {
	if a.paused {
		a.clock.Pause()
	} else {
		a.clock.Tick()
	}
	a.updateRing(a.clock.DeltaTime())

	if err := a.pipeline.Update(); err != nil {
		return eris.Wrapf(err, "tick %d", a.ticks)
	}
	a.ticks++
	return nil
}

// Update 处理输入并更新粒子
// 每个 tick 调用一次（通常每秒 60 次）
func (a *App) Update() error {
	if inpututil.IsKeyJustPressed(ebiten.KeyEscape) {
		return ebiten.Termination
	}

	if err := a.handleInput(); err != nil {
		return err
	}
	return a.Step()
}

func (a *App) handleInput() error {
	// 延迟设置窗口大小（退出全屏后需要等待几帧才能正确设置）
	if a.pendingWindowSizeReset {
		a.windowSizeResetCountdown--
		if a.windowSizeResetCountdown <= 0 {
			ebiten.SetWindowSize(a.width, a.height)
			a.pendingWindowSizeReset = false
		}
	}

	// F11 切换全屏
	if inpututil.IsKeyJustPressed(ebiten.KeyF11) {
		if ebiten.IsFullscreen() {
			ebiten.SetFullscreen(false)
			if ebiten.IsWindowMaximized() || ebiten.IsWindowMinimized() {
				ebiten.RestoreWindow()
			}
			a.pendingWindowSizeReset = true
			a.windowSizeResetCountdown = 3
			a.settings.SetFullscreen(false)
		} else {
			ebiten.SetFullscreen(true)
			a.settings.SetFullscreen(true)
		}
	}

	var err error
	switch {
	case inpututil.IsKeyJustPressed(ebiten.KeyRight):
		err = a.CyclePreset(1)
	case inpututil.IsKeyJustPressed(ebiten.KeyLeft):
		err = a.CyclePreset(-1)
	case inpututil.IsKeyJustPressed(ebiten.KeyUp):
		err = a.AdjustRateScale(rateScaleStep)
	case inpututil.IsKeyJustPressed(ebiten.KeyDown):
		err = a.AdjustRateScale(-rateScaleStep)
	case inpututil.IsKeyJustPressed(ebiten.KeyEqual):
		err = a.AdjustEmitterCount(1)
	case inpututil.IsKeyJustPressed(ebiten.KeyMinus):
		err = a.AdjustEmitterCount(-1)
	case inpututil.IsKeyJustPressed(ebiten.KeySpace):
		a.TogglePause()
	case inpututil.IsKeyJustPressed(ebiten.KeyC):
		a.Clear()
	case inpututil.IsKeyJustPressed(ebiten.KeyH):
		a.settings.SetShowHUD(!a.settings.GetSettings().ShowHUD)
	case inpututil.IsKeyJustPressed(ebiten.KeyS):
		if err := a.settings.Save(); err != nil {
			a.logger.Warn().Err(err).Msg("failed to save settings")
		}
	}
	if err != nil {
		return err
	}

	if multiTouchJustPressed() {
		return a.CyclePreset(1)
	}
	if pressed, x, y := pointerJustPressed(); pressed {
		return a.AddEmitterAt(x, y)
	}
	return nil
}

// Draw 绘制粒子和统计信息
// 每帧调用一次
func (a *App) Draw(screen *ebiten.Image) {
	screen.Fill(color.RGBA{R: 8, G: 8, B: 16, A: 255})
	a.renderer.Draw(screen)

	if a.settings.GetSettings().ShowHUD {
		ebitenutil.DebugPrint(screen, a.hudText())
	}
}

// hudText 返回左上角显示的统计信息
func (a *App) hudText() string {
	state := ""
	if a.paused {
		state = " [paused]"
	}
	text := fmt.Sprintf(
		"preset: %s%s\nemitters: %d  particles: %d\nrate: x%.2f  TPS: %.0f\n\n",
		a.Preset().Name, state,
		a.EmitterCount(), a.ParticleCount(),
		a.settings.GetSettings().RateScale, ebiten.ActualTPS(),
	)
	if utils.IsMobile() {
		return text + "tap add  two-finger tap next preset"
	}
	return text + "<-/-> preset  up/down rate  +/- emitters\nspace pause  click add  C clear  H hud  S save"
}

// DrawFinalScreen 实现 FinalScreenDrawer 接口
// 用于控制全屏时的缩放和 letterbox 颜色
func (a *App) DrawFinalScreen(screen ebiten.FinalScreen, offscreen *ebiten.Image, geoM ebiten.GeoM) {
	screen.Fill(color.Black)
	op := &ebiten.DrawImageOptions{}
	op.GeoM = geoM
	op.Filter = ebiten.FilterLinear
	screen.DrawImage(offscreen, op)
}

// Layout 返回查看器的逻辑屏幕尺寸
// 此尺寸独立于实际窗口大小，Ebitengine 会自动处理缩放
func (a *App) Layout(outsideWidth, outsideHeight int) (int, int) {
	return a.width, a.height
}
