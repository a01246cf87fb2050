// Package app 提供桌面端和移动端共用的查看器包装器
//
// 该包将初始化逻辑从 main 包提取出来，使其可以被桌面端和移动端共用。
// 桌面端通过 main.go 调用 NewApp()，移动端通过 mobile/mobile.go 调用。
package app

import (
	"errors"
	"fmt"
	"image/color"
	"math/rand"
	"time"

	"github.com/hajimehoshi/ebiten/v2"
	"github.com/hajimehoshi/ebiten/v2/ebitenutil"
	"github.com/hajimehoshi/ebiten/v2/inpututil"
	"go.uber.org/zap"

	"github.com/decker502/mlviz/internal/particle"
	"github.com/decker502/mlviz/pkg/config"
	"github.com/decker502/mlviz/pkg/field"
	"github.com/decker502/mlviz/pkg/logger"
	"github.com/decker502/mlviz/pkg/render"
	"github.com/decker502/mlviz/pkg/scene"
	"github.com/decker502/mlviz/pkg/settings"
	"github.com/decker502/mlviz/pkg/utils"
)

// 默认窗口尺寸
const (
	WindowWidth  = config.DefaultViewportWidth
	WindowHeight = config.DefaultViewportHeight
	WindowTitle  = "mlviz"
)

// Config 定义应用启动配置
type Config struct {
	// Verbose 启用 HUD 与调试日志
	Verbose bool
	// Preset 指定启动预设，为空则使用上次的预设或文件默认值
	Preset string
	// PresetsPath 预设文件路径，为空时使用嵌入的 data/presets.yaml
	PresetsPath string
	// Count 覆盖预设的粒子数量，负数表示使用预设值
	Count int
	// Emotion 覆盖情绪配色
	Emotion config.EmotionMode
	// Seed 随机种子，0 表示使用当前时间
	Seed int64

	Logger   *zap.Logger
	Settings *settings.Manager // 为 nil 时只在内存中保存偏好
}

// App 是查看器的核心包装器，实现 ebiten.Game 接口
type App struct {
	logger   *zap.Logger
	presets  *config.PresetFile
	settings *settings.Manager
	scenes   *scene.Manager
	events   *field.Listeners
	source   *rand.Rand
	count    int

	width, height    int
	cursorX, cursorY int
	hasCursor        bool
	showHUD          bool
}

// NewApp 加载预设并挂载启动场景
//
// 使用嵌入的预设文件前，必须先调用 embedded.Init()。
func NewApp(cfg Config) (*App, error) {
	lggr := logger.OrNop(cfg.Logger)

	path := cfg.PresetsPath
	if path == "" {
		path = config.DefaultPresetsPath
	}
	presets, err := config.LoadPresets(path)
	if err != nil {
		return nil, fmt.Errorf("预设加载失败: %w", err)
	}
	if !cfg.Emotion.Valid() {
		return nil, fmt.Errorf("%w: unknown emotion mode %q", config.ErrInvalidConfig, cfg.Emotion)
	}

	seed := cfg.Seed
	if seed == 0 {
		seed = time.Now().UnixNano()
	}

	prefs := cfg.Settings
	if prefs == nil {
		prefs = settings.NewManager(nil, lggr)
	}
	if cfg.Emotion != config.EmotionNone {
		if err := prefs.SetEmotionMode(cfg.Emotion); err != nil {
			return nil, err
		}
	}

	a := &App{
		logger:   lggr.Named("app"),
		presets:  presets,
		settings: prefs,
		events:   field.NewListeners(),
		source:   rand.New(rand.NewSource(seed)),
		count:    cfg.Count,
		width:    WindowWidth,
		height:   WindowHeight,
		showHUD:  cfg.Verbose,
	}
	a.scenes = scene.NewManager(a.buildScene, lggr)

	name := cfg.Preset
	if name == "" {
		name = prefs.Settings().Preset
		if _, ok := presets.Presets[name]; !ok {
			name = presets.Default
		}
	}
	if err := a.scenes.Load(name); err != nil {
		return nil, fmt.Errorf("场景加载失败: %w", err)
	}
	prefs.SetPreset(name)

	a.logger.Info("viewer started",
		zap.String("preset", name),
		zap.Int64("seed", seed),
		zap.Bool("persistent", prefs.Persistent()))
	return a, nil
}

// buildScene 解析预设并在新的 ebiten 渲染器上挂载场景
// 每个场景独占一个渲染器，卸载场景时一并释放
func (a *App) buildScene(name string) (*scene.Scene, error) {
	cfg, err := a.presets.Resolve(name, a.source)
	if err != nil {
		return nil, err
	}
	if a.count >= 0 {
		cfg.Field.Count = a.count
	}
	a.settings.Settings().Apply(&cfg)

	backend := render.NewEbitenRenderer(a.width, a.height)
	return scene.New(name, cfg, backend, a.events, field.Options{
		Logger:         a.logger,
		Source:         a.source,
		ViewportWidth:  a.width,
		ViewportHeight: a.height,
	})
}

// Update 更新查看器逻辑
// 每个 tick 调用一次（通常每秒 60 次）
func (a *App) Update() error {
	if err := a.handleKeys(); err != nil {
		a.logger.Warn("key action failed", zap.Error(err))
	}

	// 触摸设备没有悬停，松开后指针消失
	if utils.IsMobile() {
		if pressed, x, y := utils.GetPointerState(); pressed {
			a.MovePointer(x, y)
		} else {
			a.ReleasePointer()
		}
	} else {
		x, y := utils.GetPointerPosition()
		a.MovePointer(x, y)
	}

	deltaTime := 1.0 / float64(ebiten.TPS())
	return a.Step(deltaTime)
}

func (a *App) handleKeys() error {
	var errs []error
	if inpututil.IsKeyJustPressed(ebiten.KeyE) {
		errs = append(errs, a.CycleEmotion())
	}
	if inpututil.IsKeyJustPressed(ebiten.KeyI) {
		a.ToggleInteractive()
	}
	if inpututil.IsKeyJustPressed(ebiten.KeyN) || inpututil.IsKeyJustPressed(ebiten.KeyArrowRight) {
		errs = append(errs, a.SwitchPreset(1))
	}
	if inpututil.IsKeyJustPressed(ebiten.KeyP) || inpututil.IsKeyJustPressed(ebiten.KeyArrowLeft) {
		errs = append(errs, a.SwitchPreset(-1))
	}
	if inpututil.IsKeyJustPressed(ebiten.KeyG) {
		errs = append(errs, a.ToggleNetwork())
	}
	if inpututil.IsKeyJustPressed(ebiten.KeyH) {
		a.showHUD = !a.showHUD
	}
	// F11 切换全屏
	if inpututil.IsKeyJustPressed(ebiten.KeyF11) {
		ebiten.SetFullscreen(!ebiten.IsFullscreen())
	}
	return errors.Join(errs...)
}

// Step advances the active scene by dt seconds.
func (a *App) Step(dt float64) error {
	err := a.scenes.Update(dt)
	if errors.Is(err, field.ErrDisposed) {
		// 场景在本帧被替换
		return nil
	}
	return err
}

// MovePointer publishes a cursor position in window pixels when it moved.
func (a *App) MovePointer(x, y int) {
	if a.hasCursor && x == a.cursorX && y == a.cursorY {
		return
	}
	a.cursorX, a.cursorY, a.hasCursor = x, y, true
	a.events.DispatchPointer(scene.PointerFromCursor(float64(x), float64(y), float64(a.width), float64(a.height)))
}

// ReleasePointer publishes "no pointer" once after the pointer went away.
func (a *App) ReleasePointer() {
	if !a.hasCursor {
		return
	}
	a.hasCursor = false
	a.events.DispatchPointer(particle.Pointer{})
}

// Draw 绘制背景、粒子场与网络图
func (a *App) Draw(screen *ebiten.Image) {
	screen.Fill(render.DefaultBackground)
	if r := a.renderer(); r != nil {
		r.Draw(screen)
	}
	if a.showHUD {
		ebitenutil.DebugPrintAt(screen, a.Status(), 10, 10)
	}
}

// Layout 跟随窗口尺寸，尺寸变化时通知场景
func (a *App) Layout(outsideWidth, outsideHeight int) (int, int) {
	if outsideWidth > 0 && outsideHeight > 0 && (outsideWidth != a.width || outsideHeight != a.height) {
		a.width, a.height = outsideWidth, outsideHeight
		a.events.DispatchResize(outsideWidth, outsideHeight)
		if r := a.renderer(); r != nil {
			r.Resize(outsideWidth, outsideHeight)
		}
		a.logger.Debug("viewport resized", zap.Int("width", outsideWidth), zap.Int("height", outsideHeight))
	}
	return a.width, a.height
}

func (a *App) renderer() *render.EbitenRenderer {
	current := a.scenes.Current()
	if current == nil {
		return nil
	}
	r, _ := current.Backend().(*render.EbitenRenderer)
	return r
}

// CycleEmotion switches the field to the next emotion color and remembers it.
func (a *App) CycleEmotion() error {
	current := a.scenes.Current()
	if current == nil {
		return nil
	}
	next := current.Field().Config().EmotionMode.Next()
	if err := current.Field().SetEmotion(next); err != nil {
		return err
	}
	if err := a.settings.SetEmotionMode(next); err != nil {
		return err
	}
	a.save()
	return nil
}

// ToggleInteractive flips pointer repulsion and remembers it.
func (a *App) ToggleInteractive() {
	current := a.scenes.Current()
	if current == nil {
		return
	}
	on := !current.Field().Config().Interactive
	current.Field().SetInteractive(on)
	a.settings.SetInteractive(on)
	a.save()
}

// ToggleNetwork flips the network preference, remembers it and reloads the
// current scene. Presets without the network stay without it. A reload
// failure restores the previous preference.
func (a *App) ToggleNetwork() error {
	current := a.scenes.Current()
	if current == nil {
		return nil
	}
	on := !a.settings.Settings().ShowNetwork
	a.settings.SetShowNetwork(on)
	if err := a.scenes.Load(current.Name()); err != nil {
		a.settings.SetShowNetwork(!on)
		return err
	}
	// 新场景需要立即获得当前指针
	a.hasCursor = false
	a.save()
	return nil
}

// SwitchPreset moves delta presets along the sorted preset list, wrapping
// at both ends. A preset that fails to load leaves the current scene.
func (a *App) SwitchPreset(delta int) error {
	names := a.presets.Names()
	index := 0
	if current := a.scenes.Current(); current != nil {
		for i, name := range names {
			if name == current.Name() {
				index = i
				break
			}
		}
	}
	n := len(names)
	next := names[((index+delta)%n+n)%n]

	if err := a.scenes.Load(next); err != nil {
		return err
	}
	// 新场景需要立即获得当前指针
	a.hasCursor = false
	a.settings.SetPreset(next)
	a.save()
	return nil
}

// Status 返回 HUD 文本
func (a *App) Status() string {
	current := a.scenes.Current()
	if current == nil {
		return "no scene"
	}
	f := current.Field()
	frames, skipped := f.Stats()
	emotion := string(f.Config().EmotionMode)
	if emotion == "" {
		emotion = "preset color"
	}
	return fmt.Sprintf("preset: %s (N/P)\nemotion: %s (E)\ninteractive: %t (I)\nnetwork: %t (G)\nparticles: %d  frames: %d  skipped: %d\nTPS: %0.1f  FPS: %0.1f",
		current.Name(), emotion, f.Config().Interactive, a.settings.Settings().ShowNetwork, f.Count(), frames, skipped,
		ebiten.ActualTPS(), ebiten.ActualFPS())
}

func (a *App) save() {
	if err := a.settings.Save(); err != nil {
		a.logger.Warn("failed to save settings", zap.Error(err))
	}
}

// Scenes 返回场景管理器
func (a *App) Scenes() *scene.Manager {
	return a.scenes
}

// Settings 返回偏好设置管理器
func (a *App) Settings() *settings.Manager {
	return a.settings
}

// Events 返回指针与尺寸事件的监听器表
func (a *App) Events() *field.Listeners {
	return a.events
}

// Close 卸载当前场景并保存偏好设置
// 用于在退出时释放资源
func (a *App) Close() {
	a.scenes.Close()
	a.save()
	a.logger.Debug("viewer closed")
}

// letterbox 全屏时画面两侧的填充色
var letterbox = color.Black

// DrawFinalScreen 实现 FinalScreenDrawer 接口
// 全屏时使用线性滤波缩放画面
func (a *App) DrawFinalScreen(screen ebiten.FinalScreen, offscreen *ebiten.Image, geoM ebiten.GeoM) {
	screen.Fill(letterbox)
	op := &ebiten.DrawImageOptions{}
	op.GeoM = geoM
	op.Filter = ebiten.FilterLinear
	screen.DrawImage(offscreen, op)
}
