// Package field 运行已挂载的粒子场
//
// 粒子场持有粒子集合，每帧读取最新的指针位置，推进粒子，
// 并把变换数据交给渲染后端。
package field

import (
	"errors"
	"fmt"
	"math/rand"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/decker502/mlviz/internal/particle"
	"github.com/decker502/mlviz/pkg/config"
	"github.com/decker502/mlviz/pkg/logger"
	"github.com/decker502/mlviz/pkg/render"
)

var (
	// ErrDisposed 对已卸载的粒子场执行操作时返回
	ErrDisposed = errors.New("field disposed")
	// ErrBackendUnavailable 包装降级粒子场的渲染器初始化错误
	ErrBackendUnavailable = errors.New("render backend unavailable")
)

// Renderer 粒子场使用的渲染后端
type Renderer interface {
	// Init 为 count 个实例分配资源
	Init(count int, style render.Style) error
	// Instances 返回粒子场每帧写入的缓冲区
	Instances() *render.InstanceBuffer
	// SetStyle 修改颜色和透明度
	SetStyle(style render.Style)
	// Commit 实例缓冲区有变化时上传
	Commit() error
	// Dispose 释放 Init 获取的全部资源，必须可重复调用
	Dispose()
}

// Options 挂载粒子场时的依赖项
type Options struct {
	Logger *zap.Logger
	// Source 生成粒子集合的随机源，为 nil 时使用以时间为种子的随机源
	Source particle.Source
	Theme  config.Theme
	// 收到第一次尺寸事件之前的视口尺寸（像素）
	ViewportWidth  int
	ViewportHeight int
}

// Field 已挂载的粒子场
//
// Frame 按顺序调用。Unmount 可以与其他 goroutine 上正在运行的 Frame 并发：
// 它会等待该帧结束，之后不再运行任何帧。
type Field struct {
	id       uuid.UUID
	logger   *zap.Logger
	renderer Renderer
	theme    config.Theme

	mu         sync.Mutex
	cfg        config.FieldConfig
	particles  []particle.Particle
	transforms []particle.Transform
	disposed   bool
	initErr    error
	frames     uint64
	skipped    uint64

	pointer  *PointerSlot
	teardown Teardown

	viewMu         sync.Mutex
	viewportWidth  int
	viewportHeight int
}

// Mount 校验 cfg，生成粒子集合，订阅事件并初始化渲染器
//
// 配置无效时返回包装 config.ErrInvalidConfig 的错误，不获取任何资源。
// 渲染器初始化失败不会导致挂载失败：粒子场进入降级模式，不渲染任何内容，
// 失败原因通过 Err 返回。
func Mount(cfg config.FieldConfig, renderer Renderer, events *Listeners, opts Options) (*Field, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	theme := opts.Theme
	if theme == nil {
		theme = config.DefaultTheme()
	}
	style, err := styleFor(cfg, theme)
	if err != nil {
		return nil, err
	}

	src := opts.Source
	if src == nil {
		src = rand.New(rand.NewSource(time.Now().UnixNano()))
	}
	width, height := opts.ViewportWidth, opts.ViewportHeight
	if width <= 0 || height <= 0 {
		width, height = config.DefaultViewportWidth, config.DefaultViewportHeight
	}

	id := uuid.New()
	f := &Field{
		id:             id,
		logger:         logger.OrNop(opts.Logger).Named("field").With(zap.String("id", id.String())),
		renderer:       renderer,
		theme:          theme,
		cfg:            cfg,
		particles:      particle.Generate(src, cfg.Count, cfg.Depth, cfg.Speed),
		transforms:     make([]particle.Transform, cfg.Count),
		pointer:        NewPointerSlot(),
		viewportWidth:  width,
		viewportHeight: height,
	}
	f.teardown.Push("particles", func() {
		f.particles = nil
		f.transforms = nil
	})

	if events != nil {
		pointerID := events.OnPointer(f.pointer.Publish)
		f.teardown.Push("pointer listener", func() { events.Remove(pointerID) })
		resizeID := events.OnResize(f.Resize)
		f.teardown.Push("resize listener", func() { events.Remove(resizeID) })
	}

	if renderer == nil {
		f.initErr = fmt.Errorf("%w: no renderer", ErrBackendUnavailable)
	} else {
		f.teardown.Push("renderer", renderer.Dispose)
		if err := renderer.Init(cfg.Count, style); err != nil {
			f.initErr = fmt.Errorf("%w: %v", ErrBackendUnavailable, err)
			renderer.Dispose()
		}
	}
	if f.initErr != nil {
		f.logger.Error("renderer unavailable, field degraded", zap.Error(f.initErr))
	}

	f.logger.Debug("mounted",
		zap.Int("count", cfg.Count),
		zap.Float64("depth", cfg.Depth),
		zap.Bool("interactive", cfg.Interactive),
		zap.String("emotion", string(cfg.EmotionMode)),
		zap.Bool("degraded", f.initErr != nil))
	return f, nil
}

func styleFor(cfg config.FieldConfig, theme config.Theme) (render.Style, error) {
	c, err := cfg.ResolveColor(theme)
	if err != nil {
		return render.Style{}, err
	}
	return render.Style{Color: c, Opacity: cfg.Opacity()}, nil
}

// ID 返回日志中使用的实例 ID
func (f *Field) ID() uuid.UUID {
	return f.id
}

// Count 返回粒子数量
func (f *Field) Count() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.particles)
}

// Config 返回当前配置
func (f *Field) Config() config.FieldConfig {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.cfg
}

// Degraded 判断渲染器是否初始化失败
func (f *Field) Degraded() bool {
	return f.initErr != nil
}

// Err 返回渲染器初始化错误，没有则为 nil
func (f *Field) Err() error {
	return f.initErr
}

// Disposed 判断粒子场是否已卸载
func (f *Field) Disposed() bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.disposed
}

// SetPointer 推送归一化的指针位置，不会阻塞
func (f *Field) SetPointer(p particle.Pointer) {
	f.pointer.Publish(p)
}

// Resize 记录新的视口尺寸（像素），忽略非正数尺寸
func (f *Field) Resize(width, height int) {
	if width <= 0 || height <= 0 {
		return
	}
	f.viewMu.Lock()
	f.viewportWidth, f.viewportHeight = width, height
	f.viewMu.Unlock()
}

func (f *Field) viewport() (float64, float64) {
	f.viewMu.Lock()
	defer f.viewMu.Unlock()
	return float64(f.viewportWidth), float64(f.viewportHeight)
}

// SetEmotion 切换情绪配色，保留粒子集合
func (f *Field) SetEmotion(mode config.EmotionMode) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.disposed {
		return ErrDisposed
	}

	cfg := f.cfg
	cfg.EmotionMode = mode
	if err := cfg.Validate(); err != nil {
		return err
	}
	style, err := styleFor(cfg, f.theme)
	if err != nil {
		return err
	}
	f.cfg = cfg
	if f.initErr == nil {
		f.renderer.SetStyle(style)
	}
	f.logger.Debug("emotion changed", zap.String("emotion", string(mode)))
	return nil
}

// SetInteractive 设置指针排斥开关
func (f *Field) SetInteractive(on bool) {
	f.mu.Lock()
	f.cfg.Interactive = on
	f.mu.Unlock()
}

// Frame 将粒子场推进到挂载后 elapsed 秒，并把结果提交给渲染器
//
// 降级的粒子场不做任何事。推进或提交过程中的 panic 会被记录，并跳过该帧。
func (f *Field) Frame(elapsed float64) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	if f.disposed {
		return ErrDisposed
	}
	if f.initErr != nil {
		return nil
	}

	defer func() {
		if rec := recover(); rec != nil {
			f.skipped++
			f.logger.Error("frame panicked, skipped",
				zap.Any("panic", rec),
				zap.Uint64("frame", f.frames),
				zap.Float64("elapsed", elapsed))
		}
	}()

	width, height := f.viewport()
	params := particle.Params{
		Size:           f.cfg.Size,
		Depth:          f.cfg.Depth,
		Interactive:    f.cfg.Interactive,
		ViewportWidth:  width,
		ViewportHeight: height,
	}

	particle.Step(f.particles, f.transforms, elapsed, f.pointer.Latest(), params)
	f.renderer.Instances().Write(f.transforms)
	if err := f.renderer.Commit(); err != nil {
		f.skipped++
		f.logger.Warn("commit failed, frame skipped", zap.Error(err), zap.Uint64("frame", f.frames))
		return nil
	}
	f.frames++
	return nil
}

// Stats 返回已提交和已跳过的帧数
func (f *Field) Stats() (frames, skipped uint64) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.frames, f.skipped
}

// Particles 返回当前粒子集合的副本
func (f *Field) Particles() []particle.Particle {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]particle.Particle(nil), f.particles...)
}

// Unmount 按获取的逆序注销监听器、释放渲染器并丢弃粒子集合
//
// 会等待正在运行的帧结束，之后不再运行任何帧。重复调用无效果。
func (f *Field) Unmount() {
	f.mu.Lock()
	if f.disposed {
		f.mu.Unlock()
		return
	}
	f.disposed = true
	steps := f.teardown.Run()
	frames := f.frames
	f.mu.Unlock()

	f.logger.Debug("unmounted", zap.Strings("released", steps), zap.Uint64("frames", frames))
}
