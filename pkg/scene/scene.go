// Package scene 将粒子场和网络图组合到同一个渲染后端上
//
// 两者由同一个帧回调驱动。
package scene

import (
	"fmt"

	"go.uber.org/zap"

	"github.com/decker502/mlviz/internal/particle"
	"github.com/decker502/mlviz/pkg/config"
	"github.com/decker502/mlviz/pkg/field"
	"github.com/decker502/mlviz/pkg/logger"
	"github.com/decker502/mlviz/pkg/network"
	"github.com/decker502/mlviz/pkg/render"
)

// Backend 可以同时绘制网络图的粒子场渲染器
type Backend interface {
	field.Renderer
	SetNetwork(d *network.Diagram, pose network.Pose, style render.NetworkStyle)
}

// Scene 一个已挂载的场景组合
type Scene struct {
	name    string
	cfg     config.SceneConfig
	backend Backend
	logger  *zap.Logger

	field    *field.Field
	diagram  *network.Diagram
	animator network.Animator
	netStyle render.NetworkStyle
	pointer  *field.PointerSlot

	elapsed  float64
	teardown field.Teardown
}

// New 校验 cfg，并在 backend 上挂载粒子场和网络图
// 指针与尺寸事件通过 events 送达场景
func New(name string, cfg config.SceneConfig, backend Backend, events *field.Listeners, opts field.Options) (*Scene, error) {
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("scene %q: %w", name, err)
	}

	s := &Scene{
		name:    name,
		cfg:     cfg,
		backend: backend,
		logger:  logger.OrNop(opts.Logger).Named("scene").With(zap.String("scene", name)),
		pointer: field.NewPointerSlot(),
	}

	if cfg.ShowNetwork {
		nodeColor, err := config.ParseColor(cfg.Network.Color, cfg.Theme)
		if err != nil {
			return nil, fmt.Errorf("scene %q: %w", name, err)
		}
		edgeColor, err := config.ParseColor(cfg.Network.ConnectionColor, cfg.Theme)
		if err != nil {
			return nil, fmt.Errorf("scene %q: %w", name, err)
		}
		s.diagram = network.Layout(cfg.Network.Layers, cfg.Network.Data)
		s.animator.OffsetZ = cfg.Network.OffsetZ
		s.netStyle = render.NetworkStyle{NodeColor: nodeColor, EdgeColor: edgeColor}
	}

	opts.Theme = cfg.Theme
	f, err := field.Mount(cfg.Field, backend, events, opts)
	if err != nil {
		return nil, fmt.Errorf("scene %q: %w", name, err)
	}
	s.field = f
	s.teardown.Push("field", f.Unmount)

	if events != nil {
		id := events.OnPointer(s.pointer.Publish)
		s.teardown.Push("network pointer listener", func() { events.Remove(id) })
	}

	s.logger.Debug("scene mounted",
		zap.Int("particles", f.Count()),
		zap.Bool("network", !s.diagram.Empty()),
		zap.Bool("degraded", f.Degraded()))
	return s, nil
}

// Name 返回构建场景所用的预设名称
func (s *Scene) Name() string {
	return s.name
}

// Config 返回挂载时的场景配置
func (s *Scene) Config() config.SceneConfig {
	return s.cfg
}

// Field 返回已挂载的粒子场
func (s *Scene) Field() *field.Field {
	return s.field
}

// Backend 返回场景使用的渲染器
func (s *Scene) Backend() Backend {
	return s.backend
}

// Diagram 返回网络布局，隐藏网络图时为 nil
func (s *Scene) Diagram() *network.Diagram {
	return s.diagram
}

// Elapsed 返回场景时钟（秒）
func (s *Scene) Elapsed() float64 {
	return s.elapsed
}

// Update 将场景时钟推进 dt 秒，更新网络图姿态并推进粒子场
// 粒子场提交帧时一并提交网络图
func (s *Scene) Update(dt float64) error {
	if dt > 0 {
		s.elapsed += dt
	}
	return s.Frame(s.elapsed)
}

// Frame 按绝对时间渲染场景
// 用于自行维护时钟的宿主
func (s *Scene) Frame(elapsed float64) error {
	if s.field.Disposed() {
		return field.ErrDisposed
	}
	s.elapsed = elapsed

	if !s.field.Degraded() {
		pose := s.animator.Step(elapsed, s.pointer.Latest())
		s.backend.SetNetwork(s.diagram, pose, s.netStyle)
	}
	return s.field.Frame(elapsed)
}

// Unmount 释放粒子场和场景的监听器，可重复调用
func (s *Scene) Unmount() {
	released := s.teardown.Run()
	if released != nil {
		s.logger.Debug("scene unmounted", zap.Strings("released", released))
	}
}

// PointerFromCursor 将像素光标位置（原点在左上角）转换为归一化指针（+y 向上）
// 视口面积为 0 时返回"无指针"
func PointerFromCursor(cx, cy, width, height float64) particle.Pointer {
	if width <= 0 || height <= 0 {
		return particle.Pointer{}
	}
	return particle.PointerAt(2*cx/width-1, -(2*cy/height - 1))
}
