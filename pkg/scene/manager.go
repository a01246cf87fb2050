package scene

import (
	"fmt"

	"go.uber.org/zap"

	"github.com/decker502/mlviz/pkg/logger"
)

// Factory 场景工厂函数类型，按名称构建场景
type Factory func(name string) (*Scene, error)

// Manager 管理当前活动的场景
// 切换时先卸载旧场景，新场景才开始接收帧
type Manager struct {
	current *Scene
	factory Factory
	logger  *zap.Logger
}

// NewManager 创建没有活动场景的管理器
func NewManager(factory Factory, lggr *zap.Logger) *Manager {
	return &Manager{
		factory: factory,
		logger:  logger.OrNop(lggr).Named("scenes"),
	}
}

// SwitchTo 切换到 next 并卸载之前的场景
func (m *Manager) SwitchTo(next *Scene) {
	if m.current == next {
		return
	}
	if m.current != nil {
		m.current.Unmount()
	}
	m.current = next
}

// Load 通过工厂构建指定场景并切换过去
// 构建失败时保留当前场景
func (m *Manager) Load(name string) error {
	if m.factory == nil {
		return fmt.Errorf("scene factory not set")
	}
	next, err := m.factory(name)
	if err != nil {
		m.logger.Warn("failed to load scene", zap.String("scene", name), zap.Error(err))
		return err
	}
	m.SwitchTo(next)
	m.logger.Info("switched scene", zap.String("scene", name))
	return nil
}

// Current 返回当前活动的场景，可能为 nil
func (m *Manager) Current() *Scene {
	return m.current
}

// Update 将活动场景推进 dt 秒
func (m *Manager) Update(dt float64) error {
	if m.current == nil {
		return nil
	}
	return m.current.Update(dt)
}

// Close 卸载活动场景
func (m *Manager) Close() {
	m.SwitchTo(nil)
}
