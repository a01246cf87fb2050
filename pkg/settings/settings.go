// Package settings persists viewer preferences between runs.
package settings

import (
	"fmt"

	"github.com/quasilyte/gdata/v2"
	"go.uber.org/zap"
	"gopkg.in/yaml.v3"

	"github.com/decker502/mlviz/pkg/config"
	"github.com/decker502/mlviz/pkg/logger"
	"github.com/decker502/mlviz/pkg/utils"
)

// AppName is the gdata application directory.
const AppName = "mlviz"

// 存储路径常量
const (
	settingsObject   = "settings"
	settingsProperty = "viewer"
)

// ViewerSettings 查看器偏好设置
// 这些设置在桌面端、终端和移动端之间共享
type ViewerSettings struct {
	Preset      string             `yaml:"preset"`      // 上次使用的预设名
	EmotionMode config.EmotionMode `yaml:"emotionMode"` // 情绪配色（空为预设颜色）
	Interactive bool               `yaml:"interactive"` // 指针排斥开关
	ShowNetwork bool               `yaml:"showNetwork"` // 是否绘制网络图
}

// DefaultSettings 返回默认设置
func DefaultSettings() *ViewerSettings {
	return &ViewerSettings{
		Interactive: true,
		ShowNetwork: true,
	}
}

// OpenStore opens the gdata store of the viewers.
func OpenStore() (*gdata.Manager, error) {
	if err := utils.EnsureStorageDir(); err != nil {
		return nil, fmt.Errorf("failed to prepare settings store: %w", err)
	}
	m, err := gdata.Open(gdata.Config{AppName: AppName})
	if err != nil {
		return nil, fmt.Errorf("failed to open settings store: %w", err)
	}
	return m, nil
}

// Manager 设置管理器
// 负责设置的加载、保存和内存管理
type Manager struct {
	store    *gdata.Manager // gdata 跨平台存储管理器，可为 nil（降级模式）
	settings *ViewerSettings
	logger   *zap.Logger
}

// NewManager 创建设置管理器并尝试加载已保存的设置
//
// store 为 nil 时进入降级模式：设置只保存在内存中。
// 加载失败不是致命错误，记录日志后使用默认设置。
func NewManager(store *gdata.Manager, lggr *zap.Logger) *Manager {
	m := &Manager{
		store:    store,
		settings: DefaultSettings(),
		logger:   logger.OrNop(lggr).Named("settings"),
	}

	if err := m.Load(); err != nil {
		m.logger.Warn("failed to load settings, using defaults", zap.Error(err))
	}
	return m
}

// Persistent reports whether settings survive a restart.
func (m *Manager) Persistent() bool {
	return m.store != nil
}

// Load 从 gdata 加载设置
//
// 如果 store 为 nil 或设置不存在，使用默认设置
func (m *Manager) Load() error {
	if m.store == nil || !m.store.ObjectPropExists(settingsObject, settingsProperty) {
		m.settings = DefaultSettings()
		return nil
	}

	data, err := m.store.LoadObjectProp(settingsObject, settingsProperty)
	if err != nil {
		m.settings = DefaultSettings()
		return fmt.Errorf("failed to load settings: %w", err)
	}

	loaded := DefaultSettings()
	if err := yaml.Unmarshal(data, loaded); err != nil {
		m.settings = DefaultSettings()
		return fmt.Errorf("failed to unmarshal settings: %w", err)
	}
	if !loaded.EmotionMode.Valid() {
		m.logger.Warn("dropping unknown emotion mode", zap.String("emotion", string(loaded.EmotionMode)))
		loaded.EmotionMode = config.EmotionNone
	}

	m.settings = loaded
	m.logger.Debug("settings loaded", zap.String("preset", loaded.Preset))
	return nil
}

// Save 保存设置到 gdata
//
// 降级模式下不报错
func (m *Manager) Save() error {
	if m.store == nil {
		return nil
	}

	data, err := yaml.Marshal(m.settings)
	if err != nil {
		return fmt.Errorf("failed to marshal settings: %w", err)
	}
	if err := m.store.SaveObjectProp(settingsObject, settingsProperty, data); err != nil {
		return fmt.Errorf("failed to save settings: %w", err)
	}

	m.logger.Debug("settings saved")
	return nil
}

// Settings 获取当前设置
func (m *Manager) Settings() *ViewerSettings {
	return m.settings
}

// SetPreset 记录当前预设（需调用 Save 持久化）
func (m *Manager) SetPreset(name string) {
	m.settings.Preset = name
}

// SetEmotionMode 设置情绪配色，未知模式返回错误
func (m *Manager) SetEmotionMode(mode config.EmotionMode) error {
	if !mode.Valid() {
		return fmt.Errorf("%w: unknown emotion mode %q", config.ErrInvalidConfig, mode)
	}
	m.settings.EmotionMode = mode
	return nil
}

// SetInteractive 设置指针排斥开关
func (m *Manager) SetInteractive(on bool) {
	m.settings.Interactive = on
}

// SetShowNetwork 设置网络图显示开关
func (m *Manager) SetShowNetwork(on bool) {
	m.settings.ShowNetwork = on
}

// Apply overlays the saved preferences on a resolved scene configuration.
func (s *ViewerSettings) Apply(cfg *config.SceneConfig) {
	if s.EmotionMode != config.EmotionNone {
		cfg.Field.EmotionMode = s.EmotionMode
	}
	cfg.Field.Interactive = cfg.Field.Interactive && s.Interactive
	cfg.ShowNetwork = cfg.ShowNetwork && s.ShowNetwork
}
