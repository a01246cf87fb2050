package settings

import (
	"errors"
	"os"
	"testing"

	"github.com/quasilyte/gdata/v2"

	"github.com/decker502/mlviz/pkg/config"
)

// openTestStore 使用临时 HOME 创建 gdata manager
func openTestStore(t *testing.T, appName string) *gdata.Manager {
	t.Helper()
	tempDir := t.TempDir()
	originalHome := os.Getenv("HOME")
	os.Setenv("HOME", tempDir)
	t.Cleanup(func() { os.Setenv("HOME", originalHome) })

	store, err := gdata.Open(gdata.Config{AppName: appName})
	if err != nil {
		t.Skipf("Cannot create gdata manager for testing: %v", err)
	}
	return store
}

// TestDefaultSettings 测试默认值
func TestDefaultSettings(t *testing.T) {
	s := DefaultSettings()
	if !s.Interactive {
		t.Error("Interactive: got false, want true")
	}
	if !s.ShowNetwork {
		t.Error("ShowNetwork: got false, want true")
	}
	if s.Preset != "" || s.EmotionMode != config.EmotionNone {
		t.Errorf("got %+v, want empty preset and emotion", s)
	}
}

// TestManager_NilStore 测试降级模式
func TestManager_NilStore(t *testing.T) {
	m := NewManager(nil, nil)
	if m.Persistent() {
		t.Error("Persistent() = true without a store")
	}

	m.SetPreset("calm")
	if err := m.Save(); err != nil {
		t.Errorf("Save() in degraded mode = %v, want nil", err)
	}
	if m.Settings().Preset != "calm" {
		t.Errorf("Preset: got %q, want calm", m.Settings().Preset)
	}
}

// TestManager_SaveLoadRoundTrip 测试保存后重新加载
func TestManager_SaveLoadRoundTrip(t *testing.T) {
	store := openTestStore(t, "mlviz_test_settings")

	m := NewManager(store, nil)
	m.SetPreset("storm")
	if err := m.SetEmotionMode(config.EmotionAnger); err != nil {
		t.Fatalf("SetEmotionMode() error: %v", err)
	}
	m.SetInteractive(false)
	m.SetShowNetwork(false)
	if err := m.Save(); err != nil {
		t.Fatalf("Save() error: %v", err)
	}

	reloaded := NewManager(store, nil)
	got := reloaded.Settings()
	if got.Preset != "storm" || got.EmotionMode != config.EmotionAnger || got.Interactive || got.ShowNetwork {
		t.Errorf("reloaded settings = %+v", got)
	}
}

// TestManager_CorruptData 测试损坏数据回退到默认设置
func TestManager_CorruptData(t *testing.T) {
	store := openTestStore(t, "mlviz_test_corrupt")
	if err := store.SaveObjectProp(settingsObject, settingsProperty, []byte("preset: [unclosed")); err != nil {
		t.Fatalf("SaveObjectProp() error: %v", err)
	}

	m := NewManager(store, nil)
	if m.Settings().Preset != "" || !m.Settings().Interactive {
		t.Errorf("settings after corrupt load = %+v, want defaults", m.Settings())
	}
}

// TestManager_UnknownEmotionDropped 测试加载未知情绪模式
func TestManager_UnknownEmotionDropped(t *testing.T) {
	store := openTestStore(t, "mlviz_test_emotion")
	if err := store.SaveObjectProp(settingsObject, settingsProperty, []byte("emotionMode: boredom\npreset: calm\n")); err != nil {
		t.Fatalf("SaveObjectProp() error: %v", err)
	}

	m := NewManager(store, nil)
	if m.Settings().EmotionMode != config.EmotionNone {
		t.Errorf("EmotionMode: got %q, want none", m.Settings().EmotionMode)
	}
	if m.Settings().Preset != "calm" {
		t.Errorf("Preset: got %q, want calm", m.Settings().Preset)
	}
}

// TestSetEmotionMode_Invalid 测试拒绝未知情绪模式
func TestSetEmotionMode_Invalid(t *testing.T) {
	m := NewManager(nil, nil)
	if err := m.SetEmotionMode("boredom"); !errors.Is(err, config.ErrInvalidConfig) {
		t.Errorf("SetEmotionMode() = %v, want ErrInvalidConfig", err)
	}
}

// TestViewerSettings_Apply 测试偏好覆盖场景配置
func TestViewerSettings_Apply(t *testing.T) {
	cfg := config.DefaultSceneConfig()
	s := &ViewerSettings{EmotionMode: config.EmotionFear, Interactive: false, ShowNetwork: true}
	s.Apply(&cfg)

	if cfg.Field.EmotionMode != config.EmotionFear || cfg.Field.Interactive {
		t.Errorf("field = %+v", cfg.Field)
	}
	if !cfg.ShowNetwork {
		t.Error("ShowNetwork turned off although both preset and settings enable it")
	}

	cfg.ShowNetwork = false
	s.Apply(&cfg)
	if cfg.ShowNetwork {
		t.Error("settings re-enabled a network the preset hides")
	}
}
