package main

import (
	"flag"
	"log"

	"github.com/hajimehoshi/ebiten/v2"
	"go.uber.org/zap"

	"github.com/decker502/mlviz/pkg/app"
	"github.com/decker502/mlviz/pkg/config"
	"github.com/decker502/mlviz/pkg/embedded"
	"github.com/decker502/mlviz/pkg/logger"
	"github.com/decker502/mlviz/pkg/settings"
)

var (
	verboseFlag = flag.Bool("verbose", false, "Enable verbose logging and the HUD")
	presetFlag  = flag.String("preset", "", "Preset to start with (default: last used or file default)")
	presetsFlag = flag.String("presets", "", "External presets file (.yaml, .yml or .toml)")
	countFlag   = flag.Int("count", -1, "Override the particle count of the preset")
	emotionFlag = flag.String("emotion", "", "Emotion color: happiness, anger, sadness, jealousy, fear, disgust")
	seedFlag    = flag.Int64("seed", 0, "Random seed (0 = time based)")
)

func main() {
	flag.Parse()

	// 初始化嵌入资源（必须在任何资源加载之前）
	// dataFS 在 embed.go 中声明
	embedded.Init(dataFS)

	lggr, err := logger.New(*verboseFlag)
	if err != nil {
		log.Fatal(err)
	}
	defer func() { _ = lggr.Sync() }()

	// 偏好设置存储不可用时降级为内存模式
	store, err := settings.OpenStore()
	if err != nil {
		lggr.Warn("settings store unavailable, preferences will not persist", zap.Error(err))
		store = nil
	}

	viewer, err := app.NewApp(app.Config{
		Verbose:     *verboseFlag,
		Preset:      *presetFlag,
		PresetsPath: *presetsFlag,
		Count:       *countFlag,
		Emotion:     config.EmotionMode(*emotionFlag),
		Seed:        *seedFlag,
		Logger:      lggr,
		Settings:    settings.NewManager(store, lggr),
	})
	if err != nil {
		lggr.Fatal("viewer initialization failed", zap.Error(err))
	}
	// 退出时卸载场景并保存偏好
	defer viewer.Close()

	ebiten.SetWindowSize(app.WindowWidth, app.WindowHeight)
	ebiten.SetWindowTitle(app.WindowTitle)
	ebiten.SetWindowResizingMode(ebiten.WindowResizingModeEnabled)

	// Start the viewer loop
	// This will call Update() and Draw() repeatedly until the window is closed
	if err := ebiten.RunGame(viewer); err != nil {
		lggr.Error("viewer stopped", zap.Error(err))
	}
}
