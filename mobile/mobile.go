//go:build mobile

// Package mobile 提供 ebitenmobile 绑定入口
//
// 此包用于构建 Android (.aar) 和 iOS (.xcframework) 包。
// 使用 ebitenmobile 工具构建时会自动调用 init() 函数。
//
// 此文件仅在使用 -tags mobile 构建时编译。
// 手动构建：
//
//	# Android
//	cp -r data mobile/data && ebitenmobile bind -target android -tags mobile -androidapi 23 -javapkg com.decker.mlviz -o build/android/mlviz.aar -v ./mobile
//
//	# iOS (仅 macOS)
//	cp -r data mobile/data && ebitenmobile bind -target ios -tags mobile -o build/ios/MLViz.xcframework -v ./mobile
package mobile

import (
	"log"

	"github.com/hajimehoshi/ebiten/v2/mobile"

	"github.com/decker502/mlviz/pkg/app"
	"github.com/decker502/mlviz/pkg/embedded"
	"github.com/decker502/mlviz/pkg/logger"
	"github.com/decker502/mlviz/pkg/settings"
)

func init() {
	// 初始化嵌入资源
	// dataFS 在 embed.go 中声明
	embedded.Init(dataFS)

	lggr, err := logger.New(true)
	if err != nil {
		log.Fatalf("日志初始化失败: %v", err)
	}

	// 移动端没有 gdata 存储时只在内存中保存偏好
	store, err := settings.OpenStore()
	if err != nil {
		store = nil
	}

	// 创建查看器，使用默认配置
	cfg := app.Config{
		Count:    -1, // 使用预设粒子数
		Logger:   lggr,
		Settings: settings.NewManager(store, lggr),
	}

	viewer, err := app.NewApp(cfg)
	if err != nil {
		log.Fatalf("查看器初始化失败: %v", err)
	}

	// 注册到 ebitenmobile
	mobile.SetGame(viewer)
}

// Dummy 是一个空导出函数，确保包被 ebitenmobile 正确识别
func Dummy() {}
