// Command fieldsnap renders a preset offscreen and writes the last frame to
// a PNG file.
//
// Usage:
//
//	go run ./cmd/fieldsnap --preset=storm --frames=120 --out=storm.png
package main

import (
	"flag"
	"fmt"
	"math/rand"
	"os"

	"go.uber.org/zap"

	"github.com/decker502/mlviz/pkg/config"
	"github.com/decker502/mlviz/pkg/field"
	"github.com/decker502/mlviz/pkg/logger"
	"github.com/decker502/mlviz/pkg/render"
	"github.com/decker502/mlviz/pkg/scene"
)

var (
	presetsFlag = flag.String("presets", config.DefaultPresetsPath, "Presets file (.yaml, .yml or .toml)")
	presetFlag  = flag.String("preset", "", "Preset name (default: file default)")
	countFlag   = flag.Int("count", -1, "Override the particle count")
	emotionFlag = flag.String("emotion", "", "Emotion color")
	seedFlag    = flag.Int64("seed", 1, "Random seed")
	framesFlag  = flag.Int("frames", 60, "Frames to simulate before the snapshot")
	fpsFlag     = flag.Int("fps", field.DefaultFPS, "Simulated frames per second")
	widthFlag   = flag.Int("width", 1280, "Image width in pixels")
	heightFlag  = flag.Int("height", 720, "Image height in pixels")
	pointerFlag = flag.String("pointer", "", "Pointer position in pixels as \"x,y\" (default: none)")
	outFlag     = flag.String("out", "field.png", "Output PNG path")
	verboseFlag = flag.Bool("verbose", false, "Enable verbose logging")
)

// snapshot describes one offscreen render.
type snapshot struct {
	Preset  string
	Count   int
	Emotion config.EmotionMode
	Seed    int64
	Frames  int
	FPS     int
	Width   int
	Height  int
	// Pointer in pixels, origin top-left; nil renders without a pointer.
	Pointer *[2]float64
}

// take mounts the preset on a raster backend, steps it and returns the
// backend holding the last frame. The caller disposes it through the scene.
func (s snapshot) take(presets *config.PresetFile, lggr *zap.Logger) (*scene.Scene, *render.RasterRenderer, error) {
	src := rand.New(rand.NewSource(s.Seed))
	cfg, err := presets.Resolve(s.Preset, src)
	if err != nil {
		return nil, nil, err
	}
	if s.Count >= 0 {
		cfg.Field.Count = s.Count
	}
	if s.Emotion != config.EmotionNone {
		cfg.Field.EmotionMode = s.Emotion
	}

	events := field.NewListeners()
	backend := render.NewRasterRenderer(s.Width, s.Height)
	sc, err := scene.New(s.Preset, cfg, backend, events, field.Options{
		Logger:         lggr,
		Source:         src,
		ViewportWidth:  s.Width,
		ViewportHeight: s.Height,
	})
	if err != nil {
		return nil, nil, err
	}
	if sc.Field().Degraded() {
		sc.Unmount()
		return nil, nil, sc.Field().Err()
	}

	if s.Pointer != nil {
		events.DispatchPointer(scene.PointerFromCursor(s.Pointer[0], s.Pointer[1], float64(s.Width), float64(s.Height)))
	}

	fps := s.FPS
	if fps <= 0 {
		fps = field.DefaultFPS
	}
	frames := max(s.Frames, 1)
	for i := 1; i <= frames; i++ {
		if err := sc.Frame(float64(i) / float64(fps)); err != nil {
			sc.Unmount()
			return nil, nil, err
		}
	}
	return sc, backend, nil
}

func parsePointer(s string) (*[2]float64, error) {
	if s == "" {
		return nil, nil
	}
	var p [2]float64
	if _, err := fmt.Sscanf(s, "%g,%g", &p[0], &p[1]); err != nil {
		return nil, fmt.Errorf("invalid pointer %q, want \"x,y\": %w", s, err)
	}
	return &p, nil
}

func run() error {
	flag.Parse()

	lggr, err := logger.New(*verboseFlag)
	if err != nil {
		return err
	}
	defer func() { _ = lggr.Sync() }()

	// 工具从磁盘读取预设文件（不使用嵌入资源）
	presets, err := config.LoadPresets(*presetsFlag)
	if err != nil {
		return fmt.Errorf("failed to load presets: %w", err)
	}
	pointer, err := parsePointer(*pointerFlag)
	if err != nil {
		return err
	}

	name := *presetFlag
	if name == "" {
		name = presets.Default
	}
	snap := snapshot{
		Preset:  name,
		Count:   *countFlag,
		Emotion: config.EmotionMode(*emotionFlag),
		Seed:    *seedFlag,
		Frames:  *framesFlag,
		FPS:     *fpsFlag,
		Width:   *widthFlag,
		Height:  *heightFlag,
		Pointer: pointer,
	}

	sc, backend, err := snap.take(presets, lggr)
	if err != nil {
		return fmt.Errorf("failed to render %q: %w", name, err)
	}
	defer sc.Unmount()

	if err := backend.SavePNG(*outFlag); err != nil {
		return fmt.Errorf("failed to save snapshot: %w", err)
	}
	lggr.Info("snapshot written",
		zap.String("preset", name),
		zap.String("out", *outFlag),
		zap.Int("painted", backend.Painted()))
	fmt.Println(*outFlag)
	return nil
}

func main() {
	if err := run(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
