// Command fieldterm renders a particle field preset in the terminal.
//
// Usage:
//
//	go run ./cmd/fieldterm [flags]
//
// Controls:
//
//	Mouse       - Repel particles
//	n / p       - Next / previous preset
//	e           - Cycle emotion color
//	i           - Toggle pointer repulsion
//	g           - Toggle the network diagram
//	q / Esc     - Quit
package main

import (
	"context"
	"flag"
	"fmt"
	"math/rand"
	"os"
	"time"

	"github.com/gdamore/tcell/v2"
	"go.uber.org/zap"

	"github.com/decker502/mlviz/pkg/config"
	"github.com/decker502/mlviz/pkg/field"
	"github.com/decker502/mlviz/pkg/logger"
	"github.com/decker502/mlviz/pkg/render"
	"github.com/decker502/mlviz/pkg/scene"
)

// Nominal cell size in pixels. The field maps the pointer to field units
// through a pixel viewport.
const (
	cellPixelWidth  = 8
	cellPixelHeight = 16
)

var (
	presetsFlag = flag.String("presets", config.DefaultPresetsPath, "Presets file (.yaml, .yml or .toml)")
	presetFlag  = flag.String("preset", "", "Preset name (default: file default)")
	countFlag   = flag.Int("count", 600, "Particle count, negative keeps the preset value")
	emotionFlag = flag.String("emotion", "", "Emotion color")
	seedFlag    = flag.Int64("seed", 0, "Random seed (0 = time based)")
	fpsFlag     = flag.Int("fps", 30, "Frames per second")
	logFlag     = flag.String("log", "", "Write debug log to this file (tcell owns the terminal)")
)

// viewer owns the screen state. Events are queued by the polling goroutine
// and handled on the frame goroutine.
type viewer struct {
	screen  tcell.Screen
	presets *config.PresetFile
	names   []string
	scenes  *scene.Manager
	events  *field.Listeners
	source  *rand.Rand
	logger  *zap.Logger

	count       int
	emotion     config.EmotionMode
	hideNetwork bool
	cols        int
	rows        int

	queue chan tcell.Event
	quit  func()
}

func newViewer(screen tcell.Screen, presets *config.PresetFile, seed int64, lggr *zap.Logger) *viewer {
	cols, rows := screen.Size()
	v := &viewer{
		screen:  screen,
		presets: presets,
		names:   presets.Names(),
		events:  field.NewListeners(),
		source:  rand.New(rand.NewSource(seed)),
		logger:  logger.OrNop(lggr),
		count:   -1,
		cols:    cols,
		rows:    rows,
		queue:   make(chan tcell.Event, 100),
		quit:    func() {},
	}
	v.scenes = scene.NewManager(v.buildScene, v.logger)
	return v
}

func (v *viewer) buildScene(name string) (*scene.Scene, error) {
	cfg, err := v.presets.Resolve(name, v.source)
	if err != nil {
		return nil, err
	}
	if v.count >= 0 {
		cfg.Field.Count = v.count
	}
	if v.emotion != config.EmotionNone {
		cfg.Field.EmotionMode = v.emotion
	}
	if v.hideNetwork {
		cfg.ShowNetwork = false
	}

	backend := render.NewTerminalRenderer(v.screen)
	backend.Resize(v.cols, v.rows)
	return scene.New(name, cfg, backend, v.events, field.Options{
		Logger:         v.logger,
		Source:         v.source,
		ViewportWidth:  v.cols * cellPixelWidth,
		ViewportHeight: v.rows * cellPixelHeight,
	})
}

func (v *viewer) backend() *render.TerminalRenderer {
	current := v.scenes.Current()
	if current == nil {
		return nil
	}
	r, _ := current.Backend().(*render.TerminalRenderer)
	return r
}

// poll forwards screen events to the queue until the screen is finalized.
func (v *viewer) poll() {
	for {
		ev := v.screen.PollEvent()
		if ev == nil {
			return
		}
		v.queue <- ev
	}
}

// frame drains queued events, then renders one frame.
func (v *viewer) frame(elapsed float64) {
drain:
	for {
		select {
		case ev := <-v.queue:
			if !v.handleEvent(ev) {
				v.quit()
				return
			}
		default:
			break drain
		}
	}

	current := v.scenes.Current()
	if current == nil {
		return
	}
	if err := current.Frame(elapsed); err != nil {
		v.logger.Warn("frame failed", zap.Error(err))
		return
	}
	if r := v.backend(); r != nil {
		r.Present()
	}
}

// handleEvent applies one event and reports whether the viewer keeps running.
func (v *viewer) handleEvent(ev tcell.Event) bool {
	switch ev := ev.(type) {
	case *tcell.EventKey:
		if ev.Key() == tcell.KeyEscape || ev.Key() == tcell.KeyCtrlC {
			return false
		}
		if ev.Key() != tcell.KeyRune {
			return true
		}
		switch ev.Rune() {
		case 'q':
			return false
		case 'n':
			v.switchPreset(1)
		case 'p':
			v.switchPreset(-1)
		case 'e':
			v.cycleEmotion()
		case 'i':
			if current := v.scenes.Current(); current != nil {
				current.Field().SetInteractive(!current.Field().Config().Interactive)
			}
		case 'g':
			v.toggleNetwork()
		}

	case *tcell.EventMouse:
		x, y := ev.Position()
		// 取格子中心
		v.events.DispatchPointer(scene.PointerFromCursor(float64(x)+0.5, float64(y)+0.5, float64(v.cols), float64(v.rows)))

	case *tcell.EventResize:
		v.cols, v.rows = ev.Size()
		v.events.DispatchResize(v.cols*cellPixelWidth, v.rows*cellPixelHeight)
		if r := v.backend(); r != nil {
			r.Resize(v.cols, v.rows)
		}
		v.screen.Sync()
	}
	return true
}

func (v *viewer) switchPreset(delta int) {
	index := 0
	if current := v.scenes.Current(); current != nil {
		for i, name := range v.names {
			if name == current.Name() {
				index = i
			}
		}
	}
	n := len(v.names)
	next := v.names[((index+delta)%n+n)%n]
	if err := v.scenes.Load(next); err != nil {
		v.logger.Warn("preset switch failed", zap.String("preset", next), zap.Error(err))
	}
}

// toggleNetwork rebuilds the current preset with the diagram hidden or shown.
func (v *viewer) toggleNetwork() {
	current := v.scenes.Current()
	if current == nil {
		return
	}
	v.hideNetwork = !v.hideNetwork
	if err := v.scenes.Load(current.Name()); err != nil {
		v.hideNetwork = !v.hideNetwork
		v.logger.Warn("network toggle failed", zap.Error(err))
	}
}

func (v *viewer) cycleEmotion() {
	current := v.scenes.Current()
	if current == nil {
		return
	}
	next := current.Field().Config().EmotionMode.Next()
	if err := current.Field().SetEmotion(next); err != nil {
		v.logger.Warn("emotion change failed", zap.Error(err))
		return
	}
	v.emotion = next
}

func run() error {
	flag.Parse()

	var lggr *zap.Logger
	var err error
	if *logFlag != "" {
		lggr, err = logger.New(true, *logFlag)
	} else {
		lggr, err = logger.New(false)
	}
	if err != nil {
		return err
	}
	defer func() { _ = lggr.Sync() }()

	// 工具从磁盘读取预设文件（不使用嵌入资源）
	presets, err := config.LoadPresets(*presetsFlag)
	if err != nil {
		return fmt.Errorf("failed to load presets: %w", err)
	}
	emotion := config.EmotionMode(*emotionFlag)
	if !emotion.Valid() {
		return fmt.Errorf("%w: unknown emotion mode %q", config.ErrInvalidConfig, emotion)
	}

	screen, err := tcell.NewScreen()
	if err != nil {
		return fmt.Errorf("failed to create screen: %w", err)
	}
	if err := screen.Init(); err != nil {
		return fmt.Errorf("failed to initialize screen: %w", err)
	}
	defer screen.Fini()
	screen.EnableMouse()
	screen.HideCursor()

	seed := *seedFlag
	if seed == 0 {
		seed = time.Now().UnixNano()
	}
	v := newViewer(screen, presets, seed, lggr)
	v.count = *countFlag
	v.emotion = emotion

	name := *presetFlag
	if name == "" {
		name = presets.Default
	}
	if err := v.scenes.Load(name); err != nil {
		return err
	}
	defer v.scenes.Close()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	v.quit = cancel

	go v.poll()
	loop := field.NewLoop(*fpsFlag, v.frame)
	lggr.Info("terminal viewer started",
		zap.Int("fps", *fpsFlag),
		zap.Int("cols", v.cols),
		zap.Int("rows", v.rows))

	_ = loop.Run(ctx)
	return nil
}

func main() {
	if err := run(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
