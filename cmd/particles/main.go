// Package main provides a preset browser for tuning particle field presets.
//
// Usage:
//
//	go run ./cmd/particles [flags]
//
// Flags:
//
//	--presets <path>      Presets file (default data/presets.yaml, .toml also accepted)
//	--preset <name>       Start with a specific preset
//	--filter <keyword>    Only browse presets whose name contains keyword
//	--count <n>           Override the particle count of every preset
//	--emotion <mode>      Start with an emotion color
//	--seed <n>            Random seed (0 = time based)
//	--auto-play           Cycle through presets every 5 seconds
//	--list                Print the presets and exit
//
// Controls:
//
//	Left/Right Arrow  - Switch to previous/next preset
//	Home/End          - Jump to first/last preset
//	E                 - Cycle emotion color
//	I                 - Toggle pointer repulsion
//	G                 - Toggle the network diagram
//	Space             - Pause / resume
//	A                 - Toggle auto-play
//	Q/Escape          - Quit
package main

import (
	"errors"
	"flag"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/hajimehoshi/ebiten/v2"
	"github.com/hajimehoshi/ebiten/v2/ebitenutil"
	"github.com/hajimehoshi/ebiten/v2/inpututil"
	"go.uber.org/zap"

	"github.com/decker502/mlviz/pkg/app"
	"github.com/decker502/mlviz/pkg/config"
	"github.com/decker502/mlviz/pkg/logger"
)

const (
	screenWidth      = 1024
	screenHeight     = 768
	autoPlayInterval = 5 * time.Second
)

var (
	presetsFlag  = flag.String("presets", config.DefaultPresetsPath, "Presets file (.yaml, .yml or .toml)")
	presetFlag   = flag.String("preset", "", "Start with specific preset name")
	filterFlag   = flag.String("filter", "", "Only browse presets containing this keyword")
	countFlag    = flag.Int("count", -1, "Override the particle count")
	emotionFlag  = flag.String("emotion", "", "Start with an emotion color")
	seedFlag     = flag.Int64("seed", 0, "Random seed (0 = time based)")
	autoPlayFlag = flag.Bool("auto-play", false, "Auto cycle through presets every 5 seconds")
	listFlag     = flag.Bool("list", false, "List presets and exit")
	verboseFlag  = flag.Bool("verbose", false, "Enable verbose logging (default off)")
)

var errQuit = errors.New("quit requested")

// PresetViewerGame wraps the viewer with browsing controls.
type PresetViewerGame struct {
	viewer *app.App
	logger *zap.Logger

	names        []string // Presets matching the filter
	currentIndex int

	autoPlay   bool
	lastSwitch time.Time
	paused     bool

	statusMessage string
}

// filterPresets returns the names containing query, case-insensitively.
func filterPresets(all []string, query string) []string {
	if query == "" {
		return all
	}
	query = strings.ToLower(query)
	var out []string
	for _, name := range all {
		if strings.Contains(strings.ToLower(name), query) {
			out = append(out, name)
		}
	}
	return out
}

// NewPresetViewerGame loads the presets and mounts the first one.
func NewPresetViewerGame(presets *config.PresetFile, lggr *zap.Logger) (*PresetViewerGame, error) {
	names := filterPresets(presets.Names(), *filterFlag)
	if len(names) == 0 {
		return nil, fmt.Errorf("no presets match filter %q", *filterFlag)
	}

	start := *presetFlag
	if start == "" {
		start = names[0]
		for _, name := range names {
			if name == presets.Default {
				start = name
			}
		}
	}
	index := -1
	for i, name := range names {
		if name == start {
			index = i
		}
	}
	if index < 0 {
		return nil, fmt.Errorf("preset %q not found (filter %q)", start, *filterFlag)
	}

	viewer, err := app.NewApp(app.Config{
		Verbose:     true,
		Preset:      start,
		PresetsPath: *presetsFlag,
		Count:       *countFlag,
		Emotion:     config.EmotionMode(*emotionFlag),
		Seed:        *seedFlag,
		Logger:      lggr,
	})
	if err != nil {
		return nil, err
	}
	viewer.Layout(screenWidth, screenHeight)

	g := &PresetViewerGame{
		viewer:       viewer,
		logger:       lggr,
		names:        names,
		currentIndex: index,
		autoPlay:     *autoPlayFlag,
		lastSwitch:   time.Now(),
	}
	g.updateStatusMessage()
	return g, nil
}

// Update handles browsing keys and advances the scene.
func (g *PresetViewerGame) Update() error {
	if inpututil.IsKeyJustPressed(ebiten.KeyQ) || inpututil.IsKeyJustPressed(ebiten.KeyEscape) {
		return errQuit
	}

	switch {
	case inpututil.IsKeyJustPressed(ebiten.KeyArrowRight):
		g.jumpTo(g.currentIndex + 1)
	case inpututil.IsKeyJustPressed(ebiten.KeyArrowLeft):
		g.jumpTo(g.currentIndex - 1)
	case inpututil.IsKeyJustPressed(ebiten.KeyHome):
		g.jumpTo(0)
	case inpututil.IsKeyJustPressed(ebiten.KeyEnd):
		g.jumpTo(len(g.names) - 1)
	}

	if inpututil.IsKeyJustPressed(ebiten.KeyE) {
		if err := g.viewer.CycleEmotion(); err != nil {
			g.statusMessage = fmt.Sprintf("Error: %v", err)
		}
	}
	if inpututil.IsKeyJustPressed(ebiten.KeyI) {
		g.viewer.ToggleInteractive()
	}
	if inpututil.IsKeyJustPressed(ebiten.KeyG) {
		if err := g.viewer.ToggleNetwork(); err != nil {
			g.statusMessage = fmt.Sprintf("Error: %v", err)
		}
	}
	if inpututil.IsKeyJustPressed(ebiten.KeySpace) {
		g.paused = !g.paused
	}
	if inpututil.IsKeyJustPressed(ebiten.KeyA) {
		g.autoPlay = !g.autoPlay
		g.lastSwitch = time.Now()
	}

	if g.autoPlay && !g.paused && time.Since(g.lastSwitch) >= autoPlayInterval {
		g.jumpTo(g.currentIndex + 1)
	}

	x, y := ebiten.CursorPosition()
	g.viewer.MovePointer(x, y)

	if g.paused {
		return nil
	}
	return g.viewer.Step(1.0 / float64(ebiten.TPS()))
}

// jumpTo switches to the preset at index, wrapping around the list.
func (g *PresetViewerGame) jumpTo(index int) {
	n := len(g.names)
	index = (index%n + n) % n
	name := g.names[index]

	current := g.viewer.Scenes().Current()
	if current != nil && current.Name() == name {
		return
	}
	if err := g.viewer.Scenes().Load(name); err != nil {
		g.statusMessage = fmt.Sprintf("Error: %v", err)
		return
	}
	g.currentIndex = index
	g.lastSwitch = time.Now()
	g.updateStatusMessage()
}

// Draw renders the scene and the browser overlay.
func (g *PresetViewerGame) Draw(screen *ebiten.Image) {
	g.viewer.Draw(screen)

	ebitenutil.DebugPrintAt(screen, g.statusMessage, 10, 110)

	// Controls (bottom left)
	controls := []string{
		"Navigation: <-/-> = Prev/Next  Home/End = First/Last  A = Auto-play",
		"Actions:    E = Emotion  I = Interactive  Space = Pause  Q = Quit",
	}
	y := screenHeight - len(controls)*20 - 10
	for i, line := range controls {
		ebitenutil.DebugPrintAt(screen, line, 10, y+i*20)
	}

	if g.paused {
		ebitenutil.DebugPrintAt(screen, "PAUSED (Space to resume)", screenWidth-200, 10)
	} else if g.autoPlay {
		ebitenutil.DebugPrintAt(screen, "AUTO-PLAY MODE", screenWidth-200, 10)
	}
}

// Layout returns the viewer's logical screen size.
func (g *PresetViewerGame) Layout(outsideWidth, outsideHeight int) (int, int) {
	return g.viewer.Layout(screenWidth, screenHeight)
}

func (g *PresetViewerGame) updateStatusMessage() {
	name := g.names[g.currentIndex]
	g.statusMessage = fmt.Sprintf("Preset %d/%d: %s", g.currentIndex+1, len(g.names), name)
	g.logger.Info("current preset", zap.String("preset", name), zap.Int("index", g.currentIndex+1), zap.Int("total", len(g.names)))
}

func listPresets(presets *config.PresetFile) {
	for _, name := range filterPresets(presets.Names(), *filterFlag) {
		marker := " "
		if name == presets.Default {
			marker = "*"
		}
		fmt.Printf("%s %-12s %s\n", marker, name, presets.Presets[name].Description)
	}
}

func main() {
	flag.Parse()

	lggr, err := logger.New(*verboseFlag)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
	defer func() { _ = lggr.Sync() }()

	// 工具从磁盘读取预设文件（不使用嵌入资源）
	presets, err := config.LoadPresets(*presetsFlag)
	if err != nil {
		fmt.Fprintln(os.Stderr, "Failed to load presets:", err)
		os.Exit(1)
	}
	if *listFlag {
		listPresets(presets)
		return
	}

	game, err := NewPresetViewerGame(presets, lggr)
	if err != nil {
		fmt.Fprintln(os.Stderr, "Failed to initialize viewer:", err)
		os.Exit(1)
	}
	defer game.viewer.Close()

	ebiten.SetWindowSize(screenWidth, screenHeight)
	ebiten.SetWindowTitle("mlviz Preset Viewer")

	if err := ebiten.RunGame(game); err != nil && !errors.Is(err, errQuit) {
		lggr.Error("viewer stopped", zap.Error(err))
	}
	lggr.Info("preset viewer closed")
}
