package config

import (
	"errors"
	"math/rand"
	"os"
	"path/filepath"
	"testing"
	"testing/fstest"

	"github.com/decker502/mlviz/pkg/embedded"
)

const yamlPresets = `
default: landing
theme:
  primary: "0 100% 50%"
presets:
  landing:
    field:
      count: "2000"
      color: hsl(var(--primary))
    showNetwork: true
  ranged:
    field:
      count: "[1000 2000]"
      speed: "[0.1 0.3]"
      emotionMode: fear
    showNetwork: false
  custom-net:
    field:
      count: "10"
    network:
      layers: [2, 2]
  broken:
    field:
      count: "[abc]"
`

const tomlPresets = `
default = "landing"

[presets.landing]
description = "toml landing"
showNetwork = false

[presets.landing.field]
count = "300"
depth = "[20]"
interactive = false
color = "#ff00ff"
`

// TestParsePresets_YAML tests decoding and default resolution.
func TestParsePresets_YAML(t *testing.T) {
	pf, err := ParsePresets([]byte(yamlPresets), FormatYAML)
	if err != nil {
		t.Fatalf("ParsePresets() error: %v", err)
	}

	names := pf.Names()
	want := []string{"broken", "custom-net", "landing", "ranged"}
	if len(names) != len(want) {
		t.Fatalf("Names() = %v, want %v", names, want)
	}
	for i := range want {
		if names[i] != want[i] {
			t.Errorf("Names()[%d] = %q, want %q", i, names[i], want[i])
		}
	}

	cfg, err := pf.Resolve("", rand.New(rand.NewSource(1)))
	if err != nil {
		t.Fatalf("Resolve(default) error: %v", err)
	}
	if cfg.Field.Count != 2000 {
		t.Errorf("count = %d, want 2000", cfg.Field.Count)
	}
	c, err := cfg.Field.ResolveColor(cfg.Theme)
	if err != nil {
		t.Fatalf("ResolveColor() error: %v", err)
	}
	if c.R != 255 || c.G != 0 || c.B != 0 {
		t.Errorf("themed primary = %v, want red from the file theme", c)
	}
	if cfg.Field.Depth != DefaultDepth {
		t.Errorf("depth = %v, want default %v", cfg.Field.Depth, DefaultDepth)
	}
}

// TestParsePresets_TOML tests the TOML form of the same schema.
func TestParsePresets_TOML(t *testing.T) {
	pf, err := ParsePresets([]byte(tomlPresets), FormatTOML)
	if err != nil {
		t.Fatalf("ParsePresets() error: %v", err)
	}

	cfg, err := pf.Resolve("landing", rand.New(rand.NewSource(1)))
	if err != nil {
		t.Fatalf("Resolve() error: %v", err)
	}
	if cfg.Field.Count != 300 || cfg.Field.Depth != 20 {
		t.Errorf("field = %+v, want count 300 depth 20", cfg.Field)
	}
	if cfg.Field.Interactive {
		t.Error("interactive = true, want false")
	}
	if cfg.ShowNetwork {
		t.Error("showNetwork = true, want false")
	}
	if pf.Presets["landing"].Description != "toml landing" {
		t.Errorf("description = %q", pf.Presets["landing"].Description)
	}
}

// TestResolve_Ranges tests that range strings are sampled inside their bounds
// and reproducibly for the same seed.
func TestResolve_Ranges(t *testing.T) {
	pf, err := ParsePresets([]byte(yamlPresets), FormatYAML)
	if err != nil {
		t.Fatalf("ParsePresets() error: %v", err)
	}

	a, err := pf.Resolve("ranged", rand.New(rand.NewSource(42)))
	if err != nil {
		t.Fatalf("Resolve() error: %v", err)
	}
	b, _ := pf.Resolve("ranged", rand.New(rand.NewSource(42)))

	if a.Field.Count < 1000 || a.Field.Count > 2000 {
		t.Errorf("count = %d, want within [1000, 2000]", a.Field.Count)
	}
	if a.Field.Speed < 0.1 || a.Field.Speed > 0.3 {
		t.Errorf("speed = %v, want within [0.1, 0.3]", a.Field.Speed)
	}
	if a.Field.Count != b.Field.Count || a.Field.Speed != b.Field.Speed {
		t.Errorf("same seed gave %+v and %+v", a.Field, b.Field)
	}
	if a.Field.EmotionMode != EmotionFear {
		t.Errorf("emotion = %q, want fear", a.Field.EmotionMode)
	}
}

// TestResolve_NetworkOverlay tests that a partial network keeps the scene colors.
func TestResolve_NetworkOverlay(t *testing.T) {
	pf, _ := ParsePresets([]byte(yamlPresets), FormatYAML)

	cfg, err := pf.Resolve("custom-net", rand.New(rand.NewSource(1)))
	if err != nil {
		t.Fatalf("Resolve() error: %v", err)
	}
	if len(cfg.Network.Layers) != 2 {
		t.Errorf("layers = %v, want [2 2]", cfg.Network.Layers)
	}
	def := DefaultSceneConfig()
	if cfg.Network.Color != def.Network.Color || cfg.Network.OffsetZ != def.Network.OffsetZ {
		t.Errorf("network = %+v, want scene color and offset kept", cfg.Network)
	}
}

// TestResolve_Errors tests unknown names and bad range strings.
func TestResolve_Errors(t *testing.T) {
	pf, _ := ParsePresets([]byte(yamlPresets), FormatYAML)
	src := rand.New(rand.NewSource(1))

	if _, err := pf.Resolve("missing", src); !errors.Is(err, ErrInvalidConfig) {
		t.Errorf("Resolve(missing) = %v, want ErrInvalidConfig", err)
	}
	if _, err := pf.Resolve("broken", src); !errors.Is(err, ErrInvalidConfig) {
		t.Errorf("Resolve(broken) = %v, want ErrInvalidConfig", err)
	}

	tests := []struct {
		name  string
		field string
	}{
		{"NaN depth", `depth: "NaN"`},
		{"Inf speed", `speed: "+Inf"`},
		{"NaN size range", `size: "[NaN 1]"`},
		{"Huge count", `count: "1e12"`},
		{"Huge negative count", `count: "-1e12"`},
		{"Count over max", `count: "200001"`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			data := "default: bad\npresets:\n  bad:\n    field:\n      " + tt.field + "\n"
			pf, err := ParsePresets([]byte(data), FormatYAML)
			if err != nil {
				t.Fatalf("ParsePresets() error = %v", err)
			}
			if _, err := pf.Resolve("bad", src); !errors.Is(err, ErrInvalidConfig) {
				t.Errorf("Resolve(%s) = %v, want ErrInvalidConfig", tt.field, err)
			}
		})
	}
}

// TestParsePresets_Invalid tests structural errors in preset files.
func TestParsePresets_Invalid(t *testing.T) {
	tests := []struct {
		name   string
		data   string
		format Format
	}{
		{"No presets", "default: x\n", FormatYAML},
		{"Unknown default", "default: x\npresets:\n  y:\n    field: {}\n", FormatYAML},
		{"Bad YAML", "presets: [", FormatYAML},
		{"Bad TOML", "presets = ", FormatTOML},
		{"Unknown format", "presets: {}", Format("json")},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := ParsePresets([]byte(tt.data), tt.format); err == nil {
				t.Error("ParsePresets() error = nil, want error")
			}
		})
	}
}

// TestParsePresets_DefaultsToFirstName tests a file without a default key.
func TestParsePresets_DefaultsToFirstName(t *testing.T) {
	pf, err := ParsePresets([]byte("presets:\n  b: {}\n  a: {}\n"), FormatYAML)
	if err != nil {
		t.Fatalf("ParsePresets() error: %v", err)
	}
	if pf.Default != "a" {
		t.Errorf("Default = %q, want a", pf.Default)
	}
}

// TestLoadPresets tests loading from the embedded tree and from disk.
func TestLoadPresets(t *testing.T) {
	embedded.Init(fstest.MapFS{
		"data/presets.yaml": &fstest.MapFile{Data: []byte(yamlPresets)},
	})
	defer embedded.Init(nil)

	pf, err := LoadPresets(DefaultPresetsPath)
	if err != nil {
		t.Fatalf("LoadPresets(embedded) error: %v", err)
	}
	if pf.Default != "landing" {
		t.Errorf("Default = %q, want landing", pf.Default)
	}

	path := filepath.Join(t.TempDir(), "presets.toml")
	if err := os.WriteFile(path, []byte(tomlPresets), 0o644); err != nil {
		t.Fatal(err)
	}
	pf, err = LoadPresets(path)
	if err != nil {
		t.Fatalf("LoadPresets(toml) error: %v", err)
	}
	if _, ok := pf.Presets["landing"]; !ok {
		t.Error("landing preset missing from TOML file")
	}

	if _, err := LoadPresets(filepath.Join(t.TempDir(), "presets.json")); err == nil {
		t.Error("LoadPresets(.json) error = nil, want unsupported extension")
	}
	if _, err := LoadPresets(filepath.Join(t.TempDir(), "missing.yaml")); err == nil {
		t.Error("LoadPresets(missing) error = nil, want error")
	}
}

// TestLoadPresets_Bundled tests that the shipped preset file resolves.
func TestLoadPresets_Bundled(t *testing.T) {
	pf, err := LoadPresets(filepath.Join("..", "..", DefaultPresetsPath))
	if err != nil {
		t.Fatalf("LoadPresets(bundled) error: %v", err)
	}
	for _, name := range pf.Names() {
		if _, err := pf.Resolve(name, rand.New(rand.NewSource(7))); err != nil {
			t.Errorf("Resolve(%q) error: %v", name, err)
		}
	}
}
