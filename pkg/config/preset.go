package config

import (
	"fmt"
	"math"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/pelletier/go-toml/v2"
	"gopkg.in/yaml.v3"

	"github.com/decker502/mlviz/internal/particle"
	"github.com/decker502/mlviz/pkg/embedded"
)

// DefaultPresetsPath is the embedded preset file.
const DefaultPresetsPath = "data/presets.yaml"

// Format is the encoding of a preset file.
type Format string

const (
	FormatYAML Format = "yaml"
	FormatTOML Format = "toml"
)

// FormatFromPath picks the encoding from the file extension.
func FormatFromPath(path string) (Format, error) {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		return FormatYAML, nil
	case ".toml":
		return FormatTOML, nil
	}
	return "", fmt.Errorf("unsupported preset file extension %q", filepath.Ext(path))
}

// FieldPreset is the file form of FieldConfig. Numeric options are range
// strings ("2000", "[50]", "[2000 5000]") sampled when the preset is
// resolved; absent options keep the scene defaults.
type FieldPreset struct {
	Count       string      `yaml:"count,omitempty" toml:"count,omitempty"`
	Color       string      `yaml:"color,omitempty" toml:"color,omitempty"`
	Speed       string      `yaml:"speed,omitempty" toml:"speed,omitempty"`
	Size        string      `yaml:"size,omitempty" toml:"size,omitempty"`
	Depth       string      `yaml:"depth,omitempty" toml:"depth,omitempty"`
	Interactive *bool       `yaml:"interactive,omitempty" toml:"interactive,omitempty"`
	EmotionMode EmotionMode `yaml:"emotionMode,omitempty" toml:"emotionMode,omitempty"`
}

// Preset is one named composition.
type Preset struct {
	Description string         `yaml:"description,omitempty" toml:"description,omitempty"`
	Field       FieldPreset    `yaml:"field" toml:"field"`
	Network     *NetworkConfig `yaml:"network,omitempty" toml:"network,omitempty"`
	ShowNetwork *bool          `yaml:"showNetwork,omitempty" toml:"showNetwork,omitempty"`
}

// PresetFile is the root of a preset file.
type PresetFile struct {
	Default string            `yaml:"default" toml:"default"`
	Theme   Theme             `yaml:"theme,omitempty" toml:"theme,omitempty"`
	Presets map[string]Preset `yaml:"presets" toml:"presets"`
}

// ParsePresets decodes a preset file and checks that its default exists.
func ParsePresets(data []byte, format Format) (*PresetFile, error) {
	var pf PresetFile
	switch format {
	case FormatYAML:
		if err := yaml.Unmarshal(data, &pf); err != nil {
			return nil, fmt.Errorf("failed to parse YAML presets: %w", err)
		}
	case FormatTOML:
		if err := toml.Unmarshal(data, &pf); err != nil {
			return nil, fmt.Errorf("failed to parse TOML presets: %w", err)
		}
	default:
		return nil, fmt.Errorf("unknown preset format %q", format)
	}

	if len(pf.Presets) == 0 {
		return nil, fmt.Errorf("preset file contains no presets")
	}
	if pf.Default == "" {
		pf.Default = pf.Names()[0]
	}
	if _, ok := pf.Presets[pf.Default]; !ok {
		return nil, fmt.Errorf("default preset %q not defined", pf.Default)
	}
	return &pf, nil
}

// LoadPresets reads a preset file. Paths under data/ come from the embedded
// tree, anything else from disk.
func LoadPresets(path string) (*PresetFile, error) {
	format, err := FormatFromPath(path)
	if err != nil {
		return nil, err
	}

	var data []byte
	if embedded.IsEmbeddedPath(path) && embedded.IsInitialized() {
		data, err = embedded.ReadFile(path)
	} else {
		data, err = os.ReadFile(path)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read presets %s: %w", path, err)
	}

	pf, err := ParsePresets(data, format)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return pf, nil
}

// Names returns the preset names sorted alphabetically.
func (pf *PresetFile) Names() []string {
	names := make([]string, 0, len(pf.Presets))
	for name := range pf.Presets {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Resolve builds a validated scene configuration from the named preset. An
// empty name selects the file default. Range options are sampled from src.
func (pf *PresetFile) Resolve(name string, src particle.Source) (SceneConfig, error) {
	if name == "" {
		name = pf.Default
	}
	preset, ok := pf.Presets[name]
	if !ok {
		return SceneConfig{}, fmt.Errorf("%w: unknown preset %q", ErrInvalidConfig, name)
	}

	cfg := DefaultSceneConfig()
	cfg.Theme = cfg.Theme.Merge(pf.Theme)

	if err := preset.Field.apply(&cfg.Field, src); err != nil {
		return SceneConfig{}, fmt.Errorf("preset %q: %w", name, err)
	}
	if preset.Network != nil {
		cfg.Network = cfg.Network.overlay(*preset.Network)
	}
	if preset.ShowNetwork != nil {
		cfg.ShowNetwork = *preset.ShowNetwork
	}

	if err := cfg.Validate(); err != nil {
		return SceneConfig{}, fmt.Errorf("preset %q: %w", name, err)
	}
	return cfg, nil
}

func (fp FieldPreset) apply(dst *FieldConfig, src particle.Source) error {
	numbers := []struct {
		name  string
		value string
		set   func(float64)
	}{
		{"count", fp.Count, func(v float64) { dst.Count = int(math.Round(v)) }},
		{"speed", fp.Speed, func(v float64) { dst.Speed = v }},
		{"size", fp.Size, func(v float64) { dst.Size = v }},
		{"depth", fp.Depth, func(v float64) { dst.Depth = v }},
	}
	for _, n := range numbers {
		if n.value == "" {
			continue
		}
		r, err := particle.ParseValue(n.value)
		if err != nil {
			return fmt.Errorf("%w: %s: %v", ErrInvalidConfig, n.name, err)
		}
		v := r.Sample(src)
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return fmt.Errorf("%w: %s must be finite, got %q", ErrInvalidConfig, n.name, n.value)
		}
		// reject out-of-range counts before the int conversion
		if n.name == "count" && math.Abs(v) > MaxCount {
			return fmt.Errorf("%w: count must be within [0, %d], got %q", ErrInvalidConfig, MaxCount, n.value)
		}
		n.set(v)
	}

	if fp.Color != "" {
		dst.Color = fp.Color
	}
	if fp.Interactive != nil {
		dst.Interactive = *fp.Interactive
	}
	if fp.EmotionMode != EmotionNone {
		dst.EmotionMode = fp.EmotionMode
	}
	return nil
}

// overlay returns c with the non-zero fields of o applied.
func (c NetworkConfig) overlay(o NetworkConfig) NetworkConfig {
	if o.Layers != nil {
		c.Layers = append([]int(nil), o.Layers...)
	}
	if o.Color != "" {
		c.Color = o.Color
	}
	if o.ConnectionColor != "" {
		c.ConnectionColor = o.ConnectionColor
	}
	if o.Data != nil {
		c.Data = append([]float64(nil), o.Data...)
	}
	if o.OffsetZ != 0 {
		c.OffsetZ = o.OffsetZ
	}
	return c
}
