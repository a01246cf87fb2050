package config

import (
	"errors"
	"fmt"
	"image/color"
	"math"
)

// ErrInvalidConfig is wrapped by every validation failure.
var ErrInvalidConfig = errors.New("invalid config")

// EmotionMode selects one of the fixed preset colors of the field.
type EmotionMode string

const (
	EmotionNone      EmotionMode = ""
	EmotionHappiness EmotionMode = "happiness"
	EmotionAnger     EmotionMode = "anger"
	EmotionSadness   EmotionMode = "sadness"
	EmotionJealousy  EmotionMode = "jealousy"
	EmotionFear      EmotionMode = "fear"
	EmotionDisgust   EmotionMode = "disgust"
)

// EmotionModes lists the palette in display order.
var EmotionModes = []EmotionMode{
	EmotionHappiness,
	EmotionAnger,
	EmotionSadness,
	EmotionJealousy,
	EmotionFear,
	EmotionDisgust,
}

// EmotionPalette maps each emotion mode to its override color.
var EmotionPalette = map[EmotionMode]string{
	EmotionHappiness: "#FFC700", // caution yellow
	EmotionAnger:     "#FF0012", // warning red
	EmotionSadness:   "#00C3FF", // interface blue
	EmotionJealousy:  "#007F00", // terminal green
	EmotionFear:      "#5900B3", // purple
	EmotionDisgust:   "#FF5E00", // alert orange
}

// Valid reports whether m is EmotionNone or one of the palette modes.
func (m EmotionMode) Valid() bool {
	if m == EmotionNone {
		return true
	}
	_, ok := EmotionPalette[m]
	return ok
}

// Next cycles through the palette; the last mode wraps to EmotionNone.
func (m EmotionMode) Next() EmotionMode {
	if m == EmotionNone {
		return EmotionModes[0]
	}
	for i, mode := range EmotionModes {
		if mode == m && i+1 < len(EmotionModes) {
			return EmotionModes[i+1]
		}
	}
	return EmotionNone
}

// Field defaults.
const (
	DefaultCount   = 5000
	DefaultColor   = "#00C3FF"
	DefaultSpeed   = 0.2
	DefaultSize    = 0.1
	DefaultDepth   = 50.0
	DefaultOpacity = 0.85
	sadOpacity     = 0.7

	// MaxCount caps the particle count of one field.
	MaxCount = 200000
)

// FieldConfig holds the options of one particle field.
//
// The pointer is not part of the configuration: the parent view pushes it
// to the mounted field every time it changes.
type FieldConfig struct {
	Count       int         `yaml:"count" toml:"count"`             // Number of particles
	Color       string      `yaml:"color" toml:"color"`             // Base color (literal or theme token)
	Speed       float64     `yaml:"speed" toml:"speed"`             // Velocity scale
	Size        float64     `yaml:"size" toml:"size"`               // Base particle size
	Depth       float64     `yaml:"depth" toml:"depth"`             // Sampling sphere radius
	Interactive bool        `yaml:"interactive" toml:"interactive"` // Pointer repulsion
	EmotionMode EmotionMode `yaml:"emotionMode,omitempty" toml:"emotionMode,omitempty"`
}

// DefaultFieldConfig returns the field defaults.
func DefaultFieldConfig() FieldConfig {
	return FieldConfig{
		Count:       DefaultCount,
		Color:       DefaultColor,
		Speed:       DefaultSpeed,
		Size:        DefaultSize,
		Depth:       DefaultDepth,
		Interactive: true,
	}
}

// Validate rejects options that would corrupt the particle set.
func (c FieldConfig) Validate() error {
	for _, opt := range []struct {
		name  string
		value float64
	}{
		{"depth", c.Depth},
		{"speed", c.Speed},
		{"size", c.Size},
	} {
		if math.IsNaN(opt.value) || math.IsInf(opt.value, 0) {
			return fmt.Errorf("%w: %s must be finite, got %v", ErrInvalidConfig, opt.name, opt.value)
		}
	}

	switch {
	case c.Count < 0:
		return fmt.Errorf("%w: count must be >= 0, got %d", ErrInvalidConfig, c.Count)
	case c.Count > MaxCount:
		return fmt.Errorf("%w: count must be <= %d, got %d", ErrInvalidConfig, MaxCount, c.Count)
	case c.Depth <= 0:
		return fmt.Errorf("%w: depth must be > 0, got %v", ErrInvalidConfig, c.Depth)
	case c.Speed < 0:
		return fmt.Errorf("%w: speed must be >= 0, got %v", ErrInvalidConfig, c.Speed)
	case c.Size < 0:
		return fmt.Errorf("%w: size must be >= 0, got %v", ErrInvalidConfig, c.Size)
	case !c.EmotionMode.Valid():
		return fmt.Errorf("%w: unknown emotion mode %q", ErrInvalidConfig, c.EmotionMode)
	}
	return nil
}

// ResolveColor returns the render color: the emotion override when set,
// otherwise Color resolved against theme. An empty Color means DefaultColor.
func (c FieldConfig) ResolveColor(theme Theme) (color.NRGBA, error) {
	if hex, ok := EmotionPalette[c.EmotionMode]; ok {
		return ParseColor(hex, theme)
	}
	if c.Color == "" {
		return ParseColor(DefaultColor, theme)
	}
	return ParseColor(c.Color, theme)
}

// Opacity returns the field opacity; sadness renders slightly fainter.
func (c FieldConfig) Opacity() float64 {
	if c.EmotionMode == EmotionSadness {
		return sadOpacity
	}
	return DefaultOpacity
}
