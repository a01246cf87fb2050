package config

import "fmt"

// Viewport defaults used before the host reports its size.
const (
	DefaultViewportWidth  = 1280
	DefaultViewportHeight = 720
)

// SceneConfig composes the background field and the network diagram.
type SceneConfig struct {
	Field       FieldConfig   `yaml:"field" toml:"field"`
	Network     NetworkConfig `yaml:"network" toml:"network"`
	ShowNetwork bool          `yaml:"showNetwork" toml:"showNetwork"`
	Theme       Theme         `yaml:"theme,omitempty" toml:"theme,omitempty"`
}

// DefaultSceneConfig returns the landing-page composition: a 2000-particle
// field in the primary color behind a small network in the secondary color.
func DefaultSceneConfig() SceneConfig {
	field := DefaultFieldConfig()
	field.Count = 2000
	field.Color = "hsl(var(--primary))"

	network := DefaultNetworkConfig()
	network.Layers = []int{3, 4, 4, 3}
	network.Color = "hsl(var(--secondary))"
	network.ConnectionColor = "hsl(var(--secondary) / 0.3)"
	network.OffsetZ = -5

	return SceneConfig{
		Field:       field,
		Network:     network,
		ShowNetwork: true,
		Theme:       DefaultTheme(),
	}
}

// Validate checks both visuals and that every color resolves.
func (c SceneConfig) Validate() error {
	if err := c.Field.Validate(); err != nil {
		return fmt.Errorf("field: %w", err)
	}
	if _, err := c.Field.ResolveColor(c.Theme); err != nil {
		return fmt.Errorf("field color: %w", err)
	}
	if !c.ShowNetwork {
		return nil
	}
	if err := c.Network.Validate(); err != nil {
		return fmt.Errorf("network: %w", err)
	}
	for _, s := range []string{c.Network.Color, c.Network.ConnectionColor} {
		if _, err := ParseColor(s, c.Theme); err != nil {
			return fmt.Errorf("network color: %w", err)
		}
	}
	return nil
}
