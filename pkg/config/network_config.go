package config

import "fmt"

// NetworkConfig holds the options of the neural-network node diagram.
type NetworkConfig struct {
	Layers          []int     `yaml:"layers" toml:"layers"`                   // Node count per layer
	Color           string    `yaml:"color" toml:"color"`                     // Node color
	ConnectionColor string    `yaml:"connectionColor" toml:"connectionColor"` // Edge color
	Data            []float64 `yaml:"data,omitempty" toml:"data,omitempty"`   // Input-layer node values
	OffsetZ         float64   `yaml:"offsetZ" toml:"offsetZ"`                 // Group offset along z
}

// DefaultNetworkConfig returns the stand-alone diagram defaults.
func DefaultNetworkConfig() NetworkConfig {
	return NetworkConfig{
		Layers:          []int{4, 6, 6, 4},
		Color:           "#646cff",
		ConnectionColor: "#646cff33",
	}
}

// Validate rejects negative layer sizes.
func (c NetworkConfig) Validate() error {
	for i, n := range c.Layers {
		if n < 0 {
			return fmt.Errorf("%w: layer %d has negative size %d", ErrInvalidConfig, i, n)
		}
	}
	return nil
}
