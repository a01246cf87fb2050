package config

import (
	"errors"
	"image/color"
	"testing"
)

// TestParseColor tests every accepted color form.
func TestParseColor(t *testing.T) {
	theme := DefaultTheme()

	tests := []struct {
		name  string
		input string
		want  color.NRGBA
	}{
		{"Hex 6", "#00C3FF", color.NRGBA{0x00, 0xc3, 0xff, 0xff}},
		{"Hex 3", "#0cf", color.NRGBA{0x00, 0xcc, 0xff, 0xff}},
		{"Hex 8", "#646cff33", color.NRGBA{0x64, 0x6c, 0xff, 0x33}},
		{"CSS name", "cyan", color.NRGBA{0x00, 0xff, 0xff, 0xff}},
		{"CSS name mixed case", "  Red ", color.NRGBA{0xff, 0x00, 0x00, 0xff}},
		{"rgb", "rgb(0, 195, 255)", color.NRGBA{0, 195, 255, 255}},
		{"rgba", "rgba(255, 0, 0, 0.5)", color.NRGBA{255, 0, 0, 128}},
		{"hsl spaces", "hsl(0 100% 50%)", color.NRGBA{255, 0, 0, 255}},
		{"hsl commas", "hsl(120, 100%, 50%)", color.NRGBA{0, 255, 0, 255}},
		{"hsl slash alpha", "hsl(240 100% 50% / 0.5)", color.NRGBA{0, 0, 255, 128}},
		{"Theme token", "hsl(var(--neon-cyan))", color.NRGBA{0, 255, 255, 255}},
		{"Theme token alpha", "hsl(var(--neon-cyan) / 0.4)", color.NRGBA{0, 255, 255, 102}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ParseColor(tt.input, theme)
			if err != nil {
				t.Fatalf("ParseColor(%q) error: %v", tt.input, err)
			}
			if got != tt.want {
				t.Errorf("ParseColor(%q) = %v, want %v", tt.input, got, tt.want)
			}
		})
	}
}

// TestParseColor_Invalid tests that malformed colors wrap ErrInvalidConfig.
func TestParseColor_Invalid(t *testing.T) {
	inputs := []string{
		"",
		"#12",
		"#zzzzzz",
		"notacolor",
		"rgb(1, 2)",
		"hsl(abc 100% 50%)",
		"hsl(var(--missing))",
		"hsl(var(--primary)",
	}

	for _, in := range inputs {
		if _, err := ParseColor(in, DefaultTheme()); !errors.Is(err, ErrInvalidConfig) {
			t.Errorf("ParseColor(%q) error = %v, want ErrInvalidConfig", in, err)
		}
	}
}

// TestHSLToRGB tests the primary hues and grey.
func TestHSLToRGB(t *testing.T) {
	tests := []struct {
		h, s, l float64
		r, g, b uint8
	}{
		{0, 1, 0.5, 255, 0, 0},
		{120, 1, 0.5, 0, 255, 0},
		{240, 1, 0.5, 0, 0, 255},
		{360, 1, 0.5, 255, 0, 0},
		{-120, 1, 0.5, 0, 0, 255},
		{0, 0, 0.5, 128, 128, 128},
	}

	for _, tt := range tests {
		r, g, b := HSLToRGB(tt.h, tt.s, tt.l)
		if to8(r) != tt.r || to8(g) != tt.g || to8(b) != tt.b {
			t.Errorf("HSLToRGB(%v, %v, %v) = (%d, %d, %d), want (%d, %d, %d)",
				tt.h, tt.s, tt.l, to8(r), to8(g), to8(b), tt.r, tt.g, tt.b)
		}
	}
}

// TestThemeMerge tests that overrides win and the receiver is untouched.
func TestThemeMerge(t *testing.T) {
	base := DefaultTheme()
	merged := base.Merge(Theme{"primary": "0 100% 50%", "brand": "60 100% 50%"})

	if merged["primary"] != "0 100% 50%" {
		t.Errorf("merged primary = %q, want override", merged["primary"])
	}
	if merged["brand"] != "60 100% 50%" {
		t.Errorf("merged brand missing")
	}
	if base["primary"] != "190 100% 50%" {
		t.Errorf("base theme was modified: primary = %q", base["primary"])
	}
}
