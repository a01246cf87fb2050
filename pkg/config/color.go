package config

import (
	"fmt"
	"image/color"
	"math"
	"strconv"
	"strings"

	"golang.org/x/image/colornames"
)

// Theme maps CSS custom-property names (without the leading "--") to HSL
// component strings such as "190 100% 50%".
type Theme map[string]string

// DefaultTheme is the dark neon theme of the platform.
func DefaultTheme() Theme {
	return Theme{
		"background":  "222 47% 6%",
		"foreground":  "210 40% 98%",
		"primary":     "190 100% 50%",
		"secondary":   "270 100% 65%",
		"accent":      "330 100% 60%",
		"muted":       "217 33% 17%",
		"neon-yellow": "47 100% 50%",
		"neon-red":    "356 100% 50%",
		"neon-blue":   "194 100% 50%",
		"neon-green":  "120 100% 25%",
		"neon-purple": "270 100% 35%",
		"neon-pink":   "330 100% 60%",
		"neon-cyan":   "180 100% 50%",
	}
}

// Merge returns a copy of t with the entries of o layered on top.
func (t Theme) Merge(o Theme) Theme {
	merged := make(Theme, len(t)+len(o))
	for k, v := range t {
		merged[k] = v
	}
	for k, v := range o {
		merged[k] = v
	}
	return merged
}

// ParseColor resolves a color string. Accepted forms:
//   - hex: "#0cf", "#00C3FF", "#646cff33"
//   - CSS names: "cyan", "rebeccapurple"
//   - rgb(0, 195, 255) / rgba(0, 195, 255, 0.5)
//   - hsl(190 100% 50%) / hsl(190, 100%, 50%) / hsla(..., 0.3) / hsl(... / 0.3)
//   - theme tokens: hsl(var(--primary)), hsl(var(--secondary) / 0.3)
func ParseColor(s string, theme Theme) (color.NRGBA, error) {
	s = strings.ToLower(strings.TrimSpace(s))
	switch {
	case s == "":
		return color.NRGBA{}, fmt.Errorf("%w: empty color", ErrInvalidConfig)
	case strings.HasPrefix(s, "#"):
		return parseHex(s)
	case strings.HasPrefix(s, "rgb"):
		return parseFunc(s, theme, rgbComponents)
	case strings.HasPrefix(s, "hsl"):
		return parseFunc(s, theme, hslComponents)
	}

	if c, ok := colornames.Map[s]; ok {
		return color.NRGBA{R: c.R, G: c.G, B: c.B, A: c.A}, nil
	}
	return color.NRGBA{}, fmt.Errorf("%w: unrecognized color %q", ErrInvalidConfig, s)
}

func parseHex(s string) (color.NRGBA, error) {
	hex := strings.TrimPrefix(s, "#")
	if len(hex) == 3 || len(hex) == 4 {
		expanded := make([]byte, 0, len(hex)*2)
		for i := 0; i < len(hex); i++ {
			expanded = append(expanded, hex[i], hex[i])
		}
		hex = string(expanded)
	}
	if len(hex) == 6 {
		hex += "ff"
	}
	if len(hex) != 8 {
		return color.NRGBA{}, fmt.Errorf("%w: bad hex color %q", ErrInvalidConfig, s)
	}
	v, err := strconv.ParseUint(hex, 16, 32)
	if err != nil {
		return color.NRGBA{}, fmt.Errorf("%w: bad hex color %q", ErrInvalidConfig, s)
	}
	return color.NRGBA{R: uint8(v >> 24), G: uint8(v >> 16), B: uint8(v >> 8), A: uint8(v)}, nil
}

type componentParser func(parts []string) (color.NRGBA, error)

// parseFunc handles "name(args)" colors, substituting theme variables first.
func parseFunc(s string, theme Theme, parse componentParser) (color.NRGBA, error) {
	open := strings.Index(s, "(")
	if open < 0 || !strings.HasSuffix(s, ")") {
		return color.NRGBA{}, fmt.Errorf("%w: malformed color %q", ErrInvalidConfig, s)
	}
	body := s[open+1 : len(s)-1]

	body, err := substituteVars(body, theme)
	if err != nil {
		return color.NRGBA{}, err
	}

	// "a b c / alpha" and "a, b, c, alpha" are both accepted.
	var alpha string
	if slash := strings.Index(body, "/"); slash >= 0 {
		alpha = strings.TrimSpace(body[slash+1:])
		body = body[:slash]
	}
	parts := strings.Fields(strings.ReplaceAll(body, ",", " "))
	if alpha != "" {
		parts = append(parts, alpha)
	}

	c, err := parse(parts)
	if err != nil {
		return color.NRGBA{}, fmt.Errorf("%w: %q: %v", ErrInvalidConfig, s, err)
	}
	return c, nil
}

func substituteVars(body string, theme Theme) (string, error) {
	for {
		start := strings.Index(body, "var(")
		if start < 0 {
			return body, nil
		}
		end := strings.Index(body[start:], ")")
		if end < 0 {
			return "", fmt.Errorf("%w: unterminated var() in %q", ErrInvalidConfig, body)
		}
		name := strings.TrimPrefix(strings.TrimSpace(body[start+4:start+end]), "--")
		value, ok := theme[name]
		if !ok {
			return "", fmt.Errorf("%w: unknown theme token --%s", ErrInvalidConfig, name)
		}
		body = body[:start] + value + body[start+end+1:]
	}
}

func rgbComponents(parts []string) (color.NRGBA, error) {
	if len(parts) != 3 && len(parts) != 4 {
		return color.NRGBA{}, fmt.Errorf("want 3 or 4 components, got %d", len(parts))
	}
	var ch [3]float64
	for i := 0; i < 3; i++ {
		v, err := parseNumber(parts[i], 255)
		if err != nil {
			return color.NRGBA{}, err
		}
		ch[i] = v
	}
	a, err := parseAlpha(parts)
	if err != nil {
		return color.NRGBA{}, err
	}
	return color.NRGBA{R: to8(ch[0] / 255), G: to8(ch[1] / 255), B: to8(ch[2] / 255), A: to8(a)}, nil
}

func hslComponents(parts []string) (color.NRGBA, error) {
	if len(parts) != 3 && len(parts) != 4 {
		return color.NRGBA{}, fmt.Errorf("want 3 or 4 components, got %d", len(parts))
	}
	h, err := strconv.ParseFloat(strings.TrimSuffix(parts[0], "deg"), 64)
	if err != nil {
		return color.NRGBA{}, fmt.Errorf("bad hue %q", parts[0])
	}
	sat, err := parseNumber(parts[1], 1)
	if err != nil {
		return color.NRGBA{}, err
	}
	light, err := parseNumber(parts[2], 1)
	if err != nil {
		return color.NRGBA{}, err
	}
	a, err := parseAlpha(parts)
	if err != nil {
		return color.NRGBA{}, err
	}
	r, g, b := HSLToRGB(h, sat, light)
	return color.NRGBA{R: to8(r), G: to8(g), B: to8(b), A: to8(a)}, nil
}

func parseAlpha(parts []string) (float64, error) {
	if len(parts) < 4 {
		return 1, nil
	}
	return parseNumber(parts[3], 1)
}

// parseNumber reads "50%" as a fraction of full, or a plain number as is.
func parseNumber(s string, full float64) (float64, error) {
	if strings.HasSuffix(s, "%") {
		v, err := strconv.ParseFloat(strings.TrimSuffix(s, "%"), 64)
		if err != nil {
			return 0, fmt.Errorf("bad percentage %q", s)
		}
		return v / 100 * full, nil
	}
	v, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0, fmt.Errorf("bad number %q", s)
	}
	return v, nil
}

// HSLToRGB converts hue in degrees and saturation/lightness in [0, 1] to RGB
// channels in [0, 1].
func HSLToRGB(h, s, l float64) (r, g, b float64) {
	h = math.Mod(h, 360)
	if h < 0 {
		h += 360
	}
	s = math.Max(0, math.Min(1, s))
	l = math.Max(0, math.Min(1, l))

	c := (1 - math.Abs(2*l-1)) * s
	x := c * (1 - math.Abs(math.Mod(h/60, 2)-1))
	m := l - c/2

	switch {
	case h < 60:
		r, g, b = c, x, 0
	case h < 120:
		r, g, b = x, c, 0
	case h < 180:
		r, g, b = 0, c, x
	case h < 240:
		r, g, b = 0, x, c
	case h < 300:
		r, g, b = x, 0, c
	default:
		r, g, b = c, 0, x
	}
	return r + m, g + m, b + m
}

func to8(v float64) uint8 {
	return uint8(math.Round(math.Max(0, math.Min(1, v)) * 255))
}
