package particle

import (
	"fmt"
	"strconv"
	"strings"
)

// Range is a numeric option that is either fixed or drawn uniformly from
// [Min, Max] when the field is generated.
type Range struct {
	Min float64
	Max float64
}

// Fixed returns a range holding a single value.
func Fixed(v float64) Range {
	return Range{Min: v, Max: v}
}

// IsFixed reports whether the range holds a single value.
func (r Range) IsFixed() bool {
	return r.Min == r.Max
}

// Sample draws a value from the range. Fixed ranges never consume src.
func (r Range) Sample(src Source) float64 {
	if r.Min >= r.Max {
		return r.Min
	}
	return r.Min + src.Float64()*(r.Max-r.Min)
}

// String formats the range the way ParseValue reads it.
func (r Range) String() string {
	if r.IsFixed() {
		return strconv.FormatFloat(r.Min, 'g', -1, 64)
	}
	return fmt.Sprintf("[%s %s]",
		strconv.FormatFloat(r.Min, 'g', -1, 64),
		strconv.FormatFloat(r.Max, 'g', -1, 64))
}

// ParseValue parses a numeric option string from a preset file.
// Supported formats:
//   - Fixed value: "2000" → {2000, 2000}
//   - Single bracketed value: "[50]" → {50, 50}
//   - Range: "[2000 5000]" → {2000, 5000}
//
// Bounds given in reverse order are swapped. An empty string is an error so
// that callers can tell "absent" from "zero" before calling.
func ParseValue(s string) (Range, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return Range{}, fmt.Errorf("empty value")
	}

	if !strings.HasPrefix(s, "[") {
		v, err := strconv.ParseFloat(s, 64)
		if err != nil {
			return Range{}, fmt.Errorf("invalid value %q: %w", s, err)
		}
		return Fixed(v), nil
	}

	if !strings.HasSuffix(s, "]") {
		return Range{}, fmt.Errorf("unterminated range %q", s)
	}

	parts := strings.Fields(strings.TrimSuffix(strings.TrimPrefix(s, "["), "]"))
	switch len(parts) {
	case 1:
		v, err := strconv.ParseFloat(parts[0], 64)
		if err != nil {
			return Range{}, fmt.Errorf("invalid value in %q: %w", s, err)
		}
		return Fixed(v), nil
	case 2:
		lo, err := strconv.ParseFloat(parts[0], 64)
		if err != nil {
			return Range{}, fmt.Errorf("invalid range minimum in %q: %w", s, err)
		}
		hi, err := strconv.ParseFloat(parts[1], 64)
		if err != nil {
			return Range{}, fmt.Errorf("invalid range maximum in %q: %w", s, err)
		}
		if lo > hi {
			lo, hi = hi, lo
		}
		return Range{Min: lo, Max: hi}, nil
	default:
		return Range{}, fmt.Errorf("range %q must hold one or two values", s)
	}
}
