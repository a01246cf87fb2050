// Package particle provides the data model and the per-frame math of the
// decorative particle field.
//
// Everything in this package is a pure function of its inputs: the generator
// takes an injected random source and the frame updater takes the elapsed
// time, the pointer and the field parameters. Nothing here knows about
// windows, GPUs or input events.
package particle

import "math"

// Vec3 is a point or direction in field space.
type Vec3 struct {
	X, Y, Z float64
}

// Add returns v + o.
func (v Vec3) Add(o Vec3) Vec3 {
	return Vec3{v.X + o.X, v.Y + o.Y, v.Z + o.Z}
}

// Sub returns v - o.
func (v Vec3) Sub(o Vec3) Vec3 {
	return Vec3{v.X - o.X, v.Y - o.Y, v.Z - o.Z}
}

// Scale returns v * s.
func (v Vec3) Scale(s float64) Vec3 {
	return Vec3{v.X * s, v.Y * s, v.Z * s}
}

// Len returns the Euclidean length of v.
func (v Vec3) Len() float64 {
	return math.Sqrt(v.X*v.X + v.Y*v.Y + v.Z*v.Z)
}

// Particle is a single animated point in the field.
//
// Position and Velocity change every frame. The spawn origin, the base scale
// and the color index are fixed at creation and only exposed through
// accessors.
type Particle struct {
	Position Vec3 // Current location
	Velocity Vec3 // Current drift per frame

	origin     Vec3    // Spawn position, restoring-force anchor
	scale      float64 // Base size multiplier in [0.5, 1.0)
	colorIndex float64 // i / count, for gradient coloring
}

// NewParticle creates a particle at rest-anchor origin with the given drift.
// Position starts at origin.
func NewParticle(origin, velocity Vec3, scale, colorIndex float64) Particle {
	return Particle{
		Position:   origin,
		Velocity:   velocity,
		origin:     origin,
		scale:      scale,
		colorIndex: colorIndex,
	}
}

// Origin returns the spawn position.
func (p Particle) Origin() Vec3 { return p.origin }

// BaseScale returns the per-particle size multiplier fixed at creation.
func (p Particle) BaseScale() float64 { return p.scale }

// ColorIndex returns the creation-order gradient coordinate in [0, 1).
func (p Particle) ColorIndex() float64 { return p.colorIndex }

// Transform is the per-instance output of a frame: where to draw the
// particle and how big. Instances are never rotated.
type Transform struct {
	Position Vec3
	Scale    float64
}

// Pointer is the normalized pointer position, both axes in [-1, 1] with +Y
// up. The zero value is "no pointer".
type Pointer struct {
	X, Y  float64
	Valid bool
}

// PointerAt returns a valid pointer clamped to [-1, 1].
func PointerAt(x, y float64) Pointer {
	return Pointer{X: clamp(x, -1, 1), Y: clamp(y, -1, 1), Valid: true}
}

func clamp(v, lo, hi float64) float64 {
	if math.IsNaN(v) {
		return 0
	}
	return math.Max(lo, math.Min(hi, v))
}
