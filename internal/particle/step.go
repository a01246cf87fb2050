package particle

import "math"

// Force model constants.
const (
	waveTimeRate  = 0.4
	waveSpatial   = 0.2
	waveAmplitude = 0.1

	// InteractionRadius is the distance in field units within which the
	// pointer repels particles.
	InteractionRadius = 5.0
	repulsionStrength = 5.0
	repulsionGainXY   = 0.01
	repulsionGainZ    = 0.005

	// RestoringGain scales the pull of a particle back toward its origin.
	RestoringGain = 0.001
	// Drag is applied to velocity after integration every frame.
	Drag = 0.98

	// pointerWorldScale maps half-viewport pixels to field units.
	pointerWorldScale = 0.05

	pulseTimeRate  = 2.0
	pulsePhase     = 0.1
	pulseAmplitude = 0.2
	depthFalloff   = 0.5
)

// Params are the field-wide inputs of a frame step.
type Params struct {
	Size        float64 // Base render size
	Depth       float64 // Sampling sphere radius, used for depth falloff
	Interactive bool    // Enables pointer repulsion

	// Viewport in pixels. The pointer is projected into field units with it.
	ViewportWidth  float64
	ViewportHeight float64
}

// PointerWorld projects a normalized pointer onto the z=0 plane in field units.
func PointerWorld(ptr Pointer, viewportWidth, viewportHeight float64) Vec3 {
	return Vec3{
		X: ptr.X * viewportWidth / 2 * pointerWorldScale,
		Y: ptr.Y * viewportHeight / 2 * pointerWorldScale,
	}
}

// RepulsionForce returns the repulsion magnitude at the given distance from
// the pointer: 5/d² inside InteractionRadius, 0 outside. At d == 0 the
// direction is undefined and no force is applied.
func RepulsionForce(distance float64) float64 {
	if distance <= 0 || distance >= InteractionRadius {
		return 0
	}
	return repulsionStrength / (distance * distance)
}

// Advance moves one particle by one frame and returns the new particle
// together with its render transform. index is the particle's position in
// the set and only offsets the pulse phase.
//
// Order: wave offset, pointer repulsion, restoring force, integration, drag,
// render scale.
func Advance(p Particle, index int, elapsed float64, ptr Pointer, params Params) (Particle, Transform) {
	pos := p.Position
	vel := p.Velocity

	wave := Vec3{
		X: math.Sin(elapsed*waveTimeRate+pos.X*waveSpatial) * waveAmplitude,
		Y: math.Cos(elapsed*waveTimeRate+pos.Y*waveSpatial) * waveAmplitude,
		Z: math.Sin(elapsed*waveTimeRate+pos.Z*waveSpatial) * waveAmplitude,
	}

	if params.Interactive && ptr.Valid {
		d := pos.Sub(PointerWorld(ptr, params.ViewportWidth, params.ViewportHeight))
		if force := RepulsionForce(d.Len()); force > 0 {
			vel.X += d.X * force * repulsionGainXY
			vel.Y += d.Y * force * repulsionGainXY
			vel.Z += d.Z * force * repulsionGainZ
		}
	}

	vel = vel.Add(p.origin.Sub(pos).Scale(RestoringGain))
	pos = pos.Add(vel).Add(wave)
	vel = vel.Scale(Drag)

	p.Position = pos
	p.Velocity = vel

	return p, Transform{Position: pos, Scale: RenderScale(p, index, elapsed, params)}
}

// RenderScale combines the base size, the particle's own scale, a time pulse
// and a falloff by normalized distance from the field center. The result is
// in [0.4*size*scale, 1.2*size*scale] and never negative.
func RenderScale(p Particle, index int, elapsed float64, params Params) float64 {
	normalized := 1.0
	if params.Depth > 0 {
		normalized = math.Min(p.Position.Len()/params.Depth, 1)
	}
	pulse := p.scale * (1 + math.Sin(elapsed*pulseTimeRate+float64(index)*pulsePhase)*pulseAmplitude)
	s := params.Size * pulse * (1 - normalized*depthFalloff)
	if s < 0 || math.IsNaN(s) {
		return 0
	}
	return s
}

// Step advances every particle in place and writes its transform into out.
// out must be at least len(particles) long. Step does not allocate.
func Step(particles []Particle, out []Transform, elapsed float64, ptr Pointer, params Params) {
	for i := range particles {
		particles[i], out[i] = Advance(particles[i], i, elapsed, ptr, params)
	}
}
