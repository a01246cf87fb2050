package particle

import "math"

// Source is the random source consumed by Generate. *math/rand.Rand
// satisfies it; tests inject a seeded one to get identical sets.
type Source interface {
	Float64() float64
}

const (
	velocityJitter = 0.01 // per-axis drift = (u-0.5) * velocityJitter * speed
	minBaseScale   = 0.5
	baseScaleSpan  = 0.5
)

// Generate builds count particles uniformly distributed in a sphere of radius
// depth, using spherical coordinates. The polar angle is sampled as
// acos(2u-1) so the poles are not oversampled.
//
// count == 0 returns an empty set. Negative count, and negative or
// non-finite depth and speed, are treated as 0; configuration validation is
// expected to reject them before this point.
func Generate(src Source, count int, depth, speed float64) []Particle {
	if count < 0 {
		count = 0
	}
	depth = finiteNonNegative(depth)
	speed = finiteNonNegative(speed)

	particles := make([]Particle, 0, count)
	for i := 0; i < count; i++ {
		radius := src.Float64() * depth
		theta := src.Float64() * 2 * math.Pi // azimuth
		phi := math.Acos(src.Float64()*2 - 1)

		origin := Vec3{
			X: radius * math.Sin(phi) * math.Cos(theta),
			Y: radius * math.Sin(phi) * math.Sin(theta),
			Z: radius * math.Cos(phi),
		}

		velocity := Vec3{
			X: (src.Float64() - 0.5) * velocityJitter * speed,
			Y: (src.Float64() - 0.5) * velocityJitter * speed,
			Z: (src.Float64() - 0.5) * velocityJitter * speed,
		}

		scale := src.Float64()*baseScaleSpan + minBaseScale

		particles = append(particles, NewParticle(origin, velocity, scale, float64(i)/float64(count)))
	}

	return particles
}

func finiteNonNegative(v float64) float64 {
	if v < 0 || math.IsNaN(v) || math.IsInf(v, 0) {
		return 0
	}
	return v
}
