package integrator

import (
	"math"

	"github.com/df07/go-sphere-raytracer/pkg/core"
	"github.com/df07/go-sphere-raytracer/pkg/geometry"
)

// ShadowAcneEpsilon is the minimum hit distance, which keeps a scattered ray
// from re-hitting the surface it just left
const ShadowAcneEpsilon = 0.001

// Sky is a vertical gradient used as the only light source.
// Straight down returns Bottom, straight up returns Top.
type Sky struct {
	Top    core.Vec3
	Bottom core.Vec3
}

// DefaultSky blends from white at the horizon below to light blue overhead
var DefaultSky = Sky{
	Top:    core.NewVec3(0.5, 0.7, 1.0),
	Bottom: core.NewVec3(1.0, 1.0, 1.0),
}

// Color returns the gradient color for a ray direction
func (s Sky) Color(direction core.Vec3) core.Vec3 {
	unitDirection := direction.Normalize()

	// Map y from [-1,1] to [0,1]
	t := 0.5 * (unitDirection.Y + 1.0)

	return s.Bottom.Lerp(s.Top, t)
}

// PathTracingIntegrator implements unidirectional path tracing against a sky gradient
type PathTracingIntegrator struct {
	Sky Sky
}

// NewPathTracingIntegrator creates a new path tracing integrator
func NewPathTracingIntegrator(sky Sky) *PathTracingIntegrator {
	return &PathTracingIntegrator{Sky: sky}
}

// RayColor computes the color for a single ray.
// The bounce loop carries the product of attenuations instead of recursing,
// so raising depth does not grow the stack.
func (pt *PathTracingIntegrator) RayColor(ray core.Ray, world geometry.Shape, sampler core.Sampler, depth int) core.Vec3 {
	throughput := core.NewVec3(1, 1, 1)

	for ; depth > 0; depth-- {
		hit, isHit := world.Hit(ray, ShadowAcneEpsilon, math.Inf(1))
		if !isHit {
			return throughput.MultiplyVec(pt.Sky.Color(ray.Direction))
		}

		scatter, didScatter := hit.Material.Scatter(ray, *hit, sampler)
		if !didScatter {
			// Absorbed
			return core.Vec3{}
		}

		throughput = throughput.MultiplyVec(scatter.Attenuation)
		ray = scatter.Scattered
	}

	// Bounce limit exceeded, no more light is gathered
	return core.Vec3{}
}
