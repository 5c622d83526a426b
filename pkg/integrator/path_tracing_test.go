package integrator

import (
	"math"
	"math/rand"
	"testing"

	"github.com/df07/go-sphere-raytracer/pkg/core"
	"github.com/df07/go-sphere-raytracer/pkg/geometry"
	"github.com/df07/go-sphere-raytracer/pkg/material"
)

const tolerance = 1e-9

// fixedScatter always scatters in one direction with a fixed attenuation
type fixedScatter struct {
	direction   core.Vec3
	attenuation core.Vec3
}

func (f fixedScatter) Scatter(rayIn core.Ray, hit material.HitRecord, sampler core.Sampler) (material.ScatterResult, bool) {
	return material.ScatterResult{
		Scattered:   core.NewRay(hit.Point, f.direction),
		Attenuation: f.attenuation,
	}, true
}

// absorber never scatters
type absorber struct{}

func (absorber) Scatter(rayIn core.Ray, hit material.HitRecord, sampler core.Sampler) (material.ScatterResult, bool) {
	return material.ScatterResult{}, false
}

func vecNear(a, b core.Vec3) bool {
	return math.Abs(a.X-b.X) < tolerance &&
		math.Abs(a.Y-b.Y) < tolerance &&
		math.Abs(a.Z-b.Z) < tolerance
}

// createTestScene creates a single large ground sphere below the origin
func createTestScene(mat material.Material) *geometry.HittableList {
	return geometry.NewHittableList(
		geometry.NewSphere(core.NewVec3(0, -100.5, -1), 100, mat),
	)
}

func TestPathTracingDepthTermination(t *testing.T) {
	world := createTestScene(material.NewLambertian(core.NewVec3(0.5, 0.5, 0.5)))
	integrator := NewPathTracingIntegrator(DefaultSky)
	sampler := core.NewRandomSampler(rand.New(rand.NewSource(42)))

	rays := []core.Ray{
		core.NewRay(core.NewVec3(0, 0, 0), core.NewVec3(0, 1, 0)),  // sky
		core.NewRay(core.NewVec3(0, 0, 0), core.NewVec3(0, -1, 0)), // ground
	}
	for _, depth := range []int{0, -1} {
		for _, ray := range rays {
			if color := integrator.RayColor(ray, world, sampler, depth); color != (core.Vec3{}) {
				t.Errorf("Expected black for depth %d, got %v", depth, color)
			}
		}
	}
}

func TestPathTracingMissedRay(t *testing.T) {
	world := createTestScene(material.NewLambertian(core.NewVec3(0.5, 0.5, 0.5)))
	integrator := NewPathTracingIntegrator(DefaultSky)
	sampler := core.NewRandomSampler(rand.New(rand.NewSource(42)))

	tests := []struct {
		name      string
		direction core.Vec3
		expected  core.Vec3
	}{
		{"straight up", core.NewVec3(0, 1, 0), core.NewVec3(0.5, 0.7, 1.0)},
		// unit y = 0.6, t = 0.8: 0.2·white + 0.8·(0.5,0.7,1)
		{"tilted", core.NewVec3(0, 0.6, -0.8), core.NewVec3(0.6, 0.76, 1.0)},
		{"unnormalized", core.NewVec3(0, 3, -4), core.NewVec3(0.6, 0.76, 1.0)},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			color := integrator.RayColor(core.NewRay(core.NewVec3(0, 0, 0), tt.direction), world, sampler, 50)
			if !vecNear(color, tt.expected) {
				t.Errorf("Expected sky color %v, got %v", tt.expected, color)
			}
		})
	}
}

func TestSkyColorEndpoints(t *testing.T) {
	if c := DefaultSky.Color(core.NewVec3(0, -1, 0)); !vecNear(c, DefaultSky.Bottom) {
		t.Errorf("Expected bottom color %v looking down, got %v", DefaultSky.Bottom, c)
	}
	if c := DefaultSky.Color(core.NewVec3(0, 1, 0)); !vecNear(c, DefaultSky.Top) {
		t.Errorf("Expected top color %v looking up, got %v", DefaultSky.Top, c)
	}
	if c := DefaultSky.Color(core.NewVec3(1, 0, 0)); !vecNear(c, core.NewVec3(0.75, 0.85, 1.0)) {
		t.Errorf("Expected midpoint color at the horizon, got %v", c)
	}
}

func TestPathTracingAbsorbedRay(t *testing.T) {
	world := createTestScene(absorber{})
	integrator := NewPathTracingIntegrator(DefaultSky)
	sampler := core.NewRandomSampler(rand.New(rand.NewSource(42)))

	color := integrator.RayColor(core.NewRay(core.NewVec3(0, 0, 0), core.NewVec3(0, -1, 0)), world, sampler, 50)
	if color != (core.Vec3{}) {
		t.Errorf("Expected black for absorbed ray, got %v", color)
	}
}

func TestPathTracingAttenuationProduct(t *testing.T) {
	attenuation := core.NewVec3(0.5, 0.25, 1.0)
	bounceAway := core.NewVec3(0, 1, 1)
	world := geometry.NewHittableList(
		geometry.NewSphere(core.NewVec3(0, 0, -5), 1, fixedScatter{direction: bounceAway, attenuation: attenuation}),
	)
	integrator := NewPathTracingIntegrator(DefaultSky)
	sampler := core.NewRandomSampler(rand.New(rand.NewSource(42)))
	ray := core.NewRay(core.NewVec3(0, 0, 0), core.NewVec3(0, 0, -1))

	expected := attenuation.MultiplyVec(DefaultSky.Color(bounceAway))
	if color := integrator.RayColor(ray, world, sampler, 2); !vecNear(color, expected) {
		t.Errorf("Expected %v, got %v", expected, color)
	}

	// One bounce is used up by the hit, so the sky is never reached
	if color := integrator.RayColor(ray, world, sampler, 1); color != (core.Vec3{}) {
		t.Errorf("Expected black when depth runs out after a hit, got %v", color)
	}
}

func TestPathTracingEnergyBounded(t *testing.T) {
	world := createTestScene(material.NewLambertian(core.NewVec3(0.5, 0.5, 0.5)))
	integrator := NewPathTracingIntegrator(DefaultSky)
	sampler := core.NewRandomSampler(rand.New(rand.NewSource(7)))
	ray := core.NewRay(core.NewVec3(0, 0, 0), core.NewVec3(0, -1, -0.2))

	for i := 0; i < 1000; i++ {
		c := integrator.RayColor(ray, world, sampler, 50)
		if c.X < 0 || c.Y < 0 || c.Z < 0 || c.X > 1 || c.Y > 1 || c.Z > 1 {
			t.Fatalf("Radiance %v outside [0,1] for a grey diffuse world under a unit sky", c)
		}
		if c.X > 0.5+tolerance {
			t.Fatalf("A first bounce off albedo 0.5 cannot exceed 0.5, got %v", c)
		}
	}
}

func TestPathTracingDeterministic(t *testing.T) {
	world := createTestScene(material.NewLambertian(core.NewVec3(0.7, 0.3, 0.3)))
	integrator := NewPathTracingIntegrator(DefaultSky)
	ray := core.NewRay(core.NewVec3(0, 0, 0), core.NewVec3(0, -1, -1))

	// Render the same ray with the same random seed twice
	sampler1 := core.NewRandomSampler(rand.New(rand.NewSource(42)))
	color1 := integrator.RayColor(ray, world, sampler1, 50)

	sampler2 := core.NewRandomSampler(rand.New(rand.NewSource(42)))
	color2 := integrator.RayColor(ray, world, sampler2, 50)

	if color1 != color2 {
		t.Errorf("Expected deterministic results, got %v and %v", color1, color2)
	}
}
