package scene

import (
	"math/rand"

	"github.com/df07/go-sphere-raytracer/pkg/core"
	"github.com/df07/go-sphere-raytracer/pkg/geometry"
	"github.com/df07/go-sphere-raytracer/pkg/material"
	"github.com/df07/go-sphere-raytracer/pkg/renderer"
)

// NewRandomScene creates the "final scene": a field of small random spheres
// around three large ones. The same seed always yields the same scene.
func NewRandomScene(seed int64, cameraOverrides ...renderer.CameraConfig) *Scene {
	defaultCameraConfig := renderer.CameraConfig{
		Center:        core.NewVec3(11, 2, 7),
		LookAt:        core.NewVec3(0, 0, 0),
		Up:            core.NewVec3(0, 1, 0),
		AspectRatio:   1.0,
		VFov:          20.0,
		Aperture:      0.1,
		FocusDistance: 10.0,
	}

	s := &Scene{
		Name:           "random",
		World:          geometry.NewHittableList(),
		CameraConfig:   applyCamera(defaultCameraConfig, cameraOverrides),
		SamplingConfig: renderer.DefaultSamplingConfig(),
	}

	random := rand.New(rand.NewSource(seed))
	randomColor := func() core.Vec3 {
		return core.NewVec3(random.Float64(), random.Float64(), random.Float64())
	}
	randomRange := func(lo, hi float64) float64 {
		return lo + (hi-lo)*random.Float64()
	}

	groundMaterial := material.NewLambertian(core.NewVec3(0.5, 0.5, 0.5))
	s.AddSphere(geometry.NewSphere(core.NewVec3(0, -1000, 0), 1000, groundMaterial))

	// Keep the small spheres clear of the large metal sphere's footprint
	clearing := core.NewVec3(4, 0.2, 0)

	for a := -11; a < 11; a++ {
		for b := -11; b < 11; b++ {
			chooseMat := random.Float64()
			center := core.NewVec3(
				float64(a)+0.9*random.Float64(),
				0.2,
				float64(b)+random.Float64(),
			)
			if center.Subtract(clearing).Length() <= 0.9 {
				continue
			}

			var sphereMaterial material.Material
			switch {
			case chooseMat < 0.8:
				// Diffuse
				albedo := randomColor().MultiplyVec(randomColor())
				sphereMaterial = material.NewLambertian(albedo)
			case chooseMat < 0.95:
				// Metal
				albedo := core.NewVec3(randomRange(0.5, 1), randomRange(0.5, 1), randomRange(0.5, 1))
				fuzz := randomRange(0, 0.5)
				sphereMaterial = material.NewMetal(albedo, fuzz)
			default:
				// Glass
				sphereMaterial = material.NewDielectric(1.5)
			}
			s.AddSphere(geometry.NewSphere(center, 0.2, sphereMaterial))
		}
	}

	s.AddSphere(geometry.NewSphere(core.NewVec3(0, 1, 0), 1.0, material.NewDielectric(1.5)))
	s.AddSphere(geometry.NewSphere(core.NewVec3(-4, 1, 0), 1.0, material.NewLambertian(core.NewVec3(0.4, 0.2, 0.1))))
	s.AddSphere(geometry.NewSphere(core.NewVec3(4, 1, 0), 1.0, material.NewMetal(core.NewVec3(0.7, 0.6, 0.5), 0.0)))

	return s
}
