package scene

import (
	"github.com/df07/go-sphere-raytracer/pkg/core"
	"github.com/df07/go-sphere-raytracer/pkg/geometry"
	"github.com/df07/go-sphere-raytracer/pkg/material"
	"github.com/df07/go-sphere-raytracer/pkg/renderer"
)

// NewDefaultScene creates three spheres on a large ground sphere
func NewDefaultScene(cameraOverrides ...renderer.CameraConfig) *Scene {
	defaultCameraConfig := renderer.CameraConfig{
		Center:        core.NewVec3(-2, 2, 1),
		LookAt:        core.NewVec3(0, 0, -1),
		Up:            core.NewVec3(0, 1, 0),
		AspectRatio:   16.0 / 9.0,
		VFov:          30.0,
		Aperture:      0.05,
		FocusDistance: 0.0, // Auto-calculate focus distance
	}

	s := &Scene{
		Name:           "default",
		World:          geometry.NewHittableList(),
		CameraConfig:   applyCamera(defaultCameraConfig, cameraOverrides),
		SamplingConfig: renderer.SamplingConfig{SamplesPerPixel: 100, MaxDepth: 50},
	}

	materialGround := material.NewLambertian(core.NewVec3(0.8, 0.8, 0.0))
	materialCenter := material.NewLambertian(core.NewVec3(0.1, 0.2, 0.5))
	materialLeft := material.NewDielectric(1.5)
	materialRight := material.NewMetal(core.NewVec3(0.8, 0.6, 0.2), 0.3)

	s.AddSphere(geometry.NewSphere(core.NewVec3(0, -100.5, -1), 100, materialGround))
	s.AddSphere(geometry.NewSphere(core.NewVec3(0, 0, -1), 0.5, materialCenter))
	s.AddSphere(geometry.NewSphere(core.NewVec3(-1, 0, -1), 0.5, materialLeft))
	s.AddSphere(geometry.NewSphere(core.NewVec3(1, 0, -1), 0.5, materialRight))

	return s
}
