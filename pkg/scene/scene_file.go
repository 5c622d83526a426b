package scene

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/df07/go-sphere-raytracer/pkg/core"
	"github.com/df07/go-sphere-raytracer/pkg/geometry"
	"github.com/df07/go-sphere-raytracer/pkg/material"
	"github.com/df07/go-sphere-raytracer/pkg/renderer"
)

// SceneFile is the JSON description of a scene.
// Materials are declared once by name and shared by every sphere that names them.
type SceneFile struct {
	Name        string                  `json:"name"`
	Description string                  `json:"description"`
	Group       string                  `json:"group"`
	Camera      CameraSpec              `json:"camera"`
	Sampling    *SamplingSpec           `json:"sampling,omitempty"`
	Materials   map[string]MaterialSpec `json:"materials"`
	Spheres     []SphereSpec            `json:"spheres"`
}

// CameraSpec describes the camera. Missing fields fall back to a camera at
// (0,0,1) looking down -Z with a 90 degree field of view.
type CameraSpec struct {
	Center        *[3]float64 `json:"center,omitempty"`
	LookAt        *[3]float64 `json:"look_at,omitempty"`
	Up            *[3]float64 `json:"up,omitempty"`
	AspectRatio   float64     `json:"aspect_ratio,omitempty"`
	VFov          float64     `json:"vfov,omitempty"`
	Aperture      float64     `json:"aperture,omitempty"`
	FocusDistance float64     `json:"focus_distance,omitempty"`
}

// SamplingSpec holds the scene's recommended sampling
type SamplingSpec struct {
	SamplesPerPixel int `json:"samples_per_pixel"`
	MaxDepth        int `json:"max_depth"`
}

// MaterialSpec describes one material. Type is lambertian, metal or dielectric.
type MaterialSpec struct {
	Type            string      `json:"type"`
	Albedo          *[3]float64 `json:"albedo,omitempty"`
	Fuzz            float64     `json:"fuzz,omitempty"`
	RefractiveIndex float64     `json:"refractive_index,omitempty"`
}

// SphereSpec places a sphere using a named material
type SphereSpec struct {
	Center   [3]float64 `json:"center"`
	Radius   float64    `json:"radius"`
	Material string     `json:"material"`
}

func vec(v [3]float64) core.Vec3 {
	return core.NewVec3(v[0], v[1], v[2])
}

func vecOr(v *[3]float64, fallback core.Vec3) core.Vec3 {
	if v == nil {
		return fallback
	}
	return vec(*v)
}

// LoadSceneFile reads and builds a scene from a JSON file
func LoadSceneFile(path string, cameraOverrides ...renderer.CameraConfig) (*Scene, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("scene: open %s: %w", path, err)
	}
	defer f.Close()

	name := strings.TrimSuffix(filepath.Base(path), filepath.Ext(path))
	s, err := ParseScene(f, name, cameraOverrides...)
	if err != nil {
		return nil, fmt.Errorf("scene: parse %s: %w", path, err)
	}
	return s, nil
}

// ParseScene builds a scene from JSON. fallbackName is used when the file
// does not name the scene.
func ParseScene(r io.Reader, fallbackName string, cameraOverrides ...renderer.CameraConfig) (*Scene, error) {
	var file SceneFile
	decoder := json.NewDecoder(r)
	decoder.DisallowUnknownFields()
	if err := decoder.Decode(&file); err != nil {
		return nil, err
	}
	return file.Build(fallbackName, cameraOverrides...)
}

// Build turns the description into a scene
func (f *SceneFile) Build(fallbackName string, cameraOverrides ...renderer.CameraConfig) (*Scene, error) {
	materials := make(map[string]material.Material, len(f.Materials))

	// Sorted so error messages are stable
	names := make([]string, 0, len(f.Materials))
	for name := range f.Materials {
		names = append(names, name)
	}
	sort.Strings(names)

	for _, name := range names {
		mat, err := f.Materials[name].build()
		if err != nil {
			return nil, fmt.Errorf("material %q: %w", name, err)
		}
		materials[name] = mat
	}

	name := f.Name
	if name == "" {
		name = fallbackName
	}

	sampling := renderer.DefaultSamplingConfig()
	if f.Sampling != nil {
		if f.Sampling.SamplesPerPixel > 0 {
			sampling.SamplesPerPixel = f.Sampling.SamplesPerPixel
		}
		if f.Sampling.MaxDepth > 0 {
			sampling.MaxDepth = f.Sampling.MaxDepth
		}
	}

	s := &Scene{
		Name:           name,
		World:          geometry.NewHittableList(),
		CameraConfig:   applyCamera(f.Camera.config(), cameraOverrides),
		SamplingConfig: sampling,
	}

	for i, sphere := range f.Spheres {
		if sphere.Radius <= 0 {
			return nil, fmt.Errorf("sphere %d: radius must be positive, got %g", i, sphere.Radius)
		}
		mat, ok := materials[sphere.Material]
		if !ok {
			return nil, fmt.Errorf("sphere %d: unknown material %q", i, sphere.Material)
		}
		s.AddSphere(geometry.NewSphere(vec(sphere.Center), sphere.Radius, mat))
	}

	return s, nil
}

func (c CameraSpec) config() renderer.CameraConfig {
	config := renderer.CameraConfig{
		Center:        vecOr(c.Center, core.NewVec3(0, 0, 1)),
		LookAt:        vecOr(c.LookAt, core.NewVec3(0, 0, 0)),
		Up:            vecOr(c.Up, core.NewVec3(0, 1, 0)),
		AspectRatio:   c.AspectRatio,
		VFov:          c.VFov,
		Aperture:      c.Aperture,
		FocusDistance: c.FocusDistance,
	}
	if config.AspectRatio <= 0 {
		config.AspectRatio = 1.0
	}
	if config.VFov <= 0 {
		config.VFov = 90.0
	}
	return config
}

func (m MaterialSpec) build() (material.Material, error) {
	switch strings.ToLower(m.Type) {
	case "lambertian":
		if m.Albedo == nil {
			return nil, fmt.Errorf("lambertian needs an albedo")
		}
		return material.NewLambertian(vec(*m.Albedo)), nil
	case "metal":
		if m.Albedo == nil {
			return nil, fmt.Errorf("metal needs an albedo")
		}
		return material.NewMetal(vec(*m.Albedo), m.Fuzz), nil
	case "dielectric":
		if m.RefractiveIndex <= 0 {
			return nil, fmt.Errorf("dielectric needs a positive refractive_index")
		}
		return material.NewDielectric(m.RefractiveIndex), nil
	default:
		return nil, fmt.Errorf("unknown material type %q", m.Type)
	}
}
