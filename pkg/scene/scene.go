package scene

import (
	"fmt"
	"path/filepath"
	"strings"

	"github.com/df07/go-sphere-raytracer/pkg/geometry"
	"github.com/df07/go-sphere-raytracer/pkg/material"
	"github.com/df07/go-sphere-raytracer/pkg/renderer"
)

// Scene contains all the elements needed for rendering.
// It is fully built before rendering starts and only read afterwards.
type Scene struct {
	Name           string
	World          *geometry.HittableList
	CameraConfig   renderer.CameraConfig
	SamplingConfig renderer.SamplingConfig // Recommended sampling for this scene
}

// GetPrimitiveCount returns the total number of primitive objects in the scene
func (s *Scene) GetPrimitiveCount() int {
	return s.World.Len()
}

// AddSphere adds a sphere to the scene
func (s *Scene) AddSphere(sphere *geometry.Sphere) {
	s.World.Add(sphere)
}

// GetMaterialCount returns the number of distinct material instances in the scene
func (s *Scene) GetMaterialCount() int {
	seen := make(map[material.Material]bool)
	for _, shape := range s.World.Shapes {
		if sphere, ok := shape.(*geometry.Sphere); ok {
			seen[sphere.Material] = true
		}
	}
	return len(seen)
}

// Options parameterizes scene construction
type Options struct {
	Seed      int64                 // Seed for procedurally generated scenes
	ScenesDir string                // Directory searched for scene files, "" tries ./scenes and ../scenes
	Camera    renderer.CameraConfig // Non-zero fields override the scene's camera
}

// New builds a scene by name: a built-in ID, "file:<name>" for a scene file
// in the scenes directory, or a path to a .json scene file
func New(name string, opts Options) (*Scene, error) {
	switch {
	case name == "random":
		return NewRandomScene(opts.Seed, opts.Camera), nil
	case name == "default":
		return NewDefaultScene(opts.Camera), nil
	case name == "sphere-grid":
		return NewSphereGridScene(opts.Camera), nil
	case strings.HasPrefix(name, "file:"):
		dir := findScenesDir(opts.ScenesDir)
		if dir == "" {
			return nil, fmt.Errorf("scene: no scenes directory for %q", name)
		}
		path := filepath.Join(dir, strings.TrimPrefix(name, "file:")+".json")
		return LoadSceneFile(path, opts.Camera)
	case strings.HasSuffix(strings.ToLower(name), ".json"):
		return LoadSceneFile(name, opts.Camera)
	default:
		return nil, fmt.Errorf("scene: unknown scene %q", name)
	}
}

// applyCamera merges camera overrides into a scene's default camera
func applyCamera(defaults renderer.CameraConfig, overrides []renderer.CameraConfig) renderer.CameraConfig {
	cameraConfig := defaults
	if len(overrides) > 0 {
		cameraConfig = renderer.MergeCameraConfig(defaults, overrides[0])
	}
	return cameraConfig
}
