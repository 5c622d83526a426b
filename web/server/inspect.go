package server

import (
	"fmt"
	"math"
	"net/http"
	"strconv"

	"github.com/df07/go-sphere-raytracer/pkg/core"
	"github.com/df07/go-sphere-raytracer/pkg/geometry"
	"github.com/df07/go-sphere-raytracer/pkg/integrator"
	"github.com/df07/go-sphere-raytracer/pkg/material"
	"github.com/df07/go-sphere-raytracer/pkg/renderer"
	"github.com/df07/go-sphere-raytracer/pkg/scene"
)

// InspectResponse represents the JSON response for object inspection
type InspectResponse struct {
	Hit          bool                   `json:"hit"`
	MaterialType string                 `json:"materialType"`
	GeometryType string                 `json:"geometryType"`
	Point        [3]float64             `json:"point"`
	Normal       [3]float64             `json:"normal"`
	Distance     float64                `json:"distance"`
	FrontFace    bool                   `json:"frontFace"`
	Properties   map[string]interface{} `json:"properties"`
}

// colorHex formats a linear color as #rrggbb
func colorHex(c core.Vec3) string {
	c = c.Clamp(0, 1)
	return fmt.Sprintf("#%02x%02x%02x", int(c.X*255), int(c.Y*255), int(c.Z*255))
}

// extractMaterialInfo extracts detailed material information with type assertions
func (s *Server) extractMaterialInfo(mat material.Material) (string, map[string]interface{}) {
	properties := make(map[string]interface{})

	switch m := mat.(type) {
	case *material.Lambertian:
		properties["albedo"] = vecJSON(m.Albedo)
		properties["color"] = colorHex(m.Albedo)
		return "lambertian", properties

	case *material.Metal:
		properties["albedo"] = vecJSON(m.Albedo)
		properties["color"] = colorHex(m.Albedo)
		properties["fuzzness"] = m.Fuzzness
		return "metal", properties

	case *material.Dielectric:
		properties["refractiveIndex"] = m.RefractiveIndex
		properties["color"] = "#ffffff" // Clear glass
		return "dielectric", properties

	default:
		return "unknown", properties
	}
}

// InspectResult contains information about the object hit by an inspection ray
type InspectResult struct {
	Hit       bool
	HitRecord *material.HitRecord // Full hit record with material reference
	Shape     geometry.Shape      // The shape that was hit
}

// inspectPixel casts a ray through the centre of pixel (pixelX, pixelY), row 0
// at the top, and returns information about the first object hit
func inspectPixel(sceneObj *scene.Scene, width, height, pixelX, pixelY int) InspectResult {
	// Pinhole copy of the scene camera so the ray is exact
	cameraConfig := sceneObj.CameraConfig
	cameraConfig.Aperture = 0
	camera := renderer.NewCamera(cameraConfig)

	s := (float64(pixelX) + 0.5) / float64(max(width-1, 1))
	t := (float64(height-1-pixelY) + 0.5) / float64(max(height-1, 1))
	ray := camera.GetRay(s, t, nil)

	var closest *material.HitRecord
	var closestShape geometry.Shape
	tMax := math.Inf(1)
	for _, shape := range sceneObj.World.Shapes {
		if hit, ok := shape.Hit(ray, integrator.ShadowAcneEpsilon, tMax); ok && hit.T < tMax {
			closest, closestShape, tMax = hit, shape, hit.T
		}
	}

	if closest == nil {
		return InspectResult{Hit: false}
	}
	return InspectResult{Hit: true, HitRecord: closest, Shape: closestShape}
}

// extractGeometryInfo extracts detailed geometry information
func (s *Server) extractGeometryInfo(shape geometry.Shape) (string, map[string]interface{}) {
	properties := make(map[string]interface{})

	switch geom := shape.(type) {
	case *geometry.Sphere:
		properties["center"] = vecJSON(geom.Center)
		properties["radius"] = geom.Radius
		return "sphere", properties

	default:
		return "unknown", properties
	}
}

// handleInspect handles ray casting inspection requests
func (s *Server) handleInspect(w http.ResponseWriter, r *http.Request) {
	inspectReq := &RenderRequest{}
	if err := s.parseCommonSceneParams(r, inspectReq); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid scene parameters: "+err.Error())
		return
	}

	pixelX, err := strconv.Atoi(r.URL.Query().Get("x"))
	if err != nil {
		writeError(w, http.StatusBadRequest, "Invalid x coordinate")
		return
	}
	pixelY, err := strconv.Atoi(r.URL.Query().Get("y"))
	if err != nil {
		writeError(w, http.StatusBadRequest, "Invalid y coordinate")
		return
	}
	if pixelX < 0 || pixelX >= inspectReq.Width || pixelY < 0 || pixelY >= inspectReq.Height {
		writeError(w, http.StatusBadRequest, "Pixel coordinates out of bounds")
		return
	}

	// Procedural scenes need a fixed seed to match a seeded render
	if value := r.URL.Query().Get("seed"); value != "" {
		if inspectReq.Seed, err = strconv.ParseInt(value, 10, 64); err != nil {
			writeError(w, http.StatusBadRequest, "Invalid seed")
			return
		}
	}

	sceneObj, err := s.createScene(inspectReq)
	if err != nil {
		writeError(w, http.StatusBadRequest, "Unknown scene: "+inspectReq.Scene)
		return
	}

	result := inspectPixel(sceneObj, inspectReq.Width, inspectReq.Height, pixelX, pixelY)
	if !result.Hit {
		writeJSON(w, http.StatusOK, InspectResponse{Hit: false})
		return
	}

	materialType, materialProps := s.extractMaterialInfo(result.HitRecord.Material)
	geometryType, geometryProps := s.extractGeometryInfo(result.Shape)

	response := InspectResponse{
		Hit:          true,
		MaterialType: materialType,
		GeometryType: geometryType,
		Point:        vecJSON(result.HitRecord.Point),
		Normal:       vecJSON(result.HitRecord.Normal),
		Distance:     result.HitRecord.T,
		FrontFace:    result.HitRecord.FrontFace,
		Properties: map[string]interface{}{
			"material": materialProps,
			"geometry": geometryProps,
		},
	}
	writeJSON(w, http.StatusOK, response)
}
