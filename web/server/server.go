package server

import (
	"bytes"
	"encoding/json"
	"fmt"
	"log"
	"net/http"
	"net/url"
	"strconv"

	"github.com/df07/go-sphere-raytracer/pkg/core"
	"github.com/df07/go-sphere-raytracer/pkg/output"
	"github.com/df07/go-sphere-raytracer/pkg/renderer"
	"github.com/df07/go-sphere-raytracer/pkg/scene"
)

// Server handles web requests for the raytracer
type Server struct {
	port      int
	scenesDir string
}

// NewServer creates a new web server. scenesDir may be empty to search ./scenes and ../scenes.
func NewServer(port int, scenesDir string) *Server {
	return &Server{port: port, scenesDir: scenesDir}
}

// RenderRequest represents a render request from the client
type RenderRequest struct {
	Scene           string        // Scene ID as accepted by scene.New
	Width           int           // Image width
	Height          int           // Image height
	SamplesPerPixel int           // Samples per pixel
	MaxDepth        int           // Maximum bounce depth
	Seed            int64         // Random seed, 0 seeds from the clock
	Format          output.Format // Encoding of the returned image
}

// Stats represents render statistics
type Stats struct {
	TotalPixels      int     `json:"totalPixels"`
	TotalSamples     int     `json:"totalSamples"`
	SamplesPerPixel  int     `json:"samplesPerPixel"`
	RowsCompleted    int     `json:"rowsCompleted"`
	ElapsedMs        int64   `json:"elapsedMs"`
	SamplesPerSecond float64 `json:"samplesPerSecond"`
	PrimitiveCount   int     `json:"primitiveCount"`
}

// newStats converts renderer statistics for JSON responses
func newStats(stats renderer.RenderStats, sceneObj *scene.Scene) Stats {
	return Stats{
		TotalPixels:      stats.TotalPixels,
		TotalSamples:     stats.TotalSamples,
		SamplesPerPixel:  stats.SamplesPerPixel,
		RowsCompleted:    stats.RowsCompleted,
		ElapsedMs:        stats.Duration.Milliseconds(),
		SamplesPerSecond: stats.SamplesPerSecond(),
		PrimitiveCount:   sceneObj.GetPrimitiveCount(),
	}
}

// Handler returns the HTTP routes of the server
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("/api/health", s.handleHealth)
	mux.HandleFunc("/api/scenes", s.handleScenes)
	mux.HandleFunc("/api/scene-config", s.handleSceneConfig)
	mux.HandleFunc("/api/render", s.handleRender)
	mux.HandleFunc("/api/render/stream", s.handleRenderStream)
	mux.HandleFunc("/api/inspect", s.handleInspect)
	return mux
}

// Start starts the web server
func (s *Server) Start() error {
	addr := fmt.Sprintf(":%d", s.port)
	log.Printf("Starting web server on http://localhost%s", addr)
	return http.ListenAndServe(addr, s.Handler())
}

// handleHealth provides a simple health check endpoint
func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// handleScenes lists built-in and file scenes, grouped for display
func (s *Server) handleScenes(w http.ResponseWriter, r *http.Request) {
	response, err := scene.ListAllScenes(s.scenesDir)
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, response)
}

// handleRender renders a whole image and returns it encoded in the requested format
func (s *Server) handleRender(w http.ResponseWriter, r *http.Request) {
	req, err := s.parseRenderRequest(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, fmt.Sprintf("Invalid request: %v", err))
		return
	}

	logger := NewWebLogger(newRenderID(), nil)

	sceneObj, err := s.createScene(req)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	raytracer := newRaytracer(sceneObj, req, logger)
	img, stats, err := raytracer.Render(r.Context(), nil, renderer.RenderOptions{Seed: req.Seed, ProgressInterval: -1})
	if err != nil {
		logger.Printf("Render stopped: %v\n", err)
		writeError(w, http.StatusServiceUnavailable, fmt.Sprintf("Render error: %v", err))
		return
	}
	logger.Printf("%s\n", renderer.FormatStats(stats))

	var buf bytes.Buffer
	if err := output.Encode(&buf, img, req.Format); err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}

	w.Header().Set("Content-Type", req.Format.ContentType())
	w.Header().Set("Access-Control-Allow-Origin", "*")
	w.Header().Set("X-Render-Id", logger.RenderID())
	w.Header().Set("X-Render-Samples", strconv.Itoa(stats.TotalSamples))
	w.Header().Set("X-Render-Time-Ms", strconv.FormatInt(stats.Duration.Milliseconds(), 10))
	w.WriteHeader(http.StatusOK)
	w.Write(buf.Bytes())
}

// handleSceneConfig returns the default camera and sampling of a scene with request limits
func (s *Server) handleSceneConfig(w http.ResponseWriter, r *http.Request) {
	sceneName := r.URL.Query().Get("scene")
	if sceneName == "" {
		sceneName = defaultScene
	}

	sceneObj, err := scene.New(sceneName, scene.Options{Seed: 1, ScenesDir: s.scenesDir})
	if err != nil {
		writeError(w, http.StatusBadRequest, "Unknown scene: "+sceneName)
		return
	}

	cam := sceneObj.CameraConfig
	response := map[string]interface{}{
		"scene": sceneName,
		"name":  sceneObj.Name,
		"defaults": map[string]interface{}{
			"samplesPerPixel": sceneObj.SamplingConfig.SamplesPerPixel,
			"maxDepth":        sceneObj.SamplingConfig.MaxDepth,
		},
		"camera": map[string]interface{}{
			"center":        vecJSON(cam.Center),
			"lookAt":        vecJSON(cam.LookAt),
			"up":            vecJSON(cam.Up),
			"aspectRatio":   cam.AspectRatio,
			"vfov":          cam.VFov,
			"aperture":      cam.Aperture,
			"focusDistance": cam.FocusDistance,
		},
		"limits": map[string]interface{}{
			"width":   map[string]int{"min": minDimension, "max": maxDimension},
			"height":  map[string]int{"min": minDimension, "max": maxDimension},
			"samples": map[string]int{"min": 1, "max": maxSamples},
			"depth":   map[string]int{"min": 1, "max": maxDepth},
		},
	}
	writeJSON(w, http.StatusOK, response)
}

const (
	defaultScene  = "default"
	minDimension  = 1
	maxDimension  = 2000
	maxSamples    = 10000
	maxDepth      = 1000
	defaultWidth  = 400
	defaultHeight = 225
)

// parseRenderRequest parses request parameters
func (s *Server) parseRenderRequest(r *http.Request) (*RenderRequest, error) {
	req := &RenderRequest{}
	if err := s.parseCommonSceneParams(r, req); err != nil {
		return nil, err
	}

	query := r.URL.Query()
	var err error
	// Zero leaves sampling to the scene's recommendation
	if req.SamplesPerPixel, err = parseIntParam(query, "samples", 0, 1, maxSamples); err != nil {
		return nil, err
	}
	if req.MaxDepth, err = parseIntParam(query, "depth", 0, 1, maxDepth); err != nil {
		return nil, err
	}
	if value := query.Get("seed"); value != "" {
		if req.Seed, err = strconv.ParseInt(value, 10, 64); err != nil {
			return nil, fmt.Errorf("invalid seed: %s", value)
		}
	}
	req.Format = output.FormatPNG
	if value := query.Get("format"); value != "" {
		if req.Format, err = output.ParseFormat(value); err != nil {
			return nil, err
		}
	}

	// Performance warning
	if req.Width*req.Height > 800*600 && req.SamplesPerPixel > 100 {
		log.Printf("Render warning: Large image with high samples may render slowly")
	}

	return req, nil
}

// parseCommonSceneParams parses the scene and image size shared by render and inspect
func (s *Server) parseCommonSceneParams(r *http.Request, req *RenderRequest) error {
	query := r.URL.Query()
	req.Scene = query.Get("scene")
	if req.Scene == "" {
		req.Scene = defaultScene
	}

	var err error
	if req.Width, err = parseIntParam(query, "width", defaultWidth, minDimension, maxDimension); err != nil {
		return err
	}
	if req.Height, err = parseIntParam(query, "height", defaultHeight, minDimension, maxDimension); err != nil {
		return err
	}
	return nil
}

// parseIntParam parses an integer parameter from URL query with validation
func parseIntParam(values url.Values, key string, defaultValue, min, max int) (int, error) {
	if value := values.Get(key); value != "" {
		parsed, err := strconv.Atoi(value)
		if err != nil {
			return 0, fmt.Errorf("invalid %s: %s", key, value)
		}
		if parsed < min || parsed > max {
			return 0, fmt.Errorf("%s must be between %d and %d, got: %d", key, min, max, parsed)
		}
		return parsed, nil
	}
	return defaultValue, nil
}

// createScene builds the requested scene with its camera matched to the image size
func (s *Server) createScene(req *RenderRequest) (*scene.Scene, error) {
	return scene.New(req.Scene, scene.Options{
		Seed:      req.Seed,
		ScenesDir: s.scenesDir,
		Camera:    renderer.CameraConfig{AspectRatio: float64(req.Width) / float64(req.Height)},
	})
}

// samplingFor resolves request sampling over the scene's recommendation and the global defaults
func samplingFor(sceneObj *scene.Scene, req *RenderRequest) renderer.SamplingConfig {
	sampling := sceneObj.SamplingConfig
	if req.SamplesPerPixel > 0 {
		sampling.SamplesPerPixel = req.SamplesPerPixel
	}
	if req.MaxDepth > 0 {
		sampling.MaxDepth = req.MaxDepth
	}
	defaults := renderer.DefaultSamplingConfig()
	if sampling.SamplesPerPixel <= 0 {
		sampling.SamplesPerPixel = defaults.SamplesPerPixel
	}
	if sampling.MaxDepth <= 0 {
		sampling.MaxDepth = defaults.MaxDepth
	}
	return sampling
}

// newRaytracer wires a scene into a raytracer with the resolved sampling
func newRaytracer(sceneObj *scene.Scene, req *RenderRequest, logger core.Logger) *renderer.Raytracer {
	camera := renderer.NewCamera(sceneObj.CameraConfig)
	sampling := samplingFor(sceneObj, req)
	return renderer.NewRaytracer(sceneObj.World, camera, req.Width, req.Height, sampling, logger)
}

func vecJSON(v core.Vec3) [3]float64 {
	return [3]float64{v.X, v.Y, v.Z}
}

func writeJSON(w http.ResponseWriter, status int, body interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.Header().Set("Access-Control-Allow-Origin", "*")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(body)
}

func writeError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, map[string]string{"error": message})
}
