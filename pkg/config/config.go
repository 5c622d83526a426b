package config

import (
	"encoding/json"
	"fmt"
	"os"
	"runtime"
)

// Config holds render settings loaded from a JSON config file.
type Config struct {
	Width           int     `json:"width"`
	AspectRatio     float64 `json:"aspect_ratio"`
	SamplesPerPixel int     `json:"samples_per_pixel"`
	MaxDepth        int     `json:"max_depth"`
	Workers         int     `json:"workers"`
	Seed            int64   `json:"seed"`
	Scene           string  `json:"scene"`
	ScenesDir       string  `json:"scenes_dir"`
	Output          string  `json:"output"`
	Preview         bool    `json:"preview"`
	PreviewWidth    int     `json:"preview_width"`
}

// StdoutOutput is the Output value that streams PPM to standard output.
const StdoutOutput = "-"

// Load reads a config from a JSON file.
func Load(path string) (Config, error) {
	var cfg Config
	data, err := os.ReadFile(path)
	if err != nil {
		return cfg, fmt.Errorf("config: read %s: %w", path, err)
	}
	if err := json.Unmarshal(data, &cfg); err != nil {
		return cfg, fmt.Errorf("config: parse %s: %w", path, err)
	}
	return cfg, nil
}

// Flags holds CLI flag values that override config file settings.
type Flags struct {
	Width           int
	AspectRatio     float64
	SamplesPerPixel int
	MaxDepth        int
	Workers         int
	Seed            int64
	Scene           string
	ScenesDir       string
	Output          string
	Preview         bool
	PreviewWidth    int
}

// Resolve applies CLI overrides (non-zero flags win) and fills in defaults.
// Sampling is left unset when neither the file nor the flags give it, so the
// scene's recommendation can apply; see ApplySceneSampling.
func (c *Config) Resolve(flags Flags) {
	if flags.Width > 0 {
		c.Width = flags.Width
	}
	if flags.AspectRatio > 0 {
		c.AspectRatio = flags.AspectRatio
	}
	if flags.SamplesPerPixel > 0 {
		c.SamplesPerPixel = flags.SamplesPerPixel
	}
	if flags.MaxDepth > 0 {
		c.MaxDepth = flags.MaxDepth
	}
	if flags.Workers > 0 {
		c.Workers = flags.Workers
	}
	if flags.Seed != 0 {
		c.Seed = flags.Seed
	}
	if flags.Scene != "" {
		c.Scene = flags.Scene
	}
	if flags.ScenesDir != "" {
		c.ScenesDir = flags.ScenesDir
	}
	if flags.Output != "" {
		c.Output = flags.Output
	}
	if flags.Preview {
		c.Preview = true
	}
	if flags.PreviewWidth > 0 {
		c.PreviewWidth = flags.PreviewWidth
	}

	// Defaults
	if c.Width <= 0 {
		c.Width = 512
	}
	if c.AspectRatio <= 0 {
		c.AspectRatio = 1.0
	}
	if c.Workers <= 0 {
		c.Workers = runtime.NumCPU()
	}
	if c.Scene == "" {
		c.Scene = "random"
	}
	if c.Output == "" {
		c.Output = StdoutOutput
	}
	if c.PreviewWidth <= 0 {
		c.PreviewWidth = 256
	}
}

// ApplySceneSampling fills sampling the user left unset from the scene's
// recommendation, then from the global defaults (100 spp, depth 50).
func (c *Config) ApplySceneSampling(samplesPerPixel, maxDepth int) {
	if c.SamplesPerPixel <= 0 {
		c.SamplesPerPixel = samplesPerPixel
	}
	if c.MaxDepth <= 0 {
		c.MaxDepth = maxDepth
	}
	if c.SamplesPerPixel <= 0 {
		c.SamplesPerPixel = 100
	}
	if c.MaxDepth <= 0 {
		c.MaxDepth = 50
	}
}

// Height derives the image height from width and aspect ratio.
func (c Config) Height() int {
	h := int(float64(c.Width) / c.AspectRatio)
	if h < 1 {
		return 1
	}
	return h
}

// ToStdout reports whether the PPM stream goes to standard output.
func (c Config) ToStdout() bool {
	return c.Output == StdoutOutput
}
