package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"image"
	"io"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"

	"github.com/df07/go-sphere-raytracer/pkg/config"
	"github.com/df07/go-sphere-raytracer/pkg/core"
	"github.com/df07/go-sphere-raytracer/pkg/output"
	"github.com/df07/go-sphere-raytracer/pkg/renderer"
	"github.com/df07/go-sphere-raytracer/pkg/scene"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, os.Args[1:], os.Stdout, renderer.NewDefaultLogger()); err != nil {
		if errors.Is(err, flag.ErrHelp) {
			return
		}
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

// run parses args, renders the selected scene and writes the result.
// The PPM stream goes to stdout when the output is "-"; logs go to logger.
func run(ctx context.Context, args []string, stdout io.Writer, logger core.Logger) error {
	fs := flag.NewFlagSet("raytracer", flag.ContinueOnError)
	configFile := fs.String("config", "", "Path to config.json file")
	width := fs.Int("width", 0, "Image width in pixels (default: 512)")
	aspect := fs.Float64("aspect", 0, "Aspect ratio width/height (default: 1.0)")
	samples := fs.Int("samples", 0, "Samples per pixel (default: 100)")
	depth := fs.Int("depth", 0, "Maximum bounce depth (default: 50)")
	workers := fs.Int("workers", 0, "Number of worker goroutines (default: NumCPU)")
	seed := fs.Int64("seed", 0, "Random seed, 0 seeds from the clock")
	sceneName := fs.String("scene", "", "Scene: random, default, sphere-grid, file:<name> or a .json path (default: random)")
	scenesDir := fs.String("scenes", "", "Directory with scene files (default: ./scenes)")
	out := fs.String("output", "", "Output path (.ppm, .png, .webp, .tga) or - for PPM on stdout")
	preview := fs.Bool("preview", false, "Also write a downscaled preview next to the output")
	previewWidth := fs.Int("preview-width", 0, "Preview width in pixels (default: 256)")
	list := fs.Bool("list", false, "List available scenes and exit")
	fs.SetOutput(os.Stderr)

	if err := fs.Parse(args); err != nil {
		return err
	}

	var cfg config.Config
	if *configFile != "" {
		var err error
		cfg, err = config.Load(*configFile)
		if err != nil {
			return err
		}
	}
	cfg.Resolve(config.Flags{
		Width:           *width,
		AspectRatio:     *aspect,
		SamplesPerPixel: *samples,
		MaxDepth:        *depth,
		Workers:         *workers,
		Seed:            *seed,
		Scene:           *sceneName,
		ScenesDir:       *scenesDir,
		Output:          *out,
		Preview:         *preview,
		PreviewWidth:    *previewWidth,
	})

	if *list {
		return listScenes(stdout, cfg.ScenesDir)
	}

	selectedScene, err := createScene(cfg)
	if err != nil {
		return err
	}
	logger.Printf("Scene %q: %d spheres, %d materials\n",
		selectedScene.Name, selectedScene.GetPrimitiveCount(), selectedScene.GetMaterialCount())

	cfg.ApplySceneSampling(selectedScene.SamplingConfig.SamplesPerPixel, selectedScene.SamplingConfig.MaxDepth)

	camera := renderer.NewCamera(selectedScene.CameraConfig)
	raytracer := renderer.NewRaytracer(selectedScene.World, camera, cfg.Width, cfg.Height(),
		renderer.SamplingConfig{SamplesPerPixel: cfg.SamplesPerPixel, MaxDepth: cfg.MaxDepth}, logger)

	img, stats, err := render(ctx, raytracer, cfg, stdout, logger)
	if err != nil {
		return err
	}

	logger.Printf("%s\n", renderer.FormatStats(stats))
	logger.Printf("Average luminance: %.4f\n", renderer.CalculateAverageLuminance(img))

	if cfg.Preview && !cfg.ToStdout() {
		previewPath := output.PreviewPath(cfg.Output)
		if err := output.Save(previewPath, output.Preview(img, cfg.PreviewWidth)); err != nil {
			return err
		}
		logger.Printf("Preview saved as %s\n", previewPath)
	}
	return nil
}

// createScene builds the configured scene with the image aspect ratio applied to its camera
func createScene(cfg config.Config) (*scene.Scene, error) {
	return scene.New(cfg.Scene, scene.Options{
		Seed:      cfg.Seed,
		ScenesDir: cfg.ScenesDir,
		Camera:    renderer.CameraConfig{AspectRatio: float64(cfg.Width) / float64(cfg.Height())},
	})
}

// render streams PPM straight to its destination, or renders in memory and
// encodes by file extension for the other formats
func render(ctx context.Context, raytracer *renderer.Raytracer, cfg config.Config, stdout io.Writer, logger core.Logger) (image.Image, renderer.RenderStats, error) {
	options := renderer.RenderOptions{Workers: cfg.Workers, Seed: cfg.Seed}

	if cfg.ToStdout() {
		img, stats, err := raytracer.Render(ctx, output.NewPPMWriter(stdout), options)
		return img, stats, err
	}

	format, err := output.FormatFromPath(cfg.Output)
	if err != nil {
		return nil, renderer.RenderStats{}, err
	}

	if format != output.FormatPPM {
		img, stats, err := raytracer.Render(ctx, nil, options)
		if err != nil {
			return nil, stats, err
		}
		if err := output.Save(cfg.Output, img); err != nil {
			return nil, stats, err
		}
		logger.Printf("Render saved as %s\n", cfg.Output)
		return img, stats, nil
	}

	if err := os.MkdirAll(filepath.Dir(cfg.Output), 0755); err != nil {
		return nil, renderer.RenderStats{}, fmt.Errorf("create output directory: %w", err)
	}
	file, err := os.Create(cfg.Output)
	if err != nil {
		return nil, renderer.RenderStats{}, fmt.Errorf("create %s: %w", cfg.Output, err)
	}
	defer file.Close()

	img, stats, err := raytracer.Render(ctx, output.NewPPMWriter(file), options)
	if err != nil {
		return img, stats, err
	}
	if err := file.Close(); err != nil {
		return img, stats, fmt.Errorf("close %s: %w", cfg.Output, err)
	}
	logger.Printf("Render saved as %s\n", cfg.Output)
	return img, stats, nil
}

// listScenes prints the available scenes grouped for display
func listScenes(w io.Writer, scenesDir string) error {
	response, err := scene.ListAllScenes(scenesDir)
	if err != nil {
		return err
	}
	for _, group := range response.Groups {
		fmt.Fprintf(w, "%s:\n", group.Name)
		for _, info := range group.Scenes {
			fmt.Fprintf(w, "  %-20s %s\n", info.ID, info.DisplayName)
		}
	}
	return nil
}
