package renderer

import (
	"context"
	"fmt"
	"image"
	"image/color"
	"time"

	"github.com/df07/go-sphere-raytracer/pkg/core"
	"github.com/df07/go-sphere-raytracer/pkg/geometry"
	"github.com/df07/go-sphere-raytracer/pkg/integrator"
)

// SamplingConfig contains rendering configuration
type SamplingConfig struct {
	SamplesPerPixel int // Number of rays per pixel
	MaxDepth        int // Maximum ray bounce depth
}

// DefaultSamplingConfig returns sensible default values
func DefaultSamplingConfig() SamplingConfig {
	return SamplingConfig{
		SamplesPerPixel: 100,
		MaxDepth:        50,
	}
}

// RenderOptions controls how a render is scheduled
type RenderOptions struct {
	Workers          int           // Number of parallel workers, <= 0 uses all CPUs
	Seed             int64         // Base seed for per-row random streams, 0 seeds from the clock
	ProgressInterval time.Duration // 0 uses DefaultProgressInterval, negative disables progress logs
}

// PixelSink receives quantized pixels in row-major order, top row first
type PixelSink interface {
	Begin(width, height int) error
	WritePixel(r, g, b int) error
	End() error
}

// Raytracer handles the rendering process.
// Everything it holds is read-only during a render and shared by all workers.
type Raytracer struct {
	world      geometry.Shape
	camera     *Camera
	integrator integrator.Integrator
	width      int
	height     int
	config     SamplingConfig
	logger     core.Logger
}

// NewRaytracer creates a new raytracer
func NewRaytracer(world geometry.Shape, camera *Camera, width, height int, config SamplingConfig, logger core.Logger) *Raytracer {
	if logger == nil {
		logger = core.NopLogger{}
	}
	return &Raytracer{
		world:      world,
		camera:     camera,
		integrator: integrator.NewPathTracingIntegrator(integrator.DefaultSky),
		width:      width,
		height:     height,
		config:     config,
		logger:     logger,
	}
}

// SetIntegrator replaces the light transport algorithm
func (rt *Raytracer) SetIntegrator(integ integrator.Integrator) {
	rt.integrator = integ
}

// QuantizeChannel maps a linear color channel to [0,255]: gamma 2, clamp to
// [0,0.999], scale by 256 and truncate. NaN maps to 0.
func QuantizeChannel(c float64) int {
	v := core.NewVec3(c, 0, 0).GammaCorrect(2.0).X
	if !(v > 0) {
		return 0
	}
	return int(256 * min(v, 0.999))
}

// vec3ToColor converts an averaged linear color to 8-bit RGBA
func vec3ToColor(colorVec core.Vec3) color.RGBA {
	return color.RGBA{
		R: uint8(QuantizeChannel(colorVec.X)),
		G: uint8(QuantizeChannel(colorVec.Y)),
		B: uint8(QuantizeChannel(colorVec.Z)),
		A: 255,
	}
}

// RenderRow renders output row `row` (0 is the top) with its own random stream
// and returns the quantized pixels left to right and the number of samples taken.
func (rt *Raytracer) RenderRow(row int, seed int64) ([]color.RGBA, int) {
	sampler := core.NewSeededSampler(seed)
	pixels := make([]color.RGBA, rt.width)

	// Image rows count up from the bottom of the viewport
	j := rt.height - 1 - row
	sDenom := float64(max(rt.width-1, 1))
	tDenom := float64(max(rt.height-1, 1))

	samples := 0
	for i := 0; i < rt.width; i++ {
		var stats PixelStats
		for sample := 0; sample < rt.config.SamplesPerPixel; sample++ {
			// Jitter within the pixel
			s := (float64(i) + sampler.Get1D()) / sDenom
			t := (float64(j) + sampler.Get1D()) / tDenom

			ray := rt.camera.GetRay(s, t, sampler)
			stats.AddSample(rt.integrator.RayColor(ray, rt.world, sampler, rt.config.MaxDepth))
		}
		samples += stats.SampleCount
		pixels[i] = vec3ToColor(stats.GetColor())
	}

	return pixels, samples
}

// Render renders the whole image, streaming rows to sink strictly top to
// bottom while workers finish them in any order. sink may be nil.
//
// A failed pixel write is counted and the render goes on. Cancelling ctx stops
// scheduling new rows; rows already finished in order are still emitted and
// ctx.Err() is returned together with the partial image.
func (rt *Raytracer) Render(ctx context.Context, sink PixelSink, options RenderOptions) (*image.RGBA, RenderStats, error) {
	start := time.Now()
	img := image.NewRGBA(image.Rect(0, 0, rt.width, rt.height))
	stats := RenderStats{SamplesPerPixel: rt.config.SamplesPerPixel}

	if sink != nil {
		if err := sink.Begin(rt.width, rt.height); err != nil {
			return img, stats, fmt.Errorf("renderer: write header: %w", err)
		}
	}

	seed := options.Seed
	if seed == 0 {
		seed = time.Now().UnixNano()
	}

	tasks := make([]RowTask, rt.height)
	for row := range tasks {
		tasks[row] = RowTask{Row: row, Seed: seed + int64(row)}
	}

	pool := NewWorkerPool(rt, options.Workers)
	rt.logger.Printf("Rendering %dx%d, %d spp, depth %d on %d workers\n",
		rt.width, rt.height, rt.config.SamplesPerPixel, rt.config.MaxDepth, pool.GetNumWorkers())

	progress := startProgress(rt.logger, rt.height, options.ProgressInterval)
	pool.Start()
	pool.Submit(ctx, tasks)

	// Rows finished out of order wait here until every row above them is emitted
	pending := make(map[int]RowResult)
	next := 0
	for result := range pool.Results() {
		progress.rowDone()
		pending[result.Row] = result
		for {
			ready, ok := pending[next]
			if !ok {
				break
			}
			delete(pending, next)
			rt.emitRow(img, sink, ready, &stats)
			next++
		}
	}
	progress.stop()

	stats.Duration = time.Since(start)

	// Flush whatever was emitted, even for a partial image
	var endErr error
	if sink != nil {
		if err := sink.End(); err != nil {
			endErr = fmt.Errorf("renderer: flush output: %w", err)
		}
	}

	if next < rt.height {
		err := ctx.Err()
		if err == nil {
			err = fmt.Errorf("renderer: only %d of %d rows finished", next, rt.height)
		}
		return img, stats, err
	}
	return img, stats, endErr
}

// emitRow copies a finished row into the image and writes it to the sink
func (rt *Raytracer) emitRow(img *image.RGBA, sink PixelSink, result RowResult, stats *RenderStats) {
	for i, c := range result.Pixels {
		img.SetRGBA(i, result.Row, c)
		if sink == nil {
			continue
		}
		if err := sink.WritePixel(int(c.R), int(c.G), int(c.B)); err != nil {
			if stats.WriteErrors == 0 {
				rt.logger.Printf("Error writing pixel (%d,%d): %v\n", i, result.Row, err)
			}
			stats.WriteErrors++
		}
	}
	stats.TotalPixels += len(result.Pixels)
	stats.TotalSamples += result.Samples
	stats.RowsCompleted++
}
