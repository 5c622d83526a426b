package main

import (
	"bytes"
	"context"
	"fmt"
	"image/png"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"

	"github.com/df07/go-sphere-raytracer/pkg/config"
	"github.com/df07/go-sphere-raytracer/pkg/core"
)

func TestCreateScene(t *testing.T) {
	tests := []struct {
		name        string
		sceneType   string
		expectError bool
	}{
		// Built-in scenes
		{"random scene", "random", false},
		{"default scene", "default", false},
		{"sphere grid scene", "sphere-grid", false},

		// Scene files
		{"scene file by name", "file:three-spheres", false},
		{"scene file by path", "scenes/glass-row.json", false},

		// Invalid scenes
		{"unknown scene", "nonexistent", true},
		{"missing scene file", "file:nonexistent", true},
		{"invalid scene path", "scenes/nonexistent.json", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := config.Config{Scene: tt.sceneType, ScenesDir: "scenes", Seed: 1}
			cfg.Resolve(config.Flags{Width: 200, AspectRatio: 2})

			scene, err := createScene(cfg)
			if tt.expectError {
				if err == nil {
					t.Errorf("Expected error for scene type '%s', but got none", tt.sceneType)
				}
				if scene != nil {
					t.Errorf("Expected nil scene for invalid scene type '%s'", tt.sceneType)
				}
				return
			}

			if err != nil {
				t.Fatalf("Unexpected error for scene type '%s': %v", tt.sceneType, err)
			}
			if scene.GetPrimitiveCount() == 0 {
				t.Errorf("Scene '%s' should have spheres", tt.sceneType)
			}
			if scene.CameraConfig.AspectRatio != 2.0 {
				t.Errorf("Camera aspect should follow the image, got %f", scene.CameraConfig.AspectRatio)
			}
		})
	}
}

func TestRunStreamsPPMToStdout(t *testing.T) {
	var stdout bytes.Buffer
	args := []string{"-scene", "default", "-width", "8", "-aspect", "2", "-samples", "2", "-depth", "3", "-seed", "1", "-workers", "2"}
	if err := run(context.Background(), args, &stdout, core.NopLogger{}); err != nil {
		t.Fatalf("run failed: %v", err)
	}

	out := stdout.String()
	if !strings.HasPrefix(out, "P3\n8 4\n255\n") {
		t.Fatalf("Unexpected PPM header: %q", out[:min(len(out), 20)])
	}
	lines := strings.Split(strings.TrimSuffix(out, "\n"), "\n")
	if got := len(lines) - 3; got != 32 {
		t.Errorf("Expected 32 pixel lines, got %d", got)
	}
}

// recordingLogger keeps every logged line
type recordingLogger struct {
	mu    sync.Mutex
	lines []string
}

func (l *recordingLogger) Printf(format string, args ...interface{}) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.lines = append(l.lines, fmt.Sprintf(format, args...))
}

func (l *recordingLogger) find(prefix string) string {
	l.mu.Lock()
	defer l.mu.Unlock()
	for _, line := range l.lines {
		if strings.HasPrefix(line, prefix) {
			return line
		}
	}
	return ""
}

const sampledScene = `{
  "name": "Sampled",
  "camera": {"center": [0, 0, 5], "look_at": [0, 0, 0], "vfov": 20},
  "sampling": {"samples_per_pixel": 1, "max_depth": 2},
  "materials": {"grey": {"type": "lambertian", "albedo": [0.5, 0.5, 0.5]}},
  "spheres": [{"center": [0, 0, 0], "radius": 0.5, "material": "grey"}]
}`

func TestRunUsesSceneSampling(t *testing.T) {
	path := filepath.Join(t.TempDir(), "sampled.json")
	if err := os.WriteFile(path, []byte(sampledScene), 0644); err != nil {
		t.Fatalf("Failed to write scene file: %v", err)
	}

	tests := []struct {
		name  string
		extra []string
		want  string
	}{
		{"scene recommendation", nil, "Rendering 2x1, 1 spp, depth 2"},
		{"samples flag wins", []string{"-samples", "3"}, "Rendering 2x1, 3 spp, depth 2"},
		{"depth flag wins", []string{"-depth", "5"}, "Rendering 2x1, 1 spp, depth 5"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			logger := &recordingLogger{}
			args := append([]string{"-scene", path, "-width", "2", "-aspect", "2", "-seed", "1", "-workers", "1"}, tt.extra...)
			if err := run(context.Background(), args, &bytes.Buffer{}, logger); err != nil {
				t.Fatalf("run failed: %v", err)
			}
			if line := logger.find("Rendering "); !strings.HasPrefix(line, tt.want) {
				t.Errorf("Expected %q, got %q", tt.want, line)
			}
		})
	}
}

func TestRunIsReproducibleWithSeed(t *testing.T) {
	args := []string{"-scene", "random", "-width", "6", "-samples", "2", "-depth", "4", "-seed", "9"}

	var first, second bytes.Buffer
	if err := run(context.Background(), append(args, "-workers", "1"), &first, core.NopLogger{}); err != nil {
		t.Fatalf("run failed: %v", err)
	}
	if err := run(context.Background(), append(args, "-workers", "3"), &second, core.NopLogger{}); err != nil {
		t.Fatalf("run failed: %v", err)
	}
	if first.String() != second.String() {
		t.Error("Same seed should give identical output regardless of worker count")
	}
}

func TestRunWritesImageAndPreview(t *testing.T) {
	dir := t.TempDir()
	outPath := filepath.Join(dir, "renders", "out.png")
	args := []string{"-scene", "default", "-width", "16", "-aspect", "2", "-samples", "1", "-depth", "2",
		"-seed", "3", "-output", outPath, "-preview", "-preview-width", "4"}

	var stdout bytes.Buffer
	if err := run(context.Background(), args, &stdout, core.NopLogger{}); err != nil {
		t.Fatalf("run failed: %v", err)
	}
	if stdout.Len() != 0 {
		t.Errorf("Nothing should be written to stdout for file output, got %d bytes", stdout.Len())
	}

	checkPNG := func(path string, width, height int) {
		t.Helper()
		file, err := os.Open(path)
		if err != nil {
			t.Fatalf("Failed to open %s: %v", path, err)
		}
		defer file.Close()
		img, err := png.Decode(file)
		if err != nil {
			t.Fatalf("Failed to decode %s: %v", path, err)
		}
		if b := img.Bounds(); b.Dx() != width || b.Dy() != height {
			t.Errorf("%s: expected %dx%d, got %dx%d", path, width, height, b.Dx(), b.Dy())
		}
	}
	checkPNG(outPath, 16, 8)
	checkPNG(filepath.Join(dir, "renders", "out.preview.png"), 4, 2)
}

func TestRunWritesPPMFile(t *testing.T) {
	outPath := filepath.Join(t.TempDir(), "out.ppm")
	args := []string{"-scene", "default", "-width", "4", "-samples", "1", "-depth", "2", "-seed", "5", "-output", outPath}
	if err := run(context.Background(), args, &bytes.Buffer{}, core.NopLogger{}); err != nil {
		t.Fatalf("run failed: %v", err)
	}
	data, err := os.ReadFile(outPath)
	if err != nil {
		t.Fatalf("Failed to read output: %v", err)
	}
	if !strings.HasPrefix(string(data), "P3\n4 4\n255\n") {
		t.Errorf("Unexpected PPM header: %q", string(data[:min(len(data), 20)]))
	}
}

func TestRunErrors(t *testing.T) {
	tests := []struct {
		name string
		args []string
	}{
		{"unknown scene", []string{"-scene", "nonexistent", "-width", "4"}},
		{"unknown output format", []string{"-scene", "default", "-width", "4", "-samples", "1", "-output", filepath.Join(t.TempDir(), "out.gif")}},
		{"missing config", []string{"-config", filepath.Join(t.TempDir(), "missing.json")}},
		{"bad flag", []string{"-no-such-flag"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if err := run(context.Background(), tt.args, &bytes.Buffer{}, core.NopLogger{}); err == nil {
				t.Errorf("Expected error for %v", tt.args)
			}
		})
	}
}

func TestRunCancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	args := []string{"-scene", "default", "-width", "32", "-samples", "4", "-seed", "1"}
	if err := run(ctx, args, &bytes.Buffer{}, core.NopLogger{}); err == nil {
		t.Error("Expected an error for a cancelled render")
	}
}

func TestRunListScenes(t *testing.T) {
	var stdout bytes.Buffer
	if err := run(context.Background(), []string{"-list", "-scenes", "scenes"}, &stdout, core.NopLogger{}); err != nil {
		t.Fatalf("run failed: %v", err)
	}
	out := stdout.String()
	for _, want := range []string{"Built-in Scenes:", "random", "file:three-spheres"} {
		if !strings.Contains(out, want) {
			t.Errorf("Scene list missing %q:\n%s", want, out)
		}
	}
}
