package output

import (
	"image"
	"testing"
)

func TestPreview_Downscales(t *testing.T) {
	img := image.NewRGBA(image.Rect(0, 0, 400, 200))
	preview := Preview(img, 100)

	if got := preview.Bounds().Size(); got != image.Pt(100, 50) {
		t.Errorf("Expected 100x50 preview, got %v", got)
	}
}

func TestPreview_SmallImageUnchanged(t *testing.T) {
	img := image.NewRGBA(image.Rect(0, 0, 64, 64))
	if Preview(img, 128) != image.Image(img) {
		t.Error("Expected small image to be returned unchanged")
	}
	if Preview(img, 0) != image.Image(img) {
		t.Error("Expected non-positive width to disable scaling")
	}
}

func TestPreview_KeepsFlatColor(t *testing.T) {
	img := testImage()
	for i := range img.Pix {
		if i%4 != 3 {
			img.Pix[i] = 90
		}
	}
	preview := Preview(img, 4)
	r, g, b, _ := preview.At(1, 1).RGBA()
	if !near8(r>>8, 90) || !near8(g>>8, 90) || !near8(b>>8, 90) {
		t.Errorf("Expected flat grey to survive resampling, got (%d,%d,%d)", r>>8, g>>8, b>>8)
	}
}

func TestPreviewPath(t *testing.T) {
	tests := map[string]string{
		"render.png":     "render.preview.png",
		"out/scene.webp": "out/scene.preview.webp",
	}
	for in, want := range tests {
		if got := PreviewPath(in); got != want {
			t.Errorf("PreviewPath(%q) = %q, want %q", in, got, want)
		}
	}
}

func near8(got uint32, want int) bool {
	d := int(got) - want
	return d >= -1 && d <= 1
}
