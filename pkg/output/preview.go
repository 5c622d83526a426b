package output

import (
	"image"
	"path/filepath"

	"golang.org/x/image/draw"
)

// Preview downscales img to at most maxWidth pixels wide, keeping the aspect
// ratio. Images already small enough are returned unchanged.
func Preview(img image.Image, maxWidth int) image.Image {
	b := img.Bounds()
	if maxWidth <= 0 || b.Dx() <= maxWidth {
		return img
	}

	height := max(1, b.Dy()*maxWidth/b.Dx())
	dst := image.NewRGBA(image.Rect(0, 0, maxWidth, height))
	draw.CatmullRom.Scale(dst, dst.Bounds(), img, b, draw.Src, nil)
	return dst
}

// PreviewPath derives the preview file name, e.g. out/render.png -> out/render.preview.png
func PreviewPath(path string) string {
	ext := filepath.Ext(path)
	return path[:len(path)-len(ext)] + ".preview" + ext
}
