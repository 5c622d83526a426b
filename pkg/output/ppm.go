package output

import (
	"bufio"
	"fmt"
	"image"
	"image/color"
	"io"
	"math"
)

// PPMWriter streams an ASCII (P3) PPM image one pixel at a time.
// Pixels must arrive in row-major order, top row first.
type PPMWriter struct {
	w *bufio.Writer
}

// NewPPMWriter creates a writer that buffers output to w
func NewPPMWriter(w io.Writer) *PPMWriter {
	return &PPMWriter{w: bufio.NewWriter(w)}
}

// Begin writes the three header lines: format tag, dimensions, max channel value
func (p *PPMWriter) Begin(width, height int) error {
	_, err := fmt.Fprintf(p.w, "P3\n%d %d\n255\n", width, height)
	return err
}

// WritePixel writes one pixel as three integer channels on its own line
func (p *PPMWriter) WritePixel(r, g, b int) error {
	_, err := fmt.Fprintf(p.w, "%d %d %d\n", r, g, b)
	return err
}

// End flushes buffered output
func (p *PPMWriter) End() error {
	return p.w.Flush()
}

// WritePPM encodes a whole image as P3 PPM
func WritePPM(w io.Writer, img image.Image) error {
	bounds := img.Bounds()
	pw := NewPPMWriter(w)
	if err := pw.Begin(bounds.Dx(), bounds.Dy()); err != nil {
		return err
	}
	for y := bounds.Min.Y; y < bounds.Max.Y; y++ {
		for x := bounds.Min.X; x < bounds.Max.X; x++ {
			r, g, b, _ := img.At(x, y).RGBA()
			if err := pw.WritePixel(int(r>>8), int(g>>8), int(b>>8)); err != nil {
				return err
			}
		}
	}
	return pw.End()
}

// DecodePPM reads a P3 PPM image. Channels are rescaled when the declared
// maximum is not 255.
func DecodePPM(r io.Reader) (image.Image, error) {
	br := bufio.NewReader(r)

	var magic string
	if _, err := fmt.Fscan(br, &magic); err != nil {
		return nil, fmt.Errorf("ppm: read header: %w", err)
	}
	if magic != "P3" {
		return nil, fmt.Errorf("ppm: unsupported format %q", magic)
	}

	var width, height, maxVal int
	if _, err := fmt.Fscan(br, &width, &height, &maxVal); err != nil {
		return nil, fmt.Errorf("ppm: read header: %w", err)
	}
	if width < 0 || height < 0 || maxVal <= 0 || maxVal > 65535 {
		return nil, fmt.Errorf("ppm: invalid header %dx%d max %d", width, height, maxVal)
	}

	if width == 0 || height == 0 {
		return image.NewRGBA(image.Rect(0, 0, width, height)), nil
	}
	if width > math.MaxInt/4/height {
		return nil, fmt.Errorf("ppm: image too large %dx%d", width, height)
	}

	// The header is untrusted: grow with the pixels actually read
	pix := make([]uint8, 0, min(4*width*height, maxInitialPixBytes))
	for y := 0; y < height; y++ {
		for x := 0; x < width; x++ {
			var rv, gv, bv int
			if _, err := fmt.Fscan(br, &rv, &gv, &bv); err != nil {
				return nil, fmt.Errorf("ppm: pixel (%d,%d): %w", x, y, err)
			}
			pix = append(pix, scaleChannel(rv, maxVal), scaleChannel(gv, maxVal), scaleChannel(bv, maxVal), 255)
		}
	}
	return &image.RGBA{Pix: pix, Stride: 4 * width, Rect: image.Rect(0, 0, width, height)}, nil
}

// maxInitialPixBytes caps the up-front allocation of DecodePPM
const maxInitialPixBytes = 1 << 22

// decodePPMConfig reads only the header
func decodePPMConfig(r io.Reader) (image.Config, error) {
	var magic string
	var width, height, maxVal int
	br := bufio.NewReader(r)
	if _, err := fmt.Fscan(br, &magic, &width, &height, &maxVal); err != nil {
		return image.Config{}, fmt.Errorf("ppm: read header: %w", err)
	}
	if magic != "P3" {
		return image.Config{}, fmt.Errorf("ppm: unsupported format %q", magic)
	}
	return image.Config{ColorModel: color.RGBAModel, Width: width, Height: height}, nil
}

func scaleChannel(v, maxVal int) uint8 {
	if v < 0 {
		v = 0
	}
	if v > maxVal {
		v = maxVal
	}
	if maxVal == 255 {
		return uint8(v)
	}
	return uint8(v * 255 / maxVal)
}

func init() {
	image.RegisterFormat("ppm", "P3", DecodePPM, decodePPMConfig)
}
