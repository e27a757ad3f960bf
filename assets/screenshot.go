package assets

import (
	"bufio"
	"fmt"
	"image"
	"image/jpeg"
	"image/png"
	"os"
	"path/filepath"
	"strings"

	"github.com/anthonynsimon/bild/transform"
	"golang.org/x/image/bmp"
	"golang.org/x/image/tiff"
)

// FromFramebuffer wraps RGBA8 rows read back from the GPU, bottom row
// first, as an upright image.
func FromFramebuffer(width, height int, pix []uint8) *image.RGBA {
	img := &image.RGBA{
		Pix:    pix,
		Stride: width * 4,
		Rect:   image.Rect(0, 0, width, height),
	}
	return transform.FlipV(img)
}

type encodeFunc func(w *bufio.Writer, img image.Image) error

var encoders = map[string]encodeFunc{
	".png":  func(w *bufio.Writer, img image.Image) error { return png.Encode(w, img) },
	".jpg":  encodeJPEG,
	".jpeg": encodeJPEG,
	".bmp":  func(w *bufio.Writer, img image.Image) error { return bmp.Encode(w, img) },
	".tif":  encodeTIFF,
	".tiff": encodeTIFF,
}

func encodeJPEG(w *bufio.Writer, img image.Image) error {
	return jpeg.Encode(w, img, &jpeg.Options{Quality: 90})
}

func encodeTIFF(w *bufio.Writer, img image.Image) error {
	return tiff.Encode(w, img, nil)
}

// SaveImage encodes img with the format named by the file extension: png,
// jpg/jpeg, bmp or tif/tiff.
func SaveImage(path string, img image.Image) (err error) {
	ext := strings.ToLower(filepath.Ext(path))
	encode, ok := encoders[ext]
	if !ok {
		return fmt.Errorf("save image: unsupported extension %q", ext)
	}
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("save image: %w", err)
	}
	defer func() {
		if cerr := f.Close(); cerr != nil && err == nil {
			err = fmt.Errorf("save image %s: %w", path, cerr)
		}
	}()

	w := bufio.NewWriter(f)
	if err := encode(w, img); err != nil {
		return fmt.Errorf("save image %s: %w", path, err)
	}
	if err := w.Flush(); err != nil {
		return fmt.Errorf("save image %s: %w", path, err)
	}
	return nil
}
