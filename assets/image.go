package assets

import (
	"fmt"
	"image"
	"image/color"
	_ "image/jpeg"
	_ "image/png"
	"os"
	"path/filepath"
	"strings"

	"github.com/anthonynsimon/bild/transform"
	"github.com/chewxy/math32"
	_ "golang.org/x/image/bmp"
	_ "golang.org/x/image/tiff"
	_ "golang.org/x/image/webp"
)

// LoadImage reads an environment image. Radiance .hdr files are decoded
// directly; PNG, JPEG, BMP, TIFF and WebP are decoded as sRGB and converted
// to linear. LDR images wider than maxWidth are downscaled first; maxWidth
// <= 0 keeps the original size.
func LoadImage(path string, maxWidth int) (*Image, error) {
	if strings.EqualFold(filepath.Ext(path), ".hdr") {
		return LoadHDR(path)
	}
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("load image: %w", err)
	}
	defer f.Close()

	src, _, err := image.Decode(f)
	if err != nil {
		return nil, fmt.Errorf("decode image %q: %w", path, err)
	}
	if b := src.Bounds(); maxWidth > 0 && b.Dx() > maxWidth {
		h := max(b.Dy()*maxWidth/b.Dx(), 1)
		src = transform.Resize(src, maxWidth, h, transform.Linear)
	}
	return FromImage(src), nil
}

// FromImage converts an 8-bit sRGB image to linear float RGB. Alpha is
// dropped.
func FromImage(src image.Image) *Image {
	b := src.Bounds()
	img := &Image{Width: b.Dx(), Height: b.Dy(), Pix: make([]float32, b.Dx()*b.Dy()*3)}
	i := 0
	for y := b.Min.Y; y < b.Max.Y; y++ {
		for x := b.Min.X; x < b.Max.X; x++ {
			c := color.NRGBAModel.Convert(src.At(x, y)).(color.NRGBA)
			img.Pix[i] = srgbToLinear(c.R)
			img.Pix[i+1] = srgbToLinear(c.G)
			img.Pix[i+2] = srgbToLinear(c.B)
			i += 3
		}
	}
	return img
}

func srgbToLinear(v uint8) float32 {
	c := float32(v) / 255
	if c <= 0.04045 {
		return c / 12.92
	}
	return math32.Pow((c+0.055)/1.055, 2.4)
}
