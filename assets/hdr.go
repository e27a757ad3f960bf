// Package assets decodes environment images for the renderer and writes
// screenshots.
package assets

import (
	"bufio"
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/chewxy/math32"
)

// MaxHDRSize bounds each dimension of a decoded .hdr image.
const MaxHDRSize = 16384

var (
	ErrNotHDR       = errors.New("not a Radiance HDR file")
	ErrInvalidImage = errors.New("invalid image")
)

// Image is linear RGB float data, three values per pixel, top row first.
type Image struct {
	Width  int
	Height int
	Pix    []float32
}

// NewUniform returns a w x h image filled with one colour.
func NewUniform(w, h int, r, g, b float32) *Image {
	img := &Image{Width: w, Height: h, Pix: make([]float32, w*h*3)}
	for i := 0; i < len(img.Pix); i += 3 {
		img.Pix[i], img.Pix[i+1], img.Pix[i+2] = r, g, b
	}
	return img
}

// At returns the pixel at column x, row y (row 0 at the top).
func (m *Image) At(x, y int) (r, g, b float32) {
	i := (y*m.Width + x) * 3
	return m.Pix[i], m.Pix[i+1], m.Pix[i+2]
}

// Validate checks the dimensions against the pixel count.
func (m *Image) Validate() error {
	if m == nil {
		return fmt.Errorf("%w: nil image", ErrInvalidImage)
	}
	if m.Width < 1 || m.Height < 1 || len(m.Pix) != m.Width*m.Height*3 {
		return fmt.Errorf("%w: %dx%d with %d values", ErrInvalidImage, m.Width, m.Height, len(m.Pix))
	}
	return nil
}

// LoadHDR reads a Radiance .hdr file.
func LoadHDR(path string) (*Image, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("load hdr: %w", err)
	}
	defer f.Close()

	img, err := DecodeHDR(f)
	if err != nil {
		return nil, fmt.Errorf("load hdr %s: %w", path, err)
	}
	return img, nil
}

// DecodeHDR decodes RGBE data with a "-Y h +X w" resolution line, flat or
// with adaptive run-length scanlines.
func DecodeHDR(r io.Reader) (*Image, error) {
	br := bufio.NewReader(r)

	magic, err := br.ReadString('\n')
	if err != nil || !(strings.HasPrefix(magic, "#?RADIANCE") || strings.HasPrefix(magic, "#?RGBE")) {
		return nil, ErrNotHDR
	}
	for {
		line, err := br.ReadString('\n')
		if err != nil {
			return nil, fmt.Errorf("hdr header: %w", err)
		}
		line = strings.TrimSpace(line)
		if line == "" {
			break
		}
		if format, ok := strings.CutPrefix(line, "FORMAT="); ok && format != "32-bit_rle_rgbe" {
			return nil, fmt.Errorf("hdr: unsupported format %q", format)
		}
	}

	res, err := br.ReadString('\n')
	if err != nil {
		return nil, fmt.Errorf("hdr resolution: %w", err)
	}
	var w, h int
	if _, err := fmt.Sscanf(strings.TrimSpace(res), "-Y %d +X %d", &h, &w); err != nil {
		return nil, fmt.Errorf("hdr: unsupported resolution line %q", strings.TrimSpace(res))
	}
	if w < 1 || h < 1 || w > MaxHDRSize || h > MaxHDRSize {
		return nil, fmt.Errorf("%w: %dx%d", ErrInvalidImage, w, h)
	}

	img := &Image{Width: w, Height: h, Pix: make([]float32, w*h*3)}
	scan := make([]byte, w*4)
	for y := range h {
		if err := readScanline(br, scan, w); err != nil {
			return nil, fmt.Errorf("hdr scanline %d: %w", y, err)
		}
		row := img.Pix[y*w*3 : (y+1)*w*3]
		for x := range w {
			row[x*3], row[x*3+1], row[x*3+2] = rgbe(scan[x*4 : x*4+4])
		}
	}
	return img, nil
}

// readScanline fills scan with w RGBE pixels.
func readScanline(br *bufio.Reader, scan []byte, w int) error {
	var head [4]byte
	if _, err := io.ReadFull(br, head[:]); err != nil {
		return err
	}
	if w < 8 || w > 0x7fff || head[0] != 2 || head[1] != 2 || head[2]&0x80 != 0 {
		copy(scan, head[:])
		_, err := io.ReadFull(br, scan[4:])
		return err
	}
	if int(head[2])<<8|int(head[3]) != w {
		return errors.New("run-length width mismatch")
	}

	// channels are stored one after another, each run-length encoded
	channel := make([]byte, w)
	for c := range 4 {
		for x := 0; x < w; {
			count, err := br.ReadByte()
			if err != nil {
				return err
			}
			if count > 128 {
				n := int(count - 128)
				if x+n > w {
					return errors.New("run overflows scanline")
				}
				v, err := br.ReadByte()
				if err != nil {
					return err
				}
				copy(channel[x:x+n], bytes.Repeat([]byte{v}, n))
				x += n
				continue
			}
			n := int(count)
			if n == 0 || x+n > w {
				return errors.New("bad literal run")
			}
			if _, err := io.ReadFull(br, channel[x:x+n]); err != nil {
				return err
			}
			x += n
		}
		for x := range w {
			scan[x*4+c] = channel[x]
		}
	}
	return nil
}

func rgbe(p []byte) (r, g, b float32) {
	if p[3] == 0 {
		return 0, 0, 0
	}
	f := math32.Ldexp(1, int(p[3])-(128+8))
	return float32(p[0]) * f, float32(p[1]) * f, float32(p[2]) * f
}
