package assets

import (
	"bytes"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func hdrHeader(w, h int) []byte {
	return []byte("#?RADIANCE\nFORMAT=32-bit_rle_rgbe\nEXPOSURE=1.0\n\n-Y " +
		strconv.Itoa(h) + " +X " + strconv.Itoa(w) + "\n")
}

func TestDecodeHDRFlat(t *testing.T) {
	data := append(hdrHeader(2, 1), 128, 64, 32, 129, 0, 0, 0, 0)
	img, err := DecodeHDR(bytes.NewReader(data))
	require.NoError(t, err)
	require.NoError(t, img.Validate())
	assert.Equal(t, 2, img.Width)
	assert.Equal(t, 1, img.Height)

	r, g, b := img.At(0, 0)
	assert.Equal(t, []float32{1, 0.5, 0.25}, []float32{r, g, b})
	r, g, b = img.At(1, 0)
	assert.Equal(t, []float32{0, 0, 0}, []float32{r, g, b})
}

func TestDecodeHDRRunLength(t *testing.T) {
	const w = 8
	data := hdrHeader(w, 2)
	// row 0: every channel as one run
	data = append(data, 2, 2, 0, w)
	for _, v := range []byte{128, 64, 32, 129} {
		data = append(data, 128+w, v)
	}
	// row 1: literal red ramp, runs for the rest
	data = append(data, 2, 2, 0, w, w)
	for x := range w {
		data = append(data, byte(x*16))
	}
	data = append(data, 128+w, 0, 128+w, 0, 128+w, 136)

	img, err := DecodeHDR(bytes.NewReader(data))
	require.NoError(t, err)
	for x := range w {
		r, g, b := img.At(x, 0)
		assert.Equal(t, []float32{1, 0.5, 0.25}, []float32{r, g, b}, "x=%d", x)
	}
	// exponent 136 scales by 1
	r, _, _ := img.At(3, 1)
	assert.Equal(t, float32(48), r)
}

func TestDecodeHDRErrors(t *testing.T) {
	_, err := DecodeHDR(strings.NewReader("P6\n1 1\n255\n"))
	assert.ErrorIs(t, err, ErrNotHDR)

	_, err = DecodeHDR(strings.NewReader("#?RADIANCE\nFORMAT=32-bit_rle_xyze\n\n-Y 1 +X 1\n"))
	assert.ErrorContains(t, err, "unsupported format")

	_, err = DecodeHDR(strings.NewReader("#?RADIANCE\n\n+X 1 -Y 1\n"))
	assert.ErrorContains(t, err, "resolution")

	// truncated pixel data
	_, err = DecodeHDR(bytes.NewReader(append(hdrHeader(2, 2), 1, 2, 3)))
	assert.Error(t, err)
}

func TestDecodeHDRRejectsHugeSize(t *testing.T) {
	for _, size := range [][2]int{{MaxHDRSize + 1, 1}, {1, MaxHDRSize + 1}, {1 << 30, 1 << 30}} {
		_, err := DecodeHDR(bytes.NewReader(hdrHeader(size[0], size[1])))
		assert.ErrorIs(t, err, ErrInvalidImage, "%dx%d", size[0], size[1])
	}
}

func TestLoadHDR(t *testing.T) {
	path := filepath.Join(t.TempDir(), "sky.hdr")
	require.NoError(t, os.WriteFile(path, append(hdrHeader(1, 1), 128, 128, 128, 128), 0o644))

	img, err := LoadHDR(path)
	require.NoError(t, err)
	r, g, b := img.At(0, 0)
	assert.InDelta(t, 0.5, r, 1e-6)
	assert.Equal(t, r, g)
	assert.Equal(t, g, b)

	_, err = LoadHDR(filepath.Join(t.TempDir(), "missing.hdr"))
	assert.ErrorIs(t, err, os.ErrNotExist)
}

func TestImageValidate(t *testing.T) {
	var nilImg *Image
	assert.ErrorIs(t, nilImg.Validate(), ErrInvalidImage)
	assert.ErrorIs(t, (&Image{Width: 2, Height: 2, Pix: make([]float32, 3)}).Validate(), ErrInvalidImage)
	assert.NoError(t, NewUniform(4, 2, 1, 1, 1).Validate())
}
