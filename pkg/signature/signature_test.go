package signature

import (
	"bytes"
	"image"
	"image/color"
	"image/png"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// gradientImage builds a smooth horizontal luminance gradient.
func gradientImage(w, h int) *image.Gray {
	img := image.NewGray(image.Rect(0, 0, w, h))
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			img.SetGray(x, y, color.Gray{Y: uint8(255 * x / w)})
		}
	}
	return img
}

// checkerboardImage builds a high contrast checkerboard.
func checkerboardImage(w, h, cell int) *image.Gray {
	img := image.NewGray(image.Rect(0, 0, w, h))
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			if ((x/cell)+(y/cell))%2 == 0 {
				img.SetGray(x, y, color.Gray{Y: 255})
			}
		}
	}
	return img
}

func encodePNG(t *testing.T, img image.Image) []byte {
	t.Helper()
	var buf bytes.Buffer
	require.NoError(t, png.Encode(&buf, img))
	return buf.Bytes()
}

func TestGenerateLength(t *testing.T) {
	gen := NewGenerator()
	sig := gen.GenerateImage(gradientImage(100, 100))

	assert.Len(t, sig, gen.Length())
	for _, v := range sig {
		assert.GreaterOrEqual(t, v, int8(-2))
		assert.LessOrEqual(t, v, int8(2))
	}
}

func TestGenerateFromBytes(t *testing.T) {
	gen := NewGenerator()
	data := encodePNG(t, checkerboardImage(80, 80, 10))

	sig, err := gen.Generate(data)
	require.NoError(t, err)
	assert.Len(t, sig, gen.Length())
}

func TestGenerateInvalidBytes(t *testing.T) {
	gen := NewGenerator()
	_, err := gen.Generate([]byte("definitely not an image"))
	assert.Error(t, err)
}

func TestGenerateFlatImage(t *testing.T) {
	gen := NewGenerator()
	img := image.NewGray(image.Rect(0, 0, 64, 64))
	sig := gen.GenerateImage(img)

	for _, v := range sig {
		assert.Equal(t, int8(0), v)
	}
}

func TestIdenticalImagesAreAtDistanceZero(t *testing.T) {
	gen := NewGenerator()
	a := gen.GenerateImage(gradientImage(100, 100))
	b := gen.GenerateImage(gradientImage(100, 100))

	assert.Equal(t, 0.0, NormalizedDistance(a, b))
}

func TestDistinctImagesAreApart(t *testing.T) {
	gen := NewGenerator()
	a := gen.GenerateImage(gradientImage(100, 100))
	b := gen.GenerateImage(checkerboardImage(100, 100, 10))

	dist := NormalizedDistance(a, b)
	assert.Greater(t, dist, 0.0)
	assert.LessOrEqual(t, dist, 1.0)
}

func TestOrientationsCoverRotatedCopies(t *testing.T) {
	gen := NewGenerator()
	original := Grayscale(checkerboardImage(90, 60, 15))
	stored := gen.GenerateGrey(original)

	// a rotated copy of the image is found by at least one query variant
	rotated := rotate90(original)
	best := 1.0
	for _, variant := range Orientations(rotated) {
		if d := NormalizedDistance(gen.GenerateGrey(variant), stored); d < best {
			best = d
		}
	}
	assert.Equal(t, 0.0, best)
}

func TestOrientationsCount(t *testing.T) {
	variants := Orientations(Grayscale(gradientImage(30, 20)))
	assert.Len(t, variants, 8)
}

func TestRotate90(t *testing.T) {
	grey := &GreyImage{Pix: []float64{1, 2, 3, 4, 5, 6}, W: 3, H: 2}
	rotated := rotate90(grey)

	assert.Equal(t, 2, rotated.W)
	assert.Equal(t, 3, rotated.H)
	// column 2 of the source becomes row 0 of the rotation
	assert.Equal(t, 3.0, rotated.At(0, 0))
	assert.Equal(t, 6.0, rotated.At(1, 0))
	assert.Equal(t, 1.0, rotated.At(0, 2))
}

func TestFlipHorizontal(t *testing.T) {
	grey := &GreyImage{Pix: []float64{1, 2, 3, 4, 5, 6}, W: 3, H: 2}
	flipped := flipHorizontal(grey)

	assert.Equal(t, 3.0, flipped.At(0, 0))
	assert.Equal(t, 1.0, flipped.At(2, 0))
	assert.Equal(t, 4.0, flipped.At(2, 1))
}

func TestQuantizeTolerance(t *testing.T) {
	diffs := []float64{0.001, -0.002, 0.5, -0.5}
	quantize(diffs, 2.0/255.0, 2)

	assert.Equal(t, 0.0, diffs[0])
	assert.Equal(t, 0.0, diffs[1])
	assert.Greater(t, diffs[2], 0.0)
	assert.Less(t, diffs[3], 0.0)
}

func TestQuantizeLevelsAreBalanced(t *testing.T) {
	diffs := []float64{0.1, 0.2, 0.3, 0.4, -0.1, -0.2, -0.3, -0.4}
	quantize(diffs, 0.01, 2)

	assert.Equal(t, []float64{1, 1, 2, 2, -1, -1, -2, -2}, diffs)
}

func TestQuantizeAllZero(t *testing.T) {
	diffs := []float64{0, 0, 0}
	quantize(diffs, 0.01, 2)
	assert.Equal(t, []float64{0, 0, 0}, diffs)
}
