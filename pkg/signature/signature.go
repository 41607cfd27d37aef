package signature

import (
	"bytes"
	"fmt"
	"image"
	"math"

	// Standard decoders
	_ "image/gif"
	_ "image/jpeg"
	_ "image/png"

	// Extended decoders
	_ "golang.org/x/image/bmp"
	_ "golang.org/x/image/tiff"
	_ "golang.org/x/image/webp"
)

// Signature is a quantized image signature. Each entry is a luminance
// differential between a grid point and one of its neighbors, quantized
// on the integer interval [-Levels, Levels].
type Signature []int8

// Generator computes image signatures using the Goldberg, Darst and Laird method
// ("Stretching the limits of image recognition"): an image is reduced to a square
// grid of luminance levels, and the signature is built from the quantized
// differentials between every grid point and its 8 neighbors.
type Generator struct {
	// GridSize is the number of grid points per side
	GridSize int
	// LowerPercentile and UpperPercentile bound the contrast-based crop window
	LowerPercentile float64
	UpperPercentile float64
	// IdenticalTolerance is the absolute luminance difference under which two
	// grid points are considered identical
	IdenticalTolerance float64
	// Levels is the number of positive (and negative) quantization levels
	Levels int
	// Window overrides the neighborhood side length used to average luminance
	// around each grid point. Zero means dynamic sizing from the image dimensions.
	Window int
}

// NewGenerator returns a Generator with the reference parameters: a 9x9 grid,
// a 5-95 percentile crop and 2 quantization levels per sign.
func NewGenerator() *Generator {
	return &Generator{
		GridSize:           9,
		LowerPercentile:    5,
		UpperPercentile:    95,
		IdenticalTolerance: 2.0 / 255.0,
		Levels:             2,
	}
}

// Length returns the length of the signatures produced by this generator.
func (g *Generator) Length() int {
	return g.GridSize * g.GridSize * 8
}

// Generate decodes raw image bytes and computes their signature.
func (g *Generator) Generate(data []byte) (Signature, error) {
	img, _, err := image.Decode(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("decode image: %w", err)
	}
	return g.GenerateImage(img), nil
}

// DecodeGrey decodes raw image bytes into a luminance matrix.
func DecodeGrey(data []byte) (*GreyImage, error) {
	img, _, err := image.Decode(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("decode image: %w", err)
	}
	return Grayscale(img), nil
}

// GenerateImage computes the signature of an already decoded image.
func (g *Generator) GenerateImage(img image.Image) Signature {
	return g.generate(Grayscale(img))
}

// GenerateGrey computes the signature of a luminance matrix. It is used when
// several signatures are derived from the same decoded image, for instance
// when searching all orientations.
func (g *Generator) GenerateGrey(grey *GreyImage) Signature {
	return g.generate(grey)
}

func (g *Generator) generate(grey *GreyImage) Signature {
	window := cropWindow(grey, g.LowerPercentile, g.UpperPercentile)
	xs, ys := gridPoints(window, g.GridSize)
	levels := meanLevels(grey, xs, ys, g.Window)
	diffs := differentials(levels)
	quantize(diffs, g.IdenticalTolerance, g.Levels)

	sig := make(Signature, len(diffs))
	for i, d := range diffs {
		sig[i] = int8(d)
	}
	return sig
}

// GreyImage is a dense float64 luminance matrix with values in [0, 1].
type GreyImage struct {
	Pix  []float64
	W, H int
}

// At returns the luminance at column x, row y.
func (g *GreyImage) At(x, y int) float64 { return g.Pix[y*g.W+x] }

// Set writes the luminance at column x, row y.
func (g *GreyImage) Set(x, y int, v float64) { g.Pix[y*g.W+x] = v }

// Grayscale converts an image to a luminance matrix using the ITU-R 709 weights.
func Grayscale(img image.Image) *GreyImage {
	b := img.Bounds()
	grey := &GreyImage{
		Pix: make([]float64, b.Dx()*b.Dy()),
		W:   b.Dx(),
		H:   b.Dy(),
	}
	for y := b.Min.Y; y < b.Max.Y; y++ {
		for x := b.Min.X; x < b.Max.X; x++ {
			r, gc, bc, _ := img.At(x, y).RGBA()
			v := 0.2125*float64(r) + 0.7154*float64(gc) + 0.0721*float64(bc)
			grey.Set(x-b.Min.X, y-b.Min.Y, v/65535.0)
		}
	}
	return grey
}

// window is a crop rectangle expressed as half-open row and column intervals.
type window struct {
	rowLo, rowHi int
	colLo, colHi int
}

// cropWindow bounds the image to the region holding most of its contrast.
// The cumulative absolute luminance derivative is computed along each axis and
// the rows (resp. columns) outside the given percentiles of that cumulative
// mass are discarded. Flat images fall back to a fixed relative crop.
func cropWindow(grey *GreyImage, lowerPercentile, upperPercentile float64) window {
	// cumulative row-wise differential mass
	rw := make([]float64, grey.H)
	acc := 0.0
	for y := 0; y < grey.H; y++ {
		for x := 0; x+1 < grey.W; x++ {
			acc += math.Abs(grey.At(x+1, y) - grey.At(x, y))
		}
		rw[y] = acc
	}

	// cumulative column-wise differential mass
	cw := make([]float64, grey.W)
	acc = 0.0
	for x := 0; x < grey.W; x++ {
		for y := 0; y+1 < grey.H; y++ {
			acc += math.Abs(grey.At(x, y+1) - grey.At(x, y))
		}
		cw[x] = acc
	}

	rowLo := searchSortedRight(rw, percentile(rw, lowerPercentile))
	rowHi := searchSortedLeft(rw, percentile(rw, upperPercentile))
	colLo := searchSortedRight(cw, percentile(cw, lowerPercentile))
	colHi := searchSortedLeft(cw, percentile(cw, upperPercentile))

	if rowLo >= rowHi {
		rowLo = int(float64(grey.H) * lowerPercentile / 100)
		rowHi = int(float64(grey.H) * upperPercentile / 100)
	}
	if colLo >= colHi {
		colLo = int(float64(grey.W) * lowerPercentile / 100)
		colHi = int(float64(grey.W) * upperPercentile / 100)
	}

	return window{rowLo: rowLo, rowHi: rowHi, colLo: colLo, colHi: colHi}
}

// gridPoints spreads n points evenly inside the crop window, excluding its edges.
func gridPoints(w window, n int) (xs, ys []int) {
	xs = linspaceInterior(w.colLo, w.colHi, n)
	ys = linspaceInterior(w.rowLo, w.rowHi, n)
	return xs, ys
}

// linspaceInterior returns the n interior points of an (n+2)-point linear
// spacing between lo and hi inclusive.
func linspaceInterior(lo, hi, n int) []int {
	pts := make([]int, n)
	step := float64(hi-lo) / float64(n+1)
	for i := 0; i < n; i++ {
		pts[i] = lo + int(step*float64(i+1))
	}
	return pts
}

// meanLevels averages the luminance of a square neighborhood around each grid
// point. A zero window size selects max(2, min(w,h)/20) as the side length.
func meanLevels(grey *GreyImage, xs, ys []int, windowSize int) []float64 {
	p := windowSize
	if p <= 0 {
		minDim := grey.W
		if grey.H < minDim {
			minDim = grey.H
		}
		p = int(0.5 + float64(minDim)/20.0)
		if p < 2 {
			p = 2
		}
	}

	n := len(xs)
	levels := make([]float64, n*n)
	for j, y := range ys {
		yLo := y - p/2
		if yLo < 0 {
			yLo = 0
		}
		yHi := yLo + p
		if yHi > grey.H {
			yHi = grey.H
		}
		for i, x := range xs {
			xLo := x - p/2
			if xLo < 0 {
				xLo = 0
			}
			xHi := xLo + p
			if xHi > grey.W {
				xHi = grey.W
			}
			sum := 0.0
			count := 0
			for yy := yLo; yy < yHi; yy++ {
				for xx := xLo; xx < xHi; xx++ {
					sum += grey.At(xx, yy)
					count++
				}
			}
			if count > 0 {
				levels[j*n+i] = sum / float64(count)
			}
		}
	}
	return levels
}

// neighborOffsets enumerates the 8 neighbors of a grid point, row-major from
// the upper-left corner. The order is part of the signature format.
var neighborOffsets = [8][2]int{
	{-1, -1}, {0, -1}, {1, -1},
	{-1, 0}, {1, 0},
	{-1, 1}, {0, 1}, {1, 1},
}

// differentials computes, for every grid point, the luminance difference with
// each of its 8 neighbors. Out-of-grid neighbors yield a zero difference.
func differentials(levels []float64) []float64 {
	n := int(math.Sqrt(float64(len(levels))))
	diffs := make([]float64, n*n*8)
	for y := 0; y < n; y++ {
		for x := 0; x < n; x++ {
			center := levels[y*n+x]
			base := (y*n + x) * 8
			for k, off := range neighborOffsets {
				nx, ny := x+off[0], y+off[1]
				if nx < 0 || nx >= n || ny < 0 || ny >= n {
					continue
				}
				diffs[base+k] = levels[ny*n+nx] - center
			}
		}
	}
	return diffs
}

// quantize rewrites differentials in place as integer levels. Differences under
// the tolerance collapse to zero; the remaining positive (resp. negative) values
// are split into `levels` equal-population bins.
func quantize(diffs []float64, tolerance float64, levels int) {
	for i, d := range diffs {
		if math.Abs(d) < tolerance {
			diffs[i] = 0
		}
	}

	var positives, negatives []float64
	for _, d := range diffs {
		if d > 0 {
			positives = append(positives, d)
		} else if d < 0 {
			negatives = append(negatives, d)
		}
	}
	if len(positives) == 0 && len(negatives) == 0 {
		return
	}

	posCuts := make([]float64, levels+1)
	for i := range posCuts {
		posCuts[i] = percentileUnsorted(positives, 100*float64(i)/float64(levels))
	}
	negCuts := make([]float64, levels+1)
	for i := range negCuts {
		negCuts[i] = percentileUnsorted(negatives, 100*float64(levels-i)/float64(levels))
	}

	for i, d := range diffs {
		switch {
		case d > 0:
			diffs[i] = float64(binFor(posCuts, d, levels))
		case d < 0:
			diffs[i] = -float64(binFor(reverseCuts(negCuts), -d, levels))
		}
	}
}

// binFor maps a positive value onto its 1-based quantization level given
// ascending cut points.
func binFor(cuts []float64, v float64, levels int) int {
	for level := 1; level <= levels; level++ {
		if v <= cuts[level] {
			return level
		}
	}
	return levels
}

// reverseCuts mirrors descending negative cut points into ascending magnitudes.
func reverseCuts(cuts []float64) []float64 {
	out := make([]float64, len(cuts))
	for i, c := range cuts {
		out[i] = -c
	}
	return out
}
