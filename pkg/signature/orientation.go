package signature

// Orientations returns the luminance matrices of the 8 dihedral transforms of
// an image: the four 90 degree rotations, each optionally mirrored. Searching
// all of them makes lookups robust to rotated or flipped copies.
func Orientations(grey *GreyImage) []*GreyImage {
	variants := make([]*GreyImage, 0, 8)
	current := grey
	for i := 0; i < 4; i++ {
		variants = append(variants, current, flipHorizontal(current))
		current = rotate90(current)
	}
	return variants
}

// rotate90 rotates a luminance matrix a quarter turn counter-clockwise.
func rotate90(grey *GreyImage) *GreyImage {
	out := &GreyImage{
		Pix: make([]float64, len(grey.Pix)),
		W:   grey.H,
		H:   grey.W,
	}
	for y := 0; y < grey.H; y++ {
		for x := 0; x < grey.W; x++ {
			out.Set(y, grey.W-1-x, grey.At(x, y))
		}
	}
	return out
}

// flipHorizontal mirrors a luminance matrix around its vertical axis.
func flipHorizontal(grey *GreyImage) *GreyImage {
	out := &GreyImage{
		Pix: make([]float64, len(grey.Pix)),
		W:   grey.W,
		H:   grey.H,
	}
	for y := 0; y < grey.H; y++ {
		for x := 0; x < grey.W; x++ {
			out.Set(grey.W-1-x, y, grey.At(x, y))
		}
	}
	return out
}
