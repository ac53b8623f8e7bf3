// Package preprocess normalizes raw shelf photographs for region detection.
// All functions operate on private copies and never mutate the caller's image.
package preprocess

import (
	"image"
	"image/draw"

	"github.com/anthonynsimon/bild/effect"
	"github.com/disintegration/imaging"
)

// sigma controls how far the hysteresis thresholds spread around the median
// intensity in AutoEdges. 0.33 is the classic auto-Canny constant.
const sigma = 0.33

// EqualizeColorHistogram applies per-channel histogram equalization to
// normalize exposure and contrast. The input is cloned; the caller's image is
// left untouched. Always succeeds for any non-empty image.
func EqualizeColorHistogram(img image.Image) *image.NRGBA {
	clone := imaging.Clone(img)
	for c := 0; c < 3; c++ {
		equalizeChannel(clone.Pix, c)
	}
	return clone
}

// equalizeChannel equalizes one channel of an NRGBA pixel buffer in place.
func equalizeChannel(pix []uint8, offset int) {
	var hist [256]int
	n := 0
	for i := offset; i < len(pix); i += 4 {
		hist[pix[i]]++
		n++
	}
	if n == 0 {
		return
	}

	var cdf [256]int
	sum := 0
	for i := 0; i < 256; i++ {
		sum += hist[i]
		cdf[i] = sum
	}
	cdfMin := 0
	for i := 0; i < 256; i++ {
		if hist[i] > 0 {
			cdfMin = cdf[i]
			break
		}
	}

	var lut [256]uint8
	denom := n - cdfMin
	if denom <= 0 {
		// Single-valued channel: equalization is the identity.
		for i := range lut {
			lut[i] = uint8(i)
		}
	} else {
		for i := 0; i < 256; i++ {
			lut[i] = uint8((cdf[i] - cdfMin) * 255 / denom)
		}
	}

	for i := offset; i < len(pix); i += 4 {
		pix[i] = lut[pix[i]]
	}
}

// Median returns the median value of the flattened pixel intensities. For
// multi-channel images the first channel is used.
func Median(img image.Image) int {
	bounds := img.Bounds()
	var hist [256]int

	if gray, ok := img.(*image.Gray); ok {
		for y := bounds.Min.Y; y < bounds.Max.Y; y++ {
			offset := gray.PixOffset(bounds.Min.X, y)
			for x := 0; x < bounds.Dx(); x++ {
				hist[gray.Pix[offset+x]]++
			}
		}
	} else {
		for y := bounds.Min.Y; y < bounds.Max.Y; y++ {
			for x := bounds.Min.X; x < bounds.Max.X; x++ {
				r, _, _, _ := img.At(x, y).RGBA()
				hist[r>>8]++
			}
		}
	}

	half := bounds.Dx() * bounds.Dy() / 2
	cumulative := 0
	for value := 0; value < 256; value++ {
		count := hist[value]
		if cumulative <= half && cumulative+count >= half {
			return value
		}
		cumulative += count
	}
	return 0
}

// AutoEdges computes a binary edge map using hysteresis thresholds derived
// from the image's own median intensity instead of fixed constants:
//
//	lower = max(0, (1-sigma)*median)
//	upper = min(255, (1+sigma)*median)
//
// A fixed threshold pair fails across lighting conditions; anchoring the pair
// to the intensity distribution keeps the detector stable under exposure
// variation. Output pixels are 255 on edges and 0 elsewhere. The function is
// pure: identical input yields identical output.
func AutoEdges(img image.Image) *image.Gray {
	gray := ToGray(img)
	median := float64(Median(gray))

	lower := (1.0 - sigma) * median
	if lower < 0 {
		lower = 0
	}
	upper := (1.0 + sigma) * median
	if upper > 255 {
		upper = 255
	}

	return Canny(gray, lower, upper)
}

// Dilate grows the white regions of a binary edge map by one pixel, closing
// small gaps between edge fragments before segmentation.
func Dilate(edges *image.Gray) *image.Gray {
	dilated := effect.Dilate(edges, 1)
	bounds := dilated.Bounds()
	out := image.NewGray(bounds)
	draw.Draw(out, bounds, dilated, bounds.Min, draw.Src)
	for i, v := range out.Pix {
		if v >= 128 {
			out.Pix[i] = 255
		} else {
			out.Pix[i] = 0
		}
	}
	return out
}

// ToGray converts an image to grayscale. A *image.Gray input is returned
// as-is, so callers must treat the result as read-only.
func ToGray(img image.Image) *image.Gray {
	if gray, ok := img.(*image.Gray); ok {
		return gray
	}
	bounds := img.Bounds()
	gray := image.NewGray(bounds)
	draw.Draw(gray, bounds, img, bounds.Min, draw.Src)
	return gray
}
