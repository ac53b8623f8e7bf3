// Package detection produces candidate book-spine regions for a shelf
// photograph. Detectors are interchangeable strategies behind one contract.
package detection

import "image"

// BookDetector finds candidate spine regions in an image.
//
// Detect never fails for a well-formed non-empty image; an image with no
// detectable candidates yields an empty list. Returned rectangles are fully
// contained in the image bounds and never degenerate. Regions may overlap;
// no dedup guarantee is made.
type BookDetector interface {
	Detect(img image.Image) []image.Rectangle
}

// clampRegion intersects a candidate with the image bounds and reports
// whether the result is still a usable (non-degenerate) region.
func clampRegion(region, bounds image.Rectangle) (image.Rectangle, bool) {
	clamped := region.Intersect(bounds)
	if clamped.Dx() <= 0 || clamped.Dy() <= 0 {
		return image.Rectangle{}, false
	}
	return clamped, true
}
