package detection

import (
	"image"
	"sort"

	"go-shelf-scanner/internal/preprocess"
)

// CannyConfig tunes the classical edge-based detector. The zero value is not
// usable; start from DefaultCannyConfig.
type CannyConfig struct {
	// Equalize runs per-channel histogram equalization before edge detection.
	Equalize bool

	// MinLineFrac is the minimum vertical extent of a boundary line as a
	// fraction of the image height.
	MinLineFrac float64

	// MaxSkewDegrees is how far from vertical a boundary line may lean.
	MaxSkewDegrees int

	// MergeGapFrac merges boundary lines closer than this fraction of the
	// image width into a single boundary (their x positions are averaged).
	MergeGapFrac float64

	// MaxGapFrac is the widest slice, as a fraction of the image width, that
	// two consecutive boundaries may still form. Wider gaps are not spines.
	MaxGapFrac float64

	// MaxAreaFrac drops candidate regions covering more than this fraction
	// of the image area; such regions are background, not individual spines.
	MaxAreaFrac float64

	// UseLineExtent bounds each region by the union of its two boundary
	// lines' vertical extents instead of the full image height.
	UseLineExtent bool
}

// DefaultCannyConfig returns the tuning used in production.
func DefaultCannyConfig() CannyConfig {
	return CannyConfig{
		Equalize:       true,
		MinLineFrac:    0.25,
		MaxSkewDegrees: 15,
		MergeGapFrac:   0.02,
		MaxGapFrac:     0.25,
		MaxAreaFrac:    0.5,
	}
}

// CannyDetector finds spine regions with classical image processing: an
// auto-thresholded Canny edge map is dilated, near-vertical boundary lines
// are recovered with a Hough transform, and adjacent boundaries are paired
// into spine-width slices.
type CannyDetector struct {
	cfg CannyConfig
}

// NewCannyDetector creates a detector with the given configuration.
func NewCannyDetector(cfg CannyConfig) *CannyDetector {
	return &CannyDetector{cfg: cfg}
}

// boundary is a vertical split position, either recovered from a detected
// line or synthesized at an image border.
type boundary struct {
	x         int
	top       int
	bottom    int
	synthetic bool
}

// Detect implements BookDetector.
func (d *CannyDetector) Detect(img image.Image) []image.Rectangle {
	bounds := img.Bounds()
	width := bounds.Dx()
	height := bounds.Dy()
	if width == 0 || height == 0 {
		return nil
	}

	src := img
	if d.cfg.Equalize {
		src = preprocess.EqualizeColorHistogram(img)
	}
	edges := preprocess.AutoEdges(src)
	dilated := preprocess.Dilate(edges)

	minLength := int(d.cfg.MinLineFrac * float64(height))
	if minLength < 1 {
		minLength = 1
	}
	segments := houghVerticalSegments(dilated, minLength, d.cfg.MaxSkewDegrees)

	boundaries := d.mergeBoundaries(segments, width, height)

	maxGap := int(d.cfg.MaxGapFrac * float64(width))
	maxArea := d.cfg.MaxAreaFrac * float64(width*height)

	var regions []image.Rectangle
	for i := 0; i+1 < len(boundaries); i++ {
		left, right := boundaries[i], boundaries[i+1]
		sliceWidth := right.x - left.x
		if sliceWidth <= 0 || sliceWidth > maxGap {
			continue
		}

		top, bottom := 0, height
		if d.cfg.UseLineExtent && !left.synthetic && !right.synthetic {
			top = min(left.top, right.top)
			bottom = max(left.bottom, right.bottom)
		}

		candidate := image.Rect(
			bounds.Min.X+left.x, bounds.Min.Y+top,
			bounds.Min.X+right.x, bounds.Min.Y+bottom,
		)
		region, ok := clampRegion(candidate, bounds)
		if !ok {
			continue
		}
		if float64(region.Dx()*region.Dy()) > maxArea {
			continue
		}
		regions = append(regions, region)
	}
	return regions
}

// mergeBoundaries sorts segment x-intercepts, collapses clusters closer than
// the merge gap into one boundary at their average x, and adds synthetic
// boundaries at the image borders so edge-most spines are not lost.
func (d *CannyDetector) mergeBoundaries(segments []verticalSegment, width, height int) []boundary {
	mergeGap := int(d.cfg.MergeGapFrac * float64(width))
	if mergeGap < 1 {
		mergeGap = 1
	}

	var merged []boundary
	for i := 0; i < len(segments); {
		j := i + 1
		sumX := segments[i].x
		top, bottom := segments[i].top, segments[i].bottom
		for j < len(segments) && segments[j].x-segments[j-1].x <= mergeGap {
			sumX += segments[j].x
			top = min(top, segments[j].top)
			bottom = max(bottom, segments[j].bottom)
			j++
		}
		merged = append(merged, boundary{
			x:      sumX / (j - i),
			top:    top,
			bottom: bottom,
		})
		i = j
	}

	all := make([]boundary, 0, len(merged)+2)
	if len(merged) == 0 || merged[0].x > mergeGap {
		all = append(all, boundary{x: 0, bottom: height, synthetic: true})
	}
	all = append(all, merged...)
	if len(merged) == 0 || width-merged[len(merged)-1].x > mergeGap {
		all = append(all, boundary{x: width, bottom: height, synthetic: true})
	}

	sort.Slice(all, func(i, j int) bool { return all[i].x < all[j].x })
	return all
}
