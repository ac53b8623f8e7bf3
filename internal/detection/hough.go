package detection

import (
	"image"
	"math"
	"sort"
)

// verticalSegment is a near-vertical line segment recovered from an edge map,
// reduced to its x-intercept and vertical extent.
type verticalSegment struct {
	x      int
	top    int
	bottom int
	votes  int
}

// maxSegments caps the number of Hough peaks converted to segments; spines on
// a single shelf photograph rarely produce more boundaries than this.
const maxSegments = 128

// houghVerticalSegments runs a Hough transform over a binary edge map,
// restricted to lines within maxSkewDegrees of vertical. Books photographed
// spine-up have near-vertical boundaries, so the angular window both speeds
// up voting and rejects shelf boards and text baselines.
func houghVerticalSegments(edges *image.Gray, minLength, maxSkewDegrees int) []verticalSegment {
	bounds := edges.Bounds()
	width := bounds.Dx()
	height := bounds.Dy()
	if width == 0 || height == 0 || minLength <= 0 {
		return nil
	}

	// theta index t maps to angle (t - maxSkewDegrees) degrees from vertical.
	numAngles := 2*maxSkewDegrees + 1
	maxDist := int(math.Ceil(math.Sqrt(float64(width*width + height*height))))
	accumulator := make([][]int, 2*maxDist)
	for i := range accumulator {
		accumulator[i] = make([]int, numAngles)
	}

	sin := make([]float64, numAngles)
	cos := make([]float64, numAngles)
	for t := 0; t < numAngles; t++ {
		angle := float64(t-maxSkewDegrees) * math.Pi / 180.0
		sin[t] = math.Sin(angle)
		cos[t] = math.Cos(angle)
	}

	isEdge := func(x, y int) bool {
		return edges.Pix[edges.PixOffset(x+bounds.Min.X, y+bounds.Min.Y)] != 0
	}

	for y := 0; y < height; y++ {
		for x := 0; x < width; x++ {
			if !isEdge(x, y) {
				continue
			}
			for t := 0; t < numAngles; t++ {
				rho := float64(x)*cos[t] + float64(y)*sin[t]
				rhoIdx := int(math.Round(rho)) + maxDist
				if rhoIdx >= 0 && rhoIdx < 2*maxDist {
					accumulator[rhoIdx][t]++
				}
			}
		}
	}

	type peak struct {
		rhoIdx int
		theta  int
		votes  int
	}
	var peaks []peak
	for rhoIdx := 0; rhoIdx < 2*maxDist; rhoIdx++ {
		for t := 0; t < numAngles; t++ {
			votes := accumulator[rhoIdx][t]
			if votes < minLength {
				continue
			}
			isMax := true
			for dr := -2; dr <= 2 && isMax; dr++ {
				for dt := -2; dt <= 2 && isMax; dt++ {
					if dr == 0 && dt == 0 {
						continue
					}
					nr, nt := rhoIdx+dr, t+dt
					if nr < 0 || nr >= 2*maxDist || nt < 0 || nt >= numAngles {
						continue
					}
					if accumulator[nr][nt] > votes {
						isMax = false
					}
				}
			}
			if isMax {
				peaks = append(peaks, peak{rhoIdx, t, votes})
			}
		}
	}

	sort.Slice(peaks, func(i, j int) bool { return peaks[i].votes > peaks[j].votes })

	var segments []verticalSegment
	for _, p := range peaks {
		if len(segments) >= maxSegments {
			break
		}

		rho := float64(p.rhoIdx - maxDist)
		cosA, sinA := cos[p.theta], sin[p.theta]

		// Collect edge pixels on this line and derive the segment's vertical
		// extent and representative x-intercept.
		top, bottom := height, -1
		sumX, count := 0, 0
		for y := 0; y < height; y++ {
			for x := 0; x < width; x++ {
				if !isEdge(x, y) {
					continue
				}
				dist := math.Abs(float64(x)*cosA + float64(y)*sinA - rho)
				if dist >= 2.0 {
					continue
				}
				if y < top {
					top = y
				}
				if y > bottom {
					bottom = y
				}
				sumX += x
				count++
			}
		}
		if count == 0 || bottom-top < minLength {
			continue
		}

		segments = append(segments, verticalSegment{
			x:      sumX / count,
			top:    top,
			bottom: bottom,
			votes:  p.votes,
		})
	}

	sort.Slice(segments, func(i, j int) bool { return segments[i].x < segments[j].x })
	return segments
}
