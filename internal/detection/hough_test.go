package detection

import (
	"image"
	"image/color"
	"testing"
)

// drawVerticalLine paints a 1px wide edge column from yTop to yBottom.
func drawVerticalLine(edges *image.Gray, x, yTop, yBottom int) {
	for y := yTop; y <= yBottom; y++ {
		edges.SetGray(x, y, color.Gray{Y: 255})
	}
}

func TestHoughVerticalSegments_FindsLines(t *testing.T) {
	edges := image.NewGray(image.Rect(0, 0, 200, 200))
	drawVerticalLine(edges, 50, 10, 190)
	drawVerticalLine(edges, 150, 10, 190)

	segments := houghVerticalSegments(edges, 50, 15)
	if len(segments) == 0 {
		t.Fatal("Expected segments for two vertical lines, got none")
	}

	// Every segment must sit near one of the drawn lines.
	foundLeft, foundRight := false, false
	for _, s := range segments {
		switch {
		case abs(s.x-50) <= 3:
			foundLeft = true
		case abs(s.x-150) <= 3:
			foundRight = true
		default:
			t.Errorf("Unexpected segment at x=%d", s.x)
		}
		if s.bottom-s.top < 50 {
			t.Errorf("Expected segment extent >= 50, got %d", s.bottom-s.top)
		}
	}
	if !foundLeft || !foundRight {
		t.Errorf("Expected segments near x=50 and x=150 (left=%v, right=%v)", foundLeft, foundRight)
	}

	// Segments come back sorted by x.
	for i := 1; i < len(segments); i++ {
		if segments[i].x < segments[i-1].x {
			t.Errorf("Expected segments sorted by x, got %d before %d", segments[i-1].x, segments[i].x)
		}
	}
}

func TestHoughVerticalSegments_IgnoresShortLines(t *testing.T) {
	edges := image.NewGray(image.Rect(0, 0, 100, 100))
	drawVerticalLine(edges, 40, 45, 55) // 11px, well below minLength

	segments := houghVerticalSegments(edges, 50, 15)
	if len(segments) != 0 {
		t.Errorf("Expected no segments for a short line, got %d", len(segments))
	}
}

func TestHoughVerticalSegments_IgnoresHorizontalLines(t *testing.T) {
	// A shelf board: strong horizontal line, far outside the angular window.
	edges := image.NewGray(image.Rect(0, 0, 200, 200))
	for x := 0; x < 200; x++ {
		edges.SetGray(x, 100, color.Gray{Y: 255})
	}

	segments := houghVerticalSegments(edges, 50, 15)
	if len(segments) != 0 {
		t.Errorf("Expected no segments for a horizontal line, got %d", len(segments))
	}
}

func TestHoughVerticalSegments_EmptyEdgeMap(t *testing.T) {
	edges := image.NewGray(image.Rect(0, 0, 100, 100))
	if segments := houghVerticalSegments(edges, 25, 15); len(segments) != 0 {
		t.Errorf("Expected no segments for an empty edge map, got %d", len(segments))
	}
}

func abs(v int) int {
	if v < 0 {
		return -v
	}
	return v
}
