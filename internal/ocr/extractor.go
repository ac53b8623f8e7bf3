// Package ocr extracts human-readable text from image regions. Two
// implementations share one contract: a local Tesseract engine and a remote
// OCR service.
package ocr

import (
	"image"
	"strings"
)

// TextExtractor extracts text fragments from images.
type TextExtractor interface {
	// Extract returns zero or more non-empty text fragments found in the
	// image. An empty slice means no legible text, not an error.
	Extract(img image.Image) ([]string, error)

	// Batch extracts text from every image. The result always has the same
	// length as the input and result[i] corresponds to images[i]; callers
	// re-pair regions with text by position.
	Batch(images []image.Image) ([][]string, error)
}

// splitFragments breaks raw OCR output into trimmed non-empty lines.
func splitFragments(text string) []string {
	fragments := make([]string, 0)
	for _, line := range strings.Split(text, "\n") {
		line = strings.TrimSpace(line)
		if line != "" {
			fragments = append(fragments, line)
		}
	}
	return fragments
}
