// Package match scores catalogue records against OCR output. OCR text from
// book spines is noisy, so candidates are ranked by edit distance rather than
// exact comparison.
package match

import (
	"sort"
	"strings"

	"github.com/arbovm/levenshtein"

	"go-shelf-scanner/internal/catalogue"
)

// Score returns the similarity between extracted spine text and a catalogue
// record in [0, 1], where 1 is an exact normalized match. The record side is
// the title plus the first author, which is what typically appears on a spine.
func Score(extracted string, book catalogue.Book) float64 {
	candidate := book.Title
	if len(book.Authors) > 0 {
		candidate += " " + book.Authors[0]
	}
	return similarity(normalize(extracted), normalize(candidate))
}

// Rank sorts books by descending Score against the extracted text. The sort
// is stable, so the catalogue's own relevance order breaks ties.
func Rank(extracted string, books []catalogue.Book) []catalogue.Book {
	ranked := make([]catalogue.Book, len(books))
	copy(ranked, books)
	sort.SliceStable(ranked, func(i, j int) bool {
		return Score(extracted, ranked[i]) > Score(extracted, ranked[j])
	})
	return ranked
}

func similarity(a, b string) float64 {
	if a == "" && b == "" {
		return 1
	}
	longest := max(len(a), len(b))
	if longest == 0 {
		return 1
	}
	distance := levenshtein.Distance(a, b)
	return 1 - float64(distance)/float64(longest)
}

// normalize lowercases and collapses runs of whitespace so layout artifacts
// from OCR line splitting do not count as edits.
func normalize(s string) string {
	return strings.Join(strings.Fields(strings.ToLower(s)), " ")
}
