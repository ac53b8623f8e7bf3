package match

import (
	"testing"

	"go-shelf-scanner/internal/catalogue"
)

func book(title string, authors ...string) catalogue.Book {
	return catalogue.Book{Title: title, Authors: authors}
}

func TestScore(t *testing.T) {
	tests := []struct {
		name      string
		extracted string
		book      catalogue.Book
		expect    func(float64) bool
	}{
		{
			name:      "Exact match",
			extracted: "The Hobbit J R R Tolkien",
			book:      book("The Hobbit", "J R R Tolkien"),
			expect:    func(s float64) bool { return s == 1 },
		},
		{
			name:      "Case and spacing ignored",
			extracted: "  the   HOBBIT j r r tolkien ",
			book:      book("The Hobbit", "J R R Tolkien"),
			expect:    func(s float64) bool { return s == 1 },
		},
		{
			name:      "OCR noise scores below exact",
			extracted: "The Hobb1t J R R Tolk1en",
			book:      book("The Hobbit", "J R R Tolkien"),
			expect:    func(s float64) bool { return s > 0.8 && s < 1 },
		},
		{
			name:      "Unrelated text scores low",
			extracted: "Introduction to Algorithms",
			book:      book("The Hobbit", "J R R Tolkien"),
			expect:    func(s float64) bool { return s < 0.5 },
		},
		{
			name:      "No authors uses title only",
			extracted: "Beowulf",
			book:      book("Beowulf"),
			expect:    func(s float64) bool { return s == 1 },
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			score := Score(tt.extracted, tt.book)
			if score < 0 || score > 1 {
				t.Fatalf("Expected score in [0, 1], got %g", score)
			}
			if !tt.expect(score) {
				t.Errorf("Unexpected score %g", score)
			}
		})
	}
}

func TestRank(t *testing.T) {
	books := []catalogue.Book{
		book("Introduction to Algorithms", "Thomas Cormen"),
		book("The Hobbit", "J R R Tolkien"),
		book("The Hobbit or There and Back Again", "J R R Tolkien"),
	}

	ranked := Rank("The Hobbit J R R Tolkien", books)
	if len(ranked) != len(books) {
		t.Fatalf("Expected %d books, got %d", len(books), len(ranked))
	}
	if ranked[0].Title != "The Hobbit" {
		t.Errorf("Expected exact title first, got %q", ranked[0].Title)
	}
	if ranked[len(ranked)-1].Title != "Introduction to Algorithms" {
		t.Errorf("Expected unrelated title last, got %q", ranked[len(ranked)-1].Title)
	}
}

func TestRank_DoesNotMutateInput(t *testing.T) {
	books := []catalogue.Book{
		book("Zebra"),
		book("The Hobbit"),
	}

	Rank("The Hobbit", books)
	if books[0].Title != "Zebra" {
		t.Error("Expected input slice order to be preserved")
	}
}

func TestRank_Empty(t *testing.T) {
	if got := Rank("anything", nil); len(got) != 0 {
		t.Errorf("Expected empty result, got %v", got)
	}
}
