// Package catalogue queries external book catalogues to resolve extracted
// spine text to bibliographic records.
package catalogue

import "context"

// Book is a catalogue record for a single publication. Identity for equality
// is the identifier set; everything else is presentation metadata.
type Book struct {
	Identifiers []string `json:"identifiers"`
	Title       string   `json:"title"`
	Subtitle    string   `json:"subtitle,omitempty"`
	Authors     []string `json:"authors"`
	Publisher   string   `json:"publisher,omitempty"`
	PublishedAt string   `json:"published_at,omitempty"`
	Categories  []string `json:"categories,omitempty"`
}

// Client is a book catalogue. Results are sorted by relevance and never
// exceed max entries.
type Client interface {
	// Query searches by space-separated keywords using the catalogue's fuzzy
	// matching. Blank keywords yield an empty result without a network call;
	// some catalogue backends error on empty queries.
	Query(ctx context.Context, keywords string, max int) ([]Book, error)

	// QueryTitleAuthor searches by title and author keywords.
	QueryTitleAuthor(ctx context.Context, title, author string, max int) ([]Book, error)
}
