package catalogue

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"
)

// googleMaxResults is the largest page size the Books API accepts.
const googleMaxResults = 40

// GoogleBooksClient implements Client against the Google Books volumes API.
type GoogleBooksClient struct {
	baseURL string
	apiKey  string
	client  *http.Client
}

// NewGoogleBooksClient creates a client for the Books API at baseURL
// (normally "https://www.googleapis.com/books/v1"). The API key is optional
// for low request volumes.
func NewGoogleBooksClient(baseURL, apiKey string) *GoogleBooksClient {
	return &GoogleBooksClient{
		baseURL: strings.TrimRight(baseURL, "/"),
		apiKey:  apiKey,
		client: &http.Client{
			Timeout: 15 * time.Second,
		},
	}
}

type volumesResponse struct {
	TotalItems int      `json:"totalItems"`
	Items      []volume `json:"items"`
}

type volume struct {
	ID         string `json:"id"`
	VolumeInfo struct {
		Title               string   `json:"title"`
		Subtitle            string   `json:"subtitle"`
		Authors             []string `json:"authors"`
		Publisher           string   `json:"publisher"`
		PublishedDate       string   `json:"publishedDate"`
		Categories          []string `json:"categories"`
		IndustryIdentifiers []struct {
			Type       string `json:"type"`
			Identifier string `json:"identifier"`
		} `json:"industryIdentifiers"`
	} `json:"volumeInfo"`
}

// Query implements Client.
func (g *GoogleBooksClient) Query(ctx context.Context, keywords string, max int) ([]Book, error) {
	// The Books API fails on an empty query, so guard before the round-trip.
	if strings.TrimSpace(keywords) == "" {
		return []Book{}, nil
	}
	if max > googleMaxResults {
		max = googleMaxResults
	}

	params := url.Values{}
	params.Set("q", keywords)
	params.Set("maxResults", fmt.Sprintf("%d", max))
	if g.apiKey != "" {
		params.Set("key", g.apiKey)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, g.baseURL+"/volumes?"+params.Encode(), nil)
	if err != nil {
		return nil, fmt.Errorf("invalid catalogue request: %w", err)
	}

	resp, err := g.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("catalogue request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("catalogue returned status %d", resp.StatusCode)
	}

	var body volumesResponse
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		return nil, fmt.Errorf("failed to decode catalogue response: %w", err)
	}

	// The items field is omitted entirely when nothing matches.
	if body.TotalItems == 0 || body.Items == nil {
		return []Book{}, nil
	}

	books := make([]Book, 0, len(body.Items))
	for _, item := range body.Items {
		if book, ok := mapVolume(item); ok {
			books = append(books, book)
		}
	}
	return books, nil
}

// QueryTitleAuthor implements Client using the API's field-scoped operators.
func (g *GoogleBooksClient) QueryTitleAuthor(ctx context.Context, title, author string, max int) ([]Book, error) {
	if strings.TrimSpace(title) == "" && strings.TrimSpace(author) == "" {
		return []Book{}, nil
	}
	return g.Query(ctx, fmt.Sprintf("intitle:%s inauthor:%s", title, author), max)
}

// mapVolume converts an API volume to a Book. Volumes without a title are
// unusable for spine matching and are skipped.
func mapVolume(v volume) (Book, bool) {
	info := v.VolumeInfo
	if info.Title == "" {
		return Book{}, false
	}

	identifiers := make([]string, 0, len(info.IndustryIdentifiers)+1)
	for _, id := range info.IndustryIdentifiers {
		if id.Identifier != "" {
			identifiers = append(identifiers, id.Identifier)
		}
	}
	// Keep the volume id so records without ISBNs still have an identity.
	identifiers = append(identifiers, v.ID)

	return Book{
		Identifiers: identifiers,
		Title:       info.Title,
		Subtitle:    info.Subtitle,
		Authors:     info.Authors,
		Publisher:   info.Publisher,
		PublishedAt: info.PublishedDate,
		Categories:  info.Categories,
	}, true
}
