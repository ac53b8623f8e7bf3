package catalogue

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
)

const volumesFixture = `{
	"totalItems": 2,
	"items": [
		{
			"id": "vol-1",
			"volumeInfo": {
				"title": "The Go Programming Language",
				"authors": ["Alan Donovan", "Brian Kernighan"],
				"publisher": "Addison-Wesley",
				"publishedDate": "2015",
				"industryIdentifiers": [
					{"type": "ISBN_13", "identifier": "9780134190440"}
				]
			}
		},
		{
			"id": "vol-2",
			"volumeInfo": {
				"authors": ["Anonymous"]
			}
		}
	]
}`

func TestGoogleBooksClient_Query(t *testing.T) {
	var gotQuery, gotMax string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotQuery = r.URL.Query().Get("q")
		gotMax = r.URL.Query().Get("maxResults")
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(volumesFixture))
	}))
	defer server.Close()

	client := NewGoogleBooksClient(server.URL, "")
	books, err := client.Query(context.Background(), "go programming", 5)
	if err != nil {
		t.Fatalf("Expected no error, got %v", err)
	}

	if gotQuery != "go programming" {
		t.Errorf("Expected query 'go programming', got %q", gotQuery)
	}
	if gotMax != "5" {
		t.Errorf("Expected maxResults 5, got %q", gotMax)
	}

	// The untitled volume is dropped.
	if len(books) != 1 {
		t.Fatalf("Expected 1 book, got %d", len(books))
	}
	book := books[0]
	if book.Title != "The Go Programming Language" {
		t.Errorf("Expected title to be mapped, got %q", book.Title)
	}
	if len(book.Authors) != 2 {
		t.Errorf("Expected 2 authors, got %v", book.Authors)
	}
	if len(book.Identifiers) != 2 || book.Identifiers[0] != "9780134190440" || book.Identifiers[1] != "vol-1" {
		t.Errorf("Expected ISBN plus volume id, got %v", book.Identifiers)
	}
}

func TestGoogleBooksClient_BlankQuery(t *testing.T) {
	requested := false
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		requested = true
	}))
	defer server.Close()

	client := NewGoogleBooksClient(server.URL, "")
	for _, keywords := range []string{"", "   ", "\t\n"} {
		books, err := client.Query(context.Background(), keywords, 5)
		if err != nil {
			t.Fatalf("Expected no error for blank keywords %q, got %v", keywords, err)
		}
		if len(books) != 0 {
			t.Errorf("Expected no books for blank keywords %q, got %d", keywords, len(books))
		}
	}
	if requested {
		t.Error("Expected no network call for blank keywords")
	}
}

func TestGoogleBooksClient_CapsMaxResults(t *testing.T) {
	var gotMax string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotMax = r.URL.Query().Get("maxResults")
		w.Write([]byte(`{"totalItems": 0}`))
	}))
	defer server.Close()

	client := NewGoogleBooksClient(server.URL, "")
	if _, err := client.Query(context.Background(), "anything", 500); err != nil {
		t.Fatalf("Expected no error, got %v", err)
	}
	if gotMax != "40" {
		t.Errorf("Expected maxResults capped at 40, got %q", gotMax)
	}
}

func TestGoogleBooksClient_NoItems(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		// The API omits "items" entirely when nothing matched.
		w.Write([]byte(`{"totalItems": 0}`))
	}))
	defer server.Close()

	client := NewGoogleBooksClient(server.URL, "")
	books, err := client.Query(context.Background(), "zxqj", 5)
	if err != nil {
		t.Fatalf("Expected no error, got %v", err)
	}
	if len(books) != 0 {
		t.Errorf("Expected no books, got %d", len(books))
	}
}

func TestGoogleBooksClient_ServerError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusTooManyRequests)
	}))
	defer server.Close()

	client := NewGoogleBooksClient(server.URL, "")
	if _, err := client.Query(context.Background(), "anything", 5); err == nil {
		t.Error("Expected error on non-200 response")
	}
}

func TestGoogleBooksClient_QueryTitleAuthor(t *testing.T) {
	var gotQuery string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotQuery = r.URL.Query().Get("q")
		w.Write([]byte(`{"totalItems": 0}`))
	}))
	defer server.Close()

	client := NewGoogleBooksClient(server.URL, "")
	if _, err := client.QueryTitleAuthor(context.Background(), "SICP", "Abelson", 5); err != nil {
		t.Fatalf("Expected no error, got %v", err)
	}
	if gotQuery != "intitle:SICP inauthor:Abelson" {
		t.Errorf("Expected field-scoped query, got %q", gotQuery)
	}
}
