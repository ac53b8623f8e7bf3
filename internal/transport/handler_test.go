package transport

import (
	"bytes"
	"context"
	"encoding/json"
	"image"
	"image/png"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"

	"go-shelf-scanner/internal/catalogue"
	"go-shelf-scanner/internal/config"
	"go-shelf-scanner/internal/repository"
	"go-shelf-scanner/internal/service"
	"go-shelf-scanner/internal/storage"
)

func init() {
	gin.SetMode(gin.TestMode)
}

type stubDetector struct {
	regions []image.Rectangle
}

func (s *stubDetector) Detect(img image.Image) []image.Rectangle {
	return s.regions
}

type stubExtractor struct {
	texts [][]string
}

func (s *stubExtractor) Extract(img image.Image) ([]string, error) {
	return s.texts[0], nil
}

func (s *stubExtractor) Batch(images []image.Image) ([][]string, error) {
	return s.texts, nil
}

type stubCatalogue struct {
	books []catalogue.Book
}

func (s *stubCatalogue) Query(ctx context.Context, keywords string, max int) ([]catalogue.Book, error) {
	return s.books, nil
}

func (s *stubCatalogue) QueryTitleAuthor(ctx context.Context, title, author string, max int) ([]catalogue.Book, error) {
	return s.books, nil
}

func testConfig() *config.Config {
	return &config.Config{
		MaxRequestBodySize: 10 * 1024 * 1024,
		RequestTimeout:     5 * time.Second,
		ImageFetchTimeout:  5 * time.Second,
		DetectionTimeout:   5 * time.Second,
		MaxMatches:         3,
	}
}

func newTestHandler(detector *stubDetector, extractor *stubExtractor, cat *stubCatalogue, fetcher storage.ImageFetcher) http.Handler {
	svc := service.NewDetectionService(detector, extractor, cat, 4)
	repo := repository.NewImageRepository(fetcher)
	return NewHandler(svc, repo, testConfig())
}

func TestHealthCheck(t *testing.T) {
	handler := newTestHandler(&stubDetector{}, &stubExtractor{}, &stubCatalogue{}, storage.NewHTTPImageFetcher())

	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/health", nil))

	if rec.Code != http.StatusOK {
		t.Fatalf("Expected status 200, got %d", rec.Code)
	}
	if !strings.Contains(rec.Body.String(), "available") {
		t.Errorf("Expected health status in body, got %s", rec.Body.String())
	}
}

func TestDetection_InvalidBody(t *testing.T) {
	handler := newTestHandler(&stubDetector{}, &stubExtractor{}, &stubCatalogue{}, storage.NewHTTPImageFetcher())

	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/api/detection", strings.NewReader("not json"))
	handler.ServeHTTP(rec, req)

	if rec.Code != http.StatusBadRequest {
		t.Errorf("Expected status 400, got %d", rec.Code)
	}
}

func TestDetection_MissingURL(t *testing.T) {
	handler := newTestHandler(&stubDetector{}, &stubExtractor{}, &stubCatalogue{}, storage.NewHTTPImageFetcher())

	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/api/detection", strings.NewReader(`{}`))
	handler.ServeHTTP(rec, req)

	if rec.Code != http.StatusBadRequest {
		t.Errorf("Expected status 400, got %d", rec.Code)
	}
}

func TestDetection_EndToEnd(t *testing.T) {
	var buf bytes.Buffer
	if err := png.Encode(&buf, image.NewNRGBA(image.Rect(0, 0, 100, 100))); err != nil {
		t.Fatalf("Failed to encode shelf image: %v", err)
	}
	imageServer := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "image/png")
		w.Write(buf.Bytes())
	}))
	defer imageServer.Close()

	handler := newTestHandler(
		&stubDetector{regions: []image.Rectangle{image.Rect(10, 0, 40, 100)}},
		&stubExtractor{texts: [][]string{{"Dune"}}},
		&stubCatalogue{books: []catalogue.Book{{Title: "Dune", Authors: []string{"Frank Herbert"}}}},
		storage.NewHTTPImageFetcher(),
	)

	body, _ := json.Marshal(map[string]any{"url": imageServer.URL + "/shelf.png"})
	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/api/detection", bytes.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	handler.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("Expected status 200, got %d: %s", rec.Code, rec.Body.String())
	}

	var resp struct {
		RequestID  string           `json:"request_id"`
		Detections []DetectionEntry `json:"detections"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("Failed to decode response: %v", err)
	}
	if resp.RequestID == "" {
		t.Error("Expected a request id")
	}
	if len(resp.Detections) != 1 {
		t.Fatalf("Expected 1 detection, got %d", len(resp.Detections))
	}
	d := resp.Detections[0]
	if d.Box.X != 10 || d.Box.Width != 30 || d.Box.Height != 100 {
		t.Errorf("Unexpected box %+v", d.Box)
	}
	if len(d.Matches) != 1 || d.Matches[0].Title != "Dune" {
		t.Errorf("Expected Dune match, got %v", d.Matches)
	}
}

func TestDetection_Upload(t *testing.T) {
	var buf bytes.Buffer
	if err := png.Encode(&buf, image.NewNRGBA(image.Rect(0, 0, 100, 100))); err != nil {
		t.Fatalf("Failed to encode shelf image: %v", err)
	}

	handler := newTestHandler(
		&stubDetector{regions: []image.Rectangle{image.Rect(0, 0, 50, 100)}},
		&stubExtractor{texts: [][]string{{"Dune"}}},
		&stubCatalogue{},
		storage.NewHTTPImageFetcher(),
	)

	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/api/detection/upload", bytes.NewReader(buf.Bytes()))
	handler.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("Expected status 200, got %d: %s", rec.Code, rec.Body.String())
	}
}

func TestDetection_UploadBadImage(t *testing.T) {
	handler := newTestHandler(&stubDetector{}, &stubExtractor{}, &stubCatalogue{}, storage.NewHTTPImageFetcher())

	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/api/detection/upload", strings.NewReader("not an image"))
	handler.ServeHTTP(rec, req)

	if rec.Code != http.StatusBadRequest {
		t.Errorf("Expected status 400, got %d", rec.Code)
	}
}
