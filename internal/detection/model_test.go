package detection

import (
	"encoding/json"
	"image"
	"net/http"
	"net/http/httptest"
	"testing"
)

func TestModelDetector_ScalesAndFilters(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var req map[string]string
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			t.Errorf("Expected JSON request body: %v", err)
		}
		if req["image"] == "" {
			t.Error("Expected base64 image in request")
		}

		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{
			"detections": [
				{"score": 0.9, "box": [0.1, 0.2, 0.5, 0.4]},
				{"score": 0.3, "box": [0.0, 0.0, 1.0, 1.0]},
				{"score": 0.7, "box": [0.0, 0.6, 1.0, 0.8]}
			]
		}`))
	}))
	defer server.Close()

	detector := NewModelDetector(server.URL, 0.5)
	img := image.NewNRGBA(image.Rect(0, 0, 100, 200))

	regions := detector.Detect(img)
	if len(regions) != 2 {
		t.Fatalf("Expected 2 regions above the score threshold, got %d", len(regions))
	}

	// Boxes are [ymin, xmin, ymax, xmax] normalized; first box scales to
	// x 20..40, y 20..100 on a 100x200 image.
	expected := image.Rect(20, 20, 40, 100)
	if regions[0] != expected {
		t.Errorf("Expected first region %v, got %v", expected, regions[0])
	}
}

func TestModelDetector_ServerError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer server.Close()

	detector := NewModelDetector(server.URL, 0.5)
	regions := detector.Detect(image.NewNRGBA(image.Rect(0, 0, 50, 50)))
	if len(regions) != 0 {
		t.Errorf("Expected no regions on inference failure, got %d", len(regions))
	}
}

func TestModelDetector_EmptyImage(t *testing.T) {
	detector := NewModelDetector("http://localhost:0", 0.5)
	if regions := detector.Detect(image.NewNRGBA(image.Rect(0, 0, 0, 0))); len(regions) != 0 {
		t.Errorf("Expected no regions for an empty image, got %d", len(regions))
	}
}
