package ocr

import (
	"bytes"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"image"
	"image/png"
	"net/http"
	"time"
)

// DefaultChunkSize is how many images are sent per remote OCR call.
const DefaultChunkSize = 16

// RemoteExtractor sends regions to an OCR service over HTTP. Batches are
// split into chunks of at most chunkSize images per call and responses are
// reassembled in the original order.
//
// Failure policy: a failed chunk fails the whole batch. Partially dropping
// chunks would silently desynchronize the index alignment callers depend on.
type RemoteExtractor struct {
	baseURL   string
	chunkSize int
	client    *http.Client
}

// NewRemoteExtractor creates an extractor for the OCR service at baseURL.
// A chunkSize < 1 falls back to DefaultChunkSize.
func NewRemoteExtractor(baseURL string, chunkSize int) *RemoteExtractor {
	if chunkSize < 1 {
		chunkSize = DefaultChunkSize
	}
	return &RemoteExtractor{
		baseURL:   baseURL,
		chunkSize: chunkSize,
		client: &http.Client{
			Timeout: 60 * time.Second,
		},
	}
}

type extractRequest struct {
	Images []string `json:"images"` // base64 PNG
}

type extractResponse struct {
	Results [][]string `json:"results"`
}

// Extract implements TextExtractor.
func (r *RemoteExtractor) Extract(img image.Image) ([]string, error) {
	results, err := r.Batch([]image.Image{img})
	if err != nil {
		return nil, err
	}
	return results[0], nil
}

// Batch implements TextExtractor.
func (r *RemoteExtractor) Batch(images []image.Image) ([][]string, error) {
	results := make([][]string, 0, len(images))
	for start := 0; start < len(images); start += r.chunkSize {
		end := min(start+r.chunkSize, len(images))
		chunk, err := r.extractChunk(images[start:end])
		if err != nil {
			return nil, err
		}
		results = append(results, chunk...)
	}
	return results, nil
}

func (r *RemoteExtractor) extractChunk(images []image.Image) ([][]string, error) {
	req := extractRequest{Images: make([]string, len(images))}
	for i, img := range images {
		var buf bytes.Buffer
		if err := png.Encode(&buf, img); err != nil {
			return nil, fmt.Errorf("failed to encode region %d: %w", i, err)
		}
		req.Images[i] = base64.StdEncoding.EncodeToString(buf.Bytes())
	}

	payload, err := json.Marshal(req)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal OCR request: %w", err)
	}

	resp, err := r.client.Post(r.baseURL+"/v1/extract", "application/json", bytes.NewReader(payload))
	if err != nil {
		return nil, fmt.Errorf("OCR service request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("OCR service returned status %d", resp.StatusCode)
	}

	var out extractResponse
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return nil, fmt.Errorf("failed to decode OCR response: %w", err)
	}
	if len(out.Results) != len(images) {
		return nil, fmt.Errorf("OCR service returned %d results for %d images", len(out.Results), len(images))
	}

	// Normalize fragments the same way the local engine does.
	results := make([][]string, len(out.Results))
	for i, fragments := range out.Results {
		cleaned := make([]string, 0, len(fragments))
		for _, fragment := range fragments {
			cleaned = append(cleaned, splitFragments(fragment)...)
		}
		results[i] = cleaned
	}
	return results, nil
}
