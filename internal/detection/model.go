package detection

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"image"
	"image/jpeg"
	"net/http"
	"time"

	"go-shelf-scanner/internal/logger"

	"github.com/sirupsen/logrus"
)

// ModelDetector delegates spine detection to a remote object-detection model
// served over HTTP. The model returns per-candidate scores and bounding boxes
// normalized as [ymin, xmin, ymax, xmax] fractions of the image dimensions;
// boxes scoring below the configured minimum are discarded and the rest are
// scaled back to pixel coordinates.
type ModelDetector struct {
	endpoint string
	scoreMin float64
	client   *http.Client
}

// NewModelDetector creates a detector that queries the inference service at
// endpoint and keeps candidates scoring at least scoreMin (0 to 1).
func NewModelDetector(endpoint string, scoreMin float64) *ModelDetector {
	return &ModelDetector{
		endpoint: endpoint,
		scoreMin: scoreMin,
		client: &http.Client{
			Timeout: 30 * time.Second,
		},
	}
}

type inferenceRequest struct {
	Image string `json:"image"` // base64 JPEG
}

type inferenceResponse struct {
	Detections []struct {
		Score float64    `json:"score"`
		Box   [4]float64 `json:"box"` // [ymin, xmin, ymax, xmax], normalized
	} `json:"detections"`
}

// Detect implements BookDetector. Inference failures are logged and yield an
// empty result; the detector contract has no error path.
func (d *ModelDetector) Detect(img image.Image) []image.Rectangle {
	bounds := img.Bounds()
	width := bounds.Dx()
	height := bounds.Dy()
	if width == 0 || height == 0 {
		return nil
	}

	resp, err := d.infer(context.Background(), img)
	if err != nil {
		logger.WithError(err).WithFields(logrus.Fields{
			"endpoint": d.endpoint,
		}).Warn("Model inference failed, returning no regions")
		return nil
	}

	var regions []image.Rectangle
	for _, det := range resp.Detections {
		if det.Score < d.scoreMin {
			continue
		}
		candidate := image.Rect(
			bounds.Min.X+int(det.Box[1]*float64(width)),
			bounds.Min.Y+int(det.Box[0]*float64(height)),
			bounds.Min.X+int(det.Box[3]*float64(width)),
			bounds.Min.Y+int(det.Box[2]*float64(height)),
		)
		if region, ok := clampRegion(candidate, bounds); ok {
			regions = append(regions, region)
		}
	}
	return regions
}

func (d *ModelDetector) infer(ctx context.Context, img image.Image) (*inferenceResponse, error) {
	var encoded bytes.Buffer
	if err := jpeg.Encode(&encoded, img, nil); err != nil {
		return nil, fmt.Errorf("failed to encode image: %w", err)
	}

	payload, err := json.Marshal(inferenceRequest{
		Image: base64.StdEncoding.EncodeToString(encoded.Bytes()),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to marshal request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, d.endpoint, bytes.NewReader(payload))
	if err != nil {
		return nil, fmt.Errorf("invalid endpoint: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := d.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("inference request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("inference service returned status %d", resp.StatusCode)
	}

	var out inferenceResponse
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return nil, fmt.Errorf("failed to decode inference response: %w", err)
	}
	return &out, nil
}
