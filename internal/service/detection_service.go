// Package service orchestrates the detection pipeline: locate book spines in
// a shelf image, read their text, and resolve each spine against the
// catalogue.
package service

import (
	"context"
	"image"
	"strings"

	"github.com/disintegration/imaging"
	"github.com/sirupsen/logrus"
	"golang.org/x/sync/errgroup"
	"golang.org/x/sync/semaphore"

	"go-shelf-scanner/internal/catalogue"
	"go-shelf-scanner/internal/detection"
	"go-shelf-scanner/internal/errors"
	"go-shelf-scanner/internal/logger"
	"go-shelf-scanner/internal/match"
	"go-shelf-scanner/internal/ocr"
)

// Detection is one located book spine with its catalogue candidates, best
// match first. Matches is never empty; unmatched regions are dropped.
type Detection struct {
	Box     image.Rectangle
	Text    string
	Matches []catalogue.Book
}

// DetectionService runs the spine detection pipeline.
type DetectionService struct {
	detector  detection.BookDetector
	extractor ocr.TextExtractor
	catalogue catalogue.Client
	lookups   *semaphore.Weighted
}

// NewDetectionService wires the pipeline stages together. maxLookups bounds
// how many catalogue queries run concurrently; values < 1 fall back to 8.
func NewDetectionService(detector detection.BookDetector, extractor ocr.TextExtractor, client catalogue.Client, maxLookups int64) *DetectionService {
	if maxLookups < 1 {
		maxLookups = 8
	}
	return &DetectionService{
		detector:  detector,
		extractor: extractor,
		catalogue: client,
		lookups:   semaphore.NewWeighted(maxLookups),
	}
}

// DetectBooks runs the full pipeline on a shelf image. Regions where OCR
// found no legible text and regions the catalogue cannot match are dropped.
// A failed catalogue lookup counts as zero matches rather than failing the
// scan; one flaky query should not lose the rest of the shelf. Results are
// ordered left to right as detected.
func (s *DetectionService) DetectBooks(ctx context.Context, img image.Image, maxMatches int) ([]Detection, error) {
	if img == nil || img.Bounds().Dx() == 0 || img.Bounds().Dy() == 0 {
		return nil, errors.NewValidationError("image is empty", nil)
	}
	if maxMatches < 1 {
		maxMatches = 1
	}

	regions := s.detector.Detect(img)
	logger.WithField("regions", len(regions)).Debug("Spine detection complete")
	if len(regions) == 0 {
		return []Detection{}, nil
	}

	crops := make([]image.Image, len(regions))
	for i, region := range regions {
		crops[i] = imaging.Crop(img, region)
	}

	texts, err := s.extractor.Batch(crops)
	if err != nil {
		return nil, errors.NewProcessingError("text extraction failed", err)
	}
	if len(texts) != len(regions) {
		return nil, errors.NewInternalError("extractor result count does not match region count", nil)
	}

	// One slot per region keeps output in detection order without a mutex.
	results := make([]*Detection, len(regions))
	group, groupCtx := errgroup.WithContext(ctx)
	for i, region := range regions {
		text := strings.TrimSpace(strings.Join(texts[i], " "))
		if text == "" {
			continue
		}

		group.Go(func() error {
			if err := s.lookups.Acquire(groupCtx, 1); err != nil {
				return err
			}
			defer s.lookups.Release(1)

			matches := s.lookup(groupCtx, text, maxMatches)
			if len(matches) == 0 {
				return nil
			}
			results[i] = &Detection{
				Box:     region,
				Text:    text,
				Matches: matches,
			}
			return nil
		})
	}
	if err := group.Wait(); err != nil {
		return nil, errors.NewTimeoutError("catalogue lookups aborted", err)
	}

	detections := make([]Detection, 0, len(results))
	for _, result := range results {
		if result != nil {
			detections = append(detections, *result)
		}
	}
	return detections, nil
}

// lookup queries the catalogue for one spine and ranks the candidates.
// Failures are logged and reported as zero matches.
func (s *DetectionService) lookup(ctx context.Context, text string, maxMatches int) []catalogue.Book {
	books, err := s.catalogue.Query(ctx, text, maxMatches)
	if err != nil {
		logger.WithFields(logrus.Fields{
			"text":  text,
			"error": err.Error(),
		}).Warn("Catalogue lookup failed, keeping detection without matches")
		return []catalogue.Book{}
	}
	return match.Rank(text, books)
}
