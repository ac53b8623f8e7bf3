// Package repository mediates access to shelf images.
package repository

import (
	"context"
	"image"
	"net/url"

	"go-shelf-scanner/internal/storage"
)

// ImageRepository defines the interface for shelf image access
type ImageRepository interface {
	// FetchImage retrieves a shelf image from a URL
	FetchImage(ctx context.Context, imageURL string) (image.Image, error)

	// ValidateImageURL validates if the provided URL is acceptable
	ValidateImageURL(imageURL string) error
}

// FetcherImageRepository implements ImageRepository on top of a storage
// backend
type FetcherImageRepository struct {
	fetcher storage.ImageFetcher
}

// NewImageRepository creates a repository backed by the given fetcher
func NewImageRepository(fetcher storage.ImageFetcher) ImageRepository {
	return &FetcherImageRepository{
		fetcher: fetcher,
	}
}

// FetchImage retrieves a shelf image from a URL
func (r *FetcherImageRepository) FetchImage(ctx context.Context, imageURL string) (image.Image, error) {
	if err := r.ValidateImageURL(imageURL); err != nil {
		return nil, err
	}

	img, err := r.fetcher.FetchImage(ctx, imageURL)
	if err != nil {
		return nil, err
	}
	if img.Bounds().Dx() == 0 || img.Bounds().Dy() == 0 {
		return nil, ErrImageNotFound
	}
	return img, nil
}

// ValidateImageURL checks the URL is absolute with an http(s) scheme
func (r *FetcherImageRepository) ValidateImageURL(imageURL string) error {
	if imageURL == "" {
		return ErrInvalidImageURL
	}
	parsed, err := url.Parse(imageURL)
	if err != nil || !parsed.IsAbs() {
		return ErrInvalidImageURL
	}
	if parsed.Scheme != "http" && parsed.Scheme != "https" {
		return ErrInvalidImageURL
	}
	return nil
}
