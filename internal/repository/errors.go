package repository

import "errors"

var (
	// ErrInvalidImageURL indicates an invalid shelf image URL
	ErrInvalidImageURL = errors.New("invalid image URL")

	// ErrImageNotFound indicates the shelf image was not found
	ErrImageNotFound = errors.New("image not found")
)
