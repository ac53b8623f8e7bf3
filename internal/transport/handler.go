// Package transport exposes the detection pipeline over HTTP.
package transport

import (
	"context"
	"errors"
	"fmt"
	"image"
	_ "image/jpeg"
	_ "image/png"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"go-shelf-scanner/internal/catalogue"
	"go-shelf-scanner/internal/config"
	apperrors "go-shelf-scanner/internal/errors"
	"go-shelf-scanner/internal/logger"
	"go-shelf-scanner/internal/repository"
	"go-shelf-scanner/internal/service"
)

// DetectionRequest asks for books in the shelf image at URL.
type DetectionRequest struct {
	URL        string `json:"url" binding:"required,url"`
	MaxMatches int    `json:"max_matches,omitempty"`
}

// Box is a detected spine region in pixel coordinates.
type Box struct {
	X      int `json:"x"`
	Y      int `json:"y"`
	Width  int `json:"width"`
	Height int `json:"height"`
}

// DetectionEntry is one detected book in the response.
type DetectionEntry struct {
	Box     Box              `json:"box"`
	Text    string           `json:"text"`
	Matches []catalogue.Book `json:"matches"`
}

type detectionResponse struct {
	RequestID  string           `json:"request_id"`
	Detections []DetectionEntry `json:"detections"`
}

type ErrorResponse struct {
	Error   string `json:"error"`
	Message string `json:"message,omitempty"`
}

// NewHandler builds the HTTP router for the detection API.
func NewHandler(svc *service.DetectionService, repo repository.ImageRepository, cfg *config.Config) http.Handler {
	r := gin.Default()

	r.Use(
		requestSizeLimiter(cfg.MaxRequestBodySize),
		errorHandler(),
	)

	r.GET("/health", healthCheck)
	r.POST("/api/detection", detectFromURL(svc, repo, cfg))
	r.POST("/api/detection/upload", detectFromUpload(svc, cfg))

	return r
}

func detectFromURL(svc *service.DetectionService, repo repository.ImageRepository, cfg *config.Config) gin.HandlerFunc {
	return func(c *gin.Context) {
		requestID := uuid.NewString()
		startTime := time.Now()
		ctx, cancel := context.WithTimeout(c.Request.Context(), cfg.DetectionTimeout)
		defer cancel()

		logger.WithFields(logrus.Fields{
			"request_id": requestID,
			"method":     c.Request.Method,
			"path":       c.Request.URL.Path,
			"ip":         c.ClientIP(),
		}).Info("Processing detection request")

		var req DetectionRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			logger.WithError(err).WithField("request_id", requestID).Error("Invalid request format")
			respondError(c, http.StatusBadRequest, "invalid request format", err)
			return
		}

		if err := repo.ValidateImageURL(req.URL); err != nil {
			respondError(c, http.StatusBadRequest, "invalid image URL", err)
			return
		}

		fetchCtx, fetchCancel := context.WithTimeout(ctx, cfg.ImageFetchTimeout)
		defer fetchCancel()
		img, err := repo.FetchImage(fetchCtx, req.URL)
		if err != nil {
			var fetchErr *apperrors.AppError
			if errors.Is(err, context.DeadlineExceeded) {
				fetchErr = apperrors.NewTimeoutError("Image fetch timeout", err)
			} else {
				fetchErr = apperrors.NewNetworkError("Failed to fetch image", err)
			}
			logger.WithError(fetchErr).WithFields(logrus.Fields{
				"request_id": requestID,
				"url":        req.URL,
			}).Error("Failed to fetch image")
			respondError(c, fetchErr.StatusCode, "failed to fetch image", fetchErr)
			return
		}

		runDetection(c, svc, cfg, img, req.MaxMatches, requestID, startTime)
	}
}

// detectFromUpload accepts the shelf image directly in the request body,
// which avoids a fetch round-trip for clients that already hold the photo.
func detectFromUpload(svc *service.DetectionService, cfg *config.Config) gin.HandlerFunc {
	return func(c *gin.Context) {
		requestID := uuid.NewString()
		startTime := time.Now()

		logger.WithFields(logrus.Fields{
			"request_id": requestID,
			"path":       c.Request.URL.Path,
			"ip":         c.ClientIP(),
		}).Info("Processing detection upload")

		img, _, err := image.Decode(c.Request.Body)
		if err != nil {
			respondError(c, http.StatusBadRequest, "failed to decode image", err)
			return
		}

		maxMatches := 0
		if raw := c.Query("max_matches"); raw != "" {
			fmt.Sscanf(raw, "%d", &maxMatches)
		}

		runDetection(c, svc, cfg, img, maxMatches, requestID, startTime)
	}
}

func runDetection(c *gin.Context, svc *service.DetectionService, cfg *config.Config, img image.Image, maxMatches int, requestID string, startTime time.Time) {
	if maxMatches < 1 {
		maxMatches = cfg.MaxMatches
	}

	ctx, cancel := context.WithTimeout(c.Request.Context(), cfg.DetectionTimeout)
	defer cancel()

	detections, err := svc.DetectBooks(ctx, img, maxMatches)
	if err != nil {
		logger.WithError(err).WithField("request_id", requestID).Error("Detection failed")
		respondError(c, apperrors.GetStatusCode(err), "detection failed", err)
		return
	}

	entries := make([]DetectionEntry, len(detections))
	for i, d := range detections {
		entries[i] = DetectionEntry{
			Box: Box{
				X:      d.Box.Min.X,
				Y:      d.Box.Min.Y,
				Width:  d.Box.Dx(),
				Height: d.Box.Dy(),
			},
			Text:    d.Text,
			Matches: d.Matches,
		}
	}

	logger.WithFields(logrus.Fields{
		"request_id":         requestID,
		"detections":         len(entries),
		"processing_time_ms": time.Since(startTime).Milliseconds(),
	}).Info("Detection completed successfully")

	c.JSON(http.StatusOK, detectionResponse{
		RequestID:  requestID,
		Detections: entries,
	})
}

func healthCheck(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status":  "available",
		"version": "1.0.0",
		"time":    time.Now().UTC().Format(time.RFC3339),
	})
}

// Middleware and helper functions
func requestSizeLimiter(maxBytes int64) gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, maxBytes)
		c.Next()
	}
}

func errorHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Next()

		if len(c.Errors) > 0 {
			err := c.Errors.Last()
			respondError(c, determineStatusCode(err), "request processing failed", err)
		}
	}
}

func determineStatusCode(err error) int {
	if appErr, ok := err.(*apperrors.AppError); ok {
		return appErr.StatusCode
	}

	switch {
	case errors.Is(err, context.DeadlineExceeded):
		return http.StatusGatewayTimeout
	case errors.Is(err, context.Canceled):
		return http.StatusTooManyRequests
	default:
		return http.StatusInternalServerError
	}
}

func respondError(c *gin.Context, code int, message string, err error) {
	logger.WithError(err).WithFields(logrus.Fields{
		"status_code": code,
		"message":     message,
		"path":        c.Request.URL.Path,
		"method":      c.Request.Method,
		"ip":          c.ClientIP(),
	}).Error("Request failed")

	c.AbortWithStatusJSON(code, ErrorResponse{
		Error:   http.StatusText(code),
		Message: fmt.Sprintf("%s: %v", message, err),
	})
}
