package config

import (
	"fmt"
	"net"
	"os"
	"strconv"
	"strings"
	"time"
)

// Detector strategy names accepted by DETECTOR.
const (
	DetectorCanny = "canny"
	DetectorModel = "model"
)

// Extractor strategy names accepted by OCR_BACKEND.
const (
	ExtractorTesseract = "tesseract"
	ExtractorRemote    = "remote"
)

// Storage backend names accepted by STORAGE_BACKEND.
const (
	StorageHTTP  = "http"
	StorageAzure = "azure"
)

type Config struct {
	Host               string
	Port               string
	RequestTimeout     time.Duration
	ImageFetchTimeout  time.Duration
	DetectionTimeout   time.Duration
	MaxRequestBodySize int64

	// Detection
	Detector           string
	ModelEndpoint      string
	ModelScoreMin      float64
	MaxRegionAreaFrac  float64
	MaxConcurrentLooks int

	// OCR
	Extractor      string
	TessdataPath   string
	OCRLanguage    string
	RemoteOCRURL   string
	OCRChunkSize   int
	MaxMatches     int

	// Catalogue
	GoogleBooksURL    string
	GoogleBooksKey    string
	CatalogueRedis    string
	CatalogueCacheTTL time.Duration

	// Storage
	StorageBackend   string
	AzureAccountName string
	AzureAccountKey  string
}

func (c *Config) ServerAddress() string {
	host := strings.TrimSpace(c.Host)
	port := strings.TrimSpace(c.Port)
	return net.JoinHostPort(host, port)
}

func LoadFromEnv() (*Config, error) {
	cfg := &Config{
		Host:               getEnvOrDefault("HOST", "0.0.0.0"),
		Port:               getEnvOrDefault("PORT", "8080"),
		RequestTimeout:     parseDurationOrDefault("REQUEST_TIMEOUT", 30*time.Second),
		ImageFetchTimeout:  parseDurationOrDefault("IMAGE_FETCH_TIMEOUT", 15*time.Second),
		DetectionTimeout:   parseDurationOrDefault("DETECTION_TIMEOUT", 60*time.Second),
		MaxRequestBodySize: parseIntOrDefault("MAX_REQUEST_BODY_SIZE", 20*1024*1024), // 20MB

		Detector:           getEnvOrDefault("DETECTOR", DetectorCanny),
		ModelEndpoint:      os.Getenv("MODEL_ENDPOINT"),
		ModelScoreMin:      parseFloatOrDefault("MODEL_SCORE_MIN", 0.5),
		MaxRegionAreaFrac:  parseFloatOrDefault("MAX_REGION_AREA_FRAC", 0.5),
		MaxConcurrentLooks: int(parseIntOrDefault("MAX_CONCURRENT_LOOKUPS", 8)),

		Extractor:    getEnvOrDefault("OCR_BACKEND", ExtractorTesseract),
		TessdataPath: getEnvOrDefault("TESSDATA_PATH", "/usr/share/tesseract-ocr/tessdata/eng.traineddata"),
		OCRLanguage:  getEnvOrDefault("OCR_LANGUAGE", "eng"),
		RemoteOCRURL: os.Getenv("REMOTE_OCR_URL"),
		OCRChunkSize: int(parseIntOrDefault("OCR_CHUNK_SIZE", 16)),
		MaxMatches:   int(parseIntOrDefault("MAX_MATCHES_PER_REGION", 1)),

		GoogleBooksURL:    getEnvOrDefault("GOOGLE_BOOKS_URL", "https://www.googleapis.com/books/v1"),
		GoogleBooksKey:    os.Getenv("GOOGLE_BOOKS_KEY"),
		CatalogueRedis:    os.Getenv("CATALOGUE_REDIS_ADDR"),
		CatalogueCacheTTL: parseDurationOrDefault("CATALOGUE_CACHE_TTL", 15*time.Minute),

		StorageBackend:   getEnvOrDefault("STORAGE_BACKEND", StorageHTTP),
		AzureAccountName: os.Getenv("AZURE_ACCOUNT_NAME"),
		AzureAccountKey:  os.Getenv("AZURE_ACCOUNT_KEY"),
	}

	p, err := strconv.Atoi(strings.TrimSpace(cfg.Port))
	if err != nil || p < 1 || p > 65535 {
		return nil, fmt.Errorf("invalid PORT: %q", cfg.Port)
	}
	if cfg.MaxRequestBodySize <= 0 {
		return nil, fmt.Errorf("MAX_REQUEST_BODY_SIZE must be > 0 (got %d)", cfg.MaxRequestBodySize)
	}
	if cfg.RequestTimeout <= 0 || cfg.ImageFetchTimeout <= 0 || cfg.DetectionTimeout <= 0 {
		return nil, fmt.Errorf("timeouts must be > 0 (got request=%s, fetch=%s, detection=%s)",
			cfg.RequestTimeout, cfg.ImageFetchTimeout, cfg.DetectionTimeout)
	}
	switch cfg.Detector {
	case DetectorCanny:
	case DetectorModel:
		if cfg.ModelEndpoint == "" {
			return nil, fmt.Errorf("DETECTOR=model requires MODEL_ENDPOINT")
		}
	default:
		return nil, fmt.Errorf("unknown DETECTOR: %q", cfg.Detector)
	}
	switch cfg.Extractor {
	case ExtractorTesseract:
	case ExtractorRemote:
		if cfg.RemoteOCRURL == "" {
			return nil, fmt.Errorf("OCR_BACKEND=remote requires REMOTE_OCR_URL")
		}
	default:
		return nil, fmt.Errorf("unknown OCR_BACKEND: %q", cfg.Extractor)
	}
	if cfg.StorageBackend != StorageHTTP && cfg.StorageBackend != StorageAzure {
		return nil, fmt.Errorf("unknown STORAGE_BACKEND: %q", cfg.StorageBackend)
	}
	if cfg.MaxRegionAreaFrac <= 0 || cfg.MaxRegionAreaFrac > 1 {
		return nil, fmt.Errorf("MAX_REGION_AREA_FRAC must be in (0, 1] (got %g)", cfg.MaxRegionAreaFrac)
	}
	if cfg.MaxConcurrentLooks < 1 {
		return nil, fmt.Errorf("MAX_CONCURRENT_LOOKUPS must be >= 1 (got %d)", cfg.MaxConcurrentLooks)
	}
	if cfg.OCRChunkSize < 1 {
		return nil, fmt.Errorf("OCR_CHUNK_SIZE must be >= 1 (got %d)", cfg.OCRChunkSize)
	}
	if cfg.MaxMatches < 1 {
		return nil, fmt.Errorf("MAX_MATCHES_PER_REGION must be >= 1 (got %d)", cfg.MaxMatches)
	}
	return cfg, nil
}

func getEnvOrDefault(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func parseDurationOrDefault(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if duration, err := time.ParseDuration(strings.TrimSpace(value)); err == nil && duration > 0 {
			return duration
		}
	}
	return defaultValue
}

func parseIntOrDefault(key string, defaultValue int64) int64 {
	if value := os.Getenv(key); value != "" {
		if intValue, err := strconv.ParseInt(strings.TrimSpace(value), 10, 64); err == nil {
			return intValue
		}
	}
	return defaultValue
}

func parseFloatOrDefault(key string, defaultValue float64) float64 {
	if value := os.Getenv(key); value != "" {
		if floatValue, err := strconv.ParseFloat(strings.TrimSpace(value), 64); err == nil {
			return floatValue
		}
	}
	return defaultValue
}
