// Package container wires the application dependency graph.
package container

import (
	"fmt"
	"net/http"
	"os"

	"github.com/redis/go-redis/v9"

	"go-shelf-scanner/internal/catalogue"
	"go-shelf-scanner/internal/config"
	"go-shelf-scanner/internal/detection"
	"go-shelf-scanner/internal/logger"
	"go-shelf-scanner/internal/ocr"
	"go-shelf-scanner/internal/repository"
	"go-shelf-scanner/internal/service"
	"go-shelf-scanner/internal/storage"
	"go-shelf-scanner/internal/transport"
)

// Container holds all application dependencies
type Container struct {
	config           *config.Config
	imageFetcher     storage.ImageFetcher
	imageRepository  repository.ImageRepository
	detector         detection.BookDetector
	extractor        ocr.TextExtractor
	catalogueClient  catalogue.Client
	detectionService *service.DetectionService
	handler          http.Handler
}

// NewContainer builds the dependency graph from configuration
func NewContainer(cfg *config.Config) (*Container, error) {
	fetcher, err := buildFetcher(cfg)
	if err != nil {
		return nil, err
	}
	imageRepository := repository.NewImageRepository(fetcher)

	detector, err := buildDetector(cfg)
	if err != nil {
		return nil, err
	}

	extractor, err := buildExtractor(cfg)
	if err != nil {
		return nil, err
	}

	catalogueClient := buildCatalogue(cfg)

	detectionService := service.NewDetectionService(detector, extractor, catalogueClient, int64(cfg.MaxConcurrentLooks))
	handler := transport.NewHandler(detectionService, imageRepository, cfg)

	return &Container{
		config:           cfg,
		imageFetcher:     fetcher,
		imageRepository:  imageRepository,
		detector:         detector,
		extractor:        extractor,
		catalogueClient:  catalogueClient,
		detectionService: detectionService,
		handler:          handler,
	}, nil
}

func buildFetcher(cfg *config.Config) (storage.ImageFetcher, error) {
	switch cfg.StorageBackend {
	case config.StorageAzure:
		return storage.NewAzureStorage(cfg.AzureAccountName, cfg.AzureAccountKey)
	default:
		return storage.NewHTTPImageFetcher(), nil
	}
}

func buildDetector(cfg *config.Config) (detection.BookDetector, error) {
	switch cfg.Detector {
	case config.DetectorModel:
		return detection.NewModelDetector(cfg.ModelEndpoint, cfg.ModelScoreMin), nil
	default:
		dcfg := detection.DefaultCannyConfig()
		dcfg.MaxAreaFrac = cfg.MaxRegionAreaFrac
		return detection.NewCannyDetector(dcfg), nil
	}
}

func buildExtractor(cfg *config.Config) (ocr.TextExtractor, error) {
	switch cfg.Extractor {
	case config.ExtractorRemote:
		return ocr.NewRemoteExtractor(cfg.RemoteOCRURL, cfg.OCRChunkSize), nil
	default:
		trainedData, err := os.Open(cfg.TessdataPath)
		if err != nil {
			return nil, fmt.Errorf("failed to open trained data: %w", err)
		}
		defer trainedData.Close()

		tcfg := ocr.DefaultTesseractConfig()
		tcfg.Language = cfg.OCRLanguage
		return ocr.NewTesseractExtractor(trainedData, tcfg)
	}
}

func buildCatalogue(cfg *config.Config) catalogue.Client {
	var client catalogue.Client = catalogue.NewGoogleBooksClient(cfg.GoogleBooksURL, cfg.GoogleBooksKey)

	if cfg.CatalogueRedis != "" {
		rdb := redis.NewClient(&redis.Options{Addr: cfg.CatalogueRedis})
		client = catalogue.NewCachedClient(client, rdb, cfg.CatalogueCacheTTL)
		logger.WithField("addr", cfg.CatalogueRedis).Info("Catalogue cache enabled")
	}
	return client
}

// Handler returns the HTTP handler
func (c *Container) Handler() http.Handler {
	return c.handler
}

// Config returns the configuration
func (c *Container) Config() *config.Config {
	return c.config
}

// Close releases resources held by the container
func (c *Container) Close() error {
	if closer, ok := c.extractor.(interface{ Close() error }); ok {
		return closer.Close()
	}
	return nil
}
