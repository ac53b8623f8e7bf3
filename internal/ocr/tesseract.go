package ocr

import (
	"bytes"
	"errors"
	"fmt"
	"image"
	"image/png"
	"io"
	"os"
	"path/filepath"
	"sync"

	"github.com/otiai10/gosseract/v2"
)

// ErrExtractorClosed is returned by calls on a closed TesseractExtractor.
var ErrExtractorClosed = errors.New("ocr: extractor is closed")

// TesseractConfig holds the engine settings for a local extractor.
type TesseractConfig struct {
	// Language is the trained-data language code, e.g. "eng".
	Language string

	// Whitelist restricts recognition to the given characters. Empty means
	// no restriction.
	Whitelist string
}

// DefaultTesseractConfig restricts recognition to letters and digits; spine
// text is titles and author names, and punctuation is mostly OCR noise there.
func DefaultTesseractConfig() TesseractConfig {
	return TesseractConfig{
		Language:  "eng",
		Whitelist: "abcdefghijklmnopqrstuvwxyzABCDEFGHIJKLMNOPQRSTUVWXYZ1234567890 ",
	}
}

// engine is the slice of the gosseract client the extractor needs. Narrowed
// so the serialization behavior can be tested without a native Tesseract
// installation.
type engine interface {
	SetImageFromBytes(data []byte) error
	Text() (string, error)
	Close() error
}

// TesseractExtractor wraps a local Tesseract engine. The engine instance
// holds native state and is not reentrant, so every call into it is
// serialized through the extractor's mutex; detection and catalogue work in
// other goroutines is unaffected.
//
// Construction copies the trained data into a private temporary tessdata
// directory; Close releases the native handle and removes the directory.
// Callers must Close the extractor when done.
type TesseractExtractor struct {
	mu      sync.Mutex
	engine  engine
	dataDir string
	closed  bool
}

// NewTesseractExtractor initializes a Tesseract engine with trained-model
// data read from trainedData. On any initialization failure the temporary
// directory and the native handle are both released before returning.
func NewTesseractExtractor(trainedData io.Reader, cfg TesseractConfig) (*TesseractExtractor, error) {
	if cfg.Language == "" {
		cfg.Language = "eng"
	}

	dataDir, err := os.MkdirTemp("", "tesseract-")
	if err != nil {
		return nil, fmt.Errorf("failed to create tessdata dir: %w", err)
	}

	tessdata := filepath.Join(dataDir, "tessdata")
	if err := os.Mkdir(tessdata, 0o755); err != nil {
		os.RemoveAll(dataDir)
		return nil, fmt.Errorf("failed to create tessdata dir: %w", err)
	}
	if err := writeTrainedData(filepath.Join(tessdata, cfg.Language+".traineddata"), trainedData); err != nil {
		os.RemoveAll(dataDir)
		return nil, err
	}

	client := gosseract.NewClient()
	fail := func(err error) (*TesseractExtractor, error) {
		client.Close()
		os.RemoveAll(dataDir)
		return nil, err
	}

	if err := client.SetTessdataPrefix(tessdata); err != nil {
		return fail(fmt.Errorf("failed to set tessdata prefix: %w", err))
	}
	if err := client.SetLanguage(cfg.Language); err != nil {
		return fail(fmt.Errorf("failed to set language %q: %w", cfg.Language, err))
	}
	if cfg.Whitelist != "" {
		if err := client.SetWhitelist(cfg.Whitelist); err != nil {
			return fail(fmt.Errorf("failed to set whitelist: %w", err))
		}
	}

	return &TesseractExtractor{engine: client, dataDir: dataDir}, nil
}

func writeTrainedData(path string, data io.Reader) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("failed to create trained data file: %w", err)
	}
	if _, err := io.Copy(f, data); err != nil {
		f.Close()
		return fmt.Errorf("failed to write trained data: %w", err)
	}
	if err := f.Close(); err != nil {
		return fmt.Errorf("failed to write trained data: %w", err)
	}
	return nil
}

// Extract implements TextExtractor. The PNG encoding of the region happens
// outside the lock; only the engine calls are serialized.
func (t *TesseractExtractor) Extract(img image.Image) ([]string, error) {
	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		return nil, fmt.Errorf("failed to encode region: %w", err)
	}

	t.mu.Lock()
	defer t.mu.Unlock()
	if t.closed {
		return nil, ErrExtractorClosed
	}

	if err := t.engine.SetImageFromBytes(buf.Bytes()); err != nil {
		return nil, fmt.Errorf("failed to load region into engine: %w", err)
	}
	text, err := t.engine.Text()
	if err != nil {
		return nil, fmt.Errorf("text recognition failed: %w", err)
	}
	return splitFragments(text), nil
}

// Batch implements TextExtractor, calling Extract once per image in input
// order.
func (t *TesseractExtractor) Batch(images []image.Image) ([][]string, error) {
	results := make([][]string, len(images))
	for i, img := range images {
		fragments, err := t.Extract(img)
		if err != nil {
			return nil, err
		}
		results[i] = fragments
	}
	return results, nil
}

// Close releases the native engine handle and the temporary tessdata
// directory. Close is idempotent.
func (t *TesseractExtractor) Close() error {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.closed {
		return nil
	}
	t.closed = true

	err := t.engine.Close()
	if removeErr := os.RemoveAll(t.dataDir); removeErr != nil && err == nil {
		err = removeErr
	}
	return err
}
