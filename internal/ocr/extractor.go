package ocr

import "errors"

// ErrExtractionFailed indicates the OCR provider returned an error, a
// malformed payload, or no recognized text
var ErrExtractionFailed = errors.New("text extraction failed")

// Extractor defines the interface for receipt text extraction
type Extractor interface {
	// ExtractText sends a receipt image to the provider and returns the primary recognized text block
	ExtractText(imageData []byte, contentType string) (string, error)
	// Close closes the extractor and releases resources
	Close() error
}
