package ocr

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"strings"
	"time"
)

// errTransient marks provider failures (timeouts, 5xx) that are worth one
// more attempt. Structurally invalid responses are never retried.
var errTransient = errors.New("transient provider error")

// OCRSpace implements the Extractor interface using the OCR.space parse API
type OCRSpace struct {
	endpoint string
	apiKey   string
	language string
	timeout  time.Duration
	client   *http.Client
}

// NewOCRSpace creates a new OCRSpace Extractor instance
func NewOCRSpace(endpoint string, apiKey string) (*OCRSpace, error) {
	if apiKey == "" {
		return nil, fmt.Errorf("ocr.space api key is required")
	}
	if endpoint == "" {
		endpoint = "https://api.ocr.space/parse/image"
	}

	return &OCRSpace{
		endpoint: endpoint,
		apiKey:   apiKey,
		language: "eng",
		timeout:  30 * time.Second,
		client:   &http.Client{},
	}, nil
}

// ocrSpaceResponse represents the response from the OCR.space parse API
type ocrSpaceResponse struct {
	ParsedResults []struct {
		ParsedText string `json:"ParsedText"`
	} `json:"ParsedResults"`
	IsErroredOnProcessing bool `json:"IsErroredOnProcessing"`
	ErrorMessage          any  `json:"ErrorMessage"` // string or list of strings depending on the error
}

// ExtractText sends a receipt image to OCR.space and returns the primary
// recognized text block. Timeouts and 5xx responses get one bounded retry.
func (o *OCRSpace) ExtractText(imageData []byte, contentType string) (string, error) {
	// Normalize PDFs and phone formats to PNG before uploading
	finalImageData, err := prepareImageData(imageData, contentType)
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrExtractionFailed, err)
	}

	text, err := o.attempt(finalImageData)
	if err != nil && errors.Is(err, errTransient) {
		text, err = o.attempt(finalImageData)
	}
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrExtractionFailed, err)
	}
	return text, nil
}

// attempt performs a single parse request against the provider
func (o *OCRSpace) attempt(imageData []byte) (string, error) {
	ctx, cancel := context.WithTimeout(context.Background(), o.timeout)
	defer cancel()

	var body bytes.Buffer
	writer := multipart.NewWriter(&body)
	if err := writer.WriteField("apikey", o.apiKey); err != nil {
		return "", fmt.Errorf("writing form field: %w", err)
	}
	if err := writer.WriteField("language", o.language); err != nil {
		return "", fmt.Errorf("writing form field: %w", err)
	}
	part, err := writer.CreateFormFile("file", "receipt.png")
	if err != nil {
		return "", fmt.Errorf("creating form file: %w", err)
	}
	if _, err := part.Write(imageData); err != nil {
		return "", fmt.Errorf("writing image data: %w", err)
	}
	if err := writer.Close(); err != nil {
		return "", fmt.Errorf("closing form writer: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, "POST", o.endpoint, &body)
	if err != nil {
		return "", fmt.Errorf("creating request: %w", err)
	}
	req.Header.Set("Content-Type", writer.FormDataContentType())

	resp, err := o.client.Do(req)
	if err != nil {
		return "", fmt.Errorf("calling ocr.space API: %w", errors.Join(err, errTransient))
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 500 {
		body, _ := io.ReadAll(resp.Body)
		return "", fmt.Errorf("ocr.space API error (status %d): %s: %w", resp.StatusCode, string(body), errTransient)
	}
	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(resp.Body)
		return "", fmt.Errorf("ocr.space API error (status %d): %s", resp.StatusCode, string(body))
	}

	var parsed ocrSpaceResponse
	if err := json.NewDecoder(resp.Body).Decode(&parsed); err != nil {
		return "", fmt.Errorf("decoding response: %w", err)
	}

	if parsed.IsErroredOnProcessing {
		return "", fmt.Errorf("provider failed to process image: %v", parsed.ErrorMessage)
	}
	if len(parsed.ParsedResults) == 0 {
		return "", fmt.Errorf("no parsed results in response")
	}

	text := strings.TrimSpace(parsed.ParsedResults[0].ParsedText)
	if text == "" {
		return "", fmt.Errorf("no parsed text in response")
	}
	return text, nil
}

// Close closes the OCRSpace client (no-op for HTTP client)
func (o *OCRSpace) Close() error {
	return nil
}
