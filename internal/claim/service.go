package claim

import (
	"fmt"
	"log/slog"
	"math"
	"path/filepath"
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/teleclaims/claimtrack/internal/ocr"
)

// IDGenerator generates unique names for archived receipt images
type IDGenerator interface {
	Generate() string
}

// TimeSource provides the current time
type TimeSource interface {
	Now() time.Time
}

// defaultIDGenerator generates IDs using UnixNano timestamp
type defaultIDGenerator struct{}

func (g *defaultIDGenerator) Generate() string {
	return fmt.Sprintf("%d", time.Now().UnixNano())
}

// defaultTimeSource provides the current time
type defaultTimeSource struct{}

func (t *defaultTimeSource) Now() time.Time {
	return time.Now()
}

// ReceiptScan is the result of running a receipt image through text
// extraction and price detection
type ReceiptScan struct {
	Text       string `json:"text"`
	Price      string `json:"price,omitempty"`
	PriceFound bool   `json:"price_found"`
	ArchivedAs string `json:"archived_as"`
}

// Service enforces the claim lifecycle: validation, state transitions,
// and admin authorization
type Service struct {
	db          DB
	extractor   ocr.Extractor
	archive     Archive
	admins      AdminSet
	idGenerator IDGenerator
	timeSource  TimeSource
}

// NewService creates a new Service with default ID generator and time source
func NewService(db DB, extractor ocr.Extractor, archive Archive, admins AdminSet) *Service {
	return &Service{
		db:          db,
		extractor:   extractor,
		archive:     archive,
		admins:      admins,
		idGenerator: &defaultIDGenerator{},
		timeSource:  &defaultTimeSource{},
	}
}

// NewServiceWithDeps creates a new Service with custom dependencies for testing
func NewServiceWithDeps(db DB, extractor ocr.Extractor, archive Archive, admins AdminSet, idGen IDGenerator, timeSrc TimeSource) *Service {
	return &Service{
		db:          db,
		extractor:   extractor,
		archive:     archive,
		admins:      admins,
		idGenerator: idGen,
		timeSource:  timeSrc,
	}
}

// maxPrice caps submissions so the cents conversion stays well inside
// the int range
const maxPrice = 1e12

// parseAmount converts a price string to non-negative cents
func parseAmount(priceText string) (int, error) {
	price, err := strconv.ParseFloat(strings.TrimSpace(priceText), 64)
	if err != nil {
		return 0, fmt.Errorf("price %q is not a number: %w", priceText, ErrInvalidArgument)
	}
	if math.IsNaN(price) || math.IsInf(price, 0) || price < 0 {
		return 0, fmt.Errorf("price %q is not a non-negative number: %w", priceText, ErrInvalidArgument)
	}
	if price > maxPrice {
		return 0, fmt.Errorf("price %q exceeds the maximum of %.0f: %w", priceText, float64(maxPrice), ErrInvalidArgument)
	}
	return int(math.Round(price * 100)), nil
}

// SubmitRequest validates the submitted fields and creates a new PENDING claim.
// Any validation failure creates nothing.
func (s *Service) SubmitRequest(requesterID int64, requesterName, item, link, priceText string) (*Claim, error) {
	if strings.TrimSpace(item) == "" {
		return nil, fmt.Errorf("item is required: %w", ErrInvalidArgument)
	}
	if strings.TrimSpace(link) == "" {
		return nil, fmt.Errorf("link is required: %w", ErrInvalidArgument)
	}
	amountCents, err := parseAmount(priceText)
	if err != nil {
		return nil, err
	}

	claim, err := s.db.CreateClaim(Draft{
		RequesterID:   requesterID,
		RequesterName: requesterName,
		Item:          item,
		Link:          link,
		AmountCents:   amountCents,
		CreatedAt:     s.timeSource.Now(),
	})
	if err != nil {
		return nil, fmt.Errorf("creating claim: %w", err)
	}
	return claim, nil
}

// Approve transitions a pending claim to APPROVED
func (s *Service) Approve(callerID int64, idText string) (Status, error) {
	return s.transition(callerID, idText, StatusApproved)
}

// Reject transitions a pending claim to REJECTED
func (s *Service) Reject(callerID int64, idText string) (Status, error) {
	return s.transition(callerID, idText, StatusRejected)
}

// transition applies an admin disposition to a claim. Authorization is
// checked before anything else so unauthorized calls have no side effect.
func (s *Service) transition(callerID int64, idText string, status Status) (Status, error) {
	if !s.admins.Contains(callerID) {
		return "", fmt.Errorf("caller %d: %w", callerID, ErrUnauthorized)
	}

	id, err := strconv.ParseUint(strings.TrimSpace(idText), 10, 64)
	if err != nil {
		return "", fmt.Errorf("claim id %q is not an integer: %w", idText, ErrInvalidArgument)
	}

	claim, err := s.db.UpdateClaimStatus(id, status, s.timeSource.Now())
	if err != nil {
		return "", err
	}
	return claim.Status, nil
}

// ListRequests returns all claims in creation order. Any caller may list.
func (s *Service) ListRequests() ([]*Claim, error) {
	claims, err := s.db.ListClaims()
	if err != nil {
		return nil, fmt.Errorf("listing claims: %w", err)
	}
	return claims, nil
}

// GetClaim retrieves a claim by ID
func (s *Service) GetClaim(id uint64) (*Claim, error) {
	claim, err := s.db.GetClaim(id)
	if err != nil {
		return nil, err
	}
	return claim, nil
}

// sanitizeFilename cleans up a filename by removing special characters and truncating length
func sanitizeFilename(filename string) string {
	ext := filepath.Ext(filename)
	base := strings.TrimSuffix(filename, ext)

	// Keep only alphanumeric, spaces, hyphens, and underscores
	base = regexp.MustCompile(`[^a-zA-Z0-9\s\-_]`).ReplaceAllString(base, "")
	base = regexp.MustCompile(`\s+`).ReplaceAllString(base, " ")
	base = strings.TrimSpace(base)

	maxLen := 50
	if len(base) > maxLen {
		base = base[:maxLen]
	}
	if base == "" {
		base = "receipt"
	}

	return base + ext
}

// ProcessReceipt archives an uploaded receipt image, extracts its text,
// and derives a candidate price from the first price-like token
func (s *Service) ProcessReceipt(filename string, data []byte, contentType string) (*ReceiptScan, error) {
	id := s.idGenerator.Generate()
	cleanFilename := sanitizeFilename(filename)

	savedPath, err := s.archive.Save(fmt.Sprintf("%s_%s", id, cleanFilename), data)
	if err != nil {
		return nil, fmt.Errorf("archiving image: %w", err)
	}

	text, err := s.extractor.ExtractText(data, contentType)
	if err != nil {
		slog.Error("Failed to extract receipt text",
			"filename", filename,
			"content_type", contentType,
			"file_size", len(data),
			"error", err,
		)
		// Drop the archived copy since extraction failed
		s.archive.Delete(savedPath)
		return nil, fmt.Errorf("extracting receipt text: %w", err)
	}

	price, found := ocr.ParsePrice(text)

	return &ReceiptScan{
		Text:       text,
		Price:      price,
		PriceFound: found,
		ArchivedAs: savedPath,
	}, nil
}
