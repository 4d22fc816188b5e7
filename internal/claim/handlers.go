package claim

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/teleclaims/claimtrack/internal/ocr"
)

// userIDHeader carries the transport-owned caller identity
const userIDHeader = "X-User-ID"

// userNameHeader carries the caller's display name, best effort
const userNameHeader = "X-User-Name"

// setCORSHeaders sets CORS headers on a response
func setCORSHeaders(w http.ResponseWriter) {
	w.Header().Set("Access-Control-Allow-Origin", "*")
	w.Header().Set("Access-Control-Allow-Methods", "GET, POST, OPTIONS")
	w.Header().Set("Access-Control-Allow-Headers", "Content-Type, X-User-ID, X-User-Name")
	w.Header().Set("Access-Control-Max-Age", "3600")
}

// statusForError maps lifecycle and extraction errors to HTTP status codes
func statusForError(err error) int {
	switch {
	case errors.Is(err, ErrInvalidArgument):
		return http.StatusBadRequest
	case errors.Is(err, ErrUnauthorized):
		return http.StatusForbidden
	case errors.Is(err, ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, ErrAlreadyFinalized):
		return http.StatusConflict
	case errors.Is(err, ocr.ErrExtractionFailed):
		return http.StatusBadGateway
	default:
		return http.StatusInternalServerError
	}
}

// writeError writes a JSON error response with CORS headers set
func writeError(w http.ResponseWriter, err error) {
	setCORSHeaders(w)
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusForError(err))
	json.NewEncoder(w).Encode(map[string]string{
		"error": err.Error(),
	})
}

// writeJSON writes a JSON response with the given status code
func writeJSON(w http.ResponseWriter, code int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	if err := json.NewEncoder(w).Encode(body); err != nil {
		slog.Error("Error encoding response", "error", err)
	}
}

// callerIdentity reads the transport-owned user identity from request headers
func callerIdentity(r *http.Request) (int64, string, error) {
	raw := r.Header.Get(userIDHeader)
	if raw == "" {
		return 0, "", fmt.Errorf("%s header is required: %w", userIDHeader, ErrInvalidArgument)
	}
	id, err := strconv.ParseInt(raw, 10, 64)
	if err != nil {
		return 0, "", fmt.Errorf("%s header %q is not an integer: %w", userIDHeader, raw, ErrInvalidArgument)
	}
	return id, r.Header.Get(userNameHeader), nil
}

// handleSubmitClaim creates a new claim from the submitted fields
func (s *Server) handleSubmitClaim(w http.ResponseWriter, r *http.Request) {
	callerID, callerName, err := callerIdentity(r)
	if err != nil {
		writeError(w, err)
		return
	}

	var req struct {
		Item  string `json:"item"`
		Link  string `json:"link"`
		Price string `json:"price"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, fmt.Errorf("invalid request body: %w", ErrInvalidArgument))
		return
	}

	claim, err := s.service.SubmitRequest(callerID, callerName, req.Item, req.Link, req.Price)
	if err != nil {
		slog.Error("Error submitting claim", "requester_id", callerID, "error", err)
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusCreated, claim)
}

// handleListClaims returns all claims in creation order
func (s *Server) handleListClaims(w http.ResponseWriter, r *http.Request) {
	claims, err := s.service.ListRequests()
	if err != nil {
		slog.Error("Error listing claims", "error", err)
		writeError(w, err)
		return
	}

	// Ensure we always return an array, not nil
	if claims == nil {
		claims = []*Claim{}
	}

	writeJSON(w, http.StatusOK, claims)
}

// handleGetClaim returns a single claim
func (s *Server) handleGetClaim(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.ParseUint(r.PathValue("id"), 10, 64)
	if err != nil {
		writeError(w, fmt.Errorf("claim id %q is not an integer: %w", r.PathValue("id"), ErrInvalidArgument))
		return
	}

	claim, err := s.service.GetClaim(id)
	if err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, claim)
}

// handleApproveClaim transitions a claim to APPROVED
func (s *Server) handleApproveClaim(w http.ResponseWriter, r *http.Request) {
	s.handleTransition(w, r, (*Service).Approve)
}

// handleRejectClaim transitions a claim to REJECTED
func (s *Server) handleRejectClaim(w http.ResponseWriter, r *http.Request) {
	s.handleTransition(w, r, (*Service).Reject)
}

// handleTransition applies an admin disposition and returns the new status
// for confirmation display
func (s *Server) handleTransition(w http.ResponseWriter, r *http.Request, transition func(*Service, int64, string) (Status, error)) {
	callerID, _, err := callerIdentity(r)
	if err != nil {
		writeError(w, err)
		return
	}

	idText := r.PathValue("id")
	status, err := transition(s.service, callerID, idText)
	if err != nil {
		slog.Error("Error transitioning claim", "claim_id", idText, "caller_id", callerID, "error", err)
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"id":     idText,
		"status": status,
	})
}

// handleUploadReceipt handles receipt image upload and text extraction
func (s *Server) handleUploadReceipt(w http.ResponseWriter, r *http.Request) {
	// Limit uploads to 50MB, enough for high-resolution phone photos.
	// MaxBytesReader enforces the cap on the request body itself.
	maxFormSize := int64(50 << 20) // 50MB
	r.Body = http.MaxBytesReader(w, r.Body, maxFormSize)
	if err := r.ParseMultipartForm(maxFormSize); err != nil {
		slog.Error("Error parsing multipart form", "error", err)
		writeError(w, fmt.Errorf("error parsing form: %w", ErrInvalidArgument))
		return
	}

	f, header, err := r.FormFile("file")
	if err != nil {
		slog.Error("Error getting file from form", "error", err)
		writeError(w, fmt.Errorf("no file provided: %w", ErrInvalidArgument))
		return
	}
	defer f.Close()

	data, err := io.ReadAll(f)
	if err != nil {
		slog.Error("Error reading file data", "error", err, "filename", header.Filename)
		writeError(w, fmt.Errorf("reading file: %w", err))
		return
	}

	contentType := detectContentType(header.Header.Get("Content-Type"), header.Filename)

	scan, err := s.service.ProcessReceipt(header.Filename, data, contentType)
	if err != nil {
		slog.Error("Error processing receipt", "filename", header.Filename, "error", err)
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, scan)
}

// detectContentType falls back to the file extension when the upload
// carries no Content-Type
func detectContentType(contentType, filename string) string {
	contentType = strings.ToLower(strings.TrimSpace(contentType))
	if contentType != "" {
		return contentType
	}

	switch strings.ToLower(filepath.Ext(filename)) {
	case ".jpg", ".jpeg":
		return "image/jpeg"
	case ".png":
		return "image/png"
	case ".pdf":
		return "application/pdf"
	case ".heic":
		return "image/heic"
	case ".heif":
		return "image/heif"
	default:
		return "application/octet-stream"
	}
}
