package claim

import "time"

// Status is the lifecycle state of a claim
type Status string

const (
	StatusPending  Status = "PENDING"
	StatusApproved Status = "APPROVED"
	StatusRejected Status = "REJECTED"
)

// Terminal reports whether a status permits no further transitions
func (s Status) Terminal() bool {
	return s == StatusApproved || s == StatusRejected
}

// Claim represents a purchase-reimbursement request
type Claim struct {
	ID            uint64    `json:"id"`
	RequesterID   int64     `json:"requester_id"`
	RequesterName string    `json:"requester_name,omitempty"`
	Item          string    `json:"item"`
	Link          string    `json:"link"`
	AmountCents   int       `json:"amount"` // Price in cents
	Status        Status    `json:"status"`
	CreatedAt     time.Time `json:"created_at"`
	UpdatedAt     time.Time `json:"updated_at"`
}

// Draft holds the validated fields of a claim before an ID is assigned
type Draft struct {
	RequesterID   int64
	RequesterName string
	Item          string
	Link          string
	AmountCents   int
	CreatedAt     time.Time
}
