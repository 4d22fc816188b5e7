package claim

import (
	"encoding/binary"
	"encoding/json"
	"fmt"
	"time"

	"go.etcd.io/bbolt"
)

const bucketName = "claims"

// DB defines the interface for claim persistence
type DB interface {
	// CreateClaim persists a new claim with status PENDING and returns it with its assigned ID
	CreateClaim(draft Draft) (*Claim, error)

	// GetClaim retrieves a claim by ID
	GetClaim(id uint64) (*Claim, error)

	// UpdateClaimStatus transitions a pending claim to the given status
	UpdateClaimStatus(id uint64, status Status, updatedAt time.Time) (*Claim, error)

	// ListClaims returns all claims in creation order
	ListClaims() ([]*Claim, error)

	// Close closes the database connection
	Close() error
}

// BoltDB implements the DB interface using BoltDB
type BoltDB struct {
	db *bbolt.DB
}

// NewBoltDB creates a new BoltDB instance
func NewBoltDB(path string) (*BoltDB, error) {
	db, err := bbolt.Open(path, 0600, &bbolt.Options{Timeout: 1 * time.Second})
	if err != nil {
		return nil, fmt.Errorf("opening boltdb: %w", err)
	}

	err = db.Update(func(tx *bbolt.Tx) error {
		_, err := tx.CreateBucketIfNotExists([]byte(bucketName))
		return err
	})
	if err != nil {
		db.Close()
		return nil, fmt.Errorf("creating bucket: %w", err)
	}

	return &BoltDB{db: db}, nil
}

// claimKey encodes a claim ID as a big-endian key so bucket iteration
// order matches creation order
func claimKey(id uint64) []byte {
	key := make([]byte, 8)
	binary.BigEndian.PutUint64(key, id)
	return key
}

// CreateClaim persists a new claim with status PENDING and returns it with its assigned ID
func (b *BoltDB) CreateClaim(draft Draft) (*Claim, error) {
	claim := &Claim{
		RequesterID:   draft.RequesterID,
		RequesterName: draft.RequesterName,
		Item:          draft.Item,
		Link:          draft.Link,
		AmountCents:   draft.AmountCents,
		Status:        StatusPending,
		CreatedAt:     draft.CreatedAt,
		UpdatedAt:     draft.CreatedAt,
	}

	err := b.db.Update(func(tx *bbolt.Tx) error {
		bucket := tx.Bucket([]byte(bucketName))
		id, err := bucket.NextSequence()
		if err != nil {
			return fmt.Errorf("assigning claim id: %w", err)
		}
		claim.ID = id

		data, err := json.Marshal(claim)
		if err != nil {
			return fmt.Errorf("marshaling claim: %w", err)
		}
		return bucket.Put(claimKey(id), data)
	})
	if err != nil {
		return nil, fmt.Errorf("creating claim: %w", err)
	}
	return claim, nil
}

// GetClaim retrieves a claim by ID
func (b *BoltDB) GetClaim(id uint64) (*Claim, error) {
	var claim *Claim
	err := b.db.View(func(tx *bbolt.Tx) error {
		bucket := tx.Bucket([]byte(bucketName))
		data := bucket.Get(claimKey(id))
		if data == nil {
			return fmt.Errorf("claim %d: %w", id, ErrNotFound)
		}
		return json.Unmarshal(data, &claim)
	})
	if err != nil {
		return nil, err
	}
	return claim, nil
}

// UpdateClaimStatus transitions a pending claim to the given status.
// The read-modify-write runs in a single transaction so no two updates
// to the same claim can interleave.
func (b *BoltDB) UpdateClaimStatus(id uint64, status Status, updatedAt time.Time) (*Claim, error) {
	var claim *Claim
	err := b.db.Update(func(tx *bbolt.Tx) error {
		bucket := tx.Bucket([]byte(bucketName))
		data := bucket.Get(claimKey(id))
		if data == nil {
			return fmt.Errorf("claim %d: %w", id, ErrNotFound)
		}
		if err := json.Unmarshal(data, &claim); err != nil {
			return fmt.Errorf("unmarshaling claim: %w", err)
		}
		if claim.Status.Terminal() {
			return fmt.Errorf("claim %d is %s: %w", id, claim.Status, ErrAlreadyFinalized)
		}

		claim.Status = status
		claim.UpdatedAt = updatedAt
		updated, err := json.Marshal(claim)
		if err != nil {
			return fmt.Errorf("marshaling claim: %w", err)
		}
		return bucket.Put(claimKey(id), updated)
	})
	if err != nil {
		return nil, err
	}
	return claim, nil
}

// ListClaims returns all claims in creation order
func (b *BoltDB) ListClaims() ([]*Claim, error) {
	claims := make([]*Claim, 0)
	err := b.db.View(func(tx *bbolt.Tx) error {
		bucket := tx.Bucket([]byte(bucketName))
		return bucket.ForEach(func(k, v []byte) error {
			var claim Claim
			if err := json.Unmarshal(v, &claim); err != nil {
				return fmt.Errorf("unmarshaling claim: %w", err)
			}
			claims = append(claims, &claim)
			return nil
		})
	})
	if err != nil {
		return nil, err
	}
	return claims, nil
}

// Close closes the database connection
func (b *BoltDB) Close() error {
	return b.db.Close()
}
