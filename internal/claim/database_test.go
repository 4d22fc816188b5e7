package claim

import (
	"path/filepath"
	"time"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
)

var _ = Describe("BoltDB", func() {
	var (
		tmpDir string
		dbPath string
		db     *BoltDB
	)

	newDraft := func(item string) Draft {
		return Draft{
			RequesterID:   7,
			RequesterName: "alice",
			Item:          item,
			Link:          "http://x",
			AmountCents:   999,
			CreatedAt:     time.Date(2024, 1, 15, 10, 0, 0, 0, time.UTC),
		}
	}

	BeforeEach(func() {
		tmpDir = GinkgoT().TempDir()
		dbPath = filepath.Join(tmpDir, "test.db")
		var err error
		db, err = NewBoltDB(dbPath)
		Expect(err).NotTo(HaveOccurred())
	})

	AfterEach(func() {
		if db != nil {
			db.Close()
		}
	})

	Describe("CreateClaim", func() {
		var (
			claim *Claim
			err   error
		)

		JustBeforeEach(func() {
			claim, err = db.CreateClaim(newDraft("Widget"))
		})

		When("creating succeeds", func() {
			It("should not return an error", func() {
				Expect(err).NotTo(HaveOccurred())
			})

			It("should assign ID 1 to the first claim", func() {
				Expect(claim.ID).To(Equal(uint64(1)))
			})

			It("should start at PENDING", func() {
				Expect(claim.Status).To(Equal(StatusPending))
			})

			It("should be visible to subsequent reads", func() {
				saved, getErr := db.GetClaim(claim.ID)
				Expect(getErr).NotTo(HaveOccurred())
				Expect(saved.Item).To(Equal("Widget"))
				Expect(saved.AmountCents).To(Equal(999))
			})

			It("should assign strictly increasing IDs", func() {
				second, secondErr := db.CreateClaim(newDraft("Gadget"))
				Expect(secondErr).NotTo(HaveOccurred())
				Expect(second.ID).To(Equal(claim.ID + 1))
			})
		})
	})

	Describe("GetClaim", func() {
		When("the claim does not exist", func() {
			It("fails with not found", func() {
				_, err := db.GetClaim(99)
				Expect(err).To(MatchError(ErrNotFound))
			})
		})
	})

	Describe("UpdateClaimStatus", func() {
		var (
			id        uint64
			status    Status
			updatedAt time.Time
			updated   *Claim
			err       error
		)

		BeforeEach(func() {
			claim, createErr := db.CreateClaim(newDraft("Widget"))
			Expect(createErr).NotTo(HaveOccurred())
			id = claim.ID
			status = StatusApproved
			updatedAt = time.Date(2024, 1, 16, 9, 0, 0, 0, time.UTC)
		})

		JustBeforeEach(func() {
			updated, err = db.UpdateClaimStatus(id, status, updatedAt)
		})

		When("the claim is pending", func() {
			It("should not return an error", func() {
				Expect(err).NotTo(HaveOccurred())
			})

			It("should return the claim with the new status", func() {
				Expect(updated.Status).To(Equal(StatusApproved))
			})

			It("should persist the transition", func() {
				saved, getErr := db.GetClaim(id)
				Expect(getErr).NotTo(HaveOccurred())
				Expect(saved.Status).To(Equal(StatusApproved))
			})

			It("should stamp UpdatedAt with the supplied time", func() {
				saved, getErr := db.GetClaim(id)
				Expect(getErr).NotTo(HaveOccurred())
				Expect(saved.UpdatedAt).To(BeTemporally("==", updatedAt))
				Expect(saved.UpdatedAt).To(BeTemporally(">", saved.CreatedAt))
			})
		})

		When("the claim does not exist", func() {
			BeforeEach(func() {
				id = 99
			})

			It("fails with not found", func() {
				Expect(err).To(MatchError(ErrNotFound))
			})
		})

		When("the claim is already approved", func() {
			BeforeEach(func() {
				_, firstErr := db.UpdateClaimStatus(id, StatusApproved, updatedAt)
				Expect(firstErr).NotTo(HaveOccurred())
				status = StatusRejected
			})

			It("fails with already finalized", func() {
				Expect(err).To(MatchError(ErrAlreadyFinalized))
			})

			It("keeps the original terminal status", func() {
				saved, getErr := db.GetClaim(id)
				Expect(getErr).NotTo(HaveOccurred())
				Expect(saved.Status).To(Equal(StatusApproved))
			})
		})

		When("the claim is already rejected", func() {
			BeforeEach(func() {
				_, firstErr := db.UpdateClaimStatus(id, StatusRejected, updatedAt)
				Expect(firstErr).NotTo(HaveOccurred())
			})

			It("fails with already finalized", func() {
				Expect(err).To(MatchError(ErrAlreadyFinalized))
			})
		})
	})

	Describe("ListClaims", func() {
		var (
			claims []*Claim
			err    error
		)

		JustBeforeEach(func() {
			claims, err = db.ListClaims()
		})

		When("claims exist", func() {
			BeforeEach(func() {
				for _, item := range []string{"first", "second", "third"} {
					_, createErr := db.CreateClaim(newDraft(item))
					Expect(createErr).NotTo(HaveOccurred())
				}
			})

			It("should not return an error", func() {
				Expect(err).NotTo(HaveOccurred())
			})

			It("should return all claims in creation order", func() {
				Expect(claims).To(HaveLen(3))
				Expect(claims[0].Item).To(Equal("first"))
				Expect(claims[1].Item).To(Equal("second"))
				Expect(claims[2].Item).To(Equal("third"))
			})
		})

		When("no claims exist", func() {
			It("should not return an error", func() {
				Expect(err).NotTo(HaveOccurred())
			})

			It("should return an empty list", func() {
				Expect(claims).To(BeEmpty())
			})
		})
	})

	Describe("Close", func() {
		It("should not return an error", func() {
			Expect(db.Close()).NotTo(HaveOccurred())
		})
	})
})
