package repository

import (
	"context"
	"time"

	"github.com/amirasaad/donation/pkg/domain/beneficiary"
	"github.com/amirasaad/donation/pkg/domain/donation"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// StatusUpdate carries the fields written together with a status transition.
// Empty fields are left untouched.
type StatusUpdate struct {
	ProviderTransactionID string
	FailureReason         string
	CompletedAt           *time.Time
}

// DonationRepository defines the interface for donation data access operations.
type DonationRepository interface {
	Create(ctx context.Context, d *donation.Donation) error
	Get(ctx context.Context, id uuid.UUID) (*donation.Donation, error)
	GetByExternalReference(ctx context.Context, ref string) (*donation.Donation, error)
	// GetByProviderTransactionID returns a donation by the gateway's transaction id.
	GetByProviderTransactionID(ctx context.Context, txnID string) (*donation.Donation, error)
	SetExternalReference(ctx context.Context, id uuid.UUID, ref string) error
	SetProviderTransactionID(ctx context.Context, id uuid.UUID, txnID string) error
	// TransitionStatus moves the donation from expected to next in a single
	// conditional write. It returns false, without error, when the stored
	// status was not expected.
	TransitionStatus(
		ctx context.Context,
		id uuid.UUID,
		expected, next donation.Status,
		update StatusUpdate,
	) (bool, error)
}

// FundingChange reports the totals around one atomic increment.
type FundingChange struct {
	Before   decimal.Decimal
	After    decimal.Decimal
	Required decimal.Decimal
	Status   beneficiary.Status
}

// BeneficiaryRepository defines the interface for funding record access.
type BeneficiaryRepository interface {
	Create(ctx context.Context, b *beneficiary.Beneficiary) error
	Get(ctx context.Context, id uuid.UUID) (*beneficiary.Beneficiary, error)
	// IncrementFunding adds delta to funding_received without a read-modify-write.
	IncrementFunding(ctx context.Context, id uuid.UUID, delta decimal.Decimal) (*FundingChange, error)
	// PromoteStatus sets next when the current status is one of from.
	PromoteStatus(ctx context.Context, id uuid.UUID, from []beneficiary.Status, next beneficiary.Status) (bool, error)
}
