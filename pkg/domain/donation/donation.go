package donation

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Status is the payment lifecycle state of a donation.
type Status string

const (
	StatusPending   Status = "PENDING"
	StatusCompleted Status = "COMPLETED"
	StatusFailed    Status = "FAILED"
	StatusCancelled Status = "CANCELLED"
	StatusRefunded  Status = "REFUNDED"
)

// IsTerminal reports whether no gateway outcome can move the donation anymore.
func (s Status) IsTerminal() bool {
	return s != StatusPending
}

func (s Status) String() string { return string(s) }

// CanTransitionTo enforces the monotonic lifecycle
// PENDING -> COMPLETED|FAILED|CANCELLED, COMPLETED -> REFUNDED.
func (s Status) CanTransitionTo(next Status) bool {
	switch s {
	case StatusPending:
		return next == StatusCompleted || next == StatusFailed || next == StatusCancelled
	case StatusCompleted:
		return next == StatusRefunded
	default:
		return false
	}
}

// PaymentMethod selects the gateway checkout kind.
type PaymentMethod string

const (
	MethodMobileMoney PaymentMethod = "MOBILE_MONEY"
	MethodBank        PaymentMethod = "BANK"
	// MethodBillPay marks payments pushed by the gateway against a bill
	// identifier; no checkout is started for them.
	MethodBillPay PaymentMethod = "BILL_PAY"
)

// Donation is a single donor contribution and its payment attempt.
//
// Invariants:
//   - Amount = PatientAmount + SupportAmount, Amount > 0, both parts >= 0.
//   - ExternalReference is globally unique and embeds ID.
//   - Status only moves forward (see Status.CanTransitionTo).
type Donation struct {
	ID                uuid.UUID
	ExternalReference string

	Amount        decimal.Decimal
	PatientAmount decimal.Decimal
	SupportAmount decimal.Decimal
	Currency      string

	// GatewayAmount is what was actually requested from the gateway,
	// in GatewayCurrency, after the static currency policy.
	GatewayAmount   decimal.Decimal
	GatewayCurrency string

	BeneficiaryID *uuid.UUID
	DonorID       *uuid.UUID

	IsAnonymous    bool
	AnonymousName  string
	AnonymousEmail string
	Message        string

	PaymentMethod PaymentMethod
	Provider      string
	AccountNumber string

	Status                Status
	ProviderTransactionID string
	FailureReason         string

	CreatedAt   time.Time
	UpdatedAt   time.Time
	CompletedAt *time.Time
}

// Split is the canonical amount shape of a donation.
type Split struct {
	PatientAmount decimal.Decimal
	SupportAmount decimal.Decimal
}

// Total is the gross donation amount.
func (s Split) Total() decimal.Decimal {
	return s.PatientAmount.Add(s.SupportAmount)
}

// PlainSplit converts a single amount into the canonical split shape,
// crediting all of it to the beneficiary.
func PlainSplit(amount decimal.Decimal) Split {
	return Split{PatientAmount: amount, SupportAmount: decimal.Zero}
}

// HasBeneficiary reports whether completion must credit a funding record.
func (d *Donation) HasBeneficiary() bool {
	return d.BeneficiaryID != nil && *d.BeneficiaryID != uuid.Nil
}
