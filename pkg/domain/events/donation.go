package events

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// DonationCompleted is emitted after a donation reaches COMPLETED and its
// funding credit is committed.
type DonationCompleted struct {
	DonationID            uuid.UUID       `json:"donation_id"`
	BeneficiaryID         *uuid.UUID      `json:"beneficiary_id,omitempty"`
	Amount                decimal.Decimal `json:"amount"`
	PatientAmount         decimal.Decimal `json:"patient_amount"`
	Currency              string          `json:"currency"`
	ProviderTransactionID string          `json:"provider_transaction_id"`
	CompletedAt           time.Time       `json:"completed_at"`
}

func (e DonationCompleted) Type() string { return EventTypeDonationCompleted.String() }

// DonationFailed is emitted after a donation reaches FAILED or CANCELLED.
type DonationFailed struct {
	DonationID uuid.UUID `json:"donation_id"`
	Status     string    `json:"status"`
	Reason     string    `json:"reason"`
}

func (e DonationFailed) Type() string { return EventTypeDonationFailed.String() }

// FundingMilestone is emitted when a credit pushes a beneficiary's funding
// percentage across a configured threshold.
type FundingMilestone struct {
	BeneficiaryID uuid.UUID       `json:"beneficiary_id"`
	DonationID    uuid.UUID       `json:"donation_id"`
	Threshold     int             `json:"threshold"`
	Received      decimal.Decimal `json:"received"`
	Required      decimal.Decimal `json:"required"`
	Percentage    decimal.Decimal `json:"percentage"`
}

func (e FundingMilestone) Type() string { return EventTypeFundingMilestone.String() }

// FundingCompleted is emitted once when a beneficiary is promoted to
// FULLY_FUNDED.
type FundingCompleted struct {
	BeneficiaryID uuid.UUID       `json:"beneficiary_id"`
	Received      decimal.Decimal `json:"received"`
	Required      decimal.Decimal `json:"required"`
}

func (e FundingCompleted) Type() string { return EventTypeFundingCompleted.String() }
