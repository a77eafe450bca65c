package repository

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Donation represents a persisted donation and its payment attempt.
type Donation struct {
	ID                uuid.UUID `gorm:"type:uuid;primaryKey"`
	ExternalReference *string   `gorm:"type:varchar(100);uniqueIndex"`

	Amount          decimal.Decimal `gorm:"type:decimal(20,2);not null"`
	PatientAmount   decimal.Decimal `gorm:"type:decimal(20,2);not null;default:0"`
	SupportAmount   decimal.Decimal `gorm:"type:decimal(20,2);not null;default:0"`
	Currency        string          `gorm:"type:varchar(3);not null"`
	GatewayAmount   decimal.Decimal `gorm:"type:decimal(20,2);not null;default:0"`
	GatewayCurrency string          `gorm:"type:varchar(3);not null"`

	BeneficiaryID *uuid.UUID `gorm:"type:uuid;index"`
	DonorID       *uuid.UUID `gorm:"type:uuid;index"`

	IsAnonymous    bool   `gorm:"not null;default:false"`
	AnonymousName  string `gorm:"type:varchar(200)"`
	AnonymousEmail string `gorm:"type:varchar(254)"`
	Message        string `gorm:"type:text"`

	PaymentMethod string `gorm:"type:varchar(20);not null"`
	Provider      string `gorm:"type:varchar(20);not null"`
	AccountNumber string `gorm:"type:varchar(30)"`

	Status                string  `gorm:"type:varchar(20);not null;default:'PENDING';index"`
	ProviderTransactionID *string `gorm:"type:varchar(100);uniqueIndex"`
	FailureReason         string  `gorm:"type:text"`

	CreatedAt   time.Time
	UpdatedAt   time.Time
	CompletedAt *time.Time
}

// TableName specifies the table name for the Donation model.
func (Donation) TableName() string {
	return "donations"
}

// Beneficiary is the patient funding record.
type Beneficiary struct {
	ID              uuid.UUID       `gorm:"type:uuid;primaryKey"`
	FullName        string          `gorm:"type:varchar(200);not null"`
	Status          string          `gorm:"type:varchar(30);not null;default:'SUBMITTED'"`
	FundingRequired decimal.Decimal `gorm:"type:decimal(20,2);not null;default:0"`
	FundingReceived decimal.Decimal `gorm:"type:decimal(20,2);not null;default:0"`
	CreatedAt       time.Time
	UpdatedAt       time.Time
}

// TableName specifies the table name for the Beneficiary model.
func (Beneficiary) TableName() string {
	return "patients"
}

// Models lists every persisted model, in dependency order.
func Models() []any {
	return []any{&Beneficiary{}, &Donation{}}
}
