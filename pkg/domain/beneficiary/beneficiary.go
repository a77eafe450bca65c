package beneficiary

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Status of a fundraising subject.
type Status string

const (
	StatusSubmitted         Status = "SUBMITTED"
	StatusPublished         Status = "PUBLISHED"
	StatusAwaitingFunding   Status = "AWAITING_FUNDING"
	StatusFullyFunded       Status = "FULLY_FUNDED"
	StatusTreatmentComplete Status = "TREATMENT_COMPLETE"
)

var hundred = decimal.NewFromInt(100)

// Beneficiary is the funding record donations are credited to.
type Beneficiary struct {
	ID              uuid.UUID
	FullName        string
	Status          Status
	FundingRequired decimal.Decimal
	FundingReceived decimal.Decimal
	UpdatedAt       time.Time
}

// AcceptsDonations reports whether the beneficiary is an active fundraising
// subject. Fully funded beneficiaries keep accepting over-funding.
func (b *Beneficiary) AcceptsDonations() bool {
	switch b.Status {
	case StatusPublished, StatusAwaitingFunding, StatusFullyFunded:
		return true
	default:
		return false
	}
}

// Percentage returns received/required*100 clamped to [0, 100].
func Percentage(received, required decimal.Decimal) decimal.Decimal {
	if !required.IsPositive() {
		return decimal.Zero
	}
	p := received.Div(required).Mul(hundred)
	if p.GreaterThan(hundred) {
		return hundred
	}
	if p.IsNegative() {
		return decimal.Zero
	}
	return p
}

// FundingPercentage is Percentage for the record's current totals.
func (b *Beneficiary) FundingPercentage() decimal.Decimal {
	return Percentage(b.FundingReceived, b.FundingRequired)
}

// Remaining is the amount still needed, never negative.
func (b *Beneficiary) Remaining() decimal.Decimal {
	r := b.FundingRequired.Sub(b.FundingReceived)
	if r.IsNegative() {
		return decimal.Zero
	}
	return r
}

// IsFullyFunded reports whether the received total meets the requirement.
func (b *Beneficiary) IsFullyFunded() bool {
	return b.FundingRequired.IsPositive() && b.FundingReceived.GreaterThanOrEqual(b.FundingRequired)
}

// CrossedMilestones returns the thresholds passed strictly above before and
// at or below after, in ascending order of the input.
func CrossedMilestones(before, after decimal.Decimal, thresholds []int) []int {
	var crossed []int
	for _, t := range thresholds {
		th := decimal.NewFromInt(int64(t))
		if before.LessThan(th) && after.GreaterThanOrEqual(th) {
			crossed = append(crossed, t)
		}
	}
	return crossed
}
