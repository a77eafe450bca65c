// Package funding credits completed donations to beneficiaries and reports
// the milestones each credit crosses.
package funding

import (
	"context"
	"fmt"
	"log/slog"
	"slices"

	"github.com/amirasaad/donation/pkg/domain/beneficiary"
	"github.com/amirasaad/donation/pkg/domain/events"
	"github.com/amirasaad/donation/pkg/repository"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// DefaultMilestones are the percentage thresholds reported when none are
// configured.
var DefaultMilestones = []int{25, 50, 75, 100}

// Credit describes the effect of one credit.
type Credit struct {
	BeneficiaryID uuid.UUID
	Before        decimal.Decimal
	After         decimal.Decimal
	Required      decimal.Decimal
	Percentage    decimal.Decimal
	Milestones    []int
	// Promoted is true when this credit moved the beneficiary to FULLY_FUNDED.
	Promoted bool
	// Events are to be emitted once the surrounding unit of work commits.
	Events []events.Event
}

// Snapshot is the read model of a beneficiary's funding.
type Snapshot struct {
	BeneficiaryID uuid.UUID          `json:"beneficiary_id"`
	FullName      string             `json:"full_name"`
	Status        beneficiary.Status `json:"status"`
	Required      decimal.Decimal    `json:"funding_required"`
	Received      decimal.Decimal    `json:"funding_received"`
	Remaining     decimal.Decimal    `json:"remaining"`
	Percentage    decimal.Decimal    `json:"percentage"`
}

// Aggregator maintains beneficiary funding totals.
type Aggregator struct {
	uow        repository.UnitOfWork
	milestones []int
	logger     *slog.Logger
}

// New creates an Aggregator. Thresholds outside 1..100 are dropped.
func New(uow repository.UnitOfWork, milestones []int, logger *slog.Logger) *Aggregator {
	if logger == nil {
		logger = slog.Default()
	}
	valid := make([]int, 0, len(milestones))
	for _, m := range milestones {
		if m > 0 && m <= 100 && !slices.Contains(valid, m) {
			valid = append(valid, m)
		}
	}
	if len(valid) == 0 {
		valid = append(valid, DefaultMilestones...)
	}
	slices.Sort(valid)
	return &Aggregator{
		uow:        uow,
		milestones: valid,
		logger:     logger.With("service", "funding"),
	}
}

// Credit adds delta to the beneficiary's received total through repo, which
// must be bound to the caller's transaction. donationID is only used to
// attribute milestone events.
func (a *Aggregator) Credit(
	ctx context.Context,
	repo repository.BeneficiaryRepository,
	beneficiaryID uuid.UUID,
	delta decimal.Decimal,
	donationID uuid.UUID,
) (*Credit, error) {
	if delta.IsNegative() {
		return nil, fmt.Errorf("funding credit must not be negative: %s", delta)
	}
	log := a.logger.With("beneficiary_id", beneficiaryID, "donation_id", donationID)

	change, err := repo.IncrementFunding(ctx, beneficiaryID, delta)
	if err != nil {
		log.Error("❌ Failed to increment funding", "error", err)
		return nil, fmt.Errorf("increment funding: %w", err)
	}

	before := beneficiary.Percentage(change.Before, change.Required)
	after := beneficiary.Percentage(change.After, change.Required)
	credit := &Credit{
		BeneficiaryID: beneficiaryID,
		Before:        change.Before,
		After:         change.After,
		Required:      change.Required,
		Percentage:    after,
		Milestones:    beneficiary.CrossedMilestones(before, after, a.milestones),
	}

	for _, threshold := range credit.Milestones {
		log.Info("🎯 Funding milestone reached", "threshold", threshold, "percentage", after.StringFixed(2))
		credit.Events = append(credit.Events, &events.FundingMilestone{
			BeneficiaryID: beneficiaryID,
			DonationID:    donationID,
			Threshold:     threshold,
			Received:      change.After,
			Required:      change.Required,
			Percentage:    after,
		})
	}

	if change.Required.IsPositive() && change.After.GreaterThanOrEqual(change.Required) {
		promoted, err := repo.PromoteStatus(ctx, beneficiaryID,
			[]beneficiary.Status{beneficiary.StatusPublished, beneficiary.StatusAwaitingFunding},
			beneficiary.StatusFullyFunded)
		if err != nil {
			return nil, fmt.Errorf("promote beneficiary: %w", err)
		}
		if promoted {
			credit.Promoted = true
			log.Info("🏁 Beneficiary fully funded", "received", change.After, "required", change.Required)
			credit.Events = append(credit.Events, &events.FundingCompleted{
				BeneficiaryID: beneficiaryID,
				Received:      change.After,
				Required:      change.Required,
			})
		}
	}

	log.Info("💰 Funding credited", "delta", delta, "received", change.After, "percentage", after.StringFixed(2))
	return credit, nil
}

// Snapshot returns the current funding figures for a beneficiary.
func (a *Aggregator) Snapshot(ctx context.Context, beneficiaryID uuid.UUID) (*Snapshot, error) {
	repo, err := a.uow.BeneficiaryRepository()
	if err != nil {
		return nil, err
	}
	b, err := repo.Get(ctx, beneficiaryID)
	if err != nil {
		return nil, err
	}
	return &Snapshot{
		BeneficiaryID: b.ID,
		FullName:      b.FullName,
		Status:        b.Status,
		Required:      b.FundingRequired,
		Received:      b.FundingReceived,
		Remaining:     b.Remaining(),
		Percentage:    b.FundingPercentage(),
	}, nil
}

// Milestones returns the configured thresholds in ascending order.
func (a *Aggregator) Milestones() []int {
	return slices.Clone(a.milestones)
}
