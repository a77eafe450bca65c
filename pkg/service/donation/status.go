package donation

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/amirasaad/donation/pkg/domain"
	"github.com/amirasaad/donation/pkg/domain/donation"
	"github.com/amirasaad/donation/pkg/provider/payment"
	"github.com/amirasaad/donation/pkg/repository"
	"github.com/amirasaad/donation/pkg/service/reconcile"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Snapshot is the donor-facing view of a donation. Failure reasons stay
// server-side.
type Snapshot struct {
	DonationID  uuid.UUID       `json:"donation_id"`
	Status      donation.Status `json:"status"`
	Amount      decimal.Decimal `json:"amount" swaggertype:"number"`
	Currency    string          `json:"currency"`
	CreatedAt   time.Time       `json:"created_at"`
	CompletedAt *time.Time      `json:"completed_at,omitempty"`
}

func newSnapshot(d *donation.Donation) *Snapshot {
	return &Snapshot{
		DonationID:  d.ID,
		Status:      d.Status,
		Amount:      d.Amount,
		Currency:    d.Currency,
		CreatedAt:   d.CreatedAt,
		CompletedAt: d.CompletedAt,
	}
}

// StatusService answers status queries, polling the gateway for donations
// that are still pending.
type StatusService struct {
	uow     repository.UnitOfWork
	gateway payment.Payment
	engine  *reconcile.Engine
	logger  *slog.Logger
}

// NewStatusService creates a StatusService.
func NewStatusService(
	uow repository.UnitOfWork,
	gateway payment.Payment,
	engine *reconcile.Engine,
	logger *slog.Logger,
) *StatusService {
	if logger == nil {
		logger = slog.Default()
	}
	return &StatusService{
		uow:     uow,
		gateway: gateway,
		engine:  engine,
		logger:  logger.With("service", "donation_status"),
	}
}

// Check returns the donation's snapshot. A pending donation is polled at the
// gateway first and a terminal answer is reconciled; poll failures are
// logged and the stored state is returned.
func (s *StatusService) Check(ctx context.Context, id uuid.UUID) (*Snapshot, error) {
	logger := s.logger.With("donation_id", id)
	repo, err := s.uow.DonationRepository()
	if err != nil {
		return nil, err
	}
	d, err := repo.Get(ctx, id)
	if errors.Is(err, domain.ErrNotFound) {
		return nil, domain.NewNotFoundError(fmt.Sprintf("donation %s", id))
	}
	if err != nil {
		return nil, err
	}
	if d.Status != donation.StatusPending {
		return newSnapshot(d), nil
	}

	resp, err := s.gateway.GetPaymentStatus(ctx, &payment.GetPaymentStatusParams{
		PaymentID: d.ProviderTransactionID,
		Reference: d.ExternalReference,
	})
	if err != nil {
		logger.Warn("⚠️ Gateway status poll failed", "error", err)
		return newSnapshot(d), nil
	}
	logger.Debug("🔎 Gateway status", "status", resp.Status, "raw_status", resp.RawStatus)
	if !resp.Status.IsTerminal() {
		return newSnapshot(d), nil
	}

	if _, err := s.engine.Apply(ctx, reconcile.Outcome{
		DonationID:            d.ID,
		ProviderTransactionID: resp.PaymentID,
		RawStatus:             resp.RawStatus,
		Status:                resp.Status,
		Message:               resp.Message,
		Source:                reconcile.SourceStatus,
	}); err != nil {
		logger.Error("❌ Failed to reconcile polled status", "error", err)
		return newSnapshot(d), nil
	}

	updated, err := repo.Get(ctx, id)
	if err != nil {
		logger.Error("❌ Failed to reload donation", "error", err)
		return newSnapshot(d), nil
	}
	return newSnapshot(updated), nil
}

// ManualUpdate settles a donation by hand. It goes through the
// reconciliation engine like any gateway outcome.
func (s *StatusService) ManualUpdate(ctx context.Context, id uuid.UUID, status string) (*reconcile.Result, error) {
	if id == uuid.Nil {
		return nil, domain.NewValidationError("donation_id", "required")
	}
	parsed := payment.ParseStatus(status)
	if !parsed.IsTerminal() {
		return nil, domain.NewValidationError("status", fmt.Sprintf("%q is not a terminal payment status", status))
	}

	res, err := s.engine.Apply(ctx, reconcile.Outcome{
		DonationID:    id,
		RawStatus:     status,
		Status:        parsed,
		FailureReason: "manual update",
		Source:        reconcile.SourceManual,
	})
	if err != nil {
		return nil, err
	}
	if res.Disposition == reconcile.NotFound {
		return nil, domain.NewNotFoundError(fmt.Sprintf("donation %s", id))
	}
	s.logger.Info("🛠️ Manual update", "donation_id", id, "status", parsed, "disposition", res.Disposition)
	return res, nil
}
