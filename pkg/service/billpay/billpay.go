// Package billpay serves the gateway's merchant API for payments made
// against a beneficiary's bill identifier. The bill identifier is the
// beneficiary id.
package billpay

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/amirasaad/donation/pkg/config"
	"github.com/amirasaad/donation/pkg/domain"
	"github.com/amirasaad/donation/pkg/domain/beneficiary"
	"github.com/amirasaad/donation/pkg/domain/donation"
	"github.com/amirasaad/donation/pkg/provider/payment"
	"github.com/amirasaad/donation/pkg/repository"
	"github.com/amirasaad/donation/pkg/service/reconcile"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

const defaultDonorName = "Anonymous Donor"

// Bill is the answer to a name lookup.
type Bill struct {
	Identifier string
	Name       string
	// Amount is what the beneficiary still needs.
	Amount     decimal.Decimal
	Currency   string
}

// Notice is a payment the gateway collected for a bill.
type Notice struct {
	FspReferenceID string
	// PgReferenceID is the gateway's transaction id; deliveries are
	// deduplicated on it.
	PgReferenceID  string
	Amount         decimal.Decimal
	BillIdentifier string
	Description    string
	FspCode        string
	Phone          string
}

// Receipt acknowledges a payment notice.
type Receipt struct {
	MerchantReferenceID string
	DonationID          uuid.UUID
	Status              donation.Status
	// Duplicate is true when the notice had already been processed.
	Duplicate           bool
}

// PaymentState is the answer to a status check.
type PaymentState struct {
	MerchantReferenceID string
	Status              donation.Status
	Amount              decimal.Decimal
	Currency            string
	BillIdentifier      string
	BeneficiaryName     string
	CompletedAt         *time.Time
}

// Service implements name lookup, payment notification and status check.
type Service struct {
	uow         repository.UnitOfWork
	engine      *reconcile.Engine
	prefix      string
	countryCode string
	currency    string
	logger      *slog.Logger
	now         func() time.Time
}

// New creates a Service. Payments are recorded in the settlement currency.
func New(uow repository.UnitOfWork, engine *reconcile.Engine, cfg *config.App, logger *slog.Logger) *Service {
	if logger == nil {
		logger = slog.Default()
	}
	s := &Service{
		uow:         uow,
		engine:      engine,
		prefix:      "RHCI",
		countryCode: "255",
		currency:    "TZS",
		logger:      logger.With("service", "billpay"),
		now:         func() time.Time { return time.Now().UTC() },
	}
	if cfg != nil {
		if cfg.Donation != nil {
			s.prefix = cfg.Donation.ReferencePrefix
			s.countryCode = cfg.Donation.CountryCode
		}
		if cfg.Currency != nil && cfg.Currency.Settlement != "" {
			s.currency = cfg.Currency.Settlement
		}
	}
	return s
}

// Lookup returns the beneficiary behind a bill identifier. Only
// beneficiaries accepting donations are found.
func (s *Service) Lookup(ctx context.Context, billIdentifier string) (*Bill, error) {
	b, err := s.beneficiary(ctx, billIdentifier)
	if err != nil {
		return nil, err
	}
	if !b.AcceptsDonations() {
		s.logger.Warn("⚠️ Bill lookup for inactive beneficiary", "bill_identifier", billIdentifier, "status", b.Status)
		return nil, domain.NewNotFoundError("bill identifier")
	}
	s.logger.Info("🔎 Bill found", "bill_identifier", billIdentifier, "remaining", b.Remaining())
	return &Bill{
		Identifier: billIdentifier,
		Name:       b.FullName,
		Amount:     b.Remaining(),
		Currency:   s.currency,
	}, nil
}

// Pay records a collected payment as a COMPLETED donation and credits the
// beneficiary in the same unit of work. Redelivery of a PgReferenceID
// returns the original receipt.
func (s *Service) Pay(ctx context.Context, n Notice) (*Receipt, error) {
	switch {
	case strings.TrimSpace(n.BillIdentifier) == "":
		return nil, domain.NewValidationError("BillIdentifier", "is required")
	case strings.TrimSpace(n.PgReferenceID) == "":
		return nil, domain.NewValidationError("PgReferenceId", "is required")
	case !n.Amount.IsPositive():
		return nil, domain.NewValidationError("Amount", "must be greater than zero")
	}
	logger := s.logger.With("bill_identifier", n.BillIdentifier, "pg_reference_id", n.PgReferenceID, "amount", n.Amount)
	logger.Info("🟢 [START] Processing bill payment")

	b, err := s.beneficiary(ctx, n.BillIdentifier)
	if err != nil {
		return nil, err
	}

	d := s.build(b.ID, n)
	res, err := s.engine.Record(ctx, d, reconcile.Outcome{
		Reference:             d.ExternalReference,
		ProviderTransactionID: strings.TrimSpace(n.PgReferenceID),
		Status:                payment.PaymentCompleted,
		Source:                reconcile.SourceBillPay,
	})
	if err != nil {
		logger.Error("❌ Failed to record bill payment", "error", err)
		return nil, err
	}

	receipt := &Receipt{
		MerchantReferenceID: d.ExternalReference,
		DonationID:          res.DonationID,
		Status:              res.Status,
		Duplicate:           res.DonationID != d.ID,
	}
	if receipt.Duplicate {
		existing, err := s.donation(ctx, func(repo repository.DonationRepository) (*donation.Donation, error) {
			return repo.Get(ctx, res.DonationID)
		})
		if err != nil {
			return nil, err
		}
		receipt.MerchantReferenceID = existing.ExternalReference
		logger.Warn("🔁 Bill payment already processed", "donation_id", existing.ID)
		return receipt, nil
	}
	logger.Info("✅ [DONE] Bill payment recorded", "donation_id", d.ID, "reference", d.ExternalReference)
	return receipt, nil
}

// Status reports the donation behind a merchant reference.
func (s *Service) Status(ctx context.Context, merchantReferenceID string) (*PaymentState, error) {
	ref := strings.TrimSpace(merchantReferenceID)
	if ref == "" {
		return nil, domain.NewValidationError("MerchantReferenceId", "is required")
	}
	d, err := s.donation(ctx, func(repo repository.DonationRepository) (*donation.Donation, error) {
		return repo.GetByExternalReference(ctx, ref)
	})
	if err != nil {
		return nil, err
	}

	state := &PaymentState{
		MerchantReferenceID: ref,
		Status:              d.Status,
		Amount:              d.Amount,
		Currency:            d.Currency,
		CompletedAt:         d.CompletedAt,
	}
	if d.HasBeneficiary() {
		state.BillIdentifier = d.BeneficiaryID.String()
		repo, err := s.uow.BeneficiaryRepository()
		if err != nil {
			return nil, err
		}
		if b, err := repo.Get(ctx, *d.BeneficiaryID); err == nil {
			state.BeneficiaryName = b.FullName
		} else if !errors.Is(err, domain.ErrNotFound) {
			return nil, err
		}
	}
	return state, nil
}

func (s *Service) build(beneficiaryID uuid.UUID, n Notice) *donation.Donation {
	provider := strings.ToLower(strings.TrimSpace(n.FspCode))
	if provider == "" {
		provider = "ussd"
	}
	d := &donation.Donation{
		ID:              uuid.New(),
		Amount:          n.Amount,
		PatientAmount:   n.Amount,
		SupportAmount:   decimal.Zero,
		Currency:        s.currency,
		GatewayAmount:   n.Amount,
		GatewayCurrency: s.currency,
		BeneficiaryID:   &beneficiaryID,
		IsAnonymous:     true,
		AnonymousName:   defaultDonorName,
		Message:         clip(strings.TrimSpace(n.Description), 500),
		PaymentMethod:   donation.MethodBillPay,
		Provider:        clip(provider, 20),
		AccountNumber:   clip(donation.NormalizePhone(n.Phone, s.countryCode), 30),
		Status:          donation.StatusPending,
	}
	d.ExternalReference = donation.NewReference(s.prefix, d.ID, s.now())
	return d
}

func (s *Service) beneficiary(ctx context.Context, billIdentifier string) (*beneficiary.Beneficiary, error) {
	billIdentifier = strings.TrimSpace(billIdentifier)
	if billIdentifier == "" {
		return nil, domain.NewValidationError("BillIdentifier", "is required")
	}
	id, err := uuid.Parse(billIdentifier)
	if err != nil {
		return nil, domain.NewNotFoundError("bill identifier")
	}
	repo, err := s.uow.BeneficiaryRepository()
	if err != nil {
		return nil, err
	}
	b, err := repo.Get(ctx, id)
	if errors.Is(err, domain.ErrNotFound) {
		return nil, domain.NewNotFoundError("bill identifier")
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load beneficiary: %w", err)
	}
	return b, nil
}

func (s *Service) donation(
	ctx context.Context,
	get func(repo repository.DonationRepository) (*donation.Donation, error),
) (*donation.Donation, error) {
	repo, err := s.uow.DonationRepository()
	if err != nil {
		return nil, err
	}
	d, err := get(repo)
	if errors.Is(err, domain.ErrNotFound) {
		return nil, domain.NewNotFoundError("transaction")
	}
	return d, err
}

func clip(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n])
}
