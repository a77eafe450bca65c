// Package donation initiates donations and reports their payment status.
package donation

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strconv"
	"strings"
	"time"

	"github.com/amirasaad/donation/pkg/config"
	"github.com/amirasaad/donation/pkg/domain"
	"github.com/amirasaad/donation/pkg/domain/donation"
	"github.com/amirasaad/donation/pkg/provider/payment"
	"github.com/amirasaad/donation/pkg/repository"
	"github.com/amirasaad/donation/pkg/service/reconcile"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Acknowledgment is the gateway's synchronous answer to a checkout.
type Acknowledgment struct {
	Status        payment.PaymentStatus `json:"status"`
	TransactionID string                `json:"transaction_id,omitempty"`
	Message       string                `json:"message,omitempty"`
}

// InitiateResult describes a created donation.
type InitiateResult struct {
	DonationID        uuid.UUID       `json:"donation_id"`
	ExternalReference string          `json:"external_reference"`
	Status            donation.Status `json:"status"`
	Amount            decimal.Decimal `json:"amount" swaggertype:"number"`
	Currency          string          `json:"currency"`
	GatewayAmount     decimal.Decimal `json:"gateway_amount" swaggertype:"number"`
	GatewayCurrency   string          `json:"gateway_currency"`
	Checkout          Acknowledgment  `json:"checkout"`
}

// Initiator validates donation requests, persists them and starts checkout.
type Initiator struct {
	uow      repository.UnitOfWork
	gateway  payment.Payment
	engine   *reconcile.Engine
	currency *config.Currency
	cfg      *config.Donation
	sandbox  bool
	logger   *slog.Logger
	now      func() time.Time
}

// NewInitiator creates an Initiator. Sandbox auto-completion is only
// possible when the gateway is not in production.
func NewInitiator(
	uow repository.UnitOfWork,
	gateway payment.Payment,
	engine *reconcile.Engine,
	cfg *config.App,
	logger *slog.Logger,
) *Initiator {
	if logger == nil {
		logger = slog.Default()
	}
	i := &Initiator{
		uow:      uow,
		gateway:  gateway,
		engine:   engine,
		currency: &config.Currency{Settlement: "TZS"},
		cfg:      &config.Donation{ReferencePrefix: "RHCI", CountryCode: "255"},
		logger:   logger.With("service", "donation"),
		now:      func() time.Time { return time.Now().UTC() },
	}
	if cfg != nil {
		if cfg.Currency != nil {
			i.currency = cfg.Currency
		}
		if cfg.Donation != nil {
			i.cfg = cfg.Donation
		}
		i.sandbox = cfg.Gateway == nil || !cfg.Gateway.IsProduction()
	}
	return i
}

// Initiate creates a PENDING donation and submits it to the gateway. Gateway
// failures do not surface as errors: the donation is settled as FAILED
// through the reconciliation engine, or left PENDING on timeout.
func (i *Initiator) Initiate(ctx context.Context, req Request) (*InitiateResult, error) {
	logger := i.logger.With(
		"beneficiary_id", req.BeneficiaryID,
		"payment_method", req.PaymentMethod,
		"provider", req.Provider,
		"currency", req.Currency,
	)
	logger.Info("🟢 [START] Initiating donation")

	d, err := i.build(ctx, &req)
	if err != nil {
		logger.Warn("❌ Donation rejected", "error", err)
		return nil, err
	}

	err = i.uow.Do(ctx, func(uow repository.UnitOfWork) error {
		repo, err := uow.DonationRepository()
		if err != nil {
			return err
		}
		if err := repo.Create(ctx, d); err != nil {
			return fmt.Errorf("failed to create donation: %w", err)
		}
		d.ExternalReference = donation.NewReference(i.cfg.ReferencePrefix, d.ID, i.now())
		if err := repo.SetExternalReference(ctx, d.ID, d.ExternalReference); err != nil {
			return fmt.Errorf("failed to store external reference: %w", err)
		}
		return nil
	})
	if err != nil {
		logger.Error("❌ Failed to persist donation", "error", err)
		return nil, err
	}

	logger = logger.With("donation_id", d.ID, "reference", d.ExternalReference)
	logger.Info("💾 Donation persisted", "gateway_amount", d.GatewayAmount, "gateway_currency", d.GatewayCurrency)

	result := &InitiateResult{
		DonationID:        d.ID,
		ExternalReference: d.ExternalReference,
		Status:            donation.StatusPending,
		Amount:            d.Amount,
		Currency:          d.Currency,
		GatewayAmount:     d.GatewayAmount,
		GatewayCurrency:   d.GatewayCurrency,
	}

	resp, err := i.gateway.InitiatePayment(ctx, i.checkoutParams(d, &req))
	if err != nil {
		return i.handleGatewayError(ctx, logger, d, result, err)
	}

	result.Checkout = Acknowledgment{
		Status:        resp.Status,
		TransactionID: resp.PaymentID,
		Message:       resp.Message,
	}
	if resp.PaymentID != "" {
		// Callbacks still correlate through the external reference.
		if err := i.storeTransactionID(ctx, d.ID, resp.PaymentID); err != nil {
			logger.Error("❌ Failed to store provider transaction id", "error", err, "provider_transaction_id", resp.PaymentID)
		}
	}
	logger.Info("✅ [DONE] Checkout accepted", "provider_transaction_id", resp.PaymentID)

	if i.sandbox && i.cfg.SandboxAutoComplete {
		res, err := i.engine.Apply(ctx, reconcile.Outcome{
			DonationID:            d.ID,
			ProviderTransactionID: resp.PaymentID,
			Status:                payment.PaymentCompleted,
			Source:                reconcile.SourceSandbox,
		})
		if err != nil {
			logger.Error("❌ Sandbox auto-complete failed", "error", err)
			return result, nil
		}
		result.Status = res.Status
	}
	return result, nil
}

func (i *Initiator) storeTransactionID(ctx context.Context, id uuid.UUID, txnID string) error {
	repo, err := i.uow.DonationRepository()
	if err != nil {
		return err
	}
	return repo.SetProviderTransactionID(ctx, id, txnID)
}

func (i *Initiator) handleGatewayError(
	ctx context.Context,
	logger *slog.Logger,
	d *donation.Donation,
	result *InitiateResult,
	gatewayErr error,
) (*InitiateResult, error) {
	if errors.Is(gatewayErr, payment.ErrGatewayTimeout) {
		logger.Warn("⏳ Gateway timed out, donation stays pending", "error", gatewayErr)
		result.Checkout = Acknowledgment{Status: payment.PaymentPending, Message: "awaiting gateway confirmation"}
		return result, nil
	}

	reason := reconcile.ReasonGatewayUnreachable
	if errors.Is(gatewayErr, payment.ErrGatewayRejected) || errors.Is(gatewayErr, domain.ErrValidation) {
		reason = fmt.Sprintf("%s: %s", reconcile.ReasonGatewayRejected, payment.RejectionMessage(gatewayErr))
	}
	logger.Warn("⚠️ Checkout failed", "error", gatewayErr, "reason", reason)

	res, err := i.engine.Apply(ctx, reconcile.Outcome{
		DonationID:    d.ID,
		Status:        payment.PaymentFailed,
		FailureReason: reason,
		Source:        reconcile.SourceInitiation,
	})
	if err != nil {
		logger.Error("❌ Failed to settle donation after checkout failure", "error", err)
		return nil, err
	}
	result.Status = res.Status
	result.Checkout = Acknowledgment{Status: payment.PaymentFailed, Message: "payment could not be initiated"}
	return result, nil
}

// build validates req and converts it into a PENDING donation.
func (i *Initiator) build(ctx context.Context, req *Request) (*donation.Donation, error) {
	if err := req.check(); err != nil {
		return nil, err
	}
	split, err := req.split()
	if err != nil {
		return nil, err
	}

	currency := strings.ToUpper(req.Currency)
	multiplier, ok, err := i.currency.Multiplier(currency)
	if err != nil {
		return nil, fmt.Errorf("currency policy misconfigured: %w", err)
	}
	if !ok {
		return nil, domain.NewCurrencyPolicyError(currency)
	}

	if req.BeneficiaryID != nil && *req.BeneficiaryID != uuid.Nil {
		repo, err := i.uow.BeneficiaryRepository()
		if err != nil {
			return nil, err
		}
		b, err := repo.Get(ctx, *req.BeneficiaryID)
		if errors.Is(err, domain.ErrNotFound) {
			return nil, domain.NewNotFoundError(fmt.Sprintf("beneficiary %s", *req.BeneficiaryID))
		}
		if err != nil {
			return nil, err
		}
		if !b.AcceptsDonations() {
			return nil, domain.NewValidationError("beneficiary_id",
				fmt.Sprintf("beneficiary is %s and not accepting donations", b.Status))
		}
	}

	d := &donation.Donation{
		ID:              uuid.New(),
		Amount:          split.Total(),
		PatientAmount:   split.PatientAmount,
		SupportAmount:   split.SupportAmount,
		Currency:        currency,
		GatewayAmount:   split.Total().Mul(multiplier),
		GatewayCurrency: i.currency.Settlement,
		PaymentMethod:   req.PaymentMethod,
		Provider:        strings.ToLower(strings.TrimSpace(req.Provider)),
		Message:         strings.TrimSpace(req.Message),
		Status:          donation.StatusPending,
	}
	if req.BeneficiaryID != nil && *req.BeneficiaryID != uuid.Nil {
		id := *req.BeneficiaryID
		d.BeneficiaryID = &id
	}
	if req.anonymous() {
		d.IsAnonymous = true
		d.AnonymousName = strings.TrimSpace(req.AnonymousName)
		d.AnonymousEmail = strings.TrimSpace(req.AnonymousEmail)
	} else {
		id := *req.DonorID
		d.DonorID = &id
	}

	switch req.PaymentMethod {
	case donation.MethodMobileMoney:
		d.AccountNumber = donation.NormalizePhone(req.PhoneNumber, i.cfg.CountryCode)
		if d.AccountNumber == "" {
			return nil, domain.NewValidationError("phone_number", "must contain digits")
		}
		// Mobile money charges whole settlement units; the stored amount is the charged one.
		d.GatewayAmount = d.GatewayAmount.Round(0)
		if !d.GatewayAmount.IsPositive() {
			return nil, domain.NewValidationError("amount", "below the smallest mobile money charge")
		}
	case donation.MethodBank:
		d.AccountNumber = strings.TrimSpace(req.MerchantAccountNumber)
		if donation.NormalizePhone(req.MerchantMobileNumber, i.cfg.CountryCode) == "" {
			return nil, domain.NewValidationError("merchant_mobile_number", "must contain digits")
		}
	}
	return d, nil
}

func (i *Initiator) checkoutParams(d *donation.Donation, req *Request) *payment.InitiatePaymentParams {
	params := &payment.InitiatePaymentParams{
		Kind:          req.kind(),
		Reference:     d.ExternalReference,
		Amount:        d.GatewayAmount,
		Currency:      d.GatewayCurrency,
		Provider:      d.Provider,
		AccountNumber: d.AccountNumber,
		Metadata: map[string]string{
			"donation_id":  d.ID.String(),
			"is_anonymous": strconv.FormatBool(d.IsAnonymous),
		},
	}
	if d.BeneficiaryID != nil {
		params.Metadata["beneficiary_id"] = d.BeneficiaryID.String()
	}
	if d.IsAnonymous {
		params.Metadata["donor_name"] = d.AnonymousName
		params.Metadata["donor_email"] = d.AnonymousEmail
	} else {
		params.Metadata["donor_id"] = d.DonorID.String()
	}
	if d.PaymentMethod == donation.MethodBank {
		params.MerchantAccountNumber = d.AccountNumber
		params.MerchantMobileNumber = donation.NormalizePhone(req.MerchantMobileNumber, i.cfg.CountryCode)
		params.MerchantName = strings.TrimSpace(req.MerchantName)
		params.OTP = strings.TrimSpace(req.OTP)
	}
	return params
}
