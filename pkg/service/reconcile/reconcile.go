// Package reconcile applies reported payment outcomes to donations. Every
// entry path (webhook, status poll, initiation failure, manual update)
// goes through Engine.Apply so a donation settles at most once.
package reconcile

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/amirasaad/donation/pkg/domain"
	"github.com/amirasaad/donation/pkg/domain/donation"
	"github.com/amirasaad/donation/pkg/domain/events"
	"github.com/amirasaad/donation/pkg/eventbus"
	"github.com/amirasaad/donation/pkg/provider/payment"
	"github.com/amirasaad/donation/pkg/repository"
	"github.com/amirasaad/donation/pkg/service/funding"
	"github.com/google/uuid"
)

// Failure reasons recorded for outcomes produced locally.
const (
	ReasonGatewayUnreachable = "gateway_unreachable"
	ReasonGatewayRejected    = "gateway_rejected"
)

// Source names the entry path that produced an outcome.
type Source string

const (
	SourceWebhook    Source = "webhook"
	SourceStatus     Source = "status_query"
	SourceInitiation Source = "initiation"
	SourceManual     Source = "manual"
	SourceSandbox    Source = "sandbox"
	SourceBillPay    Source = "billpay"
)

// Outcome is a payment result reported for one donation.
type Outcome struct {
	// DonationID, when known, takes precedence over every other correlator.
	DonationID uuid.UUID
	// Reference is the external reference sent with the checkout.
	Reference             string
	ProviderTransactionID string
	// RawStatus is the provider's own code; Status, when set, skips parsing.
	RawStatus     string
	Status        payment.PaymentStatus
	Amount        string
	Message       string
	FailureReason string
	Source        Source
}

func (o Outcome) status() payment.PaymentStatus {
	if o.Status != "" {
		return o.Status
	}
	return payment.ParseStatus(o.RawStatus)
}

// Disposition classifies what Apply did.
type Disposition string

const (
	// Applied means the donation left PENDING in this call.
	Applied Disposition = "applied"
	// AlreadyTerminal means the donation had already settled the same way.
	AlreadyTerminal Disposition = "already_terminal"
	// Anomaly means the donation had settled differently than reported.
	Anomaly Disposition = "anomaly"
	// NotFound means no donation matches the outcome.
	NotFound Disposition = "not_found"
	// Ignored means the outcome was pending or unrecognized.
	Ignored Disposition = "ignored"
)

// Result reports the effect of one Apply call.
type Result struct {
	Disposition Disposition
	DonationID  uuid.UUID
	// Status is the donation's stored status after the call.
	Status     donation.Status
	Milestones []int
}

// Engine is the single writer of donation status.
type Engine struct {
	uow     repository.UnitOfWork
	funding *funding.Aggregator
	bus     eventbus.Bus
	logger  *slog.Logger
	now     func() time.Time
}

// New creates an Engine.
func New(
	uow repository.UnitOfWork,
	aggregator *funding.Aggregator,
	bus eventbus.Bus,
	logger *slog.Logger,
) *Engine {
	if logger == nil {
		logger = slog.Default()
	}
	return &Engine{
		uow:     uow,
		funding: aggregator,
		bus:     bus,
		logger:  logger.With("service", "reconcile"),
		now:     func() time.Time { return time.Now().UTC() },
	}
}

// Apply settles the matching donation according to o. The status change,
// provider fields and funding credit commit together; events are emitted
// only after commit. An unknown donation is reported as NotFound, not as an
// error.
func (e *Engine) Apply(ctx context.Context, o Outcome) (*Result, error) {
	log := e.outcomeLogger(o)
	log.Info("🟢 [START] Reconciling payment outcome")

	var (
		res     = &Result{}
		pending []events.Event
	)
	err := e.uow.Do(ctx, func(uow repository.UnitOfWork) error {
		donations, err := uow.DonationRepository()
		if err != nil {
			return err
		}

		d, err := locate(ctx, donations, o)
		if errors.Is(err, domain.ErrNotFound) {
			res.Disposition = NotFound
			return nil
		}
		if err != nil {
			return err
		}
		pending, err = e.settle(ctx, uow, donations, d, o, res)
		return err
	})
	if err != nil {
		log.Error("❌ Reconciliation failed", "error", err)
		return nil, err
	}
	e.finish(ctx, log, res, pending)
	return res, nil
}

// Record stores d, which must be PENDING, and applies o to it in the same
// unit of work. It serves payments the gateway reports before any checkout
// exists. When o.ProviderTransactionID already belongs to a donation,
// nothing is written and that donation is reported instead.
func (e *Engine) Record(ctx context.Context, d *donation.Donation, o Outcome) (*Result, error) {
	if d.Status != donation.StatusPending {
		return nil, domain.NewStateConflictError(fmt.Sprintf("new donation must be %s, got %s", donation.StatusPending, d.Status))
	}
	o.DonationID = d.ID
	log := e.outcomeLogger(o).With("donation_id", d.ID)
	log.Info("🟢 [START] Recording settled payment")

	var (
		res     = &Result{}
		pending []events.Event
	)
	err := e.uow.Do(ctx, func(uow repository.UnitOfWork) error {
		donations, err := uow.DonationRepository()
		if err != nil {
			return err
		}
		if existing, err := e.duplicate(ctx, donations, o); existing != nil || err != nil {
			if err == nil {
				*res = *e.duplicateResult(existing, o)
			}
			return err
		}
		if err := donations.Create(ctx, d); err != nil {
			return fmt.Errorf("failed to create donation: %w", err)
		}
		pending, err = e.settle(ctx, uow, donations, d, o, res)
		return err
	})
	if errors.Is(err, domain.ErrAlreadyExists) && o.ProviderTransactionID != "" {
		// A concurrent delivery of the same payment won the unique index.
		pending = nil
		err = e.uow.Do(ctx, func(uow repository.UnitOfWork) error {
			donations, err := uow.DonationRepository()
			if err != nil {
				return err
			}
			existing, err := donations.GetByProviderTransactionID(ctx, o.ProviderTransactionID)
			if err != nil {
				return err
			}
			*res = *e.duplicateResult(existing, o)
			return nil
		})
	}
	if err != nil {
		log.Error("❌ Recording payment failed", "error", err)
		return nil, err
	}
	e.finish(ctx, log, res, pending)
	return res, nil
}

func (e *Engine) duplicate(ctx context.Context, repo repository.DonationRepository, o Outcome) (*donation.Donation, error) {
	if o.ProviderTransactionID == "" {
		return nil, nil
	}
	existing, err := repo.GetByProviderTransactionID(ctx, o.ProviderTransactionID)
	if errors.Is(err, domain.ErrNotFound) {
		return nil, nil
	}
	return existing, err
}

func (e *Engine) duplicateResult(existing *donation.Donation, o Outcome) *Result {
	res := &Result{DonationID: existing.ID, Status: existing.Status, Disposition: Anomaly}
	if target, ok := targetStatus(o.status()); ok && existing.Status == target {
		res.Disposition = AlreadyTerminal
	}
	return res
}

// settle moves d out of PENDING inside the caller's unit of work and
// returns the events to emit after commit.
func (e *Engine) settle(
	ctx context.Context,
	uow repository.UnitOfWork,
	donations repository.DonationRepository,
	d *donation.Donation,
	o Outcome,
	res *Result,
) ([]events.Event, error) {
	reported := o.status()
	res.DonationID = d.ID
	res.Status = d.Status

	target, ok := targetStatus(reported)
	if !ok {
		res.Disposition = Ignored
		return nil, nil
	}

	update := repository.StatusUpdate{ProviderTransactionID: o.ProviderTransactionID}
	completedAt := e.now()
	if target == donation.StatusCompleted {
		update.CompletedAt = &completedAt
	} else {
		update.FailureReason = failureReason(o, reported)
	}

	applied, err := donations.TransitionStatus(ctx, d.ID, donation.StatusPending, target, update)
	if err != nil {
		return nil, err
	}
	if !applied {
		current, err := donations.Get(ctx, d.ID)
		if err != nil {
			return nil, err
		}
		res.Status = current.Status
		switch {
		case current.Status == target:
			res.Disposition = AlreadyTerminal
		case current.Status.IsTerminal():
			res.Disposition = Anomaly
		default:
			return nil, domain.NewStateConflictError(fmt.Sprintf("donation %s still %s after conditional update", d.ID, current.Status))
		}
		return nil, nil
	}

	res.Disposition = Applied
	res.Status = target
	if target != donation.StatusCompleted {
		return []events.Event{&events.DonationFailed{
			DonationID: d.ID,
			Status:     target.String(),
			Reason:     update.FailureReason,
		}}, nil
	}

	providerTxID := o.ProviderTransactionID
	if providerTxID == "" {
		providerTxID = d.ProviderTransactionID
	}
	pending := []events.Event{&events.DonationCompleted{
		DonationID:            d.ID,
		BeneficiaryID:         d.BeneficiaryID,
		Amount:                d.Amount,
		PatientAmount:         d.PatientAmount,
		Currency:              d.Currency,
		ProviderTransactionID: providerTxID,
		CompletedAt:           completedAt,
	}}
	if !d.HasBeneficiary() || e.funding == nil {
		return pending, nil
	}

	beneficiaries, err := uow.BeneficiaryRepository()
	if err != nil {
		return nil, err
	}
	credit, err := e.funding.Credit(ctx, beneficiaries, *d.BeneficiaryID, d.PatientAmount, d.ID)
	if err != nil {
		return nil, err
	}
	res.Milestones = credit.Milestones
	return append(pending, credit.Events...), nil
}

func (e *Engine) outcomeLogger(o Outcome) *slog.Logger {
	return e.logger.With(
		"source", o.Source,
		"reference", o.Reference,
		"provider_transaction_id", o.ProviderTransactionID,
		"reported_status", o.status(),
		"raw_status", o.RawStatus,
	)
}

// finish logs the disposition and emits events collected during a
// committed unit of work.
func (e *Engine) finish(ctx context.Context, log *slog.Logger, res *Result, pending []events.Event) {
	log = log.With("donation_id", res.DonationID, "stored_status", res.Status)
	switch res.Disposition {
	case Applied:
		log.Info("✅ [DONE] Donation settled")
	case AlreadyTerminal:
		log.Info("🔁 [SKIP] Donation already settled")
	case Anomaly:
		log.Warn("🚨 [ANOMALY] Outcome conflicts with settled donation; manual review required")
	case NotFound:
		log.Warn("⚠️ [SKIP] No donation matches outcome")
	case Ignored:
		log.Info("⏳ [SKIP] Non-terminal outcome")
	}

	for _, evt := range pending {
		if e.bus == nil {
			break
		}
		if err := e.bus.Emit(ctx, evt); err != nil {
			log.Error("failed to emit event", "event_type", evt.Type(), "error", err)
		}
	}
}

// locate resolves the donation by id, by the uuid embedded in the
// reference, by the reference column, then by provider transaction id.
func locate(ctx context.Context, repo repository.DonationRepository, o Outcome) (*donation.Donation, error) {
	if o.DonationID != uuid.Nil {
		return repo.Get(ctx, o.DonationID)
	}
	if o.Reference != "" {
		if id, err := donation.ParseReference(o.Reference); err == nil {
			d, err := repo.Get(ctx, id)
			if err == nil {
				return d, nil
			}
			if !errors.Is(err, domain.ErrNotFound) {
				return nil, err
			}
		}
		d, err := repo.GetByExternalReference(ctx, o.Reference)
		if err == nil {
			return d, nil
		}
		if !errors.Is(err, domain.ErrNotFound) {
			return nil, err
		}
	}
	if o.ProviderTransactionID != "" {
		return repo.GetByProviderTransactionID(ctx, o.ProviderTransactionID)
	}
	return nil, domain.ErrNotFound
}

func targetStatus(s payment.PaymentStatus) (donation.Status, bool) {
	switch s {
	case payment.PaymentCompleted:
		return donation.StatusCompleted, true
	case payment.PaymentFailed:
		return donation.StatusFailed, true
	case payment.PaymentCancelled:
		return donation.StatusCancelled, true
	}
	return "", false
}

func failureReason(o Outcome, reported payment.PaymentStatus) string {
	switch {
	case o.FailureReason != "":
		return o.FailureReason
	case o.Message != "":
		return o.Message
	case o.RawStatus != "":
		return fmt.Sprintf("gateway reported %s", o.RawStatus)
	}
	return fmt.Sprintf("gateway reported %s", reported)
}
