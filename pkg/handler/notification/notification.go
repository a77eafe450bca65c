// Package notification turns settled-donation and funding events into
// timeline entries for the external narrative collaborator.
package notification

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/amirasaad/donation/pkg/domain/events"
	"github.com/amirasaad/donation/pkg/eventbus"
	"github.com/google/uuid"
)

// Entry is one timeline item.
type Entry struct {
	Kind          string
	DonationID    uuid.UUID
	BeneficiaryID *uuid.UUID
	Summary       string
	At            time.Time
}

// Timeline receives entries. Implementations must be idempotent on
// (Kind, DonationID, Summary) since buses deliver at least once.
type Timeline interface {
	Record(ctx context.Context, entry Entry) error
}

// LogTimeline writes entries to a logger.
type LogTimeline struct {
	Logger *slog.Logger
}

// Record implements Timeline.
func (t LogTimeline) Record(ctx context.Context, entry Entry) error {
	t.Logger.InfoContext(ctx, "📰 Timeline entry",
		"kind", entry.Kind,
		"donation_id", entry.DonationID,
		"beneficiary_id", entry.BeneficiaryID,
		"summary", entry.Summary,
	)
	return nil
}

// HandleDonationCompleted records a completed donation.
func HandleDonationCompleted(timeline Timeline, logger *slog.Logger) eventbus.HandlerFunc {
	return func(ctx context.Context, e events.Event) error {
		log := logger.With("handler", "notification.HandleDonationCompleted", "event_type", e.Type())
		dc, ok := e.(*events.DonationCompleted)
		if !ok {
			log.Error("Skipping unexpected event type", "event", e)
			return nil
		}
		return timeline.Record(ctx, Entry{
			Kind:          "donation_received",
			DonationID:    dc.DonationID,
			BeneficiaryID: dc.BeneficiaryID,
			Summary:       fmt.Sprintf("Received %s %s", dc.PatientAmount.StringFixed(2), dc.Currency),
			At:            dc.CompletedAt,
		})
	}
}

// HandleDonationFailed logs a failed or cancelled donation. Reasons are kept
// out of the timeline.
func HandleDonationFailed(logger *slog.Logger) eventbus.HandlerFunc {
	return func(ctx context.Context, e events.Event) error {
		df, ok := e.(*events.DonationFailed)
		if !ok {
			logger.Error("Skipping unexpected event type", "event", e)
			return nil
		}
		logger.Info("📉 Donation did not complete",
			"handler", "notification.HandleDonationFailed",
			"donation_id", df.DonationID,
			"status", df.Status,
			"reason", df.Reason,
		)
		return nil
	}
}

// HandleFundingMilestone records a crossed funding threshold.
func HandleFundingMilestone(timeline Timeline, logger *slog.Logger) eventbus.HandlerFunc {
	return func(ctx context.Context, e events.Event) error {
		fm, ok := e.(*events.FundingMilestone)
		if !ok {
			logger.Error("Skipping unexpected event type", "event", e)
			return nil
		}
		beneficiaryID := fm.BeneficiaryID
		return timeline.Record(ctx, Entry{
			Kind:          "funding_milestone",
			DonationID:    fm.DonationID,
			BeneficiaryID: &beneficiaryID,
			Summary:       fmt.Sprintf("Reached %d%% of the goal", fm.Threshold),
			At:            time.Now().UTC(),
		})
	}
}

// HandleFundingCompleted records a beneficiary reaching its goal.
func HandleFundingCompleted(timeline Timeline, logger *slog.Logger) eventbus.HandlerFunc {
	return func(ctx context.Context, e events.Event) error {
		fc, ok := e.(*events.FundingCompleted)
		if !ok {
			logger.Error("Skipping unexpected event type", "event", e)
			return nil
		}
		beneficiaryID := fc.BeneficiaryID
		return timeline.Record(ctx, Entry{
			Kind:          "fully_funded",
			BeneficiaryID: &beneficiaryID,
			Summary:       fmt.Sprintf("Fully funded with %s of %s", fc.Received.StringFixed(2), fc.Required.StringFixed(2)),
			At:            time.Now().UTC(),
		})
	}
}
