package notification_test

import (
	"context"
	"io"
	"log/slog"
	"sync"
	"testing"
	"time"

	"github.com/amirasaad/donation/infra/eventbus"
	"github.com/amirasaad/donation/pkg/domain/events"
	"github.com/amirasaad/donation/pkg/handler/notification"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type memoryTimeline struct {
	mu      sync.Mutex
	entries []notification.Entry
}

func (m *memoryTimeline) Record(_ context.Context, e notification.Entry) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.entries = append(m.entries, e)
	return nil
}

func TestHandlers(t *testing.T) {
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	bus := eventbus.NewWithMemory(logger)
	timeline := &memoryTimeline{}

	bus.Register(events.EventTypeDonationCompleted, notification.HandleDonationCompleted(timeline, logger))
	bus.Register(events.EventTypeDonationFailed, notification.HandleDonationFailed(logger))
	bus.Register(events.EventTypeFundingMilestone, notification.HandleFundingMilestone(timeline, logger))
	bus.Register(events.EventTypeFundingCompleted, notification.HandleFundingCompleted(timeline, logger))

	ctx := context.Background()
	bID := uuid.New()
	dID := uuid.New()
	require.NoError(t, bus.Emit(ctx, &events.DonationCompleted{
		DonationID:    dID,
		BeneficiaryID: &bID,
		PatientAmount: decimal.NewFromInt(2500),
		Currency:      "TZS",
		CompletedAt:   time.Now(),
	}))
	require.NoError(t, bus.Emit(ctx, &events.DonationFailed{DonationID: uuid.New(), Status: "FAILED", Reason: "secret"}))
	require.NoError(t, bus.Emit(ctx, &events.FundingMilestone{BeneficiaryID: bID, DonationID: dID, Threshold: 50}))
	require.NoError(t, bus.Emit(ctx, &events.FundingCompleted{
		BeneficiaryID: bID,
		Received:      decimal.NewFromInt(1000),
		Required:      decimal.NewFromInt(1000),
	}))

	require.Len(t, timeline.entries, 3)
	assert.Equal(t, "donation_received", timeline.entries[0].Kind)
	assert.Equal(t, "Received 2500.00 TZS", timeline.entries[0].Summary)
	assert.Equal(t, "Reached 50% of the goal", timeline.entries[1].Summary)
	assert.Equal(t, "fully_funded", timeline.entries[2].Kind)
	for _, e := range timeline.entries {
		assert.NotContains(t, e.Summary, "secret")
	}
}
