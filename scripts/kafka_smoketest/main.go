// Command kafka_smoketest emits a DonationCompleted event through the Kafka
// event bus and waits for it to come back to a registered handler.
package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"strings"
	"time"

	infra_eventbus "github.com/amirasaad/donation/infra/eventbus"
	"github.com/amirasaad/donation/pkg/config"
	"github.com/amirasaad/donation/pkg/domain/events"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// RunSmokeTest round-trips one event through the configured brokers.
func RunSmokeTest() error {
	logger := slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelInfo}))

	brokers := strings.TrimSpace(os.Getenv("BROKERS"))
	if brokers == "" {
		brokers = "localhost:9093,localhost:9092"
	}
	groupID := strings.TrimSpace(os.Getenv("GROUP_ID"))
	if groupID == "" {
		groupID = "donation-smoketest"
	}

	bus, err := infra_eventbus.NewWithKafka(&config.Kafka{
		Brokers:     brokers,
		GroupID:     groupID,
		TopicPrefix: "donation.smoketest",
	}, logger)
	if err != nil {
		return err
	}
	defer func() { _ = bus.Close() }()

	want := uuid.New()
	received := make(chan uuid.UUID, 1)
	bus.Register(events.EventTypeDonationCompleted, func(_ context.Context, e events.Event) error {
		if dc, ok := e.(*events.DonationCompleted); ok && dc.DonationID == want {
			select {
			case received <- dc.DonationID:
			default:
			}
		}
		return nil
	})

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := bus.Emit(ctx, &events.DonationCompleted{
		DonationID:    want,
		Amount:        decimal.NewFromInt(25000),
		PatientAmount: decimal.NewFromInt(20000),
		Currency:      "TZS",
		CompletedAt:   time.Now().UTC(),
	}); err != nil {
		logger.Error("emit failed", "error", err)
		return err
	}
	logger.Info("produced", "donation_id", want)

	select {
	case id := <-received:
		logger.Info("consumed", "donation_id", id)
		return nil
	case <-ctx.Done():
		return fmt.Errorf("no delivery within deadline: %w", ctx.Err())
	}
}

func main() {
	if err := RunSmokeTest(); err != nil {
		slog.Error("kafka smoke test failed", "error", err)
		os.Exit(1)
	}
	slog.Info("kafka smoke test passed ✅")
}
