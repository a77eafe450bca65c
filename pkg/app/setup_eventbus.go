// Package app builds the services and registers event handlers on the bus.
package app

import (
	"github.com/amirasaad/donation/pkg/domain/events"
	"github.com/amirasaad/donation/pkg/handler/notification"
)

// setupEventBus registers all event handlers with the configured bus.
func (a *App) setupEventBus() {
	bus := a.Deps.EventBus
	if bus == nil {
		return
	}
	logger := a.Deps.Logger
	timeline := a.Deps.Timeline

	bus.Register(
		events.EventTypeDonationCompleted,
		notification.HandleDonationCompleted(timeline, logger),
	)
	bus.Register(
		events.EventTypeDonationFailed,
		notification.HandleDonationFailed(logger),
	)
	bus.Register(
		events.EventTypeFundingMilestone,
		notification.HandleFundingMilestone(timeline, logger),
	)
	bus.Register(
		events.EventTypeFundingCompleted,
		notification.HandleFundingCompleted(timeline, logger),
	)
}
