package app

import (
	"log/slog"

	"github.com/amirasaad/donation/pkg/config"
	"github.com/amirasaad/donation/pkg/eventbus"
	"github.com/amirasaad/donation/pkg/handler/notification"
	"github.com/amirasaad/donation/pkg/provider/payment"
	"github.com/amirasaad/donation/pkg/repository"
	"github.com/amirasaad/donation/pkg/service/billpay"
	"github.com/amirasaad/donation/pkg/service/donation"
	"github.com/amirasaad/donation/pkg/service/funding"
	"github.com/amirasaad/donation/pkg/service/reconcile"
	"github.com/amirasaad/donation/pkg/service/webhook"
)

// Deps contains the infrastructure the services are built on.
type Deps struct {
	Uow             repository.UnitOfWork
	PaymentProvider payment.Payment
	EventBus        eventbus.Bus
	// Timeline receives notification entries; nil logs them.
	Timeline notification.Timeline
	Logger   *slog.Logger
}

type App struct {
	Deps          *Deps
	Config        *config.App
	Funding       *funding.Aggregator
	Engine        *reconcile.Engine
	Initiator     *donation.Initiator
	StatusService *donation.StatusService
	WebhookAuth   *webhook.Authenticator
	// BillPay and BillPayAuth are nil unless the merchant API is enabled.
	BillPay     *billpay.Service
	BillPayAuth *webhook.Authenticator
}

// New wires services over deps and registers event handlers.
func New(deps *Deps, cfg *config.App) *App {
	if deps.Logger == nil {
		deps.Logger = slog.Default()
	}
	if deps.Timeline == nil {
		deps.Timeline = notification.LogTimeline{Logger: deps.Logger}
	}
	if cfg == nil {
		cfg = &config.App{}
	}

	var milestones []int
	if cfg.Donation != nil {
		milestones = cfg.Donation.Milestones
	}
	production := cfg.Gateway != nil && cfg.Gateway.IsProduction()

	app := &App{Deps: deps, Config: cfg}
	app.Funding = funding.New(deps.Uow, milestones, deps.Logger)
	app.Engine = reconcile.New(deps.Uow, app.Funding, deps.EventBus, deps.Logger)
	app.Initiator = donation.NewInitiator(deps.Uow, deps.PaymentProvider, app.Engine, cfg, deps.Logger)
	app.StatusService = donation.NewStatusService(deps.Uow, deps.PaymentProvider, app.Engine, deps.Logger)
	app.WebhookAuth = webhook.NewAuthenticator(cfg.Webhook, production)
	if cfg.BillPay != nil && cfg.BillPay.Enabled {
		app.BillPay = billpay.New(deps.Uow, app.Engine, cfg, deps.Logger)
		app.BillPayAuth = webhook.NewAuthenticator(cfg.BillPay.Auth(), production)
	}
	app.setupEventBus()
	return app
}

// ManualUpdatesEnabled reports whether the manual outcome route is mounted.
func (a *App) ManualUpdatesEnabled() bool {
	if a.Config.Donation == nil || !a.Config.Donation.ManualUpdates {
		return false
	}
	return a.Config.Gateway == nil || !a.Config.Gateway.IsProduction()
}
