package payment

import (
	donationsvc "github.com/amirasaad/donation/pkg/service/donation"
	"github.com/amirasaad/donation/pkg/service/reconcile"
	"github.com/amirasaad/donation/pkg/service/webhook"
	"github.com/amirasaad/donation/webapi/common"
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/log"
	"github.com/google/uuid"
)

// ManualUpdateRequest settles a donation by hand.
type ManualUpdateRequest struct {
	DonationID string `json:"donation_id" validate:"required,uuid"`
	Status     string `json:"status" validate:"required"`
}

// Routes registers the gateway callback and, when enabled, the manual
// outcome route.
func Routes(
	app *fiber.App,
	auth *webhook.Authenticator,
	engine *reconcile.Engine,
	statusSvc *donationsvc.StatusService,
	manualUpdates bool,
) {
	app.Post("/api/v1/payments/azampay/callback", AzamPayCallback(auth, engine))
	if manualUpdates {
		app.Post("/api/v1/payments/manual-update", ManualUpdate(statusSvc))
	}
}

// AzamPayCallback returns a Fiber handler for gateway checkout callbacks.
// Every authenticated callback is acknowledged with 200 so the gateway does
// not retry; processing problems are logged.
// @Summary AzamPay checkout callback
// @Description Receives asynchronous payment outcomes from AzamPay.
// @Tags payments
// @Accept json
// @Produce json
// @Success 200 {object} common.Response "Callback received"
// @Failure 401 {object} common.ProblemDetails "Unauthorized"
// @Router /api/v1/payments/azampay/callback [post]
func AzamPayCallback(auth *webhook.Authenticator, engine *reconcile.Engine) fiber.Handler {
	return func(c *fiber.Ctx) error {
		body := append([]byte(nil), c.Body()...)
		payload, parseErr := webhook.ParsePayload(body)

		creds := webhook.Credentials{
			Body:          body,
			Signature:     c.Get("X-Signature"),
			Authorization: c.Get(fiber.HeaderAuthorization),
		}
		if payload != nil {
			creds.Password = payload.Password
		}
		if err := auth.Authenticate(creds); err != nil {
			log.Warnf("Rejected gateway callback from %s: %v", c.IP(), err)
			return common.ProblemDetailsJSON(c, "Unauthorized", err, "callback authentication failed")
		}

		if parseErr != nil {
			log.Errorf("Unparseable gateway callback: %v", parseErr)
			return common.SuccessResponseJSON(c, fiber.StatusOK, "Callback received", nil)
		}

		res, err := engine.Apply(c.UserContext(), payload.Outcome())
		if err != nil {
			log.Errorf("Failed to reconcile gateway callback %s: %v", payload.ExternalReference, err)
			return common.SuccessResponseJSON(c, fiber.StatusOK, "Callback received", nil)
		}
		return common.SuccessResponseJSON(c, fiber.StatusOK, "Callback received", fiber.Map{
			"disposition": res.Disposition,
		})
	}
}

// ManualUpdate returns a Fiber handler that settles a donation by hand in
// sandbox deployments.
// @Summary Manually settle a donation
// @Description Sandbox only. Applies a terminal status through the same reconciliation path as gateway callbacks.
// @Tags payments
// @Accept json
// @Produce json
// @Param request body ManualUpdateRequest true "Outcome"
// @Success 200 {object} common.Response "Donation updated"
// @Failure 400 {object} common.ProblemDetails "Invalid request"
// @Failure 404 {object} common.ProblemDetails "Donation not found"
// @Router /api/v1/payments/manual-update [post]
func ManualUpdate(statusSvc *donationsvc.StatusService) fiber.Handler {
	return func(c *fiber.Ctx) error {
		input, err := common.BindAndValidate[ManualUpdateRequest](c)
		if input == nil {
			return err // error response already written
		}
		id, err := uuid.Parse(input.DonationID)
		if err != nil {
			return common.ProblemDetailsJSON(c, "Invalid donation ID", err, fiber.StatusBadRequest)
		}
		res, err := statusSvc.ManualUpdate(c.UserContext(), id, input.Status)
		if err != nil {
			log.Errorf("Manual update failed: %v", err)
			return common.ProblemDetailsJSON(c, "Failed to update donation", err)
		}
		return common.SuccessResponseJSON(c, fiber.StatusOK, "Donation updated", fiber.Map{
			"donation_id": res.DonationID,
			"status":      res.Status,
			"disposition": res.Disposition,
		})
	}
}
