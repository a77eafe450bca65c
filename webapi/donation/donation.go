package donation

import (
	"github.com/amirasaad/donation/pkg/config"
	"github.com/amirasaad/donation/pkg/middleware"
	donationsvc "github.com/amirasaad/donation/pkg/service/donation"
	"github.com/amirasaad/donation/webapi/common"
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/log"
	"github.com/google/uuid"
)

// Routes registers HTTP routes for donation operations.
func Routes(
	app *fiber.App,
	initiator *donationsvc.Initiator,
	statusSvc *donationsvc.StatusService,
	cfg *config.App,
) {
	var jwtCfg *config.Jwt
	if cfg != nil && cfg.Auth != nil {
		jwtCfg = cfg.Auth.Jwt
	}
	app.Post("/api/v1/donations", middleware.JwtOptional(jwtCfg), InitiateDonation(initiator))
	app.Get("/api/v1/donations/:id/status", GetDonationStatus(statusSvc))
}

// InitiateDonation returns a Fiber handler that creates a donation and starts
// the gateway checkout.
// @Summary Initiate a donation
// @Description Creates a PENDING donation and pushes a mobile money or bank checkout to the gateway. Send a bearer token to donate as a registered donor, otherwise anonymous_name and anonymous_email are required.
// @Tags donations
// @Accept json
// @Produce json
// @Param request body donationsvc.Request true "Donation request"
// @Success 201 {object} common.Response "Donation created"
// @Failure 400 {object} common.ProblemDetails "Invalid request"
// @Failure 401 {object} common.ProblemDetails "Invalid token"
// @Failure 404 {object} common.ProblemDetails "Beneficiary not found"
// @Failure 422 {object} common.ProblemDetails "Currency not supported"
// @Failure 429 {object} common.ProblemDetails "Too many requests"
// @Router /api/v1/donations [post]
// @Security Bearer
func InitiateDonation(initiator *donationsvc.Initiator) fiber.Handler {
	return func(c *fiber.Ctx) error {
		input, err := common.BindAndValidate[donationsvc.Request](c)
		if input == nil {
			return err // error response already written
		}
		donorID, ok, err := middleware.DonorID(c)
		if err != nil {
			return common.ProblemDetailsJSON(c, "Invalid token", err)
		}
		input.DonorID = nil
		if ok {
			input.DonorID = &donorID
		}

		res, err := initiator.Initiate(c.UserContext(), *input)
		if err != nil {
			log.Errorf("Failed to initiate donation: %v", err)
			return common.ProblemDetailsJSON(c, "Failed to initiate donation", err)
		}
		return common.SuccessResponseJSON(c, fiber.StatusCreated, "Donation created", res)
	}
}

// GetDonationStatus returns a Fiber handler reporting a donation's status,
// polling the gateway while it is pending.
// @Summary Get donation status
// @Description Returns the donation status. Pending donations are checked with the gateway first.
// @Tags donations
// @Produce json
// @Param id path string true "Donation ID"
// @Success 200 {object} common.Response "Donation status"
// @Failure 400 {object} common.ProblemDetails "Invalid donation ID"
// @Failure 404 {object} common.ProblemDetails "Donation not found"
// @Router /api/v1/donations/{id}/status [get]
func GetDonationStatus(statusSvc *donationsvc.StatusService) fiber.Handler {
	return func(c *fiber.Ctx) error {
		id, err := uuid.Parse(c.Params("id"))
		if err != nil {
			return common.ProblemDetailsJSON(c, "Invalid donation ID", err, "Donation ID must be a valid UUID", fiber.StatusBadRequest)
		}
		snap, err := statusSvc.Check(c.UserContext(), id)
		if err != nil {
			log.Errorf("Failed to get donation status: %v", err)
			return common.ProblemDetailsJSON(c, "Failed to get donation status", err)
		}
		return common.SuccessResponseJSON(c, fiber.StatusOK, "Donation status", snap)
	}
}
