package beneficiary

import (
	"github.com/amirasaad/donation/pkg/service/funding"
	"github.com/amirasaad/donation/webapi/common"
	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
)

// Routes registers HTTP routes for beneficiary funding.
func Routes(app *fiber.App, aggregator *funding.Aggregator) {
	app.Get("/api/v1/beneficiaries/:id/funding", GetFunding(aggregator))
}

// GetFunding returns a Fiber handler for a beneficiary's funding snapshot.
// @Summary Get beneficiary funding
// @Description Returns required, received and remaining funding with the funded percentage.
// @Tags beneficiaries
// @Produce json
// @Param id path string true "Beneficiary ID"
// @Success 200 {object} common.Response "Funding snapshot"
// @Failure 400 {object} common.ProblemDetails "Invalid beneficiary ID"
// @Failure 404 {object} common.ProblemDetails "Beneficiary not found"
// @Router /api/v1/beneficiaries/{id}/funding [get]
func GetFunding(aggregator *funding.Aggregator) fiber.Handler {
	return func(c *fiber.Ctx) error {
		id, err := uuid.Parse(c.Params("id"))
		if err != nil {
			return common.ProblemDetailsJSON(c, "Invalid beneficiary ID", err, "Beneficiary ID must be a valid UUID", fiber.StatusBadRequest)
		}
		snap, err := aggregator.Snapshot(c.UserContext(), id)
		if err != nil {
			return common.ProblemDetailsJSON(c, "Failed to get funding", err)
		}
		return common.SuccessResponseJSON(c, fiber.StatusOK, "Funding snapshot", snap)
	}
}
