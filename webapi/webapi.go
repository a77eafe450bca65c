// Package webapi provides the HTTP API of the donation service.
// It is organized into sub-packages per resource:
// - donation: initiation and status endpoints
// - payment: gateway callback, BillPay merchant API and manual outcome endpoints
// - beneficiary: funding snapshot endpoint
package webapi

import (
	"errors"
	"strings"

	_ "github.com/amirasaad/donation/cmd/server/swagger"
	"github.com/amirasaad/donation/pkg/app"
	beneficiaryweb "github.com/amirasaad/donation/webapi/beneficiary"
	"github.com/amirasaad/donation/webapi/common"
	donationweb "github.com/amirasaad/donation/webapi/donation"
	"github.com/amirasaad/donation/webapi/payment"
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/limiter"
	"github.com/gofiber/fiber/v2/middleware/logger"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/gofiber/swagger"
)

// SetupApp Initialize Fiber with custom configuration
func SetupApp(a *app.App) *fiber.App {
	fiberApp := fiber.New(fiber.Config{
		ErrorHandler: func(c *fiber.Ctx, err error) error {
			return common.ProblemDetailsJSON(c, "Internal Server Error", err)
		},
	})
	fiberApp.Get("/swagger/*", swagger.New(swagger.Config{
		TryItOutEnabled:      true,
		PersistAuthorization: true,
	}))

	maxRequests := 100
	if rl := a.Config.RateLimit; rl != nil && rl.MaxRequests > 0 {
		maxRequests = rl.MaxRequests
	}
	limiterCfg := limiter.Config{
		Max: maxRequests,
		// Uses X-Forwarded-For when behind a proxy, then X-Real-IP, then the peer.
		KeyGenerator: func(c *fiber.Ctx) string {
			if forwardedFor := c.Get("X-Forwarded-For"); forwardedFor != "" {
				if commaIndex := strings.Index(forwardedFor, ","); commaIndex != -1 {
					return strings.TrimSpace(forwardedFor[:commaIndex])
				}
				return strings.TrimSpace(forwardedFor)
			}
			if realIP := c.Get("X-Real-IP"); realIP != "" {
				return realIP
			}
			return c.IP()
		},
		// Gateway callbacks are never throttled.
		Next: func(c *fiber.Ctx) bool {
			return strings.HasPrefix(c.Path(), "/api/v1/payments/azampay/")
		},
		LimitReached: func(c *fiber.Ctx) error {
			return common.ProblemDetailsJSON(
				c,
				"Too Many Requests",
				errors.New("rate limit exceeded"),
				fiber.StatusTooManyRequests,
			)
		},
	}
	if rl := a.Config.RateLimit; rl != nil && rl.Window > 0 {
		limiterCfg.Expiration = rl.Window
	}
	fiberApp.Use(limiter.New(limiterCfg))
	fiberApp.Use(recover.New())
	fiberApp.Use(logger.New())

	// Health check endpoint
	fiberApp.Get("/", func(c *fiber.Ctx) error {
		return c.SendString("Donation API is running! 🚀")
	})

	donationweb.Routes(fiberApp, a.Initiator, a.StatusService, a.Config)
	payment.Routes(fiberApp, a.WebhookAuth, a.Engine, a.StatusService, a.ManualUpdatesEnabled())
	if a.BillPay != nil {
		payment.BillPayRoutes(fiberApp, a.BillPayAuth, a.BillPay)
	}
	beneficiaryweb.Routes(fiberApp, a.Funding)
	return fiberApp
}
