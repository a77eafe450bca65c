package middleware

import (
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/amirasaad/donation/pkg/config"
	"github.com/amirasaad/donation/pkg/domain"
	"github.com/gofiber/fiber/v2"
	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var testJwt = &config.Jwt{Secret: "test-secret", Expiry: time.Hour}

func signedToken(t *testing.T, claims jwt.MapClaims) string {
	t.Helper()
	s, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(testJwt.Secret))
	require.NoError(t, err)
	return s
}

func donorApp(handler fiber.Handler) *fiber.App {
	app := fiber.New()
	app.Use(handler)
	app.Get("/", func(c *fiber.Ctx) error {
		id, ok, err := DonorID(c)
		if err != nil {
			return c.SendStatus(fiber.StatusForbidden)
		}
		if !ok {
			return c.SendString("anonymous")
		}
		return c.SendString(id.String())
	})
	return app
}

func TestJwtProtected_Unauthorized(t *testing.T) {
	app := donorApp(JwtProtected(testJwt))

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	resp, err := app.Test(req)
	require.NoError(t, err)
	assert.Equal(t, fiber.StatusBadRequest, resp.StatusCode)

	req = httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set("Authorization", "Bearer not.a.token")
	resp, err = app.Test(req)
	require.NoError(t, err)
	assert.Equal(t, fiber.StatusUnauthorized, resp.StatusCode)
}

func TestJwtOptional(t *testing.T) {
	app := donorApp(JwtOptional(testJwt))
	donor := uuid.New()

	tests := []struct {
		name   string
		header string
		status int
	}{
		{"anonymous", "", fiber.StatusOK},
		{"valid token", "Bearer " + signedToken(t, jwt.MapClaims{"sub": donor.String(), "exp": time.Now().Add(time.Hour).Unix()}), fiber.StatusOK},
		{"legacy user_id claim", "Bearer " + signedToken(t, jwt.MapClaims{"user_id": donor.String(), "exp": time.Now().Add(time.Hour).Unix()}), fiber.StatusOK},
		{"expired token", "Bearer " + signedToken(t, jwt.MapClaims{"sub": donor.String(), "exp": time.Now().Add(-time.Hour).Unix()}), fiber.StatusUnauthorized},
		{"subject is not a uuid", "Bearer " + signedToken(t, jwt.MapClaims{"sub": "bob", "exp": time.Now().Add(time.Hour).Unix()}), fiber.StatusForbidden},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/", nil)
			if tt.header != "" {
				req.Header.Set("Authorization", tt.header)
			}
			resp, err := app.Test(req)
			require.NoError(t, err)
			assert.Equal(t, tt.status, resp.StatusCode)
		})
	}
}

func TestJwtOptional_NoSecretPassesThrough(t *testing.T) {
	app := donorApp(JwtOptional(&config.Jwt{}))
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set("Authorization", "Bearer whatever")
	resp, err := app.Test(req)
	require.NoError(t, err)
	assert.Equal(t, fiber.StatusOK, resp.StatusCode)
}

func TestJwtError(t *testing.T) {
	tests := map[string]int{
		"Missing or malformed JWT": fiber.StatusBadRequest,
		"missing or malformed JWT": fiber.StatusBadRequest,
		"any other error":          fiber.StatusUnauthorized,
	}
	for msg, status := range tests {
		app := fiber.New()
		app.Use(func(c *fiber.Ctx) error { return jwtError(c, errors.New(msg)) })
		resp, err := app.Test(httptest.NewRequest(http.MethodGet, "/", nil))
		require.NoError(t, err)
		assert.Equal(t, status, resp.StatusCode, msg)
	}
}

func TestDonorID_Errors(t *testing.T) {
	app := fiber.New()
	app.Get("/", func(c *fiber.Ctx) error {
		c.Locals(UserContextKey, jwt.New(jwt.SigningMethodHS256))
		_, _, err := DonorID(c)
		assert.ErrorIs(t, err, domain.ErrUnauthorized)
		return nil
	})
	_, err := app.Test(httptest.NewRequest(http.MethodGet, "/", nil))
	require.NoError(t, err)
}
