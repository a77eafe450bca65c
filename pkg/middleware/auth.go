package middleware

import (
	"errors"
	"fmt"
	"strings"

	"github.com/amirasaad/donation/pkg/config"
	"github.com/amirasaad/donation/pkg/domain"
	jwtware "github.com/gofiber/contrib/jwt"
	"github.com/gofiber/fiber/v2"
	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

// UserContextKey is where a verified token is stored in fiber locals.
const UserContextKey = "user"

// JwtProtected requires a valid HS256 bearer token.
func JwtProtected(cfg *config.Jwt) fiber.Handler {
	return jwtware.New(jwtConfig(cfg, nil))
}

// JwtOptional verifies a bearer token when one is sent and lets requests
// without an Authorization header through as anonymous.
func JwtOptional(cfg *config.Jwt) fiber.Handler {
	if cfg == nil || cfg.Secret == "" {
		return func(c *fiber.Ctx) error { return c.Next() }
	}
	return jwtware.New(jwtConfig(cfg, func(c *fiber.Ctx) bool {
		return c.Get(fiber.HeaderAuthorization) == ""
	}))
}

func jwtConfig(cfg *config.Jwt, filter func(*fiber.Ctx) bool) jwtware.Config {
	secret := ""
	if cfg != nil {
		secret = cfg.Secret
	}
	return jwtware.Config{
		Filter:       filter,
		SigningKey:   jwtware.SigningKey{JWTAlg: jwtware.HS256, Key: []byte(secret)},
		ContextKey:   UserContextKey,
		ErrorHandler: jwtError,
	}
}

func jwtError(c *fiber.Ctx, err error) error {
	if strings.EqualFold(err.Error(), "Missing or malformed JWT") {
		return c.Status(fiber.StatusBadRequest).
			JSON(fiber.Map{"status": "error", "message": "Missing or malformed JWT", "data": nil})
	}
	return c.Status(fiber.StatusUnauthorized).
		JSON(fiber.Map{"status": "error", "message": "Invalid or expired JWT", "data": nil})
}

// DonorID returns the subject of the verified token, if any. ok is false
// for anonymous requests.
func DonorID(c *fiber.Ctx) (id uuid.UUID, ok bool, err error) {
	token, present := c.Locals(UserContextKey).(*jwt.Token)
	if !present || token == nil {
		return uuid.Nil, false, nil
	}
	sub, err := token.Claims.GetSubject()
	if err != nil || sub == "" {
		if claims, isMap := token.Claims.(jwt.MapClaims); isMap {
			if v, isString := claims["user_id"].(string); isString {
				sub = v
			}
		}
	}
	if sub == "" {
		return uuid.Nil, false, fmt.Errorf("%w: token has no subject", domain.ErrUnauthorized)
	}
	id, err = uuid.Parse(sub)
	if err != nil {
		return uuid.Nil, false, errors.Join(domain.ErrUnauthorized, fmt.Errorf("token subject is not a user id: %w", err))
	}
	return id, true, nil
}
