// Package webhook authenticates and parses payment gateway callbacks.
package webhook

import (
	"bytes"
	"crypto/hmac"
	"crypto/sha256"
	"crypto/subtle"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/amirasaad/donation/pkg/config"
	"github.com/amirasaad/donation/pkg/domain"
	"github.com/golang-jwt/jwt/v5"
)

// Credentials are the authentication material found on one callback.
type Credentials struct {
	// Body is the raw request body.
	Body []byte
	// Signature is the X-Signature header.
	Signature string
	// Authorization is the Authorization header.
	Authorization string
	// Password is the password field of the payload.
	Password string
}

// Authenticator accepts a callback when any configured mechanism passes.
type Authenticator struct {
	cfg        *config.Webhook
	production bool
	now        func() time.Time
}

// NewAuthenticator creates an Authenticator. With no mechanism configured,
// callbacks are accepted unless production is true.
func NewAuthenticator(cfg *config.Webhook, production bool) *Authenticator {
	if cfg == nil {
		cfg = &config.Webhook{}
	}
	return &Authenticator{cfg: cfg, production: production, now: time.Now}
}

// Configured reports whether at least one mechanism has a secret.
func (a *Authenticator) Configured() bool {
	return a.cfg.Password != "" || a.cfg.HMACSecret != "" || a.cfg.JwtSecret != ""
}

// Authenticate returns an error wrapping domain.ErrUnauthorized unless c
// satisfies a configured mechanism.
func (a *Authenticator) Authenticate(c Credentials) error {
	if !a.Configured() {
		if a.production {
			return fmt.Errorf("%w: no webhook authentication configured", domain.ErrUnauthorized)
		}
		return nil
	}

	var reasons []string
	if a.cfg.Password != "" {
		if c.Password != "" && subtle.ConstantTimeCompare([]byte(c.Password), []byte(a.cfg.Password)) == 1 {
			return nil
		}
		reasons = append(reasons, "password mismatch")
	}
	if a.cfg.HMACSecret != "" {
		if err := a.verifySignature(c.Body, c.Signature); err == nil {
			return nil
		} else {
			reasons = append(reasons, err.Error())
		}
	}
	if a.cfg.JwtSecret != "" {
		if err := a.verifyToken(c.Authorization); err == nil {
			return nil
		} else {
			reasons = append(reasons, err.Error())
		}
	}
	return fmt.Errorf("%w: %s", domain.ErrUnauthorized, strings.Join(reasons, "; "))
}

func (a *Authenticator) verifySignature(body []byte, signature string) error {
	signature = strings.TrimPrefix(strings.TrimSpace(signature), "sha256=")
	if signature == "" {
		return fmt.Errorf("missing signature")
	}
	got, err := hex.DecodeString(signature)
	if err != nil {
		return fmt.Errorf("malformed signature")
	}
	canonical, err := Canonicalize(body)
	if err != nil {
		return fmt.Errorf("signature over invalid body")
	}
	if !hmac.Equal(got, Sign(a.cfg.HMACSecret, canonical)) {
		return fmt.Errorf("signature mismatch")
	}
	return nil
}

func (a *Authenticator) verifyToken(header string) error {
	raw, ok := strings.CutPrefix(strings.TrimSpace(header), "Bearer ")
	if !ok || raw == "" {
		return fmt.Errorf("missing bearer token")
	}

	claims := jwt.RegisteredClaims{}
	_, err := jwt.ParseWithClaims(raw, &claims, func(t *jwt.Token) (any, error) {
		return []byte(a.cfg.JwtSecret), nil
	},
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithExpirationRequired(),
		jwt.WithIssuedAt(),
		jwt.WithLeeway(a.cfg.Leeway),
		jwt.WithTimeFunc(a.now),
	)
	if err != nil {
		return fmt.Errorf("invalid token: %v", err)
	}
	if claims.IssuedAt == nil {
		return fmt.Errorf("token has no iat")
	}

	maxAge := a.cfg.MaxTokenAge
	if maxAge <= 0 {
		maxAge = 5 * time.Minute
	}
	if claims.ExpiresAt.Sub(claims.IssuedAt.Time) > maxAge {
		return fmt.Errorf("token lifetime exceeds %s", maxAge)
	}
	if a.now().Sub(claims.IssuedAt.Time) > maxAge+a.cfg.Leeway {
		return fmt.Errorf("token older than %s", maxAge)
	}
	return nil
}

// Canonicalize returns the compact JSON form of body.
func Canonicalize(body []byte) ([]byte, error) {
	var buf bytes.Buffer
	if err := json.Compact(&buf, body); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// Sign returns HMAC-SHA256(secret, canonical).
func Sign(secret string, canonical []byte) []byte {
	mac := hmac.New(sha256.New, []byte(secret))
	mac.Write(canonical)
	return mac.Sum(nil)
}
