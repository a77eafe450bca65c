package webhook

import (
	"bytes"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/amirasaad/donation/pkg/domain"
	"github.com/golang-jwt/jwt/v5"
)

// Envelope is the signed request shape of the BillPay merchant API.
type Envelope struct {
	Data json.RawMessage `json:"Data"`
	Hash string          `json:"Hash"`
}

// ParseEnvelope decodes a BillPay request body.
func ParseEnvelope(body []byte) (*Envelope, error) {
	var env Envelope
	if err := json.Unmarshal(body, &env); err != nil {
		return nil, domain.NewValidationError("body", "request body is not a JSON object")
	}
	if len(bytes.TrimSpace(env.Data)) == 0 || bytes.Equal(bytes.TrimSpace(env.Data), []byte("null")) {
		return nil, domain.NewValidationError("Data", "is required")
	}
	return &env, nil
}

// AuthenticateBillPay checks a BillPay request. Every configured mechanism
// must pass: the bearer token when a JWT secret is set and the envelope hash
// when an HMAC secret is set.
func (a *Authenticator) AuthenticateBillPay(authorization string, env *Envelope) error {
	if a.cfg.HMACSecret == "" && a.cfg.JwtSecret == "" {
		if a.production {
			return fmt.Errorf("%w: no billpay authentication configured", domain.ErrUnauthorized)
		}
		return nil
	}
	if a.cfg.JwtSecret != "" {
		if err := a.verifyBillPayToken(authorization); err != nil {
			return fmt.Errorf("%w: %v", domain.ErrUnauthorized, err)
		}
	}
	if a.cfg.HMACSecret != "" {
		if err := a.verifyHash(env); err != nil {
			return fmt.Errorf("%w: %v", domain.ErrUnauthorized, err)
		}
	}
	return nil
}

// BillPay tokens are minted by the gateway with its own lifetime, so only
// signature and expiry are enforced.
func (a *Authenticator) verifyBillPayToken(header string) error {
	raw, ok := strings.CutPrefix(strings.TrimSpace(header), "Bearer ")
	if !ok || raw == "" {
		return fmt.Errorf("missing bearer token")
	}
	_, err := jwt.Parse(raw, func(t *jwt.Token) (any, error) {
		return []byte(a.cfg.JwtSecret), nil
	},
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithExpirationRequired(),
		jwt.WithLeeway(a.cfg.Leeway),
		jwt.WithTimeFunc(a.now),
	)
	if err != nil {
		return fmt.Errorf("invalid token: %v", err)
	}
	return nil
}

func (a *Authenticator) verifyHash(env *Envelope) error {
	if env == nil || strings.TrimSpace(env.Hash) == "" {
		return fmt.Errorf("missing hash")
	}
	got, err := hex.DecodeString(strings.TrimSpace(env.Hash))
	if err != nil {
		return fmt.Errorf("malformed hash")
	}
	want, err := BillPayHash(a.cfg.HMACSecret, env.Data)
	if err != nil {
		return fmt.Errorf("hash over invalid data")
	}
	if !hmac.Equal(got, want) {
		return fmt.Errorf("hash mismatch")
	}
	return nil
}

// BillPayHash returns HMAC-SHA256(secret, hex(SHA256(compact(data)))), the
// signature the gateway puts in Envelope.Hash.
func BillPayHash(secret string, data []byte) ([]byte, error) {
	canonical, err := Canonicalize(data)
	if err != nil {
		return nil, err
	}
	digest := sha256.Sum256(canonical)
	return Sign(secret, []byte(hex.EncodeToString(digest[:]))), nil
}
