package webhook

import (
	"encoding/hex"
	"testing"
	"time"

	"github.com/amirasaad/donation/pkg/config"
	"github.com/amirasaad/donation/pkg/domain"
	"github.com/amirasaad/donation/pkg/service/reconcile"
	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const body = `{
  "externalreference": "RHCI-20250101-abc",
  "reference": "AZ-77",
  "transactionstatus": "success",
  "amount": 5000,
  "msisdn": "255712345678",
  "operator": "Mpesa",
  "password": "s3cret"
}`

func signToken(t *testing.T, secret string, iat, exp time.Time, method jwt.SigningMethod) string {
	t.Helper()
	token := jwt.NewWithClaims(method, jwt.RegisteredClaims{
		IssuedAt:  jwt.NewNumericDate(iat),
		ExpiresAt: jwt.NewNumericDate(exp),
	})
	signed, err := token.SignedString([]byte(secret))
	require.NoError(t, err)
	return signed
}

func TestAuthenticate_NoMechanism(t *testing.T) {
	t.Parallel()
	assert.NoError(t, NewAuthenticator(&config.Webhook{}, false).Authenticate(Credentials{}))

	err := NewAuthenticator(nil, true).Authenticate(Credentials{})
	assert.ErrorIs(t, err, domain.ErrUnauthorized)
}

func TestAuthenticate_Password(t *testing.T) {
	t.Parallel()
	a := NewAuthenticator(&config.Webhook{Password: "s3cret"}, true)

	assert.NoError(t, a.Authenticate(Credentials{Password: "s3cret"}))
	assert.ErrorIs(t, a.Authenticate(Credentials{Password: "wrong"}), domain.ErrUnauthorized)
	assert.ErrorIs(t, a.Authenticate(Credentials{}), domain.ErrUnauthorized)
}

func TestAuthenticate_Signature(t *testing.T) {
	t.Parallel()
	a := NewAuthenticator(&config.Webhook{HMACSecret: "hmac-key"}, true)
	canonical, err := Canonicalize([]byte(body))
	require.NoError(t, err)
	sig := hex.EncodeToString(Sign("hmac-key", canonical))

	assert.NoError(t, a.Authenticate(Credentials{Body: []byte(body), Signature: sig}))
	assert.NoError(t, a.Authenticate(Credentials{Body: []byte(body), Signature: "sha256=" + sig}),
		"prefix is accepted")
	assert.NoError(t, a.Authenticate(Credentials{Body: canonical, Signature: sig}),
		"whitespace does not change the signature")

	tampered := []byte(`{"externalreference":"RHCI-20250101-abc","transactionstatus":"failed"}`)
	assert.ErrorIs(t, a.Authenticate(Credentials{Body: tampered, Signature: sig}), domain.ErrUnauthorized)
	assert.ErrorIs(t, a.Authenticate(Credentials{Body: []byte(body), Signature: "zz"}), domain.ErrUnauthorized)
	assert.ErrorIs(t, a.Authenticate(Credentials{Body: []byte(body)}), domain.ErrUnauthorized)
}

func TestAuthenticate_Token(t *testing.T) {
	t.Parallel()
	now := time.Date(2025, 1, 1, 12, 0, 0, 0, time.UTC)
	cfg := &config.Webhook{JwtSecret: "jwt-key", MaxTokenAge: 5 * time.Minute, Leeway: 10 * time.Second}
	a := NewAuthenticator(cfg, true)
	a.now = func() time.Time { return now }

	tests := []struct {
		name  string
		token string
		ok    bool
	}{
		{"fresh", signToken(t, "jwt-key", now.Add(-time.Minute), now.Add(2*time.Minute), jwt.SigningMethodHS256), true},
		{"expired", signToken(t, "jwt-key", now.Add(-4*time.Minute), now.Add(-time.Minute), jwt.SigningMethodHS256), false},
		{"lifetime too long", signToken(t, "jwt-key", now, now.Add(time.Hour), jwt.SigningMethodHS256), false},
		{"issued in the future", signToken(t, "jwt-key", now.Add(time.Minute), now.Add(3*time.Minute), jwt.SigningMethodHS256), false},
		{"wrong key", signToken(t, "other", now, now.Add(time.Minute), jwt.SigningMethodHS256), false},
		{"wrong algorithm", signToken(t, "jwt-key", now, now.Add(time.Minute), jwt.SigningMethodHS512), false},
		{"garbage", "not-a-jwt", false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := a.Authenticate(Credentials{Authorization: "Bearer " + tt.token})
			if tt.ok {
				assert.NoError(t, err)
			} else {
				assert.ErrorIs(t, err, domain.ErrUnauthorized)
			}
		})
	}

	assert.ErrorIs(t, a.Authenticate(Credentials{Authorization: "Basic abc"}), domain.ErrUnauthorized)
}

func TestAuthenticate_AnyMechanismSuffices(t *testing.T) {
	t.Parallel()
	a := NewAuthenticator(&config.Webhook{Password: "s3cret", HMACSecret: "hmac-key"}, true)
	assert.NoError(t, a.Authenticate(Credentials{Password: "s3cret", Signature: "deadbeef", Body: []byte(body)}))

	err := a.Authenticate(Credentials{Password: "nope", Signature: "deadbeef", Body: []byte(body)})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "password mismatch")
	assert.Contains(t, err.Error(), "signature mismatch")
}

func TestParsePayload(t *testing.T) {
	t.Parallel()
	p, err := ParsePayload([]byte(body))
	require.NoError(t, err)
	assert.Equal(t, "RHCI-20250101-abc", p.ExternalReference)
	assert.Equal(t, "AZ-77", p.TransactionID)
	assert.Equal(t, "success", p.Status)
	assert.Equal(t, "5000", p.Amount)
	assert.Equal(t, "Mpesa", p.Operator)
	assert.Equal(t, "s3cret", p.Password)

	o := p.Outcome()
	assert.Equal(t, reconcile.SourceWebhook, o.Source)
	assert.Equal(t, "RHCI-20250101-abc", o.Reference)
	assert.Equal(t, "AZ-77", o.ProviderTransactionID)
	assert.Equal(t, "success", o.RawStatus)
}

func TestParsePayload_Aliases(t *testing.T) {
	t.Parallel()
	p, err := ParsePayload([]byte(`{"utilityref":"RHCI-x","transid":"T1","status":"FAILED","amount":"12.50","message":"Insufficient balance"}`))
	require.NoError(t, err)
	assert.Equal(t, "RHCI-x", p.ExternalReference)
	assert.Equal(t, "T1", p.TransactionID)
	assert.Equal(t, "FAILED", p.Status)
	assert.Equal(t, "12.50", p.Amount)
	assert.Equal(t, "Insufficient balance", p.Outcome().Message)

	p, err = ParsePayload([]byte(`{"externalId":"RHCI-y","externalreference":"","transactionId":"T2"}`))
	require.NoError(t, err)
	assert.Equal(t, "RHCI-y", p.ExternalReference, "empty values fall through to the next alias")
	assert.Equal(t, "T2", p.TransactionID)
}

func TestParsePayload_Invalid(t *testing.T) {
	t.Parallel()
	_, err := ParsePayload([]byte(`[1,2]`))
	assert.ErrorIs(t, err, domain.ErrValidation)

	_, err = ParsePayload([]byte(`{"transactionstatus":"success"}`))
	assert.ErrorIs(t, err, domain.ErrValidation)
}
