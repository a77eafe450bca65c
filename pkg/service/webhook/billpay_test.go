package webhook

import (
	"encoding/hex"
	"testing"
	"time"

	"github.com/amirasaad/donation/pkg/config"
	"github.com/amirasaad/donation/pkg/domain"
	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const billPayBody = `{
  "Data": {
    "BillIdentifier": "abc",
    "Currency": "TZS"
  },
  "Hash": "408a36f75fe0d93fb516cd93977542bc6361ba3f1de055f0ae88c17737d6616f"
}`

func TestBillPayHash_MatchesGatewayVector(t *testing.T) {
	t.Parallel()
	got, err := BillPayHash("billpay-key", []byte(`{ "BillIdentifier": "abc", "Currency": "TZS" }`))
	require.NoError(t, err)
	assert.Equal(t, "408a36f75fe0d93fb516cd93977542bc6361ba3f1de055f0ae88c17737d6616f", hex.EncodeToString(got))
}

func TestParseEnvelope(t *testing.T) {
	t.Parallel()
	env, err := ParseEnvelope([]byte(billPayBody))
	require.NoError(t, err)
	assert.NotEmpty(t, env.Hash)
	assert.Contains(t, string(env.Data), "BillIdentifier")

	_, err = ParseEnvelope([]byte(`{"Hash":"x"}`))
	assert.ErrorIs(t, err, domain.ErrValidation)
	_, err = ParseEnvelope([]byte(`not json`))
	assert.ErrorIs(t, err, domain.ErrValidation)
}

func TestAuthenticateBillPay_Hash(t *testing.T) {
	t.Parallel()
	a := NewAuthenticator(&config.Webhook{HMACSecret: "billpay-key"}, true)
	env, err := ParseEnvelope([]byte(billPayBody))
	require.NoError(t, err)
	assert.NoError(t, a.AuthenticateBillPay("", env))

	tampered := *env
	tampered.Data = []byte(`{"BillIdentifier":"abd","Currency":"TZS"}`)
	assert.ErrorIs(t, a.AuthenticateBillPay("", &tampered), domain.ErrUnauthorized)

	missing := *env
	missing.Hash = ""
	assert.ErrorIs(t, a.AuthenticateBillPay("", &missing), domain.ErrUnauthorized)
}

func TestAuthenticateBillPay_RequiresEveryMechanism(t *testing.T) {
	t.Parallel()
	now := time.Now()
	a := NewAuthenticator(&config.Webhook{HMACSecret: "billpay-key", JwtSecret: "jwt-key", Leeway: time.Second}, true)
	env, err := ParseEnvelope([]byte(billPayBody))
	require.NoError(t, err)

	// Gateway tokens may live longer than callback tokens.
	token := signToken(t, "jwt-key", now.Add(-time.Hour), now.Add(time.Hour), jwt.SigningMethodHS256)
	assert.NoError(t, a.AuthenticateBillPay("Bearer "+token, env))

	assert.ErrorIs(t, a.AuthenticateBillPay("", env), domain.ErrUnauthorized)

	expired := signToken(t, "jwt-key", now.Add(-time.Hour), now.Add(-time.Minute), jwt.SigningMethodHS256)
	assert.ErrorIs(t, a.AuthenticateBillPay("Bearer "+expired, env), domain.ErrUnauthorized)

	tampered := *env
	tampered.Hash = hex.EncodeToString([]byte("nope"))
	assert.ErrorIs(t, a.AuthenticateBillPay("Bearer "+token, &tampered), domain.ErrUnauthorized)
}

func TestAuthenticateBillPay_NoMechanism(t *testing.T) {
	t.Parallel()
	env := &Envelope{Data: []byte(`{}`)}
	assert.NoError(t, NewAuthenticator(&config.Webhook{}, false).AuthenticateBillPay("", env))
	assert.ErrorIs(t, NewAuthenticator(&config.Webhook{Password: "pw"}, true).AuthenticateBillPay("", env), domain.ErrUnauthorized)
}
