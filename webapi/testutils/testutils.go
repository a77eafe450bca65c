package testutils

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"time"

	"github.com/amirasaad/donation/infra/eventbus"
	"github.com/amirasaad/donation/infra/provider/mockpayment"
	"github.com/amirasaad/donation/internal/fixtures/fakerepo"
	"github.com/amirasaad/donation/pkg/app"
	"github.com/amirasaad/donation/pkg/config"
	"github.com/amirasaad/donation/pkg/domain/beneficiary"
	"github.com/amirasaad/donation/pkg/repository"
	"github.com/amirasaad/donation/webapi"
	"github.com/gofiber/fiber/v2"
	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/suite"
)

// Envelope mirrors common.Response with raw data for decoding in tests.
type Envelope struct {
	Status  int             `json:"status"`
	Message string          `json:"message"`
	Data    json.RawMessage `json:"data"`
}

// TestConfig returns a sandbox configuration with every webhook mechanism
// disabled.
func TestConfig() *config.App {
	return &config.App{
		Env:       "test",
		Auth:      &config.Auth{Jwt: &config.Jwt{Secret: "test-secret", Expiry: time.Hour}},
		RateLimit: &config.RateLimit{MaxRequests: 1000, Window: time.Minute},
		Gateway:   &config.Gateway{Environment: "sandbox"},
		Currency: &config.Currency{
			Settlement:  "TZS",
			Multipliers: map[string]string{"USD": "2300"},
		},
		Webhook:  &config.Webhook{MaxTokenAge: 5 * time.Minute, Leeway: 30 * time.Second},
		Donation: &config.Donation{ReferencePrefix: "RHCI", CountryCode: "255", Milestones: []int{25, 50, 75, 100}},
	}
}

// APITestSuite runs the HTTP API over in-memory infrastructure.
type APITestSuite struct {
	suite.Suite
	Cfg     *config.App
	Uow     repository.UnitOfWork
	Store   *fakerepo.Store
	Gateway *mockpayment.MockPaymentProvider
	Bus     *eventbus.MemoryEventBus
	App     *app.App
	Fiber   *fiber.App
}

// SetupTest builds a fresh app per test. Tests may change Cfg and call
// Rebuild.
func (s *APITestSuite) SetupTest() {
	s.Cfg = TestConfig()
	s.Store = fakerepo.New()
	s.Uow = s.Store
	s.Rebuild()
}

// Rebuild recreates the services and routes from the current Cfg and Uow.
func (s *APITestSuite) Rebuild() {
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	s.Gateway = mockpayment.NewMockPaymentProvider()
	s.Bus = eventbus.NewWithMemory(logger)
	s.App = app.New(&app.Deps{
		Uow:             s.Uow,
		PaymentProvider: s.Gateway,
		EventBus:        s.Bus,
		Logger:          logger,
	}, s.Cfg)
	s.Fiber = webapi.SetupApp(s.App)
}

// CreateBeneficiary stores an active beneficiary needing required TZS.
func (s *APITestSuite) CreateBeneficiary(required int64) uuid.UUID {
	repo, err := s.Uow.BeneficiaryRepository()
	s.Require().NoError(err)
	b := &beneficiary.Beneficiary{
		ID:              uuid.New(),
		FullName:        "Test Patient",
		Status:          beneficiary.StatusAwaitingFunding,
		FundingRequired: decimal.NewFromInt(required),
	}
	s.Require().NoError(repo.Create(context.Background(), b))
	return b.ID
}

// DonorToken signs a donor token with the test secret.
func (s *APITestSuite) DonorToken(donorID uuid.UUID) string {
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
		"sub": donorID.String(),
		"exp": time.Now().Add(time.Hour).Unix(),
	})
	signed, err := token.SignedString([]byte(s.Cfg.Auth.Jwt.Secret))
	s.Require().NoError(err)
	return signed
}

// MakeRequest sends a request through the fiber app.
func (s *APITestSuite) MakeRequest(method, path, body, token string, headers ...string) *http.Response {
	var req *http.Request
	if body != "" {
		req = httptest.NewRequest(method, path, bytes.NewBufferString(body))
		req.Header.Set("Content-Type", "application/json")
	} else {
		req = httptest.NewRequest(method, path, nil)
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	for i := 0; i+1 < len(headers); i += 2 {
		req.Header.Set(headers[i], headers[i+1])
	}
	resp, err := s.Fiber.Test(req, 10000)
	s.Require().NoError(err)
	return resp
}

// Decode reads an envelope and unmarshals its data into out when non-nil.
func (s *APITestSuite) Decode(resp *http.Response, out any) Envelope {
	defer resp.Body.Close() //nolint: errcheck
	var env Envelope
	s.Require().NoError(json.NewDecoder(resp.Body).Decode(&env))
	if out != nil && len(env.Data) > 0 {
		s.Require().NoError(json.Unmarshal(env.Data, out))
	}
	return env
}
