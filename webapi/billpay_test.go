package webapi_test

import (
	"encoding/hex"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/amirasaad/donation/pkg/config"
	"github.com/amirasaad/donation/pkg/domain/beneficiary"
	"github.com/amirasaad/donation/pkg/domain/donation"
	"github.com/amirasaad/donation/pkg/service/webhook"
	"github.com/amirasaad/donation/webapi/payment"
	"github.com/gofiber/fiber/v2"
	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

const (
	billPayHMAC = "billpay-hmac"
	billPayJWT  = "billpay-jwt"
)

func (s *WebAPITestSuite) enableBillPay() {
	s.Cfg.BillPay = &config.BillPay{Enabled: true, HMACSecret: billPayHMAC, JwtSecret: billPayJWT, Leeway: time.Second}
	s.Rebuild()
}

func (s *WebAPITestSuite) billPayToken() string {
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
		"sub": "azampay",
		"exp": time.Now().Add(time.Hour).Unix(),
	})
	signed, err := token.SignedString([]byte(billPayJWT))
	s.Require().NoError(err)
	return signed
}

// billPay signs data the way the gateway does and posts it.
func (s *WebAPITestSuite) billPay(path, data string) *http.Response {
	hash, err := webhook.BillPayHash(billPayHMAC, []byte(data))
	s.Require().NoError(err)
	body := fmt.Sprintf(`{"Data":%s,"Hash":%q}`, data, hex.EncodeToString(hash))
	return s.MakeRequest(fiber.MethodPost, "/api/v1/payments/azampay/billpay/"+path, body, s.billPayToken())
}

func (s *WebAPITestSuite) decodeBillPay(resp *http.Response, out any) {
	defer resp.Body.Close() //nolint: errcheck
	s.Require().NoError(json.NewDecoder(resp.Body).Decode(out))
}

func (s *WebAPITestSuite) TestBillPay_DisabledByDefault() {
	resp := s.MakeRequest(fiber.MethodPost, "/api/v1/payments/azampay/billpay/name-lookup", `{"Data":{},"Hash":"x"}`, "")
	defer resp.Body.Close() //nolint: errcheck
	s.Equal(fiber.StatusNotFound, resp.StatusCode)
}

func (s *WebAPITestSuite) TestBillPay_NameLookup() {
	s.enableBillPay()
	bID := s.CreateBeneficiary(1_000_000)

	resp := s.billPay("name-lookup", fmt.Sprintf(`{"BillIdentifier":%q,"Currency":"TZS","Language":"en"}`, bID))
	s.Equal(fiber.StatusOK, resp.StatusCode)
	var out payment.NameLookupResponse
	s.decodeBillPay(resp, &out)
	s.Equal("Success", out.Status)
	s.Equal(0, out.StatusCode)
	s.Equal("Test Patient", out.Name)
	s.Equal(bID.String(), out.BillIdentifier)
	amount, err := decimal.NewFromString(out.BillAmount.String())
	s.Require().NoError(err)
	s.True(amount.Equal(decimal.NewFromInt(1_000_000)))

	resp = s.billPay("name-lookup", fmt.Sprintf(`{"BillIdentifier":%q}`, uuid.New()))
	s.Equal(fiber.StatusNotFound, resp.StatusCode)
	s.decodeBillPay(resp, &out)
	s.Equal("Failed", out.Status)
	s.Equal(fiber.StatusNotFound, out.StatusCode)
}

func (s *WebAPITestSuite) TestBillPay_Authentication() {
	s.enableBillPay()
	bID := s.CreateBeneficiary(1_000_000)
	data := fmt.Sprintf(`{"BillIdentifier":%q}`, bID)
	hash, err := webhook.BillPayHash(billPayHMAC, []byte(data))
	s.Require().NoError(err)
	signed := fmt.Sprintf(`{"Data":%s,"Hash":%q}`, data, hex.EncodeToString(hash))
	path := "/api/v1/payments/azampay/billpay/name-lookup"

	resp := s.MakeRequest(fiber.MethodPost, path, signed, "")
	s.Equal(fiber.StatusUnauthorized, resp.StatusCode, "token is required")
	var out payment.NameLookupResponse
	s.decodeBillPay(resp, &out)
	s.Equal("Failed", out.Status)
	s.Empty(out.Name)

	tampered := fmt.Sprintf(`{"Data":{"BillIdentifier":%q},"Hash":%q}`, uuid.New(), hex.EncodeToString(hash))
	resp = s.MakeRequest(fiber.MethodPost, path, tampered, s.billPayToken())
	defer resp.Body.Close() //nolint: errcheck
	s.Equal(fiber.StatusUnauthorized, resp.StatusCode, "hash must cover Data")

	resp = s.MakeRequest(fiber.MethodPost, path, `not json`, s.billPayToken())
	defer resp.Body.Close() //nolint: errcheck
	s.Equal(fiber.StatusBadRequest, resp.StatusCode)
}

func (s *WebAPITestSuite) TestBillPay_PaymentNotification() {
	s.enableBillPay()
	bID := s.CreateBeneficiary(10_000)
	data := fmt.Sprintf(`{
		"FspReferenceId": "fsp123456",
		"PgReferenceId": "pg123456",
		"Amount": 10000,
		"BillIdentifier": %q,
		"PaymentDesc": "Medical donation",
		"FspCode": "MPESA",
		"AdditionalProperties": {"phone": "255712345678"}
	}`, bID)

	resp := s.billPay("payment", data)
	s.Equal(fiber.StatusOK, resp.StatusCode)
	var first payment.PaymentResponse
	s.decodeBillPay(resp, &first)
	s.Equal("Success", first.Status)
	s.Equal("Payment successful.", first.Message)

	id, err := donation.ParseReference(first.MerchantReferenceID)
	s.Require().NoError(err)
	d, ok := s.Store.Donation(id)
	s.Require().True(ok)
	s.Equal(donation.StatusCompleted, d.Status)
	s.Equal("pg123456", d.ProviderTransactionID)

	b, _ := s.Store.Beneficiary(bID)
	s.True(b.FundingReceived.Equal(decimal.NewFromInt(10_000)))
	s.Equal(beneficiary.StatusFullyFunded, b.Status)

	resp = s.billPay("payment", data)
	s.Equal(fiber.StatusOK, resp.StatusCode)
	var second payment.PaymentResponse
	s.decodeBillPay(resp, &second)
	s.Equal("Payment already processed", second.Message)
	s.Equal(first.MerchantReferenceID, second.MerchantReferenceID)
	b, _ = s.Store.Beneficiary(bID)
	s.True(b.FundingReceived.Equal(decimal.NewFromInt(10_000)), "redelivery is not credited")

	resp = s.billPay("payment", fmt.Sprintf(`{"PgReferenceId":"pg-x","Amount":0,"BillIdentifier":%q}`, bID))
	s.Equal(fiber.StatusBadRequest, resp.StatusCode)
	var invalid payment.PaymentResponse
	s.decodeBillPay(resp, &invalid)
	s.Equal("Failed", invalid.Status)
	s.Equal(fiber.StatusBadRequest, invalid.StatusCode)
}

func (s *WebAPITestSuite) TestBillPay_StatusCheck() {
	s.enableBillPay()
	bID := s.CreateBeneficiary(100_000)
	resp := s.billPay("payment", fmt.Sprintf(`{"PgReferenceId":"pg-status","Amount":"2500","BillIdentifier":%q,"FspCode":"TIGO"}`, bID))
	var paid payment.PaymentResponse
	s.decodeBillPay(resp, &paid)
	s.Require().Equal("Success", paid.Status)

	resp = s.billPay("status-check", fmt.Sprintf(`{"MerchantReferenceId":%q}`, paid.MerchantReferenceID))
	s.Equal(fiber.StatusOK, resp.StatusCode)
	var out payment.StatusCheckResponse
	s.decodeBillPay(resp, &out)
	s.Equal("COMPLETED", out.PaymentStatus)
	s.Equal(bID.String(), out.BillIdentifier)
	s.Equal("Test Patient", out.PatientName)
	s.NotEmpty(out.PaymentDate)
	amount, err := decimal.NewFromString(out.Amount.String())
	s.Require().NoError(err)
	s.True(amount.Equal(decimal.NewFromInt(2500)))

	resp = s.billPay("status-check", `{"MerchantReferenceId":"RHCI-DN-missing"}`)
	defer resp.Body.Close() //nolint: errcheck
	s.Equal(fiber.StatusNotFound, resp.StatusCode)
}
