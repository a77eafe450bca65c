package payment

import (
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/amirasaad/donation/pkg/domain"
	"github.com/amirasaad/donation/pkg/service/billpay"
	"github.com/amirasaad/donation/pkg/service/webhook"
	"github.com/amirasaad/donation/webapi/common"
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/log"
	"github.com/shopspring/decimal"
)

const (
	billPaySuccess = "Success"
	billPayFailed  = "Failed"
)

// BillPayRequest is the signed envelope every BillPay call arrives in.
type BillPayRequest struct {
	Data json.RawMessage `json:"Data" swaggertype:"object"`
	Hash string          `json:"Hash"`
}

// NameLookupData is the Data of a name lookup.
type NameLookupData struct {
	BillIdentifier string `json:"BillIdentifier"`
	Currency       string `json:"Currency"`
	Language       string `json:"Language"`
	Country        string `json:"Country"`
	TimeStamp      string `json:"TimeStamp"`
	BillType       string `json:"BillType"`
}

// PaymentData is the Data of a payment notification.
type PaymentData struct {
	FspReferenceID       string          `json:"FspReferenceId"`
	PgReferenceID        string          `json:"PgReferenceId"`
	Amount               decimal.Decimal `json:"Amount" swaggertype:"number"`
	BillIdentifier       string          `json:"BillIdentifier"`
	PaymentDesc          string          `json:"PaymentDesc"`
	FspCode              string          `json:"FspCode"`
	Country              string          `json:"Country"`
	TimeStamp            string          `json:"TimeStamp"`
	BillType             string          `json:"BillType"`
	AdditionalProperties map[string]any  `json:"AdditionalProperties"`
}

// StatusCheckData is the Data of a status check.
type StatusCheckData struct {
	MerchantReferenceID string `json:"MerchantReferenceId"`
}

// BillPayStatus is the outcome block shared by every BillPay response.
// StatusCode is 0 on success and the HTTP status otherwise.
type BillPayStatus struct {
	Status     string `json:"Status"`
	StatusCode int    `json:"StatusCode"`
	Message    string `json:"Message"`
}

// NameLookupResponse answers a name lookup.
type NameLookupResponse struct {
	Name           string      `json:"Name"`
	BillAmount     json.Number `json:"BillAmount" swaggertype:"number"`
	BillIdentifier string      `json:"BillIdentifier"`
	BillPayStatus
}

// PaymentResponse answers a payment notification.
type PaymentResponse struct {
	MerchantReferenceID string `json:"MerchantReferenceId"`
	BillPayStatus
}

// StatusCheckResponse answers a status check.
type StatusCheckResponse struct {
	MerchantReferenceID string      `json:"MerchantReferenceId"`
	PaymentStatus       string      `json:"PaymentStatus,omitempty"`
	Amount              json.Number `json:"Amount,omitempty" swaggertype:"number"`
	BillIdentifier      string      `json:"BillIdentifier,omitempty"`
	PatientName         string      `json:"PatientName,omitempty"`
	PaymentDate         string      `json:"PaymentDate,omitempty"`
	BillPayStatus
}

// BillPayRoutes registers the merchant API the gateway calls for bill
// payments. The paths sit under the gateway prefix so they are not rate
// limited.
func BillPayRoutes(app *fiber.App, auth *webhook.Authenticator, svc *billpay.Service) {
	group := app.Group("/api/v1/payments/azampay/billpay")
	group.Post("/name-lookup", NameLookup(auth, svc))
	group.Post("/payment", PaymentNotification(auth, svc))
	group.Post("/status-check", StatusCheck(auth, svc))
}

// NameLookup returns a Fiber handler resolving a bill identifier.
// @Summary BillPay name lookup
// @Description Returns the beneficiary behind a bill identifier and the amount still needed.
// @Tags billpay
// @Accept json
// @Produce json
// @Param request body BillPayRequest true "Signed NameLookupData"
// @Success 200 {object} NameLookupResponse
// @Failure 401 {object} NameLookupResponse
// @Failure 404 {object} NameLookupResponse
// @Router /api/v1/payments/azampay/billpay/name-lookup [post]
func NameLookup(auth *webhook.Authenticator, svc *billpay.Service) fiber.Handler {
	return func(c *fiber.Ctx) error {
		var data NameLookupData
		if err := readBillPay(c, auth, &data); err != nil {
			return replyFailure(c, err, &NameLookupResponse{BillIdentifier: data.BillIdentifier, BillAmount: "0"})
		}
		bill, err := svc.Lookup(c.UserContext(), data.BillIdentifier)
		if err != nil {
			return replyFailure(c, err, &NameLookupResponse{BillIdentifier: data.BillIdentifier, BillAmount: "0"})
		}
		return c.Status(fiber.StatusOK).JSON(NameLookupResponse{
			Name:           bill.Name,
			BillAmount:     json.Number(bill.Amount.StringFixed(2)),
			BillIdentifier: bill.Identifier,
			BillPayStatus:  succeeded("Name found for the provided BillIdentifier."),
		})
	}
}

// PaymentNotification returns a Fiber handler recording a collected bill
// payment. Redelivered notifications are acknowledged with the original
// merchant reference.
// @Summary BillPay payment notification
// @Description Records a payment collected by the gateway as a completed donation and credits the beneficiary.
// @Tags billpay
// @Accept json
// @Produce json
// @Param request body BillPayRequest true "Signed PaymentData"
// @Success 200 {object} PaymentResponse
// @Failure 400 {object} PaymentResponse
// @Failure 401 {object} PaymentResponse
// @Failure 404 {object} PaymentResponse
// @Router /api/v1/payments/azampay/billpay/payment [post]
func PaymentNotification(auth *webhook.Authenticator, svc *billpay.Service) fiber.Handler {
	return func(c *fiber.Ctx) error {
		var data PaymentData
		if err := readBillPay(c, auth, &data); err != nil {
			return replyFailure(c, err, &PaymentResponse{})
		}
		phone, _ := data.AdditionalProperties["phone"].(string)
		receipt, err := svc.Pay(c.UserContext(), billpay.Notice{
			FspReferenceID: data.FspReferenceID,
			PgReferenceID:  data.PgReferenceID,
			Amount:         data.Amount,
			BillIdentifier: data.BillIdentifier,
			Description:    data.PaymentDesc,
			FspCode:        data.FspCode,
			Phone:          phone,
		})
		if err != nil {
			return replyFailure(c, err, &PaymentResponse{})
		}
		message := "Payment successful."
		if receipt.Duplicate {
			message = "Payment already processed"
		}
		return c.Status(fiber.StatusOK).JSON(PaymentResponse{
			MerchantReferenceID: receipt.MerchantReferenceID,
			BillPayStatus:       succeeded(message),
		})
	}
}

// StatusCheck returns a Fiber handler reporting a bill payment's status.
// @Summary BillPay status check
// @Description Reports the donation behind a merchant reference.
// @Tags billpay
// @Accept json
// @Produce json
// @Param request body BillPayRequest true "Signed StatusCheckData"
// @Success 200 {object} StatusCheckResponse
// @Failure 401 {object} StatusCheckResponse
// @Failure 404 {object} StatusCheckResponse
// @Router /api/v1/payments/azampay/billpay/status-check [post]
func StatusCheck(auth *webhook.Authenticator, svc *billpay.Service) fiber.Handler {
	return func(c *fiber.Ctx) error {
		var data StatusCheckData
		if err := readBillPay(c, auth, &data); err != nil {
			return replyFailure(c, err, &StatusCheckResponse{MerchantReferenceID: data.MerchantReferenceID})
		}
		state, err := svc.Status(c.UserContext(), data.MerchantReferenceID)
		if err != nil {
			return replyFailure(c, err, &StatusCheckResponse{MerchantReferenceID: data.MerchantReferenceID})
		}
		resp := StatusCheckResponse{
			MerchantReferenceID: state.MerchantReferenceID,
			PaymentStatus:       state.Status.String(),
			Amount:              json.Number(state.Amount.StringFixed(2)),
			BillIdentifier:      state.BillIdentifier,
			PatientName:         state.BeneficiaryName,
			BillPayStatus:       succeeded("Payment status retrieved successfully"),
		}
		if state.CompletedAt != nil {
			resp.PaymentDate = state.CompletedAt.UTC().Format(time.RFC3339)
		}
		return c.Status(fiber.StatusOK).JSON(resp)
	}
}

// readBillPay authenticates the envelope and decodes its Data into out.
func readBillPay(c *fiber.Ctx, auth *webhook.Authenticator, out any) error {
	env, err := webhook.ParseEnvelope(c.Body())
	if err != nil {
		return err
	}
	if err := auth.AuthenticateBillPay(c.Get(fiber.HeaderAuthorization), env); err != nil {
		log.Warnf("Rejected BillPay request from %s: %v", c.IP(), err)
		return err
	}
	if err := json.Unmarshal(env.Data, out); err != nil {
		return domain.NewValidationError("Data", fmt.Sprintf("malformed: %v", err))
	}
	return nil
}

type statusSetter interface {
	setStatus(BillPayStatus)
}

func (s *BillPayStatus) setStatus(st BillPayStatus) { *s = st }

func replyFailure(c *fiber.Ctx, err error, resp statusSetter) error {
	code := common.ErrorToStatusCode(err)
	message := err.Error()
	switch {
	case errors.Is(err, domain.ErrUnauthorized):
		message = "Invalid or expired credentials"
	case code >= fiber.StatusInternalServerError:
		log.Errorf("BillPay request failed: %v", err)
		message = "Internal server error"
	}
	resp.setStatus(BillPayStatus{Status: billPayFailed, StatusCode: code, Message: message})
	return c.Status(code).JSON(resp)
}

func succeeded(message string) BillPayStatus {
	return BillPayStatus{Status: billPaySuccess, StatusCode: 0, Message: message}
}
