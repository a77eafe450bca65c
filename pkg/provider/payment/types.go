package payment

import (
	"errors"
	"fmt"
	"strings"

	"github.com/amirasaad/donation/pkg/domain"
	"github.com/shopspring/decimal"
)

// PaymentStatus represents the normalized status of a payment.
type PaymentStatus string

const (
	// PaymentPending indicates the payment is still in flight.
	PaymentPending PaymentStatus = "pending"
	// PaymentCompleted indicates the payment has completed successfully.
	PaymentCompleted PaymentStatus = "completed"
	// PaymentFailed indicates the payment has failed.
	PaymentFailed PaymentStatus = "failed"
	// PaymentCancelled indicates the payer or provider cancelled the payment.
	PaymentCancelled PaymentStatus = "cancelled"
	// PaymentUnknown is any provider code we cannot classify.
	PaymentUnknown PaymentStatus = "unknown"
)

// IsTerminal reports whether the status settles a donation.
func (s PaymentStatus) IsTerminal() bool {
	return s == PaymentCompleted || s == PaymentFailed || s == PaymentCancelled
}

// ParseStatus normalizes the provider's free-form outcome code.
func ParseStatus(raw string) PaymentStatus {
	switch strings.ToLower(strings.TrimSpace(raw)) {
	case "success", "successful", "succeeded", "completed", "complete", "settled", "paid":
		return PaymentCompleted
	case "failed", "failure", "fail", "error", "rejected", "declined", "expired":
		return PaymentFailed
	case "cancelled", "canceled", "cancel", "reversed":
		return PaymentCancelled
	case "pending", "processing", "initiated", "in_progress", "inprogress":
		return PaymentPending
	default:
		return PaymentUnknown
	}
}

// Kind selects the checkout flavour.
type Kind string

const (
	KindMobileMoney Kind = "mobile_money"
	KindBank        Kind = "bank"
)

// Providers maps donor-facing provider keys to the gateway's names, per kind.
var Providers = map[Kind]map[string]string{
	KindMobileMoney: {
		"mpesa":    "Mpesa",
		"airtel":   "Airtel",
		"tigo":     "Tigo",
		"halopesa": "Halopesa",
		"halotel":  "Halopesa",
		"azampesa": "Azampesa",
	},
	KindBank: {
		"crdb": "CRDB",
		"nmb":  "NMB",
	},
}

// ResolveProvider returns the gateway name for key within kind.
func ResolveProvider(kind Kind, key string) (string, bool) {
	name, ok := Providers[kind][strings.ToLower(strings.TrimSpace(key))]
	return name, ok
}

// InitiatePaymentParams holds the parameters for the InitiatePayment method.
type InitiatePaymentParams struct {
	Kind Kind
	// Reference is the correlation token echoed back by callbacks.
	Reference string
	Amount    decimal.Decimal
	Currency  string
	// Provider is the donor-facing key, e.g. "mpesa" or "crdb".
	Provider      string
	AccountNumber string

	MerchantAccountNumber string
	MerchantMobileNumber  string
	MerchantName          string
	OTP                   string

	Metadata map[string]string
}

type InitiatePaymentResponse struct {
	Status PaymentStatus
	// PaymentID is the gateway's transaction id.
	PaymentID string
	Message   string
}

// GetPaymentStatusParams identifies a payment to poll. Reference is tried
// when PaymentID is empty.
type GetPaymentStatusParams struct {
	PaymentID string
	Reference string
}

type PaymentStatusResponse struct {
	Status    PaymentStatus
	RawStatus string
	PaymentID string
	Message   string
}

var (
	// ErrGatewayUnreachable means retries were exhausted on network or 5xx errors.
	ErrGatewayUnreachable = fmt.Errorf("%w: unreachable", domain.ErrGateway)
	// ErrGatewayTimeout means the request may still complete at the provider.
	ErrGatewayTimeout = fmt.Errorf("%w: timeout", domain.ErrGateway)
	// ErrGatewayRejected means the gateway refused the request.
	ErrGatewayRejected = fmt.Errorf("%w: rejected", domain.ErrGateway)
	// ErrGatewayAuth means credentials could not be exchanged for a token.
	ErrGatewayAuth = fmt.Errorf("%w: authentication failed", domain.ErrGateway)
)

// GatewayError carries the gateway's own message for a classified failure.
type GatewayError struct {
	Kind       error
	StatusCode int
	Message    string
}

func (e *GatewayError) Error() string {
	if e.Message == "" {
		return e.Kind.Error()
	}
	return fmt.Sprintf("%s: %s", e.Kind, e.Message)
}

func (e *GatewayError) Unwrap() error { return e.Kind }

// RejectionMessage returns the gateway message of a rejected request.
func RejectionMessage(err error) string {
	var gErr *GatewayError
	if errors.As(err, &gErr) {
		return gErr.Message
	}
	return err.Error()
}
