package donation

import (
	"errors"
	"fmt"
	"strings"

	"github.com/amirasaad/donation/pkg/domain"
	"github.com/amirasaad/donation/pkg/domain/donation"
	"github.com/amirasaad/donation/pkg/provider/payment"
	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

var validate = validator.New()

// Request is a donation initiation as submitted by a donor. Either Amount
// or the PatientAmount/SupportAmount split must be given.
type Request struct {
	BeneficiaryID *uuid.UUID `json:"beneficiary_id,omitempty"`

	Amount        decimal.Decimal `json:"amount" swaggertype:"number"`
	PatientAmount decimal.Decimal `json:"patient_amount" swaggertype:"number"`
	SupportAmount decimal.Decimal `json:"support_amount" swaggertype:"number"`
	Currency      string          `json:"currency" validate:"required,len=3,alpha"`

	PaymentMethod donation.PaymentMethod `json:"payment_method" validate:"required,oneof=MOBILE_MONEY BANK"`
	Provider      string                 `json:"provider" validate:"required,max=20"`
	PhoneNumber   string                 `json:"phone_number,omitempty" validate:"required_if=PaymentMethod MOBILE_MONEY,max=20"`

	MerchantAccountNumber string `json:"merchant_account_number,omitempty" validate:"required_if=PaymentMethod BANK,max=30"`
	MerchantMobileNumber  string `json:"merchant_mobile_number,omitempty" validate:"required_if=PaymentMethod BANK,max=20"`
	MerchantName          string `json:"merchant_name,omitempty" validate:"max=100"`
	OTP                   string `json:"otp,omitempty" validate:"required_if=PaymentMethod BANK,max=10"`

	IsAnonymous    bool   `json:"is_anonymous"`
	AnonymousName  string `json:"anonymous_name,omitempty" validate:"max=200"`
	AnonymousEmail string `json:"anonymous_email,omitempty" validate:"omitempty,email,max=254"`
	Message        string `json:"message,omitempty" validate:"max=500"`

	// DonorID is the verified token subject; it is never read from the body.
	DonorID *uuid.UUID `json:"-"`
}

func (r *Request) kind() payment.Kind {
	if r.PaymentMethod == donation.MethodBank {
		return payment.KindBank
	}
	return payment.KindMobileMoney
}

// split returns the canonical amount shape. A plain amount is credited to
// the beneficiary in full.
func (r *Request) split() (donation.Split, error) {
	if r.PatientAmount.IsNegative() {
		return donation.Split{}, domain.NewValidationError("patient_amount", "must not be negative")
	}
	if r.SupportAmount.IsNegative() {
		return donation.Split{}, domain.NewValidationError("support_amount", "must not be negative")
	}

	var s donation.Split
	if r.PatientAmount.IsZero() && r.SupportAmount.IsZero() {
		s = donation.PlainSplit(r.Amount)
	} else {
		s = donation.Split{PatientAmount: r.PatientAmount, SupportAmount: r.SupportAmount}
		if !r.Amount.IsZero() && !r.Amount.Equal(s.Total()) {
			return donation.Split{}, domain.NewValidationError("amount", "must equal patient_amount + support_amount")
		}
	}
	if !s.Total().IsPositive() {
		return donation.Split{}, domain.NewValidationError("amount", "must be greater than zero")
	}
	return s, nil
}

// anonymous reports whether the donation carries no verified donor.
func (r *Request) anonymous() bool {
	return r.IsAnonymous || r.DonorID == nil || *r.DonorID == uuid.Nil
}

func (r *Request) check() error {
	if err := validate.Struct(r); err != nil {
		return toValidationError(err)
	}
	if r.anonymous() {
		if strings.TrimSpace(r.AnonymousName) == "" {
			return domain.NewValidationError("anonymous_name", "required for anonymous donations")
		}
		if strings.TrimSpace(r.AnonymousEmail) == "" {
			return domain.NewValidationError("anonymous_email", "required for anonymous donations")
		}
	}
	if _, ok := payment.ResolveProvider(r.kind(), r.Provider); !ok {
		return domain.NewValidationError("provider",
			fmt.Sprintf("%q is not a %s provider", r.Provider, r.PaymentMethod))
	}
	return nil
}

func toValidationError(err error) error {
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) || len(verrs) == 0 {
		return domain.NewValidationError("", err.Error())
	}
	fe := verrs[0]
	msg := fmt.Sprintf("failed on %s", fe.Tag())
	if fe.Param() != "" {
		msg = fmt.Sprintf("failed on %s=%s", fe.Tag(), fe.Param())
	}
	return domain.NewValidationError(toSnake(fe.Field()), msg)
}

func toSnake(s string) string {
	var b strings.Builder
	for i, r := range s {
		if r >= 'A' && r <= 'Z' {
			if i > 0 && !(s[i-1] >= 'A' && s[i-1] <= 'Z') {
				b.WriteByte('_')
			}
			r += 'a' - 'A'
		}
		b.WriteRune(r)
	}
	return b.String()
}
