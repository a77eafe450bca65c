package payment

import (
	"context"
)

// Payment is the contract every checkout gateway implements. It never
// mutates donations; callers feed its results to reconciliation.
type Payment interface {
	InitiatePayment(
		ctx context.Context,
		params *InitiatePaymentParams,
	) (*InitiatePaymentResponse, error)

	GetPaymentStatus(
		ctx context.Context,
		params *GetPaymentStatusParams,
	) (*PaymentStatusResponse, error)
}
