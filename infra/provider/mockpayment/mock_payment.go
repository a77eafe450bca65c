package mockpayment

import (
	"context"
	"fmt"
	"sync"

	"github.com/amirasaad/donation/pkg/domain"
	"github.com/amirasaad/donation/pkg/provider/payment"
	"github.com/google/uuid"
)

type mockPayment struct {
	reference string
	status    payment.PaymentStatus
}

// MockPaymentProvider is an in-process gateway for local development and
// tests. Checkouts are accepted as pending and stay that way until
// SetStatus settles them.
//
// This is NOT for production use.
type MockPaymentProvider struct {
	mu       sync.Mutex
	seq      int
	payments map[string]*mockPayment
	byRef    map[string]string
	initErr  error
	statusFn func(paymentID string) error
}

// NewMockPaymentProvider creates a new instance of MockPaymentProvider.
func NewMockPaymentProvider() *MockPaymentProvider {
	return &MockPaymentProvider{
		payments: make(map[string]*mockPayment),
		byRef:    make(map[string]string),
	}
}

// FailInitiateWith makes every following InitiatePayment return err.
// Pass nil to restore normal behaviour.
func (m *MockPaymentProvider) FailInitiateWith(err error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.initErr = err
}

// FailStatusWith makes GetPaymentStatus return the error produced by fn.
func (m *MockPaymentProvider) FailStatusWith(fn func(paymentID string) error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.statusFn = fn
}

// InitiatePayment records a pending checkout and returns its id.
func (m *MockPaymentProvider) InitiatePayment(
	ctx context.Context,
	params *payment.InitiatePaymentParams,
) (*payment.InitiatePaymentResponse, error) {
	if _, ok := payment.ResolveProvider(params.Kind, params.Provider); !ok {
		return nil, domain.NewValidationError("provider",
			fmt.Sprintf("unsupported %s provider %q", params.Kind, params.Provider))
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	if m.initErr != nil {
		return nil, m.initErr
	}
	m.seq++
	// Transaction ids are unique in storage, which outlives this process.
	id := fmt.Sprintf("MOCK-%06d-%s", m.seq, uuid.NewString()[:8])
	m.payments[id] = &mockPayment{reference: params.Reference, status: payment.PaymentPending}
	m.byRef[params.Reference] = id
	return &payment.InitiatePaymentResponse{
		Status:    payment.PaymentPending,
		PaymentID: id,
		Message:   "mock checkout accepted",
	}, nil
}

// GetPaymentStatus reports the stored status, looking up by payment id and
// then by reference.
func (m *MockPaymentProvider) GetPaymentStatus(
	ctx context.Context,
	params *payment.GetPaymentStatusParams,
) (*payment.PaymentStatusResponse, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	id := params.PaymentID
	if id == "" {
		id = m.byRef[params.Reference]
	}
	if m.statusFn != nil {
		if err := m.statusFn(id); err != nil {
			return nil, err
		}
	}
	p, ok := m.payments[id]
	if !ok {
		return nil, &payment.GatewayError{Kind: payment.ErrGatewayRejected, StatusCode: 404, Message: "transaction not found"}
	}
	return &payment.PaymentStatusResponse{
		Status:    p.status,
		RawStatus: string(p.status),
		PaymentID: id,
	}, nil
}

// SetStatus settles a recorded payment. It returns false for unknown ids.
func (m *MockPaymentProvider) SetStatus(paymentID string, status payment.PaymentStatus) bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	p, ok := m.payments[paymentID]
	if ok {
		p.status = status
	}
	return ok
}

// PaymentIDFor returns the id assigned to reference.
func (m *MockPaymentProvider) PaymentIDFor(reference string) (string, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	id, ok := m.byRef[reference]
	return id, ok
}

var _ payment.Payment = (*MockPaymentProvider)(nil)
