// Package fakerepo is an in-memory repository.UnitOfWork for service tests.
// Do serializes units of work and restores a snapshot when fn fails.
package fakerepo

import (
	"context"
	"fmt"
	"reflect"
	"slices"
	"sync"
	"time"

	"github.com/amirasaad/donation/pkg/domain"
	"github.com/amirasaad/donation/pkg/domain/beneficiary"
	"github.com/amirasaad/donation/pkg/domain/donation"
	"github.com/amirasaad/donation/pkg/repository"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Store holds donations and beneficiaries.
type Store struct {
	txMu sync.Mutex

	mu            sync.Mutex
	donations     map[uuid.UUID]donation.Donation
	beneficiaries map[uuid.UUID]beneficiary.Beneficiary

	// Transitions counts successful TransitionStatus calls.
	Transitions int
	// FailIncrement, when set, is returned by IncrementFunding.
	FailIncrement error
	// FailSetTransactionID, when set, is returned by SetProviderTransactionID.
	FailSetTransactionID error
}

// New returns an empty Store.
func New() *Store {
	return &Store{
		donations:     make(map[uuid.UUID]donation.Donation),
		beneficiaries: make(map[uuid.UUID]beneficiary.Beneficiary),
	}
}

// Do implements repository.UnitOfWork.
func (s *Store) Do(ctx context.Context, fn func(uow repository.UnitOfWork) error) error {
	s.txMu.Lock()
	defer s.txMu.Unlock()

	s.mu.Lock()
	donations := make(map[uuid.UUID]donation.Donation, len(s.donations))
	for k, v := range s.donations {
		donations[k] = v
	}
	beneficiaries := make(map[uuid.UUID]beneficiary.Beneficiary, len(s.beneficiaries))
	for k, v := range s.beneficiaries {
		beneficiaries[k] = v
	}
	transitions := s.Transitions
	s.mu.Unlock()

	if err := fn(s); err != nil {
		s.mu.Lock()
		s.donations = donations
		s.beneficiaries = beneficiaries
		s.Transitions = transitions
		s.mu.Unlock()
		return err
	}
	return nil
}

// GetRepository implements repository.UnitOfWork.
func (s *Store) GetRepository(repoType reflect.Type) (any, error) {
	switch repoType {
	case reflect.TypeOf((*repository.DonationRepository)(nil)).Elem():
		return (*donationRepo)(s), nil
	case reflect.TypeOf((*repository.BeneficiaryRepository)(nil)).Elem():
		return (*beneficiaryRepo)(s), nil
	}
	return nil, fmt.Errorf("unsupported repository type: %v", repoType)
}

func (s *Store) DonationRepository() (repository.DonationRepository, error) {
	return (*donationRepo)(s), nil
}

func (s *Store) BeneficiaryRepository() (repository.BeneficiaryRepository, error) {
	return (*beneficiaryRepo)(s), nil
}

// PutBeneficiary seeds a beneficiary.
func (s *Store) PutBeneficiary(b beneficiary.Beneficiary) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.beneficiaries[b.ID] = b
}

// PutDonation seeds a donation.
func (s *Store) PutDonation(d donation.Donation) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.donations[d.ID] = d
}

// Donation returns a copy of the stored donation.
func (s *Store) Donation(id uuid.UUID) (donation.Donation, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	d, ok := s.donations[id]
	return d, ok
}

// Beneficiary returns a copy of the stored beneficiary.
func (s *Store) Beneficiary(id uuid.UUID) (beneficiary.Beneficiary, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	b, ok := s.beneficiaries[id]
	return b, ok
}

// Donations returns every stored donation.
func (s *Store) Donations() []donation.Donation {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]donation.Donation, 0, len(s.donations))
	for _, d := range s.donations {
		out = append(out, d)
	}
	return out
}

type donationRepo Store

func (r *donationRepo) Create(ctx context.Context, d *donation.Donation) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.donations[d.ID]; ok {
		return domain.ErrAlreadyExists
	}
	for _, other := range r.donations {
		if d.ExternalReference != "" && other.ExternalReference == d.ExternalReference {
			return domain.ErrAlreadyExists
		}
		if d.ProviderTransactionID != "" && other.ProviderTransactionID == d.ProviderTransactionID {
			return domain.ErrAlreadyExists
		}
	}
	now := time.Now().UTC()
	d.CreatedAt, d.UpdatedAt = now, now
	r.donations[d.ID] = *d
	return nil
}

func (r *donationRepo) Get(ctx context.Context, id uuid.UUID) (*donation.Donation, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	d, ok := r.donations[id]
	if !ok {
		return nil, domain.ErrNotFound
	}
	return &d, nil
}

func (r *donationRepo) find(match func(donation.Donation) bool) (*donation.Donation, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, d := range r.donations {
		if match(d) {
			return &d, nil
		}
	}
	return nil, domain.ErrNotFound
}

func (r *donationRepo) GetByExternalReference(ctx context.Context, ref string) (*donation.Donation, error) {
	return r.find(func(d donation.Donation) bool { return ref != "" && d.ExternalReference == ref })
}

func (r *donationRepo) GetByProviderTransactionID(ctx context.Context, txID string) (*donation.Donation, error) {
	return r.find(func(d donation.Donation) bool { return txID != "" && d.ProviderTransactionID == txID })
}

func (r *donationRepo) update(id uuid.UUID, fn func(d *donation.Donation)) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	d, ok := r.donations[id]
	if !ok {
		return domain.ErrNotFound
	}
	fn(&d)
	d.UpdatedAt = time.Now().UTC()
	r.donations[id] = d
	return nil
}

func (r *donationRepo) SetExternalReference(ctx context.Context, id uuid.UUID, ref string) error {
	return r.update(id, func(d *donation.Donation) { d.ExternalReference = ref })
}

func (r *donationRepo) SetProviderTransactionID(ctx context.Context, id uuid.UUID, txID string) error {
	if r.FailSetTransactionID != nil {
		return r.FailSetTransactionID
	}
	return r.update(id, func(d *donation.Donation) { d.ProviderTransactionID = txID })
}

func (r *donationRepo) TransitionStatus(
	ctx context.Context,
	id uuid.UUID,
	expected, next donation.Status,
	update repository.StatusUpdate,
) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	d, ok := r.donations[id]
	if !ok || d.Status != expected {
		return false, nil
	}
	d.Status = next
	if update.ProviderTransactionID != "" {
		d.ProviderTransactionID = update.ProviderTransactionID
	}
	if update.FailureReason != "" {
		d.FailureReason = update.FailureReason
	}
	if update.CompletedAt != nil {
		at := *update.CompletedAt
		d.CompletedAt = &at
	}
	d.UpdatedAt = time.Now().UTC()
	r.donations[id] = d
	r.Transitions++
	return true, nil
}

type beneficiaryRepo Store

func (r *beneficiaryRepo) Create(ctx context.Context, b *beneficiary.Beneficiary) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.beneficiaries[b.ID] = *b
	return nil
}

func (r *beneficiaryRepo) Get(ctx context.Context, id uuid.UUID) (*beneficiary.Beneficiary, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	b, ok := r.beneficiaries[id]
	if !ok {
		return nil, domain.ErrNotFound
	}
	return &b, nil
}

func (r *beneficiaryRepo) IncrementFunding(
	ctx context.Context,
	id uuid.UUID,
	delta decimal.Decimal,
) (*repository.FundingChange, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.FailIncrement != nil {
		return nil, r.FailIncrement
	}
	b, ok := r.beneficiaries[id]
	if !ok {
		return nil, domain.ErrNotFound
	}
	before := b.FundingReceived
	b.FundingReceived = before.Add(delta)
	r.beneficiaries[id] = b
	return &repository.FundingChange{
		Before:   before,
		After:    b.FundingReceived,
		Required: b.FundingRequired,
		Status:   b.Status,
	}, nil
}

func (r *beneficiaryRepo) PromoteStatus(
	ctx context.Context,
	id uuid.UUID,
	from []beneficiary.Status,
	next beneficiary.Status,
) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	b, ok := r.beneficiaries[id]
	if !ok || !slices.Contains(from, b.Status) {
		return false, nil
	}
	b.Status = next
	r.beneficiaries[id] = b
	return true, nil
}

var _ repository.UnitOfWork = (*Store)(nil)
