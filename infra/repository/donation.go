package repository

import (
	"context"

	"github.com/amirasaad/donation/pkg/domain/donation"
	"github.com/amirasaad/donation/pkg/repository"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

type donationRepository struct {
	db *gorm.DB
}

// NewDonationRepository creates a donation repository using the provided *gorm.DB.
func NewDonationRepository(db *gorm.DB) repository.DonationRepository {
	return &donationRepository{db: db}
}

// Create implements repository.DonationRepository.
func (r *donationRepository) Create(ctx context.Context, d *donation.Donation) error {
	m := mapDonationToModel(d)
	if err := WrapError(func() error {
		return r.db.WithContext(ctx).Create(m).Error
	}); err != nil {
		return err
	}
	d.CreatedAt = m.CreatedAt
	d.UpdatedAt = m.UpdatedAt
	return nil
}

// Get implements repository.DonationRepository.
func (r *donationRepository) Get(ctx context.Context, id uuid.UUID) (*donation.Donation, error) {
	return r.first(ctx, "id = ?", id)
}

// GetByExternalReference implements repository.DonationRepository.
func (r *donationRepository) GetByExternalReference(ctx context.Context, ref string) (*donation.Donation, error) {
	return r.first(ctx, "external_reference = ?", ref)
}

// GetByProviderTransactionID implements repository.DonationRepository.
func (r *donationRepository) GetByProviderTransactionID(ctx context.Context, txnID string) (*donation.Donation, error) {
	return r.first(ctx, "provider_transaction_id = ?", txnID)
}

func (r *donationRepository) first(ctx context.Context, query string, arg any) (*donation.Donation, error) {
	var m Donation
	if err := WrapError(func() error {
		return r.db.WithContext(ctx).Where(query, arg).First(&m).Error
	}); err != nil {
		return nil, err
	}
	return mapModelToDonation(&m), nil
}

// SetExternalReference implements repository.DonationRepository.
func (r *donationRepository) SetExternalReference(ctx context.Context, id uuid.UUID, ref string) error {
	return r.updateColumn(ctx, id, "external_reference", ref)
}

// SetProviderTransactionID implements repository.DonationRepository.
func (r *donationRepository) SetProviderTransactionID(ctx context.Context, id uuid.UUID, txnID string) error {
	return r.updateColumn(ctx, id, "provider_transaction_id", txnID)
}

func (r *donationRepository) updateColumn(ctx context.Context, id uuid.UUID, column string, value any) error {
	return WrapError(func() error {
		res := r.db.WithContext(ctx).Model(&Donation{}).Where("id = ?", id).Update(column, value)
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return gorm.ErrRecordNotFound
		}
		return nil
	})
}

// TransitionStatus implements repository.DonationRepository.
//
// The WHERE clause carries the expected status so two concurrent callers
// cannot both move the same donation out of PENDING.
func (r *donationRepository) TransitionStatus(
	ctx context.Context,
	id uuid.UUID,
	expected, next donation.Status,
	update repository.StatusUpdate,
) (bool, error) {
	updates := map[string]any{"status": string(next)}
	if update.ProviderTransactionID != "" {
		updates["provider_transaction_id"] = update.ProviderTransactionID
	}
	if update.FailureReason != "" {
		updates["failure_reason"] = update.FailureReason
	}
	if update.CompletedAt != nil {
		updates["completed_at"] = *update.CompletedAt
	}

	res := r.db.WithContext(ctx).
		Model(&Donation{}).
		Where("id = ? AND status = ?", id, string(expected)).
		Updates(updates)
	if res.Error != nil {
		return false, MapGormErrorToDomain(res.Error)
	}
	return res.RowsAffected == 1, nil
}
