package repository

import (
	"context"

	"github.com/amirasaad/donation/pkg/domain/beneficiary"
	"github.com/amirasaad/donation/pkg/repository"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

type beneficiaryRepository struct {
	db *gorm.DB
}

// NewBeneficiaryRepository creates a funding record repository using the provided *gorm.DB.
func NewBeneficiaryRepository(db *gorm.DB) repository.BeneficiaryRepository {
	return &beneficiaryRepository{db: db}
}

// Create implements repository.BeneficiaryRepository.
func (r *beneficiaryRepository) Create(ctx context.Context, b *beneficiary.Beneficiary) error {
	return WrapError(func() error {
		return r.db.WithContext(ctx).Create(mapBeneficiaryToModel(b)).Error
	})
}

// Get implements repository.BeneficiaryRepository.
func (r *beneficiaryRepository) Get(ctx context.Context, id uuid.UUID) (*beneficiary.Beneficiary, error) {
	var m Beneficiary
	if err := WrapError(func() error {
		return r.db.WithContext(ctx).Where("id = ?", id).First(&m).Error
	}); err != nil {
		return nil, err
	}
	return mapModelToBeneficiary(&m), nil
}

// IncrementFunding implements repository.BeneficiaryRepository.
//
// The increment is a single SQL expression so concurrent credits never lose
// an update. Called inside a unit of work the row stays locked until commit,
// which makes the post-update read consistent with this increment.
func (r *beneficiaryRepository) IncrementFunding(
	ctx context.Context,
	id uuid.UUID,
	delta decimal.Decimal,
) (*repository.FundingChange, error) {
	err := WrapError(func() error {
		res := r.db.WithContext(ctx).
			Model(&Beneficiary{}).
			Where("id = ?", id).
			Update("funding_received", gorm.Expr("funding_received + ?", delta))
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return gorm.ErrRecordNotFound
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	b, err := r.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	return &repository.FundingChange{
		Before:   b.FundingReceived.Sub(delta),
		After:    b.FundingReceived,
		Required: b.FundingRequired,
		Status:   b.Status,
	}, nil
}

// PromoteStatus implements repository.BeneficiaryRepository.
func (r *beneficiaryRepository) PromoteStatus(
	ctx context.Context,
	id uuid.UUID,
	from []beneficiary.Status,
	next beneficiary.Status,
) (bool, error) {
	allowed := make([]string, 0, len(from))
	for _, s := range from {
		allowed = append(allowed, string(s))
	}
	res := r.db.WithContext(ctx).
		Model(&Beneficiary{}).
		Where("id = ? AND status IN ?", id, allowed).
		Update("status", string(next))
	if res.Error != nil {
		return false, MapGormErrorToDomain(res.Error)
	}
	return res.RowsAffected > 0, nil
}
