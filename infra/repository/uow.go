package repository

import (
	"context"
	"fmt"
	"reflect"

	"github.com/amirasaad/donation/pkg/repository"
	"gorm.io/gorm"
)

// UoW provides transaction boundary and repository access in one abstraction.
// Every repository handed out by a UoW created inside Do shares its
// transaction.
type UoW struct {
	db           *gorm.DB
	tx           *gorm.DB
	repoRegistry map[reflect.Type]func(*gorm.DB) any
}

// NewUoW creates a new UoW for the given *gorm.DB.
func NewUoW(db *gorm.DB) *UoW {
	return &UoW{
		db: db,
		repoRegistry: map[reflect.Type]func(*gorm.DB) any{
			reflect.TypeOf((*repository.DonationRepository)(nil)).Elem():    func(db *gorm.DB) any { return NewDonationRepository(db) },
			reflect.TypeOf((*repository.BeneficiaryRepository)(nil)).Elem(): func(db *gorm.DB) any { return NewBeneficiaryRepository(db) },
		},
	}
}

// Do runs the given function in a transaction boundary, providing a UoW with repository access.
func (u *UoW) Do(ctx context.Context, fn func(uow repository.UnitOfWork) error) error {
	return u.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		txnUow := &UoW{db: u.db, tx: tx, repoRegistry: u.repoRegistry}
		return fn(txnUow)
	})
}

// GetRepository returns a repository bound to the transaction session, or
// to the plain connection outside Do.
func (u *UoW) GetRepository(repoType reflect.Type) (any, error) {
	constructor, ok := u.repoRegistry[repoType]
	if !ok {
		return nil, fmt.Errorf("unsupported repository type: %v", repoType)
	}
	session := u.tx
	if session == nil {
		session = u.db
	}
	return constructor(session), nil
}

// DonationRepository implements repository.UnitOfWork.
func (u *UoW) DonationRepository() (repository.DonationRepository, error) {
	repoAny, err := u.GetRepository(reflect.TypeOf((*repository.DonationRepository)(nil)).Elem())
	if err != nil {
		return nil, err
	}
	return repoAny.(repository.DonationRepository), nil
}

// BeneficiaryRepository implements repository.UnitOfWork.
func (u *UoW) BeneficiaryRepository() (repository.BeneficiaryRepository, error) {
	repoAny, err := u.GetRepository(reflect.TypeOf((*repository.BeneficiaryRepository)(nil)).Elem())
	if err != nil {
		return nil, err
	}
	return repoAny.(repository.BeneficiaryRepository), nil
}

var _ repository.UnitOfWork = (*UoW)(nil)
