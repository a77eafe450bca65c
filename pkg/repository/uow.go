package repository

import (
	"context"
	"reflect"
)

// UnitOfWork defines the contract for transactional work and type-safe repository access.
//
// Do runs the given function in a transaction boundary, providing a UnitOfWork for repository access.
// GetRepository provides access to repositories bound to the transaction session.
// Example usage:
//
//	repoAny, err := uow.GetRepository(reflect.TypeOf((*DonationRepository)(nil)).Elem())
//	repo := repoAny.(DonationRepository)
type UnitOfWork interface {
	// Do executes the given function within a transaction boundary.
	// If the function returns an error, the transaction is rolled back.
	Do(ctx context.Context, fn func(uow UnitOfWork) error) error

	GetRepository(repoType reflect.Type) (any, error)

	DonationRepository() (DonationRepository, error)
	BeneficiaryRepository() (BeneficiaryRepository, error)
}
