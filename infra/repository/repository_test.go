package repository

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/amirasaad/donation/pkg/domain"
	"github.com/amirasaad/donation/pkg/domain/beneficiary"
	"github.com/amirasaad/donation/pkg/domain/donation"
	"github.com/amirasaad/donation/pkg/repository"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/postgres"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

func newMockDB(t *testing.T) (*gorm.DB, sqlmock.Sqlmock) {
	t.Helper()
	mockDb, mock, err := sqlmock.New()
	require.NoError(t, err)
	dialector := postgres.New(postgres.Config{
		Conn:       mockDb,
		DriverName: "postgres",
	})
	db, err := gorm.Open(dialector, &gorm.Config{
		Logger:                 logger.Default.LogMode(logger.Silent),
		SkipDefaultTransaction: true,
	})
	require.NoError(t, err)
	return db, mock
}

func newSQLiteDB(t *testing.T) *gorm.DB {
	t.Helper()
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		Logger:         logger.Default.LogMode(logger.Silent),
		TranslateError: true,
	})
	require.NoError(t, err)
	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)
	t.Cleanup(func() { _ = sqlDB.Close() })
	require.NoError(t, db.AutoMigrate(Models()...))
	return db
}

func newDonation(beneficiaryID *uuid.UUID) *donation.Donation {
	return &donation.Donation{
		ID:              uuid.New(),
		Amount:          decimal.NewFromInt(50),
		PatientAmount:   decimal.NewFromInt(45),
		SupportAmount:   decimal.NewFromInt(5),
		Currency:        "USD",
		GatewayAmount:   decimal.NewFromInt(115000),
		GatewayCurrency: "TZS",
		BeneficiaryID:   beneficiaryID,
		IsAnonymous:     true,
		AnonymousName:   "Jane",
		AnonymousEmail:  "jane@example.com",
		PaymentMethod:   donation.MethodMobileMoney,
		Provider:        "mpesa",
		AccountNumber:   "255712345678",
		Status:          donation.StatusPending,
	}
}

func TestDonationRepository_TransitionStatus_SQL(t *testing.T) {
	db, mock := newMockDB(t)
	repo := NewDonationRepository(db)
	id := uuid.New()

	mock.ExpectExec(`UPDATE "donations" SET .+ WHERE id = \$\d+ AND status = \$\d+`).
		WillReturnResult(sqlmock.NewResult(0, 1))
	ok, err := repo.TransitionStatus(context.Background(), id, donation.StatusPending, donation.StatusCompleted,
		repository.StatusUpdate{ProviderTransactionID: "TX1"})
	require.NoError(t, err)
	assert.True(t, ok)

	mock.ExpectExec(`UPDATE "donations" SET .+ WHERE id = \$\d+ AND status = \$\d+`).
		WillReturnResult(sqlmock.NewResult(0, 0))
	ok, err = repo.TransitionStatus(context.Background(), id, donation.StatusPending, donation.StatusFailed,
		repository.StatusUpdate{FailureReason: "declined"})
	require.NoError(t, err)
	assert.False(t, ok, "zero rows affected means the donation already left PENDING")

	mock.ExpectExec(`UPDATE "donations"`).WillReturnError(errors.New("conn reset"))
	_, err = repo.TransitionStatus(context.Background(), id, donation.StatusPending, donation.StatusFailed,
		repository.StatusUpdate{})
	assert.Error(t, err)

	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestBeneficiaryRepository_IncrementFunding_SQL(t *testing.T) {
	db, mock := newMockDB(t)
	repo := NewBeneficiaryRepository(db)
	id := uuid.New()

	mock.ExpectExec(`UPDATE "patients" SET "funding_received"=funding_received \+ \$1`).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectQuery(`SELECT \* FROM "patients" WHERE id = \$1`).
		WillReturnRows(sqlmock.NewRows([]string{"id", "full_name", "status", "funding_required", "funding_received"}).
			AddRow(id, "Amani", "AWAITING_FUNDING", "1000.00", "300.00"))

	change, err := repo.IncrementFunding(context.Background(), id, decimal.NewFromInt(100))
	require.NoError(t, err)
	assert.True(t, change.Before.Equal(decimal.NewFromInt(200)))
	assert.True(t, change.After.Equal(decimal.NewFromInt(300)))
	assert.True(t, change.Required.Equal(decimal.NewFromInt(1000)))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestDonationRepository_SQLite(t *testing.T) {
	ctx := context.Background()
	db := newSQLiteDB(t)
	repo := NewDonationRepository(db)

	d := newDonation(nil)
	require.NoError(t, repo.Create(ctx, d))

	t.Run("get round trips amounts", func(t *testing.T) {
		got, err := repo.Get(ctx, d.ID)
		require.NoError(t, err)
		assert.True(t, got.Amount.Equal(d.Amount))
		assert.True(t, got.PatientAmount.Equal(d.PatientAmount))
		assert.True(t, got.GatewayAmount.Equal(d.GatewayAmount))
		assert.Equal(t, donation.StatusPending, got.Status)
		assert.Empty(t, got.ExternalReference)
	})

	t.Run("missing donation maps to ErrNotFound", func(t *testing.T) {
		_, err := repo.Get(ctx, uuid.New())
		assert.ErrorIs(t, err, domain.ErrNotFound)
		_, err = repo.GetByExternalReference(ctx, "nope")
		assert.ErrorIs(t, err, domain.ErrNotFound)
	})

	t.Run("reference and provider id lookups", func(t *testing.T) {
		ref := donation.NewReference("RHCI", d.ID, time.Now())
		require.NoError(t, repo.SetExternalReference(ctx, d.ID, ref))
		require.NoError(t, repo.SetProviderTransactionID(ctx, d.ID, "AZ-1"))

		got, err := repo.GetByExternalReference(ctx, ref)
		require.NoError(t, err)
		assert.Equal(t, d.ID, got.ID)

		got, err = repo.GetByProviderTransactionID(ctx, "AZ-1")
		require.NoError(t, err)
		assert.Equal(t, d.ID, got.ID)

		assert.ErrorIs(t, repo.SetExternalReference(ctx, uuid.New(), "x"), domain.ErrNotFound)
	})

	t.Run("external reference is unique", func(t *testing.T) {
		other := newDonation(nil)
		require.NoError(t, repo.Create(ctx, other))
		first, err := repo.Get(ctx, d.ID)
		require.NoError(t, err)
		err = repo.SetExternalReference(ctx, other.ID, first.ExternalReference)
		assert.ErrorIs(t, err, domain.ErrAlreadyExists)
	})

	t.Run("provider transaction id is unique", func(t *testing.T) {
		dup := newDonation(nil)
		dup.ProviderTransactionID = "AZ-1"
		assert.ErrorIs(t, repo.Create(ctx, dup), domain.ErrAlreadyExists)

		other := newDonation(nil)
		other.ProviderTransactionID = "AZ-2"
		require.NoError(t, repo.Create(ctx, other))
	})

	t.Run("transition happens at most once", func(t *testing.T) {
		now := time.Now().UTC()
		ok, err := repo.TransitionStatus(ctx, d.ID, donation.StatusPending, donation.StatusCompleted,
			repository.StatusUpdate{ProviderTransactionID: "AZ-1", CompletedAt: &now})
		require.NoError(t, err)
		assert.True(t, ok)

		ok, err = repo.TransitionStatus(ctx, d.ID, donation.StatusPending, donation.StatusFailed,
			repository.StatusUpdate{FailureReason: "late failure"})
		require.NoError(t, err)
		assert.False(t, ok)

		got, err := repo.Get(ctx, d.ID)
		require.NoError(t, err)
		assert.Equal(t, donation.StatusCompleted, got.Status)
		assert.Empty(t, got.FailureReason)
		require.NotNil(t, got.CompletedAt)
	})
}

func TestBeneficiaryRepository_SQLite(t *testing.T) {
	ctx := context.Background()
	db := newSQLiteDB(t)
	repo := NewBeneficiaryRepository(db)

	b := &beneficiary.Beneficiary{
		ID:              uuid.New(),
		FullName:        "Amani",
		Status:          beneficiary.StatusAwaitingFunding,
		FundingRequired: decimal.NewFromInt(1000),
	}
	require.NoError(t, repo.Create(ctx, b))

	change, err := repo.IncrementFunding(ctx, b.ID, decimal.NewFromInt(250))
	require.NoError(t, err)
	assert.True(t, change.Before.IsZero())
	assert.True(t, change.After.Equal(decimal.NewFromInt(250)))

	change, err = repo.IncrementFunding(ctx, b.ID, decimal.NewFromInt(800))
	require.NoError(t, err)
	assert.True(t, change.Before.Equal(decimal.NewFromInt(250)))
	assert.True(t, change.After.Equal(decimal.NewFromInt(1050)))

	_, err = repo.IncrementFunding(ctx, uuid.New(), decimal.NewFromInt(1))
	assert.ErrorIs(t, err, domain.ErrNotFound)

	ok, err := repo.PromoteStatus(ctx, b.ID,
		[]beneficiary.Status{beneficiary.StatusPublished, beneficiary.StatusAwaitingFunding},
		beneficiary.StatusFullyFunded)
	require.NoError(t, err)
	assert.True(t, ok)

	ok, err = repo.PromoteStatus(ctx, b.ID,
		[]beneficiary.Status{beneficiary.StatusPublished, beneficiary.StatusAwaitingFunding},
		beneficiary.StatusFullyFunded)
	require.NoError(t, err)
	assert.False(t, ok, "already promoted")

	got, err := repo.Get(ctx, b.ID)
	require.NoError(t, err)
	assert.Equal(t, beneficiary.StatusFullyFunded, got.Status)
}

func TestUoW_Do(t *testing.T) {
	ctx := context.Background()
	db := newSQLiteDB(t)
	uow := NewUoW(db)

	b := &beneficiary.Beneficiary{ID: uuid.New(), FullName: "Baraka", Status: beneficiary.StatusPublished, FundingRequired: decimal.NewFromInt(100)}
	bRepo, err := uow.BeneficiaryRepository()
	require.NoError(t, err)
	require.NoError(t, bRepo.Create(ctx, b))

	d := newDonation(&b.ID)
	dRepo, err := uow.DonationRepository()
	require.NoError(t, err)
	require.NoError(t, dRepo.Create(ctx, d))

	t.Run("rollback undoes transition and credit together", func(t *testing.T) {
		boom := errors.New("boom")
		err := uow.Do(ctx, func(tx repository.UnitOfWork) error {
			txDonations, err := tx.DonationRepository()
			require.NoError(t, err)
			txBeneficiaries, err := tx.BeneficiaryRepository()
			require.NoError(t, err)

			ok, err := txDonations.TransitionStatus(ctx, d.ID, donation.StatusPending, donation.StatusCompleted, repository.StatusUpdate{})
			require.NoError(t, err)
			require.True(t, ok)
			_, err = txBeneficiaries.IncrementFunding(ctx, b.ID, d.PatientAmount)
			require.NoError(t, err)
			return boom
		})
		assert.ErrorIs(t, err, boom)

		got, err := dRepo.Get(ctx, d.ID)
		require.NoError(t, err)
		assert.Equal(t, donation.StatusPending, got.Status)
		gotB, err := bRepo.Get(ctx, b.ID)
		require.NoError(t, err)
		assert.True(t, gotB.FundingReceived.IsZero())
	})

	t.Run("unsupported repository type", func(t *testing.T) {
		_, err := uow.GetRepository(nil)
		assert.Error(t, err)
	})
}
