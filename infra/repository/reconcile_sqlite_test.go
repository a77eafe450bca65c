package repository

import (
	"context"
	"io"
	"log/slog"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/amirasaad/donation/infra/eventbus"
	"github.com/amirasaad/donation/pkg/domain/beneficiary"
	"github.com/amirasaad/donation/pkg/domain/donation"
	"github.com/amirasaad/donation/pkg/provider/payment"
	"github.com/amirasaad/donation/pkg/service/funding"
	"github.com/amirasaad/donation/pkg/service/reconcile"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// newSQLiteFileDB opens a file database with several connections so that
// units of work really run on separate connections.
func newSQLiteFileDB(t *testing.T) *gorm.DB {
	t.Helper()
	dsn := filepath.Join(t.TempDir(), "donation.db") + "?_busy_timeout=10000&_txlock=immediate&_journal_mode=WAL"
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		Logger:         logger.Default.LogMode(logger.Silent),
		TranslateError: true,
	})
	require.NoError(t, err)
	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(4)
	t.Cleanup(func() { _ = sqlDB.Close() })
	require.NoError(t, db.AutoMigrate(Models()...))
	return db
}

func TestEngine_ConcurrentDonationsForOneBeneficiary_SQLite(t *testing.T) {
	ctx := context.Background()
	uow := NewUoW(newSQLiteFileDB(t))
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))

	bRepo, err := uow.BeneficiaryRepository()
	require.NoError(t, err)
	b := &beneficiary.Beneficiary{
		ID:              uuid.New(),
		FullName:        "Zawadi",
		Status:          beneficiary.StatusAwaitingFunding,
		FundingRequired: decimal.NewFromInt(100),
	}
	require.NoError(t, bRepo.Create(ctx, b))

	dRepo, err := uow.DonationRepository()
	require.NoError(t, err)
	refs := make([]string, 0, 2)
	for _, patient := range []int64{80, 20} {
		d := newDonation(&b.ID)
		d.PatientAmount = decimal.NewFromInt(patient)
		d.SupportAmount = decimal.Zero
		d.Amount = d.PatientAmount
		d.Currency = "TZS"
		d.ExternalReference = donation.NewReference("RHCI", d.ID, time.Now())
		require.NoError(t, dRepo.Create(ctx, d))
		refs = append(refs, d.ExternalReference)
	}

	bus := eventbus.NewWithMemory(logger)
	engine := reconcile.New(uow, funding.New(uow, nil, logger), bus, logger)

	var wg sync.WaitGroup
	results := make([]*reconcile.Result, len(refs))
	start := make(chan struct{})
	for i, ref := range refs {
		wg.Add(1)
		go func(i int, ref string) {
			defer wg.Done()
			<-start
			res, err := engine.Apply(ctx, reconcile.Outcome{
				Reference: ref,
				RawStatus: "success",
				Source:    reconcile.SourceWebhook,
			})
			assert.NoError(t, err)
			results[i] = res
		}(i, ref)
	}
	close(start)
	wg.Wait()

	for _, res := range results {
		require.NotNil(t, res)
		assert.Equal(t, reconcile.Applied, res.Disposition)
		assert.Equal(t, donation.StatusCompleted, res.Status)
	}
	got, err := bRepo.Get(ctx, b.ID)
	require.NoError(t, err)
	assert.True(t, got.FundingReceived.Equal(decimal.NewFromInt(100)), "got %s", got.FundingReceived)
	assert.Equal(t, beneficiary.StatusFullyFunded, got.Status)
}

func TestEngine_RecordDeduplicatesOnTransactionID_SQLite(t *testing.T) {
	ctx := context.Background()
	uow := NewUoW(newSQLiteFileDB(t))
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))

	bRepo, err := uow.BeneficiaryRepository()
	require.NoError(t, err)
	b := &beneficiary.Beneficiary{
		ID:              uuid.New(),
		FullName:        "Zawadi",
		Status:          beneficiary.StatusAwaitingFunding,
		FundingRequired: decimal.NewFromInt(1000),
	}
	require.NoError(t, bRepo.Create(ctx, b))

	engine := reconcile.New(uow, funding.New(uow, nil, logger), eventbus.NewWithMemory(logger), logger)

	const deliveries = 4
	var (
		wg      sync.WaitGroup
		mu      sync.Mutex
		applied int
	)
	start := make(chan struct{})
	for i := 0; i < deliveries; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			d := newDonation(&b.ID)
			d.PatientAmount, d.SupportAmount, d.Amount = decimal.NewFromInt(250), decimal.Zero, decimal.NewFromInt(250)
			d.Currency = "TZS"
			d.PaymentMethod = donation.MethodBillPay
			d.ExternalReference = donation.NewReference("RHCI", d.ID, time.Now())
			<-start
			res, err := engine.Record(ctx, d, reconcile.Outcome{
				ProviderTransactionID: "PG-SQLITE",
				Status:                payment.PaymentCompleted,
				Source:                reconcile.SourceBillPay,
			})
			if !assert.NoError(t, err) {
				return
			}
			if res.Disposition == reconcile.Applied {
				mu.Lock()
				applied++
				mu.Unlock()
			}
		}()
	}
	close(start)
	wg.Wait()

	assert.Equal(t, 1, applied)
	got, err := bRepo.Get(ctx, b.ID)
	require.NoError(t, err)
	assert.True(t, got.FundingReceived.Equal(decimal.NewFromInt(250)), "got %s", got.FundingReceived)
}
