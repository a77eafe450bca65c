package funding_test

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"testing"

	"github.com/amirasaad/donation/internal/fixtures/fakerepo"
	"github.com/amirasaad/donation/pkg/domain"
	"github.com/amirasaad/donation/pkg/domain/beneficiary"
	"github.com/amirasaad/donation/pkg/domain/events"
	"github.com/amirasaad/donation/pkg/service/funding"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newAggregator(t *testing.T, required int64, status beneficiary.Status) (*funding.Aggregator, *fakerepo.Store, uuid.UUID) {
	t.Helper()
	store := fakerepo.New()
	id := uuid.New()
	store.PutBeneficiary(beneficiary.Beneficiary{
		ID:              id,
		FullName:        "Amani",
		Status:          status,
		FundingRequired: decimal.NewFromInt(required),
	})
	return funding.New(store, []int{25, 50, 75, 100}, slog.New(slog.NewTextHandler(io.Discard, nil))), store, id
}

func TestCredit_Milestones(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	agg, store, id := newAggregator(t, 1000, beneficiary.StatusAwaitingFunding)
	repo, _ := store.BeneficiaryRepository()

	credit, err := agg.Credit(ctx, repo, id, decimal.NewFromInt(200), uuid.New())
	require.NoError(t, err)
	assert.Empty(t, credit.Milestones)
	assert.True(t, credit.Percentage.Equal(decimal.NewFromInt(20)))

	credit, err = agg.Credit(ctx, repo, id, decimal.NewFromInt(400), uuid.New())
	require.NoError(t, err)
	assert.Equal(t, []int{25, 50}, credit.Milestones)
	require.Len(t, credit.Events, 2)
	m := credit.Events[1].(*events.FundingMilestone)
	assert.Equal(t, 50, m.Threshold)
	assert.True(t, m.Received.Equal(decimal.NewFromInt(600)))
	assert.False(t, credit.Promoted)
}

func TestCredit_PromotesWhenFullyFunded(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	agg, store, id := newAggregator(t, 1000, beneficiary.StatusPublished)
	repo, _ := store.BeneficiaryRepository()

	credit, err := agg.Credit(ctx, repo, id, decimal.NewFromInt(1200), uuid.New())
	require.NoError(t, err)
	assert.Equal(t, []int{25, 50, 75, 100}, credit.Milestones)
	assert.True(t, credit.Percentage.Equal(decimal.NewFromInt(100)), "percentage is capped")
	assert.True(t, credit.Promoted)
	assert.IsType(t, &events.FundingCompleted{}, credit.Events[len(credit.Events)-1])

	b, _ := store.Beneficiary(id)
	assert.Equal(t, beneficiary.StatusFullyFunded, b.Status)
	assert.True(t, b.FundingReceived.Equal(decimal.NewFromInt(1200)))

	// Over-funding keeps crediting but never re-reports milestones.
	credit, err = agg.Credit(ctx, repo, id, decimal.NewFromInt(100), uuid.New())
	require.NoError(t, err)
	assert.Empty(t, credit.Milestones)
	assert.False(t, credit.Promoted)
	assert.Empty(t, credit.Events)
}

func TestCredit_ZeroRequirement(t *testing.T) {
	t.Parallel()
	agg, store, id := newAggregator(t, 0, beneficiary.StatusPublished)
	repo, _ := store.BeneficiaryRepository()

	credit, err := agg.Credit(context.Background(), repo, id, decimal.NewFromInt(10), uuid.New())
	require.NoError(t, err)
	assert.True(t, credit.Percentage.IsZero())
	assert.Empty(t, credit.Milestones)
	assert.False(t, credit.Promoted)
}

func TestCredit_Errors(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	agg, store, id := newAggregator(t, 100, beneficiary.StatusPublished)
	repo, _ := store.BeneficiaryRepository()

	_, err := agg.Credit(ctx, repo, uuid.New(), decimal.NewFromInt(1), uuid.New())
	assert.ErrorIs(t, err, domain.ErrNotFound)

	_, err = agg.Credit(ctx, repo, id, decimal.NewFromInt(-1), uuid.New())
	assert.Error(t, err)

	store.FailIncrement = errors.New("db down")
	_, err = agg.Credit(ctx, repo, id, decimal.NewFromInt(1), uuid.New())
	assert.Error(t, err)
}

func TestSnapshot(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	agg, store, id := newAggregator(t, 800, beneficiary.StatusAwaitingFunding)
	repo, _ := store.BeneficiaryRepository()
	_, err := agg.Credit(ctx, repo, id, decimal.NewFromInt(200), uuid.New())
	require.NoError(t, err)

	snap, err := agg.Snapshot(ctx, id)
	require.NoError(t, err)
	assert.True(t, snap.Received.Equal(decimal.NewFromInt(200)))
	assert.True(t, snap.Remaining.Equal(decimal.NewFromInt(600)))
	assert.True(t, snap.Percentage.Equal(decimal.NewFromInt(25)))

	_, err = agg.Snapshot(ctx, uuid.New())
	assert.ErrorIs(t, err, domain.ErrNotFound)
}

func TestNew_NormalizesMilestones(t *testing.T) {
	t.Parallel()
	agg := funding.New(fakerepo.New(), []int{100, 0, 50, 150, 50}, nil)
	assert.Equal(t, []int{50, 100}, agg.Milestones())
	assert.Equal(t, funding.DefaultMilestones, funding.New(fakerepo.New(), nil, nil).Milestones())
}
