package rateplan_test

import (
	"context"
	"errors"
	"testing"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/heartmarshall/pms-backend/internal/adapter/postgres/rateplan"
	"github.com/heartmarshall/pms-backend/internal/adapter/postgres/testhelper"
	"github.com/heartmarshall/pms-backend/internal/domain"
)

func TestRepo_GetByCodeReadsDerivation(t *testing.T) {
	pool := testhelper.SetupTestDB(t)
	p := testhelper.SeedProperty(t, pool)
	repo := rateplan.New(pool)
	ctx := context.Background()

	bar, err := repo.GetByCode(ctx, p.ID, "BAR")
	require.NoError(t, err)
	assert.False(t, bar.IsDerived())
	assert.Equal(t, domain.DerivedTypeNone, bar.DerivedType)

	nonref, err := repo.GetByCode(ctx, p.ID, "NONREF")
	require.NoError(t, err)
	require.NotNil(t, nonref.ParentRatePlanID)
	assert.Equal(t, p.BAR.ID, *nonref.ParentRatePlanID)
	assert.Equal(t, domain.DerivedTypePercentage, nonref.DerivedType)
	assert.True(t, nonref.DerivedValue.Equal(decimal.NewFromInt(-10)))
	assert.Equal(t, domain.RoundingNearestWhole, nonref.RoundingRule)
}

func TestRepo_GetByIDOtherProperty(t *testing.T) {
	pool := testhelper.SetupTestDB(t)
	p := testhelper.SeedProperty(t, pool)
	other := testhelper.SeedProperty(t, pool)
	repo := rateplan.New(pool)

	_, err := repo.GetByID(context.Background(), other.ID, p.BAR.ID)
	if !errors.Is(err, domain.ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got: %v", err)
	}
}

func TestRepo_ListChildrenOrderedByCode(t *testing.T) {
	pool := testhelper.SetupTestDB(t)
	p := testhelper.SeedProperty(t, pool)
	repo := rateplan.New(pool)
	ctx := context.Background()

	require.NoError(t, repo.Create(ctx, domain.RatePlan{
		ID: uuid.New(), PropertyID: p.ID, Code: "AAA", Name: "Early bird",
		ParentRatePlanID: &p.BAR.ID, DerivedType: domain.DerivedTypeFixedAmount,
		DerivedValue: decimal.RequireFromString("-12.5"), RoundingRule: domain.RoundingMultiple5,
	}))

	children, err := repo.ListChildren(ctx, p.ID, p.BAR.ID)
	require.NoError(t, err)
	require.Len(t, children, 2)
	assert.Equal(t, "AAA", children[0].Code)
	assert.True(t, children[0].DerivedValue.Equal(decimal.RequireFromString("-12.5")))
	assert.Equal(t, "NONREF", children[1].Code)

	leaf, err := repo.ListChildren(ctx, p.ID, p.Member.ID)
	require.NoError(t, err)
	assert.Empty(t, leaf)
}
